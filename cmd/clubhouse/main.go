package main

import (
	"context"

	"github.com/mcoot/clubhouse/internal/cli"
)

func main() {
	cli.Execute(context.Background())
}
