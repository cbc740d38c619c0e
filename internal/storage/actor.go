package storage

import (
	"context"

	"github.com/mcoot/clubhouse/internal/model"
)

type actorKey struct{}

// WithActor attaches the identity recorded as CreatedBy on inserts
func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFrom returns the actor attached to ctx, or model.SystemActor
func ActorFrom(ctx context.Context) string {
	if actor, ok := ctx.Value(actorKey{}).(string); ok && actor != "" {
		return actor
	}
	return model.SystemActor
}
