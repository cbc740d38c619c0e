package dynamo

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

// Config holds DynamoDB table and client settings
type Config struct {
	// Table is the single table holding every document
	Table string

	// Region overrides the region from the shared AWS config
	Region string

	// Profile selects a shared config profile
	Profile string

	// Endpoint points the client at DynamoDB Local or another compatible service
	Endpoint string

	// CreateTable creates the table on startup when it is missing
	CreateTable bool
}

// DefaultConfig returns sensible defaults for DynamoDB configuration
func DefaultConfig() Config {
	return Config{
		Table:       "clubhouse_documents",
		CreateTable: true,
	}
}

// validate fills in defaults for empty values
func (c *Config) validate() {
	if c.Table == "" {
		c.Table = "clubhouse_documents"
	}
}

// NewClient builds a DynamoDB client from the default AWS credential chain
func NewClient(ctx context.Context, cfg Config) (*dynamodb.Client, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.Profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(cfg.Profile))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, err
	}

	return dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	}), nil
}
