// Package awsutil provides utilities for loading AWS configuration.
package awsutil

import (
	"context"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsCfg "github.com/aws/aws-sdk-go-v2/config"
)

// Load loads the AWS configuration, using a custom endpoint if
// AWS_ENDPOINT_URL is set (e.g. http://localstack:4566).
func Load(ctx context.Context, region string) (aws.Config, string, error) {
	endpoint := os.Getenv("AWS_ENDPOINT_URL")
	opts := []func(*awsCfg.LoadOptions) error{awsCfg.WithRegion(region)}
	if endpoint != "" {
		opts = append(opts, awsCfg.WithBaseEndpoint(endpoint))
	}
	cfg, err := awsCfg.LoadDefaultConfig(ctx, opts...)
	return cfg, endpoint, err
}
