// Package awsutil loads AWS SDK configuration for the S3 and DynamoDB backends.
package awsutil

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsCfg "github.com/aws/aws-sdk-go-v2/config"

	"tt2import/internal/config"
)

// Load loads the AWS configuration. When c.Endpoint is set (e.g. http://localstack:4566)
// every service is pointed at it.
func Load(ctx context.Context, c config.AWSConfig) (aws.Config, error) {
	if c.Endpoint == "" {
		return awsCfg.LoadDefaultConfig(ctx, awsCfg.WithRegion(c.Region))
	}
	resolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, _ ...any) (aws.Endpoint, error) {
		return aws.Endpoint{
			URL:               c.Endpoint,
			HostnameImmutable: true,
			PartitionID:       "aws",
			SigningRegion:     c.Region,
		}, nil
	})
	return awsCfg.LoadDefaultConfig(ctx,
		awsCfg.WithRegion(c.Region),
		awsCfg.WithEndpointResolverWithOptions(resolver),
	)
}
