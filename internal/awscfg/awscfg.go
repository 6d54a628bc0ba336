// Package awscfg builds the aws.Config shared by the DynamoDB store and the
// S3 export uploader.
package awscfg

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"

	"github.com/bookmate/bookmate-server/internal/config"
)

// loadDefaultConfig is swapped in tests.
var loadDefaultConfig = awsconfig.LoadDefaultConfig

// Load resolves region and credentials. Static keys win over the default
// credential chain when both are configured.
func Load(ctx context.Context, c config.AWSConfig) (aws.Config, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(c.Region),
	}
	if c.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(c.AccessKeyID, c.SecretAccessKey, "")))
	}

	cfg, err := loadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("load aws config: %w", err)
	}
	return cfg, nil
}

// Endpoint returns the custom endpoint override, or nil for the AWS default.
func Endpoint(c config.AWSConfig) *string {
	if c.EndpointURL == "" {
		return nil
	}
	return aws.String(c.EndpointURL)
}
