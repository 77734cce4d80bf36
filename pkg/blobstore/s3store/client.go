package s3store

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ClientConfig carries the subset of BlobStoreConfig.S3 needed to build a
// real AWS client, kept separate from pkg/config's S3BlobConfig so this
// package never imports pkg/config (which imports this package to build
// the default blob region).
type ClientConfig struct {
	Region     string
	Endpoint   string
	MaxRetries int
}

// NewClientFromConfig builds a real *s3.Client: region/endpoint/retry settings
// come from config, credentials are resolved through the default AWS
// provider chain (environment, shared config file, or instance role).
func NewClientFromConfig(ctx context.Context, cfg ClientConfig) (*s3.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.MaxRetries > 0 {
		opts = append(opts, awsconfig.WithRetryMaxAttempts(cfg.MaxRetries))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = &cfg.Endpoint
		}
		o.UsePathStyle = cfg.Endpoint != ""
	}), nil
}
