// Package awsclient loads AWS SDK v2 configuration and builds the service
// clients sitestack talks to.
package awsclient

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
	"github.com/aws/aws-sdk-go-v2/service/cloudfront"
	"github.com/aws/aws-sdk-go-v2/service/route53"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// DefaultMaxAttempts is used by the default retryer.
const DefaultMaxAttempts = 8

type options struct {
	profile     string
	region      string
	maxAttempts int
	retryer     func() aws.Retryer
}

// Option customizes how AWS config is loaded.
// With no options the shell's AWS setup is inherited (AWS_PROFILE, shared
// config, env, IMDS).
type Option func(*options)

// WithProfile sets the shared config profile.
func WithProfile(profile string) Option {
	return func(o *options) { o.profile = profile }
}

// WithRegion sets the region override.
func WithRegion(region string) Option {
	return func(o *options) { o.region = region }
}

// WithMaxAttempts sets the retry attempts of the default retryer.
func WithMaxAttempts(n int) Option {
	return func(o *options) { o.maxAttempts = n }
}

// WithRetryer injects a custom retryer.
func WithRetryer(newRetryer func() aws.Retryer) Option {
	return func(o *options) { o.retryer = newRetryer }
}

// LoadConfig loads AWS SDK v2 config.
func LoadConfig(ctx context.Context, opts ...Option) (aws.Config, error) {
	o := options{maxAttempts: DefaultMaxAttempts}
	for _, opt := range opts {
		opt(&o)
	}

	var loadOpts []func(*config.LoadOptions) error
	if o.profile != "" {
		loadOpts = append(loadOpts, config.WithSharedConfigProfile(o.profile))
	}
	if o.region != "" {
		loadOpts = append(loadOpts, config.WithRegion(o.region))
	}
	if o.retryer != nil {
		loadOpts = append(loadOpts, config.WithRetryer(o.retryer))
	} else {
		maxAttempts := o.maxAttempts
		loadOpts = append(loadOpts, config.WithRetryer(func() aws.Retryer {
			return retry.AddWithMaxAttempts(retry.NewStandard(), maxAttempts)
		}))
	}

	return config.LoadDefaultConfig(ctx, loadOpts...)
}

// Clients bundles the service clients used by the CLI.
type Clients struct {
	CloudFormation *cloudformation.Client
	CloudFront     *cloudfront.Client
	Route53        *route53.Client
	S3             *s3.Client
}

// New builds every client from one config.
func New(cfg aws.Config) *Clients {
	return &Clients{
		CloudFormation: cloudformation.NewFromConfig(cfg),
		CloudFront:     cloudfront.NewFromConfig(cfg),
		Route53:        route53.NewFromConfig(cfg),
		S3:             s3.NewFromConfig(cfg),
	}
}
