package awsclient

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("AWS_CONFIG_FILE", filepath.Join(dir, "config"))
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", filepath.Join(dir, "credentials"))
	t.Setenv("AWS_PROFILE", "")
	t.Setenv("AWS_REGION", "")
	t.Setenv("AWS_DEFAULT_REGION", "")
	t.Setenv("AWS_ACCESS_KEY_ID", "AKIDEXAMPLE")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "secret")
}

func TestLoadConfig(t *testing.T) {
	isolate(t)

	cfg, err := LoadConfig(context.Background(), WithRegion("us-east-1"), WithMaxAttempts(3))
	require.NoError(t, err)
	assert.Equal(t, "us-east-1", cfg.Region)
	require.NotNil(t, cfg.Retryer)
	assert.Equal(t, 3, cfg.Retryer().MaxAttempts())

	clients := New(cfg)
	assert.NotNil(t, clients.CloudFormation)
	assert.NotNil(t, clients.CloudFront)
	assert.NotNil(t, clients.Route53)
	assert.NotNil(t, clients.S3)
}

func TestLoadConfig_CustomRetryer(t *testing.T) {
	isolate(t)

	cfg, err := LoadConfig(context.Background(), WithRetryer(func() aws.Retryer {
		return retry.AddWithMaxAttempts(retry.NewStandard(), 1)
	}))
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.Retryer().MaxAttempts())
}

func TestLoadConfig_UnknownProfile(t *testing.T) {
	isolate(t)

	_, err := LoadConfig(context.Background(), WithProfile("does-not-exist"))
	assert.Error(t, err)
}
