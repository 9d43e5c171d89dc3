package s3

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unleashedlab/sitestack"
	"github.com/unleashedlab/sitestack/internal/serialize"
)

func TestResourceTypes(t *testing.T) {
	tests := []struct {
		name     string
		resource sitestack.Resource
		expected string
	}{
		{"Bucket", &Bucket{}, "AWS::S3::Bucket"},
		{"BucketPolicy", &BucketPolicy{}, "AWS::S3::BucketPolicy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.resource.ResourceType())
		})
	}
}

func TestBucketAttributes(t *testing.T) {
	bucket := &Bucket{}
	bucket.SetLogicalID("WebsiteBucket")

	assert.Equal(t, sitestack.AttrRef{Resource: "WebsiteBucket", Attribute: "Arn"}, bucket.Arn())
	assert.Equal(t, "DomainName", bucket.DomainName().Attribute)
	assert.Equal(t, "RegionalDomainName", bucket.RegionalDomainName().Attribute)
	assert.Equal(t, "WebsiteURL", bucket.WebsiteURL().Attribute)
}

func TestBucketSerialization(t *testing.T) {
	bucket := &Bucket{
		AccessControl: "Private",
		BucketEncryption: &BucketEncryption{
			ServerSideEncryptionConfiguration: []ServerSideEncryptionRule{{
				ServerSideEncryptionByDefault: &ServerSideEncryptionByDefault{SSEAlgorithm: SSEAlgorithmAES256},
			}},
		},
		VersioningConfiguration:        &VersioningConfiguration{Status: VersioningEnabled},
		PublicAccessBlockConfiguration: BlockAll(),
		WebsiteConfiguration:           &WebsiteConfiguration{IndexDocument: "index.html"},
	}
	bucket.SetLogicalID("WebsiteBucket")

	props, err := serialize.Resource(bucket)
	require.NoError(t, err)

	assert.Equal(t, "Private", props["AccessControl"])
	assert.NotContains(t, props, "BucketName")
	assert.NotContains(t, props, "Logical")
	assert.Equal(t, map[string]any{"Status": "Enabled"}, props["VersioningConfiguration"])
	assert.Equal(t, map[string]any{"IndexDocument": "index.html"}, props["WebsiteConfiguration"])
	assert.Equal(t, map[string]any{
		"BlockPublicAcls":       true,
		"BlockPublicPolicy":     true,
		"IgnorePublicAcls":      true,
		"RestrictPublicBuckets": true,
	}, props["PublicAccessBlockConfiguration"])

	enc := props["BucketEncryption"].(map[string]any)
	rules := enc["ServerSideEncryptionConfiguration"].([]any)
	require.Len(t, rules, 1)
	assert.Equal(t, map[string]any{"SSEAlgorithm": "AES256"},
		rules[0].(map[string]any)["ServerSideEncryptionByDefault"])
}

func TestBucketPolicy_BucketSerializesAsRef(t *testing.T) {
	bucket := &Bucket{}
	bucket.SetLogicalID("WebsiteBucket")

	policy := &BucketPolicy{Bucket: bucket, PolicyDocument: map[string]any{"Statement": []any{}}}
	props, err := serialize.Resource(policy)
	require.NoError(t, err)

	assert.Equal(t, map[string]any{"Ref": "WebsiteBucket"}, props["Bucket"])
}
