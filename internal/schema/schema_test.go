package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unleashedlab/sitestack"
	"github.com/unleashedlab/sitestack/internal/lookup"
	"github.com/unleashedlab/sitestack/internal/template"
	"github.com/unleashedlab/sitestack/website"
)

func TestValidateTemplate_WebsiteStack(t *testing.T) {
	props := website.DefaultProps("unleashedlab.io")
	props.HostedZone = lookup.HostedZone{ID: "Z0123456789ABC", Name: "unleashedlab.io."}
	props.CreateDNSRecords = true
	props.ErrorDocument = "404.html"
	w, err := website.NewWebsiteStack("WebsiteStack", props)
	require.NoError(t, err)

	tmpl, err := template.NewBuilder(w.Stack).Build()
	require.NoError(t, err)

	result, err := ValidateTemplate(tmpl, Options{})
	require.NoError(t, err)
	assert.True(t, result.Valid, "%v", result.Errors)
	assert.Empty(t, result.Errors)
	assert.Empty(t, result.Warnings)
}

func TestValidateTemplate_Errors(t *testing.T) {
	tests := []struct {
		name     string
		resource sitestack.ResourceDef
		property string
		contains string
	}{
		{
			name:     "missing required",
			resource: sitestack.ResourceDef{Type: "AWS::S3::BucketPolicy", Properties: map[string]any{"Bucket": "b"}},
			property: "PolicyDocument",
			contains: "missing required property",
		},
		{
			name:     "wrong type",
			resource: sitestack.ResourceDef{Type: "AWS::S3::Bucket", Properties: map[string]any{"BucketName": 42}},
			property: "BucketName",
			contains: "expected type String",
		},
		{
			name: "disallowed value",
			resource: sitestack.ResourceDef{Type: "AWS::CertificateManager::Certificate", Properties: map[string]any{
				"DomainName":       "example.com",
				"ValidationMethod": "HTTP",
			}},
			property: "ValidationMethod",
			contains: "not in allowed values",
		},
		{
			name: "nested disallowed value",
			resource: sitestack.ResourceDef{Type: "AWS::CloudFront::Distribution", Properties: map[string]any{
				"DistributionConfig": map[string]any{
					"Enabled": true,
					"DefaultCacheBehavior": map[string]any{
						"TargetOriginId":       "site",
						"ViewerProtocolPolicy": "http-only",
					},
				},
			}},
			property: "DistributionConfig.DefaultCacheBehavior.ViewerProtocolPolicy",
			contains: "not in allowed values",
		},
		{
			name: "nested missing required",
			resource: sitestack.ResourceDef{Type: "AWS::CloudFront::Distribution", Properties: map[string]any{
				"DistributionConfig": map[string]any{"DefaultCacheBehavior": map[string]any{}},
			}},
			property: "DistributionConfig",
			contains: "missing required property: Enabled",
		},
		{
			name:     "bad type format",
			resource: sitestack.ResourceDef{Type: "S3::Bucket"},
			property: "Type",
			contains: "invalid resource type format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpl := &sitestack.Template{Resources: map[string]sitestack.ResourceDef{"Res": tt.resource}}
			result, err := ValidateTemplate(tmpl, Options{})
			require.NoError(t, err)
			assert.False(t, result.Valid)

			var found bool
			for _, e := range result.Errors {
				if e.Property == tt.property {
					assert.Contains(t, e.Message, tt.contains)
					assert.Equal(t, "Res", e.Resource)
					found = true
				}
			}
			assert.True(t, found, "no error for %s in %v", tt.property, result.Errors)
		})
	}
}

func TestValidateTemplate_IntrinsicsAccepted(t *testing.T) {
	tmpl := &sitestack.Template{Resources: map[string]sitestack.ResourceDef{
		"Policy": {Type: "AWS::S3::BucketPolicy", Properties: map[string]any{
			"Bucket":         map[string]any{"Ref": "Bucket"},
			"PolicyDocument": map[string]any{"Statement": []any{}},
		}},
	}}

	result, err := ValidateTemplate(tmpl, Options{})
	require.NoError(t, err)
	assert.True(t, result.Valid)
}

func TestValidateTemplate_Warnings(t *testing.T) {
	tmpl := &sitestack.Template{Resources: map[string]sitestack.ResourceDef{
		"Fn":     {Type: "AWS::Lambda::Function"},
		"Bucket": {Type: "AWS::S3::Bucket", Properties: map[string]any{"Colour": "blue"}},
	}}

	result, err := ValidateTemplate(tmpl, Options{})
	require.NoError(t, err)
	assert.True(t, result.Valid)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0].Message, "unknown resource type")

	result, err = ValidateTemplate(tmpl, Options{Strict: true})
	require.NoError(t, err)
	require.Len(t, result.Warnings, 2)
	assert.Equal(t, "Colour", result.Warnings[0].Property)
	assert.Equal(t, "Bucket.Colour: unknown property: Colour", result.Warnings[0].Error())
}

func TestLookup(t *testing.T) {
	s, ok := Lookup("AWS::CloudFront::Distribution")
	require.True(t, ok)
	assert.Equal(t, []string{"DistributionConfig"}, s.Required)

	_, ok = Lookup("AWS::EC2::Instance")
	assert.False(t, ok)
}
