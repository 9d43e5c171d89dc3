package sitestack

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttrRef_MarshalJSON(t *testing.T) {
	tests := []struct {
		name     string
		ref      AttrRef
		expected string
	}{
		{
			name:     "bucket arn",
			ref:      AttrRef{Resource: "WebsiteBucket", Attribute: "Arn"},
			expected: `{"Fn::GetAtt":["WebsiteBucket","Arn"]}`,
		},
		{
			name:     "bucket regional domain name",
			ref:      AttrRef{Resource: "WebsiteBucket", Attribute: "RegionalDomainName"},
			expected: `{"Fn::GetAtt":["WebsiteBucket","RegionalDomainName"]}`,
		},
		{
			name:     "distribution domain name",
			ref:      AttrRef{Resource: "WebsiteDistribution", Attribute: "DomainName"},
			expected: `{"Fn::GetAtt":["WebsiteDistribution","DomainName"]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.ref)
			require.NoError(t, err)
			assert.JSONEq(t, tt.expected, string(data))
		})
	}
}

func TestAttrRef_IsZero(t *testing.T) {
	assert.True(t, AttrRef{}.IsZero())
	assert.False(t, AttrRef{Resource: "WebsiteBucket", Attribute: "Arn"}.IsZero())
}

func TestLogical(t *testing.T) {
	var l Logical
	assert.Empty(t, l.LogicalID())

	l.SetLogicalID("WebsiteBucket")
	assert.Equal(t, "WebsiteBucket", l.LogicalID())
	assert.Equal(t, "WebsiteBucket", l.Ref().LogicalName)
	assert.Equal(t, AttrRef{Resource: "WebsiteBucket", Attribute: "Arn"}, l.GetAtt("Arn"))

	data, err := json.Marshal(l)
	require.NoError(t, err)
	assert.JSONEq(t, `{"Ref":"WebsiteBucket"}`, string(data))
}

func TestTemplate_JSON(t *testing.T) {
	template := Template{
		AWSTemplateFormatVersion: "2010-09-09",
		Description:              "Test template",
		Resources: map[string]ResourceDef{
			"WebsiteBucket": {
				Type: "AWS::S3::Bucket",
				Properties: map[string]any{
					"AccessControl": "Private",
				},
				DeletionPolicy:      "Retain",
				UpdateReplacePolicy: "Retain",
			},
		},
		Outputs: map[string]Output{
			"BucketArn": {
				Description: "Static site bucket name",
				Value:       AttrRef{Resource: "WebsiteBucket", Attribute: "Arn"},
				Export:      &Export{Name: "WebsiteBucketARN-example-com"},
			},
		},
	}

	data, err := json.Marshal(template)
	require.NoError(t, err)

	var parsed map[string]any
	require.NoError(t, json.Unmarshal(data, &parsed))

	assert.Equal(t, "2010-09-09", parsed["AWSTemplateFormatVersion"])
	assert.Equal(t, "Test template", parsed["Description"])
	assert.NotContains(t, parsed, "Parameters")

	resources := parsed["Resources"].(map[string]any)
	bucket := resources["WebsiteBucket"].(map[string]any)
	assert.Equal(t, "AWS::S3::Bucket", bucket["Type"])
	assert.Equal(t, "Retain", bucket["DeletionPolicy"])
	assert.Equal(t, "Retain", bucket["UpdateReplacePolicy"])

	outputs := parsed["Outputs"].(map[string]any)
	bucketArn := outputs["BucketArn"].(map[string]any)
	assert.Equal(t, "Static site bucket name", bucketArn["Description"])
	assert.Equal(t, map[string]any{"Name": "WebsiteBucketARN-example-com"}, bucketArn["Export"])
	assert.Equal(t, map[string]any{"Fn::GetAtt": []any{"WebsiteBucket", "Arn"}}, bucketArn["Value"])
}

func TestResourceDef_DependsOn(t *testing.T) {
	resource := ResourceDef{
		Type:      "AWS::CloudFront::Distribution",
		DependsOn: []string{"WebsiteCertificate", "WebsiteBucket"},
	}

	data, err := json.Marshal(resource)
	require.NoError(t, err)

	var parsed map[string]any
	require.NoError(t, json.Unmarshal(data, &parsed))

	assert.Equal(t, "AWS::CloudFront::Distribution", parsed["Type"])
	assert.NotContains(t, parsed, "Properties")
	dependsOn := parsed["DependsOn"].([]any)
	assert.Equal(t, []any{"WebsiteCertificate", "WebsiteBucket"}, dependsOn)
}

func TestBuildResult_JSON(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		result := BuildResult{
			Success:   true,
			Template:  Template{AWSTemplateFormatVersion: "2010-09-09"},
			Resources: []string{"WebsiteBucket"},
		}

		data, err := json.Marshal(result)
		require.NoError(t, err)

		var parsed map[string]any
		require.NoError(t, json.Unmarshal(data, &parsed))
		assert.True(t, parsed["success"].(bool))
		assert.Equal(t, []any{"WebsiteBucket"}, parsed["resources"])
	})

	t.Run("error", func(t *testing.T) {
		result := BuildResult{
			Errors: []string{"dependency cycle detected"},
		}

		data, err := json.Marshal(result)
		require.NoError(t, err)

		var parsed map[string]any
		require.NoError(t, json.Unmarshal(data, &parsed))
		assert.False(t, parsed["success"].(bool))
		assert.Len(t, parsed["errors"], 1)
	})
}

func TestAssetManifest_JSON(t *testing.T) {
	manifest := AssetManifest{
		Version: "1",
		Stack:   "WebsiteStack",
		Assets: []Asset{{
			ID:                     "WebsiteDeployment",
			Path:                   "site",
			Hash:                   "abc123",
			DestinationBucket:      "WebsiteBucket",
			Prune:                  true,
			RetainOnDelete:         true,
			InvalidateDistribution: "WebsiteDistribution",
		}},
	}

	data, err := json.Marshal(manifest)
	require.NoError(t, err)

	var back AssetManifest
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, manifest, back)

	var parsed map[string]any
	require.NoError(t, json.Unmarshal(data, &parsed))
	asset := parsed["assets"].([]any)[0].(map[string]any)
	assert.NotContains(t, asset, "destinationPrefix")
	assert.Equal(t, true, asset["prune"])
}
