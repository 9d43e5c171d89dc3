package intrinsics

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntrinsics_MarshalJSON(t *testing.T) {
	tests := []struct {
		name     string
		value    any
		expected string
	}{
		{
			name:     "ref",
			value:    Ref{LogicalName: "WebsiteBucket"},
			expected: `{"Ref": "WebsiteBucket"}`,
		},
		{
			name:     "getatt",
			value:    GetAtt{LogicalName: "WebsiteBucket", Attribute: "Arn"},
			expected: `{"Fn::GetAtt": ["WebsiteBucket", "Arn"]}`,
		},
		{
			name:     "join",
			value:    Join{Delimiter: "", Values: Any("origin-access-identity/cloudfront/", Ref{LogicalName: "OriginAccessIdentity"})},
			expected: `{"Fn::Join": ["", ["origin-access-identity/cloudfront/", {"Ref": "OriginAccessIdentity"}]]}`,
		},
		{
			name:     "sub",
			value:    Sub{String: "${AWS::StackName}-site"},
			expected: `{"Fn::Sub": "${AWS::StackName}-site"}`,
		},
		{
			name:     "split",
			value:    Split{Delimiter: ",", Source: "a,b"},
			expected: `{"Fn::Split": [",", "a,b"]}`,
		},
		{
			name:     "import value",
			value:    ImportValue{ExportName: "DistributionDomainName-example-com"},
			expected: `{"Fn::ImportValue": "DistributionDomainName-example-com"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.value)
			require.NoError(t, err)
			assert.JSONEq(t, tt.expected, string(data))
		})
	}
}

func TestPrincipals_MarshalJSON(t *testing.T) {
	tests := []struct {
		name      string
		principal any
		expected  string
	}{
		{"aws wildcard", AWSPrincipal{AllPrincipal}, `{"AWS": "*"}`},
		{"service", ServicePrincipal{"cloudfront.amazonaws.com"}, `{"Service": "cloudfront.amazonaws.com"}`},
		{"service list", ServicePrincipal{"a.amazonaws.com", "b.amazonaws.com"}, `{"Service": ["a.amazonaws.com", "b.amazonaws.com"]}`},
		{
			"canonical user",
			CanonicalUserPrincipal{GetAtt{LogicalName: "OriginAccessIdentity", Attribute: "S3CanonicalUserId"}},
			`{"CanonicalUser": {"Fn::GetAtt": ["OriginAccessIdentity", "S3CanonicalUserId"]}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.principal)
			require.NoError(t, err)
			assert.JSONEq(t, tt.expected, string(data))
		})
	}
}

func TestPolicyDocument_MarshalJSON(t *testing.T) {
	doc := NewPolicyDocument(PolicyStatement{
		Effect:    Deny,
		Principal: AWSPrincipal{AllPrincipal},
		Action:    "s3:*",
		Resource:  Any("arn:aws:s3:::site", "arn:aws:s3:::site/*"),
		Condition: Json{Bool: Json{"aws:SecureTransport": "false"}},
	})

	data, err := json.Marshal(doc)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"Version": "2012-10-17",
		"Statement": [{
			"Effect": "Deny",
			"Principal": {"AWS": "*"},
			"Action": "s3:*",
			"Resource": ["arn:aws:s3:::site", "arn:aws:s3:::site/*"],
			"Condition": {"Bool": {"aws:SecureTransport": "false"}}
		}]
	}`, string(data))
}

func TestPseudoParameters(t *testing.T) {
	tests := []struct {
		name     string
		param    Ref
		expected string
	}{
		{"AWS_REGION", AWS_REGION, `{"Ref": "AWS::Region"}`},
		{"AWS_ACCOUNT_ID", AWS_ACCOUNT_ID, `{"Ref": "AWS::AccountId"}`},
		{"AWS_STACK_NAME", AWS_STACK_NAME, `{"Ref": "AWS::StackName"}`},
		{"AWS_PARTITION", AWS_PARTITION, `{"Ref": "AWS::Partition"}`},
		{"AWS_URL_SUFFIX", AWS_URL_SUFFIX, `{"Ref": "AWS::URLSuffix"}`},
		{"AWS_NO_VALUE", AWS_NO_VALUE, `{"Ref": "AWS::NoValue"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.param)
			require.NoError(t, err)
			assert.JSONEq(t, tt.expected, string(data))
			assert.True(t, IsPseudo(tt.param.LogicalName))
		})
	}

	assert.False(t, IsPseudo("WebsiteBucket"))
}

func TestList(t *testing.T) {
	assert.Equal(t, []string{"GET", "HEAD"}, List("GET", "HEAD"))
}
