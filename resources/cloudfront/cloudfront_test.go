package cloudfront

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
		{"Distribution", &Distribution{}, "AWS::CloudFront::Distribution"},
		{"CloudFrontOriginAccessIdentity", &CloudFrontOriginAccessIdentity{}, "AWS::CloudFront::CloudFrontOriginAccessIdentity"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.resource.ResourceType())
		})
	}
}

func TestOriginAccessIdentity(t *testing.T) {
	oai := &CloudFrontOriginAccessIdentity{
		CloudFrontOriginAccessIdentityConfig: OriginAccessIdentityConfig{Comment: "site"},
	}
	oai.SetLogicalID("OriginAccessIdentity")

	assert.Equal(t, sitestack.AttrRef{Resource: "OriginAccessIdentity", Attribute: "S3CanonicalUserId"}, oai.S3CanonicalUserID())
	assert.Equal(t, "Id", oai.Id().Attribute)

	props, err := serialize.Resource(oai)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"Comment": "site"}, props["CloudFrontOriginAccessIdentityConfig"])

	path, err := serialize.Value(OriginAccessIdentityPath(oai))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"Fn::Join": []any{"", []any{"origin-access-identity/cloudfront/", map[string]any{"Ref": "OriginAccessIdentity"}}},
	}, path)
}

func TestDistributionSerialization(t *testing.T) {
	dist := &Distribution{
		DistributionConfig: DistributionConfig{
			Enabled:           true,
			Aliases:           []string{"example.com"},
			DefaultRootObject: "index.html",
			HttpVersion:       "http2",
			DefaultCacheBehavior: DefaultCacheBehavior{
				TargetOriginId:       "WebsiteOrigin",
				ViewerProtocolPolicy: ViewerProtocolRedirectToHTTPS,
				CachePolicyId:        CachePolicyCachingOptimized,
				Compress:             true,
			},
			Origins: []Origin{{
				Id:         "WebsiteOrigin",
				DomainName: sitestack.AttrRef{Resource: "WebsiteBucket", Attribute: "RegionalDomainName"},
			}},
			CustomErrorResponses: []CustomErrorResponse{{ErrorCode: 404, ResponseCode: 404, ResponsePagePath: "/404.html"}},
		},
	}
	dist.SetLogicalID("WebsiteDistribution")
	assert.Equal(t, "DomainName", dist.DomainName().Attribute)
	assert.Equal(t, "Id", dist.Id().Attribute)

	props, err := serialize.Resource(dist)
	require.NoError(t, err)

	cfg := props["DistributionConfig"].(map[string]any)
	assert.Equal(t, true, cfg["Enabled"])
	assert.Equal(t, []any{"example.com"}, cfg["Aliases"])
	assert.NotContains(t, cfg, "PriceClass")
	assert.NotContains(t, cfg, "ViewerCertificate")

	behavior := cfg["DefaultCacheBehavior"].(map[string]any)
	assert.Equal(t, "redirect-to-https", behavior["ViewerProtocolPolicy"])
	assert.Equal(t, "658327ea-f89d-4fab-a63d-7e88639e58f6", behavior["CachePolicyId"])

	origin := cfg["Origins"].([]any)[0].(map[string]any)
	assert.Equal(t, map[string]any{"Fn::GetAtt": []any{"WebsiteBucket", "RegionalDomainName"}}, origin["DomainName"])

	errResp := cfg["CustomErrorResponses"].([]any)[0].(map[string]any)
	assert.EqualValues(t, 404, errResp["ErrorCode"])
}
