package graph

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unleashedlab/sitestack"
	"github.com/unleashedlab/sitestack/internal/template"
)

func testTemplate() *sitestack.Template {
	return &sitestack.Template{
		Resources: map[string]sitestack.ResourceDef{
			"WebsiteBucket": {Type: "AWS::S3::Bucket"},
			"WebsiteBucketPolicy": {
				Type: "AWS::S3::BucketPolicy",
				Properties: map[string]any{
					"Bucket": map[string]any{"Ref": "WebsiteBucket"},
				},
			},
			"OriginAccessIdentity": {Type: "AWS::CloudFront::CloudFrontOriginAccessIdentity"},
			"WebsiteCertificate":   {Type: "AWS::CertificateManager::Certificate"},
			"WebsiteDistribution": {
				Type:      "AWS::CloudFront::Distribution",
				DependsOn: []string{"WebsiteBucketPolicy"},
				Properties: map[string]any{
					"DistributionConfig": map[string]any{
						"Comment": map[string]any{"Ref": "AWS::StackName"},
						"Origins": []any{map[string]any{
							"DomainName": map[string]any{"Fn::GetAtt": []any{"WebsiteBucket", "RegionalDomainName"}},
							"S3OriginConfig": map[string]any{
								"OriginAccessIdentity": map[string]any{"Fn::Join": []any{"", []any{
									"origin-access-identity/cloudfront/",
									map[string]any{"Ref": "OriginAccessIdentity"},
								}}},
							},
						}},
						"ViewerCertificate": map[string]any{
							"AcmCertificateArn": map[string]any{"Ref": "WebsiteCertificate"},
						},
					},
				},
			},
		},
		Outputs: map[string]sitestack.Output{
			"DistributionUrl": {Value: map[string]any{"Fn::GetAtt": []any{"WebsiteDistribution", "DomainName"}}},
		},
		Metadata: map[string]any{
			template.AssetsMetadataKey: []any{
				map[string]any{"id": "WebsiteDeployment", "path": "site", "destination": "WebsiteBucket"},
			},
		},
	}
}

func TestGenerator_DOT(t *testing.T) {
	out, err := (&Generator{}).GenerateString(testTemplate())
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, "digraph"))
	for _, name := range []string{"WebsiteBucket", "OriginAccessIdentity", "WebsiteCertificate", "WebsiteDistribution"} {
		assert.Contains(t, out, name)
	}
	assert.Contains(t, out, `[AWS::CloudFront::Distribution]`)
	assert.NotContains(t, out, "AWS::StackName")
	assert.NotContains(t, out, "output:")
	assert.NotContains(t, out, "asset:")
}

func TestGenerator_EdgeStyles(t *testing.T) {
	g := &Generator{}
	graph := g.buildGraph(testTemplate())

	dist := graph.Node("WebsiteDistribution")
	edges := graph.FindEdges(dist, graph.Node("WebsiteBucket"))
	require.Len(t, edges, 1)
	assert.Equal(t, "blue", edges[0].Value("color"))

	edges = graph.FindEdges(dist, graph.Node("WebsiteCertificate"))
	require.Len(t, edges, 1)
	assert.Nil(t, edges[0].Value("color"))

	edges = graph.FindEdges(dist, graph.Node("WebsiteBucketPolicy"))
	require.Len(t, edges, 1)
	assert.Equal(t, "dashed", edges[0].Value("style"))

	edges = graph.FindEdges(graph.Node("WebsiteBucketPolicy"), graph.Node("WebsiteBucket"))
	assert.Len(t, edges, 1)
}

func TestGenerator_Mermaid(t *testing.T) {
	out, err := (&Generator{Format: FormatMermaid}).GenerateString(testTemplate())
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, "flowchart TD"))
	assert.Contains(t, out, "-->")
}

func TestGenerator_ClusterByService(t *testing.T) {
	out, err := (&Generator{ClusterByService: true}).GenerateString(testTemplate())
	require.NoError(t, err)

	assert.Contains(t, out, "subgraph cluster_S3")
	assert.Contains(t, out, "subgraph cluster_CloudFront")
	// a single certificate does not get a cluster
	assert.NotContains(t, out, "cluster_CertificateManager")
}

func TestGenerator_OutputsAndAssets(t *testing.T) {
	out, err := (&Generator{IncludeOutputs: true, IncludeAssets: true}).GenerateString(testTemplate())
	require.NoError(t, err)

	assert.Contains(t, out, "output:DistributionUrl")
	assert.Contains(t, out, "asset:WebsiteDeployment")
	assert.Contains(t, out, "folder")
}

func TestService(t *testing.T) {
	tests := []struct {
		cfType string
		want   string
	}{
		{"AWS::S3::Bucket", "S3"},
		{"AWS::CloudFront::Distribution", "CloudFront"},
		{"Custom::Thing", "Other"},
	}
	for _, tt := range tests {
		t.Run(tt.cfType, func(t *testing.T) {
			assert.Equal(t, tt.want, Service(tt.cfType))
		})
	}
}
