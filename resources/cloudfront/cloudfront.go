// Package cloudfront contains the AWS::CloudFront resource types used by sitestack.
package cloudfront

import (
	"github.com/unleashedlab/sitestack"
	"github.com/unleashedlab/sitestack/intrinsics"
)

// Managed cache policy IDs.
const (
	CachePolicyCachingOptimized = "658327ea-f89d-4fab-a63d-7e88639e58f6"
	CachePolicyCachingDisabled  = "4135ea2d-6df8-44a3-9df3-4b5a84be39ad"
)

// HostedZoneID is the Route 53 zone that CloudFront alias records point into.
const HostedZoneID = "Z2FDTNDATAQYW2"

// Viewer protocol policies.
const (
	ViewerProtocolAllowAll        = "allow-all"
	ViewerProtocolRedirectToHTTPS = "redirect-to-https"
	ViewerProtocolHTTPSOnly       = "https-only"
)

// Price classes.
const (
	PriceClass100 = "PriceClass_100"
	PriceClass200 = "PriceClass_200"
	PriceClassAll = "PriceClass_All"
)

// CloudFrontOriginAccessIdentity represents an
// AWS::CloudFront::CloudFrontOriginAccessIdentity.
type CloudFrontOriginAccessIdentity struct {
	sitestack.Logical `json:"-"`

	CloudFrontOriginAccessIdentityConfig OriginAccessIdentityConfig `json:"CloudFrontOriginAccessIdentityConfig"`
}

// ResourceType returns the CloudFormation resource type.
func (CloudFrontOriginAccessIdentity) ResourceType() string {
	return "AWS::CloudFront::CloudFrontOriginAccessIdentity"
}

// Id returns the identity ID attribute.
func (o CloudFrontOriginAccessIdentity) Id() sitestack.AttrRef { return o.GetAtt("Id") }

// S3CanonicalUserID returns the canonical user used in bucket policies.
func (o CloudFrontOriginAccessIdentity) S3CanonicalUserID() sitestack.AttrRef {
	return o.GetAtt("S3CanonicalUserId")
}

// OriginAccessIdentityConfig holds the identity comment.
type OriginAccessIdentityConfig struct {
	Comment string `json:"Comment"`
}

// Distribution represents an AWS::CloudFront::Distribution.
type Distribution struct {
	sitestack.Logical `json:"-"`

	DistributionConfig DistributionConfig `json:"DistributionConfig"`
	Tags               []intrinsics.Tag   `json:"Tags,omitempty"`
}

// ResourceType returns the CloudFormation resource type.
func (Distribution) ResourceType() string { return "AWS::CloudFront::Distribution" }

// DomainName returns the *.cloudfront.net domain name attribute.
func (d Distribution) DomainName() sitestack.AttrRef { return d.GetAtt("DomainName") }

// Id returns the distribution ID attribute.
func (d Distribution) Id() sitestack.AttrRef { return d.GetAtt("Id") }

// DistributionConfig is the distribution's configuration.
type DistributionConfig struct {
	Enabled              bool                  `json:"Enabled"`
	Comment              any                   `json:"Comment,omitempty"`
	Aliases              []string              `json:"Aliases,omitempty"`
	DefaultRootObject    string                `json:"DefaultRootObject,omitempty"`
	HttpVersion          string                `json:"HttpVersion,omitempty"`
	IPV6Enabled          bool                  `json:"IPV6Enabled,omitempty"`
	PriceClass           string                `json:"PriceClass,omitempty"`
	DefaultCacheBehavior DefaultCacheBehavior  `json:"DefaultCacheBehavior"`
	Origins              []Origin              `json:"Origins"`
	ViewerCertificate    *ViewerCertificate    `json:"ViewerCertificate,omitempty"`
	CustomErrorResponses []CustomErrorResponse `json:"CustomErrorResponses,omitempty"`
}

// DefaultCacheBehavior is the catch-all cache behavior.
type DefaultCacheBehavior struct {
	TargetOriginId       string   `json:"TargetOriginId"`
	ViewerProtocolPolicy string   `json:"ViewerProtocolPolicy"`
	CachePolicyId        string   `json:"CachePolicyId,omitempty"`
	Compress             bool     `json:"Compress,omitempty"`
	AllowedMethods       []string `json:"AllowedMethods,omitempty"`
	CachedMethods        []string `json:"CachedMethods,omitempty"`
}

// Origin is a distribution origin.
type Origin struct {
	Id             string          `json:"Id"`
	DomainName     any             `json:"DomainName"`
	OriginPath     string          `json:"OriginPath,omitempty"`
	S3OriginConfig *S3OriginConfig `json:"S3OriginConfig,omitempty"`
}

// S3OriginConfig restricts an S3 origin to an origin access identity.
type S3OriginConfig struct {
	// OriginAccessIdentity is "origin-access-identity/cloudfront/<id>".
	OriginAccessIdentity any `json:"OriginAccessIdentity"`
}

// OriginAccessIdentityPath builds the S3OriginConfig value for an identity.
func OriginAccessIdentityPath(oai *CloudFrontOriginAccessIdentity) intrinsics.Join {
	return intrinsics.Join{
		Delimiter: "",
		Values:    intrinsics.Any("origin-access-identity/cloudfront/", oai.Ref()),
	}
}

// ViewerCertificate attaches an ACM certificate.
type ViewerCertificate struct {
	AcmCertificateArn      any    `json:"AcmCertificateArn,omitempty"`
	SslSupportMethod       string `json:"SslSupportMethod,omitempty"`
	MinimumProtocolVersion string `json:"MinimumProtocolVersion,omitempty"`
}

// CustomErrorResponse maps an origin error code to a page.
type CustomErrorResponse struct {
	ErrorCode        int    `json:"ErrorCode"`
	ResponseCode     int    `json:"ResponseCode,omitempty"`
	ResponsePagePath string `json:"ResponsePagePath,omitempty"`
}
