// Package website declares the static website stack: a private S3 bucket
// holding the site content, served by CloudFront over HTTPS with a
// DNS-validated ACM certificate.
//
// Resource graph:
//
//	WebsiteBucket ──► WebsiteDeployment (asset)
//	HostedZone ──► WebsiteCertificate
//	WebsiteBucket + WebsiteCertificate + OriginAccessIdentity ──► WebsiteDistribution ──► outputs
package website

import (
	"errors"
	"strings"

	"github.com/unleashedlab/sitestack"
	. "github.com/unleashedlab/sitestack/intrinsics"
	"github.com/unleashedlab/sitestack/internal/lookup"
	"github.com/unleashedlab/sitestack/resources/certificatemanager"
	"github.com/unleashedlab/sitestack/resources/cloudfront"
	"github.com/unleashedlab/sitestack/resources/route53"
	"github.com/unleashedlab/sitestack/resources/s3"
)

// Logical IDs.
const (
	BucketID       = "WebsiteBucket"
	BucketPolicyID = "WebsiteBucketPolicy"
	OAIID          = "OriginAccessIdentity"
	CertificateID  = "WebsiteCertificate"
	DistributionID = "WebsiteDistribution"
	AliasRecordsID = "WebsiteAliasRecords"
	DeploymentID   = "WebsiteDeployment"
	OriginID       = "WebsiteOrigin"

	DistributionURLOutput = "DistributionUrl"
	BucketArnOutput       = "BucketArn"
)

// DefaultIndexDocument is served for "/" and directory requests.
const DefaultIndexDocument = "index.html"

var (
	ErrMissingDomain     = errors.New("website: domain name is required")
	ErrMissingHostedZone = errors.New("website: hosted zone is required for certificate validation")
)

// Props configures the stack.
type Props struct {
	DomainName string
	// AlternativeNames defaults to www.<DomainName>
	AlternativeNames []string
	HostedZone       lookup.HostedZone
	SitePath         string
	IndexDocument    string
	// ErrorDocument, when set, is returned for 403 and 404 responses
	ErrorDocument    string
	PriceClass       string
	CreateDNSRecords bool
	// PruneContent removes bucket objects that are not in SitePath;
	// use DefaultProps to get it enabled
	PruneContent bool
	Tags         map[string]string
	Description  string
}

// DefaultProps returns props for domain with the defaults filled in.
func DefaultProps(domain string) Props {
	return Props{
		DomainName:    domain,
		SitePath:      "site",
		IndexDocument: DefaultIndexDocument,
		PruneContent:  true,
	}
}

// Website is the declared stack and handles to its resources.
type Website struct {
	Stack *sitestack.Stack

	Bucket       *s3.Bucket
	BucketPolicy *s3.BucketPolicy
	OAI          *cloudfront.CloudFrontOriginAccessIdentity
	Certificate  *certificatemanager.Certificate
	Distribution *cloudfront.Distribution
	// AliasRecords is nil unless CreateDNSRecords is set
	AliasRecords *route53.RecordSetGroup
}

// NewWebsiteStack declares the website stack.
func NewWebsiteStack(name string, props Props) (*Website, error) {
	if props.DomainName == "" {
		return nil, ErrMissingDomain
	}
	if props.HostedZone.ID == "" {
		return nil, ErrMissingHostedZone
	}
	if props.IndexDocument == "" {
		props.IndexDocument = DefaultIndexDocument
	}
	if props.AlternativeNames == nil {
		props.AlternativeNames = []string{"www." + props.DomainName}
	}

	description := props.Description
	if description == "" {
		description = "Static website for " + props.DomainName
	}

	w := &Website{Stack: sitestack.NewStack(name, description)}
	for k, v := range props.Tags {
		w.Stack.Tag(k, v)
	}

	w.addBucket(props)
	w.addDeployment(props)
	w.addCertificate(props)
	w.addOriginAccessIdentity()
	w.addBucketPolicy()
	w.addDistribution(props)
	if props.CreateDNSRecords {
		w.addAliasRecords(props)
	}
	w.addOutputs(props)

	if err := w.Stack.Err(); err != nil {
		return nil, err
	}
	return w, nil
}

// Domains returns the apex domain followed by the alternative names.
func (w *Website) Domains() []string {
	return w.Certificate.Names()
}

// ExportSuffix is the domain with dots replaced by dashes.
func ExportSuffix(domain string) string {
	return strings.ReplaceAll(domain, ".", "-")
}

// ----------------------------------------------------------------------------
// Storage
// ----------------------------------------------------------------------------

func (w *Website) addBucket(props Props) {
	w.Bucket = &s3.Bucket{
		AccessControl: "Private",
		BucketEncryption: &s3.BucketEncryption{
			ServerSideEncryptionConfiguration: []s3.ServerSideEncryptionRule{{
				ServerSideEncryptionByDefault: &s3.ServerSideEncryptionByDefault{SSEAlgorithm: s3.SSEAlgorithmAES256},
			}},
		},
		VersioningConfiguration:        &s3.VersioningConfiguration{Status: s3.VersioningEnabled},
		PublicAccessBlockConfiguration: s3.BlockAll(),
		WebsiteConfiguration:           &s3.WebsiteConfiguration{IndexDocument: props.IndexDocument},
	}
	w.Stack.Add(BucketID, w.Bucket, sitestack.WithRemovalPolicy(sitestack.Retain))
}

// addDeployment records the site directory as an asset. It is uploaded by
// the publisher once the bucket exists.
func (w *Website) addDeployment(props Props) {
	w.Stack.AddAsset(sitestack.Asset{
		ID:                     DeploymentID,
		Path:                   props.SitePath,
		DestinationBucket:      BucketID,
		Prune:                  props.PruneContent,
		RetainOnDelete:         true,
		InvalidateDistribution: DistributionID,
	})
}

// addBucketPolicy enforces SSL and grants the access identity read access.
func (w *Website) addBucketPolicy() {
	objects := Join{Delimiter: "", Values: Any(w.Bucket.Arn(), "/*")}

	enforceSSL := PolicyStatement{
		Effect:    Deny,
		Principal: AWSPrincipal{AllPrincipal},
		Action:    "s3:*",
		Resource:  Any(w.Bucket.Arn(), objects),
		Condition: Json{Bool: Json{"aws:SecureTransport": "false"}},
	}
	grantRead := PolicyStatement{
		Effect:    Allow,
		Principal: CanonicalUserPrincipal{w.OAI.S3CanonicalUserID()},
		Action:    "s3:GetObject",
		Resource:  objects,
	}

	w.BucketPolicy = &s3.BucketPolicy{
		Bucket:         w.Bucket,
		PolicyDocument: NewPolicyDocument(enforceSSL, grantRead),
	}
	w.Stack.Add(BucketPolicyID, w.BucketPolicy, sitestack.WithRemovalPolicy(sitestack.Retain))
}

// ----------------------------------------------------------------------------
// Certificate
// ----------------------------------------------------------------------------

func (w *Website) addCertificate(props Props) {
	names := append([]string{props.DomainName}, props.AlternativeNames...)
	options := make([]certificatemanager.DomainValidationOption, 0, len(names))
	for _, n := range names {
		options = append(options, certificatemanager.DomainValidationOption{
			DomainName:   n,
			HostedZoneId: props.HostedZone.ID,
		})
	}

	w.Certificate = &certificatemanager.Certificate{
		DomainName:              props.DomainName,
		SubjectAlternativeNames: props.AlternativeNames,
		ValidationMethod:        certificatemanager.ValidationDNS,
		DomainValidationOptions: options,
	}
	w.Stack.Add(CertificateID, w.Certificate)
}

// ----------------------------------------------------------------------------
// Distribution
// ----------------------------------------------------------------------------

func (w *Website) addOriginAccessIdentity() {
	w.OAI = &cloudfront.CloudFrontOriginAccessIdentity{
		CloudFrontOriginAccessIdentityConfig: cloudfront.OriginAccessIdentityConfig{
			Comment: "Allows CloudFront to reach the bucket",
		},
	}
	w.Stack.Add(OAIID, w.OAI, sitestack.WithRemovalPolicy(sitestack.Delete))
}

func (w *Website) addDistribution(props Props) {
	origin := cloudfront.Origin{
		Id:             OriginID,
		DomainName:     w.Bucket.RegionalDomainName(),
		S3OriginConfig: &cloudfront.S3OriginConfig{OriginAccessIdentity: cloudfront.OriginAccessIdentityPath(w.OAI)},
	}

	behavior := cloudfront.DefaultCacheBehavior{
		TargetOriginId:       OriginID,
		ViewerProtocolPolicy: cloudfront.ViewerProtocolRedirectToHTTPS,
		CachePolicyId:        cloudfront.CachePolicyCachingOptimized,
		Compress:             true,
		AllowedMethods:       List("GET", "HEAD", "OPTIONS"),
		CachedMethods:        List("GET", "HEAD"),
	}

	config := cloudfront.DistributionConfig{
		Enabled:              true,
		Comment:              Join{Delimiter: " ", Values: Any(props.DomainName, "served by", AWS_STACK_NAME)},
		Aliases:              append([]string{props.DomainName}, props.AlternativeNames...),
		DefaultRootObject:    props.IndexDocument,
		HttpVersion:          "http2",
		IPV6Enabled:          true,
		PriceClass:           props.PriceClass,
		DefaultCacheBehavior: behavior,
		Origins:              List(origin),
		ViewerCertificate: &cloudfront.ViewerCertificate{
			AcmCertificateArn:      w.Certificate,
			SslSupportMethod:       "sni-only",
			MinimumProtocolVersion: "TLSv1.2_2021",
		},
	}

	if props.ErrorDocument != "" {
		page := "/" + props.ErrorDocument
		config.CustomErrorResponses = []cloudfront.CustomErrorResponse{
			{ErrorCode: 403, ResponseCode: 404, ResponsePagePath: page},
			{ErrorCode: 404, ResponseCode: 404, ResponsePagePath: page},
		}
	}

	w.Distribution = &cloudfront.Distribution{DistributionConfig: config}
	w.Stack.Add(DistributionID, w.Distribution)
}

func (w *Website) addAliasRecords(props Props) {
	w.AliasRecords = &route53.RecordSetGroup{
		HostedZoneId: props.HostedZone.ID,
		Comment:      "Aliases for " + props.DomainName,
		RecordSets:   route53.AliasRecords(w.Domains(), w.Distribution.DomainName(), cloudfront.HostedZoneID),
	}
	w.Stack.Add(AliasRecordsID, w.AliasRecords)
}

// ----------------------------------------------------------------------------
// Outputs
// ----------------------------------------------------------------------------

func (w *Website) addOutputs(props Props) {
	suffix := ExportSuffix(props.DomainName)

	w.Stack.AddOutput(DistributionURLOutput, sitestack.Output{
		Description: "Static site domain name",
		Value:       w.Distribution.DomainName(),
		Export:      &sitestack.Export{Name: "DistributionDomainName-" + suffix},
	})
	w.Stack.AddOutput(BucketArnOutput, sitestack.Output{
		Description: "Static site bucket name",
		Value:       w.Bucket.Arn(),
		Export:      &sitestack.Export{Name: "WebsiteBucketARN-" + suffix},
	})
}
