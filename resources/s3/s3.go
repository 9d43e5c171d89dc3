// Package s3 contains the AWS::S3 resource types used by sitestack.
package s3

import (
	"github.com/unleashedlab/sitestack"
	"github.com/unleashedlab/sitestack/intrinsics"
)

// Bucket represents an AWS::S3::Bucket.
type Bucket struct {
	sitestack.Logical `json:"-"`

	BucketName                     any                             `json:"BucketName,omitempty"`
	AccessControl                  string                          `json:"AccessControl,omitempty"`
	BucketEncryption               *BucketEncryption               `json:"BucketEncryption,omitempty"`
	VersioningConfiguration        *VersioningConfiguration        `json:"VersioningConfiguration,omitempty"`
	PublicAccessBlockConfiguration *PublicAccessBlockConfiguration `json:"PublicAccessBlockConfiguration,omitempty"`
	WebsiteConfiguration           *WebsiteConfiguration           `json:"WebsiteConfiguration,omitempty"`
	OwnershipControls              *OwnershipControls              `json:"OwnershipControls,omitempty"`
	Tags                           []intrinsics.Tag                `json:"Tags,omitempty"`
}

// ResourceType returns the CloudFormation resource type.
func (Bucket) ResourceType() string { return "AWS::S3::Bucket" }

// Arn returns the bucket ARN attribute.
func (b Bucket) Arn() sitestack.AttrRef { return b.GetAtt("Arn") }

// DomainName returns the bucket's global domain name attribute.
func (b Bucket) DomainName() sitestack.AttrRef { return b.GetAtt("DomainName") }

// RegionalDomainName returns the bucket's regional domain name attribute.
// CloudFront S3 origins should use this one.
func (b Bucket) RegionalDomainName() sitestack.AttrRef { return b.GetAtt("RegionalDomainName") }

// WebsiteURL returns the static website endpoint attribute.
func (b Bucket) WebsiteURL() sitestack.AttrRef { return b.GetAtt("WebsiteURL") }

// BucketEncryption configures default server-side encryption.
type BucketEncryption struct {
	ServerSideEncryptionConfiguration []ServerSideEncryptionRule `json:"ServerSideEncryptionConfiguration"`
}

// ServerSideEncryptionRule is one default encryption rule.
type ServerSideEncryptionRule struct {
	ServerSideEncryptionByDefault *ServerSideEncryptionByDefault `json:"ServerSideEncryptionByDefault,omitempty"`
	BucketKeyEnabled              bool                           `json:"BucketKeyEnabled,omitempty"`
}

// ServerSideEncryptionByDefault selects the algorithm.
type ServerSideEncryptionByDefault struct {
	SSEAlgorithm   string `json:"SSEAlgorithm"`
	KMSMasterKeyID any    `json:"KMSMasterKeyID,omitempty"`
}

// S3-managed encryption.
const SSEAlgorithmAES256 = "AES256"

// VersioningConfiguration enables object versioning.
type VersioningConfiguration struct {
	Status string `json:"Status"`
}

// Versioning states.
const (
	VersioningEnabled   = "Enabled"
	VersioningSuspended = "Suspended"
)

// PublicAccessBlockConfiguration blocks public access to the bucket.
type PublicAccessBlockConfiguration struct {
	BlockPublicAcls       bool `json:"BlockPublicAcls,omitempty"`
	BlockPublicPolicy     bool `json:"BlockPublicPolicy,omitempty"`
	IgnorePublicAcls      bool `json:"IgnorePublicAcls,omitempty"`
	RestrictPublicBuckets bool `json:"RestrictPublicBuckets,omitempty"`
}

// BlockAll returns a configuration with every flag set.
func BlockAll() *PublicAccessBlockConfiguration {
	return &PublicAccessBlockConfiguration{
		BlockPublicAcls:       true,
		BlockPublicPolicy:     true,
		IgnorePublicAcls:      true,
		RestrictPublicBuckets: true,
	}
}

// WebsiteConfiguration configures index and error documents.
type WebsiteConfiguration struct {
	IndexDocument string `json:"IndexDocument,omitempty"`
	ErrorDocument string `json:"ErrorDocument,omitempty"`
}

// OwnershipControls sets object ownership.
type OwnershipControls struct {
	Rules []OwnershipControlsRule `json:"Rules"`
}

// OwnershipControlsRule is one ownership rule.
type OwnershipControlsRule struct {
	ObjectOwnership string `json:"ObjectOwnership"`
}

// BucketPolicy represents an AWS::S3::BucketPolicy.
type BucketPolicy struct {
	sitestack.Logical `json:"-"`

	// Bucket is the bucket name; a *Bucket serializes as its Ref.
	Bucket         any `json:"Bucket"`
	PolicyDocument any `json:"PolicyDocument"`
}

// ResourceType returns the CloudFormation resource type.
func (BucketPolicy) ResourceType() string { return "AWS::S3::BucketPolicy" }
