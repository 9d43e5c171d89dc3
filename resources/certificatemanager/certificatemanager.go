// Package certificatemanager contains the AWS::CertificateManager::Certificate resource.
package certificatemanager

import (
	"github.com/unleashedlab/sitestack"
	"github.com/unleashedlab/sitestack/intrinsics"
)

// Validation methods.
const (
	ValidationDNS   = "DNS"
	ValidationEmail = "EMAIL"
)

// Certificate represents an AWS::CertificateManager::Certificate.
// Ref returns the certificate ARN.
type Certificate struct {
	sitestack.Logical `json:"-"`

	DomainName                               string                   `json:"DomainName"`
	SubjectAlternativeNames                  []string                 `json:"SubjectAlternativeNames,omitempty"`
	ValidationMethod                         string                   `json:"ValidationMethod,omitempty"`
	DomainValidationOptions                  []DomainValidationOption `json:"DomainValidationOptions,omitempty"`
	CertificateTransparencyLoggingPreference string                   `json:"CertificateTransparencyLoggingPreference,omitempty"`
	Tags                                     []intrinsics.Tag         `json:"Tags,omitempty"`
}

// ResourceType returns the CloudFormation resource type.
func (Certificate) ResourceType() string { return "AWS::CertificateManager::Certificate" }

// Names returns the primary domain followed by the alternative names.
func (c Certificate) Names() []string {
	return append([]string{c.DomainName}, c.SubjectAlternativeNames...)
}

// DomainValidationOption points DNS validation of one name at a hosted zone.
type DomainValidationOption struct {
	DomainName   string `json:"DomainName"`
	HostedZoneId string `json:"HostedZoneId,omitempty"`
}
