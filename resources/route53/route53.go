// Package route53 contains the AWS::Route53 resource types used by sitestack.
package route53

import (
	"github.com/unleashedlab/sitestack"
)

// RecordSetGroup represents an AWS::Route53::RecordSetGroup.
type RecordSetGroup struct {
	sitestack.Logical `json:"-"`

	HostedZoneId string      `json:"HostedZoneId,omitempty"`
	Comment      string      `json:"Comment,omitempty"`
	RecordSets   []RecordSet `json:"RecordSets"`
}

// ResourceType returns the CloudFormation resource type.
func (RecordSetGroup) ResourceType() string { return "AWS::Route53::RecordSetGroup" }

// RecordSet is one record in the group.
type RecordSet struct {
	Name        string       `json:"Name"`
	Type        string       `json:"Type"`
	AliasTarget *AliasTarget `json:"AliasTarget,omitempty"`
}

// AliasTarget points a record at another AWS resource.
type AliasTarget struct {
	DNSName              any    `json:"DNSName"`
	HostedZoneId         string `json:"HostedZoneId"`
	EvaluateTargetHealth bool   `json:"EvaluateTargetHealth,omitempty"`
}

// AliasRecords returns an A and an AAAA alias record for every name.
func AliasRecords(names []string, dnsName any, zoneID string) []RecordSet {
	records := make([]RecordSet, 0, 2*len(names))
	for _, name := range names {
		for _, typ := range []string{"A", "AAAA"} {
			records = append(records, RecordSet{
				Name:        name,
				Type:        typ,
				AliasTarget: &AliasTarget{DNSName: dnsName, HostedZoneId: zoneID},
			})
		}
	}
	return records
}
