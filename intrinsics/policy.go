package intrinsics

import (
	"encoding/json"
)

// Json is a shorthand for map[string]any.
// Used for inline JSON objects like Condition blocks.
//
//	Condition: Json{
//	    Bool: Json{"aws:SecureTransport": "false"},
//	}
type Json = map[string]any

// List creates a typed slice from the given items.
//
//	Origins: List(WebsiteOrigin)
func List[T any](items ...T) []T {
	return items
}

// Any creates a []any slice from the given items.
func Any(items ...any) []any {
	return items
}

// PolicyDocument represents an IAM policy document.
type PolicyDocument struct {
	Version   string `json:"Version,omitempty"`
	Statement []any  `json:"Statement"`
}

// NewPolicyDocument creates a PolicyDocument with the default version.
func NewPolicyDocument(statements ...any) PolicyDocument {
	return PolicyDocument{Version: "2012-10-17", Statement: statements}
}

// PolicyStatement represents an IAM policy statement.
//
//	PolicyStatement{
//	    Effect:    Allow,
//	    Principal: CanonicalUserPrincipal{oai.S3CanonicalUserID()},
//	    Action:    "s3:GetObject",
//	    Resource:  Join{Delimiter: "", Values: Any(bucket.Arn(), "/*")},
//	}
type PolicyStatement struct {
	Sid       string `json:"Sid,omitempty"`
	Effect    string `json:"Effect"`
	Principal any    `json:"Principal,omitempty"`
	Action    any    `json:"Action,omitempty"`
	Resource  any    `json:"Resource,omitempty"`
	Condition Json   `json:"Condition,omitempty"`
}

// Statement effects.
const (
	Allow = "Allow"
	Deny  = "Deny"
)

// AWSPrincipal represents an AWS account/role/user principal.
// Serializes to {"AWS": ...} format.
//
//	AWSPrincipal{"*"}
type AWSPrincipal []any

// MarshalJSON serializes to {"AWS": ...} format.
func (p AWSPrincipal) MarshalJSON() ([]byte, error) {
	return principalJSON("AWS", p)
}

// ServicePrincipal represents a service principal (e.g., cloudfront.amazonaws.com).
type ServicePrincipal []any

// MarshalJSON serializes to {"Service": ...} format.
func (p ServicePrincipal) MarshalJSON() ([]byte, error) {
	return principalJSON("Service", p)
}

// CanonicalUserPrincipal grants access to an S3 canonical user, which is
// how a CloudFront origin access identity is addressed in bucket policies.
type CanonicalUserPrincipal []any

// MarshalJSON serializes to {"CanonicalUser": ...} format.
func (p CanonicalUserPrincipal) MarshalJSON() ([]byte, error) {
	return principalJSON("CanonicalUser", p)
}

func principalJSON(kind string, values []any) ([]byte, error) {
	if len(values) == 1 {
		return json.Marshal(map[string]any{kind: values[0]})
	}
	return json.Marshal(map[string]any{kind: values})
}

// AllPrincipal represents the wildcard principal "*".
const AllPrincipal = "*"

// IAM condition operators used in bucket policies.
const (
	Bool         = "Bool"
	StringEquals = "StringEquals"
	StringLike   = "StringLike"
)
