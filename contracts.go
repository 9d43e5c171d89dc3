// Package sitestack provides the core types for declaring a CloudFormation
// stack in native Go.
//
// Resources are plain Go structs from the resources/... packages. They are
// registered on a Stack under a logical ID, and can then be referenced from
// other resources either directly or through their attributes:
//
//	stack := sitestack.NewStack("WebsiteStack", "Static site")
//
//	bucket := &s3.Bucket{AccessControl: "Private"}
//	stack.Add("WebsiteBucket", bucket)
//
//	policy := &s3.BucketPolicy{
//	    Bucket: bucket,                // {"Ref": "WebsiteBucket"}
//	    PolicyDocument: ...,           // may use bucket.Arn()
//	}
//	stack.Add("WebsiteBucketPolicy", policy)
//
// The template builder in internal/template turns a Stack into a
// CloudFormation template.
package sitestack

import (
	"encoding/json"

	"github.com/unleashedlab/sitestack/intrinsics"
)

// Resource represents a CloudFormation resource.
// All resource types (s3.Bucket, cloudfront.Distribution, etc.) implement this
// interface by embedding Logical.
type Resource interface {
	// ResourceType returns the CloudFormation type (e.g., "AWS::S3::Bucket")
	ResourceType() string
	// LogicalID returns the ID assigned by Stack.Add, or "" before that.
	LogicalID() string
	// SetLogicalID is called by Stack.Add.
	SetLogicalID(id string)
}

// Logical carries the logical ID of a resource. Embed it in resource structs
// with a `json:"-"` tag so it never appears among the properties.
//
// When a resource is used as a property value of another resource it
// serializes as {"Ref": "<LogicalID>"}.
type Logical struct {
	id string
}

// SetLogicalID sets the logical ID. This is called by the stack.
func (l *Logical) SetLogicalID(id string) {
	l.id = id
}

// LogicalID returns the logical ID.
func (l Logical) LogicalID() string {
	return l.id
}

// Ref returns a {"Ref": id} value for this resource.
func (l Logical) Ref() intrinsics.Ref {
	return intrinsics.Ref{LogicalName: l.id}
}

// GetAtt returns an attribute reference for this resource.
func (l Logical) GetAtt(attribute string) AttrRef {
	return AttrRef{Resource: l.id, Attribute: attribute}
}

// MarshalJSON serializes the resource as a Ref when it is nested inside
// another resource's properties.
func (l Logical) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]string{"Ref": l.id})
}

// AttrRef represents a GetAtt reference to a resource attribute.
// Resource types expose accessor methods that return an AttrRef for each
// supported attribute.
//
// Example:
//
//	Value: distribution.DomainName(),  // AttrRef
//
// When serialized to CloudFormation JSON, AttrRef becomes:
//
//	{"Fn::GetAtt": ["WebsiteDistribution", "DomainName"]}
type AttrRef struct {
	// Resource is the logical name of the referenced resource
	Resource string
	// Attribute is the attribute name (e.g., "Arn", "DomainName")
	Attribute string
}

// MarshalJSON serializes AttrRef to CloudFormation GetAtt syntax.
func (a AttrRef) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string][]string{
		"Fn::GetAtt": {a.Resource, a.Attribute},
	})
}

// IsZero returns true if the AttrRef has not been populated.
func (a AttrRef) IsZero() bool {
	return a.Resource == "" && a.Attribute == ""
}

// RemovalPolicy controls what happens to a resource when it is removed from
// the stack or replaced.
type RemovalPolicy string

const (
	// Retain keeps the physical resource.
	Retain RemovalPolicy = "Retain"
	// Delete removes the physical resource.
	Delete RemovalPolicy = "Delete"
	// Snapshot snapshots the resource before deletion (where supported).
	Snapshot RemovalPolicy = "Snapshot"
)

// Template represents a CloudFormation template.
type Template struct {
	AWSTemplateFormatVersion string                 `json:"AWSTemplateFormatVersion" yaml:"AWSTemplateFormatVersion"`
	Description              string                 `json:"Description,omitempty" yaml:"Description,omitempty"`
	Metadata                 map[string]any         `json:"Metadata,omitempty" yaml:"Metadata,omitempty"`
	Parameters               map[string]Parameter   `json:"Parameters,omitempty" yaml:"Parameters,omitempty"`
	Conditions               map[string]any         `json:"Conditions,omitempty" yaml:"Conditions,omitempty"`
	Resources                map[string]ResourceDef `json:"Resources" yaml:"Resources"`
	Outputs                  map[string]Output      `json:"Outputs,omitempty" yaml:"Outputs,omitempty"`
}

// ResourceDef is a single resource in the CloudFormation template.
type ResourceDef struct {
	Type                string         `json:"Type" yaml:"Type"`
	Properties          map[string]any `json:"Properties,omitempty" yaml:"Properties,omitempty"`
	DependsOn           []string       `json:"DependsOn,omitempty" yaml:"DependsOn,omitempty"`
	DeletionPolicy      string         `json:"DeletionPolicy,omitempty" yaml:"DeletionPolicy,omitempty"`
	UpdateReplacePolicy string         `json:"UpdateReplacePolicy,omitempty" yaml:"UpdateReplacePolicy,omitempty"`
	Metadata            map[string]any `json:"Metadata,omitempty" yaml:"Metadata,omitempty"`
	Condition           string         `json:"Condition,omitempty" yaml:"Condition,omitempty"`
}

// Parameter is a CloudFormation template parameter. sitestack does not
// declare parameters itself but keeps them when loading deployed templates.
type Parameter struct {
	Type          string `json:"Type" yaml:"Type"`
	Description   string `json:"Description,omitempty" yaml:"Description,omitempty"`
	Default       any    `json:"Default,omitempty" yaml:"Default,omitempty"`
	AllowedValues []any  `json:"AllowedValues,omitempty" yaml:"AllowedValues,omitempty"`
}

// Output is a CloudFormation template output.
type Output struct {
	Description string  `json:"Description,omitempty" yaml:"Description,omitempty"`
	Value       any     `json:"Value" yaml:"Value"`
	Export      *Export `json:"Export,omitempty" yaml:"Export,omitempty"`
}

// Export names an output for cross-stack Fn::ImportValue.
type Export struct {
	Name string `json:"Name" yaml:"Name"`
}

// Asset is a local directory that is copied into a bucket after the stack
// is deployed.
type Asset struct {
	// ID identifies the asset within the stack (e.g., "WebsiteDeployment")
	ID string `json:"id"`
	// Path is the local source directory
	Path string `json:"path"`
	// Hash is the content hash, filled in during synthesis
	Hash string `json:"hash,omitempty"`
	// DestinationBucket is the logical ID of the target bucket
	DestinationBucket string `json:"destinationBucket"`
	// DestinationPrefix is an optional key prefix inside the bucket
	DestinationPrefix string `json:"destinationPrefix,omitempty"`
	// Prune deletes bucket objects that are not part of the asset
	Prune bool `json:"prune"`
	// RetainOnDelete leaves objects in place when the stack is destroyed
	RetainOnDelete bool `json:"retainOnDelete"`
	// InvalidateDistribution is the logical ID of a distribution to
	// invalidate after upload
	InvalidateDistribution string `json:"invalidateDistribution,omitempty"`
	// Files is the number of staged files, filled in during synthesis
	Files int `json:"files,omitempty"`
	// Size is the total staged size in bytes, filled in during synthesis
	Size int64 `json:"size,omitempty"`
}

// AssetManifest is written next to the template by `sitestack synth`.
type AssetManifest struct {
	Version string  `json:"version"`
	Stack   string  `json:"stack"`
	Assets  []Asset `json:"assets"`
}

// BuildResult is the JSON output from `sitestack synth`.
type BuildResult struct {
	Success   bool     `json:"success"`
	Template  Template `json:"template,omitempty"`
	Resources []string `json:"resources,omitempty"`
	Errors    []string `json:"errors,omitempty"`
}

// LintResult is the JSON output from `sitestack lint`.
type LintResult struct {
	Success bool        `json:"success"`
	Issues  []LintIssue `json:"issues,omitempty"`
}

// LintIssue is a single linting issue.
type LintIssue struct {
	Resource string `json:"resource"`
	Path     string `json:"path,omitempty"`
	Severity string `json:"severity"` // "error", "warning", "info"
	Message  string `json:"message"`
	Rule     string `json:"rule"`
}

// ValidateResult is the JSON output from `sitestack validate`.
type ValidateResult struct {
	Success   bool     `json:"success"`
	Resources int      `json:"resources"`
	Errors    []string `json:"errors,omitempty"`
	Warnings  []string `json:"warnings,omitempty"`
}

// ListResult is the JSON output from `sitestack list`.
type ListResult struct {
	Resources []ListResource `json:"resources"`
}

// ListResource is a single resource in the list output.
type ListResource struct {
	Name string `json:"name"`
	Type string `json:"type"`
	File string `json:"file"`
	Line int    `json:"line"`
}

// TemplateDiff holds resource-level differences between two templates.
type TemplateDiff struct {
	Added    []DiffEntry `json:"added,omitempty"`
	Removed  []DiffEntry `json:"removed,omitempty"`
	Modified []DiffEntry `json:"modified,omitempty"`
	Outputs  []string    `json:"outputs,omitempty"`
}

// DiffEntry is a single changed resource.
type DiffEntry struct {
	Resource string   `json:"resource"`
	Type     string   `json:"type"`
	Changes  []string `json:"changes,omitempty"`
}

// DiffSummary counts the differences.
type DiffSummary struct {
	Added    int `json:"added"`
	Removed  int `json:"removed"`
	Modified int `json:"modified"`
	Total    int `json:"total"`
}

// DeployResult is the JSON output from `sitestack deploy`.
type DeployResult struct {
	StackName string            `json:"stackName"`
	StackID   string            `json:"stackId,omitempty"`
	ChangeSet string            `json:"changeSet,omitempty"`
	NoChanges bool              `json:"noChanges"`
	Status    string            `json:"status,omitempty"`
	Outputs   map[string]string `json:"outputs,omitempty"`
}

// PublishResult is the JSON output from `sitestack publish`.
type PublishResult struct {
	Bucket       string `json:"bucket"`
	Uploaded     int    `json:"uploaded"`
	Skipped      int    `json:"skipped"`
	Deleted      int    `json:"deleted"`
	Bytes        int64  `json:"bytes"`
	Invalidation string `json:"invalidation,omitempty"`
	DryRun       bool   `json:"dryRun,omitempty"`
}

// SchemaError is a resource property that does not match its schema.
type SchemaError struct {
	Resource string `json:"resource"`
	Property string `json:"property"`
	Message  string `json:"message"`
}

// Error implements error.
func (e SchemaError) Error() string {
	return e.Resource + "." + e.Property + ": " + e.Message
}

// OptimizeResult is the JSON output from `sitestack optimize`.
type OptimizeResult struct {
	Success       bool                 `json:"success"`
	Suggestions   []OptimizeSuggestion `json:"suggestions,omitempty"`
	ResourceCount int                  `json:"resourceCount"`
	Summary       OptimizeSummary      `json:"summary"`
}

// OptimizeSuggestion is one improvement suggestion.
type OptimizeSuggestion struct {
	Rule        string `json:"rule"`
	Resource    string `json:"resource"`
	Category    string `json:"category"`
	Severity    string `json:"severity"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Suggestion  string `json:"suggestion"`
}

// OptimizeSummary counts suggestions per category.
type OptimizeSummary struct {
	Security    int `json:"security"`
	Cost        int `json:"cost"`
	Performance int `json:"performance"`
	Reliability int `json:"reliability"`
	Total       int `json:"total"`
}
