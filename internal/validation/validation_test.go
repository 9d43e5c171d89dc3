package validation

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/lex00/cfn-lint-go/pkg/lint"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unleashedlab/sitestack"
	"github.com/unleashedlab/sitestack/internal/lookup"
	"github.com/unleashedlab/sitestack/resources/certificatemanager"
	"github.com/unleashedlab/sitestack/resources/s3"
	"github.com/unleashedlab/sitestack/website"
)

func TestCfnLintResult_TotalIssues(t *testing.T) {
	tests := []struct {
		name     string
		result   CfnLintResult
		expected int
	}{
		{name: "empty result", result: CfnLintResult{}, expected: 0},
		{name: "errors only", result: CfnLintResult{Errors: []string{"error1", "error2"}}, expected: 2},
		{
			name: "mixed issues",
			result: CfnLintResult{
				Errors:        []string{"error1"},
				Warnings:      []string{"warning1", "warning2"},
				Informational: []string{"info1"},
			},
			expected: 4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.result.TotalIssues())
		})
	}
}

func TestFormatMatch(t *testing.T) {
	tests := []struct {
		name     string
		match    lint.Match
		expected string
	}{
		{
			name: "simple match",
			match: lint.Match{
				Rule:    lint.MatchRule{ID: "E1234"},
				Message: "Something is wrong",
			},
			expected: "E1234: Something is wrong",
		},
		{
			name: "match with path",
			match: lint.Match{
				Rule:    lint.MatchRule{ID: "W5678"},
				Message: "Warning message",
				Location: lint.MatchLocation{
					Path: []any{"Resources", "WebsiteBucket", "Properties"},
				},
			},
			expected: "W5678: Warning message (at Resources/WebsiteBucket/Properties)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, formatMatch(tt.match))
		})
	}
}

func TestRunCfnLint_FileNotFound(t *testing.T) {
	result, err := RunCfnLint("/nonexistent/template.yaml", Options{})
	require.NoError(t, err)
	assert.False(t, result.Passed)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "Template file not found")
}

func TestRunCfnLint_ValidTemplate(t *testing.T) {
	templatePath := filepath.Join(t.TempDir(), "template.yaml")
	require.NoError(t, os.WriteFile(templatePath, []byte(`AWSTemplateFormatVersion: '2010-09-09'
Description: Test template
Resources:
  WebsiteBucket:
    Type: AWS::S3::Bucket
    Properties:
      AccessControl: Private
`), 0o644))

	result, err := RunCfnLint(templatePath, Options{})
	require.NoError(t, err)
	assert.NotNil(t, result)
	assert.Equal(t, len(result.Errors) == 0, result.Passed)
}

func TestValidate_WebsiteStack(t *testing.T) {
	props := website.DefaultProps("unleashedlab.io")
	props.HostedZone = lookup.HostedZone{ID: "Z0123456789ABC"}
	w, err := website.NewWebsiteStack("WebsiteStack", props)
	require.NoError(t, err)

	result, err := Validate(w.Stack, Options{})
	require.NoError(t, err)
	assert.Equal(t, 5, result.Resources)
	for _, e := range result.Errors {
		assert.NotContains(t, e, "reference to unknown resource")
		assert.NotContains(t, e, "Linter error")
		assert.NotContains(t, e, "missing required property")
	}
}

func TestValidate_SchemaErrors(t *testing.T) {
	stack := sitestack.NewStack("Certs", "")
	stack.Add("SiteCertificate", &certificatemanager.Certificate{
		DomainName:       "unleashedlab.io",
		ValidationMethod: "HTTP",
	})

	result, err := Validate(stack, Options{})
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Contains(t, result.Errors, `SiteCertificate.ValidationMethod: value "HTTP" not in allowed values: [DNS EMAIL]`)
}

func TestValidate_BuildErrors(t *testing.T) {
	stack := sitestack.NewStack("Broken", "")
	bucket := &s3.Bucket{}
	stack.Add("WebsiteBucket", bucket)
	stack.Add("WebsiteBucketPolicy", &s3.BucketPolicy{Bucket: &s3.Bucket{}, PolicyDocument: map[string]any{}})

	result, err := Validate(stack, Options{})
	require.NoError(t, err)
	assert.False(t, result.Success)
	require.NotEmpty(t, result.Errors)
}

func TestSplitJoined(t *testing.T) {
	stack := sitestack.NewStack("Broken", "")
	stack.Add("bad-id", &s3.Bucket{})
	stack.Add("also bad", &s3.Bucket{})

	assert.Len(t, splitJoined(stack.Err()), 2)
}
