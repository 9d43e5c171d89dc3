// Package validation checks a stack before it is deployed:
//   - reference and dependency checks by the template builder
//   - offline property schemas of the declared resource types
//   - cfn-lint-go over the synthesized template
package validation

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/lex00/cfn-lint-go/pkg/lint"

	"github.com/unleashedlab/sitestack"
	"github.com/unleashedlab/sitestack/internal/schema"
	"github.com/unleashedlab/sitestack/internal/template"
)

// CfnLintResult contains the result of running cfn-lint.
type CfnLintResult struct {
	Passed        bool     `json:"passed"`
	Errors        []string `json:"errors"`
	Warnings      []string `json:"warnings"`
	Informational []string `json:"informational"`
}

// TotalIssues returns the total number of issues found.
func (r CfnLintResult) TotalIssues() int {
	return len(r.Errors) + len(r.Warnings) + len(r.Informational)
}

// Options configures validation.
type Options struct {
	// IgnoreRules lists cfn-lint rule IDs (e.g. "W3005") to drop
	IgnoreRules []string
	// StrictSchema reports properties missing from the offline schemas
	StrictSchema bool
}

// Validate builds the stack and lints the resulting template. Build errors
// are reported in the result, not returned; the error return is for I/O
// failures only.
func Validate(stack *sitestack.Stack, opts Options) (*sitestack.ValidateResult, error) {
	result := &sitestack.ValidateResult{Resources: len(stack.Entries())}

	tmpl, err := template.NewBuilder(stack).Build()
	if err != nil {
		result.Errors = splitJoined(err)
		return result, nil
	}

	schemaResult, err := schema.ValidateTemplate(tmpl, schema.Options{Strict: opts.StrictSchema})
	if err != nil {
		return nil, err
	}
	for _, e := range schemaResult.Errors {
		result.Errors = append(result.Errors, e.Error())
	}
	for _, w := range schemaResult.Warnings {
		result.Warnings = append(result.Warnings, w.Error())
	}

	lintResult, err := LintTemplate(tmpl, opts)
	if err != nil {
		return nil, err
	}
	result.Errors = append(result.Errors, lintResult.Errors...)
	result.Warnings = append(result.Warnings, lintResult.Warnings...)
	result.Warnings = append(result.Warnings, lintResult.Informational...)
	result.Success = len(result.Errors) == 0
	return result, nil
}

// LintTemplate writes the template to a temporary file and runs cfn-lint-go
// over it.
func LintTemplate(t *sitestack.Template, opts Options) (*CfnLintResult, error) {
	data, err := template.ToJSON(t)
	if err != nil {
		return nil, err
	}

	f, err := os.CreateTemp("", "sitestack-*.template.json")
	if err != nil {
		return nil, fmt.Errorf("creating temp template: %w", err)
	}
	defer os.Remove(f.Name())

	if _, err := f.Write(data); err != nil {
		f.Close()
		return nil, fmt.Errorf("writing temp template: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, err
	}

	return RunCfnLint(f.Name(), opts)
}

// RunCfnLint runs cfn-lint-go on the given template file.
func RunCfnLint(templatePath string, opts Options) (*CfnLintResult, error) {
	if _, err := os.Stat(templatePath); err != nil {
		return &CfnLintResult{
			Passed: false,
			Errors: []string{fmt.Sprintf("Template file not found: %s", templatePath)},
		}, nil
	}

	linter := lint.New(lint.Options{})
	matches, err := linter.LintFile(templatePath)
	if err != nil {
		return &CfnLintResult{
			Passed: false,
			Errors: []string{fmt.Sprintf("Linter error: %v", err)},
		}, nil
	}

	result := &CfnLintResult{
		Errors:        []string{},
		Warnings:      []string{},
		Informational: []string{},
	}

	for _, match := range matches {
		if slices.Contains(opts.IgnoreRules, match.Rule.ID) {
			continue
		}
		formatted := formatMatch(match)

		switch match.Level {
		case "Error":
			result.Errors = append(result.Errors, formatted)
		case "Warning":
			result.Warnings = append(result.Warnings, formatted)
		default:
			result.Informational = append(result.Informational, formatted)
		}
	}

	// Passed if no errors (warnings are acceptable)
	result.Passed = len(result.Errors) == 0

	return result, nil
}

// formatMatch formats a cfn-lint-go match for display.
func formatMatch(match lint.Match) string {
	pathStr := ""
	if len(match.Location.Path) > 0 {
		parts := make([]string, len(match.Location.Path))
		for i, p := range match.Location.Path {
			parts[i] = fmt.Sprintf("%v", p)
		}
		pathStr = strings.Join(parts, "/")
	}

	if pathStr != "" {
		return fmt.Sprintf("%s: %s (at %s)", match.Rule.ID, match.Message, pathStr)
	}
	return fmt.Sprintf("%s: %s", match.Rule.ID, match.Message)
}

// splitJoined flattens an errors.Join tree into one message per error.
func splitJoined(err error) []string {
	var joined interface{ Unwrap() []error }
	if errors.As(err, &joined) {
		var msgs []string
		for _, e := range joined.Unwrap() {
			msgs = append(msgs, e.Error())
		}
		return msgs
	}
	return []string{err.Error()}
}
