// Package lint checks a synthesized template against security and
// best-practice rules for static websites.
package lint

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/tidwall/gjson"

	"github.com/unleashedlab/sitestack"
)

// Severity is the level of an issue.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Issue is one rule violation.
type Issue struct {
	Rule     string
	Resource string
	// Path is the dotted property path inside the resource, if any
	Path     string
	Message  string
	Severity Severity
}

// String formats the issue for text output.
func (i Issue) String() string {
	loc := i.Resource
	if i.Path != "" {
		loc += "." + i.Path
	}
	return fmt.Sprintf("%s [%s] %s: %s", i.Rule, i.Severity, loc, i.Message)
}

// Rule is a single lint rule. Check receives the whole template document.
type Rule interface {
	ID() string
	Description() string
	Check(doc gjson.Result) []Issue
}

// Result contains the outcome of linting.
type Result struct {
	// Success is false when any error-severity issue was found
	Success bool
	Issues  []Issue
}

// Options configures the linter.
type Options struct {
	// Rules to enable. If empty, all rules are enabled.
	EnabledRules []string
}

// Lint runs the rules over a template.
func Lint(t *sitestack.Template, opts Options) (Result, error) {
	data, err := json.Marshal(t)
	if err != nil {
		return Result{}, err
	}
	return LintJSON(data, opts)
}

// LintJSON runs the rules over template JSON.
func LintJSON(data []byte, opts Options) (Result, error) {
	if !gjson.ValidBytes(data) {
		return Result{}, fmt.Errorf("template is not valid JSON")
	}
	doc := gjson.ParseBytes(data)

	var issues []Issue
	for _, rule := range getRules(opts) {
		issues = append(issues, rule.Check(doc)...)
	}
	sort.SliceStable(issues, func(i, j int) bool {
		if issues[i].Resource != issues[j].Resource {
			return issues[i].Resource < issues[j].Resource
		}
		return issues[i].Rule < issues[j].Rule
	})

	result := Result{Success: true, Issues: issues}
	for _, issue := range issues {
		if issue.Severity == SeverityError {
			result.Success = false
			break
		}
	}
	return result, nil
}

// ToResult converts a lint result into the CLI JSON contract.
func ToResult(r Result) sitestack.LintResult {
	out := sitestack.LintResult{Success: r.Success}
	for _, i := range r.Issues {
		out.Issues = append(out.Issues, sitestack.LintIssue{
			Resource: i.Resource,
			Path:     i.Path,
			Severity: string(i.Severity),
			Message:  i.Message,
			Rule:     i.Rule,
		})
	}
	return out
}

// getRules returns the rules to use based on options.
func getRules(opts Options) []Rule {
	all := AllRules()
	if len(opts.EnabledRules) == 0 {
		return all
	}

	enabled := make(map[string]bool)
	for _, id := range opts.EnabledRules {
		enabled[id] = true
	}

	var filtered []Rule
	for _, r := range all {
		if enabled[r.ID()] {
			filtered = append(filtered, r)
		}
	}
	return filtered
}

// AllRules returns every rule in ID order.
func AllRules() []Rule {
	return []Rule{
		BucketEncryption{},
		BucketPublicAccessBlock{},
		BucketEnforceSSL{},
		DistributionHTTPS{},
		DistributionTLSVersion{},
		OriginAccessIdentity{},
		BucketRetained{},
		CertificateDNSValidation{},
		AliasesCoveredByCertificate{},
		SecretPattern{},
	}
}

// resourcesOfType calls fn for every resource of the given type.
func resourcesOfType(doc gjson.Result, cfType string, fn func(id string, res gjson.Result)) {
	doc.Get("Resources").ForEach(func(key, value gjson.Result) bool {
		if value.Get("Type").String() == cfType {
			fn(key.String(), value)
		}
		return true
	})
}
