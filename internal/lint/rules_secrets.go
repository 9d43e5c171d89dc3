package lint

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// SecretPattern detects credentials embedded in template strings.
type SecretPattern struct{}

func (SecretPattern) ID() string { return "SS010" }
func (SecretPattern) Description() string {
	return "Template values must not contain hardcoded secrets"
}

var secretPatterns = []struct {
	name    string
	pattern *regexp.Regexp
}{
	{"AWS access key", regexp.MustCompile(`\b(AKIA|ASIA)[0-9A-Z]{16}\b`)},
	{"private key", regexp.MustCompile(`-----BEGIN (RSA |EC |OPENSSH )?PRIVATE KEY-----`)},
	{"GitHub token", regexp.MustCompile(`\bgh[pousr]_[A-Za-z0-9]{36,}\b`)},
	{"Slack token", regexp.MustCompile(`\bxox[baprs]-[0-9A-Za-z-]{10,}\b`)},
	{"Stripe key", regexp.MustCompile(`\bsk_(live|test)_[0-9A-Za-z]{24,}\b`)},
}

// sensitiveFieldNames are property names whose literal values are treated
// as secrets regardless of content.
var sensitiveFieldNames = map[string]bool{
	"password":        true,
	"secret":          true,
	"secretkey":       true,
	"secretaccesskey": true,
	"apikey":          true,
	"token":           true,
	"privatekey":      true,
}

func (r SecretPattern) Check(doc gjson.Result) []Issue {
	var issues []Issue
	doc.Get("Resources").ForEach(func(id, res gjson.Result) bool {
		walkStrings(res.Get("Properties"), "", func(path, key, value string) {
			if sensitiveFieldNames[strings.ToLower(key)] && value != "" {
				issues = append(issues, Issue{
					Rule:     r.ID(),
					Resource: id.String(),
					Path:     path,
					Message:  "literal value for sensitive field " + key + "; use a dynamic reference",
					Severity: SeverityError,
				})
				return
			}
			for _, p := range secretPatterns {
				if p.pattern.MatchString(value) {
					issues = append(issues, Issue{
						Rule:     r.ID(),
						Resource: id.String(),
						Path:     path,
						Message:  "value looks like a " + p.name,
						Severity: SeverityError,
					})
					return
				}
			}
		})
		return true
	})
	return issues
}

// walkStrings calls fn for every string leaf below v with its dotted path
// and the name of the field holding it.
func walkStrings(v gjson.Result, path string, fn func(path, key, value string)) {
	join := func(k string) string {
		if path == "" {
			return k
		}
		return path + "." + k
	}
	switch {
	case v.IsObject():
		v.ForEach(func(k, child gjson.Result) bool {
			if child.Type == gjson.String {
				fn(join(k.String()), k.String(), child.String())
			} else {
				walkStrings(child, join(k.String()), fn)
			}
			return true
		})
	case v.IsArray():
		for i, child := range v.Array() {
			idx := join(strconv.Itoa(i))
			if child.Type == gjson.String {
				fn(idx, "", child.String())
			} else {
				walkStrings(child, idx, fn)
			}
		}
	}
}
