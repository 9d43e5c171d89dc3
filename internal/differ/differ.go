// Package differ provides semantic comparison of CloudFormation templates.
package differ

import (
	"encoding/json"
	"fmt"
	"os"
	"reflect"
	"slices"
	"sort"
	"strings"

	"github.com/yudai/gojsondiff"
	"github.com/yudai/gojsondiff/formatter"

	"github.com/unleashedlab/sitestack"
	"github.com/unleashedlab/sitestack/internal/template"
)

// Options configures the differ.
type Options struct {
	// IgnoreOrder ignores array element order in comparisons
	IgnoreOrder bool
}

// Result contains the difference between two templates.
type Result struct {
	Diff    sitestack.TemplateDiff `json:"diff"`
	Summary sitestack.DiffSummary  `json:"summary"`
}

// Empty reports whether the templates are equivalent.
func (r *Result) Empty() bool {
	return r.Summary.Total == 0 && len(r.Diff.Outputs) == 0
}

// Compare compares two CloudFormation templates and returns differences.
// Both templates are round-tripped through JSON first, so a freshly built
// template compares equal to the same template read back from disk or
// CloudFormation.
func Compare(template1, template2 *sitestack.Template, opts Options) (*Result, error) {
	t1, err := canonical(template1)
	if err != nil {
		return nil, err
	}
	t2, err := canonical(template2)
	if err != nil {
		return nil, err
	}

	result := &Result{}
	res1, res2 := t1.Resources, t2.Resources

	for name, def := range res2 {
		if _, exists := res1[name]; !exists {
			result.Diff.Added = append(result.Diff.Added, sitestack.DiffEntry{Resource: name, Type: def.Type})
		}
	}

	for name, def := range res1 {
		if _, exists := res2[name]; !exists {
			result.Diff.Removed = append(result.Diff.Removed, sitestack.DiffEntry{Resource: name, Type: def.Type})
		}
	}

	for name, def1 := range res1 {
		if def2, exists := res2[name]; exists {
			changes := compareResources(def1, def2, opts)
			if len(changes) > 0 {
				result.Diff.Modified = append(result.Diff.Modified, sitestack.DiffEntry{
					Resource: name,
					Type:     def1.Type,
					Changes:  changes,
				})
			}
		}
	}

	result.Diff.Outputs = compareOutputs(t1.Outputs, t2.Outputs, opts)

	sortEntries(result.Diff.Added)
	sortEntries(result.Diff.Removed)
	sortEntries(result.Diff.Modified)

	result.Summary = sitestack.DiffSummary{
		Added:    len(result.Diff.Added),
		Removed:  len(result.Diff.Removed),
		Modified: len(result.Diff.Modified),
	}
	result.Summary.Total = result.Summary.Added + result.Summary.Removed + result.Summary.Modified

	return result, nil
}

// CompareFiles compares two template files.
func CompareFiles(file1, file2 string, opts Options) (*Result, error) {
	t1, err := LoadTemplate(file1)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", file1, err)
	}

	t2, err := LoadTemplate(file2)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", file2, err)
	}

	return Compare(t1, t2, opts)
}

// LoadTemplate loads a CloudFormation template from a JSON or YAML file.
func LoadTemplate(path string) (*sitestack.Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return template.Parse(data)
}

// DetailFormat selects the rendering of Detail.
type DetailFormat string

const (
	// DetailDelta is the jsondiffpatch delta JSON.
	DetailDelta DetailFormat = "delta"
	// DetailASCII is a line-oriented +/- rendering of the left template.
	DetailASCII DetailFormat = "ascii"
)

// Detail renders a property-level delta between the two templates. It
// returns an empty string when they are equal.
func Detail(template1, template2 *sitestack.Template, format DetailFormat, opts Options) (string, error) {
	left, err := toMap(template1, opts)
	if err != nil {
		return "", err
	}
	right, err := toMap(template2, opts)
	if err != nil {
		return "", err
	}

	diff := gojsondiff.New().CompareObjects(left, right)
	if !diff.Modified() {
		return "", nil
	}

	switch format {
	case DetailASCII:
		f := formatter.NewAsciiFormatter(left, formatter.AsciiFormatterConfig{ShowArrayIndex: true})
		return f.Format(diff)
	default:
		return formatter.NewDeltaFormatter().Format(diff)
	}
}

func canonical(t *sitestack.Template) (*sitestack.Template, error) {
	data, err := json.Marshal(t)
	if err != nil {
		return nil, err
	}
	return template.Parse(data)
}

func toMap(t *sitestack.Template, opts Options) (map[string]any, error) {
	data, err := json.Marshal(t)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	if opts.IgnoreOrder {
		m = normalizeValue(m).(map[string]any)
	}
	return m, nil
}

// compareResources compares two resource definitions and returns changes.
func compareResources(def1, def2 sitestack.ResourceDef, opts Options) []string {
	var changes []string

	if def1.Type != def2.Type {
		changes = append(changes, fmt.Sprintf("Type changed: %s → %s", def1.Type, def2.Type))
	}

	changes = append(changes, compareProperties("", def1.Properties, def2.Properties, opts)...)

	if !slices.Equal(sortedCopy(def1.DependsOn), sortedCopy(def2.DependsOn)) {
		changes = append(changes, "DependsOn changed")
	}
	if def1.DeletionPolicy != def2.DeletionPolicy {
		changes = append(changes, fmt.Sprintf("DeletionPolicy changed: %q → %q", def1.DeletionPolicy, def2.DeletionPolicy))
	}
	if def1.UpdateReplacePolicy != def2.UpdateReplacePolicy {
		changes = append(changes, fmt.Sprintf("UpdateReplacePolicy changed: %q → %q", def1.UpdateReplacePolicy, def2.UpdateReplacePolicy))
	}
	if def1.Condition != def2.Condition {
		changes = append(changes, "Condition changed")
	}

	return changes
}

// compareProperties recursively compares property maps.
func compareProperties(prefix string, props1, props2 map[string]any, opts Options) []string {
	var changes []string

	for key, val2 := range props2 {
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}

		val1, exists := props1[key]
		if !exists {
			changes = append(changes, fmt.Sprintf("%s added", path))
			continue
		}

		m1, ok1 := val1.(map[string]any)
		m2, ok2 := val2.(map[string]any)
		if ok1 && ok2 && !isIntrinsic(m1) && !isIntrinsic(m2) {
			changes = append(changes, compareProperties(path, m1, m2, opts)...)
			continue
		}
		if !deepEqual(val1, val2, opts) {
			changes = append(changes, fmt.Sprintf("%s modified", path))
		}
	}

	for key := range props1 {
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}
		if _, exists := props2[key]; !exists {
			changes = append(changes, fmt.Sprintf("%s removed", path))
		}
	}

	sort.Strings(changes)
	return changes
}

// compareOutputs lists output names that were added, removed or changed.
func compareOutputs(o1, o2 map[string]sitestack.Output, opts Options) []string {
	var changes []string
	for name, out2 := range o2 {
		out1, ok := o1[name]
		switch {
		case !ok:
			changes = append(changes, name+" added")
		case !deepEqual(out1.Value, out2.Value, opts) || out1.Description != out2.Description || exportName(out1) != exportName(out2):
			changes = append(changes, name+" modified")
		}
	}
	for name := range o1 {
		if _, ok := o2[name]; !ok {
			changes = append(changes, name+" removed")
		}
	}
	sort.Strings(changes)
	return changes
}

func exportName(o sitestack.Output) string {
	if o.Export == nil {
		return ""
	}
	return o.Export.Name
}

// isIntrinsic reports whether m is a single-key intrinsic function such as
// {"Ref": ...}, which is compared as a whole.
func isIntrinsic(m map[string]any) bool {
	if len(m) != 1 {
		return false
	}
	for k := range m {
		return k == "Ref" || k == "Condition" || strings.HasPrefix(k, "Fn::")
	}
	return false
}

// deepEqual compares two values deeply, optionally ignoring order.
func deepEqual(a, b any, opts Options) bool {
	if opts.IgnoreOrder {
		a = normalizeValue(a)
		b = normalizeValue(b)
	}
	return reflect.DeepEqual(a, b)
}

// normalizeValue sorts every array by the JSON encoding of its elements.
func normalizeValue(v any) any {
	switch val := v.(type) {
	case []any:
		result := make([]any, len(val))
		for i, elem := range val {
			result[i] = normalizeValue(elem)
		}
		sort.SliceStable(result, func(i, j int) bool {
			return encode(result[i]) < encode(result[j])
		})
		return result
	case map[string]any:
		result := make(map[string]any, len(val))
		for k, v := range val {
			result[k] = normalizeValue(v)
		}
		return result
	default:
		return v
	}
}

func encode(v any) string {
	data, _ := json.Marshal(v)
	return string(data)
}

func sortedCopy(s []string) []string {
	out := slices.Clone(s)
	slices.Sort(out)
	return out
}

// sortEntries sorts diff entries by resource name.
func sortEntries(entries []sitestack.DiffEntry) {
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Resource < entries[j].Resource
	})
}
