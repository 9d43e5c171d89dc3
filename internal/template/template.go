// Package template builds CloudFormation templates from a sitestack.Stack.
package template

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/unleashedlab/sitestack"
	"github.com/unleashedlab/sitestack/internal/serialize"
	"github.com/unleashedlab/sitestack/intrinsics"
)

// FormatVersion is the only CloudFormation template format version.
const FormatVersion = "2010-09-09"

// AssetsMetadataKey is the template Metadata key listing content assets.
const AssetsMetadataKey = "sitestack:assets"

// ErrUnknownReference is returned when a property refers to a logical ID
// that is not part of the stack.
var ErrUnknownReference = errors.New("reference to unknown resource")

// Builder constructs a CloudFormation template from a stack.
type Builder struct {
	stack *sitestack.Stack

	props map[string]map[string]any
	deps  map[string][]string
	order []string
}

// NewBuilder creates a template builder for the stack.
func NewBuilder(stack *sitestack.Stack) *Builder {
	return &Builder{stack: stack}
}

// Build constructs the CloudFormation template.
func (b *Builder) Build() (*sitestack.Template, error) {
	if err := b.stack.Err(); err != nil {
		return nil, err
	}

	b.props = make(map[string]map[string]any)
	b.deps = make(map[string][]string)
	if err := b.serializeResources(); err != nil {
		return nil, err
	}

	order, err := b.topologicalSort()
	if err != nil {
		return nil, err
	}
	b.order = order

	template := &sitestack.Template{
		AWSTemplateFormatVersion: FormatVersion,
		Description:              b.stack.Description,
		Resources:                make(map[string]sitestack.ResourceDef),
	}

	conditions := b.stack.Conditions()
	if len(conditions) > 0 {
		template.Conditions = make(map[string]any, len(conditions))
		for name, expr := range conditions {
			value, err := serialize.Value(expr)
			if err != nil {
				return nil, fmt.Errorf("serializing condition %s: %w", name, err)
			}
			template.Conditions[name] = value
		}
	}

	for _, name := range order {
		e, _ := b.stack.Entry(name)

		def := sitestack.ResourceDef{
			Type:       e.Resource.ResourceType(),
			Properties: b.props[name],
			DependsOn:  e.DependsOn,
			Metadata:   e.Metadata,
			Condition:  e.Condition,
		}
		if e.RemovalPolicy != "" {
			def.DeletionPolicy = string(e.RemovalPolicy)
			def.UpdateReplacePolicy = string(e.RemovalPolicy)
		}
		if _, ok := conditions[e.Condition]; e.Condition != "" && !ok {
			return nil, fmt.Errorf("%s (%s:%d): unknown condition %q", name, e.File, e.Line, e.Condition)
		}
		template.Resources[name] = def
	}

	outputs, err := b.buildOutputs()
	if err != nil {
		return nil, err
	}
	if len(outputs) > 0 {
		template.Outputs = outputs
	}

	if assets := b.stack.Assets(); len(assets) > 0 {
		entries := make([]any, 0, len(assets))
		for _, a := range assets {
			if _, ok := b.stack.Entry(a.DestinationBucket); !ok {
				return nil, fmt.Errorf("asset %s: destination %s: %w", a.ID, a.DestinationBucket, ErrUnknownReference)
			}
			if a.InvalidateDistribution != "" {
				if _, ok := b.stack.Entry(a.InvalidateDistribution); !ok {
					return nil, fmt.Errorf("asset %s: distribution %s: %w", a.ID, a.InvalidateDistribution, ErrUnknownReference)
				}
			}
			entry := map[string]any{
				"id":          a.ID,
				"path":        a.Path,
				"destination": a.DestinationBucket,
			}
			if a.Hash != "" {
				entry["hash"] = a.Hash
			}
			entries = append(entries, entry)
		}
		template.Metadata = map[string]any{AssetsMetadataKey: entries}
	}

	return template, nil
}

// Order returns the logical IDs in dependency order. Only valid after Build.
func (b *Builder) Order() []string {
	return b.order
}

// Dependencies returns the logical IDs each resource depends on, through
// references or DependsOn. Only valid after Build.
func (b *Builder) Dependencies() map[string][]string {
	return b.deps
}

// serializeResources serializes every entry, merges stack tags and records
// the references each resource makes.
func (b *Builder) serializeResources() error {
	tags := b.stack.Tags()

	for _, e := range b.stack.Entries() {
		props, err := serialize.Resource(e.Resource)
		if err != nil {
			return fmt.Errorf("serializing %s: %w", e.ID, err)
		}
		if props == nil {
			props = make(map[string]any)
		}
		if len(tags) > 0 && serialize.HasField(e.Resource, "Tags") {
			props["Tags"] = serialize.MergeTags(props["Tags"], tags)
		}
		if len(props) == 0 {
			props = nil
		}
		b.props[e.ID] = props

		seen := make(map[string]bool)
		for _, ref := range References(props) {
			if ref.Target == e.ID {
				return fmt.Errorf("%s (%s:%d) references itself", e.ID, e.File, e.Line)
			}
			if _, ok := b.stack.Entry(ref.Target); !ok {
				return fmt.Errorf("%s (%s:%d): %w %q", e.ID, e.File, e.Line, ErrUnknownReference, ref.Target)
			}
			if !seen[ref.Target] {
				seen[ref.Target] = true
				b.deps[e.ID] = append(b.deps[e.ID], ref.Target)
			}
		}
		for _, dep := range e.DependsOn {
			if _, ok := b.stack.Entry(dep); !ok {
				return fmt.Errorf("%s (%s:%d): DependsOn %w %q", e.ID, e.File, e.Line, ErrUnknownReference, dep)
			}
			if !seen[dep] {
				seen[dep] = true
				b.deps[e.ID] = append(b.deps[e.ID], dep)
			}
		}
	}
	return nil
}

func (b *Builder) buildOutputs() (map[string]sitestack.Output, error) {
	outputs := make(map[string]sitestack.Output)
	for name, o := range b.stack.Outputs() {
		value, err := serialize.Value(o.Value)
		if err != nil {
			return nil, fmt.Errorf("serializing output %s: %w", name, err)
		}
		for _, ref := range References(value) {
			if _, ok := b.stack.Entry(ref.Target); !ok {
				return nil, fmt.Errorf("output %s: %w %q", name, ErrUnknownReference, ref.Target)
			}
		}
		o.Value = value
		outputs[name] = o
	}
	return outputs, nil
}

// Reference is one resource reference found in a property tree.
type Reference struct {
	Target string
	// Attribute is set for Fn::GetAtt and ${Name.Attr} references
	Attribute string
}

var subToken = regexp.MustCompile(`\$\{([^!}][^}]*)\}`)

// References walks a serialized property tree and returns every Ref,
// Fn::GetAtt and Fn::Sub reference to a logical ID. Pseudo-parameters are
// skipped.
func References(value any) []Reference {
	var refs []Reference
	collectRefs(value, &refs)
	return refs
}

func collectRefs(value any, refs *[]Reference) {
	switch v := value.(type) {
	case map[string]any:
		if len(v) == 1 {
			if target, ok := v["Ref"].(string); ok {
				if !intrinsics.IsPseudo(target) {
					*refs = append(*refs, Reference{Target: target})
				}
				return
			}
			if att, ok := v["Fn::GetAtt"]; ok {
				if ref, ok := getAttRef(att); ok {
					*refs = append(*refs, ref)
				}
				return
			}
			if sub, ok := v["Fn::Sub"]; ok {
				collectSubRefs(sub, refs)
				return
			}
		}
		keys := sortedKeys(v)
		for _, k := range keys {
			collectRefs(v[k], refs)
		}
	case []any:
		for _, elem := range v {
			collectRefs(elem, refs)
		}
	}
}

func getAttRef(att any) (Reference, bool) {
	switch a := att.(type) {
	case []any:
		if len(a) == 2 {
			target, ok1 := a[0].(string)
			attr, ok2 := a[1].(string)
			if ok1 && ok2 {
				return Reference{Target: target, Attribute: attr}, true
			}
		}
	case string:
		target, attr, ok := strings.Cut(a, ".")
		if ok {
			return Reference{Target: target, Attribute: attr}, true
		}
	}
	return Reference{}, false
}

func collectSubRefs(sub any, refs *[]Reference) {
	var (
		str  string
		vars map[string]any
	)
	switch s := sub.(type) {
	case string:
		str = s
	case []any:
		if len(s) > 0 {
			str, _ = s[0].(string)
		}
		if len(s) > 1 {
			vars, _ = s[1].(map[string]any)
			collectRefs(s[1], refs)
		}
	}

	for _, m := range subToken.FindAllStringSubmatch(str, -1) {
		name, attr, _ := strings.Cut(m[1], ".")
		if intrinsics.IsPseudo(name) {
			continue
		}
		if _, isVar := vars[name]; isVar {
			continue
		}
		*refs = append(*refs, Reference{Target: name, Attribute: attr})
	}
}

// topologicalSort returns resources in dependency order.
func (b *Builder) topologicalSort() ([]string, error) {
	graph := make(map[string][]string)
	inDegree := make(map[string]int)

	entries := b.stack.Entries()
	for _, e := range entries {
		graph[e.ID] = nil
		inDegree[e.ID] = 0
	}

	for _, e := range entries {
		for _, dep := range b.deps[e.ID] {
			graph[dep] = append(graph[dep], e.ID)
			inDegree[e.ID]++
		}
	}

	// Kahn's algorithm
	var queue []string
	for name, degree := range inDegree {
		if degree == 0 {
			queue = append(queue, name)
		}
	}
	sort.Strings(queue)

	var result []string
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		result = append(result, node)

		for _, neighbor := range graph[node] {
			inDegree[neighbor]--
			if inDegree[neighbor] == 0 {
				queue = append(queue, neighbor)
				sort.Strings(queue)
			}
		}
	}

	if len(result) != len(entries) {
		return nil, b.detectCycle()
	}

	return result, nil
}

// detectCycle finds and reports a cycle in the dependency graph.
func (b *Builder) detectCycle() error {
	visited := make(map[string]bool)
	path := make(map[string]bool)

	var cycle []string
	var findCycle func(node string) bool
	findCycle = func(node string) bool {
		visited[node] = true
		path[node] = true

		for _, dep := range b.deps[node] {
			if !visited[dep] {
				if findCycle(dep) {
					cycle = append([]string{node}, cycle...)
					return true
				}
			} else if path[dep] {
				cycle = append([]string{dep, node}, cycle...)
				return true
			}
		}

		path[node] = false
		return false
	}

	for _, e := range b.stack.Entries() {
		if !visited[e.ID] && findCycle(e.ID) {
			break
		}
	}

	if len(cycle) > 0 {
		var msg strings.Builder
		msg.WriteString("circular dependency detected:\n")
		for i, name := range cycle {
			e, _ := b.stack.Entry(name)
			fmt.Fprintf(&msg, "  %s (%s:%d)", name, e.File, e.Line)
			if i < len(cycle)-1 {
				msg.WriteString("\n    → ")
			}
		}
		return errors.New(msg.String())
	}

	return errors.New("circular dependency detected")
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ToJSON serializes the template to JSON.
func ToJSON(t *sitestack.Template) ([]byte, error) {
	return json.MarshalIndent(t, "", "  ")
}

// ToYAML serializes the template to YAML.
func ToYAML(t *sitestack.Template) ([]byte, error) {
	return yaml.Marshal(t)
}

// Parse reads a JSON or YAML template.
func Parse(data []byte) (*sitestack.Template, error) {
	var t sitestack.Template
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "{") {
		if err := json.Unmarshal(data, &t); err != nil {
			return nil, fmt.Errorf("parsing JSON template: %w", err)
		}
		return &t, nil
	}
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parsing YAML template: %w", err)
	}
	return &t, nil
}
