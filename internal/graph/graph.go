// Package graph generates DOT and Mermaid dependency graphs from a built
// template.
package graph

import (
	"io"
	"slices"
	"sort"
	"strings"

	"github.com/emicklei/dot"

	"github.com/unleashedlab/sitestack"
	"github.com/unleashedlab/sitestack/internal/template"
)

// Format specifies the output format for the graph.
type Format string

const (
	// FormatDOT outputs Graphviz DOT format.
	FormatDOT Format = "dot"
	// FormatMermaid outputs Mermaid format for GitHub/markdown rendering.
	FormatMermaid Format = "mermaid"
)

// Generator creates dependency graphs from templates.
type Generator struct {
	// IncludeOutputs adds a node per stack output.
	IncludeOutputs bool

	// IncludeAssets adds a node per content asset, pointing at its bucket.
	IncludeAssets bool

	// Format specifies the output format (dot or mermaid). Defaults to dot.
	Format Format

	// ClusterByService groups resources by AWS service.
	ClusterByService bool
}

// Generate creates a dependency graph and writes it to w.
func (g *Generator) Generate(t *sitestack.Template, w io.Writer) error {
	graph := g.buildGraph(t)

	var output string
	if g.Format == FormatMermaid {
		output = dot.MermaidGraph(graph, dot.MermaidTopToBottom)
	} else {
		output = graph.String()
	}

	_, err := io.WriteString(w, output)
	return err
}

// GenerateString is a convenience method that returns the graph as a string.
func (g *Generator) GenerateString(t *sitestack.Template) (string, error) {
	var sb strings.Builder
	if err := g.Generate(t, &sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func (g *Generator) buildGraph(t *sitestack.Template) *dot.Graph {
	graph := dot.NewGraph(dot.Directed)
	graph.Attr("rankdir", "TB")

	graph.NodeInitializer(func(n dot.Node) {
		n.Attr("shape", "box")
		n.Attr("fontname", "Arial")
	})
	graph.EdgeInitializer(func(e dot.Edge) {
		e.Attr("fontname", "Arial")
		e.Attr("fontsize", "10")
	})

	names := sortedNames(t.Resources)
	if g.ClusterByService {
		g.addClusteredNodes(graph, t, names)
	} else {
		for _, name := range names {
			graph.Node(name).Label(label(name, t.Resources[name].Type))
		}
	}

	for _, name := range names {
		res := t.Resources[name]
		from := graph.Node(name)

		getAtt := make(map[string]bool)
		var targets []string
		for _, ref := range template.References(res.Properties) {
			if _, ok := t.Resources[ref.Target]; !ok {
				continue
			}
			if ref.Attribute != "" {
				getAtt[ref.Target] = true
			}
			if !slices.Contains(targets, ref.Target) {
				targets = append(targets, ref.Target)
			}
		}
		sort.Strings(targets)

		for _, dep := range targets {
			e := graph.Edge(from, graph.Node(dep))
			if getAtt[dep] {
				e.Attr("color", "blue")
			}
		}
		for _, dep := range res.DependsOn {
			if slices.Contains(targets, dep) {
				continue
			}
			graph.Edge(from, graph.Node(dep)).Attr("style", "dashed")
		}
	}

	if g.IncludeOutputs {
		for _, name := range sortedNames(t.Outputs) {
			n := graph.Node("output:" + name)
			n.Attr("shape", "ellipse")
			n.Attr("style", "dashed")
			n.Label(name)
			for _, ref := range template.References(t.Outputs[name].Value) {
				if _, ok := t.Resources[ref.Target]; ok {
					graph.Edge(n, graph.Node(ref.Target))
				}
			}
		}
	}

	if g.IncludeAssets {
		for _, a := range assetEntries(t) {
			n := graph.Node("asset:" + a.id)
			n.Attr("shape", "folder")
			n.Label(a.id + "\\n[" + a.path + "]")
			if _, ok := t.Resources[a.destination]; ok {
				graph.Edge(n, graph.Node(a.destination)).Attr("style", "dotted")
			}
		}
	}

	return graph
}

// addClusteredNodes adds resource nodes grouped by AWS service. Services
// with a single resource are not clustered.
func (g *Generator) addClusteredNodes(graph *dot.Graph, t *sitestack.Template, names []string) {
	byService := make(map[string][]string)
	for _, name := range names {
		service := Service(t.Resources[name].Type)
		byService[service] = append(byService[service], name)
	}

	for _, service := range sortedNames(byService) {
		members := byService[service]
		parent := graph
		if len(members) > 1 {
			parent = graph.Subgraph(service, dot.ClusterOption{})
			parent.Attr("label", service)
			parent.Attr("style", "rounded")
			parent.Attr("bgcolor", "lightyellow")
		}
		for _, name := range members {
			parent.Node(name).Label(label(name, t.Resources[name].Type))
		}
	}
}

// Service extracts the service from a CloudFormation type.
// e.g., "AWS::S3::Bucket" -> "S3"
func Service(cfType string) string {
	parts := strings.Split(cfType, "::")
	if len(parts) == 3 {
		return parts[1]
	}
	return "Other"
}

func label(name, cfType string) string {
	return name + "\\n[" + cfType + "]"
}

type assetEntry struct {
	id, path, destination string
}

// assetEntries reads the asset list the builder stores in the template
// metadata.
func assetEntries(t *sitestack.Template) []assetEntry {
	list, _ := t.Metadata[template.AssetsMetadataKey].([]any)
	var out []assetEntry
	for _, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		id, _ := m["id"].(string)
		path, _ := m["path"].(string)
		dest, _ := m["destination"].(string)
		out = append(out, assetEntry{id: id, path: path, destination: dest})
	}
	return out
}

func sortedNames[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
