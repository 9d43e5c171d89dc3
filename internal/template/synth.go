package template

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/unleashedlab/sitestack"
	"github.com/unleashedlab/sitestack/internal/assets"
)

// AssemblyVersion is written into asset manifests.
const AssemblyVersion = "1"

// Assembly is the result of Synthesize.
type Assembly struct {
	Template     *sitestack.Template
	Manifest     sitestack.AssetManifest
	Bundles      map[string]*assets.Bundle
	TemplatePath string
	ManifestPath string
}

// Stage stages every asset of the stack and records the hashes, file counts
// and sizes on the stack.
func Stage(stack *sitestack.Stack) (map[string]*assets.Bundle, error) {
	bundles := make(map[string]*assets.Bundle)
	for _, a := range stack.Assets() {
		bundle, err := assets.Stage(a.Path)
		if err != nil {
			return nil, fmt.Errorf("asset %s: %w", a.ID, err)
		}
		a.Hash = bundle.Hash
		a.Files = len(bundle.Files)
		a.Size = bundle.Size
		stack.SetAsset(a)
		bundles[a.ID] = bundle
	}
	return bundles, nil
}

// Synthesize stages assets, builds the template and writes
// <stack>.template.json and <stack>.assets.json into outDir.
func Synthesize(stack *sitestack.Stack, outDir string) (*Assembly, error) {
	bundles, err := Stage(stack)
	if err != nil {
		return nil, err
	}

	tmpl, err := NewBuilder(stack).Build()
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating %s: %w", outDir, err)
	}

	asm := &Assembly{
		Template: tmpl,
		Manifest: sitestack.AssetManifest{
			Version: AssemblyVersion,
			Stack:   stack.Name,
			Assets:  stack.Assets(),
		},
		Bundles:      bundles,
		TemplatePath: filepath.Join(outDir, stack.Name+".template.json"),
		ManifestPath: ManifestPath(outDir, stack.Name),
	}

	data, err := ToJSON(tmpl)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(asm.TemplatePath, data, 0o644); err != nil {
		return nil, fmt.Errorf("writing template: %w", err)
	}

	data, err = json.MarshalIndent(asm.Manifest, "", "  ")
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(asm.ManifestPath, data, 0o644); err != nil {
		return nil, fmt.Errorf("writing asset manifest: %w", err)
	}

	return asm, nil
}

// ManifestPath is where Synthesize writes the asset manifest of stack.
func ManifestPath(outDir, stack string) string {
	return filepath.Join(outDir, stack+".assets.json")
}

// ReadManifest loads an asset manifest written by Synthesize.
func ReadManifest(path string) (*sitestack.AssetManifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m sitestack.AssetManifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &m, nil
}
