package main

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/unleashedlab/sitestack/internal/template"
)

func newSynthCmd(a *app) *cobra.Command {
	var (
		outputFormat string
		outputFile   string
		outDir       string
	)

	cmd := &cobra.Command{
		Use:   "synth",
		Short: "Generate the CloudFormation template",
		Long: `Synth declares the website stack and prints its CloudFormation template.

With --out the cloud assembly is written instead: the template, and an asset
manifest describing the staged site content.

Examples:
    sitestack synth
    sitestack synth --format yaml
    sitestack synth -o template.json
    sitestack synth --out cdk.out`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("out") {
				return runSynthAssembly(cmd, a, outDir)
			}
			return runSynth(cmd, a, outputFormat, outputFile)
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "json", "Output format: json or yaml")
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")
	cmd.Flags().StringVar(&outDir, "out", "", "Write the cloud assembly to this directory (default from config)")

	return cmd
}

func runSynth(cmd *cobra.Command, a *app, format, outputFile string) error {
	_, tmpl, err := a.build(cmd.Context())
	if err != nil {
		return err
	}

	var data []byte
	switch format {
	case "json":
		data, err = template.ToJSON(tmpl)
	case "yaml":
		data, err = template.ToYAML(tmpl)
	default:
		return fmt.Errorf("unknown format: %s (use 'json' or 'yaml')", format)
	}
	if err != nil {
		return err
	}

	if outputFile == "" {
		_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return err
	}
	if err := os.WriteFile(outputFile, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", outputFile, err)
	}
	a.log.Info().Str("file", outputFile).Int("resources", len(tmpl.Resources)).Msg("template written")
	return nil
}

func runSynthAssembly(cmd *cobra.Command, a *app, outDir string) error {
	if outDir == "" {
		outDir = a.path(a.cfg.OutDir)
	}

	w, err := a.website(cmd.Context())
	if err != nil {
		return err
	}
	asm, err := template.Synthesize(w.Stack, outDir)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Template: %s (%d resources)\n", asm.TemplatePath, len(asm.Template.Resources))
	fmt.Fprintf(out, "Assets:   %s\n", asm.ManifestPath)
	for _, asset := range asm.Manifest.Assets {
		fmt.Fprintf(out, "  %s: %s, %d files, %s, hash %s\n",
			asset.ID, asset.Path, asset.Files, humanize.Bytes(uint64(asset.Size)), shortHash(asset.Hash))
	}
	return nil
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
