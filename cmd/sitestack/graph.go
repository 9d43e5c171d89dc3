package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/unleashedlab/sitestack/internal/graph"
)

func newGraphCmd(a *app) *cobra.Command {
	var (
		outputFormat   string
		includeOutputs bool
		includeAssets  bool
		cluster        bool
	)

	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Generate a graph of resource dependencies",
		Long: `Generate a DOT or Mermaid graph showing resource dependencies.

The output can be rendered with Graphviz:
    sitestack graph | dot -Tpng -o deps.png

Or used in GitHub markdown (Mermaid format):
    sitestack graph -f mermaid

Examples:
    sitestack graph
    sitestack graph -c              # cluster by service
    sitestack graph --outputs       # include stack outputs
    sitestack graph -f mermaid      # mermaid format`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var format graph.Format
			switch outputFormat {
			case "dot":
				format = graph.FormatDOT
			case "mermaid":
				format = graph.FormatMermaid
			default:
				return fmt.Errorf("unknown format: %s (use 'dot' or 'mermaid')", outputFormat)
			}

			_, tmpl, err := a.build(cmd.Context())
			if err != nil {
				return err
			}

			gen := &graph.Generator{
				Format:           format,
				IncludeOutputs:   includeOutputs,
				IncludeAssets:    includeAssets,
				ClusterByService: cluster,
			}
			return gen.Generate(tmpl, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "dot", "Output format: dot or mermaid")
	cmd.Flags().BoolVar(&includeOutputs, "outputs", false, "Include stack outputs in the graph")
	cmd.Flags().BoolVar(&includeAssets, "assets", false, "Include content assets in the graph")
	cmd.Flags().BoolVarP(&cluster, "cluster", "c", false, "Cluster resources by AWS service")

	return cmd
}
