package main

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/unleashedlab/sitestack"
	"github.com/unleashedlab/sitestack/internal/optimizer"
)

// newOptimizeCmd creates the "optimize" subcommand for suggesting improvements.
func newOptimizeCmd(a *app) *cobra.Command {
	var (
		outputFormat string
		category     string
	)

	cmd := &cobra.Command{
		Use:   "optimize",
		Short: "Suggest improvements to the website stack",
		Long: `Optimize analyzes the synthesized template and suggests improvements
for security, cost, performance, and reliability.

Suggestions are advice, not failures; the command exits 0 either way.

Examples:
    sitestack optimize
    sitestack optimize --category cost
    sitestack optimize -f json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if category != "all" && !slices.Contains(optimizer.Categories, category) {
				return fmt.Errorf("invalid category: %s (valid: all, %s)", category, strings.Join(optimizer.Categories, ", "))
			}

			_, tmpl, err := a.build(cmd.Context())
			if err != nil {
				return err
			}

			optResult, err := optimizer.Optimize(tmpl, optimizer.Options{Category: category})
			if err != nil {
				return fmt.Errorf("optimize failed: %w", err)
			}

			result := sitestack.OptimizeResult{
				Success:       true,
				Suggestions:   optResult.Suggestions,
				ResourceCount: len(tmpl.Resources),
				Summary:       optResult.Summary,
			}
			return outputOptimizeResult(cmd.OutOrStdout(), result, outputFormat)
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "text", "Output format: text or json")
	cmd.Flags().StringVarP(&category, "category", "c", "all", "Category: all, security, cost, performance, or reliability")

	return cmd
}

func outputOptimizeResult(w io.Writer, result sitestack.OptimizeResult, format string) error {
	switch format {
	case "json":
		return writeJSON(w, result)

	case "text":
		if len(result.Suggestions) == 0 {
			fmt.Fprintf(w, "Analyzed %d resources. No optimization suggestions.\n", result.ResourceCount)
			return nil
		}

		fmt.Fprintf(w, "Analyzed %d resources. Found %d suggestions:\n\n", result.ResourceCount, result.Summary.Total)

		byCat := map[string][]sitestack.OptimizeSuggestion{}
		for _, s := range result.Suggestions {
			byCat[s.Category] = append(byCat[s.Category], s)
		}

		for _, cat := range optimizer.Categories {
			suggestions := byCat[cat]
			if len(suggestions) == 0 {
				continue
			}

			fmt.Fprintf(w, "=== %s (%d) ===\n", strings.ToUpper(cat[:1])+cat[1:], len(suggestions))
			for _, s := range suggestions {
				fmt.Fprintf(w, "\n[%s] %s (%s)\n", s.Severity, s.Title, s.Rule)
				fmt.Fprintf(w, "  Resource: %s\n", s.Resource)
				fmt.Fprintf(w, "  %s\n", s.Description)
				fmt.Fprintf(w, "  Suggestion: %s\n", s.Suggestion)
			}
			fmt.Fprintln(w)
		}

		fmt.Fprintf(w, "Summary: %d security, %d cost, %d performance, %d reliability\n",
			result.Summary.Security, result.Summary.Cost,
			result.Summary.Performance, result.Summary.Reliability)
		return nil

	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}
