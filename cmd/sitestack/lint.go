package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/unleashedlab/sitestack/internal/lint"
)

func newLintCmd(a *app) *cobra.Command {
	var (
		outputFormat string
		rules        []string
		listRules    bool
	)

	cmd := &cobra.Command{
		Use:   "lint",
		Short: "Check the template against security rules",
		Long: `Lint evaluates security and best-practice rules over the synthesized
template: encryption, public access, TLS, origin access and certificate
coverage.

Examples:
    sitestack lint
    sitestack lint --rules SS001,SS004
    sitestack lint --list-rules`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if listRules {
				for _, r := range lint.AllRules() {
					fmt.Fprintf(out, "%s  %s\n", r.ID(), r.Description())
				}
				return nil
			}

			_, tmpl, err := a.build(cmd.Context())
			if err != nil {
				return err
			}

			result, err := lint.Lint(tmpl, lint.Options{EnabledRules: rules})
			if err != nil {
				return err
			}

			switch outputFormat {
			case "json":
				if err := writeJSON(out, lint.ToResult(result)); err != nil {
					return err
				}
			case "text":
				for _, issue := range result.Issues {
					fmt.Fprintln(out, issue.String())
				}
				if len(result.Issues) == 0 {
					fmt.Fprintln(out, "No issues found")
				}
			default:
				return fmt.Errorf("unknown format: %s", outputFormat)
			}

			if !result.Success {
				return fmt.Errorf("lint found errors")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "text", "Output format: text or json")
	cmd.Flags().StringSliceVar(&rules, "rules", nil, "Rule IDs to run (default: all)")
	cmd.Flags().BoolVar(&listRules, "list-rules", false, "List the available rules")

	return cmd
}
