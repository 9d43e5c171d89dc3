package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/unleashedlab/sitestack"
	"github.com/unleashedlab/sitestack/internal/deploy"
	"github.com/unleashedlab/sitestack/internal/differ"
)

func newDiffCmd(a *app) *cobra.Command {
	var (
		against      string
		outputFormat string
		detail       string
		ignoreOrder  bool
	)

	cmd := &cobra.Command{
		Use:   "diff",
		Short: "Compare the template with the deployed stack",
		Long: `Diff compares the synthesized template with the template of the deployed
stack, or with a template file given by --against.

Examples:
    sitestack diff
    sitestack diff --against cdk.out/WebsiteStack.template.json
    sitestack diff --detail ascii
    sitestack diff --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			_, local, err := a.build(ctx)
			if err != nil {
				return err
			}

			var base *sitestack.Template
			if against != "" {
				base, err = differ.LoadTemplate(against)
			} else {
				base, err = a.deployedTemplate(cmd)
			}
			if err != nil {
				return err
			}

			opts := differ.Options{IgnoreOrder: ignoreOrder}
			out := cmd.OutOrStdout()

			if detail != "" {
				text, err := differ.Detail(base, local, differ.DetailFormat(detail), opts)
				if err != nil {
					return err
				}
				if text == "" {
					fmt.Fprintln(out, "No differences")
					return nil
				}
				_, err = fmt.Fprintln(out, text)
				return err
			}

			result, err := differ.Compare(base, local, opts)
			if err != nil {
				return err
			}

			switch outputFormat {
			case "json":
				return writeJSON(out, result)
			case "text":
				printDiff(out, result)
				return nil
			default:
				return fmt.Errorf("unknown format: %s", outputFormat)
			}
		},
	}

	cmd.Flags().StringVar(&against, "against", "", "Template file to compare with (default: the deployed stack)")
	cmd.Flags().StringVarP(&outputFormat, "format", "f", "text", "Output format: text or json")
	cmd.Flags().StringVar(&detail, "detail", "", "Print a property delta: delta or ascii")
	cmd.Flags().BoolVar(&ignoreOrder, "ignore-order", false, "Ignore array element order")

	return cmd
}

// deployedTemplate returns the deployed template, or an empty one when the
// stack does not exist yet.
func (a *app) deployedTemplate(cmd *cobra.Command) (*sitestack.Template, error) {
	d, err := a.deployer(cmd.Context())
	if err != nil {
		return nil, err
	}
	tmpl, err := d.DeployedTemplate(cmd.Context(), a.cfg.StackName)
	if errors.Is(err, deploy.ErrStackNotFound) {
		a.log.Info().Str("stack", a.cfg.StackName).Msg("stack not deployed, comparing with an empty template")
		return &sitestack.Template{}, nil
	}
	return tmpl, err
}

func printDiff(w io.Writer, result *differ.Result) {
	if result.Empty() {
		fmt.Fprintln(w, "No differences")
		return
	}

	for _, e := range result.Diff.Added {
		fmt.Fprintf(w, "+ %s (%s)\n", e.Resource, e.Type)
	}
	for _, e := range result.Diff.Removed {
		fmt.Fprintf(w, "- %s (%s)\n", e.Resource, e.Type)
	}
	for _, e := range result.Diff.Modified {
		fmt.Fprintf(w, "~ %s (%s)\n", e.Resource, e.Type)
		for _, c := range e.Changes {
			fmt.Fprintf(w, "    %s\n", c)
		}
	}
	for _, o := range result.Diff.Outputs {
		fmt.Fprintf(w, "  output %s\n", o)
	}

	s := result.Summary
	fmt.Fprintf(w, "\n%d added, %d removed, %d modified\n", s.Added, s.Removed, s.Modified)
}
