package main

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/unleashedlab/sitestack"
	"github.com/unleashedlab/sitestack/internal/deploy"
	"github.com/unleashedlab/sitestack/internal/template"
)

type deployOutput struct {
	Deploy  *sitestack.DeployResult    `json:"deploy"`
	Publish []*sitestack.PublishResult `json:"publish,omitempty"`
}

func newDeployCmd(a *app) *cobra.Command {
	var (
		opts         publishOptions
		skipPublish  bool
		timeout      time.Duration
		outputFormat string
	)

	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Deploy the stack and upload the site",
		Long: `Deploy synthesizes the stack into the output directory, creates or updates
it through a CloudFormation change set, then uploads the site content.

The first deployment waits for the certificate's DNS validation, which
requires the hosted zone to be authoritative for the domain.

Examples:
    sitestack deploy
    sitestack deploy --skip-publish
    sitestack deploy --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(outputFormat, "text", "json"); err != nil {
				return err
			}
			ctx := cmd.Context()

			w, err := a.website(ctx)
			if err != nil {
				return err
			}
			asm, err := template.Synthesize(w.Stack, a.path(a.cfg.OutDir))
			if err != nil {
				return err
			}
			a.log.Debug().Str("template", asm.TemplatePath).Msg("synthesized")

			d, err := a.deployer(ctx)
			if err != nil {
				return err
			}
			d.Timeout = timeout

			out := deployOutput{}
			out.Deploy, err = d.Deploy(ctx, deploy.DeployInput{
				StackName: a.cfg.StackName,
				Template:  asm.Template,
				Tags:      a.cfg.Tags,
			})
			if err != nil {
				return err
			}

			if !skipPublish {
				out.Publish, err = a.publishSite(ctx, w.Stack.Assets(), asm.Bundles, opts)
				if err != nil {
					return err
				}
			}

			switch outputFormat {
			case "json":
				return writeJSON(cmd.OutOrStdout(), out)
			case "text":
				printDeploy(cmd.OutOrStdout(), out.Deploy)
				return printPublish(cmd.OutOrStdout(), "text", out.Publish)
			default:
				return fmt.Errorf("unknown format: %s", outputFormat)
			}
		},
	}

	opts.register(cmd)
	cmd.Flags().BoolVar(&skipPublish, "skip-publish", false, "Deploy the stack without uploading the site")
	cmd.Flags().DurationVar(&timeout, "timeout", deploy.DefaultTimeout, "Maximum time to wait for the stack")
	cmd.Flags().StringVarP(&outputFormat, "format", "f", "text", "Output format: text or json")

	return cmd
}

func printDeploy(w io.Writer, r *sitestack.DeployResult) {
	if r.NoChanges {
		fmt.Fprintf(w, "%s: no changes\n", r.StackName)
	} else {
		fmt.Fprintf(w, "%s: %s\n", r.StackName, r.Status)
	}
	for _, k := range sortedKeys(r.Outputs) {
		fmt.Fprintf(w, "  %s = %s\n", k, r.Outputs[k])
	}
}

func newOutputsCmd(a *app) *cobra.Command {
	var outputFormat string

	cmd := &cobra.Command{
		Use:   "outputs",
		Short: "Print the deployed stack's outputs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := a.deployer(cmd.Context())
			if err != nil {
				return err
			}
			outputs, err := d.Outputs(cmd.Context(), a.cfg.StackName)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch outputFormat {
			case "json":
				return writeJSON(out, outputs)
			case "text":
				for _, k := range deploy.OutputKeys(outputs) {
					o := outputs[k]
					if o.Export != "" {
						fmt.Fprintf(out, "%s = %s (export %s)\n", k, o.Value, o.Export)
					} else {
						fmt.Fprintf(out, "%s = %s\n", k, o.Value)
					}
				}
				return nil
			default:
				return fmt.Errorf("unknown format: %s", outputFormat)
			}
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "text", "Output format: text or json")

	return cmd
}

func newDestroyCmd(a *app) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "destroy",
		Short: "Delete the stack",
		Long: `Destroy deletes the website stack. The bucket and its content are retained
by their deletion policy and must be removed by hand.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("refusing to delete stack %s without --yes", a.cfg.StackName)
			}
			d, err := a.deployer(cmd.Context())
			if err != nil {
				return err
			}
			if err := d.Destroy(cmd.Context(), a.cfg.StackName); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s; the site bucket was retained\n", a.cfg.StackName)
			return nil
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm the deletion")

	return cmd
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
