package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/unleashedlab/sitestack/internal/validation"
)

// errValidation makes the command exit non-zero after printing a result.
var errValidation = errors.New("validation failed")

func newValidateCmd(a *app) *cobra.Command {
	var (
		outputFormat string
		ignoreRules  []string
		strict       bool
	)

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the synthesized template",
		Long: `Validate builds the stack, checks that every reference resolves, checks
resource properties against their schemas and runs cfn-lint over the
resulting template.

Examples:
    sitestack validate
    sitestack validate --ignore W3005
    sitestack validate --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := a.website(cmd.Context())
			if err != nil {
				return err
			}

			result, err := validation.Validate(w.Stack, validation.Options{IgnoreRules: ignoreRules, StrictSchema: strict})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch outputFormat {
			case "json":
				if err := writeJSON(out, result); err != nil {
					return err
				}
			case "text":
				for _, e := range result.Errors {
					fmt.Fprintf(out, "error: %s\n", e)
				}
				for _, w := range result.Warnings {
					fmt.Fprintf(out, "warning: %s\n", w)
				}
				if result.Success {
					fmt.Fprintf(out, "Validation passed: %d resources\n", result.Resources)
				}
			default:
				return fmt.Errorf("unknown format: %s", outputFormat)
			}

			if !result.Success {
				return fmt.Errorf("%w: %d errors", errValidation, len(result.Errors))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "text", "Output format: text or json")
	cmd.Flags().StringSliceVar(&ignoreRules, "ignore", nil, "cfn-lint rule IDs to ignore")
	cmd.Flags().BoolVar(&strict, "strict", false, "Warn about properties missing from the offline schemas")

	return cmd
}
