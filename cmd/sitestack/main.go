// Command sitestack synthesizes, deploys and publishes a static website
// served from S3 through CloudFront.
//
// Usage:
//
//	sitestack synth                Print the CloudFormation template
//	sitestack deploy               Deploy the stack and upload the site
//	sitestack publish              Upload the site to the deployed bucket
//	sitestack diff                 Compare with the deployed stack
//	sitestack version              Show version
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd(&app{}).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "sitestack",
		Short: "Deploy a static website to S3 and CloudFront",
		Long: `sitestack provisions a static website: a private S3 bucket, a DNS
validated certificate for the domain and its www name, and a CloudFront
distribution that reads the bucket through an origin access identity.

Settings come from sitestack.yaml:

    domainName: unleashedlab.io
    sitePath: site

Then deploy the stack and upload the site:

    sitestack deploy`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
	}
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "Config file (default: sitestack.yaml if present)")
	flags.StringVar(&a.logLevel, "log-level", "", "Log level: trace, debug, info, warn, error (default: $SITESTACK_LOG or info)")
	flags.BoolVar(&a.jsonLogs, "json-logs", false, "Write logs as JSON")
	flags.StringVar(&a.profile, "profile", "", "AWS shared config profile")
	flags.StringVar(&a.region, "region", "", "AWS region")
	flags.BoolVar(&a.noLookups, "no-lookups", false, "Use only cached context values, never call AWS for lookups")

	rootCmd.AddCommand(
		newSynthCmd(a),
		newListCmd(a),
		newGraphCmd(a),
		newValidateCmd(a),
		newLintCmd(a),
		newOptimizeCmd(a),
		newDiffCmd(a),
		newDeployCmd(a),
		newPublishCmd(a),
		newOutputsCmd(a),
		newDestroyCmd(a),
		newContextCmd(a),
		newConfigCmd(a),
		newWatchCmd(a),
		newVersionCmd(),
	)

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		// Overrides the root hook so version works without a config.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "sitestack %s\n", getVersion())
		},
	}
}
