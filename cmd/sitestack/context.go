package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/unleashedlab/sitestack/internal/lookup"
)

// newContextCmd creates the "context" subcommand for the lookup cache.
func newContextCmd(a *app) *cobra.Command {
	var (
		reset  bool
		prefix string
	)

	cmd := &cobra.Command{
		Use:   "context",
		Short: "Show or clear cached lookup values",
		Long: `Context prints the values cached in the context file, such as the hosted
zone found for the domain. Use --reset to clear them so the next synth looks
them up again.

Examples:
    sitestack context
    sitestack context --reset
    sitestack context --reset --prefix hosted-zone:`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			file := a.path(a.cfg.ContextFile)
			out := cmd.OutOrStdout()

			if reset {
				n, err := lookup.Reset(file, prefix)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Removed %d cached value(s) from %s\n", n, file)
				return nil
			}

			cache, err := lookup.LoadContext(file)
			if err != nil {
				return err
			}
			if len(cache) == 0 {
				fmt.Fprintf(out, "No cached values in %s\n", file)
				return nil
			}
			keys := make([]string, 0, len(cache))
			for k := range cache {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Fprintf(out, "%s = %s\n", k, cache[k])
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&reset, "reset", false, "Remove cached values")
	cmd.Flags().StringVar(&prefix, "prefix", "", "Only reset keys starting with this prefix")

	return cmd
}

// newConfigCmd creates the "config" subcommand, which prints the effective
// configuration after env and flag overrides.
func newConfigCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := a.cfg.Marshal()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}
