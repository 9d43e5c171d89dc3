package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/unleashedlab/sitestack"
	"github.com/unleashedlab/sitestack/internal/template"
)

func newListCmd(a *app) *cobra.Command {
	var (
		outputFormat string
		order        string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the stack's resources",
		Long: `List displays every resource of the website stack with its type and the
place it is declared. With --order deploy, resources are listed in the order
CloudFormation creates them.

Examples:
    sitestack list
    sitestack list --order deploy
    sitestack list --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd, a, outputFormat, order)
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "text", "Output format: text or json")
	cmd.Flags().StringVar(&order, "order", "name", "Sort order: name or deploy")

	return cmd
}

func runList(cmd *cobra.Command, a *app, format, order string) error {
	if err := checkFormat(format, "text", "json"); err != nil {
		return err
	}
	if order != "name" && order != "deploy" {
		return fmt.Errorf("unknown order: %s (valid: name, deploy)", order)
	}

	w, err := a.website(cmd.Context())
	if err != nil {
		return err
	}
	builder := template.NewBuilder(w.Stack)
	if _, err := builder.Build(); err != nil {
		return err
	}
	rank := make(map[string]int)
	for i, id := range builder.Order() {
		rank[id] = i
	}

	wd, _ := os.Getwd()
	result := sitestack.ListResult{
		Resources: make([]sitestack.ListResource, 0, len(w.Stack.Entries())),
	}
	for _, e := range w.Stack.Entries() {
		file := e.File
		if rel, err := filepath.Rel(wd, file); err == nil && wd != "" {
			file = rel
		}
		result.Resources = append(result.Resources, sitestack.ListResource{
			Name: e.ID,
			Type: e.Resource.ResourceType(),
			File: file,
			Line: e.Line,
		})
	}

	sort.Slice(result.Resources, func(i, j int) bool {
		ri, rj := result.Resources[i], result.Resources[j]
		if order == "deploy" && rank[ri.Name] != rank[rj.Name] {
			return rank[ri.Name] < rank[rj.Name]
		}
		return ri.Name < rj.Name
	})

	out := cmd.OutOrStdout()
	switch format {
	case "json":
		return writeJSON(out, result)

	case "text":
		fmt.Fprintf(out, "Resources in %s (%d):\n\n", w.Stack.Name, len(result.Resources))
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		for _, res := range result.Resources {
			fmt.Fprintf(tw, "  %s\t%s\t%s:%d\n", res.Name, res.Type, res.File, res.Line)
		}
		return tw.Flush()

	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}
