package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/unleashedlab/sitestack"
	"github.com/unleashedlab/sitestack/internal/assets"
	"github.com/unleashedlab/sitestack/internal/deploy"
	"github.com/unleashedlab/sitestack/internal/publish"
	"github.com/unleashedlab/sitestack/internal/template"
)

// errAssetChanged is returned when a site no longer matches the synthesized
// manifest.
var errAssetChanged = errors.New("site content changed since synth")

type publishOptions struct {
	dryRun       bool
	noInvalidate bool
	wait         bool
	concurrency  int
}

func (o *publishOptions) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&o.noInvalidate, "no-invalidate", false, "Skip the CloudFront invalidation")
	cmd.Flags().BoolVar(&o.wait, "wait", false, "Wait for the invalidation to complete")
	cmd.Flags().IntVar(&o.concurrency, "concurrency", publish.DefaultConcurrency, "Parallel uploads")
}

func newPublishCmd(a *app) *cobra.Command {
	var (
		opts         publishOptions
		outputFormat string
		fromAssembly bool
	)

	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Upload the site to the deployed bucket",
		Long: `Publish uploads the site directory to the bucket of the deployed stack.
Unchanged files are skipped, files no longer in the site are removed when
prune is enabled, and the distribution cache is invalidated.

With --from-assembly the assets are taken from the manifest written by
"sitestack synth --out", and publishing fails if the site changed since.

Examples:
    sitestack publish
    sitestack publish --dry-run
    sitestack publish --from-assembly
    sitestack publish --wait`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(outputFormat, "text", "json"); err != nil {
				return err
			}
			ctx := cmd.Context()

			var (
				list    []sitestack.Asset
				bundles map[string]*assets.Bundle
				err     error
			)
			if fromAssembly {
				list, bundles, err = a.assemblyAssets()
			} else {
				list, bundles, err = a.siteAssets(ctx)
			}
			if err != nil {
				return err
			}

			results, err := a.publishSite(ctx, list, bundles, opts)
			if err != nil {
				return err
			}
			return printPublish(cmd.OutOrStdout(), outputFormat, results)
		},
	}

	opts.register(cmd)
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Show what would change without uploading")
	cmd.Flags().BoolVar(&fromAssembly, "from-assembly", false, "Publish the assets recorded by the last synth")
	cmd.Flags().StringVarP(&outputFormat, "format", "f", "text", "Output format: text or json")

	return cmd
}

// siteAssets builds the stack and stages its assets.
func (a *app) siteAssets(ctx context.Context) ([]sitestack.Asset, map[string]*assets.Bundle, error) {
	w, err := a.website(ctx)
	if err != nil {
		return nil, nil, err
	}
	bundles, err := template.Stage(w.Stack)
	if err != nil {
		return nil, nil, err
	}
	return w.Stack.Assets(), bundles, nil
}

// assemblyAssets reads the asset manifest from the output directory and
// restages each asset, checking it still has the recorded hash.
func (a *app) assemblyAssets() ([]sitestack.Asset, map[string]*assets.Bundle, error) {
	path := template.ManifestPath(a.path(a.cfg.OutDir), a.cfg.StackName)
	manifest, err := template.ReadManifest(path)
	if err != nil {
		return nil, nil, fmt.Errorf("reading asset manifest: %w; run sitestack synth --out first", err)
	}

	bundles := make(map[string]*assets.Bundle, len(manifest.Assets))
	for _, asset := range manifest.Assets {
		bundle, err := assets.Stage(asset.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("asset %s: %w", asset.ID, err)
		}
		if asset.Hash != "" && bundle.Hash != asset.Hash {
			return nil, nil, fmt.Errorf("asset %s: %w; run sitestack synth again", asset.ID, errAssetChanged)
		}
		bundles[asset.ID] = bundle
	}
	return manifest.Assets, bundles, nil
}

// publishSite uploads each asset to its deployed bucket.
func (a *app) publishSite(ctx context.Context, list []sitestack.Asset, bundles map[string]*assets.Bundle, opts publishOptions) ([]*sitestack.PublishResult, error) {
	svc, err := a.aws(ctx)
	if err != nil {
		return nil, err
	}
	d, err := a.deployer(ctx)
	if err != nil {
		return nil, err
	}

	p := &publish.Publisher{
		S3:          svc.S3,
		CloudFront:  svc.CloudFront,
		Log:         a.log,
		Concurrency: opts.concurrency,
	}

	var results []*sitestack.PublishResult
	for _, asset := range list {
		bundle, ok := bundles[asset.ID]
		if !ok {
			return nil, fmt.Errorf("asset %s was not staged", asset.ID)
		}

		bucket, err := d.PhysicalID(ctx, a.cfg.StackName, asset.DestinationBucket)
		if err != nil {
			if errors.Is(err, deploy.ErrStackNotFound) {
				return nil, fmt.Errorf("%w; run sitestack deploy first", err)
			}
			return nil, err
		}

		target := publish.Target{
			Bucket:       bucket,
			Prefix:       asset.DestinationPrefix,
			Prune:        asset.Prune,
			Wait:         opts.wait,
			CacheControl: a.cfg.CacheControl,
			DryRun:       opts.dryRun,
		}
		if asset.InvalidateDistribution != "" && !opts.noInvalidate {
			target.DistributionID, err = d.PhysicalID(ctx, a.cfg.StackName, asset.InvalidateDistribution)
			if err != nil {
				return nil, err
			}
		}

		result, err := p.Publish(ctx, bundle, target)
		if err != nil {
			return nil, fmt.Errorf("publishing %s: %w", asset.ID, err)
		}
		results = append(results, result)
	}
	return results, nil
}

func printPublish(w io.Writer, format string, results []*sitestack.PublishResult) error {
	switch format {
	case "json":
		return writeJSON(w, results)
	case "text":
		for _, r := range results {
			verb := "Published"
			if r.DryRun {
				verb = "Would publish"
			}
			fmt.Fprintf(w, "%s to s3://%s: %d uploaded (%s), %d unchanged, %d deleted\n",
				verb, r.Bucket, r.Uploaded, humanize.Bytes(uint64(r.Bytes)), r.Skipped, r.Deleted)
			if r.Invalidation != "" {
				fmt.Fprintf(w, "Invalidation: %s\n", r.Invalidation)
			}
		}
		return nil
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}
