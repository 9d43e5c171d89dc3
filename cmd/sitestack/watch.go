package main

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/unleashedlab/sitestack/internal/assets"
	"github.com/unleashedlab/sitestack/internal/config"
	"github.com/unleashedlab/sitestack/internal/publish"
	"github.com/unleashedlab/sitestack/internal/template"
)

type watchOptions struct {
	debounce time.Duration
	publish  bool
	outDir   string
}

// newWatchCmd creates the "watch" subcommand for re-synthesizing on changes.
func newWatchCmd(a *app) *cobra.Command {
	var opts watchOptions

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-synthesize when the site or config changes",
		Long: `Watch monitors the site directory and the config file and re-synthesizes
the cloud assembly on every change.

The watch command:
- Debounces rapid changes into one rebuild
- Reloads the config when it changes
- Publishes the site after each rebuild with --publish

Examples:
    sitestack watch
    sitestack watch --publish
    sitestack watch --debounce 1s`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, a, opts)
		},
	}

	cmd.Flags().DurationVar(&opts.debounce, "debounce", 500*time.Millisecond, "Debounce duration for rapid changes")
	cmd.Flags().BoolVar(&opts.publish, "publish", false, "Publish the site after each rebuild")
	cmd.Flags().StringVar(&opts.outDir, "out", "", "Cloud assembly directory (default from config)")

	return cmd
}

func runWatch(cmd *cobra.Command, a *app, opts watchOptions) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() {
		_ = watcher.Close()
	}()

	siteDir := a.path(a.cfg.SitePath)
	if err := addDirRecursive(watcher, siteDir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", siteDir, err)
	}

	configFile := a.cfg.Source
	if configFile == "" {
		configFile = config.DefaultFile
	}
	configFile, _ = filepath.Abs(configFile)
	if err := watcher.Add(filepath.Dir(configFile)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", configFile, err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Watching: %s, %s\n", siteDir, configFile)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initial build
	rebuild(ctx, out, a, opts)

	var debounceTimer *time.Timer
	rebuildChan := make(chan struct{}, 1)
	configChanged := false

	fmt.Fprintln(out, "\nWatching for changes... (Ctrl+C to stop)")

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			if event.Name == configFile {
				configChanged = true
			} else if !relevant(event, siteDir) {
				continue
			}

			// New directories under the site are watched too.
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = addDirRecursive(watcher, event.Name)
				}
			}

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(opts.debounce, func() {
				select {
				case rebuildChan <- struct{}{}:
				default:
				}
			})

		case <-rebuildChan:
			fmt.Fprintf(out, "\n[%s] Change detected, rebuilding...\n", time.Now().Format(time.TimeOnly))
			if configChanged {
				configChanged = false
				if err := a.setup(); err != nil {
					fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
					continue
				}
			}
			rebuild(ctx, out, a, opts)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			a.log.Error().Err(err).Msg("watch error")

		case <-ctx.Done():
			fmt.Fprintln(out, "\nStopping watch...")
			return nil
		}
	}
}

// relevant reports whether event is a content change below siteDir.
func relevant(event fsnotify.Event, siteDir string) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}

	rel, err := filepath.Rel(siteDir, event.Name)
	if err != nil || strings.HasPrefix(rel, "..") {
		return false
	}
	for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
		if assets.Ignored(part) || strings.HasSuffix(part, "~") {
			return false
		}
	}
	return true
}

// addDirRecursive adds a directory and all subdirectories to the watcher.
func addDirRecursive(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && assets.Ignored(d.Name()) {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
}

// rebuild re-synthesizes the assembly and optionally publishes.
func rebuild(ctx context.Context, out io.Writer, a *app, opts watchOptions) {
	outDir := opts.outDir
	if outDir == "" {
		outDir = a.path(a.cfg.OutDir)
	}

	w, err := a.website(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Build error: %v\n", err)
		return
	}
	asm, err := template.Synthesize(w.Stack, outDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Build error: %v\n", err)
		return
	}
	fmt.Fprintf(out, "Synthesized %s\n", asm.TemplatePath)

	if !opts.publish {
		return
	}
	results, err := a.publishSite(ctx, w.Stack.Assets(), asm.Bundles, publishOptions{concurrency: publish.DefaultConcurrency})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Publish error: %v\n", err)
		return
	}
	_ = printPublish(out, "text", results)
}
