package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"strings"

	"github.com/rs/zerolog"

	"github.com/unleashedlab/sitestack"
	"github.com/unleashedlab/sitestack/internal/awsclient"
	"github.com/unleashedlab/sitestack/internal/config"
	"github.com/unleashedlab/sitestack/internal/deploy"
	"github.com/unleashedlab/sitestack/internal/logging"
	"github.com/unleashedlab/sitestack/internal/lookup"
	"github.com/unleashedlab/sitestack/internal/publish"
	"github.com/unleashedlab/sitestack/internal/template"
	"github.com/unleashedlab/sitestack/website"
)

// services are the AWS APIs the commands call.
type services struct {
	CloudFormation deploy.CloudFormationAPI
	S3             publish.S3API
	CloudFront     publish.CloudFrontAPI
	Route53        lookup.Route53API
}

// app carries global flags and the state built from them.
type app struct {
	configPath string
	logLevel   string
	jsonLogs   bool
	profile    string
	region     string
	noLookups  bool

	cfg *config.Config
	log zerolog.Logger
	svc *services
}

// setup loads the config, applies flag overrides and builds the logger.
func (a *app) setup() error {
	log, err := logging.New(logging.Options{Level: a.logLevel, JSON: a.jsonLogs})
	if err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	a.log = log

	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.profile != "" {
		cfg.Profile = a.profile
	}
	if a.region != "" {
		cfg.Region = a.region
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	if cfg.Source != "" {
		a.log.Debug().Str("file", cfg.Source).Msg("config loaded")
	}
	return nil
}

// aws returns the AWS services, loading the SDK config on first use.
func (a *app) aws(ctx context.Context) (*services, error) {
	if a.svc != nil {
		return a.svc, nil
	}

	cfg, err := awsclient.LoadConfig(ctx,
		awsclient.WithProfile(a.cfg.Profile),
		awsclient.WithRegion(a.cfg.Region),
	)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	c := awsclient.New(cfg)
	a.svc = &services{
		CloudFormation: c.CloudFormation,
		S3:             c.S3,
		CloudFront:     c.CloudFront,
		Route53:        c.Route53,
	}
	return a.svc, nil
}

// path resolves p relative to the config file's directory.
func (a *app) path(p string) string {
	if p == "" || filepath.IsAbs(p) || a.cfg.Source == "" {
		return p
	}
	return filepath.Join(filepath.Dir(a.cfg.Source), p)
}

// hostedZone returns the pinned zone or looks it up through the context
// cache.
func (a *app) hostedZone(ctx context.Context) (lookup.HostedZone, error) {
	if a.cfg.HostedZoneID != "" {
		return lookup.HostedZone{ID: a.cfg.HostedZoneID, Name: a.cfg.DomainName + "."}, nil
	}

	opts := lookup.Options{
		ContextFile: a.path(a.cfg.ContextFile),
		PrivateZone: a.cfg.PrivateZone,
		Disabled:    a.noLookups,
		Log:         a.log,
	}
	if !a.noLookups {
		svc, err := a.aws(ctx)
		if err != nil {
			return lookup.HostedZone{}, err
		}
		opts.Client = svc.Route53
	}
	return lookup.Lookup(ctx, a.cfg.DomainName, opts)
}

// props maps the config onto website props.
func (a *app) props(zone lookup.HostedZone) website.Props {
	props := website.DefaultProps(a.cfg.DomainName)
	props.AlternativeNames = a.cfg.AlternativeNames
	props.HostedZone = zone
	props.SitePath = a.path(a.cfg.SitePath)
	props.IndexDocument = a.cfg.IndexDocument
	props.ErrorDocument = a.cfg.ErrorDocument
	props.PriceClass = a.cfg.PriceClass
	props.CreateDNSRecords = a.cfg.CreateDNSRecords
	props.PruneContent = a.cfg.Prune
	props.Tags = a.cfg.Tags
	props.Description = a.cfg.Description
	return props
}

// website declares the stack.
func (a *app) website(ctx context.Context) (*website.Website, error) {
	zone, err := a.hostedZone(ctx)
	if err != nil {
		return nil, err
	}
	return website.NewWebsiteStack(a.cfg.StackName, a.props(zone))
}

// build declares the stack and builds its template.
func (a *app) build(ctx context.Context) (*website.Website, *sitestack.Template, error) {
	w, err := a.website(ctx)
	if err != nil {
		return nil, nil, err
	}
	tmpl, err := template.NewBuilder(w.Stack).Build()
	if err != nil {
		return nil, nil, err
	}
	return w, tmpl, nil
}

// deployer returns a CloudFormation deployer.
func (a *app) deployer(ctx context.Context) (*deploy.Deployer, error) {
	svc, err := a.aws(ctx)
	if err != nil {
		return nil, err
	}
	return &deploy.Deployer{CFN: svc.CloudFormation, Log: a.log}, nil
}

// checkFormat rejects an unsupported --format before any work is done.
func checkFormat(format string, valid ...string) error {
	if slices.Contains(valid, format) {
		return nil
	}
	return fmt.Errorf("unknown format: %s (valid: %s)", format, strings.Join(valid, ", "))
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
