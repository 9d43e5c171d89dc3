// Package config loads sitestack.yaml and applies environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultFile is read when no --config path is given.
const DefaultFile = "sitestack.yaml"

// Defaults.
const (
	DefaultStackName   = "WebsiteStack"
	DefaultDomainName  = "unleashedlab.io"
	DefaultSitePath    = "site"
	DefaultIndex       = "index.html"
	DefaultRegion      = "us-east-1"
	DefaultOutDir      = "cdk.out"
	DefaultContextFile = "sitestack.context.json"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Config is the sitestack.yaml document.
type Config struct {
	StackName        string            `yaml:"stackName"`
	Description      string            `yaml:"description,omitempty"`
	DomainName       string            `yaml:"domainName"`
	AlternativeNames []string          `yaml:"alternativeNames,omitempty"`
	HostedZoneID     string            `yaml:"hostedZoneId,omitempty"`
	PrivateZone      bool              `yaml:"privateZone,omitempty"`
	SitePath         string            `yaml:"sitePath"`
	IndexDocument    string            `yaml:"indexDocument"`
	ErrorDocument    string            `yaml:"errorDocument,omitempty"`
	PriceClass       string            `yaml:"priceClass,omitempty"`
	CreateDNSRecords bool              `yaml:"createDnsRecords,omitempty"`
	Prune            bool              `yaml:"prune"`
	Region           string            `yaml:"region"`
	Profile          string            `yaml:"profile,omitempty"`
	Tags             map[string]string `yaml:"tags,omitempty"`
	OutDir           string            `yaml:"outDir"`
	ContextFile      string            `yaml:"contextFile"`
	CacheControl     string            `yaml:"cacheControl,omitempty"`

	// Source is the file the config was read from, empty when defaults only
	Source string `yaml:"-"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		StackName:     DefaultStackName,
		DomainName:    DefaultDomainName,
		SitePath:      DefaultSitePath,
		IndexDocument: DefaultIndex,
		Prune:         true,
		Region:        DefaultRegion,
		OutDir:        DefaultOutDir,
		ContextFile:   DefaultContextFile,
	}
}

// Load reads path over the defaults and applies environment overrides.
// An empty path means DefaultFile, which may be absent. An explicit path
// must exist.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
		cfg.Source = path
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg.ApplyEnv(os.LookupEnv)
	return cfg, nil
}

// envOverrides maps environment variables onto fields.
var envOverrides = map[string]func(*Config, string){
	"SITESTACK_DOMAIN_NAME":    func(c *Config, v string) { c.DomainName = v },
	"SITESTACK_STACK_NAME":     func(c *Config, v string) { c.StackName = v },
	"SITESTACK_REGION":         func(c *Config, v string) { c.Region = v },
	"SITESTACK_PROFILE":        func(c *Config, v string) { c.Profile = v },
	"SITESTACK_SITE_PATH":      func(c *Config, v string) { c.SitePath = v },
	"SITESTACK_HOSTED_ZONE_ID": func(c *Config, v string) { c.HostedZoneID = v },
}

// ApplyEnv applies the SITESTACK_* overrides found by lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	for name, set := range envOverrides {
		if v, ok := lookup(name); ok && v != "" {
			set(c, v)
		}
	}
}

var (
	dnsName   = regexp.MustCompile(`^(?i)([a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?\.)+[a-z][a-z0-9-]{0,61}[a-z0-9]$`)
	stackName = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9-]{0,127}$`)

	priceClasses = []string{"PriceClass_100", "PriceClass_200", "PriceClass_All"}
)

// IsDNSName reports whether name is a syntactically valid domain name.
func IsDNSName(name string) bool {
	return len(name) <= 253 && dnsName.MatchString(name)
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSuffix(name, "."))
}

// Validate checks the configuration. All problems are reported together.
func (c *Config) Validate() error {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
	}

	if !stackName.MatchString(c.StackName) {
		fail("stackName %q must start with a letter and contain only letters, digits and hyphens", c.StackName)
	}

	switch {
	case c.DomainName == "":
		fail("domainName is required")
	case !IsDNSName(c.DomainName):
		fail("domainName %q is not a valid DNS name", c.DomainName)
	}
	seen := map[string]bool{normalizeName(c.DomainName): true}
	for _, n := range c.AlternativeNames {
		if !IsDNSName(strings.TrimPrefix(n, "*.")) {
			fail("alternative name %q is not a valid DNS name", n)
			continue
		}
		if seen[normalizeName(n)] {
			fail("alternative name %q is listed twice or repeats domainName", n)
		}
		seen[normalizeName(n)] = true
	}

	if c.Region != DefaultRegion {
		fail("region %q: CloudFront certificates must be issued in %s", c.Region, DefaultRegion)
	}

	if c.PriceClass != "" && !slices.Contains(priceClasses, c.PriceClass) {
		fail("priceClass %q must be one of %s", c.PriceClass, strings.Join(priceClasses, ", "))
	}

	if strings.HasPrefix(c.ErrorDocument, "/") {
		fail("errorDocument %q must not start with /", c.ErrorDocument)
	}
	if strings.HasPrefix(c.IndexDocument, "/") {
		fail("indexDocument %q must not start with /", c.IndexDocument)
	}

	if c.SitePath == "" {
		fail("sitePath is required")
	}

	return errors.Join(errs...)
}

// Marshal renders the config as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
