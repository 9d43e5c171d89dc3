// Package lookup resolves context values that a stack needs from the target
// account before synthesis, such as the hosted zone of the site's domain.
//
// Results are cached in a JSON context file next to the project so repeated
// synths are reproducible and work offline.
package lookup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/route53"
	"github.com/rs/zerolog"
)

// DefaultContextFile is the context cache file name.
const DefaultContextFile = "sitestack.context.json"

var (
	// ErrZoneNotFound is returned when no hosted zone matches the domain.
	ErrZoneNotFound = errors.New("hosted zone not found")
	// ErrLookupDisabled is returned on a cache miss when lookups are off.
	ErrLookupDisabled = errors.New("context lookups are disabled and the value is not cached")
)

// HostedZone is a resolved Route 53 hosted zone.
type HostedZone struct {
	// ID is the bare zone ID, without the /hostedzone/ prefix
	ID   string `json:"Id"`
	Name string `json:"Name"`
}

// Route53API is the subset of the Route 53 client used here.
type Route53API interface {
	ListHostedZonesByName(ctx context.Context, params *route53.ListHostedZonesByNameInput, optFns ...func(*route53.Options)) (*route53.ListHostedZonesByNameOutput, error)
}

// Options controls a lookup.
type Options struct {
	Client      Route53API
	ContextFile string
	PrivateZone bool
	// Disabled forbids calls to AWS; only cached values are returned
	Disabled bool
	Log      zerolog.Logger
}

// ZoneKey returns the context cache key of a hosted zone lookup.
func ZoneKey(domain string, private bool) string {
	return fmt.Sprintf("hosted-zone:domainName=%s:privateZone=%t", domain, private)
}

// Lookup returns the hosted zone for domain, from the context file when
// cached and from Route 53 otherwise.
func Lookup(ctx context.Context, domain string, opts Options) (HostedZone, error) {
	domain = strings.TrimSuffix(strings.ToLower(domain), ".")
	key := ZoneKey(domain, opts.PrivateZone)

	cache, err := LoadContext(opts.ContextFile)
	if err != nil {
		return HostedZone{}, err
	}

	if raw, ok := cache[key]; ok {
		var zone HostedZone
		if err := json.Unmarshal(raw, &zone); err == nil && zone.ID != "" {
			opts.Log.Debug().Str("key", key).Str("zone", zone.ID).Msg("hosted zone from context")
			return zone, nil
		}
		opts.Log.Warn().Str("key", key).Msg("ignoring malformed context entry")
	}

	if opts.Disabled || opts.Client == nil {
		return HostedZone{}, fmt.Errorf("%s: %w", key, ErrLookupDisabled)
	}

	opts.Log.Info().Str("domain", domain).Bool("private", opts.PrivateZone).Msg("looking up hosted zone")
	zone, err := findZone(ctx, opts.Client, domain, opts.PrivateZone)
	if err != nil {
		return HostedZone{}, err
	}

	raw, err := json.Marshal(zone)
	if err != nil {
		return HostedZone{}, err
	}
	cache[key] = raw
	if opts.ContextFile != "" {
		if err := SaveContext(opts.ContextFile, cache); err != nil {
			return HostedZone{}, err
		}
		opts.Log.Debug().Str("file", opts.ContextFile).Msg("context updated")
	}
	return zone, nil
}

func findZone(ctx context.Context, client Route53API, domain string, private bool) (HostedZone, error) {
	want := domain + "."
	input := &route53.ListHostedZonesByNameInput{DNSName: aws.String(domain)}

	for {
		out, err := client.ListHostedZonesByName(ctx, input)
		if err != nil {
			return HostedZone{}, fmt.Errorf("listing hosted zones for %s: %w", domain, err)
		}

		for _, z := range out.HostedZones {
			// The listing starts at DNSName, so zones of that name come
			// first and anything else means there is no match.
			if strings.ToLower(aws.ToString(z.Name)) != want {
				return HostedZone{}, fmt.Errorf("%s: %w", domain, ErrZoneNotFound)
			}
			isPrivate := z.Config != nil && z.Config.PrivateZone
			if isPrivate != private {
				continue
			}
			return HostedZone{
				ID:   strings.TrimPrefix(aws.ToString(z.Id), "/hostedzone/"),
				Name: aws.ToString(z.Name),
			}, nil
		}

		if !out.IsTruncated {
			return HostedZone{}, fmt.Errorf("%s: %w", domain, ErrZoneNotFound)
		}
		input = &route53.ListHostedZonesByNameInput{
			DNSName:      out.NextDNSName,
			HostedZoneId: out.NextHostedZoneId,
		}
	}
}

// LoadContext reads the context file. A missing file yields an empty context.
func LoadContext(path string) (map[string]json.RawMessage, error) {
	cache := make(map[string]json.RawMessage)
	if path == "" {
		return cache, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cache, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading context %s: %w", path, err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return cache, nil
	}
	if err := json.Unmarshal(data, &cache); err != nil {
		return nil, fmt.Errorf("parsing context %s: %w", path, err)
	}
	return cache, nil
}

// SaveContext writes the context file. Keys come out sorted.
func SaveContext(path string, cache map[string]json.RawMessage) error {
	data, err := json.MarshalIndent(cache, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing context %s: %w", path, err)
	}
	return nil
}

// Reset removes cached entries whose key starts with prefix and returns
// how many were removed. An empty prefix clears the whole context.
func Reset(path, prefix string) (int, error) {
	cache, err := LoadContext(path)
	if err != nil {
		return 0, err
	}
	removed := 0
	for k := range cache {
		if strings.HasPrefix(k, prefix) {
			delete(cache, k)
			removed++
		}
	}
	if removed == 0 {
		return 0, nil
	}
	return removed, SaveContext(path, cache)
}
