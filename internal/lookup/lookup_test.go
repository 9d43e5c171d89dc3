package lookup

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/route53"
	"github.com/aws/aws-sdk-go-v2/service/route53/types"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRoute53 struct {
	pages []*route53.ListHostedZonesByNameOutput
	calls []*route53.ListHostedZonesByNameInput
	err   error
}

func (f *fakeRoute53) ListHostedZonesByName(_ context.Context, in *route53.ListHostedZonesByNameInput, _ ...func(*route53.Options)) (*route53.ListHostedZonesByNameOutput, error) {
	f.calls = append(f.calls, in)
	if f.err != nil {
		return nil, f.err
	}
	page := f.pages[len(f.calls)-1]
	return page, nil
}

func zone(id, name string, private bool) types.HostedZone {
	return types.HostedZone{
		Id:     aws.String("/hostedzone/" + id),
		Name:   aws.String(name),
		Config: &types.HostedZoneConfig{PrivateZone: private},
	}
}

func TestLookup_FromRoute53(t *testing.T) {
	ctxFile := filepath.Join(t.TempDir(), DefaultContextFile)
	client := &fakeRoute53{pages: []*route53.ListHostedZonesByNameOutput{{
		HostedZones: []types.HostedZone{
			zone("ZPRIVATE", "example.com.", true),
			zone("ZPUBLIC", "example.com.", false),
		},
	}}}

	got, err := Lookup(context.Background(), "Example.com", Options{
		Client:      client,
		ContextFile: ctxFile,
		Log:         zerolog.Nop(),
	})
	require.NoError(t, err)
	assert.Equal(t, HostedZone{ID: "ZPUBLIC", Name: "example.com."}, got)
	require.Len(t, client.calls, 1)
	assert.Equal(t, "example.com", aws.ToString(client.calls[0].DNSName))

	cache, err := LoadContext(ctxFile)
	require.NoError(t, err)
	require.Contains(t, cache, "hosted-zone:domainName=example.com:privateZone=false")

	// second lookup is served from the context file
	again, err := Lookup(context.Background(), "example.com", Options{
		Client:      client,
		ContextFile: ctxFile,
		Disabled:    true,
		Log:         zerolog.Nop(),
	})
	require.NoError(t, err)
	assert.Equal(t, got, again)
	assert.Len(t, client.calls, 1)
}

func TestLookup_PrivateZone(t *testing.T) {
	client := &fakeRoute53{pages: []*route53.ListHostedZonesByNameOutput{{
		HostedZones: []types.HostedZone{
			zone("ZPUBLIC", "example.com.", false),
			zone("ZPRIVATE", "example.com.", true),
		},
	}}}

	got, err := Lookup(context.Background(), "example.com", Options{Client: client, PrivateZone: true, Log: zerolog.Nop()})
	require.NoError(t, err)
	assert.Equal(t, "ZPRIVATE", got.ID)
}

func TestLookup_Pagination(t *testing.T) {
	client := &fakeRoute53{pages: []*route53.ListHostedZonesByNameOutput{
		{
			HostedZones:      []types.HostedZone{zone("ZPRIVATE", "example.com.", true)},
			IsTruncated:      true,
			NextDNSName:      aws.String("example.com."),
			NextHostedZoneId: aws.String("ZNEXT"),
		},
		{
			HostedZones: []types.HostedZone{zone("ZPUBLIC", "example.com.", false)},
		},
	}}

	got, err := Lookup(context.Background(), "example.com", Options{Client: client, Log: zerolog.Nop()})
	require.NoError(t, err)
	assert.Equal(t, "ZPUBLIC", got.ID)
	require.Len(t, client.calls, 2)
	assert.Equal(t, "ZNEXT", aws.ToString(client.calls[1].HostedZoneId))
}

func TestLookup_Errors(t *testing.T) {
	t.Run("not found", func(t *testing.T) {
		client := &fakeRoute53{pages: []*route53.ListHostedZonesByNameOutput{{
			HostedZones: []types.HostedZone{zone("ZOTHER", "example.org.", false)},
		}}}
		_, err := Lookup(context.Background(), "example.com", Options{Client: client, Log: zerolog.Nop()})
		assert.ErrorIs(t, err, ErrZoneNotFound)
	})

	t.Run("empty listing", func(t *testing.T) {
		client := &fakeRoute53{pages: []*route53.ListHostedZonesByNameOutput{{}}}
		_, err := Lookup(context.Background(), "example.com", Options{Client: client, Log: zerolog.Nop()})
		assert.ErrorIs(t, err, ErrZoneNotFound)
	})

	t.Run("disabled", func(t *testing.T) {
		_, err := Lookup(context.Background(), "example.com", Options{Disabled: true, Log: zerolog.Nop()})
		assert.ErrorIs(t, err, ErrLookupDisabled)
	})

	t.Run("api error", func(t *testing.T) {
		boom := errors.New("throttled")
		_, err := Lookup(context.Background(), "example.com", Options{Client: &fakeRoute53{err: boom}, Log: zerolog.Nop()})
		assert.ErrorIs(t, err, boom)
	})

	t.Run("corrupt context", func(t *testing.T) {
		ctxFile := filepath.Join(t.TempDir(), DefaultContextFile)
		require.NoError(t, os.WriteFile(ctxFile, []byte("{"), 0o644))
		_, err := Lookup(context.Background(), "example.com", Options{ContextFile: ctxFile, Log: zerolog.Nop()})
		assert.Error(t, err)
	})
}

func TestReset(t *testing.T) {
	ctxFile := filepath.Join(t.TempDir(), DefaultContextFile)
	require.NoError(t, SaveContext(ctxFile, map[string]json.RawMessage{
		ZoneKey("a.com", false): json.RawMessage(`{"Id":"Z1","Name":"a.com."}`),
		ZoneKey("b.com", false): json.RawMessage(`{"Id":"Z2","Name":"b.com."}`),
		"other":                 json.RawMessage(`1`),
	}))

	n, err := Reset(ctxFile, "hosted-zone:")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	cache, err := LoadContext(ctxFile)
	require.NoError(t, err)
	assert.Len(t, cache, 1)
	assert.Contains(t, cache, "other")

	n, err = Reset(filepath.Join(t.TempDir(), "missing.json"), "")
	require.NoError(t, err)
	assert.Zero(t, n)
}
