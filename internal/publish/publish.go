// Package publish copies a staged site bundle into its S3 bucket and
// invalidates the CloudFront distribution in front of it.
package publish

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudfront"
	cftypes "github.com/aws/aws-sdk-go-v2/service/cloudfront/types"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/unleashedlab/sitestack"
	"github.com/unleashedlab/sitestack/internal/assets"
)

const (
	// MaxDeleteBatch is the DeleteObjects limit.
	MaxDeleteBatch = 1000
	// DefaultConcurrency bounds parallel uploads.
	DefaultConcurrency = 8
	// HTMLCacheControl is always set on HTML pages so new deploys show up
	// without waiting for browser caches.
	HTMLCacheControl = "no-cache"
	// DefaultInvalidationWait bounds Target.Wait.
	DefaultInvalidationWait = 15 * time.Minute
)

// S3API is the subset of the S3 client used by the publisher.
type S3API interface {
	s3.ListObjectsV2APIClient
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObjects(ctx context.Context, params *s3.DeleteObjectsInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error)
}

// CloudFrontAPI is the subset of the CloudFront client used by the publisher.
type CloudFrontAPI interface {
	cloudfront.GetInvalidationAPIClient
	CreateInvalidation(ctx context.Context, params *cloudfront.CreateInvalidationInput, optFns ...func(*cloudfront.Options)) (*cloudfront.CreateInvalidationOutput, error)
}

// Target describes where a bundle goes.
type Target struct {
	Bucket string
	Prefix string
	// Prune deletes objects under Prefix that are not in the bundle
	Prune bool
	// DistributionID is invalidated after upload when set
	DistributionID string
	// Wait blocks until the invalidation completes
	Wait bool
	// CacheControl is applied to non-HTML files when set
	CacheControl string
	DryRun       bool
}

// Publisher uploads bundles.
type Publisher struct {
	S3          S3API
	CloudFront  CloudFrontAPI
	Log         zerolog.Logger
	Concurrency int
	// WaitTimeout overrides DefaultInvalidationWait
	WaitTimeout time.Duration
}

// Plan is the set of changes a publish makes.
type Plan struct {
	Upload []assets.File
	Skip   []string
	Delete []string
}

// Publish syncs the bundle into the target bucket.
func (p *Publisher) Publish(ctx context.Context, bundle *assets.Bundle, target Target) (*sitestack.PublishResult, error) {
	if target.Bucket == "" {
		return nil, fmt.Errorf("publish: bucket is required")
	}
	target.Prefix = NormalizePrefix(target.Prefix)

	existing, err := p.listObjects(ctx, target.Bucket, target.Prefix)
	if err != nil {
		return nil, err
	}

	plan := Diff(bundle, target.Prefix, existing, target.Prune)
	result := &sitestack.PublishResult{
		Bucket:  target.Bucket,
		Skipped: len(plan.Skip),
		DryRun:  target.DryRun,
	}
	for _, f := range plan.Upload {
		result.Bytes += f.Size
	}

	p.Log.Info().
		Str("bucket", target.Bucket).
		Int("upload", len(plan.Upload)).
		Int("unchanged", len(plan.Skip)).
		Int("delete", len(plan.Delete)).
		Str("size", humanize.Bytes(uint64(result.Bytes))).
		Bool("dryRun", target.DryRun).
		Msg("publish plan")

	if target.DryRun {
		result.Uploaded = len(plan.Upload)
		result.Deleted = len(plan.Delete)
		return result, nil
	}

	if err := p.upload(ctx, plan.Upload, target); err != nil {
		return nil, err
	}
	result.Uploaded = len(plan.Upload)

	deleted, err := p.deleteKeys(ctx, target.Bucket, plan.Delete)
	result.Deleted = deleted
	if err != nil {
		return result, err
	}

	changed := len(plan.Upload)+len(plan.Delete) > 0
	if target.DistributionID != "" && changed {
		id, err := p.Invalidate(ctx, target.DistributionID, target.Wait)
		if err != nil {
			return result, err
		}
		result.Invalidation = id
	}

	return result, nil
}

// Diff compares a bundle with existing object ETags (keyed by object key).
func Diff(bundle *assets.Bundle, prefix string, existing map[string]string, prune bool) Plan {
	var plan Plan
	wanted := bundle.Keys(prefix)

	keys := make([]string, 0, len(wanted))
	for k := range wanted {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		f := wanted[key]
		if etag, ok := existing[key]; ok && etag == f.MD5 {
			plan.Skip = append(plan.Skip, key)
			continue
		}
		plan.Upload = append(plan.Upload, f)
	}

	if prune {
		for key := range existing {
			if _, ok := wanted[key]; !ok {
				plan.Delete = append(plan.Delete, key)
			}
		}
		sort.Strings(plan.Delete)
	}
	return plan
}

// NormalizePrefix returns prefix as a directory-style key prefix: no leading
// slash and exactly one trailing slash, or empty for the bucket root.
func NormalizePrefix(prefix string) string {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return ""
	}
	return prefix + "/"
}

// listObjects returns key → ETag (unquoted) for every object under prefix.
func (p *Publisher) listObjects(ctx context.Context, bucket, prefix string) (map[string]string, error) {
	input := &s3.ListObjectsV2Input{Bucket: aws.String(bucket)}
	if prefix != "" {
		input.Prefix = aws.String(prefix)
	}

	objects := make(map[string]string)
	paginator := s3.NewListObjectsV2Paginator(p.S3, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing s3://%s/%s: %w", bucket, prefix, err)
		}
		for _, obj := range page.Contents {
			objects[aws.ToString(obj.Key)] = strings.Trim(aws.ToString(obj.ETag), `"`)
		}
	}
	return objects, nil
}

func (p *Publisher) upload(ctx context.Context, files []assets.File, target Target) error {
	if len(files) == 0 {
		return nil
	}

	limit := p.Concurrency
	if limit <= 0 {
		limit = DefaultConcurrency
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for _, f := range files {
		g.Go(func() error {
			return p.putFile(ctx, f, target)
		})
	}
	return g.Wait()
}

func (p *Publisher) putFile(ctx context.Context, f assets.File, target Target) error {
	fh, err := os.Open(f.Path)
	if err != nil {
		return err
	}
	defer fh.Close()

	key := target.Prefix + f.Key
	input := &s3.PutObjectInput{
		Bucket:        aws.String(target.Bucket),
		Key:           aws.String(key),
		Body:          fh,
		ContentLength: aws.Int64(f.Size),
		ContentType:   aws.String(f.ContentType),
	}
	if cc := CacheControl(f, target.CacheControl); cc != "" {
		input.CacheControl = aws.String(cc)
	}

	if _, err := p.S3.PutObject(ctx, input); err != nil {
		return fmt.Errorf("uploading %s: %w", key, err)
	}
	p.Log.Debug().Str("key", key).Str("type", f.ContentType).Str("size", humanize.Bytes(uint64(f.Size))).Msg("uploaded")
	return nil
}

// CacheControl returns the Cache-Control header for a file.
func CacheControl(f assets.File, configured string) string {
	if f.IsHTML() {
		return HTMLCacheControl
	}
	return configured
}

func (p *Publisher) deleteKeys(ctx context.Context, bucket string, keys []string) (int, error) {
	deleted := 0
	for start := 0; start < len(keys); start += MaxDeleteBatch {
		end := min(start+MaxDeleteBatch, len(keys))

		ids := make([]s3types.ObjectIdentifier, 0, end-start)
		for _, k := range keys[start:end] {
			ids = append(ids, s3types.ObjectIdentifier{Key: aws.String(k)})
		}

		out, err := p.S3.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(bucket),
			Delete: &s3types.Delete{Objects: ids, Quiet: aws.Bool(true)},
		})
		if err != nil {
			return deleted, fmt.Errorf("deleting objects from %s: %w", bucket, err)
		}
		if len(out.Errors) > 0 {
			first := out.Errors[0]
			return deleted + len(ids) - len(out.Errors), fmt.Errorf("deleting %s from %s: %s (%d failed)",
				aws.ToString(first.Key), bucket, aws.ToString(first.Message), len(out.Errors))
		}
		deleted += len(ids)
		p.Log.Debug().Int("count", len(ids)).Msg("pruned objects")
	}
	return deleted, nil
}

// Invalidate creates a "/*" invalidation and optionally waits for it.
func (p *Publisher) Invalidate(ctx context.Context, distributionID string, wait bool) (string, error) {
	if p.CloudFront == nil {
		return "", fmt.Errorf("invalidating %s: no CloudFront client", distributionID)
	}

	out, err := p.CloudFront.CreateInvalidation(ctx, &cloudfront.CreateInvalidationInput{
		DistributionId: aws.String(distributionID),
		InvalidationBatch: &cftypes.InvalidationBatch{
			CallerReference: aws.String(uuid.NewString()),
			Paths: &cftypes.Paths{
				Quantity: aws.Int32(1),
				Items:    []string{"/*"},
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("invalidating %s: %w", distributionID, err)
	}

	id := ""
	if out.Invalidation != nil {
		id = aws.ToString(out.Invalidation.Id)
	}
	p.Log.Info().Str("distribution", distributionID).Str("invalidation", id).Msg("invalidation created")

	if !wait || id == "" {
		return id, nil
	}

	timeout := p.WaitTimeout
	if timeout <= 0 {
		timeout = DefaultInvalidationWait
	}
	waiter := cloudfront.NewInvalidationCompletedWaiter(p.CloudFront)
	if err := waiter.Wait(ctx, &cloudfront.GetInvalidationInput{
		DistributionId: aws.String(distributionID),
		Id:             aws.String(id),
	}, timeout); err != nil {
		return id, fmt.Errorf("waiting for invalidation %s: %w", id, err)
	}
	p.Log.Info().Str("invalidation", id).Msg("invalidation completed")
	return id, nil
}
