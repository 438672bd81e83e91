package tasks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"modelviewer/internal/media/sniffer"
	"modelviewer/internal/metrics"
	"modelviewer/internal/models"
	"modelviewer/internal/queue"
	"modelviewer/internal/repository"
)

type AssetStore interface {
	GetByID(ctx context.Context, id string) (models.Asset, error)
	UpdateStatus(ctx context.Context, id string, status models.AssetStatus) error
	ListStale(ctx context.Context, cutoff time.Time, limit int) ([]models.Asset, error)
	Delete(ctx context.Context, id string) error
}

// ReferenceChecker reports whether a model item still points at an asset.
type ReferenceChecker interface {
	IsAssetReferenced(ctx context.Context, assetID string) (bool, error)
}

type ObjectStore interface {
	Open(ctx context.Context, bucket, objectKey string) (io.ReadCloser, error)
	Remove(ctx context.Context, bucket, objectKey string) error
}

type Options struct {
	CleanupMaxAge time.Duration
	CleanupBatch  int
}

// Processor handles the tasks the API puts on the ingest stream.
type Processor struct {
	assets  AssetStore
	refs    ReferenceChecker
	objects ObjectStore
	metrics *metrics.Collector
	opts    Options
	logger  zerolog.Logger
	now     func() time.Time
}

func NewProcessor(assets AssetStore, refs ReferenceChecker, objects ObjectStore, collector *metrics.Collector, opts Options, logger zerolog.Logger) *Processor {
	if opts.CleanupMaxAge <= 0 {
		opts.CleanupMaxAge = 24 * time.Hour
	}
	if opts.CleanupBatch <= 0 {
		opts.CleanupBatch = 200
	}
	return &Processor{
		assets:  assets,
		refs:    refs,
		objects: objects,
		metrics: collector,
		opts:    opts,
		logger:  logger,
		now:     time.Now,
	}
}

// Handle returns an error only for failures worth retrying. The message then
// stays pending and is reclaimed later.
func (p *Processor) Handle(ctx context.Context, msg redis.XMessage) error {
	task, err := queue.DecodeTask(msg.Values)
	if err != nil {
		p.logger.Warn().Err(err).Str("message_id", msg.ID).Msg("dropping malformed task")
		p.metrics.RecordTask("unknown", "malformed")
		return nil
	}

	switch task.Type {
	case queue.TaskIngest:
		err = p.handleIngest(ctx, task)
	case queue.TaskCleanup:
		err = p.handleCleanup(ctx)
	default:
		p.logger.Warn().Str("type", task.Type).Msg("unknown task type")
		p.metrics.RecordTask(task.Type, "unknown")
		return nil
	}

	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	p.metrics.RecordTask(task.Type, outcome)
	return err
}

// handleIngest re-sniffs the stored object and settles the asset status.
// Assets that are already ready or rejected are left alone.
func (p *Processor) handleIngest(ctx context.Context, task queue.Task) error {
	asset, err := p.assets.GetByID(ctx, task.AssetID)
	if err != nil {
		if errors.Is(err, repository.ErrAssetNotFound) {
			p.logger.Warn().Str("asset_id", task.AssetID).Msg("ingest for unknown asset")
			return nil
		}
		return fmt.Errorf("load asset %s: %w", task.AssetID, err)
	}
	if asset.Status != models.AssetStatusProcessing {
		return nil
	}

	bucket := task.Bucket
	if bucket == "" {
		bucket = asset.Bucket
	}
	obj, err := p.objects.Open(ctx, bucket, task.Object)
	if err != nil {
		return err
	}
	defer obj.Close()

	status := models.AssetStatusReady
	detected, _, err := sniffer.Detect(obj)
	switch {
	case errors.Is(err, sniffer.ErrUnknownType):
		status = models.AssetStatusRejected
	case err != nil:
		return fmt.Errorf("read object %s: %w", task.Object, err)
	case detected.MIME != asset.MimeType || detected.Kind != asset.Kind:
		status = models.AssetStatusRejected
	}

	if err := p.assets.UpdateStatus(ctx, asset.ID, status); err != nil {
		return fmt.Errorf("update asset %s: %w", asset.ID, err)
	}

	p.logger.Info().
		Str("asset_id", asset.ID).
		Str("status", string(status)).
		Str("detected", string(detected.Type)).
		Msg("asset ingested")
	return nil
}

// handleCleanup removes assets stuck in processing or rejected for longer than
// the configured age. Assets still referenced by an item are kept.
func (p *Processor) handleCleanup(ctx context.Context) error {
	cutoff := p.now().Add(-p.opts.CleanupMaxAge)
	stale, err := p.assets.ListStale(ctx, cutoff, p.opts.CleanupBatch)
	if err != nil {
		return fmt.Errorf("list stale assets: %w", err)
	}

	var errs []error
	removed, kept := 0, 0
	for _, asset := range stale {
		referenced, err := p.refs.IsAssetReferenced(ctx, asset.ID)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if referenced {
			kept++
			continue
		}

		if err := p.objects.Remove(ctx, asset.Bucket, asset.ObjectKey); err != nil {
			errs = append(errs, err)
			continue
		}
		if err := p.assets.Delete(ctx, asset.ID); err != nil {
			errs = append(errs, fmt.Errorf("delete asset %s: %w", asset.ID, err))
			continue
		}
		removed++
	}

	p.logger.Info().
		Int("removed", removed).
		Int("kept", kept).
		Int("failed", len(errs)).
		Time("cutoff", cutoff).
		Msg("asset cleanup finished")
	return errors.Join(errs...)
}
