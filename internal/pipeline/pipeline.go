package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/storm-data-shared/retry"

	"github.com/couchcryptid/solar-map-service/internal/domain"
	"github.com/couchcryptid/solar-map-service/internal/observability"
)

const (
	initialBackoff = 200 * time.Millisecond
	maxBackoff     = 5 * time.Second
)

// BatchExtractor reads up to batchSize refresh messages from the source.
type BatchExtractor interface {
	ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawEvent, error)
}

// Transformer turns one refresh message into a layer snapshot.
type Transformer interface {
	Transform(ctx context.Context, raw domain.RawEvent) (domain.Snapshot, error)
}

// BatchLoader delivers snapshots to a destination.
type BatchLoader interface {
	LoadBatch(ctx context.Context, snaps []domain.Snapshot) error
}

// MultiLoader fans a batch out to every loader in order and stops at the
// first failure. Put durable sinks ahead of in-memory views so a failed
// publish leaves the views on the last committed snapshot.
type MultiLoader []BatchLoader

// LoadBatch implements BatchLoader.
func (m MultiLoader) LoadBatch(ctx context.Context, snaps []domain.Snapshot) error {
	for i, l := range m {
		if l == nil {
			continue
		}
		if err := l.LoadBatch(ctx, snaps); err != nil {
			return fmt.Errorf("loader %d: %w", i, err)
		}
	}
	return nil
}

// Pipeline runs the refresh loop: read feed messages, build snapshots, and
// hand them to the loaders.
type Pipeline struct {
	extractor   BatchExtractor
	transformer Transformer
	loader      BatchLoader
	logger      *slog.Logger
	metrics     *observability.Metrics
	ready       atomic.Bool
	batchSize   int
	backoff     time.Duration
}

// New creates a Pipeline with the given stages and observability.
func New(e BatchExtractor, t Transformer, l BatchLoader, logger *slog.Logger, metrics *observability.Metrics, batchSize int) *Pipeline {
	return &Pipeline{
		extractor:   e,
		transformer: t,
		loader:      l,
		logger:      logger,
		metrics:     metrics,
		batchSize:   batchSize,
		backoff:     initialBackoff,
	}
}

// CheckReadiness returns nil once a snapshot has been delivered.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("no snapshot has been loaded yet")
	}
	return nil
}

// Run executes the refresh loop until the context is cancelled.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("pipeline started", "batch_size", p.batchSize)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	for ctx.Err() == nil {
		if !p.step(ctx) {
			break
		}
	}
	p.logger.Info("pipeline stopping", "reason", context.Cause(ctx))
	return nil
}

// step runs one refresh cycle. It returns false when the pipeline should stop.
func (p *Pipeline) step(ctx context.Context) bool {
	start := time.Now()

	raws, err := p.extractor.ExtractBatch(ctx, p.batchSize)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		p.logger.Error("extract batch failed", "error", err)
		return p.wait(ctx)
	}
	if len(raws) == 0 {
		return ctx.Err() == nil
	}

	p.metrics.MessagesConsumed.Add(float64(len(raws)))
	p.metrics.BatchSize.Observe(float64(len(raws)))
	p.backoff = initialBackoff

	snaps, built := p.transform(ctx, raws)
	if len(snaps) == 0 {
		return true
	}

	if err := p.loader.LoadBatch(ctx, snaps); err != nil {
		p.logger.Error("load batch failed", "error", err, "batch_size", len(snaps))
		return p.wait(ctx)
	}

	p.metrics.MessagesProduced.Add(float64(len(snaps)))
	for _, raw := range built {
		p.commit(ctx, raw)
	}
	p.metrics.BatchProcessingDuration.Observe(time.Since(start).Seconds())
	p.ready.Store(true)
	return true
}

// transform builds a snapshot for each message. Messages that fail to parse
// are committed immediately so they are never redelivered.
func (p *Pipeline) transform(ctx context.Context, raws []domain.RawEvent) ([]domain.Snapshot, []domain.RawEvent) {
	snaps := make([]domain.Snapshot, 0, len(raws))
	built := make([]domain.RawEvent, 0, len(raws))

	for _, raw := range raws {
		snap, err := p.transformer.Transform(ctx, raw)
		if err != nil {
			p.logger.Warn("transform failed, skipping message",
				"error", err,
				"topic", raw.Topic,
				"partition", raw.Partition,
				"offset", raw.Offset,
			)
			p.metrics.TransformErrors.Inc()
			p.commit(ctx, raw)
			continue
		}
		snaps = append(snaps, snap)
		built = append(built, raw)
	}
	return snaps, built
}

// wait sleeps for the current backoff and doubles it up to maxBackoff.
func (p *Pipeline) wait(ctx context.Context) bool {
	if ctx.Err() != nil || !retry.SleepWithContext(ctx, p.backoff) {
		return false
	}
	p.backoff = retry.NextBackoff(p.backoff, maxBackoff)
	return true
}

func (p *Pipeline) commit(ctx context.Context, raw domain.RawEvent) {
	if raw.Commit == nil {
		return
	}
	if err := raw.Commit(ctx); err != nil {
		p.logger.Warn("commit offset failed", "error", err,
			"topic", raw.Topic, "partition", raw.Partition, "offset", raw.Offset)
	}
}
