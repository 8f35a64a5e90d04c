// Package sink decouples probe completion from persistence. Outcomes are
// queued on a bounded channel (the queue filling up is the backpressure
// signal to the probing side), collected into batches bounded by count
// and bytes, and flushed to the store on whichever of size or interval
// trips first. Flush failures retry with capped exponential backoff; an
// exhausted batch is dropped and reported, never retried forever.
package sink

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hashicorp/go-hclog"

	"mcscanner/internal/models"
)

const (
	DefaultBatchSize     = 64
	DefaultMaxBatchBytes = 1 << 20
	DefaultFlushInterval = 5 * time.Second
	DefaultQueueSize     = 256
	DefaultMaxAttempts   = 4
	DefaultRetryBackoff  = 500 * time.Millisecond
)

// Config controls batching and retry behavior.
type Config struct {
	// BatchSize flushes the batch when it reaches this many outcomes.
	BatchSize int

	// MaxBatchBytes flushes the batch when its estimated payload size
	// reaches this many bytes, regardless of count.
	MaxBatchBytes int

	// FlushInterval flushes whatever has accumulated, bounding staleness.
	FlushInterval time.Duration

	// QueueSize bounds outcomes waiting to enter a batch; Submit blocks
	// once it is full.
	QueueSize int

	// MaxAttempts bounds how often one batch is offered to the store.
	MaxAttempts int

	// RetryBackoff is the first retry delay; it doubles per attempt.
	RetryBackoff time.Duration

	// RecordFailures persists unreachable/timeout/protocol-error outcomes
	// as last-seen status updates. When off, only reachable servers are
	// written.
	RecordFailures bool
}

func (c *Config) withDefaults() {
	if c.BatchSize <= 0 {
		c.BatchSize = DefaultBatchSize
	}
	if c.MaxBatchBytes <= 0 {
		c.MaxBatchBytes = DefaultMaxBatchBytes
	}
	if c.FlushInterval <= 0 {
		c.FlushInterval = DefaultFlushInterval
	}
	if c.QueueSize <= 0 {
		c.QueueSize = DefaultQueueSize
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	if c.RetryBackoff <= 0 {
		c.RetryBackoff = DefaultRetryBackoff
	}
}

// Stats are cumulative sink counters.
type Stats struct {
	Submitted      int64
	Skipped        int64
	Flushes        int64
	Retries        int64
	DroppedBatches int64
}

// Sink buffers outcomes and writes them to the store in batches.
type Sink struct {
	cfg   Config
	store models.Store
	log   hclog.Logger

	queue chan models.ProbeOutcome
	wg    sync.WaitGroup

	submitted      atomic.Int64
	skipped        atomic.Int64
	flushes        atomic.Int64
	retries        atomic.Int64
	droppedBatches atomic.Int64

	closeOnce sync.Once
}

// New creates a Sink and starts its collector. Close flushes the
// remainder and stops it.
func New(store models.Store, cfg Config, logger hclog.Logger) *Sink {
	cfg.withDefaults()
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	s := &Sink{
		cfg:   cfg,
		store: store,
		log:   logger.Named("sink"),
		queue: make(chan models.ProbeOutcome, cfg.QueueSize),
	}
	s.wg.Add(1)
	go s.collect()
	return s
}

// Submit queues one outcome for persistence. It blocks while the queue
// is full — that is the backpressure against a slow store — and returns
// early only if ctx is done.
func (s *Sink) Submit(ctx context.Context, outcome models.ProbeOutcome) error {
	if !s.cfg.RecordFailures && outcome.Kind != models.OutcomeReachable {
		s.skipped.Add(1)
		return nil
	}
	select {
	case s.queue <- outcome:
		s.submitted.Add(1)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close drains the queue, flushes the final batch, and stops the
// collector. Submit must not be called after Close.
func (s *Sink) Close() error {
	s.closeOnce.Do(func() {
		close(s.queue)
	})
	s.wg.Wait()
	return nil
}

// Stats returns a snapshot of the sink counters.
func (s *Sink) Stats() Stats {
	return Stats{
		Submitted:      s.submitted.Load(),
		Skipped:        s.skipped.Load(),
		Flushes:        s.flushes.Load(),
		Retries:        s.retries.Load(),
		DroppedBatches: s.droppedBatches.Load(),
	}
}

// collect owns the batch. Running it on a single goroutine keeps flush
// order FIFO relative to submission order without holding a lock across
// the store write.
func (s *Sink) collect() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cfg.FlushInterval)
	defer ticker.Stop()

	var (
		batch      []models.ProbeOutcome
		batchBytes int
	)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		s.flush(batch)
		batch = nil
		batchBytes = 0
	}

	for {
		select {
		case outcome, ok := <-s.queue:
			if !ok {
				flush()
				return
			}
			batch = append(batch, outcome)
			batchBytes += estimateSize(outcome)
			if len(batch) >= s.cfg.BatchSize || batchBytes >= s.cfg.MaxBatchBytes {
				flush()
			}
		case <-ticker.C:
			flush()
		}
	}
}

// flush writes one batch, retrying with doubling backoff. After
// MaxAttempts the batch is dropped and the failure reported; outcomes
// will be regenerated on the next sweep anyway.
func (s *Sink) flush(batch []models.ProbeOutcome) {
	backoff := s.cfg.RetryBackoff
	var err error
	for attempt := 1; attempt <= s.cfg.MaxAttempts; attempt++ {
		if err = s.store.SaveOutcomes(context.Background(), batch); err == nil {
			s.flushes.Add(1)
			s.log.Debug("batch flushed", "outcomes", len(batch), "attempt", attempt)
			return
		}
		if attempt < s.cfg.MaxAttempts {
			s.retries.Add(1)
			s.log.Warn("batch write failed, retrying",
				"outcomes", len(batch), "attempt", attempt, "backoff", backoff, "error", err)
			time.Sleep(backoff)
			backoff *= 2
		}
	}
	s.droppedBatches.Add(1)
	s.log.Error("batch dropped after retries",
		"outcomes", len(batch), "attempts", s.cfg.MaxAttempts, "error", err)
}

// estimateSize approximates an outcome's stored footprint; favicon and
// description dominate reachable records.
func estimateSize(o models.ProbeOutcome) int {
	n := len(o.Target.Host) + len(o.Reason) + 64
	if o.Status != nil {
		n += len(o.Status.VersionName) + len(o.Status.Description) + len(o.Status.Favicon)
		n += len(o.Status.Sample) * 64
	}
	return n
}
