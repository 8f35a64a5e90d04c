package scanner

import (
	"context"
	"sync"

	"github.com/hashicorp/go-hclog"

	"mcscanner/internal/config"
	"mcscanner/internal/database"
	"mcscanner/internal/limiter"
	"mcscanner/internal/models"
)

// Scanner coordinates the probing pipeline: it admits targets from the
// feed under the concurrency limit, runs probes, and forwards outcomes
// to the sink. It also owns the revisit and maintenance loops.
type Scanner struct {
	cfg    config.Config
	feed   models.Feed
	prober models.Prober
	sink   models.Sink
	db     *database.DB
	lim    *limiter.Limiter
	log    hclog.Logger

	wg sync.WaitGroup // background loops

	// Sweep and revisit probes are tracked separately: finish() waits on
	// the sweep group while the revisit worker may still be admitting, and
	// a WaitGroup must not see an Add from zero while a Wait is in flight.
	probes   sync.WaitGroup // in-flight sweep probes
	revisits sync.WaitGroup // in-flight revisit probes

	ctx    context.Context
	cancel context.CancelFunc

	finished   chan struct{}
	finishOnce sync.Once
}

// New creates a new Scanner. db may be nil, which disables the revisit
// and maintenance loops.
func New(cfg config.Config, feed models.Feed, prober models.Prober, sink models.Sink, db *database.DB, logger hclog.Logger) *Scanner {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scanner{
		cfg:      cfg,
		feed:     feed,
		prober:   prober,
		sink:     sink,
		db:       db,
		lim:      limiter.New(cfg.Threads),
		log:      logger.Named("scanner"),
		ctx:      ctx,
		cancel:   cancel,
		finished: make(chan struct{}),
	}
}

// Start begins the scanning process
func (s *Scanner) Start() error {
	s.log.Info("starting scanner", "threads", s.cfg.Threads, "port", s.cfg.ScanPort)

	s.wg.Add(1)
	go s.admitLoop()

	if s.db != nil && s.cfg.RevisitInterval > 0 {
		s.wg.Add(1)
		go s.revisitWorker()
	}
	if s.db != nil {
		s.wg.Add(1)
		go s.maintenanceWorker()
	}
	return nil
}

// Stop gracefully stops the scanner. In-flight probes are allowed to
// run to completion; each is bounded by the probe timeout.
func (s *Scanner) Stop() {
	s.log.Info("stopping scanner")
	s.cancel()
}

// Wait blocks until all loops and in-flight probes finish
func (s *Scanner) Wait() {
	s.wg.Wait()
	s.probes.Wait()
	s.revisits.Wait()
	s.log.Info("scanner stopped")
}

// Finished is closed when a finite feed has been fully swept and every
// sweep probe for it has been submitted. Infinite feeds never close it.
func (s *Scanner) Finished() <-chan struct{} {
	return s.finished
}

// finish waits on sweep probes only; the revisit worker keeps its own
// group, so its admissions cannot race this Wait.
func (s *Scanner) finish() {
	s.probes.Wait()
	s.finishOnce.Do(func() { close(s.finished) })
}
