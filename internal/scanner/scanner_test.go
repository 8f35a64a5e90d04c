package scanner

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mcscanner/internal/config"
	"mcscanner/internal/database"
	"mcscanner/internal/feed"
	"mcscanner/internal/models"
)

// fakeProber records which targets it saw and tracks peak concurrency.
type fakeProber struct {
	mu     sync.Mutex
	seen   map[string]int
	active int
	peak   int
	delay  time.Duration
}

func newFakeProber(delay time.Duration) *fakeProber {
	return &fakeProber{seen: make(map[string]int), delay: delay}
}

func (p *fakeProber) Probe(_ context.Context, target models.Target) models.ProbeOutcome {
	p.mu.Lock()
	p.active++
	if p.active > p.peak {
		p.peak = p.active
	}
	p.seen[target.Addr()]++
	p.mu.Unlock()

	if p.delay > 0 {
		time.Sleep(p.delay)
	}

	p.mu.Lock()
	p.active--
	p.mu.Unlock()

	return models.ProbeOutcome{
		Target:    target,
		Kind:      models.OutcomeReachable,
		Timestamp: time.Now(),
	}
}

func (p *fakeProber) snapshot() (map[string]int, int, int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	seen := make(map[string]int, len(p.seen))
	for k, v := range p.seen {
		seen[k] = v
	}
	return seen, p.active, p.peak
}

type fakeSink struct {
	mu       sync.Mutex
	outcomes []models.ProbeOutcome
}

func (s *fakeSink) Submit(_ context.Context, outcome models.ProbeOutcome) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outcomes = append(s.outcomes, outcome)
	return nil
}

func (s *fakeSink) Close() error { return nil }

func (s *fakeSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.outcomes)
}

// burstFeed yields its bursts in order, returning ErrExhausted between
// them and after the last one.
type burstFeed struct {
	mu     sync.Mutex
	bursts [][]models.Target
}

func (f *burstFeed) Next(_ context.Context) (models.Target, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.bursts) == 0 {
		return models.Target{}, feed.ErrExhausted
	}
	if len(f.bursts[0]) == 0 {
		f.bursts = f.bursts[1:]
		return models.Target{}, feed.ErrExhausted
	}
	target := f.bursts[0][0]
	f.bursts[0] = f.bursts[0][1:]
	return target, nil
}

func makeTargets(n int) []models.Target {
	targets := make([]models.Target, n)
	for i := range targets {
		targets[i] = models.Target{Host: fmt.Sprintf("192.0.2.%d", i+1), Port: 25565}
	}
	return targets
}

func testConfig() config.Config {
	cfg := config.Default()
	cfg.Threads = 4
	cfg.RevisitInterval = 0
	return cfg
}

func TestFiniteSweepProbesEveryTargetOnce(t *testing.T) {
	targets := makeTargets(20)
	prober := newFakeProber(0)
	sink := &fakeSink{}

	sc := New(testConfig(), feed.NewStatic(targets), prober, sink, nil, hclog.NewNullLogger())
	require.NoError(t, sc.Start())

	select {
	case <-sc.Finished():
	case <-time.After(5 * time.Second):
		t.Fatal("sweep did not finish")
	}
	sc.Stop()
	sc.Wait()

	seen, _, _ := prober.snapshot()
	assert.Len(t, seen, len(targets))
	for _, target := range targets {
		assert.Equal(t, 1, seen[target.Addr()], "target %s", target.Addr())
	}
	assert.Equal(t, len(targets), sink.count())
}

func TestConcurrencyStaysUnderLimit(t *testing.T) {
	targets := makeTargets(30)
	prober := newFakeProber(10 * time.Millisecond)
	sink := &fakeSink{}

	cfg := testConfig()
	cfg.Threads = 3
	sc := New(cfg, feed.NewStatic(targets), prober, sink, nil, hclog.NewNullLogger())
	require.NoError(t, sc.Start())

	select {
	case <-sc.Finished():
	case <-time.After(10 * time.Second):
		t.Fatal("sweep did not finish")
	}
	sc.Stop()
	sc.Wait()

	_, _, peak := prober.snapshot()
	assert.LessOrEqual(t, peak, 3)
	assert.Equal(t, len(targets), sink.count())
}

func TestStopDrainsInFlightProbes(t *testing.T) {
	targets := makeTargets(4)
	prober := newFakeProber(200 * time.Millisecond)
	sink := &fakeSink{}

	sc := New(testConfig(), feed.NewStatic(targets), prober, sink, nil, hclog.NewNullLogger())
	require.NoError(t, sc.Start())

	require.Eventually(t, func() bool {
		_, active, _ := prober.snapshot()
		return active == 4
	}, 2*time.Second, 5*time.Millisecond)

	sc.Stop()
	sc.Wait()

	// Every probe in flight at shutdown still reached the sink.
	assert.Equal(t, 4, sink.count())
}

func TestExhaustedWaitResumesWhenFeedRefills(t *testing.T) {
	prober := newFakeProber(0)
	sink := &fakeSink{}
	f := &burstFeed{bursts: [][]models.Target{makeTargets(3), makeTargets(2)}}

	cfg := testConfig()
	cfg.ExhaustedWait = 10 * time.Millisecond
	sc := New(cfg, f, prober, sink, nil, hclog.NewNullLogger())
	require.NoError(t, sc.Start())

	require.Eventually(t, func() bool {
		return sink.count() == 5
	}, 3*time.Second, 10*time.Millisecond)

	// A replenishing feed never counts as finished.
	select {
	case <-sc.Finished():
		t.Fatal("scanner reported finished while waiting on feed")
	default:
	}

	sc.Stop()
	sc.Wait()
}

func TestRevisitRunsAlongsideFiniteSweep(t *testing.T) {
	db, err := database.New(filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	require.NoError(t, db.InitSchema())
	t.Cleanup(func() { db.Close() })

	known := models.Target{Host: "192.0.2.200", Port: 25565}
	require.NoError(t, db.SaveOutcomes(context.Background(), []models.ProbeOutcome{{
		Target: known,
		Kind:   models.OutcomeReachable,
		Status: &models.ServerStatus{
			VersionName: "Paper 1.20.4",
			Protocol:    765,
			Online:      3,
			MaxPlayers:  50,
		},
		Timestamp: time.Now().UTC(),
	}}))

	prober := newFakeProber(2 * time.Millisecond)
	sink := &fakeSink{}

	// A revisit tick firing as the sweep's last probe finishes must not
	// disturb the sweep-finished accounting.
	cfg := testConfig()
	cfg.Threads = 2
	cfg.RevisitInterval = time.Millisecond
	cfg.RevisitLimit = 5

	sc := New(cfg, feed.NewStatic(makeTargets(10)), prober, sink, db, hclog.NewNullLogger())
	require.NoError(t, sc.Start())

	select {
	case <-sc.Finished():
	case <-time.After(10 * time.Second):
		t.Fatal("sweep did not finish")
	}

	require.Eventually(t, func() bool {
		seen, _, _ := prober.snapshot()
		return seen[known.Addr()] >= 1
	}, 5*time.Second, 5*time.Millisecond)

	sc.Stop()
	sc.Wait()

	seen, _, _ := prober.snapshot()
	for _, target := range makeTargets(10) {
		assert.Equal(t, 1, seen[target.Addr()], "sweep target %s", target.Addr())
	}
}

func TestStopInterruptsIdleFeed(t *testing.T) {
	prober := newFakeProber(0)
	sink := &fakeSink{}
	f := &burstFeed{}

	cfg := testConfig()
	cfg.ExhaustedWait = time.Hour
	sc := New(cfg, f, prober, sink, nil, hclog.NewNullLogger())
	require.NoError(t, sc.Start())

	done := make(chan struct{})
	go func() {
		sc.Stop()
		sc.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("scanner did not stop while waiting on an exhausted feed")
	}
}
