package compute

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"charcounter/internal/domain/entity"
	"charcounter/internal/usecase/frequency"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestService(t *testing.T, cfg Config) *service {
	t.Helper()
	s := NewService(cfg, discardLogger()).(*service)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.Shutdown(ctx)
	})
	return s
}

func waitResult(t *testing.T, ch <-chan Result) Result {
	t.Helper()
	select {
	case res := <-ch:
		return res
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for computation result")
		return Result{}
	}
}

func TestSubmit_WorkerPathSanitizesAndCounts(t *testing.T) {
	s := newTestService(t, DefaultConfig())
	require.True(t, s.WorkersAvailable())

	results := make(chan Result, 1)
	ticket := s.Submit(context.Background(), `Hello.\n`, func(r Result) { results <- r })

	res := waitResult(t, results)
	assert.Equal(t, ticket.Generation, res.Generation)
	assert.Equal(t, PathWorker, res.Path)
	assert.Equal(t, "Hello.\n", res.Text)
	assert.Equal(t, 7, res.Processed)

	want := []entity.Observation{
		entity.NewObservation('\n', 1),
		entity.NewObservation('.', 1),
		entity.NewObservation('H', 1),
		entity.NewObservation('e', 1),
		entity.NewObservation('l', 2),
		entity.NewObservation('o', 1),
	}
	if diff := cmp.Diff(want, res.Observations); diff != "" {
		t.Errorf("observations mismatch (-want +got):\n%s", diff)
	}
}

func TestSubmit_WorkerPathAppliesLimits(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Limits = entity.Limits{MaxInputChars: 4, MaxOutputRows: 2}
	s := newTestService(t, cfg)

	results := make(chan Result, 1)
	s.Submit(context.Background(), "dcbaXYZ", func(r Result) { results <- r })

	res := waitResult(t, results)
	assert.Equal(t, 4, res.Processed)
	require.Len(t, res.Observations, 2)
	assert.Equal(t, 'a', res.Observations[0].Character)
	assert.Equal(t, 'b', res.Observations[1].Character)
}

func TestSubmit_FallbackRunsSynchronouslyWithoutSanitizing(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Workers = 0
	cfg.FallbackLimits = entity.Limits{MaxInputChars: 3, MaxOutputRows: 1}
	s := newTestService(t, cfg)
	require.False(t, s.WorkersAvailable())

	var got *Result
	s.Submit(context.Background(), `a\nb`, func(r Result) { got = &r })

	// delivered before Submit returned
	require.NotNil(t, got)
	assert.Equal(t, PathFallback, got.Path)
	assert.Equal(t, `a\nb`, got.Text)
	assert.Equal(t, 3, got.Processed)
	// the fallback ignores the row limit: '\\', 'a', 'n'
	assert.Len(t, got.Observations, 3)
	assert.Equal(t, 3, frequency.Total(got.Observations))
}

func TestSubmit_FallbackUnboundedByDefault(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Workers = 0
	s := newTestService(t, cfg)

	var got Result
	s.Submit(context.Background(), "Hello.", func(r Result) { got = r })

	assert.Equal(t, 6, got.Processed)
	assert.Len(t, got.Observations, 5)
}

func TestSubmit_StaleResultIsDiscarded(t *testing.T) {
	s := newTestService(t, DefaultConfig())

	started := make(chan struct{})
	release := make(chan struct{})
	var calls int
	var mu sync.Mutex
	s.count = func(text string, limits entity.Limits) []entity.Observation {
		mu.Lock()
		calls++
		first := calls == 1
		mu.Unlock()
		if first {
			close(started)
			<-release
		}
		return frequency.CountWithLimits(text, limits)
	}

	delivered := make(chan Result, 2)
	onDone := func(r Result) { delivered <- r }

	staleBefore := testutil.ToFloat64(computeRunsTotal.WithLabelValues("worker", "stale"))

	first := s.Submit(context.Background(), "old", onDone)
	<-started
	second := s.Submit(context.Background(), "new", onDone)
	close(release)

	res := waitResult(t, delivered)
	assert.Equal(t, second.Generation, res.Generation)
	assert.Equal(t, "new", res.Text)
	assert.Greater(t, second.Generation, first.Generation)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.Shutdown(ctx))

	assert.Empty(t, delivered, "stale result must not be delivered")
	assert.Equal(t, staleBefore+1, testutil.ToFloat64(computeRunsTotal.WithLabelValues("worker", "stale")))
}

func TestSubmit_DeliveriesAreMonotonic(t *testing.T) {
	s := newTestService(t, DefaultConfig())

	var mu sync.Mutex
	var seen []uint64
	onDone := func(r Result) {
		mu.Lock()
		seen = append(seen, r.Generation)
		mu.Unlock()
	}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Submit(context.Background(), "abcabc", onDone)
		}()
	}
	wg.Wait()

	// the latest submission always wins
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) > 0 && seen[len(seen)-1] == s.Current()
	}, 5*time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, seen)
	for i := 1; i < len(seen); i++ {
		assert.Less(t, seen[i-1], seen[i])
	}
}

func TestSubmit_WorkerPanicIsContained(t *testing.T) {
	s := newTestService(t, DefaultConfig())
	s.count = func(string, entity.Limits) []entity.Observation {
		panic("boom")
	}

	failedBefore := testutil.ToFloat64(computeRunsTotal.WithLabelValues("worker", "failed"))
	fallbackBefore := testutil.ToFloat64(computeRunsTotal.WithLabelValues("fallback", "delivered"))

	called := false
	s.Submit(context.Background(), "anything", func(Result) { called = true })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.Shutdown(ctx))

	assert.False(t, called)
	assert.Equal(t, failedBefore+1, testutil.ToFloat64(computeRunsTotal.WithLabelValues("worker", "failed")))
	assert.Equal(t, fallbackBefore, testutil.ToFloat64(computeRunsTotal.WithLabelValues("fallback", "delivered")),
		"a worker failure must not trigger the fallback path")
}

func TestSubmit_CancelledContextIsAbandoned(t *testing.T) {
	s := newTestService(t, DefaultConfig())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	ticket := s.Submit(ctx, "text", func(Result) { called = true })

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	require.NoError(t, s.Shutdown(shutdownCtx))

	assert.False(t, called)
	assert.False(t, ticket.Accepted())
	assert.Equal(t, uint64(0), s.Current())
}

// blockFirst makes the first count call wait until release is closed.
func blockFirst(s *service) (started, release chan struct{}) {
	started = make(chan struct{})
	release = make(chan struct{})
	var once sync.Once
	s.count = func(text string, limits entity.Limits) []entity.Observation {
		first := false
		once.Do(func() { first = true })
		if first {
			close(started)
			<-release
		}
		return frequency.CountWithLimits(text, limits)
	}
	return started, release
}

func TestSubmit_AbandonedSubmitDoesNotSupersedeRunning(t *testing.T) {
	s := newTestService(t, DefaultConfig())
	started, release := blockFirst(s)

	results := make(chan Result, 2)
	good := s.Submit(context.Background(), "good", func(r Result) { results <- r })
	<-started

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	abandoned := s.Submit(ctx, "never", func(r Result) { results <- r })
	assert.False(t, abandoned.Accepted())
	assert.Equal(t, good.Generation, s.Current())

	close(release)
	res := waitResult(t, results)
	assert.Equal(t, good.Generation, res.Generation)
	assert.Equal(t, "good", res.Text)
}

func TestSubmit_RejectedAfterShutdownDoesNotSupersedeRunning(t *testing.T) {
	s := NewService(DefaultConfig(), discardLogger()).(*service)
	started, release := blockFirst(s)

	results := make(chan Result, 2)
	good := s.Submit(context.Background(), "good", func(r Result) { results <- r })
	<-started

	// the running computation outlives this deadline, but the host is closed
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, s.Shutdown(ctx), context.DeadlineExceeded)

	rejected := s.Submit(context.Background(), "late", func(r Result) { results <- r })
	assert.False(t, rejected.Accepted())

	close(release)
	res := waitResult(t, results)
	assert.Equal(t, good.Generation, res.Generation)
	require.NoError(t, s.Shutdown(context.Background()))
}

func TestSubmit_QueuedComputationCancelledBeforeStart(t *testing.T) {
	s := newTestService(t, DefaultConfig())
	started, release := blockFirst(s)

	abandonedBefore := testutil.ToFloat64(computeRunsTotal.WithLabelValues("worker", "abandoned"))

	results := make(chan Result, 2)
	s.Submit(context.Background(), "running", func(r Result) { results <- r })
	<-started

	ctx, cancel := context.WithCancel(context.Background())
	queued := s.Submit(ctx, "queued", func(r Result) { results <- r })
	require.True(t, queued.Accepted())
	cancel()

	// the queued worker gives up its wait before the slot frees up
	require.Eventually(t, func() bool {
		return testutil.ToFloat64(computeRunsTotal.WithLabelValues("worker", "abandoned")) == abandonedBefore+1
	}, 5*time.Second, 5*time.Millisecond)
	close(release)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	require.NoError(t, s.Shutdown(shutdownCtx))

	// "running" was superseded by the queued submission, which never ran
	assert.Empty(t, results)
}

func TestSubmit_SupersededQueuedComputationIsSkipped(t *testing.T) {
	s := newTestService(t, DefaultConfig())
	started, release := blockFirst(s)

	var mu sync.Mutex
	var counted []string
	inner := s.count
	s.count = func(text string, limits entity.Limits) []entity.Observation {
		mu.Lock()
		counted = append(counted, text)
		mu.Unlock()
		return inner(text, limits)
	}

	results := make(chan Result, 3)
	onDone := func(r Result) { results <- r }
	s.Submit(context.Background(), "first", onDone)
	<-started
	s.Submit(context.Background(), "second", onDone)
	last := s.Submit(context.Background(), "third", onDone)
	close(release)

	res := waitResult(t, results)
	assert.Equal(t, last.Generation, res.Generation)
	assert.Equal(t, "third", res.Text)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.Shutdown(ctx))

	mu.Lock()
	defer mu.Unlock()
	assert.NotContains(t, counted, "second")
}

func TestSubmit_RequestContextCancelledAfterStart(t *testing.T) {
	s := newTestService(t, DefaultConfig())
	started, release := blockFirst(s)

	ctx, cancel := context.WithCancel(context.Background())
	results := make(chan Result, 1)
	s.Submit(ctx, "abc", func(r Result) { results <- r })
	<-started
	cancel()
	close(release)

	res := waitResult(t, results)
	assert.Len(t, res.Observations, 3)
}

func TestSubmit_AfterShutdownIsRejected(t *testing.T) {
	s := newTestService(t, DefaultConfig())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.Shutdown(ctx))

	called := false
	s.Submit(context.Background(), "abc", func(Result) { called = true })
	assert.False(t, called)
}

func TestShutdown_TimesOutWhileWorkerRuns(t *testing.T) {
	s := NewService(DefaultConfig(), discardLogger()).(*service)

	started := make(chan struct{})
	release := make(chan struct{})
	s.count = func(text string, limits entity.Limits) []entity.Observation {
		close(started)
		<-release
		return frequency.CountWithLimits(text, limits)
	}
	s.Submit(context.Background(), "abc", nil)
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, s.Shutdown(ctx), context.DeadlineExceeded)

	close(release)
	require.NoError(t, s.Shutdown(context.Background()))
}
