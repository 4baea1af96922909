package scheduler

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"
)

type stubRunner struct {
	advisory time.Duration
	err      error
	runs     int
}

func (r *stubRunner) Run(ctx context.Context) error {
	r.runs++
	return r.err
}

func (r *stubRunner) AdvisoryInterval() time.Duration {
	return r.advisory
}

func at(hour int) time.Time {
	return time.Date(2024, time.May, 10, hour, 30, 0, 0, time.Local)
}

func TestWithinActiveHours(t *testing.T) {
	cases := []struct {
		name     string
		start    int
		end      int
		hour     int
		expected bool
	}{
		{"inside normal window", 6, 22, 12, true},
		{"at window start", 6, 22, 6, true},
		{"at window end", 6, 22, 22, false},
		{"before window", 6, 22, 5, false},
		{"after window", 6, 22, 23, false},
		{"equal hours means always on", 0, 0, 3, true},
		{"wrap window late evening", 22, 6, 23, true},
		{"wrap window early morning", 22, 6, 5, true},
		{"wrap window daytime", 22, 6, 12, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := New(&stubRunner{}, time.Hour, time.Hour, tc.start, tc.end, zap.NewNop())
			if got := s.withinActiveHours(at(tc.hour)); got != tc.expected {
				t.Fatalf("hour %d in [%d,%d): expected %v, got %v",
					tc.hour, tc.start, tc.end, tc.expected, got)
			}
		})
	}
}

func TestNextDelayClampsToBase(t *testing.T) {
	base := 30 * time.Minute
	cases := []struct {
		name     string
		advisory time.Duration
		expected time.Duration
	}{
		{"advisory below base", 10 * time.Minute, 10 * time.Minute},
		{"advisory equals base", base, base},
		{"advisory above base", 4 * time.Hour, base},
		{"zero advisory", 0, base},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := New(&stubRunner{advisory: tc.advisory}, base, time.Hour, 0, 0, zap.NewNop())
			if got := s.nextDelay(); got != tc.expected {
				t.Fatalf("expected %s, got %s", tc.expected, got)
			}
		})
	}
}

func TestStartSkipsOutsideActiveHours(t *testing.T) {
	runner := &stubRunner{}
	s := New(runner, time.Millisecond, time.Hour, 6, 22, zap.NewNop())
	s.now = func() time.Time { return at(3) }

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	s.Start(ctx)

	if runner.runs != 0 {
		t.Fatalf("expected no runs outside active hours, got %d", runner.runs)
	}
}

func TestStartRunsWithinActiveHours(t *testing.T) {
	runner := &stubRunner{advisory: time.Millisecond}
	s := New(runner, time.Millisecond, time.Hour, 6, 22, zap.NewNop())
	s.now = func() time.Time { return at(12) }

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	s.Start(ctx)

	if runner.runs == 0 {
		t.Fatal("expected at least one run within active hours")
	}
}

func TestStartStopsOnCancelledRun(t *testing.T) {
	runner := &stubRunner{err: context.Canceled}
	s := New(runner, time.Millisecond, time.Hour, 0, 0, zap.NewNop())

	done := make(chan struct{})
	go func() {
		s.Start(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop after a cancelled run")
	}
	if runner.runs != 1 {
		t.Fatalf("expected exactly one run, got %d", runner.runs)
	}
}
