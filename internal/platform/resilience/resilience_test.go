package resilience

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestBreakerTripsAfterThreshold(t *testing.T) {
	b := NewBreaker(BreakerSettings{FailureThreshold: 3, Cooldown: time.Minute})
	fail := errors.New("boom")

	for i := 0; i < 3; i++ {
		if err := b.Allow(); err != nil {
			t.Fatalf("call %d rejected while closed: %v", i, err)
		}
		b.Observe(fail)
	}

	if err := b.Allow(); !errors.Is(err, ErrBreakerOpen) {
		t.Fatalf("expected open breaker, got %v", err)
	}
}

func TestBreakerRecoversThroughHalfOpen(t *testing.T) {
	now := time.Unix(1700000000, 0)
	b := NewBreaker(BreakerSettings{FailureThreshold: 1, Cooldown: 10 * time.Second, HalfOpenProbes: 1})
	b.clock = func() time.Time { return now }

	if err := b.Allow(); err != nil {
		t.Fatalf("unexpected rejection: %v", err)
	}
	b.Observe(errors.New("boom"))
	if err := b.Allow(); !errors.Is(err, ErrBreakerOpen) {
		t.Fatal("breaker should be open")
	}

	now = now.Add(11 * time.Second)
	if err := b.Allow(); err != nil {
		t.Fatalf("probe should be admitted: %v", err)
	}
	if err := b.Allow(); !errors.Is(err, ErrBreakerOpen) {
		t.Fatal("second probe should be rejected")
	}
	b.Observe(nil)

	if got := b.State(); got != BreakerClosed {
		t.Fatalf("state = %s, want closed", got)
	}
	if err := b.Allow(); err != nil {
		t.Fatalf("closed breaker rejected call: %v", err)
	}
}

func TestBreakerFailedProbeReopens(t *testing.T) {
	now := time.Unix(1700000000, 0)
	b := NewBreaker(BreakerSettings{FailureThreshold: 1, Cooldown: 10 * time.Second})
	b.clock = func() time.Time { return now }

	b.Allow()
	b.Observe(errors.New("boom"))
	now = now.Add(11 * time.Second)
	b.Allow()
	b.Observe(errors.New("still down"))

	if err := b.Allow(); !errors.Is(err, ErrBreakerOpen) {
		t.Fatal("breaker should reopen after failed probe")
	}
}

func TestFlightCollapsesConcurrentCalls(t *testing.T) {
	var f Flight[int]
	var executions atomic.Int32
	release := make(chan struct{})

	var wg sync.WaitGroup
	results := make([]int, 10)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err, _ := f.Do("key", func() (int, error) {
				executions.Add(1)
				<-release
				return 42, nil
			})
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			results[i] = v
		}(i)
	}

	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if got := executions.Load(); got != 1 {
		t.Fatalf("executions = %d, want 1", got)
	}
	for i, v := range results {
		if v != 42 {
			t.Fatalf("result %d = %d, want 42", i, v)
		}
	}
}

func TestFlightKeysAreIndependent(t *testing.T) {
	var f Flight[string]
	a, _, _ := f.Do("a", func() (string, error) { return "a", nil })
	b, _, _ := f.Do("b", func() (string, error) { return "b", nil })
	if a != "a" || b != "b" {
		t.Fatalf("unexpected results: %q %q", a, b)
	}
}
