package orchestrator

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

// TestIsRetryable verifies classification through wrapping.
func TestIsRetryable(t *testing.T) {
	plain := errors.New("plain failure")
	transient := retryable(errors.New("try again"))

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain error", plain, false},
		{"marked transient", transient, true},
		{"transient wrapped again", fmt.Errorf("cycle 3: %w", transient), true},
		{"plain wrapped", fmt.Errorf("cycle 3: %w", plain), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.want {
				t.Errorf("IsRetryable() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestRetryableUnwrap verifies that the underlying cause stays reachable
// for errors.Is checks.
func TestRetryableUnwrap(t *testing.T) {
	sentinel := errors.New("sentinel")
	err := retryable(fmt.Errorf("outer: %w", sentinel))

	if !errors.Is(err, sentinel) {
		t.Error("sentinel not reachable through Retryable")
	}
	if got := cause(err); IsRetryable(got) {
		t.Error("cause() left the transient marker in place")
	}
}

// TestDo_TransientThenSuccess verifies the backoff schedule and that a
// later success clears earlier transient failures.
func TestDo_TransientThenSuccess(t *testing.T) {
	p := RetryPolicy{MaxRetries: 3, InitialDelay: time.Second, Multiplier: 2.0}
	var sleeps []time.Duration
	calls := 0

	err := p.Do("step", testLogger(), func(d time.Duration) { sleeps = append(sleeps, d) }, func() error {
		calls++
		if calls < 3 {
			return retryable(errors.New("busy"))
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Do() error: %v", err)
	}
	if calls != 3 {
		t.Errorf("fn called %d times, want 3", calls)
	}
	want := []time.Duration{time.Second, 2 * time.Second}
	if len(sleeps) != len(want) || sleeps[0] != want[0] || sleeps[1] != want[1] {
		t.Errorf("sleeps = %v, want %v", sleeps, want)
	}
}

// TestDo_TerminalStopsImmediately verifies that a non-retryable error
// returns on the first attempt, unchanged.
func TestDo_TerminalStopsImmediately(t *testing.T) {
	p := RetryPolicy{MaxRetries: 3, InitialDelay: time.Second, Multiplier: 2.0}
	sentinel := errors.New("bad content")
	calls := 0

	err := p.Do("step", testLogger(), func(time.Duration) {}, func() error {
		calls++
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Errorf("Do() error = %v, want sentinel", err)
	}
	if calls != 1 {
		t.Errorf("fn called %d times, want 1", calls)
	}
}

// TestDo_ExhaustionUnmarksTransient verifies that running out of budget
// surfaces a terminal error with the attempt count.
func TestDo_ExhaustionUnmarksTransient(t *testing.T) {
	p := RetryPolicy{MaxRetries: 2, InitialDelay: time.Second, Multiplier: 2.0}
	calls := 0

	err := p.Do("step", testLogger(), func(time.Duration) {}, func() error {
		calls++
		return retryable(errors.New("busy"))
	})
	if err == nil {
		t.Fatal("expected error after exhausted budget")
	}
	if IsRetryable(err) {
		t.Error("exhausted error is still marked retryable")
	}
	if calls != 3 {
		t.Errorf("fn called %d times, want 3", calls)
	}
	if !strings.Contains(err.Error(), "after 3 attempts") {
		t.Errorf("error = %q, want attempt count in message", err)
	}
}

// TestDefaultRetryPolicy pins the default backoff schedule.
func TestDefaultRetryPolicy(t *testing.T) {
	p := DefaultRetryPolicy()
	if p.MaxRetries != 3 {
		t.Errorf("MaxRetries = %d, want 3", p.MaxRetries)
	}
	if p.InitialDelay != time.Second {
		t.Errorf("InitialDelay = %s, want 1s", p.InitialDelay)
	}
	if p.Multiplier != 2.0 {
		t.Errorf("Multiplier = %v, want 2.0", p.Multiplier)
	}
}
