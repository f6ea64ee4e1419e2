package resilience

import (
	"errors"
	"testing"
	"time"
)

func TestCircuitBreaker_BasicTransitions(t *testing.T) {
	b := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 2, OpenTimeout: 5 * time.Second, HalfOpenMaxReq: 1})

	now := time.Date(2026, 2, 11, 12, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return now }

	var transitions []string
	b.OnStateChange(func(from, to CircuitState) {
		transitions = append(transitions, string(from)+"->"+string(to))
	})

	if err := b.Allow(); err != nil {
		t.Fatalf("expected allow in closed state: %v", err)
	}

	b.RecordFailure()
	if state := b.State(); state != CircuitStateClosed {
		t.Fatalf("expected closed after first failure, got %s", state)
	}

	b.RecordFailure()
	if state := b.State(); state != CircuitStateOpen {
		t.Fatalf("expected open after threshold failures, got %s", state)
	}

	if err := b.Allow(); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected circuit open error, got %v", err)
	}

	now = now.Add(6 * time.Second)
	if err := b.Allow(); err != nil {
		t.Fatalf("expected half-open probe to pass, got %v", err)
	}
	if err := b.Allow(); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected second half-open probe to be rejected, got %v", err)
	}

	b.RecordSuccess()
	if state := b.State(); state != CircuitStateClosed {
		t.Fatalf("expected closed after successful half-open probe, got %s", state)
	}

	want := []string{"closed->open", "open->half_open", "half_open->closed"}
	if len(transitions) != len(want) {
		t.Fatalf("transitions = %v, want %v", transitions, want)
	}
	for i := range want {
		if transitions[i] != want[i] {
			t.Fatalf("transitions = %v, want %v", transitions, want)
		}
	}
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	b := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 1, OpenTimeout: time.Second, HalfOpenMaxReq: 1})
	now := time.Date(2026, 2, 11, 12, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return now }

	b.RecordFailure()
	now = now.Add(2 * time.Second)
	if err := b.Allow(); err != nil {
		t.Fatalf("expected probe to pass, got %v", err)
	}
	b.RecordFailure()
	if err := b.Allow(); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected reopened breaker, got %v", err)
	}
}
