package circuitbreaker

import (
	"errors"
	"testing"
	"time"
)

var errBoom = errors.New("boom")

func failing() error { return errBoom }
func succeeding() error { return nil }

func TestOpensAfterThreshold(t *testing.T) {
	cb := New(Config{Name: "t1", FailureThreshold: 3, Timeout: time.Hour})

	for i := 0; i < 3; i++ {
		if err := cb.Call(failing); !errors.Is(err, errBoom) {
			t.Fatalf("call %d: expected boom, got %v", i, err)
		}
	}
	if cb.State() != StateOpen {
		t.Fatalf("expected open state, got %v", cb.State())
	}
	if err := cb.Call(succeeding); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}
}

func TestSuccessResetsFailureCount(t *testing.T) {
	cb := New(Config{Name: "t2", FailureThreshold: 3, Timeout: time.Hour})

	cb.Call(failing)
	cb.Call(failing)
	cb.Call(succeeding)
	cb.Call(failing)
	cb.Call(failing)

	if cb.State() != StateClosed {
		t.Fatalf("expected closed state after interleaved success, got %v", cb.State())
	}
}

func TestHalfOpenProbeClosesAfterSuccesses(t *testing.T) {
	cb := New(Config{Name: "t3", FailureThreshold: 1, SuccessThreshold: 2, Timeout: time.Millisecond})

	cb.Call(failing)
	if cb.State() != StateOpen {
		t.Fatalf("expected open, got %v", cb.State())
	}

	time.Sleep(5 * time.Millisecond)

	if err := cb.Call(succeeding); err != nil {
		t.Fatalf("expected probe to pass, got %v", err)
	}
	if cb.State() != StateHalfOpen {
		t.Fatalf("expected half-open after one success, got %v", cb.State())
	}
	if err := cb.Call(succeeding); err != nil {
		t.Fatalf("expected second probe to pass, got %v", err)
	}
	if cb.State() != StateClosed {
		t.Fatalf("expected closed after success threshold, got %v", cb.State())
	}
}

func TestHalfOpenProbeFailureReopens(t *testing.T) {
	cb := New(Config{Name: "t4", FailureThreshold: 1, Timeout: time.Millisecond})

	cb.Call(failing)
	time.Sleep(5 * time.Millisecond)

	if err := cb.Call(failing); !errors.Is(err, errBoom) {
		t.Fatalf("expected boom from probe, got %v", err)
	}
	if cb.State() != StateOpen {
		t.Fatalf("expected reopened circuit, got %v", cb.State())
	}
}
