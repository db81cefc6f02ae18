package resilience

import (
	"errors"
	"testing"
	"time"
)

var errUpstream = errors.New("upstream unavailable")

func TestBreakerClosedPassesThrough(t *testing.T) {
	b := NewBreaker(3, time.Second)

	called := false
	if err := b.Execute(func() error { called = true; return nil }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Fatal("call should run while closed")
	}
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	b := NewBreaker(3, time.Second)

	for i := 0; i < 3; i++ {
		if err := b.Execute(func() error { return errUpstream }); !errors.Is(err, errUpstream) {
			t.Fatalf("expected upstream error, got %v", err)
		}
	}

	if err := b.Execute(func() error { return nil }); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}
}

func TestBreakerRecoversThroughHalfOpen(t *testing.T) {
	now := time.Now()
	b := NewBreaker(2, time.Second)
	b.now = func() time.Time { return now }

	_ = b.Execute(func() error { return errUpstream })
	_ = b.Execute(func() error { return errUpstream })

	if err := b.Execute(func() error { return nil }); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("breaker should still be open, got %v", err)
	}

	now = now.Add(2 * time.Second)

	// Half-open admits one probe; its success closes the circuit.
	if err := b.Execute(func() error { return nil }); err != nil {
		t.Fatalf("probe should run after timeout, got %v", err)
	}
	if err := b.Execute(func() error { return nil }); err != nil {
		t.Fatalf("circuit should be closed again, got %v", err)
	}
}

func TestBreakerReopensOnHalfOpenFailure(t *testing.T) {
	now := time.Now()
	b := NewBreaker(2, time.Second)
	b.now = func() time.Time { return now }

	_ = b.Execute(func() error { return errUpstream })
	_ = b.Execute(func() error { return errUpstream })

	now = now.Add(2 * time.Second)
	_ = b.Execute(func() error { return errUpstream })

	if err := b.Execute(func() error { return nil }); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("failed probe should reopen the circuit, got %v", err)
	}
}

func TestBreakerSuccessResetsCount(t *testing.T) {
	b := NewBreaker(3, time.Second)

	_ = b.Execute(func() error { return errUpstream })
	_ = b.Execute(func() error { return errUpstream })
	_ = b.Execute(func() error { return nil })
	_ = b.Execute(func() error { return errUpstream })
	_ = b.Execute(func() error { return errUpstream })

	if err := b.Execute(func() error { return nil }); err != nil {
		t.Fatalf("two failures after a success must not trip a threshold of three: %v", err)
	}
}
