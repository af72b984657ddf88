package ticker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type countingStore struct {
	calls atomic.Int64
	err   error
}

func (s *countingStore) IncrementWait(context.Context) (int, error) {
	s.calls.Add(1)
	return 1, s.err
}

func TestTickerFiresAllTargets(t *testing.T) {
	a := &countingStore{}
	b := &countingStore{}
	tick := New(5*time.Millisecond, zerolog.Nop(),
		Target{Name: "a", Store: a},
		Target{Name: "b", Store: b},
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		tick.Run(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for a.calls.Load() < 3 || b.calls.Load() < 3 {
		select {
		case <-deadline:
			t.Fatalf("targets not fired enough: a=%d b=%d", a.calls.Load(), b.calls.Load())
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("ticker did not stop on cancel")
	}
}

func TestTickerContinuesPastFailingTarget(t *testing.T) {
	failing := &countingStore{err: errors.New("boom")}
	healthy := &countingStore{}
	tick := New(time.Hour, zerolog.Nop(),
		Target{Name: "failing", Store: failing},
		Target{Name: "healthy", Store: healthy},
	)

	tick.fire(context.Background())

	if failing.calls.Load() != 1 || healthy.calls.Load() != 1 {
		t.Errorf("calls = %d/%d, want both targets fired", failing.calls.Load(), healthy.calls.Load())
	}
}
