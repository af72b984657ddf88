// Package ticker drives wait-time accrual. One background goroutine fires on
// a fixed interval and asks every registered store to bump its waiting
// entries by one minute.
package ticker

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// WaitIncrementer is implemented by stores whose entries accrue wait time.
// IncrementWait returns how many entries were bumped.
type WaitIncrementer interface {
	IncrementWait(ctx context.Context) (int, error)
}

// Target pairs a store with a name for logging.
type Target struct {
	Name  string
	Store WaitIncrementer
}

// Ticker fires all targets on a fixed interval until its context is
// cancelled. Serialization against concurrent mutations is the stores'
// responsibility; the ticker itself is single-threaded.
type Ticker struct {
	interval time.Duration
	targets  []Target
	logger   zerolog.Logger
}

func New(interval time.Duration, logger zerolog.Logger, targets ...Target) *Ticker {
	return &Ticker{interval: interval, targets: targets, logger: logger}
}

// Run blocks until ctx is cancelled. Call it from its own goroutine.
func (t *Ticker) Run(ctx context.Context) {
	tick := time.NewTicker(t.interval)
	defer tick.Stop()

	t.logger.Info().Dur("interval", t.interval).Int("targets", len(t.targets)).Msg("wait ticker started")

	for {
		select {
		case <-ctx.Done():
			t.logger.Info().Msg("wait ticker stopped")
			return
		case <-tick.C:
			t.fire(ctx)
		}
	}
}

func (t *Ticker) fire(ctx context.Context) {
	for _, target := range t.targets {
		n, err := target.Store.IncrementWait(ctx)
		if err != nil {
			t.logger.Error().Err(err).Str("target", target.Name).Msg("wait increment failed")
			continue
		}
		t.logger.Debug().Str("target", target.Name).Int("updated", n).Msg("wait times incremented")
	}
}
