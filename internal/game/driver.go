package game

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Driver is the expiry-check poller: on every tick it sweeps the
// active quizzes and invokes CheckTimers for each. The checks are
// idempotent, so overlapping or late sweeps are harmless.
type Driver struct {
	service  *GameService
	clock    clockwork.Clock
	interval time.Duration
	parallel int
}

func NewDriver(service *GameService, clock clockwork.Clock, interval time.Duration) *Driver {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if interval <= 0 {
		interval = time.Second
	}
	return &Driver{
		service:  service,
		clock:    clock,
		interval: interval,
		parallel: 8,
	}
}

// Run sweeps until the context is cancelled.
func (d *Driver) Run(ctx context.Context) error {
	ticker := d.clock.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.Chan():
			d.Sweep(ctx)
		}
	}
}

// Sweep runs one expiry pass over every active quiz. Quizzes are
// independent aggregates, so the checks run concurrently.
func (d *Driver) Sweep(ctx context.Context) {
	ids, err := d.service.ActiveQuizIDs(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("expiry sweep: listing active quizzes failed")
		return
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(d.parallel)
	for _, id := range ids {
		id := id
		g.Go(func() error {
			if err := d.service.CheckTimers(ctx, id); err != nil {
				log.Warn().Err(err).Str("quiz_id", id).Msg("expiry check failed")
			}
			return nil
		})
	}
	_ = g.Wait()
}
