package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/five82/journey/internal/api"
	"github.com/five82/journey/internal/journey"
	"github.com/five82/journey/internal/progress"
	"github.com/five82/journey/internal/state"
)

const (
	defaultPollInterval = 30 * time.Second
	maxBackoff          = 30 * time.Second
	maxParallelFetches  = 4
)

// StartPoller launches a background goroutine that refreshes the store,
// backing off after consecutive failures. It returns immediately; the
// returned channel is closed when polling stops. Polling stops when ctx is
// cancelled or the session is no longer authenticated.
func StartPoller(ctx context.Context, store *state.Store, client api.JourneyService, interval time.Duration, logger *zap.Logger) <-chan struct{} {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		failures := 0
		for {
			err := Refresh(ctx, store, client)
			if ctx.Err() != nil {
				return
			}
			switch {
			case api.IsAuthenticationRequired(err):
				store.Reset(err)
				logger.Warn("session expired; polling stopped", zap.Error(err))
				return
			case err != nil:
				failures++
				logger.Warn("refresh failed", zap.Error(err), zap.Int("consecutive_failures", failures))
			default:
				failures = 0
			}

			timer := time.NewTimer(calculateBackoff(failures, interval))
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}
		}
	}()
	return done
}

// calculateBackoff doubles base for each consecutive failure, capped at
// maxBackoff (or base, when base is already larger).
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if failures <= 0 {
		return base
	}
	limit := max(maxBackoff, base)
	d := base
	for i := 0; i < failures; i++ {
		d *= 2
		if d >= limit {
			return limit
		}
	}
	return d
}

// Refresh fetches every journey, then progress for the active ones and
// locations for those that can be interpolated. Per-journey fetches run in
// parallel; the first failure cancels the rest and is recorded in store.
func Refresh(ctx context.Context, store *state.Store, client api.JourneyService) error {
	list, err := client.FetchAllJourneys(ctx)
	if err != nil {
		store.Update(nil, err)
		return err
	}

	view := &state.View{
		Journeys:  list,
		Progress:  make(map[int64]journey.JourneyProgress),
		Locations: make(map[int64]journey.ProgressLocation),
	}
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelFetches)

	for _, j := range progress.Categorize(list).Active {
		g.Go(func() error {
			p, err := client.FetchJourneyProgress(gctx, j.ID)
			if err != nil {
				return fmt.Errorf("journey %d progress: %w", j.ID, err)
			}
			mu.Lock()
			view.Progress[j.ID] = p
			mu.Unlock()
			return nil
		})
		if !progress.InterpolationEligible(j) {
			continue
		}
		g.Go(func() error {
			loc, err := client.FetchProgressLocation(gctx, j.ID)
			if err != nil {
				return fmt.Errorf("journey %d location: %w", j.ID, err)
			}
			mu.Lock()
			view.Locations[j.ID] = loc
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		store.Update(nil, err)
		return err
	}
	store.Update(view, nil)
	return nil
}
