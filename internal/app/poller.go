package app

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/five82/basecamp/internal/feed"
	"github.com/five82/basecamp/internal/state"
)

const (
	defaultPollInterval = 30 * time.Second
	maxBackoff          = 5 * time.Minute
)

// Collections is what the poller refreshes.
type Collections interface {
	Treks(ctx context.Context, force bool) ([]feed.TrekCard, error)
	Community(ctx context.Context, force bool) ([]feed.PostCard, error)
}

// StartPoller launches a background goroutine that refreshes the store. After
// consecutive failures the wait grows exponentially up to maxBackoff. It
// returns immediately.
func StartPoller(ctx context.Context, store *state.Store, source Collections, interval time.Duration) {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	go func() {
		timer := time.NewTimer(0)
		defer timer.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-timer.C:
			}
			refresh(ctx, store, source)
			timer.Reset(calculateBackoff(store.Snapshot().ConsecutiveFailures, interval))
		}
	}()
}

func refresh(ctx context.Context, store *state.Store, source Collections) {
	treks, trekErr := source.Treks(ctx, true)
	posts, postErr := source.Community(ctx, true)
	if err := errors.Join(trekErr, postErr); err != nil {
		if ctx.Err() != nil {
			return
		}
		store.Update(nil, nil, err)
		log.Printf("refresh failed: %v", err)
		return
	}
	store.Update(treks, posts, nil)
}

// calculateBackoff doubles base for every consecutive failure, capped at
// maxBackoff.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if failures <= 0 {
		return base
	}
	wait := base
	for i := 0; i < failures; i++ {
		wait *= 2
		if wait >= maxBackoff {
			return maxBackoff
		}
	}
	return wait
}
