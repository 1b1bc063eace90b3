package pipeline

import (
	"context"
	"log"
	"time"

	"github.com/clipforge/clipforge/internal/store"
)

// Reaper recovers projects stranded in processing, e.g. after a crash mid-run.
// Recovered projects land in failed, from where start() may retry them.
type Reaper struct {
	store    store.ProjectStore
	interval time.Duration
	ttl      time.Duration
}

// NewReaper constructs a Reaper that every interval fails runs older than ttl.
func NewReaper(st store.ProjectStore, interval, ttl time.Duration) *Reaper {
	return &Reaper{store: st, interval: interval, ttl: ttl}
}

// Run blocks until the context is cancelled.
func (r *Reaper) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := r.store.FailStale(ctx, r.ttl)
			if err != nil {
				log.Printf("reaper: %v", err)
				continue
			}
			if n > 0 {
				log.Printf("reaper: failed %d stale processing project(s)", n)
			}
		}
	}
}
