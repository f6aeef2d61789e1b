// Package reconciler repairs mutual likes that never produced a match, which
// happens when the match step of a Like fails after the like was stored.
package reconciler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/oggyb/campus-connect/internal/db"
	"github.com/oggyb/campus-connect/internal/repository"
)

const defaultBatch = 500

// MatchStore is the slice of the match repository the reconciler needs.
type MatchStore interface {
	FindUnmatchedMutualPairs(ctx context.Context, limit int) ([]repository.MutualPair, error)
	CreateIfAbsent(ctx context.Context, a, b string) (*db.Match, bool, error)
}

// Reconciler periodically creates the missing matches.
type Reconciler struct {
	store    MatchStore
	interval time.Duration
	batch    int
	log      *slog.Logger

	quit     chan struct{}
	doneCh   chan struct{}
	stopOnce sync.Once
}

// New creates a Reconciler. A non-positive interval disables the periodic
// worker; RunOnce still works.
func New(store MatchStore, interval time.Duration, log *slog.Logger) *Reconciler {
	return &Reconciler{
		store:    store,
		interval: interval,
		batch:    defaultBatch,
		log:      log,
		quit:     make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start launches the reconciler in a background goroutine. It runs one pass
// right away, then one per interval, until Stop is called or ctx is done.
// A disabled reconciler reports Done immediately.
func (r *Reconciler) Start(ctx context.Context) {
	if !r.Enabled() {
		r.log.Info("reconciler disabled")
		close(r.doneCh)
		return
	}
	go r.run(ctx)
}

// Enabled reports whether Start runs periodic passes.
func (r *Reconciler) Enabled() bool { return r.interval > 0 }

// Stop signals the reconciler to stop and returns immediately.
// Call Done() to wait for it to exit.
func (r *Reconciler) Stop() {
	r.stopOnce.Do(func() { close(r.quit) })
}

// Done returns a channel that is closed when the reconciler has fully stopped.
func (r *Reconciler) Done() <-chan struct{} {
	return r.doneCh
}

func (r *Reconciler) run(ctx context.Context) {
	defer close(r.doneCh)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.pass(ctx)
	for {
		select {
		case <-r.quit:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.pass(ctx)
		}
	}
}

func (r *Reconciler) pass(ctx context.Context) {
	created, err := r.RunOnce(ctx)
	if err != nil {
		r.log.Error("reconciler: pass failed", "err", err)
		return
	}
	if created > 0 {
		r.log.Info("reconciler: repaired missing matches", "count", created)
	}
}

// RunOnce scans up to one batch of mutual likes without a match and creates
// the matches. It returns how many matches it created.
func (r *Reconciler) RunOnce(ctx context.Context) (int, error) {
	pairs, err := r.store.FindUnmatchedMutualPairs(ctx, r.batch)
	if err != nil {
		return 0, err
	}

	created := 0
	for _, p := range pairs {
		_, isNew, err := r.store.CreateIfAbsent(ctx, p.UserA, p.UserB)
		if err != nil {
			r.log.Warn("reconciler: match create failed", "user_a", p.UserA, "user_b", p.UserB, "err", err)
			continue
		}
		if isNew {
			created++
		}
	}
	return created, nil
}
