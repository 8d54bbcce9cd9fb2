package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"

	"github.com/brandops/brandpanel/internal/domain/model"
	"github.com/brandops/brandpanel/internal/domain/port/driven"
)

// SyncTarget names one location whose reviews are kept in sync.
type SyncTarget struct {
	Account  string
	Location string
}

// refreshRequest represents a manual sync trigger for one target.
type refreshRequest struct {
	target SyncTarget
	done   chan error
}

// maxSyncRetries bounds the backoff retries of one target within a cycle.
const maxSyncRetries = 3

// SyncService periodically pulls reviews for the configured locations and
// persists the snapshots. Only transient and rate-limited failures are
// retried, with exponential backoff; everything else is logged and left for
// the next cycle, since it needs a credential or configuration fix rather
// than patience.
type SyncService struct {
	provider  *ClientProvider
	reviews   driven.ReviewStore
	targets   []SyncTarget
	interval  time.Duration
	refreshCh chan refreshRequest

	// newBackoff builds the retry policy for one target. Tests replace it to
	// avoid real delays.
	newBackoff func() backoff.BackOff
}

// NewSyncService creates a SyncService with all required dependencies.
func NewSyncService(provider *ClientProvider, reviews driven.ReviewStore, targets []SyncTarget, interval time.Duration) *SyncService {
	return &SyncService{
		provider:  provider,
		reviews:   reviews,
		targets:   targets,
		interval:  interval,
		refreshCh: make(chan refreshRequest),
		newBackoff: func() backoff.BackOff {
			return backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxSyncRetries)
		},
	}
}

// Start begins the sync loop: an immediate cycle, then one per interval. It
// also listens for manual refresh requests. Start blocks until the context
// is canceled.
func (s *SyncService) Start(ctx context.Context) {
	s.syncAll(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("sync service stopped")
			return
		case <-ticker.C:
			s.syncAll(ctx)
		case req := <-s.refreshCh:
			req.done <- s.syncTarget(ctx, req.target)
		}
	}
}

// RefreshTarget triggers a manual sync for one location, bypassing the
// interval. It blocks until the sync completes or the context is canceled.
func (s *SyncService) RefreshTarget(ctx context.Context, target SyncTarget) error {
	done := make(chan error, 1)

	select {
	case s.refreshCh <- refreshRequest{target: target, done: done}:
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// syncAll runs one cycle across every configured target. A failing target
// does not stop the cycle.
func (s *SyncService) syncAll(ctx context.Context) {
	if len(s.targets) == 0 {
		return
	}

	runID := uuid.NewString()
	start := time.Now()
	failures := 0

	for _, target := range s.targets {
		if ctx.Err() != nil {
			return
		}
		if err := s.syncTarget(ctx, target); err != nil {
			failures++
			slog.Error("review sync failed",
				"run_id", runID,
				"account", target.Account,
				"location", target.Location,
				"error", err,
			)
		}
	}

	slog.Info("review sync cycle complete",
		"run_id", runID,
		"targets", len(s.targets),
		"failures", failures,
		"elapsed", time.Since(start).Round(time.Millisecond),
	)
}

// syncTarget fetches and stores one location's reviews, retrying only
// retryable classifications.
func (s *SyncService) syncTarget(ctx context.Context, target SyncTarget) error {
	client := s.provider.Get()
	if client == nil {
		return fmt.Errorf("no vendor client configured")
	}

	op := func() error {
		reviews, err := client.ListReviews(ctx, target.Account, target.Location)
		if err != nil {
			if model.IsRetryable(err) {
				return err
			}
			return backoff.Permanent(err)
		}
		if err := s.reviews.Upsert(ctx, reviews); err != nil {
			return backoff.Permanent(err)
		}
		slog.Debug("reviews synced",
			"account", target.Account,
			"location", target.Location,
			"count", len(reviews),
		)
		return nil
	}

	policy := backoff.WithContext(s.newBackoff(), ctx)
	return backoff.Retry(op, policy)
}
