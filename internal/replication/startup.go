package replication

import (
	"context"
	"time"

	"github.com/dmitrijs2005/usersync/internal/models"
)

// Pull fetches the peer's records and merges them into the local store.
// Concurrent calls are serialized. When anything was added a
// StartupSyncCompleted event is published.
func (s *Service) Pull(ctx context.Context) (MergeStats, error) {
	s.pullMu.Lock()
	defer s.pullMu.Unlock()

	var stats MergeStats
	err := s.withPeer(ctx, "pull", func(ctx context.Context, peer Contract) error {
		tuples, err := peer.ListAllRecords(ctx)
		if err != nil {
			return err
		}
		stats, err = Merge(ctx, s.repo, tuples, s.opts.MaxBatchSize)
		return err
	})

	if stats.Malformed > 0 {
		s.log.Warn(ctx, "skipped malformed records", "count", stats.Malformed)
	}
	if stats.Added > 0 {
		s.publish(models.OpStartupSyncCompleted, models.OriginLocal, models.StartupSyncSubject(stats.Added))
	}

	if err != nil {
		return stats, err
	}

	s.log.Info(ctx, "pull finished",
		"received", stats.Received, "added", stats.Added, "existing", stats.Existing, "batches", stats.Batches)
	return stats, nil
}

// StartupSync waits for the settle delay and then pulls once. It runs at
// most once per Service; later calls return ErrStartupSyncDone. Peer and
// merge failures are logged and not returned; only cancellation is.
func (s *Service) StartupSync(ctx context.Context) (MergeStats, error) {
	if !s.startupDone.CompareAndSwap(false, true) {
		return MergeStats{}, ErrStartupSyncDone
	}

	timer := time.NewTimer(s.opts.StartupSyncDelay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return MergeStats{}, ctx.Err()
	case <-timer.C:
	}

	stats, err := s.Pull(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return stats, ctx.Err()
		}
		s.log.Warn(ctx, "startup sync skipped", "error", err)
		return stats, nil
	}
	return stats, nil
}
