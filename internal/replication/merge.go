package replication

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/usersync/internal/models"
	"github.com/dmitrijs2005/usersync/internal/repositories/users"
)

// MergeStore is the part of the record store the merge needs.
type MergeStore interface {
	Exists(ctx context.Context, account string) (bool, error)
	InsertIfAbsent(ctx context.Context, u models.UserRecord) (bool, error)
}

// MergeStats summarises one merge run.
type MergeStats struct {
	Received  int // tuples returned by the peer
	Added     int
	Existing  int // accounts already present, left untouched
	Malformed int
	Batches   int // chunks of at most limit tuples processed
}

// Merge adds every record from tuples whose account is absent locally.
// Existing records are never updated and nothing is deleted. Tuples are
// processed in chunks of limit; limit <= 0 means a single chunk. ctx is
// checked between chunks. Stores implementing users.Batcher commit each
// chunk in one transaction. A store error stops the merge and is returned
// together with the stats of the chunks already committed.
func Merge(ctx context.Context, store MergeStore, tuples []string, limit int) (MergeStats, error) {
	stats := MergeStats{Received: len(tuples)}
	if limit <= 0 {
		limit = len(tuples)
	}

	for start := 0; start < len(tuples); start += limit {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		chunk := tuples[start:min(start+limit, len(tuples))]

		var cs MergeStats
		var err error
		if b, ok := store.(users.Batcher); ok {
			err = b.Batch(ctx, func(ctx context.Context, tx users.Repository) error {
				cs = MergeStats{}
				return mergeChunk(ctx, tx, chunk, &cs)
			})
		} else {
			err = mergeChunk(ctx, store, chunk, &cs)
		}
		if err != nil {
			return stats, err
		}

		stats.Added += cs.Added
		stats.Existing += cs.Existing
		stats.Malformed += cs.Malformed
		stats.Batches++
	}

	return stats, nil
}

func mergeChunk(ctx context.Context, store MergeStore, chunk []string, stats *MergeStats) error {
	for _, t := range chunk {
		u, ok := models.ParseTuple(t)
		if !ok {
			stats.Malformed++
			continue
		}

		exists, err := store.Exists(ctx, u.Account)
		if err != nil {
			return fmt.Errorf("exists %q: %w", u.Account, err)
		}
		if exists {
			stats.Existing++
			continue
		}

		// a concurrent insert may take the slot between the check and here
		added, err := store.InsertIfAbsent(ctx, u)
		if err != nil {
			return fmt.Errorf("insert %q: %w", u.Account, err)
		}
		if added {
			stats.Added++
		} else {
			stats.Existing++
		}
	}
	return nil
}
