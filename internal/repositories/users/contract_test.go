package users

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"

	"github.com/dmitrijs2005/usersync/internal/common"
	"github.com/dmitrijs2005/usersync/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE users (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    username TEXT NOT NULL,
    account TEXT NOT NULL UNIQUE,
    secret TEXT NOT NULL
);
`

func setupSQLite(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(sqliteSchema)
	require.NoError(t, err)
	return db
}

var implementations = map[string]func(t *testing.T) Repository{
	"sqlite": func(t *testing.T) Repository { return NewSQLiteRepository(setupSQLite(t)) },
	"memory": func(t *testing.T) Repository { return NewMemoryRepository() },
}

func forEachRepo(t *testing.T, fn func(t *testing.T, r Repository)) {
	for name, mk := range implementations {
		t.Run(name, func(t *testing.T) {
			fn(t, mk(t))
		})
	}
}

func TestRepository_InsertIfAbsent(t *testing.T) {
	forEachRepo(t, func(t *testing.T, r Repository) {
		ctx := context.Background()
		alice := models.UserRecord{Username: "alice", Account: "a1", Secret: "s1"}

		ok, err := r.InsertIfAbsent(ctx, alice)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = r.InsertIfAbsent(ctx, models.UserRecord{Username: "other", Account: "a1", Secret: "x"})
		require.NoError(t, err)
		assert.False(t, ok, "duplicate account must not be inserted")

		got, err := r.FindByAccount(ctx, "a1")
		require.NoError(t, err)
		assert.Equal(t, alice, got, "existing record must not be overwritten")

		exists, err := r.Exists(ctx, "a1")
		require.NoError(t, err)
		assert.True(t, exists)

		exists, err = r.Exists(ctx, "nope")
		require.NoError(t, err)
		assert.False(t, exists)
	})
}

func TestRepository_UsernameIsNotUnique(t *testing.T) {
	forEachRepo(t, func(t *testing.T, r Repository) {
		ctx := context.Background()
		for _, acc := range []string{"a1", "a2"} {
			ok, err := r.InsertIfAbsent(ctx, models.UserRecord{Username: "alice", Account: acc, Secret: "s"})
			require.NoError(t, err)
			require.True(t, ok)
		}

		n, err := r.UpdateSecret(ctx, "alice", "new")
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)

		list, err := r.List(ctx)
		require.NoError(t, err)
		for _, u := range list {
			assert.Equal(t, "new", u.Secret)
		}
	})
}

func TestRepository_DeleteIsIdempotent(t *testing.T) {
	forEachRepo(t, func(t *testing.T, r Repository) {
		ctx := context.Background()
		_, err := r.InsertIfAbsent(ctx, models.UserRecord{Username: "bob", Account: "b1", Secret: "s"})
		require.NoError(t, err)

		n, err := r.Delete(ctx, "bob")
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		n, err = r.Delete(ctx, "bob")
		require.NoError(t, err)
		assert.Equal(t, int64(0), n)

		_, err = r.FindByAccount(ctx, "b1")
		assert.ErrorIs(t, err, common.ErrorNotFound)

		// the account is free again after deletion
		ok, err := r.InsertIfAbsent(ctx, models.UserRecord{Username: "bob2", Account: "b1", Secret: "s"})
		require.NoError(t, err)
		assert.True(t, ok)
	})
}

func TestRepository_ListPreservesInsertionOrder(t *testing.T) {
	forEachRepo(t, func(t *testing.T, r Repository) {
		ctx := context.Background()
		in := []models.UserRecord{
			{Username: "carol", Account: "c1", Secret: "s3"},
			{Username: "alice", Account: "a1", Secret: "s1"},
			{Username: "bob", Account: "b1", Secret: "s2"},
		}
		for _, u := range in {
			_, err := r.InsertIfAbsent(ctx, u)
			require.NoError(t, err)
		}

		_, err := r.Delete(ctx, "alice")
		require.NoError(t, err)

		got, err := r.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, []models.UserRecord{in[0], in[2]}, got)
	})
}

func TestRepository_Clear(t *testing.T) {
	forEachRepo(t, func(t *testing.T, r Repository) {
		ctx := context.Background()
		empty, err := r.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, empty)

		for _, acc := range []string{"a1", "a2", "a3"} {
			_, err := r.InsertIfAbsent(ctx, models.UserRecord{Username: acc, Account: acc, Secret: "s"})
			require.NoError(t, err)
		}
		n, err := r.Clear(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(3), n)

		exists, err := r.Exists(ctx, "a2")
		require.NoError(t, err)
		assert.False(t, exists)
	})
}

func TestRepository_ConcurrentInsertsKeepAccountUnique(t *testing.T) {
	forEachRepo(t, func(t *testing.T, r Repository) {
		ctx := context.Background()
		const workers = 8

		var wg sync.WaitGroup
		results := make(chan bool, workers)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				ok, err := r.InsertIfAbsent(ctx, models.UserRecord{Username: "race", Account: "r1", Secret: "s"})
				assert.NoError(t, err)
				results <- ok
			}()
		}
		wg.Wait()
		close(results)

		wins := 0
		for ok := range results {
			if ok {
				wins++
			}
		}
		assert.Equal(t, 1, wins)

		list, err := r.List(ctx)
		require.NoError(t, err)
		assert.Len(t, list, 1)
	})
}

func TestSQLRepository_BatchCommits(t *testing.T) {
	ctx := context.Background()
	r := NewSQLiteRepository(setupSQLite(t))

	err := r.Batch(ctx, func(ctx context.Context, tx Repository) error {
		for _, acct := range []string{"a1", "a2"} {
			if _, err := tx.InsertIfAbsent(ctx, models.UserRecord{Username: "u", Account: acct, Secret: "s"}); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)

	list, err := r.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestSQLRepository_BatchRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	r := NewSQLiteRepository(setupSQLite(t))

	err := r.Batch(ctx, func(ctx context.Context, tx Repository) error {
		if _, err := tx.InsertIfAbsent(ctx, models.UserRecord{Username: "u", Account: "a1", Secret: "s"}); err != nil {
			return err
		}
		return errors.New("stop")
	})
	require.EqualError(t, err, "stop")

	ok, err := r.Exists(ctx, "a1")
	require.NoError(t, err)
	assert.False(t, ok)
}
