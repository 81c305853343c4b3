package replication

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/usersync/internal/cryptox"
	"github.com/dmitrijs2005/usersync/internal/logging"
	"github.com/dmitrijs2005/usersync/internal/models"
	"github.com/dmitrijs2005/usersync/internal/repositories/users"
)

var testHasher = cryptox.NewHasher(cryptox.Params{Time: 1, Memory: 8 * 1024, Threads: 1})

// recorder is a synchronous Publisher.
type recorder struct {
	mu     sync.Mutex
	events []models.SyncEvent
}

func (r *recorder) Publish(ev models.SyncEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Action())
	}
	return out
}

// countingEndpoint forwards to a peer Contract and counts calls.
type countingEndpoint struct {
	Contract
	conn *fakeConnector
}

func (e *countingEndpoint) Close() error {
	e.conn.closes.Add(1)
	return nil
}

func (e *countingEndpoint) NotifyUserCreated(ctx context.Context, username, account, secret string) error {
	e.conn.calls.Add(1)
	return e.Contract.NotifyUserCreated(ctx, username, account, secret)
}

func (e *countingEndpoint) NotifyUserDeleted(ctx context.Context, username string) error {
	e.conn.calls.Add(1)
	return e.Contract.NotifyUserDeleted(ctx, username)
}

func (e *countingEndpoint) NotifySecretChanged(ctx context.Context, username, secret string) error {
	e.conn.calls.Add(1)
	return e.Contract.NotifySecretChanged(ctx, username, secret)
}

func (e *countingEndpoint) ListAllRecords(ctx context.Context) ([]string, error) {
	e.conn.calls.Add(1)
	return e.Contract.ListAllRecords(ctx)
}

// fakeConnector hands out endpoints bound to peer, or fails to bind when
// peer is nil.
type fakeConnector struct {
	peer     Contract
	connects atomic.Int32
	closes   atomic.Int32
	calls    atomic.Int32
}

var errBindRefused = errors.New("bind refused")

func (c *fakeConnector) Connect(ctx context.Context) (Endpoint, error) {
	c.connects.Add(1)
	if c.peer == nil {
		return nil, errBindRefused
	}
	return &countingEndpoint{Contract: c.peer, conn: c}, nil
}

// side is one process: a store, a service and its event recorder.
type side struct {
	repo *users.MemoryRepository
	svc  *Service
	rec  *recorder
	conn *fakeConnector
}

func newSide(t *testing.T, opts Options, seed ...models.UserRecord) *side {
	t.Helper()
	s := &side{
		repo: users.NewMemoryRepository(seed...),
		rec:  &recorder{},
		conn: &fakeConnector{},
	}
	if opts.StartupSyncDelay == 0 {
		opts.StartupSyncDelay = time.Millisecond
	}
	s.svc = NewService(s.repo, testHasher, s.rec, s.conn, logging.Nop{}, opts)
	return s
}

// link makes a push or pull from a reach b.
func link(a, b *side) {
	a.conn.peer = b.svc
}

func accounts(t *testing.T, r users.Repository) map[string]models.UserRecord {
	t.Helper()
	list, err := r.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	out := make(map[string]models.UserRecord, len(list))
	for _, u := range list {
		out[u.Account] = u
	}
	return out
}

// failingRepo fails every write.
type failingRepo struct {
	*users.MemoryRepository
}

var errDiskFull = errors.New("disk full")

func (failingRepo) InsertIfAbsent(context.Context, models.UserRecord) (bool, error) {
	return false, errDiskFull
}

func (failingRepo) Delete(context.Context, string) (int64, error) {
	return 0, errDiskFull
}

func (failingRepo) UpdateSecret(context.Context, string, string) (int64, error) {
	return 0, errDiskFull
}
