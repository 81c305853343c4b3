package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/dmitrijs2005/usersync/internal/logging"
	"github.com/dmitrijs2005/usersync/internal/models"
	"github.com/dmitrijs2005/usersync/internal/replication"
	"github.com/dmitrijs2005/usersync/internal/snapshot"
)

// Directory is what the dashboard needs from the replication service.
type Directory interface {
	replication.Contract
	Pull(ctx context.Context) (replication.MergeStats, error)
}

// Subscriber registers event observers.
type Subscriber interface {
	Subscribe(fn func(models.SyncEvent)) (unsubscribe func())
}

// Exporter uploads a snapshot of records.
type Exporter interface {
	Export(ctx context.Context, src snapshot.RecordLister) (string, error)
}

type App struct {
	dir      Directory
	events   Subscriber
	exporter Exporter
	records  snapshot.RecordLister
	logger   logging.Logger

	reader *bufio.Reader
	out    io.Writer

	mu   sync.Mutex
	user string
}

// lockedWriter serializes writes from the REPL and the notice observer.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

// NewApp wires a dashboard. exporter and records may be nil, in which case
// the snapshot command reports that snapshots are not configured.
func NewApp(dir Directory, events Subscriber, exporter Exporter, records snapshot.RecordLister, l logging.Logger, in io.Reader, out io.Writer) *App {
	return &App{
		dir:      dir,
		events:   events,
		exporter: exporter,
		records:  records,
		logger:   l.With("module", "cli"),
		reader:   bufio.NewReader(in),
		out:      &lockedWriter{w: out},
	}
}

func (a *App) isLoggedIn() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.user != ""
}

func (a *App) status() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.user == "" {
		return "not logged in"
	}
	return a.user
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format+"\n", args...)
}

// Run prints sync notices while the REPL reads commands. It returns when
// the input ends, the user exits or ctx is done.
func (a *App) Run(ctx context.Context) {
	if a.events != nil {
		unsubscribe := a.events.Subscribe(a.notice)
		defer unsubscribe()
	}

	a.logger.Info(ctx, "dashboard started")
	runREPL(ctx, a, a.status, a.reader)
}

// notice runs on the dispatcher goroutine.
func (a *App) notice(ev models.SyncEvent) {
	if msg := Notice(ev); msg != "" {
		a.printf("* %s", msg)
	}
}

// Notice renders an event as a one-line notice, or "" for events the
// dashboard does not surface.
func Notice(ev models.SyncEvent) string {
	switch ev.Operation {
	case models.OpPeerSynced:
		return fmt.Sprintf("synced: %s", ev.Username)
	case models.OpPeerUnavailable:
		return fmt.Sprintf("not synced: peer unavailable (%s)", ev.Username)
	case models.OpStartupSyncCompleted:
		return fmt.Sprintf("startup sync completed: %s", ev.Username)
	case models.OpUsersCleared:
		return "all users cleared"
	case models.OpUserAdded, models.OpUserDeleted, models.OpPasswordChanged:
		if ev.Origin == models.OriginPeer {
			return fmt.Sprintf("%s: %s", ev.Action(), ev.Username)
		}
	}
	return ""
}
