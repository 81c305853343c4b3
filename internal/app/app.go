// Package app wires one side of the replication pair: record store,
// notifier, replication service, gRPC endpoint, startup pull and, for
// interactive roles, the dashboard.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/usersync/internal/auth"
	"github.com/dmitrijs2005/usersync/internal/cli"
	"github.com/dmitrijs2005/usersync/internal/config"
	"github.com/dmitrijs2005/usersync/internal/cryptox"
	"github.com/dmitrijs2005/usersync/internal/logging"
	"github.com/dmitrijs2005/usersync/internal/models"
	"github.com/dmitrijs2005/usersync/internal/notifier"
	"github.com/dmitrijs2005/usersync/internal/replication"
	"github.com/dmitrijs2005/usersync/internal/repositories/repomanager"
	"github.com/dmitrijs2005/usersync/internal/repositories/users"
	"github.com/dmitrijs2005/usersync/internal/rpc"
	"github.com/dmitrijs2005/usersync/internal/snapshot"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
)

type App struct {
	config     *config.Config
	logger     logging.Logger
	db         *sql.DB
	repo       users.Repository
	dispatcher *notifier.Dispatcher
	bus        *notifier.Bus
	service    *replication.Service
	server     *rpc.GRPCServer
	exporter   *snapshot.Exporter

	in  io.Reader
	out io.Writer
}

// NewApp opens the store and builds every component. Logs go to logw;
// the dashboard reads in and writes out. Extra dial options are passed to
// the peer resolver.
func NewApp(ctx context.Context, c *config.Config, in io.Reader, out, logw io.Writer, dialOpts ...grpc.DialOption) (*App, error) {
	logger := logging.NewJSONLogger(logw, c.SlogLevel(), c.Role)

	db, repo, err := repomanager.Open(ctx, c.DatabaseDSN, c.IsPostgres(), logger)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	dispatcher := notifier.NewDispatcher()
	bus := notifier.NewBus(dispatcher, logger)

	tokens := auth.TokenSource{Role: c.Role, Secret: []byte(c.PeerSecret), Validity: c.PeerTokenValidity}
	resolver := rpc.NewResolver(c.PeerAddr, c.PeerProcess, c.ConnectionTimeout, tokens, logger, dialOpts...)

	service := replication.NewService(repo, cryptox.NewHasher(cryptox.DefaultParams), bus, resolver, logger, replication.Options{
		StartupSyncDelay:  c.StartupSyncDelay,
		ConnectionTimeout: c.ConnectionTimeout,
		MaxBatchSize:      c.MaxBatchSize,
		AllowClear:        c.Role == config.RoleClient,
	})

	app := &App{
		config:     c,
		logger:     logger,
		db:         db,
		repo:       repo,
		dispatcher: dispatcher,
		bus:        bus,
		service:    service,
		server:     rpc.NewGRPCServer(c.ListenAddr, logger, service, c.PeerSecret),
		in:         in,
		out:        out,
	}

	if c.S3Bucket != "" {
		client, err := snapshot.NewS3Client(ctx, snapshot.Settings{
			Region:       c.S3Region,
			AccessKey:    c.S3RootUser,
			SecretKey:    c.S3RootPassword,
			BaseEndpoint: c.S3BaseEndpoint,
			Bucket:       c.S3Bucket,
		})
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("s3 init error: %w", err)
		}
		app.exporter = snapshot.NewExporter(client, c.S3Bucket, c.Role, logger)
	}

	return app, nil
}

// Service exposes the local replication service.
func (app *App) Service() *replication.Service {
	return app.service
}

// Bus exposes the event bus.
func (app *App) Bus() *notifier.Bus {
	return app.bus
}

func (app *App) logEvent(ev models.SyncEvent) {
	app.logger.Info(context.Background(), "sync event",
		"action", ev.Action(), "username", ev.Username, "timestamp", ev.Timestamp)
}

func (app *App) startupSync(ctx context.Context) error {
	stats, err := app.service.StartupSync(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, replication.ErrStartupSyncDone) {
			return nil
		}
		return err
	}
	app.logger.Info(ctx, "startup sync done", "added", stats.Added, "received", stats.Received)
	return nil
}

// Run serves until a signal arrives, ctx is done or, for interactive roles,
// the dashboard exits.
func (app *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	defer func() {
		if err := app.db.Close(); err != nil {
			app.logger.Warn(context.Background(), "db close failed", "error", err)
		}
	}()

	app.logger.Info(ctx, "Starting app...", "listen", app.config.ListenAddr, "peer", app.config.PeerAddr)

	unsubscribe := app.bus.Subscribe(app.logEvent)
	defer unsubscribe()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		app.dispatcher.Run(gctx)
		return nil
	})

	g.Go(func() error {
		return app.server.Run(gctx)
	})

	if app.config.StartupSyncEnabled {
		g.Go(func() error {
			return app.startupSync(gctx)
		})
	}

	// The dashboard stays outside the group: a read blocked on stdin must
	// not hold up shutdown.
	if app.config.Interactive {
		go func() {
			var exp cli.Exporter
			if app.exporter != nil {
				exp = app.exporter
			}
			cli.NewApp(app.service, app.bus, exp, app.repo, app.logger, app.in, app.out).Run(gctx)
			cancel()
		}()
	}

	err := g.Wait()
	app.logger.Info(context.Background(), "App stopped")
	return err
}
