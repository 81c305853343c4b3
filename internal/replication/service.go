package replication

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/usersync/internal/common"
	"github.com/dmitrijs2005/usersync/internal/logging"
	"github.com/dmitrijs2005/usersync/internal/models"
	"github.com/dmitrijs2005/usersync/internal/repositories/users"
)

// Options tune the service. Zero durations and sizes fall back to defaults.
type Options struct {
	StartupSyncDelay  time.Duration
	ConnectionTimeout time.Duration
	MaxBatchSize      int
	// AllowClear enables ClearAllRecords. The passive side leaves it off.
	AllowClear bool
	Observer   Observer
}

const (
	DefaultStartupSyncDelay  = 2000 * time.Millisecond
	DefaultConnectionTimeout = 5000 * time.Millisecond
	DefaultMaxBatchSize      = 50
)

func (o Options) withDefaults() Options {
	if o.StartupSyncDelay <= 0 {
		o.StartupSyncDelay = DefaultStartupSyncDelay
	}
	if o.ConnectionTimeout <= 0 {
		o.ConnectionTimeout = DefaultConnectionTimeout
	}
	if o.MaxBatchSize <= 0 {
		o.MaxBatchSize = DefaultMaxBatchSize
	}
	return o
}

// Service is the local side of the contract. It owns the record store and,
// when a connector is set, propagates authoritative mutations to the peer.
type Service struct {
	repo      users.Repository
	hasher    SecretHasher
	pub       Publisher
	connector Connector
	log       logging.Logger
	opts      Options

	startupDone atomic.Bool
	pullMu      sync.Mutex
}

var _ Contract = (*Service)(nil)

// NewService wires a Service. connector may be nil, in which case nothing
// is pushed and Pull returns ErrNoPeer.
func NewService(repo users.Repository, hasher SecretHasher, pub Publisher, connector Connector, log logging.Logger, opts Options) *Service {
	return &Service{
		repo:      repo,
		hasher:    hasher,
		pub:       pub,
		connector: connector,
		log:       log.With("module", "replication"),
		opts:      opts.withDefaults(),
	}
}

func (s *Service) publish(op models.Operation, origin models.Origin, username string) {
	if s.pub == nil {
		return
	}
	s.pub.Publish(models.NewSyncEvent(op, origin, username))
}

func (s *Service) Authenticate(ctx context.Context, account, secret string) (string, error) {
	u, err := s.repo.FindByAccount(ctx, account)
	if err != nil {
		return "", err
	}

	ok, err := s.hasher.Verify(u.Secret, secret)
	if err != nil {
		s.log.Warn(ctx, "stored secret is not verifiable", "account", account, "error", err)
		return "", common.ErrorNotFound
	}
	if !ok {
		return "", common.ErrorNotFound
	}
	return u.Username, nil
}

func (s *Service) CreateUser(ctx context.Context, username, account, secret string) (bool, error) {
	if err := models.CheckTupleFields(username, account); err != nil {
		return false, err
	}

	hashed, err := s.hasher.Hash(secret)
	if err != nil {
		return false, err
	}

	added, err := s.repo.InsertIfAbsent(ctx, models.UserRecord{Username: username, Account: account, Secret: hashed})
	if err != nil {
		return false, err
	}
	if !added {
		s.log.Info(ctx, "account already exists", "account", account)
		return false, nil
	}

	s.publish(models.OpUserAdded, models.OriginLocal, username)
	s.push(ctx, username, func(ctx context.Context, peer Contract) error {
		return peer.NotifyUserCreated(ctx, username, account, hashed)
	})
	return true, nil
}

func (s *Service) DeleteUser(ctx context.Context, username string) error {
	n, err := s.repo.Delete(ctx, username)
	if err != nil {
		return err
	}
	if n == 0 {
		return nil
	}

	s.publish(models.OpUserDeleted, models.OriginLocal, username)
	s.push(ctx, username, func(ctx context.Context, peer Contract) error {
		return peer.NotifyUserDeleted(ctx, username)
	})
	return nil
}

func (s *Service) ChangeSecret(ctx context.Context, username, secret string) error {
	hashed, err := s.hasher.Hash(secret)
	if err != nil {
		return err
	}

	n, err := s.repo.UpdateSecret(ctx, username, hashed)
	if err != nil {
		return err
	}
	if n == 0 {
		return nil
	}

	s.publish(models.OpPasswordChanged, models.OriginLocal, username)
	s.push(ctx, username, func(ctx context.Context, peer Contract) error {
		return peer.NotifySecretChanged(ctx, username, hashed)
	})
	return nil
}

func (s *Service) ListAllRecords(ctx context.Context) ([]string, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	return models.EncodeTuples(list), nil
}

// ClearAllRecords empties the local store. It is never propagated. Sides
// built without AllowClear leave the store untouched and return
// ErrClearDisabled.
func (s *Service) ClearAllRecords(ctx context.Context) error {
	if !s.opts.AllowClear {
		s.log.Info(ctx, "clear requested on passive side, ignoring")
		return ErrClearDisabled
	}

	n, err := s.repo.Clear(ctx)
	if err != nil {
		return err
	}
	s.log.Info(ctx, "records cleared", "count", n)
	if n > 0 {
		s.publish(models.OpUsersCleared, models.OriginLocal, "")
	}
	return nil
}

// NotifyUserCreated applies a peer's create. The secret arrives already
// hashed and is stored as is.
func (s *Service) NotifyUserCreated(ctx context.Context, username, account, secret string) error {
	if err := models.CheckTupleFields(username, account, secret); err != nil {
		return err
	}
	added, err := s.repo.InsertIfAbsent(ctx, models.UserRecord{Username: username, Account: account, Secret: secret})
	if err != nil {
		return err
	}
	if added {
		s.publish(models.OpUserAdded, models.OriginPeer, username)
	}
	return nil
}

func (s *Service) NotifyUserDeleted(ctx context.Context, username string) error {
	n, err := s.repo.Delete(ctx, username)
	if err != nil {
		return err
	}
	if n > 0 {
		s.publish(models.OpUserDeleted, models.OriginPeer, username)
	}
	return nil
}

func (s *Service) NotifySecretChanged(ctx context.Context, username, secret string) error {
	if err := models.CheckTupleFields(secret); err != nil {
		return err
	}
	n, err := s.repo.UpdateSecret(ctx, username, secret)
	if err != nil {
		return err
	}
	if n > 0 {
		s.publish(models.OpPasswordChanged, models.OriginPeer, username)
	}
	return nil
}

func (s *Service) AccountExists(ctx context.Context, account string) (bool, error) {
	return s.repo.Exists(ctx, account)
}

// IsPeerError reports whether err came from reaching or talking to the peer
// rather than from the local store.
func IsPeerError(err error) bool {
	return errors.Is(err, ErrPeerUnavailable) || errors.Is(err, ErrNoPeer)
}
