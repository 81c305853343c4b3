package replication

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/usersync/internal/models"
)

// withPeer runs fn against a fresh endpoint, driving one Session through
// connect, execute and disconnect. The endpoint is closed on every path and
// the whole exchange is bounded by the connection timeout.
func (s *Service) withPeer(ctx context.Context, kind string, fn func(ctx context.Context, peer Contract) error) error {
	if s.connector == nil {
		return ErrNoPeer
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.ConnectionTimeout)
	defer cancel()

	sess := NewSession(kind, s.log, s.opts.Observer)
	_ = sess.Transition(ctx, StateConnecting)

	ep, err := s.connector.Connect(ctx)
	if err != nil {
		_ = sess.Transition(ctx, StateFailed)
		_ = sess.Transition(ctx, StateIdle)
		return fmt.Errorf("%w: %w", ErrPeerUnavailable, err)
	}

	defer func() {
		if err := ep.Close(); err != nil {
			s.log.Warn(ctx, "endpoint close failed", "session_id", sess.ID, "error", err)
		}
		_ = sess.Transition(ctx, StateIdle)
	}()

	_ = sess.Transition(ctx, StateConnected)
	_ = sess.Transition(ctx, StateExecuting)

	if err := fn(ctx, ep); err != nil {
		_ = sess.Transition(ctx, StateFailed)
		return err
	}

	_ = sess.Transition(ctx, StateDisconnecting)
	return nil
}

// push sends one propagating mutation to the peer and reports the outcome
// as an event. Failures never reach the caller; the local change stands.
func (s *Service) push(ctx context.Context, username string, call func(ctx context.Context, peer Contract) error) {
	if s.connector == nil {
		return
	}

	err := s.withPeer(ctx, "push", call)
	if err != nil {
		s.log.Warn(ctx, "change not synced", "username", username, "error", err)
		s.publish(models.OpPeerUnavailable, models.OriginLocal, username)
		return
	}
	s.publish(models.OpPeerSynced, models.OriginLocal, username)
}
