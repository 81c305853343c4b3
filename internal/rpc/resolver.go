package rpc

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/usersync/internal/logging"
	"github.com/dmitrijs2005/usersync/internal/replication"
	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/connectivity"
	"google.golang.org/grpc/credentials/insecure"
)

// Resolver addresses the peer and opens a fresh Handle per Connect. The
// target and process identity are fixed at construction.
type Resolver struct {
	target   string
	process  string
	timeout  time.Duration
	tokens   TokenSource
	logger   logging.Logger
	dialOpts []grpc.DialOption
}

var _ replication.Connector = (*Resolver)(nil)

// NewResolver returns a Resolver for target (a gRPC target such as
// "127.0.0.1:50051"). Extra dial options are appended after the defaults.
func NewResolver(target, process string, timeout time.Duration, tokens TokenSource, l logging.Logger, opts ...grpc.DialOption) *Resolver {
	return &Resolver{
		target:   target,
		process:  process,
		timeout:  timeout,
		tokens:   tokens,
		logger:   l.With("module", "resolver", "peer", process, "target", target),
		dialOpts: opts,
	}
}

// Connect binds to the peer and waits until the channel is ready. A
// transient failure counts as a refused bind; there is no retry.
func (r *Resolver) Connect(ctx context.Context) (replication.Endpoint, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	opts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithChainUnaryInterceptor(outgoingMetadataInterceptor(r.tokens)),
	}, r.dialOpts...)

	conn, err := grpc.NewClient(r.target, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBindFailed, err)
	}

	conn.Connect()
	for {
		state := conn.GetState()
		if state == connectivity.Ready {
			break
		}
		if state == connectivity.TransientFailure || state == connectivity.Shutdown {
			_ = conn.Close()
			return nil, fmt.Errorf("%w: %s is %s", ErrBindFailed, r.target, state)
		}
		if !conn.WaitForStateChange(ctx, state) {
			_ = conn.Close()
			return nil, fmt.Errorf("%w: %w", ErrBindFailed, ctx.Err())
		}
	}

	h := newHandle(r.target, conn, r.logger)
	r.logger.Debug(ctx, "endpoint bound", "handle_id", h.ID)
	return h, nil
}

// Handle is a single-use channel to the peer. Close releases it exactly
// once; every call after Close fails with ErrHandleClosed.
type Handle struct {
	*Client

	ID     string
	Target string

	conn     *grpc.ClientConn
	closed   atomic.Bool
	once     sync.Once
	closeErr error
	logger   logging.Logger
}

func newHandle(target string, conn *grpc.ClientConn, l logging.Logger) *Handle {
	h := &Handle{
		ID:     uuid.NewString(),
		Target: target,
		conn:   conn,
	}
	h.logger = l.With("handle_id", h.ID)
	h.Client = NewClient(guardedConn{h: h})
	return h
}

// State reports the channel state, or Shutdown once closed.
func (h *Handle) State() connectivity.State {
	if h.closed.Load() {
		return connectivity.Shutdown
	}
	return h.conn.GetState()
}

func (h *Handle) Close() error {
	h.once.Do(func() {
		h.closed.Store(true)
		h.closeErr = h.conn.Close()
		h.logger.Debug(context.Background(), "endpoint released")
	})
	return h.closeErr
}

// guardedConn refuses calls once its handle is closed.
type guardedConn struct {
	h *Handle
}

func (g guardedConn) Invoke(ctx context.Context, method string, args, reply any, opts ...grpc.CallOption) error {
	if g.h.closed.Load() {
		return ErrHandleClosed
	}
	return g.h.conn.Invoke(ctx, method, args, reply, opts...)
}

func (g guardedConn) NewStream(ctx context.Context, desc *grpc.StreamDesc, method string, opts ...grpc.CallOption) (grpc.ClientStream, error) {
	if g.h.closed.Load() {
		return nil, ErrHandleClosed
	}
	return g.h.conn.NewStream(ctx, desc, method, opts...)
}
