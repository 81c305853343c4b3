package rpc

import (
	"errors"
	"fmt"

	"github.com/dmitrijs2005/usersync/internal/common"
	"github.com/dmitrijs2005/usersync/internal/replication"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var (
	// ErrHandleClosed is returned by calls made on a closed Handle.
	ErrHandleClosed = errors.New("endpoint handle closed")
	// ErrBindFailed means the peer could not be reached within the
	// connection timeout.
	ErrBindFailed = errors.New("bind failed")
	// ErrProtocolVersion means the peer speaks another protocol version.
	ErrProtocolVersion = errors.New("protocol version mismatch")
)

// mapError turns a gRPC status into the errors callers of the contract
// match on.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrHandleClosed) {
		return err
	}

	st, ok := status.FromError(err)
	if !ok {
		return fmt.Errorf("%w: %w", replication.ErrPeerUnavailable, err)
	}

	switch st.Code() {
	case codes.Unavailable, codes.DeadlineExceeded, codes.Canceled:
		return fmt.Errorf("%w: %s", replication.ErrPeerUnavailable, st.Message())
	case codes.Unauthenticated, codes.PermissionDenied:
		return fmt.Errorf("%w: %s", common.ErrorUnauthorized, st.Message())
	case codes.NotFound:
		return common.ErrorNotFound
	case codes.InvalidArgument:
		return fmt.Errorf("%w: %s", common.ErrorValidation, st.Message())
	case codes.Unimplemented:
		return fmt.Errorf("%w: %s", replication.ErrClearDisabled, st.Message())
	case codes.FailedPrecondition:
		return fmt.Errorf("%w: %s", ErrProtocolVersion, st.Message())
	default:
		return fmt.Errorf("%w: %s", common.ErrorInternal, st.Message())
	}
}
