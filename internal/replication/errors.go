package replication

import "errors"

var (
	// ErrPeerUnavailable wraps every failure to reach or bind the peer.
	ErrPeerUnavailable = errors.New("peer unavailable")
	// ErrNoPeer is returned by Pull when no connector is configured.
	ErrNoPeer = errors.New("no peer configured")
	// ErrStartupSyncDone is returned by a second StartupSync call.
	ErrStartupSyncDone = errors.New("startup sync already ran")
	// ErrIllegalTransition is reported for a state change the session
	// state machine does not allow.
	ErrIllegalTransition = errors.New("illegal state transition")
	// ErrClearDisabled is returned by ClearAllRecords on a side that does
	// not allow clearing.
	ErrClearDisabled = errors.New("clearing records is disabled on this side")
)
