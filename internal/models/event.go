package models

import (
	"fmt"
	"time"
)

// Operation identifies what a SyncEvent reports.
type Operation int

const (
	OpUserAdded Operation = iota + 1
	OpUserDeleted
	OpPasswordChanged
	OpStartupSyncCompleted
	OpUsersCleared
	OpPeerSynced
	OpPeerUnavailable
)

func (o Operation) String() string {
	switch o {
	case OpUserAdded:
		return "user_added"
	case OpUserDeleted:
		return "user_deleted"
	case OpPasswordChanged:
		return "password_updated"
	case OpStartupSyncCompleted:
		return "startup_sync_completed"
	case OpUsersCleared:
		return "users_cleared"
	case OpPeerSynced:
		return "peer_synced"
	case OpPeerUnavailable:
		return "peer_unavailable"
	default:
		return fmt.Sprintf("operation(%d)", int(o))
	}
}

// Origin tells whether a mutation was requested on this side or applied on
// behalf of the peer.
type Origin string

const (
	OriginLocal Origin = "local"
	OriginPeer  Origin = "peer"
)

// localSuffix marks mutations made through this side's own contract. The
// name is kept for compatibility with existing dashboard receivers.
const localSuffix = "_via_aidl"

// SyncEvent is a transient notification about a committed mutation or a
// replication outcome. It is never persisted.
type SyncEvent struct {
	Operation Operation
	Origin    Origin
	Username  string
	Timestamp int64
}

// NewSyncEvent stamps an event with the current time in unix milliseconds.
func NewSyncEvent(op Operation, origin Origin, username string) SyncEvent {
	return SyncEvent{
		Operation: op,
		Origin:    origin,
		Username:  username,
		Timestamp: time.Now().UnixMilli(),
	}
}

// Action returns the broadcast operation string, e.g. "user_deleted" for a
// peer-applied delete and "user_deleted_via_aidl" for a local one.
func (e SyncEvent) Action() string {
	name := e.Operation.String()
	switch e.Operation {
	case OpUserAdded, OpUserDeleted, OpPasswordChanged:
		if e.Origin == OriginLocal {
			return name + localSuffix
		}
	}
	return name
}

// StartupSyncSubject is the subject carried by a startup_sync_completed event.
func StartupSyncSubject(added int) string {
	return fmt.Sprintf("synced_%d_users", added)
}
