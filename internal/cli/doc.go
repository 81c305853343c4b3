// Package cli provides the interactive dashboard for one side of the
// replication pair.
//
// It lets an operator register, authenticate and manage users in the local
// directory, trigger a manual pull from the peer and export a snapshot.
// Sync notices from the notifier ("synced" / "not synced") are printed as
// they arrive.
//
// Commands:
//   - register / login / logout
//   - list, delete, passwd, clear
//   - sync, snapshot
//   - help, exit | quit
//
// The REPL runs on the goroutine that calls App.Run, never on the
// dispatcher goroutine, because commands may block on the peer.
package cli
