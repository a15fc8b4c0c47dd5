package sync

import (
	"log/slog"
	"time"
)

// Winner is the outcome of a conflict resolution
type Winner int

const (
	KeepLocal Winner = iota
	KeepRemote
)

// Resolve decides what to do with the remote copy of one record during the
// bootstrap merge. A record with no local copy (nil localUpdated) is pulled
// from the remote. Once a local copy exists it always wins, even on first
// sight of its remote counterpart: a partially-synced local edit must never
// be clobbered by a stale server copy fetched moments after login. The
// timestamp comparison exists for diagnostics only; a remote copy newer than
// the local one (rare under local precedence) is logged, and local still wins.
func Resolve(recordID string, localUpdated *time.Time, remoteUpdated time.Time) Winner {
	if localUpdated == nil {
		return KeepRemote
	}
	if remoteUpdated.After(*localUpdated) {
		slog.Debug("conflict: remote copy is newer, keeping local",
			"record", recordID,
			"localUpdated", *localUpdated,
			"remoteUpdated", remoteUpdated,
		)
	}
	return KeepLocal
}
