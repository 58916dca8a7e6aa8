// Package conflict implements the last-write-wins policy consulted before every
// synchronized write.
//
// A write is rejected only when the caller did not force it, the server has
// seen the key before, and the client's timestamp is older than the server's
// effective timestamp (the delete time for tombstones, else the update time).
// Every accepted write resurrects a tombstoned row.
package conflict

import (
	"github.com/mrlokans/readsync/internal/entities"
	"github.com/mrlokans/readsync/internal/errs"
)

// Decision is the outcome of Resolve.
type Decision struct {
	Accept          bool
	Resurrect       bool
	ServerTimestamp int64
}

// Err returns a ConflictError for rejected decisions and nil otherwise.
func (d Decision) Err() error {
	if d.Accept {
		return nil
	}
	return errs.Conflict(d.ServerTimestamp)
}

// Resolve decides whether a write stamped clientTimestamp may replace the row
// currently described by server.
func Resolve(clientTimestamp int64, force bool, server entities.RowState) Decision {
	s := server.EffectiveTimestamp()
	if !force && s > 0 && clientTimestamp < s {
		return Decision{ServerTimestamp: s}
	}
	return Decision{Accept: true, Resurrect: true, ServerTimestamp: s}
}
