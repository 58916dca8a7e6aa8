package conflict

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mrlokans/readsync/internal/entities"
	"github.com/mrlokans/readsync/internal/errs"
)

func TestResolve(t *testing.T) {
	active := entities.RowState{Exists: true, UpdatedAt: 100}
	tombstone := entities.RowState{Deleted: true, UpdatedAt: 150, DeletedAt: 150}

	tests := []struct {
		name     string
		clientTs int64
		force    bool
		server   entities.RowState
		accept   bool
		serverTs int64
	}{
		{"never seen accepts any timestamp", 0, false, entities.RowState{}, true, 0},
		{"newer client write", 120, false, active, true, 100},
		{"equal timestamps are not a conflict", 100, false, active, true, 100},
		{"older client write", 99, false, active, false, 100},
		{"older than tombstone", 140, false, tombstone, false, 150},
		{"newer than tombstone", 200, false, tombstone, true, 150},
		{"force overrides older write", 1, true, active, true, 100},
		{"force overrides tombstone", 1, true, tombstone, true, 150},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Resolve(tt.clientTs, tt.force, tt.server)

			assert.Equal(t, tt.accept, d.Accept)
			assert.Equal(t, tt.serverTs, d.ServerTimestamp)
			if tt.accept {
				assert.True(t, d.Resurrect, "accepted writes always resurrect")
				assert.NoError(t, d.Err())
			} else {
				assert.False(t, d.Resurrect)
				assert.ErrorIs(t, d.Err(), errs.ErrConflict)
				ts, ok := errs.ServerTimestamp(d.Err())
				assert.True(t, ok)
				assert.Equal(t, tt.serverTs, ts)
			}
		})
	}
}
