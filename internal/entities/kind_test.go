package entities

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseKind(t *testing.T) {
	tests := []struct {
		table string
		want  Kind
		ok    bool
	}{
		{"books", KindBookState, true},
		{"book_data", KindBookState, true},
		{"bookmark", KindBookmark, true},
		{"bookmarks", KindBookmark, true},
		{"Highlights", KindHighlight, true},
		{"note", KindNote, true},
		{"notes", KindNote, true},
		{"tags", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.table, func(t *testing.T) {
			got, ok := ParseKind(tt.table)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestKind_ItemScoped(t *testing.T) {
	assert.False(t, KindBookState.ItemScoped())
	assert.True(t, KindBookmark.ItemScoped())
	assert.True(t, KindHighlight.ItemScoped())
	assert.True(t, KindNote.ItemScoped())
}

func TestRowState_EffectiveTimestamp(t *testing.T) {
	assert.Equal(t, int64(0), RowState{}.EffectiveTimestamp())
	assert.Equal(t, int64(100), RowState{Exists: true, UpdatedAt: 100}.EffectiveTimestamp())
	assert.Equal(t, int64(150), RowState{Deleted: true, UpdatedAt: 150, DeletedAt: 150}.EffectiveTimestamp())
}

func TestRecord_Stamp(t *testing.T) {
	deleted := int64(50)
	h := &Highlight{Username: "alice", FileID: "B1", ID: 3, UpdatedAt: 50, DeletedAt: &deleted}
	assert.Equal(t, int64(50), h.EffectiveTimestamp())

	h.Stamp(200)

	assert.Nil(t, h.DeletedAt)
	assert.Equal(t, int64(200), h.EffectiveTimestamp())
	assert.Equal(t, Key{Username: "alice", FileID: "B1", ItemID: 3}, h.RecordKey())
}
