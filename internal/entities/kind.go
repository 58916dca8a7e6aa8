package entities

import "strings"

// Kind identifies one of the four per-user record tables that are synchronized
// between devices.
type Kind string

const (
	KindBookState Kind = "books"
	KindBookmark  Kind = "bookmark"
	KindHighlight Kind = "highlight"
	KindNote      Kind = "note"
)

// AllKinds lists every synchronized kind in a stable order.
var AllKinds = []Kind{KindBookState, KindBookmark, KindHighlight, KindNote}

// ParseKind maps a client table name onto a Kind. Singular and plural forms are
// both accepted, as is the legacy "book_data" alias for book state.
func ParseKind(table string) (Kind, bool) {
	switch strings.ToLower(strings.TrimSpace(table)) {
	case "books", "book", "book_data":
		return KindBookState, true
	case "bookmark", "bookmarks":
		return KindBookmark, true
	case "highlight", "highlights":
		return KindHighlight, true
	case "note", "notes":
		return KindNote, true
	}
	return "", false
}

// ItemScoped reports whether rows of this kind carry a per-book item id in
// addition to (username, fileId).
func (k Kind) ItemScoped() bool {
	return k == KindBookmark || k == KindHighlight || k == KindNote
}

// TableName returns the relational table backing the kind.
func (k Kind) TableName() string {
	switch k {
	case KindBookState:
		return "user_books"
	case KindBookmark:
		return "user_bookmarks"
	case KindHighlight:
		return "user_highlights"
	case KindNote:
		return "user_notes"
	}
	return ""
}

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	return k.TableName() != ""
}

// Key addresses a single synchronized row. ItemID is ignored for book state.
type Key struct {
	Username string
	FileID   string
	ItemID   int64
}

// RowState is the server-side view of a key used for conflict decisions.
//
// Exists=false, Deleted=false: never seen.
// Exists=false, Deleted=true: tombstoned at DeletedAt.
// Exists=true: active, last written at UpdatedAt.
type RowState struct {
	Exists    bool
	Deleted   bool
	UpdatedAt int64
	DeletedAt int64
}

// EffectiveTimestamp returns DeletedAt for tombstones, UpdatedAt for active
// rows and 0 for keys that were never written.
func (s RowState) EffectiveTimestamp() int64 {
	switch {
	case s.Deleted:
		return s.DeletedAt
	case s.Exists:
		return s.UpdatedAt
	}
	return 0
}
