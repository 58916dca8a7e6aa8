package entities

// Record is a synchronized row of any kind. Implementations are the pointer
// types of UserBookState, Bookmark, Highlight and Note.
type Record interface {
	Kind() Kind
	RecordKey() Key
	// PayloadColumns lists the kind-specific columns replaced on upsert.
	PayloadColumns() []string
	EffectiveTimestamp() int64
	// Stamp marks the row as written at ts and clears any tombstone.
	Stamp(ts int64)
}

// UserBookState holds a reader's progress in one book.
type UserBookState struct {
	Username  string `gorm:"primaryKey;size:64;index:idx_user_books_updated,priority:1;index:idx_user_books_deleted,priority:1" json:"-"`
	FileID    string `gorm:"primaryKey;size:64" json:"fileId"`
	Progress  string `gorm:"column:progress" json:"progress"`
	UpdatedAt int64  `gorm:"column:updated_at;not null;autoCreateTime:false;autoUpdateTime:false;index:idx_user_books_updated,priority:2" json:"updatedAt"`
	DeletedAt *int64 `gorm:"column:deleted_at;index:idx_user_books_deleted,priority:2" json:"deletedAt,omitempty"`
}

func (UserBookState) TableName() string { return KindBookState.TableName() }

func (r *UserBookState) Kind() Kind { return KindBookState }

func (r *UserBookState) RecordKey() Key {
	return Key{Username: r.Username, FileID: r.FileID}
}

func (r *UserBookState) PayloadColumns() []string { return []string{"progress"} }

func (r *UserBookState) EffectiveTimestamp() int64 { return effective(r.UpdatedAt, r.DeletedAt) }

func (r *UserBookState) Stamp(ts int64) { r.UpdatedAt, r.DeletedAt = ts, nil }

// Bookmark is a saved reading position.
type Bookmark struct {
	Username  string `gorm:"primaryKey;size:64;index:idx_user_bookmarks_updated,priority:1" json:"-"`
	FileID    string `gorm:"primaryKey;size:64" json:"fileId"`
	ID        int64  `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Locator   string `gorm:"column:locator" json:"locator"`
	Label     string `gorm:"column:label" json:"label,omitempty"`
	UpdatedAt int64  `gorm:"column:updated_at;not null;autoCreateTime:false;autoUpdateTime:false;index:idx_user_bookmarks_updated,priority:2" json:"updatedAt"`
	DeletedAt *int64 `gorm:"column:deleted_at" json:"deletedAt,omitempty"`
}

func (Bookmark) TableName() string { return KindBookmark.TableName() }

func (r *Bookmark) Kind() Kind { return KindBookmark }

func (r *Bookmark) RecordKey() Key {
	return Key{Username: r.Username, FileID: r.FileID, ItemID: r.ID}
}

func (r *Bookmark) PayloadColumns() []string { return []string{"locator", "label"} }

func (r *Bookmark) EffectiveTimestamp() int64 { return effective(r.UpdatedAt, r.DeletedAt) }

func (r *Bookmark) Stamp(ts int64) { r.UpdatedAt, r.DeletedAt = ts, nil }

// Highlight is a coloured text selection with an optional label.
type Highlight struct {
	Username  string `gorm:"primaryKey;size:64;index:idx_user_highlights_updated,priority:1" json:"-"`
	FileID    string `gorm:"primaryKey;size:64" json:"fileId"`
	ID        int64  `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Selection string `gorm:"column:selection" json:"selection"`
	Label     string `gorm:"column:label" json:"label,omitempty"`
	Colour    string `gorm:"column:colour" json:"colour,omitempty"`
	UpdatedAt int64  `gorm:"column:updated_at;not null;autoCreateTime:false;autoUpdateTime:false;index:idx_user_highlights_updated,priority:2" json:"updatedAt"`
	DeletedAt *int64 `gorm:"column:deleted_at" json:"deletedAt,omitempty"`
}

func (Highlight) TableName() string { return KindHighlight.TableName() }

func (r *Highlight) Kind() Kind { return KindHighlight }

func (r *Highlight) RecordKey() Key {
	return Key{Username: r.Username, FileID: r.FileID, ItemID: r.ID}
}

func (r *Highlight) PayloadColumns() []string { return []string{"selection", "label", "colour"} }

func (r *Highlight) EffectiveTimestamp() int64 { return effective(r.UpdatedAt, r.DeletedAt) }

func (r *Highlight) Stamp(ts int64) { r.UpdatedAt, r.DeletedAt = ts, nil }

// Note is free text attached to a location in a book.
type Note struct {
	Username  string `gorm:"primaryKey;size:64;index:idx_user_notes_updated,priority:1" json:"-"`
	FileID    string `gorm:"primaryKey;size:64" json:"fileId"`
	ID        int64  `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Locator   string `gorm:"column:locator" json:"locator"`
	Content   string `gorm:"column:content" json:"content"`
	UpdatedAt int64  `gorm:"column:updated_at;not null;autoCreateTime:false;autoUpdateTime:false;index:idx_user_notes_updated,priority:2" json:"updatedAt"`
	DeletedAt *int64 `gorm:"column:deleted_at" json:"deletedAt,omitempty"`
}

func (Note) TableName() string { return KindNote.TableName() }

func (r *Note) Kind() Kind { return KindNote }

func (r *Note) RecordKey() Key {
	return Key{Username: r.Username, FileID: r.FileID, ItemID: r.ID}
}

func (r *Note) PayloadColumns() []string { return []string{"locator", "content"} }

func (r *Note) EffectiveTimestamp() int64 { return effective(r.UpdatedAt, r.DeletedAt) }

func (r *Note) Stamp(ts int64) { r.UpdatedAt, r.DeletedAt = ts, nil }

func effective(updatedAt int64, deletedAt *int64) int64 {
	if deletedAt != nil {
		return *deletedAt
	}
	return updatedAt
}
