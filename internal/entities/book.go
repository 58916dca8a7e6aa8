package entities

// Book is the catalog entry for one physical file in the library. The
// (sha256, filesize) pair is unique, so identical content is stored once.
type Book struct {
	FileID    string `gorm:"primaryKey;size:64" json:"fileId"`
	SHA256    string `gorm:"column:sha256;size:64;not null;uniqueIndex:idx_books_content,priority:1;check:chk_books_sha,length(sha256) = 64" json:"sha256"`
	FileSize  int64  `gorm:"column:filesize;not null;uniqueIndex:idx_books_content,priority:2;check:chk_books_size,filesize >= 0" json:"filesize"`
	Location  string `gorm:"column:location;not null" json:"-"`
	FileName  string `gorm:"column:filename" json:"filename,omitempty"`
	UpdatedAt int64  `gorm:"column:updated_at;not null;autoCreateTime:false;autoUpdateTime:false" json:"updatedAt"`

	// A book cannot be removed while any reader still has rows for it.
	States     []UserBookState `gorm:"foreignKey:FileID;references:FileID;constraint:OnDelete:RESTRICT" json:"-"`
	Bookmarks  []Bookmark      `gorm:"foreignKey:FileID;references:FileID;constraint:OnDelete:RESTRICT" json:"-"`
	Highlights []Highlight     `gorm:"foreignKey:FileID;references:FileID;constraint:OnDelete:RESTRICT" json:"-"`
	Notes      []Note          `gorm:"foreignKey:FileID;references:FileID;constraint:OnDelete:RESTRICT" json:"-"`
}

func (Book) TableName() string {
	return "books"
}

// DisplayName returns the client file name, falling back to the file id.
func (b Book) DisplayName() string {
	if b.FileName != "" {
		return b.FileName
	}
	return b.FileID
}
