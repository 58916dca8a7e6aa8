package entities

// User is a reader account. Deleting a user cascades to every synchronized
// row keyed by the username.
type User struct {
	Username     string `gorm:"primaryKey;size:64" json:"username"`
	PasswordHash string `gorm:"column:pwd_hash;not null" json:"-"`
	CreatedAt    int64  `gorm:"column:created_at;autoCreateTime:milli" json:"createdAt"`

	BookStates []UserBookState `gorm:"foreignKey:Username;references:Username;constraint:OnDelete:CASCADE" json:"-"`
	Bookmarks  []Bookmark      `gorm:"foreignKey:Username;references:Username;constraint:OnDelete:CASCADE" json:"-"`
	Highlights []Highlight     `gorm:"foreignKey:Username;references:Username;constraint:OnDelete:CASCADE" json:"-"`
	Notes      []Note          `gorm:"foreignKey:Username;references:Username;constraint:OnDelete:CASCADE" json:"-"`
}

func (User) TableName() string {
	return "users"
}
