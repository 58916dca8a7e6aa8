package entities

import "time"

type EventType string

const (
	EventAuth    EventType = "auth"
	EventLibrary EventType = "library"
)

type EventStatus string

const (
	EventSuccess EventStatus = "success"
	EventFailed  EventStatus = "failed"
)

// Event is one entry of the account activity log. Username is not a foreign
// key: failed logins for unknown accounts are recorded too.
type Event struct {
	ID        uint        `gorm:"primaryKey" json:"id"`
	Username  string      `gorm:"index;size:64" json:"username"`
	Type      EventType   `gorm:"column:event_type;index;size:20" json:"type"`
	Action    string      `gorm:"size:50" json:"action"` // e.g. "login", "upload"
	Detail    string      `gorm:"size:500" json:"detail,omitempty"`
	IPAddress string      `gorm:"size:45" json:"ipAddress,omitempty"`
	UserAgent string      `gorm:"size:500" json:"userAgent,omitempty"`
	Status    EventStatus `gorm:"size:20" json:"status"`
	CreatedAt time.Time   `gorm:"index" json:"createdAt"`
}

func (Event) TableName() string {
	return "events"
}
