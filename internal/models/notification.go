package models

import "time"

// Notification is a per-user inbox entry. Link is a relative URL into the
// web UI, e.g. "/cases/12".
type Notification struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id" validate:"required"`
	Title     string    `gorm:"size:255;not null" json:"title" validate:"required,max=255"`
	Message   string    `gorm:"type:text;not null" json:"message" validate:"required"`
	Link      string    `gorm:"size:500" json:"link,omitempty" validate:"omitempty,max=500"`
	IsRead    bool      `gorm:"not null;default:false" json:"is_read"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

func (Notification) TableName() string {
	return "notifications"
}

// NotificationQuery filters a user's inbox listing.
type NotificationQuery struct {
	Limit      int
	Offset     int
	UnreadOnly bool
}
