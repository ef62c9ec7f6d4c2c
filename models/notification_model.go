package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Notification struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    *uuid.UUID `gorm:"type:uuid;index" json:"user_id,omitempty"`
	Role      *string    `gorm:"size:20;index" json:"role,omitempty"`
	Kind      string     `gorm:"size:50;not null" json:"kind"`
	Title     string     `gorm:"size:255;not null" json:"title"`
	Message   string     `gorm:"type:text" json:"message"`
	Type      string     `gorm:"size:20" json:"type"`
	ActionURL string     `gorm:"size:255" json:"action_url,omitempty"`
	ReadAt    *time.Time `json:"read_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}

// NotificationSetting switches a notification kind on or off. A kind with
// no row is enabled.
type NotificationSetting struct {
	Kind    string `gorm:"size:50;primaryKey" json:"kind"`
	Enabled bool   `json:"enabled"`

	UpdatedAt time.Time `json:"updated_at"`
}
