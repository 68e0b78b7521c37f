package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Room statuses. A room moves from active to closed exactly once and
// never back.
const (
	RoomStatusActive = "active"
	RoomStatusClosed = "closed"
)

// Room represents a multi-party translation session identified by a short
// shareable code. Members declare a language on join and every message is
// relayed to the others in their own languages.
type Room struct {
	// ID is the internal unique identifier for the room (UUID).
	ID string `gorm:"primaryKey" json:"id"`
	// Code is the short human-shareable join code. Uniqueness is enforced
	// among active rooms only, so codes of closed rooms can be reused.
	Code string `gorm:"size:16;not null;uniqueIndex:idx_rooms_active_code,where:status = 'active'" json:"code"`
	// CreatorID is the Telegram user ID of the room creator.
	CreatorID int64 `gorm:"not null;index" json:"creator_id"`
	// Name is an optional display name for the room.
	Name string `json:"name"`
	// Status is either "active" or "closed".
	Status string `gorm:"size:16;not null;index" json:"status"`
	// MaxMembers caps the member count; joins beyond it are rejected.
	MaxMembers int `gorm:"not null" json:"max_members"`
	// CreatedAt is the timestamp when the room was created.
	CreatedAt time.Time `json:"created_at"`
	// ExpiresAt is when the room auto-closes. Nil means it never expires.
	ExpiresAt *time.Time `json:"expires_at"`
}

// BeforeCreate generates a UUID for the room if the ID is not set yet.
func (r *Room) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return
}

// IsActive reports whether the room is still open for messages and joins.
func (r *Room) IsActive() bool {
	return r.Status == RoomStatusActive
}

// IsExpired reports whether the room's lifetime has passed at the given
// instant. Rooms without an expiry never expire.
func (r *Room) IsExpired(now time.Time) bool {
	if r.ExpiresAt == nil {
		return false
	}
	return now.After(*r.ExpiresAt)
}
