package models

import (
	"fmt"
	"time"
)

// Member roles. Exactly one creator exists per room, fixed at creation.
const (
	RoleCreator = "creator"
	RoleMember  = "member"
)

// RoomMember is a user's membership in a room, carrying their declared
// language and a denormalized display profile for rendering.
type RoomMember struct {
	RoomID string `gorm:"primaryKey;type:uuid" json:"room_id"`
	UserID int64  `gorm:"primaryKey" json:"user_id"`
	// LanguageCode is the language this member reads; relayed messages are
	// translated into it.
	LanguageCode string `gorm:"size:8;not null" json:"language_code"`
	// Role is "creator" or "member".
	Role     string    `gorm:"size:16;not null" json:"role"`
	JoinedAt time.Time `json:"joined_at"`

	// Display profile, denormalized from the transport at join time.
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// IsCreator reports whether this member created the room.
func (m *RoomMember) IsCreator() bool {
	return m.Role == RoleCreator
}

// DisplayName renders the member for other participants: @username when
// available, then first/last name, then a numeric fallback.
func (m *RoomMember) DisplayName() string {
	if m.Username != "" {
		return "@" + m.Username
	}
	if m.FirstName != "" {
		if m.LastName != "" {
			return m.FirstName + " " + m.LastName
		}
		return m.FirstName
	}
	return fmt.Sprintf("User %d", m.UserID)
}
