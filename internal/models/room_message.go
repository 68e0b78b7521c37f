package models

import "gorm.io/gorm"

// Message types recorded in room history.
const (
	MessageTypeText   = "text"
	MessageTypeVoice  = "voice"
	MessageTypeSystem = "system"
)

// RoomMessage is one entry of the append-only room history. Rows are never
// mutated after insertion; they exist for audit and history, not for
// reconstructing room state.
type RoomMessage struct {
	gorm.Model

	// RoomID is the room the message was sent in.
	RoomID string `gorm:"type:uuid;not null;index:idx_room_messages_room"`
	// UserID is the sender.
	UserID int64 `gorm:"not null;index:idx_room_messages_room"`
	// Text is the original message text, stored verbatim.
	Text string `gorm:"type:text;not null"`
	// LanguageCode is the detected source language of the text.
	LanguageCode string `gorm:"size:8;not null"`
	// Type is "text", "voice" or "system".
	Type string `gorm:"size:16;not null"`
}
