package models

import "time"

// User holds per-user bookkeeping: display profile, activity counters and
// feature toggles. The primary key is the Telegram user ID.
type User struct {
	ID        int64  `gorm:"primaryKey" json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`

	// IsDisabled blocks all translation activity for the user.
	IsDisabled bool `gorm:"not null;default:false" json:"is_disabled"`
	// VoiceRepliesEnabled opts the user into synthesized voice replies for
	// their direct translations.
	VoiceRepliesEnabled bool `gorm:"not null;default:false" json:"voice_replies_enabled"`

	MessageCount       int64     `gorm:"not null;default:0" json:"message_count"`
	VoiceResponsesSent int64     `gorm:"not null;default:0" json:"voice_responses_sent"`
	LastActivity       time.Time `gorm:"index" json:"last_activity"`
	CreatedAt          time.Time `json:"created_at"`
}

// UserPreference is one enabled target language for a user's direct
// (non-room) translations. The set of rows for a user is never empty: if a
// toggle would remove the last one, the full default set is restored.
type UserPreference struct {
	UserID       int64  `gorm:"primaryKey" json:"user_id"`
	LanguageCode string `gorm:"primaryKey;size:8" json:"language_code"`
}
