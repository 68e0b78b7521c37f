package config

import "time"

const (
	// Rooms
	DefaultMaxMembers   = 10
	RoomLifetime        = 24 * time.Hour
	RoomCodeLength      = 6
	RoomCodeAlphabet    = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"
	RoomCodeMaxAttempts = 5
	RoomSweepInterval   = 5 * time.Minute

	// Translation
	TranslationModel          = "gpt-4o"
	TranslationMaxRetries     = 3
	TranslationBackoffBase    = 2
	TranslationTimeout        = 30 * time.Second
	TranslationMaxInputChars  = 2000
	TranslationMaxTokens      = 500
	TranslationCacheTTL       = time.Hour
	TranslationCacheSize      = 1000
	TranslationTruncateLength = 100

	// Text-to-speech
	TTSMaxCharacters = 500
	TTSTimeout       = 30 * time.Second
	TTSVoice         = "alloy"
	TTSModel         = "tts-1"
	TTSSpeed         = 1.0
	TTSCacheMaxAge   = 48 * time.Hour

	// Delivery
	DeliveryTimeout = 10 * time.Second

	// Rate limits
	MessagesPerMinute    = 10
	VoiceMessagesPerHour = 20
)
