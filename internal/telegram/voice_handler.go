package telegram

import (
	"context"
	"log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"lingoroom/backend/internal/localization"
)

// VoiceToggleStorage defines the storage methods required by the voice toggle
// handler, so the handler can be tested against a small mock.
type VoiceToggleStorage interface {
	ToggleVoiceReplies(userID int64) (bool, error)
}

// HandleVoiceCommand processes the /voice command. It flips the user's voice
// replies preference in storage and sends a confirmation message.
func HandleVoiceCommand(ctx context.Context, update *tgbotapi.Update, s VoiceToggleStorage, bot *tgbotapi.BotAPI, locales *localization.Localizer) {
	if update.Message == nil {
		return
	}

	lang := userLanguage(update.Message.From)

	enabled, err := s.ToggleVoiceReplies(update.Message.From.ID)
	if err != nil {
		log.Printf("ERROR: Failed to toggle voice replies for user %d: %v", update.Message.From.ID, err)
		return
	}

	key := "voice_off"
	if enabled {
		key = "voice_on"
	}
	msg := tgbotapi.NewMessage(update.Message.Chat.ID, locales.GetString(lang, key))
	if _, err := bot.Send(msg); err != nil {
		log.Printf("ERROR: Failed to send voice toggle confirmation: %v", err)
	}
}
