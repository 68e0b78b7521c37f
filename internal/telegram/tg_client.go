package telegram

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Client wraps the Bot API for outbound delivery. It is the delivery side of
// the relay dispatcher; the user ID doubles as the Telegram chat ID because
// every conversation with the bot is a private chat.
type Client struct {
	BotAPI *tgbotapi.BotAPI
}

func NewClient(bot *tgbotapi.BotAPI) *Client {
	return &Client{BotAPI: bot}
}

// Deliver sends a plain text message to the user.
func (c *Client) Deliver(userID int64, text string) error {
	msg := tgbotapi.NewMessage(userID, text)
	if _, err := c.BotAPI.Send(msg); err != nil {
		return fmt.Errorf("send message to %d: %w", userID, err)
	}
	return nil
}

// DeliverVoice sends synthesized audio as a Telegram voice message.
func (c *Client) DeliverVoice(userID int64, audio []byte, caption string) error {
	voice := tgbotapi.NewVoice(userID, tgbotapi.FileBytes{Name: "voice.ogg", Bytes: audio})
	voice.Caption = caption
	if _, err := c.BotAPI.Send(voice); err != nil {
		return fmt.Errorf("send voice to %d: %w", userID, err)
	}
	return nil
}
