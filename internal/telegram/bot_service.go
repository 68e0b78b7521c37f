// Package telegram handles the integration with the Telegram Bot API.
// It is responsible for receiving updates from Telegram, routing commands,
// and feeding room messages into the relay dispatcher.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"lingoroom/backend/internal/config"
	"lingoroom/backend/internal/language"
	"lingoroom/backend/internal/localization"
	"lingoroom/backend/internal/models"
	"lingoroom/backend/internal/ratelimit"
	"lingoroom/backend/internal/relay"
	"lingoroom/backend/internal/rooms"
	"lingoroom/backend/internal/storage"
	"lingoroom/backend/internal/translation"
)

// Deps groups the collaborators a BotService needs.
type Deps struct {
	Storage    storage.Storage
	Registry   *rooms.Registry
	Dispatcher *relay.Dispatcher
	Engine     *translation.Engine
	Detector   language.Detector
	Localizer  *localization.Localizer
	Messages   *ratelimit.Limiter
	Voices     *ratelimit.Limiter
}

// BotService is responsible for receiving Telegram updates and routing them.
type BotService struct {
	BotAPI     *tgbotapi.BotAPI
	Client     *Client
	Storage    storage.Storage
	Registry   *rooms.Registry
	Dispatcher *relay.Dispatcher
	Engine     *translation.Engine
	Detector   language.Detector
	Localizer  *localization.Localizer
	Messages   *ratelimit.Limiter
	Voices     *ratelimit.Limiter
	HTTP       *http.Client
}

// NewBotService creates a new BotService instance.
func NewBotService(bot *tgbotapi.BotAPI, deps Deps) *BotService {
	return &BotService{
		BotAPI:     bot,
		Client:     NewClient(bot),
		Storage:    deps.Storage,
		Registry:   deps.Registry,
		Dispatcher: deps.Dispatcher,
		Engine:     deps.Engine,
		Detector:   deps.Detector,
		Localizer:  deps.Localizer,
		Messages:   deps.Messages,
		Voices:     deps.Voices,
		HTTP:       &http.Client{Timeout: 30 * time.Second},
	}
}

// Run is the main loop for receiving Telegram updates. Each update is
// handled in its own goroutine so a slow relay never stalls the loop.
func (s *BotService) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := s.BotAPI.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			s.BotAPI.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			go s.handleUpdate(ctx, &update)
		}
	}
}

func (s *BotService) handleUpdate(ctx context.Context, update *tgbotapi.Update) {
	switch {
	case update.Message != nil:
		msg := update.Message
		if msg.From == nil {
			return
		}
		s.touchUser(msg.From)

		if msg.IsCommand() {
			s.handleCommand(ctx, update)
			return
		}
		if msg.Voice != nil {
			s.handleVoiceMessage(ctx, msg)
			return
		}
		s.handleText(ctx, msg, strings.TrimSpace(msg.Text))

	case update.CallbackQuery != nil:
		s.handleCallbackQuery(update.CallbackQuery)
	}
}

func (s *BotService) handleCommand(ctx context.Context, update *tgbotapi.Update) {
	msg := update.Message
	lang := userLanguage(msg.From)

	switch msg.Command() {
	case "start":
		s.reply(msg.Chat.ID, s.Localizer.GetString(lang, "start"))
	case "help":
		s.reply(msg.Chat.ID, s.Localizer.GetString(lang, "help"))
	case "languages":
		s.handleLanguagesCommand(msg)
	case "voice":
		HandleVoiceCommand(ctx, update, s.Storage, s.BotAPI, s.Localizer)
	case "room":
		s.handleRoomCommand(ctx, msg.Chat.ID, msg.From, strings.Fields(msg.CommandArguments()))
	default:
		s.reply(msg.Chat.ID, s.Localizer.GetString(lang, "help"))
	}
}

// touchUser upserts the user's profile and activity timestamp.
func (s *BotService) touchUser(from *tgbotapi.User) {
	err := s.Storage.TouchUser(&models.User{
		ID:        from.ID,
		Username:  from.UserName,
		FirstName: from.FirstName,
		LastName:  from.LastName,
	})
	if err != nil {
		log.Printf("ERROR: Failed to upsert user %d: %v", from.ID, err)
	}
}

func (s *BotService) reply(chatID int64, text string) {
	if _, err := s.BotAPI.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		log.Printf("ERROR: Failed to send Telegram message to %d: %v", chatID, err)
	}
}

// handleLanguagesCommand sends the language selection keyboard.
func (s *BotService) handleLanguagesCommand(msg *tgbotapi.Message) {
	lang := userLanguage(msg.From)
	prefs, err := s.Storage.GetUserPreferences(msg.From.ID)
	if err != nil {
		log.Printf("ERROR: Failed to load preferences for user %d: %v", msg.From.ID, err)
		prefs = language.DefaultSet()
	}

	reply := tgbotapi.NewMessage(msg.Chat.ID, s.Localizer.GetString(lang, "languages_title"))
	reply.ReplyMarkup = buildLanguageKeyboard(prefs)
	if _, err := s.BotAPI.Send(reply); err != nil {
		log.Printf("ERROR: Failed to send language keyboard to %d: %v", msg.Chat.ID, err)
	}
}

// buildLanguageKeyboard renders the supported languages two per row, with a
// check mark on the currently selected ones.
func buildLanguageKeyboard(selected []string) tgbotapi.InlineKeyboardMarkup {
	chosen := make(map[string]bool, len(selected))
	for _, code := range selected {
		chosen[code] = true
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	var row []tgbotapi.InlineKeyboardButton
	for _, code := range language.DefaultSet() {
		label := fmt.Sprintf("%s %s", language.Flag(code), language.Name(code))
		if chosen[code] {
			label = "✅ " + label
		}
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(label, "lang_"+code))
		if len(row) == 2 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func (s *BotService) handleCallbackQuery(cb *tgbotapi.CallbackQuery) {
	// Respond to the callback query to remove the "loading" state.
	callback := tgbotapi.NewCallback(cb.ID, "")
	if _, err := s.BotAPI.Request(callback); err != nil {
		log.Printf("ERROR: Failed to send callback response: %v", err)
	}

	if strings.HasPrefix(cb.Data, "lang_") {
		s.handleLanguageToggle(cb)
	}
}

// handleLanguageToggle flips one language in the user's preference set and
// refreshes the keyboard in place.
func (s *BotService) handleLanguageToggle(cb *tgbotapi.CallbackQuery) {
	code := strings.TrimPrefix(cb.Data, "lang_")
	if !language.IsSupported(code) {
		return
	}

	prefs, err := s.Storage.ToggleLanguagePreference(cb.From.ID, code)
	if err != nil {
		log.Printf("ERROR: Failed to toggle language %s for user %d: %v", code, cb.From.ID, err)
		return
	}
	if cb.Message == nil {
		return
	}

	edit := tgbotapi.NewEditMessageReplyMarkup(cb.Message.Chat.ID, cb.Message.MessageID, buildLanguageKeyboard(prefs))
	if _, err := s.BotAPI.Request(edit); err != nil {
		log.Printf("ERROR: Failed to refresh language keyboard for user %d: %v", cb.From.ID, err)
	}
}

func (s *BotService) handleRoomCommand(ctx context.Context, chatID int64, from *tgbotapi.User, args []string) {
	lang := userLanguage(from)

	if len(args) == 0 {
		s.sendRoomInfo(chatID, from)
		return
	}

	switch strings.ToLower(args[0]) {
	case "create":
		s.handleRoomCreate(chatID, from, strings.Join(args[1:], " "))
	case "join":
		if len(args) < 2 {
			s.reply(chatID, s.Localizer.GetString(lang, "room_join_usage"))
			return
		}
		s.handleRoomJoin(chatID, from, strings.ToUpper(args[1]))
	case "leave":
		s.handleRoomLeave(chatID, from)
	case "close":
		s.handleRoomClose(chatID, from)
	case "members":
		s.sendRoomInfo(chatID, from)
	default:
		s.reply(chatID, s.Localizer.GetString(lang, "room_usage"))
	}
}

// sendRoomInfo shows the member list of the caller's room, or usage help
// when they are not in one.
func (s *BotService) sendRoomInfo(chatID int64, from *tgbotapi.User) {
	lang := userLanguage(from)

	room, err := s.Registry.GetActiveRoom(from.ID)
	if err != nil {
		log.Printf("ERROR: Failed to look up active room for user %d: %v", from.ID, err)
		return
	}
	if room == nil {
		s.reply(chatID, s.Localizer.GetString(lang, "room_usage"))
		return
	}

	members, err := s.Registry.GetMembers(room.ID)
	if err != nil {
		log.Printf("ERROR: Failed to list members of room %s: %v", room.ID, err)
		return
	}

	var b strings.Builder
	b.WriteString(s.Localizer.GetStringf(lang, "room_members_title", room.Code))
	for _, m := range members {
		icon := "👤"
		if m.IsCreator() {
			icon = "👑"
		}
		fmt.Fprintf(&b, "\n%s %s %s", icon, language.Flag(m.LanguageCode), m.DisplayName())
	}
	s.reply(chatID, b.String())
}

func (s *BotService) handleRoomCreate(chatID int64, from *tgbotapi.User, name string) {
	lang := userLanguage(from)

	existing, err := s.Registry.GetActiveRoom(from.ID)
	if err != nil {
		log.Printf("ERROR: Failed to look up active room for user %d: %v", from.ID, err)
		return
	}
	if existing != nil {
		s.reply(chatID, s.Localizer.GetString(lang, "room_already_in_other"))
		return
	}

	room, err := s.Registry.CreateRoom(s.memberFor(from), name)
	if err != nil {
		log.Printf("ERROR: Failed to create room for user %d: %v", from.ID, err)
		s.reply(chatID, s.Localizer.GetString(lang, "generic_error"))
		return
	}

	display := room.Name
	if display == "" {
		display = room.Code
	}
	s.reply(chatID, s.Localizer.GetStringf(lang, "room_created", display, room.Code))
}

func (s *BotService) handleRoomJoin(chatID int64, from *tgbotapi.User, code string) {
	lang := userLanguage(from)

	existing, err := s.Registry.GetActiveRoom(from.ID)
	if err != nil {
		log.Printf("ERROR: Failed to look up active room for user %d: %v", from.ID, err)
		return
	}
	if existing != nil {
		if existing.Code == code {
			s.reply(chatID, s.Localizer.GetString(lang, "room_already_member"))
		} else {
			s.reply(chatID, s.Localizer.GetString(lang, "room_already_in_other"))
		}
		return
	}

	member := s.memberFor(from)
	room, err := s.Registry.JoinRoom(code, member)
	switch {
	case errors.Is(err, rooms.ErrRoomNotFound):
		s.reply(chatID, s.Localizer.GetString(lang, "room_not_found"))
	case errors.Is(err, rooms.ErrRoomExpired):
		s.reply(chatID, s.Localizer.GetString(lang, "room_expired"))
	case errors.Is(err, rooms.ErrRoomFull):
		s.reply(chatID, s.Localizer.GetString(lang, "room_full"))
	case errors.Is(err, rooms.ErrAlreadyMember):
		s.reply(chatID, s.Localizer.GetString(lang, "room_already_member"))
	case err != nil:
		log.Printf("ERROR: Failed to join room %s for user %d: %v", code, from.ID, err)
		s.reply(chatID, s.Localizer.GetString(lang, "generic_error"))
	default:
		s.reply(chatID, s.Localizer.GetStringf(lang, "room_joined", room.Code))
		name := member.DisplayName()
		s.announce(room.ID, from.ID, "room_member_joined", name)
	}
}

func (s *BotService) handleRoomLeave(chatID int64, from *tgbotapi.User) {
	lang := userLanguage(from)

	room, closed, err := s.Registry.LeaveRoom(from.ID)
	if errors.Is(err, rooms.ErrNotInRoom) {
		s.reply(chatID, s.Localizer.GetString(lang, "room_not_in"))
		return
	}
	if err != nil {
		log.Printf("ERROR: Failed to leave room for user %d: %v", from.ID, err)
		s.reply(chatID, s.Localizer.GetString(lang, "generic_error"))
		return
	}

	s.reply(chatID, s.Localizer.GetStringf(lang, "room_left", room.Code))
	if !closed {
		name := (&models.RoomMember{UserID: from.ID, Username: from.UserName, FirstName: from.FirstName, LastName: from.LastName}).DisplayName()
		s.announce(room.ID, from.ID, "room_member_left", name)
	}
}

func (s *BotService) handleRoomClose(chatID int64, from *tgbotapi.User) {
	lang := userLanguage(from)

	room, err := s.Registry.GetActiveRoom(from.ID)
	if err != nil {
		log.Printf("ERROR: Failed to look up active room for user %d: %v", from.ID, err)
		return
	}
	if room == nil {
		s.reply(chatID, s.Localizer.GetString(lang, "room_not_in"))
		return
	}

	switch err := s.Registry.CloseRoom(room.ID, from.ID); {
	case errors.Is(err, rooms.ErrNotCreator):
		s.reply(chatID, s.Localizer.GetString(lang, "room_not_creator"))
	case err != nil:
		log.Printf("ERROR: Failed to close room %s: %v", room.ID, err)
		s.reply(chatID, s.Localizer.GetString(lang, "generic_error"))
	default:
		s.reply(chatID, s.Localizer.GetStringf(lang, "room_closed", room.Code))
		// Membership rows survive the close, so the notice still reaches everyone.
		s.announce(room.ID, from.ID, "room_closed_by_creator", room.Code)
	}
}

// announce sends a localized room notice to every member but the actor.
func (s *BotService) announce(roomID string, actorID int64, key string, arg string) {
	err := s.Dispatcher.Announce(roomID, actorID, func(m models.RoomMember) string {
		return s.Localizer.GetStringf(m.LanguageCode, key, arg)
	})
	if err != nil {
		log.Printf("ERROR: Failed to announce %s in room %s: %v", key, roomID, err)
	}
}

// memberFor builds the caller's membership row. The member language is the
// user's primary preference, so room mates receive translations in the
// language the user actually reads.
func (s *BotService) memberFor(from *tgbotapi.User) models.RoomMember {
	return models.RoomMember{
		UserID:       from.ID,
		LanguageCode: s.primaryLanguage(from),
		Username:     from.UserName,
		FirstName:    from.FirstName,
		LastName:     from.LastName,
	}
}

// primaryLanguage picks the user's room language: the Telegram client
// language when it is among their chosen preferences, otherwise the first
// preference in catalogue order.
func (s *BotService) primaryLanguage(from *tgbotapi.User) string {
	ui := userLanguage(from)

	prefs, err := s.Storage.GetUserPreferences(from.ID)
	if err != nil || len(prefs) == 0 {
		return ui
	}
	for _, code := range prefs {
		if code == ui {
			return ui
		}
	}
	return prefs[0]
}

// userLanguage maps the Telegram client language to a supported UI language.
func userLanguage(from *tgbotapi.User) string {
	if from != nil && language.IsSupported(from.LanguageCode) {
		return from.LanguageCode
	}
	return "en"
}

func (s *BotService) handleText(ctx context.Context, msg *tgbotapi.Message, text string) {
	from := msg.From
	lang := userLanguage(from)

	user, err := s.Storage.GetUser(from.ID)
	if err != nil {
		log.Printf("ERROR: Failed to load user %d: %v", from.ID, err)
		return
	}
	if user != nil && user.IsDisabled {
		s.reply(msg.Chat.ID, s.Localizer.GetString(lang, "account_disabled"))
		return
	}

	if text == "" {
		s.reply(msg.Chat.ID, s.Localizer.GetString(lang, "empty_message"))
		return
	}
	if n := len([]rune(text)); n > config.TranslationMaxInputChars {
		s.reply(msg.Chat.ID, s.Localizer.GetStringf(lang, "message_too_long", n, config.TranslationMaxInputChars))
		return
	}
	if !s.Messages.Allow(ctx, from.ID) {
		s.reply(msg.Chat.ID, s.Localizer.GetString(lang, "rate_limited"))
		return
	}

	source, ok := s.Detector.Detect(text)
	if !ok {
		s.reply(msg.Chat.ID, s.Localizer.GetString(lang, "detection_failed"))
		return
	}

	if err := s.Storage.IncrementMessageCount(from.ID); err != nil {
		log.Printf("ERROR: Failed to count message for user %d: %v", from.ID, err)
	}

	room, err := s.Registry.GetActiveRoom(from.ID)
	if err != nil {
		log.Printf("ERROR: Failed to look up active room for user %d: %v", from.ID, err)
	}
	if room != nil {
		if err := s.Dispatcher.Relay(ctx, room.ID, from.ID, text, source, models.MessageTypeText); err != nil {
			log.Printf("ERROR: Failed to relay message in room %s: %v", room.ID, err)
		}
		return
	}

	s.handleDirectTranslation(ctx, msg, user, text, source)
}

// handleDirectTranslation translates a message into the user's own
// preference set and replies with one message per language.
func (s *BotService) handleDirectTranslation(ctx context.Context, msg *tgbotapi.Message, user *models.User, text, source string) {
	from := msg.From
	lang := userLanguage(from)

	prefs, err := s.Storage.GetUserPreferences(from.ID)
	if err != nil {
		log.Printf("ERROR: Failed to load preferences for user %d: %v", from.ID, err)
		prefs = language.DefaultSet()
	}
	targets := withoutLanguage(prefs, source)
	if len(targets) == 0 {
		// The user only selected the language they wrote in; translate into
		// everything else instead of answering with nothing.
		targets = withoutLanguage(language.DefaultSet(), source)
	}

	translations := s.Engine.Translate(ctx, text, source, targets)
	if len(translations) == 0 {
		s.reply(msg.Chat.ID, s.Localizer.GetString(lang, "translation_failed"))
		return
	}

	for _, code := range targets {
		translated, ok := translations[code]
		if !ok {
			continue
		}
		s.reply(msg.Chat.ID, fmt.Sprintf("%s %s:\n%s", language.Flag(code), language.Name(code), translated))
	}

	if user != nil && user.VoiceRepliesEnabled {
		s.sendVoiceReplies(ctx, msg.Chat.ID, from.ID, targets, translations)
	}
}

// sendVoiceReplies synthesizes and sends a voice message per translation,
// best effort and bounded by the voice rate limit.
func (s *BotService) sendVoiceReplies(ctx context.Context, chatID, userID int64, targets []string, translations map[string]string) {
	for _, code := range targets {
		translated, ok := translations[code]
		if !ok {
			continue
		}
		if !s.Voices.Allow(ctx, userID) {
			return
		}

		audio, ok := s.Engine.SynthesizeSpeech(ctx, translated)
		if !ok {
			continue
		}
		if err := s.Client.DeliverVoice(chatID, audio, language.Flag(code)); err != nil {
			log.Printf("ERROR: Failed to send voice reply to %d: %v", chatID, err)
			continue
		}
		if err := s.Storage.IncrementVoiceResponses(userID); err != nil {
			log.Printf("ERROR: Failed to count voice response for user %d: %v", userID, err)
		}
	}
}

// handleVoiceMessage transcribes an incoming voice message and routes the
// transcript through the same path as typed text.
func (s *BotService) handleVoiceMessage(ctx context.Context, msg *tgbotapi.Message) {
	from := msg.From
	lang := userLanguage(from)

	user, err := s.Storage.GetUser(from.ID)
	if err != nil {
		log.Printf("ERROR: Failed to load user %d: %v", from.ID, err)
		return
	}
	if user != nil && user.IsDisabled {
		s.reply(msg.Chat.ID, s.Localizer.GetString(lang, "account_disabled"))
		return
	}
	if !s.Messages.Allow(ctx, from.ID) {
		s.reply(msg.Chat.ID, s.Localizer.GetString(lang, "rate_limited"))
		return
	}

	audio, err := s.downloadFile(msg.Voice.FileID)
	if err != nil {
		log.Printf("ERROR: Failed to download voice file from %d: %v", from.ID, err)
		s.reply(msg.Chat.ID, s.Localizer.GetString(lang, "voice_failed"))
		return
	}

	text, err := s.Engine.Transcribe(ctx, "voice.ogg", audio)
	if err != nil || text == "" {
		log.Printf("ERROR: Failed to transcribe voice message from %d: %v", from.ID, err)
		s.reply(msg.Chat.ID, s.Localizer.GetString(lang, "voice_failed"))
		return
	}

	source, ok := s.Detector.Detect(text)
	if !ok {
		s.reply(msg.Chat.ID, s.Localizer.GetString(lang, "detection_failed"))
		return
	}

	s.reply(msg.Chat.ID, s.Localizer.GetStringf(lang, "voice_transcribed",
		language.Flag(source), language.Name(source), truncate(text, config.TranslationTruncateLength)))

	if err := s.Storage.IncrementMessageCount(from.ID); err != nil {
		log.Printf("ERROR: Failed to count message for user %d: %v", from.ID, err)
	}

	room, err := s.Registry.GetActiveRoom(from.ID)
	if err != nil {
		log.Printf("ERROR: Failed to look up active room for user %d: %v", from.ID, err)
	}
	if room != nil {
		if err := s.Dispatcher.Relay(ctx, room.ID, from.ID, text, source, models.MessageTypeVoice); err != nil {
			log.Printf("ERROR: Failed to relay voice transcript in room %s: %v", room.ID, err)
		}
		return
	}

	s.handleDirectTranslation(ctx, msg, user, text, source)
}

func (s *BotService) downloadFile(fileID string) ([]byte, error) {
	url, err := s.BotAPI.GetFileDirectURL(fileID)
	if err != nil {
		return nil, fmt.Errorf("resolve file url: %w", err)
	}

	resp, err := s.HTTP.Get(url)
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download file: unexpected status %s", resp.Status)
	}
	return io.ReadAll(resp.Body)
}

func withoutLanguage(codes []string, drop string) []string {
	out := make([]string, 0, len(codes))
	for _, code := range codes {
		if code != drop {
			out = append(out, code)
		}
	}
	return out
}

func truncate(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max-3]) + "..."
}
