// Package relay fans room messages out to their recipients. For every relayed
// message it computes the distinct target languages of the room, asks the
// translation engine once for all of them, and delivers a per-recipient
// rendering concurrently. Delivery failures are isolated per recipient and the
// original message is always appended to the room history.
package relay

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"lingoroom/backend/internal/language"
	"lingoroom/backend/internal/localization"
	"lingoroom/backend/internal/models"
)

// Engine translates a message into a set of target languages. Languages the
// upstream could not translate are simply absent from the result.
type Engine interface {
	Translate(ctx context.Context, text, sourceLang string, targetLangs []string) map[string]string
}

// Deliverer pushes a rendered message to a single user.
type Deliverer interface {
	Deliver(userID int64, text string) error
}

// MemberSource lists the current members of a room.
type MemberSource interface {
	GetMembers(roomID string) ([]models.RoomMember, error)
}

// HistoryStore appends messages to the room history.
type HistoryStore interface {
	SaveRoomMessage(msg *models.RoomMessage) error
}

// Event describes one completed relay. Events feed the admin websocket stream.
type Event struct {
	RoomID     string    `json:"room_id"`
	SenderID   int64     `json:"sender_id"`
	SenderName string    `json:"sender_name"`
	SourceLang string    `json:"source_lang"`
	Languages  []string  `json:"languages"`
	Delivered  int       `json:"delivered"`
	Failed     int       `json:"failed"`
	At         time.Time `json:"at"`
}

// Dispatcher relays room messages between members.
type Dispatcher struct {
	Members MemberSource
	Engine  Engine
	Deliver Deliverer
	History HistoryStore
	Locales *localization.Localizer

	// DeliveryTimeout bounds how long a relay waits for its deliveries.
	DeliveryTimeout time.Duration

	events chan Event
	now    func() time.Time
}

// NewDispatcher returns a Dispatcher wired to the given collaborators.
func NewDispatcher(members MemberSource, engine Engine, deliver Deliverer, history HistoryStore, locales *localization.Localizer, deliveryTimeout time.Duration) *Dispatcher {
	return &Dispatcher{
		Members:         members,
		Engine:          engine,
		Deliver:         deliver,
		History:         history,
		Locales:         locales,
		DeliveryTimeout: deliveryTimeout,
		events:          make(chan Event, 64),
		now:             time.Now,
	}
}

// Events exposes the relay event stream. Events are dropped when no consumer
// keeps up, relays never block on observers.
func (d *Dispatcher) Events() <-chan Event {
	return d.events
}

// Relay translates a member's message and delivers it to every other member of
// the room in their own language. Recipients who share the sender's language
// receive nothing. The original message is appended to the room history as a
// terminal step regardless of translation or delivery outcomes, recorded under
// msgType so transcribed voice messages stay distinguishable from typed ones; a
// history write failure is the only error Relay returns.
func (d *Dispatcher) Relay(ctx context.Context, roomID string, senderID int64, text, sourceLang, msgType string) error {
	members, err := d.Members.GetMembers(roomID)
	if err != nil {
		return fmt.Errorf("fetch room members: %w", err)
	}

	var sender *models.RoomMember
	recipients := make([]models.RoomMember, 0, len(members))
	for i := range members {
		if members[i].UserID == senderID {
			sender = &members[i]
			continue
		}
		recipients = append(recipients, members[i])
	}
	if sender == nil {
		return fmt.Errorf("sender %d is not a member of room %s", senderID, roomID)
	}
	if len(recipients) == 0 {
		return nil
	}

	targets := distinctLanguages(recipients, sourceLang)

	var translations map[string]string
	if len(targets) > 0 {
		translations = d.Engine.Translate(ctx, text, sourceLang, targets)
	}

	var delivered, failed int
	if len(targets) > 0 && len(translations) == 0 {
		// The upstream failed for every language. Tell the sender instead of
		// dropping the message silently.
		notice := d.Locales.GetString(sender.LanguageCode, "translation_failed")
		if err := d.Deliver.Deliver(senderID, notice); err != nil {
			log.Printf("ERROR: Failed to notify sender %d about translation failure: %v", senderID, err)
		}
	} else {
		delivered, failed = d.fanOut(sender, recipients, translations)
	}

	d.emit(Event{
		RoomID:     roomID,
		SenderID:   senderID,
		SenderName: sender.DisplayName(),
		SourceLang: sourceLang,
		Languages:  targets,
		Delivered:  delivered,
		Failed:     failed,
		At:         d.now(),
	})

	if err := d.History.SaveRoomMessage(&models.RoomMessage{
		RoomID:       roomID,
		UserID:       senderID,
		Text:         text,
		LanguageCode: sourceLang,
		Type:         msgType,
	}); err != nil {
		log.Printf("ERROR: Failed to save room message for room %s: %v", roomID, err)
		return fmt.Errorf("save room message: %w", err)
	}
	return nil
}

// Announce delivers a notice to every member of the room except excludeID. The
// render callback produces the text for each member, so notices can be
// localized per recipient. Delivery failures are logged and skipped.
func (d *Dispatcher) Announce(roomID string, excludeID int64, render func(m models.RoomMember) string) error {
	members, err := d.Members.GetMembers(roomID)
	if err != nil {
		return fmt.Errorf("fetch room members: %w", err)
	}

	var wg sync.WaitGroup
	for _, member := range members {
		if member.UserID == excludeID {
			continue
		}
		text := render(member)
		wg.Add(1)
		go func(userID int64) {
			defer wg.Done()
			if err := d.Deliver.Deliver(userID, text); err != nil {
				log.Printf("ERROR: Failed to deliver room notice to user %d: %v", userID, err)
			}
		}(member.UserID)
	}
	if !waitTimeout(&wg, d.DeliveryTimeout) {
		log.Printf("WARN: Room %s notice deliveries still pending after %v", roomID, d.DeliveryTimeout)
	}
	return nil
}

// fanOut delivers the translated message to every recipient whose language got
// a translation. Deliveries run concurrently and one failure never blocks the
// others.
func (d *Dispatcher) fanOut(sender *models.RoomMember, recipients []models.RoomMember, translations map[string]string) (int, int) {
	var delivered, failed atomic.Int64
	var wg sync.WaitGroup
	for _, member := range recipients {
		translated, ok := translations[member.LanguageCode]
		if !ok {
			continue
		}
		text := FormatRelay(sender.DisplayName(), sender.LanguageCode, member.LanguageCode, translated)
		wg.Add(1)
		go func(userID int64) {
			defer wg.Done()
			if err := d.Deliver.Deliver(userID, text); err != nil {
				log.Printf("ERROR: Failed to deliver room message to user %d: %v", userID, err)
				failed.Add(1)
				return
			}
			delivered.Add(1)
		}(member.UserID)
	}
	if !waitTimeout(&wg, d.DeliveryTimeout) {
		log.Printf("WARN: Room message deliveries still pending after %v", d.DeliveryTimeout)
	}
	return int(delivered.Load()), int(failed.Load())
}

func (d *Dispatcher) emit(ev Event) {
	select {
	case d.events <- ev:
	default:
	}
}

// distinctLanguages returns the deduplicated member languages minus the
// sender's own, in first-seen order.
func distinctLanguages(members []models.RoomMember, sourceLang string) []string {
	seen := map[string]bool{sourceLang: true}
	var langs []string
	for _, m := range members {
		if seen[m.LanguageCode] {
			continue
		}
		seen[m.LanguageCode] = true
		langs = append(langs, m.LanguageCode)
	}
	return langs
}

// FormatRelay renders a relayed message for one recipient, e.g.
//
//	💬 Alice 🇺🇸:
//	→ 🇷🇺 Привет
func FormatRelay(senderName, sourceLang, targetLang, text string) string {
	return fmt.Sprintf("💬 %s %s:\n→ %s %s", senderName, language.Flag(sourceLang), language.Flag(targetLang), text)
}

func waitTimeout(wg *sync.WaitGroup, timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return true
	case <-time.After(timeout):
		return false
	}
}
