// Package rooms owns room and membership lifecycle: create, join, leave,
// close and expiry, with the capacity and code-uniqueness rules enforced
// at the storage layer.
package rooms

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand/v2"
	"time"

	"lingoroom/backend/internal/config"
	"lingoroom/backend/internal/models"
	"lingoroom/backend/internal/storage"

	"gorm.io/gorm"
)

// Registry implements the room command surface on top of Storage.
type Registry struct {
	Store storage.Storage

	now func() time.Time
}

func NewRegistry(store storage.Storage) *Registry {
	return &Registry{Store: store, now: time.Now}
}

// generateCode produces a short join code from an alphabet without
// easily-confused characters.
func generateCode() string {
	b := make([]byte, config.RoomCodeLength)
	for i := range b {
		b[i] = config.RoomCodeAlphabet[rand.IntN(len(config.RoomCodeAlphabet))]
	}
	return string(b)
}

// CreateRoom creates a room with the caller as its creator member, both in
// one transaction, and returns the room. Code collisions against active
// rooms are retried internally; the caller never sees them.
func (r *Registry) CreateRoom(creator models.RoomMember, name string) (*models.Room, error) {
	now := r.now()
	expiresAt := now.Add(config.RoomLifetime)

	for attempt := 0; attempt < config.RoomCodeMaxAttempts; attempt++ {
		room := &models.Room{
			Code:       generateCode(),
			CreatorID:  creator.UserID,
			Name:       name,
			Status:     models.RoomStatusActive,
			MaxMembers: config.DefaultMaxMembers,
			CreatedAt:  now,
			ExpiresAt:  &expiresAt,
		}
		member := creator
		member.Role = models.RoleCreator
		member.JoinedAt = now

		err := r.Store.CreateRoomWithCreator(room, &member)
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to create room: %w", err)
		}

		log.Printf("INFO: Room %s created by user %d", room.Code, creator.UserID)
		return room, nil
	}
	return nil, fmt.Errorf("failed to create room: code collisions exhausted %d attempts", config.RoomCodeMaxAttempts)
}

// JoinRoom adds the caller to the room identified by code. Expiry noticed
// here closes the room as a side effect. The capacity check is atomic with
// the membership insert, so concurrent joins cannot overfill a room.
func (r *Registry) JoinRoom(code string, joiner models.RoomMember) (*models.Room, error) {
	room, err := r.Store.GetRoomByCode(code)
	if err != nil {
		return nil, err
	}
	if room == nil {
		return nil, ErrRoomNotFound
	}

	if room.IsExpired(r.now()) {
		if err := r.Store.CloseRoom(room.ID); err != nil {
			log.Printf("ERROR: Failed to close expired room %s: %v", room.ID, err)
		}
		return nil, ErrRoomExpired
	}

	isMember, err := r.Store.IsMember(room.ID, joiner.UserID)
	if err != nil {
		return nil, err
	}
	if isMember {
		return room, ErrAlreadyMember
	}

	member := joiner
	member.RoomID = room.ID
	member.Role = models.RoleMember
	member.JoinedAt = r.now()

	inserted, err := r.Store.AddMemberIfCapacity(&member)
	if err != nil {
		return nil, err
	}
	if !inserted {
		return room, ErrRoomFull
	}

	log.Printf("INFO: User %d joined room %s", joiner.UserID, room.Code)
	return room, nil
}

// LeaveRoom removes the caller from their active room. When the last
// member leaves, the room closes in the same transaction. Returns the room
// that was left and whether it closed.
func (r *Registry) LeaveRoom(userID int64) (*models.Room, bool, error) {
	room, err := r.Store.GetActiveRoomForUser(userID)
	if err != nil {
		return nil, false, err
	}
	if room == nil {
		return nil, false, ErrNotInRoom
	}

	closed, err := r.Store.RemoveMemberAndMaybeClose(room.ID, userID)
	if err != nil {
		return nil, false, err
	}

	log.Printf("INFO: User %d left room %s (closed=%v)", userID, room.Code, closed)
	return room, closed, nil
}

// CloseRoom closes the room on behalf of requesterID, which must be the
// recorded creator.
func (r *Registry) CloseRoom(roomID string, requesterID int64) error {
	room, err := r.Store.GetRoomByID(roomID)
	if err != nil {
		return err
	}
	if room == nil || !room.IsActive() {
		return ErrRoomNotFound
	}
	if room.CreatorID != requesterID {
		return ErrNotCreator
	}

	if err := r.Store.CloseRoom(roomID); err != nil {
		return err
	}
	log.Printf("INFO: Room %s closed by creator %d", room.Code, requesterID)
	return nil
}

// GetActiveRoom returns the caller's active room, or nil.
func (r *Registry) GetActiveRoom(userID int64) (*models.Room, error) {
	return r.Store.GetActiveRoomForUser(userID)
}

// GetMembers returns the room's members.
func (r *Registry) GetMembers(roomID string) ([]models.RoomMember, error) {
	return r.Store.GetMembers(roomID)
}

// ExpireRooms closes every room whose lifetime has passed. Idempotent and
// safe to run concurrently with user actions.
func (r *Registry) ExpireRooms(now time.Time) (int64, error) {
	expired, err := r.Store.ExpireRooms(now)
	if err != nil {
		return 0, err
	}
	if expired > 0 {
		log.Printf("INFO: Expired %d room(s)", expired)
	}
	return expired, nil
}

// RunSweeper periodically expires rooms until the context is cancelled.
func (r *Registry) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if _, err := r.ExpireRooms(now); err != nil {
				log.Printf("ERROR: Room expiry sweep failed: %v", err)
			}
		}
	}
}
