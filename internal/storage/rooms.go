package storage

import (
	"errors"
	"log"
	"time"

	"lingoroom/backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CreateRoomWithCreator inserts the room row and its creator member row as
// one transaction. A unique-violation on the code bubbles up as
// gorm.ErrDuplicatedKey so the caller can retry with a fresh code.
func (s *Service) CreateRoomWithCreator(room *models.Room, creator *models.RoomMember) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(room).Error; err != nil {
			return err
		}
		creator.RoomID = room.ID
		return tx.Create(creator).Error
	})
}

// GetRoomByCode looks a room up by its join code among active rooms.
// Returns nil without error when no such room exists.
func (s *Service) GetRoomByCode(code string) (*models.Room, error) {
	var room models.Room
	err := s.DB.Where("code = ? AND status = ?", code, models.RoomStatusActive).First(&room).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		log.Printf("ERROR: Failed to get room by code %s: %v", code, err)
		return nil, err
	}
	return &room, nil
}

func (s *Service) GetRoomByID(roomID string) (*models.Room, error) {
	var room models.Room
	err := s.DB.Where("id = ?", roomID).First(&room).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		log.Printf("ERROR: Failed to get room %s: %v", roomID, err)
		return nil, err
	}
	return &room, nil
}

// GetActiveRoomForUser finds the active room the user is a member of, or
// nil when they are not in any room.
func (s *Service) GetActiveRoomForUser(userID int64) (*models.Room, error) {
	var room models.Room
	err := s.DB.
		Joins("JOIN room_members ON room_members.room_id = rooms.id").
		Where("room_members.user_id = ? AND rooms.status = ?", userID, models.RoomStatusActive).
		First(&room).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		log.Printf("ERROR: Failed to find active room for user %d: %v", userID, err)
		return nil, err
	}
	return &room, nil
}

// GetMembers returns all members of a room ordered by join time.
func (s *Service) GetMembers(roomID string) ([]models.RoomMember, error) {
	var members []models.RoomMember
	if err := s.DB.Where("room_id = ?", roomID).Order("joined_at asc").Find(&members).Error; err != nil {
		log.Printf("ERROR: Failed to get members for room %s: %v", roomID, err)
		return nil, err
	}
	return members, nil
}

func (s *Service) IsMember(roomID string, userID int64) (bool, error) {
	var count int64
	err := s.DB.Model(&models.RoomMember{}).
		Where("room_id = ? AND user_id = ?", roomID, userID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// AddMemberIfCapacity inserts the member only if the room still has a free
// slot. The room row is locked for the duration of the transaction, so
// concurrent joins serialize on the capacity check; under READ COMMITTED a
// bare count subquery reads a statement snapshot and two joins could both
// see the last free slot. Returns false when the room was already full.
func (s *Service) AddMemberIfCapacity(member *models.RoomMember) (bool, error) {
	added := false
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var room models.Room
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", member.RoomID).First(&room).Error; err != nil {
			return err
		}

		var count int64
		if err := tx.Model(&models.RoomMember{}).
			Where("room_id = ?", member.RoomID).Count(&count).Error; err != nil {
			return err
		}
		if count >= int64(room.MaxMembers) {
			return nil
		}

		added = true
		return tx.Create(member).Error
	})
	return added, err
}

// RemoveMemberAndMaybeClose deletes the membership row and, if that left
// the room empty, closes the room in the same transaction. The room row is
// locked first so two concurrent last-member leaves cannot each count the
// other's undeleted row and both skip the close. Returns whether the room
// was closed.
func (s *Service) RemoveMemberAndMaybeClose(roomID string, userID int64) (bool, error) {
	closed := false
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var room models.Room
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", roomID).First(&room).Error; err != nil {
			return err
		}

		res := tx.Where("room_id = ? AND user_id = ?", roomID, userID).Delete(&models.RoomMember{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		var remaining int64
		if err := tx.Model(&models.RoomMember{}).Where("room_id = ?", roomID).Count(&remaining).Error; err != nil {
			return err
		}
		if remaining > 0 {
			return nil
		}

		closed = true
		return tx.Model(&models.Room{}).
			Where("id = ? AND status = ?", roomID, models.RoomStatusActive).
			Update("status", models.RoomStatusClosed).Error
	})
	return closed, err
}

// CloseRoom marks the room closed. Closing an already-closed room is a
// no-op, which keeps the expiry sweep idempotent.
func (s *Service) CloseRoom(roomID string) error {
	return s.DB.Model(&models.Room{}).
		Where("id = ? AND status = ?", roomID, models.RoomStatusActive).
		Update("status", models.RoomStatusClosed).Error
}

// ExpireRooms closes every active room whose expiry has passed and returns
// how many were closed.
func (s *Service) ExpireRooms(now time.Time) (int64, error) {
	res := s.DB.Model(&models.Room{}).
		Where("status = ? AND expires_at IS NOT NULL AND expires_at < ?", models.RoomStatusActive, now).
		Update("status", models.RoomStatusClosed)
	if res.Error != nil {
		log.Printf("ERROR: Failed to expire rooms: %v", res.Error)
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (s *Service) ListActiveRooms() ([]models.Room, error) {
	var rooms []models.Room
	if err := s.DB.Where("status = ?", models.RoomStatusActive).Order("created_at desc").Find(&rooms).Error; err != nil {
		return nil, err
	}
	return rooms, nil
}

// SaveRoomMessage appends one message to the room history.
func (s *Service) SaveRoomMessage(msg *models.RoomMessage) error {
	if err := s.DB.Create(msg).Error; err != nil {
		log.Printf("ERROR: Failed to save message for room %s: %v", msg.RoomID, err)
		return err
	}
	return nil
}
