// Package storage is the persistence layer. All room, membership, history
// and preference state lives in PostgreSQL behind the Storage interface;
// nothing else in the application keeps a competing copy of it.
package storage

import (
	"time"

	"lingoroom/backend/internal/models"

	"gorm.io/gorm"
)

type Storage interface {
	// Users
	TouchUser(user *models.User) error
	GetUser(userID int64) (*models.User, error)
	SetUserDisabled(userID int64, disabled bool) error
	ToggleVoiceReplies(userID int64) (bool, error)
	IncrementMessageCount(userID int64) error
	IncrementVoiceResponses(userID int64) error

	// Language preferences for direct translations
	GetUserPreferences(userID int64) ([]string, error)
	ToggleLanguagePreference(userID int64, languageCode string) ([]string, error)

	// Rooms and membership
	CreateRoomWithCreator(room *models.Room, creator *models.RoomMember) error
	GetRoomByCode(code string) (*models.Room, error)
	GetRoomByID(roomID string) (*models.Room, error)
	GetActiveRoomForUser(userID int64) (*models.Room, error)
	GetMembers(roomID string) ([]models.RoomMember, error)
	IsMember(roomID string, userID int64) (bool, error)
	AddMemberIfCapacity(member *models.RoomMember) (bool, error)
	RemoveMemberAndMaybeClose(roomID string, userID int64) (bool, error)
	CloseRoom(roomID string) error
	ExpireRooms(now time.Time) (int64, error)
	ListActiveRooms() ([]models.Room, error)

	// Message history, append-only
	SaveRoomMessage(msg *models.RoomMessage) error

	// Admin
	Stats() (*Stats, error)
}

// Service is the PostgreSQL-backed Storage implementation.
type Service struct {
	DB *gorm.DB
}

// NewStorageService Constructor
func NewStorageService(db *gorm.DB) *Service {
	return &Service{DB: db}
}

// Migrate creates or updates all tables the service needs.
func (s *Service) Migrate() error {
	return s.DB.AutoMigrate(
		&models.User{},
		&models.UserPreference{},
		&models.Room{},
		&models.RoomMember{},
		&models.RoomMessage{},
	)
}
