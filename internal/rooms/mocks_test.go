package rooms_test

import (
	"time"

	"lingoroom/backend/internal/models"
	"lingoroom/backend/internal/storage"

	"github.com/stretchr/testify/mock"
)

// MockStorage is a testify mock of the storage.Storage interface.
type MockStorage struct {
	mock.Mock
}

// User operations
func (m *MockStorage) TouchUser(user *models.User) error {
	args := m.Called(user)
	return args.Error(0)
}

func (m *MockStorage) GetUser(userID int64) (*models.User, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockStorage) SetUserDisabled(userID int64, disabled bool) error {
	args := m.Called(userID, disabled)
	return args.Error(0)
}

func (m *MockStorage) ToggleVoiceReplies(userID int64) (bool, error) {
	args := m.Called(userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockStorage) IncrementMessageCount(userID int64) error {
	args := m.Called(userID)
	return args.Error(0)
}

func (m *MockStorage) IncrementVoiceResponses(userID int64) error {
	args := m.Called(userID)
	return args.Error(0)
}

// Preference operations
func (m *MockStorage) GetUserPreferences(userID int64) ([]string, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockStorage) ToggleLanguagePreference(userID int64, languageCode string) ([]string, error) {
	args := m.Called(userID, languageCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

// Room operations
func (m *MockStorage) CreateRoomWithCreator(room *models.Room, creator *models.RoomMember) error {
	args := m.Called(room, creator)
	return args.Error(0)
}

func (m *MockStorage) GetRoomByCode(code string) (*models.Room, error) {
	args := m.Called(code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Room), args.Error(1)
}

func (m *MockStorage) GetRoomByID(roomID string) (*models.Room, error) {
	args := m.Called(roomID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Room), args.Error(1)
}

func (m *MockStorage) GetActiveRoomForUser(userID int64) (*models.Room, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Room), args.Error(1)
}

func (m *MockStorage) GetMembers(roomID string) ([]models.RoomMember, error) {
	args := m.Called(roomID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.RoomMember), args.Error(1)
}

func (m *MockStorage) IsMember(roomID string, userID int64) (bool, error) {
	args := m.Called(roomID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockStorage) AddMemberIfCapacity(member *models.RoomMember) (bool, error) {
	args := m.Called(member)
	return args.Bool(0), args.Error(1)
}

func (m *MockStorage) RemoveMemberAndMaybeClose(roomID string, userID int64) (bool, error) {
	args := m.Called(roomID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockStorage) CloseRoom(roomID string) error {
	args := m.Called(roomID)
	return args.Error(0)
}

func (m *MockStorage) ExpireRooms(now time.Time) (int64, error) {
	args := m.Called(now)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStorage) ListActiveRooms() ([]models.Room, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Room), args.Error(1)
}

// History operations
func (m *MockStorage) SaveRoomMessage(msg *models.RoomMessage) error {
	args := m.Called(msg)
	return args.Error(0)
}

// Admin operations
func (m *MockStorage) Stats() (*storage.Stats, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storage.Stats), args.Error(1)
}
