package rooms_test

import (
	"sync"
	"time"

	"lingoroom/backend/internal/models"
	"lingoroom/backend/internal/storage"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// fakeStore is an in-memory Storage with the same atomicity contract as
// the SQL implementation, which locks the room row for update: the
// capacity check and member insert serialize under one lock, as do
// leave-and-close. It backs the concurrency property tests, where a
// testify mock cannot express the invariants.
type fakeStore struct {
	mu       sync.Mutex
	rooms    map[string]*models.Room
	members  map[string][]models.RoomMember
	messages []models.RoomMessage
	prefs    map[int64][]string
	users    map[int64]*models.User
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		rooms:   make(map[string]*models.Room),
		members: make(map[string][]models.RoomMember),
		prefs:   make(map[int64][]string),
		users:   make(map[int64]*models.User),
	}
}

func (f *fakeStore) CreateRoomWithCreator(room *models.Room, creator *models.RoomMember) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, existing := range f.rooms {
		if existing.Status == models.RoomStatusActive && existing.Code == room.Code {
			return gorm.ErrDuplicatedKey
		}
	}
	if room.ID == "" {
		room.ID = uuid.New().String()
	}
	creator.RoomID = room.ID
	f.rooms[room.ID] = room
	f.members[room.ID] = []models.RoomMember{*creator}
	return nil
}

func (f *fakeStore) GetRoomByCode(code string) (*models.Room, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, room := range f.rooms {
		if room.Code == code && room.Status == models.RoomStatusActive {
			copied := *room
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) GetRoomByID(roomID string) (*models.Room, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	room, ok := f.rooms[roomID]
	if !ok {
		return nil, nil
	}
	copied := *room
	return &copied, nil
}

func (f *fakeStore) GetActiveRoomForUser(userID int64) (*models.Room, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for roomID, members := range f.members {
		room := f.rooms[roomID]
		if room == nil || room.Status != models.RoomStatusActive {
			continue
		}
		for _, m := range members {
			if m.UserID == userID {
				copied := *room
				return &copied, nil
			}
		}
	}
	return nil, nil
}

func (f *fakeStore) GetMembers(roomID string) ([]models.RoomMember, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.RoomMember, len(f.members[roomID]))
	copy(out, f.members[roomID])
	return out, nil
}

func (f *fakeStore) IsMember(roomID string, userID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.members[roomID] {
		if m.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) AddMemberIfCapacity(member *models.RoomMember) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	room, ok := f.rooms[member.RoomID]
	if !ok {
		return false, nil
	}
	if len(f.members[member.RoomID]) >= room.MaxMembers {
		return false, nil
	}
	f.members[member.RoomID] = append(f.members[member.RoomID], *member)
	return true, nil
}

func (f *fakeStore) RemoveMemberAndMaybeClose(roomID string, userID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	members := f.members[roomID]
	for i, m := range members {
		if m.UserID == userID {
			f.members[roomID] = append(members[:i], members[i+1:]...)
			if len(f.members[roomID]) == 0 {
				if room := f.rooms[roomID]; room != nil {
					room.Status = models.RoomStatusClosed
				}
				return true, nil
			}
			return false, nil
		}
	}
	return false, gorm.ErrRecordNotFound
}

func (f *fakeStore) CloseRoom(roomID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if room := f.rooms[roomID]; room != nil && room.Status == models.RoomStatusActive {
		room.Status = models.RoomStatusClosed
	}
	return nil
}

func (f *fakeStore) ExpireRooms(now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var expired int64
	for _, room := range f.rooms {
		if room.Status == models.RoomStatusActive && room.ExpiresAt != nil && now.After(*room.ExpiresAt) {
			room.Status = models.RoomStatusClosed
			expired++
		}
	}
	return expired, nil
}

func (f *fakeStore) ListActiveRooms() ([]models.Room, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Room
	for _, room := range f.rooms {
		if room.Status == models.RoomStatusActive {
			out = append(out, *room)
		}
	}
	return out, nil
}

func (f *fakeStore) SaveRoomMessage(msg *models.RoomMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, *msg)
	return nil
}

func (f *fakeStore) TouchUser(user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[user.ID] = user
	return nil
}

func (f *fakeStore) GetUser(userID int64) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.users[userID], nil
}

func (f *fakeStore) SetUserDisabled(userID int64, disabled bool) error { return nil }
func (f *fakeStore) ToggleVoiceReplies(userID int64) (bool, error)     { return false, nil }
func (f *fakeStore) IncrementMessageCount(userID int64) error          { return nil }
func (f *fakeStore) IncrementVoiceResponses(userID int64) error        { return nil }

func (f *fakeStore) GetUserPreferences(userID int64) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.prefs[userID], nil
}

func (f *fakeStore) ToggleLanguagePreference(userID int64, languageCode string) ([]string, error) {
	return nil, nil
}

func (f *fakeStore) Stats() (*storage.Stats, error) { return &storage.Stats{}, nil }
