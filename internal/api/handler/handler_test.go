package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"lingoroom/backend/internal/models"
	"lingoroom/backend/internal/relay"
	"lingoroom/backend/internal/storage"
)

type MockAdminStore struct {
	mock.Mock
}

func (m *MockAdminStore) Stats() (*storage.Stats, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storage.Stats), args.Error(1)
}

func (m *MockAdminStore) ListActiveRooms() ([]models.Room, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Room), args.Error(1)
}

func (m *MockAdminStore) GetMembers(roomID string) ([]models.RoomMember, error) {
	args := m.Called(roomID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.RoomMember), args.Error(1)
}

func (m *MockAdminStore) CloseRoom(roomID string) error {
	args := m.Called(roomID)
	return args.Error(0)
}

func (m *MockAdminStore) SetUserDisabled(userID int64, disabled bool) error {
	args := m.Called(userID, disabled)
	return args.Error(0)
}

func newTestAPI(store AdminStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	events := make(chan relay.Event)
	close(events)

	h := NewHandler(store, events, []byte("test-secret"), "admin-key")
	r := gin.New()
	h.RegisterRoutes(r)
	return r
}

func obtainToken(t *testing.T, r *gin.Engine) string {
	t.Helper()
	body, _ := json.Marshal(gin.H{"key": "admin-key"})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/token", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func TestIssueToken_WrongKey(t *testing.T) {
	r := newTestAPI(new(MockAdminStore))

	body, _ := json.Marshal(gin.H{"key": "wrong"})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/token", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAuth_MissingToken(t *testing.T) {
	r := newTestAPI(new(MockAdminStore))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/stats", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAuth_GarbageToken(t *testing.T) {
	r := newTestAPI(new(MockAdminStore))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGetStats(t *testing.T) {
	store := new(MockAdminStore)
	store.On("Stats").Return(&storage.Stats{TotalUsers: 7, ActiveRooms: 2}, nil)
	r := newTestAPI(store)
	token := obtainToken(t, r)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var stats storage.Stats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, int64(7), stats.TotalUsers)
	assert.Equal(t, int64(2), stats.ActiveRooms)
}

func TestListRooms(t *testing.T) {
	store := new(MockAdminStore)
	store.On("ListActiveRooms").Return([]models.Room{{ID: "room-1", Code: "ABC234"}}, nil)
	store.On("GetMembers", "room-1").Return([]models.RoomMember{{UserID: 1}, {UserID: 2}}, nil)
	r := newTestAPI(store)
	token := obtainToken(t, r)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/rooms", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ABC234")
	assert.Contains(t, w.Body.String(), `"member_count":2`)
}

func TestCloseRoom(t *testing.T) {
	store := new(MockAdminStore)
	store.On("CloseRoom", "room-1").Return(nil)
	r := newTestAPI(store)
	token := obtainToken(t, r)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/rooms/room-1/close", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	store.AssertExpectations(t)
}

func TestDisableUser(t *testing.T) {
	store := new(MockAdminStore)
	store.On("SetUserDisabled", int64(42), true).Return(nil)
	r := newTestAPI(store)
	token := obtainToken(t, r)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/users/42/disable", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	store.AssertExpectations(t)
}

func TestDisableUser_BadID(t *testing.T) {
	r := newTestAPI(new(MockAdminStore))
	token := obtainToken(t, r)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/users/notanumber/disable", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
