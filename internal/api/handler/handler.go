// Package handler exposes the admin HTTP API: service statistics, room
// moderation and a live websocket feed of relay events.
package handler

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"lingoroom/backend/internal/models"
	"lingoroom/backend/internal/relay"
	"lingoroom/backend/internal/storage"
)

// AdminStore is the slice of the storage layer the admin API needs.
type AdminStore interface {
	Stats() (*storage.Stats, error)
	ListActiveRooms() ([]models.Room, error)
	GetMembers(roomID string) ([]models.RoomMember, error)
	CloseRoom(roomID string) error
	SetUserDisabled(userID int64, disabled bool) error
}

// Handler holds the admin API dependencies.
type Handler struct {
	Store    AdminStore
	Secret   []byte
	AdminKey string
	hub      *EventHub
}

// NewHandler wires the admin API and starts fanning relay events out to
// websocket subscribers.
func NewHandler(store AdminStore, events <-chan relay.Event, secret []byte, adminKey string) *Handler {
	h := &Handler{
		Store:    store,
		Secret:   secret,
		AdminKey: adminKey,
		hub:      newEventHub(),
	}
	go h.hub.run(events)
	return h
}

// RegisterRoutes mounts the admin API on the given engine.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.POST("/api/auth/token", h.IssueToken)

	api := r.Group("/api", h.RequireAuth)
	api.GET("/stats", h.GetStats)
	api.GET("/rooms", h.ListRooms)
	api.POST("/rooms/:id/close", h.CloseRoom)
	api.POST("/users/:id/disable", h.setUserDisabled(true))
	api.POST("/users/:id/enable", h.setUserDisabled(false))
	api.GET("/events", h.ServeWebSocket)
}

// GetStats returns aggregate usage counters.
func (h *Handler) GetStats(c *gin.Context) {
	stats, err := h.Store.Stats()
	if err != nil {
		log.Printf("ERROR: Failed to collect stats: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to collect stats"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// ListRooms returns every active room with its member count.
func (h *Handler) ListRooms(c *gin.Context) {
	roomList, err := h.Store.ListActiveRooms()
	if err != nil {
		log.Printf("ERROR: Failed to list rooms: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list rooms"})
		return
	}

	type roomView struct {
		models.Room
		MemberCount int `json:"member_count"`
	}
	views := make([]roomView, 0, len(roomList))
	for _, room := range roomList {
		members, err := h.Store.GetMembers(room.ID)
		if err != nil {
			log.Printf("ERROR: Failed to count members of room %s: %v", room.ID, err)
		}
		views = append(views, roomView{Room: room, MemberCount: len(members)})
	}
	c.JSON(http.StatusOK, gin.H{"rooms": views})
}

// CloseRoom force-closes a room regardless of who created it.
func (h *Handler) CloseRoom(c *gin.Context) {
	roomID := c.Param("id")
	if err := h.Store.CloseRoom(roomID); err != nil {
		log.Printf("ERROR: Failed to close room %s: %v", roomID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to close room"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "closed"})
}

func (h *Handler) setUserDisabled(disabled bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
			return
		}
		if err := h.Store.SetUserDisabled(userID, disabled); err != nil {
			log.Printf("ERROR: Failed to set disabled=%v for user %d: %v", disabled, userID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update user"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"user_id": userID, "disabled": disabled})
	}
}
