package handler

import (
	"log"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"lingoroom/backend/internal/relay"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The admin API sits behind token auth; origin checks are not the gate here.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// EventHub fans relay events out to connected websocket subscribers.
type EventHub struct {
	mu    sync.Mutex
	conns map[*websocket.Conn]bool
}

func newEventHub() *EventHub {
	return &EventHub{conns: make(map[*websocket.Conn]bool)}
}

// run consumes the relay event stream until it closes. A subscriber that
// fails a write is dropped.
func (h *EventHub) run(events <-chan relay.Event) {
	for ev := range events {
		h.mu.Lock()
		for conn := range h.conns {
			if err := conn.WriteJSON(ev); err != nil {
				conn.Close()
				delete(h.conns, conn)
			}
		}
		h.mu.Unlock()
	}
}

func (h *EventHub) add(conn *websocket.Conn) {
	h.mu.Lock()
	h.conns[conn] = true
	h.mu.Unlock()
}

func (h *EventHub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	if h.conns[conn] {
		delete(h.conns, conn)
		conn.Close()
	}
	h.mu.Unlock()
}

// ServeWebSocket upgrades the connection and streams relay events to it.
func (h *Handler) ServeWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to upgrade connection"})
		return
	}

	h.hub.add(conn)
	log.Printf("INFO: Admin event subscriber connected from %s", c.ClientIP())

	// Drain reads so close frames and pings are processed; the subscriber
	// never sends application data.
	go func() {
		defer h.hub.remove(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
