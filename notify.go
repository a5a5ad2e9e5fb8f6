package main

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"lg/fittrack-api/internal/logger"
)

const (
	eventIntakeCreated   = "intake.created"
	eventExerciseCreated = "exercise.created"
	eventEntryDeleted    = "entry.deleted"

	wsPingInterval = 25 * time.Second
	wsWriteTimeout = 10 * time.Second
)

// event is pushed to every open connection of the user whose log changed,
// so dashboards can refresh their summaries.
type event struct {
	Kind  string `json:"kind"`
	Entry any    `json:"entry,omitempty"`
	Table string `json:"table,omitempty"`
	ID    string `json:"id,omitempty"`
}

// wsClient is one open connection. gorilla connections allow a single
// concurrent writer, so writes go through mu.
type wsClient struct {
	userID int
	conn   *websocket.Conn
	mu     sync.Mutex
}

func (c *wsClient) write(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return c.conn.WriteMessage(messageType, data)
}

// notifyHub tracks open connections per user.
type notifyHub struct {
	mu      sync.RWMutex
	clients map[int]map[*wsClient]struct{}
	log     *logger.Logger
}

func newNotifyHub(l *logger.Logger) *notifyHub {
	return &notifyHub{clients: make(map[int]map[*wsClient]struct{}), log: l}
}

func (h *notifyHub) register(c *wsClient) {
	h.mu.Lock()
	if h.clients[c.userID] == nil {
		h.clients[c.userID] = make(map[*wsClient]struct{})
	}
	h.clients[c.userID][c] = struct{}{}
	h.mu.Unlock()
}

// unregister removes c and closes its connection. Safe to call twice.
func (h *notifyHub) unregister(c *wsClient) {
	h.mu.Lock()
	if set := h.clients[c.userID]; set != nil {
		delete(set, c)
		if len(set) == 0 {
			delete(h.clients, c.userID)
		}
	}
	h.mu.Unlock()
	_ = c.conn.Close()
}

// count returns the number of open connections for userID.
func (h *notifyHub) count(userID int) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// publish sends ev to every connection of userID. Failed connections are
// dropped. A nil hub is a no-op.
func (h *notifyHub) publish(userID int, ev event) {
	if h == nil {
		return
	}
	msg, err := json.Marshal(ev)
	if err != nil {
		h.log.Errorw("marshal event", "kind", ev.Kind, "error", err)
		return
	}

	h.mu.RLock()
	targets := make([]*wsClient, 0, len(h.clients[userID]))
	for c := range h.clients[userID] {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		if err := c.write(websocket.TextMessage, msg); err != nil {
			h.log.Debugw("drop websocket client", "user_id", userID, "error", err)
			h.unregister(c)
		}
	}
}

var upgrader = websocket.Upgrader{
	// Auth is by token, not cookie, so cross-origin handshakes are harmless.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// connectEvents upgrades to a websocket and streams log change events.
// GET /api/ws (token via Authorization header or ?token=).
func (h *Handler) connectEvents(c *gin.Context) {
	userID := c.GetInt("user_id")

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already written the error response.
		h.log.Debugw("websocket upgrade", "user_id", userID, "error", err)
		return
	}
	cl := &wsClient{userID: userID, conn: conn}
	h.hub.register(cl)

	done := make(chan struct{})
	defer close(done)

	// Keep connections alive through proxies.
	go func() {
		t := time.NewTicker(wsPingInterval)
		defer t.Stop()
		for {
			select {
			case <-done:
				return
			case <-t.C:
				if err := cl.write(websocket.PingMessage, nil); err != nil {
					h.hub.unregister(cl)
					return
				}
			}
		}
	}()

	// The read loop ends on client close or error.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			h.hub.unregister(cl)
			return
		}
	}
}
