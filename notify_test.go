package main

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"lg/fittrack-api/internal/logger"
)

// setupEventsServer serves connectEvents for user 7 behind a real listener.
func setupEventsServer(t *testing.T) (*Handler, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	h := &Handler{log: logger.NewNop(), hub: newNotifyHub(logger.NewNop())}
	router := gin.New()
	router.GET("/api/ws", func(c *gin.Context) {
		c.Set("user_id", 7)
		c.Next()
	}, h.connectEvents)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return h, "ws" + strings.TrimPrefix(server.URL, "http") + "/api/ws"
}

// waitForClients polls until userID has n open connections.
func waitForClients(t *testing.T, hub *notifyHub, userID, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.count(userID) != n {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d clients, have %d", n, hub.count(userID))
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestNotify_PublishReachesUser(t *testing.T) {
	h, url := setupEventsServer(t)

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	waitForClients(t, h.hub, 7, 1)

	// Events for other users are not delivered.
	h.hub.publish(8, event{Kind: eventEntryDeleted, Table: "food_intake", ID: "99"})
	h.hub.publish(7, event{Kind: eventEntryDeleted, Table: "food_intake", ID: "12"})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got event
	if err := conn.ReadJSON(&got); err != nil {
		t.Fatalf("read: %v", err)
	}
	if got.Kind != eventEntryDeleted || got.ID != "12" || got.Table != "food_intake" {
		t.Errorf("unexpected event: %+v", got)
	}
}

func TestNotify_UnregisterOnClose(t *testing.T) {
	h, url := setupEventsServer(t)

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	waitForClients(t, h.hub, 7, 1)

	conn.Close()
	waitForClients(t, h.hub, 7, 0)
}

func TestNotify_NilHubPublishIsNoop(t *testing.T) {
	var hub *notifyHub
	hub.publish(1, event{Kind: eventIntakeCreated})
}
