package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/tencard/match-backend/pkg/comms"
	"github.com/tencard/match-backend/pkg/match"
	"github.com/tencard/match-backend/pkg/room"
	"github.com/tencard/match-backend/pkg/store"
	"go.uber.org/zap"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	log := zap.NewNop()
	registry := comms.NewRegistry()
	directory := room.NewDirectory(log, room.NewIDGenerator(10000), 100)
	coordinator := match.NewCoordinator(
		log, registry, directory, store.NewMemoryStore(), match.NewBlocklist(nil))

	s := NewServer(log, coordinator,
		func(r *http.Request) bool { return true }, 2)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func dial(t *testing.T, ts *httptest.Server, identity string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/match?identity=" + identity
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// readUntil reads messages until one with the wanted type tag arrives.
func readUntil(t *testing.T, conn *websocket.Conn, msgType string) map[string]interface{} {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		var msg map[string]interface{}
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("waiting for %s: %v", msgType, err)
		}
		if msg["type"] == msgType {
			return msg
		}
	}
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("healthz status = %d", resp.StatusCode)
	}
}

func TestRejectsInvalidIdentity(t *testing.T) {
	ts := newTestServer(t)
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/match?identity=not-a-uuid"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatal("expected the handshake to be rejected")
	}
	if resp == nil || resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected a 400 response, got %+v", resp)
	}
}

func TestJoinOverTheWire(t *testing.T) {
	ts := newTestServer(t)
	redID := uuid.NewString()
	blueID := uuid.NewString()

	red := dial(t, ts, redID)
	if err := red.WriteJSON(map[string]interface{}{
		"type": "join_room", "identity": redID,
		"roomCode": "4396", "nickname": "Ada",
	}); err != nil {
		t.Fatal(err)
	}
	state := readUntil(t, red, "room_state")
	if len(state["players"].([]interface{})) != 1 {
		t.Errorf("waiting room_state players = %v", state["players"])
	}

	blue := dial(t, ts, blueID)
	if err := blue.WriteJSON(map[string]interface{}{
		"type": "join_room", "identity": blueID,
		"roomCode": "4396", "nickname": "Bee",
	}); err != nil {
		t.Fatal(err)
	}

	for _, conn := range []*websocket.Conn{red, blue} {
		ready := readUntil(t, conn, "game_ready")
		if len(ready["players"].([]interface{})) != 2 {
			t.Errorf("game_ready players = %v", ready["players"])
		}
	}
}

func TestMalformedMessageIsDropped(t *testing.T) {
	ts := newTestServer(t)
	redID := uuid.NewString()
	red := dial(t, ts, redID)

	if err := red.WriteMessage(websocket.TextMessage, []byte(`{"type":"self_destruct"}`)); err != nil {
		t.Fatal(err)
	}
	// The connection survives the bad message and serves the next one.
	if err := red.WriteJSON(map[string]interface{}{
		"type": "join_room", "identity": redID,
		"roomCode": "4396", "nickname": "Ada",
	}); err != nil {
		t.Fatal(err)
	}
	readUntil(t, red, "room_state")
}
