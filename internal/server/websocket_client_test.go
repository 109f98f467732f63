package server

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// serveMessages starts a websocket server that sends messages then waits briefly.
func serveMessages(t *testing.T, messages ...string) *WebSocketClient {
	t.Helper()
	upgrader := websocket.Upgrader{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("Failed to upgrade: %v", err)
			return
		}
		defer conn.Close()

		for _, msg := range messages {
			conn.WriteMessage(websocket.TextMessage, []byte(msg))
		}
		time.Sleep(100 * time.Millisecond)
	}))
	t.Cleanup(server.Close)

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	return NewWebSocketClient(conn)
}

func TestWebSocketClient_ReadRequest_SkipsBlankMessages(t *testing.T) {
	client := serveMessages(t, "", "   ", "\n\n\n", `{"type":"load","id":"abc","ref":"1"}`)

	req, err := client.ReadRequest()
	if err != nil {
		t.Fatalf("ReadRequest failed: %v", err)
	}
	if req.Type != RequestLoad || req.ID != "abc" || req.Ref != "1" {
		t.Errorf("ReadRequest() = %+v", req)
	}
}

func TestWebSocketClient_ReadRequest_Fields(t *testing.T) {
	client := serveMessages(t, `{"type":"generate","width":30,"height":15,"difficulty":3,"seed":-4,"save":true}`)

	req, err := client.ReadRequest()
	if err != nil {
		t.Fatalf("ReadRequest failed: %v", err)
	}
	if req.Width != 30 || req.Height != 15 || req.Difficulty != 3 || !req.Save {
		t.Errorf("ReadRequest() = %+v", req)
	}
	if req.Seed == nil || *req.Seed != -4 {
		t.Errorf("expected seed -4, got %v", req.Seed)
	}
}

func TestWebSocketClient_ReadRequest_Malformed(t *testing.T) {
	client := serveMessages(t, "{bad", `{"type":"load"}`)

	_, err := client.ReadRequest()
	var malformed errMalformed
	if !errors.As(err, &malformed) {
		t.Fatalf("expected errMalformed, got %v", err)
	}

	req, err := client.ReadRequest()
	if err != nil || req.Type != RequestLoad {
		t.Errorf("next ReadRequest() = %+v, %v", req, err)
	}
}

func TestWebSocketClient_ReadRequest_Closed(t *testing.T) {
	client := serveMessages(t)

	_, err := client.ReadRequest()
	if err == nil {
		t.Fatal("expected error after server closed the connection")
	}
	var malformed errMalformed
	if errors.As(err, &malformed) {
		t.Error("connection loss should not be reported as malformed")
	}
}
