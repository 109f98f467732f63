package server

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/lawnchairsociety/puzzlemap/internal/config"
	"github.com/lawnchairsociety/puzzlemap/internal/mapgen"
	"github.com/lawnchairsociety/puzzlemap/internal/mapstore"
)

func openTestStore(t *testing.T) *mapstore.Store {
	t.Helper()
	store, err := mapstore.Open(filepath.Join(t.TempDir(), "maps.db"))
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func newTestServer(t *testing.T, cfg *config.Config, store MapStore) (*Server, *httptest.Server) {
	t.Helper()
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	s := NewServer(cfg, mapgen.DefaultConfig(), store)
	t.Cleanup(func() { s.Shutdown(context.Background()) })

	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts
}

func dial(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func roundTrip(t *testing.T, conn *websocket.Conn, req any) Response {
	t.Helper()
	if err := conn.WriteJSON(req); err != nil {
		t.Fatalf("WriteJSON failed: %v", err)
	}
	conn.SetReadDeadline(time.Now().Add(10 * time.Second))
	var resp Response
	if err := conn.ReadJSON(&resp); err != nil {
		t.Fatalf("ReadJSON failed: %v", err)
	}
	return resp
}

func seed(n int64) *int64 { return &n }

func TestServer_NewServer_Defaults(t *testing.T) {
	cfg := config.DefaultConfig()
	s := NewServer(cfg, mapgen.DefaultConfig(), nil)
	defer s.Shutdown(context.Background())

	if s.cfg.Address != ":8080" {
		t.Errorf("Expected address :8080, got %s", s.cfg.Address)
	}
	if s.store != nil {
		t.Error("store should be nil")
	}
	if s.clients == nil || s.connLimiter == nil || s.genLimiter == nil || s.rateLimiter == nil {
		t.Error("server not fully initialized")
	}
	if s.StartTime.IsZero() || time.Since(s.StartTime) > time.Minute {
		t.Errorf("StartTime not set correctly: %v", s.StartTime)
	}
}

func TestServer_Shutdown_CalledTwice(t *testing.T) {
	s := NewServer(config.DefaultConfig(), mapgen.DefaultConfig(), nil)

	if err := s.Shutdown(context.Background()); err != nil {
		t.Errorf("first Shutdown() failed: %v", err)
	}
	if err := s.Shutdown(context.Background()); err != nil {
		t.Errorf("second Shutdown() failed: %v", err)
	}
}

func TestServer_Shutdown_Concurrent(t *testing.T) {
	s := NewServer(config.DefaultConfig(), mapgen.DefaultConfig(), nil)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Shutdown(context.Background())
		}()
	}
	wg.Wait()
}

func TestServer_ServeAndShutdown(t *testing.T) {
	s := NewServer(config.DefaultConfig(), mapgen.DefaultConfig(), nil)

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen failed: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- s.Serve(listener) }()

	conn, _, err := websocket.DefaultDialer.Dial("ws://"+listener.Addr().String()+"/ws", nil)
	if err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		t.Errorf("Shutdown() failed: %v", err)
	}

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve() returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve() did not return after Shutdown")
	}

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Error("expected open websocket to be closed by Shutdown")
	}
}

func TestWebSocket_Generate(t *testing.T) {
	_, ts := newTestServer(t, nil, nil)
	conn := dial(t, ts)

	resp := roundTrip(t, conn, Request{
		Type: RequestGenerate, Ref: "r1",
		Width: 25, Height: 10, Difficulty: 2, Seed: seed(7),
	})

	if resp.Type != ResponseMap || resp.Ref != "r1" || resp.Seed != 7 {
		t.Fatalf("response = %+v", resp)
	}
	if resp.ID != "" {
		t.Errorf("unsaved map should have no id, got %q", resp.ID)
	}

	want, err := mapgen.NewSeededGenerator(mapgen.DefaultConfig(), 7).Generate(25, 10, 2)
	if err != nil {
		t.Fatalf("Generate() failed: %v", err)
	}
	got, err := mapgen.FromData(*resp.Map)
	if err != nil {
		t.Fatalf("response map invalid: %v", err)
	}
	if got.Width() != want.Width() || got.Height() != want.Height() {
		t.Fatalf("got %dx%d, want %dx%d", got.Width(), got.Height(), want.Width(), want.Height())
	}
	for i, tile := range want.Tiles() {
		if got.Tiles()[i] != tile {
			t.Fatalf("tile %d = %d, want %d", i, got.Tiles()[i], tile)
		}
	}
}

func TestWebSocket_GenerateDefaults(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Generator.Width = 20
	cfg.Generator.Height = 10
	_, ts := newTestServer(t, cfg, nil)
	conn := dial(t, ts)

	resp := roundTrip(t, conn, Request{Type: RequestGenerate})
	if resp.Type != ResponseMap {
		t.Fatalf("response = %+v", resp)
	}
	if resp.Map.Width != 20 || resp.Map.Difficulty != cfg.Generator.Difficulty {
		t.Errorf("map = %dx%d difficulty %d", resp.Map.Width, resp.Map.Height, resp.Map.Difficulty)
	}
}

func TestWebSocket_SaveAndLoad(t *testing.T) {
	store := openTestStore(t)
	_, ts := newTestServer(t, nil, store)
	conn := dial(t, ts)

	saved := roundTrip(t, conn, Request{Type: RequestGenerate, Width: 20, Height: 10, Difficulty: 1, Seed: seed(3), Save: true})
	if saved.Type != ResponseMap || saved.ID == "" {
		t.Fatalf("save response = %+v", saved)
	}
	if n, _ := store.Count(); n != 1 {
		t.Errorf("store Count() = %d, want 1", n)
	}

	loaded := roundTrip(t, conn, Request{Type: RequestLoad, Ref: "load", ID: saved.ID})
	if loaded.Type != ResponseMap || loaded.ID != saved.ID || loaded.Seed != 3 || loaded.Ref != "load" {
		t.Fatalf("load response = %+v", loaded)
	}
	if len(loaded.Map.Tiles) != len(saved.Map.Tiles) {
		t.Errorf("loaded %d tiles, saved %d", len(loaded.Map.Tiles), len(saved.Map.Tiles))
	}
}

func TestWebSocket_Errors(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Server.Generation.MaxMapTiles = 500
	cfg.Server.RateLimit.MaxFailures = 100
	store := openTestStore(t)

	tests := []struct {
		name  string
		store MapStore
		req   Request
		code  string
	}{
		{"unknown type", store, Request{Type: "explode"}, CodeBadRequest},
		{"width not a piece multiple", store, Request{Type: RequestGenerate, Width: 12, Height: 10, Difficulty: 1}, CodeInvalidMap},
		{"too narrow", store, Request{Type: RequestGenerate, Width: 10, Height: 10, Difficulty: 1}, CodeInvalidMap},
		{"bad difficulty", store, Request{Type: RequestGenerate, Width: 20, Height: 10, Difficulty: 9}, CodeInvalidMap},
		{"too large", store, Request{Type: RequestGenerate, Width: 50, Height: 25, Difficulty: 1}, CodeTooLarge},
		{"load without id", store, Request{Type: RequestLoad}, CodeBadRequest},
		{"load missing", store, Request{Type: RequestLoad, ID: "0b1d3c4e-7f00-4a4e-9d7a-3c2b1a000000"}, CodeNotFound},
		{"load without store", nil, Request{Type: RequestLoad, ID: "x"}, CodeNoStore},
		{"save without store", nil, Request{Type: RequestGenerate, Width: 20, Height: 10, Difficulty: 1, Save: true}, CodeNoStore},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ts := newTestServer(t, cfg, tt.store)
			conn := dial(t, ts)

			tt.req.Ref = tt.name
			resp := roundTrip(t, conn, tt.req)
			if resp.Type != ResponseError || resp.Code != tt.code {
				t.Errorf("response = %+v, want error %s", resp, tt.code)
			}
			if resp.Ref != tt.name || resp.Error == "" {
				t.Errorf("error response missing ref or message: %+v", resp)
			}
		})
	}
}

func TestWebSocket_MalformedKeepsConnection(t *testing.T) {
	_, ts := newTestServer(t, nil, nil)
	conn := dial(t, ts)

	conn.WriteMessage(websocket.TextMessage, []byte("   "))
	conn.WriteMessage(websocket.TextMessage, []byte("{not json"))

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var resp Response
	if err := conn.ReadJSON(&resp); err != nil {
		t.Fatalf("ReadJSON failed: %v", err)
	}
	if resp.Code != CodeBadRequest {
		t.Errorf("response = %+v, want bad_request", resp)
	}

	ok := roundTrip(t, conn, Request{Type: RequestGenerate, Width: 20, Height: 10, Difficulty: 1})
	if ok.Type != ResponseMap {
		t.Errorf("connection unusable after malformed request: %+v", ok)
	}
}

func TestWebSocket_Lockout(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Server.RateLimit = config.RateLimitConfig{MaxFailures: 2, LockoutSeconds: 60, MaxLockoutSeconds: 60}
	_, ts := newTestServer(t, cfg, nil)
	conn := dial(t, ts)

	roundTrip(t, conn, Request{Type: "bogus"})
	roundTrip(t, conn, Request{Type: "bogus"})

	resp := roundTrip(t, conn, Request{Type: RequestGenerate, Width: 20, Height: 10, Difficulty: 1})
	if resp.Code != CodeLockedOut {
		t.Errorf("response = %+v, want locked_out", resp)
	}
}

func TestWebSocket_ConnectionLimit(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Server.Connections.MaxPerIP = 1
	_, ts := newTestServer(t, cfg, nil)

	dial(t, ts)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err == nil {
		t.Fatal("second connection should be rejected")
	}
	if resp == nil || resp.StatusCode != http.StatusTooManyRequests {
		t.Errorf("expected 429, got %v", resp)
	}
}

func TestWebSocket_OriginRejected(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Server.WebSocket.AllowedOrigins = []string{"https://example.com"}
	s, ts := newTestServer(t, cfg, nil)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	header := http.Header{"Origin": []string{"http://evil.com"}}
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, header)
	if err == nil {
		t.Fatal("connection from disallowed origin should fail")
	}
	if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403, got %v", resp)
	}
	// The slot is released after the handshake response is written
	deadline := time.Now().Add(2 * time.Second)
	for {
		total, _ := s.connLimiter.GetStats()
		if total == 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Errorf("rejected upgrade should release its slot, %d held", total)
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestHTTP_Maps(t *testing.T) {
	store := openTestStore(t)
	m, err := mapgen.NewSeededGenerator(mapgen.DefaultConfig(), 9).Generate(20, 10, 3)
	if err != nil {
		t.Fatalf("Generate() failed: %v", err)
	}
	rec, err := store.SaveMap(m, 9)
	if err != nil {
		t.Fatalf("SaveMap() failed: %v", err)
	}
	_, ts := newTestServer(t, nil, store)

	resp, err := http.Get(ts.URL + "/maps")
	if err != nil {
		t.Fatalf("GET /maps failed: %v", err)
	}
	var records []mapstore.Record
	json.NewDecoder(resp.Body).Decode(&records)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || len(records) != 1 || records[0].ID != rec.ID {
		t.Errorf("GET /maps = %d %+v", resp.StatusCode, records)
	}

	resp, err = http.Get(ts.URL + "/maps/" + rec.ID)
	if err != nil {
		t.Fatalf("GET /maps/{id} failed: %v", err)
	}
	var body MapResponse
	json.NewDecoder(resp.Body).Decode(&body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || body.Record.Seed != 9 || body.Map.Difficulty != 3 {
		t.Errorf("GET /maps/{id} = %d %+v", resp.StatusCode, body.Record)
	}
	if resp.Header.Get("Content-Type") != "application/json" {
		t.Errorf("Content-Type = %q", resp.Header.Get("Content-Type"))
	}
}

func TestHTTP_StatusCodes(t *testing.T) {
	store := openTestStore(t)

	tests := []struct {
		name   string
		store  MapStore
		path   string
		status int
	}{
		{"missing map", store, "/maps/0b1d3c4e-7f00-4a4e-9d7a-3c2b1a000000", http.StatusNotFound},
		{"invalid id", store, "/maps/nope", http.StatusNotFound},
		{"bad limit", store, "/maps?limit=abc", http.StatusBadRequest},
		{"negative limit", store, "/maps?limit=-1", http.StatusBadRequest},
		{"list without store", nil, "/maps", http.StatusServiceUnavailable},
		{"get without store", nil, "/maps/abc", http.StatusServiceUnavailable},
		{"health", nil, "/health", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ts := newTestServer(t, nil, tt.store)
			resp, err := http.Get(ts.URL + tt.path)
			if err != nil {
				t.Fatalf("GET %s failed: %v", tt.path, err)
			}
			resp.Body.Close()
			if resp.StatusCode != tt.status {
				t.Errorf("GET %s = %d, want %d", tt.path, resp.StatusCode, tt.status)
			}
		})
	}
}
