// Package server exposes map generation and stored maps over HTTP and websocket.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/lawnchairsociety/puzzlemap/internal/config"
	"github.com/lawnchairsociety/puzzlemap/internal/logger"
	"github.com/lawnchairsociety/puzzlemap/internal/mapgen"
	"github.com/lawnchairsociety/puzzlemap/internal/mapstore"
)

// MapStore is the persistence the service needs. *mapstore.Store implements it.
type MapStore interface {
	SaveMap(m *mapgen.Map, seed int64) (mapstore.Record, error)
	LoadMap(id string) (mapstore.Record, *mapgen.Map, error)
	ListMaps(limit int) ([]mapstore.Record, error)
}

type Server struct {
	cfg          config.ServerConfig
	defaults     config.GeneratorConfig
	genCfg       mapgen.Config
	store        MapStore
	httpServer   *http.Server
	clients      map[*WebSocketClient]struct{}
	mu           sync.Mutex
	shutdown     chan struct{}
	shutdownOnce sync.Once
	connLimiter  *Limiter
	genLimiter   *Limiter
	rateLimiter  *RequestRateLimiter
	StartTime    time.Time
}

// NewServer creates the map service. store may be nil, in which case saving
// and loading maps is rejected.
func NewServer(cfg *config.Config, genCfg mapgen.Config, store MapStore) *Server {
	return &Server{
		cfg:         cfg.Server,
		defaults:    cfg.Generator,
		genCfg:      genCfg,
		store:       store,
		clients:     make(map[*WebSocketClient]struct{}),
		shutdown:    make(chan struct{}),
		connLimiter: NewConnLimiter(cfg.Server.Connections),
		genLimiter:  NewGenerationLimiter(cfg.Server.Generation),
		rateLimiter: NewRequestRateLimiter(cfg.Server.RateLimit),
		StartTime:   time.Now(),
	}
}

// Handler returns the service routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocketUpgrade)
	mux.HandleFunc("GET /maps", s.handleListMaps)
	mux.HandleFunc("GET /maps/{id}", s.handleGetMap)
	mux.HandleFunc("GET /health", s.handleHealth)
	return mux
}

// Start listens on the configured address and serves until Shutdown.
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.cfg.Address)
	if err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return s.Serve(listener)
}

// Serve serves on an existing listener until Shutdown.
func (s *Server) Serve(listener net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.mu.Lock()
	select {
	case <-s.shutdown:
		s.mu.Unlock()
		listener.Close()
		return nil
	default:
	}
	s.httpServer = srv
	s.mu.Unlock()

	logger.Info("Map service listening", "address", listener.Addr().String())
	if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("map service stopped: %w", err)
	}
	return nil
}

// Shutdown stops accepting requests, closes open websockets and waits for
// in-flight HTTP requests until ctx is done. Safe to call more than once.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.mu.Lock()
		close(s.shutdown)
		srv := s.httpServer
		for client := range s.clients {
			client.Close()
		}
		s.mu.Unlock()

		s.rateLimiter.Stop()

		if srv != nil {
			err = srv.Shutdown(ctx)
		}
		logger.Info("Map service shutdown complete", "uptime", time.Since(s.StartTime).Round(time.Second))
	})
	return err
}

// handleWebSocketUpgrade upgrades an HTTP connection to WebSocket.
func (s *Server) handleWebSocketUpgrade(w http.ResponseWriter, r *http.Request) {
	clientIP := getRealIP(r)

	if !s.connLimiter.TryAcquire(clientIP) {
		logger.Warning("WebSocket connection rejected - limit exceeded",
			"remote_addr", r.RemoteAddr,
			"client_ip", clientIP)
		http.Error(w, "Too many connections. Please try again later.", http.StatusTooManyRequests)
		return
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			allowed := s.cfg.WebSocket.IsOriginAllowed(origin, r.Host)
			if !allowed {
				logger.Warning("WebSocket connection rejected - origin not allowed",
					"origin", origin,
					"host", r.Host,
					"remote_addr", r.RemoteAddr)
			}
			return allowed
		},
	}

	wsConn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("WebSocket upgrade failed", "error", err)
		s.connLimiter.Release(clientIP)
		return
	}

	go s.handleWebSocketConnection(wsConn, clientIP)
}

func (s *Server) handleWebSocketConnection(wsConn *websocket.Conn, clientIP string) {
	client := NewWebSocketClient(wsConn)
	if s.cfg.WebSocket.MaxMessageSize > 0 {
		wsConn.SetReadLimit(s.cfg.WebSocket.MaxMessageSize)
	}

	s.mu.Lock()
	select {
	case <-s.shutdown:
		s.mu.Unlock()
		client.Close()
		s.connLimiter.Release(clientIP)
		return
	default:
	}
	s.clients[client] = struct{}{}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.clients, client)
		s.mu.Unlock()
		s.connLimiter.Release(clientIP)
		client.Close()
		logger.Debug("Client disconnected", "client_ip", clientIP)
	}()

	logger.Debug("Client connected", "client_ip", clientIP, "remote_addr", client.RemoteAddr())

	for {
		req, err := client.ReadRequest()
		var malformed errMalformed
		if errors.As(err, &malformed) {
			s.recordFailure(clientIP)
			if werr := client.WriteResponse(errorResponse("", CodeBadRequest, malformed.Error())); werr != nil {
				return
			}
			continue
		}
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Debug("WebSocket read failed", "client_ip", clientIP, "error", err)
			}
			return
		}

		if err := client.WriteResponse(s.handleRequest(clientIP, req)); err != nil {
			logger.Debug("WebSocket write failed", "client_ip", clientIP, "error", err)
			return
		}
	}
}

// handleRequest answers one websocket request. Requests rejected for the
// client's own mistakes count toward a lockout.
func (s *Server) handleRequest(clientIP string, req Request) Response {
	if locked, remaining := s.rateLimiter.IsLocked(clientIP); locked {
		return errorResponse(req.Ref, CodeLockedOut,
			fmt.Sprintf("too many rejected requests, retry in %s", remaining.Round(time.Second)))
	}

	var resp Response
	switch req.Type {
	case RequestGenerate:
		resp = s.generate(clientIP, req)
	case RequestLoad:
		resp = s.load(req)
	default:
		resp = errorResponse(req.Ref, CodeBadRequest, fmt.Sprintf("unknown request type %q", req.Type))
	}

	switch resp.Code {
	case CodeBadRequest, CodeInvalidMap, CodeTooLarge:
		s.recordFailure(clientIP)
	case "":
		s.rateLimiter.RecordSuccess(clientIP)
	}
	return resp
}

func (s *Server) recordFailure(clientIP string) {
	if locked, d := s.rateLimiter.RecordFailure(clientIP); locked {
		logger.Warning("Client locked out", "client_ip", clientIP, "duration", d)
	}
}

func (s *Server) generate(clientIP string, req Request) Response {
	width, height, difficulty := req.Width, req.Height, req.Difficulty
	if width == 0 {
		width = s.defaults.Width
	}
	if height == 0 {
		height = s.defaults.Height
	}
	if difficulty == 0 {
		difficulty = s.defaults.Difficulty
	}

	if limit := s.cfg.Generation.MaxMapTiles; limit > 0 && width > 0 && height > 0 {
		if width > limit || height > limit || width*height > limit {
			return errorResponse(req.Ref, CodeTooLarge,
				fmt.Sprintf("map of %dx%d exceeds %d tiles", width, height, limit))
		}
	}

	if !s.genLimiter.TryAcquire(clientIP) {
		return errorResponse(req.Ref, CodeBusy, "too many maps being generated, try again shortly")
	}
	defer s.genLimiter.Release(clientIP)

	seed := rand.Int63()
	if req.Seed != nil {
		seed = *req.Seed
	}

	start := time.Now()
	m, err := mapgen.NewSeededGenerator(s.genCfg, seed).Generate(width, height, difficulty)
	switch {
	case errors.Is(err, mapgen.ErrConfiguration):
		return errorResponse(req.Ref, CodeInvalidMap, err.Error())
	case errors.Is(err, mapgen.ErrUnsatisfiable):
		return errorResponse(req.Ref, CodeUnsolvable, err.Error())
	case err != nil:
		logger.Error("Map generation failed", "client_ip", clientIP, "seed", seed, "error", err)
		return errorResponse(req.Ref, CodeServerError, "map generation failed")
	}

	logger.Info("Map generated for client",
		"client_ip", clientIP,
		"width", m.Width(),
		"height", m.Height(),
		"seed", seed,
		"duration", time.Since(start))

	data := m.Data()
	resp := Response{Type: ResponseMap, Ref: req.Ref, Seed: seed, Map: &data}

	if req.Save {
		if s.store == nil {
			return errorResponse(req.Ref, CodeNoStore, "map storage is not enabled")
		}
		rec, err := s.store.SaveMap(m, seed)
		if err != nil {
			logger.Error("Failed to save map", "seed", seed, "error", err)
			return errorResponse(req.Ref, CodeServerError, "failed to save map")
		}
		resp.ID = rec.ID
	}
	return resp
}

func (s *Server) load(req Request) Response {
	if s.store == nil {
		return errorResponse(req.Ref, CodeNoStore, "map storage is not enabled")
	}
	if req.ID == "" {
		return errorResponse(req.Ref, CodeBadRequest, "load requires an id")
	}

	rec, m, err := s.store.LoadMap(req.ID)
	if errors.Is(err, mapstore.ErrNotFound) {
		return errorResponse(req.Ref, CodeNotFound, fmt.Sprintf("map %s not found", req.ID))
	}
	if err != nil {
		logger.Error("Failed to load map", "id", req.ID, "error", err)
		return errorResponse(req.Ref, CodeServerError, "failed to load map")
	}

	data := m.Data()
	return Response{Type: ResponseMap, Ref: req.Ref, ID: rec.ID, Seed: rec.Seed, Map: &data}
}

func (s *Server) handleListMaps(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		http.Error(w, "map storage is not enabled", http.StatusServiceUnavailable)
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	records, err := s.store.ListMaps(limit)
	if err != nil {
		logger.Error("Failed to list maps", "error", err)
		http.Error(w, "failed to list maps", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleGetMap(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		http.Error(w, "map storage is not enabled", http.StatusServiceUnavailable)
		return
	}

	id := r.PathValue("id")
	rec, m, err := s.store.LoadMap(id)
	if errors.Is(err, mapstore.ErrNotFound) {
		http.Error(w, "map not found", http.StatusNotFound)
		return
	}
	if err != nil {
		logger.Error("Failed to load map", "id", id, "error", err)
		http.Error(w, "failed to load map", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, MapResponse{Record: rec, Map: m.Data()})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	conns, _ := s.connLimiter.GetStats()
	generating, _ := s.genLimiter.GetStats()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"uptime":      time.Since(s.StartTime).Round(time.Second).String(),
		"connections": conns,
		"generating":  generating,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Debug("Failed to write response", "error", err)
	}
}
