package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
)

// Server accepts WebSocket clients and hands their messages to the
// manager. It tracks live connections so rooms can push messages to
// players by id.
type Server struct {
	addr        string
	upgrader    websocket.Upgrader
	connections map[*Connection]bool
	mu          sync.RWMutex
	register    chan *Connection
	unregister  chan *Connection
	logger      *log.Logger
	ctx         context.Context
	cancel      context.CancelFunc
	manager     *Manager
	httpServer  *http.Server
}

// NewServer creates a server listening on addr once started
func NewServer(addr string, logger *log.Logger) *Server {
	ctx, cancel := context.WithCancel(context.Background())

	return &Server{
		addr: addr,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // Allow all origins for game clients
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		connections: make(map[*Connection]bool),
		register:    make(chan *Connection),
		unregister:  make(chan *Connection),
		logger:      logger.WithPrefix("server"),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// SetManager wires the game manager that inbound messages dispatch to
func (s *Server) SetManager(manager *Manager) {
	s.manager = manager
}

// Manager returns the wired game manager
func (s *Server) Manager() *Manager {
	return s.manager
}

// Handler returns the HTTP handler serving /ws and /health. Exposed so
// tests can mount it on a test listener.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)
	return mux
}

// Start begins accepting connections
func (s *Server) Start() error {
	go s.run()

	s.httpServer = &http.Server{
		Addr:    s.addr,
		Handler: s.Handler(),
	}

	s.logger.Info("Starting WebSocket server", "addr", s.addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// Stop gracefully shuts the server down, pausing active games so they
// can resume later
func (s *Server) Stop() error {
	s.logger.Info("Stopping server")

	if s.manager != nil {
		s.manager.Shutdown()
	}
	s.cancel()

	s.mu.Lock()
	for conn := range s.connections {
		_ = conn.Close()
	}
	s.connections = make(map[*Connection]bool)
	s.mu.Unlock()

	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

// run processes connection registration and cleanup
func (s *Server) run() {
	for {
		select {
		case conn := <-s.register:
			s.mu.Lock()
			s.connections[conn] = true
			count := len(s.connections)
			s.mu.Unlock()
			s.logger.Debug("Connection registered", "total", count)

		case conn := <-s.unregister:
			s.mu.Lock()
			_, known := s.connections[conn]
			delete(s.connections, conn)
			count := len(s.connections)
			s.mu.Unlock()

			if known {
				if playerID := conn.PlayerID(); playerID != "" && s.manager != nil {
					s.manager.HandleDisconnect(playerID)
				}
				_ = conn.Close()
				s.logger.Debug("Connection unregistered", "total", count)
			}

		case <-s.ctx.Done():
			return
		}
	}
}

// handleWebSocket upgrades an HTTP request to a WebSocket connection
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("Failed to upgrade connection", "error", err)
		return
	}

	client := NewConnection(conn, s.logger, s.manager)

	select {
	case s.register <- client:
	case <-s.ctx.Done():
		_ = conn.Close()
		return
	}

	client.Start()

	// Watch for the client context to be cancelled, then unregister
	go func() {
		<-client.ctx.Done()
		select {
		case s.unregister <- client:
		case <-s.ctx.Done():
		}
	}()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	games := 0
	if s.manager != nil {
		games = s.manager.ActiveGames()
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"status": "ok",
		"games":  games,
	})
}

// SendToPlayer sends a message to every connection bound to the player
// id. Returns an error when the player has no live connection.
func (s *Server) SendToPlayer(playerID string, msg *Message) error {
	s.mu.RLock()
	targets := make([]*Connection, 0, 1)
	for conn := range s.connections {
		if conn.PlayerID() == playerID {
			targets = append(targets, conn)
		}
	}
	s.mu.RUnlock()

	if len(targets) == 0 {
		return fmt.Errorf("player %s is not connected", playerID)
	}
	for _, conn := range targets {
		if err := conn.SendMessage(msg); err != nil {
			s.logger.Debug("Send failed", "player", playerID, "error", err)
		}
	}
	return nil
}

// ConnectedPlayers returns the ids of all authenticated connections
func (s *Server) ConnectedPlayers() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	players := make([]string, 0, len(s.connections))
	for conn := range s.connections {
		if id := conn.PlayerID(); id != "" {
			players = append(players, id)
		}
	}
	return players
}
