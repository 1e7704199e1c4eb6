// Package websocket pushes live event snapshots to subscribed clients.
package websocket

import (
	"context"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The addon is consumed by third-party players; origin checks
	// would lock them all out.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Server accepts websocket subscribers and relays live event updates
// to them through the hub.
type Server struct {
	hub    *Hub
	server *http.Server
	logger zerolog.Logger
}

// NewServer creates the websocket server on the given port.
func NewServer(port string, logger zerolog.Logger) *Server {
	hub := NewHub(logger)

	s := &Server{
		hub:    hub,
		logger: logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/ws/events/live", s.handleLiveEvents)
	mux.HandleFunc("/health", s.handleHealth)

	s.server = &http.Server{
		Addr:    ":" + port,
		Handler: mux,
	}

	return s
}

// Start runs the hub and serves websocket upgrades.
func (s *Server) Start() error {
	go s.hub.Run()
	s.logger.Info().Str("addr", s.server.Addr).Msg("websocket server listening")
	return s.server.ListenAndServe()
}

// BroadcastLiveUpdate pushes one serialized snapshot to all clients.
func (s *Server) BroadcastLiveUpdate(payload []byte) {
	s.hub.Broadcast(payload)
}

// Shutdown gracefully shuts down the websocket server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) handleLiveEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := &Client{
		hub:  s.hub,
		conn: conn,
		send: make(chan []byte, 256),
	}
	s.hub.register <- client

	go client.writePump()
	go client.readPump()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}
