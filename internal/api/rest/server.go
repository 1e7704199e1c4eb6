package rest

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

// Server represents the addon HTTP server.
type Server struct {
	port    string
	server  *http.Server
	handler *Handler
}

// NewServer creates the addon HTTP server and its route table.
func NewServer(port string, aggregator Aggregator, streamResolver StreamResolver, providers []ProviderInfo, version string, logger zerolog.Logger) *Server {
	handler := NewHandler(aggregator, streamResolver, providers, version, logger)

	router := mux.NewRouter()

	// Apply middleware
	router.Use(RecoveryMiddleware(logger))
	router.Use(LoggingMiddleware(logger))
	router.Use(CORSMiddleware)

	// Health check
	router.HandleFunc("/health", handler.HealthCheck).Methods("GET")

	// Addon protocol
	router.HandleFunc("/manifest.json", handler.GetManifest).Methods("GET")
	router.HandleFunc("/catalog/{type}/{id}.json", handler.GetCatalog).Methods("GET")
	router.HandleFunc("/catalog/{type}/{id}/{extra}.json", handler.GetCatalog).Methods("GET")
	router.HandleFunc("/meta/{type}/{id}.json", handler.GetMeta).Methods("GET")
	router.HandleFunc("/stream/{type}/{id}.json", handler.GetStream).Methods("GET")

	return &Server{
		port:    port,
		handler: handler,
		server: &http.Server{
			Addr:    fmt.Sprintf(":%s", port),
			Handler: router,
		},
	}
}

// Start starts the addon HTTP server.
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
