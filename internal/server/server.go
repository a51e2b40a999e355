// Package server provides the HTTP composition root for the Kuchipudi scroll
// pipeline: a health endpoint, an optional debug MJPEG camera stream, and the
// HUD broadcast WebSocket mount.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ayusman/kuchipudi/internal/app"
	"github.com/ayusman/kuchipudi/internal/capture"
	"github.com/ayusman/kuchipudi/internal/hud"
)

// Config holds the server configuration.
type Config struct {
	StaticDir string
	Camera    capture.Camera
	Debug     bool
	Hud       *hud.Broadcaster
	// App, if set, annotates the debug MJPEG stream with live pipeline state.
	App *app.App
}

// Server is the HTTP server for the Kuchipudi application.
type Server struct {
	config Config
	mux    *http.ServeMux
	start  time.Time
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	// The debug MJPEG stream is only mounted when explicitly enabled.
	if s.config.Camera != nil && s.config.Debug {
		s.mux.Handle("/debug/stream", NewStreamHandler(s.config.Camera, s.config.App))
	}

	if s.config.Hud != nil {
		s.mux.Handle("/hud", s.config.Hud)
	}

	if s.config.StaticDir != "" {
		fs := http.FileServer(http.Dir(s.config.StaticDir))
		s.mux.Handle("/", fs)
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	uptime := time.Since(s.start)

	response := map[string]interface{}{
		"status": "ok",
		"uptime": uptime.String(),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// ListenAndServe starts the HTTP server on the given address; main passes a
// 127.0.0.1 address so the server only accepts local connections.
func (s *Server) ListenAndServe(addr string) error {
	return http.ListenAndServe(addr, s)
}
