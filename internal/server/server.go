// Package server provides the HTTP server for the Mudra hand pose
// detection system.
package server

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/ayusman/mudra/internal/match"
	"github.com/ayusman/mudra/internal/plugin"
	"github.com/ayusman/mudra/internal/server/api"
	"github.com/ayusman/mudra/internal/skeleton"
	"github.com/ayusman/mudra/internal/store"
)

// DiagnosticsFunc supplies the latest per-joint match results keyed by
// hand chirality.
type DiagnosticsFunc func() map[skeleton.Chirality]match.Result

// Config holds the server configuration.
type Config struct {
	StaticDir   string
	Store       *store.Store
	Plugins     *plugin.Manager
	Events      *EventHub
	Diagnostics DiagnosticsFunc
}

// Server represents the HTTP server for the Mudra application.
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

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	// Register pose and action APIs if Store is configured
	if s.config.Store != nil {
		poseHandler := api.NewPoseHandler(s.config.Store)
		captureHandler := api.NewCaptureHandler(s.config.Store)

		// Route between pose CRUD and the authoring sub-resources:
		// /api/poses/{id}/capture and /api/poses/{id}/train
		poseRouter := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasSuffix(r.URL.Path, "/capture") || strings.HasSuffix(r.URL.Path, "/train") {
				captureHandler.ServeHTTP(w, r)
				return
			}
			poseHandler.ServeHTTP(w, r)
		})

		s.mux.Handle("/api/poses", poseRouter)
		s.mux.Handle("/api/poses/", poseRouter)

		actionHandler := api.NewActionHandler(s.config.Store)
		s.mux.Handle("/api/actions", actionHandler)
		s.mux.Handle("/api/actions/", actionHandler)
	}

	// Register plugin listing if a manager is configured
	if s.config.Plugins != nil {
		s.mux.HandleFunc("/api/plugins", s.handlePlugins)
	}

	// Register detection event WebSocket endpoint if a hub is configured
	if s.config.Events != nil {
		s.mux.Handle("/api/events", s.config.Events)
	}

	if s.config.Diagnostics != nil {
		s.mux.HandleFunc("/api/diagnostics", s.handleDiagnostics)
	}

	// Serve static files if StaticDir is configured
	if s.config.StaticDir != "" {
		fs := http.FileServer(http.Dir(s.config.StaticDir))
		s.mux.Handle("/", fs)
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// handleHealth handles GET requests to /api/health.
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

// handlePlugins handles GET requests to /api/plugins.
func (s *Server) handlePlugins(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	plugins := s.config.Plugins.List()
	manifests := make([]plugin.Manifest, 0, len(plugins))
	for _, p := range plugins {
		manifests = append(manifests, p.Manifest)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"plugins": manifests})
}

// jointDiagnostic is the wire form of one joint comparison outcome.
type jointDiagnostic struct {
	Compared   bool    `json:"compared"`
	Matched    bool    `json:"matched"`
	DeltaPitch float64 `json:"delta_pitch"`
	DeltaYaw   float64 `json:"delta_yaw"`
}

type handDiagnostics struct {
	Matched bool                                                          `json:"matched"`
	Joints  [skeleton.NumFingers][skeleton.BonesPerFinger]jointDiagnostic `json:"joints"`
}

// handleDiagnostics handles GET requests to /api/diagnostics. It
// reports the per-joint outcome of the most recent detection frame,
// keyed by hand chirality, for editor-style visualization.
func (s *Server) handleDiagnostics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	hands := map[string]handDiagnostics{}
	for c, res := range s.config.Diagnostics() {
		hd := handDiagnostics{Matched: res.Matched}
		for f := 0; f < skeleton.NumFingers; f++ {
			for b := 0; b < skeleton.BonesPerFinger; b++ {
				jr := res.Joints[f][b]
				hd.Joints[f][b] = jointDiagnostic{
					Compared:   jr.Compared,
					Matched:    jr.Matched,
					DeltaPitch: jr.DeltaPitch,
					DeltaYaw:   jr.DeltaYaw,
				}
			}
		}
		hands[c.String()] = hd
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"hands": hands})
}

// ListenAndServe starts the HTTP server on the given address.
func (s *Server) ListenAndServe(addr string) error {
	return http.ListenAndServe(addr, s)
}
