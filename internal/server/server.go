package server

import (
	"context"
	"encoding/json"
	"fmt"
	"image/png"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cwbudde/psnr/internal/compare"
	"github.com/cwbudde/psnr/internal/store"
)

// Server represents the HTTP server
type Server struct {
	store  store.Store
	addr   string
	server *http.Server
}

// NewServer creates a new HTTP server. resultStore may be nil, in which
// case comparisons are not persisted and the results routes return 503.
func NewServer(addr string, resultStore store.Store) *Server {
	s := &Server{
		store: resultStore,
		addr:  addr,
	}
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the routed handler wrapped in middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/v1/compare", s.handleCompare)
	mux.HandleFunc("/api/v1/results", s.handleResults)
	mux.HandleFunc("/api/v1/results/", s.handleResultsWithID)

	return s.loggingMiddleware(s.corsMiddleware(mux))
}

// Start starts the HTTP server. It returns http.ErrServerClosed once
// Shutdown has been called, including when Shutdown ran first.
func (s *Server) Start() error {
	slog.Info("Starting HTTP server", "addr", s.addr, "persist", s.store != nil)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server. It is safe to call
// concurrently with Start.
func (s *Server) Shutdown(ctx context.Context) error {
	slog.Info("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// handleCompare handles POST /api/v1/compare
func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req compare.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("Invalid JSON: %v", err), http.StatusBadRequest)
		return
	}
	if _, _, err := req.Options(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	rep, err := compare.Run(req)
	if err != nil {
		writeError(w, "Comparison failed", err)
		return
	}

	if s.store != nil {
		if err := s.store.SaveReport(rep); err != nil {
			writeError(w, "Failed to save report", err)
			return
		}
	}

	writeJSON(w, http.StatusOK, rep)
}

// handleResults handles GET /api/v1/results
func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.store == nil {
		http.Error(w, "Result storage disabled", http.StatusServiceUnavailable)
		return
	}

	infos, err := s.store.ListReports()
	if err != nil {
		writeError(w, "Failed to list reports", err)
		return
	}

	writeJSON(w, http.StatusOK, infos)
}

// handleResultsWithID handles /api/v1/results/:id and /api/v1/results/:id/diff.png
func (s *Server) handleResultsWithID(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		http.Error(w, "Result storage disabled", http.StatusServiceUnavailable)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/api/v1/results/")
	parts := strings.Split(path, "/")
	if len(parts) == 0 || parts[0] == "" {
		http.Error(w, "Report ID required", http.StatusBadRequest)
		return
	}

	id := parts[0]

	switch {
	case len(parts) == 1 && r.Method == http.MethodGet:
		s.handleGetReport(w, r, id)
	case len(parts) == 1 && r.Method == http.MethodDelete:
		s.handleDeleteReport(w, r, id)
	case len(parts) == 1:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	case len(parts) == 2 && parts[1] == "diff.png" && r.Method == http.MethodGet:
		s.handleGetDiffImage(w, r, id)
	default:
		http.Error(w, "Not found", http.StatusNotFound)
	}
}

// handleGetReport handles GET /api/v1/results/:id
func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request, id string) {
	rep, err := s.store.LoadReport(id)
	if err != nil {
		writeError(w, "Failed to load report", err)
		return
	}

	writeJSON(w, http.StatusOK, rep)
}

// handleDeleteReport handles DELETE /api/v1/results/:id
func (s *Server) handleDeleteReport(w http.ResponseWriter, r *http.Request, id string) {
	if err := s.store.DeleteReport(id); err != nil {
		writeError(w, "Failed to delete report", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleGetDiffImage handles GET /api/v1/results/:id/diff.png
func (s *Server) handleGetDiffImage(w http.ResponseWriter, r *http.Request, id string) {
	rep, err := s.store.LoadReport(id)
	if err != nil {
		writeError(w, "Failed to load report", err)
		return
	}

	diff, err := compare.DiffFiles(compare.Request{
		Reference: rep.Reference,
		Candidate: rep.Candidate,
		Layout:    rep.Layout,
	})
	if err != nil {
		writeError(w, "Failed to render diff", err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-cache")

	if err := png.Encode(w, diff); err != nil {
		slog.Error("Failed to encode PNG", "error", err)
	}
}

// corsMiddleware adds CORS headers
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		slog.Debug("HTTP request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}
