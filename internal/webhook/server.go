// Package webhook runs the HTTP receiver for push-delivered listings. The
// sender posts one listing per request as a form body; every accepted
// listing goes through the same pipeline as API-polled ones.
package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/calebwyatt/dealscout/internal/logger"
	"github.com/calebwyatt/dealscout/internal/models"
	"github.com/calebwyatt/dealscout/internal/normalize"
	"github.com/calebwyatt/dealscout/internal/pipeline"
)

// Server is the webhook HTTP server.
type Server struct {
	srv  *http.Server
	pipe *pipeline.Pipeline
	log  logger.Component
}

// NewServer builds the server on the given listen address. timeout bounds
// each request end to end.
func NewServer(addr string, timeout time.Duration, pipe *pipeline.Pipeline) *Server {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	s := &Server{
		pipe: pipe,
		log:  logger.For("WEBHOOK"),
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(timeout))
	r.Post("/webhook", s.handleListing)
	r.Get("/stats", s.handleStats)
	r.Get("/healthz", s.handleHealth)

	s.srv = &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// ListenAndServe blocks until the server stops. http.ErrServerClosed is
// swallowed so a clean shutdown reads as a nil return.
func (s *Server) ListenAndServe() error {
	s.log.Info("Listening on %s", s.srv.Addr)
	err := s.srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops accepting connections and drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

type listingResponse struct {
	Status string `json:"status"`
	ItemID string `json:"item_id,omitempty"`
	Score  *int   `json:"score,omitempty"`
}

func (s *Server) handleListing(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "malformed form body", http.StatusBadRequest)
		return
	}

	listing, err := normalize.FromWebhook(r.Form)
	if err != nil {
		if errors.Is(err, models.ErrInvalidListing) {
			s.log.Warn("Rejecting webhook payload: %v", err)
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, "failed to normalize listing", http.StatusInternalServerError)
		return
	}

	res := s.pipe.Process(listing)
	s.log.Debug("Item %s from webhook: %s", listing.ItemID, res.Status)

	resp := listingResponse{Status: string(res.Status), ItemID: listing.ItemID}
	if res.Score != nil {
		resp.Score = &res.Score.Total
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.pipe.Stats())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok")) //nolint:errcheck
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Failed to encode response: %v", err)
	}
}
