// Package control exposes the local HTTP API used to drive a running
// session: attach pages, flip the capture switch, read and write
// settings.
package control

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/crypto/bcrypt"

	"github.com/anyclick/anyclick"
	"github.com/anyclick/anyclick/internal/config"
)

// SessionAPI is the slice of anyclick.Session the control surface needs.
type SessionAPI interface {
	AttachPage(ctx context.Context, pageURL, pageID string) (string, error)
	DetachPage(pageID string) error
	Capture(pageID, selector string) error
	SetEnabled(ctx context.Context, enabled bool) error
	Toggle(ctx context.Context) (bool, error)
	Enabled() bool
	Status() []anyclick.PageStatus
	Settings() config.Settings
	ApplySettings(ctx context.Context, in config.Settings) error
}

// Server serves the control API.
type Server struct {
	session   SessionAPI
	tokenHash string
	logger    *slog.Logger
	http      *http.Server
}

// Config configures the control server.
type Config struct {
	Addr string
	// TokenHash is a bcrypt hash of the bearer token. Empty disables
	// auth.
	TokenHash string
	Logger    *slog.Logger
}

// NewServer builds a control server for the session.
func NewServer(session SessionAPI, cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	s := &Server{
		session:   session,
		tokenHash: cfg.TokenHash,
		logger:    cfg.Logger,
	}
	s.http = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Routes builds the chi router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requireToken)

	r.Get("/status", s.handleStatus)
	r.Get("/settings", s.handleGetSettings)
	r.Put("/settings", s.handlePutSettings)
	r.Post("/enabled", s.handleEnabled)
	r.Post("/pages", s.handleAttach)
	r.Delete("/pages/{id}", s.handleDetach)
	r.Post("/pages/{id}/capture", s.handleCapture)

	return r
}

// ListenAndServe blocks until the server stops.
func (s *Server) ListenAndServe() error {
	s.logger.Info("control: listening", "addr", s.http.Addr)
	err := s.http.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

// requireToken checks the bearer token against the bcrypt hash. An
// empty hash disables auth.
func (s *Server) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.tokenHash == "" {
			next.ServeHTTP(w, r)
			return
		}
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || token == "" {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		if err := bcrypt.CompareHashAndPassword([]byte(s.tokenHash), []byte(token)); err != nil {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"enabled": s.session.Enabled(),
		"pages":   s.session.Status(),
	})
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.session.Settings())
}

func (s *Server) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	var in config.Settings
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid settings body")
		return
	}
	if err := s.session.ApplySettings(r.Context(), in); err != nil {
		s.logger.Error("control: apply settings failed", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, in)
}

type enabledRequest struct {
	Enabled *bool `json:"enabled"`
}

func (s *Server) handleEnabled(w http.ResponseWriter, r *http.Request) {
	var in enabledRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}

	var (
		state bool
		err   error
	)
	if in.Enabled == nil {
		state, err = s.session.Toggle(r.Context())
	} else {
		state = *in.Enabled
		err = s.session.SetEnabled(r.Context(), state)
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"enabled": state})
}

type attachRequest struct {
	URL string `json:"url"`
	ID  string `json:"id"`
}

func (s *Server) handleAttach(w http.ResponseWriter, r *http.Request) {
	var in attachRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.URL == "" {
		writeError(w, http.StatusBadRequest, "url is required")
		return
	}
	id, err := s.session.AttachPage(r.Context(), in.URL, in.ID)
	if err != nil {
		s.logger.Error("control: attach failed", "url", in.URL, "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"page_id": id, "url": in.URL})
}

func (s *Server) handleDetach(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.session.DetachPage(id); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"detached": id})
}

type captureRequest struct {
	Selector string `json:"selector"`
}

func (s *Server) handleCapture(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var in captureRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.Selector == "" {
		writeError(w, http.StatusBadRequest, "selector is required")
		return
	}
	if err := s.session.Capture(id, in.Selector); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"page_id": id, "selector": in.Selector})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
