// Package api provides HTTP handlers for the chat API.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ashureev/campus-assistant/internal/dialogue"
	"github.com/ashureev/campus-assistant/internal/identity"
	"github.com/ashureev/campus-assistant/internal/middleware"
	"github.com/ashureev/campus-assistant/internal/tools"
)

// maxBodyBytes bounds request bodies on the JSON endpoints.
const maxBodyBytes = 64 << 10

// maxMessageRunes bounds one chat message.
const maxMessageRunes = 2000

// Handler serves the chat, session and catalogue endpoints.
type Handler struct {
	orch           *dialogue.Orchestrator
	registry       *tools.Registry
	transcript     TranscriptReader
	limiter        *middleware.RateLimiter
	allowedOrigins []string
	isDev          bool
	logger         *slog.Logger
}

// Config wires a Handler. Orchestrator is required.
type Config struct {
	Orchestrator   *dialogue.Orchestrator
	Registry       *tools.Registry
	Transcript     TranscriptReader
	Limiter        *middleware.RateLimiter
	AllowedOrigins []string
	IsDev          bool
	Logger         *slog.Logger
}

// NewHandler creates a new Handler.
func NewHandler(cfg Config) *Handler {
	if cfg.Registry == nil {
		cfg.Registry = tools.DefaultRegistry()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Handler{
		orch:           cfg.Orchestrator,
		registry:       cfg.Registry,
		transcript:     cfg.Transcript,
		limiter:        cfg.Limiter,
		allowedOrigins: cfg.AllowedOrigins,
		isDev:          cfg.IsDev,
		logger:         cfg.Logger,
	}
}

// RegisterRoutes registers the chat API routes. The router must already run
// identity.Middleware.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if h.limiter != nil {
				r.Use(h.limiter.Limit(ClientKey))
			}
			r.Post("/chat", h.Chat)
			r.Post("/login", h.Login)
		})
		r.Post("/logout", h.Logout)
		r.Get("/session", h.GetSession)
		r.Delete("/session", h.ResetSession)
		r.Get("/session/transcript", h.Transcript)
		r.Get("/tools", h.ListTools)
	})
	r.Get("/ws/chat", h.ServeWebSocket)
}

// ClientKey throttles by device identity, falling back to the remote IP.
func ClientKey(r *http.Request) string {
	if id := identity.AnonIDFromContext(r.Context()); id != "" {
		return id
	}
	return identity.IPFromRequest(r)
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		Error(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func sessionKey(w http.ResponseWriter, r *http.Request) (string, bool) {
	key := identity.SessionKey(r.Context())
	if key == "" {
		Error(w, http.StatusUnauthorized, "missing identity")
		return "", false
	}
	return key, true
}
