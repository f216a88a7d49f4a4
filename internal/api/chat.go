package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ashureev/campus-assistant/internal/domain"
	"github.com/ashureev/campus-assistant/internal/tools"
)

const (
	defaultTranscriptLimit = 50
	maxTranscriptLimit     = 500
)

// TranscriptReader lists recorded turns of a conversation.
type TranscriptReader interface {
	ListTurns(ctx context.Context, key string, limit int) ([]domain.Turn, error)
}

type chatRequest struct {
	Message string `json:"message"`
}

type loginRequest struct {
	StudentID string `json:"student_id"`
}

type sessionView struct {
	State         domain.State `json:"state"`
	Authenticated bool         `json:"authenticated"`
	UserID        string       `json:"user_id,omitempty"`
	DisplayName   string       `json:"display_name,omitempty"`
	Pending       string       `json:"pending,omitempty"`
	WizardField   int          `json:"wizard_field,omitempty"`
	WizardTotal   int          `json:"wizard_total,omitempty"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

func newSessionView(s *domain.Session) sessionView {
	v := sessionView{
		State:         s.State(),
		Authenticated: s.Authenticated(),
		UserID:        s.UserID,
		DisplayName:   s.DisplayName,
		UpdatedAt:     s.UpdatedAt,
	}
	if s.Pending != nil {
		v.Pending = s.Pending.Description
		if v.Pending == "" {
			v.Pending = string(s.Pending.Kind)
		}
	}
	if s.Wizard != nil && s.Wizard.Stage == domain.StageCollecting {
		v.WizardField, v.WizardTotal = s.Wizard.Progress()
	}
	return v
}

// Chat processes one message and returns the assistant reply.
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	key, ok := sessionKey(w, r)
	if !ok {
		return
	}
	var req chatRequest
	if !decodeBody(w, r, &req) {
		return
	}
	msg := strings.TrimSpace(req.Message)
	if msg == "" {
		Error(w, http.StatusBadRequest, "message is required")
		return
	}
	if utf8.RuneCountInString(msg) > maxMessageRunes {
		Error(w, http.StatusRequestEntityTooLarge, "message too long")
		return
	}

	reply, err := h.orch.Turn(r.Context(), key, msg)
	if err != nil {
		h.logger.Error("Chat turn failed", "session_key", key, "error", err)
		Error(w, http.StatusInternalServerError, "failed to process message")
		return
	}
	JSON(w, http.StatusOK, reply)
}

// Login binds the conversation to a student.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	key, ok := sessionKey(w, r)
	if !ok {
		return
	}
	var req loginRequest
	if !decodeBody(w, r, &req) {
		return
	}

	reply, err := h.orch.Login(r.Context(), key, req.StudentID)
	switch {
	case err == nil:
		JSON(w, http.StatusOK, reply)
	case errors.Is(err, tools.ErrInvalidCredentials):
		Error(w, http.StatusUnauthorized, "ID de aluno não encontrado.")
	case errors.Is(err, tools.ErrUnavailable):
		h.logger.Warn("Login backend unavailable", "session_key", key, "error", err)
		Error(w, http.StatusServiceUnavailable, "Serviço de login indisponível. Tente novamente em instantes.")
	default:
		h.logger.Error("Login failed", "session_key", key, "error", err)
		Error(w, http.StatusInternalServerError, "login failed")
	}
}

// Logout drops the student binding of the conversation.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	key, ok := sessionKey(w, r)
	if !ok {
		return
	}
	reply, err := h.orch.Logout(r.Context(), key)
	if err != nil {
		Error(w, http.StatusInternalServerError, "logout failed")
		return
	}
	JSON(w, http.StatusOK, reply)
}

// GetSession returns the state of the conversation.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	key, ok := sessionKey(w, r)
	if !ok {
		return
	}
	sess, err := h.orch.Session(r.Context(), key)
	if err != nil {
		Error(w, http.StatusInternalServerError, "failed to load session")
		return
	}
	JSON(w, http.StatusOK, newSessionView(sess))
}

// ResetSession forgets the conversation, including its transcript.
func (h *Handler) ResetSession(w http.ResponseWriter, r *http.Request) {
	key, ok := sessionKey(w, r)
	if !ok {
		return
	}
	if err := h.orch.Reset(r.Context(), key); err != nil {
		h.logger.Error("Failed to reset session", "session_key", key, "error", err)
		Error(w, http.StatusInternalServerError, "failed to reset session")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Transcript returns the most recent turns of the conversation, oldest first.
func (h *Handler) Transcript(w http.ResponseWriter, r *http.Request) {
	key, ok := sessionKey(w, r)
	if !ok {
		return
	}
	if h.transcript == nil {
		JSON(w, http.StatusOK, map[string]any{"turns": []domain.Turn{}})
		return
	}

	limit := defaultTranscriptLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			Error(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxTranscriptLimit)
	}

	turns, err := h.transcript.ListTurns(r.Context(), key, limit)
	if err != nil {
		h.logger.Error("Failed to list transcript", "session_key", key, "error", err)
		Error(w, http.StatusInternalServerError, "failed to load transcript")
		return
	}
	if turns == nil {
		turns = []domain.Turn{}
	}
	JSON(w, http.StatusOK, map[string]any{"turns": turns})
}

// ListTools returns the operation catalogue.
func (h *Handler) ListTools(w http.ResponseWriter, _ *http.Request) {
	JSON(w, http.StatusOK, map[string]any{"tools": h.registry.List()})
}
