package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/ashureev/campus-assistant/internal/dialogue"
	"github.com/ashureev/campus-assistant/internal/identity"
)

const wsWriteTimeout = 10 * time.Second

// wsInbound is one client frame.
type wsInbound struct {
	Type    string `json:"type"`
	Message string `json:"message,omitempty"`
}

// wsOutbound is one server frame. Reply fields are inlined for "reply" frames.
type wsOutbound struct {
	Type  string `json:"type"`
	Error string `json:"error,omitempty"`
	*dialogue.Reply
}

// ServeWebSocket runs a chat over a WebSocket: one JSON frame in, one JSON
// frame out per turn.
func (h *Handler) ServeWebSocket(w http.ResponseWriter, r *http.Request) {
	key := identity.SessionKey(r.Context())
	if key == "" {
		Error(w, http.StatusUnauthorized, "missing identity")
		return
	}

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns:     h.originPatterns(),
		InsecureSkipVerify: h.isDev,
	})
	if err != nil {
		h.logger.Warn("Failed to accept WebSocket", "session_key", key, "error", err)
		return
	}
	defer func() {
		if closeErr := ws.Close(websocket.StatusNormalClosure, "chat ended"); closeErr != nil {
			h.logger.Debug("Failed to close websocket", "session_key", key, "error", closeErr)
		}
	}()
	ws.SetReadLimit(maxBodyBytes)

	h.logger.Info("WebSocket chat connected", "session_key", key, "ip", identity.IPFromRequest(r))
	clientKey := ClientKey(r)
	ctx := r.Context()

	for {
		var in wsInbound
		if err := wsjson.Read(ctx, ws, &in); err != nil {
			if websocket.CloseStatus(err) != -1 || errors.Is(err, context.Canceled) {
				h.logger.Debug("WebSocket closed by client", "session_key", key)
			} else {
				h.logger.Warn("WebSocket read error", "session_key", key, "error", err)
			}
			return
		}

		var out wsOutbound
		switch in.Type {
		case "ping":
			out = wsOutbound{Type: "pong"}
		case "message", "":
			out = h.wsTurn(ctx, key, clientKey, in.Message)
		default:
			out = wsOutbound{Type: "error", Error: "unknown frame type"}
		}

		if err := h.wsWrite(ctx, ws, out); err != nil {
			h.logger.Debug("WebSocket write error", "session_key", key, "error", err)
			return
		}
	}
}

func (h *Handler) wsTurn(ctx context.Context, key, clientKey, msg string) wsOutbound {
	msg = strings.TrimSpace(msg)
	switch {
	case msg == "":
		return wsOutbound{Type: "error", Error: "message is required"}
	case utf8.RuneCountInString(msg) > maxMessageRunes:
		return wsOutbound{Type: "error", Error: "message too long"}
	case h.limiter != nil && !h.limiter.Allow(clientKey):
		return wsOutbound{Type: "error", Error: "rate limited"}
	}

	reply, err := h.orch.Turn(ctx, key, msg)
	if err != nil {
		h.logger.Error("Chat turn failed", "session_key", key, "error", err)
		return wsOutbound{Type: "error", Error: "failed to process message"}
	}
	return wsOutbound{Type: "reply", Reply: &reply}
}

func (h *Handler) wsWrite(ctx context.Context, ws *websocket.Conn, v wsOutbound) error {
	ctx, cancel := context.WithTimeout(ctx, wsWriteTimeout)
	defer cancel()
	return wsjson.Write(ctx, ws, v)
}

// originPatterns converts allowed origins ("https://host") into the host
// patterns websocket.Accept matches against.
func (h *Handler) originPatterns() []string {
	var patterns []string
	for _, o := range h.allowedOrigins {
		if o == "*" {
			return []string{"*"}
		}
		o = strings.TrimPrefix(strings.TrimPrefix(o, "https://"), "http://")
		patterns = append(patterns, o)
	}
	return patterns
}
