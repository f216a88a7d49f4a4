// Package dialogue runs one conversation turn: session state, prechecks, intent
// resolution, the authentication gate, the confession check, tool dispatch and
// reply formatting.
package dialogue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ashureev/campus-assistant/internal/domain"
	"github.com/ashureev/campus-assistant/internal/intent"
	"github.com/ashureev/campus-assistant/internal/session"
	"github.com/ashureev/campus-assistant/internal/tools"
)

// DefaultToolTimeout bounds a single backend call.
const DefaultToolTimeout = 15 * time.Second

// TranscriptRecorder stores conversation turns.
type TranscriptRecorder interface {
	AppendTurn(ctx context.Context, turn domain.Turn) error
}

// Config wires an Orchestrator. Resolver, Bridge and Sessions are required.
type Config struct {
	Resolver      *intent.Resolver
	Registry      *tools.Registry
	Bridge        tools.Bridge
	Authenticator tools.Authenticator
	Sessions      *session.Manager
	Transcript    TranscriptRecorder
	ToolTimeout   time.Duration
	PortalURL     string
	Logger        *slog.Logger
	Now           func() time.Time
}

// Orchestrator is safe for concurrent use; turns for one session key are
// serialized by the session manager.
type Orchestrator struct {
	resolver    *intent.Resolver
	lex         *intent.Lexicon
	registry    *tools.Registry
	bridge      tools.Bridge
	auth        tools.Authenticator
	sessions    *session.Manager
	transcript  TranscriptRecorder
	toolTimeout time.Duration
	portalURL   string
	logger      *slog.Logger
	now         func() time.Time
}

// Reply is the outcome of one turn.
type Reply struct {
	Text          string        `json:"reply"`
	State         domain.State  `json:"state"`
	Tool          string        `json:"tool,omitempty"`
	Source        intent.Source `json:"source"`
	Authenticated bool          `json:"authenticated"`
}

// New creates an Orchestrator.
func New(cfg Config) (*Orchestrator, error) {
	if cfg.Resolver == nil || cfg.Bridge == nil || cfg.Sessions == nil {
		return nil, errors.New("dialogue: resolver, bridge and sessions are required")
	}
	if cfg.Registry == nil {
		cfg.Registry = tools.DefaultRegistry()
	}
	if cfg.ToolTimeout <= 0 {
		cfg.ToolTimeout = DefaultToolTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Orchestrator{
		resolver:    cfg.Resolver,
		lex:         cfg.Resolver.Lexicon(),
		registry:    cfg.Registry,
		bridge:      cfg.Bridge,
		auth:        cfg.Authenticator,
		sessions:    cfg.Sessions,
		transcript:  cfg.Transcript,
		toolTimeout: cfg.ToolTimeout,
		portalURL:   strings.TrimSpace(cfg.PortalURL),
		logger:      cfg.Logger,
		now:         cfg.Now,
	}, nil
}

// outcome is the internal result of a turn before formatting.
type outcome struct {
	text    string
	tool    string
	source  intent.Source
	suggest bool // append opportunities
}

// Turn processes one utterance for the session identified by key. Component
// failures degrade to a reply; only an empty key is an error.
func (o *Orchestrator) Turn(ctx context.Context, key, text string) (Reply, error) {
	text = strings.TrimSpace(text)
	var reply Reply
	err := o.sessions.With(ctx, key, func(sess *domain.Session) error {
		out := o.safeStep(ctx, sess, text)
		if out.suggest {
			out.text += intent.FormatOpportunities(o.lex.OpportunitiesFor(intent.NewInput(text, false).Folded))
		}
		reply = Reply{
			Text:          out.text,
			State:         sess.State(),
			Tool:          out.tool,
			Source:        out.source,
			Authenticated: sess.Authenticated(),
		}
		return nil
	})
	if err != nil {
		return Reply{}, err
	}
	o.record(ctx, key, text, reply)
	return reply, nil
}

func (o *Orchestrator) safeStep(ctx context.Context, sess *domain.Session, text string) (out outcome) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("panic during turn", "session_key", sess.Key, "panic", r, "stack", string(debug.Stack()))
			sess.Reset()
			out = outcome{text: msgInternalError, source: intent.SourceSession}
		}
	}()
	if text == "" {
		return outcome{text: msgEmpty, source: intent.SourceSession}
	}
	return o.step(ctx, sess, text)
}

func (o *Orchestrator) step(ctx context.Context, sess *domain.Session, text string) outcome {
	in := intent.NewInput(text, sess.Authenticated())

	switch sess.State() {
	case domain.StateCollectingRegistration:
		return o.wizardTurn(ctx, sess, text)
	case domain.StateAwaitingConfirmation:
		if out, handled := o.pendingTurn(ctx, sess, in); handled {
			return out
		}
		// Neither yes nor no: the pending action is dropped and the text is
		// resolved as a fresh request, without prechecks.
		return o.resolveAndAct(ctx, sess, in)
	}

	if out, ok := o.precheck(ctx, sess, in); ok {
		return out
	}
	return o.resolveAndAct(ctx, sess, in)
}

func (o *Orchestrator) resolveAndAct(ctx context.Context, sess *domain.Session, in intent.Input) outcome {
	dec := o.resolver.Resolve(ctx, in)
	if !dec.IsTool() {
		return outcome{text: dec.Text, source: dec.Source, suggest: true}
	}
	if gated, blocked := o.gate(sess, dec.Call); blocked {
		return gated
	}
	if o.registry.IsStateChanging(dec.Call.Name) && o.lex.IsConfessional(in.Folded) {
		sess.SetPending(&domain.PendingAction{
			Kind:            domain.PendingGenericConfirmation,
			Call:            &dec.Call,
			Description:     intent.Describe(dec.Call),
			OriginatingText: in.Raw,
		})
		return outcome{text: intent.ConfirmationPrompt(dec.Call), source: intent.SourceGate, suggest: true}
	}
	out := o.dispatch(ctx, sess, dec.Call)
	out.source = dec.Source
	out.suggest = true
	return out
}

// gate blocks private operations for anonymous sessions.
func (o *Orchestrator) gate(sess *domain.Session, call tools.Call) (outcome, bool) {
	if sess.Authenticated() || !o.registry.RequiresAuth(call.Name) {
		return outcome{}, false
	}
	return outcome{text: o.lex.Login(loginPurposeGeneric), source: intent.SourceGate}, true
}

// dispatch invokes call on the backend and renders the result or failure.
func (o *Orchestrator) dispatch(ctx context.Context, sess *domain.Session, call tools.Call) outcome {
	if gated, blocked := o.gate(sess, call); blocked {
		return gated
	}
	if err := o.registry.Validate(call); err != nil {
		o.logger.Warn("refusing invalid call", "session_key", sess.Key, "tool", call.Name, "error", err)
		return outcome{text: msgExecutionFailed, tool: call.Name, source: intent.SourceSession}
	}

	text, err := o.invoke(ctx, sess, call)
	if err != nil {
		return outcome{text: o.failureText(call, err), tool: call.Name, source: intent.SourceSession}
	}
	return outcome{text: enrich(call, text, o.portalURL), tool: call.Name, source: intent.SourceSession}
}

func (o *Orchestrator) invoke(ctx context.Context, sess *domain.Session, call tools.Call) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, o.toolTimeout)
	defer cancel()
	if sess.Authenticated() {
		ctx = tools.WithPrincipal(ctx, sess.UserID)
	}

	start := o.now()
	text, err := o.bridge.Invoke(ctx, call)
	if err != nil {
		o.logger.Warn("tool call failed", "session_key", sess.Key, "tool", call.Name, "error", err)
		return "", err
	}
	o.logger.Debug("tool call completed", "session_key", sess.Key, "tool", call.Name, "duration", o.now().Sub(start))
	return text, nil
}

func (o *Orchestrator) failureText(call tools.Call, err error) string {
	switch {
	case errors.Is(err, tools.ErrUnauthenticated):
		return o.lex.Login(loginPurposeGeneric)
	case errors.Is(err, tools.ErrExecution):
		return msgExecutionFailed
	}
	wire := call.Name
	if d, ok := o.registry.Lookup(call.Name); ok && d.WireName != "" {
		wire = d.WireName
	}
	return unavailableText(call, wire)
}

// Login authenticates the session for key. Invalid credentials and backend
// failures are returned as errors wrapping the tools sentinels.
func (o *Orchestrator) Login(ctx context.Context, key, studentID string) (Reply, error) {
	if o.auth == nil {
		return Reply{}, fmt.Errorf("login: %w", tools.ErrUnavailable)
	}
	studentID = strings.TrimSpace(studentID)
	if studentID == "" {
		return Reply{}, fmt.Errorf("login: %w", tools.ErrInvalidCredentials)
	}

	var reply Reply
	err := o.sessions.With(ctx, key, func(sess *domain.Session) error {
		lctx, cancel := context.WithTimeout(ctx, o.toolTimeout)
		defer cancel()
		p, err := o.auth.Login(lctx, studentID)
		if err != nil {
			return fmt.Errorf("login: %w", err)
		}
		sess.Login(p.UserID, p.DisplayName)
		o.logger.Info("Student logged in", "session_key", key, "user_id", p.UserID)
		reply = Reply{Text: welcomeText(p), State: sess.State(), Source: intent.SourceSession, Authenticated: true}
		return nil
	})
	if err != nil {
		return Reply{}, err
	}
	return reply, nil
}

// Logout drops the student binding and any pending action or wizard.
func (o *Orchestrator) Logout(ctx context.Context, key string) (Reply, error) {
	var reply Reply
	err := o.sessions.With(ctx, key, func(sess *domain.Session) error {
		text := msgAnonymousLogout
		if sess.Authenticated() {
			text = msgLoggedOut
			o.logger.Info("Student logged out", "session_key", key, "user_id", sess.UserID)
		}
		sess.Logout()
		reply = Reply{Text: text, State: sess.State(), Source: intent.SourceSession}
		return nil
	})
	return reply, err
}

// Reset forgets the session for key entirely.
func (o *Orchestrator) Reset(ctx context.Context, key string) error {
	return o.sessions.Delete(ctx, key)
}

// Session returns a copy of the session for key.
func (o *Orchestrator) Session(ctx context.Context, key string) (*domain.Session, error) {
	return o.sessions.Snapshot(ctx, key)
}

func (o *Orchestrator) record(ctx context.Context, key, text string, reply Reply) {
	if o.transcript == nil || text == "" {
		return
	}
	now := o.now()
	turns := []domain.Turn{
		{ID: uuid.NewString(), SessionKey: key, Role: domain.RoleUser, Content: text, CreatedAt: now},
		{ID: uuid.NewString(), SessionKey: key, Role: domain.RoleAssistant, Content: reply.Text, Source: string(reply.Source), CreatedAt: now},
	}
	for _, t := range turns {
		if err := o.transcript.AppendTurn(ctx, t); err != nil {
			o.logger.Warn("failed to record turn", "session_key", key, "error", err)
			return
		}
	}
}
