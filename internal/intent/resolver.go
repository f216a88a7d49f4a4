package intent

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/ashureev/campus-assistant/internal/inference"
	"github.com/ashureev/campus-assistant/internal/tools"
)

// ResolverConfig wires a Resolver.
type ResolverConfig struct {
	Lexicon    *Lexicon
	Registry   *tools.Registry
	Classifier inference.Classifier
	Timeout    time.Duration
	Now        func() time.Time
	Logger     *slog.Logger
}

// Resolver runs the cascade, then the inference service, then the heuristic responder.
type Resolver struct {
	lex        *Lexicon
	cascade    *Cascade
	responder  *Responder
	registry   *tools.Registry
	classifier inference.Classifier
	timeout    time.Duration
	logger     *slog.Logger
}

// NewResolver creates a Resolver. A nil Classifier skips the inference step.
func NewResolver(cfg ResolverConfig) *Resolver {
	if cfg.Lexicon == nil {
		cfg.Lexicon = DefaultLexicon()
	}
	if cfg.Registry == nil {
		cfg.Registry = tools.DefaultRegistry()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Resolver{
		lex:        cfg.Lexicon,
		cascade:    NewCascade(cfg.Lexicon),
		responder:  NewResponder(cfg.Lexicon, cfg.Now),
		registry:   cfg.Registry,
		classifier: cfg.Classifier,
		timeout:    cfg.Timeout,
		logger:     cfg.Logger,
	}
}

// Lexicon returns the lexicon the resolver was built with.
func (r *Resolver) Lexicon() *Lexicon { return r.lex }

// Resolve maps one utterance to a decision. It never fails: every error
// degrades to a conversational reply.
func (r *Resolver) Resolve(ctx context.Context, in Input) Decision {
	if d, name, ok := r.cascade.Match(in); ok {
		r.logger.Debug("cascade matched", "detector", name, "kind", d.Kind)
		return d
	}
	if d, ok := r.classify(ctx, in); ok {
		return d
	}
	return Reply(r.responder.Respond(in), SourceHeuristic)
}

func (r *Resolver) classify(ctx context.Context, in Input) (Decision, bool) {
	if r.classifier == nil {
		return Decision{}, false
	}
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	raw, err := r.classifier.Classify(ctx, inference.BuildPrompt(in.Raw, r.registry, in.Authenticated))
	if err != nil {
		if errors.Is(err, inference.ErrUnreachable) || errors.Is(err, context.DeadlineExceeded) {
			r.logger.Debug("inference unreachable, using heuristic", "error", err)
		} else {
			r.logger.Warn("inference failed, using heuristic", "error", err)
		}
		return Decision{}, false
	}

	dec, err := inference.Parse(raw)
	if err != nil {
		r.logger.Debug("inference output unusable", "error", err)
		return Decision{}, false
	}

	if dec.Action == inference.ActionReply {
		return Reply(dec.Reply, SourceInference), true
	}

	call, ok := r.registry.FromWire(dec.Tool, dec.Arguments)
	if !ok {
		r.logger.Debug("inference chose unknown tool", "tool", dec.Tool)
		return Decision{}, false
	}
	if err := r.registry.Validate(call); err != nil {
		r.logger.Debug("inference chose invalid call", "tool", call.Name, "error", err)
		return Decision{}, false
	}
	return Invoke(call, SourceInference), true
}
