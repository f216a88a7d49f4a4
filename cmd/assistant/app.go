package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ashureev/campus-assistant/internal/config"
	"github.com/ashureev/campus-assistant/internal/dialogue"
	"github.com/ashureev/campus-assistant/internal/inference"
	"github.com/ashureev/campus-assistant/internal/intent"
	"github.com/ashureev/campus-assistant/internal/session"
	"github.com/ashureev/campus-assistant/internal/store"
	"github.com/ashureev/campus-assistant/internal/tools"
)

// app is the wired engine shared by the serve and chat commands.
type app struct {
	cfg      *config.Config
	repo     *store.SQLiteStore
	registry *tools.Registry
	backend  *tools.MCPClient
	sessions *session.Manager
	orch     *dialogue.Orchestrator
	closers  []func()
}

func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	a := &app{cfg: cfg, registry: tools.DefaultRegistry()}

	repo, err := store.NewSQLite(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("initialize database: %w", err)
	}
	a.repo = repo
	a.closers = append(a.closers, func() {
		if closeErr := repo.Close(); closeErr != nil {
			logger.Error("Failed to close repository", "error", closeErr)
		}
	})
	if err := repo.Ping(ctx); err != nil {
		a.Close()
		return nil, fmt.Errorf("database health check: %w", err)
	}

	lex, err := intent.LoadLexicon(cfg.LexiconPath)
	if err != nil {
		a.Close()
		return nil, err
	}

	classifier, err := a.newClassifier(ctx, logger)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.backend = tools.NewMCPClient(tools.MCPClientConfig{
		Endpoint: cfg.ToolBackendURL,
		Timeout:  cfg.ToolTimeout,
	}, a.registry, logger)

	a.sessions = session.NewManager(session.Config{Repository: repo, Logger: logger})

	var transcript dialogue.TranscriptRecorder
	if cfg.TranscriptEnabled {
		transcript = repo
	}

	a.orch, err = dialogue.New(dialogue.Config{
		Resolver: intent.NewResolver(intent.ResolverConfig{
			Lexicon:    lex,
			Registry:   a.registry,
			Classifier: classifier,
			Timeout:    cfg.Inference.Timeout,
			Logger:     logger,
		}),
		Registry:      a.registry,
		Bridge:        a.backend,
		Authenticator: a.backend,
		Sessions:      a.sessions,
		Transcript:    transcript,
		ToolTimeout:   cfg.ToolTimeout,
		PortalURL:     cfg.PortalURL,
		Logger:        logger,
	})
	if err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

// newClassifier returns nil when inference is disabled or unreachable at
// startup; the resolver then answers from the heuristic responder.
func (a *app) newClassifier(ctx context.Context, logger *slog.Logger) (inference.Classifier, error) {
	ic := a.cfg.Inference
	switch ic.Provider {
	case config.ProviderGRPC:
		gcfg := inference.DefaultGrpcClientConfig()
		gcfg.Address = ic.Addr
		client, err := inference.NewGrpcClient(gcfg, logger)
		if err != nil {
			logger.Warn("Inference service unreachable, using heuristic replies", "address", ic.Addr, "error", err)
			return nil, nil
		}
		a.closers = append(a.closers, client.Close)
		logger.Info("Inference provider ready", "provider", ic.Provider, "address", ic.Addr)
		return client, nil
	case config.ProviderGemini:
		client, err := inference.NewGeminiClient(ctx, ic.GeminiAPIKey, ic.GeminiModel)
		if err != nil {
			return nil, fmt.Errorf("initialize gemini client: %w", err)
		}
		logger.Info("Inference provider ready", "provider", ic.Provider, "model", ic.GeminiModel)
		return client, nil
	}
	logger.Info("Inference disabled, using heuristic replies")
	return nil, nil
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
