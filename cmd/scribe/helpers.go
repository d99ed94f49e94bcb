package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/Veraticus/scribe/internal/cache"
	"github.com/Veraticus/scribe/internal/cli"
	"github.com/Veraticus/scribe/internal/common"
	"github.com/Veraticus/scribe/internal/config"
	"github.com/Veraticus/scribe/internal/engine"
	"github.com/Veraticus/scribe/internal/llm"
	"github.com/Veraticus/scribe/internal/model"
	"github.com/Veraticus/scribe/internal/service"
	"github.com/Veraticus/scribe/internal/staging"
	"github.com/Veraticus/scribe/internal/storage"
)

// newExtractor builds the extraction service. Tests replace it.
var newExtractor = createExtractor

func createExtractor(cfg config.LLMConfig) (service.Extractor, error) {
	if cfg.APIKey == "" {
		return nil, common.NewUserError(
			"Chave da API de extração não configurada (llm.api_key, ANTHROPIC_API_KEY ou OPENAI_API_KEY).",
			common.ErrMissingConfig)
	}
	return llm.NewExtractor(llm.Config{
		Provider:    cfg.Provider,
		APIKey:      cfg.APIKey,
		Model:       cfg.Model,
		BaseURL:     cfg.BaseURL,
		MaxRetries:  cfg.MaxRetries,
		RetryDelay:  cfg.RetryDelay,
		CacheTTL:    cfg.CacheTTL,
		Timeout:     cfg.Timeout,
		RateLimit:   cfg.RateLimit,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
	}, slog.Default())
}

type schemaVersioner interface {
	SchemaVersion(ctx context.Context) (int, error)
}

type cacheTTLSetter interface {
	SetCacheTTL(ttl time.Duration)
}

// openStorage opens the configured record store. migrate applies the schema.
func openStorage(ctx context.Context, cfg config.Config, migrate bool) (service.Storage, error) {
	var store service.Storage

	switch cfg.Database.Driver {
	case "postgres":
		pool, err := storage.NewPostgresPool(ctx, cfg.Database.URL, cfg.Database.MaxConns, 0)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		store = storage.NewPostgresStorage(pool)
	default:
		sqlite, err := storage.NewSQLiteStorage(config.ExpandPath(cfg.Database.Path))
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		store = sqlite
	}

	if s, ok := store.(cacheTTLSetter); ok && cfg.Cache.TTL > 0 {
		s.SetCacheTTL(cfg.Cache.TTL)
	}

	if migrate {
		if err := store.Migrate(ctx); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
	}
	return store, nil
}

// app holds the collaborators shared by the record commands.
type app struct {
	store       service.Storage
	reader      service.RecordReader
	invalidator service.CacheInvalidator
	closers     []func() error
	cfg         config.Config
	policy      engine.FailurePolicy
}

func openApp(ctx context.Context, cfg config.Config) (*app, error) {
	policy, err := engine.ParseFailurePolicy(cfg.Commit.Policy)
	if err != nil {
		return nil, err
	}

	store, err := openStorage(ctx, cfg, true)
	if err != nil {
		return nil, err
	}

	a := &app{
		store:       store,
		reader:      store,
		invalidator: store,
		closers:     []func() error{store.Close},
		cfg:         cfg,
		policy:      policy,
	}

	if cfg.Cache.RedisURL != "" {
		client, err := cache.NewRedisClient(ctx, cfg.Cache.RedisURL)
		if err != nil {
			_ = a.Close()
			return nil, err
		}
		shared := cache.NewRedis(client, cfg.Cache.TTL, slog.Default())
		a.reader = cache.NewReader(store, shared)
		a.invalidator = cache.NewMulti(store, shared)
		a.closers = append(a.closers, client.Close)
	}

	return a, nil
}

// Close releases every connection the app opened.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// newSession wires a session for patient. extractor may be nil.
func (a *app) newSession(extractor service.Extractor, patient model.PatientID) *engine.Session {
	committer := engine.NewCommitterWithConfig(a.store, a.invalidator, engine.Config{Policy: a.policy})
	guard := staging.NewGuard(staging.NewStore(), patient)
	return engine.NewSession(guard, extractor, committer, nil)
}

// audit saves the count-only audit entry of an outcome. Failures are logged.
func (a *app) audit(ctx context.Context, patient model.PatientID, source string, outcome engine.Outcome) {
	entry := outcome.LogEntry(patient, source)
	if err := a.store.SaveCommitLog(ctx, &entry); err != nil {
		slog.Warn("Failed to save commit log", "patient", patient.String(), "error", err)
	}
}

// printOutcome writes the outcome line and report table to w. It returns an
// error for failed commits so the command exits non-zero.
func printOutcome(w io.Writer, outcome engine.Outcome) error {
	fmt.Fprintln(w, cli.FormatOutcome(outcome))
	if outcome.Stale {
		return nil
	}
	fmt.Fprintln(w, cli.RenderReport(outcome.Report))
	if !outcome.Success {
		return common.NewUserError(outcome.Message, fmt.Errorf("%w: %w", common.ErrCommitFailed, outcome.Err))
	}
	return nil
}

func parsePatient(raw string) (model.PatientID, error) {
	patient := model.PatientID(strings.TrimSpace(raw))
	if patient.IsZero() {
		return "", common.NewUserError("Informe o paciente com --patient.", common.ErrNoActivePatient)
	}
	return patient, nil
}

// readInput reads path, or stdin when path is empty or "-".
func readInput(ctx context.Context, in io.Reader, path string) (string, error) {
	if path != "" && path != "-" {
		data, err := os.ReadFile(config.ExpandPath(path))
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", path, err)
		}
		return string(data), nil
	}
	return cli.NewNonBlockingReader(in).ReadNote(ctx)
}
