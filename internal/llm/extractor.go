package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Veraticus/scribe/internal/common"
	"github.com/Veraticus/scribe/internal/extraction"
	"github.com/Veraticus/scribe/internal/model"
	"github.com/Veraticus/scribe/internal/service"
)

// ErrUndecodableOutput is returned when the model reply holds no JSON object.
var ErrUndecodableOutput = errors.New("extraction output is not a JSON object")

// Config holds configuration for the extraction service client.
type Config struct {
	Provider    string
	APIKey      string
	Model       string
	BaseURL     string
	MaxRetries  int
	RetryDelay  time.Duration
	CacheTTL    time.Duration
	Timeout     time.Duration
	RateLimit   int
	Temperature float64
	MaxTokens   int
}

// Extractor implements service.Extractor on top of an LLM client.
type Extractor struct {
	client      Client
	cache       *extractionCache
	logger      *slog.Logger
	rateLimiter *rateLimiter
	now         func() time.Time
	retryOpts   service.RetryOptions
}

// NewExtractor creates an extractor for the configured provider.
func NewExtractor(cfg Config, logger *slog.Logger) (*Extractor, error) {
	client, err := NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}
	return NewExtractorWithClient(client, cfg, logger), nil
}

// NewExtractorWithClient wraps an existing client. Provider settings in cfg are ignored.
func NewExtractorWithClient(client Client, cfg Config, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}

	retryOpts := service.RetryOptions{
		MaxAttempts:  cfg.MaxRetries,
		InitialDelay: cfg.RetryDelay,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}
	if retryOpts.MaxAttempts == 0 {
		retryOpts.MaxAttempts = 3
	}
	if retryOpts.InitialDelay == 0 {
		retryOpts.InitialDelay = time.Second
	}

	return &Extractor{
		client:      client,
		cache:       newExtractionCache(cfg.CacheTTL),
		logger:      logger,
		retryOpts:   retryOpts,
		rateLimiter: newRateLimiter(cfg.RateLimit),
		now:         time.Now,
	}
}

// Extract sends text to the model and normalizes the reply.
func (e *Extractor) Extract(ctx context.Context, text string) (model.CandidateRecord, error) {
	if strings.TrimSpace(text) == "" {
		return model.CandidateRecord{}, common.ErrEmptyTranscript
	}

	key := cacheKey(text)
	if record, found := e.cache.get(key); found {
		e.logger.Debug("extraction cache hit")
		return record, nil
	}

	prompt := buildPrompt(text, e.now())
	var record model.CandidateRecord

	err := common.WithRetry(ctx, func() error {
		if err := e.rateLimiter.wait(ctx); err != nil {
			return common.Permanent(err)
		}

		reply, err := e.client.Complete(ctx, systemPrompt, prompt)
		if err != nil {
			return err
		}

		decoded, err := extraction.DecodeStrict([]byte(reply))
		if err != nil {
			return common.Transient(fmt.Errorf("%w: %w", ErrUndecodableOutput, err))
		}
		record = decoded
		return nil
	}, e.retryOpts)
	if err != nil {
		return model.CandidateRecord{}, err
	}

	e.cache.set(key, record)
	e.logger.Info("clinical note extracted",
		"diagnoses", len(record.Diagnoses),
		"comorbidities", len(record.Comorbidities),
		"medications", len(record.Medications),
		"allergies", len(record.Allergies),
		"surgeries", len(record.Surgeries))

	return record, nil
}

var _ service.Extractor = (*Extractor)(nil)
