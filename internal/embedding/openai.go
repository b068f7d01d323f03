// Shelfmark - Library Book Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfmark

package embedding

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/tomtom215/shelfmark/internal/config"
	"github.com/tomtom215/shelfmark/internal/metrics"
)

// Embedder produces one dense vector per input text.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Model() string
}

var (
	// ErrBackendUnavailable is returned while the circuit breaker is open.
	ErrBackendUnavailable = errors.New("embedding backend unavailable")

	// ErrEmptyResponse is returned when the backend answers without vectors.
	ErrEmptyResponse = errors.New("empty embedding response")
)

const breakerName = "embedding-backend"

// OpenAIEmbedder calls an OpenAI-compatible embeddings endpoint.
type OpenAIEmbedder struct {
	client  *openai.Client
	model   openai.EmbeddingModel
	limiter *rate.Limiter
	cb      *gobreaker.CircuitBreaker[[][]float32]
	timeout time.Duration
	logger  zerolog.Logger
}

// NewOpenAIEmbedder creates an embedder from cfg. The API key may be empty
// for self-hosted endpoints that do not authenticate.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewOpenAIEmbedder(cfg *config.EmbeddingConfig, logger zerolog.Logger) (*OpenAIEmbedder, error) {
	if cfg == nil {
		return nil, fmt.Errorf("embedding config is required")
	}
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, fmt.Errorf("embedding model is required")
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	e := &OpenAIEmbedder{
		client:  openai.NewClientWithConfig(clientCfg),
		model:   openai.EmbeddingModel(cfg.Model),
		limiter: rate.NewLimiter(limit, burst),
		timeout: cfg.Timeout,
		logger:  logger.With().Str("component", "embedding").Str("model", cfg.Model).Logger(),
	}
	e.cb = newBreaker(cfg.BreakerMaxFailures, cfg.BreakerTimeout, e.logger)

	return e, nil
}

// newBreaker opens after maxFailures consecutive failures and probes again
// after timeout.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func newBreaker(maxFailures uint32, timeout time.Duration, logger zerolog.Logger) *gobreaker.CircuitBreaker[[][]float32] {
	if maxFailures == 0 {
		maxFailures = 5
	}

	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(0)

	return gobreaker.NewCircuitBreaker[[][]float32](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().Str("from", from.String()).Str("to", to.String()).Msg("Embedding circuit breaker state change")
			metrics.RecordCircuitBreakerTransition(name, from.String(), to.String())
		},
	})
}

// Model returns the configured embedding model name.
func (e *OpenAIEmbedder) Model() string {
	return string(e.model)
}

// Embed returns one vector per text, in input order. Blank texts are not
// sent to the backend and get a nil vector.
func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))

	input := make([]string, 0, len(texts))
	positions := make([]int, 0, len(texts))
	for i, text := range texts {
		if strings.TrimSpace(text) == "" {
			continue
		}
		input = append(input, text)
		positions = append(positions, i)
	}
	if len(input) == 0 {
		return out, nil
	}

	if err := e.limiter.Wait(ctx); err != nil {
		metrics.RecordEmbedding("rejected", 0)
		return nil, fmt.Errorf("embedding rate limit: %w", err)
	}

	start := time.Now()
	vecs, err := e.cb.Execute(func() ([][]float32, error) {
		return e.create(ctx, input)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.RecordEmbedding("rejected", 0)
			return nil, fmt.Errorf("%w: %w", ErrBackendUnavailable, err)
		}
		metrics.RecordEmbedding("error", time.Since(start))
		return nil, err
	}
	metrics.RecordEmbedding("success", time.Since(start))

	for i, pos := range positions {
		out[pos] = vecs[i]
	}
	return out, nil
}

func (e *OpenAIEmbedder) create(ctx context.Context, input []string) ([][]float32, error) {
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input:          input,
		Model:          e.model,
		EncodingFormat: openai.EmbeddingEncodingFormatFloat,
	})
	if err != nil {
		return nil, describeAPIError(err)
	}
	if len(resp.Data) != len(input) {
		return nil, fmt.Errorf("%w: got %d vectors for %d inputs", ErrEmptyResponse, len(resp.Data), len(input))
	}

	vecs := make([][]float32, len(input))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(vecs) {
			return nil, fmt.Errorf("embedding response index %d out of range", d.Index)
		}
		vecs[d.Index] = d.Embedding
	}
	for i, v := range vecs {
		if len(v) == 0 {
			return nil, fmt.Errorf("%w: input %d has no vector", ErrEmptyResponse, i)
		}
	}
	return vecs, nil
}

// Probe embeds a short text to confirm the backend is reachable and
// returns the vector dimension.
func (e *OpenAIEmbedder) Probe(ctx context.Context) (int, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	vecs, err := e.Embed(ctx, []string{"library"})
	if err != nil {
		return 0, err
	}
	if len(vecs) != 1 || len(vecs[0]) == 0 {
		return 0, ErrEmptyResponse
	}

	e.logger.Info().Int("dimension", len(vecs[0])).Msg("Embedding backend available")
	return len(vecs[0]), nil
}

// describeAPIError flattens go-openai error types into one message that
// carries the HTTP status.
func describeAPIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("embedding API error %d: %s", apiErr.HTTPStatusCode, apiErr.Message)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return fmt.Errorf("embedding API error %d: %w", reqErr.HTTPStatusCode, reqErr.Err)
	}

	return fmt.Errorf("embedding request failed: %w", err)
}
