package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/zatekoja/transcript-triage/backend/internal/domain/providers"
	"github.com/zatekoja/transcript-triage/backend/pkg/config"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/time/rate"
)

// Client calls a local Ollama server's non-streaming generate endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

var _ providers.TextGenerator = (*Client)(nil)

// NewClient creates a new Ollama client. Request deadlines come from the caller's context.
func NewClient(cfg *config.OllamaConfig) *Client {
	baseURL := config.DefaultOllamaBaseURL
	if cfg != nil && strings.TrimSpace(cfg.BaseURL) != "" {
		baseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	}

	var limiter *rate.Limiter
	if cfg != nil {
		limiter = newLimiter(cfg.RateLimitRPM, cfg.RateLimitBurst)
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{},
		limiter:    limiter,
	}
}

// BaseURL returns the configured server address
func (c *Client) BaseURL() string {
	return c.baseURL
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type generateResponse struct {
	Response string `json:"response"`
}

// Generate posts the prompt to /api/generate and returns the response field.
// Every failure, including an empty response, wraps providers.ErrBackendUnavailable.
func (c *Client) Generate(ctx context.Context, model, prompt string) (string, error) {
	if c.limiter != nil {
		waitStart := time.Now()
		if err := c.limiter.Wait(ctx); err != nil {
			recordOllamaMetric(ctx, model, 0, 0, err)
			return "", unavailable("rate limiter wait: %v", err)
		}
		recordOllamaRateLimitWait(ctx, model, time.Since(waitStart))
	}

	body, err := json.Marshal(generateRequest{Model: model, Prompt: prompt, Stream: false})
	if err != nil {
		return "", unavailable("encode request: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", unavailable("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		recordOllamaMetric(ctx, model, 0, time.Since(start), err)
		return "", unavailable("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		err := fmt.Errorf("status %d", resp.StatusCode)
		recordOllamaMetric(ctx, model, resp.StatusCode, time.Since(start), err)
		return "", unavailable("ollama request failed with status %d", resp.StatusCode)
	}

	var envelope generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		recordOllamaMetric(ctx, model, resp.StatusCode, time.Since(start), err)
		return "", unavailable("decode response: %v", err)
	}

	if strings.TrimSpace(envelope.Response) == "" {
		err := errors.New("empty response")
		recordOllamaMetric(ctx, model, resp.StatusCode, time.Since(start), err)
		return "", unavailable("ollama returned an empty response")
	}

	recordOllamaMetric(ctx, model, resp.StatusCode, time.Since(start), nil)
	return envelope.Response, nil
}

func unavailable(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", providers.ErrBackendUnavailable, fmt.Sprintf(format, args...))
}

// newLimiter returns nil when rpm is negative, disabling client-side limiting.
func newLimiter(rpm, burst int) *rate.Limiter {
	if rpm < 0 {
		return nil
	}
	if rpm == 0 {
		rpm = 60
	}
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), burst)
}

type ollamaMetrics struct {
	requestCount    metric.Int64Counter
	requestDuration metric.Float64Histogram
	requestErrors   metric.Int64Counter
	rateLimitWait   metric.Float64Histogram
}

var (
	ollamaMetricsOnce sync.Once
	ollamaMetricsOK   bool
	metricsHolder     ollamaMetrics
)

func ensureOllamaMetrics() bool {
	ollamaMetricsOnce.Do(func() {
		meter := otel.Meter("github.com/zatekoja/transcript-triage/backend/ollama")

		requestCount, err := meter.Int64Counter(
			"ai.ollama.request.count",
			metric.WithDescription("Number of Ollama generate requests"),
		)
		if err != nil {
			return
		}
		requestDuration, err := meter.Float64Histogram(
			"ai.ollama.request.duration",
			metric.WithDescription("Ollama request duration in milliseconds"),
			metric.WithUnit("ms"),
		)
		if err != nil {
			return
		}
		requestErrors, err := meter.Int64Counter(
			"ai.ollama.request.errors",
			metric.WithDescription("Number of failed Ollama requests"),
		)
		if err != nil {
			return
		}
		rateLimitWait, err := meter.Float64Histogram(
			"ai.ollama.rate_limit.wait",
			metric.WithDescription("Time spent waiting for the Ollama rate limiter in milliseconds"),
			metric.WithUnit("ms"),
		)
		if err != nil {
			return
		}

		metricsHolder = ollamaMetrics{
			requestCount:    requestCount,
			requestDuration: requestDuration,
			requestErrors:   requestErrors,
			rateLimitWait:   rateLimitWait,
		}
		ollamaMetricsOK = true
	})
	return ollamaMetricsOK
}

func recordOllamaMetric(ctx context.Context, model string, statusCode int, duration time.Duration, err error) {
	if !ensureOllamaMetrics() {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("ai.provider", "ollama"),
		attribute.String("ai.model", model),
	}
	if statusCode > 0 {
		attrs = append(attrs, attribute.Int("http.status_code", statusCode))
	}

	metricsHolder.requestCount.Add(ctx, 1, metric.WithAttributes(attrs...))
	metricsHolder.requestDuration.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))
	if err != nil {
		metricsHolder.requestErrors.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
}

func recordOllamaRateLimitWait(ctx context.Context, model string, wait time.Duration) {
	if !ensureOllamaMetrics() {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.String("ai.provider", "ollama"),
		attribute.String("ai.model", model),
	}
	metricsHolder.rateLimitWait.Record(ctx, float64(wait.Milliseconds()), metric.WithAttributes(attrs...))
}
