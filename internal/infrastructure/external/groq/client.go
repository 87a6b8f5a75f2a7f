// Package groq implements the Groq chat completions client that powers
// the AI tutor. It wraps the OpenAI-compatible HTTP API with retries and
// a circuit breaker so a flaky upstream degrades into clear errors
// instead of hung requests.
package groq

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/linguaspark/linguaspark-api/internal/application/command"
	"github.com/linguaspark/linguaspark-api/internal/domain/shared"
	"github.com/linguaspark/linguaspark-api/pkg/circuitbreaker"
	"github.com/linguaspark/linguaspark-api/pkg/logger"
	"github.com/linguaspark/linguaspark-api/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// DefaultBaseURL is the Groq OpenAI-compatible API endpoint.
const DefaultBaseURL = "https://api.groq.com/openai/v1"

// DefaultModel is the model used for all tutor completions.
const DefaultModel = "llama-3.3-70b-versatile"

// ClientConfig contains configuration for the Groq API client.
type ClientConfig struct {
	// BaseURL is the API base URL.
	BaseURL string

	// APIKey is the Groq API key.
	APIKey string

	// Model is the model identifier sent with every request.
	Model string

	// Timeout is the HTTP request timeout.
	Timeout time.Duration

	// Logger for structured logging.
	Logger *logger.Logger
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig(apiKey string) ClientConfig {
	return ClientConfig{
		BaseURL: DefaultBaseURL,
		APIKey:  apiKey,
		Model:   DefaultModel,
		Timeout: 30 * time.Second,
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// CLIENT
// ══════════════════════════════════════════════════════════════════════════════

// Client is the Groq chat completions client. It implements command.TutorModel.
type Client struct {
	config     ClientConfig
	httpClient *http.Client
	log        *logger.Logger
	retrier    *retry.Retrier
	breaker    *circuitbreaker.CircuitBreaker
}

var _ command.TutorModel = (*Client)(nil)

// NewClient creates a new Groq API client.
func NewClient(config ClientConfig) *Client {
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	if config.Model == "" {
		config.Model = DefaultModel
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}

	log := config.Logger
	if log == nil {
		log = logger.New(logger.Options{})
	}
	log = log.With(logger.Component("groq"))

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		log:     log,
		retrier: retry.ModelAPIRetrier(),
		breaker: circuitbreaker.GroqAPIBreaker(func(name string, from, to circuitbreaker.State) {
			log.Warn("circuit breaker state change",
				logger.String("breaker", name),
				logger.String("from", from.String()),
				logger.String("to", to.String()),
			)
		}),
	}
}

// Complete sends a single-turn chat completion request and returns the
// assistant's reply text.
func (c *Client) Complete(ctx context.Context, req command.ModelRequest) (string, error) {
	body := ChatCompletionRequestDTO{
		Model: c.config.Model,
		Messages: []MessageDTO{
			{Role: "system", Content: req.System},
			{Role: "user", Content: req.Prompt},
		},
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}

	var reply string
	err := c.breaker.Execute(ctx, func(ctx context.Context) error {
		return c.retrier.Do(ctx, func(ctx context.Context) error {
			var err error
			reply, err = c.doCompletion(ctx, body)
			return err
		})
	})
	if err != nil {
		return "", c.classifyError(err)
	}

	return reply, nil
}

// doCompletion performs a single chat completion request.
func (c *Client) doCompletion(ctx context.Context, body ChatCompletionRequestDTO) (string, error) {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return "", retry.Permanent(fmt.Errorf("marshal request: %w", err))
	}

	fullURL := c.config.BaseURL + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fullURL, bytes.NewReader(jsonBody))
	if err != nil {
		return "", retry.Permanent(fmt.Errorf("create request: %w", err))
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Network errors and timeouts are worth another attempt.
		return "", retry.Retryable(fmt.Errorf("http request: %w", err))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", retry.Retryable(fmt.Errorf("read response: %w", err))
	}

	c.log.Debug("groq api request",
		logger.String("model", c.config.Model),
		logger.Int("status", resp.StatusCode),
		logger.Latency(time.Since(start)),
	)

	if resp.StatusCode != http.StatusOK {
		return "", c.statusError(resp.StatusCode, respBody)
	}

	var completion ChatCompletionResponseDTO
	if err := json.Unmarshal(respBody, &completion); err != nil {
		return "", retry.Permanent(fmt.Errorf("unmarshal response: %w", err))
	}

	if len(completion.Choices) == 0 {
		return "", retry.Permanent(shared.ErrGroqAPIInvalidResponse)
	}

	reply := strings.TrimSpace(completion.Choices[0].Message.Content)
	if reply == "" {
		return "", retry.Permanent(shared.ErrGroqAPIInvalidResponse)
	}

	return reply, nil
}

// statusError maps an HTTP error status to a retryable or permanent error.
func (c *Client) statusError(status int, body []byte) error {
	message := fmt.Sprintf("status %d", status)

	var apiErr APIErrorDTO
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.ErrorInfo.Message != "" {
		message = fmt.Sprintf("status %d: %s", status, apiErr.ErrorInfo.Message)
	}

	switch {
	case status == http.StatusTooManyRequests:
		return retry.Retryable(fmt.Errorf("%w: %s", shared.ErrGroqAPIRateLimited, message))
	case status >= 500:
		return retry.Retryable(fmt.Errorf("%w: %s", shared.ErrGroqAPIUnavailable, message))
	default:
		// Remaining 4xx responses will not improve on retry.
		return retry.Permanent(fmt.Errorf("groq api error: %s", message))
	}
}

// classifyError maps transport-level failures to domain errors.
func (c *Client) classifyError(err error) error {
	switch {
	case errors.Is(err, circuitbreaker.ErrCircuitOpen), errors.Is(err, circuitbreaker.ErrTooManyRequests):
		return fmt.Errorf("%w: %v", shared.ErrGroqAPIUnavailable, err)
	case ctxError(err):
		return fmt.Errorf("%w: %v", shared.ErrGroqAPITimeout, err)
	default:
		return err
	}
}

func ctxError(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) ||
		strings.Contains(err.Error(), "context deadline exceeded")
}
