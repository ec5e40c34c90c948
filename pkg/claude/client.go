package claude

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

var ErrAPIKeyMissing = errors.New("anthropic API key not configured")

// ErrRateLimited is wrapped into the final error when every retry hit a 429.
var ErrRateLimited = errors.New("rate limit exceeded")

const (
	maxRetries = 3
	// Minimum gap between requests, shared across goroutines.
	minRequestInterval = 100 * time.Millisecond
)

// Client talks to the Anthropic Messages API.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	maxTokens  int
	httpClient *http.Client
	logger     *slog.Logger

	mu          sync.Mutex
	lastRequest time.Time
}

func NewClient(config Config, logger *slog.Logger) *Client {
	if config.Model == "" {
		config.Model = DefaultModel
	}

	if config.MaxTokens == 0 {
		config.MaxTokens = 4096
	}

	if config.BaseURL == "" {
		config.BaseURL = "https://api.anthropic.com/v1"
	}

	if config.Timeout == 0 {
		config.Timeout = 2 * time.Minute
	}

	return &Client{
		apiKey:    config.APIKey,
		baseURL:   config.BaseURL,
		model:     config.Model,
		maxTokens: config.MaxTokens,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		logger: logger.With("module", "claude"),
	}
}

// Model returns the model used for completions.
func (c *Client) Model() string {
	return c.model
}

// MaxTokens returns the response token budget used for completions.
func (c *Client) MaxTokens() int {
	return c.maxTokens
}

// CreateMessage sends a messages request, retrying on rate limits and
// transient errors with exponential backoff.
func (c *Client) CreateMessage(ctx context.Context, request MessageRequest) (*MessageResponse, error) {
	if c.apiKey == "" {
		return nil, ErrAPIKeyMissing
	}

	if request.Model == "" {
		request.Model = c.model
	}

	if request.MaxTokens == 0 {
		request.MaxTokens = c.maxTokens
	}

	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, c.httpClient.Timeout)
		defer cancel()
	}

	c.throttle()

	startTime := time.Now()

	payload, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(1<<uint(attempt-1)) * time.Second):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/messages", bytes.NewReader(payload))
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}

		c.setHeaders(req)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("request failed: %w", err)

			continue
		}

		body, err := io.ReadAll(resp.Body)

		_ = resp.Body.Close()

		if err != nil {
			lastErr = fmt.Errorf("failed to read response: %w", err)

			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			lastErr = ErrRateLimited

			continue
		}

		if resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))

			continue
		}

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
		}

		var response MessageResponse

		err = json.Unmarshal(body, &response)
		if err != nil {
			return nil, fmt.Errorf("failed to parse response: %w", err)
		}

		if response.Error != nil {
			return nil, fmt.Errorf("API error: %s", response.Error.Message)
		}

		if len(response.Content) == 0 {
			return nil, errors.New("no completion returned")
		}

		c.logger.DebugContext(ctx, "Message completed",
			"model", request.Model,
			"stop_reason", response.StopReason,
			"input_tokens", response.Usage.InputTokens,
			"output_tokens", response.Usage.OutputTokens,
			"duration", time.Since(startTime))

		return &response, nil
	}

	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", APIVersion)
}

func (c *Client) throttle() {
	c.mu.Lock()
	defer c.mu.Unlock()

	elapsed := time.Since(c.lastRequest)
	if elapsed < minRequestInterval {
		time.Sleep(minRequestInterval - elapsed)
	}

	c.lastRequest = time.Now()
}
