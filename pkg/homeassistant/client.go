// Package homeassistant implements a client for the Home Assistant REST API.
package homeassistant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/homesage/homesage/pkg/models"
)

var (
	ErrUnauthorized   = errors.New("home assistant rejected the access token")
	ErrEntityNotFound = errors.New("entity not found")
)

// StatusError is returned for unexpected HTTP statuses from Home Assistant.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("home assistant returned status %d: %s", e.StatusCode, e.Body)
}

// Config holds connection settings for a Home Assistant installation.
type Config struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// DefaultConfig returns sensible defaults for the given installation.
func DefaultConfig(baseURL, token string) Config {
	return Config{
		BaseURL: baseURL,
		Token:   token,
		Timeout: 30 * time.Second,
	}
}

// SystemInfo is the subset of GET /api/config shown to the model.
type SystemInfo struct {
	Version      string `json:"version"`
	TimeZone     string `json:"time_zone"`
	LocationName string `json:"location_name"`
}

// Client talks to the Home Assistant REST API with bearer token auth.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *slog.Logger
}

const maxAttempts = 3

func NewClient(config Config, logger *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(config.BaseURL, "/"),
		token:   config.Token,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		logger: logger.With("module", "homeassistant"),
	}
}

// States fetches the state of every entity in the installation.
func (c *Client) States(ctx context.Context) ([]models.Entity, error) {
	body, err := c.get(ctx, "/api/states")
	if err != nil {
		return nil, err
	}

	var entities []models.Entity

	err = json.Unmarshal(body, &entities)
	if err != nil {
		return nil, fmt.Errorf("failed to parse states response: %w", err)
	}

	return entities, nil
}

// State fetches a single entity by ID.
func (c *Client) State(ctx context.Context, entityID string) (models.Entity, error) {
	body, err := c.get(ctx, "/api/states/"+entityID)
	if err != nil {
		return models.Entity{}, err
	}

	var entity models.Entity

	err = json.Unmarshal(body, &entity)
	if err != nil {
		return models.Entity{}, fmt.Errorf("failed to parse state response: %w", err)
	}

	return entity, nil
}

// CallService invokes a Home Assistant service, e.g. light.turn_on.
func (c *Client) CallService(ctx context.Context, call models.ServiceCall) error {
	payload, err := json.Marshal(call.Data)
	if err != nil {
		return fmt.Errorf("failed to marshal service data: %w", err)
	}

	path := "/api/services/" + call.Domain + "/" + call.Service

	_, err = c.do(ctx, http.MethodPost, path, payload)
	if err != nil {
		return err
	}

	c.logger.InfoContext(ctx, "Service call completed",
		"domain", call.Domain,
		"service", call.Service)

	return nil
}

// ErrorLog fetches the plain-text Home Assistant error log.
func (c *Client) ErrorLog(ctx context.Context) (string, error) {
	body, err := c.get(ctx, "/api/error_log")
	if err != nil {
		return "", err
	}

	return string(body), nil
}

// SystemInfo fetches the installation's version and locale configuration.
func (c *Client) SystemInfo(ctx context.Context) (SystemInfo, error) {
	body, err := c.get(ctx, "/api/config")
	if err != nil {
		return SystemInfo{}, err
	}

	var info SystemInfo

	err = json.Unmarshal(body, &info)
	if err != nil {
		return SystemInfo{}, fmt.Errorf("failed to parse config response: %w", err)
	}

	return info, nil
}

// Snapshot combines States and SystemInfo into one point-in-time view.
func (c *Client) Snapshot(ctx context.Context) (*models.Snapshot, error) {
	entities, err := c.States(ctx)
	if err != nil {
		return nil, err
	}

	snapshot := &models.Snapshot{
		Entities: entities,
		TakenAt:  time.Now().UTC(),
	}

	info, err := c.SystemInfo(ctx)
	if err != nil {
		// The snapshot is still useful without version metadata.
		c.logger.WarnContext(ctx, "Failed to fetch system info", "error", err)

		return snapshot, nil
	}

	snapshot.HAVersion = info.Version
	snapshot.TimeZone = info.TimeZone

	return snapshot, nil
}

// HealthCheck verifies the API is reachable and the token is accepted.
func (c *Client) HealthCheck(ctx context.Context) error {
	_, err := c.get(ctx, "/api/")

	return err
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	return c.do(ctx, http.MethodGet, path, nil)
}

// do performs a request with retries on transport errors and 5xx responses.
// Client errors fail fast.
func (c *Client) do(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(1<<uint(attempt-2)) * time.Second):
			}
		}

		var bodyReader io.Reader
		if payload != nil {
			bodyReader = bytes.NewReader(payload)
		}

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}

		req.Header.Set("Authorization", "Bearer "+c.token)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("request failed: %w", err)

			continue
		}

		body, err := io.ReadAll(resp.Body)
		closeErr := resp.Body.Close()

		if err != nil {
			lastErr = fmt.Errorf("failed to read response: %w", err)

			continue
		}

		if closeErr != nil {
			c.logger.WarnContext(ctx, "Failed to close response body", "error", closeErr)
		}

		switch {
		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			return nil, ErrUnauthorized
		case resp.StatusCode == http.StatusNotFound:
			return nil, ErrEntityNotFound
		case resp.StatusCode >= 500:
			lastErr = &StatusError{StatusCode: resp.StatusCode, Body: string(body)}

			continue
		case resp.StatusCode >= 400:
			return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
		}

		return body, nil
	}

	return nil, fmt.Errorf("all retry attempts failed, last error: %w", lastErr)
}
