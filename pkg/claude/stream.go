package claude

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Stream sends a messages request with streaming enabled and returns channels
// of incremental text deltas. Both channels are closed when the stream ends.
// Tool use is not supported on the streaming path.
func (c *Client) Stream(ctx context.Context, request MessageRequest) (<-chan string, <-chan error) {
	contentChan := make(chan string, 100)
	errorChan := make(chan error, 1)

	go func() {
		defer close(contentChan)
		defer close(errorChan)

		if c.apiKey == "" {
			errorChan <- ErrAPIKeyMissing

			return
		}

		if _, hasDeadline := ctx.Deadline(); !hasDeadline {
			var cancel context.CancelFunc

			ctx, cancel = context.WithTimeout(ctx, c.httpClient.Timeout)
			defer cancel()
		}

		request.Stream = true

		if request.Model == "" {
			request.Model = c.model
		}

		if request.MaxTokens == 0 {
			request.MaxTokens = c.maxTokens
		}

		payload, err := json.Marshal(request)
		if err != nil {
			errorChan <- fmt.Errorf("failed to marshal request: %w", err)

			return
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/messages", bytes.NewReader(payload))
		if err != nil {
			errorChan <- fmt.Errorf("failed to create request: %w", err)

			return
		}

		c.setHeaders(req)
		req.Header.Set("Accept", "text/event-stream")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			errorChan <- fmt.Errorf("request failed: %w", err)

			return
		}
		defer func() {
			_ = resp.Body.Close()
		}()

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(resp.Body)
			errorChan <- fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))

			return
		}

		err = scanStream(ctx, resp.Body, contentChan)
		if err != nil {
			errorChan <- err
		}
	}()

	return contentChan, errorChan
}

type streamEvent struct {
	Type  string `json:"type"`
	Delta *struct {
		Type string `json:"type"`
		Text string `json:"text,omitempty"`
	} `json:"delta,omitempty"`
	Error *APIError `json:"error,omitempty"`
}

func scanStream(ctx context.Context, body io.Reader, contentChan chan<- string) error {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data:") {
			continue
		}

		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "" || data == "[DONE]" {
			continue
		}

		var event streamEvent

		err := json.Unmarshal([]byte(data), &event)
		if err != nil {
			continue
		}

		if event.Error != nil {
			return fmt.Errorf("API error: %s", event.Error.Message)
		}

		if event.Type == "content_block_delta" && event.Delta != nil && event.Delta.Text != "" {
			select {
			case contentChan <- event.Delta.Text:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	return scanner.Err()
}
