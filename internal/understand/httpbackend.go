package understand

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"ledger-assistant/internal/common/logger"
)

// HTTPBackend calls one configured external understanding service.
type HTTPBackend struct {
	name       string
	baseURL    string
	apiKey     string
	client     *http.Client
	maxRetries int
	logger     logger.Logger
}

func NewHTTPBackend(name, baseURL, apiKey string, timeout time.Duration, maxRetries int, log logger.Logger) *HTTPBackend {
	return &HTTPBackend{
		name:       name,
		baseURL:    baseURL,
		apiKey:     apiKey,
		client:     &http.Client{Timeout: timeout},
		maxRetries: maxRetries,
		logger:     log.WithFields(map[string]interface{}{"backend": name}),
	}
}

func (b *HTTPBackend) Name() string { return b.name }

// Attempt posts the query and maps the validated payload to a Suggestion.
// Transient upstream failures are retried with exponential backoff inside the
// caller's deadline.
func (b *HTTPBackend) Attempt(ctx context.Context, query string, conversation map[string]interface{}) (*Suggestion, error) {
	requestBody := map[string]interface{}{"query": query}
	if conversation != nil {
		requestBody["context"] = conversation
	}
	body, _ := json.Marshal(requestBody)

	var resp *http.Response
	var lastErr error

	for attempt := 0; attempt <= b.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(100*(1<<(attempt-1))) * time.Millisecond
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ErrUnderstandingTimeout
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/api/ai/understand", bytes.NewBuffer(body))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnderstandingFailed, err)
		}
		req.Header.Set("Content-Type", "application/json")
		if b.apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+b.apiKey)
		}

		resp, lastErr = b.client.Do(req)

		if ctx.Err() != nil ||
			errors.Is(lastErr, context.DeadlineExceeded) ||
			errors.Is(lastErr, context.Canceled) {
			return nil, ErrUnderstandingTimeout
		}

		if lastErr == nil {
			if resp.StatusCode == http.StatusOK {
				break
			}
			resp.Body.Close()
			lastErr = fmt.Errorf("status %d", resp.StatusCode)
			resp = nil
		}
	}

	if lastErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnderstandingFailed, lastErr)
	}
	defer resp.Body.Close()

	var payload map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrUnderstandingFailed, err)
	}
	if err := validateSuggestionPayload(payload); err != nil {
		return nil, err
	}

	raw, _ := json.Marshal(payload)
	var sugg Suggestion
	if err := json.Unmarshal(raw, &sugg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnderstandingFailed, err)
	}
	sugg.Backend = b.name
	return &sugg, nil
}
