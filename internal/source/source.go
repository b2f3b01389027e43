// Package source defines the read-only accounting source the pipeline
// consults and an HTTP connector for it. The wire protocol of the accounting
// system itself lives behind the bridge process and is not modelled here.
package source

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	cerrors "ledger-assistant/internal/common/errors"
	"ledger-assistant/internal/common/logger"
)

var (
	ErrNotConnected = errors.New("NOT_CONNECTED")
	ErrQueryFailed  = errors.New("SOURCE_QUERY_FAILED")
	ErrQueryTimeout = errors.New("SOURCE_QUERY_TIMEOUT")
)

// QueryResult is the raw answer of the accounting source.
type QueryResult struct {
	Success bool                     `json:"success"`
	Rows    []map[string]interface{} `json:"rows"`
	Error   string                   `json:"error,omitempty"`
}

// AccountingSource is the synchronous read interface the handlers consume.
type AccountingSource interface {
	ExecuteQuery(ctx context.Context, queryText string) (*QueryResult, error)
}

// HTTPSource talks to the bridge process that fronts the accounting system.
type HTTPSource struct {
	baseURL string
	client  *http.Client
	logger  logger.Logger
}

func NewHTTPSource(baseURL string, timeout time.Duration, log logger.Logger) *HTTPSource {
	return &HTTPSource{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		logger:  log.WithFields(map[string]interface{}{"component": "accounting-source"}),
	}
}

// ExecuteQuery posts the query text to the bridge and decodes the row set.
// Timeouts and connection failures map onto the pipeline error taxonomy so the
// fallback chain can advance instead of propagating. Retryable failures are
// retried with exponential backoff up to their code's retry budget; a bridge
// that is not connected at all fails fast so the user gets reconnect guidance.
func (s *HTTPSource) ExecuteQuery(ctx context.Context, queryText string) (*QueryResult, error) {
	body, _ := json.Marshal(map[string]interface{}{"query": queryText})

	var lastErr error
	for attempt := 0; ; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(100*(1<<(attempt-1))) * time.Millisecond
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ErrQueryTimeout
			}
		}

		result, err := s.post(ctx, body)
		if err == nil {
			return result, nil
		}
		lastErr = err

		code := classify(err)
		if !cerrors.IsRetryableErrorCode(code) || attempt >= cerrors.GetRetryCount(code) {
			break
		}
		s.logger.Warn("source query failed, retrying", map[string]interface{}{
			"code":    string(code),
			"attempt": attempt + 1,
			"error":   err.Error(),
		})
	}
	return nil, lastErr
}

func classify(err error) cerrors.ErrorCode {
	switch {
	case errors.Is(err, ErrNotConnected):
		return cerrors.ErrCodeNotConnected
	case errors.Is(err, ErrQueryTimeout):
		return cerrors.ErrCodeSourceQueryTimeout
	default:
		return cerrors.ErrCodeSourceQueryFailed
	}
}

func (s *HTTPSource) post(ctx context.Context, body []byte) (*QueryResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/query", bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQueryFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		if ctx.Err() != nil || errors.Is(err, context.DeadlineExceeded) {
			return nil, ErrQueryTimeout
		}
		return nil, fmt.Errorf("%w: %v", ErrNotConnected, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrQueryFailed, resp.StatusCode)
	}

	var result QueryResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: decode error: %v", ErrQueryFailed, err)
	}

	if !result.Success && result.Error != "" {
		s.logger.Warn("source reported query error", map[string]interface{}{
			"error": result.Error,
		})
	}

	return &result, nil
}
