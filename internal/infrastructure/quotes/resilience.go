package quotes

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/Chebil-Ilef/manu-intent-pipeline/internal/core/domain"
	"github.com/Chebil-Ilef/manu-intent-pipeline/internal/infrastructure/resilience"
)

type HTTPStatusError struct {
	Operation  string
	StatusCode int
	Status     string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	if e == nil {
		return "quotes status error"
	}
	if strings.TrimSpace(e.Body) == "" {
		return fmt.Sprintf("quotes %s status: %s", e.Operation, e.Status)
	}
	return fmt.Sprintf("quotes %s status: %s: %s", e.Operation, e.Status, strings.TrimSpace(e.Body))
}

func classifyQuoteError(err error) resilience.ErrorClassification {
	if err == nil {
		return resilience.ErrorClassification{}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
	}
	if resilience.IsCircuitOpen(err) {
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	}

	// Typed outcomes are answers, not faults. Retrying a rate-limited call
	// only burns more of the minute's budget.
	if domain.IsKind(err, domain.ErrQuoteRateLimited) || domain.IsKind(err, domain.ErrUnknownTicker) {
		return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
	}

	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		if isRetryableHTTPStatus(statusErr.StatusCode) {
			return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
		}
		return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	}

	return resilience.ErrorClassification{Retryable: false, RecordFailure: true}
}

func wrapQuoteError(err error) error {
	if err == nil {
		return nil
	}
	if domain.IsKind(err, domain.ErrQuoteRateLimited) ||
		domain.IsKind(err, domain.ErrUnknownTicker) ||
		domain.IsKind(err, domain.ErrQuoteUnavailable) {
		return err
	}
	return domain.WrapError(domain.ErrQuoteUnavailable, "quote fetch", err)
}

func isRetryableHTTPStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusRequestTimeout, http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}
