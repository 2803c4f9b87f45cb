package ai

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	openaigo "github.com/sashabaranov/go-openai"
	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// retryPolicy - ограниченный повтор при временных сбоях.
type retryPolicy struct {
	maxAttempts int
	baseDelay   time.Duration
}

// run вызывает fn до maxAttempts раз. Повторяются только временные ошибки,
// задержка растет линейно: baseDelay * номер попытки.
func (p retryPolicy) run(ctx context.Context, fn func(attempt int) error) error {
	attempts := p.maxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		err = fn(attempt)
		if err == nil {
			return nil
		}
		if attempt == attempts || !isTransient(err) || ctx.Err() != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return err
		case <-time.After(p.baseDelay * time.Duration(attempt)):
		}
	}
	return err
}

// isTransient определяет, имеет ли смысл повторить запрос.
func isTransient(err error) bool {
	if err == nil || errors.Is(err, ErrAIConfiguration) || errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var apiErr *openaigo.APIError
	if errors.As(err, &apiErr) {
		return isTransientStatus(apiErr.HTTPStatusCode)
	}
	var reqErr *openaigo.RequestError
	if errors.As(err, &reqErr) {
		return isTransientStatus(reqErr.HTTPStatusCode)
	}
	var gErr *googleapi.Error
	if errors.As(err, &gErr) {
		return isTransientStatus(gErr.Code)
	}
	if st, ok := status.FromError(err); ok && st.Code() != codes.Unknown {
		switch st.Code() {
		case codes.Unavailable, codes.ResourceExhausted, codes.DeadlineExceeded, codes.Aborted:
			return true
		default:
			return false
		}
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}

func isTransientStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}
