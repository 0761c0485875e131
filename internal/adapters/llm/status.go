package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	app_errors "github.com/spounge-ai/rosetta/internal/errors"
)

// StatusError maps a non-2xx provider status onto the error taxonomy.
func StatusError(status int) error {
	if status == http.StatusTooManyRequests {
		return app_errors.RateLimited(0)
	}
	return app_errors.TranslationFailed(fmt.Errorf("Request failed (%d): %s", status, statusHint(status)))
}

func statusHint(status int) string {
	switch {
	case status == http.StatusNotFound:
		return "check your proxy URL"
	case status == http.StatusUnauthorized:
		return "invalid API key"
	case status == http.StatusForbidden:
		return "access denied"
	case status >= http.StatusInternalServerError:
		return "server error, try again later"
	default:
		return fmt.Sprintf("HTTP %d", status)
	}
}

// TransportError maps a failure that produced no HTTP status.
func TransportError(err error, endpoint string) error {
	var appErr *app_errors.AppError
	switch {
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, context.DeadlineExceeded):
		return app_errors.Timeout(endpoint)
	case errors.Is(err, context.Canceled):
		return app_errors.Canceled(endpoint, err)
	default:
		return app_errors.Offline(err)
	}
}
