package provider

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"content-pipeline/shared/models"
)

// classifyStatus maps an HTTP status from a provider onto the taxonomy.
func classifyStatus(status int, body string) error {
	lower := strings.ToLower(body)
	switch {
	case status == http.StatusTooManyRequests:
		if strings.Contains(lower, "quota") || strings.Contains(lower, "billing") {
			return fmt.Errorf("%w: %s", models.ErrQuotaExceeded, truncate(body, 200))
		}
		return fmt.Errorf("%w: %s", models.ErrRateLimited, truncate(body, 200))
	case status == http.StatusPaymentRequired:
		return fmt.Errorf("%w: %s", models.ErrQuotaExceeded, truncate(body, 200))
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return fmt.Errorf("%w: provider returned %d", models.ErrTimeout, status)
	case status >= http.StatusInternalServerError:
		return fmt.Errorf("%w: provider returned %d: %s", models.ErrProviderUnavailable, status, truncate(body, 200))
	case status == http.StatusUnprocessableEntity && (strings.Contains(lower, "safety") || strings.Contains(lower, "unsafe") || strings.Contains(lower, "content policy")):
		return fmt.Errorf("%w: %s", models.ErrUnsafeContent, truncate(body, 200))
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return fmt.Errorf("provider rejected credentials (%d): %s", status, truncate(body, 200))
	default:
		return fmt.Errorf("%w: provider returned %d: %s", models.ErrBadRequest, status, truncate(body, 200))
	}
}

// classifyTransport maps client-side failures (no HTTP status) onto the taxonomy.
func classifyTransport(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", models.ErrTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", models.ErrTimeout, err)
	}
	return fmt.Errorf("%w: %v", models.ErrProviderUnavailable, err)
}

func statusLabel(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, models.ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, models.ErrQuotaExceeded):
		return "quota_exceeded"
	case errors.Is(err, models.ErrTimeout):
		return "timeout"
	case errors.Is(err, models.ErrUnsafeContent):
		return "unsafe"
	case errors.Is(err, models.ErrProviderUnavailable):
		return "unavailable"
	default:
		return "error"
	}
}

func truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
