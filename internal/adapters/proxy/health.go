package proxy

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/spounge-ai/rosetta/internal/domain"
	app_errors "github.com/spounge-ai/rosetta/internal/errors"
)

const DefaultTimeout = 5 * time.Second

// HealthChecker sends a HEAD request to the proxy. Any 2xx means healthy;
// other statuses mean reachable but unhealthy.
type HealthChecker struct {
	client  *http.Client
	timeout time.Duration
}

var _ domain.ProxyHealthChecker = (*HealthChecker)(nil)

func NewHealthChecker(client *http.Client, timeout time.Duration) *HealthChecker {
	if client == nil {
		client = http.DefaultClient
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &HealthChecker{client: client, timeout: timeout}
}

func (c *HealthChecker) Check(ctx context.Context, url string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return false, app_errors.InvalidInput(fmt.Sprintf("invalid proxy URL %q", url), err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return false, app_errors.CommunicationFailed(err)
	}
	defer resp.Body.Close()

	return resp.StatusCode >= 200 && resp.StatusCode < 300, nil
}
