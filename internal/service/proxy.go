package service

import (
	"context"
	"time"

	"github.com/spounge-ai/rosetta/internal/domain"
	"github.com/spounge-ai/rosetta/pkg/cache"
)

const defaultProxyCheckTTL = 30 * time.Second

// ProxyHealthService caches health results per URL so the settings page can
// poll without hammering the proxy. Concurrent checks of one URL share a
// single request.
type ProxyHealthService struct {
	checker domain.ProxyHealthChecker
	results *cache.TTL[bool]
}

func NewProxyHealthService(checker domain.ProxyHealthChecker, ttl time.Duration) *ProxyHealthService {
	if ttl <= 0 {
		ttl = defaultProxyCheckTTL
	}
	return &ProxyHealthService{
		checker: checker,
		results: cache.New[bool](ttl),
	}
}

func (s *ProxyHealthService) Check(ctx context.Context, url string) (bool, error) {
	return s.results.GetOrLoad(ctx, url, func(ctx context.Context) (bool, error) {
		return s.checker.Check(ctx, url)
	})
}

func (s *ProxyHealthService) Close() error {
	s.results.Clear()
	return nil
}
