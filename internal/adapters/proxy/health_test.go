package proxy_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spounge-ai/rosetta/internal/adapters/proxy"
	app_errors "github.com/spounge-ai/rosetta/internal/errors"
)

func TestCheck(t *testing.T) {
	var method atomic.Value
	var status atomic.Int64
	status.Store(http.StatusOK)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method.Store(r.Method)
		w.WriteHeader(int(status.Load()))
	}))
	defer srv.Close()

	checker := proxy.NewHealthChecker(srv.Client(), 0)

	healthy, err := checker.Check(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.True(t, healthy)
	assert.Equal(t, http.MethodHead, method.Load())

	status.Store(http.StatusBadGateway)
	healthy, err = checker.Check(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.False(t, healthy)
}

func TestCheckTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	checker := proxy.NewHealthChecker(srv.Client(), 50*time.Millisecond)
	_, err := checker.Check(context.Background(), srv.URL)
	assert.Equal(t, app_errors.CodeCommunicationFailed, app_errors.CodeOf(err))
}

func TestCheckInvalidURL(t *testing.T) {
	_, err := proxy.NewHealthChecker(nil, 0).Check(context.Background(), "://nope")
	assert.Equal(t, app_errors.CodeInvalidInput, app_errors.CodeOf(err))
}
