package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"modelviewer/internal/config"
	"modelviewer/internal/handlers"
	"modelviewer/internal/metrics"
)

func TestServer_MetricsAndHealth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := &config.AppConfig{Environment: "test"}
	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector("modelviewer", reg)

	handlerSet := handlers.NewHandlerSet(zerolog.Nop(), cfg, handlers.Services{
		PingDatabase: func(context.Context) error { return nil },
	})
	srv := NewHTTPServer(cfg, zerolog.Nop(), handlerSet, collector, reg)

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/healthz", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"cache":"disabled"`)

	w = httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "modelviewer_http_requests_total")
	assert.Contains(t, w.Body.String(), `path="/api/healthz"`)
}
