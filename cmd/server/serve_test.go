package main

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/HanTheDev/personality-gateway/internal/auth"
	"github.com/HanTheDev/personality-gateway/internal/backend"
	"github.com/HanTheDev/personality-gateway/internal/metrics"
	"github.com/HanTheDev/personality-gateway/internal/proxy"
)

func testRouter() http.Handler {
	resolver := backend.NewResolver(func(string) string { return "" })
	proxyHandler := proxy.NewHandler(backend.NewClient(resolver, time.Second), proxy.Options{})
	sessions := auth.NewMiddleware(auth.NewIssuer("secret", time.Hour), nil, zap.NewNop())
	return newRouter(metrics.NewCollector(prometheus.NewRegistry()), proxyHandler, sessions, nil)
}

func TestNewRouter_SessionHeaderScope(t *testing.T) {
	router := testRouter()

	tests := []struct {
		name string
		path string
		want int
	}{
		{"health ignores a malformed token", "/health", http.StatusOK},
		{"metrics ignores a malformed token", "/metrics", http.StatusOK},
		{"api rejects a malformed token", "/api/session", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			req.Header.Set("Authorization", "Basic abc")
			rec := httptest.NewRecorder()

			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestNewRouter_ProxyRoutesUnderAPI(t *testing.T) {
	router := testRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/questions", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	// No backend URL configured, so the proxied route answers with its own fallback.
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Erro inesperado ao buscar perguntas"}`, rec.Body.String())
}
