package backend

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Do(t *testing.T) {
	t.Run("sends json body and headers", func(t *testing.T) {
		var gotBody, gotPath, gotCache, gotType, gotUser string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			b, _ := io.ReadAll(r.Body)
			gotBody = string(b)
			gotPath = r.URL.Path
			gotCache = r.Header.Get("Cache-Control")
			gotType = r.Header.Get("Content-Type")
			gotUser = r.Header.Get("user-id")
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(`{"id":7}`))
		}))
		defer srv.Close()

		c := NewClient(NewResolver(envOf(map[string]string{"BACKEND_URL": srv.URL})), time.Second)
		resp, err := c.Do(context.Background(), Call{
			Method:  http.MethodPost,
			Path:    "/users",
			Body:    map[string]any{"name": "Ana"},
			Header:  http.Header{"User-Id": []string{"7"}},
			NoStore: true,
		})
		require.NoError(t, err)

		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		assert.True(t, resp.OK())
		assert.Equal(t, map[string]any{"id": float64(7)}, resp.Payload)
		assert.Equal(t, "/users", gotPath)
		assert.JSONEq(t, `{"name":"Ana"}`, gotBody)
		assert.Equal(t, "no-store", gotCache)
		assert.Equal(t, "application/json", gotType)
		assert.Equal(t, "7", gotUser)
	})

	t.Run("non-2xx is not an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		}))
		defer srv.Close()

		c := NewClient(NewResolver(envOf(map[string]string{"BACKEND_URL": srv.URL})), time.Second)
		resp, err := c.Do(context.Background(), Call{Method: http.MethodGet, Path: "/questions"})
		require.NoError(t, err)
		assert.False(t, resp.OK())
		assert.Equal(t, "Internal Server Error", resp.Payload)
	})

	t.Run("configuration error stops before dialing", func(t *testing.T) {
		c := NewClient(NewResolver(envOf(nil)), time.Second)
		_, err := c.Do(context.Background(), Call{Method: http.MethodGet, Path: "/questions"})

		var cfgErr *ConfigurationError
		assert.True(t, errors.As(err, &cfgErr))
	})

	t.Run("unreachable backend is a transport error", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()

		c := NewClient(NewResolver(envOf(map[string]string{"BACKEND_URL": url})), time.Second)
		_, err := c.Do(context.Background(), Call{Method: http.MethodGet, Path: "/questions"})

		var trErr *TransportError
		assert.True(t, errors.As(err, &trErr))
	})
}
