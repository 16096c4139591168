package backend

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envOf(values map[string]string) func(string) string {
	return func(key string) string { return values[key] }
}

func TestResolver_BackendURL(t *testing.T) {
	t.Run("fails outside development when nothing is set", func(t *testing.T) {
		_, err := NewResolver(envOf(nil)).BackendURL()

		var cfgErr *ConfigurationError
		require.True(t, errors.As(err, &cfgErr))
		assert.Contains(t, cfgErr.Error(), "BACKEND_URL")
	})

	t.Run("development falls back to localhost", func(t *testing.T) {
		got, err := NewResolver(envOf(map[string]string{"APP_ENV": "development"})).BackendURL()
		require.NoError(t, err)
		assert.Equal(t, "http://localhost:8000", got)
	})

	t.Run("primary variable wins regardless of mode", func(t *testing.T) {
		for _, mode := range []string{"", "development", "production"} {
			got, err := NewResolver(envOf(map[string]string{
				"APP_ENV":            mode,
				"BACKEND_URL":        "https://api.example.com",
				"PUBLIC_BACKEND_URL": "https://public.example.com",
			})).BackendURL()
			require.NoError(t, err)
			assert.Equal(t, "https://api.example.com", got)
		}
	})

	t.Run("public variable is the second choice", func(t *testing.T) {
		got, err := NewResolver(envOf(map[string]string{
			"PUBLIC_BACKEND_URL": "https://public.example.com/",
		})).BackendURL()
		require.NoError(t, err)
		assert.Equal(t, "https://public.example.com/", got)
	})

	t.Run("reads the process environment on every call", func(t *testing.T) {
		r := NewEnvResolver()
		t.Setenv("BACKEND_URL", "http://first:8000")
		first, err := r.BackendURL()
		require.NoError(t, err)

		t.Setenv("BACKEND_URL", "http://second:8000")
		second, err := r.BackendURL()
		require.NoError(t, err)

		assert.Equal(t, "http://first:8000", first)
		assert.Equal(t, "http://second:8000", second)
	})
}
