package backend

import "os"

const (
	EnvBackendURL       = "BACKEND_URL"
	EnvPublicBackendURL = "PUBLIC_BACKEND_URL"
	EnvAppEnv           = "APP_ENV"

	DefaultDevBackendURL = "http://localhost:8000"
)

const missingURLMessage = "BACKEND_URL não configurada. Defina a variável de ambiente para acessar a API."

// Resolver determines the backend base URL from the environment. It is consulted
// on every call so a changed environment takes effect without a restart.
type Resolver struct {
	getenv func(string) string
}

func NewEnvResolver() *Resolver {
	return &Resolver{getenv: os.Getenv}
}

// NewResolver builds a Resolver over an arbitrary lookup, mostly for tests.
func NewResolver(getenv func(string) string) *Resolver {
	return &Resolver{getenv: getenv}
}

// BackendURL returns BACKEND_URL or PUBLIC_BACKEND_URL verbatim, falls back to the
// local default in development, and fails with a *ConfigurationError otherwise.
func (r *Resolver) BackendURL() (string, error) {
	for _, key := range []string{EnvBackendURL, EnvPublicBackendURL} {
		if value := r.getenv(key); value != "" {
			return value, nil
		}
	}

	if r.getenv(EnvAppEnv) == "development" {
		return DefaultDevBackendURL, nil
	}

	return "", &ConfigurationError{Msg: missingURLMessage}
}
