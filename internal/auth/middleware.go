package auth

import (
	"context"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/HanTheDev/personality-gateway/internal/httpx"
)

type contextKey string

const SessionContextKey contextKey = "session"

// Revoker tracks token ids that were torn down before they expired.
type Revoker interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

type Middleware struct {
	issuer  *Issuer
	revoker Revoker
	logger  *zap.Logger
}

// NewMiddleware wires session handling. revoker may be nil, in which case logout only
// forgets the token client side.
func NewMiddleware(issuer *Issuer, revoker Revoker, logger *zap.Logger) *Middleware {
	return &Middleware{issuer: issuer, revoker: revoker, logger: logger}
}

// Attach loads the caller session from a bearer token when one is presented. Requests
// without a token pass through untouched; a bad or revoked token is rejected.
func (m *Middleware) Attach(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			next.ServeHTTP(w, r)
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			httpx.WriteError(w, http.StatusUnauthorized, "Cabeçalho de autorização inválido")
			return
		}

		claims, err := m.issuer.Validate(parts[1])
		if err != nil {
			m.logger.Debug("Rejected session token", zap.Error(err))
			httpx.WriteError(w, http.StatusUnauthorized, "Sessão inválida ou expirada")
			return
		}

		if m.revoker != nil {
			revoked, err := m.revoker.IsRevoked(r.Context(), claims.ID)
			if err != nil {
				m.logger.Error("Session revocation check failed", zap.Error(err))
				httpx.WriteError(w, http.StatusInternalServerError, "Falha ao validar sessão")
				return
			}
			if revoked {
				httpx.WriteError(w, http.StatusUnauthorized, "Sessão encerrada")
				return
			}
		}

		ctx := context.WithValue(r.Context(), SessionContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func GetSessionFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(SessionContextKey).(*Claims)
	return claims, ok
}

// Current answers GET /api/session.
func (m *Middleware) Current(w http.ResponseWriter, r *http.Request) {
	claims, ok := GetSessionFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "Usuário não autenticado")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, claims.Session)
}

// Logout answers DELETE /api/session.
func (m *Middleware) Logout(w http.ResponseWriter, r *http.Request) {
	claims, ok := GetSessionFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "Usuário não autenticado")
		return
	}

	if m.revoker != nil && claims.ExpiresAt != nil {
		ttl := time.Until(claims.ExpiresAt.Time)
		if ttl > 0 {
			if err := m.revoker.Revoke(r.Context(), claims.ID, ttl); err != nil {
				m.logger.Error("Failed to revoke session", zap.Error(err))
				httpx.WriteError(w, http.StatusInternalServerError, "Falha ao encerrar sessão")
				return
			}
		}
	}

	m.logger.Info("Session closed", zap.String("user_id", claims.UserID))
	w.WriteHeader(http.StatusNoContent)
}
