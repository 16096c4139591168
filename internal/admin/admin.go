package admin

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/HanTheDev/personality-gateway/internal/httpx"
	"github.com/HanTheDev/personality-gateway/internal/models"
)

const (
	defaultLimit = 100
	maxLimit     = 1000
	dateLayout   = "2006-01-02"
)

type Store interface {
	RecentAccessLogs(ctx context.Context, limit int) ([]models.AccessLog, error)
	RouteStats(ctx context.Context, from, to time.Time) ([]models.RouteStats, error)
}

type AdminHandler struct {
	store  Store
	apiKey string
	logger *zap.Logger
}

func NewAdminHandler(store Store, apiKey string, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{store: store, apiKey: apiKey, logger: logger}
}

func (h *AdminHandler) RegisterRoutes(router *mux.Router) {
	sub := router.PathPrefix("/admin").Subrouter()
	sub.Use(h.requireKey)

	sub.HandleFunc("/access-logs", h.ListAccessLogs).Methods("GET")
	sub.HandleFunc("/routes/stats", h.GetRouteStats).Methods("GET")
}

// requireKey rejects every admin call when no key is configured.
func (h *AdminHandler) requireKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get("X-Admin-Key")
		if h.apiKey == "" || subtle.ConstantTimeCompare([]byte(key), []byte(h.apiKey)) != 1 {
			httpx.WriteError(w, http.StatusUnauthorized, "Chave de administração inválida")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *AdminHandler) ListAccessLogs(w http.ResponseWriter, r *http.Request) {
	limit := defaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			httpx.WriteError(w, http.StatusBadRequest, "Parâmetro limit inválido")
			return
		}
		limit = min(n, maxLimit)
	}

	logs, err := h.store.RecentAccessLogs(r.Context(), limit)
	if err != nil {
		h.logger.Error("Failed to list access logs", zap.Error(err))
		httpx.WriteError(w, http.StatusInternalServerError, "Falha ao listar registros de acesso")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, logs)
}

// GetRouteStats aggregates per route. from and to are inclusive calendar days
// (YYYY-MM-DD, UTC); the default window is the last 24 hours.
func (h *AdminHandler) GetRouteStats(w http.ResponseWriter, r *http.Request) {
	now := time.Now().UTC()
	from, to := now.Add(-24*time.Hour), now

	if raw := r.URL.Query().Get("from"); raw != "" {
		d, err := time.Parse(dateLayout, raw)
		if err != nil {
			httpx.WriteError(w, http.StatusBadRequest, "Parâmetro from inválido")
			return
		}
		from = d
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		d, err := time.Parse(dateLayout, raw)
		if err != nil {
			httpx.WriteError(w, http.StatusBadRequest, "Parâmetro to inválido")
			return
		}
		to = d.Add(24 * time.Hour)
	}
	if !from.Before(to) {
		httpx.WriteError(w, http.StatusBadRequest, "Intervalo de datas inválido")
		return
	}

	stats, err := h.store.RouteStats(r.Context(), from, to)
	if err != nil {
		h.logger.Error("Failed to aggregate route stats", zap.Error(err))
		httpx.WriteError(w, http.StatusInternalServerError, "Falha ao calcular estatísticas")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, stats)
}
