package proxy

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/HanTheDev/personality-gateway/internal/auth"
	"github.com/HanTheDev/personality-gateway/internal/backend"
	"github.com/HanTheDev/personality-gateway/internal/httpx"
	"github.com/HanTheDev/personality-gateway/internal/metrics"
	"github.com/HanTheDev/personality-gateway/internal/models"
)

const SessionTokenHeader = "X-Session-Token"

const (
	rateLimitExceeded = "Limite de mensagens atingido. Tente novamente mais tarde."
	rateLimitFailed   = "Falha ao verificar limite de mensagens"
)

type Limiter interface {
	Allow(ctx context.Context, caller string, limit int) (bool, error)
}

type AccessLogger interface {
	LogAccess(ctx context.Context, log *models.AccessLog) error
}

// Options carries the optional collaborators. Nil fields switch the matching
// feature off.
type Options struct {
	Limiter   Limiter
	ChatLimit int
	AccessLog AccessLogger
	Sessions  *auth.Issuer
	Metrics   *metrics.Collector
	Logger    *zap.Logger
}

type Handler struct {
	backend   *backend.Client
	limiter   Limiter
	chatLimit int
	accessLog AccessLogger
	sessions  *auth.Issuer
	metrics   *metrics.Collector
	logger    *zap.Logger
}

func NewHandler(client *backend.Client, opts Options) *Handler {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		backend:   client,
		limiter:   opts.Limiter,
		chatLimit: opts.ChatLimit,
		accessLog: opts.AccessLog,
		sessions:  opts.Sessions,
		metrics:   opts.Metrics,
		logger:    logger,
	}
}

// RegisterRoutes mounts the proxied operations on router, which is expected to be
// the /api subrouter.
func (h *Handler) RegisterRoutes(router *mux.Router) {
	for _, rt := range Routes() {
		router.HandleFunc(rt.Pattern, h.serve(rt)).Methods(rt.Method)
	}
}

// limitKey counts callers without an id against their client address.
func limitKey(r *http.Request, caller string) string {
	if caller != "" {
		return caller
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "addr:" + host
}

func (h *Handler) serve(rt Route) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		startTime := time.Now()

		recorder := &responseRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		entry := &models.AccessLog{
			RequestID:   httpx.RequestIDFromContext(r.Context()),
			Route:       rt.Name,
			Method:      r.Method,
			Path:        r.URL.Path,
			RequestSize: r.ContentLength,
		}

		h.handle(rt, recorder, r, entry)

		elapsed := time.Since(startTime)
		entry.StatusCode = recorder.statusCode
		entry.ResponseSize = int64(recorder.size)
		entry.ResponseTimeMs = int(elapsed.Milliseconds())

		if h.metrics != nil {
			h.metrics.ObserveRequest(rt.Name, recorder.statusCode, elapsed)
		}
		h.logger.Info("Proxied request",
			zap.String("route", rt.Name),
			zap.String("request_id", entry.RequestID),
			zap.Int("status", entry.StatusCode),
			zap.Int("upstream_status", entry.UpstreamStatus),
			zap.String("outcome", entry.Outcome),
			zap.Int64("elapsed_ms", elapsed.Milliseconds()))
		h.logAccess(entry)
	}
}

func (h *Handler) handle(rt Route, w http.ResponseWriter, r *http.Request, entry *models.AccessLog) {
	call, caller, err := rt.Prepare(r)
	if err != nil {
		entry.Outcome = models.OutcomeRejected
		var in *inputError
		if errors.As(err, &in) {
			httpx.WriteError(w, in.status, in.message)
			return
		}
		httpx.WriteError(w, http.StatusBadRequest, invalidBody)
		return
	}
	entry.CallerID = caller

	if rt.RateLimited && h.limiter != nil && h.chatLimit > 0 {
		key := limitKey(r, caller)
		allowed, err := h.limiter.Allow(r.Context(), key, h.chatLimit)
		if err != nil {
			h.logger.Error("Rate limit check failed", zap.String("route", rt.Name), zap.Error(err))
			entry.Outcome = models.OutcomeRejected
			httpx.WriteError(w, http.StatusInternalServerError, rateLimitFailed)
			return
		}
		if !allowed {
			h.logger.Warn("Rate limit exceeded", zap.String("route", rt.Name), zap.String("caller", key))
			entry.Outcome = models.OutcomeRejected
			httpx.WriteError(w, http.StatusTooManyRequests, rateLimitExceeded)
			return
		}
	}

	call.NoStore = rt.NoStore
	if call.Header == nil {
		call.Header = http.Header{}
	}
	if entry.RequestID != "" {
		call.Header.Set(httpx.RequestIDHeader, entry.RequestID)
	}
	if caller != "" {
		call.Header.Set(callerHeader, caller)
	}

	resp, err := h.backend.Do(r.Context(), *call)
	if err != nil {
		var cfgErr *backend.ConfigurationError
		if errors.As(err, &cfgErr) {
			h.logger.Error("Backend URL not configured", zap.String("route", rt.Name), zap.Error(err))
			h.fail(rt, entry, models.OutcomeConfiguration, metrics.KindConfiguration)
			httpx.WriteError(w, http.StatusInternalServerError, rt.Unexpected)
			return
		}

		h.logger.Warn("Backend call failed", zap.String("route", rt.Name), zap.Error(err))
		h.fail(rt, entry, models.OutcomeTransport, metrics.KindTransport)
		httpx.WriteError(w, http.StatusInternalServerError, backend.NormalizeMessage(err.Error(), rt.Unexpected))
		return
	}
	entry.UpstreamStatus = resp.StatusCode

	if !resp.OK() {
		h.fail(rt, entry, models.OutcomeUpstream, metrics.KindUpstream)
		message := backend.NormalizeMessage(backend.ExtractError(resp.Payload), rt.Fallback)
		httpx.WriteError(w, resp.StatusCode, message)
		return
	}

	if rt.ExpectRecord && !backend.IsRecord(resp.Payload) {
		h.logger.Warn("Backend returned an unexpected payload", zap.String("route", rt.Name))
		h.fail(rt, entry, models.OutcomeContract, metrics.KindContract)
		httpx.WriteError(w, http.StatusBadGateway, rt.Fallback)
		return
	}

	if record, ok := resp.Payload.(map[string]any); ok && rt.Session != nil {
		h.refreshSession(w, r, rt, record)
	}

	if rt.NoStore {
		w.Header().Set("Cache-Control", "no-store")
	}
	entry.Outcome = models.OutcomeOK
	httpx.WriteJSON(w, http.StatusOK, resp.Payload)
}

func (h *Handler) fail(rt Route, entry *models.AccessLog, outcome, kind string) {
	entry.Outcome = outcome
	if h.metrics != nil {
		h.metrics.ObserveFailure(rt.Name, kind)
	}
}

// refreshSession issues a new token when the payload changes what the caller session
// should hold. Token failures are logged and do not affect the proxied response.
func (h *Handler) refreshSession(w http.ResponseWriter, r *http.Request, rt Route, record map[string]any) {
	if h.sessions == nil {
		return
	}

	var current *auth.Session
	if claims, ok := auth.GetSessionFromContext(r.Context()); ok {
		current = &claims.Session
	}

	next := rt.Session(current, record)
	if next == nil {
		return
	}

	token, err := h.sessions.Issue(*next)
	if err != nil {
		h.logger.Error("Failed to issue session token", zap.String("route", rt.Name), zap.Error(err))
		return
	}
	w.Header().Set(SessionTokenHeader, token)
}

func (h *Handler) logAccess(entry *models.AccessLog) {
	if h.accessLog == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := h.accessLog.LogAccess(ctx, entry); err != nil {
			h.logger.Warn("Failed to record access log", zap.Error(err))
		}
	}()
}

type responseRecorder struct {
	http.ResponseWriter
	statusCode    int
	size          int
	headerWritten bool
}

func (r *responseRecorder) WriteHeader(statusCode int) {
	if !r.headerWritten {
		r.statusCode = statusCode
		r.ResponseWriter.WriteHeader(statusCode)
		r.headerWritten = true
	}
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	if !r.headerWritten {
		r.WriteHeader(http.StatusOK)
	}
	size, err := r.ResponseWriter.Write(b)
	r.size += size
	return size, err
}
