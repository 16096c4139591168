package proxy

import (
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gorilla/mux"
	jsoniter "github.com/json-iterator/go"

	"github.com/HanTheDev/personality-gateway/internal/auth"
	"github.com/HanTheDev/personality-gateway/internal/backend"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	callerHeader = "user-id"
	maxBodyBytes = 1 << 20

	invalidBody   = "Corpo da requisição inválido"
	notLoggedIn   = "Usuário não autenticado"
	missingParams = "Parâmetro obrigatório ausente"
)

// Route binds one client-facing operation to one backend call.
type Route struct {
	Name    string
	Method  string
	Pattern string

	// Fallback replaces missing or generic backend error messages and is the
	// message for contract violations.
	Fallback string
	// Unexpected is used when the backend could not be reached at all.
	Unexpected string

	ExpectRecord bool
	NoStore      bool
	RateLimited  bool

	// Prepare turns the inbound request into the outbound call and reports the
	// caller identifier when one is known.
	Prepare func(r *http.Request) (*backend.Call, string, error)
	Session sessionUpdate
}

type inputError struct {
	status  int
	message string
}

func (e *inputError) Error() string {
	return e.message
}

// Routes lists every proxied operation.
func Routes() []Route {
	return []Route{
		{
			Name:         "register",
			Method:       http.MethodPost,
			Pattern:      "/register",
			Fallback:     "Falha ao criar usuário",
			Unexpected:   "Erro inesperado ao criar usuário",
			ExpectRecord: true,
			NoStore:      true,
			Prepare:      pickBody(http.MethodPost, "/users", false, "name", "email"),
			Session:      sessionFromRegistration,
		},
		{
			Name:       "questions",
			Method:     http.MethodGet,
			Pattern:    "/questions",
			Fallback:   "Falha ao buscar perguntas",
			Unexpected: "Erro inesperado ao buscar perguntas",
			Prepare:    noBody(http.MethodGet, "/questions"),
		},
		{
			Name:       "chat-history",
			Method:     http.MethodGet,
			Pattern:    "/chat-history",
			Fallback:   "Falha ao buscar histórico do chat",
			Unexpected: "Erro inesperado ao buscar histórico do chat",
			NoStore:    true,
			Prepare:    prepareChatHistory,
		},
		{
			Name:         "send-message",
			Method:       http.MethodPost,
			Pattern:      "/send-message",
			Fallback:     "Falha ao enviar mensagem",
			Unexpected:   "Erro inesperado ao enviar mensagem",
			ExpectRecord: true,
			NoStore:      true,
			RateLimited:  true,
			Prepare:      pickBody(http.MethodPost, "/chat", true, "user_id", "message"),
		},
		{
			Name:         "submit-test",
			Method:       http.MethodPost,
			Pattern:      "/submit-test",
			Fallback:     "Falha ao enviar teste",
			Unexpected:   "Erro inesperado ao enviar teste",
			ExpectRecord: true,
			NoStore:      true,
			Prepare:      pickBody(http.MethodPost, "/submit-test", true, "user_id", "answers"),
			Session:      sessionFromResult,
		},
		{
			Name:         "test-session",
			Method:       http.MethodPost,
			Pattern:      "/test-session",
			Fallback:     "Falha ao iniciar sessão de teste",
			Unexpected:   "Erro inesperado ao criar sessão de teste",
			ExpectRecord: true,
			NoStore:      true,
			Prepare:      passBody(http.MethodPost, "/test-session", true),
			Session:      sessionFromResult,
		},
		{
			Name:         "test-session-answer",
			Method:       http.MethodPost,
			Pattern:      "/test-session/{sessionId}/answer",
			Fallback:     "Falha ao registrar resposta",
			Unexpected:   "Erro inesperado ao registrar resposta",
			ExpectRecord: true,
			NoStore:      true,
			Prepare:      passBody(http.MethodPost, "/test-session/{sessionId}/answer", false),
			Session:      sessionFromResult,
		},
		{
			Name:         "test-session-rewind",
			Method:       http.MethodPost,
			Pattern:      "/test-session/{sessionId}/rewind",
			Fallback:     "Falha ao voltar pergunta",
			Unexpected:   "Erro inesperado ao voltar pergunta",
			ExpectRecord: true,
			NoStore:      true,
			Prepare:      noBody(http.MethodPost, "/test-session/{sessionId}/rewind"),
		},
		{
			Name:       "test-results",
			Method:     http.MethodGet,
			Pattern:    "/test-results/{userId}",
			Fallback:   "Falha ao buscar resultados",
			Unexpected: "Erro inesperado ao buscar resultados",
			NoStore:    true,
			Prepare:    noBody(http.MethodGet, "/users/{userId}/test-results"),
		},
		{
			Name:         "personality",
			Method:       http.MethodGet,
			Pattern:      "/users/{userId}/personality",
			Fallback:     "Falha ao buscar tipo de personalidade",
			Unexpected:   "Erro inesperado ao buscar tipo de personalidade",
			ExpectRecord: true,
			NoStore:      true,
			Prepare:      noBody(http.MethodGet, "/users/{userId}/personality"),
		},
	}
}

func noBody(method, template string) func(*http.Request) (*backend.Call, string, error) {
	return func(r *http.Request) (*backend.Call, string, error) {
		path, err := expandPath(template, mux.Vars(r))
		if err != nil {
			return nil, "", err
		}
		caller := mux.Vars(r)["userId"]
		return &backend.Call{Method: method, Path: path}, caller, nil
	}
}

// passBody forwards the whole JSON object. withCaller fills user_id from the caller
// session when the client left it out.
func passBody(method, template string, withCaller bool) func(*http.Request) (*backend.Call, string, error) {
	return func(r *http.Request) (*backend.Call, string, error) {
		path, err := expandPath(template, mux.Vars(r))
		if err != nil {
			return nil, "", err
		}
		body, err := decodeBody(r)
		if err != nil {
			return nil, "", err
		}
		if withCaller {
			fillCaller(r, body)
		}
		return &backend.Call{Method: method, Path: path, Body: body}, idString(body["user_id"]), nil
	}
}

// pickBody forwards only the named fields that are present in the inbound body.
func pickBody(method, path string, withCaller bool, fields ...string) func(*http.Request) (*backend.Call, string, error) {
	return func(r *http.Request) (*backend.Call, string, error) {
		body, err := decodeBody(r)
		if err != nil {
			return nil, "", err
		}
		if withCaller {
			fillCaller(r, body)
		}

		out := make(map[string]any, len(fields))
		for _, f := range fields {
			if v, ok := body[f]; ok {
				out[f] = v
			}
		}
		return &backend.Call{Method: method, Path: path, Body: out}, idString(out["user_id"]), nil
	}
}

func prepareChatHistory(r *http.Request) (*backend.Call, string, error) {
	caller := r.Header.Get(callerHeader)
	if caller == "" {
		if claims, ok := auth.GetSessionFromContext(r.Context()); ok {
			caller = claims.UserID
		}
	}
	if caller == "" {
		return nil, "", &inputError{status: http.StatusUnauthorized, message: notLoggedIn}
	}
	return &backend.Call{Method: http.MethodGet, Path: "/chat/" + url.PathEscape(caller)}, caller, nil
}

func decodeBody(r *http.Request) (map[string]any, error) {
	raw, err := io.ReadAll(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, &inputError{status: http.StatusRequestEntityTooLarge, message: invalidBody}
		}
		return nil, &inputError{status: http.StatusBadRequest, message: invalidBody}
	}

	var body map[string]any
	if !json.Valid(raw) {
		return nil, &inputError{status: http.StatusBadRequest, message: invalidBody}
	}
	if err := json.Unmarshal(raw, &body); err != nil || body == nil {
		return nil, &inputError{status: http.StatusBadRequest, message: invalidBody}
	}
	return body, nil
}

func fillCaller(r *http.Request, body map[string]any) {
	if _, ok := body["user_id"]; ok {
		return
	}
	claims, ok := auth.GetSessionFromContext(r.Context())
	if !ok {
		return
	}
	if n, err := strconv.Atoi(claims.UserID); err == nil {
		body["user_id"] = n
		return
	}
	body["user_id"] = claims.UserID
}

// expandPath substitutes {name} segments with escaped path variables.
func expandPath(template string, vars map[string]string) (string, error) {
	out := make([]byte, 0, len(template))
	for i := 0; i < len(template); i++ {
		if template[i] != '{' {
			out = append(out, template[i])
			continue
		}
		end := i + 1
		for end < len(template) && template[end] != '}' {
			end++
		}
		value := vars[template[i+1:end]]
		if value == "" {
			return "", &inputError{status: http.StatusBadRequest, message: missingParams}
		}
		out = append(out, url.PathEscape(value)...)
		i = end
	}
	return string(out), nil
}

// idString renders a JSON identifier (number or string) as text.
func idString(v any) string {
	switch id := v.(type) {
	case string:
		return id
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64)
	case int:
		return strconv.Itoa(id)
	}
	return ""
}
