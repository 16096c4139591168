package backend

import (
	"io"
	"net/http"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// errorKeys are probed in order; the backend sometimes fills more than one.
var errorKeys = []string{"error", "detail", "message"}

// ReadPayload consumes the response body. Empty bodies yield nil, valid JSON yields
// the decoded value and anything else yields the trimmed text. Only I/O failures are
// reported.
func ReadPayload(resp *http.Response) (any, error) {
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return DecodePayload(raw), nil
}

// DecodePayload applies the ReadPayload rules to an already read body.
func DecodePayload(raw []byte) any {
	if len(raw) == 0 {
		return nil
	}

	// Unmarshal alone accepts some truncated documents that end at io.EOF, while
	// Valid reads a bare number ending the input as truncated. A trailing space
	// terminates the number without changing the document.
	padded := make([]byte, len(raw)+1)
	copy(padded, raw)
	padded[len(raw)] = ' '

	var value any
	if !json.Valid(padded) {
		return strings.TrimSpace(string(raw))
	}
	if err := json.Unmarshal(padded, &value); err != nil {
		return strings.TrimSpace(string(raw))
	}
	return value
}

// IsRecord reports whether value is a JSON object.
func IsRecord(value any) bool {
	_, ok := value.(map[string]any)
	return ok
}

// ExtractError pulls a human readable message out of a backend payload. It returns
// "" when nothing usable is present.
func ExtractError(payload any) string {
	switch p := payload.(type) {
	case string:
		return strings.TrimSpace(p)
	case map[string]any:
		for _, key := range errorKeys {
			if s, ok := p[key].(string); ok {
				if trimmed := strings.TrimSpace(s); trimmed != "" {
					return trimmed
				}
			}
		}
	}
	return ""
}

// NormalizeMessage swaps empty and generic backend messages for fallback.
func NormalizeMessage(message, fallback string) string {
	normalized := strings.TrimSpace(message)
	if normalized == "" {
		return fallback
	}
	if strings.ToLower(normalized) == "internal server error" {
		return fallback
	}
	return normalized
}
