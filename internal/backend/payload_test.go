package backend

import (
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func responseWithBody(body string) *http.Response {
	return &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func TestReadPayload(t *testing.T) {
	tests := []struct {
		name string
		body string
		want any
	}{
		{"empty body", "", nil},
		{"object", `{"id":1,"name":"Ana"}`, map[string]any{"id": float64(1), "name": "Ana"}},
		{"array", `[1,2,3]`, []any{float64(1), float64(2), float64(3)}},
		{"json string", `"OK"`, "OK"},
		{"json number", `42`, float64(42)},
		{"large json number", `12345678901234567890`, float64(12345678901234567890)},
		{"json number with newline", "-3.5\n", float64(-3.5)},
		{"two numbers are text", `4 2`, "4 2"},
		{"number missing fraction is text", `1.`, "1."},
		{"json bool", `true`, true},
		{"json null", `null`, nil},
		{"plain text is trimmed", "  Internal Server Error\n", "Internal Server Error"},
		{"whitespace only", "   ", ""},
		{"truncated json", `{"detail": "x"`, `{"detail": "x"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ReadPayload(responseWithBody(tt.body))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsRecord(t *testing.T) {
	assert.True(t, IsRecord(map[string]any{}))
	assert.True(t, IsRecord(map[string]any{"a": 1}))
	assert.False(t, IsRecord(nil))
	assert.False(t, IsRecord([]any{}))
	assert.False(t, IsRecord("text"))
	assert.False(t, IsRecord(float64(3)))
}

func TestExtractError(t *testing.T) {
	t.Run("error wins over detail and message", func(t *testing.T) {
		got := ExtractError(map[string]any{"error": "E", "detail": "D", "message": "M"})
		assert.Equal(t, "E", got)
	})

	t.Run("detail wins over message", func(t *testing.T) {
		got := ExtractError(map[string]any{"detail": "D", "message": "M"})
		assert.Equal(t, "D", got)
	})

	t.Run("message alone", func(t *testing.T) {
		assert.Equal(t, "M", ExtractError(map[string]any{"message": "M"}))
	})

	t.Run("blank and non-string candidates are skipped", func(t *testing.T) {
		got := ExtractError(map[string]any{
			"error":   "   ",
			"detail":  []any{map[string]any{"msg": "field required"}},
			"message": " Email already exists ",
		})
		assert.Equal(t, "Email already exists", got)
	})

	t.Run("bare string is trimmed", func(t *testing.T) {
		assert.Equal(t, "Bad Gateway", ExtractError("  Bad Gateway "))
		assert.Equal(t, "", ExtractError("   "))
	})

	t.Run("nothing usable", func(t *testing.T) {
		for _, payload := range []any{[]any{}, float64(42), map[string]any{}, nil, false} {
			assert.Equal(t, "", ExtractError(payload), "payload %#v", payload)
		}
	})
}

func TestNormalizeMessage(t *testing.T) {
	assert.Equal(t, "F", NormalizeMessage("", "F"))
	assert.Equal(t, "F", NormalizeMessage("  ", "F"))
	assert.Equal(t, "F", NormalizeMessage("Internal Server Error", "F"))
	assert.Equal(t, "F", NormalizeMessage(" internal server error ", "F"))
	assert.Equal(t, "internal ſerver error", NormalizeMessage("internal ſerver error", "F"))
	assert.Equal(t, "Email already exists", NormalizeMessage("Email already exists", "F"))
	assert.Equal(t, "Email already exists", NormalizeMessage("  Email already exists\n", "F"))
}
