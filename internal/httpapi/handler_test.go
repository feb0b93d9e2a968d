package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/abhisek/coursegen/internal/authoring"
	"github.com/abhisek/coursegen/internal/course"
	"github.com/abhisek/coursegen/internal/llm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubGenerator struct {
	draft *authoring.Draft
	err   error
	got   course.Brief
	calls int
}

func (s *stubGenerator) Generate(_ context.Context, b course.Brief) (*authoring.Draft, error) {
	s.calls++
	s.got = b
	return s.draft, s.err
}

func newTestRouter(gen authoring.Generator) *gin.Engine {
	return NewRouter(NewHandler(gen, zap.NewNop()), zap.NewNop())
}

func postGenerate(t *testing.T, r http.Handler, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/generate", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestGenerate_Success(t *testing.T) {
	gen := &stubGenerator{draft: &authoring.Draft{
		Course: map[string]any{
			"topic":   "Pottery",
			"modules": []any{map[string]any{"id": "m1", "title": "Clay"}},
		},
		Provider: "openai",
		Model:    "gpt-4.1-2025-04-14",
		Usage:    llm.Usage{InputTokens: 10, OutputTokens: 20, TotalTokens: 30},
	}}
	r := newTestRouter(gen)

	w := postGenerate(t, r, map[string]string{"topic": "Pottery", "level": "Advanced"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	var got map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "Pottery", got["topic"])

	metrics, ok := got["__metrics"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "openai", metrics["provider"])
	assert.Equal(t, "gpt-4.1-2025-04-14", metrics["model"])
	usage := metrics["usage"].(map[string]any)
	assert.Equal(t, float64(10), usage["prompt_tokens"])
	assert.Equal(t, float64(20), usage["completion_tokens"])
	assert.Equal(t, float64(30), usage["total_tokens"])

	assert.Equal(t, "Advanced", gen.got.Level)

	// The normalizer on the client side understands what the endpoint sends.
	c, err := course.Normalize(w.Body.Bytes())
	require.NoError(t, err)
	assert.Equal(t, "openai", c.Metadata.Engine)
	require.NotNil(t, c.Metadata.Usage)
	assert.Equal(t, 30, c.Metadata.Usage.TotalTokens)
}

func TestGenerate_ErrorStatuses(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"blank topic", authoring.ErrMissingTopic, http.StatusBadRequest},
		{"no key", &llm.MissingKeyError{Provider: "openai", EnvVar: "OPENAI_API_KEY"}, http.StatusUnauthorized},
		{"rate limited", &llm.ErrRateLimit{Err: errors.New("slow down")}, http.StatusTooManyRequests},
		{"upstream forbidden", &llm.ErrProviderUnavailable{StatusCode: http.StatusForbidden, Err: errors.New("denied")}, http.StatusForbidden},
		{"upstream unreachable", &llm.ErrProviderUnavailable{Err: errors.New("dial tcp")}, http.StatusBadGateway},
		{"not json", &llm.ErrInvalidResponse{Err: errors.New("invalid JSON")}, http.StatusBadGateway},
		{"truncated", &llm.ErrMaxTokensExceeded{}, http.StatusBadGateway},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRouter(&stubGenerator{err: tt.err})
			w := postGenerate(t, r, map[string]string{"topic": "Pottery"})

			assert.Equal(t, tt.status, w.Code)
			var body errorBody
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.NotEmpty(t, body.Error)
		})
	}
}

func TestGenerate_BlankTopicThroughService(t *testing.T) {
	mock := llm.NewMockProvider()
	svc := authoring.NewService(mock, llm.ProviderMock, authoring.DefaultConfig(), nil)
	r := newTestRouter(svc)

	w := postGenerate(t, r, map[string]string{"topic": "  "})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 0, mock.CallCount())
}

func TestGenerate_UnavailableProvider(t *testing.T) {
	r := newTestRouter(authoring.Unavailable(&llm.MissingKeyError{Provider: "openai", EnvVar: "OPENAI_API_KEY"}))

	w := postGenerate(t, r, map[string]string{"topic": "Pottery"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "OPENAI_API_KEY")
}

func TestGenerate_MethodNotAllowed(t *testing.T) {
	gen := &stubGenerator{}
	r := newTestRouter(gen)

	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete} {
		t.Run(method, func(t *testing.T) {
			req := httptest.NewRequest(method, "/api/generate", nil)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
			assert.Contains(t, w.Body.String(), "error")
		})
	}
	assert.Equal(t, 0, gen.calls)
}

func TestGenerate_MalformedBody(t *testing.T) {
	gen := &stubGenerator{}
	r := newTestRouter(gen)

	req := httptest.NewRequest(http.MethodPost, "/api/generate", bytes.NewBufferString("{topic:"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 0, gen.calls)
}

func TestHealth(t *testing.T) {
	r := newTestRouter(&stubGenerator{})
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestRequestID_Echoed(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	logger := zap.New(core)
	r := NewRouter(NewHandler(&stubGenerator{}, logger), logger)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "req-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "req-123", w.Header().Get("X-Request-ID"))
	entries := logs.FilterMessage("HTTP request").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "req-123", entries[0].ContextMap()["request_id"])
	assert.Equal(t, "/healthz", entries[0].ContextMap()["path"])
}

func TestRecovery(t *testing.T) {
	r := newTestRouter(&stubGenerator{})
	r.GET("/panic", func(*gin.Context) { panic("kaboom") })

	req := httptest.NewRequest(http.MethodGet, "/panic", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
