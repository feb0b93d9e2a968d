package generate

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/abhisek/coursegen/internal/course"
)

type countingFetcher struct {
	calls int
	body  []byte
	err   error
}

func (f *countingFetcher) Fetch(context.Context, Request) ([]byte, error) {
	f.calls++
	return f.body, f.err
}

func fixedClock(start time.Time, step time.Duration) func() time.Time {
	t := start
	return func() time.Time {
		now := t
		t = t.Add(step)
		return now
	}
}

func seeded() *rand.Rand { return rand.New(rand.NewPCG(7, 11)) }

func requireShape(t *testing.T, c *course.Course) {
	t.Helper()
	require.NotNil(t, c)
	require.Len(t, c.Modules, course.PlaceholderModules)
	for _, m := range c.Modules {
		require.Len(t, m.Lessons, course.PlaceholderLessonsPerModule)
		for _, l := range m.Lessons {
			require.Len(t, l.Quiz, 1)
			assert.GreaterOrEqual(t, l.Quiz[0].AnswerIndex, 0)
			assert.Less(t, l.Quiz[0].AnswerIndex, 4)
		}
	}
}

func TestGenerate_EndpointUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	endpoint := srv.URL + "/api/generate"
	srv.Close()

	p := New(NewHTTPFetcher(endpoint, time.Second), nil, WithRand(seeded()))
	out, err := p.Generate(t.Context(), Request{Topic: "Pottery", Level: "Beginner"})
	require.NoError(t, err)

	assert.Equal(t, course.ProviderPlaceholder, out.Course.Metadata.Provider)
	assert.Zero(t, out.Course.Metadata.LatencyMs)
	assert.Equal(t, PlaceholderWarning, out.Warning)
	require.NotNil(t, out.Failure)
	assert.Equal(t, ReasonTransport, out.Failure.Reason)
	assert.Equal(t, "Pottery", out.Course.Topic)
	assert.Equal(t, "Beginner", out.Course.Level)
	requireShape(t, out.Course)
}

func TestGenerate_ValidationErrorSkipsNetwork(t *testing.T) {
	for _, topic := range []string{"", "   ", "\t\n"} {
		f := &countingFetcher{}
		p := New(f, nil)

		out, err := p.Generate(t.Context(), Request{Topic: topic, Level: "Beginner"})
		assert.Nil(t, out)

		var ve *ValidationError
		require.True(t, errors.As(err, &ve), "topic %q", topic)
		assert.Equal(t, "topic", ve.Field)
		assert.Equal(t, 0, f.calls)
	}
}

func TestGenerate_NonSuccessStatusFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"error":"OPENAI_API_KEY is required"}`)
	}))
	t.Cleanup(srv.Close)

	p := New(NewHTTPFetcher(srv.URL, time.Second), nil)
	out, err := p.Generate(t.Context(), Request{Topic: "Chess"})
	require.NoError(t, err)

	require.NotNil(t, out.Failure)
	assert.Equal(t, ReasonStatus, out.Failure.Reason)
	assert.Equal(t, http.StatusUnauthorized, out.Failure.Status)
	assert.Contains(t, out.Failure.Error(), "OPENAI_API_KEY")
	assert.Equal(t, course.ProviderPlaceholder, out.Course.Metadata.Provider)
	requireShape(t, out.Course)
}

func TestGenerate_ShapeInvalidFallsBack(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `<html>oops</html>`},
		{"no modules", `{"topic":"Chess"}`},
		{"modules not array", `{"modules":{"a":1}}`},
		{"array root", `[{"modules":[]}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(&countingFetcher{body: []byte(tt.body)}, nil)
			out, err := p.Generate(t.Context(), Request{Topic: "Chess"})
			require.NoError(t, err)
			require.NotNil(t, out.Failure)
			assert.Equal(t, ReasonShape, out.Failure.Reason)
			assert.NotEmpty(t, out.Warning)
			requireShape(t, out.Course)
		})
	}
}

func TestGenerate_ExternalSuccess(t *testing.T) {
	var got Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{
			"modules": [{"title": "Openings", "lessons": [{"title": "Center control"}]}],
			"__metrics": {"provider": "openai", "model": "gpt-4.1", "usage": {"prompt_tokens": 100, "completion_tokens": 400, "total_tokens": 500}}
		}`)
	}))
	t.Cleanup(srv.Close)

	start := time.UnixMilli(1_700_000_000_000)
	p := New(NewHTTPFetcher(srv.URL, time.Second), nil, WithClock(fixedClock(start, 1500*time.Millisecond)))

	out, err := p.Generate(t.Context(), Request{Topic: "  Chess ", Goal: "Win more games"})
	require.NoError(t, err)
	assert.Empty(t, out.Warning)
	assert.Nil(t, out.Failure)

	assert.Equal(t, "Chess", got.Topic)

	c := out.Course
	assert.Equal(t, "chess-1700000000000", c.ID)
	assert.Equal(t, "Chess", c.Topic)
	assert.Equal(t, "Win more games", c.Goal)
	assert.Equal(t, course.DefaultLevel, c.Level)
	assert.Equal(t, course.ProviderExternal, c.Metadata.Provider)
	assert.Equal(t, "openai", c.Metadata.Engine)
	assert.Equal(t, int64(1500), c.Metadata.LatencyMs)
	require.NotNil(t, c.Metadata.Usage)
	assert.Equal(t, 500, c.Metadata.Usage.TotalTokens)

	require.Len(t, c.Modules, 1)
	assert.Equal(t, "openings-0", c.Modules[0].ID)
}

func TestGenerate_KeepsGeneratorID(t *testing.T) {
	f := &countingFetcher{body: []byte(`{"id":"given-id","topic":"Go","modules":[]}`)}
	out, err := New(f, nil).Generate(t.Context(), Request{Topic: "Golang"})
	require.NoError(t, err)
	assert.Equal(t, "given-id", out.Course.ID)
	assert.Equal(t, "Go", out.Course.Topic)
	assert.Empty(t, out.Course.Modules)
	assert.NotNil(t, out.Course.Modules)
}

func TestGenerate_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	t.Cleanup(srv.Close)

	core, logs := observer.New(zap.WarnLevel)
	p := New(NewHTTPFetcher(srv.URL, 50*time.Millisecond), zap.New(core))

	out, err := p.Generate(t.Context(), Request{Topic: "Pottery"})
	require.NoError(t, err)
	require.NotNil(t, out.Failure)
	assert.Equal(t, ReasonTimeout, out.Failure.Reason)
	requireShape(t, out.Course)

	entries := logs.FilterMessage("course generation failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "timeout", entries[0].ContextMap()["reason"])
}

func TestGenerate_PlaceholderDeterministicWithSeed(t *testing.T) {
	clock := func() time.Time { return time.UnixMilli(1_700_000_000_000) }
	run := func() *course.Course {
		p := New(&countingFetcher{err: errors.New("offline")}, nil, WithRand(seeded()), WithClock(clock))
		out, err := p.Generate(t.Context(), Request{Topic: "Pottery"})
		require.NoError(t, err)
		return out.Course
	}
	assert.Equal(t, run(), run())
}

func TestRequest_Validate(t *testing.T) {
	tests := []struct {
		name      string
		req       Request
		wantField string
	}{
		{"ok", Request{Topic: "Pottery"}, ""},
		{"blank", Request{Topic: " "}, "topic"},
		{"long topic", Request{Topic: strings.Repeat("a", 201)}, ""},
		{"long goal", Request{Topic: "Pottery", Goal: strings.Repeat("g", 501)}, ""},
		{"tab only", Request{Topic: "\t\n"}, "topic"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			var ve *ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, tt.wantField, ve.Field)
			assert.NotEmpty(t, ve.Error())
		})
	}
}

func TestGenerate_LongInputFallsBackToPlaceholder(t *testing.T) {
	tests := []Request{
		{Topic: strings.Repeat("a", 201)},
		{Topic: "Pottery", Goal: strings.Repeat("g", 501)},
		{Topic: "Pottery", Level: strings.Repeat("l", 81), Audience: strings.Repeat("u", 201)},
	}
	for _, req := range tests {
		f := &countingFetcher{err: errors.New("offline")}
		p := New(f, nil, WithRand(seeded()))

		out, err := p.Generate(t.Context(), req)
		require.NoError(t, err)
		require.NotNil(t, out.Course)
		assert.Equal(t, PlaceholderWarning, out.Warning)
		assert.Equal(t, 1, f.calls)
	}
}

func TestRequest_Bounded(t *testing.T) {
	req := Request{
		Topic:    "  " + strings.Repeat("é", 250) + "  ",
		Level:    strings.Repeat("l", 81),
		Audience: "Hobbyists",
		Goal:     strings.Repeat("g", 600),
	}
	b := req.Bounded()
	assert.Equal(t, MaxTopicLen, utf8.RuneCountInString(b.Topic))
	assert.Len(t, b.Level, MaxLevelLen)
	assert.Equal(t, "Hobbyists", b.Audience)
	assert.Len(t, b.Goal, MaxGoalLen)
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("COURSEGEN_ENDPOINT", "http://example.test/api/generate")
	t.Setenv("COURSEGEN_TIMEOUT", "5s")

	cfg := ConfigFromEnv()
	assert.Equal(t, "http://example.test/api/generate", cfg.Endpoint)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
}
