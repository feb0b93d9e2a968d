package authoring

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/coursegen/internal/course"
	"github.com/abhisek/coursegen/internal/llm"
)

func validCourseJSON() json.RawMessage {
	return json.RawMessage(`{
		"topic": "Pottery",
		"level": "Beginner",
		"estimatedHours": 12,
		"modules": [
			{"id": "m1", "title": "Clay basics", "lessons": [
				{"id": "l1", "title": "Wedging", "quiz": [
					{"question": "Why wedge clay?", "options": ["a","b","c","d"], "answerIndex": 1}
				]}
			]}
		]
	}`)
}

func TestService_GeneratesDraft(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{
		Content: validCourseJSON(),
		Usage:   llm.Usage{InputTokens: 300, OutputTokens: 2000, TotalTokens: 2300},
	})
	mock.Model = "gpt-4.1"
	svc := NewService(mock, llm.ProviderOpenAI, DefaultConfig(), nil)

	draft, err := svc.Generate(t.Context(), course.Brief{Topic: "Pottery"})
	require.NoError(t, err)

	assert.Equal(t, "Pottery", draft.Course["topic"])
	assert.Equal(t, "openai", draft.Provider)
	assert.Equal(t, "gpt-4.1", draft.Model)
	assert.Equal(t, 2300, draft.Usage.TotalTokens)
}

func TestService_RequestShape(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Content: validCourseJSON()})
	svc := NewService(mock, llm.ProviderMock, DefaultConfig(), nil)

	_, err := svc.Generate(t.Context(), course.Brief{Topic: "Pottery", Goal: "Throw a bowl"})
	require.NoError(t, err)
	require.Equal(t, 1, mock.CallCount())

	req := mock.Calls[0]
	assert.True(t, req.JSONMode)
	assert.Nil(t, req.Schema)
	assert.Equal(t, 0.7, req.Temperature)
	assert.Equal(t, 8192, req.MaxTokens)
	assert.Contains(t, req.System, `"answerIndex"`)

	user := req.UserPrompt()
	assert.Contains(t, user, "Topic: Pottery")
	assert.Contains(t, user, "Level: Beginner")
	assert.Contains(t, user, "Audience: Curious self-learners")
	assert.Contains(t, user, "Goal: Throw a bowl")
	assert.Contains(t, user, "4 modules with 3 lessons each")
}

func TestService_MissingTopic(t *testing.T) {
	mock := llm.NewMockProvider()
	svc := NewService(mock, llm.ProviderMock, DefaultConfig(), nil)

	_, err := svc.Generate(t.Context(), course.Brief{Topic: "   "})
	assert.ErrorIs(t, err, ErrMissingTopic)
	assert.Equal(t, 0, mock.CallCount())
}

func TestService_Failures(t *testing.T) {
	tests := []struct {
		name       string
		resp       llm.MockResponse
		wantStatus int
	}{
		{"prose instead of json", llm.MockResponse{Content: json.RawMessage(`Here is a course about pottery.`)}, 502},
		{"object without modules", llm.MockResponse{Content: json.RawMessage(`{"topic":"Pottery"}`)}, 502},
		{"rate limited", llm.MockResponse{Err: &llm.ErrRateLimit{}}, 429},
		{"upstream rejects key", llm.MockResponse{Err: &llm.ErrProviderUnavailable{StatusCode: 401, Err: errors.New("bad key")}}, 401},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(llm.NewMockProvider(tt.resp), llm.ProviderMock, DefaultConfig(), nil)
			_, err := svc.Generate(t.Context(), course.Brief{Topic: "Pottery"})
			require.Error(t, err)
			assert.Equal(t, tt.wantStatus, llm.StatusOf(err))
		})
	}
}

func TestUnavailable(t *testing.T) {
	want := &llm.MissingKeyError{Provider: "openai", EnvVar: "OPENAI_API_KEY"}
	_, err := Unavailable(want).Generate(t.Context(), course.Brief{Topic: "x"})

	var missing *llm.MissingKeyError
	require.True(t, errors.As(err, &missing))
	assert.True(t, strings.Contains(err.Error(), "OPENAI_API_KEY"))
}
