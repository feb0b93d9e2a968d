package authoring

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/abhisek/coursegen/internal/course"
	"github.com/abhisek/coursegen/internal/llm"
	"github.com/abhisek/coursegen/internal/logging"
)

// Draft is a course object as returned by the model, before any
// client-side normalization.
type Draft struct {
	Course   map[string]any
	Provider string
	Model    string
	Usage    llm.Usage
}

// Generator produces course drafts from a brief.
type Generator interface {
	Generate(ctx context.Context, brief course.Brief) (*Draft, error)
}

// ErrMissingTopic is returned for a brief without a topic.
var ErrMissingTopic = errors.New("missing 'topic'")

// Service authors courses through an LLM provider.
type Service struct {
	provider llm.Provider
	name     string
	cfg      Config
	logger   *zap.Logger
}

// NewService creates a course authoring service. name is the engine name
// reported back to clients ("openai", "anthropic", ...).
func NewService(provider llm.Provider, name string, cfg Config, logger *zap.Logger) *Service {
	return &Service{
		provider: provider,
		name:     name,
		cfg:      cfg,
		logger:   logging.OrNop(logger),
	}
}

// Generate asks the provider for a full course. Upstream failures are
// returned as llm error types so callers can map them to a status.
func (s *Service) Generate(ctx context.Context, brief course.Brief) (*Draft, error) {
	if strings.TrimSpace(brief.Topic) == "" {
		return nil, ErrMissingTopic
	}
	brief = brief.WithDefaults()

	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}
	ctx = llm.WithPurpose(ctx, llm.PurposeCourse)

	req := llm.SingleTurn(courseSystemPrompt, buildCourseUserMessage(brief, s.cfg))
	req.JSONMode = true
	req.MaxTokens = s.cfg.MaxTokens
	req.Temperature = s.cfg.Temperature

	resp, err := s.provider.Generate(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("course generation: %w", err)
	}

	if err := course.ValidateShape(resp.Content); err != nil {
		return nil, &llm.ErrInvalidResponse{Content: resp.Content, Err: err}
	}

	var out map[string]any
	if err := json.Unmarshal(resp.Content, &out); err != nil {
		return nil, &llm.ErrInvalidResponse{Content: resp.Content, Err: err}
	}

	s.logger.Debug("course drafted",
		zap.String("topic", brief.Topic),
		zap.String("model", resp.Model),
		zap.Int("total_tokens", resp.Usage.TotalTokens))

	return &Draft{
		Course:   out,
		Provider: s.name,
		Model:    resp.Model,
		Usage:    resp.Usage,
	}, nil
}

// Unavailable is a Generator that always fails with err. It stands in
// when no provider could be configured so the endpoint can still answer.
func Unavailable(err error) Generator {
	return unavailable{err: err}
}

type unavailable struct{ err error }

func (u unavailable) Generate(context.Context, course.Brief) (*Draft, error) {
	return nil, u.err
}
