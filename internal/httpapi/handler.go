package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/abhisek/coursegen/internal/authoring"
	"github.com/abhisek/coursegen/internal/course"
	"github.com/abhisek/coursegen/internal/llm"
)

type errorBody struct {
	Error string `json:"error"`
}

type generateBody struct {
	Topic    string `json:"topic"`
	Level    string `json:"level"`
	Audience string `json:"audience"`
	Goal     string `json:"goal"`
}

type usageBody struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type metricsBody struct {
	Provider string     `json:"provider"`
	Model    string     `json:"model,omitempty"`
	Usage    *usageBody `json:"usage"`
}

// metricsField is the key under which call metrics ride along with the course.
const metricsField = "__metrics"

// Handler serves the course generation endpoint.
type Handler struct {
	gen    authoring.Generator
	logger *zap.Logger
}

// NewHandler creates a Handler over gen.
func NewHandler(gen authoring.Generator, logger *zap.Logger) *Handler {
	return &Handler{gen: gen, logger: logger}
}

// Generate handles POST /api/generate.
func (h *Handler) Generate(c *gin.Context) {
	var body generateBody
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, errorBody{Error: "invalid JSON body"})
			return
		}
	}

	draft, err := h.gen.Generate(c.Request.Context(), course.Brief{
		Topic:    body.Topic,
		Level:    body.Level,
		Audience: body.Audience,
		Goal:     body.Goal,
	})
	if err != nil {
		status := statusFor(err)
		_ = c.Error(err)
		c.JSON(status, errorBody{Error: err.Error()})
		return
	}

	out := make(map[string]any, len(draft.Course)+1)
	for k, v := range draft.Course {
		out[k] = v
	}
	out[metricsField] = metricsBody{
		Provider: draft.Provider,
		Model:    draft.Model,
		Usage: &usageBody{
			PromptTokens:     draft.Usage.InputTokens,
			CompletionTokens: draft.Usage.OutputTokens,
			TotalTokens:      draft.Usage.TotalTokens,
		},
	}
	c.JSON(http.StatusOK, out)
}

// Health handles GET /healthz.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func statusFor(err error) int {
	var (
		missing   *llm.MissingKeyError
		invalid   *llm.ErrInvalidResponse
		rateLimit *llm.ErrRateLimit
		unavail   *llm.ErrProviderUnavailable
		maxTok    *llm.ErrMaxTokensExceeded
	)
	switch {
	case errors.Is(err, authoring.ErrMissingTopic):
		return http.StatusBadRequest
	case errors.As(err, &missing):
		return http.StatusUnauthorized
	case errors.As(err, &invalid), errors.As(err, &maxTok):
		return http.StatusBadGateway
	case errors.As(err, &rateLimit), errors.As(err, &unavail):
		return llm.StatusOf(err)
	default:
		return http.StatusInternalServerError
	}
}
