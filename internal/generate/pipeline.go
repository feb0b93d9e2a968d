// Package generate turns a course request into a course, falling back to a
// locally synthesized placeholder whenever the generation endpoint fails.
package generate

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/abhisek/coursegen/internal/course"
	"github.com/abhisek/coursegen/internal/logging"
)

// PlaceholderWarning is the advisory shown when the placeholder was used.
const PlaceholderWarning = "Could not generate the course with AI. Showing sample content instead."

// Failure reasons.
const (
	ReasonTransport = "transport"
	ReasonTimeout   = "timeout"
	ReasonStatus    = "status"
	ReasonShape     = "shape"
)

// GenerationFailure describes why the endpoint could not provide a course.
// It never reaches the caller as an error; settle turns it into a
// placeholder course plus a warning.
type GenerationFailure struct {
	Reason string
	Status int
	Err    error
}

func (e *GenerationFailure) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("generation failed (%s, status %d): %v", e.Reason, e.Status, e.Err)
	}
	return fmt.Sprintf("generation failed (%s): %v", e.Reason, e.Err)
}

func (e *GenerationFailure) Unwrap() error { return e.Err }

// Result is the outcome of the fetch stage: exactly one of Course and
// Failure is set.
type Result struct {
	Course  *course.Course
	Failure *GenerationFailure
}

// Outcome is what Generate hands back. Warning is non-empty when Course is
// a placeholder; Failure then carries the underlying cause.
type Outcome struct {
	Course  *course.Course
	Warning string
	Failure *GenerationFailure
}

// Pipeline generates courses. It is safe for concurrent use; concurrent
// calls are independent and nothing orders their completion.
type Pipeline struct {
	fetcher Fetcher
	logger  *zap.Logger
	now     func() time.Time

	mu  sync.Mutex
	rng *rand.Rand
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithRand fixes the random source used for placeholder synthesis.
func WithRand(r *rand.Rand) Option {
	return func(p *Pipeline) { p.rng = r }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// New creates a Pipeline over fetcher.
func New(fetcher Fetcher, logger *zap.Logger, opts ...Option) *Pipeline {
	p := &Pipeline{
		fetcher: fetcher,
		logger:  logging.OrNop(logger),
		now:     time.Now,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Generate validates req, asks the endpoint for a course and settles the
// result. The only error it returns is a *ValidationError.
func (p *Pipeline) Generate(ctx context.Context, req Request) (*Outcome, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return p.settle(req, p.fetch(ctx, req)), nil
}

func (p *Pipeline) fetch(ctx context.Context, req Request) Result {
	start := p.now()
	body, err := p.fetcher.Fetch(ctx, req)
	latency := p.now().Sub(start)

	if err != nil {
		f := classify(err)
		p.logger.Warn("course generation failed",
			zap.String("topic", req.Trimmed().Topic),
			zap.String("reason", f.Reason),
			zap.Int("status", f.Status),
			zap.Duration("latency", latency),
			zap.Error(err))
		return Result{Failure: f}
	}

	c, err := course.Normalize(body)
	if err != nil {
		p.logger.Warn("course generation returned an unusable document",
			zap.String("topic", req.Trimmed().Topic),
			zap.Duration("latency", latency),
			zap.Error(err))
		return Result{Failure: &GenerationFailure{Reason: ReasonShape, Err: err}}
	}

	fillFromRequest(c, req.Brief())
	c.Metadata.Provider = course.ProviderExternal
	c.Metadata.LatencyMs = latency.Milliseconds()
	c.EnsureID(start)

	p.logger.Info("course generated",
		zap.String("course_id", c.ID),
		zap.String("engine", c.Metadata.Engine),
		zap.Int("modules", len(c.Modules)),
		zap.Duration("latency", latency))
	return Result{Course: c}
}

func (p *Pipeline) settle(req Request, r Result) *Outcome {
	if r.Failure == nil {
		return &Outcome{Course: r.Course}
	}

	p.mu.Lock()
	c := course.Placeholder(req.Brief(), course.PlaceholderOptions{Rand: p.rng, Now: p.now()})
	p.mu.Unlock()

	return &Outcome{
		Course:  c,
		Warning: PlaceholderWarning,
		Failure: r.Failure,
	}
}

func classify(err error) *GenerationFailure {
	var se *StatusError
	if errors.As(err, &se) {
		return &GenerationFailure{Reason: ReasonStatus, Status: se.Code, Err: err}
	}
	var ne net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &ne) && ne.Timeout()) {
		return &GenerationFailure{Reason: ReasonTimeout, Err: err}
	}
	return &GenerationFailure{Reason: ReasonTransport, Err: err}
}

// fillFromRequest copies request fields into blanks the generator left.
func fillFromRequest(c *course.Course, b course.Brief) {
	if c.Topic == "" {
		c.Topic = b.Topic
	}
	if c.Level == "" {
		c.Level = b.Level
	}
	if c.Audience == "" {
		c.Audience = b.Audience
	}
	if c.Goal == "" {
		c.Goal = b.Goal
	}
}
