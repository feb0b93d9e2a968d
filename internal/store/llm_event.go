package store

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/coursegen/ent"
	"github.com/abhisek/coursegen/ent/llmrequestevent"
)

func (s *Store) AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error {
	_, err := s.client.LLMRequestEvent.Create().
		SetTimestamp(time.Now().UTC()).
		SetProvider(data.Provider).
		SetModel(data.Model).
		SetPurpose(data.Purpose).
		SetInputTokens(data.InputTokens).
		SetOutputTokens(data.OutputTokens).
		SetLatencyMs(data.LatencyMs).
		SetSuccess(data.Success).
		SetErrorMessage(data.ErrorMessage).
		SetRequestBody(data.RequestBody).
		SetResponseBody(data.ResponseBody).
		Save(ctx)
	if err != nil {
		return fmt.Errorf("save LLM request event: %w", err)
	}
	return nil
}

func (s *Store) QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMEvent, error) {
	q := s.client.LLMRequestEvent.Query()
	if opts.Purpose != "" {
		q = q.Where(llmrequestevent.Purpose(opts.Purpose))
	}
	if !opts.From.IsZero() {
		q = q.Where(llmrequestevent.TimestampGTE(opts.From.UTC()))
	}
	if !opts.To.IsZero() {
		q = q.Where(llmrequestevent.TimestampLTE(opts.To.UTC()))
	}
	q = q.Order(ent.Desc(llmrequestevent.FieldID))
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}

	rows, err := q.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("query LLM events: %w", err)
	}

	events := make([]LLMEvent, 0, len(rows))
	for _, r := range rows {
		events = append(events, toLLMEvent(r))
	}
	return events, nil
}

func (s *Store) GetLLMEvent(ctx context.Context, id int) (*LLMEvent, error) {
	r, err := s.client.LLMRequestEvent.Get(ctx, id)
	if ent.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get LLM event %d: %w", id, err)
	}
	e := toLLMEvent(r)
	return &e, nil
}

// usageRow is one GROUP BY result; column names come from the aggregate
// aliases below.
type usageRow struct {
	Purpose      string  `json:"purpose"`
	Model        string  `json:"model"`
	Calls        int     `json:"calls"`
	InputTokens  int     `json:"input_tokens"`
	OutputTokens int     `json:"output_tokens"`
	AvgLatency   float64 `json:"avg_latency"`
}

func countAs(alias string) ent.AggregateFunc {
	return func(*entsql.Selector) string {
		return entsql.As(entsql.Count("*"), alias)
	}
}

func sumAs(field, alias string) ent.AggregateFunc {
	return func(s *entsql.Selector) string {
		return entsql.As(entsql.Sum(s.C(field)), alias)
	}
}

func avgAs(field, alias string) ent.AggregateFunc {
	return func(s *entsql.Selector) string {
		return entsql.As(entsql.Avg(s.C(field)), alias)
	}
}

func (s *Store) LLMUsageByPurpose(ctx context.Context) ([]PurposeUsage, error) {
	var rows []usageRow
	err := s.client.LLMRequestEvent.Query().
		GroupBy(llmrequestevent.FieldPurpose).
		Aggregate(
			countAs("calls"),
			sumAs(llmrequestevent.FieldInputTokens, "input_tokens"),
			sumAs(llmrequestevent.FieldOutputTokens, "output_tokens"),
			avgAs(llmrequestevent.FieldLatencyMs, "avg_latency"),
		).
		Scan(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("query usage by purpose: %w", err)
	}

	out := make([]PurposeUsage, 0, len(rows))
	for _, r := range rows {
		out = append(out, PurposeUsage{
			Purpose:      r.Purpose,
			Calls:        r.Calls,
			InputTokens:  r.InputTokens,
			OutputTokens: r.OutputTokens,
			AvgLatencyMs: int64(r.AvgLatency),
		})
	}
	slices.SortFunc(out, func(a, b PurposeUsage) int { return cmp.Compare(a.Purpose, b.Purpose) })
	return out, nil
}

// LLMUsageByModel only counts successful calls; failed ones are not billed.
func (s *Store) LLMUsageByModel(ctx context.Context) ([]ModelUsage, error) {
	var rows []usageRow
	err := s.client.LLMRequestEvent.Query().
		Where(llmrequestevent.Success(true)).
		GroupBy(llmrequestevent.FieldModel).
		Aggregate(
			countAs("calls"),
			sumAs(llmrequestevent.FieldInputTokens, "input_tokens"),
			sumAs(llmrequestevent.FieldOutputTokens, "output_tokens"),
		).
		Scan(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("query usage by model: %w", err)
	}

	out := make([]ModelUsage, 0, len(rows))
	for _, r := range rows {
		out = append(out, ModelUsage{
			Model:        r.Model,
			Calls:        r.Calls,
			InputTokens:  r.InputTokens,
			OutputTokens: r.OutputTokens,
		})
	}
	slices.SortFunc(out, func(a, b ModelUsage) int { return cmp.Compare(a.Model, b.Model) })
	return out, nil
}

func toLLMEvent(r *ent.LLMRequestEvent) LLMEvent {
	return LLMEvent{
		ID:        r.ID,
		Timestamp: r.Timestamp.UTC(),
		LLMRequestEventData: LLMRequestEventData{
			Provider:     r.Provider,
			Model:        r.Model,
			Purpose:      r.Purpose,
			InputTokens:  r.InputTokens,
			OutputTokens: r.OutputTokens,
			LatencyMs:    r.LatencyMs,
			Success:      r.Success,
			ErrorMessage: r.ErrorMessage,
			RequestBody:  r.RequestBody,
			ResponseBody: r.ResponseBody,
		},
	}
}
