package store

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// LLMRequestEventData is one provider attempt as the llm package reports it.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	Attempt      int
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorKind    string
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// EventFilter narrows QueryLLMEvents. Zero fields match everything.
type EventFilter struct {
	Limit      int
	Purpose    string
	FailedOnly bool
	Since      time.Time
}

// PurposeUsage aggregates the usage log per purpose.
type PurposeUsage struct {
	Purpose      string
	Calls        int
	Failures     int
	InputTokens  int
	OutputTokens int
	AvgLatencyMs int
}

// ModelUsage aggregates the usage log per model.
type ModelUsage struct {
	Model        string
	Calls        int
	InputTokens  int
	OutputTokens int
}

// KindCount is the number of failed attempts of one error kind.
type KindCount struct {
	Kind  string
	Calls int
}

// LLMEventRepo reads and appends the LLM usage log.
type LLMEventRepo struct {
	db *gorm.DB
}

// AppendLLMRequest stores one attempt.
func (r *LLMEventRepo) AppendLLMRequest(ctx context.Context, d LLMRequestEventData) error {
	attempt := d.Attempt
	if attempt < 1 {
		attempt = 1
	}
	ev := LLMRequestEvent{
		Timestamp:    time.Now().UTC(),
		Provider:     d.Provider,
		Model:        d.Model,
		Purpose:      d.Purpose,
		InputTokens:  d.InputTokens,
		OutputTokens: d.OutputTokens,
		LatencyMs:    d.LatencyMs,
		Attempt:      attempt,
		Success:      d.Success,
		ErrorKind:    d.ErrorKind,
		ErrorMessage: d.ErrorMessage,
		RequestBody:  d.RequestBody,
		ResponseBody: d.ResponseBody,
	}
	if err := r.db.WithContext(ctx).Create(&ev).Error; err != nil {
		return fmt.Errorf("append llm event: %w", err)
	}
	return nil
}

// QueryLLMEvents returns matching events, newest first.
func (r *LLMEventRepo) QueryLLMEvents(ctx context.Context, f EventFilter) ([]LLMRequestEvent, error) {
	q := r.db.WithContext(ctx).Order("id DESC")
	if f.Purpose != "" {
		q = q.Where("purpose = ?", f.Purpose)
	}
	if f.FailedOnly {
		q = q.Where("success = ?", false)
	}
	if !f.Since.IsZero() {
		q = q.Where("timestamp >= ?", f.Since.UTC())
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}

	var out []LLMRequestEvent
	if err := q.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("query llm events: %w", err)
	}
	return out, nil
}

// GetLLMEvent returns one event or ErrNotFound.
func (r *LLMEventRepo) GetLLMEvent(ctx context.Context, id int64) (*LLMRequestEvent, error) {
	var ev LLMRequestEvent
	if err := r.db.WithContext(ctx).First(&ev, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &ev, nil
}

const tokenSums = "COUNT(*) AS calls, COALESCE(SUM(input_tokens), 0) AS input_tokens, COALESCE(SUM(output_tokens), 0) AS output_tokens"

// LLMUsageByPurpose groups the log by purpose, busiest first.
func (r *LLMEventRepo) LLMUsageByPurpose(ctx context.Context) ([]PurposeUsage, error) {
	var rows []PurposeUsage
	err := r.aggregate(ctx, "purpose",
		"purpose, "+tokenSums+
			", COALESCE(SUM(CASE WHEN success THEN 0 ELSE 1 END), 0) AS failures"+
			", CAST(COALESCE(AVG(latency_ms), 0) AS INTEGER) AS avg_latency_ms").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("usage by purpose: %w", err)
	}
	return rows, nil
}

// LLMUsageByModel groups the log by model, busiest first.
func (r *LLMEventRepo) LLMUsageByModel(ctx context.Context) ([]ModelUsage, error) {
	var rows []ModelUsage
	if err := r.aggregate(ctx, "model", "model, "+tokenSums).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("usage by model: %w", err)
	}
	return rows, nil
}

// LLMFailuresByKind counts failed attempts per error kind.
func (r *LLMEventRepo) LLMFailuresByKind(ctx context.Context) ([]KindCount, error) {
	var rows []KindCount
	err := r.aggregate(ctx, "error_kind", "error_kind AS kind, COUNT(*) AS calls").
		Where("success = ?", false).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failures by kind: %w", err)
	}
	return rows, nil
}

func (r *LLMEventRepo) aggregate(ctx context.Context, group, sel string) *gorm.DB {
	return r.db.WithContext(ctx).Model(&LLMRequestEvent{}).Select(sel).Group(group).Order("calls DESC")
}
