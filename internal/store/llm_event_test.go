package store

import (
	"context"
	"errors"
	"testing"
	"time"
)

func seedEvents(t *testing.T, repo *LLMEventRepo) {
	t.Helper()
	rows := []LLMRequestEventData{
		{Provider: "anthropic", Model: "claude-sonnet-4-5", Purpose: "teach-back", InputTokens: 100, OutputTokens: 50, LatencyMs: 1000, Success: true, RequestBody: "req", ResponseBody: "resp"},
		{Provider: "anthropic", Model: "claude-sonnet-4-5", Purpose: "teach-back", Attempt: 1, InputTokens: 200, OutputTokens: 70, LatencyMs: 2000, ErrorKind: "rate_limit", ErrorMessage: "slow down"},
		{Provider: "openai", Model: "gpt-4o", Purpose: "insight-report", Attempt: 2, InputTokens: 500, OutputTokens: 300, LatencyMs: 3000, ErrorKind: "max_tokens", ErrorMessage: "boom"},
	}
	for _, d := range rows {
		if err := repo.AppendLLMRequest(context.Background(), d); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
}

func TestLLMEventQueries(t *testing.T) {
	repo := openTestStore(t).LLMEvents()
	ctx := context.Background()
	seedEvents(t, repo)

	got, err := repo.QueryLLMEvents(ctx, EventFilter{Limit: 2})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(got) != 2 || got[0].Purpose != "insight-report" {
		t.Fatalf("newest first: %+v", got)
	}
	if got[0].Attempt != 2 || got[0].ErrorKind != "max_tokens" {
		t.Errorf("attempt/kind = %d/%q", got[0].Attempt, got[0].ErrorKind)
	}

	teach, _ := repo.QueryLLMEvents(ctx, EventFilter{Purpose: "teach-back"})
	if len(teach) != 2 {
		t.Errorf("teach-back rows = %d, want 2", len(teach))
	}
	// Attempt defaults to 1 when the caller leaves it unset.
	if teach[1].Attempt != 1 {
		t.Errorf("default attempt = %d", teach[1].Attempt)
	}

	failed, _ := repo.QueryLLMEvents(ctx, EventFilter{FailedOnly: true})
	if len(failed) != 2 {
		t.Errorf("failed rows = %d, want 2", len(failed))
	}

	future, _ := repo.QueryLLMEvents(ctx, EventFilter{Since: time.Now().Add(time.Hour)})
	if len(future) != 0 {
		t.Errorf("since filter returned %d rows", len(future))
	}

	one, err := repo.GetLLMEvent(ctx, teach[1].ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if one.RequestBody != "req" || one.ResponseBody != "resp" {
		t.Errorf("bodies = %q / %q", one.RequestBody, one.ResponseBody)
	}
	if _, err := repo.GetLLMEvent(ctx, 9999); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing err = %v", err)
	}
}

func TestLLMEventAggregates(t *testing.T) {
	repo := openTestStore(t).LLMEvents()
	ctx := context.Background()
	seedEvents(t, repo)

	byPurpose, err := repo.LLMUsageByPurpose(ctx)
	if err != nil {
		t.Fatalf("by purpose: %v", err)
	}
	if len(byPurpose) != 2 || byPurpose[0].Purpose != "teach-back" {
		t.Fatalf("by purpose = %+v", byPurpose)
	}
	tb := byPurpose[0]
	if tb.Calls != 2 || tb.Failures != 1 || tb.InputTokens != 300 || tb.AvgLatencyMs != 1500 {
		t.Errorf("teach-back usage = %+v", tb)
	}

	byModel, err := repo.LLMUsageByModel(ctx)
	if err != nil {
		t.Fatalf("by model: %v", err)
	}
	if len(byModel) != 2 || byModel[1].OutputTokens != 300 {
		t.Errorf("by model = %+v", byModel)
	}

	kinds, err := repo.LLMFailuresByKind(ctx)
	if err != nil {
		t.Fatalf("by kind: %v", err)
	}
	if len(kinds) != 2 {
		t.Fatalf("by kind = %+v", kinds)
	}
	seen := map[string]int{}
	for _, k := range kinds {
		seen[k.Kind] = k.Calls
	}
	if seen["rate_limit"] != 1 || seen["max_tokens"] != 1 {
		t.Errorf("by kind = %+v", seen)
	}
}
