package assessment

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/excellere/excellere/internal/llm"
	"github.com/excellere/excellere/internal/mastery"
)

func reportInput() ReportInput {
	return ReportInput{
		ModuleID:    "strategy",
		ModuleTitle: "AI Strategy for Leaders",
		Profile:     testProfile,
		Mastery:     67,
		Sessions: []SessionSummary{
			{ConceptID: "a", ConceptTitle: "A", OverallStrength: 90, Scores: map[string]int{
				mastery.ScoreConceptAccuracy: 90, mastery.ScoreOwnContext: 50,
			}},
			{ConceptID: "b", ConceptTitle: "B", OverallStrength: 70, PrimaryGap: "governance", Scores: map[string]int{
				mastery.ScoreConceptAccuracy: 80, mastery.ScoreOwnContext: 60,
			}},
		},
	}
}

func TestReportGenerator_Structured(t *testing.T) {
	out := json.RawMessage(`{"archetype":"Pragmatic Integrator","summary":"Grounded.","strengths":["framing"],
		"development_areas":["governance"],"overall_score":81,"board_readiness":77}`)
	mock := llm.NewMockProvider(llm.MockResponse{Content: out})
	g := NewReportGenerator(mock, DefaultReportConfig(), nil)

	in := reportInput()
	in.Artefact = &ArtefactInput{Title: "Opportunity map", Content: "..."}
	rep := g.Generate(context.Background(), in)

	assert.False(t, rep.Degraded)
	assert.Equal(t, "Pragmatic Integrator", rep.Archetype)
	assert.Equal(t, 81, rep.OverallScore)
	assert.Equal(t, 77, rep.BoardReadiness)
	assert.Equal(t, []string{}, rep.BadgesEarned)

	call := mock.LastCall()
	require.NotNil(t, call.Schema)
	assert.Equal(t, "insight-report", call.Schema.Name)
	assert.Contains(t, call.Messages[0].Content, "Opportunity map")
	assert.Contains(t, call.Messages[0].Content, "concept_accuracy 90")
}

func TestReportGenerator_NoArtefactZeroesReadiness(t *testing.T) {
	out := json.RawMessage(`{"archetype":"X","summary":"Y","strengths":[],"development_areas":[],"overall_score":60,"board_readiness":55}`)
	g := NewReportGenerator(llm.NewMockProvider(llm.MockResponse{Content: out}), DefaultReportConfig(), nil)

	rep := g.Generate(context.Background(), reportInput())
	assert.Equal(t, 0, rep.BoardReadiness)
}

func TestReportGenerator_SchemaViolationFallsBack(t *testing.T) {
	out := json.RawMessage(`{"archetype":"X"}`)
	g := NewReportGenerator(llm.NewMockProvider(llm.MockResponse{Content: out}), DefaultReportConfig(), nil)

	rep := g.Generate(context.Background(), reportInput())
	assert.True(t, rep.Degraded)
	assert.Equal(t, FallbackReport(reportInput()), rep)
}

func TestFallbackReport(t *testing.T) {
	rep := FallbackReport(reportInput())

	assert.True(t, rep.Degraded)
	assert.Equal(t, 80, rep.OverallScore)
	assert.Contains(t, rep.Strengths, "Conceptual accuracy")
	assert.Contains(t, rep.DevelopmentAreas, "Applying concepts to own organisation")
	assert.Contains(t, rep.DevelopmentAreas, "governance")
	assert.Equal(t, 0, rep.BoardReadiness)
	assert.Contains(t, rep.Summary, "67%")

	empty := FallbackReport(ReportInput{ModuleTitle: "M", Artefact: &ArtefactInput{}})
	assert.Equal(t, 0, empty.OverallScore)
	assert.NotNil(t, empty.Strengths)
}
