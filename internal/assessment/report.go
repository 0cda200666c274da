package assessment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"slices"
	"text/template"

	"github.com/excellere/excellere/internal/llm"
	"github.com/excellere/excellere/internal/logger"
	"github.com/excellere/excellere/internal/mastery"
)

// SessionSummary is one analysed submission fed into the report.
type SessionSummary struct {
	ConceptID       string
	ConceptTitle    string
	OverallStrength int
	Scores          map[string]int
	PrimaryGap      string
}

// ArtefactInput is the optional deliverable submitted with module
// completion.
type ArtefactInput struct {
	Title   string
	Content string
}

// ReportInput is everything a report is drafted from.
type ReportInput struct {
	ModuleID    string
	ModuleTitle string
	Brief       string
	Profile     Profile
	Sessions    []SessionSummary
	Artefact    *ArtefactInput
	Mastery     int
}

// Report is a drafted insight report. BadgesEarned is filled by the
// caller from the local evaluator.
type Report struct {
	Archetype        string   `json:"archetype"`
	Summary          string   `json:"summary"`
	Strengths        []string `json:"strengths"`
	DevelopmentAreas []string `json:"development_areas"`
	OverallScore     int      `json:"overall_score"`
	BoardReadiness   int      `json:"board_readiness"`
	BadgesEarned     []string `json:"badges_earned"`
	Degraded         bool     `json:"degraded"`
}

// ReportConfig holds generation settings for reports.
type ReportConfig struct {
	MaxTokens   int
	Temperature float64
}

// DefaultReportConfig returns sensible defaults.
func DefaultReportConfig() ReportConfig {
	return ReportConfig{
		MaxTokens:   2048,
		Temperature: 0.4,
	}
}

// ReportGenerator drafts insight reports with structured output.
type ReportGenerator struct {
	provider llm.Provider
	cfg      ReportConfig
	log      *logger.Logger
}

// NewReportGenerator creates a ReportGenerator. log may be nil.
func NewReportGenerator(p llm.Provider, cfg ReportConfig, log *logger.Logger) *ReportGenerator {
	if log == nil {
		log = logger.Nop()
	}
	return &ReportGenerator{provider: p, cfg: cfg, log: log.With("component", "report")}
}

// Generate drafts a report. On any failure it returns FallbackReport.
func (g *ReportGenerator) Generate(ctx context.Context, in ReportInput) Report {
	ctx = llm.WithPurpose(ctx, llm.PurposeInsightReport)

	rep, err := g.generate(ctx, in)
	if err != nil {
		g.log.Warn("insight report degraded to fallback", "module_id", in.ModuleID, "error", err)
		return FallbackReport(in)
	}
	return rep
}

func (g *ReportGenerator) generate(ctx context.Context, in ReportInput) (Report, error) {
	if g.provider == nil {
		return Report{}, llm.Unavailable("", errors.New("no report provider"))
	}
	msg, err := buildReportMessage(in)
	if err != nil {
		return Report{}, fmt.Errorf("build report prompt: %w", err)
	}
	resp, err := g.provider.Generate(ctx, llm.Request{
		System:      reportSystemPrompt,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: msg}},
		Schema:      ReportSchema,
		MaxTokens:   g.cfg.MaxTokens,
		Temperature: g.cfg.Temperature,
	})
	if err != nil {
		return Report{}, fmt.Errorf("LLM report failed: %w", err)
	}

	var rep Report
	if err := json.Unmarshal(resp.Content, &rep); err != nil {
		return Report{}, fmt.Errorf("failed to parse report response: %w", err)
	}
	rep.OverallScore = clampScore(float64(rep.OverallScore))
	rep.BoardReadiness = clampScore(float64(rep.BoardReadiness))
	if in.Artefact == nil {
		rep.BoardReadiness = 0
	}
	rep.Strengths = nonNil(rep.Strengths)
	rep.DevelopmentAreas = nonNil(rep.DevelopmentAreas)
	rep.BadgesEarned = []string{}
	return rep, nil
}

// FallbackReport builds a report from local data alone.
func FallbackReport(in ReportInput) Report {
	rep := Report{
		Archetype:        "Emerging AI Leader",
		Summary:          fmt.Sprintf("Completed %s with %d%% of concepts mastered.", in.ModuleTitle, in.Mastery),
		Strengths:        []string{},
		DevelopmentAreas: []string{},
		OverallScore:     overallScore(in.Sessions),
		BadgesEarned:     []string{},
		Degraded:         true,
	}

	avg := averageScores(in.Sessions)
	for _, dim := range Dimensions {
		v, ok := avg[dim]
		if !ok {
			continue
		}
		switch {
		case v >= 75:
			rep.Strengths = append(rep.Strengths, dimensionLabel(dim))
		case v < 60:
			rep.DevelopmentAreas = append(rep.DevelopmentAreas, dimensionLabel(dim))
		}
	}
	for _, s := range in.Sessions {
		if s.PrimaryGap != "" && !slices.Contains(rep.DevelopmentAreas, s.PrimaryGap) {
			rep.DevelopmentAreas = append(rep.DevelopmentAreas, s.PrimaryGap)
		}
	}
	if in.Artefact != nil {
		rep.BoardReadiness = rep.OverallScore
	}
	return rep
}

// overallScore is the mean overall strength across sessions, 0 for none.
func overallScore(sessions []SessionSummary) int {
	if len(sessions) == 0 {
		return 0
	}
	sum := 0
	for _, s := range sessions {
		sum += s.OverallStrength
	}
	return int(math.Round(float64(sum) / float64(len(sessions))))
}

func averageScores(sessions []SessionSummary) map[string]int {
	sums := map[string]int{}
	counts := map[string]int{}
	for _, s := range sessions {
		for k, v := range s.Scores {
			sums[k] += v
			counts[k]++
		}
	}
	out := make(map[string]int, len(sums))
	for k, sum := range sums {
		out[k] = int(math.Round(float64(sum) / float64(counts[k])))
	}
	return out
}

func dimensionLabel(dim string) string {
	switch dim {
	case mastery.ScoreConceptAccuracy:
		return "Conceptual accuracy"
	case mastery.ScoreKeyMechanism:
		return "Explaining key mechanisms"
	case mastery.ScoreOwnContext:
		return "Applying concepts to own organisation"
	case mastery.ScoreClarity:
		return "Clarity of explanation"
	default:
		return dim
	}
}

const reportSystemPrompt = `You are writing an insight report on a senior executive who has completed a module of an AI-literacy course.

Instructions:
- Base every statement on the session evidence provided. Do not invent achievements.
- The archetype is a two or three word label for how the learner reasons about AI.
- Keep strengths and development areas to at most four items each.
- overall_score should reflect the session strengths; board_readiness rates the artefact and is 0 when none was submitted.`

var reportUserTemplate = template.Must(template.New("report").Parse(`Module: {{.ModuleTitle}}
{{- if .Brief}}
Artefact brief: {{.Brief}}
{{- end}}
Concepts mastered: {{.Mastery}}%

Learner: {{or .Profile.Role "executive"}}{{if .Profile.Sector}} in {{.Profile.Sector}}{{end}}

Sessions:
{{range .Sessions}}- {{.ConceptTitle}}: overall {{.OverallStrength}}{{range $k, $v := .Scores}}, {{$k}} {{$v}}{{end}}{{if .PrimaryGap}}; gap: {{.PrimaryGap}}{{end}}
{{else}}- none
{{end}}
{{- if .Artefact}}
Artefact "{{.Artefact.Title}}":
"""
{{.Artefact.Content}}
"""
{{- else}}
No artefact submitted.
{{- end}}`))

func buildReportMessage(in ReportInput) (string, error) {
	var buf bytes.Buffer
	if err := reportUserTemplate.Execute(&buf, in); err != nil {
		return "", err
	}
	return buf.String(), nil
}
