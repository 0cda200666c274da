package assessment

import "github.com/excellere/excellere/internal/llm"

// ReportSchema defines the JSON shape of a module insight report.
var ReportSchema = &llm.Schema{
	Name:        "insight-report",
	Description: "End-of-module insight report on an executive learner",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"archetype": map[string]any{
				"type":        "string",
				"minLength":   1,
				"description": "Short label for the learner's strategic thinking style, e.g. 'Pragmatic Integrator'",
			},
			"summary": map[string]any{
				"type":        "string",
				"minLength":   1,
				"description": "Two to four sentences summarising how the learner reasons about AI",
			},
			"strengths": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Observed strengths, most significant first",
			},
			"development_areas": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Specific areas to develop, most important first",
			},
			"overall_score": map[string]any{
				"type":        "integer",
				"minimum":     0,
				"maximum":     100,
				"description": "Overall module score",
			},
			"board_readiness": map[string]any{
				"type":        "integer",
				"minimum":     0,
				"maximum":     100,
				"description": "How ready the submitted artefact is to present to a board; 0 when there is no artefact",
			},
		},
		"required":             []any{"archetype", "summary", "strengths", "development_areas", "overall_score", "board_readiness"},
		"additionalProperties": false,
	},
}
