package assessment

import (
	"bytes"
	"text/template"

	"github.com/excellere/excellere/internal/difficulty"
)

// Concept is the material the learner was asked to explain.
type Concept struct {
	ID           string
	Title        string
	Description  string
	KeyMechanism string
	Question     string
}

// Profile is the learner context the grader may use.
type Profile struct {
	Name      string
	Role      string
	Sector    string
	OrgSize   string
	PriorGaps []string
}

// Request is one response to analyse.
type Request struct {
	Concept    Concept
	Response   string
	Profile    Profile
	Difficulty difficulty.Tier

	// DeeperQuestion and PriorResponse are set when Response answers the
	// follow-up question after a strong teach-back.
	DeeperQuestion string
	PriorResponse  string
}

// Deeper reports whether r grades a follow-up response.
func (r Request) Deeper() bool {
	return r.DeeperQuestion != ""
}

const analysisSystemPrompt = `You are an executive-education assessor grading a business leader's "teach-back": an explanation of an AI concept in their own words.

Instructions:
- Judge understanding of the concept, not writing style.
- Score each dimension from 0 to 100.
- Name at most one primary gap. Use short lowercase labels for gap_flags.
- Suggest next_difficulty only if you are confident; otherwise omit it.
- Set mastery_achieved to true only when the learner explains the key mechanism accurately and applies it to their own context.
- Respond with a single JSON object and nothing else.`

var analysisUserTemplate = template.Must(template.New("analysis").Parse(`Concept: {{.Concept.Title}}
Description: {{.Concept.Description}}
Key mechanism: {{.Concept.KeyMechanism}}
Difficulty: {{.Difficulty}}
{{- if .Concept.Question}}
Question: {{.Concept.Question}}
{{- end}}

Learner profile:
- Role: {{or .Profile.Role "unknown"}}
- Sector: {{or .Profile.Sector "unknown"}}
{{- if .Profile.OrgSize}}
- Organisation size: {{.Profile.OrgSize}}
{{- end}}
- Prior gaps: {{if .Profile.PriorGaps}}{{range $i, $g := .Profile.PriorGaps}}{{if $i}}, {{end}}{{$g}}{{end}}{{else}}none{{end}}
{{if .Deeper}}
Earlier explanation:
"""
{{.PriorResponse}}
"""

Follow-up question: {{.DeeperQuestion}}

Follow-up response:
"""
{{.Response}}
"""
{{else}}
Learner response:
"""
{{.Response}}
"""
{{end}}
Return JSON with exactly this shape:
{
  "understanding_level": "novice" | "developing" | "proficient" | "expert",
  "scores": {
    "concept_accuracy": 0-100,
    "explained_key_mechanism": 0-100,
    "applied_to_own_context": 0-100,
    "clarity": 0-100
  },
  "overall_strength": 0-100,
  "feedback": {"right": "...", "gap": "...", "tailored": "..."},
  "primary_gap": {"name": "...", "description": "..."},
  "next_difficulty": "easy" | "medium" | "hard" | "very_hard",
  "gap_flags": ["..."],
  "badges_earned": [],
  "mastery_achieved": true | false
}`))

// BuildPrompt renders the user message for req. The output depends only
// on req.
func BuildPrompt(req Request) (string, error) {
	req.Difficulty = req.Difficulty.OrDefault()
	var buf bytes.Buffer
	if err := analysisUserTemplate.Execute(&buf, req); err != nil {
		return "", err
	}
	return buf.String(), nil
}
