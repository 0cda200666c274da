// Package assessment turns a learner's teach-back into a validated
// analysis and drafts module insight reports. Model output is untrusted:
// every value is clamped or defaulted and any failure yields a fixed
// default result instead of an error.
package assessment

import (
	"maps"
	"slices"
	"strings"

	"github.com/excellere/excellere/internal/difficulty"
	"github.com/excellere/excellere/internal/mastery"
)

// Understanding levels reported by the analysis.
const (
	LevelNovice     = "novice"
	LevelDeveloping = "developing"
	LevelProficient = "proficient"
	LevelExpert     = "expert"
)

// DefaultScore is the value given to every missing or unparsable score.
const DefaultScore = 50

// Dimensions are the score dimensions every result carries.
var Dimensions = []string{
	mastery.ScoreConceptAccuracy,
	mastery.ScoreKeyMechanism,
	mastery.ScoreOwnContext,
	mastery.ScoreClarity,
}

// Feedback is the three-part feedback shown to the learner.
type Feedback struct {
	Right    string `json:"right"`
	Gap      string `json:"gap"`
	Tailored string `json:"tailored"`
}

// String joins the non-empty parts.
func (f Feedback) String() string {
	var parts []string
	for _, s := range []string{f.Right, f.Gap, f.Tailored} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "\n")
}

// Gap names the most important misunderstanding.
type Gap struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Result is a validated analysis of one response.
type Result struct {
	UnderstandingLevel string          `json:"understanding_level"`
	Scores             map[string]int  `json:"scores"`
	OverallStrength    int             `json:"overall_strength"`
	Feedback           Feedback        `json:"feedback"`
	PrimaryGap         Gap             `json:"primary_gap"`
	NextDifficulty     difficulty.Tier `json:"next_difficulty,omitempty"`
	GapFlags           []string        `json:"gap_flags"`
	BadgesEarned       []string        `json:"badges_earned"`
	MasteryAchieved    bool            `json:"mastery_achieved"`

	// Degraded marks the substituted default result.
	Degraded bool `json:"degraded"`
}

// DefaultResult is the fixed result substituted when the analysis cannot
// be obtained or parsed.
func DefaultResult() Result {
	scores := make(map[string]int, len(Dimensions))
	for _, d := range Dimensions {
		scores[d] = DefaultScore
	}
	return Result{
		UnderstandingLevel: LevelDeveloping,
		Scores:             scores,
		OverallStrength:    DefaultScore,
		Feedback: Feedback{
			Right:    "Thanks for your explanation.",
			Gap:      "Your analysis is in progress.",
			Tailored: "Please try submitting again in a moment.",
		},
		NextDifficulty: difficulty.Medium,
		GapFlags:       []string{},
		BadgesEarned:   []string{},
		Degraded:       true,
	}
}

// Clone returns a deep copy of r.
func (r Result) Clone() Result {
	r.Scores = maps.Clone(r.Scores)
	r.GapFlags = slices.Clone(r.GapFlags)
	r.BadgesEarned = slices.Clone(r.BadgesEarned)
	return r
}

// Outcome converts r into the node update for a teach-back given at tier.
// The explicit mastery verdict is left out; only deeper responses carry it.
func (r Result) Outcome(tier difficulty.Tier) mastery.Outcome {
	return mastery.Outcome{
		OverallStrength: r.OverallStrength,
		Scores:          r.Scores,
		GapFlags:        r.GapFlags,
		Tier:            tier,
	}
}

// DeeperOutcome is Outcome for a deeper response, including the verdict.
func (r Result) DeeperOutcome(tier difficulty.Tier) mastery.Outcome {
	o := r.Outcome(tier)
	o.MasteryFlag = r.MasteryAchieved
	return o
}

// Signal converts r into the difficulty adapter input.
func (r Result) Signal() difficulty.Signal {
	return difficulty.Signal{OverallStrength: r.OverallStrength, Suggested: r.NextDifficulty}
}
