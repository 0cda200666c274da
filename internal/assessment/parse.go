package assessment

import (
	"encoding/json"
	"math"
	"slices"
	"strings"

	"github.com/excellere/excellere/internal/difficulty"
	"github.com/excellere/excellere/internal/mastery"
)

// rawResult mirrors the model output loosely so that wrong-typed numbers
// and missing fields can be repaired instead of rejected.
type rawResult struct {
	UnderstandingLevel string             `json:"understanding_level"`
	Scores             map[string]float64 `json:"scores"`
	OverallStrength    *float64           `json:"overall_strength"`
	Feedback           Feedback           `json:"feedback"`
	PrimaryGap         Gap                `json:"primary_gap"`
	NextDifficulty     string             `json:"next_difficulty"`
	GapFlags           []string           `json:"gap_flags"`
	BadgesEarned       []string           `json:"badges_earned"`
	MasteryAchieved    bool               `json:"mastery_achieved"`
}

// ParseAnalysis parses raw model text into a Result. It strips code
// fences and surrounding prose, clamps scores into [0,100], fills missing
// dimensions with DefaultScore and turns null arrays into empty ones.
// When the text is not a usable analysis it returns DefaultResult and
// false. It never returns an error.
func ParseAnalysis(raw string) (Result, bool) {
	body := extractJSON(raw)
	if body == "" {
		return DefaultResult(), false
	}

	var in rawResult
	if err := json.Unmarshal([]byte(body), &in); err != nil {
		return DefaultResult(), false
	}
	if len(in.Scores) == 0 {
		return DefaultResult(), false
	}

	out := Result{
		UnderstandingLevel: normalizeLevel(in.UnderstandingLevel),
		Scores:             make(map[string]int, len(in.Scores)),
		Feedback:           in.Feedback,
		PrimaryGap:         in.PrimaryGap,
		GapFlags:           mastery.NormalizeFlags(in.GapFlags),
		BadgesEarned:       nonNil(in.BadgesEarned),
		MasteryAchieved:    in.MasteryAchieved,
	}
	for k, v := range in.Scores {
		out.Scores[strings.ToLower(strings.TrimSpace(k))] = clampScore(v)
	}
	for _, d := range Dimensions {
		if _, ok := out.Scores[d]; !ok {
			out.Scores[d] = DefaultScore
		}
	}

	if in.OverallStrength != nil {
		out.OverallStrength = clampScore(*in.OverallStrength)
	} else {
		out.OverallStrength = meanScore(out.Scores)
	}

	if t, ok := difficulty.Parse(in.NextDifficulty); ok {
		out.NextDifficulty = t
	}
	return out, true
}

// extractJSON strips markdown fences and returns the outermost JSON object
// in s, or "".
func extractJSON(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		if nl := strings.IndexByte(s, '\n'); nl >= 0 {
			s = s[nl+1:]
		} else {
			s = strings.TrimPrefix(s, "json")
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end <= start {
		return ""
	}
	return s[start : end+1]
}

func clampScore(v float64) int {
	if math.IsNaN(v) {
		return DefaultScore
	}
	return int(math.Round(max(0, min(v, 100))))
}

func meanScore(scores map[string]int) int {
	if len(scores) == 0 {
		return DefaultScore
	}
	sum := 0
	for _, v := range scores {
		sum += v
	}
	return int(math.Round(float64(sum) / float64(len(scores))))
}

func normalizeLevel(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if slices.Contains([]string{LevelNovice, LevelDeveloping, LevelProficient, LevelExpert}, s) {
		return s
	}
	return LevelDeveloping
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
