package mastery

import (
	"math"
	"slices"
	"strings"
	"time"

	"github.com/excellere/excellere/internal/difficulty"
)

// Score dimensions reported by the analysis.
const (
	ScoreConceptAccuracy = "concept_accuracy"
	ScoreKeyMechanism    = "explained_key_mechanism"
	ScoreOwnContext      = "applied_to_own_context"
	ScoreClarity         = "clarity"
)

// Thresholds for mastery and node bookkeeping.
const (
	AccuracyThreshold  = 80
	MechanismThreshold = 75
	// CorrectThreshold is the strength at which a result counts toward
	// ConsecutiveCorrect.
	CorrectThreshold = 85
	// RegressionBelow demotes a mastered node back to a gap.
	RegressionBelow = 50
)

// MeetsScores reports whether scores answered at tier satisfy the mastery
// predicate. Mastery can only be claimed at hard or very_hard.
func MeetsScores(scores map[string]int, tier difficulty.Tier) bool {
	return scores[ScoreConceptAccuracy] >= AccuracyThreshold &&
		scores[ScoreKeyMechanism] >= MechanismThreshold &&
		tier.Advanced()
}

// Achieved combines the analysis' own mastery verdict with the local score
// predicate. Neither counts below hard: acing an easy question is never
// mastery.
func Achieved(flag bool, scores map[string]int, tier difficulty.Tier) bool {
	return tier.Advanced() && (flag || MeetsScores(scores, tier))
}

// Outcome is what the node learns from one analysed submission.
type Outcome struct {
	OverallStrength int
	Scores          map[string]int
	GapFlags        []string

	// MasteryFlag is the analysis' explicit verdict. Callers only set it
	// for deeper responses.
	MasteryFlag bool

	// Tier is the difficulty the response was given at.
	Tier difficulty.Tier
}

// Apply folds an analysed submission into the node. ConsecutiveCorrect is
// updated before any difficulty adaptation so the adapter sees the current
// result. Returns a StateTransition when the status changed, nil otherwise.
func (n *Node) Apply(o Outcome, now time.Time) *StateTransition {
	from := n.Status

	n.Strength = clamp(o.OverallStrength)
	n.GapFlags = unionFlags(n.GapFlags, o.GapFlags)
	if n.Strength >= CorrectThreshold {
		n.ConsecutiveCorrect++
	} else {
		n.ConsecutiveCorrect = 0
	}

	var trigger string
	switch {
	case Achieved(o.MasteryFlag, o.Scores, o.Tier):
		n.Status = StatusMastered
		trigger = "mastery"
	case n.Status == StatusMastered && n.Strength < RegressionBelow:
		n.Status = StatusGap
		trigger = "regression"
	case n.Status == StatusMastered:
		// Still mastered; a middling result does not undo it.
	case len(o.GapFlags) > 0:
		n.Status = StatusGap
		trigger = "gap-detected"
	default:
		if from == StatusGap {
			trigger = "gap-cleared"
		} else {
			trigger = "first-analysis"
		}
		n.Status = StatusTaught
	}

	n.syncMasteredAt(now)
	n.LastTestedAt = now
	n.UpdatedAt = now

	if n.Status == from {
		return nil
	}
	return &StateTransition{ConceptID: n.ConceptID, From: from, To: n.Status, Trigger: trigger}
}

// SetStatus overwrites the status directly, keeping MasteredAt consistent.
func (n *Node) SetStatus(s Status, now time.Time) *StateTransition {
	from := n.Status
	n.Status = s
	n.syncMasteredAt(now)
	n.UpdatedAt = now
	if s == from {
		return nil
	}
	return &StateTransition{ConceptID: n.ConceptID, From: from, To: s, Trigger: "manual"}
}

func (n *Node) syncMasteredAt(now time.Time) {
	switch {
	case n.Status == StatusMastered && n.MasteredAt == nil:
		t := now
		n.MasteredAt = &t
	case n.Status != StatusMastered:
		n.MasteredAt = nil
	}
}

// Percentage is round(mastered / total * 100), or 0 for no nodes.
func Percentage(nodes []Node) int {
	if len(nodes) == 0 {
		return 0
	}
	mastered := 0
	for _, n := range nodes {
		if n.Status == StatusMastered {
			mastered++
		}
	}
	return int(math.Round(float64(mastered) / float64(len(nodes)) * 100))
}

// NormalizeFlags trims, lowercases and de-duplicates gap flags, keeping
// first-seen order.
func NormalizeFlags(flags []string) []string {
	return unionFlags(nil, flags)
}

func unionFlags(have, add []string) []string {
	out := make([]string, 0, len(have)+len(add))
	for _, f := range slices.Concat(have, add) {
		f = strings.ToLower(strings.TrimSpace(f))
		if f == "" || slices.Contains(out, f) {
			continue
		}
		out = append(out, f)
	}
	return out
}

func clamp(v int) int {
	return max(0, min(v, 100))
}
