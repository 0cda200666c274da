// Package phase implements the per-concept learning cycle:
// understand, teach, analyse, feedback, deeper, complete.
package phase

import (
	"fmt"
	"strings"
	"time"
)

// Phase is a learner's position in the cycle for one concept.
type Phase string

const (
	Understand Phase = "understand"
	Teach      Phase = "teach"
	Analyse    Phase = "analyse"
	Feedback   Phase = "feedback"
	Deeper     Phase = "deeper"
	Complete   Phase = "complete"
)

var order = []Phase{Understand, Teach, Analyse, Feedback, Deeper, Complete}

// Guard thresholds.
const (
	MinTimeOnConcept = 45 * time.Second
	MinCheckedBoxes  = 2
	MinTeachWords    = 40
	MinDeeperWords   = 30

	// DeeperThreshold is the overall strength at which the deeper
	// question is offered instead of the review path.
	DeeperThreshold = 85
)

// Parse returns the phase named by s.
func Parse(s string) (Phase, bool) {
	p := Phase(strings.ToLower(strings.TrimSpace(s)))
	for _, o := range order {
		if o == p {
			return p, true
		}
	}
	return "", false
}

// Index is the position of p in the cycle, or -1.
func (p Phase) Index() int {
	for i, o := range order {
		if o == p {
			return i
		}
	}
	return -1
}

// Terminal reports whether p is the final phase.
func (p Phase) Terminal() bool { return p == Complete }

func (p Phase) String() string { return string(p) }

// NextPhase returns the fixed linear successor of p. Complete is its own
// successor. Branching transitions are decided by AfterFeedback and
// AfterDeeper, not here.
func NextPhase(p Phase) Phase {
	i := p.Index()
	if i < 0 {
		return Understand
	}
	if i == len(order)-1 {
		return p
	}
	return order[i+1]
}

// Choice is a learner's selection on the feedback screen.
type Choice string

const (
	ChoiceNone   Choice = ""
	ChoiceDeeper Choice = "deeper"
	ChoiceReview Choice = "review"
)

// SessionData is the input collected so far for one concept.
type SessionData struct {
	TimeOnConcept  time.Duration
	CheckedBoxes   int
	TeachResponse  string
	DeeperResponse string

	// AnalysisOK is true once an analysis came back from the external
	// service. A substituted default result leaves it false.
	AnalysisOK      bool
	OverallStrength int
	Choice          Choice

	// Mastered is the mastery verdict on the deeper response.
	Mastered bool
}

// WordCount counts whitespace-separated words after trimming.
func WordCount(s string) int {
	return len(strings.Fields(strings.TrimSpace(s)))
}

// Offered returns the choices shown on the feedback screen for a given
// overall strength.
func Offered(strength int) []Choice {
	if strength >= DeeperThreshold {
		return []Choice{ChoiceDeeper}
	}
	return []Choice{ChoiceReview}
}

// CanAdvance reports whether the guard for leaving p holds for d.
// It never mutates d.
func CanAdvance(p Phase, d SessionData) bool {
	return Unmet(p, d) == ""
}

// Unmet describes the condition blocking advancement from p, or "" when
// the guard holds.
func Unmet(p Phase, d SessionData) string {
	switch p {
	case Understand:
		var missing []string
		if d.TimeOnConcept < MinTimeOnConcept {
			missing = append(missing, fmt.Sprintf("spend at least %d seconds on the concept", int(MinTimeOnConcept.Seconds())))
		}
		if d.CheckedBoxes < MinCheckedBoxes {
			missing = append(missing, fmt.Sprintf("confirm at least %d understanding checks", MinCheckedBoxes))
		}
		return strings.Join(missing, " and ")
	case Teach:
		if n := WordCount(d.TeachResponse); n < MinTeachWords {
			return fmt.Sprintf("explanation needs at least %d words (has %d)", MinTeachWords, n)
		}
	case Analyse:
		if !d.AnalysisOK {
			return "analysis is in progress"
		}
	case Feedback:
		if d.Choice == ChoiceNone {
			return "choose the next step"
		}
		if !offered(d.OverallStrength, d.Choice) {
			return fmt.Sprintf("%q is not available at strength %d", d.Choice, d.OverallStrength)
		}
	case Deeper:
		if n := WordCount(d.DeeperResponse); n < MinDeeperWords {
			return fmt.Sprintf("deeper response needs at least %d words (has %d)", MinDeeperWords, n)
		}
	case Complete:
		return "concept is already complete"
	default:
		return fmt.Sprintf("unknown phase %q", p)
	}
	return ""
}

func offered(strength int, c Choice) bool {
	for _, o := range Offered(strength) {
		if o == c {
			return true
		}
	}
	return false
}

// AfterFeedback resolves the learner's choice on the feedback screen.
func AfterFeedback(strength int, c Choice) (Phase, error) {
	d := SessionData{OverallStrength: strength, Choice: c}
	if reason := Unmet(Feedback, d); reason != "" {
		return Feedback, &GuardError{Phase: Feedback, Reason: reason}
	}
	if c == ChoiceDeeper {
		return Deeper, nil
	}
	return Understand, nil
}

// AfterDeeper resolves a deeper response that passed the word-count guard.
// Without mastery the learner loops back to feedback.
func AfterDeeper(mastered bool) Phase {
	if mastered {
		return Complete
	}
	return Feedback
}

// Advance returns the phase after p given d, or a *GuardError.
func Advance(p Phase, d SessionData) (Phase, error) {
	if reason := Unmet(p, d); reason != "" {
		return p, &GuardError{Phase: p, Reason: reason}
	}
	switch p {
	case Feedback:
		return AfterFeedback(d.OverallStrength, d.Choice)
	case Deeper:
		return AfterDeeper(d.Mastered), nil
	default:
		return NextPhase(p), nil
	}
}

// GuardError reports a refused transition.
type GuardError struct {
	Phase  Phase
	Reason string
}

func (e *GuardError) Error() string {
	return fmt.Sprintf("cannot leave %s: %s", e.Phase, e.Reason)
}
