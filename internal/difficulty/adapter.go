package difficulty

// Thresholds for the local heuristic.
const (
	EscalateStrength   = 85
	EscalateStreak     = 2
	DeescalateStrength = 50
)

// State is the prior difficulty state of a learner on a concept.
// ConsecutiveCorrect must already include the result being adapted to.
type State struct {
	Tier               Tier
	ConsecutiveCorrect int
}

// Signal is the part of an assessment the adapter consumes.
type Signal struct {
	OverallStrength int
	// Suggested is the analysis engine's next_difficulty, empty if absent.
	Suggested Tier
}

// Reason records which rule produced a Decision.
type Reason string

const (
	ReasonExternal       Reason = "external"
	ReasonExternalCapped Reason = "external-capped"
	ReasonEscalate       Reason = "escalate"
	ReasonDeescalate     Reason = "deescalate"
	ReasonHold           Reason = "hold"
)

// Decision is the outcome of one adaptation.
type Decision struct {
	Tier   Tier
	Reason Reason
}

// Policy configures the adapter.
type Policy struct {
	// MaxExternalStepUp caps how far a suggested tier may raise the
	// current one. Zero leaves suggestions uncapped. Downward suggestions
	// are never capped.
	MaxExternalStepUp int
}

// Next picks the tier for the next question. prev is nil on first
// exposure. Rules are evaluated in order and the first match wins:
// a valid suggestion from the analysis, sustained strong performance
// (one tier up), a weak result (one tier down), otherwise hold.
func (p Policy) Next(prev *State, sig Signal) Decision {
	current := Medium
	streak := 0
	if prev != nil {
		current = prev.Tier.OrDefault()
		streak = prev.ConsecutiveCorrect
	}

	if sig.Suggested.Valid() {
		step := sig.Suggested.Rank() - current.Rank()
		if p.MaxExternalStepUp > 0 && step > p.MaxExternalStepUp {
			return Decision{Tier: shift(current, p.MaxExternalStepUp), Reason: ReasonExternalCapped}
		}
		return Decision{Tier: sig.Suggested, Reason: ReasonExternal}
	}

	switch {
	case sig.OverallStrength >= EscalateStrength && streak >= EscalateStreak:
		return Decision{Tier: current.Up(), Reason: ReasonEscalate}
	case sig.OverallStrength < DeescalateStrength:
		return Decision{Tier: current.Down(), Reason: ReasonDeescalate}
	default:
		return Decision{Tier: current, Reason: ReasonHold}
	}
}

// Next applies the uncapped policy.
func Next(prev *State, sig Signal) Tier {
	return Policy{}.Next(prev, sig).Tier
}
