// Package difficulty orders question difficulty tiers and picks the tier
// for the next question from the latest assessment.
package difficulty

import "strings"

// Tier is a question difficulty. Tiers are totally ordered:
// easy < medium < hard < very_hard.
type Tier string

const (
	Easy     Tier = "easy"
	Medium   Tier = "medium"
	Hard     Tier = "hard"
	VeryHard Tier = "very_hard"
)

var ordered = []Tier{Easy, Medium, Hard, VeryHard}

// All returns every tier from easiest to hardest.
func All() []Tier {
	out := make([]Tier, len(ordered))
	copy(out, ordered)
	return out
}

// Parse normalizes loosely formatted tier names ("Very Hard", "very-hard")
// and reports whether the result is a known tier.
func Parse(s string) (Tier, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer(" ", "_", "-", "_").Replace(s)
	t := Tier(s)
	return t, t.Valid()
}

// Valid reports whether t is one of the four tiers.
func (t Tier) Valid() bool {
	return t.Rank() >= 0
}

// Rank is the position of t in the ordering, or -1 for unknown tiers.
func (t Tier) Rank() int {
	for i, o := range ordered {
		if o == t {
			return i
		}
	}
	return -1
}

// Up returns the next harder tier, clamped at VeryHard.
func (t Tier) Up() Tier {
	return shift(t, 1)
}

// Down returns the next easier tier, clamped at Easy.
func (t Tier) Down() Tier {
	return shift(t, -1)
}

// Advanced reports whether mastery may be claimed at this tier.
func (t Tier) Advanced() bool {
	return t == Hard || t == VeryHard
}

// OrDefault returns t when valid, Medium otherwise.
func (t Tier) OrDefault() Tier {
	if t.Valid() {
		return t
	}
	return Medium
}

func (t Tier) String() string { return string(t) }

func shift(t Tier, by int) Tier {
	r := t.OrDefault().Rank() + by
	r = max(0, min(r, len(ordered)-1))
	return ordered[r]
}
