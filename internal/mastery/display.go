package mastery

// Label returns a human-readable label for the status.
func (s Status) Label() string {
	switch s {
	case StatusIntroduced:
		return "Introduced"
	case StatusTaught:
		return "Taught"
	case StatusGap:
		return "Gap"
	case StatusMastered:
		return "Mastered"
	default:
		return string(s)
	}
}

// Icon returns the display icon for the status.
func (s Status) Icon() string {
	switch s {
	case StatusIntroduced:
		return "○"
	case StatusTaught:
		return "◐"
	case StatusGap:
		return "△"
	case StatusMastered:
		return "●"
	default:
		return "?"
	}
}

// Summary counts nodes per status.
type Summary struct {
	Total      int
	ByStatus   map[Status]int
	Percentage int
}

// Summarize builds a Summary for display.
func Summarize(nodes []Node) Summary {
	s := Summary{Total: len(nodes), ByStatus: make(map[Status]int), Percentage: Percentage(nodes)}
	for _, n := range nodes {
		s.ByStatus[n.Status]++
	}
	return s
}
