package badges

import (
	"strings"

	"github.com/excellere/excellere/internal/mastery"
)

const (
	reframeMinSessions    = 2
	doubleLoopMinSessions = 2
	doubleLoopMinAccuracy = 70
	contextMinSessions    = 3
	contextMinScore       = 75
	precisionMinSessions  = 2
	precisionMinAccuracy  = 85
	architectMinReadiness = 80
)

var doubleLoopMarkers = []string{
	"second-order",
	"second order",
	"double-loop",
	"double loop",
	"question the frame",
	"questioning the frame",
	"questions the frame",
	"frame-questioning",
	"underlying assumption",
}

func strategicReframer(in Input) (bool, error) {
	for _, answer := range in.Calibration {
		if containsFold(answer, "reframe") {
			return true, nil
		}
	}
	n := countSessions(in.History, func(s Session) bool {
		return containsFold(s.PrimaryGap, "refram")
	})
	return n >= reframeMinSessions, nil
}

func doubleLoopThinker(in Input) (bool, error) {
	n := countSessions(in.History, func(s Session) bool {
		if s.Scores[mastery.ScoreConceptAccuracy] < doubleLoopMinAccuracy {
			return false
		}
		for _, m := range doubleLoopMarkers {
			if containsFold(s.Feedback, m) {
				return true
			}
		}
		return false
	})
	return n >= doubleLoopMinSessions, nil
}

func contextApplier(in Input) (bool, error) {
	n := countSessions(in.History, func(s Session) bool {
		return s.Scores[mastery.ScoreOwnContext] >= contextMinScore
	})
	return n >= contextMinSessions, nil
}

func gapCloser(in Input) (bool, error) {
	for _, n := range in.Nodes {
		if n.Status == mastery.StatusMastered && len(n.GapFlags) > 0 && n.MasteredAt != nil {
			return true, nil
		}
	}
	return false, nil
}

func precisionThinker(in Input) (bool, error) {
	n := countSessions(in.History, func(s Session) bool {
		return s.Scores[mastery.ScoreConceptAccuracy] >= precisionMinAccuracy
	})
	return n >= precisionMinSessions, nil
}

func aiNativeArchitect(in Input) (bool, error) {
	if in.Artefact == nil {
		return false, errNoArtefact
	}
	return in.Artefact.BoardReadiness >= architectMinReadiness && in.Artefact.Status == ArtefactValidated, nil
}

func countSessions(history []Session, pred func(Session) bool) int {
	n := 0
	for _, s := range history {
		if pred(s) {
			n++
		}
	}
	return n
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), substr)
}
