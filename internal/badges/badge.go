// Package badges derives achievement badges from a learner's history.
// Badges are recomputed on every evaluation and never stored as mutable
// counters.
package badges

import (
	"errors"

	"github.com/excellere/excellere/internal/mastery"
)

// ID identifies a badge.
type ID string

const (
	StrategicReframer ID = "strategic_reframer"
	DoubleLoopThinker ID = "double_loop_thinker"
	ContextApplier    ID = "context_applier"
	GapCloser         ID = "gap_closer"
	PrecisionThinker  ID = "precision_thinker"
	AINativeArchitect ID = "ai_native_architect"
)

// Session is the slice of a session record the predicates look at.
type Session struct {
	ConceptID  string
	Scores     map[string]int
	Feedback   string
	PrimaryGap string
}

// ArtefactStatus is the review state of a submitted artefact.
type ArtefactStatus string

const (
	ArtefactSubmitted ArtefactStatus = "submitted"
	ArtefactValidated ArtefactStatus = "validated"
	ArtefactRejected  ArtefactStatus = "rejected"
)

// Artefact is the learner's end-of-module deliverable.
type Artefact struct {
	BoardReadiness int
	Status         ArtefactStatus
}

// Input is everything the predicates may inspect.
type Input struct {
	History     []Session
	Calibration map[string]string
	Nodes       []mastery.Node
	Artefact    *Artefact
}

// errNoArtefact is returned by predicates that need an artefact.
var errNoArtefact = errors.New("no artefact submitted")

// Badge is a static catalog entry.
type Badge struct {
	ID          ID
	Name        string
	Icon        string
	Description string
	earned      func(Input) (bool, error)
}

var catalog = []Badge{
	{
		ID:          StrategicReframer,
		Name:        "Strategic Reframer",
		Icon:        "🔄",
		Description: "Reframes business problems before reaching for AI.",
		earned:      strategicReframer,
	},
	{
		ID:          DoubleLoopThinker,
		Name:        "Double-Loop Thinker",
		Icon:        "♾️",
		Description: "Questions the frame, not just the answer.",
		earned:      doubleLoopThinker,
	},
	{
		ID:          ContextApplier,
		Name:        "Context Applier",
		Icon:        "🎯",
		Description: "Consistently applies concepts to their own organisation.",
		earned:      contextApplier,
	},
	{
		ID:          GapCloser,
		Name:        "Gap Closer",
		Icon:        "🧩",
		Description: "Turned an identified gap into mastery.",
		earned:      gapCloser,
	},
	{
		ID:          PrecisionThinker,
		Name:        "Precision Thinker",
		Icon:        "🔬",
		Description: "Explains concepts with high accuracy.",
		earned:      precisionThinker,
	},
	{
		ID:          AINativeArchitect,
		Name:        "AI-Native Architect",
		Icon:        "🏛️",
		Description: "Produced a validated, board-ready AI artefact.",
		earned:      aiNativeArchitect,
	},
}

// Catalog returns all badges in display order.
func Catalog() []Badge {
	out := make([]Badge, len(catalog))
	copy(out, catalog)
	return out
}

// Lookup returns the catalog entry for id.
func Lookup(id ID) (Badge, bool) {
	for _, b := range catalog {
		if b.ID == id {
			return b, true
		}
	}
	return Badge{}, false
}
