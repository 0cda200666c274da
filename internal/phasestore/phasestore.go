// Package phasestore keeps each learner's transient phase state per
// concept. Redis backs it in production; Memory serves tests and
// single-process development.
package phasestore

import (
	"context"
	"errors"
	"time"

	"github.com/excellere/excellere/internal/phase"
)

// ErrNotFound is returned when no state exists for a learner and concept.
var ErrNotFound = errors.New("phase state not found")

// State is where a learner stands on one concept.
type State struct {
	UserID          string      `json:"user_id"`
	ConceptID       string      `json:"concept_id"`
	Phase           phase.Phase `json:"phase"`
	StartedAt       time.Time   `json:"started_at"`
	CheckedBoxes    int         `json:"checked_boxes"`
	OverallStrength int         `json:"overall_strength"`
	AnalysisOK      bool        `json:"analysis_ok"`
	Attempts        int         `json:"attempts"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// Fresh returns the initial state for a concept.
func Fresh(userID, conceptID string, now time.Time) State {
	return State{
		UserID:    userID,
		ConceptID: conceptID,
		Phase:     phase.Understand,
		StartedAt: now,
		UpdatedAt: now,
	}
}

// Store persists phase state.
type Store interface {
	Get(ctx context.Context, userID, conceptID string) (State, error)
	Put(ctx context.Context, s State) error
	Delete(ctx context.Context, userID, conceptID string) error
}

// Load returns the stored state or a fresh one when none exists.
func Load(ctx context.Context, st Store, userID, conceptID string, now time.Time) (State, error) {
	s, err := st.Get(ctx, userID, conceptID)
	if errors.Is(err, ErrNotFound) {
		return Fresh(userID, conceptID, now), nil
	}
	return s, err
}

func key(userID, conceptID string) string {
	return "phase:" + userID + ":" + conceptID
}
