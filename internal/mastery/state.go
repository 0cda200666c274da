// Package mastery tracks a learner's per-concept knowledge node and decides
// when a concept counts as mastered.
package mastery

import (
	"errors"
	"time"

	"github.com/excellere/excellere/internal/difficulty"
)

// Status is a knowledge node's position in the mastery lifecycle.
type Status string

const (
	StatusIntroduced Status = "introduced"
	StatusTaught     Status = "taught"
	StatusGap        Status = "gap"
	StatusMastered   Status = "mastered"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusIntroduced, StatusTaught, StatusGap, StatusMastered:
		return true
	}
	return false
}

// StateTransition records a status change for logging.
type StateTransition struct {
	ConceptID string
	From      Status
	To        Status
	Trigger   string // "first-analysis", "gap-detected", "gap-cleared", "mastery", "regression", "manual"
}

// Node is the persistent mastery record for one learner on one concept.
type Node struct {
	UserID             string          `json:"userId"`
	ModuleID           string          `json:"moduleId"`
	ConceptID          string          `json:"conceptId"`
	Status             Status          `json:"status"`
	Strength           int             `json:"strength"`
	GapFlags           []string        `json:"gapFlags"`
	Difficulty         difficulty.Tier `json:"difficulty"`
	ConsecutiveCorrect int             `json:"consecutiveCorrect"`
	FirstSeenAt        time.Time       `json:"firstSeenAt"`
	LastTestedAt       time.Time       `json:"lastTestedAt"`
	MasteredAt         *time.Time      `json:"masteredAt,omitempty"`
	UpdatedAt          time.Time       `json:"updatedAt"`
}

// ErrMasteredAtMismatch reports a node whose MasteredAt disagrees with its
// status.
var ErrMasteredAtMismatch = errors.New("mastered_at must be set exactly when status is mastered")

// NewNode creates the node for a concept on first exposure.
func NewNode(userID, moduleID, conceptID string, now time.Time) *Node {
	return &Node{
		UserID:       userID,
		ModuleID:     moduleID,
		ConceptID:    conceptID,
		Status:       StatusIntroduced,
		GapFlags:     []string{},
		Difficulty:   difficulty.Medium,
		FirstSeenAt:  now,
		LastTestedAt: now,
		UpdatedAt:    now,
	}
}

// Check verifies the node's invariants.
func (n *Node) Check() error {
	if (n.Status == StatusMastered) != (n.MasteredAt != nil) {
		return ErrMasteredAtMismatch
	}
	if n.Strength < 0 || n.Strength > 100 {
		return errors.New("strength out of range")
	}
	if !n.Difficulty.Valid() {
		return errors.New("invalid difficulty")
	}
	return nil
}

// IsMastered reports whether the node currently counts as mastered.
func (n *Node) IsMastered() bool {
	return n.Status == StatusMastered
}
