package teachback

import (
	"context"
	"fmt"
	"time"

	"github.com/excellere/excellere/internal/phase"
	"github.com/excellere/excellere/internal/phasestore"
)

// AdvanceRequest asks to leave the learner's current phase.
type AdvanceRequest struct {
	ConceptID            string `json:"conceptId"`
	CheckedBoxes         int    `json:"checkedBoxes"`
	TimeOnConceptSeconds int    `json:"timeOnConceptSeconds"`
	Choice               string `json:"choice"`
}

// PhaseView is a learner's phase on one concept as shown to the client.
type PhaseView struct {
	ConceptID       string         `json:"conceptId"`
	Phase           phase.Phase    `json:"phase"`
	StartedAt       time.Time      `json:"startedAt"`
	CheckedBoxes    int            `json:"checkedBoxes"`
	OverallStrength int            `json:"overallStrength"`
	Attempts        int            `json:"attempts"`
	Offered         []phase.Choice `json:"offered,omitempty"`
	Unmet           string         `json:"unmet,omitempty"`
}

// PhaseState returns the learner's phase on a concept, starting the
// understand timer on first access.
func (s *Service) PhaseState(ctx context.Context, userID, conceptID string) (*PhaseView, error) {
	c, err := s.concept(conceptID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	st, err := s.phases.Get(ctx, userID, c.ID)
	switch {
	case err == nil:
	case isPhaseNotFound(err):
		st = phasestore.Fresh(userID, c.ID, now)
		if err := s.phases.Put(ctx, st); err != nil {
			return nil, retryable(fmt.Errorf("save phase state: %w", err))
		}
	default:
		return nil, retryable(fmt.Errorf("load phase state: %w", err))
	}
	return s.view(st, now), nil
}

// AdvancePhase applies the guard for the learner's current phase and moves
// them on when it holds. Choosing review restarts the understand timer.
func (s *Service) AdvancePhase(ctx context.Context, userID string, req AdvanceRequest) (*PhaseView, error) {
	c, err := s.concept(req.ConceptID)
	if err != nil {
		return nil, err
	}
	if req.CheckedBoxes < 0 {
		return nil, invalid("checkedBoxes", "must not be negative")
	}
	if req.TimeOnConceptSeconds < 0 {
		return nil, invalid("timeOnConceptSeconds", "must not be negative")
	}
	choice := phase.Choice(req.Choice)
	switch choice {
	case phase.ChoiceNone, phase.ChoiceDeeper, phase.ChoiceReview:
	default:
		return nil, invalid("choice", fmt.Sprintf("unknown choice %q", req.Choice))
	}

	now := s.now()
	st, err := phasestore.Load(ctx, s.phases, userID, c.ID, now)
	if err != nil {
		return nil, retryable(fmt.Errorf("load phase state: %w", err))
	}
	if req.CheckedBoxes > st.CheckedBoxes {
		st.CheckedBoxes = req.CheckedBoxes
	}

	data := phase.SessionData{
		TimeOnConcept:   timeOnConcept(st, req.TimeOnConceptSeconds, now),
		CheckedBoxes:    st.CheckedBoxes,
		AnalysisOK:      st.AnalysisOK,
		OverallStrength: st.OverallStrength,
		Choice:          choice,
	}
	next, err := phase.Advance(st.Phase, data)
	if err != nil {
		s.savePhase(ctx, st, now)
		return nil, guardFailed(err)
	}

	s.log.Debug("phase advanced", "user_id", userID, "concept_id", c.ID, "from", st.Phase, "to", next)
	if st.Phase == phase.Feedback && next == phase.Understand {
		st.StartedAt = now
		st.CheckedBoxes = 0
		st.AnalysisOK = false
	}
	st.Phase = next
	st.UpdatedAt = now
	if err := s.phases.Put(ctx, st); err != nil {
		return nil, retryable(fmt.Errorf("save phase state: %w", err))
	}
	return s.view(st, now), nil
}

// timeOnConcept is the server-measured time since the understand phase
// started, lowered to the client's figure when that is smaller.
func timeOnConcept(st phasestore.State, clientSeconds int, now time.Time) time.Duration {
	elapsed := now.Sub(st.StartedAt)
	if clientSeconds > 0 {
		if client := time.Duration(clientSeconds) * time.Second; client < elapsed {
			elapsed = client
		}
	}
	return elapsed
}

func (s *Service) view(st phasestore.State, now time.Time) *PhaseView {
	v := &PhaseView{
		ConceptID:       st.ConceptID,
		Phase:           st.Phase,
		StartedAt:       st.StartedAt,
		CheckedBoxes:    st.CheckedBoxes,
		OverallStrength: st.OverallStrength,
		Attempts:        st.Attempts,
	}
	switch st.Phase {
	case phase.Understand:
		v.Unmet = phase.Unmet(phase.Understand, phase.SessionData{
			TimeOnConcept: now.Sub(st.StartedAt),
			CheckedBoxes:  st.CheckedBoxes,
		})
	case phase.Analyse:
		v.Unmet = phase.Unmet(phase.Analyse, phase.SessionData{AnalysisOK: st.AnalysisOK})
	case phase.Feedback:
		v.Offered = phase.Offered(st.OverallStrength)
	}
	return v
}
