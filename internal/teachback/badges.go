package teachback

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/excellere/excellere/internal/assessment"
	"github.com/excellere/excellere/internal/badges"
	"github.com/excellere/excellere/internal/store"
)

// BadgeView is an earned badge as shown to the learner.
type BadgeView struct {
	ID          badges.ID `json:"id"`
	Name        string    `json:"name"`
	Icon        string    `json:"icon"`
	Description string    `json:"description"`
}

// Badges recomputes the learner's badges from their full history.
func (s *Service) Badges(ctx context.Context, userID string) ([]BadgeView, error) {
	set, err := s.EarnedBadges(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]BadgeView, 0, len(set))
	for _, id := range set {
		b, ok := badges.Lookup(id)
		if !ok {
			continue
		}
		out = append(out, BadgeView{ID: b.ID, Name: b.Name, Icon: b.Icon, Description: b.Description})
	}
	return out, nil
}

// EarnedBadges evaluates the badge catalog for a learner.
func (s *Service) EarnedBadges(ctx context.Context, userID string) (badges.Set, error) {
	in, err := s.badgeInput(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.badges.Evaluate(in), nil
}

func (s *Service) badgeInput(ctx context.Context, userID string) (badges.Input, error) {
	sessions, err := s.repo.ListSessions(ctx, userID, "")
	if err != nil {
		return badges.Input{}, retryable(fmt.Errorf("list sessions: %w", err))
	}
	nodes, err := s.repo.ListNodes(ctx, userID, "")
	if err != nil {
		return badges.Input{}, retryable(fmt.Errorf("list knowledge nodes: %w", err))
	}
	reports, err := s.repo.ListReports(ctx, userID)
	if err != nil {
		return badges.Input{}, retryable(fmt.Errorf("list reports: %w", err))
	}
	_, calibration := s.profile(ctx, userID, nil)

	return badges.Input{
		History:     s.history(sessions),
		Calibration: calibration,
		Nodes:       nodes,
		Artefact:    latestArtefact(reports),
	}, nil
}

type analysedSession struct {
	session store.Session
	result  assessment.Result
}

// analysed decodes the stored analysis of every non-degraded session.
// Sessions whose analysis cannot be decoded are skipped.
func (s *Service) analysed(sessions []store.Session) []analysedSession {
	out := make([]analysedSession, 0, len(sessions))
	for _, sess := range sessions {
		if sess.Degraded || len(sess.Analysis) == 0 {
			continue
		}
		var res assessment.Result
		if err := json.Unmarshal(sess.Analysis, &res); err != nil {
			s.log.Debug("skip undecodable session analysis", "session_id", sess.ID, "error", err)
			continue
		}
		out = append(out, analysedSession{session: sess, result: res})
	}
	return out
}

// history converts sessions into badge history.
func (s *Service) history(sessions []store.Session) []badges.Session {
	var out []badges.Session
	for _, a := range s.analysed(sessions) {
		out = append(out, badges.Session{
			ConceptID:  a.session.ConceptID,
			Scores:     a.result.Scores,
			Feedback:   a.result.Feedback.String(),
			PrimaryGap: a.result.PrimaryGap.Name,
		})
	}
	return out
}

// latestArtefact prefers the newest validated artefact, then the newest
// submitted one. reports are newest first.
func latestArtefact(reports []store.InsightReport) *badges.Artefact {
	var fallback *badges.Artefact
	for _, r := range reports {
		if r.ArtefactTitle == "" && r.ArtefactContent == "" {
			continue
		}
		a := &badges.Artefact{BoardReadiness: r.BoardReadiness, Status: artefactStatus(r.ArtefactStatus)}
		if a.Status == badges.ArtefactValidated {
			return a
		}
		if fallback == nil {
			fallback = a
		}
	}
	return fallback
}

func artefactStatus(s string) badges.ArtefactStatus {
	switch s {
	case store.ReportValidated:
		return badges.ArtefactValidated
	case store.ReportRejected:
		return badges.ArtefactRejected
	default:
		return badges.ArtefactSubmitted
	}
}
