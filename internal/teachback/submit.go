package teachback

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/excellere/excellere/internal/assessment"
	"github.com/excellere/excellere/internal/curriculum"
	"github.com/excellere/excellere/internal/difficulty"
	"github.com/excellere/excellere/internal/mastery"
	"github.com/excellere/excellere/internal/phase"
	"github.com/excellere/excellere/internal/phasestore"
	"github.com/excellere/excellere/internal/store"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/excellere/excellere/internal/teachback")

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// SubmitRequest is a teach-back submission.
type SubmitRequest struct {
	ConceptID     string        `json:"conceptId"`
	TeachResponse string        `json:"teachResponse"`
	UserProfile   *ProfileInput `json:"userProfile"`
	Difficulty    string        `json:"difficulty"`
}

// Next tells the client where the learner goes after a submission.
type Next struct {
	Phase          phase.Phase     `json:"phase"`
	Question       string          `json:"question"`
	Recommendation string          `json:"recommendation"`
	Difficulty     difficulty.Tier `json:"difficulty"`
	Offered        []phase.Choice  `json:"offered,omitempty"`
}

// SubmitResult is the outcome of a submission.
type SubmitResult struct {
	Success       bool              `json:"success"`
	Analysis      assessment.Result `json:"analysis"`
	Next          Next              `json:"next"`
	Node          *mastery.Node     `json:"node,omitempty"`
	SessionNumber int               `json:"sessionNumber"`
}

// Submit analyses a teach-back response. It is accepted in the teach and
// analyse phases only. A degraded analysis keeps the learner in analyse
// and leaves an existing knowledge node untouched.
func (s *Service) Submit(ctx context.Context, userID string, req SubmitRequest) (_ *SubmitResult, err error) {
	ctx, span := tracer.Start(ctx, "teachback.Submit", trace.WithAttributes(attribute.String("concept_id", req.ConceptID)))
	defer func() { endSpan(span, err) }()

	c, err := s.concept(req.ConceptID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.TeachResponse) == "" {
		return nil, invalid("teachResponse", "is required")
	}
	if reason := phase.Unmet(phase.Teach, phase.SessionData{TeachResponse: req.TeachResponse}); reason != "" {
		return nil, guardFailed(&phase.GuardError{Phase: phase.Teach, Reason: reason})
	}
	var requested difficulty.Tier
	if req.Difficulty != "" {
		t, ok := difficulty.Parse(req.Difficulty)
		if !ok {
			return nil, invalid("difficulty", fmt.Sprintf("unknown difficulty %q", req.Difficulty))
		}
		requested = t
	}

	now := s.now()
	st, err := phasestore.Load(ctx, s.phases, userID, c.ID, now)
	if err != nil {
		return nil, retryable(fmt.Errorf("load phase state: %w", err))
	}
	if err := teachGuard(st, now); err != nil {
		return nil, guardFailed(err)
	}

	node, firstExposure, err := s.loadNode(ctx, userID, c, now)
	if err != nil {
		return nil, err
	}
	tier := node.Difficulty
	if requested != "" {
		tier = requested
	}

	profile, _ := s.profile(ctx, userID, req.UserProfile)
	res := s.requestor.RequestAnalysis(ctx, assessmentConcept(c, tier), req.TeachResponse, profile, tier)
	span.SetAttributes(attribute.Bool("degraded", res.Degraded), attribute.Int("overall_strength", res.OverallStrength))

	// teach -> analyse is already guaranteed by the word-count check.
	current := phase.Analyse
	data := phase.SessionData{TeachResponse: req.TeachResponse, AnalysisOK: !res.Degraded, OverallStrength: res.OverallStrength}
	if phase.CanAdvance(current, data) {
		current = phase.NextPhase(current)
	}

	out := &SubmitResult{Success: true, Analysis: res}
	nextTier := tier
	if !res.Degraded {
		// An introduced node has never been analysed, so it carries no tier history.
		hasPrior := (!firstExposure && node.Status != mastery.StatusIntroduced) || requested != ""
		node.Difficulty = tier
		s.logTransition(userID, node.Apply(res.Outcome(tier), now))
		nextTier = s.adapt(node, hasPrior, res)
	}
	// A degraded first exposure still records the concept as introduced.
	if !res.Degraded || firstExposure {
		if err := s.repo.SaveNode(ctx, node); err != nil {
			s.log.Error("save knowledge node failed", "user_id", userID, "concept_id", c.ID, "error", err)
			return nil, retryable(fmt.Errorf("save knowledge node: %w", err))
		}
		out.Node = node
	}

	sess := &store.Session{
		UserID:       userID,
		ModuleID:     c.ModuleID,
		ConceptID:    c.ID,
		Kind:         store.SessionTeach,
		Response:     req.TeachResponse,
		Difficulty:   string(tier),
		PhaseReached: string(current),
		CreatedAt:    now,
	}
	if err := s.appendSession(ctx, sess, res); err != nil {
		return nil, err
	}
	out.SessionNumber = sess.SessionNumber

	st.Phase = current
	st.AnalysisOK = !res.Degraded
	st.OverallStrength = res.OverallStrength
	st.Attempts++
	s.savePhase(ctx, st, now)

	out.Analysis.BadgesEarned = s.badgesAfterSubmit(ctx, userID)
	out.Next = s.next(c, current, res, nextTier)
	return out, nil
}

// teachGuard admits a teach-back only once the learner has left
// understand. Analyse is allowed so a degraded analysis can be retried;
// after feedback the learner has to go back through review.
func teachGuard(st phasestore.State, now time.Time) error {
	switch st.Phase {
	case phase.Teach, phase.Analyse:
		return nil
	case phase.Understand:
		reason := phase.Unmet(phase.Understand, phase.SessionData{
			TimeOnConcept: now.Sub(st.StartedAt),
			CheckedBoxes:  st.CheckedBoxes,
		})
		if reason == "" {
			reason = "advance to the teach phase first"
		}
		return &phase.GuardError{Phase: phase.Understand, Reason: reason}
	default:
		return &phase.GuardError{Phase: st.Phase, Reason: "a teach-back is not expected in this phase"}
	}
}

// DeeperRequest is a response to the deeper question.
type DeeperRequest struct {
	ConceptID      string `json:"conceptId"`
	DeeperResponse string `json:"deeperResponse"`
}

// SubmitDeeper analyses a deeper response. Mastery completes the concept;
// otherwise the learner returns to feedback.
func (s *Service) SubmitDeeper(ctx context.Context, userID string, req DeeperRequest) (_ *SubmitResult, err error) {
	ctx, span := tracer.Start(ctx, "teachback.SubmitDeeper", trace.WithAttributes(attribute.String("concept_id", req.ConceptID)))
	defer func() { endSpan(span, err) }()

	c, err := s.concept(req.ConceptID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.DeeperResponse) == "" {
		return nil, invalid("deeperResponse", "is required")
	}

	now := s.now()
	st, err := phasestore.Load(ctx, s.phases, userID, c.ID, now)
	if err != nil {
		return nil, retryable(fmt.Errorf("load phase state: %w", err))
	}
	switch {
	case st.Phase == phase.Deeper:
	case st.Phase == phase.Feedback && st.AnalysisOK && st.OverallStrength >= phase.DeeperThreshold:
		st.Phase = phase.Deeper
	default:
		return nil, guardFailed(&phase.GuardError{Phase: st.Phase, Reason: "the deeper question has not been offered"})
	}
	if reason := phase.Unmet(phase.Deeper, phase.SessionData{DeeperResponse: req.DeeperResponse}); reason != "" {
		return nil, guardFailed(&phase.GuardError{Phase: phase.Deeper, Reason: reason})
	}

	node, firstExposure, err := s.loadNode(ctx, userID, c, now)
	if err != nil {
		return nil, err
	}
	tier := node.Difficulty

	var prior string
	if last, err := s.repo.LatestSession(ctx, userID, c.ID, store.SessionTeach); err == nil {
		prior = last.Response
	} else if !errors.Is(err, store.ErrNotFound) {
		s.log.Warn("load previous teach-back failed", "user_id", userID, "concept_id", c.ID, "error", err)
	}

	profile, _ := s.profile(ctx, userID, nil)
	res := s.requestor.Analyse(ctx, assessment.Request{
		Concept:        assessmentConcept(c, tier),
		Response:       req.DeeperResponse,
		Profile:        profile,
		Difficulty:     tier,
		DeeperQuestion: c.Deeper,
		PriorResponse:  prior,
	})
	span.SetAttributes(attribute.Bool("degraded", res.Degraded), attribute.Int("overall_strength", res.OverallStrength))

	out := &SubmitResult{Success: true, Analysis: res}
	current := phase.Deeper
	nextTier := tier
	if !res.Degraded {
		outcome := res.DeeperOutcome(tier)
		s.logTransition(userID, node.Apply(outcome, now))
		nextTier = s.adapt(node, !firstExposure, res)
		if err := s.repo.SaveNode(ctx, node); err != nil {
			s.log.Error("save knowledge node failed", "user_id", userID, "concept_id", c.ID, "error", err)
			return nil, retryable(fmt.Errorf("save knowledge node: %w", err))
		}
		out.Node = node

		data := phase.SessionData{
			DeeperResponse: req.DeeperResponse,
			Mastered:       mastery.Achieved(outcome.MasteryFlag, outcome.Scores, outcome.Tier),
		}
		current, _ = phase.Advance(phase.Deeper, data)
	}

	sess := &store.Session{
		UserID:       userID,
		ModuleID:     c.ModuleID,
		ConceptID:    c.ID,
		Kind:         store.SessionDeeper,
		Response:     req.DeeperResponse,
		Difficulty:   string(tier),
		PhaseReached: string(current),
		Completed:    current == phase.Complete,
		CreatedAt:    now,
	}
	if err := s.appendSession(ctx, sess, res); err != nil {
		return nil, err
	}
	out.SessionNumber = sess.SessionNumber

	st.Phase = current
	if !res.Degraded {
		st.OverallStrength = res.OverallStrength
	}
	st.Attempts++
	s.savePhase(ctx, st, now)

	out.Analysis.BadgesEarned = s.badgesAfterSubmit(ctx, userID)
	out.Next = s.next(c, current, res, nextTier)
	return out, nil
}

// loadNode returns the existing node or a new one on first exposure.
func (s *Service) loadNode(ctx context.Context, userID string, c *curriculum.Concept, now time.Time) (*mastery.Node, bool, error) {
	node, err := s.repo.GetNode(ctx, userID, c.ID)
	switch {
	case err == nil:
		return node, false, nil
	case errors.Is(err, store.ErrNotFound):
		return mastery.NewNode(userID, c.ModuleID, c.ID, now), true, nil
	default:
		return nil, false, retryable(fmt.Errorf("load knowledge node: %w", err))
	}
}

// adapt picks the next tier after node has absorbed res and stores it on
// the node. Without a prior tier the adapter starts from medium.
func (s *Service) adapt(node *mastery.Node, hasPrior bool, res assessment.Result) difficulty.Tier {
	var prev *difficulty.State
	if hasPrior {
		prev = &difficulty.State{Tier: node.Difficulty, ConsecutiveCorrect: node.ConsecutiveCorrect}
	}
	d := s.policy.Next(prev, res.Signal())
	if d.Tier != node.Difficulty {
		s.log.Debug("difficulty adapted", "concept_id", node.ConceptID, "from", node.Difficulty, "to", d.Tier, "reason", d.Reason)
	}
	node.Difficulty = d.Tier
	return d.Tier
}

// badgesAfterSubmit replaces the analysis' own badge claims with the
// local evaluation. Failures are logged and yield no badges.
func (s *Service) badgesAfterSubmit(ctx context.Context, userID string) []string {
	earned, err := s.EarnedBadges(ctx, userID)
	if err != nil {
		s.log.Warn("evaluate badges failed", "user_id", userID, "error", err)
		return []string{}
	}
	return earned.Strings()
}

func (s *Service) logTransition(userID string, tr *mastery.StateTransition) {
	if tr == nil {
		return
	}
	s.log.Info("knowledge node transition", "user_id", userID, "concept_id", tr.ConceptID,
		"from", tr.From, "to", tr.To, "trigger", tr.Trigger)
}

func (s *Service) appendSession(ctx context.Context, sess *store.Session, res assessment.Result) error {
	payload, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("encode analysis: %w", err)
	}
	sess.Analysis = payload
	sess.OverallStrength = res.OverallStrength
	sess.Degraded = res.Degraded
	if err := s.repo.AppendSession(ctx, sess); err != nil {
		s.log.Error("append session failed", "user_id", sess.UserID, "concept_id", sess.ConceptID, "error", err)
		return retryable(fmt.Errorf("append session: %w", err))
	}
	return nil
}

// savePhase stores transient phase state. Failures are logged only.
func (s *Service) savePhase(ctx context.Context, st phasestore.State, now time.Time) {
	st.UpdatedAt = now
	if err := s.phases.Put(ctx, st); err != nil {
		s.log.Warn("save phase state failed", "user_id", st.UserID, "concept_id", st.ConceptID, "error", err)
	}
}

func (s *Service) next(c *curriculum.Concept, p phase.Phase, res assessment.Result, tier difficulty.Tier) Next {
	n := Next{Phase: p, Difficulty: tier}
	switch {
	case res.Degraded:
		n.Recommendation = "Your analysis is in progress. Please submit your explanation again in a moment."
		n.Question = c.Question(tier)
	case p == phase.Complete:
		n.Recommendation = "Concept mastered. Move on to the next concept."
	case p == phase.Feedback:
		n.Offered = phase.Offered(res.OverallStrength)
		if res.OverallStrength >= phase.DeeperThreshold {
			n.Question = c.Deeper
			n.Recommendation = "Strong explanation. Take on the deeper question."
		} else {
			n.Question = c.Question(tier)
			n.Recommendation = reviewRecommendation(res)
		}
	default:
		n.Question = c.Question(tier)
	}
	return n
}

func reviewRecommendation(res assessment.Result) string {
	if res.PrimaryGap.Name != "" {
		return fmt.Sprintf("Review the concept with a focus on %s, then explain it again.", res.PrimaryGap.Name)
	}
	return "Review the concept, then explain it again."
}
