// Package teachback runs the teach-back assessment loop: validate a
// submission, get it analysed, move the learner through the phase cycle,
// adapt difficulty and update the knowledge node.
package teachback

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/excellere/excellere/internal/assessment"
	"github.com/excellere/excellere/internal/badges"
	"github.com/excellere/excellere/internal/curriculum"
	"github.com/excellere/excellere/internal/difficulty"
	"github.com/excellere/excellere/internal/logger"
	"github.com/excellere/excellere/internal/phasestore"
	"github.com/excellere/excellere/internal/store"
)

// Clock returns the current time.
type Clock func() time.Time

// Deps are the collaborators of a Service.
type Deps struct {
	Repo      Repository
	Phases    phasestore.Store
	Catalog   *curriculum.Catalog
	Requestor *assessment.Requestor
	Reports   *assessment.ReportGenerator
	Policy    difficulty.Policy
	Log       *logger.Logger
	Now       Clock
}

// Service implements the teach-back operations.
type Service struct {
	repo      Repository
	phases    phasestore.Store
	catalog   *curriculum.Catalog
	requestor *assessment.Requestor
	reports   *assessment.ReportGenerator
	policy    difficulty.Policy
	badges    *badges.Evaluator
	log       *logger.Logger
	now       Clock
}

// NewService creates a Service.
func NewService(d Deps) *Service {
	log := d.Log
	if log == nil {
		log = logger.Nop()
	}
	now := d.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	phases := d.Phases
	if phases == nil {
		phases = phasestore.NewMemory()
	}
	return &Service{
		repo:      d.Repo,
		phases:    phases,
		catalog:   d.Catalog,
		requestor: d.Requestor,
		reports:   d.Reports,
		policy:    d.Policy,
		badges:    badges.NewEvaluator(log),
		log:       log.With("service", "TeachBackService"),
		now:       now,
	}
}

// ProfileInput is learner context sent with a submission. Non-empty
// fields override the stored profile.
type ProfileInput struct {
	Name      string   `json:"name"`
	Role      string   `json:"role"`
	Sector    string   `json:"sector"`
	OrgSize   string   `json:"orgSize"`
	PriorGaps []string `json:"priorGaps"`
}

// profile merges the stored profile with in.
func (s *Service) profile(ctx context.Context, userID string, in *ProfileInput) (assessment.Profile, map[string]string) {
	var p assessment.Profile
	var calibration map[string]string

	stored, err := s.repo.GetProfile(ctx, userID)
	switch {
	case err == nil:
		p = assessment.Profile{
			Role:      stored.Role,
			Sector:    stored.Sector,
			OrgSize:   stored.OrgSize,
			PriorGaps: []string(stored.PriorGaps),
		}
		calibration = stored.Calibration.Data()
	case !errors.Is(err, store.ErrNotFound):
		s.log.Warn("load learner profile failed", "user_id", userID, "error", err)
	}

	if in != nil {
		p.Name = pick(in.Name, p.Name)
		p.Role = pick(in.Role, p.Role)
		p.Sector = pick(in.Sector, p.Sector)
		p.OrgSize = pick(in.OrgSize, p.OrgSize)
		if len(in.PriorGaps) > 0 {
			p.PriorGaps = in.PriorGaps
		}
	}
	return p, calibration
}

func (s *Service) concept(id string) (*curriculum.Concept, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, invalid("conceptId", "is required")
	}
	c, ok := s.catalog.Concept(id)
	if !ok {
		return nil, invalid("conceptId", "unknown concept "+id)
	}
	return c, nil
}

func assessmentConcept(c *curriculum.Concept, tier difficulty.Tier) assessment.Concept {
	return assessment.Concept{
		ID:           c.ID,
		Title:        c.Title,
		Description:  c.Description,
		KeyMechanism: c.KeyMechanism,
		Question:     c.Question(tier),
	}
}

func pick(v, fallback string) string {
	if strings.TrimSpace(v) != "" {
		return v
	}
	return fallback
}
