package teachback

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/datatypes"

	"github.com/excellere/excellere/internal/mastery"
	"github.com/excellere/excellere/internal/store"
)

// ProfileUpdate is a learner's onboarding answers.
type ProfileUpdate struct {
	Role        string            `json:"role"`
	Sector      string            `json:"sector"`
	OrgSize     string            `json:"orgSize"`
	PriorGaps   []string          `json:"priorGaps"`
	Calibration map[string]string `json:"calibration"`
}

// SaveProfile stores the learner's onboarding profile, replacing any
// earlier one.
func (s *Service) SaveProfile(ctx context.Context, userID string, in ProfileUpdate) (*store.LearnerProfile, error) {
	if strings.TrimSpace(in.Role) == "" {
		return nil, invalid("role", "is required")
	}
	calibration := make(map[string]string, len(in.Calibration))
	for k, v := range in.Calibration {
		if k = strings.TrimSpace(k); k != "" {
			calibration[k] = strings.TrimSpace(v)
		}
	}
	p := &store.LearnerProfile{
		UserID:      userID,
		Role:        strings.TrimSpace(in.Role),
		Sector:      strings.TrimSpace(in.Sector),
		OrgSize:     strings.TrimSpace(in.OrgSize),
		PriorGaps:   datatypes.JSONSlice[string](mastery.NormalizeFlags(in.PriorGaps)),
		Calibration: datatypes.NewJSONType(calibration),
	}
	if err := s.repo.SaveProfile(ctx, p); err != nil {
		s.log.Error("save learner profile failed", "user_id", userID, "error", err)
		return nil, retryable(fmt.Errorf("save learner profile: %w", err))
	}
	return p, nil
}
