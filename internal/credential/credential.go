// Package credential renders the public, shareable pages for validated
// insight reports: an HTML page and a PNG card.
package credential

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/excellere/excellere/internal/apierr"
	"github.com/excellere/excellere/internal/assessment"
	"github.com/excellere/excellere/internal/badges"
	"github.com/excellere/excellere/internal/curriculum"
	"github.com/excellere/excellere/internal/logger"
	"github.com/excellere/excellere/internal/store"
)

var errNotValidated = errors.New("credential not found")

// Badge is an earned badge on a credential.
type Badge struct {
	Name        string
	Icon        string
	Description string
}

// View is everything a credential page shows.
type View struct {
	ReportID       string
	LearnerName    string
	ModuleTitle    string
	Archetype      string
	Summary        string
	Strengths      []string
	OverallScore   int
	BoardReadiness int
	ArtefactTitle  string
	Badges         []Badge
	ValidatedAt    time.Time
	URL            string
}

// Service loads credentials.
type Service struct {
	store   *store.Store
	catalog *curriculum.Catalog
	baseURL string
	log     *logger.Logger
}

// NewService creates a Service.
func NewService(s *store.Store, catalog *curriculum.Catalog, publicBaseURL string, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		store:   s,
		catalog: catalog,
		baseURL: strings.TrimRight(publicBaseURL, "/"),
		log:     log.With("service", "CredentialService"),
	}
}

// Load returns the credential for a validated report. Reports that are
// missing or not validated are reported as not found.
func (s *Service) Load(ctx context.Context, reportID string) (*View, error) {
	rep, err := s.store.Reports().Get(ctx, reportID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return nil, apierr.NotFound("credential_not_found", errNotValidated)
	case err != nil:
		return nil, apierr.Retryable("storage_unavailable", err)
	}
	if rep.Status != store.ReportValidated || rep.ValidatedAt == nil {
		return nil, apierr.NotFound("credential_not_found", errNotValidated)
	}

	v := &View{
		ReportID:       rep.ID,
		ModuleTitle:    rep.ModuleID,
		Archetype:      rep.Archetype,
		OverallScore:   rep.OverallScore,
		BoardReadiness: rep.BoardReadiness,
		ArtefactTitle:  rep.ArtefactTitle,
		ValidatedAt:    *rep.ValidatedAt,
		URL:            fmt.Sprintf("%s/credentials/%s", s.baseURL, rep.ID),
	}
	if m, ok := s.catalog.Module(rep.ModuleID); ok {
		v.ModuleTitle = m.Title
	}
	if u, err := s.store.Users().Get(ctx, rep.UserID); err == nil {
		v.LearnerName = u.Name
	} else {
		s.log.Warn("load credential learner failed", "report_id", rep.ID, "error", err)
	}
	if v.LearnerName == "" {
		v.LearnerName = "Excellere learner"
	}

	var body assessment.Report
	if len(rep.Report) > 0 {
		if err := json.Unmarshal(rep.Report, &body); err != nil {
			s.log.Warn("decode stored report failed", "report_id", rep.ID, "error", err)
		}
	}
	v.Summary = body.Summary
	v.Strengths = body.Strengths

	for _, id := range rep.BadgesEarned {
		b, ok := badges.Lookup(badges.ID(id))
		if !ok {
			continue
		}
		v.Badges = append(v.Badges, Badge{Name: b.Name, Icon: b.Icon, Description: b.Description})
	}
	return v, nil
}
