package teachback

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/excellere/excellere/internal/apierr"
	"github.com/excellere/excellere/internal/assessment"
	"github.com/excellere/excellere/internal/mastery"
	"github.com/excellere/excellere/internal/store"
	"gorm.io/datatypes"
)

var errNoHistory = errors.New("no analysed sessions for this module")

// ArtefactRequest is the deliverable submitted with module completion.
type ArtefactRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// CompleteRequest completes a module.
type CompleteRequest struct {
	Artefact *ArtefactRequest `json:"artefact"`
}

// ReportView is a stored insight report.
type ReportView struct {
	assessment.Report

	ReportID          string `json:"report_id"`
	ModuleID          string `json:"module_id"`
	Status            string `json:"status"`
	MasteryPercentage int    `json:"mastery_percentage"`
}

// CompleteModule drafts the module's insight report, attaches the badges
// earned so far and queues it for validator review.
func (s *Service) CompleteModule(ctx context.Context, userID, moduleID string, req CompleteRequest) (*ReportView, error) {
	moduleID = strings.TrimSpace(moduleID)
	if moduleID == "" {
		return nil, invalid("moduleId", "is required")
	}
	mod, ok := s.catalog.Module(moduleID)
	if !ok {
		return nil, invalid("moduleId", "unknown module "+moduleID)
	}
	var artefact *assessment.ArtefactInput
	if req.Artefact != nil {
		if strings.TrimSpace(req.Artefact.Content) == "" {
			return nil, invalid("artefact.content", "is required when an artefact is submitted")
		}
		artefact = &assessment.ArtefactInput{
			Title:   strings.TrimSpace(req.Artefact.Title),
			Content: req.Artefact.Content,
		}
		if artefact.Title == "" {
			artefact.Title = mod.Title + " artefact"
		}
	}

	sessions, err := s.repo.ListSessions(ctx, userID, mod.ID)
	if err != nil {
		return nil, retryable(fmt.Errorf("list sessions: %w", err))
	}
	summaries := s.summaries(sessions)
	if len(summaries) == 0 {
		return nil, apierr.Conflict("module_incomplete", errNoHistory)
	}
	nodes, err := s.repo.ListNodes(ctx, userID, mod.ID)
	if err != nil {
		return nil, retryable(fmt.Errorf("list knowledge nodes: %w", err))
	}
	pct := mastery.Percentage(nodes)
	profile, _ := s.profile(ctx, userID, nil)

	rep := s.reports.Generate(ctx, assessment.ReportInput{
		ModuleID:    mod.ID,
		ModuleTitle: mod.Title,
		Brief:       mod.ArtefactBrief,
		Profile:     profile,
		Sessions:    summaries,
		Artefact:    artefact,
		Mastery:     pct,
	})

	earned, err := s.EarnedBadges(ctx, userID)
	if err != nil {
		return nil, err
	}
	rep.BadgesEarned = earned.Strings()

	payload, err := json.Marshal(rep)
	if err != nil {
		return nil, fmt.Errorf("encode report: %w", err)
	}
	row := &store.InsightReport{
		UserID:       userID,
		ModuleID:     mod.ID,
		Archetype:    rep.Archetype,
		OverallScore: rep.OverallScore,
		BadgesEarned: datatypes.JSONSlice[string](rep.BadgesEarned),
		Report:       payload,
		Degraded:     rep.Degraded,
	}
	if artefact != nil {
		row.ArtefactTitle = artefact.Title
		row.ArtefactContent = artefact.Content
		row.ArtefactStatus = string(artefactStatus(""))
		row.BoardReadiness = rep.BoardReadiness
	}
	item, err := s.repo.CreateReport(ctx, row)
	if err != nil {
		s.log.Error("store insight report failed", "user_id", userID, "module_id", mod.ID, "error", err)
		return nil, retryable(fmt.Errorf("store insight report: %w", err))
	}
	s.log.Info("module completed", "user_id", userID, "module_id", mod.ID, "report_id", row.ID,
		"queue_item_id", item.ID, "overall_score", rep.OverallScore, "degraded", rep.Degraded)

	return &ReportView{Report: rep, ReportID: row.ID, ModuleID: mod.ID, Status: row.Status, MasteryPercentage: pct}, nil
}

// summaries turns a module's non-degraded sessions into report input.
func (s *Service) summaries(sessions []store.Session) []assessment.SessionSummary {
	out := make([]assessment.SessionSummary, 0, len(sessions))
	for _, a := range s.analysed(sessions) {
		out = append(out, assessment.SessionSummary{
			ConceptID:       a.session.ConceptID,
			ConceptTitle:    s.conceptTitle(a.session.ConceptID),
			OverallStrength: a.result.OverallStrength,
			Scores:          a.result.Scores,
			PrimaryGap:      a.result.PrimaryGap.Name,
		})
	}
	return out
}

func (s *Service) conceptTitle(id string) string {
	if c, ok := s.catalog.Concept(id); ok {
		return c.Title
	}
	return id
}
