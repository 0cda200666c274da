// Package review is the human validation step: validators sign in, work
// through the queue of insight reports and approve or reject them.
package review

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/excellere/excellere/internal/apierr"
	"github.com/excellere/excellere/internal/auth"
	"github.com/excellere/excellere/internal/badges"
	"github.com/excellere/excellere/internal/logger"
	"github.com/excellere/excellere/internal/notify"
	"github.com/excellere/excellere/internal/store"
)

// BadgeSource recomputes a learner's badges.
type BadgeSource interface {
	EarnedBadges(ctx context.Context, userID string) (badges.Set, error)
}

// Deps are the collaborators of a Service.
type Deps struct {
	Store         *store.Store
	Issuer        *auth.Issuer
	Badges        BadgeSource
	Mailer        notify.Mailer
	PublicBaseURL string
	Log           *logger.Logger
	Now           func() time.Time
}

// Service implements validator login and report review.
type Service struct {
	store   *store.Store
	issuer  *auth.Issuer
	badges  BadgeSource
	mailer  notify.Mailer
	baseURL string
	log     *logger.Logger
	now     func() time.Time
}

// NewService creates a Service.
func NewService(d Deps) *Service {
	log := d.Log
	if log == nil {
		log = logger.Nop()
	}
	mailer := d.Mailer
	if mailer == nil {
		mailer = notify.NewNop(log)
	}
	now := d.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Service{
		store:   d.Store,
		issuer:  d.Issuer,
		badges:  d.Badges,
		mailer:  mailer,
		baseURL: strings.TrimRight(d.PublicBaseURL, "/"),
		log:     log.With("service", "ReviewService"),
		now:     now,
	}
}

// LoginResult is returned after a successful validator login.
type LoginResult struct {
	Token       string `json:"token"`
	ValidatorID string `json:"validatorId"`
	Name        string `json:"name"`
}

// Login checks a validator's credentials and issues a validator token.
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, apierr.BadRequest("validation", errors.New("email and password are required"))
	}
	v, err := s.store.Validators().GetByEmail(ctx, email)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return nil, unauthorized()
	case err != nil:
		return nil, apierr.Retryable("storage_unavailable", err)
	}
	if err := auth.CheckPassword(v.PasswordHash, password); err != nil {
		s.log.Info("validator login rejected", "validator_id", v.ID)
		return nil, unauthorized()
	}
	token, err := s.issuer.Issue(v.ID, auth.RoleValidator, v.Email)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &LoginResult{Token: token, ValidatorID: v.ID, Name: v.Name}, nil
}

func unauthorized() error {
	return apierr.New(http.StatusUnauthorized, "invalid_credentials", auth.ErrInvalidCredentials)
}

// AddValidator creates a validator account.
func (s *Service) AddValidator(ctx context.Context, email, name, password string) (*store.Validator, error) {
	email = strings.TrimSpace(email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, apierr.BadRequest("validation", errors.New("a valid email is required"))
	}
	if len(password) < 8 {
		return nil, apierr.BadRequest("validation", errors.New("password must be at least 8 characters"))
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}
	v := &store.Validator{Email: email, Name: strings.TrimSpace(name), PasswordHash: hash}
	if err := s.store.Validators().Create(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

// QueueEntry is a queue item with the report fields a validator triages by.
type QueueEntry struct {
	ItemID         string     `json:"itemId"`
	ReportID       string     `json:"reportId"`
	UserID         string     `json:"userId"`
	ModuleID       string     `json:"moduleId"`
	Status         string     `json:"status"`
	Archetype      string     `json:"archetype"`
	OverallScore   int        `json:"overallScore"`
	ArtefactTitle  string     `json:"artefactTitle,omitempty"`
	BoardReadiness int        `json:"boardReadiness"`
	Degraded       bool       `json:"degraded"`
	CreatedAt      time.Time  `json:"createdAt"`
	ReviewedAt     *time.Time `json:"reviewedAt,omitempty"`
}

// Queue lists queue items with status, pending when empty.
func (s *Service) Queue(ctx context.Context, status string) ([]QueueEntry, error) {
	switch status {
	case "":
		status = store.QueuePending
	case "all":
		status = ""
	case store.QueuePending, store.QueueApproved, store.QueueRejected:
	default:
		return nil, apierr.BadRequest("validation", fmt.Errorf("unknown queue status %q", status))
	}
	items, err := s.store.Reports().Queue(ctx, status)
	if err != nil {
		return nil, apierr.Retryable("storage_unavailable", err)
	}
	out := make([]QueueEntry, 0, len(items))
	for _, it := range items {
		e := QueueEntry{
			ItemID:     it.ID,
			ReportID:   it.ReportID,
			UserID:     it.UserID,
			ModuleID:   it.ModuleID,
			Status:     it.Status,
			CreatedAt:  it.CreatedAt,
			ReviewedAt: it.ReviewedAt,
		}
		rep, err := s.store.Reports().Get(ctx, it.ReportID)
		if err != nil {
			s.log.Warn("queue item without report", "item_id", it.ID, "report_id", it.ReportID, "error", err)
		} else {
			e.Archetype = rep.Archetype
			e.OverallScore = rep.OverallScore
			e.ArtefactTitle = rep.ArtefactTitle
			e.BoardReadiness = rep.BoardReadiness
			e.Degraded = rep.Degraded
		}
		out = append(out, e)
	}
	return out, nil
}

// Decision values for Review.
const (
	DecisionApprove = "approve"
	DecisionReject  = "reject"
)

// Request is a validator's decision on a report.
type Request struct {
	Decision string `json:"decision"`
	Notes    string `json:"notes"`
}

// Review records the decision. Approval validates the report and its
// artefact, refreshes the learner's badges and emails the learner; the
// last two are best effort.
func (s *Service) Review(ctx context.Context, validatorID, reportID string, req Request) (*store.InsightReport, error) {
	var approve bool
	switch strings.ToLower(strings.TrimSpace(req.Decision)) {
	case DecisionApprove:
		approve = true
	case DecisionReject:
		if strings.TrimSpace(req.Notes) == "" {
			return nil, apierr.BadRequest("validation", errors.New("notes are required when rejecting"))
		}
	default:
		return nil, apierr.BadRequest("validation", fmt.Errorf("decision must be %q or %q", DecisionApprove, DecisionReject))
	}

	rep, err := s.store.Reports().Review(ctx, reportID, validatorID, approve, strings.TrimSpace(req.Notes), s.now())
	switch {
	case errors.Is(err, store.ErrNotFound):
		return nil, apierr.NotFound("report_not_found", err)
	case errors.Is(err, store.ErrAlreadyReviewed):
		return nil, apierr.Conflict("already_reviewed", err)
	case err != nil:
		return nil, apierr.Retryable("storage_unavailable", err)
	}
	s.log.Info("report reviewed", "report_id", rep.ID, "validator_id", validatorID, "status", rep.Status)

	if !approve {
		return rep, nil
	}
	s.refreshBadges(ctx, rep)
	s.notifyLearner(ctx, rep)
	return rep, nil
}

func (s *Service) refreshBadges(ctx context.Context, rep *store.InsightReport) {
	if s.badges == nil {
		return
	}
	set, err := s.badges.EarnedBadges(ctx, rep.UserID)
	if err != nil {
		s.log.Warn("re-evaluate badges failed", "report_id", rep.ID, "error", err)
		return
	}
	if err := s.store.Reports().SetBadges(ctx, rep.ID, set.Strings()); err != nil {
		s.log.Warn("store re-evaluated badges failed", "report_id", rep.ID, "error", err)
		return
	}
	rep.BadgesEarned = set.Strings()
}

func (s *Service) notifyLearner(ctx context.Context, rep *store.InsightReport) {
	u, err := s.store.Users().Get(ctx, rep.UserID)
	if err != nil {
		s.log.Warn("load learner for notification failed", "user_id", rep.UserID, "error", err)
		return
	}
	link := s.baseURL + "/credentials/" + rep.ID
	err = s.mailer.Send(ctx, notify.Email{
		To:      notify.Address{Email: u.Email, Name: u.Name},
		Subject: "Your Excellere insight report has been validated",
		Text: fmt.Sprintf("Hello %s,\n\nYour insight report (%s) has been validated.\nShare your credential: %s\n",
			nameOr(u.Name), rep.Archetype, link),
	})
	if err != nil {
		s.log.Warn("send validation email failed", "user_id", u.ID, "report_id", rep.ID, "error", err)
	}
}

func nameOr(name string) string {
	if strings.TrimSpace(name) == "" {
		return "there"
	}
	return name
}
