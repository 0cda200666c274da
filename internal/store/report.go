package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ErrAlreadyReviewed is returned when a queue item was already decided.
var ErrAlreadyReviewed = errors.New("report already reviewed")

// ReportRepo manages insight reports and the validation queue.
type ReportRepo struct {
	db *gorm.DB
}

// CreateWithQueue stores rep as pending and enqueues it for review in one
// transaction.
func (r *ReportRepo) CreateWithQueue(ctx context.Context, rep *InsightReport) (*ValidationQueueItem, error) {
	if rep.ID == "" {
		rep.ID = uuid.NewString()
	}
	rep.Status = ReportPending
	item := &ValidationQueueItem{
		ID:       uuid.NewString(),
		ReportID: rep.ID,
		UserID:   rep.UserID,
		ModuleID: rep.ModuleID,
		Status:   QueuePending,
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(rep).Error; err != nil {
			return fmt.Errorf("create report: %w", err)
		}
		if err := tx.Create(item).Error; err != nil {
			return fmt.Errorf("enqueue report: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// Get returns a report by id.
func (r *ReportRepo) Get(ctx context.Context, id string) (*InsightReport, error) {
	var rep InsightReport
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&rep).Error; err != nil {
		return nil, notFound(err)
	}
	return &rep, nil
}

// ListForUser returns the user's reports, newest first.
func (r *ReportRepo) ListForUser(ctx context.Context, userID string) ([]InsightReport, error) {
	var rows []InsightReport
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	return rows, nil
}

// Queue returns queue items with status, oldest first. Empty status lists
// every item.
func (r *ReportRepo) Queue(ctx context.Context, status string) ([]ValidationQueueItem, error) {
	q := r.db.WithContext(ctx).Order("created_at ASC")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var rows []ValidationQueueItem
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list validation queue: %w", err)
	}
	return rows, nil
}

// Review records a validator's decision on a pending report and returns
// the updated report.
func (r *ReportRepo) Review(ctx context.Context, reportID, validatorID string, approve bool, notes string, at time.Time) (*InsightReport, error) {
	var rep InsightReport
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var item ValidationQueueItem
		if err := tx.Where("report_id = ?", reportID).First(&item).Error; err != nil {
			return notFound(err)
		}
		if item.Status != QueuePending {
			return ErrAlreadyReviewed
		}

		queueStatus, reportStatus := QueueRejected, ReportRejected
		if approve {
			queueStatus, reportStatus = QueueApproved, ReportValidated
		}

		err := tx.Model(&item).Updates(map[string]any{
			"status":      queueStatus,
			"reviewer_id": validatorID,
			"notes":       notes,
			"reviewed_at": at,
		}).Error
		if err != nil {
			return fmt.Errorf("update queue item: %w", err)
		}

		if err := tx.Where("id = ?", reportID).First(&rep).Error; err != nil {
			return notFound(err)
		}
		updates := map[string]any{
			"status":          reportStatus,
			"validator_id":    validatorID,
			"validator_notes": notes,
		}
		if rep.ArtefactTitle != "" || rep.ArtefactContent != "" {
			updates["artefact_status"] = reportStatus
		}
		if approve {
			updates["validated_at"] = at
		}
		if err := tx.Model(&rep).Updates(updates).Error; err != nil {
			return fmt.Errorf("update report: %w", err)
		}
		return tx.Where("id = ?", reportID).First(&rep).Error
	})
	if err != nil {
		return nil, err
	}
	return &rep, nil
}

// SetBadges replaces the badges stored on a report.
func (r *ReportRepo) SetBadges(ctx context.Context, reportID string, badges []string) error {
	err := r.db.WithContext(ctx).Model(&InsightReport{}).
		Where("id = ?", reportID).
		Update("badges_earned", datatypes.JSONSlice[string](badges)).Error
	if err != nil {
		return fmt.Errorf("set report badges: %w", err)
	}
	return nil
}
