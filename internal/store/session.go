package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SessionRepo appends and reads immutable session records.
type SessionRepo struct {
	db *gorm.DB
}

// Append stores s with the next session number for (UserID, ModuleID).
// The number and id are assigned here.
func (r *SessionRepo) Append(ctx context.Context, s *Session) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var last int
		err := tx.Model(&Session{}).
			Where("user_id = ? AND module_id = ?", s.UserID, s.ModuleID).
			Select("COALESCE(MAX(session_number), 0)").
			Scan(&last).Error
		if err != nil {
			return fmt.Errorf("next session number: %w", err)
		}
		s.ID = uuid.NewString()
		s.SessionNumber = last + 1
		if s.CreatedAt.IsZero() {
			s.CreatedAt = time.Now().UTC()
		}
		if err := tx.Create(s).Error; err != nil {
			return fmt.Errorf("append session: %w", err)
		}
		return nil
	})
}

// List returns the user's sessions in submission order, restricted to
// moduleID when non-empty.
func (r *SessionRepo) List(ctx context.Context, userID, moduleID string) ([]Session, error) {
	q := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if moduleID != "" {
		q = q.Where("module_id = ?", moduleID)
	}
	var rows []Session
	if err := q.Order("created_at ASC, session_number ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return rows, nil
}

// Latest returns the most recent session of kind for a concept.
func (r *SessionRepo) Latest(ctx context.Context, userID, conceptID, kind string) (*Session, error) {
	var s Session
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND concept_id = ? AND kind = ?", userID, conceptID, kind).
		Order("created_at DESC, session_number DESC").
		First(&s).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &s, nil
}
