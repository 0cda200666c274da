package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserRepo manages learners and their profiles.
type UserRepo struct {
	db *gorm.DB
}

// Create inserts u, assigning an id when empty.
func (r *UserRepo) Create(ctx context.Context, u *User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	if err := r.db.WithContext(ctx).Create(u).Error; err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// Get returns a user by id.
func (r *UserRepo) Get(ctx context.Context, id string) (*User, error) {
	var u User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

// GetByEmail returns a user by case-insensitive email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*User, error) {
	var u User
	err := r.db.WithContext(ctx).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&u).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

// Profile returns the learner profile for userID.
func (r *UserRepo) Profile(ctx context.Context, userID string) (*LearnerProfile, error) {
	var p LearnerProfile
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&p).Error; err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

// SaveProfile inserts or replaces the profile for p.UserID.
func (r *UserRepo) SaveProfile(ctx context.Context, p *LearnerProfile) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"role", "sector", "org_size", "prior_gaps", "calibration", "updated_at"}),
	}).Create(p).Error
	if err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}
