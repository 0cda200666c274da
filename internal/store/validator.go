package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ValidatorRepo manages reviewer accounts.
type ValidatorRepo struct {
	db *gorm.DB
}

// Create inserts v, assigning an id when empty.
func (r *ValidatorRepo) Create(ctx context.Context, v *Validator) error {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	v.Email = strings.ToLower(strings.TrimSpace(v.Email))
	v.Active = true
	if err := r.db.WithContext(ctx).Create(v).Error; err != nil {
		return fmt.Errorf("create validator: %w", err)
	}
	return nil
}

// Get returns a validator by id.
func (r *ValidatorRepo) Get(ctx context.Context, id string) (*Validator, error) {
	var v Validator
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&v).Error; err != nil {
		return nil, notFound(err)
	}
	return &v, nil
}

// GetByEmail returns an active validator by case-insensitive email.
func (r *ValidatorRepo) GetByEmail(ctx context.Context, email string) (*Validator, error) {
	var v Validator
	err := r.db.WithContext(ctx).
		Where("email = ? AND active = ?", strings.ToLower(strings.TrimSpace(email)), true).
		First(&v).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &v, nil
}
