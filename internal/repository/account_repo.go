package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/oggyb/campus-connect/internal/db"
	svcErr "github.com/oggyb/campus-connect/internal/errors"
)

// AccountRepository provides data access methods for the Account (identity) model.
type AccountRepository struct {
	db *gorm.DB
}

// NewAccountRepository creates a new repository bound to the given DB connection.
func NewAccountRepository(database *gorm.DB) *AccountRepository {
	return &AccountRepository{db: database}
}

// Create inserts a new account. A duplicate email maps to ErrConflict.
func (r *AccountRepository) Create(ctx context.Context, a *db.Account) error {
	if err := r.db.WithContext(ctx).Create(a).Error; err != nil {
		if isUniqueViolation(err) {
			return svcErr.Conflict("email already registered")
		}
		return err
	}
	return nil
}

// Get loads an account by identity.
func (r *AccountRepository) Get(ctx context.Context, id string) (*db.Account, error) {
	return r.first(ctx, "id = ?", id)
}

// GetByEmail loads an account by its normalised email.
func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*db.Account, error) {
	return r.first(ctx, "email = ?", email)
}

// UpdatePasswordHash replaces the stored bcrypt hash.
func (r *AccountRepository) UpdatePasswordHash(ctx context.Context, id, hash string) error {
	res := r.db.WithContext(ctx).
		Model(&db.Account{}).
		Where("id = ?", id).
		Update("password_hash", hash)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("account %s: %w", id, svcErr.ErrNotFound)
	}
	return nil
}

// DeleteWithProfile removes the profile and the account of an identity in one transaction.
//
// Likes, matches and messages are kept: listings omit matches whose counterpart
// profile no longer exists.
func (r *AccountRepository) DeleteWithProfile(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&db.Profile{}, "id = ?", id).Error; err != nil {
			return err
		}
		res := tx.Delete(&db.Account{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("account %s: %w", id, svcErr.ErrNotFound)
		}
		return nil
	})
}

func (r *AccountRepository) first(ctx context.Context, where string, args ...any) (*db.Account, error) {
	var a db.Account
	if err := r.db.WithContext(ctx).Where(where, args...).First(&a).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("account: %w", svcErr.ErrNotFound)
		}
		return nil, err
	}
	return &a, nil
}
