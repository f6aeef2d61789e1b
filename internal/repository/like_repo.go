package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/campus-connect/internal/db"
)

// LikeRepository provides data access methods for the Like model.
// It encapsulates all queries related to one-directional likes between users.
type LikeRepository struct {
	db *gorm.DB
}

// NewLikeRepository creates a new repository bound to the given DB connection.
func NewLikeRepository(database *gorm.DB) *LikeRepository {
	return &LikeRepository{db: database}
}

// Create records that from liked to.
//
// Behavior:
//   - If (from_user, to_user) already exists → no-op, the original row is kept.
//   - Otherwise a new row is inserted.
//   - The unique index guarantees at most one like per ordered pair.
//
// Example:
//
//	repo.Create(ctx, alice, bob) // alice liked bob
func (r *LikeRepository) Create(ctx context.Context, from, to string) error {
	like := db.Like{FromUser: from, ToUser: to}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "from_user"}, {Name: "to_user"}},
			DoNothing: true,
		}).
		Create(&like).Error
}

// HasLiked checks whether from has liked to.
//
// Used for the reciprocity check after a like is recorded.
//
// Example:
//
//	repo.HasLiked(ctx, bob, alice) // -> true if bob liked alice
func (r *LikeRepository) HasLiked(ctx context.Context, from, to string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.Like{}).
		Where("from_user = ? AND to_user = ?", from, to).
		Count(&count).Error
	return count > 0, err
}
