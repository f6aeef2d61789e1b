package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/campus-connect/internal/db"
)

// MatchRepository provides data access methods for the Match model.
type MatchRepository struct {
	db *gorm.DB
}

// NewMatchRepository creates a new repository bound to the given DB connection.
func NewMatchRepository(database *gorm.DB) *MatchRepository {
	return &MatchRepository{db: database}
}

// MutualPair is a pair of identities that liked each other. UserA < UserB.
type MutualPair struct {
	UserA string
	UserB string
}

// CreateIfAbsent makes sure exactly one match exists for the unordered pair {a, b}.
//
// Behavior:
//   - The pair is canonicalised (user1 < user2) before insert.
//   - ON CONFLICT DO NOTHING on ux_matches_pair: a concurrent or repeated call never duplicates.
//   - The stored row is re-read and returned; created reports whether this call inserted it.
//
// Example:
//
//	m, created, err := repo.CreateIfAbsent(ctx, bob, alice)
func (r *MatchRepository) CreateIfAbsent(ctx context.Context, a, b string) (*db.Match, bool, error) {
	u1, u2 := db.CanonicalPair(a, b)
	match := db.Match{User1: u1, User2: u2}

	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user1"}, {Name: "user2"}},
			DoNothing: true,
		}).
		Create(&match)
	if res.Error != nil {
		return nil, false, res.Error
	}

	var stored db.Match
	if err := r.db.WithContext(ctx).
		Where("user1 = ? AND user2 = ?", u1, u2).
		First(&stored).Error; err != nil {
		return nil, false, err
	}
	return &stored, res.RowsAffected > 0, nil
}

// Exists reports whether a and b are matched, in either order.
func (r *MatchRepository) Exists(ctx context.Context, a, b string) (bool, error) {
	u1, u2 := db.CanonicalPair(a, b)
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.Match{}).
		Where("user1 = ? AND user2 = ?", u1, u2).
		Count(&count).Error
	return count > 0, err
}

// ListForUser returns every match the user takes part in.
//
// Behavior:
//   - Selects rows where user1 = X OR user2 = X.
//   - Ordered by created_at DESC, id DESC (newest first).
func (r *MatchRepository) ListForUser(ctx context.Context, user string) ([]db.Match, error) {
	var matches []db.Match
	err := r.db.WithContext(ctx).
		Where("user1 = ? OR user2 = ?", user, user).
		Order("created_at DESC, id DESC").
		Find(&matches).Error
	return matches, err
}

// FindUnmatchedMutualPairs returns mutual like pairs that have no match row yet.
//
// Such pairs are left behind when the reciprocity check fails after a like was
// stored; the reconciler creates the missing matches.
func (r *MatchRepository) FindUnmatchedMutualPairs(ctx context.Context, limit int) ([]MutualPair, error) {
	var pairs []MutualPair
	err := r.db.WithContext(ctx).
		Table("likes l1").
		Select("l1.from_user AS user_a, l1.to_user AS user_b").
		Joins("JOIN likes l2 ON l2.from_user = l1.to_user AND l2.to_user = l1.from_user").
		Where("l1.from_user < l1.to_user").
		Where(`
			NOT EXISTS (
				SELECT 1 FROM matches m
				WHERE m.user1 = l1.from_user
				  AND m.user2 = l1.to_user
			)`).
		Order("l1.id ASC").
		Limit(limit).
		Scan(&pairs).Error
	return pairs, err
}
