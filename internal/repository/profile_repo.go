package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/oggyb/campus-connect/internal/db"
	svcErr "github.com/oggyb/campus-connect/internal/errors"
	"github.com/oggyb/campus-connect/internal/utils/pagination"
)

// ProfileRepository provides data access methods for the Profile model.
// It also hosts the discovery feed query, which is a filtered profile scan.
type ProfileRepository struct {
	db *gorm.DB
}

// NewProfileRepository creates a new repository bound to the given DB connection.
func NewProfileRepository(database *gorm.DB) *ProfileRepository {
	return &ProfileRepository{db: database}
}

// Create inserts a new profile.
//
// Behavior:
//   - Username collision (unique index) → ErrConflict "username already taken".
//   - Second profile for the same identity (primary key) → ErrConflict "profile already exists".
//
// The unique index is the authoritative guard; UsernameAvailable is only advisory.
func (r *ProfileRepository) Create(ctx context.Context, p *db.Profile) error {
	err := r.db.WithContext(ctx).Create(p).Error
	if err == nil {
		return nil
	}
	if !isUniqueViolation(err) {
		return err
	}

	// Figure out which constraint fired so the caller can prompt for the right field.
	exists, lookupErr := r.exists(ctx, "id = ?", p.ID)
	if lookupErr == nil && exists {
		return svcErr.Conflict("profile already exists for this identity")
	}
	return svcErr.Conflict("username already taken")
}

// Get loads the profile owned by the identity.
func (r *ProfileRepository) Get(ctx context.Context, id string) (*db.Profile, error) {
	var p db.Profile
	if err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("profile %s: %w", id, svcErr.ErrNotFound)
		}
		return nil, err
	}
	return &p, nil
}

// GetMany loads every existing profile among ids, keyed by id.
// Missing ids are simply absent from the result.
func (r *ProfileRepository) GetMany(ctx context.Context, ids []string) (map[string]db.Profile, error) {
	out := make(map[string]db.Profile, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var profiles []db.Profile
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&profiles).Error; err != nil {
		return nil, err
	}
	for _, p := range profiles {
		out[p.ID] = p
	}
	return out, nil
}

// Save persists every column of an existing profile (owner update).
// Username collisions map to ErrConflict. Drivers that count changed rows
// (MySQL) report 0 for a no-op update, so a zero count is confirmed by lookup.
func (r *ProfileRepository) Save(ctx context.Context, p *db.Profile) error {
	res := r.db.WithContext(ctx).Model(p).Select("*").Omit("created_at").Updates(p)
	if res.Error != nil {
		if isUniqueViolation(res.Error) {
			return svcErr.Conflict("username already taken")
		}
		return res.Error
	}
	if res.RowsAffected == 0 {
		exists, err := r.exists(ctx, "id = ?", p.ID)
		if err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("profile %s: %w", p.ID, svcErr.ErrNotFound)
		}
	}
	return nil
}

// Delete removes the profile owned by the identity. Deleting a missing profile is not an error.
func (r *ProfileRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&db.Profile{}, "id = ?", id).Error
}

// UsernameAvailable reports whether no profile currently uses the username.
// Race-prone by nature: Create still rejects on conflict.
func (r *ProfileRepository) UsernameAvailable(ctx context.Context, username string) (bool, error) {
	taken, err := r.exists(ctx, "username = ?", username)
	return !taken, err
}

// ListCandidates returns profiles the viewer may still act on.
//
// Behavior:
//   - Excludes the viewer's own profile.
//   - Excludes every profile the viewer has liked (likes in the other direction do not count).
//   - NOT EXISTS keeps the query valid when the viewer has liked nobody.
//   - Ordered by created_at ASC, id ASC (insertion order), cursor-paginated.
//
// Example:
//
//	repo.ListCandidates(ctx, viewerID, nil, 20)
func (r *ProfileRepository) ListCandidates(
	ctx context.Context,
	viewerID string,
	paginationToken *string,
	limit int,
) ([]db.Profile, *string, error) {
	cursor, err := pagination.Decode(getString(paginationToken))
	if err != nil {
		return nil, nil, svcErr.Validation("%v", err)
	}

	query := r.db.WithContext(ctx).
		Table("profiles p").
		Select("p.*").
		Where("p.id <> ?", viewerID).
		Where(`
			NOT EXISTS (
				SELECT 1 FROM likes l
				WHERE l.from_user = ?
				  AND l.to_user = p.id
			)`, viewerID).
		Order("p.created_at ASC, p.id ASC").
		Limit(limit + 1)

	// apply cursor
	if cursor.ID != "" && cursor.CreatedUnix > 0 {
		ts := time.UnixMilli(cursor.CreatedUnix).UTC()
		query = query.Where(
			"(p.created_at > ? OR (p.created_at = ? AND p.id > ?))",
			ts, ts, cursor.ID,
		)
	}

	var profiles []db.Profile
	if err := query.Find(&profiles).Error; err != nil {
		return nil, nil, err
	}

	profiles, nextToken := pagination.Page(profiles, limit, func(p db.Profile) pagination.Cursor {
		return pagination.Cursor{ID: p.ID, CreatedUnix: p.CreatedAt.UnixMilli()}
	})
	return profiles, nextToken, nil
}

func (r *ProfileRepository) exists(ctx context.Context, where string, args ...any) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&db.Profile{}).Where(where, args...).Count(&count).Error
	return count > 0, err
}
