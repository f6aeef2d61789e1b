package repository_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	svcErr "github.com/oggyb/campus-connect/internal/errors"
	"github.com/oggyb/campus-connect/internal/repository"
)

func TestProfileCreateAndGet(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewProfileRepository(setupTestDB(t))

	p := newProfile("alice")
	p.Interests = []string{"music", "hiking"}
	require.NoError(t, repo.Create(ctx, p))

	got, err := repo.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)
	assert.Equal(t, []string{"music", "hiking"}, []string(got.Interests))
	assert.False(t, got.CreatedAt.IsZero())

	_, err = repo.Get(ctx, "missing")
	assert.True(t, errors.Is(err, svcErr.ErrNotFound))
}

func TestProfileCreate_Conflicts(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewProfileRepository(setupTestDB(t))

	first := newProfile("taken")
	require.NoError(t, repo.Create(ctx, first))

	// same username, different identity
	err := repo.Create(ctx, newProfile("taken"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, svcErr.ErrConflict))
	assert.Contains(t, err.Error(), "username already taken")

	// second profile for the same identity
	dup := newProfile("other_name")
	dup.ID = first.ID
	err = repo.Create(ctx, dup)
	require.Error(t, err)
	assert.True(t, errors.Is(err, svcErr.ErrConflict))
	assert.Contains(t, err.Error(), "profile already exists")
}

func TestProfileCreate_ConcurrentSameUsername(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewProfileRepository(setupTestDB(t))

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = repo.Create(ctx, newProfile("race"))
		}(i)
	}
	wg.Wait()

	var ok, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, svcErr.ErrConflict):
			conflicts++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, conflicts)
}

func TestProfileSaveAndDelete(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewProfileRepository(setupTestDB(t))

	a := newProfile("alice")
	b := newProfile("bob")
	require.NoError(t, repo.Create(ctx, a))
	require.NoError(t, repo.Create(ctx, b))

	a.Bio = "hello"
	require.NoError(t, repo.Save(ctx, a))
	got, err := repo.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "hello", got.Bio)

	a.Username = "bob"
	err = repo.Save(ctx, a)
	assert.True(t, errors.Is(err, svcErr.ErrConflict))

	available, err := repo.UsernameAvailable(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, available)

	require.NoError(t, repo.Delete(ctx, a.ID))
	available, err = repo.UsernameAvailable(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, available)

	many, err := repo.GetMany(ctx, []string{a.ID, b.ID})
	require.NoError(t, err)
	assert.Len(t, many, 1)
	assert.Contains(t, many, b.ID)
}

func TestListCandidates(t *testing.T) {
	ctx := context.Background()
	database := setupTestDB(t)
	profiles := repository.NewProfileRepository(database)
	likes := repository.NewLikeRepository(database)

	viewer := newProfile("viewer")
	liked := newProfile("liked")
	likedMe := newProfile("liked_me")
	stranger := newProfile("stranger")
	require.NoError(t, profiles.Create(ctx, viewer))
	require.NoError(t, profiles.Create(ctx, liked))
	require.NoError(t, profiles.Create(ctx, likedMe))
	require.NoError(t, profiles.Create(ctx, stranger))

	// empty like-set still returns everyone but the viewer
	got, next, err := profiles.ListCandidates(ctx, viewer.ID, nil, 10)
	require.NoError(t, err)
	assert.Nil(t, next)
	assert.ElementsMatch(t, []string{liked.ID, likedMe.ID, stranger.ID}, ids(got))

	require.NoError(t, likes.Create(ctx, viewer.ID, liked.ID))
	require.NoError(t, likes.Create(ctx, likedMe.ID, viewer.ID))

	got, _, err = profiles.ListCandidates(ctx, viewer.ID, nil, 10)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{likedMe.ID, stranger.ID}, ids(got))

	// the liked user still sees the viewer
	got, _, err = profiles.ListCandidates(ctx, liked.ID, nil, 10)
	require.NoError(t, err)
	assert.Contains(t, ids(got), viewer.ID)
}

func TestListCandidates_Pagination(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewProfileRepository(setupTestDB(t))

	viewer := newProfile("viewer")
	require.NoError(t, repo.Create(ctx, viewer))
	var want []string
	for _, name := range []string{"p_one", "p_two", "p_three", "p_four", "p_five"} {
		p := newProfile(name)
		require.NoError(t, repo.Create(ctx, p))
		want = append(want, p.ID)
	}

	var seen []string
	var token *string
	for pages := 0; pages < 10; pages++ {
		page, next, err := repo.ListCandidates(ctx, viewer.ID, token, 2)
		require.NoError(t, err)
		assert.LessOrEqual(t, len(page), 2)
		seen = append(seen, ids(page)...)
		if next == nil {
			break
		}
		token = next
	}
	assert.ElementsMatch(t, want, seen)

	bad := "not-a-token"
	_, _, err := repo.ListCandidates(ctx, viewer.ID, &bad, 2)
	assert.True(t, errors.Is(err, svcErr.ErrValidation))
}

// TestProfileSave_UnchangedRow mimics MySQL reporting zero affected rows for an
// update that changed nothing.
func TestProfileSave_UnchangedRow(t *testing.T) {
	ctx := context.Background()
	database := setupTestDB(t)
	require.NoError(t, database.Callback().Update().After("gorm:update").
		Register("test:found_rows_off", func(tx *gorm.DB) { tx.RowsAffected = 0 }))
	repo := repository.NewProfileRepository(database)

	p := newProfile("alice")
	require.NoError(t, repo.Create(ctx, p))
	assert.NoError(t, repo.Save(ctx, p))

	ghost := newProfile("ghost")
	err := repo.Save(ctx, ghost)
	assert.True(t, errors.Is(err, svcErr.ErrNotFound))
}
