package repository_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/campus-connect/internal/db"
	svcErr "github.com/oggyb/campus-connect/internal/errors"
	"github.com/oggyb/campus-connect/internal/repository"
)

func TestAccountLifecycle(t *testing.T) {
	ctx := context.Background()
	database := setupTestDB(t)
	accounts := repository.NewAccountRepository(database)
	profiles := repository.NewProfileRepository(database)

	acc := &db.Account{ID: uuid.NewString(), Email: "a@iiti.ac.in", PasswordHash: "h1"}
	require.NoError(t, accounts.Create(ctx, acc))

	err := accounts.Create(ctx, &db.Account{ID: uuid.NewString(), Email: "a@iiti.ac.in", PasswordHash: "h"})
	assert.True(t, errors.Is(err, svcErr.ErrConflict))

	got, err := accounts.GetByEmail(ctx, "a@iiti.ac.in")
	require.NoError(t, err)
	assert.Equal(t, acc.ID, got.ID)

	require.NoError(t, accounts.UpdatePasswordHash(ctx, acc.ID, "h2"))
	got, err = accounts.Get(ctx, acc.ID)
	require.NoError(t, err)
	assert.Equal(t, "h2", got.PasswordHash)

	p := newProfile("alice")
	p.ID = acc.ID
	require.NoError(t, profiles.Create(ctx, p))

	require.NoError(t, accounts.DeleteWithProfile(ctx, acc.ID))
	_, err = accounts.Get(ctx, acc.ID)
	assert.True(t, errors.Is(err, svcErr.ErrNotFound))
	_, err = profiles.Get(ctx, acc.ID)
	assert.True(t, errors.Is(err, svcErr.ErrNotFound))

	err = accounts.DeleteWithProfile(ctx, acc.ID)
	assert.True(t, errors.Is(err, svcErr.ErrNotFound))
}
