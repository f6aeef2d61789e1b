package reconciler_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/campus-connect/internal/db"
	"github.com/oggyb/campus-connect/internal/logger"
	"github.com/oggyb/campus-connect/internal/reconciler"
	"github.com/oggyb/campus-connect/internal/repository"
	"github.com/oggyb/campus-connect/internal/testutil"
)

func like(t *testing.T, env *testutil.Env, from, to string) {
	t.Helper()
	require.NoError(t, repository.NewLikeRepository(env.App.DB).Create(context.Background(), from, to))
}

func TestRunOnce_CreatesMissingMatches(t *testing.T) {
	env := testutil.NewEnv(t)
	alice, bob, carl := env.CreateUser(t, "alice"), env.CreateUser(t, "bob"), env.CreateUser(t, "carl")

	like(t, env, alice, bob)
	like(t, env, bob, alice)
	like(t, env, alice, carl) // one-way

	matches := repository.NewMatchRepository(env.App.DB)
	r := reconciler.New(matches, time.Hour, logger.Discard())

	created, err := r.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, created)

	ok, err := matches.Exists(context.Background(), bob, alice)
	require.NoError(t, err)
	assert.True(t, ok)

	created, err = r.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, created, "second pass has nothing to repair")
}

func TestStartStop(t *testing.T) {
	env := testutil.NewEnv(t)
	alice, bob := env.CreateUser(t, "alice"), env.CreateUser(t, "bob")
	like(t, env, alice, bob)
	like(t, env, bob, alice)

	r := reconciler.New(repository.NewMatchRepository(env.App.DB), time.Hour, logger.Discard())
	r.Start(context.Background())

	require.Eventually(t, func() bool {
		var n int64
		err := env.App.DB.Model(&db.Match{}).Count(&n).Error
		return err == nil && n == 1
	}, 3*time.Second, 20*time.Millisecond)

	r.Stop()
	r.Stop()
	select {
	case <-r.Done():
	case <-time.After(3 * time.Second):
		t.Fatal("reconciler did not stop")
	}
}

func TestStart_ZeroIntervalDisables(t *testing.T) {
	env := testutil.NewEnv(t)
	alice, bob := env.CreateUser(t, "alice"), env.CreateUser(t, "bob")
	like(t, env, alice, bob)
	like(t, env, bob, alice)

	r := reconciler.New(repository.NewMatchRepository(env.App.DB), 0, logger.Discard())
	assert.False(t, r.Enabled())
	r.Start(context.Background())

	select {
	case <-r.Done():
	case <-time.After(time.Second):
		t.Fatal("disabled reconciler should report done right away")
	}
	r.Stop()

	var n int64
	require.NoError(t, env.App.DB.Model(&db.Match{}).Count(&n).Error)
	assert.Zero(t, n, "no pass runs when disabled")
}
