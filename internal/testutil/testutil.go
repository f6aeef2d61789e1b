// Package testutil wires an AppContext over in-memory SQLite, miniredis and a
// temp-dir object store for service and end-to-end tests.
package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/oggyb/campus-connect/internal/app"
	"github.com/oggyb/campus-connect/internal/auth"
	"github.com/oggyb/campus-connect/internal/cache"
	"github.com/oggyb/campus-connect/internal/config"
	"github.com/oggyb/campus-connect/internal/db"
	"github.com/oggyb/campus-connect/internal/logger"
	"github.com/oggyb/campus-connect/internal/storage"
)

// Env is an isolated set of backing services for one test.
type Env struct {
	App   *app.AppContext
	Redis *miniredis.Miniredis
}

// NewEnv spins up an in-memory SQLite DB, applies migrations, starts a
// miniredis and wires everything into an AppContext.
//
// Each test gets its own isolated DB + Redis.
func NewEnv(t *testing.T) *Env {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	database, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	})
	require.NoError(t, err)

	sqlDB, err := database.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.Migrate(database))

	mr := miniredis.RunT(t)

	cfg := config.New()
	cfg.Redis.Addr = mr.Addr()
	cfg.Auth.JWTSecret = "test-secret"
	cfg.Auth.AllowedEmailDomain = "iiti.ac.in"
	cfg.Auth.MinPasswordLength = 8
	cfg.Chat.RequireMatch = true
	cfg.Chat.IdempotencyTTL = time.Hour
	cfg.Chat.SendLease = 30 * time.Second
	cfg.Feed.PageSize = 20
	cfg.Storage.Driver = "local"
	cfg.Storage.LocalPath = t.TempDir()
	cfg.Storage.PublicBaseURL = "http://media.test/media"
	cfg.Storage.MaxImageBytes = 1 << 20

	redisCache := cache.NewRedisCache(cfg)
	t.Cleanup(func() { _ = redisCache.Close() })

	store, err := storage.New(context.Background(), cfg.Storage)
	require.NoError(t, err)

	return &Env{
		App:   app.New(cfg, database, redisCache, store, logger.Discard()),
		Redis: mr,
	}
}

// CreateUser inserts an account and a profile with the given username and
// returns the identity.
func (e *Env) CreateUser(t *testing.T, username string) string {
	t.Helper()
	id := uuid.NewString()
	require.NoError(t, e.App.DB.Create(&db.Account{
		ID:           id,
		Email:        username + "@iiti.ac.in",
		PasswordHash: "x",
	}).Error)
	require.NoError(t, e.App.DB.Create(&db.Profile{
		ID:          id,
		Username:    username,
		FirstName:   username,
		LastName:    "Test",
		Gender:      "other",
		YearOfStudy: 2,
		LookingFor:  "dating",
	}).Error)
	return id
}

// As returns ctx authenticated as userID, the way the auth interceptor would.
func As(ctx context.Context, userID string) context.Context {
	return auth.WithIdentity(ctx, auth.Identity{UserID: userID})
}
