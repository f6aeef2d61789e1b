package app

import (
	"log/slog"

	"gorm.io/gorm"

	"github.com/oggyb/campus-connect/internal/auth"
	"github.com/oggyb/campus-connect/internal/cache"
	"github.com/oggyb/campus-connect/internal/config"
	"github.com/oggyb/campus-connect/internal/realtime"
	"github.com/oggyb/campus-connect/internal/storage"
)

// AppContext holds shared dependencies (DB, Redis, Logger, etc.)
type AppContext struct {
	Config     *config.Config
	DB         *gorm.DB
	RedisCache *cache.RedisCache
	Bus        realtime.Bus
	Storage    storage.ObjectStorage
	Tokens     *auth.TokenManager
	Logger     *slog.Logger
}

// New creates a new AppContext. The token manager and realtime bus are built
// on top of the Redis connection.
func New(cfg *config.Config, db *gorm.DB, rdb *cache.RedisCache, store storage.ObjectStorage, logger *slog.Logger) *AppContext {
	return &AppContext{
		Config:     cfg,
		DB:         db,
		RedisCache: rdb,
		Bus:        realtime.NewRedisBus(rdb.Client, logger.With("component", "realtime")),
		Storage:    store,
		Tokens:     auth.NewTokenManager(cfg.Auth, rdb),
		Logger:     logger,
	}
}
