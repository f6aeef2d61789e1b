package main

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/oggyb/campus-connect/internal/app"
	"github.com/oggyb/campus-connect/internal/cache"
	"github.com/oggyb/campus-connect/internal/config"
	"github.com/oggyb/campus-connect/internal/db"
	"github.com/oggyb/campus-connect/internal/logger"
	"github.com/oggyb/campus-connect/internal/reconciler"
	"github.com/oggyb/campus-connect/internal/repository"
	"github.com/oggyb/campus-connect/internal/server"
	"github.com/oggyb/campus-connect/internal/service/account"
	"github.com/oggyb/campus-connect/internal/service/chat"
	"github.com/oggyb/campus-connect/internal/service/explore"
	"github.com/oggyb/campus-connect/internal/service/profile"
	"github.com/oggyb/campus-connect/internal/storage"
)

func main() {
	if err := run(); err != nil {
		logger.Error("server exited", "err", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.New()

	// Init logger (global singleton)
	logger.InitFromConfig(cfg)
	log := logger.L()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Init DB
	database, err := db.NewDB(cfg)
	if err != nil {
		log.Error("failed to init db", "err", err)
		return err
	}

	// Init Redis
	redisCache := cache.NewRedisCache(cfg)
	defer redisCache.Close()
	if err := redisCache.Ping(ctx); err != nil {
		log.Error("failed to connect to redis", "err", err)
		return err
	}

	// Init object storage
	store, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		log.Error("failed to init storage", "driver", cfg.Storage.Driver, "err", err)
		return err
	}

	appCtx := app.New(cfg, database, redisCache, store, log)

	if cfg.App.ENV == "development" {
		if err := db.SeedTestData(database, cfg.Auth.AllowedEmailDomain); err != nil {
			log.Error("failed to seed", "err", err)
		}
	}

	grpcServer := server.NewGRPCServer(appCtx, account.PublicMethods,
		account.NewRegistrar(appCtx),
		profile.NewRegistrar(appCtx),
		explore.NewRegistrar(appCtx),
		chat.NewRegistrar(appCtx),
	)
	httpHandler := server.NewHTTPHandler(appCtx)

	rec := reconciler.New(repository.NewMatchRepository(database), cfg.Reconcile.Interval, log.With("component", "reconciler"))
	rec.Start(ctx)
	if rec.Enabled() {
		log.Info("reconciler started", "interval", cfg.Reconcile.Interval)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		addr := net.JoinHostPort(cfg.GRPC.Host, cfg.GRPC.Port)
		log.Info("starting gRPC server", "addr", addr)
		return server.ServeGRPC(gctx, grpcServer, addr)
	})

	g.Go(func() error {
		addr := net.JoinHostPort(cfg.HTTP.Host, cfg.HTTP.Port)
		log.Info("starting HTTP server", "addr", addr)
		return server.ServeHTTP(gctx, httpHandler, addr)
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		rec.Stop()
		<-rec.Done()
		return nil
	})

	return g.Wait()
}
