package main

import (
	"flag"
	"os"

	"github.com/oggyb/campus-connect/internal/config"
	"github.com/oggyb/campus-connect/internal/db"
	"github.com/oggyb/campus-connect/internal/logger"
)

func main() {
	minimal := flag.Bool("minimal", false, "seed only the two-user fixture")
	flag.Parse()

	cfg := config.New()
	logger.InitFromConfig(cfg)
	log := logger.With("cmd", "seed")

	database, err := db.NewDB(cfg)
	if err != nil {
		log.Error("failed to init db", "err", err)
		os.Exit(1)
	}

	if *minimal {
		err = db.SeedMinimalTestData(database)
	} else {
		err = db.SeedTestData(database, cfg.Auth.AllowedEmailDomain)
	}
	if err != nil {
		log.Error("failed to seed", "err", err)
		os.Exit(1)
	}

	log.Info("seeding completed", "minimal", *minimal, "password", db.SeedPassword)
}
