package main

import (
	"context"
	"errors"
	"log"
	"os"

	"github.com/noah-isme/sma-adp-web/internal/repository"
	"github.com/noah-isme/sma-adp-web/internal/service"
	"github.com/noah-isme/sma-adp-web/pkg/config"
	"github.com/noah-isme/sma-adp-web/pkg/database"
	"github.com/noah-isme/sma-adp-web/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx := context.Background()
	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close() //nolint:errcheck

	cli := &commandLine{
		users: service.NewUserService(repository.NewUserRepository(db), nil, logr),
		migrate: func(ctx context.Context, command string, args ...string) error {
			return database.RunMigrations(ctx, db.DB, command, args...)
		},
		out: os.Stdout,
	}
	if err := cli.run(ctx, os.Args); err != nil {
		if errors.Is(err, errHelp) {
			os.Exit(2)
		}
		log.Printf("error: %v", err) //nolint:gocritic
		os.Exit(1)
	}
}
