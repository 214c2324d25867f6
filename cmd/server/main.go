// @title        RFP Platform API
// @version      1.0
// @description  Session, authorization, and catalog service for the RFP automation platform.
//
// @securityDefinitions.apikey BearerAuth
// @in   header
// @name Authorization
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/bidgate/rfp-platform/internal/api"
	"github.com/bidgate/rfp-platform/internal/infrastructure/config"
	mongodb "github.com/bidgate/rfp-platform/internal/infrastructure/db/mongo"
	redisdb "github.com/bidgate/rfp-platform/internal/infrastructure/db/redis"
	"github.com/bidgate/rfp-platform/internal/infrastructure/queue"
	"github.com/bidgate/rfp-platform/pkg/logger"
)

func main() {
	// Local development convenience; production relies on real env vars.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		// Logger is not up yet.
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}

	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	client, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("mongodb connection failed")
	}
	defer func() {
		_ = client.Disconnect(context.Background())
	}()

	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr: cfg.Redis.Addr,
		DB:   cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection failed")
	}
	defer func() {
		_ = rdb.Close()
	}()

	if err := ensureIndexes(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("index creation failed")
	}

	if cfg.SeedDemo {
		if err := mongodb.SeedDemoData(ctx, db); err != nil {
			log.Fatal().Err(err).Msg("demo data seeding failed")
		}
		log.Info().Msg("demo data seeded")
	}

	auditRepo := mongodb.NewAuditRepository(db)
	audit := queue.NewAuditDispatcher(cfg.AuditWorkers, auditRepo, log)
	audit.Start(ctx)

	e := api.NewRouter(db, rdb, audit, cfg, log)

	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("server starting")
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server stopped")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	log.Info().Msg("server stopped")
}

func ensureIndexes(ctx context.Context, db *mongo.Database) error {
	if err := mongodb.NewUserRepository(db).EnsureIndexes(ctx); err != nil {
		return err
	}
	if err := mongodb.NewProductRepository(db).EnsureIndexes(ctx); err != nil {
		return err
	}
	return mongodb.NewRFPRepository(db).EnsureIndexes(ctx)
}
