package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/onekingdom/assessment-system/internal/api"
	"github.com/onekingdom/assessment-system/internal/core/service"
	"github.com/onekingdom/assessment-system/internal/core/token"
	"github.com/onekingdom/assessment-system/internal/infrastructure/config"
	mongodb "github.com/onekingdom/assessment-system/internal/infrastructure/db/mongo"
	redisdb "github.com/onekingdom/assessment-system/internal/infrastructure/db/redis"
	"github.com/onekingdom/assessment-system/internal/infrastructure/mail"
	"github.com/onekingdom/assessment-system/internal/infrastructure/queue"
	"github.com/onekingdom/assessment-system/pkg/logger"
)

func main() {
	cfg := config.Load()

	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	if cfg.JWTSecret == "" {
		log.Fatal().Msg("JWT_SECRET is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Storage ---
	client, db, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		log.Fatal().Err(err).Msg("mongo connection failed")
	}
	defer func() { _ = client.Disconnect(context.Background()) }()

	rdb, err := redisdb.Connect(ctx, redisdb.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection failed")
	}
	defer func() { _ = rdb.Close() }()

	identityRepo := mongodb.NewIdentityRepository(db)
	assessmentRepo := mongodb.NewAssessmentRepository(db)
	if err := identityRepo.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("identity index creation failed")
	}
	if err := assessmentRepo.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("assessment index creation failed")
	}

	// --- Outbound notification pipeline ---
	mailer := mail.NewMailer(mail.Config{
		Enabled:  cfg.SMTP.Enabled,
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
	}, log)
	dispatcher := queue.NewDispatcher(cfg.NotifyWorkers, mailer, log)
	dispatcher.Start(ctx)

	// --- Core services ---
	codec := token.NewCodec(cfg.JWTSecret, cfg.TokenTTL)
	limiter := redisdb.NewLoginLimiter(rdb, cfg.LoginMaxFailures, cfg.LoginFailWindow)

	authService := service.NewAuthService(identityRepo, codec, limiter, service.AuthConfig{
		RenewalThreshold: cfg.RenewalThreshold,
		DelayMin:         cfg.LoginDelayMin,
		DelayMax:         cfg.LoginDelayMax,
	}, log)
	userService := service.NewUserService(identityRepo, assessmentRepo, log)
	assessmentService := service.NewAssessmentService(assessmentRepo, identityRepo, dispatcher, cfg.NotifyCooldown, log)

	if err := userService.EnsureDefaultAdmin(ctx, cfg.DefaultAdmin.Username, cfg.DefaultAdmin.Email, cfg.DefaultAdmin.Password); err != nil {
		log.Fatal().Err(err).Msg("default admin bootstrap failed")
	}

	// --- HTTP server ---
	e := api.NewRouter(api.Services{
		Auth:        authService,
		Users:       userService,
		Assessments: assessmentService,
	}, db, rdb, log)

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server stopped")
		}
	}()
	log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("assessment api started")

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
