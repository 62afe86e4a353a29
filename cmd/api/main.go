package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/loan-admin-api/internal/application/verification"
	"github.com/loan-admin-api/internal/config"
	"github.com/loan-admin-api/internal/infrastructure/dynamo"
	jwtinfra "github.com/loan-admin-api/internal/infrastructure/jwt"
	"github.com/loan-admin-api/internal/infrastructure/memory"
	"github.com/loan-admin-api/internal/infrastructure/smtp"
	"github.com/loan-admin-api/internal/infrastructure/sns"
	"github.com/loan-admin-api/internal/pkg/logging"
	transporthttp "github.com/loan-admin-api/internal/transport/http"
)

func main() {
	envErr := godotenv.Load()
	cfg := config.Load()
	logging.Setup(cfg.LogLevel)
	if envErr != nil {
		slog.Info("no .env file found, reading from environment")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dynamoClient, err := dynamo.NewClient(ctx, cfg)
	if err != nil {
		fatal("dynamodb client", err)
	}
	// Creates missing tables; existing ones are left alone.
	dynamo.Bootstrap(ctx, dynamoClient, cfg.DynamoTables)

	// Without signing keys nothing behind the auth middleware can work.
	jwtProvider, err := jwtinfra.NewProvider(cfg)
	if err != nil {
		fatal("jwt provider", err)
	}

	// SNS SMS sender (optional; phone verification fails until it is configured).
	var smsSender sns.SMSSender
	if sender, err := sns.NewSender(ctx, cfg); err == nil {
		smsSender = sender
	} else {
		slog.Warn("SNS sender not available", "err", err)
	}

	var store transporthttp.VerificationStore
	switch cfg.VerificationStore {
	case config.StoreMemory:
		slog.Warn("verification records are held in memory and lost on restart")
		store = memory.NewVerificationStore()
	default:
		store = dynamo.NewVerificationRepo(dynamoClient, cfg.DynamoTables.Verifications)
	}
	engine := verification.NewEngine(store)
	go verification.NewSweeper(engine, cfg.VerificationCleanupInterval).Run(ctx)

	deps := &transporthttp.Deps{
		StaffRepo:        dynamo.NewStaffRepo(dynamoClient, cfg.DynamoTables.Staff),
		SessionRepo:      dynamo.NewSessionRepo(dynamoClient, cfg.DynamoTables.Sessions),
		OrganisationRepo: dynamo.NewOrganisationRepo(dynamoClient, cfg.DynamoTables.Organisations),
		PlanRepo:         dynamo.NewPlanRepo(dynamoClient, cfg.DynamoTables.SubscriptionPlans),
		RoleRepo:         dynamo.NewRoleRepo(dynamoClient, cfg.DynamoTables.Roles),
		Verifications:    engine,
		Mailer:           smtp.NewMailer(cfg),
		SMSSender:        smsSender,
		JWTProvider:      jwtProvider,
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      transporthttp.NewRouter(cfg, deps),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "port", cfg.AppPort, "env", cfg.AppEnv, "verification_store", cfg.VerificationStore)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal("server error", err)
		}
	}()

	<-ctx.Done()

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		fatal("forced shutdown", err)
	}
	slog.Info("server stopped")
}

func fatal(msg string, err error) {
	slog.Error(msg, "err", err)
	os.Exit(1)
}
