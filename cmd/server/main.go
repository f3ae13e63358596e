package main

import (
	"context"
	"log"
	"time"

	"messenger-backend/internal/identity"
	"messenger-backend/internal/server"
	"messenger-backend/internal/storage"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

type authConfig struct {
	GoogleClientID string `env:"GOOGLE_CLIENT_ID"`
}

func main() {
	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("zap.NewDevelopment: %v", err)
	}
	defer logger.Sync()

	sugar := logger.Sugar()
	sugar.Info("Application is starting")

	// a missing .env is fine, environment variables then rule alone
	if err := godotenv.Load(); err == nil {
		sugar.Info("Loaded environment from .env")
	}

	serverCfg := server.EnvConfig{}
	if err := env.Parse(&serverCfg); err != nil {
		sugar.Fatalf("Cannot parse server env config: %v", err)
	}

	storageCfg := storage.Config{}
	if err := env.Parse(&storageCfg); err != nil {
		sugar.Fatalf("Cannot parse storage env config: %v", err)
	}

	authCfg := authConfig{}
	if err := env.Parse(&authCfg); err != nil {
		sugar.Fatalf("Cannot parse auth env config: %v", err)
	}

	if err := storage.Migrate(storageCfg, "migrations"); err != nil {
		sugar.Fatalf("Cannot apply migrations: %v", err)
	}

	store, err := storage.NewStore(context.Background(), sugar, storageCfg, storage.ConnectionTimeout(30*time.Second))
	if err != nil {
		sugar.Fatalf("Cannot create Store instance: %v", err)
	}

	var verifier identity.Verifier
	if authCfg.GoogleClientID != "" {
		verifier = identity.NewGoogleVerifier(authCfg.GoogleClientID)
	} else {
		sugar.Info("GOOGLE_CLIENT_ID is not set, identity-token login is disabled")
	}

	serverOpts := []server.Option{
		server.WithEnvConfig(serverCfg),
		server.ReadTimeout(5 * time.Second),
		server.TimeoutHandler(10*time.Second, `{"error": "Request timed out"}`),
		server.RegisterAfterShutdown(func() {
			sugar.Info("Closing store")
			store.Close()
			sugar.Info("Store is closed")
		}),
	}

	srv, err := server.NewServer(sugar, store, verifier, serverOpts...)
	if err != nil {
		sugar.Fatalf("Cannot create Server instance: %v", err)
	}

	if err := srv.Start(); err != nil {
		sugar.Fatalf("Cannot start http srv: %v", err)
	}
}
