package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mtgstone/auth"
	"mtgstone/config"
	"mtgstone/crypto"
	"mtgstone/db"
	"mtgstone/handlers"
	"mtgstone/logger"
)

const shutdownTimeout = 10 * time.Second

func loadConfig() error {
	if err := config.LoadEnvFile(".env"); err != nil {
		logger.Error("failed to load .env", "error", err)
	}

	path := os.Getenv("MTGSTONE_CONFIG")
	if path == "" {
		path = "config.json"
	}
	err := config.LoadConfig(path)
	if errors.Is(err, os.ErrNotExist) {
		logger.Warn("config file not found, using defaults", "path", path)
		return config.LoadDefaults()
	}
	return err
}

func main() {
	if err := loadConfig(); err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.AppConfig

	if err := logger.Configure(logger.Options{
		Level:    cfg.Logging.Level,
		File:     cfg.Logging.File,
		Encoding: cfg.Logging.Encoding,
	}); err != nil {
		logger.Error("failed to configure logger", "error", err)
	}
	defer logger.Sync()

	if cfg.SessionKeyGenerated {
		logger.Warn("no session key configured, using a random one; sessions will not survive a restart")
	}

	store, err := db.Open(cfg.Database, db.Options{
		GormLogLevel: cfg.Logging.GormLevel,
		Timeout:      cfg.RequestTimeout(),
	})
	if err != nil {
		logger.Error("failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	sessions, err := auth.NewManager(cfg.SessionKey, auth.Options{
		MaxAge: cfg.SessionMaxAge(),
		Secure: cfg.SecureCookies,
	})
	if err != nil {
		logger.Error("failed to create session store", "error", err)
		os.Exit(1)
	}

	opts := handlers.Options{
		BcryptCost:        cfg.BcryptCost,
		LoginMaxAttempts:  cfg.LoginMaxAttempts,
		SignupMaxAttempts: cfg.SignupMaxAttempts,
		AllowedOrigins:    cfg.AllowedOrigins,
		SecureCookies:     cfg.SecureCookies,
	}
	if cfg.CSRFEnabled {
		if opts.CSRFKey, err = crypto.DeriveCSRFKey(cfg.SessionKey); err != nil {
			logger.Error("failed to derive csrf key", "error", err)
			os.Exit(1)
		}
	}

	addr := fmt.Sprintf("%s:%d", cfg.ListenIP, cfg.ListenPort)
	srv := &http.Server{
		Addr:              addr,
		Handler:           handlers.New(store, sessions, opts).Router(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", addr, "app", cfg.AppName)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			store.Close()
			logger.Sync()
			os.Exit(1)
		}
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancelShutdown()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", "error", err)
		}
	}
}
