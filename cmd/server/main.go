package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/akozhevin/accounts-api/internal/config"
	"github.com/akozhevin/accounts-api/internal/cookie"
	"github.com/akozhevin/accounts-api/internal/events"
	"github.com/akozhevin/accounts-api/internal/httpserver"
	"github.com/akozhevin/accounts-api/internal/logging"
	"github.com/akozhevin/accounts-api/internal/repo"
	"github.com/akozhevin/accounts-api/internal/service"
	"github.com/akozhevin/accounts-api/internal/token"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.New(cfg.LogLevel)

	db, err := config.InitDB(cfg)
	if err != nil {
		log.Fatalf("db init failed: %v", err)
	}

	producer := events.NewProducer(cfg.KafkaBrokers, "user_events")

	issuer := &token.Issuer{Secret: cfg.JWTSecret, TTL: cfg.TokenTTL}
	baker := &cookie.Baker{
		Name:   cfg.CookieName,
		Secure: cfg.Production(),
		MaxAge: cfg.CookieMaxAge,
	}
	svc := &service.AuthService{
		Repo:   &repo.UserRepo{DB: db},
		Events: producer,
	}

	e := echo.New()
	e.HideBanner = true
	httpserver.Register(e, &httpserver.Deps{
		AuthHandler: &httpserver.AuthHTTP{Svc: svc, Issuer: issuer, Cookie: baker},
		Logger:      logger,
		CORSOrigins: cfg.CORSOrigins,
		StartedAt:   time.Now(),
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "port", cfg.Port, "env", cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			logger.Error("db close error", "error", err)
		}
	}

	if err := producer.Close(); err != nil {
		logger.Error("kafka close error", "error", err)
	}

	logger.Info("shutdown complete")
}
