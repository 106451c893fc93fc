package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hrm-gateway/internal/application/directory"
	"github.com/hrm-gateway/internal/application/feed"
	"github.com/hrm-gateway/internal/config"
	"github.com/hrm-gateway/internal/infrastructure/hrapi"
	jwtinfra "github.com/hrm-gateway/internal/infrastructure/jwt"
	"github.com/hrm-gateway/internal/querycache"
	transporthttp "github.com/hrm-gateway/internal/transport/http"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg := config.Load()
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	// The provider is optional: without a public key the gateway serves
	// unauthenticated, which only makes sense for local development.
	var jwtProvider *jwtinfra.Provider
	if p, err := jwtinfra.NewProvider(cfg.JWTPublicKeyPath); err == nil {
		jwtProvider = p
	} else {
		logger.Warn("JWT provider not available, auth disabled", "error", err)
	}

	client := hrapi.NewClient(hrapi.Options{
		BaseURL:    cfg.APIBaseURL,
		Timeout:    cfg.RequestTimeout,
		MaxRetries: cfg.MaxRetries,
		Logger:     logger,
	})

	cache := querycache.NewService(querycache.ServiceOptions{Logger: logger})
	mutator := querycache.NewMutator(cache, logger)

	feedSvc := feed.NewService(feed.ServiceDeps{
		Cache:               cache,
		Mutator:             mutator,
		Notifications:       hrapi.NewNotificationAPI(client),
		Leaves:              hrapi.NewLeaveAPI(client),
		Logger:              logger,
		RefetchInterval:     cfg.NotificationRefetchInterval,
		SessionTTL:          cfg.SessionTTL,
		SurfaceReadFailures: cfg.SurfaceReadFailures,
	})
	defer feedSvc.Stop()

	directorySvc := directory.NewService(directory.ServiceDeps{
		Cache:     cache,
		Mutator:   mutator,
		Employees: hrapi.NewEmployeeAPI(client),
		Holidays:  hrapi.NewHolidayAPI(client),
		Logger:    logger,
	})

	router := transporthttp.NewRouter(cfg, &transporthttp.Deps{
		Feed:        feedSvc,
		Directory:   directorySvc,
		JWTProvider: jwtProvider,
		Logger:      logger,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("gateway starting", "port", cfg.AppPort, "env", cfg.AppEnv, "upstream", cfg.APIBaseURL)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("forced shutdown: %v", err)
	}
	logger.Info("gateway stopped")
}
