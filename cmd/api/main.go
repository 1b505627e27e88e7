package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"firebase.google.com/go/v4/auth"

	"github.com/worklog-hq/worklog-backend/config"
	"github.com/worklog-hq/worklog-backend/internal/activities/cache"
	"github.com/worklog-hq/worklog-backend/internal/activities/repository"
	"github.com/worklog-hq/worklog-backend/internal/activities/service"
	httpapi "github.com/worklog-hq/worklog-backend/internal/api/http"
	"github.com/worklog-hq/worklog-backend/internal/api/http/middleware"
	authpkg "github.com/worklog-hq/worklog-backend/internal/auth"
	authmw "github.com/worklog-hq/worklog-backend/internal/auth/middleware"
	"github.com/worklog-hq/worklog-backend/internal/bootstrap"
	"github.com/worklog-hq/worklog-backend/internal/observability"
	"github.com/worklog-hq/worklog-backend/internal/users"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	bootstrap.SetGinMode(cfg.App.Environment)

	loc, err := cfg.Location()
	if err != nil {
		log.Fatalf("timezone: %v", err)
	}

	ctx := context.Background()
	dbOpts := bootstrap.DBOptions{DSN: cfg.Database.DSN(), MaxConns: cfg.Database.MaxConns}

	pool, err := bootstrap.OpenDB(ctx, dbOpts)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer pool.Close()

	sqlDB, err := bootstrap.OpenSQL(ctx, dbOpts)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer sqlDB.Close()

	userRepo := users.NewRepo(pool)
	opts := []service.Option{
		service.WithLocation(loc),
		service.WithObserver(observability.ActivityMetrics{}),
	}

	var cachePinger httpapi.Pinger
	redisClient, err := bootstrap.OpenRedis(ctx, cfg.Redis)
	if err != nil {
		log.Printf("[warn] redis unavailable, dashboards are not cached: %v", err)
	} else if redisClient != nil {
		defer redisClient.Close()
		dc := cache.NewDashboardCache(redisClient, cfg.Redis.DashboardTTL)
		opts = append(opts, service.WithCache(dc))
		cachePinger = dc
	}

	var verifier authmw.TokenVerifier
	if cfg.DevAuth() {
		log.Println("[warn] FIREBASE_CREDENTIALS_PATH not set, using development header auth")
	} else {
		var client *auth.Client
		client, err = authpkg.InitializeFirebase(ctx, &cfg.Firebase)
		if err != nil {
			log.Fatalf("firebase: %v", err)
		}
		verifier = client
	}

	svc := service.NewActivityService(repository.NewActivityRepository(sqlDB), userRepo, opts...)

	router := bootstrap.BuildRouter(bootstrap.RouterDeps{
		ServiceName: "worklog-backend",
		Version:     cfg.App.Version,
		CORSOrigins: cfg.App.CORSOrigins,
		DB:          pool,
		Cache:       cachePinger,
		Verifier:    verifier,
		Users:       userRepo,
		Activities:  svc,
		Limiter:     middleware.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("listening on :%s (env=%s tz=%s)", cfg.Server.Port, cfg.App.Environment, loc)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[error] shutdown: %v", err)
	}
}
