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
	"github.com/labstack/echo/v4/middleware"

	"github.com/velvetoven/pastry_shop/internal/catalog"
	"github.com/velvetoven/pastry_shop/internal/config"
	"github.com/velvetoven/pastry_shop/internal/events"
	"github.com/velvetoven/pastry_shop/internal/httpserver"
	"github.com/velvetoven/pastry_shop/internal/kvstore"
	"github.com/velvetoven/pastry_shop/internal/logging"
	"github.com/velvetoven/pastry_shop/internal/middleware/loggingmw"
	"github.com/velvetoven/pastry_shop/internal/orders"
	"github.com/velvetoven/pastry_shop/internal/search"
	"github.com/velvetoven/pastry_shop/internal/users"
)

func main() {
	cfg := config.Load()
	config.MustNonEmptyBytes(cfg.JWTSecret, "JWT_SECRET")

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)

	initCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	db, err := config.OpenDB(initCtx, cfg)
	cancel()
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}

	backend, err := kvstore.NewGormBackend(db)
	if err != nil {
		log.Fatalf("kv backend init error: %v", err)
	}
	store := kvstore.New(backend, logger)

	cat := catalog.NewService(store)
	userRepo := users.NewRepo(store)
	orderSvc := orders.NewService(store, cat)
	producer := events.NewProducer(cfg.KafkaBrokers, logger)

	deps := &httpserver.Deps{
		AuthHandler: &httpserver.AuthHandler{
			Users:     userRepo,
			Store:     store,
			Catalog:   cat,
			Producer:  producer,
			JWTSecret: cfg.JWTSecret,
		},
		CartHandler: &httpserver.CartHandler{
			Store:     store,
			Catalog:   cat,
			Orders:    orderSvc,
			Producer:  producer,
			JWTSecret: cfg.JWTSecret,
		},
		ProductHandler: &httpserver.ProductHandler{
			Catalog:  cat,
			Producer: producer,
			ESIndex:  cfg.ESIndex,
		},
		ProfileHandler: &httpserver.ProfileHandler{Users: userRepo},
		SearchHandler:  &httpserver.SearchHandler{Catalog: cat, ESIndex: cfg.ESIndex},
		JWTSecret:      cfg.JWTSecret,
	}

	if cfg.ESURL != "" {
		es, err := search.NewClient(cfg.ESURL, cfg.ESUser, cfg.ESPassword)
		if err != nil {
			log.Fatalf("elasticsearch init error: %v", err)
		}
		deps.ProductHandler.ES = es
		deps.SearchHandler.ES = es
	}

	e := echo.New()
	e.HideBanner = true
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID(), middleware.CORS())
	e.Use(loggingmw.RequestLogger(logger))

	httpserver.Register(e, deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("starting server", "port", cfg.ServerPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server error: %v", err)
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
