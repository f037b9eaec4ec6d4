package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/dkazancev/product_catalog/internal/cache"
	"github.com/dkazancev/product_catalog/internal/catalog"
	"github.com/dkazancev/product_catalog/internal/config"
	"github.com/dkazancev/product_catalog/internal/es"
	"github.com/dkazancev/product_catalog/internal/handlers"
	"github.com/dkazancev/product_catalog/internal/logging"
	authmw "github.com/dkazancev/product_catalog/internal/middleware/auth"
	loggingmw "github.com/dkazancev/product_catalog/internal/middleware/logging"
	"github.com/dkazancev/product_catalog/internal/mykafka"
	"github.com/dkazancev/product_catalog/internal/repo"
	httpserver "github.com/dkazancev/product_catalog/internal/transport/http"
)

func main() {
	configuration, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.New(configuration.LOG_LEVEL).With("service", "product_catalog")
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	db, err := config.InitDB(ctx, configuration)
	cancel()
	if err != nil {
		log.Fatalf("db init: %v", err)
	}

	redisCache := cache.NewRedis(cache.RedisConfig{
		Addr:     configuration.REDIS_ADDR,
		DB:       configuration.REDIS_DB,
		Password: configuration.REDIS_PASSWORD,
	}, logger)

	pingCtx, pingCancel := context.WithTimeout(context.Background(), 3*time.Second)
	if err := redisCache.Ping(pingCtx); err != nil {
		logger.Warn("redis unreachable, list caching degraded", "error", err)
	}
	pingCancel()

	prod := mykafka.NewProducer([]string{configuration.KAFKA_ADDRESS})

	repository := repo.New(db)
	svc := &catalog.CatalogService{
		Repo:  repository,
		Cache: redisCache,
		TTL:   configuration.CACHE_TTL,
	}

	deps := &httpserver.Deps{
		AuthHandler: &handlers.AuthHandler{
			Repo:      repository,
			JWTSecret: []byte(configuration.JWT_SECRET),
			Producer:  prod,
		},
		ProductHandler: &handlers.ProductHandler{Svc: svc, Producer: prod},
		Auth:           authmw.New([]byte(configuration.JWT_SECRET)),
	}
	deps.ImageHandler = &handlers.ImageHandler{
		Products:  deps.ProductHandler,
		UploadDir: configuration.UPLOAD_DIR,
	}

	if configuration.ES_URL != "" {
		esClient, err := es.NewClient(configuration)
		if err != nil {
			logger.Warn("elasticsearch unavailable, search disabled", "error", err)
		} else {
			deps.SearchHandler = &handlers.SearchHandler{ES: esClient, Index: "products"}
		}
	}

	e := echo.New()
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID())
	e.Use(loggingmw.RequestLogger(logger))

	httpserver.Register(e, deps)

	srv := &http.Server{
		Addr:         ":8080",
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("http server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			log.Printf("db close error: %v", err)
		}
	}

	if err := redisCache.Close(); err != nil {
		log.Printf("redis close error: %v", err)
	}

	if err := prod.Close(); err != nil {
		log.Printf("kafka close error: %v", err)
	}

	log.Println("shutdown complete")
}
