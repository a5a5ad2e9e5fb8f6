package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"

	"lg/fittrack-api/internal/config"
	"lg/fittrack-api/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.NewDevelopment().Fatalw("load config", "error", err)
	}

	var l *logger.Logger
	if cfg.App.Env == "development" {
		l = logger.NewDevelopment()
	} else {
		l = logger.New(cfg.App.LogLevel)
		gin.SetMode(gin.ReleaseMode)
	}
	defer l.Sync()

	if err := cfg.Validate(); err != nil {
		l.Fatalw("invalid config", "error", err)
	}
	loc, err := cfg.Location()
	if err != nil {
		l.Fatalw("invalid timezone", "error", err)
	}

	ctx := context.Background()
	pool, err := getDBPool(ctx, cfg)
	if err != nil {
		l.Fatalw("connect to database", "error", err)
	}
	defer pool.Close()

	var photos photoStore
	if cfg.S3.Bucket != "" {
		store, err := newS3PhotoStore(ctx, cfg.S3.Bucket, cfg.S3.Region, cfg.S3.PublicURL)
		if err != nil {
			l.Fatalw("configure photo storage", "error", err)
		}
		photos = store
	}

	h := newHandler(cfg, pool, loc, l, photos)

	router := gin.New()
	router.Use(h.recovery(), h.requestLogger())
	router.SetTrustedProxies(nil)
	h.registerRoutes(router)

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: false,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      c.Handler(router),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		l.Infow("starting server", "addr", srv.Addr, "timezone", loc.String())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	l.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		l.Errorw("server shutdown", "error", err)
	}
}
