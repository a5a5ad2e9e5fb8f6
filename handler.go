package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"lg/fittrack-api/internal/config"
	"lg/fittrack-api/internal/logger"
	"lg/fittrack-api/internal/nutrition"
)

// Handler holds shared dependencies for all route handlers.
type Handler struct {
	store      *pgStore
	summaries  *nutrition.Aggregator
	loc        *time.Location
	log        *logger.Logger
	ai         *aiClient
	recognizer *foodRecognizer
	photos     photoStore // nil when no bucket is configured
	hub        *notifyHub
	jwtSecret  []byte
	tokenTTL   time.Duration
}

// newHandler wires the handler from config. photos may be nil.
func newHandler(cfg *config.Config, pool *pgxpool.Pool, loc *time.Location, l *logger.Logger, photos photoStore) *Handler {
	store := &pgStore{pool: pool}
	return &Handler{
		store:      store,
		summaries:  nutrition.NewAggregator(store, loc),
		loc:        loc,
		log:        l,
		ai:         newAIClient(cfg.OpenAI.APIKey, cfg.OpenAI.Model, cfg.OpenAI.BaseURL),
		recognizer: newFoodRecognizer(cfg.Recognition.URL, cfg.Recognition.Timeout),
		photos:     photos,
		hub:        newNotifyHub(l),
		jwtSecret:  []byte(cfg.Auth.JWTSecret),
		tokenTTL:   cfg.Auth.TokenTTL,
	}
}

// apiError returns a consistent JSON error response: {"error": "message"}.
func apiError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

// parseDay parses a YYYY-MM-DD query value as local midnight. An empty value
// means today.
func (h *Handler) parseDay(value string) (time.Time, error) {
	if value == "" {
		return h.summaries.DayStart(time.Now()), nil
	}
	return time.ParseInLocation("2006-01-02", value, h.loc)
}

/* ─── Server setup ────────────────────────────────────────────────────── */

// getDBPool creates a connection pool and verifies it with a ping.
func getDBPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DB.URL)
	if err != nil {
		return nil, fmt.Errorf("parse DB URL: %w", err)
	}
	if cfg.DB.MaxConns > 0 {
		poolConfig.MaxConns = cfg.DB.MaxConns
	}
	// Use simple query protocol to avoid "cached plan must not change result type"
	// errors from server-side prepared statement caches after schema changes.
	poolConfig.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// requestLogger logs one line per request through zap.
func (h *Handler) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		h.log.Infow("request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
			"user_id", c.GetInt("user_id"),
		)
	}
}

// recovery turns panics into a 500 and logs them.
func (h *Handler) recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, err any) {
		h.log.Errorw("panic while handling request", "path", c.Request.URL.Path, "error", err)
		apiError(c, http.StatusInternalServerError, "internal error")
	})
}

// registerRoutes registers all API routes on the router.
func (h *Handler) registerRoutes(router *gin.Engine) {
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Public routes
	router.POST("/api/register", h.register)
	router.POST("/api/login", h.login)

	// Authenticated routes
	api := router.Group("/api", h.authMiddleware())
	api.GET("/profile", h.getProfile)
	api.PATCH("/profile", h.patchProfile)
	api.GET("/profile/targets", h.getTargets)
	api.POST("/food-intake", h.createIntake)
	api.GET("/food-intake", h.listIntake)
	api.DELETE("/food-intake/:id", h.deleteIntake)
	api.POST("/exercise", h.createExercise)
	api.GET("/exercise", h.listExercise)
	api.DELETE("/exercise/:id", h.deleteExercise)
	api.GET("/summary/daily", h.getDailySummary)
	api.GET("/summary/weekly", h.getWeeklySummary)
	api.GET("/dashboard", h.getDashboard)
	api.GET("/stats/progress", h.getProgress)
	api.GET("/stats/earliest-date", h.getEarliestLogDate)
	api.GET("/weight-log", h.getWeightLog)
	api.POST("/weight-log", h.upsertWeightEntry)
	api.PUT("/weight-log/:id", h.updateWeightEntry)
	api.DELETE("/weight-log/:id", h.deleteWeightEntry)
	api.POST("/suggest", h.suggestEntry)
	api.GET("/coach/messages", h.getCoachMessages)
	api.POST("/coach/messages", h.postCoachMessage)
	api.POST("/food/recognize", h.recognizeFood)
	api.GET("/ws", h.connectEvents)
}
