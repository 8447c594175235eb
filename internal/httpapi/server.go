package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/thebudgetway/budgetway/internal/planner"
)

// Run boots the HTTP API and serves until the context is cancelled.
func Run(ctx context.Context, cfg Config, service *planner.Service, logger *zap.Logger) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	sessions, err := NewSessionManager(cfg)
	if err != nil {
		return err
	}

	handler := &httpHandler{
		logger:   logger,
		service:  service,
		sessions: sessions,
	}
	router := setupRouter(cfg, handler, sessions)

	server := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("budgetway api listening", zap.String("addr", cfg.ListenAddr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := server.Shutdown(shutdownCtx); shutdownErr != nil {
			logger.Warn("server shutdown error", zap.Error(shutdownErr))
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func setupRouter(cfg Config, handler *httpHandler, sessions *SessionManager) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Origin", "Accept", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/healthz", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.POST("/session", handler.handleCreateSession)

	api := router.Group("/api")
	api.Use(sessions.GinMiddleware())

	api.GET("/journey", handler.handleJourney)
	api.POST("/allocations/preview", handler.handlePreviewAllocation)
	api.POST("/allocations/apply", handler.handleApplyAllocation)
	api.GET("/envelopes", handler.handleListEnvelopes)
	api.POST("/envelopes", handler.handleCreateEnvelope)
	api.PUT("/envelopes/:envelope_id", handler.handleUpdateEnvelope)
	api.DELETE("/envelopes/:envelope_id", handler.handleDeleteEnvelope)
	api.GET("/debt", handler.handleGetDebt)
	api.PUT("/debt", handler.handleSetDebt)
	api.GET("/runs", handler.handleListRuns)

	return router
}
