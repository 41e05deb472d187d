package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"github.com/husnain-lab-solutions/deepfakenews-detectionapp/internal/config"
	"github.com/husnain-lab-solutions/deepfakenews-detectionapp/internal/handler"
	"github.com/husnain-lab-solutions/deepfakenews-detectionapp/internal/middleware"
	"github.com/husnain-lab-solutions/deepfakenews-detectionapp/internal/repository"
	"github.com/husnain-lab-solutions/deepfakenews-detectionapp/internal/service"
)

const shutdownTimeout = 15 * time.Second

type Server struct {
	router *gin.Engine
	db     *sqlx.DB
	cfg    *config.Config
	tokens service.TokenService
	ml     service.InferenceClient
	logger *zap.Logger
}

func NewServer(db *sqlx.DB, cfg *config.Config, tokens service.TokenService, ml service.InferenceClient, logger *zap.Logger) *Server {
	router := gin.New()
	router.MaxMultipartMemory = cfg.Server.MaxUploadBytes
	router.Use(
		gin.Recovery(),
		middleware.RequestID(),
		otelgin.Middleware(cfg.Tracing.ServiceName),
		middleware.RequestLogger(logger),
		corsMiddleware(cfg.Server.CORSOrigins),
	)

	s := &Server{
		router: router,
		db:     db,
		cfg:    cfg,
		tokens: tokens,
		ml:     ml,
		logger: logger,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	authRepo := repository.NewAuthRepository(s.db, s.logger)
	predictionRepo := repository.NewPredictionRepository(s.db, s.logger)

	authService := service.NewAuthService(authRepo, s.tokens, s.logger)
	predictionService := service.NewPredictionService(s.ml, predictionRepo, service.PredictionOptions{
		PreflightHealthCheck: s.cfg.PreflightEnabled(),
	}, s.logger)

	authHandler := handler.NewAuthHandler(authService, s.logger)
	predictHandler := handler.NewPredictHandler(predictionService, s.cfg.Server.MaxUploadBytes, s.logger)
	historyHandler := handler.NewHistoryHandler(predictionRepo, s.logger)
	statusHandler := handler.NewStatusHandler(s.ml)

	s.router.GET("/ping", statusHandler.Ping)

	api := s.router.Group("/api")
	api.GET("/status", statusHandler.Status)

	authGroup := api.Group("/auth")
	authGroup.POST("/register", authHandler.Register)
	authGroup.POST("/login", authHandler.Login)

	authRequired := api.Group("")
	authRequired.Use(middleware.AuthMiddleware(s.tokens, s.logger))
	{
		authRequired.GET("/auth/me", authHandler.Me)
		authRequired.POST("/predict/text", predictHandler.PredictText)
		authRequired.POST("/predict/image", predictHandler.PredictImage)
		authRequired.GET("/history", historyHandler.List)
	}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Server.Port,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Server starting", zap.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Authorization", "Content-Type", "X-Requested-With", middleware.HeaderRequestID},
		ExposeHeaders: []string{middleware.HeaderRequestID},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cors.New(cfg)
}
