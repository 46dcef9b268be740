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

	httpMetrics "movieReco/app/echo-server/metrics"
	"movieReco/app/echo-server/router"
	"movieReco/business/collab"
	"movieReco/business/exploration"
	"movieReco/business/feedback"
	"movieReco/business/hybrid"
	"movieReco/business/poster"
	"movieReco/business/semantic"
	userService "movieReco/business/user"
	"movieReco/domain"
	"movieReco/internal/middleware"
	"movieReco/internal/repository/boltdb"
	"movieReco/internal/repository/catalog"
	"movieReco/internal/repository/embedding"
	psqlRepo "movieReco/internal/repository/postgres"
	redisRepo "movieReco/internal/repository/redis"
	"movieReco/internal/repository/tmdb"
	"movieReco/internal/rest"
	"movieReco/pkg/config"
	"movieReco/pkg/database"
	redisdb "movieReco/pkg/database/redis"
	"movieReco/pkg/logger"
	"movieReco/pkg/metrics"
	"movieReco/pkg/utils"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(cfg.App.Environment)
	logger.Info("Starting movieReco", "version", cfg.App.Version)

	metrics.Init()
	httpMetrics.Init()
	utils.InitJWT(cfg.JWT.SecretKey, cfg.JWT.TTL)

	db, err := database.InitPostgres(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}
	if err := database.Migrate(db, &domain.User{}, &domain.FeedbackEvent{}); err != nil {
		logger.Fatal("Failed to migrate database", "error", err)
	}

	logger.Info("Database connected successfully")

	// Init repo
	userRepo := psqlRepo.NewUserRepository(db)
	feedbackRepo := psqlRepo.NewFeedbackRepository(db)
	movieCatalog := catalog.NewFileCatalog(cfg.Index.CatalogPath)

	indexStore, err := boltdb.NewIndexStore(cfg.Index.BoltPath)
	if err != nil {
		logger.Fatal("Failed to open index store", "error", err)
	}
	defer indexStore.Close()

	embedder, err := embedding.New(cfg.Embedding)
	if err != nil {
		logger.Fatal("Failed to init embedder", "error", err)
	}

	// Init shared state
	index := semantic.NewService(embedder, indexStore, feedbackRepo, semantic.Options{
		BatchSize:         cfg.Embedding.BatchSize,
		Workers:           cfg.Embedding.Workers,
		ClampPersonalized: cfg.Recommender.ClampPersonalized,
	})
	state := &hybrid.State{
		Index: index,
		Model: collab.NewModel(collab.Config{
			Neighbours:    cfg.Recommender.Neighbours,
			MinNeighbours: cfg.Recommender.MinNeighbours,
			Similarity:    cfg.Recommender.Similarity,
		}),
		Ledger: exploration.NewLedger(),
	}

	startCtx, cancelStart := context.WithTimeout(context.Background(), 30*time.Minute)
	items, err := movieCatalog.Load(startCtx)
	if err != nil {
		logger.Fatal("Failed to load catalog", "error", err)
	}
	rebuilt, err := state.Index.Open(startCtx, items)
	if err != nil {
		logger.Fatal("Failed to open semantic index", "error", err)
	}
	logger.Info("Semantic index ready", "items", state.Index.Len(), "rebuilt", rebuilt)

	reducer := feedback.NewReducer(feedbackRepo, state.Model, state.Ledger)
	if err := reducer.Bootstrap(startCtx); err != nil {
		logger.Fatal("Failed to restore feedback state", "error", err)
	}
	cancelStart()

	runCtx, stopReducer := context.WithCancel(context.Background())
	defer stopReducer()
	go func() {
		if err := reducer.Run(runCtx); err != nil && err != context.Canceled {
			logger.Error("Feedback reducer stopped", "error", err)
		}
	}()

	// Poster lookup is optional
	var posterSearcher poster.Searcher
	if cfg.TMDB.APIKey != "" {
		posterSearcher = tmdb.NewClient(cfg.TMDB)
	} else {
		logger.Warn("TMDB_API_KEY not set, posters disabled")
	}
	var posterCache poster.Cache
	redisClient, err := redisdb.Open(context.Background(), cfg.Redis)
	switch {
	case errors.Is(err, redisdb.ErrDisabled):
		logger.Info("REDIS_HOST not set, poster cache disabled")
	case err != nil:
		logger.Warn("Redis unavailable, poster cache disabled", "error", err)
	default:
		defer redisdb.Close(redisClient)
		posterCache = redisRepo.NewPosterCache(redisClient, cfg.Redis.PosterTTL)
	}

	// Init service
	validate := validator.New()
	policy := exploration.NewEpsilonGreedy(cfg.Recommender.Epsilon, cfg.Recommender.Seed)
	hybridService := hybrid.NewHybridService(state.Index, state.Model, state.Ledger, policy, hybrid.Config{
		DefaultTopK:         cfg.Recommender.TopK,
		CandidateMultiplier: cfg.Recommender.CandidateMultiplier,
	})
	userSvc := userService.NewUserService(userRepo, feedbackRepo, state.Index, validate)
	posterService := poster.NewService(posterSearcher, posterCache, cfg.TMDB.ImageBaseURL)

	// Init handler
	userHandler := rest.NewUserHandler(userSvc)
	recommendHandler := rest.NewRecommendHandler(hybridService, state.Index, cfg.Recommender.Alpha, cfg.Recommender.TopK)
	feedbackHandler := rest.NewFeedbackHandler(reducer, state.Index)
	posterHandler := rest.NewPosterHandler(posterService)
	adminHandler := rest.NewAdminHandler(movieCatalog, state.Index, state)

	// Init echo
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// HTTP error handler
	e.HTTPErrorHandler = middleware.ErrorHandler

	// Global middleware
	e.Use(echomiddleware.Recover())
	e.Use(middleware.TraceID())
	e.Use(httpMetrics.Middleware())
	if cfg.Server.RequestTimeout > 0 {
		e.Use(echomiddleware.ContextTimeout(cfg.Server.RequestTimeout))
	}
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: []string{"http://localhost:3000", "http://localhost:8080"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, middleware.HeaderRequestID},
	}))

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Setup routes
	authRequired := middleware.AuthMiddleware()
	api := e.Group("/api/v1")
	router.SetupUserRoutes(api, userHandler, authRequired)
	router.SetRecommendRoutes(api, recommendHandler, authRequired)
	router.SetFeedbackRoutes(api, feedbackHandler)
	router.SetPosterRoutes(api, posterHandler)
	router.SetAdminRoutes(e, api, adminHandler)

	// Goroutine server
	go func() {
		addr := fmt.Sprintf(":%s", cfg.Server.Port)
		logger.Info("Server starting", "address", addr)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", "error", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Shutdown server
	if err := e.Shutdown(ctx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}
	stopReducer()

	logger.Info("Server stopped", "pending_feedback", reducer.Pending())
}
