package server

import (
	"fmt"
	"net/http"
	"time"

	"marketplace/internal/config"
	"marketplace/internal/database"
	custommiddleware "marketplace/internal/middleware"
	"marketplace/internal/repository"
	"marketplace/internal/service"
	"marketplace/internal/storage"
	"marketplace/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Server struct {
	*http.Server
	config *config.Config
	logger *zap.Logger
	db     database.Service
	redis  *redis.Client
}

func NewServer(cfg *config.Config, logger *zap.Logger, dbService database.Service) *Server {
	// Create router
	router := chi.NewRouter()

	// Add basic middleware
	router.Use(custommiddleware.DefaultMiddlewareStack()...)
	router.Use(custommiddleware.ErrorHandlingMiddleware(logger))
	router.Use(custommiddleware.LoggingMiddleware(logger))
	router.Use(custommiddleware.CORSMiddleware(cfg.Server.AllowedOrigins, cfg.Server.IsDevelopment()))

	// Health check endpoint
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		health := dbService.Health(r.Context())
		status := http.StatusOK
		if health["status"] != "up" {
			status = http.StatusServiceUnavailable
		}
		custommiddleware.RespondWithJSON(w, status, map[string]interface{}{
			"status":   health["status"],
			"database": health,
		})
	})

	// Initialize repositories
	db := dbService.DB()
	productRepo := repository.NewProductRepository(db)
	favouriteRepo := repository.NewFavouriteRepository(db)
	reviewRepo := repository.NewReviewRepository(db)
	profileRepo := repository.NewProfileRepository(db)

	// Initialize services
	productService := service.NewProductService(productRepo, logger)
	favouriteService := service.NewFavouriteService(favouriteRepo, productRepo, profileRepo, reviewRepo)
	reviewService := service.NewReviewService(reviewRepo, productRepo)

	// Image storage is optional
	var images transport.ImageStore
	if cfg.Storage.Enabled() {
		images = storage.NewImageStore(storage.NewS3Client(cfg.Storage), cfg.Storage, logger)
	} else {
		logger.Warn("S3_BUCKET not set, image uploads are disabled")
	}

	// Initialize handlers
	productHandler := transport.NewProductHandler(productService, logger)
	dashboardHandler := transport.NewDashboardHandler(productService, logger)
	favouriteHandler := transport.NewFavouriteHandler(favouriteService, logger)
	reviewHandler := transport.NewReviewHandler(reviewService, logger)
	uploadHandler := transport.NewUploadHandler(images, logger)

	// Create auth middleware
	authMiddleware := custommiddleware.AuthMiddleware(cfg.JWT.Secret, logger)

	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	// Register routes
	router.Group(func(r chi.Router) {
		if redisClient != nil {
			r.Use(custommiddleware.RateLimitMiddleware(redisClient, custommiddleware.RateLimitConfig{
				RequestsPerWindow: cfg.RateLimit.Requests,
				Window:            cfg.RateLimit.Window,
				KeyPrefix:         "marketplace_rate_limit",
			}, logger))
		}

		productHandler.RegisterRoutes(r, authMiddleware)
		dashboardHandler.RegisterRoutes(r, authMiddleware)
		favouriteHandler.RegisterRoutes(r, authMiddleware)
		reviewHandler.RegisterRoutes(r, authMiddleware)
		uploadHandler.RegisterRoutes(r, authMiddleware)
	})

	server := &Server{
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
			Handler:      router,
			IdleTimeout:  time.Minute,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		config: cfg,
		logger: logger,
		db:     dbService,
		redis:  redisClient,
	}

	return server
}

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	// Close database connection
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("Failed to close database connection", zap.Error(err))
		}
	}

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Error("Failed to close redis connection", zap.Error(err))
		}
	}

	s.logger.Sync()
	return nil
}
