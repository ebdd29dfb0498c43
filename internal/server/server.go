package server

import (
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/aecioaam/sistema-de-pedidos/internal/config"
	custommiddleware "github.com/aecioaam/sistema-de-pedidos/internal/middleware"
	"github.com/aecioaam/sistema-de-pedidos/internal/realtime"
	"github.com/aecioaam/sistema-de-pedidos/internal/receipt"
	"github.com/aecioaam/sistema-de-pedidos/internal/repository"
	"github.com/aecioaam/sistema-de-pedidos/internal/service"
	"github.com/aecioaam/sistema-de-pedidos/internal/storage"
	"github.com/aecioaam/sistema-de-pedidos/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Server struct {
	*http.Server
	config *config.Config
	logger *zap.Logger
	db     *sql.DB
	redis  *redis.Client
	Hub    *realtime.Hub
	Users  service.UserService
}

func NewServer(cfg *config.Config, logger *zap.Logger, db *sql.DB, redisClient *redis.Client) *Server {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Compress(5))
	router.Use(custommiddleware.CORSMiddleware(nil, cfg.Server.Env != "production"))
	router.Use(custommiddleware.LoggingMiddleware(logger))
	router.Use(custommiddleware.ErrorHandlingMiddleware(logger))

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Repositories
	userRepo := repository.NewUserRepository(db)
	refreshTokenRepo := repository.NewRefreshTokenRepository(db)
	productRepo := repository.NewProductRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	neighborhoodRepo := repository.NewNeighborhoodRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)
	sessionRepo := repository.NewSessionRepository(redisClient)

	// Realtime hub, started by main
	hub := realtime.NewHub(redisClient, logger)

	// Image storage
	images := storage.NewImageStore(cfg.Store.UploadDir, cfg.Store.PublicBaseURL)

	// Services
	userService := service.NewUserService(userRepo, refreshTokenRepo, cfg.JWT.Secret)
	catalogService := service.NewCatalogService(productRepo, categoryRepo, neighborhoodRepo, logger)
	settingsService := service.NewSettingsService(settingsRepo, hub, logger)
	orderService := service.NewOrderService(
		orderRepo, productRepo, neighborhoodRepo, settingsRepo, sessionRepo,
		hub, receipt.Render, logger,
	)

	// Handlers
	userHandler := transport.NewUserHandler(userService, logger)
	catalogHandler := transport.NewCatalogHandler(catalogService, settingsService, logger)
	checkoutHandler := transport.NewCheckoutHandler(orderService, logger)
	adminHandler := transport.NewAdminHandler(catalogService, orderService, settingsService, images, logger)

	authMiddleware := custommiddleware.AuthMiddleware(cfg.JWT.Secret, logger)

	// Public surface gets rate limited per client; the admin board does
	// not, it sits behind auth already.
	publicLimiter := custommiddleware.RateLimitMiddleware(redisClient, custommiddleware.RateLimitConfig{
		RequestsPerWindow: 120,
		Window:            time.Minute,
		KeyPrefix:         "ratelimit:public",
	}, logger)

	router.Group(func(r chi.Router) {
		r.Use(publicLimiter)
		catalogHandler.RegisterRoutes(r)
		checkoutHandler.RegisterRoutes(r)
		userHandler.RegisterRoutes(r, authMiddleware)
	})

	adminHandler.RegisterRoutes(router, authMiddleware)

	// Realtime push for settings and order events
	router.Get("/ws/updates", hub.HandleWS)

	// Uploaded product images
	fileServer := http.StripPrefix(cfg.Store.PublicBaseURL+"/", http.FileServer(http.Dir(images.Dir())))
	router.Get(cfg.Store.PublicBaseURL+"/*", fileServer.ServeHTTP)

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
		db:     db,
		redis:  redisClient,
		Hub:    hub,
		Users:  userService,
	}

	return server
}

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

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
