package server

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"merchant-desk/internal/config"
	"merchant-desk/internal/database"
	"merchant-desk/internal/events"
	custommiddleware "merchant-desk/internal/middleware"
	"merchant-desk/internal/redisx"
	"merchant-desk/internal/service"
	"merchant-desk/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Deps are the resources a Server is built from. DB and Redis are optional:
// without DB the health check skips the database, without Redis rate limiting
// and submission deduplication are off.
type Deps struct {
	Config    *config.Config
	Logger    *zap.Logger
	Stores    Stores
	DB        *sql.DB
	Redis     *redis.Client
	Publisher events.Publisher
}

type Server struct {
	*http.Server
	logger *zap.Logger
	db     *sql.DB
	redis  *redis.Client
}

func NewServer(deps Deps) (*Server, error) {
	cfg, logger := deps.Config, deps.Logger

	loc, err := cfg.Report.Location()
	if err != nil {
		return nil, err
	}

	publisher := deps.Publisher
	if publisher == nil {
		publisher = events.NopPublisher{}
	}

	router := chi.NewRouter()
	for _, mw := range custommiddleware.DefaultMiddlewareStack() {
		router.Use(mw)
	}
	router.Use(custommiddleware.LoggingMiddleware(logger))
	router.Use(custommiddleware.ErrorHandlingMiddleware(logger))
	router.Use(custommiddleware.CORSMiddleware(cfg.CORS.AllowedOrigins, cfg.Server.Env != "production"))

	router.Get("/health", healthHandler(deps.DB, deps.Redis, logger))

	stores := deps.Stores
	accounts := service.NewAccountService(stores.Accounts, stores.RefreshTokens, service.TokenConfig{
		Secret:        cfg.JWT.Secret,
		AccessExpiry:  time.Duration(cfg.JWT.AccessExpiry) * time.Minute,
		RefreshExpiry: time.Duration(cfg.JWT.RefreshExpiry) * 24 * time.Hour,
	})
	catalog := service.NewCatalogService(stores.Products, stores.Categories)
	carts := service.NewCartService(catalog)
	selections := service.NewSelectionService(stores.Selections, publisher, logger)
	orders := service.NewOrderService(stores.Orders, publisher, logger)
	conversions := service.NewConversionService(selections, orders, logger)
	expenses := service.NewExpenseService(stores.Expenses, publisher, logger)
	reports := service.NewReportService(stores.Orders, stores.Expenses, loc)

	auth := custommiddleware.AuthMiddleware(cfg.JWT.Secret, logger)
	staff := []func(http.Handler) http.Handler{auth, custommiddleware.RequireStaff(logger)}
	owner := []func(http.Handler) http.Handler{auth, custommiddleware.RequireOwner(logger)}

	var submitLimits []func(http.Handler) http.Handler
	var idempotency transport.IdempotencyStore
	if deps.Redis != nil {
		submitLimits = append(submitLimits, custommiddleware.RateLimitMiddleware(deps.Redis, custommiddleware.RateLimitConfig{
			RequestsPerWindow: cfg.RateLimit.Requests,
			Window:            cfg.RateLimit.Window,
			KeyPrefix:         "rl:selections",
		}, logger))
		idempotency = redisx.NewIdempotencyStore(deps.Redis, redisx.TTLIdempotency)
	}

	transport.NewAccountHandler(accounts, logger).RegisterRoutes(router, auth, custommiddleware.RequireOwner(logger))
	transport.NewCatalogHandler(catalog, logger).RegisterRoutes(router, owner...)
	transport.NewCartHandler(carts, logger).RegisterRoutes(router)
	transport.NewSelectionHandler(selections, conversions, carts, idempotency, cfg.Server.SelectionURL(), logger).
		RegisterRoutes(router, submitLimits, staff...)
	transport.NewOrderHandler(orders, logger).RegisterRoutes(router, staff...)
	transport.NewExpenseHandler(expenses, loc, logger).RegisterRoutes(router, staff...)
	transport.NewReportHandler(reports, loc, logger).RegisterRoutes(router, staff...)

	return &Server{
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
			Handler:      router,
			IdleTimeout:  time.Minute,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		logger: logger,
		db:     deps.DB,
		redis:  deps.Redis,
	}, nil
}

func healthHandler(db *sql.DB, rdb *redis.Client, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := map[string]string{"status": "ok"}
		code := http.StatusOK

		if db != nil {
			status["database"] = "up"
			if err := database.Health(ctx, db); err != nil {
				logger.Warn("Health check failed", zap.Error(err))
				status["database"] = "down"
				status["status"] = "degraded"
				code = http.StatusServiceUnavailable
			}
		}
		if rdb != nil {
			status["redis"] = "up"
			if err := rdb.Ping(ctx).Err(); err != nil {
				logger.Warn("Redis health check failed", zap.Error(err))
				status["redis"] = "down"
			}
		}

		custommiddleware.RespondWithJSON(w, code, status)
	}
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
