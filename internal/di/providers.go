package di

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/alokah-labs/superapp-backend/internal/app"
	"github.com/alokah-labs/superapp-backend/internal/config"
	"github.com/alokah-labs/superapp-backend/internal/database"
	"github.com/alokah-labs/superapp-backend/internal/health"
	"github.com/alokah-labs/superapp-backend/internal/http/handler"
	"github.com/alokah-labs/superapp-backend/internal/http/middleware"
	"github.com/alokah-labs/superapp-backend/internal/http/router"
	"github.com/alokah-labs/superapp-backend/internal/mailer"
	"github.com/alokah-labs/superapp-backend/internal/observability"
	"github.com/alokah-labs/superapp-backend/internal/repository"
	"github.com/alokah-labs/superapp-backend/internal/security"
	"github.com/alokah-labs/superapp-backend/internal/service"
)

// InitializeApp wires the whole object graph by hand, bottom up: config,
// observability, infrastructure, repositories, services, HTTP.
func InitializeApp() (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	bootstrapLogger := observability.NewBootstrapLogger(cfg)
	runtime, err := observability.InitRuntime(context.Background(), cfg, bootstrapLogger)
	if err != nil {
		return nil, err
	}
	logger := observability.InitLogger(cfg, runtime.LoggerProvider)

	db, err := database.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := database.Migrate(db); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	if err := database.Seed(db, cfg); err != nil {
		return nil, fmt.Errorf("seed database: %w", err)
	}

	redisClient, err := provideRedisClient(cfg)
	if err != nil {
		return nil, err
	}
	if redisClient != nil {
		observability.InstrumentRedisClient(redisClient, logger)
	}

	storage, err := provideImageStorage(cfg)
	if err != nil {
		return nil, err
	}

	users := repository.NewUserRepository(db)
	codes := repository.NewOTPRepository(db)
	secrets := repository.NewSecretRepository(db)
	hotels := repository.NewHotelRepository(db)
	items := repository.NewInventoryRepository(db)
	central := repository.NewCentralInventoryRepository(db)
	employees := repository.NewEmployeeRepository(db)

	jwtMgr := security.NewJWTManager(cfg.JWTIssuer, cfg.JWTSecret, cfg.JWTRefreshSecret, cfg.JWTAccessTTL, cfg.JWTRefreshTTL)
	cookieMgr := security.NewCookieManager(cfg.CookieDomain, cfg.CookieSecure, cfg.RefreshCookieMaxAge)

	notifier, err := provideOTPNotifier(cfg, logger)
	if err != nil {
		return nil, err
	}
	guard := provideOTPAttemptGuard(redisClient)
	searchCache := provideSearchCache(redisClient)

	otpSvc := service.NewOTPService(users, codes, notifier, guard, cfg.OTPTTL)
	tokenSvc := service.NewTokenService(jwtMgr)
	authSvc := service.NewAuthService(cfg, users, otpSvc, tokenSvc)
	centralSvc := service.NewCentralService(cfg, users, secrets, central, searchCache, otpSvc, tokenSvc)
	hotelSvc := service.NewHotelService(hotels, storage)
	inventorySvc := service.NewInventoryService(hotelSvc, items, storage)
	employeeSvc := service.NewEmployeeService(hotelSvc, employees)

	readiness := provideReadinessProbeRunner(cfg, db, redisClient, storage)

	deps := router.Dependencies{
		AuthHandler:      handler.NewAuthHandler(authSvc, cookieMgr),
		CentralHandler:   handler.NewCentralHandler(centralSvc, cookieMgr),
		HotelHandler:     handler.NewHotelHandler(hotelSvc),
		InventoryHandler: handler.NewInventoryHandler(inventorySvc),
		EmployeeHandler:  handler.NewEmployeeHandler(employeeSvc),
		JWTManager:       jwtMgr,
		Users:            users,
		CORSOrigins:      cfg.CORSAllowedOrigins,
		AuthRateLimitRPM: cfg.AuthRateLimitPerMin,
		APIRateLimitRPM:  cfg.APIRateLimitPerMin,
		APIRateLimiter:   provideRateLimiter(cfg, redisClient, "api", cfg.APIRateLimitPerMin),
		AuthRateLimiter:  provideRateLimiter(cfg, redisClient, "auth", cfg.AuthRateLimitPerMin),
		Readiness:        readiness,
		EnableOTelHTTP:   cfg.OTELMetricsEnabled || cfg.OTELTracingEnabled,
	}

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router.NewRouter(deps),
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return app.New(cfg, logger, server, runtime, db, redisClient, readiness), nil
}

func provideRedisClient(cfg *config.Config) (redis.UniversalClient, error) {
	if cfg.RedisURL == "" {
		return nil, nil
	}
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	return redis.NewClient(opts), nil
}

func provideImageStorage(cfg *config.Config) (service.ImageStorage, error) {
	if !cfg.StorageEnabled {
		return service.NewDisabledImageStorage(), nil
	}
	return service.NewMinIOImageStorage(
		cfg.StorageEndpoint,
		cfg.StorageAccessKey,
		cfg.StorageSecretKey,
		cfg.StorageBucket,
		cfg.StorageBaseURL,
		cfg.StorageUseSSL,
	)
}

func provideOTPNotifier(cfg *config.Config, logger *slog.Logger) (service.OTPNotifier, error) {
	if !cfg.MailEnabled {
		return service.NewDevOTPNotifier(logger), nil
	}
	return mailer.NewSMTPOTPNotifier(cfg)
}

// provideOTPAttemptGuard backs the verification backoff with Redis when it is
// configured so repeated wrong guesses are throttled across replicas.
func provideOTPAttemptGuard(redisClient redis.UniversalClient) service.OTPAttemptGuard {
	if redisClient != nil {
		return service.NewRedisOTPAttemptGuard(redisClient, "otpguard", service.OTPAttemptPolicy{})
	}
	return service.NewInMemoryOTPAttemptGuard(service.OTPAttemptPolicy{})
}

// provideSearchCache shares cached central item searches across replicas when
// Redis is available and falls back to a per-process cache otherwise.
func provideSearchCache(redisClient redis.UniversalClient) service.SearchCacheStore {
	if redisClient != nil {
		return service.NewRedisSearchCacheStore(redisClient, "search_cache")
	}
	return service.NewInMemorySearchCacheStore()
}

func provideRateLimiter(cfg *config.Config, redisClient redis.UniversalClient, scope string, limit int) func(http.Handler) http.Handler {
	if redisClient != nil {
		mode := middleware.FailClosed
		if scope != "auth" && cfg.RateLimitFailOpen {
			mode = middleware.FailOpen
		}
		limiter := middleware.NewRedisFixedWindowLimiter(redisClient, "rl:"+scope)
		return middleware.NewDistributedRateLimiter(limiter, limit, time.Minute, mode, scope).Middleware()
	}
	return middleware.NewRateLimiter(limit, time.Minute, scope).Middleware()
}

func provideReadinessProbeRunner(cfg *config.Config, db *gorm.DB, redisClient redis.UniversalClient, storage service.ImageStorage) *health.ProbeRunner {
	checkers := []health.Checker{health.NewDBChecker(db)}
	if redisClient != nil {
		checkers = append(checkers, health.NewRedisChecker(redisClient))
	}
	if pinger, ok := storage.(health.StoragePinger); ok {
		checkers = append(checkers, health.NewStorageChecker(pinger))
	}
	return health.NewProbeRunner(cfg.ReadinessProbeTimeout, cfg.StartupGracePeriod, checkers...)
}
