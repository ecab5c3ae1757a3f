package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	branchapp "github.com/pharmos/backend/internal/application/branch"
	identityapp "github.com/pharmos/backend/internal/application/identity"
	"github.com/pharmos/backend/internal/infrastructure/auth"
	"github.com/pharmos/backend/internal/infrastructure/config"
	"github.com/pharmos/backend/internal/infrastructure/googleauth"
	"github.com/pharmos/backend/internal/infrastructure/logger"
	"github.com/pharmos/backend/internal/infrastructure/persistence"
	"github.com/pharmos/backend/internal/interfaces/http/handler"
	"github.com/pharmos/backend/internal/interfaces/http/middleware"
	"github.com/pharmos/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting pharmacy backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))

	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected")

	// Token blacklist: Redis when configured, in-memory otherwise
	var blacklist auth.TokenBlacklist
	if cfg.Redis.Host != "" {
		redisBlacklist, err := auth.NewRedisTokenBlacklist(auth.RedisTokenBlacklistConfig{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		blacklist = redisBlacklist
		log.Info("Redis token blacklist enabled")
	} else {
		blacklist = auth.NewInMemoryTokenBlacklist()
		log.Warn("Using in-memory token blacklist; revocations do not survive restarts")
	}

	// Repositories
	userRepo := persistence.NewGormUserRepository(db.DB)
	tenantRepo := persistence.NewGormTenantRepository(db.DB)
	branchRepo := persistence.NewGormBranchRepository(db.DB)

	txScope := persistence.NewRetryingTransactionScope(db.DB, cfg.Auth.BulkRetryAttempts)

	// Application services
	jwtService := auth.NewJWTService(cfg.JWT)
	verifier := googleauth.NewHTTPVerifier(cfg.Google)

	tenantService := identityapp.NewTenantService(tenantRepo)
	authService := identityapp.NewAuthService(
		userRepo,
		tenantRepo,
		tenantService,
		jwtService,
		blacklist,
		txScope,
		identityapp.AuthServiceConfig{
			MaxLoginAttempts:       cfg.Auth.MaxLoginAttempts,
			LockDuration:           cfg.Auth.LockoutDuration,
			RefreshTokenExpiration: cfg.JWT.RefreshTokenExpiration,
		},
	)
	googleService := identityapp.NewGoogleService(userRepo, tenantRepo, tenantService, authService, verifier, txScope)
	userService := identityapp.NewUserService(userRepo)
	branchService := branchapp.NewBranchService(branchRepo)
	bulkService := branchapp.NewBulkAssignService(branchRepo, userRepo, txScope, branchapp.BulkAssignConfig{
		MaxBatchSize: cfg.Auth.BulkAssignMaxSize,
	})

	// HTTP engine and middleware
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Fatal("Invalid trusted proxies", zap.Error(err))
		}
	}
	engine.Use(middleware.RequestID())
	engine.Use(middleware.CORS())
	engine.Use(logger.GinMiddleware(log))
	engine.Use(logger.Recovery(log))

	authMW := middleware.JWTAuthMiddleware(middleware.JWTMiddlewareConfig{
		JWTService:     jwtService,
		TokenBlacklist: blacklist,
		Logger:         log,
	})

	var loginLimiter *middleware.RateLimiter
	if cfg.HTTP.AuthRateLimitEnabled {
		loginLimiter = middleware.NewRateLimiter(cfg.HTTP.AuthRateLimitRequests, cfg.HTTP.AuthRateLimitWindow)
	}

	// Routes
	r := router.NewRouter(engine)
	r.Register(handler.NewAuthHandler(authService, googleService, authMW, loginLimiter)).
		Register(handler.NewTenantHandler(tenantService)).
		Register(handler.NewBranchHandler(branchService, bulkService, authMW)).
		Register(handler.NewUserHandler(userService, authMW))
	r.Setup()

	engine.GET("/health", healthHandler(db))

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

func healthHandler(db *persistence.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"time":     time.Now().Format(time.RFC3339),
				"database": "error",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	}
}
