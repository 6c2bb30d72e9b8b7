package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"walletfy-api/internal/cache"
	"walletfy-api/internal/config"
	"walletfy-api/internal/database"
	"walletfy-api/internal/jwt"
	"walletfy-api/internal/logger"
	"walletfy-api/internal/oauth"
	"walletfy-api/internal/repository"
	"walletfy-api/internal/router"
	"walletfy-api/internal/service"
	"walletfy-api/internal/storage"
)

func main() {
	// Load configuration
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	zlog, err := logger.New(logger.Options{
		Level:   cfg.LogLevel,
		DevMode: !cfg.IsProduction(),
		File:    cfg.LogFile,
	})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	loc, err := cfg.Location()
	if err != nil {
		zlog.Fatal("Invalid timezone", zap.String("timezone", cfg.Timezone), zap.Error(err))
	}

	// Connect to the configured store
	userRepo, eventRepo, closeStore := openRepositories(cfg, zlog)
	defer closeStore()

	// Initialize Redis cache (optional - continue if Redis is unavailable)
	var cacheClient cache.Cache
	if cfg.RedisURL == "" && cfg.DBDriver == config.DriverMemory {
		cacheClient = cache.NewMemoryCache()
		defer cacheClient.Close()
	} else if cfg.RedisURL != "" {
		cacheClient, err = cache.NewRedisCache(cfg.RedisURL)
		if err != nil {
			zlog.Warn("Failed to connect to Redis. Continuing without cache.", zap.Error(err))
			cacheClient = nil
		} else {
			zlog.Info("Connected to Redis cache")
			defer cacheClient.Close()
		}
	}

	// Initialize JWT service
	jwtService := jwt.NewJWTService(
		cfg.JWTSecret,
		time.Duration(cfg.JWTTTL)*time.Hour,
	)

	// Initialize services
	authService := service.NewAuthService(userRepo, jwtService, cacheClient, zlog)
	eventService := service.NewEventService(eventRepo, loc, zlog)
	statsService := service.NewStatsService(eventRepo, loc)

	// Initialize identity providers that have credentials
	var providers []oauth.Provider
	if cfg.GoogleEnabled() {
		providers = append(providers, oauth.NewGoogleProvider(
			cfg.GoogleClientID, cfg.GoogleClientSecret,
			cfg.OAuthCallbackBaseURL+"/api/users/auth/google/callback",
		))
	}
	if cfg.FacebookEnabled() {
		providers = append(providers, oauth.NewFacebookProvider(
			cfg.FacebookAppID, cfg.FacebookAppSecret,
			cfg.OAuthCallbackBaseURL+"/api/users/auth/facebook/callback",
		))
	}

	// Initialize attachment storage (optional)
	var store storage.AttachmentStore
	if cfg.StorageEnabled() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		store, err = storage.NewMinioStore(ctx, storage.MinioConfig{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
		})
		cancel()
		if err != nil {
			zlog.Warn("Failed to connect to object storage. Attachments disabled.", zap.Error(err))
			store = nil
		} else {
			zlog.Info("Connected to object storage", zap.String("bucket", cfg.MinioBucket))
		}
	} else if cfg.DBDriver == config.DriverMemory {
		store = storage.NewMemoryStore(strings.TrimRight(cfg.OAuthCallbackBaseURL, "/") + storage.LocalFilesPath)
		zlog.Warn("Using in-memory attachment storage, files are lost on restart")
	}

	engine, stopRouter := router.NewRouter(router.Dependencies{
		Config:       cfg,
		Log:          zlog,
		AuthService:  authService,
		EventService: eventService,
		StatsService: statsService,
		Providers:    providers,
		Store:        store,
		Metrics:      true,
	})
	defer stopRouter()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		zlog.Info("Server starting", zap.String("addr", srv.Addr), zap.String("db_driver", cfg.DBDriver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("Server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zlog.Info("Shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		zlog.Error("Server forced to shutdown", zap.Error(err))
	}
}

// openRepositories connects to the store selected by DB_DRIVER. The returned func releases the connection.
func openRepositories(cfg *config.Config, zlog *zap.Logger) (repository.UserRepository, repository.EventRepository, func()) {
	switch cfg.DBDriver {
	case config.DriverPostgres:
		db, err := database.NewConnection(cfg.DatabaseURL)
		if err != nil {
			zlog.Fatal("Failed to connect to database", zap.Error(err))
		}
		// Run database migrations
		if err := database.RunMigrations(db); err != nil {
			zlog.Fatal("Failed to run migrations", zap.Error(err))
		}
		zlog.Info("Connected to PostgreSQL")
		return repository.NewUserRepository(db), repository.NewEventRepository(db), func() { _ = db.Close() }

	case config.DriverMemory:
		zlog.Warn("Using in-memory storage, data is lost on restart")
		return repository.NewMemoryUserRepository(), repository.NewMemoryEventRepository(), func() {}

	default:
		client, db, err := database.NewMongoConnection(cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			zlog.Fatal("Failed to connect to MongoDB", zap.Error(err))
		}
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := repository.EnsureMongoIndexes(ctx, db); err != nil {
			zlog.Fatal("Failed to create MongoDB indexes", zap.Error(err))
		}
		zlog.Info("Connected to MongoDB", zap.String("database", cfg.MongoDatabase))
		return repository.NewMongoUserRepository(db), repository.NewMongoEventRepository(db), func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = client.Disconnect(ctx)
		}
	}
}
