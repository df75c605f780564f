package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/weiawesome/wes-idgen/internal/cache"
	"github.com/weiawesome/wes-idgen/internal/checkdigit"
	"github.com/weiawesome/wes-idgen/internal/config"
	"github.com/weiawesome/wes-idgen/internal/domain"
	idgrpc "github.com/weiawesome/wes-idgen/internal/grpc"
	"github.com/weiawesome/wes-idgen/internal/handler"
	"github.com/weiawesome/wes-idgen/internal/location"
	"github.com/weiawesome/wes-idgen/internal/metrics"
	"github.com/weiawesome/wes-idgen/internal/repository"
	"github.com/weiawesome/wes-idgen/internal/service"
	"github.com/weiawesome/wes-idgen/pkg/database"
	"github.com/weiawesome/wes-idgen/pkg/jwt"
	pkglog "github.com/weiawesome/wes-idgen/pkg/log"
	"github.com/weiawesome/wes-idgen/pkg/middleware"
	"github.com/weiawesome/wes-idgen/pkg/pubsub"
	"github.com/weiawesome/wes-idgen/pkg/storage"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		l := pkglog.L()
		l.Fatal().Err(err).Msg("failed to load config")
	}

	// Initialize structured logger
	pkglog.Init(pkglog.Config{
		Level:       cfg.Log.Level,
		Pretty:      cfg.Log.Pretty,
		ServiceName: "idgen-service",
	})
	logger := pkglog.L()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = pkglog.WithLogger(ctx, logger)

	// Connect to database using GORM
	db, err := database.New(&database.Config{
		Driver:          cfg.Database.Driver,
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		DBName:          cfg.Database.DBName,
		SSLMode:         cfg.Database.SSLMode,
		TimeZone:        cfg.Database.TimeZone,
		FilePath:        cfg.Database.FilePath,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		LogLevel:        cfg.Database.LogLevel,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}

	// Auto-migrate
	if err := database.AutoMigrate(db, domain.Models()...); err != nil {
		logger.Fatal().Err(err).Msg("failed to auto-migrate")
	}
	logger.Info().Msg("database migration completed")

	// Redis is shared by the sequence store and the source cache.
	var redisClient *redis.Client
	if cfg.Sequence.Driver == "redis" || cfg.Cache.Enabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Fatal().Err(err).Str("addr", cfg.Redis.Address).Msg("failed to connect to redis")
		}
		defer redisClient.Close()
		logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	}

	// Initialize repositories
	sourceRepo := repository.NewGormSourceRepository(db)
	locationRepo := repository.NewGormLocationRepository(db)

	var sequences repository.SequenceStore = repository.NewGormSequenceStore(db)
	if cfg.Sequence.Driver == "redis" {
		sequences = repository.NewRedisSequenceStoreWithClient(redisClient, cfg.Redis.Prefix)
	}

	var sourceCache cache.SourceCache = cache.NoopSourceCache{}
	if cfg.Cache.Enabled {
		sourceCache = cache.NewRedisSourceCacheWithClient(redisClient, cfg.Redis.Prefix)
	}

	// Initialize event publisher
	publisher, err := pubsub.NewPublisher(cfg.PubSub)
	if err != nil {
		logger.Fatal().Err(err).Str("driver", cfg.PubSub.Driver).Msg("failed to create publisher")
	}
	defer publisher.Close()

	// Initialize export storage
	exportStorage, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		logger.Fatal().Err(err).Str("driver", cfg.Storage.Driver).Msg("failed to create storage")
	}

	validators := checkdigit.NewRegistry()
	logger.Info().Strs("validators", validators.Names()).Msg("check digit validators registered")

	// Initialize service
	identifierService := service.NewIdentifierService(service.Dependencies{
		Sources:         sourceRepo,
		Locations:       locationRepo,
		Sequences:       sequences,
		Cache:           sourceCache,
		CacheTTL:        cfg.Cache.TTL,
		Publisher:       publisher,
		Storage:         exportStorage,
		Metrics:         metrics.New(prometheus.DefaultRegisterer),
		Validators:      validators,
		Providers:       location.NewProviders(),
		ExportKeyPrefix: cfg.Export.KeyPrefix,
		ExportURLExpiry: cfg.Export.URLExpiry,
	})

	// Bootstrap configured sources
	for _, sc := range cfg.Sources {
		source, idType := sc.Models()
		if err := identifierService.UpsertSource(ctx, source, idType); err != nil {
			logger.Fatal().Err(err).Str("source", sc.Name).Msg("failed to bootstrap identifier source")
		}
		logger.Info().Str("source", source.Name).Int64(pkglog.FieldSourceID, source.ID).Str("kind", source.Kind).Msg("identifier source ready")
	}

	// Initialize auth middleware
	var authMiddleware *middleware.AuthMiddleware
	if cfg.Auth.Enabled {
		manager, err := jwt.NewManager(cfg.Auth.Secret, cfg.Auth.Issuer, cfg.Auth.TokenDuration)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to create jwt manager")
		}
		authMiddleware = middleware.NewAuthMiddleware(manager)
	}

	// Setup Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(pkglog.GinMiddleware(logger))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Register routes
	handler.NewHandler(identifierService, authMiddleware).RegisterRoutes(r)

	httpAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	httpServer := &http.Server{Addr: httpAddr, Handler: r}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info().Str("addr", httpAddr).Str("driver", cfg.Database.Driver).Str("sequence_driver", cfg.Sequence.Driver).Msg("idgen-service starting")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	if cfg.GRPC.Enabled {
		grpcAddr := fmt.Sprintf("%s:%d", cfg.GRPC.Host, cfg.GRPC.Port)
		lis, err := net.Listen("tcp", grpcAddr)
		if err != nil {
			logger.Fatal().Err(err).Str("addr", grpcAddr).Msg("failed to listen for grpc")
		}
		grpcServer := idgrpc.NewServer(identifierService, logger)

		g.Go(func() error {
			logger.Info().Str("addr", grpcAddr).Msg("grpc server listening")
			return grpcServer.Serve(lis)
		})
		g.Go(func() error {
			<-gctx.Done()
			grpcServer.GracefulStop()
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutting down idgen-service")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("idgen-service stopped with error")
		return
	}
	logger.Info().Msg("idgen-service stopped")
}
