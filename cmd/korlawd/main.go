// Command korlawd runs the self-organizing retrieval core over a Korean
// statute graph: it loads configuration, connects the graph store, the
// response cache, and the audit log, rebuilds the partition snapshot,
// and serves the admin HTTP API plus the streaming query socket.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	searchagent "github.com/akfldk1028/ARR-sub002/agent"
	"github.com/akfldk1028/ARR-sub002/api"
	"github.com/akfldk1028/ARR-sub002/auditlog"
	"github.com/akfldk1028/ARR-sub002/config"
	"github.com/akfldk1028/ARR-sub002/coordinator"
	"github.com/akfldk1028/ARR-sub002/domain"
	"github.com/akfldk1028/ARR-sub002/embedding"
	"github.com/akfldk1028/ARR-sub002/graphstore"
	"github.com/akfldk1028/ARR-sub002/internal/cache"
	"github.com/akfldk1028/ARR-sub002/internal/database"
	"github.com/akfldk1028/ARR-sub002/internal/metrics"
	"github.com/akfldk1028/ARR-sub002/internal/migration"
	"github.com/akfldk1028/ARR-sub002/internal/server"
	"github.com/akfldk1028/ARR-sub002/internal/telemetry"
	"github.com/akfldk1028/ARR-sub002/llm"
	"github.com/akfldk1028/ARR-sub002/llm/retry"
	"github.com/akfldk1028/ARR-sub002/llmassess"
	"github.com/akfldk1028/ARR-sub002/streamadapter"
)

func main() {
	configPath := flag.String("config", "", "path to config.yaml (optional)")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger, err := buildLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if flag.Arg(0) == "migrate" {
		if err := runMigrations(cfg, logger); err != nil {
			logger.Fatal("migration failed", zap.Error(err))
		}
		return
	}

	if err := run(cfg, logger); err != nil {
		logger.Fatal("korlawd exited", zap.Error(err))
	}
}

func loadConfig(path string) (*config.Config, error) {
	loader := config.NewLoader().WithEnvPrefix("KORLAW")
	if path != "" {
		loader = loader.WithConfigPath(path)
	}
	return loader.Load()
}

func buildLogger(cfg config.LogConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}
	zc := zap.NewProductionConfig()
	if cfg.Format == "console" {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	if len(cfg.OutputPaths) > 0 {
		zc.OutputPaths = cfg.OutputPaths
	}
	zc.DisableCaller = !cfg.EnableCaller
	zc.DisableStacktrace = !cfg.EnableStacktrace
	return zc.Build()
}

func runMigrations(cfg *config.Config, logger *zap.Logger) error {
	migrator, err := migration.NewMigratorFromConfig(cfg)
	if err != nil {
		return err
	}
	defer migrator.Close()
	cli := migration.NewCLI(migrator)
	logger.Info("running migrations up")
	return cli.RunUp(context.Background())
}

func openDB(cfg config.GraphStoreConfig) (*gorm.DB, error) {
	gormCfg := &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)}
	switch cfg.Driver {
	case "postgres":
		return gorm.Open(postgres.Open(cfg.DSN()), gormCfg)
	case "sqlite":
		return gorm.Open(sqlite.Open(cfg.DSN()), gormCfg)
	default:
		return nil, fmt.Errorf("unsupported graph store driver %q", cfg.Driver)
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx := context.Background()

	providers, err := telemetry.Init(cfg.Telemetry, logger)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer providers.Shutdown(ctx)

	collector := metrics.NewCollector("korlaw", logger)

	db, err := openDB(cfg.GraphStore)
	if err != nil {
		return fmt.Errorf("opening graph store: %w", err)
	}
	poolCfg := database.DefaultPoolConfig()
	poolCfg.MaxOpenConns = cfg.GraphStore.MaxOpenConns
	poolCfg.MaxIdleConns = cfg.GraphStore.MaxIdleConns
	poolCfg.ConnMaxLifetime = cfg.GraphStore.ConnMaxLifetime
	pool, err := database.NewPoolManager(db, poolCfg, logger)
	if err != nil {
		return fmt.Errorf("graph store pool: %w", err)
	}
	defer pool.Close()

	store, err := graphstore.New(ctx, pool.DB(), logger)
	if err != nil {
		return fmt.Errorf("graph store: %w", err)
	}

	// The response cache is best-effort infrastructure: with no Redis
	// reachable the core runs uncached.
	var cacheManager *cache.Manager
	if cfg.Redis.Addr != "" {
		cacheManager, err = cache.NewManager(cache.Config{
			Addr:         cfg.Redis.Addr,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
		}, logger)
		if err != nil {
			logger.Warn("redis unreachable, running without response cache", zap.Error(err))
			cacheManager = nil
		} else {
			defer cacheManager.Close()
		}
	}

	retryPolicy := &retry.Policy{
		MaxRetries:   cfg.Retry.MaxRetries,
		InitialDelay: cfg.Retry.InitialDelay,
		MaxDelay:     cfg.Retry.MaxDelay,
		Multiplier:   cfg.Retry.Multiplier,
		Jitter:       true,
	}

	var provider embedding.Provider
	switch cfg.Embedding.Provider {
	case "http":
		provider = embedding.NewHTTPProvider(embedding.HTTPConfig{
			BaseURL:    cfg.Embedding.BaseURL,
			APIKey:     cfg.Embedding.APIKey,
			Model:      cfg.Embedding.Model,
			Dimensions: cfg.Embedding.Dimensions,
			Timeout:    cfg.Embedding.Timeout,
		}, retryPolicy, logger)
	default:
		provider = embedding.NewDeterministic(cfg.Embedding.Model, cfg.Embedding.Dimensions)
	}
	provider = embedding.NewCached(provider, cacheManager, cfg.Embedding.RateRPS, 24*time.Hour, collector, logger)

	var llmClient llm.Client
	if cfg.LLM.Provider == "http" {
		llmClient = llm.NewHTTPClient(llm.HTTPConfig{
			BaseURL: cfg.LLM.BaseURL,
			APIKey:  cfg.LLM.APIKey,
			Model:   cfg.LLM.Model,
			Timeout: cfg.LLM.Timeout,
			RateRPS: cfg.LLM.RateRPS,
		}, retryPolicy, logger)
	} else {
		llmClient = llm.Unavailable{}
	}
	llmClient = llm.NewCachedClient(llmClient, cacheManager, 12*time.Hour, collector, logger)

	var audit auditlog.Log = auditlog.Noop{}
	if cfg.Mongo.URI != "" {
		mongoLog, err := auditlog.NewMongoLog(ctx, auditlog.Config{
			URI:        cfg.Mongo.URI,
			Database:   cfg.Mongo.Database,
			Collection: cfg.Mongo.Collection,
		}, logger)
		if err != nil {
			logger.Warn("mongo unreachable, audit log disabled", zap.Error(err))
		} else {
			audit = mongoLog
		}
	}

	namer := llmassess.NewNamer(llmClient, cfg.Domain.NamingMaxChars, logger)
	assessor := llmassess.NewAssessor(llmClient, logger)

	partition := domain.NewStore()
	manager := domain.NewManager(store, partition, namer, audit, collector, cfg.Domain, cfg.Embedding.Dimensions, logger)
	if err := manager.Load(ctx); err != nil {
		return fmt.Errorf("loading partition: %w", err)
	}
	if partition.Current().Len() == 0 {
		if _, err := manager.InitializePartition(ctx); err != nil {
			logger.Warn("initial partitioning deferred", zap.Error(err))
		}
	}

	searcher := searchagent.NewSearcher(store, provider, cfg.Search, collector, logger)
	coord := coordinator.New(partition, searcher, provider, assessor, store, cfg.Coordinator, collector, logger)

	mux := http.NewServeMux()
	api.NewHandler(manager, coord, logger).RegisterRoutes(mux)
	mux.Handle("GET /api/v1/query/stream", streamadapter.NewHandler(coord, logger))
	mux.Handle("GET /metrics", promhttp.Handler())

	srv := server.NewManager(mux, server.Config{
		Addr:            fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		IdleTimeout:     120 * time.Second,
		MaxHeaderBytes:  1 << 20,
		MaxConns:        512,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}, logger)
	if err := srv.Start(); err != nil {
		return fmt.Errorf("http server: %w", err)
	}
	logger.Info("korlawd serving", zap.String("addr", srv.Addr()))
	srv.WaitForShutdown()
	return nil
}
