package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"gitlab.com/toku-assess.net/internal/adapter/crypto"
	"gitlab.com/toku-assess.net/internal/adapter/metrics"
	"gitlab.com/toku-assess.net/internal/adapter/piston"
	"gitlab.com/toku-assess.net/internal/adapter/postgres/challengerepository"
	"gitlab.com/toku-assess.net/internal/adapter/postgres/resultrepository"
	"gitlab.com/toku-assess.net/internal/adapter/redis/challengecache"
	"gitlab.com/toku-assess.net/internal/adapter/redis/submissionlock"
	"gitlab.com/toku-assess.net/internal/adapter/redis/verdictstore"
	"gitlab.com/toku-assess.net/internal/config"
	"gitlab.com/toku-assess.net/internal/core/ports/secondary"
	"gitlab.com/toku-assess.net/internal/core/services/assessment"
	"gitlab.com/toku-assess.net/internal/core/services/catalog"
	"gitlab.com/toku-assess.net/internal/core/services/dispatch"
	"gitlab.com/toku-assess.net/internal/core/services/grading"
	"gitlab.com/toku-assess.net/internal/core/services/validator"
	logger2 "gitlab.com/toku-assess.net/internal/global/logger"
	"gitlab.com/toku-assess.net/internal/handlers/challenges"
	http2 "gitlab.com/toku-assess.net/internal/http"
)

func main() {
	InitReader()
	// Set up graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	sysCfg := config.NewSystemConfig()
	logger2.Init(sysCfg.LogConfig)
	logger := logger2.Logger
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting assessment service")
	if sysCfg.SandboxConfig.LanguagesErr != nil {
		logger.Warn("Invalid SANDBOX_LANGUAGES, using defaults", "error", sysCfg.SandboxConfig.LanguagesErr)
	}

	db, err := setupDatabase(sysCfg.PostgresConfig)
	if err != nil {
		logger.Error("Failed to set up database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     sysCfg.RedisConfig.Url,
		Password: sysCfg.RedisConfig.Password,
		DB:       sysCfg.RedisConfig.DB,
	})
	defer redisClient.Close()

	// SECONDARY PORTS
	recorder := metrics.NewRecorder()
	resultRepo := resultrepository.NewResultRepository(db, logger)
	verdicts := verdictstore.NewVerdictStore(redisClient, resultRepo, sysCfg.RedisConfig.VerdictTTL, logger)
	locker := submissionlock.NewLocker(redisClient, sysCfg.RedisConfig.LockTTL, logger)
	sandbox := piston.NewClient(sysCfg.SandboxConfig, &http.Client{}, logger)

	var challengeRepo secondary.ChallengeRepository = challengerepository.NewChallengeRepository(db, logger)
	var cache challenges.CacheInvalidator
	if sysCfg.RedisConfig.CatalogTTL > 0 {
		challengeCache := challengecache.NewChallengeCache(redisClient, challengeRepo, sysCfg.RedisConfig.CatalogTTL, logger)
		challengeRepo, cache = challengeCache, challengeCache
	}

	//primary ports
	jwtProvider := crypto.NewJWTService(sysCfg.JwtConfig)

	//services
	dispatcher := dispatch.NewDispatcher(sandbox, sysCfg.SandboxConfig, logger, dispatch.WithMetrics(recorder))
	grader := grading.NewGradingService(dispatcher, verdicts, validator.OutputValidator{}, sysCfg.GradingConfig, logger, grading.WithMetrics(recorder))
	catalogSvc := catalog.NewCatalogService(challengeRepo, logger)
	assessmentSvc := assessment.NewAssessmentService(catalogSvc, grader, dispatcher, resultRepo, locker, logger)

	serviceProvider := http2.NewServiceProvider(assessmentSvc, jwtProvider, cache, recorder.Handler(), map[string]http2.HealthCheck{
		"postgres": db.PingContext,
		"redis": func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		},
	})

	//server
	httpServer := http2.NewServer(sysCfg.HttpConfig, *serviceProvider, logger)
	if err := httpServer.Init(); err != nil {
		panic(err)
	}
	httpServer.Start(context.Background())

	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), sysCfg.GradingConfig.Timeout+5*time.Second)
	defer cancel()
	if err := httpServer.Stop(ctx); err != nil {
		logger.Error("Server did not shut down cleanly", "error", err)
	}

	logger.Info("successfully shutdown server")
}

// setupDatabase opens the PostgreSQL pool and checks the connection
func setupDatabase(cfg *config.PostgresConfig) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", withSearchPath(cfg.Url, cfg.Schema))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// withSearchPath appends the schema as a connection option for lib/pq
func withSearchPath(url, schema string) string {
	if schema == "" || schema == "public" {
		return url
	}
	sep := "?"
	if strings.Contains(url, "?") {
		sep = "&"
	}
	return fmt.Sprintf("%s%ssearch_path=%s", url, sep, schema)
}

// InitReader loads <env>.env when an environment name is passed
func InitReader() {
	if len(os.Args) < 2 {
		log.Printf("No environment supplied, reading configuration from the process environment")
		return
	}
	environment := os.Args[1]

	err := godotenv.Load(environment + ".env")
	if err != nil {
		log.Fatalf("Error loading %s.env file", environment)
	}
}
