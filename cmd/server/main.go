package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/agenthands/loubot/internal/chat"
	"github.com/agenthands/loubot/internal/collab"
	"github.com/agenthands/loubot/internal/config"
	"github.com/agenthands/loubot/internal/core/community"
	"github.com/agenthands/loubot/internal/core/episodic"
	"github.com/agenthands/loubot/internal/core/ingest"
	"github.com/agenthands/loubot/internal/core/kb"
	"github.com/agenthands/loubot/internal/core/relations"
	"github.com/agenthands/loubot/internal/core/social"
	"github.com/agenthands/loubot/internal/driver"
	"github.com/agenthands/loubot/internal/graph"
	"github.com/agenthands/loubot/internal/llm"
	"github.com/agenthands/loubot/internal/server"
	"github.com/agenthands/loubot/internal/session"
)

func main() {
	configPath := flag.String("config", envOr("CONFIG_PATH", "config.toml"), "path to the TOML config file")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using defaults")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger, err := newLogger(cfg.Log.Mode)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func newLogger(mode string) (*zap.Logger, error) {
	if mode == "development" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	var (
		locker   ingest.Locker = ingest.NewLocalLocker()
		sessions session.Store = session.NewMemoryStore()
	)
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("failed to reach redis at %s: %w", cfg.Redis.Addr, err)
		}
		locker = ingest.NewRedisLocker(rdb, cfg.LockTimeout(), logger)
		sessions = session.NewRedisStore(rdb)
		logger.Info("Using Redis for sessions and ingestion locks", zap.String("addr", cfg.Redis.Addr))
	}

	registry, err := kb.NewRegistry(cfg.Knowledge.MaxSessions, cfg.KBQueryTimeout(), logger)
	if err != nil {
		return err
	}

	ingestion := ingest.NewService(store, registry, locker, logger)
	if cfg.Notify.OnIngest {
		ingestion.Notifier = collab.NewLogNotifier(logger)
	}

	detector, err := community.New(cfg.Graph.ClusterAlgorithm)
	if err != nil {
		return err
	}
	rel := relations.NewService(store, detector, logger)
	episodes := episodic.NewManager(store, episodic.NewVaderAnalyzer(), logger)
	detections := collab.NewDetectionStore(cfg.Detection.Capacity, cfg.DetectionExpiry(), cfg.DetectionRetention())
	telemetry := collab.NewLatestTelemetry(cfg.TelemetryMaxAge())

	chatSvc := chat.NewService(rel, episodes, social.NewService(store, episodes, logger),
		chat.NewRenderer(detections, telemetry, logger), logger)

	client, err := llm.NewClient(ctx, cfg.LLM, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize LLM client: %w", err)
	}
	if client != nil {
		chatSvc.Phraser = llm.NewPhraser(client, cfg.LLM.Prompt, logger)
		logger.Info("LLM phrasing enabled", zap.String("provider", cfg.LLM.Provider), zap.String("model", cfg.LLM.Model))
	}

	srv := server.NewServer(server.Deps{
		Ingest:     ingestion,
		Chat:       chatSvc,
		Relations:  rel,
		Sessions:   sessions,
		SessionTTL: cfg.SessionTTL(),
		Detections: detections,
		Telemetry:  telemetry,
		Health:     store,
	}, cfg.Server.CORSOrigins, logger)

	httpServer := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           srv.SetupRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting server", zap.String("port", cfg.Server.Port))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		logger.Info("Shutting down server")
		return httpServer.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (graph.Store, func(), error) {
	if cfg.Graph.Backend == "memory" {
		logger.Warn("Using in-memory graph store; data is lost on restart")
		return graph.NewMemStore(), func() {}, nil
	}

	d, err := driver.NewNeo4jDriver(cfg.Neo4j.URI, cfg.Neo4j.User, cfg.Neo4j.Password, driver.Options{
		Database:       cfg.Neo4j.Database,
		MaxPoolSize:    cfg.Neo4j.MaxPoolSize,
		ConnectTimeout: cfg.ConnectTimeout(),
		QueryTimeout:   cfg.GraphQueryTimeout(),
	}, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to neo4j: %w", err)
	}
	if err := d.BuildIndices(ctx); err != nil {
		logger.Warn("failed to build indices", zap.Error(err))
	}
	return graph.NewNeo4jStore(d), func() { _ = d.Close(context.Background()) }, nil
}
