// Command gateway starts the chat-completion gateway's HTTP server. It
// builds the composition root — every dependency constructed explicitly
// here and passed down — rather than relying on package-level
// singletons, so the same wiring can be reconstructed with different
// pieces (e.g. an in-memory key store) in tests.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/ozanunal0/Prometheus-Gateway/internal/apikeys"
	"github.com/ozanunal0/Prometheus-Gateway/internal/cache"
	gwconfig "github.com/ozanunal0/Prometheus-Gateway/internal/config"
	"github.com/ozanunal0/Prometheus-Gateway/internal/dlp"
	"github.com/ozanunal0/Prometheus-Gateway/internal/embedding"
	"github.com/ozanunal0/Prometheus-Gateway/internal/httpserver"
	"github.com/ozanunal0/Prometheus-Gateway/internal/metrics"
	"github.com/ozanunal0/Prometheus-Gateway/internal/middleware"
	"github.com/ozanunal0/Prometheus-Gateway/internal/pipeline"
	"github.com/ozanunal0/Prometheus-Gateway/internal/providers"
	"github.com/ozanunal0/Prometheus-Gateway/internal/semanticcache"
	"github.com/ozanunal0/Prometheus-Gateway/internal/vectorstore"
)

func main() {
	configPath := flag.String("config", envOr("GATEWAY_CONFIG_PATH", "config.yaml"), "path to the provider routing YAML file")
	flag.Parse()

	log := logrus.New()

	infra := gwconfig.LoadInfra()
	level, err := logrus.ParseLevel(infra.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	providerCfg, err := gwconfig.LoadProviders(*configPath)
	if err != nil {
		log.WithError(err).Fatal("failed to load provider configuration")
	}

	redisClient := cache.NewRedisClient(infra.RedisHost, infra.RedisPort)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := redisClient.Ping(ctx); err != nil {
		log.WithError(err).Warn("redis ping failed at startup, caching and rate limiting will degrade")
	}
	cancel()

	keyStore := buildKeyStore(log, infra)

	embedder := embedding.New()
	vecStore, err := vectorstore.New(infra.QdrantHost, qdrantPortInt(infra.QdrantPort))
	if err != nil {
		log.WithError(err).Fatal("failed to connect to qdrant")
	}
	initCtx, initCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := vecStore.EnsureCollection(initCtx, embedding.Dimension); err != nil {
		log.WithError(err).Warn("failed to ensure semantic cache collection, semantic caching will degrade")
	}
	initCancel()

	deps := &httpserver.Deps{
		Auth:        middleware.NewAuthMiddleware(keyStore, log),
		RateLimiter: middleware.NewRateLimiter(redisClient, infra.RateLimitPerMinute, time.Minute),
		Pipeline: pipeline.New(
			dlp.New(log),
			cache.NewExactCache(redisClient, infra.ExactCacheTTL, log),
			semanticcache.New(embedder, vecStore, infra.SemanticSimilarityThreshold, log),
			providers.NewRegistry(providerCfg, infra.UpstreamTimeout),
			log,
		),
		Metrics: metrics.NewRegistry(prometheus.DefaultRegisterer),
		Log:     log,
	}

	engine := httpserver.New(deps)

	srv := &http.Server{
		Addr:         infra.BindAddr,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	go func() {
		log.WithField("addr", infra.BindAddr).Info("gateway listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("server failed")
		}
	}()

	waitForShutdown(log, srv)
}

func waitForShutdown(log *logrus.Logger, srv *http.Server) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Info("shutting down gateway")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
	}
}

func buildKeyStore(log *logrus.Logger, infra *gwconfig.Infra) apikeys.Store {
	if infra.PostgresPassword == "" && infra.PostgresUser == "gateway" {
		// no explicit Postgres credential configured; fall back to an
		// in-memory store so the gateway still runs for local smoke
		// testing without a database.
		log.Warn("no POSTGRES_PASSWORD configured, using an in-memory API key store (not for production)")
		return apikeys.NewMemoryStore()
	}

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		infra.PostgresUser, infra.PostgresPassword, infra.PostgresHost, infra.PostgresPort, infra.PostgresDB, infra.PostgresSSLMode)

	pool, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to postgres")
	}

	store := apikeys.NewPostgresStore(pool)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := store.EnsureSchema(ctx); err != nil {
		log.WithError(err).Fatal("failed to ensure api_keys schema")
	}
	return store
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func qdrantPortInt(port string) int {
	n := 6334
	fmt.Sscanf(port, "%d", &n)
	return n
}
