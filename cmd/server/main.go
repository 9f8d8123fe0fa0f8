package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/redis/go-redis/v9"

	"github.com/ignite/dm-planner/internal/api"
	"github.com/ignite/dm-planner/internal/config"
	"github.com/ignite/dm-planner/internal/llm"
	"github.com/ignite/dm-planner/internal/pkg/logger"
	"github.com/ignite/dm-planner/internal/repository/postgres"
	"github.com/ignite/dm-planner/internal/repository/rediscache"
	"github.com/ignite/dm-planner/internal/service/analytics"
	"github.com/ignite/dm-planner/internal/service/optimizer"
	"github.com/ignite/dm-planner/internal/service/planning"
	"github.com/ignite/dm-planner/internal/service/prediction"
	"github.com/ignite/dm-planner/internal/service/scoring"
)

var version = "dev"

// checkPortAvailable fails fast when a stale process still holds the port.
func checkPortAvailable(host string, port int) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("port %d is already in use (addr %s): %v", port, addr, err)
	}
	ln.Close()
	return nil
}

// extractHost returns the host portion of a DSN for logging without credentials.
func extractHost(dsn string) string {
	at := strings.Index(dsn, "@")
	if at < 0 {
		return "(unknown)"
	}
	rest := dsn[at+1:]
	if slash := strings.Index(rest, "/"); slash >= 0 {
		rest = rest[:slash]
	}
	return rest
}

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to the YAML config file")
	flag.Parse()

	cfg, err := config.LoadFromEnv(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger.SetLevel(logger.ParseLevel(cfg.Logging.Level))
	if cfg.Logging.RedactPII != nil {
		logger.SetRedactPII(*cfg.Logging.RedactPII)
	}

	host := cfg.Server.GetHost()
	if err := checkPortAvailable(host, cfg.Server.Port); err != nil {
		log.Fatalf("Pre-flight check failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Database.URL == "" {
		log.Fatal("DATABASE_URL is required")
	}
	db, err := openDatabase(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to analytics database: %v", err)
	}
	defer db.Close()
	log.Printf("Analytics database connected: %s", extractHost(cfg.Database.URL))

	var repo analytics.Repository = postgres.NewAnalyticsRepo(db)
	rdb := openRedis(ctx, cfg.Redis.URL)
	if rdb != nil {
		defer rdb.Close()
		repo = rediscache.New(repo, rdb, cfg.Redis.KeyPrefix, cfg.Redis.CacheTTL())
		log.Printf("Analytics cache enabled (ttl=%s)", cfg.Redis.CacheTTL())
	}
	engine := analytics.NewEngine(repo)

	completer, err := llm.New(ctx, cfg.LLM)
	switch {
	case errors.Is(err, llm.ErrNotConfigured):
		log.Println("No language model configured; recommendations use the statistical ranking")
		completer = nil
	case err != nil:
		log.Printf("Warning: language model unavailable (%v); recommendations use the statistical ranking", err)
		completer = nil
	default:
		log.Printf("Language model: %s (%s)", completer.Provider(), cfg.LLM.Model)
	}
	llmProvider := ""
	if completer != nil {
		llmProvider = completer.Provider()
	}

	opt := optimizer.New(completer, cfg.Planning, cfg.LLM)
	planner := planning.NewService(engine, opt, scoring.New(cfg.Planning), cfg.Planning)
	predictor := prediction.NewService(engine, cfg.Planning)

	handlers := api.NewHandlers(engine, planner, predictor, api.NewHealthChecker(db, rdb, llmProvider, version))
	server := api.NewServer(cfg.Server, handlers, cfg.Server.AllowedOrigins)

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.Start(); err != nil {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-done
	log.Println("Shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
	log.Println("Server stopped")
}

func openDatabase(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	dsn := cfg.URL
	if !strings.Contains(dsn, "connect_timeout") {
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		dsn += sep + "connect_timeout=5"
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Second)
	db.SetConnMaxIdleTime(30 * time.Second)

	pingCtx, pingCancel := context.WithTimeout(ctx, 3*time.Second)
	defer pingCancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return db, nil
}

// openRedis returns nil when the URL is empty or the server is unreachable;
// analytics then reads straight from Postgres.
func openRedis(ctx context.Context, url string) *redis.Client {
	if url == "" {
		log.Println("Redis not configured; analytics cache disabled")
		return nil
	}
	var rdb *redis.Client
	if opts, err := redis.ParseURL(url); err != nil {
		rdb = redis.NewClient(&redis.Options{Addr: url})
	} else {
		rdb = redis.NewClient(opts)
	}

	pingCtx, pingCancel := context.WithTimeout(ctx, 3*time.Second)
	defer pingCancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		log.Printf("Warning: Redis connection failed: %v; analytics cache disabled", err)
		rdb.Close()
		return nil
	}
	return rdb
}
