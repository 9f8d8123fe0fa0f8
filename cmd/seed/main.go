// Command seed loads a small, deterministic deployment history so the
// planner has something to rank in local and staging environments.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/ignite/dm-planner/internal/config"
	"github.com/ignite/dm-planner/internal/pkg/distlock"
	"github.com/ignite/dm-planner/internal/repository/postgres"
	"github.com/ignite/dm-planner/internal/repository/rediscache"
	"github.com/ignite/dm-planner/internal/service/analytics"
)

// seedNamespace keeps store ids stable across runs.
var seedNamespace = uuid.MustParse("6f1c8e2a-4b7d-4c5e-9a3f-2d8b1e0c7a64")

type seedStore struct {
	Number   string
	Name     string
	City     string
	State    string
	Region   string
	District string
	Size     string
	BaseRate float64 // percent
}

var stores = []seedStore{
	{"101", "Portland Central", "Portland", "OR", "West", "PNW", "large", 5.0},
	{"204", "Phoenix North", "Phoenix", "AZ", "Southwest", "AZ-1", "medium", 3.0},
	{"317", "Downtown Miami Store", "Miami", "FL", "Southeast", "FL-South", "small", 2.5},
}

var quantities = []int{300, 500, 800, 1200, 2000, 3500}

const (
	halfSaturation = 2000.0
	noise          = 0.2
	minRate        = 0.5
)

func (s seedStore) id() string {
	return uuid.NewSHA1(seedNamespace, []byte(s.Number)).String()
}

// effectiveRate follows a Hill curve in quantity: the rate climbs from half
// the base rate toward the full base rate, flattening past halfSaturation.
func effectiveRate(base float64, quantity int, rng *rand.Rand) float64 {
	q := math.Pow(float64(quantity), 0.9)
	rate := base * (0.5 + 0.5*q/(math.Pow(halfSaturation, 0.9)+q))
	rate *= 1 + noise*(2*rng.Float64()-1)
	return math.Max(rate, minRate)
}

func conversionsFor(quantity int, ratePct float64) int {
	return int(math.Round(float64(quantity) * ratePct / 100))
}

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to the YAML config file")
	seed := flag.Int64("seed", 42, "random seed for conversion noise")
	flag.Parse()

	cfg, err := config.LoadFromEnv(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if cfg.Database.URL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	ctx := context.Background()
	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatalf("connect: %v", err)
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("ping: %v", err)
	}

	lock := distlock.NewAdvisoryLock(db, "dmplanner:seed")
	ok, err := lock.TryAcquire(ctx)
	if err != nil {
		log.Fatalf("acquire seed lock: %v", err)
	}
	if !ok {
		log.Fatal("another seed run is in progress")
	}
	defer lock.Release(ctx)

	rng := rand.New(rand.NewSource(*seed))
	if err := load(ctx, db, rng, time.Now()); err != nil {
		log.Fatalf("seed: %v", err)
	}
	log.Printf("Seeded %d stores x %d deployments", len(stores), len(quantities))

	repo := postgres.NewAnalyticsRepo(db)
	if cfg.Redis.URL != "" {
		invalidateCache(ctx, repo, cfg.Redis)
	}

	top, err := analytics.NewEngine(repo).TopPerformers(ctx, len(stores), analytics.MetricConversionRate)
	if err != nil {
		log.Fatalf("rank: %v", err)
	}
	fmt.Println("Store ranking by conversion rate:")
	for i, s := range top {
		fmt.Printf("  %d. %-22s %6.2f%%  (%d deployments, %d recipients)\n",
			i+1, s.Name, s.ConversionRate, s.DeploymentCount, s.Recipients)
	}
}

func load(ctx context.Context, db *sql.DB, rng *rand.Rand, now time.Time) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	campaignID := uuid.NewString()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO campaigns (id, name, message) VALUES ($1, $2, $3)`,
		campaignID, "Seed history "+now.Format("2006-01-02"), "Seasonal offer"); err != nil {
		return fmt.Errorf("insert campaign: %w", err)
	}

	for _, s := range stores {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO retail_stores (id, store_number, name, city, state, region, district, size_category)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (id) DO NOTHING`,
			s.id(), s.Number, s.Name, s.City, s.State, s.Region, s.District, s.Size); err != nil {
			return fmt.Errorf("insert store %s: %w", s.Name, err)
		}

		for i, q := range quantities {
			createdAt := now.AddDate(0, 0, -(10 + i*15))
			conv := conversionsFor(q, effectiveRate(s.BaseRate, q, rng))
			if err := insertDeployment(ctx, tx, campaignID, s.id(), q, conv, createdAt); err != nil {
				return fmt.Errorf("store %s quantity %d: %w", s.Name, q, err)
			}
		}
	}
	return tx.Commit()
}

// insertDeployment writes one deployment with quantity recipients, the
// first conv of whom converted.
func insertDeployment(ctx context.Context, tx *sql.Tx, campaignID, storeID string, quantity, conv int, createdAt time.Time) error {
	depID := uuid.NewString()
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO retail_campaign_deployments (id, campaign_id, store_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, 'completed', $4, $4)`,
		depID, campaignID, storeID, createdAt); err != nil {
		return fmt.Errorf("insert deployment: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO recipients (id, campaign_id, tracking_id, created_at)
		SELECT $1::text || '-r-' || g, $2, $1::text || '-t-' || g, $4
		FROM generate_series(1, $3::int) g`,
		depID, campaignID, quantity, createdAt); err != nil {
		return fmt.Errorf("insert recipients: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO retail_deployment_recipients (id, deployment_id, recipient_id)
		SELECT $1::text || '-l-' || g, $1, $1::text || '-r-' || g
		FROM generate_series(1, $2::int) g`,
		depID, quantity); err != nil {
		return fmt.Errorf("link recipients: %w", err)
	}
	if conv > 0 {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO conversions (id, tracking_id, conversion_type, created_at)
			SELECT $1::text || '-c-' || g, $1::text || '-t-' || g, 'form_submission', $3
			FROM generate_series(1, $2::int) g`,
			depID, conv, createdAt); err != nil {
			return fmt.Errorf("insert conversions: %w", err)
		}
	}
	return nil
}

func invalidateCache(ctx context.Context, repo analytics.Repository, cfg config.RedisConfig) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		opts = &redis.Options{Addr: cfg.URL}
	}
	rdb := redis.NewClient(opts)
	defer rdb.Close()

	n, err := rediscache.New(repo, rdb, cfg.KeyPrefix, cfg.CacheTTL()).Invalidate(ctx)
	if err != nil {
		log.Printf("Warning: analytics cache not invalidated: %v", err)
		return
	}
	log.Printf("Invalidated %d cached analytics entries", n)
}
