package api

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ignite/dm-planner/internal/pkg/httputil"
)

// HealthStatus represents the overall health of the service.
type HealthStatus struct {
	Status  string                    `json:"status"`
	Version string                    `json:"version"`
	Uptime  string                    `json:"uptime"`
	Checks  map[string]ComponentCheck `json:"checks"`
}

// ComponentCheck is the health of a single dependency.
type ComponentCheck struct {
	Status  string `json:"status"`
	Latency string `json:"latency,omitempty"`
	Message string `json:"message,omitempty"`
}

const (
	statusHealthy   = "healthy"
	statusDegraded  = "degraded"
	statusUnhealthy = "unhealthy"
	statusDisabled  = "disabled"
)

// HealthChecker checks the analytics database, the cache and the language
// model provider. A nil redis client means caching is disabled; an empty
// provider means recommendations run on the statistical fallback only.
type HealthChecker struct {
	db          *sql.DB
	redis       *redis.Client
	llmProvider string
	version     string
	startTime   time.Time
}

// NewHealthChecker creates a health checker.
func NewHealthChecker(db *sql.DB, rdb *redis.Client, llmProvider, version string) *HealthChecker {
	return &HealthChecker{
		db:          db,
		redis:       rdb,
		llmProvider: llmProvider,
		version:     version,
		startTime:   time.Now(),
	}
}

type namedCheck struct {
	name  string
	check ComponentCheck
}

// Check runs every dependency check concurrently.
func (hc *HealthChecker) Check(ctx context.Context) HealthStatus {
	results := make(chan namedCheck, 2)
	go func() { results <- namedCheck{"database", hc.checkDatabase(ctx)} }()
	go func() { results <- namedCheck{"redis", hc.checkRedis(ctx)} }()

	checks := make(map[string]ComponentCheck, 3)
	for i := 0; i < 2; i++ {
		r := <-results
		checks[r.name] = r.check
	}
	checks["llm"] = hc.checkLLM()

	status := statusHealthy
	for name, c := range checks {
		switch {
		case c.Status == statusUnhealthy && name == "database":
			status = statusUnhealthy
		case (c.Status == statusUnhealthy || c.Status == statusDegraded) && status == statusHealthy:
			status = statusDegraded
		}
	}

	return HealthStatus{
		Status:  status,
		Version: hc.version,
		Uptime:  time.Since(hc.startTime).Round(time.Second).String(),
		Checks:  checks,
	}
}

func (hc *HealthChecker) checkDatabase(ctx context.Context) ComponentCheck {
	if hc.db == nil {
		return ComponentCheck{Status: statusUnhealthy, Message: "database not configured"}
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	start := time.Now()
	err := hc.db.PingContext(ctx)
	latency := time.Since(start)
	if err != nil {
		return ComponentCheck{Status: statusUnhealthy, Latency: latency.String(), Message: err.Error()}
	}
	if latency > time.Second {
		return ComponentCheck{Status: statusDegraded, Latency: latency.String(), Message: "slow response"}
	}
	return ComponentCheck{Status: statusHealthy, Latency: latency.String()}
}

// Cache failures degrade the service; analytics reads fall through to Postgres.
func (hc *HealthChecker) checkRedis(ctx context.Context) ComponentCheck {
	if hc.redis == nil {
		return ComponentCheck{Status: statusDisabled, Message: "analytics cache disabled"}
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	start := time.Now()
	err := hc.redis.Ping(ctx).Err()
	latency := time.Since(start)
	if err != nil {
		return ComponentCheck{Status: statusUnhealthy, Latency: latency.String(), Message: err.Error()}
	}
	if latency > 500*time.Millisecond {
		return ComponentCheck{Status: statusDegraded, Latency: latency.String(), Message: "slow response"}
	}
	return ComponentCheck{Status: statusHealthy, Latency: latency.String()}
}

func (hc *HealthChecker) checkLLM() ComponentCheck {
	if hc.llmProvider == "" {
		return ComponentCheck{Status: statusDisabled, Message: "statistical fallback only"}
	}
	return ComponentCheck{Status: statusHealthy, Message: hc.llmProvider}
}

// HandleHealth returns the full health status. It always answers 200 so
// dashboards can read the body.
func (hc *HealthChecker) HandleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.OK(w, hc.Check(r.Context()))
}

// HandleLiveness reports that the process is up.
func (hc *HealthChecker) HandleLiveness(w http.ResponseWriter, r *http.Request) {
	httputil.OK(w, map[string]string{"status": "alive"})
}

// HandleReadiness answers 503 while the analytics database is unreachable.
func (hc *HealthChecker) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	status := hc.Check(r.Context())
	if status.Status == statusUnhealthy {
		httputil.JSON(w, http.StatusServiceUnavailable, status)
		return
	}
	httputil.OK(w, status)
}
