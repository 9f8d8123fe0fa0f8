// Package api exposes the planning engine over HTTP for the plan review UI
// and reporting consumers.
package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/ignite/dm-planner/internal/domain"
	"github.com/ignite/dm-planner/internal/pkg/httputil"
	"github.com/ignite/dm-planner/internal/service/analytics"
	"github.com/ignite/dm-planner/internal/service/optimizer"
	"github.com/ignite/dm-planner/internal/service/planning"
	"github.com/ignite/dm-planner/internal/service/prediction"
)

// AnalyticsService is the read API of the analytics engine.
type AnalyticsService interface {
	PerformanceClusters(ctx context.Context) ([]domain.PerformanceCluster, error)
	PerformanceByAttribute(ctx context.Context, attr analytics.Attribute) ([]domain.AttributePerformance, error)
	TimeBasedPatterns(ctx context.Context, groupBy analytics.GroupBy) ([]domain.TimePattern, error)
	TopPerformers(ctx context.Context, limit int, metric analytics.Metric) ([]domain.StorePerformanceRecord, error)
	Underperformers(ctx context.Context, threshold float64) ([]domain.StorePerformanceRecord, error)
	RegionalPerformance(ctx context.Context) ([]domain.RegionalPerformance, error)
	CorrelationAnalysis(ctx context.Context) ([]domain.CorrelationInsight, error)
	RetailAnalyticsSummary(ctx context.Context) (domain.AnalyticsSummary, error)
}

// PlanningService builds recommendations and plans.
type PlanningService interface {
	Recommend(ctx context.Context, req optimizer.Request) (*optimizer.Result, error)
	Plan(ctx context.Context, req planning.Request) (*planning.Plan, error)
}

// PredictionService predicts and compares quantities at one store.
type PredictionService interface {
	Predict(ctx context.Context, storeID string, quantity int, unitCost float64) (domain.PerformancePrediction, error)
	Compare(ctx context.Context, in prediction.CompareInput) (domain.PerformanceComparison, error)
}

// Handlers holds the services behind the HTTP routes.
type Handlers struct {
	analytics  AnalyticsService
	planning   PlanningService
	prediction PredictionService
	health     *HealthChecker
}

func NewHandlers(a AnalyticsService, p PlanningService, pr PredictionService, hc *HealthChecker) *Handlers {
	return &Handlers{analytics: a, planning: p, prediction: pr, health: hc}
}

// writeError maps service sentinels to status codes.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, analytics.ErrInvalidAttribute),
		errors.Is(err, analytics.ErrInvalidGroupBy),
		errors.Is(err, analytics.ErrInvalidMetric),
		errors.Is(err, planning.ErrInvalidRequest),
		errors.Is(err, prediction.ErrInvalidQuantity),
		errors.Is(err, prediction.ErrInvalidUnitCost):
		httputil.BadRequest(w, err.Error())
	case errors.Is(err, prediction.ErrStoreNotFound):
		httputil.NotFound(w, err.Error())
	default:
		httputil.InternalError(w, err)
	}
}
