package analytics

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/ignite/dm-planner/internal/domain"
)

// Engine answers analytics queries over the historical performance store.
// It holds no mutable state and is safe for concurrent use if the
// underlying repository is.
type Engine struct {
	repo Repository
}

// NewEngine creates an analytics engine backed by the given repository.
func NewEngine(repo Repository) *Engine {
	return &Engine{repo: repo}
}

// Snapshot bundles the analytics views consumed by the optimizer and the
// explainable scorer so a planning request reads history once.
type Snapshot struct {
	Records       []domain.StorePerformanceRecord `json:"-"`
	Clusters      []domain.PerformanceCluster     `json:"clusters"`
	TopPerformers []domain.StorePerformanceRecord `json:"top_performers"`
	Regional      []domain.RegionalPerformance    `json:"regional"`
	Correlations  []domain.CorrelationInsight     `json:"correlations"`
	Summary       domain.AnalyticsSummary         `json:"summary"`
}

// TopRegions returns up to n best regions.
func (s *Snapshot) TopRegions(n int) []domain.RegionalPerformance {
	if n > len(s.Regional) {
		n = len(s.Regional)
	}
	return s.Regional[:n]
}

// Store returns the record for storeID, if the store is active with history.
func (s *Snapshot) Store(storeID string) (domain.StorePerformanceRecord, bool) {
	for _, r := range s.Records {
		if r.StoreID == storeID {
			return r, true
		}
	}
	return domain.StorePerformanceRecord{}, false
}

// PerformanceClusters partitions active stores into high/medium/low tiers.
func (e *Engine) PerformanceClusters(ctx context.Context) ([]domain.PerformanceCluster, error) {
	records, err := e.records(ctx)
	if err != nil {
		return nil, err
	}
	return BuildClusters(records), nil
}

// PerformanceByAttribute returns pooled performance per value of attr.
func (e *Engine) PerformanceByAttribute(ctx context.Context, attr Attribute) ([]domain.AttributePerformance, error) {
	if _, err := ParseAttribute(string(attr)); err != nil {
		return nil, err
	}
	records, err := e.records(ctx)
	if err != nil {
		return nil, err
	}
	return GroupByAttribute(records, attr), nil
}

// TimeBasedPatterns returns pooled performance per day of week, ISO week or month.
func (e *Engine) TimeBasedPatterns(ctx context.Context, groupBy GroupBy) ([]domain.TimePattern, error) {
	if _, err := ParseGroupBy(string(groupBy)); err != nil {
		return nil, err
	}
	aggs, err := e.repo.PeriodPerformance(ctx, groupBy)
	if err != nil {
		return nil, fmt.Errorf("period performance: %w", err)
	}
	return BuildTimePatterns(aggs, groupBy), nil
}

// TopPerformers ranks active stores descending by metric.
func (e *Engine) TopPerformers(ctx context.Context, limit int, metric Metric) ([]domain.StorePerformanceRecord, error) {
	records, err := e.records(ctx)
	if err != nil {
		return nil, err
	}
	return RankTop(records, limit, metric), nil
}

// Underperformers lists active stores converting below threshold percent,
// worst first. A non-positive threshold uses DefaultUnderperformerThreshold.
func (e *Engine) Underperformers(ctx context.Context, threshold float64) ([]domain.StorePerformanceRecord, error) {
	if threshold <= 0 {
		threshold = DefaultUnderperformerThreshold
	}
	records, err := e.records(ctx)
	if err != nil {
		return nil, err
	}
	return FilterUnderperformers(records, threshold), nil
}

// RegionalPerformance returns pooled performance per region, best first.
func (e *Engine) RegionalPerformance(ctx context.Context) ([]domain.RegionalPerformance, error) {
	records, err := e.records(ctx)
	if err != nil {
		return nil, err
	}
	return BuildRegional(records), nil
}

// CorrelationAnalysis compares best and worst groups for size, region and district.
func (e *Engine) CorrelationAnalysis(ctx context.Context) ([]domain.CorrelationInsight, error) {
	records, err := e.records(ctx)
	if err != nil {
		return nil, err
	}
	return BuildCorrelations(records), nil
}

// RetailAnalyticsSummary returns corpus totals plus best and worst region.
func (e *Engine) RetailAnalyticsSummary(ctx context.Context) (domain.AnalyticsSummary, error) {
	var (
		records []domain.StorePerformanceRecord
		totals  domain.Totals
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		records, err = e.records(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		totals, err = e.totals(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return domain.AnalyticsSummary{}, err
	}
	return BuildSummary(totals, BuildRegional(records)), nil
}

// Snapshot reads history once and derives every view a planning request
// needs. poolSize bounds TopPerformers.
func (e *Engine) Snapshot(ctx context.Context, poolSize int) (*Snapshot, error) {
	var (
		records []domain.StorePerformanceRecord
		totals  domain.Totals
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		records, err = e.records(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		totals, err = e.totals(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	regional := BuildRegional(records)
	return &Snapshot{
		Records:       records,
		Clusters:      BuildClusters(records),
		TopPerformers: RankTop(records, poolSize, MetricConversionRate),
		Regional:      regional,
		Correlations:  BuildCorrelations(records),
		Summary:       BuildSummary(totals, regional),
	}, nil
}

// StoreDeployments returns one store's deployment history.
func (e *Engine) StoreDeployments(ctx context.Context, storeID string) ([]domain.DeploymentStat, error) {
	stats, err := e.repo.StoreDeployments(ctx, storeID)
	if err != nil {
		return nil, fmt.Errorf("store deployments: %w", err)
	}
	return stats, nil
}

// StoreRecords returns every active store record with normalized rates.
func (e *Engine) StoreRecords(ctx context.Context) ([]domain.StorePerformanceRecord, error) {
	return e.records(ctx)
}

func (e *Engine) records(ctx context.Context) ([]domain.StorePerformanceRecord, error) {
	records, err := e.repo.StorePerformance(ctx)
	if err != nil {
		return nil, fmt.Errorf("store performance: %w", err)
	}
	out := make([]domain.StorePerformanceRecord, 0, len(records))
	for _, r := range records {
		if r.DeploymentCount < 1 {
			continue
		}
		r.ConversionRate = round2(domain.ConversionRate(r.Recipients, r.Conversions))
		out = append(out, r)
	}
	return out, nil
}

func (e *Engine) totals(ctx context.Context) (domain.Totals, error) {
	t, err := e.repo.Totals(ctx)
	if err != nil {
		return domain.Totals{}, fmt.Errorf("totals: %w", err)
	}
	return t, nil
}
