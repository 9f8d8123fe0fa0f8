package optimizer

import (
	"context"
	"fmt"
	"strings"

	"github.com/ignite/dm-planner/internal/config"
	"github.com/ignite/dm-planner/internal/domain"
	"github.com/ignite/dm-planner/internal/pkg/logger"
	"github.com/ignite/dm-planner/internal/service/analytics"
)

// UnavailableWarning prefixes the warning emitted whenever the statistical
// fallback produced the result.
const UnavailableWarning = "AI optimization unavailable"

// Strategy produces a ranking for req from an analytics snapshot. count is
// already normalized to [1, MaxStoreCount].
type Strategy interface {
	Name() string
	Recommend(ctx context.Context, req Request, count int, snap *analytics.Snapshot) (*Result, error)
}

// Statistical ranks stores purely by historical conversion rate. It cannot
// fail and terminates every Chain.
type Statistical struct {
	cfg config.PlanningConfig
}

func NewStatistical(cfg config.PlanningConfig) *Statistical {
	return &Statistical{cfg: cfg}
}

func (s *Statistical) Name() string { return "statistical" }

// Rank returns the top count stores of the snapshot pool verbatim.
func (s *Statistical) Rank(req Request, count int, snap *analytics.Snapshot) *Result {
	var pool []domain.StorePerformanceRecord
	if snap != nil {
		pool = snap.TopPerformers
	}
	if count > len(pool) {
		count = len(pool)
	}

	recs := make([]domain.StoreRecommendation, 0, count)
	for _, st := range pool[:count] {
		recs = append(recs, domain.StoreRecommendation{
			StoreID:                 st.StoreID,
			StoreNumber:             st.StoreNumber,
			StoreName:               st.Name,
			Region:                  st.Region,
			ConfidenceScore:         s.cfg.FallbackConfidence,
			Reasoning:               fmt.Sprintf("Historical conversion rate of %.2f%% across %d deployments", st.ConversionRate, st.DeploymentCount),
			PredictedConversionRate: st.ConversionRate,
			Priority:                domain.PriorityMedium,
		})
	}

	res := &Result{
		Strategy:               s.Name(),
		Recommendations:        recs,
		ExpectedConversionRate: meanPredictedRate(recs),
		RecipientsPerStore:     recipientsForBudget(req.Budget, len(recs), s.cfg.AssumedCostPerRecipient),
		Insights:               []string{"Fallback ranking: stores were selected by historical conversion rate only, without AI analysis."},
		Warnings:               []string{},
	}
	if len(recs) == 0 {
		res.Warnings = append(res.Warnings, "No stores with deployment history are available to recommend.")
	}
	return res
}

func (s *Statistical) Recommend(_ context.Context, req Request, count int, snap *analytics.Snapshot) (*Result, error) {
	return s.Rank(req, count, snap), nil
}

// Chain tries each primary strategy in order and falls back to the
// statistical ranking when all of them fail.
type Chain struct {
	primary  []Strategy
	fallback *Statistical
	// unavailable explains an empty primary list.
	unavailable string
}

// NewChain builds a chain ending in fallback. With no primaries the chain
// always degrades, reporting unavailable as the reason.
func NewChain(fallback *Statistical, unavailable string, primary ...Strategy) *Chain {
	return &Chain{primary: primary, fallback: fallback, unavailable: unavailable}
}

// Recommend never returns an error.
func (c *Chain) Recommend(ctx context.Context, req Request, count int, snap *analytics.Snapshot) *Result {
	var reasons []string
	for _, s := range c.primary {
		res, err := try(ctx, s, req, count, snap)
		if err == nil && res != nil {
			res.Strategy = s.Name()
			return res
		}
		if err == nil {
			err = fmt.Errorf("%s returned no result", s.Name())
		}
		logger.Warn("optimizer strategy failed, trying next",
			"component", "optimizer", "strategy", s.Name(), "error", err.Error())
		reasons = append(reasons, err.Error())
	}
	if len(reasons) == 0 && c.unavailable != "" {
		reasons = append(reasons, c.unavailable)
	}

	res := c.fallback.Rank(req, count, snap)
	warning := UnavailableWarning
	if len(reasons) > 0 {
		warning += ": " + strings.Join(reasons, "; ")
	}
	res.Warnings = append([]string{warning}, res.Warnings...)
	return res
}

// try runs one strategy, converting a panic into an error so it degrades
// like any other failure.
func try(ctx context.Context, s Strategy, req Request, count int, snap *analytics.Snapshot) (res *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			res, err = nil, fmt.Errorf("%s panicked: %v", s.Name(), r)
		}
	}()
	return s.Recommend(ctx, req, count, snap)
}
