package planning

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ignite/dm-planner/internal/config"
	"github.com/ignite/dm-planner/internal/domain"
	"github.com/ignite/dm-planner/internal/pkg/logger"
	"github.com/ignite/dm-planner/internal/service/analytics"
	"github.com/ignite/dm-planner/internal/service/optimizer"
	"github.com/ignite/dm-planner/internal/service/scoring"
)

// Snapshotter reads the analytics views a plan is built from.
type Snapshotter interface {
	Snapshot(ctx context.Context, poolSize int) (*analytics.Snapshot, error)
}

// Request is a full planning request.
type Request struct {
	optimizer.Request
	// Quantity per store; defaults to the budget split or the assumed batch size.
	Quantity int     `json:"quantity,omitempty"`
	UnitCost float64 `json:"unit_cost,omitempty"`
	// Month (1-12) used for timing alignment; defaults to the current month.
	Month int `json:"month,omitempty"`
}

// Plan is a scored deployment plan.
type Plan struct {
	ID                  string                   `json:"id"`
	CampaignName        string                   `json:"campaign_name"`
	GeneratedAt         time.Time                `json:"generated_at"`
	Strategy            string                   `json:"strategy"`
	Items               []domain.PlanningAIScore `json:"items"`
	TotalQuantity       int                      `json:"total_quantity"`
	TotalCost           float64                  `json:"total_cost"`
	ExpectedConversions float64                  `json:"expected_conversions"`
	AverageConfidence   float64                  `json:"average_confidence"`
	AutoApprovedCount   int                      `json:"auto_approved_count"`
	Insights            []string                 `json:"insights"`
	Warnings            []string                 `json:"warnings"`
}

type Service struct {
	analytics Snapshotter
	optimizer *optimizer.Optimizer
	scorer    *scoring.Scorer
	cfg       config.PlanningConfig
	now       func() time.Time
}

func NewService(a Snapshotter, o *optimizer.Optimizer, sc *scoring.Scorer, cfg config.PlanningConfig) *Service {
	return &Service{analytics: a, optimizer: o, scorer: sc, cfg: cfg, now: time.Now}
}

// Recommend runs only the optimizer stage.
func (s *Service) Recommend(ctx context.Context, req optimizer.Request) (*optimizer.Result, error) {
	if err := validateCampaign(req); err != nil {
		return nil, err
	}
	snap, err := s.analytics.Snapshot(ctx, s.poolSize(req))
	if err != nil {
		return nil, fmt.Errorf("analytics snapshot: %w", err)
	}
	return s.optimizer.Recommend(ctx, req, snap), nil
}

// Plan runs the full pipeline.
func (s *Service) Plan(ctx context.Context, req Request) (*Plan, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	snap, err := s.analytics.Snapshot(ctx, s.poolSize(req.Request))
	if err != nil {
		return nil, fmt.Errorf("analytics snapshot: %w", err)
	}

	res := s.optimizer.Recommend(ctx, req.Request, snap)

	now := s.now().UTC()
	month := now.Month()
	if req.Month > 0 {
		month = time.Month(req.Month)
	}
	quantity := req.Quantity
	if quantity <= 0 {
		quantity = res.RecipientsPerStore
	}
	if quantity <= 0 {
		quantity = s.cfg.AssumedRecipientsPerStore
	}
	unitCost := req.UnitCost
	if unitCost <= 0 {
		unitCost = s.cfg.AssumedCostPerRecipient
	}

	items := s.scorer.Score(scoring.Input{
		Recommendations: res.Recommendations,
		Snapshot:        snap,
		Month:           month,
		Quantity:        quantity,
		UnitCost:        unitCost,
	})

	plan := &Plan{
		ID:           uuid.NewString(),
		CampaignName: req.CampaignName,
		GeneratedAt:  now,
		Strategy:     res.Strategy,
		Items:        items,
		Insights:     res.Insights,
		Warnings:     res.Warnings,
	}
	if dropped := len(res.Recommendations) - len(items); dropped > 0 {
		plan.Warnings = append(plan.Warnings, fmt.Sprintf("%d recommended stores could not be matched to store history and were skipped", dropped))
	}
	for _, it := range items {
		plan.TotalQuantity += it.Quantity
		plan.TotalCost += it.TotalCost
		plan.ExpectedConversions += it.AIExpectedConversions
		plan.AverageConfidence += it.AIConfidence
		if it.AIAutoApproved {
			plan.AutoApprovedCount++
		}
	}
	plan.TotalCost = round2(plan.TotalCost)
	plan.ExpectedConversions = round2(plan.ExpectedConversions)
	if len(items) > 0 {
		plan.AverageConfidence = round2(plan.AverageConfidence / float64(len(items)))
	}

	logger.Info("plan generated",
		"component", "planning", "plan_id", plan.ID, "strategy", plan.Strategy,
		"items", len(items), "auto_approved", plan.AutoApprovedCount)
	return plan, nil
}

// poolSize never lets the candidate pool cap the requested store count.
func (s *Service) poolSize(req optimizer.Request) int {
	return max(s.cfg.CandidatePoolSize, s.optimizer.StoreCount(req.StoreCount))
}

func validateCampaign(req optimizer.Request) error {
	switch {
	case strings.TrimSpace(req.CampaignName) == "":
		return fmt.Errorf("%w: campaign_name is required", ErrInvalidRequest)
	case req.StoreCount < 0:
		return fmt.Errorf("%w: store_count must be non-negative", ErrInvalidRequest)
	case req.Budget != nil && *req.Budget < 0:
		return fmt.Errorf("%w: budget must be non-negative", ErrInvalidRequest)
	}
	return nil
}

func validate(req Request) error {
	if err := validateCampaign(req.Request); err != nil {
		return err
	}
	switch {
	case req.Quantity < 0:
		return fmt.Errorf("%w: quantity must be non-negative", ErrInvalidRequest)
	case req.UnitCost < 0:
		return fmt.Errorf("%w: unit_cost must be non-negative", ErrInvalidRequest)
	case req.Month < 0 || req.Month > 12:
		return fmt.Errorf("%w: month must be between 1 and 12", ErrInvalidRequest)
	}
	return nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
