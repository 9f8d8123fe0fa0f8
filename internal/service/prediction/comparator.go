package prediction

import (
	"fmt"
	"math"

	"github.com/ignite/dm-planner/internal/config"
	"github.com/ignite/dm-planner/internal/domain"
)

// estimateDivergence is the relative gap between the optimizer's stated
// conversions and the history-based prediction that lowers confidence.
const estimateDivergence = 0.5

// CompareInput describes an override of one plan item.
type CompareInput struct {
	StoreID      string  `json:"store_id"`
	AIQuantity   int     `json:"ai_quantity"`
	UserQuantity int     `json:"user_quantity"`
	UnitCost     float64 `json:"unit_cost"`
	// UserUnitCost defaults to UnitCost.
	UserUnitCost *float64 `json:"user_unit_cost,omitempty"`
	// AIExpectedConversions is what the optimizer stated for this item.
	AIExpectedConversions    *float64 `json:"ai_expected_conversions,omitempty"`
	AIExpectedConversionRate *float64 `json:"ai_expected_conversion_rate,omitempty"`
}

type Comparator struct {
	predictor *Predictor
	cfg       config.PlanningConfig
}

func NewComparator(p *Predictor, cfg config.PlanningConfig) *Comparator {
	return &Comparator{predictor: p, cfg: cfg}
}

// Compare predicts both quantities at the same store and summarizes the
// difference. It is deterministic in its inputs.
func (c *Comparator) Compare(profile StoreProfile, in CompareInput) (domain.PerformanceComparison, error) {
	userCost := in.UnitCost
	if in.UserUnitCost != nil {
		userCost = *in.UserUnitCost
	}
	ai, err := c.predictor.Predict(profile, in.AIQuantity, in.UnitCost)
	if err != nil {
		return domain.PerformanceComparison{}, fmt.Errorf("ai quantity: %w", err)
	}
	user, err := c.predictor.Predict(profile, in.UserQuantity, userCost)
	if err != nil {
		return domain.PerformanceComparison{}, fmt.Errorf("override quantity: %w", err)
	}

	delta := c.delta(ai, user)
	confidence, quality := c.confidence(profile, ai, in)
	return domain.PerformanceComparison{
		AIPrediction:   ai,
		UserOverride:   user,
		Delta:          delta,
		Recommendation: c.verdict(ai, user, delta),
		Confidence:     confidence,
		DataQuality:    quality,
	}, nil
}

func (c *Comparator) delta(ai, user domain.PerformancePrediction) domain.PerformanceDelta {
	d := domain.PerformanceDelta{
		ConversionsDelta: round(user.ExpectedConversions-ai.ExpectedConversions, 2),
	}
	switch {
	case ai.ExpectedConversions >= minConversions:
		d.ConversionsDeltaPercent = round(d.ConversionsDelta/ai.ExpectedConversions*100, 2)
	case user.ExpectedConversions >= minConversions:
		d.ConversionsDeltaPercent = 100
	}
	if ai.CostPerConversion != nil && user.CostPerConversion != nil {
		v := round(*user.CostPerConversion-*ai.CostPerConversion, 2)
		d.CostEfficiencyDelta = &v
	}
	d.PerformanceLabel = c.label(d.ConversionsDeltaPercent)
	return d
}

func (c *Comparator) label(pct float64) domain.PerformanceLabel {
	band, large := c.cfg.SimilarBandPercent, c.cfg.LargeChangePercent
	switch {
	case pct >= large:
		return domain.LabelMuchBetter
	case pct >= band:
		return domain.LabelBetter
	case pct > -band:
		return domain.LabelSimilar
	case pct > -large:
		return domain.LabelWorse
	default:
		return domain.LabelMuchWorse
	}
}

// verdict favors one side only when it wins on both conversions and cost
// per conversion beyond the tolerance bands. A side expected to convert
// nothing loses outright to one that converts.
func (c *Comparator) verdict(ai, user domain.PerformancePrediction, d domain.PerformanceDelta) domain.ComparisonVerdict {
	switch aiConv, userConv := ai.ExpectedConversions >= minConversions, user.ExpectedConversions >= minConversions; {
	case aiConv && !userConv:
		return domain.FavorAI
	case userConv && !aiConv:
		return domain.FavorOverride
	}
	if d.CostEfficiencyDelta == nil || ai.CostPerConversion == nil {
		return domain.VerdictSimilar
	}
	tol := *ai.CostPerConversion * c.cfg.CostTolerancePercent / 100
	band := c.cfg.SimilarBandPercent
	cost := *d.CostEfficiencyDelta

	switch {
	case d.ConversionsDeltaPercent > band && cost < -tol:
		return domain.FavorOverride
	case d.ConversionsDeltaPercent < -band && cost > tol:
		return domain.FavorAI
	default:
		return domain.VerdictSimilar
	}
}

func (c *Comparator) confidence(profile StoreProfile, ai domain.PerformancePrediction, in CompareInput) (domain.ConfidenceLevel, domain.DataQuality) {
	n := profile.DeploymentCount
	level := domain.ConfidenceLow
	switch {
	case n >= c.cfg.HighConfidenceDeployments:
		level = domain.ConfidenceHigh
	case n >= c.cfg.MediumConfidenceDeployments:
		level = domain.ConfidenceMedium
	}

	var msg string
	switch {
	case n == 0:
		msg = "No deployment history for this store; prediction uses network defaults"
	case n == 1:
		msg = "Based on a single historical deployment at this store"
	default:
		msg = fmt.Sprintf("Based on %d historical deployments at this store", n)
	}

	if stated, predicted, ok := statedEstimate(ai, in); ok && predicted >= minConversions {
		gap := math.Abs(stated-predicted) / predicted
		if gap > estimateDivergence {
			level = downgrade(level)
			msg += fmt.Sprintf("; the optimizer's estimate differs from history by %.0f%%", gap*100)
		}
	}
	return level, domain.DataQuality{DeploymentCount: n, Message: msg}
}

// statedEstimate pairs the optimizer's own estimate with the matching
// prediction, preferring conversions over rate.
func statedEstimate(ai domain.PerformancePrediction, in CompareInput) (stated, predicted float64, ok bool) {
	switch {
	case in.AIExpectedConversions != nil:
		return *in.AIExpectedConversions, ai.ExpectedConversions, true
	case in.AIExpectedConversionRate != nil:
		return *in.AIExpectedConversionRate, ai.ExpectedConversionRate, true
	}
	return 0, 0, false
}

func downgrade(l domain.ConfidenceLevel) domain.ConfidenceLevel {
	switch l {
	case domain.ConfidenceHigh:
		return domain.ConfidenceMedium
	default:
		return domain.ConfidenceLow
	}
}
