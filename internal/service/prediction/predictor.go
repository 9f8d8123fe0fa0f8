package prediction

import (
	"math"

	"github.com/ignite/dm-planner/internal/config"
	"github.com/ignite/dm-planner/internal/domain"
)

// minConversions is the level below which cost per conversion is undefined.
const minConversions = 1e-9

// StoreProfile is the history the predictor needs for one store.
type StoreProfile struct {
	StoreID string `json:"store_id"`
	// BaseRate is the pooled historical conversion rate in percent.
	BaseRate float64 `json:"base_rate"`
	// BasePercentile is the store's standing among all active stores.
	BasePercentile    float64 `json:"base_percentile"`
	ReferenceQuantity int     `json:"reference_quantity"`
	DeploymentCount   int     `json:"deployment_count"`
}

type Predictor struct {
	decay      float64
	defaultRef int
}

// NewPredictor builds a predictor. A negative or non-finite decay, or a
// non-positive default reference, falls back to the package defaults so the
// response factor stays within (0, 1].
func NewPredictor(cfg config.PlanningConfig) *Predictor {
	def := config.DefaultPlanning()
	p := &Predictor{decay: cfg.SaturationDecay, defaultRef: cfg.DefaultReferenceQuantity}
	if p.decay < 0 || math.IsNaN(p.decay) || math.IsInf(p.decay, 0) {
		p.decay = def.SaturationDecay
	}
	if p.defaultRef <= 0 {
		p.defaultRef = def.DefaultReferenceQuantity
	}
	return p
}

// ResponseFactor is the fraction of linear response retained at quantity q.
func (p *Predictor) ResponseFactor(q, ref int) float64 {
	if ref <= 0 {
		ref = p.defaultRef
	}
	if ref <= 0 {
		return 1
	}
	excess := math.Max(0, float64(q-ref))
	return float64(ref) / (float64(ref) + p.decay*excess)
}

// Predict projects the outcome of mailing quantity recipients at unitCost.
func (p *Predictor) Predict(profile StoreProfile, quantity int, unitCost float64) (domain.PerformancePrediction, error) {
	if quantity < 0 {
		return domain.PerformancePrediction{}, ErrInvalidQuantity
	}
	if unitCost < 0 || math.IsNaN(unitCost) || math.IsInf(unitCost, 0) {
		return domain.PerformancePrediction{}, ErrInvalidUnitCost
	}

	ref := profile.ReferenceQuantity
	if ref <= 0 {
		ref = p.defaultRef
	}
	baseRate := domain.ClampPercent(profile.BaseRate)
	basePct := domain.ClampPercent(profile.BasePercentile)

	rf := p.ResponseFactor(quantity, ref)
	saturation := domain.Clamp(1-rf, 0, 1)
	expected := baseRate / 100 * float64(quantity) * rf

	pred := domain.PerformancePrediction{
		StoreID:                profile.StoreID,
		Quantity:               quantity,
		UnitCost:               unitCost,
		BaseConversionRate:     round(baseRate, 4),
		ReferenceQuantity:      ref,
		BasePercentile:         round(basePct, 2),
		ProjectedPercentile:    round(domain.ClampPercent(basePct*(1-saturation)), 2),
		SaturationLevel:        round(saturation, 4),
		ExpectedConversions:    round(expected, 2),
		ExpectedConversionRate: round(domain.ClampPercent(baseRate*rf), 4),
	}
	if expected >= minConversions {
		cpc := round(float64(quantity)*unitCost/expected, 2)
		pred.CostPerConversion = &cpc
	}
	return pred, nil
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
