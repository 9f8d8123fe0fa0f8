// Package scoring turns optimizer output into auditable plan items: four
// factor scores, a blended confidence, reasoning bullets and risk flags.
package scoring

import (
	"math"
	"time"

	"github.com/ignite/dm-planner/internal/config"
	"github.com/ignite/dm-planner/internal/domain"
	"github.com/ignite/dm-planner/internal/service/analytics"
)

const (
	maxReasoning = 4
	minReasoning = 2
)

// Input is one scoring pass.
type Input struct {
	Recommendations []domain.StoreRecommendation
	Snapshot        *analytics.Snapshot
	Month           time.Month
	// Quantity and UnitCost are applied to every item.
	Quantity int
	UnitCost float64
}

// Scorer is stateless; one instance may be shared.
type Scorer struct {
	cfg config.PlanningConfig
}

func New(cfg config.PlanningConfig) *Scorer {
	return &Scorer{cfg: cfg}
}

// Score builds a plan item per recommendation, in input order.
// Recommendations whose store is not in the snapshot are dropped.
func (s *Scorer) Score(in Input) []domain.PlanningAIScore {
	out := make([]domain.PlanningAIScore, 0, len(in.Recommendations))
	if in.Snapshot == nil {
		return out
	}
	for _, rec := range in.Recommendations {
		item, ok := s.scoreOne(rec, in)
		if !ok {
			continue
		}
		out = append(out, item)
	}
	return out
}

// subject is everything the rule tables look at for one store.
type subject struct {
	rec        domain.StoreRecommendation
	store      domain.StorePerformanceRecord
	rank       int // -1 when outside the ranked pool
	poolSize   int
	region     *domain.RegionalPerformance
	month      time.Month
	peak       bool
	scores     domain.FactorScores
	confidence float64
	snap       *analytics.Snapshot
}

func (s *Scorer) scoreOne(rec domain.StoreRecommendation, in Input) (domain.PlanningAIScore, bool) {
	store, ok := in.Snapshot.Store(rec.StoreID)
	if !ok {
		return domain.PlanningAIScore{}, false
	}

	sub := subject{
		rec:      rec,
		store:    store,
		rank:     rankOf(in.Snapshot.TopPerformers, rec.StoreID),
		poolSize: len(in.Snapshot.TopPerformers),
		region:   regionOf(in.Snapshot.Regional, store.Region),
		month:    in.Month,
		peak:     s.isPeak(in.Month),
		snap:     in.Snapshot,
	}
	sub.scores = domain.FactorScores{
		StorePerformance:    s.storePerformance(sub),
		CreativePerformance: round2(domain.ClampPercent(rec.ConfidenceScore - s.cfg.CreativeOffset)),
		GeographicFit:       s.geographicFit(sub, in.Snapshot.Regional),
		TimingAlignment:     s.timingAlignment(sub),
	}
	sub.confidence = s.blend(sub.scores)

	item := domain.PlanningAIScore{
		StoreRecommendation:      rec,
		FactorScores:             sub.scores,
		Quantity:                 in.Quantity,
		UnitCost:                 in.UnitCost,
		TotalCost:                round2(float64(in.Quantity) * in.UnitCost),
		AIConfidence:             sub.confidence,
		AIConfidenceLevel:        s.level(sub.confidence),
		AIReasoning:              s.reasoning(sub),
		AIRiskFactors:            s.risks(sub),
		AIExpectedConversionRate: rec.PredictedConversionRate,
		AIExpectedConversions:    round2(rec.PredictedConversionRate / 100 * float64(in.Quantity)),
		AIAutoApproved:           sub.confidence >= s.cfg.AutoApproveThreshold,
	}
	if item.StoreName == "" {
		item.StoreName = store.Name
	}
	if item.Region == "" {
		item.Region = store.Region
	}
	return item, true
}

// storePerformance decays linearly from 100 at rank 0 to the floor at the
// tail of the ranked pool.
func (s *Scorer) storePerformance(sub subject) float64 {
	if sub.rank < 0 {
		return s.cfg.StorePerformanceDefault
	}
	if sub.poolSize <= 1 {
		return 100
	}
	span := 100 - s.cfg.StorePerformanceFloor
	v := 100 - float64(sub.rank)/float64(sub.poolSize-1)*span
	return round2(math.Max(v, s.cfg.StorePerformanceFloor))
}

func (s *Scorer) geographicFit(sub subject, regional []domain.RegionalPerformance) float64 {
	if sub.region == nil || len(regional) == 0 || regional[0].ConversionRate <= 0 {
		return 50
	}
	return round2(domain.ClampPercent(sub.region.ConversionRate / regional[0].ConversionRate * 100))
}

func (s *Scorer) timingAlignment(sub subject) float64 {
	v := sub.rec.ConfidenceScore - s.cfg.TimingOffPeakPenalty
	if sub.peak {
		v = sub.rec.ConfidenceScore + s.cfg.TimingPeakBonus
	}
	return round2(domain.ClampPercent(v))
}

func (s *Scorer) blend(f domain.FactorScores) float64 {
	w := s.cfg.FactorWeights
	total := w.Sum()
	if total <= 0 {
		return 0
	}
	v := (f.StorePerformance*w.StorePerformance +
		f.CreativePerformance*w.CreativePerformance +
		f.GeographicFit*w.GeographicFit +
		f.TimingAlignment*w.TimingAlignment) / total
	return round2(domain.ClampPercent(v))
}

func (s *Scorer) level(confidence float64) domain.ConfidenceLevel {
	switch {
	case confidence >= s.cfg.AutoApproveThreshold:
		return domain.ConfidenceHigh
	case confidence >= s.cfg.MediumConfidenceThreshold:
		return domain.ConfidenceMedium
	default:
		return domain.ConfidenceLow
	}
}

func (s *Scorer) isPeak(m time.Month) bool {
	for _, p := range s.cfg.PeakMonths {
		if time.Month(p) == m {
			return true
		}
	}
	return false
}

func rankOf(pool []domain.StorePerformanceRecord, storeID string) int {
	for i, r := range pool {
		if r.StoreID == storeID {
			return i
		}
	}
	return -1
}

func regionOf(regional []domain.RegionalPerformance, region string) *domain.RegionalPerformance {
	if region == "" {
		region = "unknown"
	}
	for i := range regional {
		if regional[i].Region == region {
			return &regional[i]
		}
	}
	return nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
