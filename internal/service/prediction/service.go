package prediction

import (
	"context"

	"github.com/ignite/dm-planner/internal/config"
	"github.com/ignite/dm-planner/internal/domain"
)

// Service loads a store's profile and runs the predictor or comparator on it.
type Service struct {
	loader     *ProfileLoader
	predictor  *Predictor
	comparator *Comparator
}

func NewService(src HistorySource, cfg config.PlanningConfig) *Service {
	p := NewPredictor(cfg)
	return &Service{
		loader:     NewProfileLoader(src, cfg),
		predictor:  p,
		comparator: NewComparator(p, cfg),
	}
}

func (s *Service) Predict(ctx context.Context, storeID string, quantity int, unitCost float64) (domain.PerformancePrediction, error) {
	if quantity < 0 {
		return domain.PerformancePrediction{}, ErrInvalidQuantity
	}
	profile, err := s.loader.Load(ctx, storeID)
	if err != nil {
		return domain.PerformancePrediction{}, err
	}
	return s.predictor.Predict(profile, quantity, unitCost)
}

func (s *Service) Compare(ctx context.Context, in CompareInput) (domain.PerformanceComparison, error) {
	if in.AIQuantity < 0 || in.UserQuantity < 0 {
		return domain.PerformanceComparison{}, ErrInvalidQuantity
	}
	profile, err := s.loader.Load(ctx, in.StoreID)
	if err != nil {
		return domain.PerformanceComparison{}, err
	}
	return s.comparator.Compare(profile, in)
}
