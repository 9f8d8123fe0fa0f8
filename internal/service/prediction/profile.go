package prediction

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/ignite/dm-planner/internal/config"
	"github.com/ignite/dm-planner/internal/domain"
)

// HistorySource is the read side ProfileLoader needs. *analytics.Engine
// satisfies it.
type HistorySource interface {
	StoreRecords(ctx context.Context) ([]domain.StorePerformanceRecord, error)
	StoreDeployments(ctx context.Context, storeID string) ([]domain.DeploymentStat, error)
}

type ProfileLoader struct {
	src        HistorySource
	defaultRef int
}

func NewProfileLoader(src HistorySource, cfg config.PlanningConfig) *ProfileLoader {
	l := &ProfileLoader{src: src, defaultRef: cfg.DefaultReferenceQuantity}
	if l.defaultRef <= 0 {
		l.defaultRef = config.DefaultPlanning().DefaultReferenceQuantity
	}
	return l
}

// Load builds the profile of storeID. Stores without deployment history
// return ErrStoreNotFound.
func (l *ProfileLoader) Load(ctx context.Context, storeID string) (StoreProfile, error) {
	var (
		records     []domain.StorePerformanceRecord
		deployments []domain.DeploymentStat
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		records, err = l.src.StoreRecords(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		deployments, err = l.src.StoreDeployments(gctx, storeID)
		return err
	})
	if err := g.Wait(); err != nil {
		return StoreProfile{}, fmt.Errorf("load profile %s: %w", storeID, err)
	}

	idx := -1
	for i, r := range records {
		if r.StoreID == storeID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return StoreProfile{}, fmt.Errorf("%w: %s", ErrStoreNotFound, storeID)
	}
	store := records[idx]

	ref := MedianQuantity(deployments)
	if ref <= 0 {
		ref = l.defaultRef
	}
	return StoreProfile{
		StoreID:           storeID,
		BaseRate:          store.ConversionRate,
		BasePercentile:    Percentile(records, store.ConversionRate),
		ReferenceQuantity: ref,
		DeploymentCount:   store.DeploymentCount,
	}, nil
}

// Percentile is the mid-rank percentile of rate among records: stores below
// count fully, ties count half. A lone store sits at 50.
func Percentile(records []domain.StorePerformanceRecord, rate float64) float64 {
	if len(records) == 0 {
		return 50
	}
	var below, equal float64
	for _, r := range records {
		switch {
		case r.ConversionRate < rate:
			below++
		case r.ConversionRate == rate:
			equal++
		}
	}
	return round((below+0.5*equal)/float64(len(records))*100, 2)
}

// MedianQuantity is the median recipient count over deployments that
// reached anyone; 0 when there are none.
func MedianQuantity(deployments []domain.DeploymentStat) int {
	sizes := make([]int, 0, len(deployments))
	for _, d := range deployments {
		if d.Recipients > 0 {
			sizes = append(sizes, d.Recipients)
		}
	}
	if len(sizes) == 0 {
		return 0
	}
	sort.Ints(sizes)
	mid := len(sizes) / 2
	if len(sizes)%2 == 1 {
		return sizes[mid]
	}
	return (sizes[mid-1] + sizes[mid]) / 2
}
