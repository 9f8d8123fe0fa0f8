package analytics

import (
	"context"

	"github.com/ignite/dm-planner/internal/domain"
)

// Repository defines the read-only data access contract over stores,
// deployments, recipients and conversions. Implementations must be safe for
// concurrent use and must never write.
type Repository interface {
	// StorePerformance returns one pooled record per active store with at
	// least one deployment. Conversions join recipients by tracking id.
	StorePerformance(ctx context.Context) ([]domain.StorePerformanceRecord, error)

	// PeriodPerformance rolls deployments up by creation day-of-week (0=Sunday),
	// ISO week or month.
	PeriodPerformance(ctx context.Context, groupBy GroupBy) ([]domain.PeriodAggregate, error)

	// Totals returns corpus-wide counts.
	Totals(ctx context.Context) (domain.Totals, error)

	// StoreDeployments returns the per-deployment sizes and outcomes of one
	// store, oldest first. An unknown store yields an empty slice.
	StoreDeployments(ctx context.Context, storeID string) ([]domain.DeploymentStat, error)
}

// Attribute is a categorical store attribute used for grouping.
type Attribute string

const (
	AttributeSize     Attribute = "size"
	AttributeRegion   Attribute = "region"
	AttributeDistrict Attribute = "district"
)

// ParseAttribute validates an attribute name.
func ParseAttribute(s string) (Attribute, error) {
	switch Attribute(s) {
	case AttributeSize, AttributeRegion, AttributeDistrict:
		return Attribute(s), nil
	}
	return "", ErrInvalidAttribute
}

// GroupBy selects the time bucket for PeriodPerformance.
type GroupBy string

const (
	GroupByDayOfWeek GroupBy = "day_of_week"
	GroupByWeek      GroupBy = "week"
	GroupByMonth     GroupBy = "month"
)

// ParseGroupBy validates a grouping name.
func ParseGroupBy(s string) (GroupBy, error) {
	switch GroupBy(s) {
	case GroupByDayOfWeek, GroupByWeek, GroupByMonth:
		return GroupBy(s), nil
	}
	return "", ErrInvalidGroupBy
}

// Metric selects the ranking key for top performers.
type Metric string

const (
	MetricConversionRate Metric = "conversion_rate"
	MetricConversions    Metric = "conversions"
)

// ParseMetric validates a metric name. Empty means conversion rate.
func ParseMetric(s string) (Metric, error) {
	switch Metric(s) {
	case "", MetricConversionRate:
		return MetricConversionRate, nil
	case MetricConversions:
		return MetricConversions, nil
	}
	return "", ErrInvalidMetric
}
