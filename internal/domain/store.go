package domain

import "time"

// StoreSize enumerates the size categories of a retail location. The order
// of the constants is the natural small-to-large order.
type StoreSize string

const (
	StoreSmall    StoreSize = "small"
	StoreMedium   StoreSize = "medium"
	StoreLarge    StoreSize = "large"
	StoreFlagship StoreSize = "flagship"
)

// SizeRank returns the ordinal position of a size category, or -1 when the
// category is not one of the known sizes.
func SizeRank(s string) int {
	switch StoreSize(s) {
	case StoreSmall:
		return 0
	case StoreMedium:
		return 1
	case StoreLarge:
		return 2
	case StoreFlagship:
		return 3
	default:
		return -1
	}
}

// StorePerformanceRecord is a read-only view of one store's pooled history.
// It is recomputed per query and never persisted by the planner.
type StorePerformanceRecord struct {
	StoreID         string  `json:"store_id" db:"store_id"`
	StoreNumber     string  `json:"store_number" db:"store_number"`
	Name            string  `json:"name" db:"name"`
	City            string  `json:"city,omitempty" db:"city"`
	State           string  `json:"state,omitempty" db:"state"`
	Region          string  `json:"region" db:"region"`
	District        string  `json:"district" db:"district"`
	SizeCategory    string  `json:"size_category" db:"size_category"`
	DeploymentCount int     `json:"deployment_count" db:"deployment_count"`
	Recipients      int     `json:"recipients" db:"recipients"`
	Conversions     int     `json:"conversions" db:"conversions"`
	ConversionRate  float64 `json:"conversion_rate" db:"conversion_rate"`
}

// ConversionRate returns 100 × conversions / recipients, 0 when there are no
// recipients, clamped to [0, 100].
func ConversionRate(recipients, conversions int) float64 {
	if recipients <= 0 {
		return 0
	}
	return ClampPercent(100 * float64(conversions) / float64(recipients))
}

// ClampPercent bounds v to [0, 100].
func ClampPercent(v float64) float64 {
	return Clamp(v, 0, 100)
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// DeploymentStat is the per-deployment size and outcome for one store,
// used to derive a store's reference quantity.
type DeploymentStat struct {
	DeploymentID string    `json:"deployment_id" db:"deployment_id"`
	CampaignID   string    `json:"campaign_id" db:"campaign_id"`
	Recipients   int       `json:"recipients" db:"recipients"`
	Conversions  int       `json:"conversions" db:"conversions"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}
