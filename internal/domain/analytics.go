package domain

// Tier enumerates the percentile performance buckets.
type Tier string

const (
	TierHigh   Tier = "high"
	TierMedium Tier = "medium"
	TierLow    Tier = "low"
)

// PerformanceCluster is one tier of the high/medium/low partition of active
// stores with at least one deployment.
type PerformanceCluster struct {
	Tier              Tier                     `json:"tier"`
	Stores            []StorePerformanceRecord `json:"stores"`
	AvgConversionRate float64                  `json:"avg_conversion_rate"`
	StoreCount        int                      `json:"store_count"`
}

// AttributePerformance is the pooled performance of one attribute value
// (a size category, region or district).
type AttributePerformance struct {
	Value          string  `json:"value"`
	StoreCount     int     `json:"store_count"`
	Deployments    int     `json:"deployments"`
	Recipients     int     `json:"recipients"`
	Conversions    int     `json:"conversions"`
	ConversionRate float64 `json:"conversion_rate"`
}

// PeriodAggregate is the raw per-period roll-up returned by the repository.
type PeriodAggregate struct {
	Period      int `json:"period" db:"period"`
	Deployments int `json:"deployments" db:"deployments"`
	Recipients  int `json:"recipients" db:"recipients"`
	Conversions int `json:"conversions" db:"conversions"`
}

// TimePattern is a PeriodAggregate with its display name and pooled rate.
type TimePattern struct {
	Period         int     `json:"period"`
	Label          string  `json:"label"`
	Deployments    int     `json:"deployments"`
	Recipients     int     `json:"recipients"`
	Conversions    int     `json:"conversions"`
	ConversionRate float64 `json:"conversion_rate"`
}

// RegionalPerformance is the pooled performance of one region.
type RegionalPerformance struct {
	Region                 string  `json:"region"`
	StoreCount             int     `json:"store_count"`
	Deployments            int     `json:"deployments"`
	Recipients             int     `json:"recipients"`
	Conversions            int     `json:"conversions"`
	ConversionRate         float64 `json:"conversion_rate"`
	AvgConversionsPerStore float64 `json:"avg_conversions_per_store"`
}

// CorrelationDirection describes which way an attribute moves performance.
type CorrelationDirection string

const (
	CorrelationPositive CorrelationDirection = "positive"
	CorrelationNegative CorrelationDirection = "negative"
	CorrelationNeutral  CorrelationDirection = "neutral"
)

// CorrelationStrength buckets the best-vs-worst spread.
type CorrelationStrength string

const (
	StrengthStrong   CorrelationStrength = "strong"
	StrengthModerate CorrelationStrength = "moderate"
	StrengthWeak     CorrelationStrength = "weak"
)

// CorrelationInsight summarizes how strongly one store attribute relates to
// conversion rate.
type CorrelationInsight struct {
	Factor      string                 `json:"factor"`
	Correlation CorrelationDirection   `json:"correlation"`
	Strength    CorrelationStrength    `json:"strength"`
	Description string                 `json:"description"`
	Data        []AttributePerformance `json:"data"`
}

// Totals are the raw corpus-wide counts backing the analytics summary.
type Totals struct {
	TotalStores  int `json:"total_stores" db:"total_stores"`
	ActiveStores int `json:"active_stores" db:"active_stores"`
	Deployments  int `json:"deployments" db:"deployments"`
	Recipients   int `json:"recipients" db:"recipients"`
	Conversions  int `json:"conversions" db:"conversions"`
}

// AnalyticsSummary is the single pooled aggregate over the whole corpus.
type AnalyticsSummary struct {
	TotalStores           int     `json:"total_stores"`
	ActiveStores          int     `json:"active_stores"`
	TotalDeployments      int     `json:"total_deployments"`
	TotalRecipients       int     `json:"total_recipients"`
	TotalConversions      int     `json:"total_conversions"`
	OverallConversionRate float64 `json:"overall_conversion_rate"`
	BestRegion            string  `json:"best_region,omitempty"`
	WorstRegion           string  `json:"worst_region,omitempty"`
}
