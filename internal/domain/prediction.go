package domain

// PerformancePrediction is the predicted outcome of mailing a given quantity
// at one store.
type PerformancePrediction struct {
	StoreID                string  `json:"store_id"`
	Quantity               int     `json:"quantity"`
	UnitCost               float64 `json:"unit_cost"`
	BaseConversionRate     float64 `json:"base_conversion_rate"`
	ReferenceQuantity      int     `json:"reference_quantity"`
	BasePercentile         float64 `json:"base_percentile"`
	ProjectedPercentile    float64 `json:"projected_percentile"`
	SaturationLevel        float64 `json:"saturation_level"`
	ExpectedConversions    float64 `json:"expected_conversions"`
	ExpectedConversionRate float64 `json:"expected_conversion_rate"`
	// CostPerConversion is nil when expected conversions are effectively zero.
	CostPerConversion *float64 `json:"cost_per_conversion"`
}

// PerformanceLabel buckets the percentage change in conversions.
type PerformanceLabel string

const (
	LabelMuchBetter PerformanceLabel = "much_better"
	LabelBetter     PerformanceLabel = "better"
	LabelSimilar    PerformanceLabel = "similar"
	LabelWorse      PerformanceLabel = "worse"
	LabelMuchWorse  PerformanceLabel = "much_worse"
)

// ComparisonVerdict is the comparator's recommendation.
type ComparisonVerdict string

const (
	FavorAI        ComparisonVerdict = "favor_ai"
	FavorOverride  ComparisonVerdict = "favor_override"
	VerdictSimilar ComparisonVerdict = "similar"
)

// PerformanceDelta is override minus AI.
type PerformanceDelta struct {
	ConversionsDelta        float64 `json:"conversions_delta"`
	ConversionsDeltaPercent float64 `json:"conversions_delta_percent"`
	// CostEfficiencyDelta is negative when the override is cheaper per
	// conversion; nil when either side has no defined cost per conversion.
	CostEfficiencyDelta *float64         `json:"cost_efficiency_delta"`
	PerformanceLabel    PerformanceLabel `json:"performance_label"`
}

// DataQuality explains how much history backs a comparison.
type DataQuality struct {
	DeploymentCount int    `json:"deployment_count"`
	Message         string `json:"message"`
}

// PerformanceComparison contrasts the AI-recommended quantity with a user
// override at the same store. It is ephemeral and recomputed on every input change.
type PerformanceComparison struct {
	AIPrediction   PerformancePrediction `json:"ai_prediction"`
	UserOverride   PerformancePrediction `json:"user_override"`
	Delta          PerformanceDelta      `json:"delta"`
	Recommendation ComparisonVerdict     `json:"recommendation"`
	Confidence     ConfidenceLevel       `json:"confidence"`
	DataQuality    DataQuality           `json:"data_quality"`
}
