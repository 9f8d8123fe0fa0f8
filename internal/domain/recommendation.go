package domain

// Priority enumerates optimizer priority buckets.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// ParsePriority maps free text to a Priority, defaulting to medium.
func ParsePriority(s string) Priority {
	switch Priority(s) {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return Priority(s)
	default:
		return PriorityMedium
	}
}

// StoreRecommendation is one ranked store produced by an optimizer call.
type StoreRecommendation struct {
	StoreID                 string   `json:"store_id"`
	StoreNumber             string   `json:"store_number,omitempty"`
	StoreName               string   `json:"store_name,omitempty"`
	Region                  string   `json:"region,omitempty"`
	ConfidenceScore         float64  `json:"confidence_score"`
	Reasoning               string   `json:"reasoning"`
	PredictedConversionRate float64  `json:"predicted_conversion_rate"`
	EstimatedConversions    float64  `json:"estimated_conversions"`
	Priority                Priority `json:"priority"`
}

// ConfidenceLevel buckets ai_confidence.
type ConfidenceLevel string

const (
	ConfidenceHigh   ConfidenceLevel = "high"
	ConfidenceMedium ConfidenceLevel = "medium"
	ConfidenceLow    ConfidenceLevel = "low"
)

// FactorScores are the four 0–100 explainability factors of a plan item.
type FactorScores struct {
	StorePerformance    float64 `json:"store_performance_score"`
	CreativePerformance float64 `json:"creative_performance_score"`
	GeographicFit       float64 `json:"geographic_fit_score"`
	TimingAlignment     float64 `json:"timing_alignment_score"`
}

// PlanningAIScore is a plan item: the optimizer recommendation enriched with
// quantity, cost, factor scores, reasoning bullets and risk flags.
// Persistence is the caller's responsibility.
type PlanningAIScore struct {
	StoreRecommendation
	FactorScores

	Quantity  int     `json:"quantity"`
	UnitCost  float64 `json:"unit_cost"`
	TotalCost float64 `json:"total_cost"`

	AIConfidence             float64         `json:"ai_confidence"`
	AIConfidenceLevel        ConfidenceLevel `json:"ai_confidence_level"`
	AIReasoning              []string        `json:"ai_reasoning"`
	AIRiskFactors            []string        `json:"ai_risk_factors"`
	AIExpectedConversionRate float64         `json:"ai_expected_conversion_rate"`
	AIExpectedConversions    float64         `json:"ai_expected_conversions"`
	AIAutoApproved           bool            `json:"ai_auto_approved"`
}
