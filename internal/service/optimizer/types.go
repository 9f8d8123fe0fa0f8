package optimizer

import (
	"math"

	"github.com/ignite/dm-planner/internal/domain"
)

// Request describes the campaign to place.
type Request struct {
	CampaignName   string   `json:"campaign_name"`
	Message        string   `json:"message"`
	TargetAudience string   `json:"target_audience,omitempty"`
	Budget         *float64 `json:"budget,omitempty"`
	StoreCount     int      `json:"store_count,omitempty"`
}

// Result is a ranked store list plus aggregate estimates.
type Result struct {
	RequestID                string                       `json:"request_id"`
	Strategy                 string                       `json:"strategy"`
	Recommendations          []domain.StoreRecommendation `json:"recommendations"`
	ExpectedTotalConversions float64                      `json:"expected_total_conversions"`
	ExpectedConversionRate   float64                      `json:"expected_conversion_rate"`
	// RecipientsPerStore is set when a budget was supplied.
	RecipientsPerStore int      `json:"recipients_per_store,omitempty"`
	Insights           []string `json:"insights"`
	Warnings           []string `json:"warnings"`
}

func meanPredictedRate(recs []domain.StoreRecommendation) float64 {
	if len(recs) == 0 {
		return 0
	}
	var sum float64
	for _, r := range recs {
		sum += r.PredictedConversionRate
	}
	return round2(sum / float64(len(recs)))
}

// recipientsForBudget splits budget evenly across count stores at
// costPerRecipient.
func recipientsForBudget(budget *float64, count int, costPerRecipient float64) int {
	if budget == nil || *budget <= 0 || count <= 0 || costPerRecipient <= 0 {
		return 0
	}
	return int(math.Floor(*budget / float64(count) / costPerRecipient))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
