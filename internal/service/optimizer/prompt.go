package optimizer

import (
	"fmt"
	"strings"

	"github.com/ignite/dm-planner/internal/service/analytics"
)

const systemPrompt = `You are a retail direct-mail deployment strategist. You choose which store locations should receive a campaign, using only the historical performance data provided. Always respond with valid JSON.`

// buildPrompt renders the campaign and the analytics context as plain text
// tables for the model.
func buildPrompt(req Request, count int, snap *analytics.Snapshot) string {
	var sb strings.Builder

	sb.WriteString("CAMPAIGN\n")
	fmt.Fprintf(&sb, "Name: %s\n", req.CampaignName)
	fmt.Fprintf(&sb, "Message: %s\n", req.Message)
	if req.TargetAudience != "" {
		fmt.Fprintf(&sb, "Target audience: %s\n", req.TargetAudience)
	}
	if req.Budget != nil && *req.Budget > 0 {
		fmt.Fprintf(&sb, "Budget: $%.2f\n", *req.Budget)
	}
	fmt.Fprintf(&sb, "Stores to select: %d\n\n", count)

	sb.WriteString("CANDIDATE STORES (historical, best first)\n")
	sb.WriteString("store_id | store_number | name | city, state | region | size | deployments | recipients | conversions | conversion_rate_pct\n")
	for _, s := range snap.TopPerformers {
		fmt.Fprintf(&sb, "%s | %s | %s | %s, %s | %s | %s | %d | %d | %d | %.2f\n",
			s.StoreID, s.StoreNumber, s.Name, s.City, s.State, s.Region, s.SizeCategory,
			s.DeploymentCount, s.Recipients, s.Conversions, s.ConversionRate)
	}

	if regions := snap.TopRegions(3); len(regions) > 0 {
		sb.WriteString("\nTOP REGIONS\n")
		for _, r := range regions {
			fmt.Fprintf(&sb, "- %s: %.2f%% pooled conversion rate across %d stores\n", r.Region, r.ConversionRate, r.StoreCount)
		}
	}

	if len(snap.Correlations) > 0 {
		sb.WriteString("\nPATTERNS\n")
		for _, c := range snap.Correlations {
			fmt.Fprintf(&sb, "- %s\n", c.Description)
		}
	}

	fmt.Fprintf(&sb, `
TASK
Select the %d stores from CANDIDATE STORES most likely to convert for this campaign. Use only store_id values from the table.

RESPONSE FORMAT (JSON object):
{
  "recommendations": [
    {
      "store_id": "<store_id from the table>",
      "confidence_score": 0-100,
      "reasoning": "one sentence",
      "predicted_conversion_rate": <percent>,
      "priority": "high" | "medium" | "low"
    }
  ],
  "insights": ["short observation about the selection"]
}
`, count)
	return sb.String()
}
