package scoring

import (
	"fmt"
	"strings"

	"github.com/ignite/dm-planner/internal/domain"
)

// rule is one row of a reasoning or risk table. Rows are evaluated in order.
type rule struct {
	name string
	when func(s *Scorer, sub subject) bool
	text func(s *Scorer, sub subject) string
}

const fallbackBullet = "Selected from stores with the strongest historical conversion performance"

var reasoningRules = []rule{
	{
		name: "top_store",
		when: func(_ *Scorer, sub subject) bool { return sub.scores.StorePerformance >= 80 },
		text: func(_ *Scorer, sub subject) string {
			return fmt.Sprintf("Ranked #%d of %d historical top performers at %.2f%% conversion",
				sub.rank+1, sub.poolSize, sub.store.ConversionRate)
		},
	},
	{
		name: "strong_region",
		when: func(_ *Scorer, sub subject) bool { return sub.scores.GeographicFit >= 75 && sub.region != nil },
		text: func(_ *Scorer, sub subject) string {
			return fmt.Sprintf("%s region converts at %.2f%%, close to the best region",
				sub.region.Region, sub.region.ConversionRate)
		},
	},
	{
		name: "peak_timing",
		when: func(_ *Scorer, sub subject) bool { return sub.scores.TimingAlignment >= 80 },
		text: func(_ *Scorer, sub subject) string {
			if sub.peak {
				return fmt.Sprintf("%s is a peak month for direct-mail response", sub.month)
			}
			return "Campaign timing is well aligned with the store's response history"
		},
	},
	{
		name: "corpus_insight",
		when: func(_ *Scorer, sub subject) bool { return corpusInsight(sub) != "" },
		text: func(_ *Scorer, sub subject) string { return corpusInsight(sub) },
	},
}

// limitedDataKeywords in optimizer reasoning suggest an under-sampled store.
var limitedDataKeywords = []string{"new store", "newly", "limited data", "limited history", "few deployments", "insufficient", "untested", "no history"}

const limitedDataPrefix = "Limited data"

var riskRules = []rule{
	{
		name: "low_confidence",
		when: func(_ *Scorer, sub subject) bool { return sub.confidence < 60 },
		text: func(_ *Scorer, sub subject) string {
			return fmt.Sprintf("Overall confidence of %.0f is below 60; review before approving", sub.confidence)
		},
	},
	{
		name: "weak_store",
		when: func(_ *Scorer, sub subject) bool { return sub.scores.StorePerformance < 50 },
		text: func(_ *Scorer, sub subject) string {
			return "Store sits near the bottom of the historical top-performer pool"
		},
	},
	{
		name: "weak_region",
		when: func(_ *Scorer, sub subject) bool { return sub.scores.GeographicFit < 50 },
		text: func(_ *Scorer, sub subject) string {
			return "Store's region converts at less than half the rate of the best region"
		},
	},
	{
		name: "off_peak",
		when: func(_ *Scorer, sub subject) bool { return sub.scores.TimingAlignment < 60 },
		text: func(_ *Scorer, sub subject) string {
			return fmt.Sprintf("%s is outside the peak direct-mail months", sub.month)
		},
	},
	{
		name: "few_deployments",
		when: func(s *Scorer, sub subject) bool { return sub.store.DeploymentCount < s.cfg.MediumConfidenceDeployments },
		text: func(_ *Scorer, sub subject) string {
			return fmt.Sprintf("%s: only %d historical deployments", limitedDataPrefix, sub.store.DeploymentCount)
		},
	},
	{
		name: "flagged_new",
		when: func(_ *Scorer, sub subject) bool { return mentionsLimitedData(sub.rec.Reasoning) },
		text: func(_ *Scorer, sub subject) string {
			return limitedDataPrefix + ": optimizer describes this store as new or under-sampled"
		},
	},
}

func (s *Scorer) reasoning(sub subject) []string {
	var out []string
	if r := strings.TrimSpace(sub.rec.Reasoning); r != "" {
		out = append(out, r)
	}
	for _, r := range reasoningRules {
		if len(out) >= maxReasoning {
			break
		}
		if r.when(s, sub) {
			out = append(out, r.text(s, sub))
		}
	}
	fillers := []string{
		fmt.Sprintf("Historical conversion rate of %.2f%% across %d deployments", sub.store.ConversionRate, sub.store.DeploymentCount),
		fallbackBullet,
	}
	for _, f := range fillers {
		if len(out) >= minReasoning {
			break
		}
		if !contains(out, f) {
			out = append(out, f)
		}
	}
	return out
}

// risks returns nil when nothing fired.
func (s *Scorer) risks(sub subject) []string {
	var out []string
	limited := false
	for _, r := range riskRules {
		if !r.when(s, sub) {
			continue
		}
		msg := r.text(s, sub)
		if strings.HasPrefix(msg, limitedDataPrefix) {
			if limited {
				continue
			}
			limited = true
		}
		out = append(out, msg)
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func mentionsLimitedData(text string) bool {
	t := strings.ToLower(text)
	for _, k := range limitedDataKeywords {
		if strings.Contains(t, k) {
			return true
		}
	}
	return false
}

// corpusInsight picks the first non-weak correlation as a network-wide note.
func corpusInsight(sub subject) string {
	if sub.snap == nil {
		return ""
	}
	for _, c := range sub.snap.Correlations {
		if c.Strength != domain.StrengthWeak && c.Correlation != domain.CorrelationNeutral {
			return c.Description
		}
	}
	return ""
}
