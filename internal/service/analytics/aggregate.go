package analytics

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/ignite/dm-planner/internal/domain"
)

const (
	// DefaultUnderperformerThreshold is the conversion rate (percent) below
	// which a store is considered an underperformer.
	DefaultUnderperformerThreshold = 5.0
	// DefaultTopLimit is used when a caller passes a non-positive limit.
	DefaultTopLimit = 10

	strongSpread   = 10.0
	moderateSpread = 5.0

	unknownValue = "unknown"
)

// BuildClusters partitions records into high/medium/low tiers by percentile
// cutoffs over conversion rate. The result always has three clusters in
// high, medium, low order; every record lands in exactly one of them.
func BuildClusters(records []domain.StorePerformanceRecord) []domain.PerformanceCluster {
	clusters := []domain.PerformanceCluster{
		{Tier: domain.TierHigh, Stores: []domain.StorePerformanceRecord{}},
		{Tier: domain.TierMedium, Stores: []domain.StorePerformanceRecord{}},
		{Tier: domain.TierLow, Stores: []domain.StorePerformanceRecord{}},
	}
	if len(records) == 0 {
		return clusters
	}

	sorted := sortedByRate(records)
	n := len(sorted)
	cutoff33 := sorted[int(float64(n)*0.33)].ConversionRate
	cutoff66 := sorted[int(float64(n)*0.66)].ConversionRate

	for _, r := range sorted {
		switch {
		case r.ConversionRate >= cutoff33:
			clusters[0].Stores = append(clusters[0].Stores, r)
		case r.ConversionRate >= cutoff66:
			clusters[1].Stores = append(clusters[1].Stores, r)
		default:
			clusters[2].Stores = append(clusters[2].Stores, r)
		}
	}

	for i := range clusters {
		c := &clusters[i]
		c.StoreCount = len(c.Stores)
		if c.StoreCount == 0 {
			continue
		}
		var sum float64
		for _, s := range c.Stores {
			sum += s.ConversionRate
		}
		c.AvgConversionRate = round2(sum / float64(c.StoreCount))
	}
	return clusters
}

// GroupByAttribute pools recipients and conversions per attribute value and
// computes one rate per group. Groups are ordered by rate, best first.
func GroupByAttribute(records []domain.StorePerformanceRecord, attr Attribute) []domain.AttributePerformance {
	groups := map[string]*domain.AttributePerformance{}
	var order []string
	for _, r := range records {
		key := attributeValue(r, attr)
		g, ok := groups[key]
		if !ok {
			g = &domain.AttributePerformance{Value: key}
			groups[key] = g
			order = append(order, key)
		}
		g.StoreCount++
		g.Deployments += r.DeploymentCount
		g.Recipients += r.Recipients
		g.Conversions += r.Conversions
	}

	out := make([]domain.AttributePerformance, 0, len(groups))
	for _, key := range order {
		g := groups[key]
		g.ConversionRate = round2(domain.ConversionRate(g.Recipients, g.Conversions))
		out = append(out, *g)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].ConversionRate != out[j].ConversionRate {
			return out[i].ConversionRate > out[j].ConversionRate
		}
		return out[i].Value < out[j].Value
	})
	return out
}

// RankTop returns up to limit records ranked descending by metric.
func RankTop(records []domain.StorePerformanceRecord, limit int, metric Metric) []domain.StorePerformanceRecord {
	if limit <= 0 {
		limit = DefaultTopLimit
	}
	out := append([]domain.StorePerformanceRecord(nil), records...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if metric == MetricConversions && a.Conversions != b.Conversions {
			return a.Conversions > b.Conversions
		}
		if a.ConversionRate != b.ConversionRate {
			return a.ConversionRate > b.ConversionRate
		}
		if a.Conversions != b.Conversions {
			return a.Conversions > b.Conversions
		}
		return a.StoreID < b.StoreID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// FilterUnderperformers returns records whose rate is strictly below
// threshold, worst first.
func FilterUnderperformers(records []domain.StorePerformanceRecord, threshold float64) []domain.StorePerformanceRecord {
	out := []domain.StorePerformanceRecord{}
	for _, r := range records {
		if r.ConversionRate < threshold {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].ConversionRate != out[j].ConversionRate {
			return out[i].ConversionRate < out[j].ConversionRate
		}
		return out[i].StoreID < out[j].StoreID
	})
	return out
}

// BuildRegional computes pooled rate and average conversions per store for
// each region, best region first.
func BuildRegional(records []domain.StorePerformanceRecord) []domain.RegionalPerformance {
	groups := GroupByAttribute(records, AttributeRegion)
	out := make([]domain.RegionalPerformance, 0, len(groups))
	for _, g := range groups {
		rp := domain.RegionalPerformance{
			Region:         g.Value,
			StoreCount:     g.StoreCount,
			Deployments:    g.Deployments,
			Recipients:     g.Recipients,
			Conversions:    g.Conversions,
			ConversionRate: g.ConversionRate,
		}
		if g.StoreCount > 0 {
			rp.AvgConversionsPerStore = round2(float64(g.Conversions) / float64(g.StoreCount))
		}
		out = append(out, rp)
	}
	return out
}

// BuildCorrelations compares the best and worst group for each of size,
// region and district.
func BuildCorrelations(records []domain.StorePerformanceRecord) []domain.CorrelationInsight {
	attrs := []Attribute{AttributeSize, AttributeRegion, AttributeDistrict}
	out := make([]domain.CorrelationInsight, 0, len(attrs))
	for _, attr := range attrs {
		out = append(out, correlate(attr, GroupByAttribute(records, attr)))
	}
	return out
}

func correlate(attr Attribute, groups []domain.AttributePerformance) domain.CorrelationInsight {
	insight := domain.CorrelationInsight{
		Factor:      string(attr),
		Correlation: domain.CorrelationNeutral,
		Strength:    domain.StrengthWeak,
		Data:        groups,
	}
	if len(groups) == 0 {
		insight.Description = fmt.Sprintf("No deployment history to compare stores by %s", attr)
		return insight
	}

	best, worst := groups[0], groups[len(groups)-1]
	spread := best.ConversionRate - worst.ConversionRate
	switch {
	case spread > strongSpread:
		insight.Strength = domain.StrengthStrong
	case spread > moderateSpread:
		insight.Strength = domain.StrengthModerate
	}

	if spread <= 0 {
		insight.Description = fmt.Sprintf("No meaningful difference in conversion rate across %s values", attr)
		return insight
	}

	insight.Correlation = domain.CorrelationPositive
	// Size is ordinal: performance falling as stores get larger is a negative relationship.
	if attr == AttributeSize {
		bestRank, worstRank := domain.SizeRank(best.Value), domain.SizeRank(worst.Value)
		if bestRank >= 0 && worstRank >= 0 && bestRank < worstRank {
			insight.Correlation = domain.CorrelationNegative
		}
	}
	insight.Description = fmt.Sprintf("Stores with %s %q convert at %.2f%% vs %.2f%% for %q (%.1f pp spread)",
		attr, best.Value, best.ConversionRate, worst.ConversionRate, worst.Value, spread)
	return insight
}

// BuildTimePatterns maps period codes to display names and computes pooled
// rates, ordered by period.
func BuildTimePatterns(aggs []domain.PeriodAggregate, groupBy GroupBy) []domain.TimePattern {
	out := make([]domain.TimePattern, 0, len(aggs))
	for _, a := range aggs {
		out = append(out, domain.TimePattern{
			Period:         a.Period,
			Label:          periodLabel(groupBy, a.Period),
			Deployments:    a.Deployments,
			Recipients:     a.Recipients,
			Conversions:    a.Conversions,
			ConversionRate: round2(domain.ConversionRate(a.Recipients, a.Conversions)),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Period < out[j].Period })
	return out
}

func periodLabel(groupBy GroupBy, period int) string {
	switch groupBy {
	case GroupByDayOfWeek:
		if period >= 0 && period <= 6 {
			return time.Weekday(period).String()
		}
	case GroupByMonth:
		if period >= 1 && period <= 12 {
			return time.Month(period).String()
		}
	case GroupByWeek:
		return fmt.Sprintf("Week %d", period)
	}
	return fmt.Sprintf("%d", period)
}

// BuildSummary combines raw totals with the regional ranking.
func BuildSummary(t domain.Totals, regional []domain.RegionalPerformance) domain.AnalyticsSummary {
	s := domain.AnalyticsSummary{
		TotalStores:           t.TotalStores,
		ActiveStores:          t.ActiveStores,
		TotalDeployments:      t.Deployments,
		TotalRecipients:       t.Recipients,
		TotalConversions:      t.Conversions,
		OverallConversionRate: round2(domain.ConversionRate(t.Recipients, t.Conversions)),
	}
	if len(regional) > 0 {
		s.BestRegion = regional[0].Region
		s.WorstRegion = regional[len(regional)-1].Region
	}
	return s
}

func sortedByRate(records []domain.StorePerformanceRecord) []domain.StorePerformanceRecord {
	return RankTop(records, len(records), MetricConversionRate)
}

func attributeValue(r domain.StorePerformanceRecord, attr Attribute) string {
	var v string
	switch attr {
	case AttributeSize:
		v = r.SizeCategory
	case AttributeRegion:
		v = r.Region
	case AttributeDistrict:
		v = r.District
	}
	if v == "" {
		return unknownValue
	}
	return v
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
