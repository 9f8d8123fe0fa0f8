package optimizer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/dm-planner/internal/config"
	"github.com/ignite/dm-planner/internal/domain"
	"github.com/ignite/dm-planner/internal/llm"
	"github.com/ignite/dm-planner/internal/service/analytics"
)

type fakeCompleter struct {
	text    string
	err     error
	block   bool
	prompts []llm.Request
}

func (f *fakeCompleter) Provider() string { return "fake" }

func (f *fakeCompleter) Complete(ctx context.Context, req llm.Request) (string, error) {
	f.prompts = append(f.prompts, req)
	if f.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return f.text, f.err
}

func testSnapshot() *analytics.Snapshot {
	records := []domain.StorePerformanceRecord{
		{StoreID: "st-1", StoreNumber: "101", Name: "Portland Central", City: "Portland", State: "OR", Region: "West", SizeCategory: "large", DeploymentCount: 6, Recipients: 1000, Conversions: 80, ConversionRate: 8},
		{StoreID: "st-2", StoreNumber: "102", Name: "Phoenix North", City: "Phoenix", State: "AZ", Region: "Southwest", SizeCategory: "medium", DeploymentCount: 4, Recipients: 1000, Conversions: 60, ConversionRate: 6},
		{StoreID: "st-3", StoreNumber: "103", Name: "Downtown Miami Store", City: "Miami", State: "FL", Region: "South", SizeCategory: "small", DeploymentCount: 2, Recipients: 1000, Conversions: 30, ConversionRate: 3},
	}
	return &analytics.Snapshot{
		Records:       records,
		TopPerformers: analytics.RankTop(records, 30, analytics.MetricConversionRate),
		Regional:      analytics.BuildRegional(records),
		Correlations:  analytics.BuildCorrelations(records),
		Clusters:      analytics.BuildClusters(records),
	}
}

func testLLMConfig() config.LLMConfig {
	return config.LLMConfig{Temperature: 0.2, MaxTokens: 500, TimeoutSeconds: 5}
}

func hasPrefix(list []string, prefix string) bool {
	for _, s := range list {
		if strings.HasPrefix(s, prefix) {
			return true
		}
	}
	return false
}

func TestLLMRecommendations(t *testing.T) {
	fc := &fakeCompleter{text: "```json\n" + `{
		"recommendations": [
			{"store_id": "st-2", "confidence_score": 88, "reasoning": "Strong mid-size performer", "predicted_conversion_rate": 6, "priority": "high"},
			{"store_id": "nope", "confidence_score": 99, "reasoning": "hallucinated", "predicted_conversion_rate": 50, "priority": "high"},
			{"store_id": "st-2", "confidence_score": 10, "reasoning": "duplicate", "predicted_conversion_rate": 1, "priority": "low"},
			{"store_id": "st-1", "confidence_score": 140, "reasoning": "Top converter", "predicted_conversion_rate": 8, "priority": "urgent"},
			{"store_id": "st-3", "confidence_score": 60, "reasoning": "Past the requested count", "predicted_conversion_rate": 3, "priority": "low"}
		],
		"insights": ["West leads on pooled rate"]
	}` + "\n```"}
	opt := New(fc, config.DefaultPlanning(), testLLMConfig())

	res := opt.Recommend(context.Background(), Request{CampaignName: "Spring Sale", Message: "20% off", StoreCount: 2}, testSnapshot())

	require.Len(t, res.Recommendations, 2)
	assert.Equal(t, "llm:fake", res.Strategy)
	assert.NotEmpty(t, res.RequestID)
	assert.Empty(t, res.Warnings)
	assert.Equal(t, []string{"West leads on pooled rate"}, res.Insights)

	first, second := res.Recommendations[0], res.Recommendations[1]
	assert.Equal(t, "st-2", first.StoreID)
	assert.Equal(t, "Phoenix North", first.StoreName)
	assert.Equal(t, domain.PriorityHigh, first.Priority)
	assert.Equal(t, 30.0, first.EstimatedConversions)

	assert.Equal(t, "st-1", second.StoreID)
	assert.Equal(t, 100.0, second.ConfidenceScore)
	assert.Equal(t, domain.PriorityMedium, second.Priority)
	assert.Equal(t, 40.0, second.EstimatedConversions)

	assert.Equal(t, 70.0, res.ExpectedTotalConversions)
	assert.Equal(t, 7.0, res.ExpectedConversionRate)

	require.Len(t, fc.prompts, 1)
	assert.True(t, fc.prompts[0].JSON)
	assert.Equal(t, 0.2, fc.prompts[0].Temperature)
}

func TestFallbackWhenModelFails(t *testing.T) {
	fc := &fakeCompleter{err: errors.New("connection reset by peer")}
	opt := New(fc, config.DefaultPlanning(), testLLMConfig())

	res := opt.Recommend(context.Background(), Request{CampaignName: "Spring Sale", StoreCount: 2}, testSnapshot())

	require.Len(t, res.Recommendations, 2)
	assert.Equal(t, "statistical", res.Strategy)
	assert.Equal(t, "st-1", res.Recommendations[0].StoreID)
	assert.Equal(t, "st-2", res.Recommendations[1].StoreID)
	for _, r := range res.Recommendations {
		assert.Equal(t, 75.0, r.ConfidenceScore)
		assert.Equal(t, domain.PriorityMedium, r.Priority)
	}
	assert.Zero(t, res.ExpectedTotalConversions)
	assert.True(t, hasPrefix(res.Insights, "Fallback ranking"))
	require.NotEmpty(t, res.Warnings)
	assert.True(t, hasPrefix(res.Warnings, "AI optimization unavailable"))
	assert.Contains(t, res.Warnings[0], "connection reset by peer")
}

func TestFallbackOnUnusableAnswers(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"not json", "I recommend Portland.", "malformed"},
		{"missing fields", `{"recommendations":[{"store_id":"st-1","reasoning":"good"}]}`, "missing"},
		{"no matches", `{"recommendations":[{"store_id":"x","confidence_score":80,"predicted_conversion_rate":5}]}`, "no returned store"},
		{"empty list", `{"recommendations":[]}`, "no returned store"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opt := New(&fakeCompleter{text: tt.text}, config.DefaultPlanning(), testLLMConfig())
			res := opt.Recommend(context.Background(), Request{StoreCount: 3}, testSnapshot())

			assert.Equal(t, "statistical", res.Strategy)
			assert.Len(t, res.Recommendations, 3)
			require.NotEmpty(t, res.Warnings)
			assert.Contains(t, res.Warnings[0], tt.want)
		})
	}
}

func TestFallbackOnTimeout(t *testing.T) {
	llmCfg := testLLMConfig()
	llmCfg.TimeoutSeconds = 1
	opt := New(&fakeCompleter{block: true}, config.DefaultPlanning(), llmCfg)

	res := opt.Recommend(context.Background(), Request{StoreCount: 1}, testSnapshot())
	assert.Equal(t, "statistical", res.Strategy)
	assert.Contains(t, res.Warnings[0], context.DeadlineExceeded.Error())
}

func TestNoCompleterConfigured(t *testing.T) {
	opt := New(nil, config.DefaultPlanning(), testLLMConfig())
	res := opt.Recommend(context.Background(), Request{}, testSnapshot())

	assert.Equal(t, "statistical", res.Strategy)
	assert.Len(t, res.Recommendations, 3)
	assert.Equal(t, UnavailableWarning+": no language model configured", res.Warnings[0])
}

func TestEmptyHistory(t *testing.T) {
	opt := New(&fakeCompleter{text: "{}"}, config.DefaultPlanning(), testLLMConfig())
	res := opt.Recommend(context.Background(), Request{StoreCount: 5}, &analytics.Snapshot{})

	assert.NotNil(t, res.Recommendations)
	assert.Empty(t, res.Recommendations)
	assert.Len(t, res.Warnings, 2)
}

func TestBudgetSplit(t *testing.T) {
	budget := 1000.0
	opt := New(nil, config.DefaultPlanning(), testLLMConfig())
	res := opt.Recommend(context.Background(), Request{StoreCount: 2, Budget: &budget}, testSnapshot())

	// $1000 over 2 stores at $0.50 per recipient.
	assert.Equal(t, 1000, res.RecipientsPerStore)
}

func TestStoreCount(t *testing.T) {
	opt := New(nil, config.DefaultPlanning(), testLLMConfig())
	assert.Equal(t, 10, opt.StoreCount(0))
	assert.Equal(t, 50, opt.StoreCount(500))
	assert.Equal(t, 7, opt.StoreCount(7))
}

func TestPromptCarriesContext(t *testing.T) {
	budget := 250.0
	p := buildPrompt(Request{CampaignName: "Spring Sale", Message: "20% off", TargetAudience: "families", Budget: &budget}, 2, testSnapshot())

	for _, want := range []string{"Spring Sale", "families", "$250.00", "st-1 | 101 | Portland Central", "TOP REGIONS", "- West:", "Select the 2 stores"} {
		assert.Contains(t, p, want)
	}
}

type panickingCompleter struct{}

func (panickingCompleter) Provider() string { return "broken" }

func (panickingCompleter) Complete(context.Context, llm.Request) (string, error) {
	var usage map[string]int
	usage["input_tokens"]++
	return "", nil
}

func TestFallbackWhenProviderPanics(t *testing.T) {
	opt := New(panickingCompleter{}, config.DefaultPlanning(), testLLMConfig())

	var res *Result
	require.NotPanics(t, func() {
		res = opt.Recommend(context.Background(), Request{CampaignName: "Spring Sale", StoreCount: 2}, testSnapshot())
	})

	assert.Equal(t, "statistical", res.Strategy)
	require.Len(t, res.Recommendations, 2)
	require.NotEmpty(t, res.Warnings)
	assert.True(t, strings.HasPrefix(res.Warnings[0], UnavailableWarning))
	assert.Contains(t, res.Warnings[0], "llm:broken panicked")
}

func TestWarnsWhenFewerStoresThanRequested(t *testing.T) {
	opt := New(nil, config.DefaultPlanning(), testLLMConfig())

	res := opt.Recommend(context.Background(), Request{StoreCount: 40}, testSnapshot())

	assert.Len(t, res.Recommendations, 3)
	assert.Contains(t, res.Warnings, "Only 3 of the 40 requested stores could be recommended.")
}
