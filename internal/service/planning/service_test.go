package planning

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/dm-planner/internal/config"
	"github.com/ignite/dm-planner/internal/domain"
	"github.com/ignite/dm-planner/internal/llm"
	"github.com/ignite/dm-planner/internal/service/analytics"
	"github.com/ignite/dm-planner/internal/service/optimizer"
	"github.com/ignite/dm-planner/internal/service/scoring"
)

type fakeSnapshotter struct {
	snap     *analytics.Snapshot
	err      error
	poolSize int
}

func (f *fakeSnapshotter) Snapshot(ctx context.Context, poolSize int) (*analytics.Snapshot, error) {
	f.poolSize = poolSize
	return f.snap, f.err
}

type scriptedCompleter struct{ text string }

func (s scriptedCompleter) Provider() string { return "scripted" }

func (s scriptedCompleter) Complete(ctx context.Context, req llm.Request) (string, error) {
	return s.text, nil
}

func snapshot() *analytics.Snapshot {
	records := []domain.StorePerformanceRecord{
		{StoreID: "st-1", Name: "Portland Central", Region: "West", SizeCategory: "large", DeploymentCount: 6, Recipients: 1000, Conversions: 80},
		{StoreID: "st-2", Name: "Phoenix North", Region: "Southwest", SizeCategory: "medium", DeploymentCount: 4, Recipients: 1000, Conversions: 60},
		{StoreID: "st-3", Name: "Downtown Miami Store", Region: "South", SizeCategory: "small", DeploymentCount: 2, Recipients: 1000, Conversions: 30},
	}
	for i := range records {
		records[i].ConversionRate = domain.ConversionRate(records[i].Recipients, records[i].Conversions)
	}
	return &analytics.Snapshot{
		Records:       records,
		TopPerformers: analytics.RankTop(records, 30, analytics.MetricConversionRate),
		Regional:      analytics.BuildRegional(records),
		Correlations:  analytics.BuildCorrelations(records),
		Clusters:      analytics.BuildClusters(records),
	}
}

func newService(t *testing.T, c llm.Completer, snap *fakeSnapshotter) *Service {
	t.Helper()
	cfg := config.DefaultPlanning()
	llmCfg := config.LLMConfig{Temperature: 0.2, TimeoutSeconds: 5}
	s := NewService(snap, optimizer.New(c, cfg, llmCfg), scoring.New(cfg), cfg)
	s.now = func() time.Time { return time.Date(2026, time.April, 2, 15, 0, 0, 0, time.UTC) }
	return s
}

func TestPlanWithModel(t *testing.T) {
	snap := &fakeSnapshotter{snap: snapshot()}
	c := scriptedCompleter{text: `{"recommendations":[
		{"store_id":"st-1","confidence_score":90,"reasoning":"Top converter","predicted_conversion_rate":8,"priority":"high"},
		{"store_id":"st-2","confidence_score":70,"reasoning":"Solid","predicted_conversion_rate":6,"priority":"medium"}
	],"insights":["West leads"]}`}
	svc := newService(t, c, snap)

	plan, err := svc.Plan(context.Background(), Request{
		Request:  optimizer.Request{CampaignName: "Spring Sale", Message: "20% off", StoreCount: 2},
		UnitCost: 0.4,
	})
	require.NoError(t, err)

	assert.Equal(t, 30, snap.poolSize)
	assert.NotEmpty(t, plan.ID)
	assert.Equal(t, "llm:scripted", plan.Strategy)
	assert.Equal(t, time.April, plan.GeneratedAt.Month())
	require.Len(t, plan.Items, 2)
	assert.Empty(t, plan.Warnings)
	assert.Equal(t, []string{"West leads"}, plan.Insights)

	assert.Equal(t, 500, plan.Items[0].Quantity)
	assert.Equal(t, 200.0, plan.Items[0].TotalCost)
	assert.Equal(t, 1000, plan.TotalQuantity)
	assert.Equal(t, 400.0, plan.TotalCost)
	assert.Equal(t, 70.0, plan.ExpectedConversions)
	assert.Equal(t, 1, plan.AutoApprovedCount)
	for _, it := range plan.Items {
		assert.Equal(t, it.AIConfidence >= 75, it.AIAutoApproved)
	}
}

func TestPlanFallsBackAndUsesBudget(t *testing.T) {
	budget := 900.0
	svc := newService(t, nil, &fakeSnapshotter{snap: snapshot()})

	plan, err := svc.Plan(context.Background(), Request{
		Request: optimizer.Request{CampaignName: "Fall Event", StoreCount: 3, Budget: &budget},
		Month:   7,
	})
	require.NoError(t, err)

	assert.Equal(t, "statistical", plan.Strategy)
	require.Len(t, plan.Items, 3)
	// $900 over 3 stores at $0.50 per recipient.
	assert.Equal(t, 600, plan.Items[0].Quantity)
	assert.Equal(t, 900.0, plan.TotalCost)
	require.NotEmpty(t, plan.Warnings)
	assert.Contains(t, plan.Warnings[0], optimizer.UnavailableWarning)
	for _, it := range plan.Items {
		assert.Equal(t, 75.0, it.ConfidenceScore)
		// off-peak timing alignment is confidence minus the penalty
		assert.Equal(t, 70.0, it.TimingAlignment)
	}
}

func TestPlanValidation(t *testing.T) {
	svc := newService(t, nil, &fakeSnapshotter{snap: snapshot()})
	neg := -1.0

	for name, req := range map[string]Request{
		"missing name":      {},
		"negative quantity": {Request: optimizer.Request{CampaignName: "x"}, Quantity: -1},
		"negative cost":     {Request: optimizer.Request{CampaignName: "x"}, UnitCost: -1},
		"bad month":         {Request: optimizer.Request{CampaignName: "x"}, Month: 13},
		"negative budget":   {Request: optimizer.Request{CampaignName: "x", Budget: &neg}},
		"negative count":    {Request: optimizer.Request{CampaignName: "x", StoreCount: -3}},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Plan(context.Background(), req)
			assert.ErrorIs(t, err, ErrInvalidRequest)
		})
	}
}

func TestPlanPropagatesAnalyticsErrors(t *testing.T) {
	boom := errors.New("db down")
	svc := newService(t, nil, &fakeSnapshotter{err: boom})

	_, err := svc.Plan(context.Background(), Request{Request: optimizer.Request{CampaignName: "x"}})
	assert.ErrorIs(t, err, boom)

	_, err = svc.Recommend(context.Background(), optimizer.Request{CampaignName: "x"})
	assert.ErrorIs(t, err, boom)
}

func TestRecommend(t *testing.T) {
	svc := newService(t, nil, &fakeSnapshotter{snap: snapshot()})
	res, err := svc.Recommend(context.Background(), optimizer.Request{CampaignName: "x", StoreCount: 2})
	require.NoError(t, err)
	assert.Len(t, res.Recommendations, 2)
	assert.Zero(t, res.ExpectedTotalConversions)
}

func TestCandidatePoolCoversRequestedCount(t *testing.T) {
	snap := &fakeSnapshotter{snap: snapshot()}
	svc := newService(t, nil, snap)

	_, err := svc.Recommend(context.Background(), optimizer.Request{CampaignName: "Spring Sale", StoreCount: 40})
	require.NoError(t, err)
	assert.Equal(t, 40, snap.poolSize)

	_, err = svc.Recommend(context.Background(), optimizer.Request{CampaignName: "Spring Sale", StoreCount: 5})
	require.NoError(t, err)
	assert.Equal(t, 30, snap.poolSize)
}
