package optimizer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ignite/dm-planner/internal/config"
	"github.com/ignite/dm-planner/internal/domain"
	"github.com/ignite/dm-planner/internal/llm"
	"github.com/ignite/dm-planner/internal/service/analytics"
)

// LLMStrategy asks a language model to rank the candidate pool.
type LLMStrategy struct {
	completer   llm.Completer
	cfg         config.PlanningConfig
	timeout     time.Duration
	temperature float64
	maxTokens   int
}

func NewLLMStrategy(c llm.Completer, cfg config.PlanningConfig, llmCfg config.LLMConfig) *LLMStrategy {
	timeout := llmCfg.Timeout()
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &LLMStrategy{
		completer:   c,
		cfg:         cfg,
		timeout:     timeout,
		temperature: llmCfg.Temperature,
		maxTokens:   llmCfg.MaxTokens,
	}
}

func (s *LLMStrategy) Name() string { return "llm:" + s.completer.Provider() }

type modelResponse struct {
	Recommendations []modelRecommendation `json:"recommendations"`
	Insights        []string              `json:"insights"`
}

type modelRecommendation struct {
	StoreID                 string   `json:"store_id"`
	ConfidenceScore         *float64 `json:"confidence_score"`
	Reasoning               string   `json:"reasoning"`
	PredictedConversionRate *float64 `json:"predicted_conversion_rate"`
	Priority                string   `json:"priority"`
}

func (s *LLMStrategy) Recommend(ctx context.Context, req Request, count int, snap *analytics.Snapshot) (*Result, error) {
	if snap == nil || len(snap.TopPerformers) == 0 {
		return nil, ErrNoCandidates
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	text, err := s.completer.Complete(ctx, llm.Request{
		System:      systemPrompt,
		Prompt:      buildPrompt(req, count, snap),
		Temperature: s.temperature,
		MaxTokens:   s.maxTokens,
		JSON:        true,
	})
	if err != nil {
		return nil, fmt.Errorf("complete: %w", err)
	}

	recs, insights, err := s.parse(text, count, snap)
	if err != nil {
		return nil, err
	}

	var total float64
	for i := range recs {
		recs[i].EstimatedConversions = round2(recs[i].PredictedConversionRate / 100 * float64(s.cfg.AssumedRecipientsPerStore))
		total += recs[i].EstimatedConversions
	}
	if insights == nil {
		insights = []string{}
	}
	return &Result{
		Recommendations:          recs,
		ExpectedTotalConversions: round2(total),
		ExpectedConversionRate:   meanPredictedRate(recs),
		RecipientsPerStore:       recipientsForBudget(req.Budget, len(recs), s.cfg.AssumedCostPerRecipient),
		Insights:                 insights,
		Warnings:                 []string{},
	}, nil
}

// parse validates the model answer against the candidate pool. Unknown or
// duplicate ids are dropped; a matched entry missing a required field
// invalidates the whole answer.
func (s *LLMStrategy) parse(text string, count int, snap *analytics.Snapshot) ([]domain.StoreRecommendation, []string, error) {
	var resp modelResponse
	if err := json.Unmarshal([]byte(llm.ExtractJSON(text)), &resp); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	byID := make(map[string]domain.StorePerformanceRecord, len(snap.TopPerformers))
	for _, st := range snap.TopPerformers {
		byID[st.StoreID] = st
	}

	seen := map[string]bool{}
	recs := make([]domain.StoreRecommendation, 0, count)
	for _, m := range resp.Recommendations {
		st, ok := byID[m.StoreID]
		if !ok || seen[m.StoreID] {
			continue
		}
		if m.ConfidenceScore == nil || m.PredictedConversionRate == nil {
			return nil, nil, fmt.Errorf("%w: store %s is missing confidence_score or predicted_conversion_rate", ErrMalformedResponse, m.StoreID)
		}
		seen[m.StoreID] = true
		recs = append(recs, domain.StoreRecommendation{
			StoreID:                 st.StoreID,
			StoreNumber:             st.StoreNumber,
			StoreName:               st.Name,
			Region:                  st.Region,
			ConfidenceScore:         round2(domain.ClampPercent(*m.ConfidenceScore)),
			Reasoning:               m.Reasoning,
			PredictedConversionRate: round2(domain.ClampPercent(*m.PredictedConversionRate)),
			Priority:                domain.ParsePriority(m.Priority),
		})
		if len(recs) == count {
			break
		}
	}
	if len(recs) == 0 {
		return nil, nil, ErrNoMatchedStores
	}
	return recs, resp.Insights, nil
}
