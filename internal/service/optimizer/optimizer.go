package optimizer

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/ignite/dm-planner/internal/config"
	"github.com/ignite/dm-planner/internal/llm"
	"github.com/ignite/dm-planner/internal/pkg/logger"
	"github.com/ignite/dm-planner/internal/service/analytics"
)

// Optimizer is the store recommendation entry point.
type Optimizer struct {
	chain *Chain
	cfg   config.PlanningConfig
}

// New builds an optimizer. A nil completer yields a statistical-only chain.
func New(completer llm.Completer, cfg config.PlanningConfig, llmCfg config.LLMConfig) *Optimizer {
	fallback := NewStatistical(cfg)
	var chain *Chain
	if completer == nil {
		chain = NewChain(fallback, "no language model configured")
	} else {
		chain = NewChain(fallback, "", NewLLMStrategy(completer, cfg, llmCfg))
	}
	return &Optimizer{chain: chain, cfg: cfg}
}

// NewWithChain builds an optimizer around a caller-assembled chain.
func NewWithChain(chain *Chain, cfg config.PlanningConfig) *Optimizer {
	return &Optimizer{chain: chain, cfg: cfg}
}

// StoreCount normalizes a requested store count to [1, MaxStoreCount].
func (o *Optimizer) StoreCount(n int) int {
	if n <= 0 {
		n = o.cfg.DefaultStoreCount
	}
	if n > o.cfg.MaxStoreCount {
		n = o.cfg.MaxStoreCount
	}
	if n < 1 {
		n = 1
	}
	return n
}

// Recommend ranks stores for req using snap as the candidate pool. It never
// fails; degradation is reported in Result.Warnings.
func (o *Optimizer) Recommend(ctx context.Context, req Request, snap *analytics.Snapshot) *Result {
	count := o.StoreCount(req.StoreCount)
	res := o.chain.Recommend(ctx, req, count, snap)
	res.RequestID = uuid.NewString()
	if n := len(res.Recommendations); n > 0 && n < count {
		res.Warnings = append(res.Warnings, fmt.Sprintf("Only %d of the %d requested stores could be recommended.", n, count))
	}

	logger.Info("store recommendations ready",
		"component", "optimizer", "request_id", res.RequestID, "strategy", res.Strategy,
		"requested", count, "returned", len(res.Recommendations), "warnings", len(res.Warnings))
	return res
}
