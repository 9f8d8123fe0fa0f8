package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ignite/dm-planner/internal/pkg/httputil"
	"github.com/ignite/dm-planner/internal/service/analytics"
)

// GET /api/analytics/summary
func (h *Handlers) AnalyticsSummary(w http.ResponseWriter, r *http.Request) {
	s, err := h.analytics.RetailAnalyticsSummary(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.OK(w, s)
}

// GET /api/analytics/clusters
func (h *Handlers) Clusters(w http.ResponseWriter, r *http.Request) {
	c, err := h.analytics.PerformanceClusters(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.OK(w, map[string]any{"clusters": c})
}

// GET /api/analytics/regions
func (h *Handlers) Regions(w http.ResponseWriter, r *http.Request) {
	regions, err := h.analytics.RegionalPerformance(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.OK(w, map[string]any{"regions": regions})
}

// GET /api/analytics/correlations
func (h *Handlers) Correlations(w http.ResponseWriter, r *http.Request) {
	c, err := h.analytics.CorrelationAnalysis(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.OK(w, map[string]any{"correlations": c})
}

// GET /api/analytics/top-performers?limit=10&metric=conversion_rate
func (h *Handlers) TopPerformers(w http.ResponseWriter, r *http.Request) {
	limit := analytics.DefaultTopLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			httputil.BadRequest(w, "limit must be a positive integer")
			return
		}
		limit = n
	}
	metric, err := analytics.ParseMetric(r.URL.Query().Get("metric"))
	if err != nil {
		writeError(w, err)
		return
	}
	stores, err := h.analytics.TopPerformers(r.Context(), limit, metric)
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.OK(w, map[string]any{"stores": stores, "metric": metric})
}

// GET /api/analytics/underperformers?threshold=5.0
func (h *Handlers) Underperformers(w http.ResponseWriter, r *http.Request) {
	threshold := analytics.DefaultUnderperformerThreshold
	if v := r.URL.Query().Get("threshold"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f <= 0 || f > 100 {
			httputil.BadRequest(w, "threshold must be a percentage in (0, 100]")
			return
		}
		threshold = f
	}
	stores, err := h.analytics.Underperformers(r.Context(), threshold)
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.OK(w, map[string]any{"stores": stores, "threshold": threshold})
}

// GET /api/analytics/by-attribute/{attribute}
func (h *Handlers) ByAttribute(w http.ResponseWriter, r *http.Request) {
	attr, err := analytics.ParseAttribute(chi.URLParam(r, "attribute"))
	if err != nil {
		writeError(w, err)
		return
	}
	groups, err := h.analytics.PerformanceByAttribute(r.Context(), attr)
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.OK(w, map[string]any{"attribute": attr, "groups": groups})
}

// GET /api/analytics/time-patterns?group_by=month
func (h *Handlers) TimePatterns(w http.ResponseWriter, r *http.Request) {
	v := r.URL.Query().Get("group_by")
	if v == "" {
		v = string(analytics.GroupByMonth)
	}
	groupBy, err := analytics.ParseGroupBy(v)
	if err != nil {
		writeError(w, err)
		return
	}
	patterns, err := h.analytics.TimeBasedPatterns(r.Context(), groupBy)
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.OK(w, map[string]any{"group_by": groupBy, "patterns": patterns})
}
