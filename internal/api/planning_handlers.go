package api

import (
	"net/http"
	"strings"

	"github.com/ignite/dm-planner/internal/pkg/httputil"
	"github.com/ignite/dm-planner/internal/service/optimizer"
	"github.com/ignite/dm-planner/internal/service/planning"
	"github.com/ignite/dm-planner/internal/service/prediction"
)

// POST /api/planning/recommendations
func (h *Handlers) Recommendations(w http.ResponseWriter, r *http.Request) {
	var req optimizer.Request
	if !httputil.Decode(w, r, &req) {
		return
	}
	res, err := h.planning.Recommend(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.OK(w, res)
}

// POST /api/planning/plan
func (h *Handlers) Plan(w http.ResponseWriter, r *http.Request) {
	var req planning.Request
	if !httputil.Decode(w, r, &req) {
		return
	}
	plan, err := h.planning.Plan(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.OK(w, plan)
}

type predictRequest struct {
	StoreID  string  `json:"store_id"`
	Quantity int     `json:"quantity"`
	UnitCost float64 `json:"unit_cost"`
}

// POST /api/planning/predict
func (h *Handlers) Predict(w http.ResponseWriter, r *http.Request) {
	var req predictRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.StoreID) == "" {
		httputil.BadRequest(w, "store_id is required")
		return
	}
	pred, err := h.prediction.Predict(r.Context(), req.StoreID, req.Quantity, req.UnitCost)
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.OK(w, pred)
}

// POST /api/planning/compare
func (h *Handlers) Compare(w http.ResponseWriter, r *http.Request) {
	var req prediction.CompareInput
	if !httputil.Decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.StoreID) == "" {
		httputil.BadRequest(w, "store_id is required")
		return
	}
	cmp, err := h.prediction.Compare(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.OK(w, cmp)
}
