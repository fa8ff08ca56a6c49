package scenario

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"spac_dashboard/pkg/api/httputil"
	"spac_dashboard/pkg/core/config"
	"spac_dashboard/pkg/core/observability"
	"spac_dashboard/pkg/core/redemption"
)

// Result is a scenario batch and its rollup.
type Result struct {
	Scenarios []redemption.RedemptionScenario `json:"scenarios"`
	Summary   redemption.Summary              `json:"summary"`
}

// Runner evaluates batches with the configured defaults and records metrics.
type Runner struct {
	Evaluator     redemption.Evaluator
	StandardRates []decimal.Decimal
	Grid          redemption.GridSpec
	Categories    []redemption.Category
	Metrics       *observability.Metrics
}

// NewRunner builds a Runner from the engine config.
func NewRunner(cfg config.EngineConfig, metrics *observability.Metrics) *Runner {
	return &Runner{
		Evaluator:     redemption.Evaluator{Workers: cfg.Workers},
		StandardRates: cfg.StandardRates,
		Grid:          cfg.Grid,
		Categories:    cfg.Categories,
		Metrics:       metrics,
	}
}

// Rates evaluates explicit rates, falling back to the standard set when rates is empty.
// The first scenario is the attribution reference.
func (r *Runner) Rates(inputs redemption.DealStructureInputs, rates []decimal.Decimal) (*Result, error) {
	if len(rates) == 0 {
		rates = r.StandardRates
	}
	start := time.Now()
	scenarios, err := r.Evaluator.EvaluateRates(inputs, rates)
	if err != nil {
		return nil, err
	}
	r.Metrics.RecordEvaluation(observability.ModeRates, scenarios, time.Since(start))
	return r.summarize(scenarios)
}

// GridScenarios evaluates a grid, falling back to the configured grid when grid is nil.
func (r *Runner) GridScenarios(inputs redemption.DealStructureInputs, grid *redemption.GridSpec, mode string) (*Result, error) {
	g := r.Grid
	if grid != nil {
		g = *grid
	}
	start := time.Now()
	scenarios, err := r.Evaluator.EvaluateGrid(inputs, g)
	if err != nil {
		return nil, err
	}
	r.Metrics.RecordEvaluation(mode, scenarios, time.Since(start))
	return r.summarize(scenarios)
}

func (r *Runner) summarize(scenarios []redemption.RedemptionScenario) (*Result, error) {
	sum, err := redemption.Summarize(scenarios, 0, r.Categories)
	if err != nil {
		return nil, err
	}
	return &Result{Scenarios: scenarios, Summary: sum}, nil
}

// EvaluateRequest carries deal terms and either explicit rates or a grid.
type EvaluateRequest struct {
	Inputs redemption.DealStructureInputs `json:"inputs"`
	Rates  []decimal.Decimal              `json:"rates,omitempty"`
	Grid   *redemption.GridSpec           `json:"grid,omitempty"`
}

// ChartRequest asks for a dense grid for plotting.
type ChartRequest struct {
	Inputs redemption.DealStructureInputs `json:"inputs"`
	Grid   *redemption.GridSpec           `json:"grid,omitempty"`
}

// Handler serves the stateless scenario endpoints.
type Handler struct {
	Runner *Runner
	Logger *zap.Logger
}

// NewHandler creates a new scenario handler
func NewHandler(runner *Runner, logger *zap.Logger) *Handler {
	return &Handler{Runner: runner, Logger: logger}
}

// HandleEvaluate serves POST /api/scenarios/evaluate.
func (h *Handler) HandleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req EvaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.BadRequest(w, "invalid request body: "+err.Error())
		return
	}
	if len(req.Rates) > 0 && req.Grid != nil {
		httputil.BadRequest(w, "set either rates or grid, not both")
		return
	}

	var (
		res *Result
		err error
	)
	if req.Grid != nil {
		res, err = h.Runner.GridScenarios(req.Inputs, req.Grid, observability.ModeGrid)
	} else {
		res, err = h.Runner.Rates(req.Inputs, req.Rates)
	}
	if err != nil {
		httputil.WriteError(w, h.Logger, h.Runner.Metrics, err)
		return
	}

	h.Logger.Debug("evaluated scenarios",
		zap.Int("count", len(res.Scenarios)),
		zap.Int("degenerate", res.Summary.DegenerateCount))
	httputil.WriteJSON(w, http.StatusOK, res)
}

// HandleChart serves POST /api/scenarios/chart.
func (h *Handler) HandleChart(w http.ResponseWriter, r *http.Request) {
	var req ChartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.BadRequest(w, "invalid request body: "+err.Error())
		return
	}

	res, err := h.Runner.GridScenarios(req.Inputs, req.Grid, observability.ModeChart)
	if err != nil {
		httputil.WriteError(w, h.Logger, h.Runner.Metrics, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

// Register mounts the scenario routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/scenarios/evaluate", h.HandleEvaluate)
	mux.HandleFunc("POST /api/scenarios/chart", h.HandleChart)
}
