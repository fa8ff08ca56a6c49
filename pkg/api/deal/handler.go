package deal

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"spac_dashboard/pkg/api/httputil"
	"spac_dashboard/pkg/api/scenario"
	"spac_dashboard/pkg/core/redemption"
	"spac_dashboard/pkg/core/report"
	"spac_dashboard/pkg/core/store"
)

type CreateRequest struct {
	Ticker string                         `json:"ticker"`
	Name   string                         `json:"name"`
	Inputs redemption.DealStructureInputs `json:"inputs"`
}

type ListResponse struct {
	Deals []*store.Deal `json:"deals"`
}

// Handler holds dependencies for deal endpoints
type Handler struct {
	Store  store.DealStore
	Runner *scenario.Runner
	Logger *zap.Logger
}

// NewHandler creates a new deal handler
func NewHandler(s store.DealStore, runner *scenario.Runner, logger *zap.Logger) *Handler {
	return &Handler{Store: s, Runner: runner, Logger: logger}
}

// HandleCreate serves POST /api/deals.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.BadRequest(w, "invalid request body: "+err.Error())
		return
	}

	d := &store.Deal{Ticker: req.Ticker, Name: req.Name, Inputs: req.Inputs}
	if err := h.Store.Save(r.Context(), d); err != nil {
		h.fail(w, err)
		return
	}
	h.Runner.Metrics.RecordDealStored()
	h.Logger.Info("deal saved", zap.String("ticker", d.Ticker), zap.Stringer("id", d.ID))
	httputil.WriteJSON(w, http.StatusCreated, d)
}

// HandleList serves GET /api/deals.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	deals, err := h.Store.List(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	if deals == nil {
		deals = []*store.Deal{}
	}
	httputil.WriteJSON(w, http.StatusOK, ListResponse{Deals: deals})
}

// HandleGet serves GET /api/deals/{id}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	d, ok := h.load(w, r)
	if !ok {
		return
	}
	httputil.WriteJSON(w, http.StatusOK, d)
}

// HandleDelete serves DELETE /api/deals/{id}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	if err := h.Store.Delete(r.Context(), id); err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleScenarios serves GET /api/deals/{id}/scenarios. Each ?rate= adds one rate; without any
// the standard rates are used.
func (h *Handler) HandleScenarios(w http.ResponseWriter, r *http.Request) {
	var rates []decimal.Decimal
	for _, raw := range r.URL.Query()["rate"] {
		rate, err := decimal.NewFromString(raw)
		if err != nil {
			httputil.BadRequest(w, fmt.Sprintf("invalid rate %q", raw))
			return
		}
		rates = append(rates, rate)
	}

	d, ok := h.load(w, r)
	if !ok {
		return
	}
	res, err := h.Runner.Rates(d.Inputs, rates)
	if err != nil {
		h.fail(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

// HandleReport serves GET /api/deals/{id}/report as markdown, or HTML with ?format=html.
func (h *Handler) HandleReport(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format != "" && format != "markdown" && format != "html" {
		httputil.BadRequest(w, fmt.Sprintf("unsupported format %q", format))
		return
	}

	d, ok := h.load(w, r)
	if !ok {
		return
	}
	res, err := h.Runner.Rates(d.Inputs, nil)
	if err != nil {
		h.fail(w, err)
		return
	}

	title := d.Ticker + " redemption scenarios"
	if d.Name != "" {
		title = fmt.Sprintf("%s (%s) redemption scenarios", d.Name, d.Ticker)
	}

	if format == "html" {
		out, err := report.HTML(title, d.Inputs, res.Scenarios, res.Summary)
		if err != nil {
			h.fail(w, err)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, out)
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	fmt.Fprint(w, report.Markdown(title, d.Inputs, res.Scenarios, res.Summary))
}

func (h *Handler) load(w http.ResponseWriter, r *http.Request) (*store.Deal, bool) {
	id, ok := parseID(w, r)
	if !ok {
		return nil, false
	}
	d, err := h.Store.Get(r.Context(), id)
	if err != nil {
		h.fail(w, err)
		return nil, false
	}
	return d, true
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	httputil.WriteError(w, h.Logger, h.Runner.Metrics, err)
}

func parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		httputil.BadRequest(w, fmt.Sprintf("invalid deal id %q", r.PathValue("id")))
		return uuid.Nil, false
	}
	return id, true
}

// Register mounts the deal routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/deals", h.HandleCreate)
	mux.HandleFunc("GET /api/deals", h.HandleList)
	mux.HandleFunc("GET /api/deals/{id}", h.HandleGet)
	mux.HandleFunc("DELETE /api/deals/{id}", h.HandleDelete)
	mux.HandleFunc("GET /api/deals/{id}/scenarios", h.HandleScenarios)
	mux.HandleFunc("GET /api/deals/{id}/report", h.HandleReport)
}
