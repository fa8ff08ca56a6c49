package config

import (
	"net/http"

	"github.com/shopspring/decimal"

	"spac_dashboard/pkg/api/httputil"
	coreConfig "spac_dashboard/pkg/core/config"
	"spac_dashboard/pkg/core/redemption"
)

type Response struct {
	StandardRates []decimal.Decimal     `json:"standard_rates"`
	Grid          redemption.GridSpec   `json:"grid"`
	Categories    []redemption.Category `json:"categories"`
	Workers       int                   `json:"workers"`
}

// Handler holds dependencies for config endpoints
type Handler struct {
	Engine coreConfig.EngineConfig
}

// NewHandler creates a new config handler
func NewHandler(engine coreConfig.EngineConfig) *Handler {
	return &Handler{Engine: engine}
}

// HandleConfig reports the defaults the dashboard uses when a request omits rates or a grid.
func (h *Handler) HandleConfig(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, Response{
		StandardRates: h.Engine.StandardRates,
		Grid:          h.Engine.Grid,
		Categories:    h.Engine.Categories,
		Workers:       h.Engine.Workers,
	})
}
