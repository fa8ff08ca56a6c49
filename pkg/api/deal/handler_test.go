package deal

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"spac_dashboard/pkg/api/scenario"
	"spac_dashboard/pkg/core/config"
	"spac_dashboard/pkg/core/observability"
	"spac_dashboard/pkg/core/store"
)

const createBody = `{
	"ticker": "acqr",
	"name": "Acquisition Corp I",
	"inputs": {
		"public_shares": 25300000,
		"redemption_price_per_share": "10.02",
		"trust_value": "253000000",
		"sponsor_shares": 6325000,
		"pipe_commitment": "50000000",
		"pipe_price_per_share": "10",
		"minimum_cash_condition": "200000000",
		"target_equity_value": "400000000"
	}
}`

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	runner := scenario.NewRunner(config.Default().Engine, observability.NewMetrics("test"))
	mux := http.NewServeMux()
	NewHandler(store.NewMemoryDealStore(), runner, zap.NewNop()).Register(mux)
	return mux
}

func do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, strings.NewReader(body)))
	return rec
}

func create(t *testing.T, h http.Handler) store.Deal {
	t.Helper()
	rec := do(h, http.MethodPost, "/api/deals", createBody)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var d store.Deal
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &d))
	return d
}

func TestDealLifecycle(t *testing.T) {
	h := newTestServer(t)
	d := create(t, h)
	assert.Equal(t, "ACQR", d.Ticker)
	require.NotEqual(t, uuid.Nil, d.ID)

	rec := do(h, http.MethodGet, "/api/deals", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list ListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Deals, 1)

	rec = do(h, http.MethodGet, "/api/deals/"+d.ID.String(), "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(h, http.MethodPost, "/api/deals", createBody)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(h, http.MethodDelete, "/api/deals/"+d.ID.String(), "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(h, http.MethodGet, "/api/deals/"+d.ID.String(), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreate_InvalidInputs(t *testing.T) {
	h := newTestServer(t)
	rec := do(h, http.MethodPost, "/api/deals", `{"ticker":"BAD","inputs":{"redemption_price_per_share":"0","pipe_price_per_share":"10"}}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"field":"redemption_price_per_share"`)

	rec = do(h, http.MethodGet, "/api/deals", "")
	assert.Contains(t, rec.Body.String(), `"deals":[]`)
}

func TestScenarios(t *testing.T) {
	h := newTestServer(t)
	d := create(t, h)

	rec := do(h, http.MethodGet, "/api/deals/"+d.ID.String()+"/scenarios?rate=50&rate=10", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var res scenario.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.Len(t, res.Scenarios, 2)
	assert.True(t, res.Scenarios[0].RedemptionRatePercent.Equal(decimal.NewFromInt(50)))
	assert.True(t, res.Scenarios[0].CashFromTrust.Equal(decimal.NewFromInt(126_247_000)))

	tests := map[string]struct {
		path   string
		status int
	}{
		"bad rate":     {"/api/deals/" + d.ID.String() + "/scenarios?rate=abc", http.StatusBadRequest},
		"out of range": {"/api/deals/" + d.ID.String() + "/scenarios?rate=-1", http.StatusBadRequest},
		"bad id":       {"/api/deals/not-a-uuid/scenarios", http.StatusBadRequest},
		"unknown deal": {"/api/deals/" + uuid.NewString() + "/scenarios", http.StatusNotFound},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.status, do(h, http.MethodGet, tt.path, "").Code)
		})
	}
}

func TestReport(t *testing.T) {
	h := newTestServer(t)
	d := create(t, h)

	rec := do(h, http.MethodGet, "/api/deals/"+d.ID.String()+"/report", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/markdown")
	assert.Contains(t, rec.Body.String(), "# Acquisition Corp I (ACQR) redemption scenarios")

	rec = do(h, http.MethodGet, "/api/deals/"+d.ID.String()+"/report?format=html", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "<table>")

	rec = do(h, http.MethodGet, "/api/deals/"+d.ID.String()+"/report?format=pdf", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
