package scenario

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"spac_dashboard/pkg/api/httputil"
	"spac_dashboard/pkg/core/config"
	"spac_dashboard/pkg/core/observability"
)

const sampleInputs = `{
	"public_shares": 25300000,
	"redemption_price_per_share": "10.02",
	"trust_value": "253000000",
	"sponsor_shares": 6325000,
	"pipe_commitment": "50000000",
	"pipe_price_per_share": "10",
	"minimum_cash_condition": "200000000",
	"target_equity_value": "400000000"
}`

func newTestServer(t *testing.T) (http.Handler, *observability.Metrics) {
	t.Helper()
	metrics := observability.NewMetrics("test")
	runner := NewRunner(config.Default().Engine, metrics)
	mux := http.NewServeMux()
	NewHandler(runner, zap.NewNop()).Register(mux)
	return mux, metrics
}

func post(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandleEvaluate_StandardRates(t *testing.T) {
	h, metrics := newTestServer(t)

	rec := post(t, h, "/api/scenarios/evaluate", `{"inputs":`+sampleInputs+`}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.Len(t, res.Scenarios, 5)
	assert.True(t, res.Scenarios[1].TotalCashAvailable.Equal(decimal.NewFromInt(239_623_500)))
	require.True(t, res.Summary.MaxViableRate.Valid)
	assert.True(t, res.Summary.MaxViableRate.Decimal.Equal(decimal.NewFromInt(25)))
	assert.NotNil(t, res.Summary.Attribution)

	assert.Equal(t, 1, seriesCount(t, metrics, "test_engine_scenario_evaluations_total"))
}

func TestHandleEvaluate_Grid(t *testing.T) {
	h, _ := newTestServer(t)

	rec := post(t, h, "/api/scenarios/evaluate",
		`{"inputs":`+sampleInputs+`,"grid":{"start":"0","end":"100","step":"25"}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.Len(t, res.Scenarios, 5)
	assert.True(t, res.Scenarios[4].RedemptionRatePercent.Equal(decimal.NewFromInt(100)))
}

func TestHandleEvaluate_Errors(t *testing.T) {
	h, _ := newTestServer(t)

	tests := map[string]struct {
		body   string
		status int
		field  string
	}{
		"malformed body":  {`{"inputs":`, http.StatusBadRequest, ""},
		"rates and grid":  {`{"inputs":` + sampleInputs + `,"rates":[10],"grid":{"start":0,"end":10,"step":5}}`, http.StatusBadRequest, ""},
		"rate over 100":   {`{"inputs":` + sampleInputs + `,"rates":[101]}`, http.StatusBadRequest, "redemption_rate_percent"},
		"grid too fine":   {`{"inputs":` + sampleInputs + `,"grid":{"start":0,"end":100,"step":"0.0000000000001"}}`, http.StatusBadRequest, "grid.step"},
		"negative shares": {`{"inputs":{"public_shares":-1,"redemption_price_per_share":10,"pipe_price_per_share":10}}`, http.StatusBadRequest, "public_shares"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			rec := post(t, h, "/api/scenarios/evaluate", tt.body)
			require.Equal(t, tt.status, rec.Code, rec.Body.String())

			var resp httputil.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp.Error)
			if tt.field != "" {
				assert.Equal(t, tt.field, resp.Field)
			}
		})
	}
}

func TestHandleChart_DefaultGrid(t *testing.T) {
	h, _ := newTestServer(t)

	rec := post(t, h, "/api/scenarios/chart", `{"inputs":`+sampleInputs+`}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Len(t, res.Scenarios, 21)
}

func seriesCount(t *testing.T, m *observability.Metrics, name string) int {
	t.Helper()
	families, err := m.Registry().Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() == name {
			return len(f.GetMetric())
		}
	}
	return 0
}
