// Package httputil holds the response, error and CORS helpers shared by the API handlers.
package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"spac_dashboard/pkg/core/observability"
	"spac_dashboard/pkg/core/redemption"
	"spac_dashboard/pkg/core/store"
)

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// WriteJSON encodes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// StatusFor maps domain errors to HTTP status codes.
func StatusFor(err error) int {
	var vErr *redemption.ValidationError
	switch {
	case errors.As(err, &vErr):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrDuplicateKey):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// WriteError writes err as an ErrorResponse. Internal errors are logged and their text hidden.
func WriteError(w http.ResponseWriter, logger *zap.Logger, metrics *observability.Metrics, err error) {
	status := StatusFor(err)
	resp := ErrorResponse{Error: err.Error()}

	var vErr *redemption.ValidationError
	if errors.As(err, &vErr) {
		resp.Field = vErr.Field
		metrics.RecordValidationError(err)
	}
	if status == http.StatusInternalServerError {
		logger.Error("request failed", zap.Error(err))
		resp.Error = "internal error"
	}
	WriteJSON(w, status, resp)
}

// BadRequest writes a 400 for malformed request bodies or parameters.
func BadRequest(w http.ResponseWriter, msg string) {
	WriteJSON(w, http.StatusBadRequest, ErrorResponse{Error: msg})
}

// CORS sets the cross-origin headers the dashboard needs and answers preflight requests.
func CORS(allowedOrigin string, next http.Handler) http.Handler {
	if allowedOrigin == "" {
		allowedOrigin = "*"
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", allowedOrigin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Instrument counts requests by matched route pattern and status code.
func Instrument(metrics *observability.Metrics, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		metrics.RecordRequest(route, rec.status)
	})
}
