package httpapi

import (
	"errors"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/cognicore/feedscope/pkg/feedscope/internalerr"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger().Warn().Err(err).Msg("encode response")
	}
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, errorStatus(err), errorResponse{Error: err.Error()})
}

// errorStatus maps sentinel errors to HTTP status codes.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, internalerr.ErrUnknownFilter),
		errors.Is(err, internalerr.ErrInvalidInput),
		errors.Is(err, internalerr.ErrInvalidFilterValue):
		return http.StatusBadRequest
	case errors.Is(err, internalerr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, internalerr.ErrStoreUnavailable),
		errors.Is(err, internalerr.ErrUpstreamIntent):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
