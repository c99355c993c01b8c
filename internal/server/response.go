package server

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/rxtech-lab/market-analyzer/pkg/errors"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Code    errors.ErrorCode `json:"code"`
	Message string           `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, StatusCode(err), ErrorResponse{
		Code:    errors.GetCode(err),
		Message: err.Error(),
	})
}

// StatusCode maps an error to its HTTP status. Errors the caller can fix
// yield 4xx, anything else 500.
func StatusCode(err error) int {
	if errors.IsInsufficientDataError(err) || errors.IsValidation(err) {
		return http.StatusBadRequest
	}

	code := errors.GetCode(err)

	switch {
	case code == errors.ErrCodeDataNotFound,
		code == errors.ErrCodeNoDataFound,
		code == errors.ErrCodeIndicatorNotFound:
		return http.StatusNotFound
	case code >= 400 && code < 500,
		code >= 900 && code < 1000,
		code == errors.ErrCodeBacktestConfigError,
		code == errors.ErrCodeInvalidTimespan,
		code == errors.ErrCodeInvalidProvider:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON reads a single JSON document into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(v); err != nil {
		if err == io.EOF {
			return errors.New(errors.ErrCodeInvalidParameter, "request body is required")
		}

		return errors.Wrap(errors.ErrCodeInvalidParameter, "invalid request body", err)
	}

	return nil
}
