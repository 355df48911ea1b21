package api

import (
	"errors"
	"net/http"

	"financelog/pkg/financelog"
)

// ErrorResponse is the structured error payload.
type ErrorResponse struct {
	Code      int    `json:"code"`
	Message   string `json:"message"`
	ErrorCode string `json:"error_code,omitempty"`
}

// writeErrorResponse writes an error response. Structured errors override the
// fallback HTTP status with a code-derived one.
func writeErrorResponse(w http.ResponseWriter, fallbackStatus int, err error) {
	status := fallbackStatus
	response := ErrorResponse{
		Code:    status,
		Message: err.Error(),
	}

	var flErr *financelog.Error
	if errors.As(err, &flErr) {
		response.ErrorCode = string(flErr.Code)
		status = mapErrorCodeToHTTPStatus(flErr.Code)
		response.Code = status
	}

	if sw, ok := w.(interface{ SetErrorMessage(string) }); ok {
		sw.SetErrorMessage(response.Message)
	}
	writeJSON(w, status, response)
}

// mapErrorCodeToHTTPStatus maps business error codes to HTTP status codes.
func mapErrorCodeToHTTPStatus(code financelog.ErrorCode) int {
	switch code {
	case financelog.ErrCodeInvalidInput, financelog.ErrCodeValidation:
		return http.StatusBadRequest
	case financelog.ErrCodeNotFound:
		return http.StatusNotFound
	case financelog.ErrCodeStorage, financelog.ErrCodeInternal:
		return http.StatusInternalServerError
	case financelog.ErrCodeUnsupported:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}
