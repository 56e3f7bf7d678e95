package helpers

import (
	"encoding/json"
	"net/http"
)

// Standard error responses.

var (
	ErrInvalidJSON         = &HTTPError{Code: "invalid_json", Message: "Invalid JSON format", Status: http.StatusBadRequest}
	ErrBadRequest          = &HTTPError{Code: "bad_request", Message: "Bad request", Status: http.StatusBadRequest}
	ErrNotFound            = &HTTPError{Code: "not_found", Message: "Not found", Status: http.StatusNotFound}
	ErrInternalServerError = &HTTPError{Code: "internal_error", Message: "Internal server error", Status: http.StatusInternalServerError}

	ErrAppNotFound      = &HTTPError{Code: "app_not_found", Message: "Application not found", Status: http.StatusNotFound}
	ErrUserNotEnrolled  = &HTTPError{Code: "user_not_enrolled", Message: "2FA not set up", Status: http.StatusBadRequest}
	ErrInvalidCode      = &HTTPError{Code: "invalid_code", Message: "Invalid verification code", Status: http.StatusBadRequest}
	ErrTokenNotFound    = &HTTPError{Code: "token_not_found", Message: "Token not found", Status: http.StatusBadRequest}
	ErrTokenAlreadyUsed = &HTTPError{Code: "token_already_used", Message: "Token already used", Status: http.StatusBadRequest}
	ErrTokenExpired     = &HTTPError{Code: "token_expired", Message: "Token expired", Status: http.StatusBadRequest}
)

// HTTPError represents a standard API error.
type HTTPError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
	Status  int    `json:"-"`
}

func (e *HTTPError) Error() string {
	if e.Detail != "" {
		return e.Message + ": " + e.Detail
	}
	return e.Message
}

// WithDetail returns a copy of the error with specific details.
func (e *HTTPError) WithDetail(detail string) *HTTPError {
	return &HTTPError{
		Code:    e.Code,
		Message: e.Message,
		Detail:  detail,
		Status:  e.Status,
	}
}

// WriteError writes the error to the response writer.
func WriteError(w http.ResponseWriter, err error) {
	var httpErr *HTTPError
	if hErr, ok := err.(*HTTPError); ok {
		httpErr = hErr
	} else {
		httpErr = ErrInternalServerError
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(httpErr.Status)
	_ = json.NewEncoder(w).Encode(httpErr)
}
