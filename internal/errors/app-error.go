package app_error

import (
	"encoding/json"
	"net/http"
)

type AppError struct {
	Code    int    `json:"-"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

func (e AppError) Error() string {
	return e.Message
}

func (e AppError) JSON(w http.ResponseWriter) error {
	return json.NewEncoder(w).Encode(e)
}

func NewAppError(code int, msg, field string) *AppError {
	return &AppError{
		Code:    code,
		Message: msg,
		Field:   field,
	}
}

// IsNotFound reports whether the error is the silent-no-op class: lookups
// that missed either because the row does not exist or because an ownership
// filter excluded it. Callers treat both identically.
func (e *AppError) IsNotFound() bool {
	return e != nil && e.Code == http.StatusNotFound
}
