// Package apierror provides standardized error response structures for the API.
// All errors returned to clients go through this package to ensure consistency
// and to prevent leaking internal details (stack traces, DB errors, etc.).
package apierror

import (
	"errors"
	"net/http"

	"cantina/internal/apperror"
)

// APIError is the canonical error envelope for all 4xx/5xx HTTP responses.
type APIError struct {
	Detail string `json:"detail"`
	Code   string `json:"code,omitempty"`
}

func New(msg string) *APIError {
	return &APIError{Detail: msg}
}

// Validation wraps multiple field errors.
type ValidationError struct {
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Detail: "Erro de validacao", Fields: fields}
}

// InternalMessage is the only text a client ever sees for unclassified errors.
const InternalMessage = "Erro interno do servidor"

// FromError maps a service error to its HTTP status and envelope.
// The boolean is false when err is not a business error; in that case the
// caller must log err and the envelope carries InternalMessage only.
func FromError(err error) (int, *APIError, bool) {
	var appErr *apperror.Error
	if !errors.As(err, &appErr) {
		return http.StatusInternalServerError, New(InternalMessage), false
	}
	body := &APIError{Detail: appErr.Message, Code: string(appErr.Code)}
	switch appErr.Code {
	case apperror.CodeValidation:
		return http.StatusUnprocessableEntity, body, true
	case apperror.CodeNotFound:
		return http.StatusNotFound, body, true
	case apperror.CodeInsufficientStock, apperror.CodeInsufficientFunds:
		return http.StatusConflict, body, true
	case apperror.CodeConcurrency:
		return http.StatusServiceUnavailable, body, true
	case apperror.CodeAccessDenied:
		return http.StatusForbidden, body, true
	default:
		return http.StatusInternalServerError, New(InternalMessage), false
	}
}
