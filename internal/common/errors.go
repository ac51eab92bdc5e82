package common

import (
	"net/http"
)

// Error codes surfaced through the API error envelope. Only INVALID_AMOUNT and
// CONFIGURATION_ERROR propagate as hard failures; tax and distance outages are
// converted into degraded fields on the pricing result instead.
const (
	CodeInvalidAmount       = "INVALID_AMOUNT"
	CodeTaxUnavailable      = "TAX_UNAVAILABLE"
	CodeDistanceUnavailable = "DISTANCE_UNAVAILABLE"
	CodeConfigurationError  = "CONFIGURATION_ERROR"
	CodeValidation          = "VALIDATION_ERROR"
	CodeNotFound            = "NOT_FOUND"
	CodeInternal            = "INTERNAL"
)

// AppError represents an error with an attached code and HTTP status.
type AppError struct {
	Code       string
	Message    string
	HTTPStatus int
	Err        error
	Details    any
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

// Unwrap allows errors.Is/As to inspect the underlying error.
func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewAppError constructs an AppError.
func NewAppError(code, message string, status int, err error) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: status, Err: err}
}

// InvalidAmountError wraps a malformed numeric input failure as a client error.
func InvalidAmountError(err error) *AppError {
	return NewAppError(CodeInvalidAmount, "order contains an invalid amount", http.StatusUnprocessableEntity, err)
}

// ConfigError wraps a configuration-load failure. These abort startup; they
// must never surface mid-checkout.
func ConfigError(err error) *AppError {
	return NewAppError(CodeConfigurationError, "invalid pricing configuration", http.StatusInternalServerError, err)
}
