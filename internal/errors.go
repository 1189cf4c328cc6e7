package internal

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

type ErrorType string

const (
	ErrorTypeValidation        ErrorType = "VALIDATION_ERROR"
	ErrorTypeInvalidTransition ErrorType = "INVALID_TRANSITION"
	ErrorTypeNotFound          ErrorType = "NOT_FOUND"
	ErrorTypeUnauthorized      ErrorType = "UNAUTHORIZED"
	ErrorTypeForbidden         ErrorType = "FORBIDDEN"
	ErrorTypeConflict          ErrorType = "CONFLICT"
	ErrorTypeNetwork           ErrorType = "NETWORK_ERROR"
	ErrorTypeInternal          ErrorType = "INTERNAL_ERROR"
)

type ErrorCode string

const (
	ErrCodeValidationFailed     ErrorCode = "VALIDATION_FAILED"
	ErrCodeEmptyEmail           ErrorCode = "EMPTY_EMAIL"
	ErrCodeInvalidRole          ErrorCode = "INVALID_ROLE"
	ErrCodeInvalidWebhookURL    ErrorCode = "INVALID_WEBHOOK_URL"
	ErrCodeInvalidPhone         ErrorCode = "INVALID_PHONE"
	ErrCodeMessageTooShort      ErrorCode = "MESSAGE_TOO_SHORT"
	ErrCodeInvalidPurposeCode   ErrorCode = "INVALID_PURPOSE_CODE"
	ErrCodeConfirmationRequired ErrorCode = "CONFIRMATION_REQUIRED"

	ErrCodeInvalidConsentStatus ErrorCode = "INVALID_CONSENT_STATUS"
	ErrCodeConsentNotActionable ErrorCode = "CONSENT_NOT_ACTIONABLE"
	ErrCodeKeyNotActive         ErrorCode = "API_KEY_NOT_ACTIVE"
	ErrCodeKeyNotRevoked        ErrorCode = "API_KEY_NOT_REVOKED"
	ErrCodeFeedbackResolved     ErrorCode = "FEEDBACK_ALREADY_RESOLVED"

	ErrCodeConsentNotFound   ErrorCode = "CONSENT_NOT_FOUND"
	ErrCodeAPIKeyNotFound    ErrorCode = "API_KEY_NOT_FOUND"
	ErrCodeWebhookNotFound   ErrorCode = "WEBHOOK_NOT_FOUND"
	ErrCodePurposeNotFound   ErrorCode = "PURPOSE_NOT_FOUND"
	ErrCodeFeedbackNotFound  ErrorCode = "FEEDBACK_NOT_FOUND"
	ErrCodeFiduciaryNotFound ErrorCode = "FIDUCIARY_NOT_FOUND"
	ErrCodeDPONotFound       ErrorCode = "DPO_NOT_FOUND"
	ErrCodeUserNotFound      ErrorCode = "USER_NOT_FOUND"

	ErrCodeInvalidToken     ErrorCode = "INVALID_TOKEN"
	ErrCodeTokenExpired     ErrorCode = "TOKEN_EXPIRED"
	ErrCodeNotSuperAdmin    ErrorCode = "NOT_SUPER_ADMIN"
	ErrCodeRequestFailed    ErrorCode = "REQUEST_FAILED"
	ErrCodeUpstreamRejected ErrorCode = "UPSTREAM_REJECTED"
)

// AppError is the single error currency across the module. Validation
// and invalid-transition errors never reach the network; network errors
// carry the upstream message when one was provided.
type AppError struct {
	Type       ErrorType   `json:"type"`
	Code       ErrorCode   `json:"code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
	StatusCode int         `json:"-"`
	Cause      error       `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func (e *AppError) WithCause(cause error) *AppError {
	clone := *e
	clone.Cause = cause
	return &clone
}

func (e *AppError) WithDetails(details interface{}) *AppError {
	clone := *e
	clone.Details = details
	return &clone
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Join() string {
	messages := make([]string, len(v.Errors))
	for i, e := range v.Errors {
		messages[i] = e.Message
	}
	return strings.Join(messages, "; ")
}

func NewValidationError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

func NewValidationFieldError(field, message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       ErrCodeValidationFailed,
		Message:    "Validation failed",
		StatusCode: http.StatusBadRequest,
		Details: ValidationErrors{
			Errors: []ValidationError{
				{Field: field, Message: message, Code: string(code)},
			},
		},
	}
}

func NewInvalidTransitionError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeInvalidTransition,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusConflict,
	}
}

func NewNotFoundError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusNotFound,
	}
}

func NewUnauthorizedError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeUnauthorized,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusUnauthorized,
	}
}

func NewForbiddenError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeForbidden,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusForbidden,
	}
}

func NewConflictError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeConflict,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusConflict,
	}
}

// NewNetworkError wraps a failed API call. message should be the
// server-provided message when present, else a resource-specific
// fallback chosen by the caller.
func NewNetworkError(message string, statusCode int, cause error) *AppError {
	if statusCode == 0 {
		statusCode = http.StatusBadGateway
	}
	return &AppError{
		Type:       ErrorTypeNetwork,
		Code:       ErrCodeRequestFailed,
		Message:    message,
		StatusCode: statusCode,
		Cause:      cause,
	}
}

func NewInternalError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Code:       "INTERNAL_ERROR",
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

var (
	ErrConsentNotActionable = NewInvalidTransitionError("consent is no longer actionable", ErrCodeConsentNotActionable)
	ErrConfirmationRequired = NewValidationError("explicit confirmation is required for this action", ErrCodeConfirmationRequired)
	ErrNotSuperAdmin        = NewForbiddenError("role management requires super admin access", ErrCodeNotSuperAdmin)
	ErrInvalidToken         = NewUnauthorizedError("invalid token", ErrCodeInvalidToken)
	ErrTokenExpired         = NewUnauthorizedError("token has expired", ErrCodeTokenExpired)
)

func IsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsLocal reports whether the error was resolved before any network
// dispatch (validation or invalid-transition).
func IsLocal(err error) bool {
	if appErr, ok := IsAppError(err); ok {
		return appErr.Type == ErrorTypeValidation || appErr.Type == ErrorTypeInvalidTransition
	}
	return false
}

type Response struct {
	Error *AppError `json:"error"`
}

func (e *AppError) ToHTTPResponse() (int, interface{}) {
	return e.StatusCode, Response{Error: e}
}

func (e *AppError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type    ErrorType   `json:"type"`
		Code    ErrorCode   `json:"code"`
		Message string      `json:"message"`
		Details interface{} `json:"details,omitempty"`
	}{
		Type:    e.Type,
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	})
}
