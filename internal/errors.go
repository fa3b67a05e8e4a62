package internal

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

type ErrorType string

const (
	ErrorTypeValidation   ErrorType = "VALIDATION_ERROR"
	ErrorTypeNotFound     ErrorType = "NOT_FOUND"
	ErrorTypeUnauthorized ErrorType = "UNAUTHORIZED"
	ErrorTypeForbidden    ErrorType = "FORBIDDEN"
	ErrorTypeConflict     ErrorType = "CONFLICT"
	ErrorTypeUnavailable  ErrorType = "UNAVAILABLE"
	ErrorTypeInternal     ErrorType = "INTERNAL_ERROR"
)

type ErrorCode string

const (
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodeInvalidEmail     ErrorCode = "INVALID_EMAIL"
	ErrCodeInvalidRole      ErrorCode = "INVALID_ROLE"

	// Role resolution. NO_ROLE is deliberately absent: having no role is a
	// legitimate resolver outcome, not an error condition.
	ErrCodeResolutionFailed ErrorCode = "RESOLUTION_FAILED"

	ErrCodeForbidden ErrorCode = "FORBIDDEN"

	// Invite lookup terminal states. All four render as one generic
	// user-facing message; the codes stay distinct for logs and metrics.
	ErrCodeInviteTokenInvalid  ErrorCode = "INVITE_TOKEN_INVALID"
	ErrCodeInviteAlreadyUsed   ErrorCode = "INVITE_ALREADY_USED"
	ErrCodeInviteRevoked       ErrorCode = "INVITE_REVOKED"
	ErrCodeInviteExpired       ErrorCode = "INVITE_EXPIRED"
	ErrCodeInviteNotPending    ErrorCode = "INVITE_NOT_PENDING"
	ErrCodeInviteEmailMismatch ErrorCode = "INVITE_EMAIL_MISMATCH"

	// Invariant-protection codes. These indicate a bug or an abuse attempt,
	// never a normal user flow, and are logged at error level.
	ErrCodeDualRoleViolation        ErrorCode = "DUAL_ROLE_VIOLATION"
	ErrCodeAlreadyEmployeeElsewhere ErrorCode = "ALREADY_EMPLOYEE_ELSEWHERE"

	ErrCodeWorkspaceMismatch ErrorCode = "WORKSPACE_MISMATCH"

	ErrCodeUserNotFound       ErrorCode = "USER_NOT_FOUND"
	ErrCodeWorkspaceNotFound  ErrorCode = "WORKSPACE_NOT_FOUND"
	ErrCodeEmailTaken         ErrorCode = "EMAIL_TAKEN"
	ErrCodeInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"
	ErrCodeUserInactive       ErrorCode = "USER_INACTIVE"
	ErrCodeInvalidToken       ErrorCode = "INVALID_TOKEN"
	ErrCodeTokenExpired       ErrorCode = "TOKEN_EXPIRED"
)

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

// Is lets errors.Is match AppErrors by code, so sentinel values still match
// after WithCause/WithDetails cloning.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && t.Code == e.Code
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Messages() string {
	msgs := make([]string, len(v.Errors))
	for i, e := range v.Errors {
		msgs[i] = e.Message
	}
	return strings.Join(msgs, "; ")
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

func NewUnavailableError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeUnavailable,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusServiceUnavailable,
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

// GenericInviteMessage is the single user-visible message for every invite
// lookup failure, so responses never reveal whether a token was wrong,
// already used, revoked or expired.
const GenericInviteMessage = "invalid or expired invitation"

var (
	// ErrResolutionFailed is transient: the resolver could not check, which
	// callers must never conflate with "has no access".
	ErrResolutionFailed = NewUnavailableError("could not resolve role", ErrCodeResolutionFailed)

	ErrForbidden = NewForbiddenError("not allowed", ErrCodeForbidden)

	ErrInviteTokenInvalid  = NewNotFoundError(GenericInviteMessage, ErrCodeInviteTokenInvalid)
	ErrInviteAlreadyUsed   = NewConflictError(GenericInviteMessage, ErrCodeInviteAlreadyUsed)
	ErrInviteRevoked       = NewConflictError(GenericInviteMessage, ErrCodeInviteRevoked)
	ErrInviteExpired       = NewConflictError(GenericInviteMessage, ErrCodeInviteExpired)
	ErrInviteNotPending    = NewConflictError("invite is not pending", ErrCodeInviteNotPending)
	ErrInviteEmailMismatch = NewConflictError(GenericInviteMessage, ErrCodeInviteEmailMismatch)

	ErrDualRoleViolation        = NewConflictError("user already holds an admin grant", ErrCodeDualRoleViolation)
	ErrAlreadyEmployeeElsewhere = NewConflictError("user already assigned to a workspace", ErrCodeAlreadyEmployeeElsewhere)

	// ErrWorkspaceMismatch renders as 404 for id-scoped resources so a denial
	// does not confirm another tenant's resource exists.
	ErrWorkspaceMismatch = NewNotFoundError("not found", ErrCodeWorkspaceMismatch)

	ErrUserNotFound       = NewNotFoundError("user not found", ErrCodeUserNotFound)
	ErrWorkspaceNotFound  = NewNotFoundError("workspace not found", ErrCodeWorkspaceNotFound)
	ErrEmailTaken         = NewConflictError("email is already registered", ErrCodeEmailTaken)
	ErrInvalidCredentials = NewUnauthorizedError("Invalid email or password", ErrCodeInvalidCredentials)
	ErrUserInactive       = NewForbiddenError("User account is inactive", ErrCodeUserInactive)
	ErrInvalidToken       = NewUnauthorizedError("Invalid token", ErrCodeInvalidToken)
	ErrTokenExpired       = NewUnauthorizedError("Token has expired", ErrCodeTokenExpired)
)

func IsAppError(err error) (*AppError, bool) {
	if appErr, ok := err.(*AppError); ok {
		return appErr, true
	}
	return nil, false
}

// IsInviteTerminal reports whether err is one of the invite lookup failures
// that collapse to GenericInviteMessage at the edge.
func IsInviteTerminal(err error) bool {
	appErr, ok := IsAppError(err)
	if !ok {
		return false
	}
	switch appErr.Code {
	case ErrCodeInviteTokenInvalid, ErrCodeInviteAlreadyUsed, ErrCodeInviteRevoked,
		ErrCodeInviteExpired, ErrCodeInviteEmailMismatch:
		return true
	}
	return false
}

// IsInvariantViolation reports whether err is one of the invariant-protection
// failures that must be logged distinctly from ordinary user errors.
func IsInvariantViolation(err error) bool {
	appErr, ok := IsAppError(err)
	if !ok {
		return false
	}
	return appErr.Code == ErrCodeDualRoleViolation || appErr.Code == ErrCodeAlreadyEmployeeElsewhere
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
