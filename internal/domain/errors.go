package domain

import (
	"errors"
	"fmt"
)

// ============================================================================
// Domain Error Types
// ============================================================================

// DomainError represents a domain-specific error with a code and message
type DomainError struct {
	Code    string
	Message string
	Cause   error
}

func (e *DomainError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is matches any DomainError carrying the same code, so callers can write
// errors.Is(err, domain.ErrAuthenticationFailed) regardless of the message.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string, cause error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// ============================================================================
// Common Domain Errors
// ============================================================================

// Default user-facing messages when the server rejects without one.
const (
	DefaultLoginFailedMessage    = "登录失败"
	DefaultRegisterFailedMessage = "注册失败"
)

var (
	// Session Errors
	ErrAuthenticationFailed = &DomainError{
		Code:    "AUTHENTICATION_FAILED",
		Message: DefaultLoginFailedMessage,
	}
	ErrRegistrationFailed = &DomainError{
		Code:    "REGISTRATION_FAILED",
		Message: DefaultRegisterFailedMessage,
	}
	ErrUnauthenticated = &DomainError{
		Code:    "UNAUTHENTICATED",
		Message: "未登录",
	}

	// Infrastructure Errors
	ErrTransport = &DomainError{
		Code:    "TRANSPORT_FAILED",
		Message: "request to API failed",
	}
)

// ============================================================================
// Error Wrapping Helpers
// ============================================================================

// NewAuthenticationError builds a login rejection carrying the server message,
// or the generic default when the server sent none.
func NewAuthenticationError(msg string) error {
	if msg == "" {
		msg = DefaultLoginFailedMessage
	}
	return &DomainError{
		Code:    ErrAuthenticationFailed.Code,
		Message: msg,
	}
}

// NewRegistrationError builds a registration rejection carrying the server message,
// or the generic default when the server sent none.
func NewRegistrationError(msg string) error {
	if msg == "" {
		msg = DefaultRegisterFailedMessage
	}
	return &DomainError{
		Code:    ErrRegistrationFailed.Code,
		Message: msg,
	}
}

// NewUnauthenticatedError reports that the server refused a request for lack
// of a session
func NewUnauthenticatedError(msg string) error {
	if msg == "" {
		msg = ErrUnauthenticated.Message
	}
	return &DomainError{
		Code:    ErrUnauthenticated.Code,
		Message: msg,
	}
}

// WrapTransport wraps a network, status or decode failure for the given operation
func WrapTransport(operation string, cause error) error {
	return &DomainError{
		Code:    ErrTransport.Code,
		Message: fmt.Sprintf("%s failed", operation),
		Cause:   cause,
	}
}

// ============================================================================
// Error Checking Helpers
// ============================================================================

// IsRejection reports whether err is a server-side rejection of credentials,
// as opposed to a transport failure.
func IsRejection(err error) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == ErrAuthenticationFailed.Code ||
			domainErr.Code == ErrRegistrationFailed.Code
	}
	return false
}

// IsTransportError checks if an error is a transport error
func IsTransportError(err error) bool {
	return errors.Is(err, ErrTransport)
}

// IsUnauthenticated checks if the server answered without a session
func IsUnauthenticated(err error) bool {
	return errors.Is(err, ErrUnauthenticated)
}

// UserMessage returns the message to show a user for err.
func UserMessage(err error) string {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Message
	}
	return err.Error()
}
