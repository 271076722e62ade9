package license

import (
	"errors"
	"fmt"
)

// ErrorCode identifies the rejection class of a validation attempt.
type ErrorCode string

const (
	CodeFormat            ErrorCode = "INVALID_FORMAT"
	CodeNotFound          ErrorCode = "LICENSE_NOT_FOUND"
	CodeStatus            ErrorCode = "LICENSE_STATUS"
	CodeExpired           ErrorCode = "LICENSE_EXPIRED"
	CodeConnectivity      ErrorCode = "CONNECTIVITY_ERROR"
	CodeDeviceLimit       ErrorCode = "DEVICE_LIMIT_EXCEEDED"
	CodeDeviceDeactivated ErrorCode = "DEVICE_DEACTIVATED"
	CodeDeviceBlacklisted ErrorCode = "DEVICE_BLACKLISTED"
	CodeActivationFailed  ErrorCode = "ACTIVATION_FAILED"
	CodeInconsistentState ErrorCode = "INCONSISTENT_STATE"
)

// ValidationError is a terminal rejection of one validation attempt. It
// always carries a user-facing message; Retryable is true only for
// connectivity failures, which are safe to retry later (never
// automatically).
type ValidationError struct {
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	Retryable bool      `json:"retryable"`
	cause     error
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause, if any.
func (e *ValidationError) Unwrap() error {
	return e.cause
}

// Is reports code equality so callers can match with errors.Is against a
// bare-code template.
func (e *ValidationError) Is(target error) bool {
	var ve *ValidationError
	if errors.As(target, &ve) {
		return e.Code == ve.Code
	}
	return false
}

func newFormatError(msg string) *ValidationError {
	return &ValidationError{Code: CodeFormat, Message: msg}
}

func newNotFoundError() *ValidationError {
	return &ValidationError{Code: CodeNotFound, Message: "License key not found"}
}

func newStatusError(status string) *ValidationError {
	return &ValidationError{Code: CodeStatus, Message: fmt.Sprintf("License is %s", status)}
}

func newExpiredError() *ValidationError {
	return &ValidationError{Code: CodeExpired, Message: "License has expired"}
}

func newConnectivityError(cause error) *ValidationError {
	return &ValidationError{
		Code:      CodeConnectivity,
		Message:   "Unable to connect to license server",
		Retryable: true,
		cause:     cause,
	}
}

func newBindingError(status BindingStatus) *ValidationError {
	code := CodeDeviceDeactivated
	switch status {
	case DeviceLimitExceeded:
		code = CodeDeviceLimit
	case Blacklisted:
		code = CodeDeviceBlacklisted
	}
	return &ValidationError{Code: code, Message: status.Message()}
}

func newActivationFailedError(cause error) *ValidationError {
	msg := "Device activation failed"
	var refused *ActivationRefusedError
	if errors.As(cause, &refused) && refused.Reason != "" {
		msg = fmt.Sprintf("Device activation failed: %s", refused.Reason)
	}
	return &ValidationError{Code: CodeActivationFailed, Message: msg, cause: cause}
}

func newInconsistentStateError() *ValidationError {
	return &ValidationError{
		Code:    CodeInconsistentState,
		Message: "License server reported an inconsistent activation state",
	}
}
