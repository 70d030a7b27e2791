package shared

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// ErrorCategory represents different types of errors that can occur
type ErrorCategory string

const (
	ErrorCategoryConfiguration  ErrorCategory = "configuration"
	ErrorCategoryNetwork        ErrorCategory = "network"
	ErrorCategoryValidation     ErrorCategory = "validation"
	ErrorCategoryProcessing     ErrorCategory = "processing"
	ErrorCategoryTimeout        ErrorCategory = "timeout"
	ErrorCategoryAuthentication ErrorCategory = "authentication"
	ErrorCategoryNotFound       ErrorCategory = "not_found"
)

// Error codes shared by the engine and its HTTP surface
const (
	CodeMissingIPO       = "MISSING_IPO"
	CodeInvalidPAN       = "INVALID_PAN"
	CodeWrongMode        = "WRONG_ALLOTMENT_MODE"
	CodeTransportFailed  = "TRANSPORT_FAILED"
	CodeBackendStatus    = "BACKEND_STATUS"
	CodeBackendDecode    = "BACKEND_DECODE"
	CodeBackendRejected  = "BACKEND_REJECTED"
	CodeIPONotFound      = "IPO_NOT_FOUND"
	CodeNavigationFailed = "NAVIGATION_FAILED"
	CodeUnauthorized     = "UNAUTHORIZED"

	CodeMissingApplication = "MISSING_APPLICATION"
	CodeInvalidOutcome     = "INVALID_OUTCOME"
	CodeInvalidLotSize     = "INVALID_LOT_SIZE"
)

// ServiceError represents a standardized error with additional context
type ServiceError struct {
	Category    ErrorCategory `json:"category"`
	Code        string        `json:"code"`
	Message     string        `json:"message"`
	Details     interface{}   `json:"details,omitempty"`
	Timestamp   time.Time     `json:"timestamp"`
	ServiceName string        `json:"service_name"`
	Operation   string        `json:"operation"`
	Retryable   bool          `json:"retryable"`
	Cause       error         `json:"-"`
}

// Error implements the error interface
func (e *ServiceError) Error() string {
	return fmt.Sprintf("[%s:%s] %s", e.Category, e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *ServiceError) Unwrap() error {
	return e.Cause
}

// NewServiceError creates a new service error
func NewServiceError(category ErrorCategory, code, message, serviceName, operation string, retryable bool, cause error) *ServiceError {
	return &ServiceError{
		Category:    category,
		Code:        code,
		Message:     message,
		Timestamp:   time.Now(),
		ServiceName: serviceName,
		Operation:   operation,
		Retryable:   retryable,
		Cause:       cause,
	}
}

// NewValidationError is a non-retryable error raised before any network call
func NewValidationError(code, message, serviceName, operation string) *ServiceError {
	return NewServiceError(ErrorCategoryValidation, code, message, serviceName, operation, false, nil)
}

// WithDetails adds additional details to the error
func (e *ServiceError) WithDetails(details interface{}) *ServiceError {
	e.Details = details
	return e
}

// IsRetryable returns whether the error is retryable
func (e *ServiceError) IsRetryable() bool {
	return e.Retryable
}

// GetCategory returns the error category
func (e *ServiceError) GetCategory() ErrorCategory {
	return e.Category
}

// LogError logs the error with structured fields
func (e *ServiceError) LogError() {
	logrus.WithFields(logrus.Fields{
		"error_category":   e.Category,
		"error_code":       e.Code,
		"error_message":    e.Message,
		"service_name":     e.ServiceName,
		"operation":        e.Operation,
		"retryable":        e.Retryable,
		"details":          e.Details,
		"underlying_error": e.Cause,
	}).Error("Service error occurred")
}

// AsServiceError unwraps err to a ServiceError if it carries one
func AsServiceError(err error) (*ServiceError, bool) {
	var serviceErr *ServiceError
	if errors.As(err, &serviceErr) {
		return serviceErr, true
	}
	return nil, false
}

// WrapError wraps an existing error with service error context
func WrapError(err error, category ErrorCategory, code, serviceName, operation string, retryable bool) *ServiceError {
	if err == nil {
		return nil
	}

	// If it's already a ServiceError, just update the context
	if serviceErr, ok := AsServiceError(err); ok {
		serviceErr.ServiceName = serviceName
		serviceErr.Operation = operation
		return serviceErr
	}

	return NewServiceError(category, code, err.Error(), serviceName, operation, retryable, err)
}

// IsValidationError reports whether err was raised by input validation
func IsValidationError(err error) bool {
	serviceErr, ok := AsServiceError(err)
	return ok && serviceErr.Category == ErrorCategoryValidation
}

// IsRetryableError checks if an error is retryable
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if serviceErr, ok := AsServiceError(err); ok {
		return serviceErr.IsRetryable()
	}

	// Default heuristics for standard errors
	errorMsg := strings.ToLower(err.Error())
	retryablePatterns := []string{
		"timeout", "connection refused", "connection reset",
		"temporary failure", "service unavailable", "too many requests",
		"network", "dns", "socket", "eof",
	}

	for _, pattern := range retryablePatterns {
		if strings.Contains(errorMsg, pattern) {
			return true
		}
	}

	return false
}
