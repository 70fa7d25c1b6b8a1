package domain

import (
	"errors"
	"fmt"
)

// Error types for domain-specific errors
type ErrorType string

const (
	ErrorTypeValidation       ErrorType = "validation"
	ErrorTypeConversion       ErrorType = "conversion"
	ErrorTypeExtraction       ErrorType = "extraction"
	ErrorTypeAPI              ErrorType = "api"
	ErrorTypeRateLimit        ErrorType = "rate_limit"
	ErrorTypeRetriesExhausted ErrorType = "retries_exhausted"
	ErrorTypeSchemaMismatch   ErrorType = "schema_mismatch"
	ErrorTypeConfig           ErrorType = "config"
	ErrorTypeIO               ErrorType = "io"
)

// Sentinels for errors.Is. They match any DomainError of the same type.
var (
	ErrRateLimited      = &DomainError{Type: ErrorTypeRateLimit}
	ErrRetriesExhausted = &DomainError{Type: ErrorTypeRetriesExhausted}
	ErrSchemaMismatch   = &DomainError{Type: ErrorTypeSchemaMismatch}
)

// DomainError represents a domain-specific error with context
type DomainError struct {
	Type    ErrorType
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Message == "" && e.Err == nil {
		return string(e.Type)
	}
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is reports whether target is a bare sentinel of the same type.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok || t.Message != "" || t.Err != nil {
		return false
	}
	return t.Type == e.Type
}

// NewError creates a new domain error
func NewError(errType ErrorType, message string, err error) *DomainError {
	return &DomainError{
		Type:    errType,
		Message: message,
		Err:     err,
	}
}

// Common error constructors
func ValidationError(message string, err error) *DomainError {
	return NewError(ErrorTypeValidation, message, err)
}

func ConversionError(message string, err error) *DomainError {
	return NewError(ErrorTypeConversion, message, err)
}

func ExtractionError(message string, err error) *DomainError {
	return NewError(ErrorTypeExtraction, message, err)
}

func APIError(message string, err error) *DomainError {
	return NewError(ErrorTypeAPI, message, err)
}

func RateLimitError(message string, err error) *DomainError {
	return NewError(ErrorTypeRateLimit, message, err)
}

func RetriesExhaustedError(message string, err error) *DomainError {
	return NewError(ErrorTypeRetriesExhausted, message, err)
}

func SchemaMismatchError(message string, err error) *DomainError {
	return NewError(ErrorTypeSchemaMismatch, message, err)
}

func ConfigError(message string, err error) *DomainError {
	return NewError(ErrorTypeConfig, message, err)
}

func IOError(message string, err error) *DomainError {
	return NewError(ErrorTypeIO, message, err)
}

// TypeOf returns the type of the outermost DomainError in err's chain, or "".
func TypeOf(err error) ErrorType {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Type
	}
	return ""
}

// IsRateLimited reports whether err is, or wraps, an upstream rate-limit rejection.
func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited)
}
