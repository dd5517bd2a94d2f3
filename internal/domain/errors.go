package domain

import "fmt"

// DomainError represents a domain-specific error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is reports whether target is a DomainError with the same code, so that
// errors.Is(err, ErrEmbeddingFailure) holds for any wrapped embedding failure.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new DomainError
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     nil,
	}
}

// NewDomainErrorWithCause creates a new DomainError with an underlying cause
func NewDomainErrorWithCause(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common domain error codes
const (
	ErrCodeValidation         = "VALIDATION_ERROR"
	ErrCodeEmbeddingFailure   = "EMBEDDING_FAILURE"
	ErrCodeDimensionMismatch  = "DIMENSION_MISMATCH"
	ErrCodeCountMismatch      = "COUNT_MISMATCH"
	ErrCodeInconsistentState  = "INCONSISTENT_STATE"
	ErrCodeChunkNotFound      = "CHUNK_NOT_FOUND"
	ErrCodeGenerationFailure  = "GENERATION_FAILURE"
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE"
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeInternalError      = "INTERNAL_ERROR"
)

// Input errors
var (
	ErrInvalidInput = NewDomainError(ErrCodeValidation, "invalid input")
)

// Capability errors
var (
	ErrEmbeddingFailure  = NewDomainError(ErrCodeEmbeddingFailure, "embedding capability failed")
	ErrGenerationFailure = NewDomainError(ErrCodeGenerationFailure, "generation capability failed")
)

// Index construction errors
var (
	ErrDimensionMismatch = NewDomainError(ErrCodeDimensionMismatch, "embedding dimensions differ")
	ErrCountMismatch     = NewDomainError(ErrCodeCountMismatch, "chunk and embedding counts differ")
	ErrInconsistentState = NewDomainError(ErrCodeInconsistentState, "inconsistent retrieval state")
)

// Lookup errors
var (
	ErrChunkNotFound  = NewDomainError(ErrCodeChunkNotFound, "audio chunk not found")
	ErrIndexNotLoaded = NewDomainError(ErrCodeServiceUnavailable, "index not loaded")
)

// Authorization errors
var (
	ErrInvalidAdminToken = NewDomainError(ErrCodeUnauthorized, "invalid admin token")
)

// InvalidInput builds a validation error with a specific message.
func InvalidInput(format string, args ...any) *DomainError {
	return NewDomainError(ErrCodeValidation, fmt.Sprintf(format, args...))
}

// EmbeddingFailure wraps a cause reported by the embedding capability.
func EmbeddingFailure(message string, err error) *DomainError {
	return NewDomainErrorWithCause(ErrCodeEmbeddingFailure, message, err)
}

// GenerationFailure wraps a cause reported by the generation capability.
func GenerationFailure(message string, err error) *DomainError {
	return NewDomainErrorWithCause(ErrCodeGenerationFailure, message, err)
}
