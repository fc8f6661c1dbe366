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
	ErrCodeValidation        = "VALIDATION_ERROR"
	ErrCodeNotFound          = "NOT_FOUND"
	ErrCodeEmptyDocument     = "EMPTY_DOCUMENT"
	ErrCodeEmbedding         = "EMBEDDING_UNAVAILABLE"
	ErrCodeCompletion        = "COMPLETION_UNAVAILABLE"
	ErrCodeStorageWrite      = "STORAGE_WRITE_ERROR"
	ErrCodeIndexProvisioning = "INDEX_PROVISIONING_ERROR"
	ErrCodeInternalError     = "INTERNAL_ERROR"
)

// Validation errors
var (
	ErrMissingDocumentID = NewDomainError(ErrCodeValidation, "document id is required")
	ErrMissingQuery      = NewDomainError(ErrCodeValidation, "query is required")
	ErrMissingFilename   = NewDomainError(ErrCodeValidation, "filename is required")
	ErrUnsupportedFile   = NewDomainError(ErrCodeValidation, "unsupported file type")
)

// Not found errors
var (
	ErrDocumentNotFound = NewDomainError(ErrCodeNotFound, "document not found")
)

// Ingestion errors
var (
	ErrEmptyDocument = NewDomainError(ErrCodeEmptyDocument, "no text could be extracted from the document")
)

// NewEmbeddingError wraps an embedding capability failure.
func NewEmbeddingError(err error) *DomainError {
	return NewDomainErrorWithCause(ErrCodeEmbedding, "failed to generate embeddings", err)
}

// NewCompletionError wraps a completion capability failure.
func NewCompletionError(err error) *DomainError {
	return NewDomainErrorWithCause(ErrCodeCompletion, "failed to generate completion", err)
}

// NewStorageWriteError wraps a vector store write failure.
func NewStorageWriteError(err error) *DomainError {
	return NewDomainErrorWithCause(ErrCodeStorageWrite, "failed to write to vector index", err)
}

// NewIndexQueryError wraps a vector store read failure.
func NewIndexQueryError(err error) *DomainError {
	return NewDomainErrorWithCause(ErrCodeInternalError, "failed to query vector index", err)
}

// NewIndexProvisioningError wraps a vector index provisioning failure.
func NewIndexProvisioningError(err error) *DomainError {
	return NewDomainErrorWithCause(ErrCodeIndexProvisioning, "failed to provision vector index", err)
}
