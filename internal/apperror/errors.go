package apperror

import "fmt"

// Error codes carried on API responses. Controllers never map codes
// themselves; ErrorHandlerMiddleware owns the HTTP translation.
const (
	CodeInvalidInput             = "INVALID_INPUT"
	CodeNotFound                 = "NOT_FOUND"
	CodeExtractionFailed         = "EXTRACTION_FAILED"
	CodeEmbeddingTimeout         = "EMBEDDING_TIMEOUT"
	CodeEmbeddingProviderFailure = "EMBEDDING_PROVIDER_FAILURE"
	CodeLanguageModelFailure     = "LANGUAGE_MODEL_FAILURE"
	CodeInternal                 = "INTERNAL_ERROR"
)

type AppError struct {
	Code    string
	Status  int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewInvalidInput(field, reason string) *AppError {
	return &AppError{
		Code:    CodeInvalidInput,
		Status:  400,
		Message: fmt.Sprintf("invalid %s: %s", field, reason),
	}
}

func NewNotFound(resource string) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Status:  404,
		Message: fmt.Sprintf("%s not found", resource),
	}
}

func NewExtractionFailed(reason string) *AppError {
	return &AppError{
		Code:    CodeExtractionFailed,
		Status:  422,
		Message: reason,
	}
}

func NewEmbeddingTimeout(err error) *AppError {
	return &AppError{
		Code:    CodeEmbeddingTimeout,
		Status:  504,
		Message: "embedding provider timed out",
		Err:     err,
	}
}

func NewEmbeddingProviderFailure(err error) *AppError {
	return &AppError{
		Code:    CodeEmbeddingProviderFailure,
		Status:  502,
		Message: "embedding provider request failed",
		Err:     err,
	}
}

func NewLanguageModelFailure(err error) *AppError {
	return &AppError{
		Code:    CodeLanguageModelFailure,
		Status:  502,
		Message: "language model request failed",
		Err:     err,
	}
}

func NewInternal(err error) *AppError {
	return &AppError{
		Code:    CodeInternal,
		Status:  500,
		Message: "internal server error",
		Err:     err,
	}
}
