package common

import (
	"errors"
	"fmt"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Stage-specific sentinel errors. Handlers translate these to HTTP
// statuses; diagnostic detail is logged, never returned to callers.
var (
	// extraction stage
	ErrNoReadableText      = errors.New("no readable text")
	ErrMalformedExtraction = errors.New("malformed extraction")
	ErrNoUsefulData        = errors.New("no useful data")

	// validation stage
	ErrNoValidServices = errors.New("no valid services")
	ErrNoValidResults  = errors.New("no valid results")

	// delivery stage
	ErrDispatch = errors.New("dispatch failed")
)

// User-facing messages for the error taxonomy.
const (
	MsgNoReadableText      = "No readable text found in the file."
	MsgMalformedExtraction = "Extracted data could not be parsed as JSON."
	MsgNoUsefulData        = "No useful medical billing information could be extracted from the uploaded document. Please provide a proper medical bill."
	MsgNoValidServices     = "No valid services found in submitted data. Please check the extraction."
	MsgNoValidResults      = "No valid service codes/amounts found for validation. Please check the extracted bill data."
)

// UserMessage returns the canonical user-facing message for err, or the
// error's own text when it is not part of the taxonomy.
func UserMessage(err error) string {
	switch {
	case errors.Is(err, ErrNoReadableText):
		return MsgNoReadableText
	case errors.Is(err, ErrMalformedExtraction):
		return MsgMalformedExtraction
	case errors.Is(err, ErrNoUsefulData):
		return MsgNoUsefulData
	case errors.Is(err, ErrNoValidServices):
		return MsgNoValidServices
	case errors.Is(err, ErrNoValidResults):
		return MsgNoValidResults
	}
	return err.Error()
}

// IsClientError reports whether err should surface as a 400 rather than a 500.
func IsClientError(err error) bool {
	return errors.Is(err, ErrNoReadableText) ||
		errors.Is(err, ErrMalformedExtraction) ||
		errors.Is(err, ErrNoUsefulData) ||
		errors.Is(err, ErrNoValidServices) ||
		errors.Is(err, ErrNoValidResults)
}

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
