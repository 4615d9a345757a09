// Package errors provides the structured error type shared by the config,
// api, and upload packages.
package errors

import "fmt"

// Category represents the type of error.
type Category string

const (
	CategoryTransport Category = "transport"
	CategorySocket    Category = "socket"
	CategoryRender    Category = "render"
	CategoryConfig    Category = "config"
	CategoryStorage   Category = "storage"
)

// Error is a structured error with a stable code and a category.
type Error struct {
	// Code is a unique error identifier (e.g., "Q001").
	Code string

	// Category is the error type (transport, socket, etc.).
	Category Category

	// Message is a short description of the error.
	Message string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Wrapped
}

// New creates a structured error.
func New(code string, category Category, message string) *Error {
	return &Error{Code: code, Category: category, Message: message}
}

// Newf creates a structured error with a formatted message.
func Newf(code string, category Category, format string, args ...any) *Error {
	return &Error{Code: code, Category: category, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps an underlying error with a code and category.
func Wrap(err error, code string, category Category, message string) *Error {
	return &Error{Code: code, Category: category, Message: message, Wrapped: err}
}
