// Package errors provides centralized error handling with categories used
// for HTTP status mapping and metrics labelling.
package errors

import (
	stderrors "errors"
	"fmt"
	"maps"
	"time"
)

// ErrorCategory represents the type of error for better categorization
type ErrorCategory string

const (
	CategoryValidation ErrorCategory = "validation"
	CategoryNotFound   ErrorCategory = "not-found"
	CategoryConflict   ErrorCategory = "conflict"
	CategoryDatabase   ErrorCategory = "database"
	CategoryAudio      ErrorCategory = "audio-device"
	CategoryDecode     ErrorCategory = "audio-decode"
	CategoryMail       ErrorCategory = "mail"
	CategoryHTTP       ErrorCategory = "http-request"
	CategoryGeneric    ErrorCategory = "generic"
)

// EnhancedError wraps an error with additional context and metadata
type EnhancedError struct {
	Err       error          // Original error
	Component string         // Component where the error occurred
	Category  ErrorCategory  // Error category for grouping
	Context   map[string]any // Additional context data
	Timestamp time.Time      // When the error occurred
}

// Error implements the error interface
func (ee *EnhancedError) Error() string {
	if ee.Err == nil {
		return string(ee.Category)
	}
	return ee.Err.Error()
}

// Unwrap implements the error unwrapping interface
func (ee *EnhancedError) Unwrap() error {
	return ee.Err
}

// Is matches either the wrapped error or another EnhancedError of the same
// category. This lets callers test categories with stderrors.Is against a
// sentinel built via NewCategory.
func (ee *EnhancedError) Is(target error) bool {
	if ee2, ok := target.(*EnhancedError); ok {
		return ee.Category == ee2.Category
	}
	return stderrors.Is(ee.Err, target)
}

// GetContext returns a copy of the context map.
func (ee *EnhancedError) GetContext() map[string]any {
	if ee.Context == nil {
		return nil
	}
	return maps.Clone(ee.Context)
}

// ErrorBuilder provides a fluent interface for creating enhanced errors
type ErrorBuilder struct {
	err       error
	component string
	category  ErrorCategory
	context   map[string]any
}

// New creates a new ErrorBuilder wrapping err. err may be nil when the
// category and context carry all the information.
func New(err error) *ErrorBuilder {
	return &ErrorBuilder{
		err:      err,
		category: CategoryGeneric,
	}
}

// Newf creates a new ErrorBuilder from a formatted message.
func Newf(format string, args ...any) *ErrorBuilder {
	return New(fmt.Errorf(format, args...))
}

// Component sets the component name for the error
func (eb *ErrorBuilder) Component(component string) *ErrorBuilder {
	eb.component = component
	return eb
}

// Category sets the error category
func (eb *ErrorBuilder) Category(category ErrorCategory) *ErrorBuilder {
	eb.category = category
	return eb
}

// Context adds a key-value pair to the error context
func (eb *ErrorBuilder) Context(key string, value any) *ErrorBuilder {
	if eb.context == nil {
		eb.context = make(map[string]any)
	}
	eb.context[key] = value
	return eb
}

// Build creates the final EnhancedError
func (eb *ErrorBuilder) Build() *EnhancedError {
	return &EnhancedError{
		Err:       eb.err,
		Component: eb.component,
		Category:  eb.category,
		Context:   eb.context,
		Timestamp: time.Now(),
	}
}

// CategoryOf returns the category of err, or CategoryGeneric when err is not
// an EnhancedError anywhere in its chain.
func CategoryOf(err error) ErrorCategory {
	var ee *EnhancedError
	if stderrors.As(err, &ee) {
		return ee.Category
	}
	return CategoryGeneric
}

// HasCategory reports whether err carries the given category.
func HasCategory(err error, category ErrorCategory) bool {
	return CategoryOf(err) == category
}

// Re-exported standard library helpers so callers only import this package.

func Is(err, target error) bool { return stderrors.Is(err, target) }

func As(err error, target any) bool { return stderrors.As(err, target) }

func Join(errs ...error) error { return stderrors.Join(errs...) }
