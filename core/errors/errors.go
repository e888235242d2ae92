// Package errors provides the error taxonomy shared by the dansk decoder,
// its codec registry and the tools built on top of them.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common cases
var (
	// ErrLexical indicates source bytes that do not form a tokenizable unit
	ErrLexical = errors.New("lexical error")
	// ErrUnsupported indicates an unsupported operation or direction
	ErrUnsupported = errors.New("unsupported")
	// ErrConfiguration indicates an invalid installation or runtime setting
	ErrConfiguration = errors.New("configuration error")
	// ErrNotFound indicates a resource was not found
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput indicates invalid input or validation failure
	ErrInvalidInput = errors.New("invalid input")
)

// LexicalError reports source that the tokenizer could not split into
// tokens: an unterminated literal, inconsistent indentation, an open
// bracket at end of input and the like. Line is 1-based, Col is 0-based.
type LexicalError struct {
	Filename string
	Line     int
	Col      int
	Message  string
	Err      error // Underlying lexer error, if any
}

func (e *LexicalError) Error() string {
	name := e.Filename
	if name == "" {
		name = "<source>"
	}
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s", name, e.Line, e.Col, e.Message)
	}
	return fmt.Sprintf("%s: %s", name, e.Message)
}

func (e *LexicalError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrLexical, e.Err}
	}
	return []error{ErrLexical}
}

// UnsupportedError represents an operation the transform does not offer
type UnsupportedError struct {
	Feature string // Operation or format that is unsupported
	Reason  string // Why it's not supported
	Err     error  // Underlying error, if any
}

func (e *UnsupportedError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("unsupported %s: %s", e.Feature, e.Reason)
	}
	return fmt.Sprintf("unsupported %s", e.Feature)
}

func (e *UnsupportedError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrUnsupported
}

// ConfigurationError represents a bad setting detected while installing
// or wiring the decoder, never while decoding.
type ConfigurationError struct {
	Setting string // Setting or registry entry at fault
	Message string
	Err     error
}

func (e *ConfigurationError) Error() string {
	if e.Setting != "" {
		return fmt.Sprintf("invalid configuration for %s: %s", e.Setting, e.Message)
	}
	return fmt.Sprintf("invalid configuration: %s", e.Message)
}

func (e *ConfigurationError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrConfiguration
}

// NotFoundError represents a resource not found error with context
type NotFoundError struct {
	Resource string // Type of resource (e.g., "codec", "cache entry")
	ID       string // Identifier of the resource
	Err      error  // Underlying error, if any
}

func (e *NotFoundError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

func (e *NotFoundError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrNotFound
}

// ValidationError represents an input validation error with context
type ValidationError struct {
	Field   string // Field name that failed validation
	Value   string // Value that failed validation (may be redacted)
	Message string // Human-readable error message
	Err     error  // Underlying error, if any
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

func (e *ValidationError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrInvalidInput
}

// IOError represents an I/O operation error with context
type IOError struct {
	Operation string // Operation being performed (e.g., "read", "write", "open")
	Path      string // File/resource path involved
	Err       error  // Underlying error
}

func (e *IOError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("failed to %s %s: %v", e.Operation, e.Path, e.Err)
	}
	return fmt.Sprintf("failed to %s: %v", e.Operation, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// NewLexical creates a LexicalError at the given position
func NewLexical(line, col int, message string) *LexicalError {
	return &LexicalError{
		Line:    line,
		Col:     col,
		Message: message,
	}
}

// NewUnsupported creates an UnsupportedError
func NewUnsupported(feature, reason string) *UnsupportedError {
	return &UnsupportedError{
		Feature: feature,
		Reason:  reason,
	}
}

// NewConfiguration creates a ConfigurationError
func NewConfiguration(setting, message string) *ConfigurationError {
	return &ConfigurationError{
		Setting: setting,
		Message: message,
	}
}

// NewNotFound creates a NotFoundError
func NewNotFound(resource, id string) *NotFoundError {
	return &NotFoundError{
		Resource: resource,
		ID:       id,
	}
}

// NewValidation creates a ValidationError
func NewValidation(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// NewIO creates an IOError
func NewIO(operation, path string, err error) *IOError {
	return &IOError{
		Operation: operation,
		Path:      path,
		Err:       err,
	}
}

// Wrap adds context to an error. If err is nil, returns nil.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf adds formatted context to an error. If err is nil, returns nil.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	message := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w", message, err)
}

// Is wraps errors.Is for convenience
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As wraps errors.As for convenience
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
