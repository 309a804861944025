package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnauthenticated means the request carried no usable identity.
var ErrUnauthenticated = errors.New("not authenticated")

// ErrForbidden means a valid identity tried to touch someone else's post.
var ErrForbidden = errors.New("not authorized")

// ErrNotFound means the requested entity id does not resolve.
var ErrNotFound = errors.New("not found")

// ErrEmailTaken is the duplicate unique key conflict on signup.
var ErrEmailTaken = errors.New("email exists already")

// FieldError carries a single field-level validation message.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError aggregates one or more field-level messages.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

// IsValidation will check for field-level validation failures.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// StorageFault wraps a durable-store or blob-store I/O failure. It is
// the only error kind surfaced as an internal fault.
type StorageFault struct {
	Op  string
	Err error
}

func (e *StorageFault) Error() string {
	return fmt.Sprintf("storage fault in %s: %v", e.Op, e.Err)
}

func (e *StorageFault) Unwrap() error {
	return e.Err
}

// Storage wraps err as a StorageFault, or returns nil for a nil err.
func Storage(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageFault{Op: op, Err: err}
}

// IsStorageFault will check for wrapped storage faults.
func IsStorageFault(err error) bool {
	var sf *StorageFault
	return errors.As(err, &sf)
}
