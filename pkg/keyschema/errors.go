package keyschema

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnsupportedKeyFieldType is returned when a key field's declared
	// type is not a primitive, text, key enum, registered structured type,
	// fixed array of primitives or sequence of primitives.
	ErrUnsupportedKeyFieldType = errors.New("unsupported key field type")

	// ErrUnsupportedArrayElement is returned when a fixed array key field
	// has a non-primitive element type.
	ErrUnsupportedArrayElement = errors.New("unsupported key array element")

	// ErrUnresolvedKeyType is returned when a structured key field refers
	// to a type whose key holder has not been derived yet. It matches
	// ErrUnsupportedKeyFieldType as well.
	ErrUnresolvedKeyType = fmt.Errorf("%w: unresolved nested key type", ErrUnsupportedKeyFieldType)

	// ErrInvalidSchema is returned for structurally malformed schemas.
	ErrInvalidSchema = errors.New("invalid schema")

	// ErrDuplicateType is returned when a type identifier is registered twice.
	ErrDuplicateType = errors.New("type already registered")

	// ErrInternal marks an encode failure on a registered schema. It is a
	// defect, never a retryable condition.
	ErrInternal = errors.New("internal key encoding defect")
)

// FieldError is a schema error attributed to one field of a type
type FieldError struct {
	Type    string
	Field   string
	Message string
	Hint    string
	Kind    error
}

// Error implements the error interface
func (e *FieldError) Error() string {
	var b strings.Builder

	if e.Type != "" {
		b.WriteString(e.Type)
		if e.Field != "" {
			b.WriteString(".")
			b.WriteString(e.Field)
		}
		b.WriteString(": ")
	}

	b.WriteString(e.Message)

	if e.Hint != "" {
		b.WriteString("\n  hint: ")
		b.WriteString(e.Hint)
	}

	return b.String()
}

// Unwrap returns the error kind so errors.Is matches the sentinels above
func (e *FieldError) Unwrap() error {
	return e.Kind
}
