package keyschema

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// Validator checks that a StructSchema is well formed before key
// derivation: identifiers present, field names unique, every declared
// type complete. Key field shapes are checked by the Builder.
type Validator struct {
	errors []error
}

// NewValidator creates a new schema validator
func NewValidator() *Validator {
	return &Validator{errors: make([]error, 0)}
}

// Validate validates a single schema and returns every problem found
func (v *Validator) Validate(s *StructSchema) error {
	v.errors = make([]error, 0)

	if s == nil {
		return fmt.Errorf("%w: nil schema", ErrInvalidSchema)
	}

	if err := validateIdentifier(s.ID); err != nil {
		v.addError(s.ID, "", fmt.Sprintf("type identifier %s", err), "")
	}

	seen := make(map[string]bool, len(s.Fields))
	for _, field := range s.Fields {
		if field.Name == "" {
			v.addError(s.ID, "", "field with empty name", "every field needs a name")
			continue
		}
		if seen[field.Name] {
			v.addError(s.ID, field.Name, "duplicate field name", "field names must be unique within a type")
		}
		seen[field.Name] = true

		if field.Marker < NotKey || field.Marker > KeyEnum {
			v.addError(s.ID, field.Name, fmt.Sprintf("unknown key marker %d", int(field.Marker)), "")
		}

		if err := validateTypeRef(field.Type); err != nil {
			v.addError(s.ID, field.Name, err.Error(), "")
		}
	}

	if len(v.errors) > 0 {
		return errors.Join(v.errors...)
	}
	return nil
}

func (v *Validator) addError(typeID, field, msg, hint string) {
	v.errors = append(v.errors, &FieldError{
		Type:    typeID,
		Field:   field,
		Message: msg,
		Hint:    hint,
		Kind:    ErrInvalidSchema,
	})
}

// validateTypeRef checks that a declared type is complete
func validateTypeRef(t TypeRef) error {
	switch t.Class {
	case ClassPrimitive:
		if !t.Kind.IsValid() {
			return fmt.Errorf("invalid primitive kind %d", int(t.Kind))
		}
	case ClassText:
	case ClassEnum, ClassStruct, ClassUnion:
		if err := validateIdentifier(t.Name); err != nil {
			return fmt.Errorf("%s name %s", t.Class, err)
		}
	case ClassArray:
		if t.Elem == nil {
			return fmt.Errorf("array type missing element type")
		}
		if t.Length <= 0 {
			return fmt.Errorf("array length must be positive, got %d", t.Length)
		}
		if err := validateTypeRef(*t.Elem); err != nil {
			return fmt.Errorf("array element: %w", err)
		}
	case ClassSequence:
		if t.Elem == nil {
			return fmt.Errorf("sequence type missing element type")
		}
		if err := validateTypeRef(*t.Elem); err != nil {
			return fmt.Errorf("sequence element: %w", err)
		}
	case ClassMap:
		if t.Key == nil || t.Elem == nil {
			return fmt.Errorf("map type missing key or value type")
		}
		if err := validateTypeRef(*t.Key); err != nil {
			return fmt.Errorf("map key: %w", err)
		}
		if err := validateTypeRef(*t.Elem); err != nil {
			return fmt.Errorf("map value: %w", err)
		}
	default:
		return fmt.Errorf("unknown type class %d", int(t.Class))
	}
	return nil
}

func validateIdentifier(name string) error {
	if name == "" {
		return fmt.Errorf("is empty")
	}
	if strings.IndexFunc(name, unicode.IsSpace) >= 0 {
		return fmt.Errorf("%q contains whitespace", name)
	}
	return nil
}
