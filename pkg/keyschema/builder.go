package keyschema

import (
	"errors"
	"fmt"
)

// HolderResolver looks up the key holder already derived for a type
type HolderResolver interface {
	Holder(typeID string) (*KeyHolderSchema, bool)
}

// Builder derives a KeyHolderSchema from a StructSchema
type Builder struct {
	resolver HolderResolver
	errors   []error
	warnings []string
}

// NewBuilder creates a new key holder builder. Nested structured key
// fields are resolved through resolver; a nil resolver rejects them all.
func NewBuilder(resolver HolderResolver) *Builder {
	return &Builder{
		resolver: resolver,
		errors:   make([]error, 0),
		warnings: make([]string, 0),
	}
}

// Build derives the key holder of s. Every key field is checked; all
// failures are returned together and no partial holder is produced.
func (b *Builder) Build(s *StructSchema) (*KeyHolderSchema, error) {
	b.errors = make([]error, 0)
	b.warnings = make([]string, 0)

	if s == nil {
		return nil, fmt.Errorf("%w: nil schema", ErrInvalidSchema)
	}

	keys := ExtractKeyFields(s)
	fields := make([]HolderField, 0, len(keys))
	for _, key := range keys {
		field, err := b.buildField(s.ID, key)
		if err != nil {
			b.errors = append(b.errors, err)
			continue
		}
		fields = append(fields, field)
	}

	if len(b.errors) > 0 {
		return nil, errors.Join(b.errors...)
	}

	return newKeyHolderSchema(s.ID, fields), nil
}

// Warnings returns the warnings of the last Build
func (b *Builder) Warnings() []string {
	out := make([]string, len(b.warnings))
	copy(out, b.warnings)
	return out
}

// buildField resolves one key field to its holder type
func (b *Builder) buildField(typeID string, field FieldDescriptor) (HolderField, error) {
	fail := func(kind error, msg, hint string) (HolderField, error) {
		return HolderField{}, &FieldError{
			Type:    typeID,
			Field:   field.Name,
			Message: msg,
			Hint:    hint,
			Kind:    kind,
		}
	}

	declared := field.Type
	holder := HolderField{Name: field.Name, Type: HolderType{Source: declared.clone()}}

	if field.Marker == KeyEnum {
		switch {
		case declared.Class == ClassEnum:
			holder.Type.Class = HolderEnumOrdinal
		case declared.Class == ClassPrimitive && declared.Kind.IsInteger():
			// an integer keeps its declared width
			holder.Type.Class = HolderPrimitive
			holder.Type.Kind = declared.Kind
		default:
			return fail(ErrUnsupportedKeyFieldType,
				fmt.Sprintf("enum key marker on %s %s", declared.Class, declared),
				"the enum key marker applies to enumerations and integer types")
		}
		return holder, nil
	}

	switch declared.Class {
	case ClassPrimitive:
		holder.Type.Class = HolderPrimitive
		holder.Type.Kind = declared.Kind

	case ClassText:
		holder.Type.Class = HolderText

	case ClassEnum:
		return fail(ErrUnsupportedKeyFieldType,
			fmt.Sprintf("enumeration %s used as a plain key", declared.Name),
			"mark the field as an enum key to encode its ordinal")

	case ClassStruct:
		var nested *KeyHolderSchema
		var ok bool
		if b.resolver != nil {
			nested, ok = b.resolver.Holder(declared.Name)
		}
		if !ok {
			return fail(ErrUnresolvedKeyType,
				fmt.Sprintf("no key holder derived for %s", declared.Name),
				fmt.Sprintf("register %s before types that use it as a key", declared.Name))
		}
		holder.Type.Class = HolderNested
		holder.Type.Nested = nested

	case ClassArray:
		if declared.Elem == nil || !declared.Elem.IsPrimitive() {
			elem := "<missing>"
			if declared.Elem != nil {
				elem = declared.Elem.String()
			}
			return fail(ErrUnsupportedArrayElement,
				fmt.Sprintf("array of %s", elem),
				"key arrays must hold fixed-width primitives")
		}
		holder.Type.Class = HolderArray
		holder.Type.Kind = declared.Elem.Kind
		holder.Type.Length = declared.Length

	case ClassSequence:
		if declared.Elem == nil || !declared.Elem.IsPrimitive() {
			return fail(ErrUnsupportedKeyFieldType,
				fmt.Sprintf("%s of non-primitive elements", declared),
				"key sequences must hold fixed-width primitives")
		}
		holder.Type.Class = HolderSequence
		holder.Type.Kind = declared.Elem.Kind

	default:
		return fail(ErrUnsupportedKeyFieldType,
			fmt.Sprintf("%s %s cannot be a key", declared.Class, declared),
			"keys must be primitives, strings, key enums, registered types, or arrays and sequences of primitives")
	}

	return holder, nil
}
