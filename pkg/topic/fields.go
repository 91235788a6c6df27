package topic

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/conduit-lang/topickey/pkg/keyschema"
)

// Primitive is the set of Go types a key field can be bound to directly.
// string binds a text key.
type Primitive interface {
	bool | int8 | uint8 | int16 | uint16 | int32 | uint32 | int64 | uint64 | float32 | float64 | string
}

// Ordinal is the set of Go types an enumeration key can be declared with
type Ordinal interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 | ~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64
}

// FieldSpec declares one field of T: its schema descriptor and, for key
// fields, the accessor reading its value from an instance.
type FieldSpec[T any] struct {
	desc keyschema.FieldDescriptor
	get  func(*T) (any, error)
}

// Descriptor returns the schema descriptor of the field
func (f FieldSpec[T]) Descriptor() keyschema.FieldDescriptor {
	return f.desc
}

// Key declares a key field encoded by its own Go type
func Key[T any, V Primitive](name string, get func(*T) V) FieldSpec[T] {
	return FieldSpec[T]{
		desc: keyschema.KeyField(name, refOf[V]()),
		get: func(t *T) (any, error) {
			return get(t), nil
		},
	}
}

// KeyEnum declares an enumeration key field. Its value is encoded as a
// u32 ordinal regardless of the Go type of E.
func KeyEnum[T any, E Ordinal](name, enumName string, get func(*T) E) FieldSpec[T] {
	return FieldSpec[T]{
		desc: keyschema.KeyEnumField(name, keyschema.Enum(enumName)),
		get: func(t *T) (any, error) {
			v := get(t)
			if v < 0 {
				return nil, fmt.Errorf("negative enum ordinal %d", int64(v))
			}
			return uint64(v), nil
		},
	}
}

// KeyArray declares a fixed-length array key field of primitives
func KeyArray[T any, E Primitive](name string, length int, get func(*T) []E) FieldSpec[T] {
	return FieldSpec[T]{
		desc: keyschema.KeyField(name, keyschema.Array(refOf[E](), length)),
		get: func(t *T) (any, error) {
			return toAny(get(t)), nil
		},
	}
}

// KeySequence declares a variable-length sequence key field of primitives
func KeySequence[T any, E Primitive](name string, get func(*T) []E) FieldSpec[T] {
	return FieldSpec[T]{
		desc: keyschema.KeyField(name, keyschema.Sequence(refOf[E]())),
		get: func(t *T) (any, error) {
			return toAny(get(t)), nil
		},
	}
}

// KeyUUID declares a UUID key field, encoded as an octet[16] array
func KeyUUID[T any](name string, get func(*T) uuid.UUID) FieldSpec[T] {
	return FieldSpec[T]{
		desc: keyschema.KeyField(name, keyschema.UUID()),
		get: func(t *T) (any, error) {
			return get(t), nil
		},
	}
}

// KeyStruct declares a structured key field. nested must be defined in
// the same registry before the type using it.
func KeyStruct[T, N any](name string, nested *Type[N], get func(*T) *N) FieldSpec[T] {
	return FieldSpec[T]{
		desc: keyschema.KeyField(name, keyschema.Struct(nested.ID())),
		get: func(t *T) (any, error) {
			v := get(t)
			if v == nil {
				return nil, fmt.Errorf("nil %s instance", nested.ID())
			}
			return nested.source(v), nil
		},
	}
}

// KeyOf declares a key field with an explicit declared type. The accessor
// must return a value the type accepts; see keyschema.Source.
func KeyOf[T any](name string, ref keyschema.TypeRef, get func(*T) any) FieldSpec[T] {
	return FieldSpec[T]{
		desc: keyschema.KeyField(name, ref),
		get: func(t *T) (any, error) {
			return get(t), nil
		},
	}
}

// Field declares a field that does not take part in the key
func Field[T any](name string, ref keyschema.TypeRef) FieldSpec[T] {
	return FieldSpec[T]{desc: keyschema.Field(name, ref)}
}

func refOf[V Primitive]() keyschema.TypeRef {
	var zero V
	switch any(zero).(type) {
	case bool:
		return keyschema.Bool()
	case int8:
		return keyschema.Int8()
	case uint8:
		return keyschema.Uint8()
	case int16:
		return keyschema.Int16()
	case uint16:
		return keyschema.Uint16()
	case int32:
		return keyschema.Int32()
	case uint32:
		return keyschema.Uint32()
	case int64:
		return keyschema.Int64()
	case uint64:
		return keyschema.Uint64()
	case float32:
		return keyschema.Float32()
	case float64:
		return keyschema.Float64()
	default:
		return keyschema.Text()
	}
}

func toAny[E any](in []E) []any {
	out := make([]any, len(in))
	for i, v := range in {
		out[i] = v
	}
	return out
}
