package topic

import (
	"errors"
	"fmt"

	"github.com/conduit-lang/topickey/pkg/keyschema"
)

// KeyHashPolicy is the per-type contract consumed by topic registration
// and sample buffer sizing.
type KeyHashPolicy[T any] interface {
	HasKey() bool
	IsFixedSize() bool
	ForceDigestKeyHash() bool
	KeyBytes(v *T) []byte
}

var _ KeyHashPolicy[struct{}] = (*Type[struct{}])(nil)

// Type binds a Go struct type to its registered key schema
type Type[T any] struct {
	desc    *keyschema.Descriptor
	getters map[string]func(*T) (any, error)
}

// Define registers T under id without a fixed-size claim
func Define[T any](reg *keyschema.Registry, id string, fields ...FieldSpec[T]) (*Type[T], error) {
	return define(reg, id, false, fields)
}

// DefineFixedSize registers T under id, asserting that every encoding of
// T has the same size.
func DefineFixedSize[T any](reg *keyschema.Registry, id string, fields ...FieldSpec[T]) (*Type[T], error) {
	return define(reg, id, true, fields)
}

// MustDefine is like Define but panics on error. It is meant for
// package-level type declarations.
func MustDefine[T any](reg *keyschema.Registry, id string, fields ...FieldSpec[T]) *Type[T] {
	t, err := Define(reg, id, fields...)
	if err != nil {
		panic(err)
	}
	return t
}

// MustDefineFixedSize is like DefineFixedSize but panics on error
func MustDefineFixedSize[T any](reg *keyschema.Registry, id string, fields ...FieldSpec[T]) *Type[T] {
	t, err := DefineFixedSize(reg, id, fields...)
	if err != nil {
		panic(err)
	}
	return t
}

func define[T any](reg *keyschema.Registry, id string, fixedSize bool, fields []FieldSpec[T]) (*Type[T], error) {
	if reg == nil {
		return nil, errors.New("topic: nil registry")
	}

	descs := make([]keyschema.FieldDescriptor, 0, len(fields))
	getters := make(map[string]func(*T) (any, error))
	for _, f := range fields {
		if f.desc.IsKey() {
			if f.get == nil {
				return nil, &keyschema.FieldError{
					Type:    id,
					Field:   f.desc.Name,
					Message: "key field has no accessor",
					Hint:    "declare key fields with Key, KeyEnum, KeyArray, KeySequence, KeyUUID, KeyStruct or KeyOf",
					Kind:    keyschema.ErrInvalidSchema,
				}
			}
			getters[f.desc.Name] = f.get
		}
		descs = append(descs, f.desc)
	}

	schema := keyschema.NewStructSchema(id, descs...)

	var desc *keyschema.Descriptor
	var err error
	if fixedSize {
		desc, err = reg.RegisterFixedSize(schema)
	} else {
		desc, err = reg.Register(schema)
	}
	if err != nil {
		return nil, err
	}

	return &Type[T]{desc: desc, getters: getters}, nil
}

// ID returns the registered type identifier
func (t *Type[T]) ID() string {
	return t.desc.ID()
}

// Descriptor returns the registered descriptor
func (t *Type[T]) Descriptor() *keyschema.Descriptor {
	return t.desc
}

// HasKey reports whether T has at least one key field
func (t *Type[T]) HasKey() bool {
	return t.desc.HasKey()
}

// IsFixedSize reports whether T was defined with DefineFixedSize
func (t *Type[T]) IsFixedSize() bool {
	return t.desc.IsFixedSize()
}

// ForceDigestKeyHash reports whether key hashes of T must be digests
func (t *Type[T]) ForceDigestKeyHash() bool {
	return t.desc.ForceDigestKeyHash()
}

// EncodeKey returns the canonical key encoding of v
func (t *Type[T]) EncodeKey(v *T) ([]byte, error) {
	if v == nil {
		return nil, fmt.Errorf("%s: nil instance", t.ID())
	}
	return t.desc.KeyBytes(t.source(v))
}

// KeyBytes returns the canonical key encoding of v. It panics when v
// cannot be encoded; use EncodeKey to handle the error.
func (t *Type[T]) KeyBytes(v *T) []byte {
	out, err := t.EncodeKey(v)
	if err != nil {
		if !errors.Is(err, keyschema.ErrInternal) {
			err = fmt.Errorf("%w: %v", keyschema.ErrInternal, err)
		}
		panic(err)
	}
	return out
}

// TopicName returns the default topic name of T under prefix
func (t *Type[T]) TopicName(prefix string) string {
	return prefix + t.ID()
}

func (t *Type[T]) source(v *T) keyschema.Source {
	return instance[T]{value: v, getters: t.getters}
}

// instance reads key fields of one value through the type's accessors
type instance[T any] struct {
	value   *T
	getters map[string]func(*T) (any, error)
}

func (i instance[T]) KeyValue(field string) (any, error) {
	get, ok := i.getters[field]
	if !ok {
		return nil, fmt.Errorf("no accessor for key field %q", field)
	}
	return get(i.value)
}
