package keyschema

import (
	"fmt"
	"strings"
)

// Kind is a fixed-width primitive kind
type Kind int

const (
	KindInvalid Kind = iota
	KindBool
	KindInt8
	KindUint8
	KindInt16
	KindUint16
	KindInt32
	KindUint32
	KindInt64
	KindUint64
	KindFloat32
	KindFloat64
)

// String returns the type expression name of the kind
func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindInt8:
		return "int8"
	case KindUint8:
		return "uint8"
	case KindInt16:
		return "int16"
	case KindUint16:
		return "uint16"
	case KindInt32:
		return "int32"
	case KindUint32:
		return "uint32"
	case KindInt64:
		return "int64"
	case KindUint64:
		return "uint64"
	case KindFloat32:
		return "float32"
	case KindFloat64:
		return "float64"
	default:
		return "invalid"
	}
}

// ParseKind converts a type expression name to a Kind
func ParseKind(s string) (Kind, error) {
	switch s {
	case "bool", "boolean":
		return KindBool, nil
	case "int8":
		return KindInt8, nil
	case "uint8", "octet", "byte":
		return KindUint8, nil
	case "int16", "short":
		return KindInt16, nil
	case "uint16":
		return KindUint16, nil
	case "int32", "long":
		return KindInt32, nil
	case "uint32":
		return KindUint32, nil
	case "int64":
		return KindInt64, nil
	case "uint64":
		return KindUint64, nil
	case "float32", "float":
		return KindFloat32, nil
	case "float64", "double":
		return KindFloat64, nil
	default:
		return KindInvalid, fmt.Errorf("unknown primitive kind: %s", s)
	}
}

// Size returns the encoded width in bytes, which is also the alignment.
func (k Kind) Size() int {
	switch k {
	case KindBool, KindInt8, KindUint8:
		return 1
	case KindInt16, KindUint16:
		return 2
	case KindInt32, KindUint32, KindFloat32:
		return 4
	case KindInt64, KindUint64, KindFloat64:
		return 8
	default:
		return 0
	}
}

// IsValid reports whether k names a primitive kind
func (k Kind) IsValid() bool {
	return k > KindInvalid && k <= KindFloat64
}

// IsInteger reports whether k is a signed or unsigned integer kind
func (k Kind) IsInteger() bool {
	return k >= KindInt8 && k <= KindUint64
}

// TypeClass is the shape of a declared field type
type TypeClass int

const (
	ClassPrimitive TypeClass = iota
	ClassText
	ClassEnum
	ClassStruct
	ClassArray
	ClassSequence
	ClassMap
	ClassUnion
)

// String returns the string representation of the class
func (c TypeClass) String() string {
	switch c {
	case ClassPrimitive:
		return "primitive"
	case ClassText:
		return "text"
	case ClassEnum:
		return "enum"
	case ClassStruct:
		return "struct"
	case ClassArray:
		return "array"
	case ClassSequence:
		return "sequence"
	case ClassMap:
		return "map"
	case ClassUnion:
		return "union"
	default:
		return "unknown"
	}
}

// TypeRef is the declared type of a field
type TypeRef struct {
	Class  TypeClass
	Kind   Kind     // ClassPrimitive
	Name   string   // ClassEnum, ClassStruct, ClassUnion
	Elem   *TypeRef // ClassArray, ClassSequence; value type of ClassMap
	Key    *TypeRef // ClassMap
	Length int      // ClassArray
}

func Primitive(k Kind) TypeRef { return TypeRef{Class: ClassPrimitive, Kind: k} }

func Bool() TypeRef    { return Primitive(KindBool) }
func Int8() TypeRef    { return Primitive(KindInt8) }
func Uint8() TypeRef   { return Primitive(KindUint8) }
func Int16() TypeRef   { return Primitive(KindInt16) }
func Uint16() TypeRef  { return Primitive(KindUint16) }
func Int32() TypeRef   { return Primitive(KindInt32) }
func Uint32() TypeRef  { return Primitive(KindUint32) }
func Int64() TypeRef   { return Primitive(KindInt64) }
func Uint64() TypeRef  { return Primitive(KindUint64) }
func Float32() TypeRef { return Primitive(KindFloat32) }
func Float64() TypeRef { return Primitive(KindFloat64) }

// Text is a dynamic-length string.
func Text() TypeRef { return TypeRef{Class: ClassText} }

// UUID is a 16-octet fixed array.
func UUID() TypeRef { return Array(Uint8(), 16) }

// Enum is an enumeration. Only KeyEnum fields may use it as a key.
func Enum(name string) TypeRef { return TypeRef{Class: ClassEnum, Name: name} }

// Struct references another structured type by identifier.
func Struct(id string) TypeRef { return TypeRef{Class: ClassStruct, Name: id} }

// Array is a fixed-length array of n elements.
func Array(elem TypeRef, n int) TypeRef {
	return TypeRef{Class: ClassArray, Elem: &elem, Length: n}
}

// Sequence is a dynamic-length sequence.
func Sequence(elem TypeRef) TypeRef {
	return TypeRef{Class: ClassSequence, Elem: &elem}
}

// Map is a key/value container. Never valid as a key field.
func Map(key, value TypeRef) TypeRef {
	return TypeRef{Class: ClassMap, Key: &key, Elem: &value}
}

// Union is a discriminated union. Never valid as a key field.
func Union(name string) TypeRef { return TypeRef{Class: ClassUnion, Name: name} }

// IsPrimitive reports whether t is a fixed-width primitive
func (t TypeRef) IsPrimitive() bool {
	return t.Class == ClassPrimitive
}

// String renders t as a type expression accepted by ParseTypeRef
func (t TypeRef) String() string {
	switch t.Class {
	case ClassPrimitive:
		return t.Kind.String()
	case ClassText:
		return "string"
	case ClassEnum:
		return "enum " + t.Name
	case ClassStruct:
		return t.Name
	case ClassUnion:
		return "union " + t.Name
	case ClassArray:
		return fmt.Sprintf("%s[%d]", t.Elem.String(), t.Length)
	case ClassSequence:
		return fmt.Sprintf("sequence<%s>", t.Elem.String())
	case ClassMap:
		return fmt.Sprintf("map<%s,%s>", t.Key.String(), t.Elem.String())
	default:
		return "unknown"
	}
}

// clone returns a deep copy of t
func (t TypeRef) clone() TypeRef {
	c := t
	if t.Elem != nil {
		elem := t.Elem.clone()
		c.Elem = &elem
	}
	if t.Key != nil {
		key := t.Key.clone()
		c.Key = &key
	}
	return c
}

// KeyMarker designates a field's participation in the key
type KeyMarker int

const (
	// NotKey fields are dropped from the key holder.
	NotKey KeyMarker = iota
	// Key fields are encoded through their declared representation.
	Key
	// KeyEnum fields are opaque ordinals: enumerations encode as u32,
	// integers keep their declared width.
	KeyEnum
)

// String returns the string representation of the marker
func (m KeyMarker) String() string {
	switch m {
	case NotKey:
		return "none"
	case Key:
		return "key"
	case KeyEnum:
		return "enum"
	default:
		return "unknown"
	}
}

// FieldDescriptor is one declared field of a structured type
type FieldDescriptor struct {
	Name   string
	Type   TypeRef
	Marker KeyMarker
}

// Field declares a field that is not part of the key
func Field(name string, t TypeRef) FieldDescriptor {
	return FieldDescriptor{Name: name, Type: t, Marker: NotKey}
}

// KeyField declares a key field
func KeyField(name string, t TypeRef) FieldDescriptor {
	return FieldDescriptor{Name: name, Type: t, Marker: Key}
}

// KeyEnumField declares an enumeration key field
func KeyEnumField(name string, t TypeRef) FieldDescriptor {
	return FieldDescriptor{Name: name, Type: t, Marker: KeyEnum}
}

// IsKey reports whether the field participates in the key
func (f FieldDescriptor) IsKey() bool {
	return f.Marker != NotKey
}

// StructSchema is a structured type with its fields in declaration order
type StructSchema struct {
	ID     string
	Fields []FieldDescriptor
}

// NewStructSchema creates a StructSchema
func NewStructSchema(id string, fields ...FieldDescriptor) *StructSchema {
	return &StructSchema{ID: id, Fields: fields}
}

// Clone returns a deep copy of s
func (s *StructSchema) Clone() *StructSchema {
	if s == nil {
		return nil
	}
	fields := make([]FieldDescriptor, len(s.Fields))
	for i, f := range s.Fields {
		fields[i] = FieldDescriptor{Name: f.Name, Type: f.Type.clone(), Marker: f.Marker}
	}
	return &StructSchema{ID: s.ID, Fields: fields}
}

// String renders the schema for diagnostics
func (s *StructSchema) String() string {
	var b strings.Builder
	b.WriteString(s.ID)
	b.WriteString(" {")
	for i, f := range s.Fields {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString(" ")
		if f.IsKey() {
			b.WriteString("@")
			b.WriteString(f.Marker.String())
			b.WriteString(" ")
		}
		b.WriteString(f.Name)
		b.WriteString(": ")
		b.WriteString(f.Type.String())
	}
	b.WriteString(" }")
	return b.String()
}
