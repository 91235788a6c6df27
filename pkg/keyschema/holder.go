package keyschema

import (
	"fmt"

	"github.com/conduit-lang/topickey/pkg/cdr"
)

// HolderSuffix is appended to a type identifier to name its key holder.
const HolderSuffix = "KeyHolder"

// HolderClass is the resolved shape of a key holder field
type HolderClass int

const (
	HolderPrimitive HolderClass = iota
	HolderEnumOrdinal
	HolderNested
	HolderArray
	HolderText
	HolderSequence
)

// String returns the string representation of the holder class
func (c HolderClass) String() string {
	switch c {
	case HolderPrimitive:
		return "primitive"
	case HolderEnumOrdinal:
		return "enum_ordinal"
	case HolderNested:
		return "nested"
	case HolderArray:
		return "array"
	case HolderText:
		return "text"
	case HolderSequence:
		return "sequence"
	default:
		return "unknown"
	}
}

// HolderType is the resolved type of a key holder field
type HolderType struct {
	Class  HolderClass
	Kind   Kind             // HolderPrimitive; element kind of HolderArray and HolderSequence
	Length int              // HolderArray
	Nested *KeyHolderSchema // HolderNested
	Source TypeRef          // declared type in the source schema
}

// String renders the resolved type
func (t HolderType) String() string {
	switch t.Class {
	case HolderPrimitive:
		return t.Kind.String()
	case HolderEnumOrdinal:
		return "uint32 (ordinal of " + t.Source.String() + ")"
	case HolderNested:
		return t.Nested.ID()
	case HolderArray:
		return fmt.Sprintf("%s[%d]", t.Kind, t.Length)
	case HolderText:
		return "string"
	case HolderSequence:
		return fmt.Sprintf("sequence<%s>", t.Kind)
	default:
		return "unknown"
	}
}

// HolderField is one field of a key holder
type HolderField struct {
	Name string
	Type HolderType
}

// KeyHolderSchema is the derived structural type holding only the key
// fields of a source type. It is immutable once built.
type KeyHolderSchema struct {
	id             string
	source         string
	fields         []HolderField
	variableLength bool
	fixedSize      int
}

func newKeyHolderSchema(sourceID string, fields []HolderField) *KeyHolderSchema {
	h := &KeyHolderSchema{
		id:     sourceID + HolderSuffix,
		source: sourceID,
		fields: fields,
	}
	h.variableLength = classifyVariableLength(fields)
	if !h.variableLength {
		sizer := cdr.NewSizer()
		measureFixed(sizer, fields)
		h.fixedSize = sizer.Len()
	}
	return h
}

// ID returns the holder identifier, <TypeId>KeyHolder
func (h *KeyHolderSchema) ID() string {
	return h.id
}

// SourceID returns the identifier of the type the holder was derived from
func (h *KeyHolderSchema) SourceID() string {
	return h.source
}

// Fields returns a copy of the holder fields in key declaration order
func (h *KeyHolderSchema) Fields() []HolderField {
	out := make([]HolderField, len(h.fields))
	copy(out, h.fields)
	return out
}

// Len returns the number of holder fields
func (h *KeyHolderSchema) Len() int {
	return len(h.fields)
}

// IsEmpty reports whether the source type has no key fields
func (h *KeyHolderSchema) IsEmpty() bool {
	return len(h.fields) == 0
}

// VariableLength reports whether the encoded key length can differ
// between instances. Computed once when the holder is built.
func (h *KeyHolderSchema) VariableLength() bool {
	return h.variableLength
}

// FixedEncodedSize returns the payload length of every key encoding,
// header excluded. ok is false for variable-length holders.
func (h *KeyHolderSchema) FixedEncodedSize() (size int, ok bool) {
	if h.variableLength {
		return 0, false
	}
	return h.fixedSize, true
}

// measureFixed advances the sizer over a fixed-length field layout
func measureFixed(w *cdr.Writer, fields []HolderField) {
	for _, field := range fields {
		switch field.Type.Class {
		case HolderPrimitive:
			skipKind(w, field.Type.Kind)
		case HolderEnumOrdinal:
			w.WriteUint32(0)
		case HolderArray:
			for i := 0; i < field.Type.Length; i++ {
				skipKind(w, field.Type.Kind)
			}
		case HolderNested:
			measureFixed(w, field.Type.Nested.fields)
		}
	}
}

func skipKind(w *cdr.Writer, k Kind) {
	switch k.Size() {
	case 1:
		w.WriteUint8(0)
	case 2:
		w.WriteUint16(0)
	case 4:
		w.WriteUint32(0)
	case 8:
		w.WriteUint64(0)
	}
}
