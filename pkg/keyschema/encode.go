package keyschema

import (
	"fmt"

	"github.com/conduit-lang/topickey/pkg/cdr"
)

// EncodeKey serializes a holder value as CDR_BE with its encapsulation
// header. The layout follows the holder field order; nested holders are
// encoded in place. The encoding is sized first so the returned slice is
// the only allocation.
//
// An error here means the value does not match its own holder, which
// BuildHolderValue rules out; it wraps ErrInternal.
func EncodeKey(v *HolderValue) ([]byte, error) {
	if v == nil || v.schema == nil {
		return nil, fmt.Errorf("%w: nil holder value", ErrInternal)
	}

	sizer := cdr.NewSizer()
	if err := writeHolder(sizer, v); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInternal, v.schema.id, err)
	}

	w, err := cdr.NewWriter(cdr.BigEndian, sizer.Len())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}
	if err := writeHolder(w, v); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInternal, v.schema.id, err)
	}
	return w.Bytes(), nil
}

func writeHolder(w *cdr.Writer, v *HolderValue) error {
	if len(v.values) != len(v.schema.fields) {
		return fmt.Errorf("holder value has %d fields, schema has %d", len(v.values), len(v.schema.fields))
	}

	for i, field := range v.schema.fields {
		value := v.values[i]
		switch field.Type.Class {
		case HolderPrimitive:
			if err := writeKind(w, field.Type.Kind, value); err != nil {
				return fmt.Errorf("field %s: %w", field.Name, err)
			}

		case HolderEnumOrdinal:
			ordinal, ok := value.(uint32)
			if !ok {
				return fmt.Errorf("field %s: enum ordinal is %T", field.Name, value)
			}
			w.WriteUint32(ordinal)

		case HolderText:
			s, ok := value.(string)
			if !ok {
				return fmt.Errorf("field %s: text is %T", field.Name, value)
			}
			if err := w.WriteString(s); err != nil {
				return fmt.Errorf("field %s: %w", field.Name, err)
			}

		case HolderArray, HolderSequence:
			elems, ok := value.([]any)
			if !ok {
				return fmt.Errorf("field %s: elements are %T", field.Name, value)
			}
			if field.Type.Class == HolderSequence {
				if err := w.WriteSequenceLength(len(elems)); err != nil {
					return fmt.Errorf("field %s: %w", field.Name, err)
				}
			} else if len(elems) != field.Type.Length {
				return fmt.Errorf("field %s: %d elements for array of %d", field.Name, len(elems), field.Type.Length)
			}
			for j, elem := range elems {
				if err := writeKind(w, field.Type.Kind, elem); err != nil {
					return fmt.Errorf("field %s[%d]: %w", field.Name, j, err)
				}
			}

		case HolderNested:
			nested, ok := value.(*HolderValue)
			if !ok || nested.schema != field.Type.Nested {
				return fmt.Errorf("field %s: nested value does not instantiate %s", field.Name, field.Type.Nested.ID())
			}
			if err := writeHolder(w, nested); err != nil {
				return fmt.Errorf("field %s: %w", field.Name, err)
			}

		default:
			return fmt.Errorf("field %s: unknown holder class %s", field.Name, field.Type.Class)
		}
	}
	return nil
}

func writeKind(w *cdr.Writer, k Kind, value any) error {
	ok := true
	switch k {
	case KindBool:
		var v bool
		if v, ok = value.(bool); ok {
			w.WriteBool(v)
		}
	case KindInt8:
		var v int8
		if v, ok = value.(int8); ok {
			w.WriteInt8(v)
		}
	case KindUint8:
		var v uint8
		if v, ok = value.(uint8); ok {
			w.WriteUint8(v)
		}
	case KindInt16:
		var v int16
		if v, ok = value.(int16); ok {
			w.WriteInt16(v)
		}
	case KindUint16:
		var v uint16
		if v, ok = value.(uint16); ok {
			w.WriteUint16(v)
		}
	case KindInt32:
		var v int32
		if v, ok = value.(int32); ok {
			w.WriteInt32(v)
		}
	case KindUint32:
		var v uint32
		if v, ok = value.(uint32); ok {
			w.WriteUint32(v)
		}
	case KindInt64:
		var v int64
		if v, ok = value.(int64); ok {
			w.WriteInt64(v)
		}
	case KindUint64:
		var v uint64
		if v, ok = value.(uint64); ok {
			w.WriteUint64(v)
		}
	case KindFloat32:
		var v float32
		if v, ok = value.(float32); ok {
			w.WriteFloat32(v)
		}
	case KindFloat64:
		var v float64
		if v, ok = value.(float64); ok {
			w.WriteFloat64(v)
		}
	default:
		return fmt.Errorf("invalid kind %s", k)
	}
	if !ok {
		return fmt.Errorf("%s value is %T", k, value)
	}
	return nil
}
