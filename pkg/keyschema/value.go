package keyschema

import (
	"fmt"
	"math"

	"github.com/google/uuid"
)

// Source exposes the key field values of one source instance.
//
// KeyValue returns the value of the named key field: a Go basic value
// for primitives and text, an integer for key enums, a slice ([]any or
// []byte) for arrays and sequences, and a Source for nested structured
// fields.
type Source interface {
	KeyValue(field string) (any, error)
}

// HolderValue is an instance of a KeyHolderSchema. Each value is an
// independent copy normalized to the Go type of its holder field: the
// primitive's Go type, string, uint32 for enum ordinals, []any for arrays
// and sequences, *HolderValue for nested holders.
type HolderValue struct {
	schema *KeyHolderSchema
	values []any
}

// Schema returns the holder the value instantiates
func (v *HolderValue) Schema() *KeyHolderSchema {
	return v.schema
}

// Value returns the i-th field value in holder order
func (v *HolderValue) Value(i int) any {
	return v.values[i]
}

// BuildHolderValue builds the key holder value of src: primitives, text
// and enums are copied, nested structured fields are converted into their
// own holder values.
func BuildHolderValue(h *KeyHolderSchema, src Source) (*HolderValue, error) {
	v := &HolderValue{schema: h, values: make([]any, len(h.fields))}
	if len(h.fields) == 0 {
		return v, nil
	}
	if src == nil {
		return nil, fmt.Errorf("%s: nil source instance", h.source)
	}

	for i, field := range h.fields {
		raw, err := src.KeyValue(field.Name)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", h.source, field.Name, err)
		}
		value, err := convertField(field.Type, raw)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", h.source, field.Name, err)
		}
		v.values[i] = value
	}
	return v, nil
}

func convertField(t HolderType, raw any) (any, error) {
	switch t.Class {
	case HolderPrimitive:
		return coerceKind(t.Kind, raw)

	case HolderEnumOrdinal:
		n, err := toUint64(raw)
		if err != nil {
			return nil, fmt.Errorf("enum ordinal: %w", err)
		}
		if n > math.MaxUint32 {
			return nil, fmt.Errorf("enum ordinal %d exceeds u32", n)
		}
		return uint32(n), nil

	case HolderText:
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("expected string, got %T", raw)
		}
		return s, nil

	case HolderArray:
		elems, err := coerceElements(t.Kind, raw, t.Length)
		if err != nil {
			return nil, err
		}
		if len(elems) != t.Length {
			return nil, fmt.Errorf("array needs %d elements, got %d", t.Length, len(elems))
		}
		return elems, nil

	case HolderSequence:
		return coerceElements(t.Kind, raw, -1)

	case HolderNested:
		var nested Source
		switch src := raw.(type) {
		case Source:
			nested = src
		case map[string]any:
			nested = MapSource(src)
		default:
			return nil, fmt.Errorf("expected nested %s instance, got %T", t.Nested.SourceID(), raw)
		}
		return BuildHolderValue(t.Nested, nested)

	default:
		return nil, fmt.Errorf("unknown holder class %s", t.Class)
	}
}

// coerceElements copies a slice value into []any of kind k. Octet arrays
// of length 16 also accept a UUID in string or uuid.UUID form.
func coerceElements(k Kind, raw any, length int) ([]any, error) {
	var items []any
	switch v := raw.(type) {
	case []any:
		items = v
	case []byte:
		items = make([]any, len(v))
		for i, b := range v {
			items[i] = b
		}
	case uuid.UUID:
		return coerceElements(k, v[:], length)
	case string:
		if k != KindUint8 || length != 16 {
			return nil, fmt.Errorf("expected %s elements, got string", k)
		}
		id, err := uuid.Parse(v)
		if err != nil {
			return nil, fmt.Errorf("octet[16] from string: %w", err)
		}
		return coerceElements(k, id[:], length)
	default:
		return nil, fmt.Errorf("expected a list of %s, got %T", k, raw)
	}

	out := make([]any, len(items))
	for i, item := range items {
		value, err := coerceKind(k, item)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out[i] = value
	}
	return out, nil
}

// coerceKind converts a Go numeric or boolean value to the Go type of k,
// rejecting values that do not fit.
func coerceKind(k Kind, raw any) (any, error) {
	switch k {
	case KindBool:
		b, ok := raw.(bool)
		if !ok {
			return nil, fmt.Errorf("expected bool, got %T", raw)
		}
		return b, nil
	case KindFloat32:
		f, err := toFloat64(raw)
		if err != nil {
			return nil, err
		}
		if !math.IsInf(f, 0) && math.Abs(f) > math.MaxFloat32 {
			return nil, fmt.Errorf("%g out of range for float32", f)
		}
		return float32(f), nil
	case KindFloat64:
		return toFloat64(raw)
	}

	if !k.IsInteger() {
		return nil, fmt.Errorf("invalid kind %s", k)
	}

	signed := k == KindInt8 || k == KindInt16 || k == KindInt32 || k == KindInt64
	if signed {
		n, err := toInt64(raw)
		if err != nil {
			return nil, err
		}
		switch k {
		case KindInt8:
			if n < math.MinInt8 || n > math.MaxInt8 {
				return nil, fmt.Errorf("%d out of range for int8", n)
			}
			return int8(n), nil
		case KindInt16:
			if n < math.MinInt16 || n > math.MaxInt16 {
				return nil, fmt.Errorf("%d out of range for int16", n)
			}
			return int16(n), nil
		case KindInt32:
			if n < math.MinInt32 || n > math.MaxInt32 {
				return nil, fmt.Errorf("%d out of range for int32", n)
			}
			return int32(n), nil
		default:
			return n, nil
		}
	}

	n, err := toUint64(raw)
	if err != nil {
		return nil, err
	}
	switch k {
	case KindUint8:
		if n > math.MaxUint8 {
			return nil, fmt.Errorf("%d out of range for uint8", n)
		}
		return uint8(n), nil
	case KindUint16:
		if n > math.MaxUint16 {
			return nil, fmt.Errorf("%d out of range for uint16", n)
		}
		return uint16(n), nil
	case KindUint32:
		if n > math.MaxUint32 {
			return nil, fmt.Errorf("%d out of range for uint32", n)
		}
		return uint32(n), nil
	default:
		return n, nil
	}
}

func toInt64(raw any) (int64, error) {
	switch v := raw.(type) {
	case int:
		return int64(v), nil
	case int8:
		return int64(v), nil
	case int16:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	case uint:
		if uint64(v) > math.MaxInt64 {
			return 0, fmt.Errorf("%d overflows int64", v)
		}
		return int64(v), nil
	case uint8:
		return int64(v), nil
	case uint16:
		return int64(v), nil
	case uint32:
		return int64(v), nil
	case uint64:
		if v > math.MaxInt64 {
			return 0, fmt.Errorf("%d overflows int64", v)
		}
		return int64(v), nil
	case float64:
		if v != math.Trunc(v) || v < math.MinInt64 || v >= math.MaxInt64 {
			return 0, fmt.Errorf("%v is not an integer", v)
		}
		return int64(v), nil
	default:
		return 0, fmt.Errorf("expected integer, got %T", raw)
	}
}

func toUint64(raw any) (uint64, error) {
	switch v := raw.(type) {
	case uint:
		return uint64(v), nil
	case uint8:
		return uint64(v), nil
	case uint16:
		return uint64(v), nil
	case uint32:
		return uint64(v), nil
	case uint64:
		return v, nil
	case float64:
		if v != math.Trunc(v) || v < 0 || v >= math.MaxUint64 {
			return 0, fmt.Errorf("%v is not an unsigned integer", v)
		}
		return uint64(v), nil
	}

	n, err := toInt64(raw)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("%d is negative", n)
	}
	return uint64(n), nil
}

func toFloat64(raw any) (float64, error) {
	switch v := raw.(type) {
	case float32:
		return float64(v), nil
	case float64:
		return v, nil
	}
	n, err := toInt64(raw)
	if err != nil {
		return 0, fmt.Errorf("expected number, got %T", raw)
	}
	return float64(n), nil
}

// MapSource adapts a decoded YAML or JSON document to Source. Nested
// structured fields are maps themselves.
type MapSource map[string]any

// KeyValue implements Source
func (m MapSource) KeyValue(field string) (any, error) {
	v, ok := m[field]
	if !ok {
		return nil, fmt.Errorf("missing key field %q", field)
	}
	if nested, ok := v.(map[string]any); ok {
		return MapSource(nested), nil
	}
	return v, nil
}
