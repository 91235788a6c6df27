package keyschema

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseTypeRef parses a type expression:
//
//	bool int8 uint8 int16 uint16 int32 uint32 int64 uint64 float32 float64
//	string            dynamic-length text
//	uuid              uint8[16]
//	enum Color        enumeration
//	union Shape       discriminated union
//	T[N]              fixed array
//	sequence<T>       dynamic sequence
//	map<K,V>          map
//	Name              named structured type
func ParseTypeRef(expr string) (TypeRef, error) {
	s := strings.TrimSpace(expr)
	if s == "" {
		return TypeRef{}, fmt.Errorf("empty type expression")
	}

	if strings.HasSuffix(s, "]") {
		open := strings.LastIndex(s, "[")
		if open <= 0 {
			return TypeRef{}, fmt.Errorf("malformed array type %q", expr)
		}
		n, err := strconv.Atoi(strings.TrimSpace(s[open+1 : len(s)-1]))
		if err != nil {
			return TypeRef{}, fmt.Errorf("array length in %q: %w", expr, err)
		}
		elem, err := ParseTypeRef(s[:open])
		if err != nil {
			return TypeRef{}, err
		}
		return Array(elem, n), nil
	}

	if inner, ok := generic(s, "sequence"); ok {
		elem, err := ParseTypeRef(inner)
		if err != nil {
			return TypeRef{}, err
		}
		return Sequence(elem), nil
	}

	if inner, ok := generic(s, "map"); ok {
		comma := topLevelComma(inner)
		if comma < 0 {
			return TypeRef{}, fmt.Errorf("map type %q needs key and value types", expr)
		}
		key, err := ParseTypeRef(inner[:comma])
		if err != nil {
			return TypeRef{}, err
		}
		value, err := ParseTypeRef(inner[comma+1:])
		if err != nil {
			return TypeRef{}, err
		}
		return Map(key, value), nil
	}

	if name, ok := strings.CutPrefix(s, "enum "); ok {
		return Enum(strings.TrimSpace(name)), nil
	}
	if name, ok := strings.CutPrefix(s, "union "); ok {
		return Union(strings.TrimSpace(name)), nil
	}

	switch s {
	case "string", "text":
		return Text(), nil
	case "uuid":
		return UUID(), nil
	}

	if k, err := ParseKind(s); err == nil {
		return Primitive(k), nil
	}

	if strings.ContainsAny(s, "<>[], \t") {
		return TypeRef{}, fmt.Errorf("malformed type expression %q", expr)
	}
	return Struct(s), nil
}

// generic returns the text between name< and the final >
func generic(s, name string) (string, bool) {
	rest, ok := strings.CutPrefix(s, name+"<")
	if !ok || !strings.HasSuffix(rest, ">") {
		return "", false
	}
	return rest[:len(rest)-1], true
}

func topLevelComma(s string) int {
	depth := 0
	for i, r := range s {
		switch r {
		case '<':
			depth++
		case '>':
			depth--
		case ',':
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
