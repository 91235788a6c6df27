package keyschema

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Definition is one structured type read from a schema file together with
// the registration entry point it asks for.
type Definition struct {
	Schema    *StructSchema
	FixedSize bool
}

type schemaDocument struct {
	Types []typeDocument `yaml:"types"`
}

type typeDocument struct {
	Name      string          `yaml:"name"`
	FixedSize bool            `yaml:"fixed_size"`
	Fields    []fieldDocument `yaml:"fields"`
}

type fieldDocument struct {
	Name string    `yaml:"name"`
	Type string    `yaml:"type"`
	Key  KeyMarker `yaml:"key"`
}

// UnmarshalYAML accepts true/false, "key", "enum" and "none"
func (m *KeyMarker) UnmarshalYAML(node *yaml.Node) error {
	var flag bool
	if err := node.Decode(&flag); err == nil {
		if flag {
			*m = Key
		} else {
			*m = NotKey
		}
		return nil
	}

	var s string
	if err := node.Decode(&s); err != nil {
		return fmt.Errorf("line %d: key marker must be a boolean or string", node.Line)
	}
	switch s {
	case "key":
		*m = Key
	case "enum":
		*m = KeyEnum
	case "none", "":
		*m = NotKey
	default:
		return fmt.Errorf("line %d: unknown key marker %q", node.Line, s)
	}
	return nil
}

// MarshalYAML writes the marker in the form UnmarshalYAML reads
func (m KeyMarker) MarshalYAML() (any, error) {
	switch m {
	case Key:
		return true, nil
	case KeyEnum:
		return "enum", nil
	default:
		return false, nil
	}
}

// ParseSchemas reads a schema document. Types keep their document order,
// which is the order they must be registered in.
//
//	types:
//	  - name: Point
//	    fixed_size: true
//	    fields:
//	      - {name: x, type: int32, key: true}
//	      - {name: y, type: int32, key: true}
//	      - {name: label, type: string}
func ParseSchemas(data []byte) ([]Definition, error) {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	var doc schemaDocument
	if err := decoder.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to parse schema document: %w", err)
	}

	defs := make([]Definition, 0, len(doc.Types))
	for _, td := range doc.Types {
		fields := make([]FieldDescriptor, 0, len(td.Fields))
		for _, fd := range td.Fields {
			ref, err := ParseTypeRef(fd.Type)
			if err != nil {
				return nil, fmt.Errorf("%s.%s: %w", td.Name, fd.Name, err)
			}
			fields = append(fields, FieldDescriptor{Name: fd.Name, Type: ref, Marker: fd.Key})
		}
		defs = append(defs, Definition{
			Schema:    NewStructSchema(td.Name, fields...),
			FixedSize: td.FixedSize,
		})
	}
	return defs, nil
}

// LoadSchemaFile reads and parses a schema file
func LoadSchemaFile(path string) ([]Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file: %w", err)
	}
	defs, err := ParseSchemas(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return defs, nil
}

// RegisterAll registers definitions in order through the entry point each
// one asks for, stopping at the first failure.
func (r *Registry) RegisterAll(defs []Definition) ([]*Descriptor, error) {
	out := make([]*Descriptor, 0, len(defs))
	for _, def := range defs {
		var d *Descriptor
		var err error
		if def.FixedSize {
			d, err = r.RegisterFixedSize(def.Schema)
		} else {
			d, err = r.Register(def.Schema)
		}
		if err != nil {
			return out, err
		}
		out = append(out, d)
	}
	return out, nil
}
