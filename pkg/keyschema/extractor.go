package keyschema

// ExtractKeyFields returns the key-marked fields of s in declaration
// order. Unmarked fields are dropped; nothing is validated here.
func ExtractKeyFields(s *StructSchema) []FieldDescriptor {
	if s == nil {
		return nil
	}

	keys := make([]FieldDescriptor, 0, len(s.Fields))
	for _, field := range s.Fields {
		if field.IsKey() {
			keys = append(keys, field)
		}
	}
	return keys
}
