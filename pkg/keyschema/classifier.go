package keyschema

// classifyVariableLength reports whether a holder layout can encode to
// different lengths: true when any field is text or a sequence, or is a
// nested holder that is itself variable length. Nested holders carry
// their own memoized flag, so this never recurses.
func classifyVariableLength(fields []HolderField) bool {
	variable := false
	for _, field := range fields {
		switch field.Type.Class {
		case HolderText, HolderSequence:
			variable = true
		case HolderNested:
			if field.Type.Nested.VariableLength() {
				variable = true
			}
		}
	}
	return variable
}
