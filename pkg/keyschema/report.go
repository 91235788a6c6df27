package keyschema

// Report is a serializable summary of a Descriptor
type Report struct {
	Type               string        `json:"type" yaml:"type"`
	Holder             string        `json:"holder" yaml:"holder"`
	Fields             []FieldReport `json:"fields" yaml:"fields"`
	HasKey             bool          `json:"has_key" yaml:"has_key"`
	FixedSize          bool          `json:"fixed_size" yaml:"fixed_size"`
	ForceDigestKeyHash bool          `json:"force_digest_key_hash" yaml:"force_digest_key_hash"`
	KeySize            *int          `json:"key_size,omitempty" yaml:"key_size,omitempty"`
	Warnings           []string      `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// FieldReport describes one key holder field
type FieldReport struct {
	Name     string `json:"name" yaml:"name"`
	Declared string `json:"declared" yaml:"declared"`
	Encoding string `json:"encoding" yaml:"encoding"`
}

// Report summarizes the descriptor. KeySize is the fixed payload length
// of the key encoding, absent for variable-length keys.
func (d *Descriptor) Report() Report {
	fields := make([]FieldReport, 0, d.holder.Len())
	for _, f := range d.holder.fields {
		fields = append(fields, FieldReport{
			Name:     f.Name,
			Declared: f.Type.Source.String(),
			Encoding: f.Type.String(),
		})
	}

	report := Report{
		Type:               d.ID(),
		Holder:             d.holder.ID(),
		Fields:             fields,
		HasKey:             d.HasKey(),
		FixedSize:          d.IsFixedSize(),
		ForceDigestKeyHash: d.ForceDigestKeyHash(),
		Warnings:           d.Warnings(),
	}
	if size, ok := d.holder.FixedEncodedSize(); ok {
		report.KeySize = &size
	}
	return report
}
