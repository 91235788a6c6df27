// Package keyschema derives topic key schemas and their canonical CDR key
// encoding.
//
// # Overview
//
// A structured type is described declaratively as a StructSchema: an
// identifier plus its fields in declaration order, each with a declared
// type and a key marker. Registering the schema runs three steps once,
// at registration time:
//
//   - ExtractKeyFields keeps the key-marked fields, in order
//   - Builder derives the key holder, a structural type holding only the
//     key fields, with nested structured keys replaced by their own
//     previously derived key holders
//   - the variable-length classification of the holder is computed and
//     stored with it
//
// The result is an immutable Descriptor. Its four facts are what topic
// registration and sample buffer sizing consume:
//
//	desc.HasKey()             // the holder has at least one field
//	desc.IsFixedSize()        // asserted by RegisterFixedSize
//	desc.ForceDigestKeyHash() // the holder is variable length
//	desc.KeyBytes(src)        // canonical CDR_BE key encoding
//
// # Registration
//
//	reg := keyschema.NewRegistry()
//	point := keyschema.NewStructSchema("Point",
//		keyschema.KeyField("x", keyschema.Int32()),
//		keyschema.KeyField("y", keyschema.Int32()),
//		keyschema.Field("label", keyschema.Text()),
//	)
//	desc, err := reg.Register(point)
//
// Nested structured key fields resolve through the registry, so a type
// must be registered before any type that uses it as a key.
//
// # Key fields
//
// A field marked Key may be a primitive, text, a fixed array of
// primitives, a sequence of primitives or a previously registered
// structured type. A field marked KeyEnum is an opaque ordinal: an
// enumeration encodes as a u32, an integer keeps its declared type. The
// caller guarantees the ordinal is stable. Anything else fails registration with ErrUnsupportedKeyFieldType
// or ErrUnsupportedArrayElement.
//
// # Wire format
//
// KeyBytes returns the 4-byte CDR_BE encapsulation header followed by the
// holder fields in declaration order, big-endian, aligned from the first
// byte after the header, nested holders inline. A type without key fields
// yields the header alone.
//
// # Thread safety
//
// Registry is safe for concurrent use. Descriptors and key holders are
// immutable after registration; KeyBytes allocates a fresh buffer per
// call and may run concurrently on any number of instances.
package keyschema
