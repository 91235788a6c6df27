// Package cdr provides a writer for the OMG Common Data Representation
// (plain CDR, version 1) used by DDS and RTPS payloads.
//
// # Encapsulation
//
// Every encoded payload starts with a 4-byte encapsulation header: a
// big-endian 16-bit representation identifier followed by 16 bits of
// options (always zero here).
//
//	CDR_BE  00 00 00 00
//	CDR_LE  00 01 00 00
//
// # Alignment
//
// Primitive values are aligned to their own size (1, 2, 4 or 8 bytes).
// Alignment is measured from the first byte after the encapsulation
// header, not from the start of the buffer, so a u32 written first lands
// at buffer offset 4 with no padding.
//
// # Strings and sequences
//
// Strings are written as a 4-byte aligned u32 length that counts the
// terminating NUL, the bytes, then the NUL. Sequences carry a u32 element
// count followed by the elements. Fixed arrays carry no length.
//
// # Sizing
//
// A Writer created with NewSizer performs no writes and only tracks the
// offset. Callers that know their value ahead of time run the same
// encoding against a sizer first and then allocate the final buffer once:
//
//	sizer := cdr.NewSizer()
//	encode(sizer)
//	w, err := cdr.NewWriter(cdr.BigEndian, sizer.Len())
//	if err != nil {
//		return err
//	}
//	encode(w)
//	payload := w.Bytes()
package cdr
