package cdr

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Writer appends CDR-encoded values to a buffer that begins with an
// encapsulation header. A Writer is not safe for concurrent use; create
// one per encoding.
type Writer struct {
	order  binary.ByteOrder
	buf    []byte
	pos    int // offset from the first payload byte
	sizing bool
}

// NewWriter creates a writer for the given representation. sizeHint is
// the expected payload length excluding the header; when it is exact the
// writer never reallocates.
func NewWriter(rep Representation, sizeHint int) (*Writer, error) {
	order, err := rep.ByteOrder()
	if err != nil {
		return nil, err
	}
	if sizeHint < 0 {
		sizeHint = 0
	}

	header := rep.Header()
	buf := make([]byte, 0, HeaderSize+sizeHint)
	buf = append(buf, header[:]...)

	return &Writer{order: order, buf: buf}, nil
}

// NewSizer creates a writer that only measures. Bytes returns nil.
func NewSizer() *Writer {
	return &Writer{order: binary.BigEndian, sizing: true}
}

// Len returns the number of payload bytes written so far, excluding the
// encapsulation header.
func (w *Writer) Len() int {
	return w.pos
}

// Bytes returns the encapsulated payload. The slice aliases the writer's
// buffer.
func (w *Writer) Bytes() []byte {
	if w.sizing {
		return nil
	}
	return w.buf
}

// Align pads the payload with zero bytes until its length is a multiple
// of n.
func (w *Writer) Align(n int) {
	if n <= 1 {
		return
	}
	pad := (n - w.pos%n) % n
	if pad == 0 {
		return
	}
	w.pos += pad
	if w.sizing {
		return
	}
	for i := 0; i < pad; i++ {
		w.buf = append(w.buf, 0)
	}
}

func (w *Writer) put(b ...byte) {
	w.pos += len(b)
	if !w.sizing {
		w.buf = append(w.buf, b...)
	}
}

// WriteBool writes a boolean as a single octet, 1 for true.
func (w *Writer) WriteBool(v bool) {
	if v {
		w.put(1)
		return
	}
	w.put(0)
}

// WriteUint8 writes an octet.
func (w *Writer) WriteUint8(v uint8) {
	w.put(v)
}

// WriteInt8 writes a signed octet.
func (w *Writer) WriteInt8(v int8) {
	w.put(uint8(v))
}

// WriteUint16 writes an aligned unsigned short.
func (w *Writer) WriteUint16(v uint16) {
	w.Align(2)
	var b [2]byte
	w.order.PutUint16(b[:], v)
	w.put(b[:]...)
}

// WriteInt16 writes an aligned short.
func (w *Writer) WriteInt16(v int16) {
	w.WriteUint16(uint16(v))
}

// WriteUint32 writes an aligned unsigned long.
func (w *Writer) WriteUint32(v uint32) {
	w.Align(4)
	var b [4]byte
	w.order.PutUint32(b[:], v)
	w.put(b[:]...)
}

// WriteInt32 writes an aligned long.
func (w *Writer) WriteInt32(v int32) {
	w.WriteUint32(uint32(v))
}

// WriteUint64 writes an aligned unsigned long long.
func (w *Writer) WriteUint64(v uint64) {
	w.Align(8)
	var b [8]byte
	w.order.PutUint64(b[:], v)
	w.put(b[:]...)
}

// WriteInt64 writes an aligned long long.
func (w *Writer) WriteInt64(v int64) {
	w.WriteUint64(uint64(v))
}

// WriteFloat32 writes an aligned IEEE 754 single.
func (w *Writer) WriteFloat32(v float32) {
	w.WriteUint32(math.Float32bits(v))
}

// WriteFloat64 writes an aligned IEEE 754 double.
func (w *Writer) WriteFloat64(v float64) {
	w.WriteUint64(math.Float64bits(v))
}

// WriteString writes a NUL-terminated string preceded by its length,
// terminator included.
func (w *Writer) WriteString(s string) error {
	if uint64(len(s)) >= math.MaxUint32 {
		return fmt.Errorf("string of %d bytes exceeds CDR length limit", len(s))
	}
	w.WriteUint32(uint32(len(s) + 1))
	w.pos += len(s) + 1
	if !w.sizing {
		w.buf = append(w.buf, s...)
		w.buf = append(w.buf, 0)
	}
	return nil
}

// WriteSequenceLength writes the element count that precedes a sequence.
func (w *Writer) WriteSequenceLength(n int) error {
	if n < 0 || uint64(n) > math.MaxUint32 {
		return fmt.Errorf("sequence length %d out of CDR range", n)
	}
	w.WriteUint32(uint32(n))
	return nil
}
