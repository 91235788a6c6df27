package cdr

import (
	"encoding/binary"
	"fmt"
)

// HeaderSize is the length of the encapsulation header in bytes.
const HeaderSize = 4

// Representation identifies the encoding of a payload in its
// encapsulation header.
type Representation uint16

const (
	// BigEndian is plain CDR, big-endian (CDR_BE).
	BigEndian Representation = 0x0000
	// LittleEndian is plain CDR, little-endian (CDR_LE).
	LittleEndian Representation = 0x0001
)

// String returns the RTPS name of the representation
func (r Representation) String() string {
	switch r {
	case BigEndian:
		return "CDR_BE"
	case LittleEndian:
		return "CDR_LE"
	default:
		return fmt.Sprintf("Representation(0x%04x)", uint16(r))
	}
}

// ByteOrder returns the byte order the representation mandates
func (r Representation) ByteOrder() (binary.ByteOrder, error) {
	switch r {
	case BigEndian:
		return binary.BigEndian, nil
	case LittleEndian:
		return binary.LittleEndian, nil
	default:
		return nil, fmt.Errorf("unsupported representation %s", r)
	}
}

// Header returns the 4-byte encapsulation header for r. The identifier
// is always big-endian regardless of the payload byte order.
func (r Representation) Header() [HeaderSize]byte {
	var h [HeaderSize]byte
	binary.BigEndian.PutUint16(h[0:2], uint16(r))
	return h
}

// ParseHeader reads the representation from the first four bytes of an
// encapsulated payload.
func ParseHeader(data []byte) (Representation, error) {
	if len(data) < HeaderSize {
		return 0, fmt.Errorf("data too short for encapsulation header: %d bytes", len(data))
	}
	r := Representation(binary.BigEndian.Uint16(data[0:2]))
	if _, err := r.ByteOrder(); err != nil {
		return 0, err
	}
	return r, nil
}
