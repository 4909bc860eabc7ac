package fr

import (
	"encoding/binary"
	"errors"
)

// ErrInvalidEncoding is returned when decoding bytes that represent an integer ≥ q.
var ErrInvalidEncoding = errors.New("invalid fr.Element encoding")

// BigEndian is the big-endian, most-significant-limb-first codec for Element.
//
// decode(encode(x)) == x for every valid field element; decoding refuses
// non-canonical (≥ q) representatives.
var BigEndian bigEndian

type bigEndian struct{}

// Element decodes a fully reduced field element from a 32-byte big-endian encoding.
func (bigEndian) Element(b *[Bytes]byte) (Element, error) {
	var z Element
	z[0] = binary.BigEndian.Uint64((*b)[24:32])
	z[1] = binary.BigEndian.Uint64((*b)[16:24])
	z[2] = binary.BigEndian.Uint64((*b)[8:16])
	z[3] = binary.BigEndian.Uint64((*b)[0:8])

	if !z.smallerThanModulus() {
		return Element{}, ErrInvalidEncoding
	}

	z.toMont()
	return z, nil
}

// PutElement encodes e into b, 32 bytes big-endian, most significant limb first.
func (bigEndian) PutElement(b *[Bytes]byte, e Element) {
	e.fromMont()
	binary.BigEndian.PutUint64((*b)[24:32], e[0])
	binary.BigEndian.PutUint64((*b)[16:24], e[1])
	binary.BigEndian.PutUint64((*b)[8:16], e[2])
	binary.BigEndian.PutUint64((*b)[0:8], e[3])
}
