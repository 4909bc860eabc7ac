package plookup

import (
	"fmt"

	"github.com/ammarsjw/aztec3-circuits/ecc/bn254/fr"
)

// 32-bit words are sliced into five 6-bit pieces plus a 2-bit remainder, so
// a single bitwise operation costs six lookup rows against tables of at most
// 4096 entries.
const (
	sliceBits     = 6
	remainderBits = 2
)

func xorOp(a, b uint64) uint64 { return a ^ b }
func andOp(a, b uint64) uint64 { return a & b }

func buildBasicTable(id BasicTableID) *BasicTable {
	switch id {
	case XorBasic:
		return generateBitwiseTable(id, sliceBits, xorOp)
	case AndBasic:
		return generateBitwiseTable(id, sliceBits, andOp)
	case XorRemainderBasic:
		return generateBitwiseTable(id, remainderBits, xorOp)
	case AndRemainderBasic:
		return generateBitwiseTable(id, remainderBits, andOp)
	default:
		panic(fmt.Sprintf("unknown basic table id %d", id))
	}
}

// generateBitwiseTable enumerates op over all pairs of bits-wide operands.
func generateBitwiseTable(id BasicTableID, bits uint64, op func(a, b uint64) uint64) *BasicTable {
	n := uint64(1) << bits
	t := &BasicTable{
		ID:      id,
		Column1: make([]fr.Element, 0, n*n),
		Column2: make([]fr.Element, 0, n*n),
		Column3: make([]fr.Element, 0, n*n),
		index:   make(map[tableKey]uint64, n*n),
	}
	var e fr.Element
	for a := uint64(0); a < n; a++ {
		for b := uint64(0); b < n; b++ {
			out := op(a, b)
			e.SetUint64(a)
			t.Column1 = append(t.Column1, e)
			e.SetUint64(b)
			t.Column2 = append(t.Column2, e)
			e.SetUint64(out)
			t.Column3 = append(t.Column3, e)
			t.index[tableKey{a, b}] = out
		}
	}
	return t
}

func buildMultiTable(id MultiTableID) *MultiTable {
	var full, rem BasicTableID
	switch id {
	case Uint32Xor:
		full, rem = XorBasic, XorRemainderBasic
	case Uint32And:
		full, rem = AndBasic, AndRemainderBasic
	default:
		panic(fmt.Sprintf("unknown multi table id %d", id))
	}
	return &MultiTable{
		ID:        id,
		SliceBits: []uint64{sliceBits, sliceBits, sliceBits, sliceBits, sliceBits, remainderBits},
		Basics:    []BasicTableID{full, full, full, full, full, rem},
	}
}
