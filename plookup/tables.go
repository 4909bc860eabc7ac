// Package plookup holds the precomputed tables backing lookup gates and the
// accumulator construction that turns a wide-word lookup into a run of
// small-table rows.
package plookup

import (
	"fmt"

	"github.com/ammarsjw/aztec3-circuits/ecc/bn254/fr"
)

// BasicTableID names one precomputed small table.
type BasicTableID uint32

const (
	XorBasic BasicTableID = iota
	AndBasic
	XorRemainderBasic
	AndRemainderBasic
)

// MultiTableID names a composite lookup over a run of basic tables.
type MultiTableID uint32

const (
	Uint32Xor MultiTableID = iota
	Uint32And

	NumMultiTables
)

type tableKey struct {
	a, b uint64
}

// BasicTable is a fully enumerated three-column table. Lookup rows are
// checked for membership against it, keyed on the first two columns.
type BasicTable struct {
	ID BasicTableID

	// TableIndex is the selector value identifying this table inside one
	// circuit build. Assigned when the table is first used; zero means
	// "not a lookup row" and is never a valid index.
	TableIndex uint32

	Column1, Column2, Column3 []fr.Element

	index map[tableKey]uint64
}

// Lookup returns the third-column value for the key pair (a, b).
func (t *BasicTable) Lookup(a, b uint64) (uint64, bool) {
	v, ok := t.index[tableKey{a, b}]
	return v, ok
}

// Contains reports whether (a, b, c) is a row of the table.
func (t *BasicTable) Contains(a, b, c fr.Element) bool {
	if !a.IsUint64() || !b.IsUint64() || !c.IsUint64() {
		return false
	}
	v, ok := t.index[tableKey{a.Uint64(), b.Uint64()}]
	return ok && v == c.Uint64()
}

// Size returns the number of rows in the table.
func (t *BasicTable) Size() int {
	return len(t.Column1)
}

// MultiTable composes basic tables into a lookup over wide words. A key is
// sliced least-significant-first into len(SliceBits) pieces; slice i is
// looked up in Basics[i].
type MultiTable struct {
	ID        MultiTableID
	SliceBits []uint64
	Basics    []BasicTableID
}

// ReadData carries the three lookup columns produced by an accumulator
// construction, one entry per lookup row.
type ReadData[T any] struct {
	Columns [3][]T
}

// Len returns the number of rows.
func (r *ReadData[T]) Len() int {
	return len(r.Columns[0])
}

// LookupData is the fully resolved output of GetLookupAccumulators: the
// accumulator columns plus, per row, the basic table the row reads from and
// the step coefficient linking the row to its successor.
type LookupData struct {
	ReadData[fr.Element]

	// Tables[i] is the basic table row i must be a member of.
	Tables []*BasicTable

	// Steps[i] scales row i+1's accumulator when isolating row i's slice;
	// zero on the final row.
	Steps []fr.Element
}

// Tables owns the lazily built basic tables of one circuit. Table indices
// are assigned in first-use order so two builds that perform the same
// lookups produce identical selector columns.
type Tables struct {
	basics map[BasicTableID]*BasicTable
	order  []*BasicTable
	multi  map[MultiTableID]*MultiTable
}

// NewTables returns an empty table context.
func NewTables() *Tables {
	return &Tables{
		basics: make(map[BasicTableID]*BasicTable),
		multi:  make(map[MultiTableID]*MultiTable),
	}
}

// Basic returns the basic table with the given id, building it on first use.
func (ts *Tables) Basic(id BasicTableID) *BasicTable {
	if t, ok := ts.basics[id]; ok {
		return t
	}
	t := buildBasicTable(id)
	t.TableIndex = uint32(len(ts.order) + 1)
	ts.basics[id] = t
	ts.order = append(ts.order, t)
	return t
}

// ByIndex returns the basic table with the given per-build table index.
func (ts *Tables) ByIndex(tableIndex uint32) (*BasicTable, bool) {
	if tableIndex == 0 || int(tableIndex) > len(ts.order) {
		return nil, false
	}
	return ts.order[tableIndex-1], true
}

// InUse returns the basic tables built so far, in table-index order.
func (ts *Tables) InUse() []*BasicTable {
	return ts.order
}

// Multi returns the multi-table definition for id.
func (ts *Tables) Multi(id MultiTableID) *MultiTable {
	if m, ok := ts.multi[id]; ok {
		return m
	}
	m := buildMultiTable(id)
	ts.multi[id] = m
	return m
}

// GetLookupAccumulators slices (keyA, keyB) per the multi-table layout,
// resolves each slice pair against its basic table and folds the slices into
// accumulator columns. Row i of column c holds the partial sum of slices
// i and above, so row 0 reconstructs the full word:
//
//	A[i] = slice[i] + (1 << bits[i]) * A[i+1]
func (ts *Tables) GetLookupAccumulators(id MultiTableID, keyA, keyB uint64) (*LookupData, error) {
	m := ts.Multi(id)
	numRows := len(m.SliceBits)

	slicesA := make([]uint64, numRows)
	slicesB := make([]uint64, numRows)
	slicesC := make([]uint64, numRows)

	a, b := keyA, keyB
	for i, bits := range m.SliceBits {
		mask := (uint64(1) << bits) - 1
		slicesA[i] = a & mask
		slicesB[i] = b & mask
		a >>= bits
		b >>= bits

		t := ts.Basic(m.Basics[i])
		out, ok := t.Lookup(slicesA[i], slicesB[i])
		if !ok {
			return nil, fmt.Errorf("slice (%d, %d) not present in basic table %d", slicesA[i], slicesB[i], m.Basics[i])
		}
		slicesC[i] = out
	}
	if a != 0 || b != 0 {
		return nil, fmt.Errorf("keys (%d, %d) exceed the %d-slice layout of multi table %d", keyA, keyB, numRows, id)
	}

	data := &LookupData{
		Tables: make([]*BasicTable, numRows),
		Steps:  make([]fr.Element, numRows),
	}
	for c := range data.Columns {
		data.Columns[c] = make([]fr.Element, numRows)
	}

	// fold from the most significant slice down
	var accA, accB, accC fr.Element
	for i := numRows - 1; i >= 0; i-- {
		var step fr.Element
		step.SetUint64(uint64(1) << m.SliceBits[i])

		accA.Mul(&accA, &step)
		accB.Mul(&accB, &step)
		accC.Mul(&accC, &step)

		var s fr.Element
		s.SetUint64(slicesA[i])
		accA.Add(&accA, &s)
		s.SetUint64(slicesB[i])
		accB.Add(&accB, &s)
		s.SetUint64(slicesC[i])
		accC.Add(&accC, &s)

		data.Columns[0][i] = accA
		data.Columns[1][i] = accB
		data.Columns[2][i] = accC

		data.Tables[i] = ts.Basic(m.Basics[i])
		if i < numRows-1 {
			data.Steps[i].SetUint64(uint64(1) << m.SliceBits[i])
		}
	}

	return data, nil
}
