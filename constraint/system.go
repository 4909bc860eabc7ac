package constraint

import (
	"github.com/ammarsjw/aztec3-circuits/ecc/bn254/fr"
)

// Version of the serialization format, checked on deserialization.
const Version = "0.1.0"

// Selector identifies one selector polynomial column of the ultra flavor.
type Selector uint8

const (
	QM Selector = iota
	QC
	Q1
	Q2
	Q3
	Q4
	QArith
	QSort
	QElliptic
	QAux
	QLookupType

	NumSelectors
)

var selectorNames = [NumSelectors]string{
	"q_m", "q_c", "q_1", "q_2", "q_3", "q_4",
	"q_arith", "q_sort", "q_elliptic", "q_aux", "q_lookup_type",
}

// String returns the polynomial label of the selector.
func (s Selector) String() string { return selectorNames[s] }

// Flavor describes the capabilities of a constraint system: its program
// width and selector set. Composer behavior is parameterized by a Flavor
// value instead of an inheritance chain of composer variants.
type Flavor struct {
	Name         string
	ProgramWidth int
	NumSelectors int
}

// Ultra is the 4-wire flavor with arithmetic, sort, elliptic, auxiliary and
// lookup gates.
var Ultra = Flavor{
	Name:         "ultra",
	ProgramWidth: 4,
	NumSelectors: int(NumSelectors),
}

// Gate is one row of wire indices plus its selector coefficients.
type Gate struct {
	WL, WR, WO, W4 uint32
	Coeffs         [NumSelectors]fr.Element
}

// System accumulates the wire and selector columns of a circuit under
// construction. Rows are appended in creation order; finalize-time
// consistency rows (memory, range, lookup) land at the end.
type System struct {
	// serialization header
	FormatVersion string
	ScalarField   string

	Flavor Flavor

	// wire columns; W[j][i] is the variable index in wire j at row i
	W [4][]uint32 `cbor:"-"`

	// selector columns, same length as the wire columns
	Selectors [NumSelectors][]fr.Element

	PublicInputs []uint32

	NumGates int
}

// NewSystem returns an empty ultra system with the given capacity hint.
func NewSystem(capacity int) *System {
	s := &System{
		FormatVersion: Version,
		ScalarField:   fr.Modulus().Text(16),
		Flavor:        Ultra,
	}
	for j := range s.W {
		s.W[j] = make([]uint32, 0, capacity)
	}
	for j := range s.Selectors {
		s.Selectors[j] = make([]fr.Element, 0, capacity)
	}
	return s
}

// AddGate appends a row and returns its index.
func (s *System) AddGate(g Gate) int {
	row := s.NumGates
	s.W[0] = append(s.W[0], g.WL)
	s.W[1] = append(s.W[1], g.WR)
	s.W[2] = append(s.W[2], g.WO)
	s.W[3] = append(s.W[3], g.W4)
	for j := Selector(0); j < NumSelectors; j++ {
		s.Selectors[j] = append(s.Selectors[j], g.Coeffs[j])
	}
	s.NumGates++
	return row
}

// SelectorAt returns the coefficient of selector sel at the given row.
func (s *System) SelectorAt(sel Selector, row int) fr.Element {
	return s.Selectors[sel][row]
}

// SetSelectorAt overwrites the coefficient of selector sel at the given row.
// Used when a later gate fuses additional constraints onto an existing row.
func (s *System) SetSelectorAt(sel Selector, row int, v fr.Element) {
	s.Selectors[sel][row] = v
}
