// Package builder implements the ultra circuit constructor. It owns the
// witness variable store, appends gate rows to a constraint.System, and
// layers the range, lookup and memory arguments on top of the raw columns.
//
// Construction is strictly sequential. Invariant violations inside
// gate-creation calls (conflicting equalities, malformed lookups, bad memory
// usage) set a shared failure flag with a message instead of aborting, so a
// circuit can finish being described and be inspected before bailing out.
package builder

import (
	"fmt"

	"github.com/ammarsjw/aztec3-circuits/constraint"
	"github.com/ammarsjw/aztec3-circuits/debug"
	"github.com/ammarsjw/aztec3-circuits/ecc/bn254/fr"
	"github.com/ammarsjw/aztec3-circuits/logger"
	"github.com/ammarsjw/aztec3-circuits/plookup"
)

const (
	// DefaultRangeBitnum is the widest range a single lookup-backed
	// constraint covers; wider ranges decompose into limbs of this size.
	DefaultRangeBitnum = 14

	// rangeStepSize bounds the difference between adjacent entries of a
	// sorted range list.
	rangeStepSize = 3
)

// UltraBuilder accumulates a circuit under construction.
type UltraBuilder struct {
	cs   *constraint.System
	vars *constraint.VariableStore

	publicInputs []uint32
	zeroIdx      uint32
	oneIdx       uint32
	constants    map[fr.Element]uint32

	tables *plookup.Tables

	rangeLists map[uint64]*rangeList
	currentTag uint32
	tauOf      map[uint32]uint32

	romArrays []*romTranscript
	ramArrays []*ramTranscript

	memoryReadRecords  []int
	memoryWriteRecords []int

	finalized  bool
	failed     bool
	failReason string
}

type config struct {
	capacity int
}

// Option configures the builder at construction time.
type Option func(*config)

// WithCapacity hints the expected number of gates so the column vectors can
// be allocated up front.
func WithCapacity(n int) Option {
	return func(c *config) { c.capacity = n }
}

// New returns an empty ultra builder. The constants zero and one are
// pre-registered so gates can reference them without allocating.
func New(opts ...Option) *UltraBuilder {
	cfg := config{capacity: 1 << 10}
	for _, opt := range opts {
		opt(&cfg)
	}

	b := &UltraBuilder{
		cs:         constraint.NewSystem(cfg.capacity),
		vars:       constraint.NewVariableStore(cfg.capacity),
		constants:  make(map[fr.Element]uint32),
		tables:     plookup.NewTables(),
		rangeLists: make(map[uint64]*rangeList),
		tauOf:      make(map[uint32]uint32),
	}

	var zero, one fr.Element
	one.SetOne()
	b.zeroIdx = b.putConstantVariable(zero)
	b.oneIdx = b.putConstantVariable(one)

	return b
}

// AddVariable appends a witness value and returns its index. Never fails.
func (b *UltraBuilder) AddVariable(v fr.Element) uint32 {
	return b.vars.Add(v)
}

// AddPublicVariable appends a witness value and marks it as a public input.
func (b *UltraBuilder) AddPublicVariable(v fr.Element) uint32 {
	idx := b.vars.Add(v)
	b.publicInputs = append(b.publicInputs, idx)
	return idx
}

// PublicInputs returns the witness indices of the public inputs, in
// declaration order.
func (b *UltraBuilder) PublicInputs() []uint32 {
	return b.publicInputs
}

// Zero returns the index of the constant-zero witness.
func (b *UltraBuilder) Zero() uint32 { return b.zeroIdx }

// One returns the index of the constant-one witness.
func (b *UltraBuilder) One() uint32 { return b.oneIdx }

// Value returns the witness value of idx's equality class.
func (b *UltraBuilder) Value(idx uint32) fr.Element {
	return b.vars.Value(idx)
}

// SetWitnessValue substitutes an alternative witness assignment for idx's
// equality class. The circuit structure is unchanged; CheckCircuit decides
// whether the new assignment still satisfies it.
func (b *UltraBuilder) SetWitnessValue(idx uint32, v fr.Element) {
	b.vars.SetValue(idx, v)
}

// NumGates returns the number of gate rows appended so far.
func (b *UltraBuilder) NumGates() int { return b.cs.NumGates }

// System exposes the underlying constraint system. After Finalize the
// columns are complete and must not be mutated further.
func (b *UltraBuilder) System() *constraint.System { return b.cs }

// Tables exposes the lookup tables used by this circuit.
func (b *UltraBuilder) Tables() *plookup.Tables { return b.tables }

// AssertEqual unions the equality classes of a and c. If the two classes
// hold provably different values the circuit is flagged as failed.
func (b *UltraBuilder) AssertEqual(a, c uint32) {
	va := b.vars.Value(a)
	vc := b.vars.Value(c)
	if !va.Equal(&vc) {
		b.fail("assert_equal: witness values differ (%s != %s)", va.String(), vc.String())
	}
	if err := b.vars.Union(a, c); err != nil {
		b.fail("assert_equal: %s", err.Error())
	}
}

// putConstantVariable returns the witness index pinned to v, creating and
// constraining it on first use. Repeated constants share one index.
func (b *UltraBuilder) putConstantVariable(v fr.Element) uint32 {
	if idx, ok := b.constants[v]; ok {
		return idx
	}
	idx := b.AddVariable(v)
	b.FixWitness(idx, v)
	b.constants[v] = idx
	return idx
}

// Failed reports whether an invariant violation was recorded.
func (b *UltraBuilder) Failed() bool { return b.failed }

// FailureReason returns the first recorded violation message.
func (b *UltraBuilder) FailureReason() string { return b.failReason }

// fail records the first invariant violation. Construction continues so the
// rest of the circuit description can still be inspected.
func (b *UltraBuilder) fail(format string, args ...interface{}) {
	if b.failed {
		return
	}
	b.failed = true
	b.failReason = fmt.Sprintf(format, args...)

	log := logger.Logger()
	ev := log.Debug().Str("reason", b.failReason)
	if debug.Debug {
		ev = ev.Str("stack", debug.Stack())
	}
	ev.Msg("circuit construction failure")
}

// getNewTag allocates a fresh generalized-permutation tag.
func (b *UltraBuilder) getNewTag() uint32 {
	b.currentTag++
	return b.currentTag
}

// createTagPair allocates a tag and its tau counterpart and registers the
// mapping both ways.
func (b *UltraBuilder) createTagPair() (tag, tau uint32) {
	tag = b.getNewTag()
	tau = b.getNewTag()
	b.tauOf[tag] = tau
	b.tauOf[tau] = tag
	return tag, tau
}

// assignTag tags the equality class of idx, flagging the circuit on
// conflicting memberships.
func (b *UltraBuilder) assignTag(idx, tag uint32) {
	if err := b.vars.SetTag(idx, tag); err != nil {
		b.fail("assign_tag: %s", err.Error())
	}
}

// wireValue returns the value feeding wire j at row i.
func (b *UltraBuilder) wireValue(j, i int) fr.Element {
	return b.vars.Value(b.cs.W[j][i])
}
