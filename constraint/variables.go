// Package constraint holds the low-level circuit state: the witness variable
// arena with its equality classes, and the wire/selector columns gates are
// appended to. The builder package layers gate encoding on top.
package constraint

import (
	"fmt"

	"github.com/ammarsjw/aztec3-circuits/ecc/bn254/fr"
)

// DummyTag marks a variable class that carries no generalized-permutation tag.
const DummyTag uint32 = 0

// VariableStore is the flat, append-only table of witness values.
//
// Equality classes ("real variables") are tracked by a path-compressed
// union-find forest over variable indices; a class may carry a single
// generalized-permutation tag used by the sort/range arguments.
type VariableStore struct {
	values []fr.Element
	parent []uint32
	tags   []uint32 // per-index, meaningful at the class root only
}

// NewVariableStore returns an empty store with the given capacity hint.
func NewVariableStore(capacity int) *VariableStore {
	return &VariableStore{
		values: make([]fr.Element, 0, capacity),
		parent: make([]uint32, 0, capacity),
		tags:   make([]uint32, 0, capacity),
	}
}

// Add appends value and returns its index. Never fails.
func (vs *VariableStore) Add(value fr.Element) uint32 {
	idx := uint32(len(vs.values))
	vs.values = append(vs.values, value)
	vs.parent = append(vs.parent, idx)
	vs.tags = append(vs.tags, DummyTag)
	return idx
}

// Len returns the number of variables added so far.
func (vs *VariableStore) Len() int {
	return len(vs.values)
}

// Find returns the representative ("real") index of i's equality class,
// compressing the path on the way up.
func (vs *VariableStore) Find(i uint32) uint32 {
	vs.mustExist(i)
	root := i
	for vs.parent[root] != root {
		root = vs.parent[root]
	}
	for vs.parent[i] != root {
		vs.parent[i], i = root, vs.parent[i]
	}
	return root
}

// Value returns the witness value of i's equality class.
func (vs *VariableStore) Value(i uint32) fr.Element {
	return vs.values[vs.Find(i)]
}

// SetValue overwrites the witness value of i's equality class. Circuit
// structure is untouched; this is how a prover (or a test) substitutes an
// alternative witness assignment into an already-described circuit.
func (vs *VariableStore) SetValue(i uint32, v fr.Element) {
	vs.values[vs.Find(i)] = v
}

// RawValue returns the value stored at index i, ignoring aliasing.
func (vs *VariableStore) RawValue(i uint32) fr.Element {
	vs.mustExist(i)
	return vs.values[i]
}

// Union merges b's class into a's. Values are the caller's responsibility
// (the builder refuses to merge provably different values); Union only
// reports tag conflicts, which indicate two incompatible generalized
// permutation memberships.
func (vs *VariableStore) Union(a, b uint32) error {
	ra, rb := vs.Find(a), vs.Find(b)
	if ra == rb {
		return nil
	}
	ta, tb := vs.tags[ra], vs.tags[rb]
	if ta != DummyTag && tb != DummyTag && ta != tb {
		return fmt.Errorf("variable classes carry conflicting tags %d and %d", ta, tb)
	}
	if ta == DummyTag {
		vs.tags[ra] = tb
	}
	vs.parent[rb] = ra
	return nil
}

// Tag returns the generalized-permutation tag of i's class.
func (vs *VariableStore) Tag(i uint32) uint32 {
	return vs.tags[vs.Find(i)]
}

// SetTag tags i's class. Tagging an already-tagged class with a different
// tag is an error the builder surfaces as a circuit failure.
func (vs *VariableStore) SetTag(i, tag uint32) error {
	root := vs.Find(i)
	if existing := vs.tags[root]; existing != DummyTag && existing != tag {
		return fmt.Errorf("variable %d already tagged with %d, cannot retag with %d", i, existing, tag)
	}
	vs.tags[root] = tag
	return nil
}

func (vs *VariableStore) mustExist(i uint32) {
	if int(i) >= len(vs.values) {
		panic(fmt.Sprintf("variable index %d out of range (store has %d variables)", i, len(vs.values)))
	}
}
