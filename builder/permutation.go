package builder

import (
	"github.com/ammarsjw/aztec3-circuits/constraint"
)

// CycleNode locates one occurrence of a variable in the execution trace:
// wire column and trace row. Public input rows precede gate rows.
type CycleNode struct {
	Wire uint32
	Row  uint32
}

// ComputeWireCopyCycles gathers, per real variable, every trace cell the
// variable occupies. Each public input seeds its cycle with a synthetic
// left/right pair on its own row, so the permutation argument forces the
// first two wires of that row to agree with the public value.
func (b *UltraBuilder) ComputeWireCopyCycles() map[uint32][]CycleNode {
	cycles := make(map[uint32][]CycleNode)
	nPub := uint32(len(b.publicInputs))

	for i, pi := range b.publicInputs {
		root := b.vars.Find(pi)
		cycles[root] = append(cycles[root],
			CycleNode{Wire: 0, Row: uint32(i)},
			CycleNode{Wire: 1, Row: uint32(i)},
		)
	}
	for row := 0; row < b.cs.NumGates; row++ {
		for j := 0; j < len(b.cs.W); j++ {
			root := b.vars.Find(b.cs.W[j][row])
			cycles[root] = append(cycles[root], CycleNode{
				Wire: uint32(j),
				Row:  nPub + uint32(row),
			})
		}
	}
	return cycles
}

// PermutationMapping holds the sigma and identity mappings in numeric form:
// cell (wire j, row r) encodes as r + numRows·j. Sigma points each cell at
// the next cell of its copy cycle; cells outside any cycle map to
// themselves. The first-wire cell of public input row i carries the
// distinguished value -(i+1) so the verifier can reconstruct the public
// input delta without trusting sigma at those rows.
//
// TagID and TagSigma carry the generalized permutation: cells of a tagged
// class hold the class tag and its tau counterpart.
type PermutationMapping struct {
	NumRows int

	Sigma [4][]int64
	ID    [4][]int64

	TagID    [4][]uint32
	TagSigma [4][]uint32
}

func encodeCell(numRows int, n CycleNode) int64 {
	return int64(n.Row) + int64(numRows)*int64(n.Wire)
}

// ComputePermutationMapping derives the sigma/id description of the
// finalized trace. One linear pass builds the cycles, one pass per cycle
// threads the pointers.
func (b *UltraBuilder) ComputePermutationMapping() *PermutationMapping {
	numRows := len(b.publicInputs) + b.cs.NumGates

	m := &PermutationMapping{NumRows: numRows}
	for j := 0; j < 4; j++ {
		m.Sigma[j] = make([]int64, numRows)
		m.ID[j] = make([]int64, numRows)
		m.TagID[j] = make([]uint32, numRows)
		m.TagSigma[j] = make([]uint32, numRows)
		for r := 0; r < numRows; r++ {
			self := encodeCell(numRows, CycleNode{Wire: uint32(j), Row: uint32(r)})
			m.Sigma[j][r] = self
			m.ID[j][r] = self
		}
	}

	for root, cycle := range b.ComputeWireCopyCycles() {
		tag := b.vars.Tag(root)
		tau := b.tauOf[tag]
		for k, node := range cycle {
			next := cycle[(k+1)%len(cycle)]
			m.Sigma[node.Wire][node.Row] = encodeCell(numRows, next)
			if tag != constraint.DummyTag {
				m.TagID[node.Wire][node.Row] = tag
				m.TagSigma[node.Wire][node.Row] = tau
			}
		}
	}

	// public input cells get the negative encoding on the first wire
	for i := range b.publicInputs {
		m.Sigma[0][i] = -int64(i + 1)
	}

	return m
}
