package builder

import (
	"github.com/ammarsjw/aztec3-circuits/constraint"
	"github.com/ammarsjw/aztec3-circuits/ecc/bn254/fr"
	"github.com/ammarsjw/aztec3-circuits/plookup"
)

// ReadFromTable performs a two-key lookup against the given multi-table and
// returns the witness handles of the generated accumulator columns. One
// gate row is emitted per physical sub-table; row i holds the running
// accumulators of keys and value, and the selectors record the scaling that
// telescopes row i+1's accumulator out of row i's, so each row isolates
// exactly one sub-table read. Row 0 carries the fully reconstructed keys
// and value.
//
// The caller's key witnesses are wired directly into the first row; no
// separate equality gates are needed.
func (b *UltraBuilder) ReadFromTable(id plookup.MultiTableID, keyA, keyB uint32) plookup.ReadData[uint32] {
	va := b.vars.Value(keyA)
	vb := b.vars.Value(keyB)
	if !va.IsUint64() || !vb.IsUint64() {
		b.fail("lookup keys must be native integers")
		return b.failedLookup()
	}

	data, err := b.tables.GetLookupAccumulators(id, va.Uint64(), vb.Uint64())
	if err != nil {
		b.fail("lookup failed: %s", err.Error())
		return b.failedLookup()
	}

	numRows := data.Len()
	var out plookup.ReadData[uint32]
	for c := range out.Columns {
		out.Columns[c] = make([]uint32, numRows)
	}
	out.Columns[0][0], out.Columns[1][0] = keyA, keyB
	out.Columns[2][0] = b.AddVariable(data.Columns[2][0])
	for i := 1; i < numRows; i++ {
		for c := range out.Columns {
			out.Columns[c][i] = b.AddVariable(data.Columns[c][i])
		}
	}

	for i := 0; i < numRows; i++ {
		var negStep fr.Element
		negStep.Neg(&data.Steps[i])

		var g constraint.Gate
		g.WL = out.Columns[0][i]
		g.WR = out.Columns[1][i]
		g.WO = out.Columns[2][i]
		g.W4 = b.zeroIdx
		g.Coeffs[constraint.QLookupType].SetOne()
		g.Coeffs[constraint.Q3].SetUint64(uint64(data.Tables[i].TableIndex))
		g.Coeffs[constraint.Q2] = negStep
		g.Coeffs[constraint.QM] = negStep
		g.Coeffs[constraint.QC] = negStep
		b.cs.AddGate(g)
	}

	return out
}

func (b *UltraBuilder) failedLookup() plookup.ReadData[uint32] {
	var out plookup.ReadData[uint32]
	for c := range out.Columns {
		out.Columns[c] = []uint32{b.zeroIdx}
	}
	return out
}

// Xor returns a witness holding a XOR b, where both operands are 32-bit
// values.
func (b *UltraBuilder) Xor(a, c uint32) uint32 {
	return b.ReadFromTable(plookup.Uint32Xor, a, c).Columns[2][0]
}

// And returns a witness holding a AND b, where both operands are 32-bit
// values.
func (b *UltraBuilder) And(a, c uint32) uint32 {
	return b.ReadFromTable(plookup.Uint32And, a, c).Columns[2][0]
}
