package builder

import (
	"errors"
	"fmt"

	"github.com/ammarsjw/aztec3-circuits/ecc/bn254/fr"
	"github.com/ammarsjw/aztec3-circuits/logger"
)

// Finalize converts the accumulated memory transcripts and range lists into
// their consistency rows. Must be called exactly once, after the circuit is
// fully described; further gate creation after Finalize is a caller error.
func (b *UltraBuilder) Finalize() error {
	if b.finalized {
		return nil
	}

	b.processROMArrays()
	b.processRAMArrays()
	b.processRangeLists()
	b.finalized = true

	if b.failed {
		return fmt.Errorf("circuit construction failed: %s", b.failReason)
	}

	log := logger.Logger()
	log.Debug().
		Int("gates", b.cs.NumGates).
		Int("publicInputs", len(b.publicInputs)).
		Int("variables", b.vars.Len()).
		Msg("circuit finalized")
	return nil
}

// Finalized reports whether the consistency rows have been emitted.
func (b *UltraBuilder) Finalized() bool { return b.finalized }

// BuildWitness lays the witness values out as the four trace columns:
// public input rows first (the public value on the first two wires), then
// one row per gate.
func (b *UltraBuilder) BuildWitness() ([4][]fr.Element, error) {
	var cols [4][]fr.Element
	if !b.finalized {
		return cols, errors.New("finalize the circuit before building the witness")
	}

	nPub := len(b.publicInputs)
	numRows := nPub + b.cs.NumGates
	for j := range cols {
		cols[j] = make([]fr.Element, numRows)
	}

	for i, pi := range b.publicInputs {
		v := b.vars.Value(pi)
		cols[0][i] = v
		cols[1][i] = v
	}
	for row := 0; row < b.cs.NumGates; row++ {
		for j := range cols {
			cols[j][nPub+row] = b.wireValue(j, row)
		}
	}
	return cols, nil
}
