package backend

import (
	"fmt"
	"math/bits"

	"github.com/ammarsjw/aztec3-circuits/builder"
	"github.com/ammarsjw/aztec3-circuits/constraint"
	"github.com/ammarsjw/aztec3-circuits/ecc/bn254/fr"
	"github.com/ammarsjw/aztec3-circuits/logger"
	"golang.org/x/sync/errgroup"
)

// ProvingKey carries everything the prover needs beyond the witness: the
// finalized constraint system, the evaluation domain size and commitments
// to the circuit-defining columns.
type ProvingKey struct {
	System      *constraint.System
	Permutation *builder.PermutationMapping

	DomainSize uint64
	NumPublic  int
	Selectors  [constraint.NumSelectors]Commitment
	Sigma      [4]Commitment
	ID         [4]Commitment
}

// VerificationKey is the verifier's view of a proving key: sizes plus the
// column commitments, in the same manifest order the transcript absorbs
// them.
type VerificationKey struct {
	DomainSize uint64
	NumPublic  int
	Selectors  [constraint.NumSelectors]Commitment
	Sigma      [4]Commitment
	ID         [4]Commitment
}

// ComputeProvingKey finalizes the circuit, verifies it is satisfied and
// commits to the selector and permutation columns. Deriving a key from a
// failed or unsatisfied circuit is itself a failure.
func ComputeProvingKey(b *builder.UltraBuilder, c Committer) (*ProvingKey, error) {
	if err := b.Finalize(); err != nil {
		return nil, fmt.Errorf("compute proving key: %w", err)
	}
	if err := b.CheckCircuit(); err != nil {
		return nil, fmt.Errorf("compute proving key: %w", err)
	}

	cs := b.System()
	numRows := len(b.PublicInputs()) + cs.NumGates
	domain := nextPowerOfTwo(uint64(numRows))

	pk := &ProvingKey{
		System:      cs,
		Permutation: b.ComputePermutationMapping(),
		DomainSize:  domain,
		NumPublic:   len(b.PublicInputs()),
	}

	nPub := len(b.PublicInputs())
	var g errgroup.Group
	for j := constraint.Selector(0); j < constraint.NumSelectors; j++ {
		j := j
		g.Go(func() error {
			// selector columns are zero on the public input rows
			col := make([]fr.Element, domain)
			copy(col[nPub:], cs.Selectors[j])
			var err error
			pk.Selectors[j], err = c.Commit(col)
			return err
		})
	}
	for w := 0; w < 4; w++ {
		w := w
		g.Go(func() error {
			var err error
			pk.Sigma[w], err = c.Commit(permutationColumn(pk.Permutation.Sigma[w], domain))
			if err != nil {
				return err
			}
			pk.ID[w], err = c.Commit(permutationColumn(pk.Permutation.ID[w], domain))
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("compute proving key: %w", err)
	}

	log := logger.Logger()
	log.Debug().
		Uint64("domain", domain).
		Int("rows", numRows).
		Msg("proving key computed")
	return pk, nil
}

// VerificationKey derives the verifier's key from the proving key.
func (pk *ProvingKey) VerificationKey() *VerificationKey {
	return &VerificationKey{
		DomainSize: pk.DomainSize,
		NumPublic:  pk.NumPublic,
		Selectors:  pk.Selectors,
		Sigma:      pk.Sigma,
		ID:         pk.ID,
	}
}

// SeedTranscript absorbs the key material in manifest order. Prover and
// verifier both call this before exchanging any proof data.
func (vk *VerificationKey) SeedTranscript(t *Transcript) {
	t.AppendUint64("domain_size", vk.DomainSize)
	t.AppendUint64("num_public_inputs", uint64(vk.NumPublic))
	for j := constraint.Selector(0); j < constraint.NumSelectors; j++ {
		t.Append(j.String(), vk.Selectors[j][:])
	}
	for w := 0; w < 4; w++ {
		t.Append(fmt.Sprintf("sigma_%d", w+1), vk.Sigma[w][:])
	}
	for w := 0; w < 4; w++ {
		t.Append(fmt.Sprintf("id_%d", w+1), vk.ID[w][:])
	}
}

// permutationColumn lifts the numeric sigma/id encoding into field
// elements, padding the domain with self-pointing cells.
func permutationColumn(col []int64, domain uint64) []fr.Element {
	out := make([]fr.Element, domain)
	for i, v := range col {
		if v >= 0 {
			out[i].SetUint64(uint64(v))
		} else {
			out[i].SetInt64(v)
		}
	}
	for i := len(col); i < int(domain); i++ {
		out[i].SetUint64(uint64(i))
	}
	return out
}

func nextPowerOfTwo(n uint64) uint64 {
	if n <= 1 {
		return 1
	}
	return 1 << bits.Len64(n-1)
}
