package backend

import (
	"github.com/ammarsjw/aztec3-circuits/ecc/bn254/fr"
	"golang.org/x/crypto/sha3"
)

// Commitment is the opaque output of the polynomial commitment engine.
type Commitment [32]byte

// Committer binds a coefficient vector to a commitment. The real
// implementation is the external multi-scalar-multiplication backend; any
// deterministic binding function satisfies the circuit-construction layer.
type Committer interface {
	Commit(values []fr.Element) (Commitment, error)
}

// HashCommitter commits by hashing the canonical encodings of the vector.
// It is binding but not hiding and carries no opening protocol; it stands
// in for the curve-based committer in tests and key fingerprinting.
type HashCommitter struct{}

// Commit implements Committer.
func (HashCommitter) Commit(values []fr.Element) (Commitment, error) {
	h := sha3.New256()
	for i := range values {
		b := values[i].Bytes()
		h.Write(b[:])
	}
	var c Commitment
	copy(c[:], h.Sum(nil))
	return c, nil
}
