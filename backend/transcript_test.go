package backend

import (
	"testing"

	"github.com/ammarsjw/aztec3-circuits/ecc/bn254/fr"
	"github.com/stretchr/testify/require"
)

func TestTranscriptIsOrderSensitive(t *testing.T) {
	assert := require.New(t)

	t1 := NewTranscript("proto")
	t1.Append("a", []byte{1})
	t1.Append("b", []byte{2})

	t2 := NewTranscript("proto")
	t2.Append("b", []byte{2})
	t2.Append("a", []byte{1})

	c1 := t1.Challenge("x")
	c2 := t2.Challenge("x")
	assert.False(c1.Equal(&c2))
}

func TestTranscriptChallengesChain(t *testing.T) {
	assert := require.New(t)

	tr := NewTranscript("proto")
	tr.AppendElement("w", elem(42))
	c1 := tr.Challenge("alpha")
	c2 := tr.Challenge("beta")

	// a later challenge depends on the earlier one
	other := NewTranscript("proto")
	other.AppendElement("w", elem(42))
	otherBeta := other.Challenge("beta")
	assert.False(c2.Equal(&otherBeta))
	assert.False(c1.Equal(&c2))
}

func TestTranscriptLengthFraming(t *testing.T) {
	assert := require.New(t)

	// "ab" + "c" must differ from "a" + "bc"
	t1 := NewTranscript("proto")
	t1.Append("l", []byte("ab"))
	t1.Append("l", []byte("c"))

	t2 := NewTranscript("proto")
	t2.Append("l", []byte("a"))
	t2.Append("l", []byte("bc"))

	c1 := t1.Challenge("x")
	c2 := t2.Challenge("x")
	assert.False(c1.Equal(&c2))
}

func TestHashCommitterDeterministic(t *testing.T) {
	assert := require.New(t)

	values := []fr.Element{elem(1), elem(2), elem(3)}

	c1, err := HashCommitter{}.Commit(values)
	assert.NoError(err)
	c2, err := HashCommitter{}.Commit(values)
	assert.NoError(err)
	assert.Equal(c1, c2)

	c3, err := HashCommitter{}.Commit([]fr.Element{elem(1), elem(2), elem(4)})
	assert.NoError(err)
	assert.NotEqual(c1, c3)
}
