package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFixedRunIDGenerator_Sequence(t *testing.T) {
	gen := NewFixedRunIDGenerator("run")

	assert.Equal(t, "run-0001", gen.Generate())
	assert.Equal(t, "run-0002", gen.Generate())
}

func TestFixedRunIDGenerator_DefaultPrefix(t *testing.T) {
	gen := NewFixedRunIDGenerator("")
	assert.Equal(t, "test-run-0001", gen.Generate())
}

func TestFixedRunIDGenerator_IndependentInstances(t *testing.T) {
	a := NewFixedRunIDGenerator("x")
	b := NewFixedRunIDGenerator("x")
	a.Generate()

	assert.Equal(t, "x-0001", b.Generate())
	assert.Equal(t, "x-0002", a.Generate())
}
