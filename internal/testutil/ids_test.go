package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSequentialIDGenerator(t *testing.T) {
	gen := NewSequentialIDGenerator("run")

	assert.Equal(t, "run-0001", gen.Generate())
	assert.Equal(t, "run-0002", gen.Generate())

	gen.Reset()
	assert.Equal(t, "run-0001", gen.Generate())
}

func TestSequentialIDGenerator_DefaultPrefix(t *testing.T) {
	assert.Equal(t, "call-0001", NewSequentialIDGenerator("").Generate())
}
