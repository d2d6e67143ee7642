package sampler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWindow(t *testing.T) {
	w := NewWindow(3)
	assert.Zero(t, w.Mean())
	assert.False(t, w.Full())

	w.Push(3)
	w.Push(6)
	assert.Equal(t, 2, w.Len())
	assert.Equal(t, 4.5, w.Mean())

	w.Push(9)
	assert.True(t, w.Full())
	assert.Equal(t, 6.0, w.Mean())

	w.Push(12) // evicts 3
	assert.Equal(t, 3, w.Len())
	assert.Equal(t, 9.0, w.Mean())
	assert.Equal(t, 3, w.Size())
}

func TestWindowInvalidSize(t *testing.T) {
	w := NewWindow(0)
	w.Push(7)
	w.Push(8)

	assert.Equal(t, 1, w.Size())
	assert.Equal(t, 8.0, w.Mean())
}
