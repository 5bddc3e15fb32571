package shmem

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeap_SharedBacking(t *testing.T) {
	h := NewHeap()

	a, err := h.Open("$rFactor2SMMP_Scoring$", 16)
	require.NoError(t, err)
	b, err := h.Open("$rFactor2SMMP_Scoring$", 16)
	require.NoError(t, err)

	a.Bytes()[3] = 9
	assert.Equal(t, byte(9), b.Bytes()[3])
	assert.ElementsMatch(t, []string{"$rFactor2SMMP_Scoring$"}, h.Names())
	assert.NoError(t, a.Close())
}

func TestHeap_GrowsKeepingContent(t *testing.T) {
	h := NewHeap()
	a, err := h.Open("x", 4)
	require.NoError(t, err)
	a.Bytes()[1] = 5

	b, err := h.Open("x", 8)
	require.NoError(t, err)
	assert.Len(t, b.Bytes(), 8)
	assert.Equal(t, byte(5), b.Bytes()[1])
}

func TestHeap_InvalidSize(t *testing.T) {
	_, err := NewHeap().Open("x", 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMapping))
}

func TestOpenerFunc(t *testing.T) {
	called := ""
	var o Opener = OpenerFunc(func(name string, size int) (Mapping, error) {
		called = name
		return nil, mappingError(name, errors.New("denied"))
	})
	_, err := o.Open("y", 1)
	assert.ErrorIs(t, err, ErrMapping)
	assert.Equal(t, "y", called)
}
