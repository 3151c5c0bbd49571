package client

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRootsRegistryAddListRemove(t *testing.T) {
	r := NewRootsRegistry()
	assert.True(t, r.Empty())

	r.Add("file:///tmp", "tmp")
	r.Add("file:///home", "home")
	assert.False(t, r.Empty())
	assert.Len(t, r.List(), 2)

	r.Remove("file:///tmp")
	roots := r.List()
	require := assert.New(t)
	require.Len(roots, 1)
	require.Equal("file:///home", roots[0].URI)
}
