package kb

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryPerSession(t *testing.T) {
	r, err := NewRegistry(4, time.Second, nil)
	require.NoError(t, err)

	a := r.Get("alice@example.com")
	b := r.Get("bob@example.com")

	assert.Same(t, a, r.Get("alice@example.com"))
	assert.NotSame(t, a, b)
	assert.Equal(t, 2, r.Len())
}

func TestRegistryEvictsLeastRecentlyUsed(t *testing.T) {
	r, err := NewRegistry(1, time.Second, nil)
	require.NoError(t, err)

	a := r.Get("a")
	r.Get("b")

	assert.Equal(t, 1, r.Len())
	assert.NotSame(t, a, r.Get("a"))
}
