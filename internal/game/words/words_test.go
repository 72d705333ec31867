package words

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Parallel()

	list, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 36, list.Len())

	for _, p := range list.pairs {
		assert.NotEmpty(t, p.Word)
		assert.NotEmpty(t, p.Variant, "pair for %q must have a variant fallback", p.Word)
	}
}

func TestPick_SeededReproducible(t *testing.T) {
	t.Parallel()

	list := MustLoad()

	p1 := list.Pick(rand.New(rand.NewPCG(5, 5)))
	p2 := list.Pick(rand.New(rand.NewPCG(5, 5)))
	assert.Equal(t, p1, p2)
}

func TestPick_CoversList(t *testing.T) {
	t.Parallel()

	list := MustLoad()
	rng := rand.New(rand.NewPCG(1, 2))

	seen := make(map[string]bool)
	for i := 0; i < 2000; i++ {
		seen[list.Pick(rng).Word] = true
	}
	assert.Len(t, seen, list.Len(), "uniform pick should reach every word")
}
