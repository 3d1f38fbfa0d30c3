package genome

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenomeEqualOrderInsensitive(t *testing.T) {
	g1, err := New([]string{"chr1", "chr2"}, []int{100, 200})
	require.NoError(t, err)
	g2, err := New([]string{"chr2", "chr1"}, []int{200, 100})
	require.NoError(t, err)
	assert.True(t, g1.Equal(g2))

	g3, err := New([]string{"chr2", "chr1"}, []int{201, 100})
	require.NoError(t, err)
	assert.False(t, g1.Equal(g3))
}

func TestGenomeIndex(t *testing.T) {
	g, err := New([]string{"chr1", "chr2"}, []int{100, 200})
	require.NoError(t, err)
	idx, ok := g.Index("chr2")
	require.True(t, ok)
	assert.Equal(t, 1, idx)
	assert.Equal(t, 200, g.Length(idx))

	_, ok = g.Index("chr3")
	assert.False(t, ok)
}

func TestRangeIntersect(t *testing.T) {
	r1 := Range{From: 10, To: 20}
	r2 := Range{From: 15, To: 25}
	assert.Equal(t, Range{From: 15, To: 20}, r1.Intersect(r2))

	r3 := Range{From: 30, To: 40}
	got := r1.Intersect(r3)
	assert.Equal(t, 0, got.Len())
	assert.Equal(t, 30, got.From)
}

func TestMerge(t *testing.T) {
	in := []Range{
		{From: 5, To: 15},
		{From: 7, To: 17},
		{From: 20, To: 25},
		{From: 25, To: 30},
	}
	got := Merge(in)
	want := []Range{
		{From: 5, To: 17},
		{From: 20, To: 30},
	}
	assert.Equal(t, want, got)

	total := 0
	for _, r := range got {
		total += r.Len()
	}
	for i := 1; i < len(got); i++ {
		assert.False(t, got[i-1].Overlaps(got[i]))
	}
}
