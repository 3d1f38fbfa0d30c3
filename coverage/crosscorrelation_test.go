package coverage

import (
	"io"
	"testing"

	"github.com/grailbio/bio-bigwig/genome"
	"github.com/grailbio/bio-bigwig/read"
	"github.com/grailbio/bio-bigwig/track"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCrossCorrelationPeaksAtTrueShift(t *testing.T) {
	g, err := genome.New([]string{"chr1"}, []int{5})
	require.NoError(t, err)

	forward := track.Alloc("f", g, 0, 1)
	copy(forward.Data["chr1"], []float64{0, 0, 1, 0, 0})
	reverse := track.Alloc("r", g, 0, 1)
	copy(reverse.Data["chr1"], []float64{0, 0, 0, 0, 1})

	lags, rho, err := CrossCorrelation(forward, reverse, 0, 4)
	require.NoError(t, err)
	require.Len(t, lags, 4)

	best := 0
	for i, r := range rho {
		if r > rho[best] {
			best = i
		}
	}
	assert.Equal(t, 2, lags[best])
}

func TestCrossCorrelationRejectsBinSizeMismatch(t *testing.T) {
	g, err := genome.New([]string{"chr1"}, []int{10})
	require.NoError(t, err)
	a := track.Alloc("a", g, 0, 1)
	b := track.Alloc("b", g, 0, 2)
	_, _, err = CrossCorrelation(a, b, 0, 1)
	assert.ErrorIs(t, err, track.ErrBinSizeMismatch)
}

func TestCrosscorrelateReadsSplitsByStrand(t *testing.T) {
	g, err := genome.New([]string{"chr1"}, []int{20})
	require.NoError(t, err)

	reads := []read.Read{
		{Seqname: "chr1", Range: genome.Range{From: 0, To: 5}, Strand: read.StrandPlus},
		{Seqname: "chr1", Range: genome.Range{From: 10, To: 15}, Strand: read.StrandMinus},
	}
	i := 0
	it := read.Func(func() (read.Read, error) {
		if i >= len(reads) {
			return read.Read{}, io.EOF
		}
		r := reads[i]
		i++
		return r, nil
	})

	forward, reverse, readLength, n, err := CrosscorrelateReads(it, g, 1)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
	assert.Equal(t, 5, readLength)
	assert.Equal(t, 1.0, forward.Data["chr1"][0])
	assert.Equal(t, 1.0, reverse.Data["chr1"][15])
}

func TestEstimateFragmentLengthHonorsRangeOverride(t *testing.T) {
	g, err := genome.New([]string{"chr1"}, []int{10})
	require.NoError(t, err)

	reads := []read.Read{
		{Seqname: "chr1", Range: genome.Range{From: 1, To: 2}, Strand: read.StrandPlus},
		{Seqname: "chr1", Range: genome.Range{From: 3, To: 4}, Strand: read.StrandMinus},
	}
	i := 0
	it := read.Func(func() (read.Read, error) {
		if i >= len(reads) {
			return read.Read{}, io.EOF
		}
		r := reads[i]
		i++
		return r, nil
	})

	fraglen, lags, rho, n, err := EstimateFragmentLength(it, g, 1, 8, [2]int{1, 5})
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
	assert.NotEmpty(t, lags)
	assert.Equal(t, []int{1, 2, 3, 4}, lags)
	assert.Len(t, rho, len(lags))
	assert.GreaterOrEqual(t, fraglen, 1)
}
