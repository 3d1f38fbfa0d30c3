package track

import (
	"io"
	"math"
	"testing"

	"github.com/grailbio/bio-bigwig/genome"
	"github.com/grailbio/bio-bigwig/read"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testGenome(t *testing.T) genome.Genome {
	t.Helper()
	g, err := genome.New([]string{"chr1", "chr2"}, []int{100, 50})
	require.NoError(t, err)
	return g
}

func TestAllocInitializesEveryBin(t *testing.T) {
	g := testGenome(t)
	tr := Alloc("x", g, 0, 10)
	assert.Len(t, tr.Data["chr1"], 10)
	assert.Len(t, tr.Data["chr2"], 5)
}

func TestAddReadIncrementsOverlappingBins(t *testing.T) {
	g := testGenome(t)
	tr := Alloc("x", g, 0, 10)

	r := read.Read{Seqname: "chr1", Range: genome.Range{From: 5, To: 25}, Strand: read.StrandPlus}
	require.NoError(t, tr.AddRead(r, 0))

	assert.Equal(t, []float64{1, 1, 1, 0, 0, 0, 0, 0, 0, 0}, tr.Data["chr1"])
}

func TestAddReadExtendsOnPlusStrand(t *testing.T) {
	g := testGenome(t)
	tr := Alloc("x", g, 0, 10)

	r := read.Read{Seqname: "chr1", Range: genome.Range{From: 0, To: 1}, Strand: read.StrandPlus}
	require.NoError(t, tr.AddRead(r, 25))

	assert.Equal(t, []float64{1, 1, 1, 0, 0, 0, 0, 0, 0, 0}, tr.Data["chr1"])
}

func TestAddReadOutOfRange(t *testing.T) {
	g := testGenome(t)
	tr := Alloc("x", g, 0, 10)

	r := read.Read{Seqname: "chr1", Range: genome.Range{From: 200, To: 210}, Strand: read.StrandPlus}
	err := tr.AddRead(r, 0)
	assert.ErrorIs(t, err, ErrReadOutOfRange)
}

func TestAddReadMeanOverlap(t *testing.T) {
	g := testGenome(t)
	tr := Alloc("x", g, 0, 10)

	r := read.Read{Seqname: "chr1", Range: genome.Range{From: 5, To: 15}, Strand: read.StrandPlus}
	require.NoError(t, tr.AddReadMeanOverlap(r, 0))

	assert.InDelta(t, 0.5, tr.Data["chr1"][0], 1e-9)
	assert.InDelta(t, 0.5, tr.Data["chr1"][1], 1e-9)
}

func TestAddReadOverlap(t *testing.T) {
	g := testGenome(t)
	tr := Alloc("x", g, 0, 10)

	r := read.Read{Seqname: "chr1", Range: genome.Range{From: 5, To: 15}, Strand: read.StrandPlus}
	require.NoError(t, tr.AddReadOverlap(r, 0))

	assert.InDelta(t, 5, tr.Data["chr1"][0], 1e-9)
	assert.InDelta(t, 5, tr.Data["chr1"][1], 1e-9)
}

func TestAddReadsCountsSuccessesAndSkipsOutOfRange(t *testing.T) {
	g := testGenome(t)
	tr := Alloc("x", g, 0, 10)

	reads := []read.Read{
		{Seqname: "chr1", Range: genome.Range{From: 0, To: 5}, Strand: read.StrandPlus},
		{Seqname: "chr1", Range: genome.Range{From: 500, To: 505}, Strand: read.StrandPlus},
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

	n, err := tr.AddReads(it, 0, "default")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestMapAppliesFunctionToEveryBin(t *testing.T) {
	g := testGenome(t)
	tr := Alloc("x", g, 1, 10)
	tr.Map(func(_ string, _ int, v float64) float64 { return v * 2 })
	for _, v := range tr.Data["chr1"] {
		assert.Equal(t, 2.0, v)
	}
}

func TestWindowMapCentersAndPadsWithNaN(t *testing.T) {
	g := testGenome(t)
	src := Alloc("src", g, 0, 10)
	for i := range src.Data["chr1"] {
		src.Data["chr1"][i] = float64(i)
	}
	dst := Alloc("dst", g, 0, 10)

	require.NoError(t, dst.WindowMap(src, 3, func(_ string, _ int, w []float64) float64 {
		sum := 0.0
		for _, v := range w {
			if !math.IsNaN(v) {
				sum += v
			}
		}
		return sum
	}))
	assert.Equal(t, 1.0, dst.Data["chr1"][0]) // NaN + 0 + 1
}

func TestSmoothenPicksSmallestSatisfyingWindow(t *testing.T) {
	g, err := genome.New([]string{"chr1"}, []int{100})
	require.NoError(t, err)
	tr := Alloc("x", g, 0, 10)
	for i := range tr.Data["chr1"] {
		tr.Data["chr1"][i] = 1
	}
	tr.Smoothen(2, []int{1, 3})
	// window size 1 sums to 1 < 2, falls through to window size 3 (sum 3).
	assert.InDelta(t, 1.0, tr.Data["chr1"][5], 1e-9)
}

func TestNormalizeRequiresPositivePseudocounts(t *testing.T) {
	g := testGenome(t)
	treatment := Alloc("t", g, 1, 10)
	control := Alloc("c", g, 1, 10)
	err := treatment.Normalize(control, 0, 1, false)
	assert.Error(t, err)
}

func TestNormalizeComputesRatioWithPseudocounts(t *testing.T) {
	g, err := genome.New([]string{"chr1"}, []int{10})
	require.NoError(t, err)
	treatment := Alloc("t", g, 3, 10)
	control := Alloc("c", g, 1, 10)
	require.NoError(t, treatment.Normalize(control, 1, 1, false))
	assert.InDelta(t, 2.0, treatment.Data["chr1"][0], 1e-9)
}

func TestQuantileNormalizeMatchesReferenceDistribution(t *testing.T) {
	g, err := genome.New([]string{"chr1"}, []int{40})
	require.NoError(t, err)
	src := Alloc("src", g, 0, 10)
	copy(src.Data["chr1"], []float64{1, 2, 3, 4})
	ref := Alloc("ref", g, 0, 10)
	copy(ref.Data["chr1"], []float64{10, 20, 30, 40})

	src.QuantileNormalize(ref)
	assert.Equal(t, []float64{10, 20, 30, 40}, src.Data["chr1"])
}
