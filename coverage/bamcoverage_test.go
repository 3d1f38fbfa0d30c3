package coverage

import (
	"io"
	"testing"

	"github.com/grailbio/bio-bigwig/genome"
	"github.com/grailbio/bio-bigwig/read"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStream struct {
	reads []read.Read
}

func (f *fakeStream) iterator() read.Iterator {
	i := 0
	reads := f.reads
	return read.Func(func() (read.Read, error) {
		if i >= len(reads) {
			return read.Read{}, io.EOF
		}
		r := reads[i]
		i++
		return r, nil
	})
}

func (f *fakeStream) ReadSingleEnd() read.Iterator            { return f.iterator() }
func (f *fakeStream) ReadSimple(_ bool, _ bool) read.Iterator { return f.iterator() }

func testGenomeCoverage(t *testing.T) genome.Genome {
	t.Helper()
	g, err := genome.New([]string{"chr1"}, []int{20})
	require.NoError(t, err)
	return g
}

func TestBamCoverageBuildsRawTrackWithFixedFraglen(t *testing.T) {
	g := testGenomeCoverage(t)
	treatment := &fakeStream{reads: []read.Read{
		{Seqname: "chr1", Range: genome.Range{From: 0, To: 2}, Strand: read.StrandPlus},
		{Seqname: "chr1", Range: genome.Range{From: 4, To: 6}, Strand: read.StrandPlus},
	}}

	cfg := DefaultOptions()
	cfg.BinSize = 1
	cfg.Fraglen = 2
	cfg.PseudocountTreatment = 1
	cfg.LogScale = false

	tr, cerr := assembleCoverage([]StreamOpener{treatment}, nil, g, cfg)
	require.Nil(t, cerr)
	assert.Equal(t, 1.0, tr.Data["chr1"][0])
	assert.Equal(t, 1.0, tr.Data["chr1"][4])
	assert.Equal(t, 0.0, tr.Data["chr1"][10])
}

func TestBamCoverageNormalizesAgainstControl(t *testing.T) {
	g := testGenomeCoverage(t)
	treatment := &fakeStream{reads: []read.Read{
		{Seqname: "chr1", Range: genome.Range{From: 0, To: 1}, Strand: read.StrandPlus},
		{Seqname: "chr1", Range: genome.Range{From: 0, To: 1}, Strand: read.StrandPlus},
		{Seqname: "chr1", Range: genome.Range{From: 0, To: 1}, Strand: read.StrandPlus},
	}}
	control := &fakeStream{reads: []read.Read{
		{Seqname: "chr1", Range: genome.Range{From: 0, To: 1}, Strand: read.StrandPlus},
	}}

	cfg := DefaultOptions()
	cfg.BinSize = 1
	cfg.Fraglen = 1
	cfg.PseudocountTreatment = 1
	cfg.PseudocountControl = 1

	tr, cerr := assembleCoverage([]StreamOpener{treatment}, []StreamOpener{control}, g, cfg)
	require.Nil(t, cerr)
	// (3+1)/(1+1) * 1/1 = 2.0
	assert.InDelta(t, 2.0, tr.Data["chr1"][0], 1e-9)
}

func TestBamCoverageRemovesFilteredChroms(t *testing.T) {
	g, err := genome.New([]string{"chr1", "chr2"}, []int{10, 10})
	require.NoError(t, err)
	treatment := &fakeStream{reads: []read.Read{
		{Seqname: "chr1", Range: genome.Range{From: 0, To: 1}, Strand: read.StrandPlus},
		{Seqname: "chr2", Range: genome.Range{From: 0, To: 1}, Strand: read.StrandPlus},
	}}

	cfg := DefaultOptions()
	cfg.BinSize = 1
	cfg.Fraglen = 1
	cfg.FilterChroms = []string{"chr2"}
	cfg.RemoveFilteredChroms = true

	tr, cerr := assembleCoverage([]StreamOpener{treatment}, nil, g, cfg)
	require.Nil(t, cerr)
	_, ok := tr.Data["chr2"]
	assert.False(t, ok)
	assert.Contains(t, tr.Data, "chr1")
}

func TestBamCoverageFilterMapQDropsLowQualityReads(t *testing.T) {
	g := testGenomeCoverage(t)
	treatment := &fakeStream{reads: []read.Read{
		{Seqname: "chr1", Range: genome.Range{From: 0, To: 1}, Strand: read.StrandPlus, MapQ: 10},
		{Seqname: "chr1", Range: genome.Range{From: 0, To: 1}, Strand: read.StrandPlus, MapQ: 40},
	}}

	cfg := DefaultOptions()
	cfg.BinSize = 1
	cfg.Fraglen = 1
	cfg.MapQThreshold = 30
	cfg.PseudocountTreatment = 1

	tr, cerr := assembleCoverage([]StreamOpener{treatment}, nil, g, cfg)
	require.Nil(t, cerr)
	assert.Equal(t, 1.0, tr.Data["chr1"][0])
}
