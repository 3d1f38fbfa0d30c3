package bampair

import (
	"testing"

	"github.com/grailbio/bio-bigwig/encoding/bam"
	"github.com/grailbio/bio-bigwig/genome"
	"github.com/grailbio/bio-bigwig/read"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testGenome(t *testing.T) genome.Genome {
	g, err := genome.New([]string{"chr1"}, []int{1000})
	require.NoError(t, err)
	return g
}

func TestSimplifyStrandSpecific(t *testing.T) {
	g := testGenome(t)
	a := &bam.Record{
		Name: "p", Pos: 100, MapQ: 30,
		Flag:  bam.FlagPaired | bam.FlagProperPair | bam.FlagRead1,
		Cigar: bam.Cigar{bam.CigarOp(10<<4 | bam.CigarMatch)},
	}
	b := &bam.Record{
		Name: "p", Pos: 150, MapQ: 20,
		Flag:  bam.FlagPaired | bam.FlagProperPair | bam.FlagRead2 | bam.FlagReverse,
		Cigar: bam.Cigar{bam.CigarOp(10<<4 | bam.CigarMatch)},
	}
	r, ok := simplify(Pair{Earlier: a, Later: b}, g, true)
	require.True(t, ok)
	assert.Equal(t, "chr1", r.Seqname)
	assert.Equal(t, 100, r.Range.From)
	assert.Equal(t, 160, r.Range.To)
	assert.Equal(t, read.StrandPlus, r.Strand) // read1 (a) is forward
	assert.EqualValues(t, 20, r.MapQ)           // min(30,20)
	assert.True(t, r.PairedEnd)
}

func TestSimplifySkipsUnmappedAndNotProperPair(t *testing.T) {
	g := testGenome(t)
	a := &bam.Record{Flag: bam.FlagPaired | bam.FlagUnmapped}
	b := &bam.Record{Flag: bam.FlagPaired | bam.FlagProperPair}
	_, ok := simplify(Pair{Earlier: a, Later: b}, g, false)
	assert.False(t, ok)

	c := &bam.Record{Flag: bam.FlagPaired}
	d := &bam.Record{Flag: bam.FlagPaired}
	_, ok = simplify(Pair{Earlier: c, Later: d}, g, false)
	assert.False(t, ok)
}
