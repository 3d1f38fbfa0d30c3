package coverage

import (
	"testing"

	"github.com/grailbio/bio-bigwig/genome"
	"github.com/grailbio/bio-bigwig/read"
	"github.com/stretchr/testify/assert"
)

func TestFilterPairedEndKeepsOnlyPaired(t *testing.T) {
	f := FilterPairedEnd(true)
	_, ok := f(read.Read{PairedEnd: false})
	assert.False(t, ok)
	_, ok = f(read.Read{PairedEnd: true})
	assert.True(t, ok)
}

func TestFilterPairedEndOffPassesEverything(t *testing.T) {
	f := FilterPairedEnd(false)
	_, ok := f(read.Read{PairedEnd: false})
	assert.True(t, ok)
}

func TestFilterSingleEndKeepsOnlyUnpaired(t *testing.T) {
	f := FilterSingleEnd(true)
	_, ok := f(read.Read{PairedEnd: true})
	assert.False(t, ok)
	_, ok = f(read.Read{PairedEnd: false})
	assert.True(t, ok)
}

func TestPairedAsSingleEndStripsFlag(t *testing.T) {
	f := PairedAsSingleEnd(true)
	r, ok := f(read.Read{PairedEnd: true})
	assert.True(t, ok)
	assert.False(t, r.PairedEnd)
}

func TestPairedAsSingleEndNoopWhenOff(t *testing.T) {
	f := PairedAsSingleEnd(false)
	r, ok := f(read.Read{PairedEnd: true})
	assert.True(t, ok)
	assert.True(t, r.PairedEnd)
}

func TestFilterReadLengthOpenBounds(t *testing.T) {
	f := FilterReadLength(0, 0)
	_, ok := f(read.Read{Range: genome.Range{From: 0, To: 1000}})
	assert.True(t, ok)
}

func TestFilterReadLengthRange(t *testing.T) {
	f := FilterReadLength(20, 50)
	_, ok := f(read.Read{Range: genome.Range{From: 0, To: 10}})
	assert.False(t, ok)
	_, ok = f(read.Read{Range: genome.Range{From: 0, To: 30}})
	assert.True(t, ok)
	_, ok = f(read.Read{Range: genome.Range{From: 0, To: 60}})
	assert.False(t, ok)
}

func TestFilterReadLengthOpenUpperBound(t *testing.T) {
	f := FilterReadLength(20, 0)
	_, ok := f(read.Read{Range: genome.Range{From: 0, To: 1000}})
	assert.True(t, ok)
}

func TestFilterDuplicatesDropsDuplicates(t *testing.T) {
	f := FilterDuplicates(true)
	_, ok := f(read.Read{Duplicate: true})
	assert.False(t, ok)
	_, ok = f(read.Read{Duplicate: false})
	assert.True(t, ok)
}

func TestFilterMapQThreshold(t *testing.T) {
	f := FilterMapQ(30)
	_, ok := f(read.Read{MapQ: 20})
	assert.False(t, ok)
	_, ok = f(read.Read{MapQ: 30})
	assert.True(t, ok)
}

func TestFilterMapQDisabledWhenNonPositive(t *testing.T) {
	f := FilterMapQ(0)
	_, ok := f(read.Read{MapQ: -1})
	assert.True(t, ok)
}

func TestFilterStrandMatchesOnlyGivenStrand(t *testing.T) {
	f := FilterStrand(read.StrandPlus)
	_, ok := f(read.Read{Strand: read.StrandMinus})
	assert.False(t, ok)
	_, ok = f(read.Read{Strand: read.StrandPlus})
	assert.True(t, ok)
}

func TestFilterStrandUnknownDisablesFilter(t *testing.T) {
	f := FilterStrand(read.StrandUnknown)
	_, ok := f(read.Read{Strand: read.StrandMinus})
	assert.True(t, ok)
}

func TestShiftReadsAppliesPerStrandOffset(t *testing.T) {
	f := ShiftReads(5, -5)
	r, ok := f(read.Read{Range: genome.Range{From: 100, To: 150}, Strand: read.StrandPlus})
	assert.True(t, ok)
	assert.Equal(t, genome.Range{From: 105, To: 155}, r.Range)

	r, ok = f(read.Read{Range: genome.Range{From: 100, To: 150}, Strand: read.StrandMinus})
	assert.True(t, ok)
	assert.Equal(t, genome.Range{From: 95, To: 145}, r.Range)
}

func TestShiftReadsNoopWhenBothZero(t *testing.T) {
	f := ShiftReads(0, 0)
	r, ok := f(read.Read{Range: genome.Range{From: 100, To: 150}, Strand: read.StrandPlus})
	assert.True(t, ok)
	assert.Equal(t, genome.Range{From: 100, To: 150}, r.Range)
}
