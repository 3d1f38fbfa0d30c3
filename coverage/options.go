package coverage

import "github.com/grailbio/bio-bigwig/read"

// Options controls how BamCoverage builds and normalizes a coverage track
// (spec §4.10), following the module's own ReaderOptions/DefaultReaderOptions
// idiom (encoding/bam.ReaderOptions) rather than a functional-options or
// enum-of-variants pattern.
type Options struct {
	BinSize int

	// Filter stages, applied in the canonical order documented on
	// buildFilters.
	FilterPairedEnd   bool
	FilterSingleEnd   bool
	PairedAsSingleEnd bool
	ReadLengthMin     int
	ReadLengthMax     int
	FilterDuplicates  bool
	MapQThreshold     int64
	Strand            read.Strand
	ShiftPlus         int
	ShiftMinus        int

	// Fragment length: Fraglen > 0 uses a fixed value; Fraglen == 0
	// estimates it by cross-correlation using FraglenRange and MaxDelay.
	Fraglen      int
	FraglenRange [2]int
	MaxDelay     int

	// BinningMethod selects AddRead ("default"/"simple"), AddReadOverlap
	// ("overlap"), or AddReadMeanOverlap ("mean overlap").
	BinningMethod string

	// Normalization: exactly one of RPKM/CPM is honored when true; both
	// false leaves raw counts. PseudocountTreatment and PseudocountControl
	// scale with the chosen normalization just like the counts do.
	RPKM                 bool
	CPM                  bool
	PseudocountTreatment float64
	PseudocountControl   float64
	LogScale             bool
	SmoothenControl      bool
	SmoothenMinCounts    float64
	SmoothenWindowSizes  []int

	// FilterChroms lists chromosomes to drop from the final track;
	// RemoveFilteredChroms, if true, excises them from the track's genome
	// instead of just zeroing their bins.
	FilterChroms         []string
	RemoveFilteredChroms bool
}

// DefaultOptions returns an Options with every filter/normalization stage
// disabled and fragment-length estimation using the default search range.
func DefaultOptions() Options {
	return Options{
		BinSize:              10,
		ReadLengthMin:        0,
		ReadLengthMax:        0,
		MapQThreshold:        0,
		Strand:               read.StrandUnknown,
		FraglenRange:         [2]int{-1, -1},
		MaxDelay:             500,
		BinningMethod:        "default",
		PseudocountTreatment: 1,
		PseudocountControl:   1,
		SmoothenMinCounts:    0,
	}
}

// FraglenEstimate is the result of a fragment-length cross-correlation
// search: the chosen lag plus the full (lag, rho) scan used to pick it,
// for diagnostics/plotting (spec §4.10, grounded on
// original_source/src/track_coverage.rs's FraglenEstimate).
type FraglenEstimate struct {
	Fraglen int
	X       []int
	Y       []float64
}
