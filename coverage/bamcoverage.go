package coverage

import (
	"io"
	"math"

	"github.com/grailbio/bio-bigwig/genome"
	"github.com/grailbio/bio-bigwig/read"
	"github.com/grailbio/bio-bigwig/track"
	"github.com/pkg/errors"
)

// StreamOpener is the subset of *bampair.Stream the coverage engine needs,
// kept as a duck-typed interface so this package never imports
// encoding/bampair directly (spec §6).
type StreamOpener interface {
	ReadSingleEnd() read.Iterator
	ReadSimple(joinPairs, strandSpecific bool) read.Iterator
}

// CoverageError reports a BamCoverage failure together with whatever
// fragment-length estimates were already computed before it occurred
// (grounded on original_source/src/track_coverage.rs's CoverageError).
type CoverageError struct {
	Err               error
	TreatmentFraglens []FraglenEstimate
	ControlFraglens   []FraglenEstimate
}

func (e *CoverageError) Error() string { return e.Err.Error() }
func (e *CoverageError) Unwrap() error { return e.Err }

// buildFilters assembles the canonical filter-stage chain (spec §4.10):
// filter-paired-end, filter-single-end, paired-as-single-end,
// filter-read-length, filter-duplicates, filter-mapq, filter-strand,
// shift-reads.
func buildFilters(cfg Options) []read.Filter {
	return []read.Filter{
		FilterPairedEnd(cfg.FilterPairedEnd),
		FilterSingleEnd(cfg.FilterSingleEnd),
		PairedAsSingleEnd(cfg.PairedAsSingleEnd),
		FilterReadLength(cfg.ReadLengthMin, cfg.ReadLengthMax),
		FilterDuplicates(cfg.FilterDuplicates),
		FilterMapQ(cfg.MapQThreshold),
		FilterStrand(cfg.Strand),
		ShiftReads(cfg.ShiftPlus, cfg.ShiftMinus),
	}
}

// chainIterators concatenates iterators in order, exhausting each in turn.
func chainIterators(its []read.Iterator) read.Iterator {
	i := 0
	return read.Func(func() (read.Read, error) {
		for i < len(its) {
			r, err := its[i].Next()
			if err == io.EOF {
				i++
				continue
			}
			return r, err
		}
		return read.Read{}, io.EOF
	})
}

func filteredIterators(streams []StreamOpener, filters []read.Filter) []read.Iterator {
	its := make([]read.Iterator, len(streams))
	for i, s := range streams {
		its[i] = read.Apply(s.ReadSimple(true, true), filters...)
	}
	return its
}

// resolveFraglen returns cfg.Fraglen if set, otherwise estimates it by
// cross-correlation over the (already filtered, unextended) read streams.
func resolveFraglen(streams []StreamOpener, filters []read.Filter, g genome.Genome, cfg Options) (int, *FraglenEstimate, error) {
	if cfg.Fraglen > 0 {
		return cfg.Fraglen, nil, nil
	}
	it := chainIterators(filteredIterators(streams, filters))
	fraglen, x, y, n, err := EstimateFragmentLength(it, g, cfg.BinSize, cfg.MaxDelay, cfg.FraglenRange)
	if err != nil {
		return 0, nil, err
	}
	if n == 0 {
		return 0, nil, errors.New("coverage: no reads available for fragment-length estimation")
	}
	return fraglen, &FraglenEstimate{Fraglen: fraglen, X: x, Y: y}, nil
}

// buildCoverageTrack bins every (filtered) read from streams into a track
// over g, extending each to fraglen with the configured binning method.
func buildCoverageTrack(streams []StreamOpener, filters []read.Filter, g genome.Genome, cfg Options, fraglen int) (track.Track, int, error) {
	t := track.Alloc("coverage", g, 0, cfg.BinSize)
	total := 0
	for _, s := range streams {
		it := read.Apply(s.ReadSimple(true, true), filters...)
		n, err := t.AddReads(it, fraglen, cfg.BinningMethod)
		if err != nil {
			return track.Track{}, 0, err
		}
		total += n
	}
	return t, total, nil
}

// scaleFactor returns the multiplicative factor RPKM/CPM scaling applies
// to every bin, and the pseudocount to use once that scaling is in effect
// (spec §4.10's "Coverage assembly"): RPKM is 1e6/(n_reads*bin_size), CPM
// is 1e6/n_reads; the pseudocount is scaled by the same factor so it
// remains comparable to the scaled counts.
func scaleFactor(cfg Options, nReads int, pseudocount float64) (factor, scaledPseudocount float64) {
	switch {
	case cfg.RPKM && nReads > 0:
		factor = 1e6 / (float64(nReads) * float64(cfg.BinSize))
	case cfg.CPM && nReads > 0:
		factor = 1e6 / float64(nReads)
	default:
		factor = 1
	}
	return factor, pseudocount * factor
}

// assembleCoverage builds a normalized coverage track from one or more
// treatment BAM streams, optionally normalized against one or more
// control BAM streams, per spec §4.10's "Coverage assembly": filter
// each stream through the canonical filter chain, estimate or accept a
// fragment length, bin reads into a track with RPKM/CPM scaling, and
// either ratio-normalize against a (optionally smoothed) control track or
// add a pseudocount and optionally log-transform. BamCoverage (run.go) is
// the path-based entry point built on top of this.
func assembleCoverage(treatment, control []StreamOpener, g genome.Genome, cfg Options) (track.Track, *CoverageError) {
	filters := buildFilters(cfg)

	fraglen, treatmentEstimate, err := resolveFraglen(treatment, filters, g, cfg)
	if err != nil {
		return track.Track{}, &CoverageError{Err: errors.Wrap(err, "coverage: treatment fragment length")}
	}
	var treatmentEstimates []FraglenEstimate
	if treatmentEstimate != nil {
		treatmentEstimates = append(treatmentEstimates, *treatmentEstimate)
	}

	treatmentTrack, nTreatment, err := buildCoverageTrack(treatment, filters, g, cfg, fraglen)
	if err != nil {
		return track.Track{}, &CoverageError{Err: err, TreatmentFraglens: treatmentEstimates}
	}

	factor, pseudoTreatment := scaleFactor(cfg, nTreatment, cfg.PseudocountTreatment)
	treatmentTrack.Map(func(_ string, _ int, v float64) float64 { return v * factor })

	var controlEstimates []FraglenEstimate
	if len(control) > 0 {
		controlFraglen, controlEstimate, err := resolveFraglen(control, filters, g, cfg)
		if err != nil {
			return track.Track{}, &CoverageError{Err: errors.Wrap(err, "coverage: control fragment length"), TreatmentFraglens: treatmentEstimates}
		}
		if controlEstimate != nil {
			controlEstimates = append(controlEstimates, *controlEstimate)
		}

		controlTrack, nControl, err := buildCoverageTrack(control, filters, g, cfg, controlFraglen)
		if err != nil {
			return track.Track{}, &CoverageError{Err: err, TreatmentFraglens: treatmentEstimates, ControlFraglens: controlEstimates}
		}

		cFactor, pseudoControl := scaleFactor(cfg, nControl, cfg.PseudocountControl)
		controlTrack.Map(func(_ string, _ int, v float64) float64 { return v * cFactor })

		if cfg.SmoothenControl {
			controlTrack.Smoothen(cfg.SmoothenMinCounts, cfg.SmoothenWindowSizes)
		}

		if err := treatmentTrack.Normalize(controlTrack, pseudoTreatment, pseudoControl, cfg.LogScale); err != nil {
			return track.Track{}, &CoverageError{Err: err, TreatmentFraglens: treatmentEstimates, ControlFraglens: controlEstimates}
		}
	} else if cfg.LogScale {
		treatmentTrack.Map(func(_ string, _ int, v float64) float64 {
			return math.Log(v + pseudoTreatment)
		})
	}

	removeFilteredChroms(&treatmentTrack, cfg.FilterChroms, cfg.RemoveFilteredChroms)

	return treatmentTrack, nil
}

// removeFilteredChroms drops or zeroes the chromosomes named in chroms
// from t (spec §4.10's final chromosome-filtering step).
func removeFilteredChroms(t *track.Track, chroms []string, remove bool) {
	if len(chroms) == 0 {
		return
	}
	drop := make(map[string]bool, len(chroms))
	for _, c := range chroms {
		drop[c] = true
	}
	for name := range t.Data {
		if !drop[name] {
			continue
		}
		if remove {
			delete(t.Data, name)
			continue
		}
		seq := t.Data[name]
		for i := range seq {
			seq[i] = 0
		}
	}
	if remove {
		var names []string
		var lengths []int
		for i := 0; i < t.Genome.NChromosomes(); i++ {
			if !drop[t.Genome.Name(i)] {
				names = append(names, t.Genome.Name(i))
				lengths = append(lengths, t.Genome.Length(i))
			}
		}
		if g, err := genome.New(names, lengths); err == nil {
			t.Genome = g
		}
	}
}
