package track

import (
	"io"
	"math"

	"github.com/grailbio/bio-bigwig/genome"
	"github.com/grailbio/bio-bigwig/read"
	"github.com/pkg/errors"
)

// Track is a chromosome→fixed-bin-size vector of float64, initialized to
// a caller-chosen value (typically 0 or NaN) over every chromosome of its
// Genome (spec §4.9).
type Track struct {
	Name    string
	Genome  genome.Genome
	BinSize int
	Data    map[string][]float64
}

// Alloc builds a Track over g with every bin set to init.
func Alloc(name string, g genome.Genome, init float64, binSize int) Track {
	data := make(map[string][]float64, g.NChromosomes())
	for i := 0; i < g.NChromosomes(); i++ {
		n := g.Length(i) / binSize
		bins := make([]float64, n)
		for j := range bins {
			bins[j] = init
		}
		data[g.Name(i)] = bins
	}
	return Track{Name: name, Genome: g, BinSize: binSize, Data: data}
}

// ErrReadOutOfRange is returned by the add_read family when a read's
// position falls outside the bin range of its chromosome.
var ErrReadOutOfRange = errors.New("track: read out of range")

// ErrInvalidWindowSize is returned when a window-based operation is given
// a window size of 0.
var ErrInvalidWindowSize = errors.New("track: invalid window size")

// ErrBinSizeMismatch is returned when two tracks compared by an operation
// do not share a bin size.
var ErrBinSizeMismatch = errors.New("track: bin sizes do not match")

// ErrSequenceNotFound is returned when a named chromosome is absent from
// the track's data.
var ErrSequenceNotFound = errors.New("track: sequence not found")

// sequenceLengthMismatch reports a per-chromosome bin-count disagreement
// between a destination track and one of its sources.
func sequenceLengthMismatch(name string, got, want int) error {
	return errors.Errorf("track: sequence %q has %d bins, want %d", name, got, want)
}

// SeqNames returns the chromosome names this track has data for, in the
// track's genome order.
func (t Track) SeqNames() []string {
	names := make([]string, 0, len(t.Data))
	for i := 0; i < t.Genome.NChromosomes(); i++ {
		name := t.Genome.Name(i)
		if _, ok := t.Data[name]; ok {
			names = append(names, name)
		}
	}
	return names
}

// Sequence returns the bin vector for name.
func (t Track) Sequence(name string) ([]float64, error) {
	seq, ok := t.Data[name]
	if !ok {
		return nil, errors.Wrapf(ErrSequenceNotFound, "%q", name)
	}
	return seq, nil
}

func overlappingBins(rng genome.Range, binSize, nBins int) (first, last int, ok bool) {
	first = rng.From / binSize
	if first >= nBins {
		return 0, 0, false
	}
	last = (rng.To - 1) / binSize
	if last >= nBins {
		last = nBins - 1
	}
	return first, last, true
}

// AddRead increments by 1 every bin overlapping r extended (in its 3'
// direction) to length d; d == 0 leaves r unextended. Out-of-range reads
// report ErrReadOutOfRange (spec §4.9).
func (t Track) AddRead(r read.Read, d int) error {
	seq, ok := t.Data[r.Seqname]
	if !ok {
		return errors.Wrapf(ErrSequenceNotFound, "%q", r.Seqname)
	}
	rng, err := extend(r, d)
	if err != nil {
		return err
	}
	first, last, ok := overlappingBins(rng, t.BinSize, len(seq))
	if !ok {
		return errors.Wrapf(ErrReadOutOfRange, "seq %q range [%d,%d)", r.Seqname, rng.From, rng.To)
	}
	for j := first; j <= last; j++ {
		v := seq[j]
		if math.IsNaN(v) {
			v = 0
		}
		seq[j] = v + 1
	}
	return nil
}

// AddReadMeanOverlap increments every overlapping bin by
// overlap_bases/bin_size.
func (t Track) AddReadMeanOverlap(r read.Read, d int) error {
	seq, ok := t.Data[r.Seqname]
	if !ok {
		return errors.Wrapf(ErrSequenceNotFound, "%q", r.Seqname)
	}
	rng, err := extend(r, d)
	if err != nil {
		return err
	}
	first, last, ok := overlappingBins(rng, t.BinSize, len(seq))
	if !ok {
		return errors.Wrapf(ErrReadOutOfRange, "seq %q range [%d,%d)", r.Seqname, rng.From, rng.To)
	}
	for j := first; j <= last; j++ {
		v := seq[j]
		if math.IsNaN(v) {
			v = 0
		}
		jFrom, jTo := maxInt(rng.From, j*t.BinSize), minInt(rng.To, (j+1)*t.BinSize)
		seq[j] = v + float64(jTo-jFrom)/float64(t.BinSize)
	}
	return nil
}

// AddReadOverlap increments every overlapping bin by the number of
// overlapping bases.
func (t Track) AddReadOverlap(r read.Read, d int) error {
	seq, ok := t.Data[r.Seqname]
	if !ok {
		return errors.Wrapf(ErrSequenceNotFound, "%q", r.Seqname)
	}
	rng, err := extend(r, d)
	if err != nil {
		return err
	}
	first, last, ok := overlappingBins(rng, t.BinSize, len(seq))
	if !ok {
		return errors.Wrapf(ErrReadOutOfRange, "seq %q range [%d,%d)", r.Seqname, rng.From, rng.To)
	}
	for j := first; j <= last; j++ {
		v := seq[j]
		if math.IsNaN(v) {
			v = 0
		}
		jFrom, jTo := maxInt(rng.From, j*t.BinSize), minInt(rng.To, (j+1)*t.BinSize)
		seq[j] = v + float64(jTo-jFrom)
	}
	return nil
}

// extend resolves r's 3' extension to length d using read.Read.Extend,
// tolerating unknown-strand/paired-end reads (a non-strict, no-op
// extension) rather than failing the add.
func extend(r read.Read, d int) (genome.Range, error) {
	if d <= 0 {
		return r.Range, nil
	}
	out, err := r.Extend(d, false)
	if err != nil {
		return genome.Range{}, err
	}
	return out.Range, nil
}

// AddReads applies method ("default"/"simple", "mean overlap", or
// "overlap") to every read in it, extending each by d. It returns the
// count of reads successfully added; out-of-range reads are skipped
// silently (spec §4.9).
func (t Track) AddReads(it read.Iterator, d int, method string) (int, error) {
	var add func(read.Read, int) error
	switch method {
	case "", "simple", "default":
		add = t.AddRead
	case "mean overlap":
		add = t.AddReadMeanOverlap
	case "overlap":
		add = t.AddReadOverlap
	default:
		return 0, errors.Errorf("track: invalid binning method %q", method)
	}

	n := 0
	for {
		r, err := it.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return n, err
		}
		if add(r, d) == nil {
			n++
		}
	}
	return n, nil
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
