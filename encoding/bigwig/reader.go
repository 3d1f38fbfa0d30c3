package bigwig

import (
	"encoding/binary"
	"io"
	"math"
	"regexp"

	"github.com/grailbio/bio-bigwig/encoding/bbi"
	"github.com/grailbio/bio-bigwig/genome"
	"github.com/pkg/errors"
)

var le = binary.LittleEndian

// Reader is an open BigWig file (spec §4.7).
type Reader struct {
	f      *bbi.File
	r      io.ReadSeeker
	genome genome.Genome
}

// NewReader opens r as a BigWig file: reads the header, the chromosome B+
// tree, and populates Genome ordered by chrom_id (not key-sort order).
func NewReader(r io.ReadSeeker) (*Reader, error) {
	f, err := bbi.Open(r, bbi.BigWigMagic)
	if err != nil {
		return nil, err
	}
	rd := &Reader{f: f, r: r}
	if err := rd.buildGenome(); err != nil {
		return nil, err
	}
	return rd, nil
}

func (rd *Reader) buildGenome() error {
	n := len(rd.f.ChromData.Keys)
	names := make([]string, n)
	lengths := make([]int, n)
	for i := 0; i < n; i++ {
		val := rd.f.ChromData.Values[i]
		if len(val) != 8 {
			return errors.New("bigwig: invalid chromosome list")
		}
		idx := int(le.Uint32(val[0:4]))
		if idx < 0 || idx >= n {
			return errors.New("bigwig: invalid chromosome index")
		}
		names[idx] = trimNulString(rd.f.ChromData.Keys[i])
		lengths[idx] = int(le.Uint32(val[4:8]))
	}
	g, err := genome.New(names, lengths)
	if err != nil {
		return err
	}
	rd.genome = g
	return nil
}

func trimNulString(b []byte) string {
	i := 0
	for i < len(b) && b[i] != 0 {
		i++
	}
	return string(b[:i])
}

// Genome returns the chromosome dictionary this file was built against.
func (rd *Reader) Genome() genome.Genome { return rd.genome }

// QueryResult is one aggregated span a Query call yields.
type QueryResult struct {
	Seqname    string
	From, To   int
	Statistics bbi.SummaryStatistics
}

// Iterator is the lazy pull-based sequence Query returns.
type Iterator interface {
	Next() (QueryResult, error)
}

type queryIterator struct {
	rd        *Reader
	names     []string
	idx       int
	from, to  int
	binSize   int
	cur       bbi.Iterator
}

func (it *queryIterator) Next() (QueryResult, error) {
	for {
		if it.cur == nil {
			if it.idx >= len(it.names) {
				return QueryResult{}, io.EOF
			}
			name := it.names[it.idx]
			it.idx++
			chromID, ok := it.rd.genome.Index(name)
			if !ok {
				continue
			}
			it.cur = it.rd.f.Query(uint32(chromID), uint32(it.from), uint32(it.to), uint32(it.binSize))
		}
		q, err := it.cur.Next()
		if err == io.EOF {
			it.cur = nil
			continue
		}
		if err != nil {
			return QueryResult{}, err
		}
		name := ""
		if int(q.Data.ChromID) < it.rd.genome.NChromosomes() {
			name = it.rd.genome.Name(int(q.Data.ChromID))
		}
		return QueryResult{Seqname: name, From: int(q.Data.From), To: int(q.Data.To), Statistics: q.Data.Statistics}, nil
	}
}

// Query matches seqRegex ("^"+re+"$") against every chromosome name in
// genome order and streams aggregated summaries for [from,to) reduced to
// windows of binSize (spec §4.7).
func (rd *Reader) Query(seqRegex string, from, to, binSize int) (Iterator, error) {
	re, err := regexp.Compile("^(?:" + seqRegex + ")$")
	if err != nil {
		return nil, err
	}
	var names []string
	for _, name := range rd.genome.Names() {
		if re.MatchString(name) {
			names = append(names, name)
		}
	}
	return &queryIterator{rd: rd, names: names, from: from, to: to, binSize: binSize}, nil
}

// QuerySequence materializes an in-memory []float64 of length
// ceil(length(seq)/binSize), initialized to init, overlaid with
// summary(sum, sumSquares, min, max, n) computed over a window of
// (2*binOverlap+1) bins centered on each target bin (spec §4.7).
func (rd *Reader) QuerySequence(seq string, summary func(sum, sumSquares, min, max, n float64) float64, binSize, binOverlap int, init float64) ([]float64, error) {
	length, ok := rd.genome.LengthOf(seq)
	if !ok {
		return nil, errors.Errorf("bigwig: unknown sequence %q", seq)
	}
	nBins := (length + binSize - 1) / binSize
	out := make([]float64, nBins)
	for i := range out {
		out[i] = init
	}

	type acc struct {
		n, valid                     float64
		min, max, sum, sumSq float64
	}
	accs := make([]acc, nBins)
	for i := range accs {
		accs[i] = acc{min: math.Inf(1), max: math.Inf(-1)}
	}

	windowFrom := 0
	windowTo := length
	it, err := rd.Query("^"+regexp.QuoteMeta(seq)+"$", windowFrom, windowTo, binSize)
	if err != nil {
		return nil, err
	}
	for {
		r, err := it.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		center := r.From / binSize
		for d := -binOverlap; d <= binOverlap; d++ {
			bi := center + d
			if bi < 0 || bi >= nBins {
				continue
			}
			a := &accs[bi]
			a.valid += r.Statistics.Valid
			a.sum += r.Statistics.Sum
			a.sumSq += r.Statistics.SumSquares
			if r.Statistics.Min < a.min {
				a.min = r.Statistics.Min
			}
			if r.Statistics.Max > a.max {
				a.max = r.Statistics.Max
			}
		}
	}
	for i, a := range accs {
		if a.valid == 0 {
			continue
		}
		out[i] = summary(a.sum, a.sumSq, a.min, a.max, a.valid)
	}
	return out, nil
}
