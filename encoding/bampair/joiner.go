package bampair

import (
	"github.com/grailbio/bio-bigwig/encoding/bam"
)

// Pair is one joined paired-end alignment: the two mates ordered by
// ascending position (spec §4.4, §5).
type Pair struct {
	Earlier *bam.Record
	Later   *bam.Record
}

// PairIterator is the lazy, ordered stream of joined pairs a Joiner
// produces.
type PairIterator interface {
	Next() (Pair, error)
}

// recordSource is the BAM reader's Next() shape, so Joiner can wrap either
// a *bam.Reader or a test double.
type recordSource interface {
	Next() (*bam.Record, error)
}

// Joiner buffers unpaired mates by read name in an in-memory cache (spec
// §4.4), mirroring the map[string][]*indexedRecord shape a mate-shard table
// uses, simplified to this module's single-threaded, unbounded-cache
// contract (no sharding, no disk spill).
type Joiner struct {
	src   recordSource
	cache map[string]*bam.Record
	err   error
}

// NewJoiner wraps src, a stream of single-end BAM records, so that records
// carrying the paired flag are re-emitted as joined Pairs in the order their
// second mate arrives.
func NewJoiner(src recordSource) *Joiner {
	return &Joiner{src: src, cache: make(map[string]*bam.Record)}
}

// CacheSize reports the number of unmatched mates currently buffered; it is
// exposed as an observable per spec §9's design note on joiner memory.
func (j *Joiner) CacheSize() int { return len(j.cache) }

// Next returns the next joined pair. Single-end records (Paired() false)
// are skipped by this stage entirely, per spec §4.4.
func (j *Joiner) Next() (Pair, error) {
	if j.err != nil {
		return Pair{}, j.err
	}
	for {
		rec, err := j.src.Next()
		if err != nil {
			j.err = err
			return Pair{}, err
		}
		if !rec.Flag.Paired() {
			continue
		}
		if mate, ok := j.cache[rec.Name]; ok {
			delete(j.cache, rec.Name)
			earlier, later := mate, rec
			if rec.Pos < mate.Pos {
				earlier, later = rec, mate
			}
			return Pair{Earlier: earlier, Later: later}, nil
		}
		j.cache[rec.Name] = rec
	}
}
