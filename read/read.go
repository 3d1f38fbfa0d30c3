// Package read defines the Read type shared by the coverage engine and the
// BAM-derived iterators (encoding/bam, encoding/bampair): a single-end or
// already-joined-paired-end fragment projected onto the genome.
package read

import (
	"fmt"

	"github.com/grailbio/bio-bigwig/genome"
)

// Strand is the strand a Read is observed on.
type Strand byte

const (
	StrandPlus    Strand = '+'
	StrandMinus   Strand = '-'
	StrandUnknown Strand = '*'
)

// Read is one aligned fragment, reduced to exactly what the coverage engine
// needs (spec §3).
type Read struct {
	Seqname   string
	Range     genome.Range
	Strand    Strand
	MapQ      int64
	Duplicate bool
	PairedEnd bool
}

// ErrStrandMissing is returned by Extend when a strict caller asks to
// extend a read whose strand is unknown.
var ErrStrandMissing = fmt.Errorf("read: strand missing, cannot extend")

// Extend grows a single-end read to fragment length d along its strand:
// on '+' it sets To = From+d; on '-' it sets From = max(0, To-d). d must be
// > 0. On '*' (unknown strand) or a paired-end read, extension is either a
// no-op (strict=false) or fails with ErrStrandMissing (strict=true).
func (r Read) Extend(d int, strict bool) (Read, error) {
	if d <= 0 {
		return r, fmt.Errorf("read: extension length must be > 0, got %d", d)
	}
	if r.Strand == StrandUnknown || r.PairedEnd {
		if strict {
			return r, ErrStrandMissing
		}
		return r, nil
	}
	out := r
	switch r.Strand {
	case StrandPlus:
		out.Range = genome.Range{From: r.Range.From, To: r.Range.From + d}
	case StrandMinus:
		from := r.Range.To - d
		if from < 0 {
			from = 0
		}
		out.Range = genome.Range{From: from, To: r.Range.To}
	}
	return out, nil
}
