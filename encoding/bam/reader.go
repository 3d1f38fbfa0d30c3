package bam

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/grailbio/base/log"
	"github.com/grailbio/bio-bigwig/genome"
)

// ReaderOptions controls which parts of each alignment record are decoded.
// Fields left false are skipped by advancing the exact byte count their
// section occupies instead of decoding it. The read name bytes are always
// read into a buffer and kept only when ReadName is true.
type ReaderOptions struct {
	ReadName      bool
	ReadCigar     bool
	ReadSequence  bool
	ReadQual      bool
	ReadAuxiliary bool
}

// DefaultReaderOptions decodes every field of every record.
func DefaultReaderOptions() ReaderOptions {
	return ReaderOptions{true, true, true, true, true}
}

// Reader decodes a stream of BAM records from an underlying byte stream
// (typically a bgzf.Reader). Records are returned in file order; the first
// I/O or format error terminates the stream for good, reported as the next
// Next() call's error (spec §5).
type Reader struct {
	r       io.Reader
	opts    ReaderOptions
	header  Header
	err     error
	nRecord int
}

// NewReader parses the BAM header (magic, text, reference dictionary) from
// r, then returns a Reader ready to decode alignment records.
func NewReader(r io.Reader, opts ReaderOptions) (*Reader, error) {
	h, err := readHeader(r)
	if err != nil {
		return nil, err
	}
	return &Reader{r: r, opts: opts, header: h}, nil
}

// Header returns the parsed BAM header.
func (rd *Reader) Header() Header { return rd.header }

// Genome returns the reference dictionary as a genome.Genome.
func (rd *Reader) Genome() genome.Genome { return rd.header.Genome }

// Next decodes and returns the next alignment record. It returns
// (nil, io.EOF) at a clean end of stream (an EOF exactly at a block_size
// read boundary, per spec §4.3), and (nil, err) for any other error. Once
// an error has been returned, every subsequent call returns the same error.
func (rd *Reader) Next() (*Record, error) {
	if rd.err != nil {
		return nil, rd.err
	}
	rec, err := rd.next()
	if err != nil {
		rd.err = err
		if err == io.EOF {
			log.Debug.Printf("bam: reached EOF after %d records", rd.nRecord)
		}
		return nil, err
	}
	rd.nRecord++
	return rec, nil
}

func (rd *Reader) next() (*Record, error) {
	blockSize, err := readInt32(rd.r)
	if err != nil {
		return nil, err // EOF here is the only legitimate stream end (spec §4.3).
	}
	if blockSize < bamFixedBytes {
		return nil, fmt.Errorf("bam: block_size %d smaller than fixed record size", blockSize)
	}
	remaining := int(blockSize)

	fixed := make([]byte, bamFixedBytes)
	if _, err := io.ReadFull(rd.r, fixed); err != nil {
		return nil, fmt.Errorf("bam: reading fixed record fields: %w", err)
	}
	remaining -= bamFixedBytes

	rec := &Record{}
	rec.RefID = int(int32(binary.LittleEndian.Uint32(fixed[0:])))
	rec.Pos = int(int32(binary.LittleEndian.Uint32(fixed[4:])))
	binMQNL := binary.LittleEndian.Uint32(fixed[8:])
	rNameLen := int(binMQNL & 0xff)
	rec.MapQ = byte((binMQNL >> 8) & 0xff)
	flagNC := binary.LittleEndian.Uint32(fixed[12:])
	nCigarOp := int(flagNC & 0xffff)
	rec.Flag = Flag(flagNC >> 16)
	lSeq := int(int32(binary.LittleEndian.Uint32(fixed[16:])))
	rec.NextRefID = int(int32(binary.LittleEndian.Uint32(fixed[20:])))
	rec.NextPos = int(int32(binary.LittleEndian.Uint32(fixed[24:])))
	rec.TempLen = int(int32(binary.LittleEndian.Uint32(fixed[28:])))

	if rNameLen < 1 {
		return nil, fmt.Errorf("bam: invalid read name length %d", rNameLen)
	}
	nameBuf := make([]byte, rNameLen)
	if _, err := io.ReadFull(rd.r, nameBuf); err != nil {
		return nil, fmt.Errorf("bam: reading read name: %w", err)
	}
	remaining -= rNameLen
	if rd.opts.ReadName {
		rec.Name = string(nameBuf[:rNameLen-1]) // NUL-trimmed
	}

	cigarBytes := nCigarOp * 4
	if rd.opts.ReadCigar {
		buf := make([]byte, cigarBytes)
		if _, err := io.ReadFull(rd.r, buf); err != nil {
			return nil, fmt.Errorf("bam: reading cigar: %w", err)
		}
		cigar := make(Cigar, nCigarOp)
		for i := 0; i < nCigarOp; i++ {
			cigar[i] = CigarOp(binary.LittleEndian.Uint32(buf[i*4:]))
		}
		rec.Cigar = cigar
	} else if err := skip(rd.r, cigarBytes); err != nil {
		return nil, fmt.Errorf("bam: skipping cigar: %w", err)
	}
	remaining -= cigarBytes

	seqBytes := (lSeq + 1) / 2
	if rd.opts.ReadSequence {
		buf := make([]byte, seqBytes)
		if _, err := io.ReadFull(rd.r, buf); err != nil {
			return nil, fmt.Errorf("bam: reading sequence: %w", err)
		}
		rec.Seq = Seq{Length: lSeq, Packed: buf}
	} else if err := skip(rd.r, seqBytes); err != nil {
		return nil, fmt.Errorf("bam: skipping sequence: %w", err)
	}
	remaining -= seqBytes

	if rd.opts.ReadQual {
		buf := make([]byte, lSeq)
		if _, err := io.ReadFull(rd.r, buf); err != nil {
			return nil, fmt.Errorf("bam: reading quality: %w", err)
		}
		// A run of 0xff indicates "quality not stored"; leave Qual nil.
		if !allFF(buf) {
			rec.Qual = buf
		}
	} else if err := skip(rd.r, lSeq); err != nil {
		return nil, fmt.Errorf("bam: skipping quality: %w", err)
	}
	remaining -= lSeq

	if remaining < 0 {
		return nil, fmt.Errorf("bam: block_size too small for declared field lengths")
	}
	if rd.opts.ReadAuxiliary {
		buf := make([]byte, remaining)
		if _, err := io.ReadFull(rd.r, buf); err != nil {
			return nil, fmt.Errorf("bam: reading auxiliary fields: %w", err)
		}
		aux, err := parseAuxFields(buf)
		if err != nil {
			return nil, err
		}
		rec.Aux = aux
	} else if err := skip(rd.r, remaining); err != nil {
		return nil, fmt.Errorf("bam: skipping auxiliary fields: %w", err)
	}

	return rec, nil
}

func skip(r io.Reader, n int) error {
	if n == 0 {
		return nil
	}
	_, err := io.CopyN(io.Discard, r, int64(n))
	return err
}

func allFF(b []byte) bool {
	for _, v := range b {
		if v != 0xff {
			return false
		}
	}
	return len(b) > 0
}
