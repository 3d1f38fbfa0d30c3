// Package bgzf decodes BGZF, the blocked-gzip format used by BAM: a
// concatenation of ordinary gzip members, each carrying a "BC" extra
// subfield recording its own total compressed size. Reader presents the
// concatenation as one contiguous decompressed byte stream; it exposes no
// virtual file offsets, since this module's BAM decoder needs no BAI-style
// random access (see package bam).
//
// For more on the format, see the SAM/BAM spec:
// https://samtools.github.io/hts-specs/SAMv1.pdf
package bgzf

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/klauspost/compress/flate"
	"github.com/pkg/errors"
)

// gzip member fixed header: ID1, ID2, CM, FLG, MTIME(4), XFL, OS.
const gzipHeaderLen = 10

const (
	flagExtra = 1 << 2 // FEXTRA
)

// ExtraField holds the first BGZF block's "BC" extra subfield, which the
// caller can use to confirm the file is BGZF and to read the uncompressed
// buffer size hint BSIZE.
type ExtraField struct {
	SI1, SI2 byte
	SLen     uint16
	BSize    uint16
}

// Reader decompresses a BGZF byte stream.
type Reader struct {
	src io.Reader

	cur           io.Reader // flate reader over the current block's compressed payload
	firstExtra    *ExtraField
	sawFirstBlock bool
}

// NewReader wraps src, which must begin at the first byte of a BGZF stream.
func NewReader(src io.Reader) *Reader {
	return &Reader{src: src}
}

// FirstExtra returns the first block's BC extra subfield. It is only valid
// after at least one byte has been read from the stream; it returns
// (ExtraField{}, false) if no block has been parsed yet. A block that
// carries no BC subfield makes Read return an error instead.
func (r *Reader) FirstExtra() (ExtraField, bool) {
	if r.firstExtra == nil {
		return ExtraField{}, false
	}
	return *r.firstExtra, true
}

// Read implements io.Reader, transparently crossing block boundaries.
func (r *Reader) Read(p []byte) (int, error) {
	total := 0
	for total < len(p) {
		if r.cur == nil {
			if err := r.nextBlock(); err != nil {
				if total > 0 && err == io.EOF {
					return total, nil
				}
				return total, err
			}
		}
		n, err := r.cur.Read(p[total:])
		total += n
		if err != nil {
			if err == io.EOF {
				r.cur = nil
				continue
			}
			return total, err
		}
	}
	return total, nil
}

// nextBlock reads one gzip member's header+extra+deflate payload+footer off
// src and installs a flate.Reader over its exact-length compressed payload.
// A BGZF block records, in its BC extra subfield, BSIZE = total block size
// (header + extra + compressed payload + 8-byte footer) minus one; reading
// exactly that many bytes up front avoids relying on gzip-library lookahead
// across member boundaries.
func (r *Reader) nextBlock() error {
	hdr := make([]byte, gzipHeaderLen)
	if _, err := io.ReadFull(r.src, hdr); err != nil {
		return err // EOF here is the only legitimate end-of-stream signal.
	}
	if hdr[0] != 0x1f || hdr[1] != 0x8b {
		return errors.New("bgzf: bad gzip member magic")
	}
	if hdr[3]&flagExtra == 0 {
		return errors.New("bgzf: gzip member has no FEXTRA field, not BGZF")
	}
	var xlenBuf [2]byte
	if _, err := io.ReadFull(r.src, xlenBuf[:]); err != nil {
		return errors.Wrap(err, "bgzf: reading XLEN")
	}
	xlen := binary.LittleEndian.Uint16(xlenBuf[:])
	extra := make([]byte, xlen)
	if _, err := io.ReadFull(r.src, extra); err != nil {
		return errors.Wrap(err, "bgzf: reading extra subfields")
	}

	ef, err := parseBCSubfield(extra)
	if err != nil {
		return err
	}
	if !r.sawFirstBlock {
		r.sawFirstBlock = true
		r.firstExtra = &ef
	}

	totalBlockSize := int(ef.BSize) + 1
	consumed := gzipHeaderLen + int(xlen)
	remaining := totalBlockSize - consumed
	const footerLen = 8 // CRC32 + ISIZE
	if remaining < footerLen {
		return errors.New("bgzf: block size smaller than header+footer")
	}
	payload := make([]byte, remaining-footerLen)
	if len(payload) > 0 {
		if _, err := io.ReadFull(r.src, payload); err != nil {
			return errors.Wrap(err, "bgzf: reading compressed payload")
		}
	}
	var footer [footerLen]byte
	if _, err := io.ReadFull(r.src, footer[:]); err != nil {
		return errors.Wrap(err, "bgzf: reading footer")
	}
	// An all-empty-payload member (the BGZF end-of-file marker) decompresses
	// to zero bytes; let the flate reader report that as an ordinary EOF.
	r.cur = flate.NewReader(bytes.NewReader(payload))
	return nil
}

// parseBCSubfield scans a gzip EXTRA field for the "BC" (SI1=66, SI2=67)
// subfield BGZF uses to record BSIZE.
func parseBCSubfield(extra []byte) (ExtraField, error) {
	for i := 0; i+4 <= len(extra); {
		si1, si2 := extra[i], extra[i+1]
		slen := binary.LittleEndian.Uint16(extra[i+2 : i+4])
		data := extra[i+4:]
		if int(slen) > len(data) {
			return ExtraField{}, errors.New("bgzf: truncated extra subfield")
		}
		if si1 == 66 && si2 == 67 { // 'B','C'
			if slen != 2 {
				return ExtraField{}, errors.New("bgzf: malformed BC subfield length")
			}
			return ExtraField{
				SI1: si1, SI2: si2, SLen: slen,
				BSize: binary.LittleEndian.Uint16(data[:2]),
			}, nil
		}
		i += 4 + int(slen)
	}
	return ExtraField{}, errors.New("bgzf: no BC extra subfield present")
}
