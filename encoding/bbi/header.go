package bbi

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

// ZoomHeader describes one reduction level in the zoom pyramid.
type ZoomHeader struct {
	ReductionLevel uint32
	Reserved       uint32
	DataOffset     uint64
	IndexOffset    uint64

	ptrDataOffset  int64
	ptrIndexOffset int64
}

func (z *ZoomHeader) read(r io.Reader) error {
	fields := []interface{}{&z.ReductionLevel, &z.Reserved, &z.DataOffset, &z.IndexOffset}
	for _, f := range fields {
		if err := binary.Read(r, le, f); err != nil {
			return err
		}
	}
	return nil
}

func (z *ZoomHeader) write(w io.WriteSeeker) error {
	if err := binary.Write(w, le, z.ReductionLevel); err != nil {
		return err
	}
	if err := binary.Write(w, le, z.Reserved); err != nil {
		return err
	}
	var err error
	z.ptrDataOffset, err = w.Seek(0, io.SeekCurrent)
	if err != nil {
		return err
	}
	if err := binary.Write(w, le, z.DataOffset); err != nil {
		return err
	}
	z.ptrIndexOffset, err = w.Seek(0, io.SeekCurrent)
	if err != nil {
		return err
	}
	return binary.Write(w, le, z.IndexOffset)
}

// writeOffsets patches the already-written zero placeholders for this
// header's forward-referenced offsets, using the byte positions recorded at
// write() time (spec §4.8 step 8).
func (z *ZoomHeader) writeOffsets(w io.WriteSeeker) error {
	if err := writeUint64At(w, z.ptrDataOffset, z.DataOffset); err != nil {
		return err
	}
	return writeUint64At(w, z.ptrIndexOffset, z.IndexOffset)
}

// Header is the BBI file header (spec §4.7/§4.8): magic, offsets to the
// chromosome tree / data / index / zoom pyramid, and the running summary.
type Header struct {
	Magic               uint32
	Version             uint16
	ZoomLevels          uint16
	CtOffset            uint64
	DataOffset          uint64
	IndexOffset         uint64
	FieldCount          uint16
	DefinedFieldCount   uint16
	SqlOffset           uint64
	SummaryOffset       uint64
	UncompressBufSize   uint32
	ExtensionOffset     uint64
	NBasesCovered       uint64
	MinVal              float64
	MaxVal              float64
	SumData             float64
	SumSquares          float64
	ZoomHeaders         []ZoomHeader

	ptrCtOffset          int64
	ptrDataOffset        int64
	ptrIndexOffset       int64
	ptrSqlOffset         int64
	ptrSummaryOffset     int64
	ptrUncompressBufSize int64
	ptrExtensionOffset   int64
}

// NewHeader returns a header ready for Create, with Min/Max seeded so the
// first SummaryAddValue call always wins.
func NewHeader(magic uint32) *Header {
	return &Header{Magic: magic, Version: 4, MinVal: nan(), MaxVal: nan()}
}

func nan() float64 { var z float64; return z / z }

// SummaryAddValue folds one observed value x, covering n bases (n>=1), into
// the file-level running summary.
func (h *Header) SummaryAddValue(x float64, n uint64) {
	if isNaN(x) {
		return
	}
	if isNaN(h.MinVal) || h.MinVal > x {
		h.MinVal = x
	}
	if isNaN(h.MaxVal) || h.MaxVal < x {
		h.MaxVal = x
	}
	h.NBasesCovered += n
	h.SumData += x * float64(n)
	h.SumSquares += x * x * float64(n)
}

func isNaN(f float64) bool { return f != f }

// Read parses the header, including the zoom header array and (if present)
// the file-level summary block, from r at its current position (which must
// be offset 0).
func (h *Header) Read(r io.ReadSeeker, wantMagic uint32) error {
	if err := binary.Read(r, le, &h.Magic); err != nil {
		return err
	}
	if h.Magic != wantMagic {
		return errors.Errorf("bbi: invalid magic number %#x", h.Magic)
	}
	if err := binary.Read(r, le, &h.Version); err != nil {
		return err
	}
	if err := binary.Read(r, le, &h.ZoomLevels); err != nil {
		return err
	}
	if err := binary.Read(r, le, &h.CtOffset); err != nil {
		return err
	}
	if err := binary.Read(r, le, &h.DataOffset); err != nil {
		return err
	}
	if err := binary.Read(r, le, &h.IndexOffset); err != nil {
		return err
	}
	if err := binary.Read(r, le, &h.FieldCount); err != nil {
		return err
	}
	if err := binary.Read(r, le, &h.DefinedFieldCount); err != nil {
		return err
	}
	if err := binary.Read(r, le, &h.SqlOffset); err != nil {
		return err
	}
	if err := binary.Read(r, le, &h.SummaryOffset); err != nil {
		return err
	}
	if err := binary.Read(r, le, &h.UncompressBufSize); err != nil {
		return err
	}
	if err := binary.Read(r, le, &h.ExtensionOffset); err != nil {
		return err
	}

	h.ZoomHeaders = make([]ZoomHeader, h.ZoomLevels)
	for i := range h.ZoomHeaders {
		if err := h.ZoomHeaders[i].read(r); err != nil {
			return err
		}
	}

	if h.SummaryOffset > 0 {
		if _, err := r.Seek(int64(h.SummaryOffset), io.SeekStart); err != nil {
			return err
		}
		if err := binary.Read(r, le, &h.NBasesCovered); err != nil {
			return err
		}
		if err := binary.Read(r, le, &h.MinVal); err != nil {
			return err
		}
		if err := binary.Read(r, le, &h.MaxVal); err != nil {
			return err
		}
		if err := binary.Read(r, le, &h.SumData); err != nil {
			return err
		}
		if err := binary.Read(r, le, &h.SumSquares); err != nil {
			return err
		}
	}
	return nil
}

// Write emits the header with zero placeholders for every forward-referenced
// offset, recording the byte position of each placeholder for a later
// WriteOffsets call (spec §4.8 step 1).
func (h *Header) Write(w io.WriteSeeker) error {
	if err := binary.Write(w, le, h.Magic); err != nil {
		return err
	}
	if err := binary.Write(w, le, h.Version); err != nil {
		return err
	}
	if err := binary.Write(w, le, h.ZoomLevels); err != nil {
		return err
	}
	var err error
	if h.ptrCtOffset, err = w.Seek(0, io.SeekCurrent); err != nil {
		return err
	}
	if err := binary.Write(w, le, h.CtOffset); err != nil {
		return err
	}
	if h.ptrDataOffset, err = w.Seek(0, io.SeekCurrent); err != nil {
		return err
	}
	if err := binary.Write(w, le, h.DataOffset); err != nil {
		return err
	}
	if h.ptrIndexOffset, err = w.Seek(0, io.SeekCurrent); err != nil {
		return err
	}
	if err := binary.Write(w, le, h.IndexOffset); err != nil {
		return err
	}
	if err := binary.Write(w, le, h.FieldCount); err != nil {
		return err
	}
	if err := binary.Write(w, le, h.DefinedFieldCount); err != nil {
		return err
	}
	if h.ptrSqlOffset, err = w.Seek(0, io.SeekCurrent); err != nil {
		return err
	}
	if err := binary.Write(w, le, h.SqlOffset); err != nil {
		return err
	}
	if h.ptrSummaryOffset, err = w.Seek(0, io.SeekCurrent); err != nil {
		return err
	}
	if err := binary.Write(w, le, h.SummaryOffset); err != nil {
		return err
	}
	if h.ptrUncompressBufSize, err = w.Seek(0, io.SeekCurrent); err != nil {
		return err
	}
	if err := binary.Write(w, le, h.UncompressBufSize); err != nil {
		return err
	}
	if h.ptrExtensionOffset, err = w.Seek(0, io.SeekCurrent); err != nil {
		return err
	}
	if err := binary.Write(w, le, h.ExtensionOffset); err != nil {
		return err
	}
	for i := range h.ZoomHeaders {
		if err := h.ZoomHeaders[i].write(w); err != nil {
			return err
		}
	}
	return nil
}

// WriteOffsets patches the chromosome-tree, data, index, SQL and extension
// offset placeholders and every zoom header's offsets with the header's
// current field values. The summary offset and the uncompress buffer size
// are patched by WriteSummary and WriteUncompressBufSize instead. Safe to
// call repeatedly as offsets become known.
func (h *Header) WriteOffsets(w io.WriteSeeker) error {
	if err := writeUint64At(w, h.ptrCtOffset, h.CtOffset); err != nil {
		return err
	}
	if err := writeUint64At(w, h.ptrDataOffset, h.DataOffset); err != nil {
		return err
	}
	if err := writeUint64At(w, h.ptrIndexOffset, h.IndexOffset); err != nil {
		return err
	}
	if err := writeUint64At(w, h.ptrSqlOffset, h.SqlOffset); err != nil {
		return err
	}
	if err := writeUint64At(w, h.ptrExtensionOffset, h.ExtensionOffset); err != nil {
		return err
	}
	for i := range h.ZoomHeaders {
		if err := h.ZoomHeaders[i].writeOffsets(w); err != nil {
			return err
		}
	}
	return nil
}

// WriteUncompressBufSize patches the placeholder for the per-block
// decompression buffer size hint once the largest block is known.
func (h *Header) WriteUncompressBufSize(w io.WriteSeeker) error {
	return writeUint32At(w, h.ptrUncompressBufSize, h.UncompressBufSize)
}

// WriteSummary appends the file-level summary record at the writer's current
// position and patches the SummaryOffset placeholder to point at it. It
// writes nothing when no base has been covered.
func (h *Header) WriteSummary(w io.WriteSeeker) error {
	if h.NBasesCovered == 0 {
		return nil
	}
	off, err := w.Seek(0, io.SeekCurrent)
	if err != nil {
		return err
	}
	h.SummaryOffset = uint64(off)
	if err := writeUint64At(w, h.ptrSummaryOffset, h.SummaryOffset); err != nil {
		return err
	}
	if err := binary.Write(w, le, h.NBasesCovered); err != nil {
		return err
	}
	if err := binary.Write(w, le, h.MinVal); err != nil {
		return err
	}
	if err := binary.Write(w, le, h.MaxVal); err != nil {
		return err
	}
	if err := binary.Write(w, le, h.SumData); err != nil {
		return err
	}
	return binary.Write(w, le, h.SumSquares)
}

func writeUint64At(w io.WriteSeeker, at int64, v uint64) error {
	if at == 0 {
		return nil
	}
	cur, err := w.Seek(0, io.SeekCurrent)
	if err != nil {
		return err
	}
	if _, err := w.Seek(at, io.SeekStart); err != nil {
		return err
	}
	if err := binary.Write(w, le, v); err != nil {
		return err
	}
	_, err = w.Seek(cur, io.SeekStart)
	return err
}

func writeUint32At(w io.WriteSeeker, at int64, v uint32) error {
	if at == 0 {
		return nil
	}
	cur, err := w.Seek(0, io.SeekCurrent)
	if err != nil {
		return err
	}
	if _, err := w.Seek(at, io.SeekStart); err != nil {
		return err
	}
	if err := binary.Write(w, le, v); err != nil {
		return err
	}
	_, err = w.Seek(cur, io.SeekStart)
	return err
}
