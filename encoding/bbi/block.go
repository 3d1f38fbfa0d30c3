package bbi

import (
	"bytes"
	"io"
	"math"

	"github.com/klauspost/compress/zlib"
	"github.com/pkg/errors"
)

func bytesReader(b []byte) io.Reader { return bytes.NewReader(b) }

// DataHeaderSize is the fixed size of the per-block header preceding every
// raw data record run (spec §4.6).
const DataHeaderSize = 24

// DataHeader precedes every raw (non-zoom) data block.
type DataHeader struct {
	ChromID   uint32
	Start     uint32
	End       uint32
	Step      uint32
	Span      uint32
	Kind      byte
	Reserved  byte
	ItemCount uint16
}

func (h *DataHeader) Decode(b []byte) {
	h.ChromID = le.Uint32(b[0:4])
	h.Start = le.Uint32(b[4:8])
	h.End = le.Uint32(b[8:12])
	h.Step = le.Uint32(b[12:16])
	h.Span = le.Uint32(b[16:20])
	h.Kind = b[20]
	h.Reserved = b[21]
	h.ItemCount = le.Uint16(b[22:24])
}

func (h DataHeader) Encode(b []byte) {
	le.PutUint32(b[0:4], h.ChromID)
	le.PutUint32(b[4:8], h.Start)
	le.PutUint32(b[8:12], h.End)
	le.PutUint32(b[12:16], h.Step)
	le.PutUint32(b[16:20], h.Span)
	b[20] = h.Kind
	b[21] = h.Reserved
	le.PutUint16(b[22:24], h.ItemCount)
}

// recordSize returns the byte width of one record body for kind, per spec
// §4.6 (bedgraph=12, variable=8, fixed=4).
func recordSize(kind byte) (int, error) {
	switch kind {
	case TypeBedGraph:
		return 12, nil
	case TypeVariable:
		return 8, nil
	case TypeFixed:
		return 4, nil
	default:
		return 0, errors.Errorf("bbi: unsupported block type %d", kind)
	}
}

// DecodeRawBlock parses one (optionally zlib-compressed) raw data block
// into its constituent SummaryRecords (spec §4.6 "Raw decoder").
func DecodeRawBlock(block []byte, compressed bool) ([]SummaryRecord, error) {
	if compressed {
		zr, err := zlib.NewReader(bytes.NewReader(block))
		if err != nil {
			return nil, err
		}
		defer zr.Close()
		block, err = io.ReadAll(zr)
		if err != nil {
			return nil, err
		}
	}
	if len(block) < DataHeaderSize {
		return nil, errors.New("bbi: data block shorter than header")
	}
	var h DataHeader
	h.Decode(block[:DataHeaderSize])
	body := block[DataHeaderSize:]
	size, err := recordSize(h.Kind)
	if err != nil {
		return nil, err
	}
	if len(body)%size != 0 {
		return nil, errors.New("bbi: data block has invalid length")
	}
	n := len(body) / size
	records := make([]SummaryRecord, 0, n)
	for j := 0; j < n; j++ {
		rec := body[j*size : (j+1)*size]
		var r SummaryRecord
		r.ChromID = int32(h.ChromID)
		var v float32
		switch h.Kind {
		case TypeFixed:
			r.From = int32(h.Start) + int32(j)*int32(h.Step)
			r.To = r.From + int32(h.Span)
			v = math.Float32frombits(le.Uint32(rec[0:4]))
		case TypeVariable:
			r.From = int32(le.Uint32(rec[0:4]))
			r.To = r.From + int32(h.Span)
			v = math.Float32frombits(le.Uint32(rec[4:8]))
		case TypeBedGraph:
			r.From = int32(le.Uint32(rec[0:4]))
			r.To = int32(le.Uint32(rec[4:8]))
			v = math.Float32frombits(le.Uint32(rec[8:12]))
		}
		fv := float64(v)
		r.Statistics = SummaryStatistics{Valid: 1, Min: fv, Max: fv, Sum: fv, SumSquares: fv * fv}
		records = append(records, r)
	}
	return records, nil
}

// DecodeZoomBlock parses one (optionally zlib-compressed) zoom block into
// its fixed-width ZoomRecords (spec §4.6 "Zoom decoder").
func DecodeZoomBlock(block []byte, compressed bool) ([]ZoomRecord, error) {
	if compressed {
		zr, err := zlib.NewReader(bytes.NewReader(block))
		if err != nil {
			return nil, err
		}
		defer zr.Close()
		var err2 error
		block, err2 = io.ReadAll(zr)
		if err2 != nil {
			return nil, err2
		}
	}
	if len(block)%ZoomRecordSize != 0 {
		return nil, errors.New("bbi: zoom block has invalid length")
	}
	n := len(block) / ZoomRecordSize
	records := make([]ZoomRecord, n)
	for i := 0; i < n; i++ {
		records[i].Decode(block[i*ZoomRecordSize : (i+1)*ZoomRecordSize])
	}
	return records, nil
}

// EncodeBlock zlib-compresses buf when compress is true, leaving it as-is
// otherwise (spec §4.8 step 3: "zlib-compress each block").
func EncodeBlock(buf []byte, compress bool) ([]byte, error) {
	if !compress {
		return buf, nil
	}
	var out bytes.Buffer
	zw, err := zlib.NewWriterLevel(&out, zlib.BestCompression)
	if err != nil {
		return nil, err
	}
	if _, err := zw.Write(buf); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}
