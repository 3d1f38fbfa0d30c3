package bbi

import (
	"encoding/binary"
	"math"
)

// Envelope is a data block's genomic span, used both as the R-tree leaf key
// and as the block's own header bounds (spec §4.5 "Record add/envelope
// invariants").
type Envelope struct {
	Start, End uint32
}

// EncodeVariable emits variable-step blocks (kind=2) for a dense bin vector:
// NaN bins are omitted entirely, and at most itemsPerSlot records land in
// one block (spec §4.6). binSize doubles as both step and span since every
// record covers exactly one bin.
func EncodeVariable(chromID uint32, binOffset, binSize uint32, values []float64, itemsPerSlot int) ([][]byte, []Envelope) {
	var blocks [][]byte
	var envs []Envelope
	var body []byte
	var first, last uint32
	count := 0

	flush := func() {
		if count == 0 {
			return
		}
		hdr := DataHeader{ChromID: chromID, Start: first, End: last + binSize, Span: binSize, Kind: TypeVariable, ItemCount: uint16(count)}
		buf := make([]byte, DataHeaderSize+len(body))
		hdr.Encode(buf[:DataHeaderSize])
		copy(buf[DataHeaderSize:], body)
		blocks = append(blocks, buf)
		envs = append(envs, Envelope{Start: first, End: last + binSize})
		body = nil
		count = 0
	}

	for i, v := range values {
		if math.IsNaN(v) {
			continue
		}
		pos := binOffset + uint32(i)*binSize
		if count == 0 {
			first = pos
		}
		last = pos
		rec := make([]byte, 8)
		le.PutUint32(rec[0:4], pos)
		binary.LittleEndian.PutUint32(rec[4:8], math.Float32bits(float32(v)))
		body = append(body, rec...)
		count++
		if count >= itemsPerSlot {
			flush()
		}
	}
	flush()
	return blocks, envs
}

// EncodeFixed emits fixed-step blocks (kind=3): a run of contiguous non-NaN
// bins is written without per-record positions, and a NaN bin ends the
// current block (spec §4.6 "NaNs split a fixed block").
func EncodeFixed(chromID uint32, binOffset, binSize uint32, values []float64, itemsPerSlot int) ([][]byte, []Envelope) {
	var blocks [][]byte
	var envs []Envelope
	var body []byte
	var start uint32
	count := 0

	flush := func() {
		if count == 0 {
			return
		}
		end := start + uint32(count)*binSize
		hdr := DataHeader{ChromID: chromID, Start: start, End: end, Step: binSize, Span: binSize, Kind: TypeFixed, ItemCount: uint16(count)}
		buf := make([]byte, DataHeaderSize+len(body))
		hdr.Encode(buf[:DataHeaderSize])
		copy(buf[DataHeaderSize:], body)
		blocks = append(blocks, buf)
		envs = append(envs, Envelope{Start: start, End: end})
		body = nil
		count = 0
	}

	for i, v := range values {
		pos := binOffset + uint32(i)*binSize
		if math.IsNaN(v) {
			flush()
			continue
		}
		if count == 0 {
			start = pos
		}
		rec := make([]byte, 4)
		binary.LittleEndian.PutUint32(rec, math.Float32bits(float32(v)))
		body = append(body, rec...)
		count++
		if count >= itemsPerSlot {
			flush()
		}
	}
	flush()
	return blocks, envs
}

// EncodeZoom aggregates a bin vector into zoom records covering
// ceil(reductionLevel/binSize) base bins apiece, skipping NaNs and dropping
// any record whose valid count is 0 (spec §4.6 "Zoom encoder").
func EncodeZoom(chromID uint32, binOffset, binSize, reductionLevel uint32, values []float64, itemsPerSlot int) ([][]byte, []Envelope) {
	n := (reductionLevel + binSize - 1) / binSize
	if n == 0 {
		n = 1
	}
	var blocks [][]byte
	var envs []Envelope
	var body []byte
	var first, last uint32
	count := 0

	flush := func() {
		if count == 0 {
			return
		}
		blocks = append(blocks, body)
		envs = append(envs, Envelope{Start: first, End: last})
		body = nil
		count = 0
	}

	for i := 0; i < len(values); i += int(n) {
		end := i + int(n)
		if end > len(values) {
			end = len(values)
		}
		var z ZoomRecord
		z.ChromID = chromID
		z.Start = binOffset + uint32(i)*binSize
		z.End = binOffset + uint32(end)*binSize
		for _, v := range values[i:end] {
			z.AddValue(v)
		}
		if z.Valid == 0 {
			continue
		}
		if count == 0 {
			first = z.Start
		}
		last = z.End
		rec := make([]byte, ZoomRecordSize)
		z.Encode(rec)
		body = append(body, rec...)
		count++
		if count >= itemsPerSlot {
			flush()
		}
	}
	flush()
	return blocks, envs
}
