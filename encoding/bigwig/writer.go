package bigwig

import (
	"io"
	"math"

	"github.com/grailbio/bio-bigwig/encoding/bbi"
	"github.com/grailbio/bio-bigwig/genome"
	"github.com/pkg/errors"
)

// Parameters configures a Writer (spec §4.8).
type Parameters struct {
	BlockSize       uint32
	ItemsPerSlot    uint32
	ReductionLevels []uint32
}

// DefaultParameters returns block_size=256, items_per_slot=1024, and no
// fixed reduction levels (they are derived from the data at Close).
func DefaultParameters() Parameters {
	return Parameters{BlockSize: 256, ItemsPerSlot: 1024}
}

type chromValues struct {
	chromID int
	values  []float64
	binSize int
}

// Writer builds a BigWig file (spec §4.8). Each chromosome's bin vector is
// buffered until Close, when the base blocks, the zoom pyramid, and the
// chromosome/R-tree indexes are all written and every forward reference is
// patched.
type Writer struct {
	w      io.WriteSeeker
	params Parameters
	genome genome.Genome

	header *bbi.Header
	data   []chromValues
}

// NewWriter writes the placeholder header and data section start, and
// returns a Writer ready for WriteChromosome calls.
func NewWriter(w io.WriteSeeker, g genome.Genome, params Parameters) (*Writer, error) {
	if params.BlockSize == 0 {
		params.BlockSize = 256
	}
	if params.ItemsPerSlot == 0 {
		params.ItemsPerSlot = 1024
	}
	h := bbi.NewHeader(bbi.BigWigMagic)
	wr := &Writer{w: w, params: params, genome: g, header: h}

	if err := h.Write(w); err != nil {
		return nil, err
	}
	off, err := w.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, err
	}
	h.DataOffset = uint64(off)
	if err := h.WriteOffsets(w); err != nil {
		return nil, err
	}
	if err := writeU64(w, 0); err != nil {
		return nil, err
	}
	return wr, nil
}

func writeU64(w io.Writer, v uint64) error {
	var b [8]byte
	le.PutUint64(b[:], v)
	_, err := w.Write(b[:])
	return err
}

func writeU32(w io.Writer, v uint32) error {
	var b [4]byte
	le.PutUint32(b[:], v)
	_, err := w.Write(b[:])
	return err
}

// WriteChromosome buffers one chromosome's bin vector for encoding at
// Close. name must be present in the Genome this Writer was built with.
func (w *Writer) WriteChromosome(name string, values []float64, binSize int) error {
	idx, ok := w.genome.Index(name)
	if !ok {
		return errors.Errorf("bigwig: unknown chromosome %q", name)
	}
	w.data = append(w.data, chromValues{chromID: idx, values: values, binSize: binSize})
	return nil
}

// reductionLevels computes the zoom pyramid per spec §4.8: starting at
// max(100, 4*binSize) and multiplying by 4*binSize each step, until either
// the longest chromosome's bin count over the level drops below
// itemsPerSlot or MaxZoomLevels levels have been added.
func reductionLevels(configured []uint32, binSize, maxBins int, itemsPerSlot uint32) []uint32 {
	if configured != nil {
		return configured
	}
	if binSize <= 0 {
		return nil
	}
	var levels []uint32
	r := uint32(math.Max(100, float64(4*binSize)))
	for i := 0; i < bbi.MaxZoomLevels; i++ {
		levels = append(levels, r)
		if maxBins/int(r) < int(itemsPerSlot) {
			break
		}
		next := uint64(r) * uint64(4*binSize)
		if next > 0xFFFFFFFF {
			break
		}
		r = uint32(next)
	}
	return levels
}

// Close writes the base data blocks, the zoom pyramid, the chromosome tree
// and indexes, then patches every forward-referenced offset (spec §4.8
// steps 3-8). It must be called exactly once.
func (w *Writer) Close() error {
	var binSize int
	maxBins := 0
	for _, cv := range w.data {
		binSize = cv.binSize
		if len(cv.values) > maxBins {
			maxBins = len(cv.values)
		}
	}
	if binSize == 0 {
		binSize = 1
	}

	levels := reductionLevels(w.params.ReductionLevels, binSize, maxBins, w.params.ItemsPerSlot)
	if len(levels) > bbi.MaxZoomLevels {
		levels = levels[:bbi.MaxZoomLevels]
	}
	w.header.ZoomLevels = uint16(len(levels))
	w.header.ZoomHeaders = make([]bbi.ZoomHeader, len(levels))
	for i, r := range levels {
		w.header.ZoomHeaders[i].ReductionLevel = r
	}

	var baseLeaves []bbi.LeafEntry
	var nBlocks uint64
	for _, cv := range w.data {
		blocks, envs := bbi.EncodeVariable(uint32(cv.chromID), 0, uint32(binSize), cv.values, int(w.params.ItemsPerSlot))
		for i, block := range blocks {
			compressed, err := bbi.EncodeBlock(block, true)
			if err != nil {
				return err
			}
			if uint32(len(block)) > w.header.UncompressBufSize {
				w.header.UncompressBufSize = uint32(len(block))
			}
			off, err := w.w.Seek(0, io.SeekCurrent)
			if err != nil {
				return err
			}
			if _, err := w.w.Write(compressed); err != nil {
				return err
			}
			baseLeaves = append(baseLeaves, bbi.LeafEntry{
				ChrIdxStart: uint32(cv.chromID), ChrIdxEnd: uint32(cv.chromID),
				BaseStart: envs[i].Start, BaseEnd: envs[i].End,
				DataOffset: uint64(off), Size: uint64(len(compressed)),
			})
			nBlocks++
		}
		for _, v := range cv.values {
			w.header.SummaryAddValue(v, 1)
		}
	}
	w.header.ZoomLevels = uint16(len(levels))

	baseTree := bbi.NewRTree(w.params.BlockSize, w.params.ItemsPerSlot)
	if err := baseTree.BuildTree(baseLeaves); err != nil {
		return err
	}
	off, err := w.w.Seek(0, io.SeekCurrent)
	if err != nil {
		return err
	}
	w.header.IndexOffset = uint64(off)
	if err := baseTree.Write(w.w); err != nil {
		return err
	}

	for li, r := range levels {
		zoomOff, err := w.w.Seek(0, io.SeekCurrent)
		if err != nil {
			return err
		}
		w.header.ZoomHeaders[li].DataOffset = uint64(zoomOff)
		if err := writeU32(w.w, 0); err != nil {
			return err
		}
		var zoomLeaves []bbi.LeafEntry
		var zoomBlocks uint64
		for _, cv := range w.data {
			blocks, envs := bbi.EncodeZoom(uint32(cv.chromID), 0, uint32(binSize), r, cv.values, int(w.params.ItemsPerSlot))
			for i, block := range blocks {
				compressed, err := bbi.EncodeBlock(block, true)
				if err != nil {
					return err
				}
				if uint32(len(block)) > w.header.UncompressBufSize {
					w.header.UncompressBufSize = uint32(len(block))
				}
				boff, err := w.w.Seek(0, io.SeekCurrent)
				if err != nil {
					return err
				}
				if _, err := w.w.Write(compressed); err != nil {
					return err
				}
				zoomLeaves = append(zoomLeaves, bbi.LeafEntry{
					ChrIdxStart: uint32(cv.chromID), ChrIdxEnd: uint32(cv.chromID),
					BaseStart: envs[i].Start, BaseEnd: envs[i].End,
					DataOffset: uint64(boff), Size: uint64(len(compressed)),
				})
				zoomBlocks++
			}
		}
		if err := writeU32At(w.w, zoomOff, uint32(zoomBlocks)); err != nil {
			return err
		}
		zoomTree := bbi.NewRTree(w.params.BlockSize, w.params.ItemsPerSlot)
		if err := zoomTree.BuildTree(zoomLeaves); err != nil {
			return err
		}
		idxOff, err := w.w.Seek(0, io.SeekCurrent)
		if err != nil {
			return err
		}
		w.header.ZoomHeaders[li].IndexOffset = uint64(idxOff)
		if err := zoomTree.Write(w.w); err != nil {
			return err
		}
	}

	ctOff, err := w.w.Seek(0, io.SeekCurrent)
	if err != nil {
		return err
	}
	w.header.CtOffset = uint64(ctOff)
	chromData, err := w.buildChromTree()
	if err != nil {
		return err
	}
	if err := chromData.Write(w.w); err != nil {
		return err
	}

	if err := w.header.WriteSummary(w.w); err != nil {
		return err
	}
	if err := w.header.WriteOffsets(w.w); err != nil {
		return err
	}
	if err := w.header.WriteUncompressBufSize(w.w); err != nil {
		return err
	}
	return writeU64At(w.w, w.header.DataOffset, nBlocks)
}

func (w *Writer) buildChromTree() (*bbi.BData, error) {
	keySize := uint32(0)
	for _, name := range w.genome.Names() {
		if uint32(len(name)) > keySize {
			keySize = uint32(len(name))
		}
	}
	d := &bbi.BData{KeySize: keySize, ValueSize: 8, ItemsPerBlock: 256}
	for i, name := range w.genome.Names() {
		key := make([]byte, keySize)
		copy(key, name)
		val := make([]byte, 8)
		le.PutUint32(val[0:4], uint32(i))
		le.PutUint32(val[4:8], uint32(w.genome.Length(i)))
		if err := d.Add(key, val); err != nil {
			return nil, err
		}
	}
	return d, nil
}

func writeU32At(w io.WriteSeeker, at int64, v uint32) error {
	cur, err := w.Seek(0, io.SeekCurrent)
	if err != nil {
		return err
	}
	if _, err := w.Seek(at, io.SeekStart); err != nil {
		return err
	}
	if err := writeU32(w, v); err != nil {
		return err
	}
	_, err = w.Seek(cur, io.SeekStart)
	return err
}

func writeU64At(w io.WriteSeeker, at int64, v uint64) error {
	cur, err := w.Seek(0, io.SeekCurrent)
	if err != nil {
		return err
	}
	if _, err := w.Seek(at, io.SeekStart); err != nil {
		return err
	}
	if err := writeU64(w, v); err != nil {
		return err
	}
	_, err = w.Seek(cur, io.SeekStart)
	return err
}
