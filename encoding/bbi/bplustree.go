package bbi

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

// BData is the chromosome B+ tree: a sorted list of (name, {chrom_id,
// length}) entries addressable by NUL-padded fixed-width key (spec §4.5).
type BData struct {
	KeySize       uint32
	ValueSize     uint32
	ItemsPerBlock uint32
	ItemCount     uint64
	Keys          [][]byte
	Values        [][]byte
}

// Add appends one (key, value) pair; both must already match KeySize and
// ValueSize.
func (d *BData) Add(key, value []byte) error {
	if uint32(len(key)) != d.KeySize {
		return errors.New("bbi: chromosome key has wrong size")
	}
	if uint32(len(value)) != d.ValueSize {
		return errors.New("bbi: chromosome value has wrong size")
	}
	d.Keys = append(d.Keys, key)
	d.Values = append(d.Values, value)
	d.ItemCount++
	return nil
}

func (d *BData) Read(r io.ReadSeeker) error {
	var magic uint32
	if err := binary.Read(r, le, &magic); err != nil {
		return err
	}
	if magic != CirTreeMagic {
		return errors.Errorf("bbi: invalid chromosome tree magic %#x", magic)
	}
	if err := binary.Read(r, le, &d.ItemsPerBlock); err != nil {
		return err
	}
	if err := binary.Read(r, le, &d.KeySize); err != nil {
		return err
	}
	if err := binary.Read(r, le, &d.ValueSize); err != nil {
		return err
	}
	if err := binary.Read(r, le, &d.ItemCount); err != nil {
		return err
	}
	var pad1, pad2 uint32
	if err := binary.Read(r, le, &pad1); err != nil {
		return err
	}
	if err := binary.Read(r, le, &pad2); err != nil {
		return err
	}
	return d.readVertex(r)
}

func (d *BData) readVertex(r io.ReadSeeker) error {
	var isLeaf, pad uint8
	if err := binary.Read(r, le, &isLeaf); err != nil {
		return err
	}
	if err := binary.Read(r, le, &pad); err != nil {
		return err
	}
	if isLeaf != 0 {
		return d.readVertexLeaf(r)
	}
	return d.readVertexIndex(r)
}

func (d *BData) readVertexLeaf(r io.ReadSeeker) error {
	var nVals uint16
	if err := binary.Read(r, le, &nVals); err != nil {
		return err
	}
	for i := 0; i < int(nVals); i++ {
		key := make([]byte, d.KeySize)
		value := make([]byte, d.ValueSize)
		if _, err := io.ReadFull(r, key); err != nil {
			return err
		}
		if _, err := io.ReadFull(r, value); err != nil {
			return err
		}
		d.Keys = append(d.Keys, key)
		d.Values = append(d.Values, value)
	}
	return nil
}

func (d *BData) readVertexIndex(r io.ReadSeeker) error {
	var nVals uint16
	if err := binary.Read(r, le, &nVals); err != nil {
		return err
	}
	for i := 0; i < int(nVals); i++ {
		key := make([]byte, d.KeySize)
		if _, err := io.ReadFull(r, key); err != nil {
			return err
		}
		var childOffset uint64
		if err := binary.Read(r, le, &childOffset); err != nil {
			return err
		}
		cur, err := r.Seek(0, io.SeekCurrent)
		if err != nil {
			return err
		}
		if _, err := r.Seek(int64(childOffset), io.SeekStart); err != nil {
			return err
		}
		if err := d.readVertex(r); err != nil {
			return err
		}
		if _, err := r.Seek(cur, io.SeekStart); err != nil {
			return err
		}
	}
	return nil
}

// Write serializes the tree, building internal nodes by grouping
// ItemsPerBlock children per level (spec §4.5) and patching each child's
// offset into its parent just before the child is written.
func (d *BData) Write(w io.WriteSeeker) error {
	if err := binary.Write(w, le, CirTreeMagic); err != nil {
		return err
	}
	if err := binary.Write(w, le, d.ItemsPerBlock); err != nil {
		return err
	}
	if err := binary.Write(w, le, d.KeySize); err != nil {
		return err
	}
	if err := binary.Write(w, le, d.ValueSize); err != nil {
		return err
	}
	if err := binary.Write(w, le, d.ItemCount); err != nil {
		return err
	}
	if err := binary.Write(w, le, uint64(0)); err != nil {
		return err
	}
	return d.writeVertex(w, 0, d.ItemCount)
}

func (d *BData) writeVertex(w io.WriteSeeker, from, to uint64) error {
	if to-from <= uint64(d.ItemsPerBlock) {
		return d.writeLeaf(w, from, to)
	}
	return d.writeIndex(w, from, to)
}

func (d *BData) writeLeaf(w io.WriteSeeker, from, to uint64) error {
	if err := binary.Write(w, le, uint8(1)); err != nil {
		return err
	}
	if err := binary.Write(w, le, uint8(0)); err != nil {
		return err
	}
	if err := binary.Write(w, le, uint16(to-from)); err != nil {
		return err
	}
	for i := from; i < to; i++ {
		if uint32(len(d.Keys[i])) != d.KeySize {
			return errors.Errorf("bbi: key %d has invalid size", i)
		}
		if uint32(len(d.Values[i])) != d.ValueSize {
			return errors.Errorf("bbi: value %d has invalid size", i)
		}
		if _, err := w.Write(d.Keys[i]); err != nil {
			return err
		}
		if _, err := w.Write(d.Values[i]); err != nil {
			return err
		}
	}
	return nil
}

func (d *BData) writeIndex(w io.WriteSeeker, from, to uint64) error {
	n := to - from
	numGroups := uint64(d.ItemsPerBlock)
	if numGroups > n {
		numGroups = n
	}
	groupSize := (n + numGroups - 1) / numGroups
	var bounds [][2]uint64
	for cur := from; cur < to; {
		end := cur + groupSize
		if end > to {
			end = to
		}
		bounds = append(bounds, [2]uint64{cur, end})
		cur = end
	}

	if err := binary.Write(w, le, uint8(0)); err != nil {
		return err
	}
	if err := binary.Write(w, le, uint8(0)); err != nil {
		return err
	}
	if err := binary.Write(w, le, uint16(len(bounds))); err != nil {
		return err
	}

	ptrs := make([]int64, len(bounds))
	for i, b := range bounds {
		if _, err := w.Write(d.Keys[b[0]]); err != nil {
			return err
		}
		off, err := w.Seek(0, io.SeekCurrent)
		if err != nil {
			return err
		}
		ptrs[i] = off
		if err := binary.Write(w, le, uint64(0)); err != nil {
			return err
		}
	}
	for i, b := range bounds {
		childOff, err := w.Seek(0, io.SeekCurrent)
		if err != nil {
			return err
		}
		if err := writeUint64At(w, ptrs[i], uint64(childOff)); err != nil {
			return err
		}
		if err := d.writeVertex(w, b[0], b[1]); err != nil {
			return err
		}
	}
	return nil
}
