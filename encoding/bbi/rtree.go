package bbi

import (
	"encoding/binary"
	"io"

	"github.com/klauspost/compress/zlib"
	"github.com/pkg/errors"
)

// RVertex is one R-tree node: either a leaf holding (dataOffset, size) for
// each of its data blocks, or an internal node holding child offsets (spec
// §4.5).
type RVertex struct {
	IsLeaf      uint8
	NChildren   uint16
	ChrIdxStart []uint32
	BaseStart   []uint32
	ChrIdxEnd   []uint32
	BaseEnd     []uint32
	DataOffset  []uint64
	Sizes       []uint64
	Children    []*RVertex

	ptrDataOffset []int64
	ptrSizes      []int64
}

// ReadBlock fetches and, if the file is compressed, inflates the i'th leaf
// block this vertex references.
func (v *RVertex) ReadBlock(r io.ReadSeeker, uncompressBufSize uint32, i int) ([]byte, error) {
	block := make([]byte, v.Sizes[i])
	cur, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, err
	}
	if _, err := r.Seek(int64(v.DataOffset[i]), io.SeekStart); err != nil {
		return nil, err
	}
	if _, err := io.ReadFull(r, block); err != nil {
		return nil, err
	}
	if _, err := r.Seek(cur, io.SeekStart); err != nil {
		return nil, err
	}
	if uncompressBufSize == 0 {
		return block, nil
	}
	zr, err := zlib.NewReader(bytesReader(block))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	return io.ReadAll(zr)
}

func (v *RVertex) read(r io.ReadSeeker) error {
	var pad uint8
	if err := binary.Read(r, le, &v.IsLeaf); err != nil {
		return err
	}
	if err := binary.Read(r, le, &pad); err != nil {
		return err
	}
	if err := binary.Read(r, le, &v.NChildren); err != nil {
		return err
	}
	n := int(v.NChildren)
	v.ChrIdxStart = make([]uint32, n)
	v.BaseStart = make([]uint32, n)
	v.ChrIdxEnd = make([]uint32, n)
	v.BaseEnd = make([]uint32, n)
	v.DataOffset = make([]uint64, n)
	if v.IsLeaf != 0 {
		v.Sizes = make([]uint64, n)
	} else {
		v.Children = make([]*RVertex, n)
	}
	for i := 0; i < n; i++ {
		if err := binary.Read(r, le, &v.ChrIdxStart[i]); err != nil {
			return err
		}
		if err := binary.Read(r, le, &v.BaseStart[i]); err != nil {
			return err
		}
		if err := binary.Read(r, le, &v.ChrIdxEnd[i]); err != nil {
			return err
		}
		if err := binary.Read(r, le, &v.BaseEnd[i]); err != nil {
			return err
		}
		if err := binary.Read(r, le, &v.DataOffset[i]); err != nil {
			return err
		}
		if v.IsLeaf != 0 {
			if err := binary.Read(r, le, &v.Sizes[i]); err != nil {
				return err
			}
		}
	}
	if v.IsLeaf == 0 {
		for i := 0; i < n; i++ {
			if _, err := r.Seek(int64(v.DataOffset[i]), io.SeekStart); err != nil {
				return err
			}
			child := &RVertex{}
			if err := child.read(r); err != nil {
				return err
			}
			v.Children[i] = child
		}
	}
	return nil
}

func (v *RVertex) write(w io.WriteSeeker) error {
	n := int(v.NChildren)
	v.ptrDataOffset = make([]int64, n)
	v.ptrSizes = make([]int64, n)

	if err := binary.Write(w, le, v.IsLeaf); err != nil {
		return err
	}
	if err := binary.Write(w, le, uint8(0)); err != nil {
		return err
	}
	if err := binary.Write(w, le, v.NChildren); err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		if err := binary.Write(w, le, v.ChrIdxStart[i]); err != nil {
			return err
		}
		if err := binary.Write(w, le, v.BaseStart[i]); err != nil {
			return err
		}
		if err := binary.Write(w, le, v.ChrIdxEnd[i]); err != nil {
			return err
		}
		if err := binary.Write(w, le, v.BaseEnd[i]); err != nil {
			return err
		}
		off, err := w.Seek(0, io.SeekCurrent)
		if err != nil {
			return err
		}
		v.ptrDataOffset[i] = off
		if err := binary.Write(w, le, v.DataOffset[i]); err != nil {
			return err
		}
		if v.IsLeaf != 0 {
			soff, err := w.Seek(0, io.SeekCurrent)
			if err != nil {
				return err
			}
			v.ptrSizes[i] = soff
			if err := binary.Write(w, le, v.Sizes[i]); err != nil {
				return err
			}
		}
	}
	if v.IsLeaf == 0 {
		for i := 0; i < n; i++ {
			off, err := w.Seek(0, io.SeekCurrent)
			if err != nil {
				return err
			}
			v.DataOffset[i] = uint64(off)
			if err := writeUint64At(w, v.ptrDataOffset[i], v.DataOffset[i]); err != nil {
				return err
			}
			if err := v.Children[i].write(w); err != nil {
				return err
			}
		}
	}
	return nil
}

// RTree is the spatial index over data blocks (spec §4.5).
type RTree struct {
	BlockSize      uint32
	NItems         uint64
	ChrIdxStart    uint32
	BaseStart      uint32
	ChrIdxEnd      uint32
	BaseEnd        uint32
	IdxSize        uint64
	NItemsPerSlot  uint32
	Root           *RVertex

	ptrIdxSize int64
}

// NewRTree returns an RTree ready for BuildTree, with the given node fanout
// and (informational) items-per-leaf-slot.
func NewRTree(blockSize, itemsPerSlot uint32) *RTree {
	return &RTree{BlockSize: blockSize, NItemsPerSlot: itemsPerSlot}
}

// LeafEntry is one data block's envelope, fed to BuildTree in block-write
// order (spec §4.5's "ordered sequence of leaf entries").
type LeafEntry struct {
	ChrIdxStart, ChrIdxEnd uint32
	BaseStart, BaseEnd     uint32
	DataOffset, Size       uint64
}

// BuildTree constructs the tree bottom-up: leaves are grouped into R-nodes
// of at most BlockSize entries, then those nodes are grouped recursively
// until one root remains (spec §4.5).
func (t *RTree) BuildTree(leaves []LeafEntry) error {
	t.NItems = uint64(len(leaves))
	if len(leaves) == 0 {
		return nil
	}
	vertices := make([]*RVertex, 0, (len(leaves)+int(t.BlockSize)-1)/int(t.BlockSize))
	for i := 0; i < len(leaves); i += int(t.BlockSize) {
		end := i + int(t.BlockSize)
		if end > len(leaves) {
			end = len(leaves)
		}
		group := leaves[i:end]
		v := &RVertex{IsLeaf: 1, NChildren: uint16(len(group))}
		for _, le := range group {
			v.ChrIdxStart = append(v.ChrIdxStart, le.ChrIdxStart)
			v.BaseStart = append(v.BaseStart, le.BaseStart)
			v.ChrIdxEnd = append(v.ChrIdxEnd, le.ChrIdxEnd)
			v.BaseEnd = append(v.BaseEnd, le.BaseEnd)
			v.DataOffset = append(v.DataOffset, le.DataOffset)
			v.Sizes = append(v.Sizes, le.Size)
		}
		vertices = append(vertices, v)
	}
	for len(vertices) > 1 {
		var next []*RVertex
		for i := 0; i < len(vertices); i += int(t.BlockSize) {
			end := i + int(t.BlockSize)
			if end > len(vertices) {
				end = len(vertices)
			}
			group := vertices[i:end]
			v := &RVertex{NChildren: uint16(len(group)), Children: group}
			for _, c := range group {
				n := c.NChildren
				v.ChrIdxStart = append(v.ChrIdxStart, c.ChrIdxStart[0])
				v.ChrIdxEnd = append(v.ChrIdxEnd, c.ChrIdxEnd[n-1])
				v.BaseStart = append(v.BaseStart, c.BaseStart[0])
				v.BaseEnd = append(v.BaseEnd, c.BaseEnd[n-1])
				v.DataOffset = append(v.DataOffset, 0)
			}
			next = append(next, v)
		}
		vertices = next
	}
	t.Root = vertices[0]
	n := t.Root.NChildren
	t.ChrIdxStart = t.Root.ChrIdxStart[0]
	t.ChrIdxEnd = t.Root.ChrIdxEnd[n-1]
	t.BaseStart = t.Root.BaseStart[0]
	t.BaseEnd = t.Root.BaseEnd[n-1]
	return nil
}

func (t *RTree) Read(r io.ReadSeeker) error {
	var magic uint32
	if err := binary.Read(r, le, &magic); err != nil {
		return err
	}
	if magic != IdxMagic {
		return errors.Errorf("bbi: invalid R-tree magic %#x", magic)
	}
	if err := binary.Read(r, le, &t.BlockSize); err != nil {
		return err
	}
	if err := binary.Read(r, le, &t.NItems); err != nil {
		return err
	}
	if err := binary.Read(r, le, &t.ChrIdxStart); err != nil {
		return err
	}
	if err := binary.Read(r, le, &t.BaseStart); err != nil {
		return err
	}
	if err := binary.Read(r, le, &t.ChrIdxEnd); err != nil {
		return err
	}
	if err := binary.Read(r, le, &t.BaseEnd); err != nil {
		return err
	}
	if err := binary.Read(r, le, &t.IdxSize); err != nil {
		return err
	}
	if err := binary.Read(r, le, &t.NItemsPerSlot); err != nil {
		return err
	}
	var pad uint32
	if err := binary.Read(r, le, &pad); err != nil {
		return err
	}
	t.Root = &RVertex{}
	return t.Root.read(r)
}

func (t *RTree) Write(w io.WriteSeeker) error {
	start, err := w.Seek(0, io.SeekCurrent)
	if err != nil {
		return err
	}
	if err := binary.Write(w, le, IdxMagic); err != nil {
		return err
	}
	if err := binary.Write(w, le, t.BlockSize); err != nil {
		return err
	}
	if err := binary.Write(w, le, t.NItems); err != nil {
		return err
	}
	if err := binary.Write(w, le, t.ChrIdxStart); err != nil {
		return err
	}
	if err := binary.Write(w, le, t.BaseStart); err != nil {
		return err
	}
	if err := binary.Write(w, le, t.ChrIdxEnd); err != nil {
		return err
	}
	if err := binary.Write(w, le, t.BaseEnd); err != nil {
		return err
	}
	t.ptrIdxSize, err = w.Seek(0, io.SeekCurrent)
	if err != nil {
		return err
	}
	if err := binary.Write(w, le, t.IdxSize); err != nil {
		return err
	}
	if err := binary.Write(w, le, t.NItemsPerSlot); err != nil {
		return err
	}
	if err := binary.Write(w, le, uint32(0)); err != nil {
		return err
	}
	if t.Root != nil {
		if err := t.Root.write(w); err != nil {
			return err
		}
	}
	end, err := w.Seek(0, io.SeekCurrent)
	if err != nil {
		return err
	}
	t.IdxSize = uint64(end - start)
	return writeUint64At(w, t.ptrIdxSize, t.IdxSize)
}

// Traverse walks the tree and invokes visit(vertex, childIndex) for every
// leaf entry overlapping [from,to) on chromId, per spec §4.5's traversal
// rule (skip children outside the chromosome range or bounding box).
func (t *RTree) Traverse(chromID, from, to uint32, visit func(v *RVertex, i int) error) error {
	if t.Root == nil {
		return nil
	}
	return traverseVertex(t.Root, chromID, from, to, visit)
}

func traverseVertex(v *RVertex, chromID, from, to uint32, visit func(v *RVertex, i int) error) error {
	for i := 0; i < int(v.NChildren); i++ {
		if v.ChrIdxEnd[i] < chromID || v.ChrIdxStart[i] > chromID {
			continue
		}
		if v.ChrIdxStart[i] == chromID && v.ChrIdxEnd[i] == chromID {
			if v.BaseEnd[i] <= from {
				continue
			}
			if v.BaseStart[i] >= to {
				break
			}
		}
		if v.IsLeaf != 0 {
			if err := visit(v, i); err != nil {
				return err
			}
			continue
		}
		if err := traverseVertex(v.Children[i], chromID, from, to, visit); err != nil {
			return err
		}
	}
	return nil
}
