package bbi

import (
	"io"
)

// File is an open BBI container: header, chromosome tree, and the base and
// zoom R-trees (the latter lazily read on first use, per spec §4.7).
type File struct {
	Header    Header
	ChromData BData
	Index     RTree
	IndexZoom []*RTree

	r io.ReadSeeker
}

// Open reads the header, chromosome tree, and prepares (without yet
// reading) the zoom index slots. r must be positioned at offset 0 of a
// valid BBI file whose magic matches wantMagic.
func Open(r io.ReadSeeker, wantMagic uint32) (*File, error) {
	f := &File{r: r}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	if err := f.Header.Read(r, wantMagic); err != nil {
		return nil, err
	}
	if _, err := r.Seek(int64(f.Header.CtOffset), io.SeekStart); err != nil {
		return nil, err
	}
	if err := f.ChromData.Read(r); err != nil {
		return nil, err
	}
	f.IndexZoom = make([]*RTree, f.Header.ZoomLevels)
	return f, nil
}

func (f *File) ensureIndex() error {
	if f.Index.Root != nil {
		return nil
	}
	if _, err := f.r.Seek(int64(f.Header.IndexOffset), io.SeekStart); err != nil {
		return err
	}
	return f.Index.Read(f.r)
}

func (f *File) ensureZoomIndex(i int) error {
	if f.IndexZoom[i] != nil {
		return nil
	}
	t := &RTree{}
	if _, err := f.r.Seek(int64(f.Header.ZoomHeaders[i].IndexOffset), io.SeekStart); err != nil {
		return err
	}
	if err := t.Read(f.r); err != nil {
		return err
	}
	f.IndexZoom[i] = t
	return nil
}

// QueryType is one reduced record a query stream yields: an aggregate
// SummaryRecord plus the data kind it was derived from (spec §4.6).
type QueryType struct {
	Data     SummaryRecord
	DataType byte
}

// Query returns a lazy sequence of QueryType aggregates for
// [from,to) on chromID, reduced to windows of width binSize (spec §4.6
// "Query aggregation"). When binSize is 0, every decoded record is
// returned unreduced (the reader's native resolution). A zoom level is
// used automatically when one evenly divides binSize.
func (f *File) Query(chromID, from, to, binSize uint32) Iterator {
	zoomIdx := -1
	if binSize != 0 {
		for i, zh := range f.Header.ZoomHeaders {
			if binSize >= zh.ReductionLevel && binSize%zh.ReductionLevel == 0 {
				zoomIdx = i
				break
			}
		}
	}
	if zoomIdx >= 0 {
		return f.queryZoom(zoomIdx, chromID, from, to, binSize)
	}
	return f.queryRaw(chromID, from, to, binSize)
}

// Iterator is a lazy pull-based sequence of query results.
type Iterator interface {
	Next() (QueryType, error)
}

type sliceIterator struct {
	items []QueryType
	err   error
	i     int
}

func (s *sliceIterator) Next() (QueryType, error) {
	if s.i >= len(s.items) {
		if s.err != nil {
			return QueryType{}, s.err
		}
		return QueryType{}, io.EOF
	}
	item := s.items[s.i]
	s.i++
	return item, nil
}

func errIterator(err error) Iterator { return &sliceIterator{err: err} }

func (f *File) queryRaw(chromID, from, to, binSize uint32) Iterator {
	if err := f.ensureIndex(); err != nil {
		return errIterator(err)
	}
	var out []QueryType
	var result SummaryRecord
	result.Reset()
	var dataType byte
	err := f.Index.Traverse(chromID, from, to, func(v *RVertex, i int) error {
		block, err := v.ReadBlock(f.r, f.Header.UncompressBufSize, i)
		if err != nil {
			return err
		}
		records, err := DecodeRawBlock(block, false)
		if err != nil {
			return err
		}
		for _, rec := range records {
			if rec.ChromID != int32(chromID) || rec.From < int32(from) || rec.To > int32(to) {
				continue
			}
			if result.ChromID == -1 {
				result.ChromID = rec.ChromID
				result.From = rec.From
				result.To = rec.From
				dataType = TypeBedGraph
			}
			if uint32(result.To-result.From) >= binSize || result.From+int32(binSize) < rec.From {
				if result.From != result.To {
					out = append(out, QueryType{Data: result, DataType: dataType})
				}
				result.Reset()
			}
			result.AddRecord(rec)
		}
		return nil
	})
	if err != nil {
		return errIterator(err)
	}
	if result.ChromID != -1 {
		out = append(out, QueryType{Data: result, DataType: dataType})
	}
	return &sliceIterator{items: out}
}

func (f *File) queryZoom(zoomIdx int, chromID, from, to, binSize uint32) Iterator {
	if err := f.ensureZoomIndex(zoomIdx); err != nil {
		return errIterator(err)
	}
	tree := f.IndexZoom[zoomIdx]
	var out []QueryType
	var result SummaryRecord
	result.Reset()
	err := tree.Traverse(chromID, from, to, func(v *RVertex, i int) error {
		block, err := v.ReadBlock(f.r, f.Header.UncompressBufSize, i)
		if err != nil {
			return err
		}
		records, err := DecodeZoomBlock(block, false)
		if err != nil {
			return err
		}
		for _, zr := range records {
			rec := zr.ToSummaryRecord()
			if rec.ChromID != int32(chromID) || rec.From < int32(from) || rec.To > int32(to) {
				continue
			}
			if result.ChromID == -1 {
				result.ChromID = rec.ChromID
				result.From = rec.From
				result.To = rec.From
			}
			if uint32(result.To-result.From) >= binSize || result.From+int32(binSize) < rec.From {
				if result.From != result.To {
					out = append(out, QueryType{Data: result, DataType: TypeBedGraph})
				}
				result.Reset()
			}
			result.AddRecord(rec)
		}
		return nil
	})
	if err != nil {
		return errIterator(err)
	}
	if result.ChromID != -1 {
		out = append(out, QueryType{Data: result, DataType: TypeBedGraph})
	}
	return &sliceIterator{items: out}
}
