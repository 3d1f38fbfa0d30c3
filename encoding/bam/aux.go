package bam

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/pkg/errors"
)

// AuxField is one BAM auxiliary ("tag") field: two tag bytes, a type code,
// and a value whose layout depends on the type code (spec §3, §4.3, §6).
type AuxField struct {
	Tag   [2]byte
	Type  byte
	Value interface{} // byte (A), int64, float64, string (Z or H), or ArrayValue (B)
}

// ArrayValue is the decoded form of a 'B' (typed array) auxiliary field.
type ArrayValue struct {
	ElemType byte // one of c,C,s,S,i,I,f
	Ints     []int64
	Floats   []float64
}

// jumps gives the fixed payload size, in bytes, of every single-value aux
// type; a negative entry marks a variable-length type ('Z','H','B') that
// needs its own parsing logic.
var jumps = [256]int{
	'A': 1,
	'c': 1, 'C': 1,
	's': 2, 'S': 2,
	'i': 4, 'I': 4,
	'f': 4,
	'Z': -1,
	'H': -1,
	'B': -1,
}

// arrayElemSize gives the per-element byte width of a 'B' array's inner
// type code.
var arrayElemSize = map[byte]int{
	'c': 1, 'C': 1,
	's': 2, 'S': 2,
	'i': 4, 'I': 4,
	'f': 4,
}

// parseAuxFields decodes the full run of auxiliary fields in buf, which
// must contain exactly the aux bytes (no trailing garbage).
func parseAuxFields(buf []byte) ([]AuxField, error) {
	var fields []AuxField
	i := 0
	for i < len(buf) {
		if i+3 > len(buf) {
			return nil, errors.New("bam: truncated auxiliary field tag/type")
		}
		f := AuxField{Tag: [2]byte{buf[i], buf[i+1]}, Type: buf[i+2]}
		vstart := i + 3
		switch j := jumps[f.Type]; {
		case j > 0:
			if vstart+j > len(buf) {
				return nil, errors.New("bam: truncated auxiliary field value")
			}
			val, err := decodeScalar(f.Type, buf[vstart:vstart+j])
			if err != nil {
				return nil, err
			}
			f.Value = val
			i = vstart + j
		case j < 0:
			switch f.Type {
			case 'Z', 'H':
				end := vstart
				for end < len(buf) && buf[end] != 0 {
					end++
				}
				if end == len(buf) {
					return nil, errors.New("bam: unterminated Z/H auxiliary string")
				}
				f.Value = string(buf[vstart:end])
				i = end + 1
			case 'B':
				if vstart+5 > len(buf) {
					return nil, errors.New("bam: truncated B auxiliary array header")
				}
				elemType := buf[vstart]
				n := int(int32(binary.LittleEndian.Uint32(buf[vstart+1 : vstart+5])))
				width, ok := arrayElemSize[elemType]
				if !ok {
					return nil, fmt.Errorf("bam: unknown B array element type %q", elemType)
				}
				dataStart := vstart + 5
				dataEnd := dataStart + n*width
				if dataEnd > len(buf) {
					return nil, errors.New("bam: truncated B auxiliary array data")
				}
				av, err := decodeArray(elemType, buf[dataStart:dataEnd], n)
				if err != nil {
					return nil, err
				}
				f.Value = av
				i = dataEnd
			}
		default:
			return nil, fmt.Errorf("bam: unrecognized auxiliary type code %q", f.Type)
		}
		fields = append(fields, f)
	}
	return fields, nil
}

func decodeScalar(typeCode byte, b []byte) (interface{}, error) {
	switch typeCode {
	case 'A':
		return b[0], nil
	case 'c':
		return int64(int8(b[0])), nil
	case 'C':
		return int64(b[0]), nil
	case 's':
		return int64(int16(binary.LittleEndian.Uint16(b))), nil
	case 'S':
		return int64(binary.LittleEndian.Uint16(b)), nil
	case 'i':
		return int64(int32(binary.LittleEndian.Uint32(b))), nil
	case 'I':
		return int64(binary.LittleEndian.Uint32(b)), nil
	case 'f':
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(b))), nil
	default:
		return nil, fmt.Errorf("bam: unsupported scalar aux type %q", typeCode)
	}
}

func decodeArray(elemType byte, b []byte, n int) (ArrayValue, error) {
	av := ArrayValue{ElemType: elemType}
	switch elemType {
	case 'f':
		av.Floats = make([]float64, n)
		for i := 0; i < n; i++ {
			av.Floats[i] = float64(math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:])))
		}
	default:
		av.Ints = make([]int64, n)
		width := arrayElemSize[elemType]
		for i := 0; i < n; i++ {
			chunk := b[i*width : i*width+width]
			v, err := decodeScalar(elemType, chunk)
			if err != nil {
				return av, err
			}
			av.Ints[i] = v.(int64)
		}
	}
	return av, nil
}
