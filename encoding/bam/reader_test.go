package bam

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// bamBuilder assembles a minimal, well-formed in-memory BAM byte stream for
// testing the decoder without needing a real .bam fixture.
type bamBuilder struct {
	buf bytes.Buffer
}

func (b *bamBuilder) u8(v byte)     { b.buf.WriteByte(v) }
func (b *bamBuilder) u16(v uint16)  { var t [2]byte; binary.LittleEndian.PutUint16(t[:], v); b.buf.Write(t[:]) }
func (b *bamBuilder) i32(v int32)   { var t [4]byte; binary.LittleEndian.PutUint32(t[:], uint32(v)); b.buf.Write(t[:]) }
func (b *bamBuilder) u32(v uint32)  { var t [4]byte; binary.LittleEndian.PutUint32(t[:], v); b.buf.Write(t[:]) }
func (b *bamBuilder) raw(p []byte)  { b.buf.Write(p) }

func (b *bamBuilder) header(text string, names []string, lengths []int32) {
	b.raw(Magic[:])
	b.i32(int32(len(text)))
	b.raw([]byte(text))
	b.i32(int32(len(names)))
	for i, n := range names {
		b.i32(int32(len(n) + 1))
		b.raw([]byte(n))
		b.u8(0)
		b.i32(lengths[i])
	}
}

// record writes one alignment record named "read1" with the given cigar ops,
// sequence bases (packed as 4-bit codes, two per byte), and quality; aux is
// raw pre-encoded aux bytes.
func (b *bamBuilder) record(refID, pos int32, mapq byte, flag uint16, cigar []uint32, bases string, qual []byte, aux []byte) {
	name := "r1"
	_ = name
	nameBytes := []byte("read1")
	nameBytes = append(nameBytes, 0)
	lSeq := int32(len(bases))
	seqBytes := packSeq(bases)

	var body bytes.Buffer
	w := func(v int32) {
		var t [4]byte
		binary.LittleEndian.PutUint32(t[:], uint32(v))
		body.Write(t[:])
	}
	w(refID)
	w(pos)
	binMQNL := uint32(mapq)<<8 | uint32(len(nameBytes))
	var t4 [4]byte
	binary.LittleEndian.PutUint32(t4[:], binMQNL)
	body.Write(t4[:])
	flagNC := uint32(flag)<<16 | uint32(len(cigar))
	binary.LittleEndian.PutUint32(t4[:], flagNC)
	body.Write(t4[:])
	w(lSeq)
	w(-1) // next_ref_id
	w(-1) // next_pos
	w(0)  // tlen
	body.Write(nameBytes)
	for _, c := range cigar {
		binary.LittleEndian.PutUint32(t4[:], c)
		body.Write(t4[:])
	}
	body.Write(seqBytes)
	if qual != nil {
		body.Write(qual)
	} else {
		for i := int32(0); i < lSeq; i++ {
			body.WriteByte(0xff)
		}
	}
	body.Write(aux)

	b.i32(int32(body.Len()))
	b.raw(body.Bytes())
}

func packSeq(bases string) []byte {
	idx := map[byte]byte{}
	for i := 0; i < len(Alphabet); i++ {
		idx[Alphabet[i]] = byte(i)
	}
	out := make([]byte, (len(bases)+1)/2)
	for i := 0; i < len(bases); i++ {
		n := idx[bases[i]]
		if i%2 == 0 {
			out[i/2] |= n << 4
		} else {
			out[i/2] |= n
		}
	}
	return out
}

func TestReaderSmoke(t *testing.T) {
	var b bamBuilder
	b.header("@HD\tVN:1.6\n", []string{"ref", "ref2"}, []int32{45, 40})
	cigar := uint32(4)<<4 | CigarMatch
	b.record(0, 10, 30, uint16(FlagPaired|FlagProperPair), []uint32{cigar}, "ACGT", nil, nil)

	r, err := NewReader(&b.buf, DefaultReaderOptions())
	require.NoError(t, err)

	g := r.Genome()
	require.Equal(t, 2, g.NChromosomes())
	assert.Equal(t, "ref", g.Name(0))
	assert.Equal(t, 45, g.Length(0))
	assert.Equal(t, "ref2", g.Name(1))
	assert.Equal(t, 40, g.Length(1))

	rec, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, "read1", rec.Name)
	assert.Equal(t, 10, rec.Pos)
	assert.Equal(t, "ACGT", rec.Seq.String())
	assert.Equal(t, 4, rec.Cigar.AlignmentLength())
	assert.True(t, rec.Flag.Paired())
	assert.True(t, rec.Flag.ProperPair())
	assert.Nil(t, rec.Qual) // all-0xff means "no quality"

	_, err = r.Next()
	assert.Error(t, err) // EOF at the next block_size read
}

func TestReaderSkipsFieldsPerOptions(t *testing.T) {
	var b bamBuilder
	b.header("", []string{"chr1"}, []int32{100})
	cigar := uint32(4)<<4 | CigarMatch
	b.record(0, 5, 1, 0, []uint32{cigar}, "ACGT", []byte{10, 20, 30, 40}, nil)

	r, err := NewReader(&b.buf, ReaderOptions{ReadName: false, ReadCigar: false, ReadSequence: false, ReadQual: false, ReadAuxiliary: false})
	require.NoError(t, err)

	rec, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, "", rec.Name)
	assert.Nil(t, rec.Cigar)
	assert.Equal(t, 0, rec.Seq.Length)
	assert.Nil(t, rec.Qual)
}

func TestAuxFieldParsing(t *testing.T) {
	var aux bytes.Buffer
	aux.WriteString("NM")
	aux.WriteByte('i')
	var t4 [4]byte
	binary.LittleEndian.PutUint32(t4[:], 7)
	aux.Write(t4[:])
	aux.WriteString("RG")
	aux.WriteByte('Z')
	aux.WriteString("group1")
	aux.WriteByte(0)

	fields, err := parseAuxFields(aux.Bytes())
	require.NoError(t, err)
	require.Len(t, fields, 2)
	assert.Equal(t, int64(7), fields[0].Value)
	assert.Equal(t, "group1", fields[1].Value)
}
