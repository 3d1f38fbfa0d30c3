package bgzf

import (
	"bytes"
	"encoding/binary"
	"io"
	"testing"

	"github.com/klauspost/compress/flate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// makeBlock assembles one well-formed BGZF member wrapping payload.
func makeBlock(t *testing.T, payload []byte) []byte {
	t.Helper()
	var compressed bytes.Buffer
	fw, err := flate.NewWriter(&compressed, flate.DefaultCompression)
	require.NoError(t, err)
	_, err = fw.Write(payload)
	require.NoError(t, err)
	require.NoError(t, fw.Close())

	// header(10) + xlen(2) + extra(6, the BC subfield) + compressed + footer(8)
	totalSize := gzipHeaderLen + 2 + 6 + compressed.Len() + 8

	var buf bytes.Buffer
	buf.Write([]byte{0x1f, 0x8b, 8, flagExtra, 0, 0, 0, 0, 0, 0xff})
	var xlen [2]byte
	binary.LittleEndian.PutUint16(xlen[:], 6)
	buf.Write(xlen[:])
	buf.WriteByte(66) // 'B'
	buf.WriteByte(67) // 'C'
	var slen [2]byte
	binary.LittleEndian.PutUint16(slen[:], 2)
	buf.Write(slen[:])
	var bsize [2]byte
	binary.LittleEndian.PutUint16(bsize[:], uint16(totalSize-1))
	buf.Write(bsize[:])
	buf.Write(compressed.Bytes())
	buf.Write(make([]byte, 8)) // CRC32+ISIZE footer, unchecked by the reader

	return buf.Bytes()
}

func eofTerminator() []byte {
	return makeBlockRaw(nil)
}

func makeBlockRaw(payload []byte) []byte {
	var compressed bytes.Buffer
	fw, _ := flate.NewWriter(&compressed, flate.DefaultCompression)
	fw.Write(payload)
	fw.Close()
	totalSize := gzipHeaderLen + 2 + 6 + compressed.Len() + 8
	var buf bytes.Buffer
	buf.Write([]byte{0x1f, 0x8b, 8, flagExtra, 0, 0, 0, 0, 0, 0xff})
	var xlen [2]byte
	binary.LittleEndian.PutUint16(xlen[:], 6)
	buf.Write(xlen[:])
	buf.WriteByte(66)
	buf.WriteByte(67)
	var slen [2]byte
	binary.LittleEndian.PutUint16(slen[:], 2)
	buf.Write(slen[:])
	var bsize [2]byte
	binary.LittleEndian.PutUint16(bsize[:], uint16(totalSize-1))
	buf.Write(bsize[:])
	buf.Write(compressed.Bytes())
	buf.Write(make([]byte, 8))
	return buf.Bytes()
}

func TestReaderSingleBlock(t *testing.T) {
	payload := []byte("hello, bgzf world")
	stream := makeBlock(t, payload)
	r := NewReader(bytes.NewReader(stream))

	got := make([]byte, len(payload))
	n, err := r.Read(got)
	require.NoError(t, err)
	assert.Equal(t, len(payload), n)
	assert.Equal(t, payload, got)

	ef, ok := r.FirstExtra()
	require.True(t, ok)
	assert.EqualValues(t, 66, ef.SI1)
	assert.EqualValues(t, 67, ef.SI2)
	assert.EqualValues(t, 2, ef.SLen)
}

func TestReaderCrossesBlockBoundary(t *testing.T) {
	var stream bytes.Buffer
	stream.Write(makeBlock(t, []byte("abc")))
	stream.Write(makeBlock(t, []byte("defgh")))
	stream.Write(eofTerminator())

	r := NewReader(&stream)
	got := make([]byte, 8)
	n, err := io.ReadFull(r, got)
	require.NoError(t, err)
	assert.Equal(t, 8, n)
	assert.Equal(t, []byte("abcdefgh"), got)
}
