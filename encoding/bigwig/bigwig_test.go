package bigwig

import (
	"io"
	"math"
	"testing"

	"github.com/grailbio/bio-bigwig/genome"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memFile is a growable in-memory io.ReadWriteSeeker backing round-trip
// tests in place of an on-disk file.
type memFile struct {
	buf []byte
	pos int64
}

func (m *memFile) Write(p []byte) (int, error) {
	end := m.pos + int64(len(p))
	if end > int64(len(m.buf)) {
		grown := make([]byte, end)
		copy(grown, m.buf)
		m.buf = grown
	}
	copy(m.buf[m.pos:end], p)
	m.pos = end
	return len(p), nil
}

func (m *memFile) Read(p []byte) (int, error) {
	if m.pos >= int64(len(m.buf)) {
		return 0, io.EOF
	}
	n := copy(p, m.buf[m.pos:])
	m.pos += int64(n)
	return n, nil
}

func (m *memFile) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case io.SeekStart:
		m.pos = offset
	case io.SeekCurrent:
		m.pos += offset
	case io.SeekEnd:
		m.pos = int64(len(m.buf)) + offset
	}
	return m.pos, nil
}

func TestWriterReaderRoundTrip(t *testing.T) {
	g, err := genome.New([]string{"chr1", "chr2"}, []int{100, 50})
	require.NoError(t, err)

	f := &memFile{}
	w, err := NewWriter(f, g, DefaultParameters())
	require.NoError(t, err)

	v1 := make([]float64, 10)
	for i := range v1 {
		v1[i] = float64(i + 1)
	}
	v1[3] = math.NaN()
	require.NoError(t, w.WriteChromosome("chr1", v1, 10))

	v2 := []float64{5, 5, 5, 5, 5}
	require.NoError(t, w.WriteChromosome("chr2", v2, 10))

	require.NoError(t, w.Close())

	rd, err := NewReader(f)
	require.NoError(t, err)

	assert.Equal(t, 2, rd.Genome().NChromosomes())
	assert.Equal(t, "chr1", rd.Genome().Name(0))
	assert.Equal(t, 100, rd.Genome().Length(0))

	it, err := rd.Query("chr1", 0, 100, 10)
	require.NoError(t, err)

	var results []QueryResult
	for {
		r, err := it.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		results = append(results, r)
	}
	require.NotEmpty(t, results)
	assert.Equal(t, "chr1", results[0].Seqname)
	assert.EqualValues(t, 0, results[0].From)
	assert.EqualValues(t, 1, results[0].Statistics.Sum)
}
