package bbi

import (
	"encoding/binary"
	"math"
)

// SummaryStatistics accumulates the five moments BigWig stores for a span of
// bases: how many are covered, their min/max, and the running sum/sum² used
// to derive mean and variance.
type SummaryStatistics struct {
	Valid      float64
	Min        float64
	Max        float64
	Sum        float64
	SumSquares float64
}

// NewSummaryStatistics returns the additive identity: zero valid bases, with
// Min/Max at +/-Inf so the first real value always wins.
func NewSummaryStatistics() SummaryStatistics {
	return SummaryStatistics{Min: math.Inf(1), Max: math.Inf(-1)}
}

func (s *SummaryStatistics) Add(o SummaryStatistics) {
	s.Valid += o.Valid
	if o.Min < s.Min {
		s.Min = o.Min
	}
	if o.Max > s.Max {
		s.Max = o.Max
	}
	s.Sum += o.Sum
	s.SumSquares += o.SumSquares
}

func (s *SummaryStatistics) Reset() { *s = NewSummaryStatistics() }

// Mean returns Sum/Valid, or NaN if no bases are covered.
func (s SummaryStatistics) Mean() float64 {
	if s.Valid == 0 {
		return math.NaN()
	}
	return s.Sum / s.Valid
}

// SummaryRecord is one decoded/aggregated data-block record: a chromosome
// span plus its statistics (spec §4.6).
type SummaryRecord struct {
	ChromID    int32
	From       int32
	To         int32
	Statistics SummaryStatistics
}

// NewSummaryRecord returns the record used as the accumulator's identity;
// ChromID -1 marks "nothing accumulated yet".
func NewSummaryRecord() SummaryRecord {
	return SummaryRecord{ChromID: -1, Statistics: NewSummaryStatistics()}
}

// AddRecord folds o into r, treating any gap between r.To and o.From as a
// run of implicit zeros (spec §4.6 query aggregation: "gap length ... valid
// += gap, min <- min(min,0), max <- max(max,0)").
func (r *SummaryRecord) AddRecord(o SummaryRecord) {
	if r.ChromID == -1 {
		r.ChromID = o.ChromID
		r.From = o.From
		r.To = o.From
	}
	if r.To < o.From {
		gap := float64(o.From - r.To)
		r.Statistics.Valid += gap
		if r.Statistics.Min > 0 {
			r.Statistics.Min = 0
		}
		if r.Statistics.Max < 0 {
			r.Statistics.Max = 0
		}
	}
	r.To = o.To
	r.Statistics.Add(o.Statistics)
}

func (r *SummaryRecord) Reset() {
	r.ChromID = -1
	r.From = 0
	r.To = 0
	r.Statistics.Reset()
}

// ZoomRecord is the fixed 32-byte aggregate record stored in zoom data
// blocks (spec §4.6).
type ZoomRecord struct {
	ChromID    uint32
	Start      uint32
	End        uint32
	Valid      uint32
	Min        float32
	Max        float32
	Sum        float32
	SumSquares float32
}

const ZoomRecordSize = 32

func (z *ZoomRecord) AddValue(x float64) {
	if math.IsNaN(x) {
		return
	}
	f := float32(x)
	if z.Valid == 0 || math.IsNaN(float64(z.Min)) || z.Min > f {
		z.Min = f
	}
	if z.Valid == 0 || math.IsNaN(float64(z.Max)) || z.Max < f {
		z.Max = f
	}
	z.Valid++
	z.Sum += f
	z.SumSquares += f * f
}

func (z *ZoomRecord) Decode(b []byte) {
	z.ChromID = le.Uint32(b[0:4])
	z.Start = le.Uint32(b[4:8])
	z.End = le.Uint32(b[8:12])
	z.Valid = le.Uint32(b[12:16])
	z.Min = math.Float32frombits(le.Uint32(b[16:20]))
	z.Max = math.Float32frombits(le.Uint32(b[20:24]))
	z.Sum = math.Float32frombits(le.Uint32(b[24:28]))
	z.SumSquares = math.Float32frombits(le.Uint32(b[28:32]))
}

func (z ZoomRecord) Encode(b []byte) {
	le.PutUint32(b[0:4], z.ChromID)
	le.PutUint32(b[4:8], z.Start)
	le.PutUint32(b[8:12], z.End)
	le.PutUint32(b[12:16], z.Valid)
	binary.LittleEndian.PutUint32(b[16:20], math.Float32bits(z.Min))
	binary.LittleEndian.PutUint32(b[20:24], math.Float32bits(z.Max))
	binary.LittleEndian.PutUint32(b[24:28], math.Float32bits(z.Sum))
	binary.LittleEndian.PutUint32(b[28:32], math.Float32bits(z.SumSquares))
}

// ToSummaryRecord projects a zoom record into the common SummaryRecord shape
// used by the query reducer.
func (z ZoomRecord) ToSummaryRecord() SummaryRecord {
	return SummaryRecord{
		ChromID: int32(z.ChromID),
		From:    int32(z.Start),
		To:      int32(z.End),
		Statistics: SummaryStatistics{
			Valid:      float64(z.Valid),
			Min:        float64(z.Min),
			Max:        float64(z.Max),
			Sum:        float64(z.Sum),
			SumSquares: float64(z.SumSquares),
		},
	}
}
