package track

import (
	"math"
	"sort"

	"github.com/pkg/errors"
)

// MapFunc transforms one bin's value given its chromosome, genomic
// position, and current value.
type MapFunc func(seqname string, pos int, value float64) float64

// Map applies f to every bin of every chromosome, in place.
func (t Track) Map(f MapFunc) {
	for name, seq := range t.Data {
		for i, v := range seq {
			seq[i] = f(name, i*t.BinSize, v)
		}
	}
}

// WindowFunc transforms one bin given a centered window of values from the
// source track; window[len(window)/2] is the bin itself.
type WindowFunc func(seqname string, pos int, window []float64) float64

// WindowMap sets every bin of t to f applied to a centered window (size
// windowSize, NaN-padded at sequence edges) drawn from src. t and src must
// share a bin size and, per chromosome, a bin count.
func (t Track) WindowMap(src Track, windowSize int, f WindowFunc) error {
	if windowSize == 0 {
		return ErrInvalidWindowSize
	}
	if t.BinSize != src.BinSize {
		return ErrBinSizeMismatch
	}
	v := make([]float64, windowSize)
	for name, dst := range t.Data {
		source, ok := src.Data[name]
		if !ok {
			continue
		}
		if len(dst) != len(source) {
			return sequenceLengthMismatch(name, len(source), len(dst))
		}
		for i := range dst {
			fillWindow(v, source, i, windowSize)
			dst[i] = f(name, i*t.BinSize, v)
		}
	}
	return nil
}

func fillWindow(v, seq []float64, i, windowSize int) {
	for j := 0; j < windowSize; j++ {
		k := i - windowSize/2 + j
		if k < 0 || k >= len(seq) {
			v[j] = math.NaN()
		} else {
			v[j] = seq[k]
		}
	}
}

// MapListFunc transforms one bin of t given the aligned value from each
// track in a MapList/WindowMapList call.
type MapListFunc func(seqname string, pos int, values []float64) float64

// MapList sets every bin of t to f applied to the aligned values from
// tracks at that bin; tracks missing a chromosome are skipped for that
// chromosome (the values slice shrinks accordingly). All tracks must share
// t's bin size and, per present chromosome, its bin count.
func (t Track) MapList(tracks []Track, f MapListFunc) error {
	for _, tr := range tracks {
		if tr.BinSize != t.BinSize {
			return ErrBinSizeMismatch
		}
	}
	v := make([]float64, len(tracks))
	for name, dst := range t.Data {
		var sources [][]float64
		for _, tr := range tracks {
			seq, ok := tr.Data[name]
			if !ok {
				continue
			}
			if len(seq) != len(dst) {
				return sequenceLengthMismatch(name, len(seq), len(dst))
			}
			sources = append(sources, seq)
		}
		v = v[:len(sources)]
		for i := range dst {
			for j, seq := range sources {
				v[j] = seq[i]
			}
			dst[i] = f(name, i*t.BinSize, v)
		}
	}
	return nil
}

// WindowMapListFunc transforms one bin of t given, for each track in a
// WindowMapList call, a centered window of its values.
type WindowMapListFunc func(seqname string, pos int, windows [][]float64) float64

// WindowMapList is MapList with a centered window (size windowSize) drawn
// from each source track instead of a single aligned value.
func (t Track) WindowMapList(tracks []Track, windowSize int, f WindowMapListFunc) error {
	if windowSize == 0 {
		return ErrInvalidWindowSize
	}
	for _, tr := range tracks {
		if tr.BinSize != t.BinSize {
			return ErrBinSizeMismatch
		}
	}
	windows := make([][]float64, len(tracks))
	for i := range windows {
		windows[i] = make([]float64, windowSize)
	}
	for name, dst := range t.Data {
		var sources [][]float64
		for _, tr := range tracks {
			seq, ok := tr.Data[name]
			if !ok {
				continue
			}
			if len(seq) != len(dst) {
				return sequenceLengthMismatch(name, len(seq), len(dst))
			}
			sources = append(sources, seq)
		}
		active := windows[:len(sources)]
		for i := range dst {
			for j, seq := range sources {
				fillWindow(active[j], seq, i, windowSize)
			}
			dst[i] = f(name, i*t.BinSize, active)
		}
	}
	return nil
}

// Reduce folds f over every chromosome's bins in genomic order, seeded
// with x0, and returns the per-chromosome final accumulator.
func (t Track) Reduce(x0 float64, f func(seqname string, pos int, acc, value float64) float64) map[string]float64 {
	result := make(map[string]float64, len(t.Data))
	for _, name := range t.SeqNames() {
		seq := t.Data[name]
		if len(seq) == 0 {
			continue
		}
		acc := f(name, 0, x0, seq[0])
		for i := 1; i < len(seq); i++ {
			acc = f(name, i*t.BinSize, acc, seq[i])
		}
		result[name] = acc
	}
	return result
}

// Smoothen replaces every bin with the mean over the smallest (sorted)
// window from windowSizes whose centered sum reaches minCounts; if none
// does, the largest window is used regardless (spec §4.9).
func (t Track) Smoothen(minCounts float64, windowSizes []int) {
	if len(windowSizes) == 0 {
		return
	}
	sizes := append([]int(nil), windowSizes...)
	sort.Ints(sizes)

	for _, seq := range t.Data {
		nBins := len(seq)
		if nBins == 0 {
			continue
		}
		result := make([]float64, nBins)
		for i := range result {
			result[i] = math.Inf(-1)
		}

		for i := 0; i < nBins; i++ {
			var counts float64
			wsize := -1
			for _, w := range sizes {
				from := i - divIntUp(w-1, 2)
				to := i + divIntDown(w-1, 2)
				if from < 0 {
					to += -from
				}
				if to >= nBins {
					from -= to - (nBins - 1)
					to = nBins - 1
				}
				if from < 0 {
					from = 0
				}
				if to > nBins-1 {
					to = nBins - 1
				}
				counts = 0
				for j := from; j <= to; j++ {
					counts += seq[j]
				}
				wsize = to - from + 1
				if counts >= minCounts {
					break
				}
			}
			if wsize != -1 {
				result[i] = counts / float64(wsize)
			}
		}
		copy(seq, result)
	}
}

// Normalize combines t (treatment, in place) with control: for every bin
// present in both, v ← (v_t+c1)/(v_c+c2) × c2/c1, optionally natural-log
// transformed. c1, c2 must be strictly positive (spec §4.9).
func (t Track) Normalize(control Track, c1, c2 float64, logScale bool) error {
	if c1 <= 0 || c2 <= 0 {
		return errors.New("track: pseudocounts must be strictly positive")
	}
	for name, seq1 := range t.Data {
		seq2, ok := control.Data[name]
		if !ok {
			continue
		}
		for i := range seq1 {
			v := (seq1[i] + c1) / (seq2[i] + c2) * c2 / c1
			if logScale {
				v = math.Log(v)
			}
			seq1[i] = v
		}
	}
	return nil
}

func divIntUp(a, b int) int   { return (a + b - 1) / b }
func divIntDown(a, b int) int { return a / b }
