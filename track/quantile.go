package track

import "sort"

// cumDist is an empirical cumulative distribution built from value→count
// observations: x is the sorted distinct values, y[i] is the cumulative
// count of observations <= x[i]. Grounded on CumDist in
// original_source/src/utility_cumdist.rs, the teacher-language's own name
// for this structure (spec §4.9's "empirical CDF").
type cumDist struct {
	x []float64
	y []int
	n int
}

// newCumDist builds a cumDist from a value→occurrence-count map.
func newCumDist(counts map[float64]int) cumDist {
	x := make([]float64, 0, len(counts))
	for v := range counts {
		x = append(x, v)
	}
	sort.Float64s(x)
	y := make([]int, len(x))
	total := 0
	for i, v := range x {
		total += counts[v]
		y[i] = total
	}
	return cumDist{x: x, y: y, n: total}
}

// newCumDistFromCounts builds a cumDist directly from parallel
// (value, cumulative count) slices, already sorted ascending by value —
// the shape quantile_normalize_to_counts takes a precomputed reference
// distribution in.
func newCumDistFromCounts(x []float64, y []int) cumDist {
	n := 0
	if len(y) > 0 {
		n = y[len(y)-1]
	}
	return cumDist{x: x, y: y, n: n}
}

// QuantileNormalizeToCounts remaps every finite value v in t to the value
// x_ref such that CDF_t(v) ≈ CDF_ref(x_ref), where the reference
// distribution is given directly as parallel (value, cumulative-count)
// slices. NaNs pass through unchanged (spec §4.9).
func (t Track) QuantileNormalizeToCounts(x []float64, y []int) {
	counts := make(map[float64]int)
	t.Map(func(_ string, _ int, v float64) float64 {
		if !isNaN(v) {
			counts[v]++
		}
		return v
	})

	distRef := newCumDistFromCounts(x, y)
	distIn := newCumDist(counts)
	if len(distRef.x) == 0 {
		return
	}

	mapping := quantileMapping(distIn, distRef)
	t.Map(func(_ string, _ int, v float64) float64 {
		if isNaN(v) {
			return v
		}
		if mapped, ok := mapping[v]; ok {
			return mapped
		}
		return v
	})
}

// QuantileNormalize remaps every finite value in t to the quantile-matched
// value of ref (spec §4.9).
func (t Track) QuantileNormalize(ref Track) {
	refCounts := make(map[float64]int)
	for _, seq := range ref.Data {
		for _, v := range seq {
			if !isNaN(v) {
				refCounts[v]++
			}
		}
	}
	inCounts := make(map[float64]int)
	t.Map(func(_ string, _ int, v float64) float64 {
		if !isNaN(v) {
			inCounts[v]++
		}
		return v
	})

	distRef := newCumDist(refCounts)
	distIn := newCumDist(inCounts)
	if len(distRef.x) == 0 {
		return
	}

	mapping := quantileMapping(distIn, distRef)
	t.Map(func(_ string, _ int, v float64) float64 {
		if isNaN(v) {
			return v
		}
		if mapped, ok := mapping[v]; ok {
			return mapped
		}
		return v
	})
}

// quantileMapping walks distIn and distRef in lockstep by cumulative
// probability, assigning each distIn value the distRef value whose
// cumulative probability it first reaches or exceeds (spec §4.9).
func quantileMapping(distIn, distRef cumDist) map[float64]float64 {
	mapping := make(map[float64]float64, len(distIn.x))
	if len(distIn.x) == 0 {
		return mapping
	}
	mapping[distIn.x[0]] = distRef.x[0]

	j := 1
	for i := 1; i < len(distRef.x); i++ {
		pRef := float64(distRef.y[i]) / float64(distRef.n)
		for j < len(distIn.x) {
			pIn := float64(distIn.y[j]) / float64(distIn.n)
			if pIn > pRef {
				break
			}
			mapping[distIn.x[j]] = distRef.x[i]
			j++
		}
	}
	return mapping
}

func isNaN(v float64) bool { return v != v }
