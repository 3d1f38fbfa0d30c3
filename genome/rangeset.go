package genome

import "sort"

// Merge coalesces overlapping or adjacent ranges and returns the disjoint
// ranges covering exactly their union, sorted by From. It is the genomic
// range-merge operation used by callers that need to collapse a scattered
// set of query regions (e.g. from a BED-style region list) into the minimal
// number of non-overlapping windows.
//
// The implementation walks a sorted sequence of interval endpoints rather
// than repeatedly re-scanning the input, the same two-pointer shape used by
// endpoint-index interval-union scanners: every "start" endpoint opens the
// union, every matching "end" endpoint closes it unless another interval is
// already open.
func Merge(ranges []Range) []Range {
	if len(ranges) == 0 {
		return nil
	}
	type endpoint struct {
		pos   int
		delta int // +1 at a From, -1 at a To
	}
	endpoints := make([]endpoint, 0, 2*len(ranges))
	for _, r := range ranges {
		if r.Len() == 0 {
			continue
		}
		endpoints = append(endpoints, endpoint{r.From, 1}, endpoint{r.To, -1})
	}
	if len(endpoints) == 0 {
		return nil
	}
	sort.Slice(endpoints, func(i, j int) bool {
		if endpoints[i].pos != endpoints[j].pos {
			return endpoints[i].pos < endpoints[j].pos
		}
		// Process opens before closes at the same position so that
		// back-to-back ranges merge into one.
		return endpoints[i].delta > endpoints[j].delta
	})

	var out []Range
	depth := 0
	var curFrom int
	for _, e := range endpoints {
		if depth == 0 && e.delta > 0 {
			curFrom = e.pos
		}
		depth += e.delta
		if depth == 0 {
			out = append(out, Range{From: curFrom, To: e.pos})
		}
	}
	return out
}
