package coverage

import (
	"io"
	"math"

	"github.com/grailbio/bio-bigwig/genome"
	"github.com/grailbio/bio-bigwig/read"
	"github.com/grailbio/bio-bigwig/track"
	"github.com/pkg/errors"
)

// CrossCorrelation computes the normalized cross-correlation
// ρ(ℓ) = ⟨(x−μx)(yℓ−μy)⟩ / √(σ²x·σ²y) between two single-base tracks
// (treated as per-chromosome signals and pooled length-weighted across
// chromosomes) over lags [from, to) (spec §4.10, grounded on
// original_source/src/track_statistics.rs's track_crosscorrelation).
func CrossCorrelation(track1, track2 track.Track, from, to int) (lags []int, rho []float64, err error) {
	if track1.BinSize != track2.BinSize {
		return nil, nil, track.ErrBinSizeMismatch
	}

	var sumX, sumXX float64
	var n float64
	for _, name := range track1.SeqNames() {
		seq1, ok := track1.Data[name]
		if !ok {
			continue
		}
		for _, v := range seq1 {
			if math.IsNaN(v) {
				continue
			}
			sumX += v
			sumXX += v * v
			n++
		}
	}
	if n == 0 {
		return nil, nil, errors.New("coverage: empty track in cross-correlation")
	}
	meanX := sumX / n
	varX := sumXX/n - meanX*meanX

	var sumY, sumYY float64
	var nY float64
	for _, name := range track2.SeqNames() {
		seq2, ok := track2.Data[name]
		if !ok {
			continue
		}
		for _, v := range seq2 {
			if math.IsNaN(v) {
				continue
			}
			sumY += v
			sumYY += v * v
			nY++
		}
	}
	meanY := sumY / nY
	varY := sumYY/nY - meanY*meanY

	denom := math.Sqrt(varX * varY)

	lags = make([]int, 0, to-from)
	rho = make([]float64, 0, to-from)
	for lag := from; lag < to; lag++ {
		var sumXY, nPairs float64
		for _, name := range track1.SeqNames() {
			seq1, ok1 := track1.Data[name]
			seq2, ok2 := track2.Data[name]
			if !ok1 || !ok2 {
				continue
			}
			shift := lag / track1.BinSize
			for i, v1 := range seq1 {
				j := i + shift
				if j < 0 || j >= len(seq2) {
					continue
				}
				v2 := seq2[j]
				if math.IsNaN(v1) || math.IsNaN(v2) {
					continue
				}
				sumXY += (v1 - meanX) * (v2 - meanY)
				nPairs++
			}
		}
		var r float64
		if nPairs == 0 || denom == 0 {
			r = 0
		} else {
			r = (sumXY / nPairs) / denom
		}
		lags = append(lags, lag)
		rho = append(rho, r)
	}
	return lags, rho, nil
}

// CrosscorrelateReads splits reads into forward- and reverse-strand
// single-base coverage tracks over g at binSize, for use as the two
// signals in CrossCorrelation. It also returns the mean read length and
// read count observed, used to pick the fragment-length search range
// (spec §4.10, grounded on
// original_source/src/track_statistics.rs's crosscorrelate_reads).
func CrosscorrelateReads(reads read.Iterator, g genome.Genome, binSize int) (forward, reverse track.Track, readLength int, n uint64, err error) {
	forward = track.Alloc("forward", g, 0, binSize)
	reverse = track.Alloc("reverse", g, 0, binSize)

	var lengthSum uint64
	for {
		r, e := reads.Next()
		if e == io.EOF {
			break
		}
		if e != nil {
			return track.Track{}, track.Track{}, 0, 0, e
		}
		length := r.Range.Len()
		var t track.Track
		switch r.Strand {
		case read.StrandPlus:
			t = forward
			r.Range = genome.Range{From: r.Range.From, To: r.Range.From + 1}
		case read.StrandMinus:
			t = reverse
			r.Range = genome.Range{From: r.Range.To, To: r.Range.To + 1}
		default:
			continue
		}
		if addErr := t.AddRead(r, 0); addErr != nil {
			continue
		}
		lengthSum += uint64(length)
		n++
	}
	if n > 0 {
		readLength = int(lengthSum / n)
	}
	return forward, reverse, readLength, n, nil
}

// EstimateFragmentLength searches lags in [max(readLength+readLength/2, 1),
// maxDelay) for the lag maximizing the forward/reverse cross-correlation,
// and returns it along with the full (lags, rho) scan (spec §4.10 step 3,
// grounded on original_source/src/track_statistics.rs's
// estimate_fragment_length). If fraglenRange is not {-1,-1}, the search is
// restricted to that [min, max) range instead of the default.
func EstimateFragmentLength(reads read.Iterator, g genome.Genome, binSize, maxDelay int, fraglenRange [2]int) (fraglen int, lags []int, rho []float64, n uint64, err error) {
	forward, reverse, readLength, n, err := CrosscorrelateReads(reads, g, binSize)
	if err != nil {
		return 0, nil, nil, 0, err
	}
	if n == 0 {
		return 0, nil, nil, 0, errors.New("coverage: no reads to estimate fragment length from")
	}

	from := readLength + readLength/2
	to := maxDelay
	if fraglenRange[0] != -1 {
		from = fraglenRange[0]
	}
	if fraglenRange[1] != -1 {
		to = fraglenRange[1]
	}
	if from < 1 {
		from = 1
	}
	if to <= from {
		to = from + 1
	}

	lags, rho, err = CrossCorrelation(forward, reverse, from, to)
	if err != nil {
		return 0, nil, nil, n, err
	}

	best := 0
	bestRho := math.Inf(-1)
	for i, r := range rho {
		if r > bestRho {
			bestRho = r
			best = i
		}
	}
	if len(lags) == 0 {
		return 0, lags, rho, n, errors.New("coverage: empty lag search range")
	}
	return lags[best], lags, rho, n, nil
}
