package pdf

import (
	"errors"
	"math"
	"sort"
)

// errDegenerateDistribution signals that percentile or histogram math is
// ill-defined for the given values (too few samples, zero IQR, or zero
// range). The classifier reacts by treating every block as body text.
var errDegenerateDistribution = errors.New("degenerate score distribution")

// percentile computes the q-th percentile (0..100) with linear
// interpolation between the two nearest ranks, matching the reference
// distribution math. Returns 0 for an empty input.
func percentile(values []float64, q float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return values[0]
	}

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	rank := (float64(n) - 1) * q / 100
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if hi >= n {
		hi = n - 1
	}
	frac := rank - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}

// median is the 50th percentile.
func median(values []float64) float64 {
	return percentile(values, 50)
}

// interquartileRange is p75 minus p25.
func interquartileRange(values []float64) float64 {
	return percentile(values, 75) - percentile(values, 25)
}

// deviationScores standardizes each value as |value - median| / IQR.
// A zero IQR yields all-zero scores rather than a division error.
func deviationScores(values []float64) []float64 {
	scores := make([]float64, len(values))
	if len(values) == 0 {
		return scores
	}

	m := median(values)
	iqr := interquartileRange(values)
	if iqr == 0 {
		return scores
	}
	for i, v := range values {
		scores[i] = math.Abs((v - m) / iqr)
	}
	return scores
}

// histogramBin is one equal-width bin over a score distribution.
// Bounds are the bin edges; Count is the number of samples inside.
type histogramBin struct {
	Lower float64
	Upper float64
	Count int
}

// contains reports bin membership. Both edges are inclusive: the
// downstream validity rule tests "lower <= score <= upper".
func (b histogramBin) contains(v float64) bool {
	return b.Lower <= v && v <= b.Upper
}

// sturgesBinCount is ceil(log2(n) + 1).
func sturgesBinCount(n int) int {
	return int(math.Ceil(math.Log2(float64(n)) + 1))
}

// freedmanDiaconisBinCount derives a bin count from the sample IQR:
// width = 2*IQR/n^(1/3), count = ceil(range/width). The second return
// is false when the rule is undefined (zero IQR or zero range).
func freedmanDiaconisBinCount(values []float64) (int, bool) {
	n := len(values)
	iqr := interquartileRange(values)
	if iqr == 0 {
		return 0, false
	}
	width := 2 * iqr / math.Cbrt(float64(n))

	minV, maxV := values[0], values[0]
	for _, v := range values[1:] {
		if v < minV {
			minV = v
		}
		if v > maxV {
			maxV = v
		}
	}
	if maxV == minV {
		return 0, false
	}
	return int(math.Ceil((maxV - minV) / width)), true
}

// buildHistogram bins the values into min(Sturges, Freedman-Diaconis)
// equal-width bins across [min, max]. Every bin is half-open except the
// last, which also includes the upper edge. Returns
// errDegenerateDistribution when the bin math is undefined.
func buildHistogram(values []float64) ([]histogramBin, error) {
	n := len(values)
	if n < 2 {
		return nil, errDegenerateDistribution
	}

	fd, ok := freedmanDiaconisBinCount(values)
	if !ok {
		return nil, errDegenerateDistribution
	}
	numBins := sturgesBinCount(n)
	if fd < numBins {
		numBins = fd
	}
	if numBins < 1 {
		return nil, errDegenerateDistribution
	}

	minV, maxV := values[0], values[0]
	for _, v := range values[1:] {
		if v < minV {
			minV = v
		}
		if v > maxV {
			maxV = v
		}
	}

	bins := make([]histogramBin, numBins)
	span := maxV - minV
	for i := range bins {
		bins[i].Lower = minV + span*float64(i)/float64(numBins)
		bins[i].Upper = minV + span*float64(i+1)/float64(numBins)
	}
	// Pin the outer edges to the exact extrema.
	bins[0].Lower = minV
	bins[numBins-1].Upper = maxV

	for _, v := range values {
		idx := int((v - minV) / span * float64(numBins))
		if idx >= numBins {
			idx = numBins - 1
		}
		if idx < 0 {
			idx = 0
		}
		bins[idx].Count++
	}

	return bins, nil
}

// topBins returns the k most frequent bins, count descending with ties
// broken by lower bin position so repeated runs order identically.
func topBins(bins []histogramBin, k int) []histogramBin {
	idx := make([]int, len(bins))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		if bins[idx[a]].Count != bins[idx[b]].Count {
			return bins[idx[a]].Count > bins[idx[b]].Count
		}
		return idx[a] < idx[b]
	})

	if k > len(bins) {
		k = len(bins)
	}
	out := make([]histogramBin, k)
	for i := 0; i < k; i++ {
		out[i] = bins[idx[i]]
	}
	return out
}
