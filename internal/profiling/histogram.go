package profiling

import (
	"fmt"
	"strconv"

	"voteaudit/domain/anomaly"
)

// Bin edges per metric.
var (
	TurnoutBins   = []float64{0, 30, 40, 50, 55, 60, 65, 70, 75, 80, 100}
	InvalidBins   = []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 15}
	BlankBins     = []float64{0, 2, 3, 4, 5, 6, 7, 8, 10, 15, 25}
	WastedBins    = []float64{0, 3, 5, 7, 9, 11, 13, 15, 20, 35}
	DominanceBins = []float64{0, 20, 30, 35, 40, 45, 50, 55, 60, 70, 80, 100}
)

// Histogram counts values per bin. Bins are [lo,hi) except the last, which
// is [lo,hi]. Values outside the edge range are dropped.
func Histogram(values []float64, edges []float64) anomaly.Histogram {
	if len(edges) < 2 {
		return anomaly.Histogram{Labels: []string{}, Counts: []int{}}
	}

	nbins := len(edges) - 1
	h := anomaly.Histogram{
		Labels: make([]string, nbins),
		Counts: make([]int, nbins),
	}
	for i := 0; i < nbins; i++ {
		h.Labels[i] = BinLabel(edges[i], edges[i+1])
	}

	for _, v := range values {
		if idx := binIndex(v, edges); idx >= 0 {
			h.Counts[idx]++
		}
	}
	return h
}

func binIndex(v float64, edges []float64) int {
	last := len(edges) - 2
	for i := 0; i <= last; i++ {
		lo, hi := edges[i], edges[i+1]
		if v >= lo && (v < hi || (i == last && v == hi)) {
			return i
		}
	}
	return -1
}

// BinLabel renders a bin as "lo-hi%".
func BinLabel(lo, hi float64) string {
	return fmt.Sprintf("%s-%s%%", formatEdge(lo), formatEdge(hi))
}

func formatEdge(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
