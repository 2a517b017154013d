package profiling

import (
	"errors"
	"math"
	"sort"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"

	"voteaudit/domain/core"
)

// DefaultFenceMultiplier is the Tukey fence width.
const DefaultFenceMultiplier = 1.5

// ErrInsufficientData is returned when a statistic is undefined for the sample size.
var ErrInsufficientData = core.ErrInsufficientData

// Fence is the IQR outlier boundary of one metric, computed once per run.
type Fence struct {
	Mean   float64
	Median float64
	Stdev  float64
	Q1     float64
	Q3     float64
	IQR    float64
	Lower  float64
	Upper  float64
	N      int
}

// Below reports whether v falls under the lower fence.
func (f Fence) Below(v float64) bool { return v < f.Lower }

// Above reports whether v exceeds the upper fence.
func (f Fence) Above(v float64) bool { return v > f.Upper }

// Outside reports whether v falls outside either fence.
func (f Fence) Outside(v float64) bool { return f.Below(v) || f.Above(v) }

// ZScore returns (v-mean)/stdev, or 0 when the spread is zero.
func (f Fence) ZScore(v float64) float64 {
	return ZScore(v, f.Mean, f.Stdev)
}

// Quantile returns the linearly interpolated p-quantile (R-7) of values.
// The input is not modified.
func Quantile(values []float64, p float64) (float64, error) {
	if len(values) == 0 {
		return math.NaN(), ErrInsufficientData
	}
	if p < 0 || p > 1 || math.IsNaN(p) {
		return math.NaN(), errors.New("quantile: p must be within [0,1]")
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	return quantileSorted(sorted, p), nil
}

func quantileSorted(sorted []float64, p float64) float64 {
	k := float64(len(sorted)-1) * p
	lo := math.Floor(k)
	hi := math.Ceil(k)
	if lo == hi {
		return sorted[int(k)]
	}
	return sorted[int(lo)]*(hi-k) + sorted[int(hi)]*(k-lo)
}

// ComputeFence computes the fence with the default multiplier.
func ComputeFence(values []float64) (Fence, error) {
	return ComputeFenceWith(values, DefaultFenceMultiplier)
}

// ComputeFenceWith computes mean, sample stdev, quartiles and the IQR fence.
// At least two values are required.
func ComputeFenceWith(values []float64, multiplier float64) (Fence, error) {
	if len(values) < 2 {
		return Fence{N: len(values)}, ErrInsufficientData
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	mean, std := stat.MeanStdDev(sorted, nil)
	q1 := quantileSorted(sorted, 0.25)
	q3 := quantileSorted(sorted, 0.75)
	iqr := q3 - q1

	return Fence{
		Mean:   mean,
		Median: quantileSorted(sorted, 0.5),
		Stdev:  std,
		Q1:     q1,
		Q3:     q3,
		IQR:    iqr,
		Lower:  q1 - multiplier*iqr,
		Upper:  q3 + multiplier*iqr,
		N:      len(values),
	}, nil
}

// ZScore standardises v; a zero or undefined spread yields 0.
func ZScore(v, mean, stdev float64) float64 {
	if stdev == 0 || math.IsNaN(stdev) {
		return 0
	}
	return (v - mean) / stdev
}

// SampleStdev is the n-1 standard deviation; fewer than two values yield 0.
func SampleStdev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	return stat.StdDev(values, nil)
}

// Mean returns the arithmetic mean, or 0 for an empty sample.
func Mean(values []float64) float64 {
	m, err := stats.Mean(values)
	if err != nil {
		return 0
	}
	return m
}

// Round rounds half away from zero to the given number of decimals.
func Round(v float64, places int) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	r, err := stats.Round(v, places)
	if err != nil {
		return v
	}
	return r
}

// Round2 rounds to two decimals, the precision used throughout reports.
func Round2(v float64) float64 { return Round(v, 2) }
