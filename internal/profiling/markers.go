package profiling

import "voteaudit/domain/anomaly"

// Summary renders a fence as the report summary block.
// Statistics are rounded to two decimals; outliers is the caller's count.
func Summary(f Fence, outliers int) anomaly.MetricSummary {
	return anomaly.MetricSummary{
		Mean:         Round2(f.Mean),
		Median:       Round2(f.Median),
		Stdev:        Round2(f.Stdev),
		Q1:           Round2(f.Q1),
		Q3:           Round2(f.Q3),
		IQR:          Round2(f.IQR),
		LowerFence:   Round2(f.Lower),
		UpperFence:   Round2(f.Upper),
		Total:        f.N,
		OutlierCount: outliers,
	}
}
