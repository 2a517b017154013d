// Package benford tests leading-digit frequencies against Benford's law.
package benford

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"voteaudit/domain/anomaly"
	"voteaudit/domain/election"
	"voteaudit/internal/profiling"
)

const (
	// DegreesOfFreedom is nine digit categories minus one.
	DegreesOfFreedom = 8
	// ChiCritical005 is the chi-square critical value at alpha 0.05 with 8 df.
	ChiCritical005 = 15.507
	// MinValue excludes single-digit counts.
	MinValue = 10
)

// Expected returns log10(1+1/d) for d in 1..9, and 0 otherwise.
func Expected(d int) float64 {
	if d < 1 || d > 9 {
		return 0
	}
	return math.Log10(1 + 1/float64(d))
}

// LeadingDigit returns the first base-10 digit of a positive integer, or 0.
func LeadingDigit(v int64) int {
	if v <= 0 {
		return 0
	}
	for v >= 10 {
		v /= 10
	}
	return int(v)
}

// CandidateVotes collects every candidate vote count eligible for the test.
func CandidateVotes(units []election.UnitRecord) []int64 {
	var votes []int64
	for _, u := range units {
		for _, c := range u.Candidates {
			if c.VoteCount >= MinValue {
				votes = append(votes, c.VoteCount)
			}
		}
	}
	return votes
}

// Tester runs the conformity test with configured sample floor and alphas.
type Tester struct {
	minSample   int
	alpha       float64
	strictAlpha float64
	dist        distuv.ChiSquared
}

// NewTester creates a tester from thresholds.
func NewTester(th anomaly.Thresholds) *Tester {
	return &Tester{
		minSample:   th.BenfordMinSample,
		alpha:       th.BenfordAlpha,
		strictAlpha: th.BenfordStrictAlpha,
		dist:        distuv.ChiSquared{K: DegreesOfFreedom},
	}
}

// AnalyzeUnits runs the test over the candidate vote counts of all units.
func (t *Tester) AnalyzeUnits(units []election.UnitRecord) anomaly.BenfordResult {
	return t.Test(CandidateVotes(units))
}

// Test compares the leading-digit distribution of values against Benford's law.
// Values below MinValue are ignored.
func (t *Tester) Test(values []int64) anomaly.BenfordResult {
	var counts [10]int
	total := 0
	for _, v := range values {
		if v < MinValue {
			continue
		}
		counts[LeadingDigit(v)]++
		total++
	}

	result := anomaly.BenfordResult{
		SampleSize: total,
		Digits:     make([]anomaly.DigitRow, 0, 9),
	}

	chi := 0.0
	for d := 1; d <= 9; d++ {
		exp := Expected(d)
		observedPct := 0.0
		if total > 0 {
			observedPct = float64(counts[d]) / float64(total)
		}
		if expCount := exp * float64(total); expCount > 0 {
			diff := float64(counts[d]) - expCount
			chi += diff * diff / expCount
		}
		result.Digits = append(result.Digits, anomaly.DigitRow{
			Digit:         d,
			ObservedCount: counts[d],
			ObservedPct:   profiling.Round2(observedPct * 100),
			ExpectedPct:   profiling.Round2(exp * 100),
			Deviation:     profiling.Round2((observedPct - exp) * 100),
		})
	}

	result.Summary.TotalValues = total
	result.Summary.ChiCritical005 = ChiCritical005

	if total < t.minSample {
		result.Reason = fmt.Sprintf("insufficient sample: need at least %d values, got %d", t.minSample, total)
		result.Summary.Verdict = anomaly.VerdictInsufficientInput
		result.Interpretation = "Too few vote counts to test leading-digit conformity"
		return result
	}

	p := t.dist.Survival(chi)
	result.Valid = true
	result.Summary.ChiSquare = profiling.Round2(chi)
	result.Summary.PValue = roundP(p)
	result.Summary.PassesTest = chi < ChiCritical005
	result.Summary.Verdict = t.verdict(p)
	result.Summary.Conforms = result.Summary.Verdict == anomaly.VerdictConforms
	result.Interpretation = interpret(result.Summary.Verdict, p)
	return result
}

func (t *Tester) verdict(p float64) anomaly.BenfordVerdict {
	switch {
	case p > t.alpha:
		return anomaly.VerdictConforms
	case p > t.strictAlpha:
		return anomaly.VerdictReview
	default:
		return anomaly.VerdictNonConforming
	}
}

func interpret(v anomaly.BenfordVerdict, p float64) string {
	switch v {
	case anomaly.VerdictConforms:
		return fmt.Sprintf("Leading digits follow Benford's law (p=%.4f)", p)
	case anomaly.VerdictReview:
		return fmt.Sprintf("Moderate deviation from Benford's law (p=%.4f), review recommended", p)
	default:
		return fmt.Sprintf("Leading digits deviate strongly from Benford's law (p=%.4f)", p)
	}
}

func roundP(p float64) float64 {
	return profiling.Round(p, 6)
}
