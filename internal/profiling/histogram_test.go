package profiling

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHistogram_BoundarySemantics(t *testing.T) {
	h := Histogram([]float64{0, 30, 29.999, 100}, []float64{0, 30, 100})

	assert.Equal(t, []string{"0-30%", "30-100%"}, h.Labels)
	assert.Equal(t, []int{2, 2}, h.Counts)
}

func TestHistogram_DropsOutOfRange(t *testing.T) {
	h := Histogram([]float64{-0.1, 5, 15.01, 15}, InvalidBins)

	total := 0
	for _, c := range h.Counts {
		total += c
	}
	assert.Equal(t, 2, total)
	assert.Equal(t, 1, h.Counts[5])
	assert.Equal(t, 1, h.Counts[len(h.Counts)-1])
	assert.Equal(t, "10-15%", h.Labels[len(h.Labels)-1])
}

func TestHistogram_DegenerateEdges(t *testing.T) {
	h := Histogram([]float64{1, 2}, []float64{5})
	assert.Empty(t, h.Labels)
	assert.Empty(t, h.Counts)
}

func TestBinLabel(t *testing.T) {
	assert.Equal(t, "55-60%", BinLabel(55, 60))
	assert.Equal(t, "0.5-1.5%", BinLabel(0.5, 1.5))
}
