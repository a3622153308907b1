package pipeline

import (
	"math"
	"sort"
)

// Metrics summarizes synthesis work for one render.
type Metrics struct {
	TotalChunks      int
	SuccessfulChunks int
	FailedChunks     int
	CacheHits        int
	P50SynthSeconds  float64
	P95SynthSeconds  float64
}

// synthLatencies fills the percentile fields from freshly synthesized chunk
// timings. Cache hits are excluded; they say nothing about the engine.
func (m *Metrics) synthLatencies(seconds []float64) {
	if len(seconds) == 0 {
		return
	}
	sorted := make([]float64, len(seconds))
	copy(sorted, seconds)
	sort.Float64s(sorted)
	m.P50SynthSeconds = percentile(sorted, 0.50)
	m.P95SynthSeconds = percentile(sorted, 0.95)
}

func percentile(sorted []float64, p float64) float64 {
	idx := int(math.Ceil(p*float64(len(sorted)))) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}
