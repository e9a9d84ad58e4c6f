package stats

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// SpreadResult describes the low/high percentile pair of a distribution
type SpreadResult struct {
	Low    float64 `json:"low"`
	High   float64 `json:"high"`
	Range  float64 `json:"range"`
	Median float64 `json:"median"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Count  int     `json:"count"`
}

// Percentiles computes percentiles of frame-level features such as energies,
// interpolating linearly between the closest ranks (numpy default).
//
// References:
//   - Hyndman, R.J., Fan, Y. (1996). "Sample Quantiles in Statistical Packages"
type Percentiles struct{}

// NewPercentiles creates a new percentile analyzer
func NewPercentiles() *Percentiles {
	return &Percentiles{}
}

// Spread computes the low and high percentiles in one sort, plus summary moments
func (p *Percentiles) Spread(data []float64, low, high float64) (*SpreadResult, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty data")
	}
	if low < 0 || high > 100 || low > high {
		return nil, fmt.Errorf("invalid percentile pair %.1f/%.1f", low, high)
	}

	values := make([]float64, len(data))
	copy(values, data)
	sort.Float64s(values)

	lo := p.calculatePercentile(values, low)
	hi := p.calculatePercentile(values, high)
	mean, variance := stat.PopMeanVariance(values, nil)

	return &SpreadResult{
		Low:    lo,
		High:   hi,
		Range:  hi - lo,
		Median: p.calculatePercentile(values, 50),
		Mean:   mean,
		StdDev: math.Sqrt(variance),
		Count:  len(values),
	}, nil
}

func (p *Percentiles) calculatePercentile(sortedData []float64, percentile float64) float64 {
	if len(sortedData) == 1 {
		return sortedData[0]
	}
	return p.linearInterpolation(sortedData, percentile/100.0)
}

// linearInterpolation: h = (n-1) * q, interpolate between floor and ceil ranks
func (p *Percentiles) linearInterpolation(data []float64, q float64) float64 {
	n := len(data)
	h := float64(n-1) * q

	if h <= 0 {
		return data[0]
	}
	if h >= float64(n-1) {
		return data[n-1]
	}

	lower := int(math.Floor(h))
	fraction := h - float64(lower)
	return data[lower] + fraction*(data[lower+1]-data[lower])
}
