// Package sim implements the numeric primitives shared by the forecast
// engine: normal variate generation, lognormal sampling parameterised by
// (P50, P90) estimates, batch simulation and percentile extraction.
package sim

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"
)

// ErrInvalidParameter reports a caller-fixable argument error, such as a
// non-positive P50 or a simulation count below one. It is never retried.
var ErrInvalidParameter = errors.New("invalid parameter")

// z90 is the 90th-percentile quantile of the standard normal distribution.
const z90 = 1.2816

// StandardNormal draws one N(0,1) variate using the Box-Muller transform.
func StandardNormal() float64 {
	// 1-Float64() keeps both uniforms in (0,1] so the log stays finite.
	u1 := 1 - rand.Float64()
	u2 := 1 - rand.Float64()
	return math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)
}

// LognormalSample draws a single effort sample from the lognormal
// distribution whose median is p50 and whose 90th percentile is p90.
// When p90 equals p50 the distribution collapses to the point p50.
// The result is always strictly positive.
func LognormalSample(p50, p90 float64) (float64, error) {
	sample, err := NewSampler(p50, p90)
	if err != nil {
		return 0, err
	}
	return sample(), nil
}

// NewSampler validates (p50, p90) once and returns a closure drawing
// lognormal samples from precomputed parameters. Use it inside simulation
// loops to avoid re-validating on every iteration.
func NewSampler(p50, p90 float64) (func() float64, error) {
	if p50 <= 0 {
		return nil, fmt.Errorf("%w: p50 must be positive, got %v", ErrInvalidParameter, p50)
	}
	if p90 < p50 {
		return nil, fmt.Errorf("%w: p90 %v below p50 %v", ErrInvalidParameter, p90, p50)
	}
	if p90 == p50 {
		return func() float64 { return p50 }, nil
	}
	mu := math.Log(p50)
	sigma := (math.Log(p90) - math.Log(p50)) / z90
	return func() float64 {
		return math.Exp(mu + sigma*StandardNormal())
	}, nil
}

// Result holds the outcome of a simulation batch. Values are sorted
// ascending; downstream percentile lookups rely on that ordering.
type Result struct {
	Values []float64 `json:"values"`
	Count  int       `json:"count"`
}

// Run draws n samples from the given function and returns them sorted.
func Run(n int, sample func() float64) (Result, error) {
	if n < 1 {
		return Result{}, fmt.Errorf("%w: simulation count must be at least 1, got %d", ErrInvalidParameter, n)
	}
	values := make([]float64, n)
	for i := range values {
		values[i] = sample()
	}
	sort.Float64s(values)
	return Result{Values: values, Count: n}, nil
}

// Percentile pairs a requested level with the interpolated sample value.
type Percentile struct {
	Level float64 `json:"level"`
	Value float64 `json:"value"`
}

// Percentiles computes the requested levels (0-100) from a sorted result by
// linear interpolation at fractional rank level/100*(count-1). An empty
// sample yields 0 for every level. Output preserves the order of levels.
func Percentiles(res Result, levels []float64) []Percentile {
	out := make([]Percentile, 0, len(levels))
	for _, lvl := range levels {
		out = append(out, Percentile{Level: lvl, Value: percentile(res.Values, lvl)})
	}
	return out
}

func percentile(sorted []float64, level float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	rank := level / 100 * float64(len(sorted)-1)
	if rank <= 0 {
		return sorted[0]
	}
	if rank >= float64(len(sorted)-1) {
		return sorted[len(sorted)-1]
	}
	lo := int(math.Floor(rank))
	frac := rank - float64(lo)
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}
