package dashboard

import (
	"fmt"
	"math/rand"
	"sort"
	"time"

	"layered/internal/geom"
)

// Input is what a strategy sees on refresh.
type Input struct {
	Layers []*geom.Layer
	Rand   *rand.Rand
	Now    time.Time
}

// TimePoint is one sample of the time series panel.
type TimePoint struct {
	At    time.Time
	Value float64
}

// Category is one slice of the category panel.
type Category struct {
	Label string
	Value float64
}

// SeriesStrategy fills the time series panel.
type SeriesStrategy interface {
	Series(in Input) ([]TimePoint, error)
}

// DistributionStrategy supplies the raw values the histogram panel bins.
type DistributionStrategy interface {
	Samples(in Input) ([]float64, error)
}

// CategoryStrategy fills the category breakdown panel.
type CategoryStrategy interface {
	Categories(in Input) ([]Category, error)
}

// RandomWalk is a cumulative walk with daily steps drawn from N(Step, 1), one point
// per day ending yesterday.
type RandomWalk struct {
	Days int
	Step float64
}

func (r RandomWalk) Series(in Input) ([]TimePoint, error) {
	if r.Days <= 0 {
		return nil, fmt.Errorf("random walk: days must be positive, got %d", r.Days)
	}
	out := make([]TimePoint, 0, r.Days)
	var sum float64
	for d := r.Days; d > 0; d-- {
		sum += in.Rand.NormFloat64() + r.Step
		out = append(out, TimePoint{At: in.Now.AddDate(0, 0, -d), Value: sum})
	}
	return out, nil
}

// NormalSamples draws N values from N(Mean, StdDev²).
type NormalSamples struct {
	N      int
	Mean   float64
	StdDev float64
}

func (n NormalSamples) Samples(in Input) ([]float64, error) {
	if n.N <= 0 {
		return nil, fmt.Errorf("normal samples: n must be positive, got %d", n.N)
	}
	out := make([]float64, n.N)
	for i := range out {
		out[i] = in.Rand.NormFloat64()*n.StdDev + n.Mean
	}
	return out, nil
}

// AttributeValues collects a numeric attribute across every layer that has it.
type AttributeValues struct {
	Field string
}

func (a AttributeValues) Samples(in Input) ([]float64, error) {
	var out []float64
	for _, l := range in.Layers {
		for _, f := range l.Features {
			if v, ok := number(f.Props[a.Field]); ok {
				out = append(out, v)
			}
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no numeric %q values", a.Field)
	}
	return out, nil
}

// FixedCategories returns a constant breakdown.
type FixedCategories []Category

// LandUse is the default breakdown.
var LandUse = FixedCategories{
	{"Residential", 45},
	{"Commercial", 25},
	{"Industrial", 15},
	{"Agricultural", 10},
	{"Other", 5},
}

func (f FixedCategories) Categories(Input) ([]Category, error) {
	return append([]Category(nil), f...), nil
}

// AttributeCategories counts the distinct values of an attribute across layers,
// largest first, ties by label.
type AttributeCategories struct {
	Field string
}

func (a AttributeCategories) Categories(in Input) ([]Category, error) {
	counts := map[string]float64{}
	for _, l := range in.Layers {
		for _, f := range l.Features {
			v, ok := f.Props[a.Field]
			if !ok || v == nil {
				continue
			}
			counts[fmt.Sprint(v)]++
		}
	}
	if len(counts) == 0 {
		return nil, fmt.Errorf("no %q values", a.Field)
	}
	out := make([]Category, 0, len(counts))
	for k, v := range counts {
		out = append(out, Category{Label: k, Value: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Value != out[j].Value {
			return out[i].Value > out[j].Value
		}
		return out[i].Label < out[j].Label
	})
	return out, nil
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	}
	return 0, false
}
