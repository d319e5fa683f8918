// Package dashboard summarizes the layer store in four panels: feature counts, a
// time series, a distribution histogram and a category breakdown.
package dashboard

import (
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"time"

	"layered/internal/geom"
)

// Panel is one chart's data: parallel labels and values. A panel that could not be
// computed has no values and a Note saying why.
type Panel struct {
	Title    string
	Labels   []string
	Values   []float64
	// Additive values may be summed when the panel is drawn smaller.
	Additive bool
	Note     string
}

// Empty reports whether the panel has nothing to draw.
func (p Panel) Empty() bool { return len(p.Values) == 0 }

// State is a full dashboard snapshot. It is derived, never edited.
type State struct {
	Counts     Panel
	Series     Panel
	Histogram  Panel
	Categories Panel
	At         time.Time
}

// Panels returns the four panels in display order.
func (s State) Panels() []Panel {
	return []Panel{s.Counts, s.Series, s.Histogram, s.Categories}
}

// Options selects the strategies. Zero fields take the defaults.
type Options struct {
	Series       SeriesStrategy
	Distribution DistributionStrategy
	Categories   CategoryStrategy
	Bins         int
	Logger       *slog.Logger
}

// Dashboard recomputes State from a store snapshot.
type Dashboard struct {
	series       SeriesStrategy
	distribution DistributionStrategy
	categories   CategoryStrategy
	bins         int
	log          *slog.Logger

	now  func() time.Time
	seed func() int64
}

// New builds a dashboard with the given strategies.
func New(o Options) *Dashboard {
	if o.Series == nil {
		o.Series = RandomWalk{Days: 30, Step: 100}
	}
	if o.Distribution == nil {
		o.Distribution = NormalSamples{N: 200, Mean: 100, StdDev: 15}
	}
	if o.Categories == nil {
		o.Categories = LandUse
	}
	if o.Bins <= 0 {
		o.Bins = 20
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return &Dashboard{
		series:       o.Series,
		distribution: o.Distribution,
		categories:   o.Categories,
		bins:         o.Bins,
		log:          o.Logger.With("component", "dashboard"),
		now:          time.Now,
		seed:         func() int64 { return time.Now().UnixNano() },
	}
}

// Refresh recomputes every panel. Panels fail independently: a failing strategy
// leaves its own panel empty with a note.
func (d *Dashboard) Refresh(layers []*geom.Layer) State {
	now := d.now()
	in := Input{Layers: layers, Rand: rand.New(rand.NewSource(d.seed())), Now: now}
	return State{
		Counts:     d.counts(layers),
		Series:     d.seriesPanel(in),
		Histogram:  d.histogramPanel(in),
		Categories: d.categoryPanel(in),
		At:         now,
	}
}

func (d *Dashboard) counts(layers []*geom.Layer) Panel {
	p := Panel{Title: "Layer Statistics", Additive: true}
	if len(layers) == 0 {
		p.Note = "no layers loaded"
		return p
	}
	for _, l := range layers {
		p.Labels = append(p.Labels, l.Name)
		p.Values = append(p.Values, float64(l.Len()))
	}
	return p
}

func (d *Dashboard) seriesPanel(in Input) Panel {
	p := Panel{Title: "Temporal Analysis"}
	pts, err := d.series.Series(in)
	if err != nil {
		return d.degrade(p, err)
	}
	for _, tp := range pts {
		p.Labels = append(p.Labels, tp.At.Format("01-02"))
		p.Values = append(p.Values, tp.Value)
	}
	return p
}

func (d *Dashboard) histogramPanel(in Input) Panel {
	p := Panel{Title: "Distribution Analysis", Additive: true}
	if f, ok := d.distribution.(AttributeValues); ok {
		p.Title = fmt.Sprintf("Distribution of %s", f.Field)
	}
	vals, err := d.distribution.Samples(in)
	if err != nil {
		return d.degrade(p, err)
	}
	for _, b := range Histogram(vals, d.bins) {
		p.Labels = append(p.Labels, fmt.Sprintf("%.4g", b.Lo))
		p.Values = append(p.Values, float64(b.Count))
	}
	return p
}

func (d *Dashboard) categoryPanel(in Input) Panel {
	p := Panel{Title: "Category Distribution", Additive: true}
	if f, ok := d.categories.(AttributeCategories); ok {
		p.Title = fmt.Sprintf("%s breakdown", f.Field)
	}
	cats, err := d.categories.Categories(in)
	if err != nil {
		return d.degrade(p, err)
	}
	for _, c := range cats {
		p.Labels = append(p.Labels, c.Label)
		p.Values = append(p.Values, c.Value)
	}
	return p
}

func (d *Dashboard) degrade(p Panel, err error) Panel {
	d.log.Warn("dashboard panel unavailable", "panel", p.Title, "error", err)
	p.Note = err.Error()
	return p
}

// Bin is one histogram bucket over [Lo, Hi). The last bin includes Hi.
type Bin struct {
	Lo, Hi float64
	Count  int
}

// Histogram splits vals into n equal-width bins over their range. A zero-width range
// is widened by 0.5 on each side.
func Histogram(vals []float64, n int) []Bin {
	if len(vals) == 0 || n <= 0 {
		return nil
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range vals {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if hi == lo {
		lo, hi = lo-0.5, hi+0.5
	}
	width := (hi - lo) / float64(n)
	bins := make([]Bin, n)
	for i := range bins {
		bins[i].Lo = lo + float64(i)*width
		bins[i].Hi = lo + float64(i+1)*width
	}
	bins[n-1].Hi = hi
	for _, v := range vals {
		i := int((v - lo) / width)
		if i >= n {
			i = n - 1
		}
		if i < 0 {
			i = 0
		}
		bins[i].Count++
	}
	return bins
}
