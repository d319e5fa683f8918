package dashboard

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/paulmach/orb"

	"layered/internal/geom"
)

var fixedNow = time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)

func newTestDashboard(o Options) *Dashboard {
	o.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	d := New(o)
	d.now = func() time.Time { return fixedNow }
	d.seed = func() int64 { return 7 }
	return d
}

func pointLayer(name string, props ...map[string]any) *geom.Layer {
	fs := make([]geom.Feature, 0, len(props))
	for i, p := range props {
		fs = append(fs, geom.Feature{Geometry: orb.Point{float64(i), 0}, Props: p})
	}
	return geom.NewLayer(name, fs, geom.DefaultStyle())
}

func TestRefreshDefaults(t *testing.T) {
	d := newTestDashboard(Options{})
	layers := []*geom.Layer{
		pointLayer("districts", map[string]any{}, map[string]any{}, map[string]any{}),
		pointLayer("pois", map[string]any{}),
	}
	st := d.Refresh(layers)

	if got := st.Counts.Labels; len(got) != 2 || got[0] != "districts" || got[1] != "pois" {
		t.Errorf("count labels = %v", got)
	}
	if st.Counts.Values[0] != 3 || st.Counts.Values[1] != 1 {
		t.Errorf("count values = %v", st.Counts.Values)
	}
	if len(st.Series.Values) != 30 {
		t.Errorf("series points = %d, want 30", len(st.Series.Values))
	}
	for i := 1; i < len(st.Series.Values); i++ {
		if st.Series.Values[i] <= st.Series.Values[i-1] {
			t.Fatalf("cumulative series should grow: %v", st.Series.Values)
		}
	}
	if st.Series.Labels[29] != "03-14" {
		t.Errorf("last series label = %s, want yesterday", st.Series.Labels[29])
	}
	if len(st.Histogram.Values) != 20 {
		t.Errorf("bins = %d", len(st.Histogram.Values))
	}
	var total float64
	for _, v := range st.Histogram.Values {
		total += v
	}
	if total != 200 {
		t.Errorf("histogram total = %v, want 200", total)
	}
	if len(st.Categories.Labels) != 5 || st.Categories.Labels[0] != "Residential" || st.Categories.Values[0] != 45 {
		t.Errorf("categories = %v %v", st.Categories.Labels, st.Categories.Values)
	}
	if !st.At.Equal(fixedNow) {
		t.Errorf("at = %v", st.At)
	}
}

func TestRefreshDeterministicForSeed(t *testing.T) {
	d := newTestDashboard(Options{})
	a := d.Refresh(nil)
	b := d.Refresh(nil)
	for i := range a.Series.Values {
		if a.Series.Values[i] != b.Series.Values[i] {
			t.Fatal("same seed should give the same series")
		}
	}
}

func TestEmptyStore(t *testing.T) {
	st := newTestDashboard(Options{}).Refresh(nil)
	if !st.Counts.Empty() || st.Counts.Note == "" {
		t.Errorf("counts = %+v, want empty with note", st.Counts)
	}
	if st.Series.Empty() || st.Histogram.Empty() || st.Categories.Empty() {
		t.Error("mock panels should not depend on the store")
	}
}

type failingSeries struct{}

func (failingSeries) Series(Input) ([]TimePoint, error) { return nil, errors.New("series backend down") }

func TestPanelFailureIsIsolated(t *testing.T) {
	d := newTestDashboard(Options{Series: failingSeries{}})
	st := d.Refresh([]*geom.Layer{pointLayer("a", map[string]any{})})
	if !st.Series.Empty() || st.Series.Note != "series backend down" {
		t.Errorf("series = %+v", st.Series)
	}
	if st.Counts.Empty() || st.Histogram.Empty() || st.Categories.Empty() {
		t.Error("other panels should be unaffected")
	}
}

func TestAttributeStrategies(t *testing.T) {
	quakes := pointLayer("quakes",
		map[string]any{"magnitude": 1.5},
		map[string]any{"magnitude": 4.5},
		map[string]any{"magnitude": "n/a"},
	)
	pois := pointLayer("pois",
		map[string]any{"type": "School"},
		map[string]any{"type": "Park"},
		map[string]any{"type": "School"},
		map[string]any{"type": nil},
	)
	d := newTestDashboard(Options{
		Distribution: AttributeValues{Field: "magnitude"},
		Categories:   AttributeCategories{Field: "type"},
		Bins:         4,
	})
	st := d.Refresh([]*geom.Layer{quakes, pois})

	if st.Histogram.Title != "Distribution of magnitude" {
		t.Errorf("title = %q", st.Histogram.Title)
	}
	if want := []float64{1, 0, 0, 1}; !equalFloats(st.Histogram.Values, want) {
		t.Errorf("histogram = %v, want %v", st.Histogram.Values, want)
	}
	if want := []string{"School", "Park"}; strings.Join(st.Categories.Labels, ",") != strings.Join(want, ",") {
		t.Errorf("categories = %v", st.Categories.Labels)
	}
	if !equalFloats(st.Categories.Values, []float64{2, 1}) {
		t.Errorf("category counts = %v", st.Categories.Values)
	}

	empty := d.Refresh([]*geom.Layer{pointLayer("x", map[string]any{})})
	if !empty.Histogram.Empty() || !empty.Categories.Empty() {
		t.Error("attribute panels should degrade when no values exist")
	}
}

func TestHistogram(t *testing.T) {
	tests := []struct {
		name string
		vals []float64
		n    int
		want []int
	}{
		{"spread", []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 10}, 5, []int{2, 2, 2, 2, 2}},
		{"max lands in last bin", []float64{0, 10}, 2, []int{1, 1}},
		{"constant", []float64{3, 3, 3}, 3, []int{0, 3, 0}},
		{"empty", nil, 3, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bins := Histogram(tt.vals, tt.n)
			if len(bins) != len(tt.want) {
				t.Fatalf("bins = %v", bins)
			}
			for i, b := range bins {
				if b.Count != tt.want[i] {
					t.Errorf("bin %d = %d, want %d", i, b.Count, tt.want[i])
				}
			}
		})
	}
}

func TestWriteHTML(t *testing.T) {
	st := newTestDashboard(Options{}).Refresh([]*geom.Layer{pointLayer("districts", map[string]any{})})
	var buf bytes.Buffer
	if err := st.WriteHTML(&buf); err != nil {
		t.Fatal(err)
	}
	html := buf.String()
	for _, want := range []string{"Layer Statistics", "Temporal Analysis", "Category Distribution", "districts", "echarts"} {
		if !strings.Contains(html, want) {
			t.Errorf("html missing %q", want)
		}
	}
}

func TestExportHTML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dash.html")
	if err := newTestDashboard(Options{}).Refresh(nil).ExportHTML(path); err != nil {
		t.Fatal(err)
	}
	if fi, err := os.Stat(path); err != nil || fi.Size() == 0 {
		t.Fatalf("export: %v", err)
	}
}

func TestPanelRender(t *testing.T) {
	p := Panel{Title: "Counts", Labels: []string{"a", "bb"}, Values: []float64{2, 4}, Additive: true}
	out := p.Render(30, 5)
	lines := strings.Split(out, "\n")
	if len(lines) != 3 {
		t.Fatalf("lines = %q", lines)
	}
	if !strings.Contains(lines[0], "Counts") || !strings.HasSuffix(lines[2], "4") {
		t.Errorf("render = %q", out)
	}
	if strings.Count(lines[2], "█") <= strings.Count(lines[1], "█") {
		t.Errorf("larger value should have the longer bar: %q", out)
	}

	empty := Panel{Title: "Series", Note: "backend down"}.Render(30, 5)
	if !strings.Contains(empty, "backend down") {
		t.Errorf("empty render = %q", empty)
	}
}

func TestResample(t *testing.T) {
	labels := []string{"a", "b", "c", "d"}
	vals := []float64{1, 2, 3, 4}
	l, v := resample(labels, vals, 2, true)
	if !equalFloats(v, []float64{3, 7}) || l[0] != "a" || l[1] != "c" {
		t.Errorf("additive = %v %v", l, v)
	}
	l, v = resample(labels, vals, 2, false)
	if !equalFloats(v, []float64{2, 4}) || l[1] != "d" {
		t.Errorf("series = %v %v", l, v)
	}
}

func equalFloats(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
