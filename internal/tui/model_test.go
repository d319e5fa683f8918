package tui

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/paulmach/orb"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"layered/internal/assist"
	"layered/internal/dashboard"
	"layered/internal/feed"
	"layered/internal/geom"
	"layered/internal/layers"
	"layered/internal/mapview"
	"layered/internal/metrics"
)

type fixture struct {
	m       Model
	store   *layers.Store
	metrics *metrics.Metrics
}

func newFixture(t *testing.T, updates <-chan feed.Update) *fixture {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := layers.NewStore()
	mt := metrics.New(prometheus.NewRegistry())
	m := New(Deps{
		Store:     store,
		Surface:   mapview.New(store),
		Dashboard: dashboard.New(dashboard.Options{Logger: log}),
		Responder: assist.Default(),
		Updates:   updates,
		Metrics:   mt,
		Logger:    log,
		Dir:       t.TempDir(),
	})
	m = send(m, tea.WindowSizeMsg{Width: 120, Height: 40})
	return &fixture{m: m, store: store, metrics: mt}
}

func send(m Model, msg tea.Msg) Model {
	nm, _ := m.Update(msg)
	return nm.(Model)
}

func runes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

var enter = tea.KeyMsg{Type: tea.KeyEnter}

func (f *fixture) addLayer(t *testing.T, name string, gs ...orb.Geometry) {
	t.Helper()
	fs := make([]geom.Feature, 0, len(gs))
	for i, g := range gs {
		fs = append(fs, geom.Feature{Geometry: g, Props: map[string]any{"name": string(rune('A' + i))}})
	}
	if err := f.m.addLayer(geom.NewLayer(name, fs, geom.DefaultStyle()), false); err != nil {
		t.Fatal(err)
	}
}

func square(x0, y0, x1, y1 float64) orb.Polygon {
	return orb.Polygon{{{x0, y0}, {x1, y0}, {x1, y1}, {x0, y1}, {x0, y0}}}
}

func quakes(n int) *geom.Layer {
	fs := make([]geom.Feature, n)
	for i := range fs {
		fs[i] = geom.Feature{Geometry: orb.Point{float64(i), float64(i)}, Props: map[string]any{"magnitude": 2.5}}
	}
	return geom.NewLayer("", fs, geom.DefaultStyle())
}

func TestDashboardToggle(t *testing.T) {
	f := newFixture(t, nil)
	m := f.m
	if m.MapAllocation() != FullMap || m.DashboardVisible() {
		t.Fatalf("initial state = %v/%v", m.MapAllocation(), m.DashboardVisible())
	}

	m = send(m, runes("d"))
	if !m.DashboardVisible() || m.MapAllocation() != SplitMap {
		t.Fatalf("after show: %v/%v", m.MapAllocation(), m.DashboardVisible())
	}
	if m.dashRefreshes != 1 || m.dashState.At.IsZero() {
		t.Errorf("showing should refresh once, got %d", m.dashRefreshes)
	}
	lo := m.layout()
	if lo.dashH == 0 || lo.mapH > lo.contentH/2+1 {
		t.Errorf("split layout: map %d dash %d of %d", lo.mapH, lo.dashH, lo.contentH)
	}

	m = send(m, runes("d"))
	if m.DashboardVisible() || m.MapAllocation() != FullMap {
		t.Fatalf("toggling twice should restore, got %v", m.MapAllocation())
	}
	if m.dashRefreshes != 1 {
		t.Errorf("hiding must not refresh, got %d refreshes", m.dashRefreshes)
	}

	m = send(m, runes("d"))
	if m.dashRefreshes != 2 {
		t.Errorf("showing again should refresh, got %d", m.dashRefreshes)
	}
	if out := m.View(); !strings.Contains(out, "Layer Statistics") {
		t.Error("dashboard panels missing from view")
	}
}

func TestFeedUpdates(t *testing.T) {
	ch := make(chan feed.Update, 2)
	f := newFixture(t, ch)
	m := f.m

	cmd := m.Init()
	if cmd == nil {
		t.Fatal("Init should wait on the subscription")
	}
	at := time.Date(2024, 5, 1, 12, 30, 15, 0, time.UTC)
	ch <- feed.Update{Name: "Earthquakes", Kind: feed.KindEarthquake, Snapshot: quakes(2), At: at}
	msg := cmd()
	if _, ok := msg.(feedMsg); !ok {
		t.Fatalf("msg = %T, want feedMsg", msg)
	}
	nm, next := m.Update(msg)
	m = nm.(Model)
	if next == nil {
		t.Error("a feed update should re-arm the subscription")
	}
	if !f.store.Has("Earthquakes") || !m.surface.Has("Earthquakes") {
		t.Fatal("feed layer not added")
	}
	if m.Status() != "Updated: Earthquakes at 12:30:15" {
		t.Errorf("status = %q", m.Status())
	}

	m = send(m, runes("d"))
	m = send(m, feedMsg{update: feed.Update{Name: "Earthquakes", Kind: feed.KindEarthquake, Snapshot: quakes(5), At: at}})
	if f.store.Len() != 1 {
		t.Errorf("refresh should replace in place, store has %d layers", f.store.Len())
	}
	if l, _ := f.store.Get("Earthquakes"); l.Len() != 5 {
		t.Errorf("features = %d, want 5", l.Len())
	}
	if m.dashRefreshes != 2 {
		t.Errorf("visible dashboard should follow store changes, refreshes = %d", m.dashRefreshes)
	}
	if got := testutil.ToFloat64(f.metrics.Layers); got != 1 {
		t.Errorf("layers gauge = %v", got)
	}

	close(ch)
	if _, ok := waitForUpdate(ch)().(feedClosedMsg); !ok {
		t.Error("closed subscription should yield feedClosedMsg")
	}
}

type stubFeeds struct{ n int }

func (s stubFeeds) Snapshot(context.Context, feed.Kind) *geom.Layer { return quakes(s.n) }

func TestFeedKeepsUserLayer(t *testing.T) {
	f := newFixture(t, nil)
	f.addLayer(t, "Earthquakes", orb.Point{1, 1})
	f.m.poller = feed.NewPoller(stubFeeds{n: 3}, feed.PollerOptions{Logger: f.m.log})
	m := f.m

	nm, cmd := m.Update(runes("e"))
	m = nm.(Model)
	if cmd == nil {
		t.Fatal("e should start an activation")
	}
	m = send(m, cmd())

	if l, _ := f.store.Get("Earthquakes"); l.Len() != 1 {
		t.Errorf("loaded layer was overwritten by the feed, features = %d", l.Len())
	}
	if l, err := f.store.Get("Earthquakes-2"); err != nil || l.Len() != 3 {
		t.Fatalf("feed layer = %v, %v", l, err)
	}
	if !strings.Contains(m.Status(), "Earthquakes-2") {
		t.Errorf("status = %q", m.Status())
	}

	m = send(m, feedMsg{update: feed.Update{Name: "Earthquakes", Kind: feed.KindEarthquake, Snapshot: quakes(5), At: time.Now()}})
	if f.store.Len() != 2 {
		t.Errorf("refresh should reuse the feed layer, have %v", f.store.Names())
	}
	if l, _ := f.store.Get("Earthquakes-2"); l.Len() != 5 {
		t.Errorf("feed layer features = %d, want 5", l.Len())
	}
	if l, _ := f.store.Get("Earthquakes"); l.Len() != 1 {
		t.Errorf("refresh touched the loaded layer, features = %d", l.Len())
	}
	if out := m.View(); !strings.Contains(out, "every 1m0s") {
		t.Error("legend should show the feed refresh interval")
	}
}

func TestClickPick(t *testing.T) {
	f := newFixture(t, nil)
	f.addLayer(t, "zone", square(0, 0, 10, 10))
	f.addLayer(t, "far", square(20, 20, 30, 30))
	m := f.m

	lo := m.layout()
	m = send(m, tea.MouseMsg{X: lo.mapX + 2, Y: lo.mapY + lo.mapH - 2, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	if len(m.lastPick) != 1 || m.lastPick[0].Layer != "zone" {
		t.Fatalf("pick = %+v", m.lastPick)
	}
	if !strings.Contains(m.popup, "zone: 1 feature(s)") || !strings.Contains(m.popup, "name: A") {
		t.Errorf("popup = %q", m.popup)
	}
	if got := testutil.ToFloat64(f.metrics.Picks); got != 1 {
		t.Errorf("picks = %v", got)
	}

	// the header is outside the map
	m = send(m, tea.MouseMsg{X: 5, Y: 0, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	if got := testutil.ToFloat64(f.metrics.Picks); got != 1 {
		t.Errorf("click outside the map picked, picks = %v", got)
	}

	m = send(m, runes("a"))
	if !m.showAttrs || len(m.tbl.Rows()) != 1 || m.tbl.Rows()[0][1] != "zone" {
		t.Errorf("attribute table rows = %v", m.tbl.Rows())
	}
}

func TestQuery(t *testing.T) {
	f := newFixture(t, nil)
	f.addLayer(t, "pts", orb.Point{-122.4, 37.7}, orb.Point{-122.3, 37.75})

	ask := func(m Model, q string) Model {
		m = send(m, runes("/"))
		m = send(m, runes(q))
		return send(m, enter)
	}

	m := ask(f.m, "find the closest hospital")
	if m.Status() != "Based on your query, I suggest: buffer analysis." {
		t.Errorf("status = %q", m.Status())
	}
	if m.queryMode {
		t.Error("enter should leave query mode")
	}

	m = ask(m, "/buffer 100 pts")
	if !f.store.Has("pts buffer 100m") || !m.surface.Has("pts buffer 100m") {
		t.Fatalf("buffer layer missing, status %q", m.Status())
	}
	m = ask(m, "/buffer 100 pts")
	if !f.store.Has("pts buffer 100m-2") {
		t.Errorf("repeat buffer should get a unique name, have %v", f.store.Names())
	}

	m = ask(m, "/clip pts")
	if !f.store.Has("pts clip") {
		t.Errorf("clip layer missing, status %q", m.Status())
	}

	m = ask(m, "/buffer 100 nope")
	if !strings.Contains(m.Status(), `"nope" not found`) {
		t.Errorf("status = %q", m.Status())
	}
	m = ask(m, "/frobnicate")
	if !strings.Contains(m.Status(), "unknown command") {
		t.Errorf("status = %q", m.Status())
	}
}

func TestPasteWKT(t *testing.T) {
	f := newFixture(t, nil)
	m := send(f.m, runes("p"))
	m = send(m, runes("LINESTRING (0 0, 1 1)"))
	m = send(m, enter)
	if !f.store.Has("wkt-1") || m.pasteMode {
		t.Fatalf("paste failed: %q", m.Status())
	}

	m = send(m, runes("p"))
	m = send(m, runes("POINT (1"))
	m = send(m, enter)
	if !m.statusErr || !m.pasteMode {
		t.Errorf("bad wkt should keep paste mode with an error, status %q", m.Status())
	}
}

func TestToggleLayer(t *testing.T) {
	f := newFixture(t, nil)
	f.addLayer(t, "zone", square(0, 0, 1, 1))
	m := send(f.m, runes("1"))
	if m.surface.Visible("zone") {
		t.Error("1 should hide the first layer")
	}
	m = send(m, runes("1"))
	if !m.surface.Visible("zone") {
		t.Error("1 again should show it")
	}
	m = send(m, runes("9"))
	if m.Status() != "no layer 9" {
		t.Errorf("status = %q", m.Status())
	}
}

func TestLoadFromSidebar(t *testing.T) {
	f := newFixture(t, nil)
	m := f.m
	doc := `{"type":"FeatureCollection","features":[
		{"type":"Feature","properties":{"name":"a"},"geometry":{"type":"Point","coordinates":[1,2]}},
		{"type":"Feature","properties":{"name":"b"},"geometry":{"type":"Point","coordinates":[3,4]}}]}`
	if err := os.WriteFile(filepath.Join(m.cwd, "sites.geojson"), []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(m.cwd, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	m = send(m, tea.KeyMsg{Type: tea.KeyTab})
	if len(m.items) != 1 {
		t.Fatalf("sidebar items = %d, want only the geojson file", len(m.items))
	}
	m = send(m, enter)
	if l, err := f.store.Get("sites"); err != nil || l.Len() != 2 {
		t.Fatalf("enter should load the selected file, status %q", m.Status())
	}
	m = send(m, enter)
	if f.store.Len() != 1 || !strings.Contains(m.Status(), "already loaded") {
		t.Errorf("reloading should be rejected, status %q", m.Status())
	}
}
