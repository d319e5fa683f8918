package tui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	list "github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/paulmach/orb"

	"layered/internal/analysis"
	"layered/internal/feed"
	"layered/internal/geom"
	"layered/internal/layers"
	"layered/internal/mapview"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeWidgets()
		return m, nil

	case feedMsg:
		m.applyFeed(msg.update)
		return m, waitForUpdate(m.updates)
	case activatedMsg:
		m.applyFeed(msg.update)
		return m, nil
	case feedClosedMsg:
		m.log.Debug("feed subscription closed")
		return m, nil
	case exportedMsg:
		if msg.err != nil {
			m.setError("export failed", msg.err)
		} else {
			m.setStatus("dashboard exported: " + msg.path)
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.MouseMsg:
		m.handleMouse(msg)
		return m, nil
	}
	// Pass messages to list when visible
	if m.showSidebar {
		var cmd tea.Cmd
		m.l, cmd = m.l.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// If list is visible and filtering, send keys to list and ignore global commands
	if m.showSidebar && m.l.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.l, cmd = m.l.Update(msg)
		return m, cmd
	}
	if m.pasteMode {
		return m.handlePaste(msg)
	}
	if m.queryMode {
		return m.handleQuery(msg)
	}
	if msg.String() == "esc" {
		m.popup = ""
		m.showAttrs = false
		m.surface.ClearMarker()
		m.resizeWidgets()
		return m, nil
	}
	if m.showAttrs && !key.Matches(msg, keys.Attrs, keys.Quit) {
		var cmd tea.Cmd
		m.tbl, cmd = m.tbl.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, keys.Up):
		m.surface.Pan(0, -1)
	case key.Matches(msg, keys.Down):
		m.surface.Pan(0, 1)
	case key.Matches(msg, keys.Left):
		m.surface.Pan(-2, 0)
	case key.Matches(msg, keys.Right):
		m.surface.Pan(2, 0)
	case key.Matches(msg, keys.ZoomIn):
		m.surface.Zoom(1.2)
		m.setStatus(fmt.Sprintf("zoom: %.2fx", m.surface.ZoomLevel()))
	case key.Matches(msg, keys.ZoomOut):
		m.surface.Zoom(1 / 1.2)
		m.setStatus(fmt.Sprintf("zoom: %.2fx", m.surface.ZoomLevel()))
	case key.Matches(msg, keys.Reset):
		m.surface.ResetView()
		m.setStatus("view reset")
	case key.Matches(msg, keys.Sidebar):
		m.showSidebar = !m.showSidebar
		if m.showSidebar {
			m.refreshDir()
		}
		m.resizeWidgets()
	case key.Matches(msg, keys.Open):
		if m.showSidebar {
			if it, ok := m.l.SelectedItem().(fileItem); ok {
				m.loadPath(it.path)
			}
		}
	case key.Matches(msg, keys.Quakes):
		return m, m.activate(feed.KindEarthquake)
	case key.Matches(msg, keys.Weather):
		return m, m.activate(feed.KindWeather)
	case key.Matches(msg, keys.Dashboard):
		m.ToggleDashboard()
	case key.Matches(msg, keys.Export):
		if m.dashState.At.IsZero() || !m.dashboardVisible {
			m.refreshDashboard()
		}
		m.setStatus("exporting dashboard...")
		return m, exportDashboard(m.dashState, m.exportPath)
	case key.Matches(msg, keys.Query):
		m.queryMode = true
		m.ti.SetValue("")
		return m, m.ti.Focus()
	case key.Matches(msg, keys.Paste):
		m.pasteMode = true
		m.ta.SetValue("")
		m.setStatus("paste mode")
		return m, m.ta.Focus()
	case key.Matches(msg, keys.Attrs):
		m.showAttrs = !m.showAttrs
		if m.showAttrs {
			m.refreshAttrs()
		}
	case key.Matches(msg, keys.Inspect):
		lo := m.layout()
		m.pickCell(lo, lo.mapW/2, lo.mapH/2)
	case key.Matches(msg, keys.Layer):
		m.toggleLayer(int(msg.String()[0] - '1'))
	case key.Matches(msg, keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		m.resizeWidgets()
	}
	return m, nil
}

func (m Model) handlePaste(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.pasteMode = false
		m.ta.Blur()
		m.setStatus("view mode")
		return m, nil
	case "enter":
		text := strings.TrimSpace(m.ta.Value())
		if text == "" {
			m.setStatus("paste: empty")
			return m, nil
		}
		m.wktCount++
		name := m.store.UniqueName(fmt.Sprintf("wkt-%d", m.wktCount))
		l, err := geom.ParseWKT(name, text)
		if err != nil {
			m.setError("wkt error", err)
			return m, nil
		}
		if err := m.addLayer(l, false); err != nil {
			m.setError("add layer", err)
			return m, nil
		}
		m.setStatus(fmt.Sprintf("added %s (%s)", name, l.Features[0].Geometry.GeoJSONType()))
		m.pasteMode = false
		m.ta.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.ta, cmd = m.ta.Update(msg)
	return m, cmd
}

func (m Model) handleQuery(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.queryMode = false
		m.ti.Blur()
		return m, nil
	case "enter":
		q := strings.TrimSpace(m.ti.Value())
		m.queryMode = false
		m.ti.Blur()
		if q == "" {
			return m, nil
		}
		if strings.HasPrefix(q, "/") {
			m.runCommand(q)
			return m, nil
		}
		m.answer = m.responder.Suggest(q)
		m.log.Info("query", "text", q, "intents", m.responder.Match(q))
		m.setStatus(m.answer)
		return m, nil
	}
	var cmd tea.Cmd
	m.ti, cmd = m.ti.Update(msg)
	return m, cmd
}

func (m *Model) handleMouse(msg tea.MouseMsg) {
	lo := m.layout()
	cx, cy, ok := lo.inMap(msg.X, msg.Y)
	if !ok {
		m.hoverHasGeo = false
		return
	}
	if p, ok := m.surface.CellToLonLat(cx, cy, lo.mapW, lo.mapH); ok {
		m.hoverHasGeo = true
		m.hoverLon, m.hoverLat = p[0], p[1]
	} else {
		m.hoverHasGeo = false
	}
	switch {
	case msg.Button == tea.MouseButtonWheelUp:
		m.surface.Zoom(1.2)
	case msg.Button == tea.MouseButtonWheelDown:
		m.surface.Zoom(1 / 1.2)
	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft:
		m.pickCell(lo, cx, cy)
	}
}

// ToggleDashboard flips dashboard visibility and the map allocation with it. The
// dashboard is recomputed only when it becomes visible.
func (m *Model) ToggleDashboard() {
	m.dashboardVisible = !m.dashboardVisible
	if m.dashboardVisible {
		m.alloc = SplitMap
		m.refreshDashboard()
		m.setStatus("dashboard shown")
	} else {
		m.alloc = FullMap
		m.setStatus("dashboard hidden")
	}
	m.resizeWidgets()
}

func (m *Model) refreshDashboard() {
	m.dashState = m.dash.Refresh(m.store.Layers())
	m.dashRefreshes++
}

func (m *Model) activate(kind feed.Kind) tea.Cmd {
	if m.poller == nil {
		m.setStatus("feeds are not available")
		return nil
	}
	m.setStatus("fetching " + kind.LayerName() + "...")
	return activateFeed(m.ctx, m.poller, kind)
}

// applyFeed replaces the feed layer's data in place, or adds it on first sight. A
// layer already holding the feed's name gets to keep it; the feed takes a unique name.
func (m *Model) applyFeed(u feed.Update) {
	if u.Snapshot == nil {
		return
	}
	name, seen := m.feedLayers[u.Name]
	if !seen {
		name = m.store.UniqueName(u.Name)
		if name != u.Name {
			m.log.Warn("feed layer renamed", "feed", u.Name, "layer", name)
		}
	}
	if err := m.addLayer(u.Snapshot.Clone(name), seen); err != nil {
		m.setError("update "+name, err)
		return
	}
	m.feedLayers[u.Name] = name
	m.setStatus(fmt.Sprintf("Updated: %s at %s", name, u.At.Format("15:04:05")))
}

// addLayer stores l under its name and puts it on the map. With overwrite, an existing
// layer's data is replaced and the map refreshed.
func (m *Model) addLayer(l *geom.Layer, overwrite bool) error {
	name := l.Name
	if err := m.store.Put(name, l, overwrite); err != nil {
		return err
	}
	var err error
	if m.surface.Has(name) {
		err = m.surface.Refresh(name)
	} else {
		err = m.surface.AddLayer(name)
	}
	if err != nil {
		return err
	}
	m.metrics.SetLayers(m.store.Len())
	if m.dashboardVisible {
		m.refreshDashboard()
	}
	m.log.Info("layer added", "layer", name, "features", l.Len(), "overwrite", overwrite)
	return nil
}

func (m *Model) toggleLayer(i int) {
	names := m.surface.Names()
	if i < 0 || i >= len(names) {
		m.setStatus(fmt.Sprintf("no layer %d", i+1))
		return
	}
	v, err := m.surface.ToggleVisible(names[i])
	if err != nil {
		m.setError("toggle", err)
		return
	}
	state := "hidden"
	if v {
		state = "shown"
	}
	m.setStatus(fmt.Sprintf("%s %s", names[i], state))
}

// pickCell picks at canvas cell (cx, cy) with a one-cell tolerance.
func (m *Model) pickCell(lo layout, cx, cy int) {
	p, ok := m.surface.CellToLonLat(cx, cy, lo.mapW, lo.mapH)
	if !ok {
		m.setStatus("nothing on the map")
		return
	}
	dx, dy := m.surface.CellSize(lo.mapW, lo.mapH)
	hits := m.surface.Pick(p, max(dx, dy))
	m.metrics.Pick()
	m.surface.SetMarker(p)
	m.lastPick = hits
	m.popup = pickSummary(p, hits, m.store)
	if len(hits) == 0 {
		m.setStatus(fmt.Sprintf("no features at %.5f, %.5f", p[0], p[1]))
	} else {
		m.setStatus(fmt.Sprintf("picked %d layer(s) at %.5f, %.5f", len(hits), p[0], p[1]))
	}
	if m.showAttrs {
		m.refreshAttrs()
	}
	m.resizeWidgets()
}

// runCommand executes a slash command from the query line.
func (m *Model) runCommand(q string) {
	fields := strings.Fields(q)
	var (
		res analysis.Result
		err error
	)
	switch fields[0] {
	case "/buffer":
		if len(fields) < 3 {
			m.setStatus("usage: /buffer <meters> <layer>")
			return
		}
		meters, perr := strconv.ParseFloat(fields[1], 64)
		if perr != nil {
			m.setError("buffer distance", perr)
			return
		}
		var l *geom.Layer
		if l, err = m.store.Get(strings.Join(fields[2:], " ")); err == nil {
			res, err = analysis.Buffer(l, meters, analysis.DefaultSegments)
		}
	case "/clip":
		if len(fields) < 2 {
			m.setStatus("usage: /clip <layer>")
			return
		}
		lo := m.layout()
		b, ok := m.surface.ViewBound(lo.mapW, lo.mapH)
		if !ok {
			m.setStatus("nothing on the map to clip to")
			return
		}
		var l *geom.Layer
		if l, err = m.store.Get(strings.Join(fields[1:], " ")); err == nil {
			res, err = analysis.Clip(l, b)
		}
	default:
		m.setStatus("unknown command " + fields[0] + " (try /buffer or /clip)")
		return
	}
	if err != nil {
		var nf *layers.NotFoundError
		if errors.As(err, &nf) {
			m.setStatus(err.Error())
			return
		}
		m.setError(strings.TrimPrefix(fields[0], "/"), err)
		return
	}
	res.Layer.Name = m.store.UniqueName(res.Layer.Name)
	if err := m.addLayer(res.Layer, false); err != nil {
		m.setError("add layer", err)
		return
	}
	m.setStatus(fmt.Sprintf("added %s: %d features, %d skipped", res.Layer.Name, res.Layer.Len(), res.Skipped))
}

// pickSummary lists per-layer match counts and the first matching row of each.
func pickSummary(p orb.Point, hits []mapview.LayerHits, src mapview.Source) string {
	var b strings.Builder
	fmt.Fprintf(&b, "lon %.5f  lat %.5f\n", p[0], p[1])
	if len(hits) == 0 {
		b.WriteString("no features here")
		return b.String()
	}
	for _, h := range hits {
		fmt.Fprintf(&b, "\n%s: %d feature(s)\n", h.Layer, len(h.Rows))
		var cols []string
		if l, err := src.Get(h.Layer); err == nil {
			cols = l.Columns
		}
		for _, kv := range rowFields(h.Rows[0], cols) {
			fmt.Fprintf(&b, "  %s: %s\n", kv[0], kv[1])
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// resizeWidgets fits the sidebar list and textarea to the current layout.
func (m *Model) resizeWidgets() {
	lo := m.layout()
	if m.showSidebar {
		m.l.SetSize(sidebarWidth-2, lo.contentH-2)
	}
	m.ta.SetWidth(lo.mapW)
	m.ta.SetHeight(min(lo.mapH, 12))
	m.ti.Width = max(10, lo.contentW-len(m.ti.Prompt)-1)
	m.help.Width = lo.contentW
}
