package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"layered/internal/feed"
)

func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	lo := m.layout()

	// Header
	header := titleStyle.Render(" layered ─ terminal geospatial viewer ")
	header = lipgloss.NewStyle().Width(lo.contentW).MaxHeight(headerHeight).Render(header)

	// Map viewport
	var mapView string
	switch {
	case m.showAttrs:
		// infer a reasonable width from columns
		colW := 0
		for _, c := range m.tbl.Columns() {
			colW += c.Width + 3
		}
		maxW := min(lo.mapW, max(32, colW))
		m.tbl.SetWidth(maxW - 4)
		m.tbl.SetHeight(min(lo.mapH-2, 20))
		attrsBox := boxStyle.Width(maxW).Render(m.tbl.View())
		mapView = lipgloss.Place(lo.mapW, lo.mapH, lipgloss.Center, lipgloss.Center, attrsBox)
	case m.pasteMode:
		mapView = m.ta.View()
	default:
		mapView = m.surface.Redraw(lo.mapW, lo.mapH)
	}
	// plain map canvas: no border, no background highlight
	mapView = lipgloss.NewStyle().Width(lo.mapW).Height(lo.mapH).MaxHeight(lo.mapH).Render(mapView)

	center := mapView
	if m.dashboardVisible && lo.dashH > 0 {
		center = lipgloss.JoinVertical(lipgloss.Left, mapView, m.renderDashboard(lo.mapW, lo.dashH))
	}

	// Body row
	cols := make([]string, 0, 4)
	if m.showSidebar {
		cols = append(cols, lipgloss.NewStyle().Width(sidebarWidth).Height(lo.contentH).Render(m.l.View()), " ")
	}
	cols = append(cols, center)
	if lo.popupW > 0 {
		box := popupStyle.Width(lo.popupW - 2).MaxHeight(lo.contentH).Render(m.popup)
		cols = append(cols, box)
	}
	body := lipgloss.NewStyle().Height(lo.contentH).MaxHeight(lo.contentH).Render(
		lipgloss.JoinHorizontal(lipgloss.Top, cols...))

	// Footer: legend, status line (or query input), help
	legend := m.renderLegend(lo.contentW)
	var status string
	switch {
	case m.queryMode:
		status = m.ti.View()
	case m.statusErr:
		status = errStyle.Render(" " + m.status + " ")
	default:
		status = dimStyle.Render(" " + m.status + " ")
	}
	// mouse coords at bottom-right
	coords := ""
	if m.hoverHasGeo {
		coords = dimStyle.Render(fmt.Sprintf("  lon=%.5f lat=%.5f  ", m.hoverLon, m.hoverLat))
	}
	spacerW := max(0, lo.contentW-lipgloss.Width(status)-lipgloss.Width(coords))
	statusLine := lipgloss.NewStyle().MaxWidth(lo.contentW).Render(
		status + strings.Repeat(" ", spacerW) + coords)
	help := dimStyle.Render(m.help.View(keys))

	ui := lipgloss.JoinVertical(lipgloss.Left, header, body, legend, statusLine, help)
	return appStyle.Width(lo.contentW).MaxHeight(m.height).Render(ui)
}

// renderLegend lists the layers on the map with their toggle number and color.
func (m Model) renderLegend(w int) string {
	names := m.surface.Names()
	if len(names) == 0 {
		return dimStyle.Render(" no layers: tab opens files, e/w add live feeds, p pastes WKT")
	}
	feeds := map[string]feed.Feed{}
	if m.poller != nil {
		for _, f := range m.poller.Feeds() {
			if n, ok := m.feedLayers[f.Name]; ok {
				feeds[n] = f
			}
		}
	}
	parts := make([]string, 0, len(names))
	for i, n := range names {
		l, err := m.store.Get(n)
		if err != nil {
			continue
		}
		num := " "
		if i < 9 {
			num = fmt.Sprintf("%d", i+1)
		}
		label := fmt.Sprintf("%s (%d)", n, l.Len())
		if f, ok := feeds[n]; ok {
			label = fmt.Sprintf("%s (%d, %s every %s)", n, l.Len(), f.LastRefreshed.Format("15:04:05"), f.RefreshInterval)
		}
		if !m.surface.Visible(n) {
			label = dimStyle.Render(label)
		}
		parts = append(parts, dimStyle.Render(num)+" "+swatch(l.Style.Color, m.surface.Visible(n))+" "+label)
	}
	return lipgloss.NewStyle().MaxWidth(w).Render(" " + strings.Join(parts, "   "))
}

// renderDashboard lays the four panels out in a 2x2 grid of w x h cells.
func (m Model) renderDashboard(w, h int) string {
	panels := m.dashState.Panels()
	cellW := w / 2
	cellH := h / 2
	if cellW < 8 || cellH < 3 {
		return dimStyle.Render("dashboard: terminal too small")
	}
	boxes := make([]string, len(panels))
	for i, p := range panels {
		// border takes 2 columns and rows, padding 2 more columns
		inner := p.Render(cellW-4, cellH-2)
		boxes[i] = boxStyle.Width(cellW - 2).Height(cellH - 2).MaxHeight(cellH).Render(inner)
	}
	top := lipgloss.JoinHorizontal(lipgloss.Top, boxes[0], boxes[1])
	bottom := lipgloss.JoinHorizontal(lipgloss.Top, boxes[2], boxes[3])
	return lipgloss.JoinVertical(lipgloss.Left, top, bottom)
}
