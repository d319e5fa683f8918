package tui

import "github.com/charmbracelet/lipgloss"

const (
	sidebarWidth = 28
	popupWidth   = 40
	headerHeight = 1
	// legend and status lines; help lines come on top
	footerBase = 2
)

// layout is the screen geometry derived from the terminal size and the panels that are
// open. View draws with it and mouse handling inverts it, so both must agree.
type layout struct {
	contentW, contentH int
	sidebarW           int
	popupW             int

	mapX, mapY int
	mapW, mapH int

	dashY, dashH int
}

func (m Model) layout() layout {
	var lo layout
	lo.contentW = max(10, m.width)
	footerH := footerBase + lipgloss.Height(m.help.View(keys))
	lo.contentH = max(4, m.height-headerHeight-footerH)

	if m.showSidebar {
		lo.sidebarW = sidebarWidth
	}
	if m.popup != "" {
		lo.popupW = min(popupWidth, lo.contentW/2)
	}
	left := lo.sidebarW
	if m.showSidebar {
		left++ // gutter
	}
	avail := lo.contentW - left - lo.popupW

	// the map allocation applies to the area between sidebar and popup
	lo.mapX = left + int(m.alloc.X*float64(avail))
	lo.mapY = headerHeight + int(m.alloc.Y*float64(lo.contentH))
	lo.mapW = max(8, int(m.alloc.W*float64(avail)))
	lo.mapH = max(4, int(m.alloc.H*float64(lo.contentH)))

	if m.dashboardVisible {
		lo.dashY = lo.mapY + lo.mapH
		lo.dashH = max(0, headerHeight+lo.contentH-lo.dashY)
	}
	return lo
}

// inMap reports whether screen cell (x, y) falls on the map canvas, and where.
func (lo layout) inMap(x, y int) (cx, cy int, ok bool) {
	if x < lo.mapX || x >= lo.mapX+lo.mapW || y < lo.mapY || y >= lo.mapY+lo.mapH {
		return 0, 0, false
	}
	return x - lo.mapX, y - lo.mapY, true
}
