package tui

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/charmbracelet/bubbles/help"
	list "github.com/charmbracelet/bubbles/list"
	table "github.com/charmbracelet/bubbles/table"
	textarea "github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"layered/internal/assist"
	"layered/internal/dashboard"
	"layered/internal/feed"
	"layered/internal/layers"
	"layered/internal/mapview"
	"layered/internal/metrics"
)

// Rect is a fractional allocation of the content area: origin and size in [0,1].
type Rect struct {
	X, Y, W, H float64
}

// Map allocations with the dashboard hidden and shown.
var (
	FullMap  = Rect{0, 0, 1, 1}
	SplitMap = Rect{0, 0, 1, 0.5}
)

// Deps are the collaborators the controller drives. Store, Surface, Dashboard and
// Responder are required; the rest may be zero.
type Deps struct {
	Ctx        context.Context
	Store      *layers.Store
	Surface    *mapview.Surface
	Dashboard  *dashboard.Dashboard
	Responder  *assist.Responder
	Poller     *feed.Poller
	Updates    <-chan feed.Update
	Metrics    *metrics.Metrics
	Logger     *slog.Logger
	ExportPath string
	Dir        string
	// Status is the initial status line, e.g. startup load errors.
	Status string
}

// Model is the application controller. The bubbletea Update loop is the only writer
// of the store, the surface and the dashboard state.
type Model struct {
	ctx        context.Context
	store      *layers.Store
	surface    *mapview.Surface
	dash       *dashboard.Dashboard
	responder  *assist.Responder
	poller     *feed.Poller
	updates    <-chan feed.Update
	metrics    *metrics.Metrics
	log        *slog.Logger
	exportPath string

	width  int
	height int

	showSidebar bool

	status    string
	statusErr bool

	// dashboard
	dashboardVisible bool
	alloc            Rect
	dashState        dashboard.State
	dashRefreshes    int

	// feed name -> layer name it was stored under
	feedLayers map[string]string

	// File explorer
	cwd   string
	l     list.Model
	items []list.Item

	// paste mode
	pasteMode bool
	ta        textarea.Model
	wktCount  int

	// query line
	queryMode bool
	ti        textinput.Model
	answer    string

	help help.Model

	// click popup and the rows behind it
	popup    string
	lastPick []mapview.LayerHits

	// hover state
	hoverHasGeo bool
	hoverLon    float64
	hoverLat    float64

	// attributes table
	showAttrs bool
	tbl       table.Model
}

// New builds the controller over d.
func New(d Deps) Model {
	if d.Ctx == nil {
		d.Ctx = context.Background()
	}
	if d.Logger == nil {
		d.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if d.ExportPath == "" {
		d.ExportPath = "dashboard.html"
	}
	m := Model{
		ctx:        d.Ctx,
		store:      d.Store,
		surface:    d.Surface,
		dash:       d.Dashboard,
		responder:  d.Responder,
		poller:     d.Poller,
		updates:    d.Updates,
		metrics:    d.Metrics,
		log:        d.Logger.With("component", "tui"),
		exportPath: d.ExportPath,
		status:     "layered ready",
		alloc:      FullMap,
		feedLayers: make(map[string]string),
		cwd:        d.Dir,
	}
	if d.Status != "" {
		m.status, m.statusErr = d.Status, true
	}
	if m.cwd == "" {
		m.cwd, _ = os.Getwd()
	}
	// list setup
	del := list.NewDefaultDelegate()
	del.ShowDescription = false
	m.l = list.New(nil, del, 0, 0)
	m.l.Title = "Files"
	m.l.SetShowHelp(false)
	m.l.SetShowStatusBar(false)
	m.l.SetFilteringEnabled(true)
	// textarea setup
	m.ta = textarea.New()
	m.ta.Placeholder = "Paste WKT here (POINT, LINESTRING, POLYGON, MULTI*, GEOMETRYCOLLECTION). Enter adds a layer; Esc cancels."
	m.ta.CharLimit = 0
	m.ta.SetWidth(50)
	m.ta.SetHeight(6)
	// query line setup
	m.ti = textinput.New()
	m.ti.Prompt = "ask> "
	m.ti.Placeholder = "find the closest hospital   |   /buffer 500 Points of Interest   |   /clip Earthquakes"
	m.ti.CharLimit = 256
	// attributes table setup (columns are rebuilt per pick)
	m.tbl = table.New(table.WithFocused(true))
	m.tbl.SetHeight(12)
	m.help = help.New()
	m.refreshDir()
	return m
}

func (m Model) Init() tea.Cmd {
	return waitForUpdate(m.updates)
}

// MapAllocation is the share of the content area the map currently occupies.
func (m Model) MapAllocation() Rect { return m.alloc }

// DashboardVisible reports whether the dashboard panels are shown.
func (m Model) DashboardVisible() bool { return m.dashboardVisible }

// Status is the current status line text.
func (m Model) Status() string { return m.status }

func (m *Model) setStatus(s string) {
	m.status, m.statusErr = s, false
}

func (m *Model) setError(msg string, err error) {
	m.status, m.statusErr = msg+": "+err.Error(), true
	m.log.Warn(msg, "error", err)
}
