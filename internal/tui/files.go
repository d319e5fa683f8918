package tui

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	list "github.com/charmbracelet/bubbles/list"

	"layered/internal/geom"
	"layered/internal/layers"
)

type fileItem struct {
	title, desc string
	path        string
}

func (f fileItem) Title() string       { return f.title }
func (f fileItem) Description() string { return f.desc }
func (f fileItem) FilterValue() string { return f.title }

func (m *Model) refreshDir() {
	entries, err := os.ReadDir(m.cwd)
	if err != nil {
		m.setError("read dir", err)
		return
	}
	var items []list.Item
	for _, e := range entries {
		if e.IsDir() || !geom.Supported(e.Name()) {
			continue
		}
		name := e.Name()
		items = append(items, fileItem{
			title: name,
			desc:  strings.ToLower(filepath.Ext(name)),
			path:  filepath.Join(m.cwd, name),
		})
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].(fileItem).Title() < items[j].(fileItem).Title() })
	m.items = items
	m.l.SetItems(items)
	if len(items) == 0 {
		m.setStatus("no supported files in current directory")
	}
}

// loadPath loads a vector file as a new layer named after the file.
func (m *Model) loadPath(p string) {
	l, err := geom.Load(p, "")
	if err != nil {
		m.setError("load error", err)
		return
	}
	if err := m.addLayer(l, false); err != nil {
		var dup *layers.DuplicateNameError
		if errors.As(err, &dup) {
			m.setStatus(fmt.Sprintf("%s is already loaded", dup.Name))
			return
		}
		m.setError("add layer", err)
		return
	}
	status := fmt.Sprintf("loaded: %s  features=%d", filepath.Base(p), l.Len())
	if l.Skipped > 0 {
		status += fmt.Sprintf("  skipped=%d", l.Skipped)
		m.log.Warn("rows skipped", "path", p, "skipped", l.Skipped)
	}
	m.setStatus(status)
}
