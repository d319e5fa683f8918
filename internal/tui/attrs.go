package tui

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	table "github.com/charmbracelet/bubbles/table"
)

const maxColW = 24

// refreshAttrs rebuilds the table from the rows of the last pick.
func (m *Model) refreshAttrs() {
	cols, rows := m.pickedAttributes()
	// If there are no rows, disable attributes view to avoid rendering panics
	if len(rows) == 0 {
		m.showAttrs = false
		m.setStatus("no attributes: click a feature first")
		return
	}
	tcols := make([]table.Column, 0, len(cols)+1)
	tcols = append(tcols, table.Column{Title: "#", Width: 4})
	for i, c := range cols {
		w := len(c) + 2
		for _, r := range rows {
			w = max(w, len(r[i])+2)
		}
		tcols = append(tcols, table.Column{Title: c, Width: min(w, maxColW)})
	}
	trows := make([]table.Row, 0, len(rows))
	for i, r := range rows {
		row := make(table.Row, 0, len(r)+1)
		row = append(row, strconv.Itoa(i+1))
		row = append(row, r...)
		trows = append(trows, row)
	}
	// Avoid transient mismatch: clear rows, set columns, then set rows
	m.tbl.SetRows(nil)
	m.tbl.SetColumns(tcols)
	m.tbl.SetRows(trows)
	m.tbl.GotoTop()
}

// pickedAttributes flattens the last pick into a "layer" column plus the union of
// attribute keys in first-seen layer column order.
func (m *Model) pickedAttributes() ([]string, [][]string) {
	cols := []string{"layer"}
	seen := map[string]bool{"layer": true}
	for _, h := range m.lastPick {
		var keys []string
		if l, err := m.store.Get(h.Layer); err == nil {
			keys = l.Columns
		}
		for _, r := range h.Rows {
			for _, kv := range rowFields(r, keys) {
				if !seen[kv[0]] {
					seen[kv[0]] = true
					cols = append(cols, kv[0])
				}
			}
		}
	}
	var rows [][]string
	for _, h := range m.lastPick {
		for _, r := range h.Rows {
			vals := make([]string, len(cols))
			vals[0] = h.Layer
			for i, c := range cols[1:] {
				if v, ok := r[c]; ok {
					vals[i+1] = formatCell(v)
				}
			}
			rows = append(rows, vals)
		}
	}
	return cols, rows
}

// rowFields orders a row's keys by cols, then any remaining keys alphabetically.
func rowFields(row map[string]any, cols []string) [][2]string {
	out := make([][2]string, 0, len(row))
	done := make(map[string]bool, len(row))
	for _, c := range cols {
		if v, ok := row[c]; ok {
			out = append(out, [2]string{c, formatCell(v)})
			done[c] = true
		}
	}
	var rest []string
	for k := range row {
		if !done[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	for _, k := range rest {
		out = append(out, [2]string{k, formatCell(row[k])})
	}
	return out
}

func formatCell(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'g', -1, 32)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}
