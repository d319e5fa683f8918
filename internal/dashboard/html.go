package dashboard

import (
	"fmt"
	"io"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

func titleOpts(p Panel) charts.GlobalOpts {
	return charts.WithTitleOpts(opts.Title{Title: p.Title, Subtitle: p.Note})
}

func sizeOpts() charts.GlobalOpts {
	return charts.WithInitializationOpts(opts.Initialization{Width: "640px", Height: "360px"})
}

func (s State) countsChart() *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(sizeOpts(), titleOpts(s.Counts))
	data := make([]opts.BarData, 0, len(s.Counts.Values))
	for _, v := range s.Counts.Values {
		data = append(data, opts.BarData{Value: v})
	}
	bar.SetXAxis(s.Counts.Labels).AddSeries("features", data)
	return bar
}

func (s State) seriesChart() *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(sizeOpts(), titleOpts(s.Series))
	data := make([]opts.LineData, 0, len(s.Series.Values))
	for _, v := range s.Series.Values {
		data = append(data, opts.LineData{Value: v})
	}
	line.SetXAxis(s.Series.Labels).AddSeries("value", data)
	return line
}

func (s State) histogramChart() *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(sizeOpts(), titleOpts(s.Histogram))
	data := make([]opts.BarData, 0, len(s.Histogram.Values))
	for _, v := range s.Histogram.Values {
		data = append(data, opts.BarData{Value: v})
	}
	bar.SetXAxis(s.Histogram.Labels).AddSeries("count", data)
	return bar
}

func (s State) categoryChart() *charts.Pie {
	pie := charts.NewPie()
	pie.SetGlobalOptions(sizeOpts(), titleOpts(s.Categories))
	data := make([]opts.PieData, 0, len(s.Categories.Values))
	for i, v := range s.Categories.Values {
		data = append(data, opts.PieData{Name: s.Categories.Labels[i], Value: v})
	}
	pie.AddSeries("share", data,
		charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Formatter: "{b}: {d}%"}),
	)
	return pie
}

// WriteHTML renders the four panels as an HTML chart page.
func (s State) WriteHTML(w io.Writer) error {
	page := components.NewPage()
	page.SetPageTitle(fmt.Sprintf("layered dashboard %s", s.At.Format("2006-01-02 15:04")))
	page.AddCharts(s.countsChart(), s.seriesChart(), s.histogramChart(), s.categoryChart())
	return page.Render(w)
}

// ExportHTML writes the chart page to path.
func (s State) ExportHTML(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := s.WriteHTML(f); err != nil {
		f.Close()
		return fmt.Errorf("render %s: %w", path, err)
	}
	return f.Close()
}
