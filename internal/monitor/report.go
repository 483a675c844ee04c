// Package monitor renders dataset QA artifacts: an HTML report of
// per-frame instance counts and centroid positions, a PNG time series
// of instance counts, and a crop contact sheet.
package monitor

import (
	"fmt"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/cellscope-data/tracking.dataset/internal/dataset"
)

// WriteReport renders an HTML report over the given frame records:
// a bar chart of instances per frame and a scatter of all centroids
// colored by frame index.
func WriteReport(frames []dataset.Frame, title, path string) error {
	if len(frames) == 0 {
		return fmt.Errorf("no frames to report")
	}

	labels := make([]string, 0, len(frames))
	counts := make([]opts.BarData, 0, len(frames))
	for _, f := range frames {
		labels = append(labels, fmt.Sprintf("v%d/f%d", f.VideoID, f.FrameID))
		counts = append(counts, opts.BarData{Value: len(f.Instances)})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Width: "900px", Height: "400px"}),
		charts.WithTitleOpts(opts.Title{Title: "Instances per frame", Subtitle: title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(labels).AddSeries("instances", counts)

	// Centroid scatter in image coordinates; y axis inverted so the plot
	// matches image orientation (y grows downward).
	maxX, maxY := 1.0, 1.0
	data := make([]opts.ScatterData, 0)
	for i, f := range frames {
		if float64(f.ImgShape[2]) > maxX {
			maxX = float64(f.ImgShape[2])
		}
		if float64(f.ImgShape[1]) > maxY {
			maxY = float64(f.ImgShape[1])
		}
		for _, inst := range f.Instances {
			data = append(data, opts.ScatterData{Value: []interface{}{inst.Centroid.X, inst.Centroid.Y, i}})
		}
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "700px", Height: "700px"}),
		charts.WithTitleOpts(opts.Title{Title: "Centroids (x, y)", Subtitle: title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Min: 0, Max: maxX, Name: "x (px)"}),
		charts.WithYAxisOpts(opts.YAxis{Min: 0, Max: maxY, Name: "y (px)", Inverse: opts.Bool(true)}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        0,
			Max:        float32(len(frames) - 1),
			Dimension:  "2",
		}),
	)
	scatter.AddSeries("centroids", data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 6}))

	page := components.NewPage()
	page.SetPageTitle(title)
	page.AddCharts(bar, scatter)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	defer f.Close()
	if err := page.Render(f); err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	return nil
}
