package monitor

import (
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"os"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/cellscope-data/tracking.dataset/internal/dataset"
)

// SaveCountPlot writes a PNG line plot of instances per frame, in
// request order along the x axis.
func SaveCountPlot(frames []dataset.Frame, path string) error {
	if len(frames) == 0 {
		return fmt.Errorf("no frames to plot")
	}

	pts := make(plotter.XYs, 0, len(frames))
	for i, f := range frames {
		pts = append(pts, plotter.XY{X: float64(i), Y: float64(len(f.Instances))})
	}

	p := plot.New()
	p.Title.Text = "Instances per frame"
	p.X.Label.Text = "frame (request order)"
	p.Y.Label.Text = "instances"

	line, err := plotter.NewLine(pts)
	if err != nil {
		return fmt.Errorf("build line: %w", err)
	}
	line.Width = vg.Points(1)
	p.Add(line)

	if err := p.Save(10*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("save plot: %w", err)
	}
	return nil
}

// SaveContactSheet tiles every crop across the given frames into one
// PNG, row per frame, 2px gutters. Useful for eyeballing crop quality.
func SaveContactSheet(frames []dataset.Frame, path string) error {
	const gutter = 2

	side := 0
	cols := 0
	for _, f := range frames {
		if len(f.Instances) > cols {
			cols = len(f.Instances)
		}
		for _, inst := range f.Instances {
			if inst.Crop != nil && inst.Crop.Bounds().Dx() > side {
				side = inst.Crop.Bounds().Dx()
			}
		}
	}
	if side == 0 || cols == 0 {
		return fmt.Errorf("no crops to tile")
	}

	w := cols*(side+gutter) + gutter
	h := len(frames)*(side+gutter) + gutter
	sheet := image.NewGray(image.Rect(0, 0, w, h))

	for row, f := range frames {
		for col, inst := range f.Instances {
			if inst.Crop == nil {
				continue
			}
			x0 := gutter + col*(side+gutter)
			y0 := gutter + row*(side+gutter)
			r := image.Rect(x0, y0, x0+inst.Crop.Bounds().Dx(), y0+inst.Crop.Bounds().Dy())
			draw.Draw(sheet, r, inst.Crop, inst.Crop.Bounds().Min, draw.Src)
		}
	}

	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create contact sheet: %w", err)
	}
	defer out.Close()
	if err := png.Encode(out, sheet); err != nil {
		return fmt.Errorf("encode contact sheet: %w", err)
	}
	return nil
}
