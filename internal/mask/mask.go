// Package mask computes per-object geometry from instance label planes:
// distinct track IDs, region centroids, square bounding boxes and
// fixed-size crops.
package mask

import (
	"image"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/cellscope-data/tracking.dataset/internal/imgio"
)

// Point is a pixel position in (x, y) order. Label planes index
// (row, col) = (y, x); every centroid that leaves this package has
// already been swapped into (x, y).
type Point struct {
	X float64
	Y float64
}

// Box is an axis-aligned integer pixel box. X1/Y1 are exclusive, so the
// side lengths are X1-X0 and Y1-Y0. Bounds may extend past the image.
type Box struct {
	X0 int
	Y0 int
	X1 int
	Y1 int
}

// Width returns the horizontal side length.
func (b Box) Width() int { return b.X1 - b.X0 }

// Height returns the vertical side length.
func (b Box) Height() int { return b.Y1 - b.Y0 }

// Pad expands the box by p pixels on each side.
func (b Box) Pad(p int) Box {
	return Box{X0: b.X0 - p, Y0: b.Y0 - p, X1: b.X1 + p, Y1: b.Y1 + p}
}

// Square returns a box of side size centered at integer pixel (cx, cy).
func Square(cx, cy, size int) Box {
	x0 := cx - size/2
	y0 := cy - size/2
	return Box{X0: x0, Y0: y0, X1: x0 + size, Y1: y0 + size}
}

// IDs returns the distinct nonzero label values in ascending order.
func IDs(m *imgio.LabelMap) []int32 {
	seen := make(map[int32]struct{})
	for _, v := range m.Pix {
		if v != 0 {
			seen[v] = struct{}{}
		}
	}
	ids := make([]int32, 0, len(seen))
	for v := range seen {
		ids = append(ids, v)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Centroid returns the mean pixel position of all pixels labeled id, in
// (x, y) order, and the pixel count. A zero count means the id does not
// occur in the plane and the point is meaningless.
func Centroid(m *imgio.LabelMap, id int32) (Point, int) {
	var xs, ys []float64
	for y := 0; y < m.Height; y++ {
		row := m.Pix[y*m.Width : (y+1)*m.Width]
		for x, v := range row {
			if v == id {
				xs = append(xs, float64(x))
				ys = append(ys, float64(y))
			}
		}
	}
	if len(xs) == 0 {
		return Point{}, 0
	}
	return Point{X: stat.Mean(xs, nil), Y: stat.Mean(ys, nil)}, len(xs)
}

// Crop extracts the box region from an 8-bit plane. The output always
// has the box's exact dimensions; pixels outside the source bounds are
// filled with 0.
func Crop(src *image.Gray, b Box) *image.Gray {
	out := image.NewGray(image.Rect(0, 0, b.Width(), b.Height()))
	sb := src.Bounds()
	for y := b.Y0; y < b.Y1; y++ {
		if y < sb.Min.Y || y >= sb.Max.Y {
			continue
		}
		for x := b.X0; x < b.X1; x++ {
			if x < sb.Min.X || x >= sb.Max.X {
				continue
			}
			out.Pix[(y-b.Y0)*out.Stride+(x-b.X0)] = src.Pix[(y-sb.Min.Y)*src.Stride+(x-sb.Min.X)]
		}
	}
	return out
}
