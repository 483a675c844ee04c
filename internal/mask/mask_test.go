package mask

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cellscope-data/tracking.dataset/internal/imgio"
)

func makeLabelMap(w, h int, set map[[2]int]int32) *imgio.LabelMap {
	m := &imgio.LabelMap{Width: w, Height: h, Pix: make([]int32, w*h)}
	for xy, id := range set {
		m.Pix[xy[1]*w+xy[0]] = id
	}
	return m
}

func TestSquare(t *testing.T) {
	t.Parallel()

	b := Square(10, 10, 20)
	assert.Equal(t, Box{X0: 0, Y0: 0, X1: 20, Y1: 20}, b)
	assert.Equal(t, 20, b.Width())
	assert.Equal(t, 20, b.Height())

	// Centers near the origin may go negative; the box keeps its size.
	b = Square(2, 3, 10)
	assert.Equal(t, Box{X0: -3, Y0: -2, X1: 7, Y1: 8}, b)
	assert.Equal(t, 10, b.Width())
}

func TestPad(t *testing.T) {
	t.Parallel()

	b := Square(10, 10, 20).Pad(5)
	assert.Equal(t, Box{X0: -5, Y0: -5, X1: 25, Y1: 25}, b)
	assert.Equal(t, 30, b.Width())
	assert.Equal(t, 30, b.Height())
}

func TestIDs_AscendingNonzero(t *testing.T) {
	t.Parallel()

	m := makeLabelMap(8, 8, map[[2]int]int32{
		{1, 1}: 7,
		{2, 2}: 3,
		{3, 3}: 3,
		{4, 4}: 12,
		{5, 5}: 0,
	})
	assert.Equal(t, []int32{3, 7, 12}, IDs(m))
}

func TestIDs_Empty(t *testing.T) {
	t.Parallel()

	m := makeLabelMap(4, 4, nil)
	assert.Empty(t, IDs(m))
}

// The label plane indexes (row, col) = (y, x); Centroid must report
// (x, y). A single pixel at column 7, row 2 pins the order down.
func TestCentroid_XYOrder(t *testing.T) {
	t.Parallel()

	m := makeLabelMap(10, 6, map[[2]int]int32{
		{7, 2}: 4,
	})
	pt, n := Centroid(m, 4)
	require.Equal(t, 1, n)
	assert.Equal(t, 7.0, pt.X)
	assert.Equal(t, 2.0, pt.Y)
}

func TestCentroid_MeanPosition(t *testing.T) {
	t.Parallel()

	m := makeLabelMap(10, 10, map[[2]int]int32{
		{2, 4}: 9,
		{4, 4}: 9,
		{3, 6}: 9,
	})
	pt, n := Centroid(m, 9)
	require.Equal(t, 3, n)
	assert.InDelta(t, 3.0, pt.X, 1e-9)
	assert.InDelta(t, 14.0/3.0, pt.Y, 1e-9)
}

func TestCentroid_AbsentID(t *testing.T) {
	t.Parallel()

	m := makeLabelMap(4, 4, map[[2]int]int32{{1, 1}: 2})
	_, n := Centroid(m, 5)
	assert.Equal(t, 0, n)
}

func TestCrop_InBounds(t *testing.T) {
	t.Parallel()

	src := image.NewGray(image.Rect(0, 0, 10, 10))
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			src.Pix[y*src.Stride+x] = uint8(10*y + x)
		}
	}
	out := Crop(src, Box{X0: 2, Y0: 3, X1: 6, Y1: 7})
	require.Equal(t, 4, out.Bounds().Dx())
	require.Equal(t, 4, out.Bounds().Dy())
	assert.Equal(t, uint8(32), out.Pix[0])
	assert.Equal(t, uint8(65), out.Pix[3*out.Stride+3])
}

func TestCrop_OutOfBoundsZeroFill(t *testing.T) {
	t.Parallel()

	src := image.NewGray(image.Rect(0, 0, 4, 4))
	for i := range src.Pix {
		src.Pix[i] = 200
	}
	out := Crop(src, Box{X0: -2, Y0: -2, X1: 6, Y1: 6})
	require.Equal(t, 8, out.Bounds().Dx())
	require.Equal(t, 8, out.Bounds().Dy())

	// Corner outside the source stays zero; the interior carries data.
	assert.Equal(t, uint8(0), out.Pix[0])
	assert.Equal(t, uint8(0), out.Pix[7*out.Stride+7])
	assert.Equal(t, uint8(200), out.Pix[2*out.Stride+2])
	assert.Equal(t, uint8(200), out.Pix[5*out.Stride+5])
}

func TestCrop_SizeAlwaysMatchesBox(t *testing.T) {
	t.Parallel()

	src := image.NewGray(image.Rect(0, 0, 4, 4))
	out := Crop(src, Square(2, 2, 20).Pad(5))
	assert.Equal(t, 30, out.Bounds().Dx())
	assert.Equal(t, 30, out.Bounds().Dy())
}
