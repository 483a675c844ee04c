// Package imgio decodes raw microscopy frames and integer label planes
// from conventional raster files (PNG, TIFF).
package imgio

import (
	"fmt"
	"image"
	"os"

	// Register decoders for the formats microscopy sequences ship in.
	_ "image/png"

	_ "golang.org/x/image/tiff"
)

// LabelMap is a per-pixel instance-segmentation plane. Pixel value 0 is
// background; any other value is one object identity in that frame.
// Storage is row-major, indexed (row, col) = (y, x).
type LabelMap struct {
	Width  int
	Height int
	Pix    []int32
}

// At returns the label value at pixel (x, y).
func (m *LabelMap) At(x, y int) int32 {
	return m.Pix[y*m.Width+x]
}

// Contains reports whether id occurs as a pixel value in the plane.
func (m *LabelMap) Contains(id int32) bool {
	for _, v := range m.Pix {
		if v == id {
			return true
		}
	}
	return false
}

// LoadFrame decodes the raw image at path into an 8-bit grayscale plane.
// 16-bit sources are rescaled linearly to the 8-bit range using the
// frame's own observed minimum and maximum, so low-contrast frames keep
// their dynamic range. Colour sources collapse to luminance.
func LoadFrame(path string) (*image.Gray, error) {
	img, err := decode(path)
	if err != nil {
		return nil, err
	}
	switch src := img.(type) {
	case *image.Gray:
		b := src.Bounds()
		out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
		for y := 0; y < b.Dy(); y++ {
			row := src.Pix[(b.Min.Y+y-src.Rect.Min.Y)*src.Stride:]
			copy(out.Pix[y*out.Stride:(y+1)*out.Stride], row[b.Min.X-src.Rect.Min.X:])
		}
		return out, nil
	case *image.Gray16:
		return rescaleGray16(src), nil
	default:
		return toGray(img), nil
	}
}

// LoadLabels decodes the label image at path into a LabelMap. Label
// images must carry integer values per pixel (grayscale or paletted).
func LoadLabels(path string) (*LabelMap, error) {
	img, err := decode(path)
	if err != nil {
		return nil, err
	}
	b := img.Bounds()
	m := &LabelMap{
		Width:  b.Dx(),
		Height: b.Dy(),
		Pix:    make([]int32, b.Dx()*b.Dy()),
	}
	switch src := img.(type) {
	case *image.Gray:
		for i, v := range src.Pix {
			m.Pix[i] = int32(v)
		}
	case *image.Gray16:
		for y := 0; y < m.Height; y++ {
			for x := 0; x < m.Width; x++ {
				m.Pix[y*m.Width+x] = int32(src.Gray16At(b.Min.X+x, b.Min.Y+y).Y)
			}
		}
	case *image.Paletted:
		for i, v := range src.Pix {
			m.Pix[i] = int32(v)
		}
	default:
		return nil, fmt.Errorf("label image %s: unsupported pixel type %T", path, img)
	}
	return m, nil
}

func decode(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}

// rescaleGray16 maps a 16-bit plane to 8 bits with a per-frame affine
// stretch: lo -> 0, hi -> 255. A flat frame (lo == hi) maps to 0.
func rescaleGray16(src *image.Gray16) *image.Gray {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()

	lo, hi := uint16(0xffff), uint16(0)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := src.Gray16At(b.Min.X+x, b.Min.Y+y).Y
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
	}

	out := image.NewGray(image.Rect(0, 0, w, h))
	if hi == lo {
		return out
	}
	scale := 255.0 / float64(hi-lo)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := src.Gray16At(b.Min.X+x, b.Min.Y+y).Y
			out.Pix[y*out.Stride+x] = uint8(float64(v-lo) * scale)
		}
	}
	return out
}

// toGray collapses an arbitrary decoded image to 8-bit luminance.
func toGray(img image.Image) *image.Gray {
	b := img.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			r, g, bl, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			// Standard luma weights on the 16-bit channel values.
			lum := (299*r + 587*g + 114*bl) / 1000
			out.Pix[y*out.Stride+x] = uint8(lum >> 8)
		}
	}
	return out
}
