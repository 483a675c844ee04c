package augment

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"math/rand"

	"github.com/disintegration/imaging"
)

// rotate rotates the frame about its center by an angle drawn uniformly
// from the configured range (degrees, positive = counter-clockwise) and
// applies the same rotation to every keypoint. The canvas keeps its
// original dimensions; corners rotated out of frame are lost.
type rotate struct {
	lo, hi float64
}

func newRotate(spec TransformSpec) (transform, error) {
	if len(spec.Limit) == 0 {
		return rotate{lo: -90, hi: 90}, nil
	}
	lo, hi, err := limitRange(spec.Limit, "limit")
	if err != nil {
		return nil, err
	}
	return rotate{lo: lo, hi: hi}, nil
}

func (r rotate) apply(rng *rand.Rand, img *image.Gray, kps []Keypoint) (*image.Gray, []Keypoint, error) {
	angle := uniform(rng, r.lo, r.hi)
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	// imaging expands the canvas to hold the rotated image; paste it
	// back center-aligned so the frame keeps its original dimensions.
	rotated := grayFromImage(imaging.Rotate(img, angle, color.NRGBA{}))
	out := pasteCenter(rotated, w, h)

	cx, cy := center(img)
	theta := angle * math.Pi / 180
	sin, cos := math.Sin(theta), math.Cos(theta)
	moved := make([]Keypoint, len(kps))
	for i, kp := range kps {
		dx, dy := kp.X-cx, kp.Y-cy
		// Counter-clockwise on screen; the y axis points down.
		moved[i] = Keypoint{
			Index: kp.Index,
			X:     cx + dx*cos + dy*sin,
			Y:     cy - dx*sin + dy*cos,
		}
	}
	return out, moved, nil
}

// pasteCenter writes src center-aligned onto a w x h zero canvas,
// clipping whatever extends past it.
func pasteCenter(src *image.Gray, w, h int) *image.Gray {
	out := image.NewGray(image.Rect(0, 0, w, h))
	sw, sh := src.Bounds().Dx(), src.Bounds().Dy()
	offX := (sw - w) / 2
	offY := (sh - h) / 2
	for y := 0; y < h; y++ {
		sy := y + offY
		if sy < 0 || sy >= sh {
			continue
		}
		for x := 0; x < w; x++ {
			sx := x + offX
			if sx < 0 || sx >= sw {
				continue
			}
			out.Pix[y*out.Stride+x] = src.Pix[sy*src.Stride+sx]
		}
	}
	return out
}

// gaussianBlur smooths the frame with a sigma drawn from the configured
// sigma range, or derived from a kernel size drawn from blur_limit when
// no sigma range is given. Keypoints are unaffected.
type gaussianBlur struct {
	sigmaLo, sigmaHi float64
	kernelLo         int
	kernelHi         int
}

func newGaussianBlur(spec TransformSpec) (transform, error) {
	g := gaussianBlur{kernelLo: 3, kernelHi: 7}
	if len(spec.SigmaLimit) > 0 {
		lo, hi, err := limitRange(spec.SigmaLimit, "sigma_limit")
		if err != nil {
			return nil, err
		}
		if lo < 0 {
			lo = 0
		}
		g.sigmaLo, g.sigmaHi = lo, hi
	}
	if len(spec.BlurLimit) == 2 {
		g.kernelLo, g.kernelHi = int(spec.BlurLimit[0]), int(spec.BlurLimit[1])
		if g.kernelLo < 1 || g.kernelHi < g.kernelLo {
			return nil, fmt.Errorf("blur_limit: invalid kernel range [%d, %d]", g.kernelLo, g.kernelHi)
		}
	} else if len(spec.BlurLimit) != 0 {
		return nil, fmt.Errorf("blur_limit: want 2 elements, got %d", len(spec.BlurLimit))
	}
	return g, nil
}

func (g gaussianBlur) apply(rng *rand.Rand, img *image.Gray, kps []Keypoint) (*image.Gray, []Keypoint, error) {
	sigma := uniform(rng, g.sigmaLo, g.sigmaHi)
	if sigma <= 0 {
		// Derive sigma from an odd kernel size in the configured range.
		k := g.kernelLo + rng.Intn(g.kernelHi-g.kernelLo+1)
		if k%2 == 0 {
			k++
		}
		sigma = 0.3*(float64(k-1)*0.5-1) + 0.8
	}
	return grayFromImage(imaging.Blur(img, sigma)), kps, nil
}

// randomContrast scales contrast by a factor drawn from the configured
// relative limit (0.2 means up to ±20%). Keypoints are unaffected.
type randomContrast struct {
	lo, hi float64
}

func newRandomContrast(spec TransformSpec) (transform, error) {
	if len(spec.Limit) == 0 {
		return randomContrast{lo: -0.2, hi: 0.2}, nil
	}
	lo, hi, err := limitRange(spec.Limit, "limit")
	if err != nil {
		return nil, err
	}
	return randomContrast{lo: lo, hi: hi}, nil
}

func (c randomContrast) apply(rng *rand.Rand, img *image.Gray, kps []Keypoint) (*image.Gray, []Keypoint, error) {
	pct := uniform(rng, c.lo, c.hi) * 100
	return grayFromImage(imaging.AdjustContrast(img, pct)), kps, nil
}

// horizontalFlip mirrors the frame and keypoints about the vertical axis.
type horizontalFlip struct{}

func newHorizontalFlip(TransformSpec) (transform, error) { return horizontalFlip{}, nil }

func (horizontalFlip) apply(_ *rand.Rand, img *image.Gray, kps []Keypoint) (*image.Gray, []Keypoint, error) {
	out := grayFromImage(imaging.FlipH(img))
	w := float64(img.Bounds().Dx())
	moved := make([]Keypoint, len(kps))
	for i, kp := range kps {
		moved[i] = Keypoint{Index: kp.Index, X: w - 1 - kp.X, Y: kp.Y}
	}
	return out, moved, nil
}

// verticalFlip mirrors the frame and keypoints about the horizontal axis.
type verticalFlip struct{}

func newVerticalFlip(TransformSpec) (transform, error) { return verticalFlip{}, nil }

func (verticalFlip) apply(_ *rand.Rand, img *image.Gray, kps []Keypoint) (*image.Gray, []Keypoint, error) {
	out := grayFromImage(imaging.FlipV(img))
	h := float64(img.Bounds().Dy())
	moved := make([]Keypoint, len(kps))
	for i, kp := range kps {
		moved[i] = Keypoint{Index: kp.Index, X: kp.X, Y: h - 1 - kp.Y}
	}
	return out, moved, nil
}

// coarseDropout simulates occlusion by punching rectangular holes into
// the frame. The fill intensity is drawn uniformly from the full 8-bit
// range on every application. Keypoints are unaffected.
type coarseDropout struct {
	maxHoles  int
	maxHeight int
	maxWidth  int
}

func newCoarseDropout(spec TransformSpec) (transform, error) {
	d := coarseDropout{maxHoles: 8, maxHeight: 8, maxWidth: 8}
	if spec.MaxHoles != nil {
		d.maxHoles = *spec.MaxHoles
	}
	if spec.MaxHeight != nil {
		d.maxHeight = *spec.MaxHeight
	}
	if spec.MaxWidth != nil {
		d.maxWidth = *spec.MaxWidth
	}
	if d.maxHoles < 1 || d.maxHeight < 1 || d.maxWidth < 1 {
		return nil, fmt.Errorf("max_holes, max_height and max_width must be positive")
	}
	return d, nil
}

func (d coarseDropout) apply(rng *rand.Rand, img *image.Gray, kps []Keypoint) (*image.Gray, []Keypoint, error) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		copy(out.Pix[y*out.Stride:(y+1)*out.Stride], img.Pix[y*img.Stride:y*img.Stride+w])
	}

	fill := uint8(rng.Intn(256))
	holes := 1 + rng.Intn(d.maxHoles)
	for i := 0; i < holes; i++ {
		hw := 1 + rng.Intn(d.maxWidth)
		hh := 1 + rng.Intn(d.maxHeight)
		if hw > w {
			hw = w
		}
		if hh > h {
			hh = h
		}
		x0 := rng.Intn(w - hw + 1)
		y0 := rng.Intn(h - hh + 1)
		for y := y0; y < y0+hh; y++ {
			for x := x0; x < x0+hw; x++ {
				out.Pix[y*out.Stride+x] = fill
			}
		}
	}
	return out, kps, nil
}
