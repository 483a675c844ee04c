// Package augment applies geometric and photometric transforms to a raw
// frame together with its object centroids. Spatial transforms move the
// image and the keypoint list consistently; keypoints pushed outside the
// frame are dropped by the pipeline.
package augment

import (
	"fmt"
	"image"
	"math/rand"
	"time"
)

// Keypoint is an object centroid in (x, y) pixel coordinates. Index is
// the position in the caller's pending-object list so survivors can be
// matched back after spatial transforms drop some of them.
type Keypoint struct {
	Index int
	X     float64
	Y     float64
}

// TransformSpec configures one named transform. Only the fields the
// named transform reads are consulted; limits with a single element e
// mean the symmetric range [-e, e].
type TransformSpec struct {
	Name       string    `json:"name"`
	Limit      []float64 `json:"limit,omitempty"`
	BlurLimit  []float64 `json:"blur_limit,omitempty"`
	SigmaLimit []float64 `json:"sigma_limit,omitempty"`
	P          *float64  `json:"p,omitempty"`
	MaxHoles   *int      `json:"max_holes,omitempty"`
	MaxHeight  *int      `json:"max_height,omitempty"`
	MaxWidth   *int      `json:"max_width,omitempty"`
}

// transform is one step of the pipeline. Implementations draw their
// random parameters from rng on every application.
type transform interface {
	apply(rng *rand.Rand, img *image.Gray, kps []Keypoint) (*image.Gray, []Keypoint, error)
}

type constructor func(spec TransformSpec) (transform, error)

// registry maps the fixed set of supported transform names to their
// constructors. Unknown names fail pipeline construction, not first use.
var registry = map[string]constructor{
	"Rotate":         newRotate,
	"GaussianBlur":   newGaussianBlur,
	"RandomContrast": newRandomContrast,
	"HorizontalFlip": newHorizontalFlip,
	"VerticalFlip":   newVerticalFlip,
	"CoarseDropout":  newCoarseDropout,
}

// Pipeline is an ordered list of transforms sharing one random source.
type Pipeline struct {
	steps []step
	rng   *rand.Rand
}

type step struct {
	name string
	prob float64
	t    transform
}

// NewPipeline builds a pipeline from the ordered spec list. A nil seed
// seeds the generator from the wall clock; a set seed makes every
// parameter draw reproducible.
func NewPipeline(specs []TransformSpec, seed *int64) (*Pipeline, error) {
	if len(specs) == 0 {
		return nil, nil
	}
	s := time.Now().UnixNano()
	if seed != nil {
		s = *seed
	}
	p := &Pipeline{rng: rand.New(rand.NewSource(s))}
	for _, spec := range specs {
		ctor, ok := registry[spec.Name]
		if !ok {
			return nil, fmt.Errorf("unknown transform %q", spec.Name)
		}
		t, err := ctor(spec)
		if err != nil {
			return nil, fmt.Errorf("transform %s: %w", spec.Name, err)
		}
		prob := 0.5
		if spec.P != nil {
			prob = *spec.P
		}
		if prob < 0 || prob > 1 {
			return nil, fmt.Errorf("transform %s: p must be in [0,1], got %v", spec.Name, prob)
		}
		p.steps = append(p.steps, step{name: spec.Name, prob: prob, t: t})
	}
	return p, nil
}

// Apply runs the pipeline over one frame. The keypoint list must be
// non-empty; keypoints whose final position falls outside the image are
// dropped from the returned list.
func (p *Pipeline) Apply(img *image.Gray, kps []Keypoint) (*image.Gray, []Keypoint, error) {
	if len(kps) == 0 {
		return nil, nil, fmt.Errorf("augmentation requires at least one keypoint")
	}
	var err error
	for _, st := range p.steps {
		if p.rng.Float64() >= st.prob {
			continue
		}
		img, kps, err = st.t.apply(p.rng, img, kps)
		if err != nil {
			return nil, nil, fmt.Errorf("transform %s: %w", st.name, err)
		}
	}
	b := img.Bounds()
	kept := kps[:0]
	for _, kp := range kps {
		if kp.X < 0 || kp.Y < 0 || kp.X >= float64(b.Dx()) || kp.Y >= float64(b.Dy()) {
			continue
		}
		kept = append(kept, kp)
	}
	return img, kept, nil
}

// uniform draws from [lo, hi).
func uniform(rng *rand.Rand, lo, hi float64) float64 {
	if hi <= lo {
		return lo
	}
	return lo + rng.Float64()*(hi-lo)
}

// limitRange normalizes a limit slice: one element e means [-e, e].
func limitRange(limit []float64, what string) (lo, hi float64, err error) {
	switch len(limit) {
	case 1:
		return -limit[0], limit[0], nil
	case 2:
		if limit[1] < limit[0] {
			return 0, 0, fmt.Errorf("%s: range [%v, %v] is inverted", what, limit[0], limit[1])
		}
		return limit[0], limit[1], nil
	default:
		return 0, 0, fmt.Errorf("%s: want 1 or 2 elements, got %d", what, len(limit))
	}
}

// grayFromImage flattens a transform result back to an 8-bit plane.
// Inputs are grayscale so the red channel carries the value.
func grayFromImage(img *image.NRGBA) *image.Gray {
	b := img.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			out.Pix[y*out.Stride+x] = img.Pix[y*img.Stride+x*4]
		}
	}
	return out
}

// center returns the rotation/flip center in continuous pixel coords.
func center(img *image.Gray) (cx, cy float64) {
	b := img.Bounds()
	return float64(b.Dx()-1) / 2, float64(b.Dy()-1) / 2
}
