package dataset

import (
	"image"

	"github.com/cellscope-data/tracking.dataset/internal/mask"
)

// UnassignedTrackID is the sentinel predicted track id for instances the
// downstream tracker has not assigned yet.
const UnassignedTrackID int32 = -1

// Sequence is one video: parallel ordered lists of raw frame paths and
// ground-truth label frame paths, matched by index.
type Sequence struct {
	RawPaths   []string
	LabelPaths []string
}

// Instance is one labeled cell in one frame.
type Instance struct {
	// GTTrackID is the ground-truth identity from the label image or
	// track table. PredTrackID stays UnassignedTrackID until a tracker
	// fills it in.
	GTTrackID   int32
	PredTrackID int32

	// Centroid is the object's position in (x, y) order, after any
	// augmentation has moved it. Label planes index (row, col) = (y, x);
	// the swap happens once, in the mask package.
	Centroid mask.Point

	// BBox is the square crop window: side crop_size centered at the
	// pre-augmentation centroid, expanded by padding on each side.
	BBox mask.Box

	// Crop is the extracted patch, exactly BBox-sized, zero-filled where
	// the box leaves the image.
	Crop *image.Gray
}

// Frame is the per-frame output record: identity, raw-image shape with
// the leading channel dimension, and the ordered instance list.
type Frame struct {
	VideoID   int
	FrameID   int
	ImgShape  [3]int // (channels, height, width)
	Instances []Instance
}
