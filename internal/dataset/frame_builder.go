// Package dataset loads cell-tracking image sequences and packages
// per-object crops into per-frame records for a downstream tracking
// model.
package dataset

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"os"
	"sort"
	"time"

	"github.com/cellscope-data/tracking.dataset/internal/augment"
	"github.com/cellscope-data/tracking.dataset/internal/imgio"
	"github.com/cellscope-data/tracking.dataset/internal/mask"
	"github.com/cellscope-data/tracking.dataset/internal/tracktab"
)

// FrameBuilderConfig contains construction-time configuration for the
// FrameBuilder. All fields are validated once; the builder is immutable
// afterwards.
type FrameBuilderConfig struct {
	Videos []Sequence // per-video raw/label path lists

	Padding  int // extra margin added to each crop box (>= 0)
	CropSize int // square crop side before padding (default: 20)

	Chunk      bool    // split each video into fixed-length clips
	ClipLength int     // frames per clip when chunking (default: 10)
	NChunks    float64 // clip subsample: fraction in (0,1] or count > 1 (default: 1.0)

	Mode string // "train" or "val"; accepted, not behavior-altering here

	Augmentations  []augment.TransformSpec // ordered; empty = no augmentation
	Seed           *int64                  // seeds chunk sampling and augmentation draws
	TrackTablePath string                  // optional whitespace-delimited track table
}

// chunk is one precomputed batch: a video and an ordered frame window.
type chunk struct {
	video  int
	frames []int
}

// FrameBuilder is the per-video accessor. Every GetInstances call is
// self-contained: it opens files, computes and returns, sharing nothing
// across calls except the immutable configuration. The augmentation
// pipeline's random generator is the one stateful member; concurrent
// callers wanting reproducible draws must impose their own seeding
// discipline.
type FrameBuilder struct {
	videos   []Sequence
	padding  int
	cropSize int
	mode     string

	pipeline *augment.Pipeline
	table    *tracktab.Table

	chunks []chunk
}

// NewFrameBuilder validates the configuration, builds the augmentation
// pipeline, parses the optional track table and precomputes the chunk
// index tables.
func NewFrameBuilder(cfg FrameBuilderConfig) (*FrameBuilder, error) {
	// Set reasonable defaults
	if cfg.CropSize == 0 {
		cfg.CropSize = 20
	}
	if cfg.ClipLength == 0 {
		cfg.ClipLength = 10
	}
	if cfg.NChunks == 0 {
		cfg.NChunks = 1.0
	}
	if cfg.Mode == "" {
		cfg.Mode = "train"
	}

	if cfg.Padding < 0 {
		return nil, &ConfigError{Field: "padding", Reason: fmt.Sprintf("must be >= 0, got %d", cfg.Padding)}
	}
	if cfg.CropSize <= 0 {
		return nil, &ConfigError{Field: "crop_size", Reason: fmt.Sprintf("must be > 0, got %d", cfg.CropSize)}
	}
	if cfg.ClipLength <= 0 {
		return nil, &ConfigError{Field: "clip_length", Reason: fmt.Sprintf("must be > 0, got %d", cfg.ClipLength)}
	}
	if cfg.NChunks < 0 {
		return nil, &ConfigError{Field: "n_chunks", Reason: fmt.Sprintf("must be > 0, got %v", cfg.NChunks)}
	}
	if cfg.Mode != "train" && cfg.Mode != "val" {
		return nil, &ConfigError{Field: "mode", Reason: fmt.Sprintf("must be \"train\" or \"val\", got %q", cfg.Mode)}
	}
	if len(cfg.Videos) == 0 {
		return nil, &ConfigError{Field: "videos", Reason: "at least one video is required"}
	}
	for v, seq := range cfg.Videos {
		if len(seq.RawPaths) != len(seq.LabelPaths) {
			return nil, &DataConsistencyError{Reason: fmt.Sprintf(
				"video %d: %d raw frames but %d label frames", v, len(seq.RawPaths), len(seq.LabelPaths))}
		}
	}

	pipeline, err := augment.NewPipeline(cfg.Augmentations, cfg.Seed)
	if err != nil {
		return nil, &ConfigError{Field: "augmentations", Reason: err.Error()}
	}

	var table *tracktab.Table
	if cfg.TrackTablePath != "" {
		table, err = tracktab.Load(cfg.TrackTablePath)
		if err != nil {
			var pathErr *os.PathError
			if errors.As(err, &pathErr) {
				return nil, &FileAccessError{Path: cfg.TrackTablePath, Err: err}
			}
			return nil, &DataConsistencyError{Reason: err.Error()}
		}
	}

	fb := &FrameBuilder{
		videos:   cfg.Videos,
		padding:  cfg.Padding,
		cropSize: cfg.CropSize,
		mode:     cfg.Mode,
		pipeline: pipeline,
		table:    table,
	}
	fb.chunks = buildChunks(cfg)
	diagf("chunked %d videos into %d batches (chunk=%v clip_length=%d n_chunks=%v)",
		len(cfg.Videos), len(fb.chunks), cfg.Chunk, cfg.ClipLength, cfg.NChunks)
	return fb, nil
}

// buildChunks precomputes the batch index tables: one window per video
// when chunking is off, contiguous clip_length windows otherwise, then
// the n_chunks subsample drawn from the seeded generator and re-sorted
// so batch order stays deterministic for a given seed.
func buildChunks(cfg FrameBuilderConfig) []chunk {
	var chunks []chunk
	for v, seq := range cfg.Videos {
		n := len(seq.RawPaths)
		if n == 0 {
			continue
		}
		if !cfg.Chunk {
			chunks = append(chunks, chunk{video: v, frames: frameRange(0, n)})
			continue
		}
		for start := 0; start < n; start += cfg.ClipLength {
			end := start + cfg.ClipLength
			if end > n {
				end = n
			}
			chunks = append(chunks, chunk{video: v, frames: frameRange(start, end)})
		}
	}

	keep := len(chunks)
	if cfg.NChunks <= 1.0 {
		keep = int(cfg.NChunks * float64(len(chunks)))
	} else {
		keep = int(math.Min(cfg.NChunks, float64(len(chunks))))
	}
	if keep < 1 {
		keep = 1
	}
	if keep >= len(chunks) {
		return chunks
	}

	seed := time.Now().UnixNano()
	if cfg.Seed != nil {
		seed = *cfg.Seed
	}
	rng := rand.New(rand.NewSource(seed))
	picked := rng.Perm(len(chunks))[:keep]
	sort.Ints(picked)
	sampled := make([]chunk, 0, keep)
	for _, i := range picked {
		sampled = append(sampled, chunks[i])
	}
	return sampled
}

func frameRange(start, end int) []int {
	frames := make([]int, end-start)
	for i := range frames {
		frames[i] = start + i
	}
	return frames
}

// NumBatches returns the number of precomputed batches.
func (fb *FrameBuilder) NumBatches() int { return len(fb.chunks) }

// GetIndices returns the video index and ordered frame index list for a
// batch. Pure lookup; no side effects.
func (fb *FrameBuilder) GetIndices(batchIdx int) (int, []int, error) {
	if batchIdx < 0 || batchIdx >= len(fb.chunks) {
		return 0, nil, fmt.Errorf("batch index %d out of range [0,%d)", batchIdx, len(fb.chunks))
	}
	c := fb.chunks[batchIdx]
	frames := make([]int, len(c.frames))
	copy(frames, c.frames)
	return c.video, frames, nil
}

// pending is an object recorded before augmentation and cropping.
type pending struct {
	id       int32
	centroid mask.Point
	box      mask.Box
}

// GetInstances loads the requested frames of one video and returns one
// Frame record per requested index, in request order. Any failure aborts
// the whole call; no partial frame list is returned.
func (fb *FrameBuilder) GetInstances(videoID int, frameIdx []int) ([]Frame, error) {
	if videoID < 0 || videoID >= len(fb.videos) {
		return nil, fmt.Errorf("video index %d out of range [0,%d)", videoID, len(fb.videos))
	}
	seq := fb.videos[videoID]

	frames := make([]Frame, 0, len(frameIdx))
	for _, fi := range frameIdx {
		if fi < 0 || fi >= len(seq.RawPaths) {
			return nil, &DataConsistencyError{Reason: fmt.Sprintf(
				"video %d: frame index %d out of range [0,%d)", videoID, fi, len(seq.RawPaths))}
		}

		raw, err := imgio.LoadFrame(seq.RawPaths[fi])
		if err != nil {
			return nil, &FileAccessError{Path: seq.RawPaths[fi], Err: err}
		}
		labels, err := imgio.LoadLabels(seq.LabelPaths[fi])
		if err != nil {
			return nil, &FileAccessError{Path: seq.LabelPaths[fi], Err: err}
		}
		if labels.Width != raw.Bounds().Dx() || labels.Height != raw.Bounds().Dy() {
			return nil, &DataConsistencyError{Reason: fmt.Sprintf(
				"video %d frame %d: label plane %dx%d does not match raw image %dx%d",
				videoID, fi, labels.Width, labels.Height, raw.Bounds().Dx(), raw.Bounds().Dy())}
		}

		var candidates []int32
		if fb.table != nil {
			candidates = fb.table.TrackIDs()
		} else {
			candidates = mask.IDs(labels)
		}

		var objs []pending
		for _, id := range candidates {
			if id == 0 {
				continue
			}
			centroid, count := mask.Centroid(labels, id)
			if count == 0 {
				continue
			}
			box := mask.Square(int(centroid.X), int(centroid.Y), fb.cropSize).Pad(fb.padding)
			objs = append(objs, pending{id: id, centroid: centroid, box: box})
		}

		if fb.pipeline != nil {
			kps := make([]augment.Keypoint, len(objs))
			for i, o := range objs {
				kps[i] = augment.Keypoint{Index: i, X: o.centroid.X, Y: o.centroid.Y}
			}
			augImg, kept, err := fb.pipeline.Apply(raw, kps)
			if err != nil {
				return nil, &AugmentationError{Err: err}
			}
			raw = augImg
			retained := make([]pending, 0, len(kept))
			for _, kp := range kept {
				o := objs[kp.Index]
				o.centroid = mask.Point{X: kp.X, Y: kp.Y}
				retained = append(retained, o)
			}
			objs = retained
		}

		instances := make([]Instance, 0, len(objs))
		for _, o := range objs {
			instances = append(instances, Instance{
				GTTrackID:   o.id,
				PredTrackID: UnassignedTrackID,
				Centroid:    o.centroid,
				BBox:        o.box,
				Crop:        mask.Crop(raw, o.box),
			})
		}

		diagf("built frame video=%d frame=%d instances=%d shape=1x%dx%d",
			videoID, fi, len(instances), raw.Bounds().Dy(), raw.Bounds().Dx())

		frames = append(frames, Frame{
			VideoID:   videoID,
			FrameID:   fi,
			ImgShape:  [3]int{1, raw.Bounds().Dy(), raw.Bounds().Dx()},
			Instances: instances,
		})
	}
	return frames, nil
}
