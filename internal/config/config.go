// Package config loads dataset configuration from JSON files. Fields
// omitted from the file keep their defaults, so partial configs are
// safe; the Get* accessors provide the fallback values.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cellscope-data/tracking.dataset/internal/augment"
	"github.com/cellscope-data/tracking.dataset/internal/dataset"
)

// VideoConfig addresses one video: a directory of raw frames and a
// directory of ground-truth label frames, matched after sorted listing.
type VideoConfig struct {
	RawDir   string `json:"raw_dir"`
	LabelDir string `json:"label_dir"`
}

// Config is the root configuration for the dataset loader. The schema
// mirrors the FrameBuilder construction surface.
type Config struct {
	Padding    *int     `json:"padding,omitempty"`
	CropSize   *int     `json:"crop_size,omitempty"`
	Chunk      *bool    `json:"chunk,omitempty"`
	ClipLength *int     `json:"clip_length,omitempty"`
	Mode       *string  `json:"mode,omitempty"`
	NChunks    *float64 `json:"n_chunks,omitempty"`
	Seed       *int64   `json:"seed,omitempty"`

	// GTList is the optional track table path ("gt_list" in the cell
	// tracking challenge layout).
	GTList *string `json:"gt_list,omitempty"`

	Augmentations []augment.TransformSpec `json:"augmentations,omitempty"`

	Videos []VideoConfig `json:"videos"`
}

// Load reads a Config from a JSON file. The file must have a .json
// extension and stay under the max file size.
func Load(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks that the configuration values are valid.
func (c *Config) Validate() error {
	if c.Padding != nil && *c.Padding < 0 {
		return fmt.Errorf("padding must be >= 0, got %d", *c.Padding)
	}
	if c.CropSize != nil && *c.CropSize <= 0 {
		return fmt.Errorf("crop_size must be > 0, got %d", *c.CropSize)
	}
	if c.ClipLength != nil && *c.ClipLength <= 0 {
		return fmt.Errorf("clip_length must be > 0, got %d", *c.ClipLength)
	}
	if c.NChunks != nil && *c.NChunks <= 0 {
		return fmt.Errorf("n_chunks must be > 0, got %v", *c.NChunks)
	}
	if c.Mode != nil && *c.Mode != "train" && *c.Mode != "val" {
		return fmt.Errorf("mode must be \"train\" or \"val\", got %q", *c.Mode)
	}
	if len(c.Videos) == 0 {
		return fmt.Errorf("at least one video is required")
	}
	for i, v := range c.Videos {
		if v.RawDir == "" || v.LabelDir == "" {
			return fmt.Errorf("video %d: raw_dir and label_dir are required", i)
		}
	}
	return nil
}

// GetPadding returns the padding value or the default.
func (c *Config) GetPadding() int {
	if c.Padding == nil {
		return 5 // default
	}
	return *c.Padding
}

// GetCropSize returns the crop_size value or the default.
func (c *Config) GetCropSize() int {
	if c.CropSize == nil {
		return 20 // default
	}
	return *c.CropSize
}

// GetChunk returns the chunk value or the default.
func (c *Config) GetChunk() bool {
	if c.Chunk == nil {
		return false // default: one batch per video
	}
	return *c.Chunk
}

// GetClipLength returns the clip_length value or the default.
func (c *Config) GetClipLength() int {
	if c.ClipLength == nil {
		return 10 // default
	}
	return *c.ClipLength
}

// GetMode returns the mode value or the default.
func (c *Config) GetMode() string {
	if c.Mode == nil {
		return "train" // default
	}
	return *c.Mode
}

// GetNChunks returns the n_chunks value or the default.
func (c *Config) GetNChunks() float64 {
	if c.NChunks == nil {
		return 1.0 // default: keep every chunk
	}
	return *c.NChunks
}

// GetGTList returns the track table path or "" when unset.
func (c *Config) GetGTList() string {
	if c.GTList == nil {
		return ""
	}
	return *c.GTList
}

// imageExts are the raster extensions considered frame files when
// expanding a video directory.
var imageExts = map[string]bool{
	".png":  true,
	".tif":  true,
	".tiff": true,
}

// listFrames returns the sorted image paths under dir.
func listFrames(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if imageExts[strings.ToLower(filepath.Ext(e.Name()))] {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no frame images under %s", dir)
	}
	sort.Strings(paths)
	return paths, nil
}

// Sequences expands the configured video directories into ordered
// per-video path lists.
func (c *Config) Sequences() ([]dataset.Sequence, error) {
	seqs := make([]dataset.Sequence, 0, len(c.Videos))
	for _, v := range c.Videos {
		raw, err := listFrames(v.RawDir)
		if err != nil {
			return nil, err
		}
		labels, err := listFrames(v.LabelDir)
		if err != nil {
			return nil, err
		}
		seqs = append(seqs, dataset.Sequence{RawPaths: raw, LabelPaths: labels})
	}
	return seqs, nil
}

// FrameBuilderConfig assembles the construction config for a
// FrameBuilder from this file configuration.
func (c *Config) FrameBuilderConfig() (dataset.FrameBuilderConfig, error) {
	videos, err := c.Sequences()
	if err != nil {
		return dataset.FrameBuilderConfig{}, err
	}
	return dataset.FrameBuilderConfig{
		Videos:         videos,
		Padding:        c.GetPadding(),
		CropSize:       c.GetCropSize(),
		Chunk:          c.GetChunk(),
		ClipLength:     c.GetClipLength(),
		NChunks:        c.GetNChunks(),
		Mode:           c.GetMode(),
		Augmentations:  c.Augmentations,
		Seed:           c.Seed,
		TrackTablePath: c.GetGTList(),
	}, nil
}
