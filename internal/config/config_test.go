package config

import (
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_PartialConfigKeepsDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load(writeConfig(t, "cfg.json", `{
		"crop_size": 32,
		"videos": [{"raw_dir": "/data/01", "label_dir": "/data/01_GT/SEG"}]
	}`))
	require.NoError(t, err)

	assert.Equal(t, 32, cfg.GetCropSize())
	assert.Equal(t, 5, cfg.GetPadding())
	assert.False(t, cfg.GetChunk())
	assert.Equal(t, 10, cfg.GetClipLength())
	assert.Equal(t, "train", cfg.GetMode())
	assert.Equal(t, 1.0, cfg.GetNChunks())
	assert.Equal(t, "", cfg.GetGTList())
	assert.Nil(t, cfg.Seed)
}

func TestLoad_FullConfig(t *testing.T) {
	t.Parallel()

	cfg, err := Load(writeConfig(t, "cfg.json", `{
		"padding": 3,
		"crop_size": 24,
		"chunk": true,
		"clip_length": 8,
		"mode": "val",
		"n_chunks": 0.5,
		"seed": 17,
		"gt_list": "/data/01_GT/TRA/man_track.txt",
		"augmentations": [
			{"name": "Rotate", "limit": [-45, 45], "p": 0.4},
			{"name": "CoarseDropout", "max_holes": 4}
		],
		"videos": [{"raw_dir": "/data/01", "label_dir": "/data/01_GT/SEG"}]
	}`))
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.GetPadding())
	assert.True(t, cfg.GetChunk())
	assert.Equal(t, "val", cfg.GetMode())
	assert.Equal(t, 0.5, cfg.GetNChunks())
	require.NotNil(t, cfg.Seed)
	assert.Equal(t, int64(17), *cfg.Seed)
	assert.Equal(t, "/data/01_GT/TRA/man_track.txt", cfg.GetGTList())
	require.Len(t, cfg.Augmentations, 2)
	assert.Equal(t, "Rotate", cfg.Augmentations[0].Name)
	require.NotNil(t, cfg.Augmentations[1].MaxHoles)
	assert.Equal(t, 4, *cfg.Augmentations[1].MaxHoles)
}

func TestLoad_Rejections(t *testing.T) {
	t.Parallel()

	video := `"videos": [{"raw_dir": "/a", "label_dir": "/b"}]`
	cases := map[string]struct {
		name    string
		content string
	}{
		"wrong extension":   {"cfg.yaml", `{` + video + `}`},
		"malformed json":    {"cfg.json", `{`},
		"negative padding":  {"cfg.json", `{"padding": -1, ` + video + `}`},
		"zero crop size":    {"cfg.json", `{"crop_size": 0, ` + video + `}`},
		"zero clip length":  {"cfg.json", `{"clip_length": 0, ` + video + `}`},
		"negative n_chunks": {"cfg.json", `{"n_chunks": -2, ` + video + `}`},
		"bad mode":          {"cfg.json", `{"mode": "test", ` + video + `}`},
		"no videos":         {"cfg.json", `{"videos": []}`},
		"missing label dir": {"cfg.json", `{"videos": [{"raw_dir": "/a"}]}`},
	}
	for name, tc := range cases {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			_, err := Load(writeConfig(t, tc.name, tc.content))
			assert.Error(t, err)
		})
	}
}

func TestLoad_Missing(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)
}

func writeFrame(t *testing.T, dir, name string) {
	t.Helper()
	f, err := os.Create(filepath.Join(dir, name))
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, image.NewGray(image.Rect(0, 0, 4, 4))))
}

func TestSequences(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	rawDir := filepath.Join(root, "01")
	labelDir := filepath.Join(root, "01_GT", "SEG")
	require.NoError(t, os.MkdirAll(rawDir, 0o755))
	require.NoError(t, os.MkdirAll(labelDir, 0o755))

	// Out-of-order creation; listing must come back sorted. The readme
	// is not a frame and must be ignored.
	writeFrame(t, rawDir, "t002.png")
	writeFrame(t, rawDir, "t000.png")
	writeFrame(t, rawDir, "t001.png")
	require.NoError(t, os.WriteFile(filepath.Join(rawDir, "notes.txt"), []byte("x"), 0o644))
	writeFrame(t, labelDir, "man_seg001.png")
	writeFrame(t, labelDir, "man_seg000.png")
	writeFrame(t, labelDir, "man_seg002.png")

	cfg := &Config{Videos: []VideoConfig{{RawDir: rawDir, LabelDir: labelDir}}}
	seqs, err := cfg.Sequences()
	require.NoError(t, err)
	require.Len(t, seqs, 1)
	require.Len(t, seqs[0].RawPaths, 3)
	assert.Equal(t, filepath.Join(rawDir, "t000.png"), seqs[0].RawPaths[0])
	assert.Equal(t, filepath.Join(rawDir, "t002.png"), seqs[0].RawPaths[2])
	assert.Equal(t, filepath.Join(labelDir, "man_seg000.png"), seqs[0].LabelPaths[0])
}

func TestSequences_EmptyDir(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	rawDir := filepath.Join(root, "01")
	require.NoError(t, os.MkdirAll(rawDir, 0o755))

	cfg := &Config{Videos: []VideoConfig{{RawDir: rawDir, LabelDir: rawDir}}}
	_, err := cfg.Sequences()
	assert.Error(t, err)
}

func TestFrameBuilderConfig(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	rawDir := filepath.Join(root, "01")
	labelDir := filepath.Join(root, "01_GT", "SEG")
	require.NoError(t, os.MkdirAll(rawDir, 0o755))
	require.NoError(t, os.MkdirAll(labelDir, 0o755))
	writeFrame(t, rawDir, "t000.png")
	writeFrame(t, labelDir, "man_seg000.png")

	pad := 2
	cfg := &Config{
		Padding: &pad,
		Videos:  []VideoConfig{{RawDir: rawDir, LabelDir: labelDir}},
	}
	fbCfg, err := cfg.FrameBuilderConfig()
	require.NoError(t, err)
	assert.Equal(t, 2, fbCfg.Padding)
	assert.Equal(t, 20, fbCfg.CropSize)
	assert.Equal(t, "train", fbCfg.Mode)
	require.Len(t, fbCfg.Videos, 1)
	assert.Len(t, fbCfg.Videos[0].RawPaths, 1)
}
