package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/LdDl/annot-go/annot"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultValues(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "annot.db", cfg.DB.Path)
	assert.Equal(t, 0.0, cfg.Frames.Width)
	assert.Empty(t, cfg.Frames.Deleted)
	assert.False(t, cfg.Masks.RemoveUnderlyingPixels)
	assert.Equal(t, annot.DefaultIoUThreshold, cfg.Propagate.IoUThreshold)
	assert.Equal(t, annot.DefaultPalette(), cfg.Palette)
}

func TestLoad_WithValidConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "annot.json")
	content := `{
		"logLevel": "debug",
		"db": { "path": "/tmp/jobs.db" },
		"frames": { "width": 1920, "height": 1080, "deleted": [3, 7] },
		"masks": { "removeUnderlyingPixels": true },
		"propagate": { "iouThreshold": 0.8 },
		"palette": ["#000000", "#ffffff"]
	}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "/tmp/jobs.db", cfg.DB.Path)
	assert.Equal(t, 1920.0, cfg.Frames.Width)
	assert.Equal(t, []int{3, 7}, cfg.Frames.Deleted)
	assert.True(t, cfg.Masks.RemoveUnderlyingPixels)
	assert.Equal(t, 0.8, cfg.Propagate.IoUThreshold)
	assert.Equal(t, []string{"#000000", "#ffffff"}, cfg.Palette)

	frames := cfg.FrameProvider()
	width, height, ok := frames.FrameSize(10)
	assert.True(t, ok)
	assert.Equal(t, 1920.0, width)
	assert.Equal(t, 1080.0, height)
	assert.True(t, frames.IsDeleted(7))
	assert.False(t, frames.IsDeleted(8))

	inj := annot.NewInjection(annot.NewLabelSet(), frames)
	cfg.Apply(inj)
	assert.Equal(t, []string{"#000000", "#ffffff"}, inj.Palette)
	assert.True(t, inj.RemoveUnderlyingPixels)
}

func TestLoad_EnvironmentOverride(t *testing.T) {
	t.Setenv("ANNOT_LOGLEVEL", "warn")
	t.Setenv("ANNOT_DB_PATH", "env.db")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, "env.db", cfg.DB.Path)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/annot.json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
}

func TestLoad_InvalidValues(t *testing.T) {
	dir := t.TempDir()
	tt := map[string]string{
		"threshold": `{"propagate": {"iouThreshold": 1.5}}`,
		"palette":   `{"palette": ["red"]}`,
		"frames":    `{"frames": {"width": -1}}`,
	}
	for name, content := range tt {
		path := filepath.Join(dir, name+".json")
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
		_, err := Load(path)
		assert.Error(t, err, name)
	}
}
