package capture

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	imaging "github.com/disintegration/imaging"
	assert "github.com/stretchr/testify/assert"
	require "github.com/stretchr/testify/require"
)

func TestDumper_EvictsOldest(t *testing.T) {
	dir := t.TempDir()
	d, err := NewDumper(dir, 2)
	require.NoError(t, err)

	img := imaging.New(4, 4, color.White)
	first, err := d.Dump(StageRaw, "crew", img)
	require.NoError(t, err)
	second, err := d.Dump(StageProc, "crew", img)
	require.NoError(t, err)
	third, err := d.Dump(StageFull, "crew", img)
	require.NoError(t, err)

	assert.Equal(t, []string{second, third}, d.Files())
	_, err = os.Stat(first)
	assert.True(t, os.IsNotExist(err))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
	assert.True(t, strings.HasPrefix(filepath.Base(third), "full-crew-"))
}

func TestDumper_SkipsEmptyAndNil(t *testing.T) {
	var nilDumper *Dumper
	name, err := nilDumper.Dump(StageRaw, "crew", imaging.New(1, 1, color.White))
	assert.NoError(t, err)
	assert.Empty(t, name)
	assert.Nil(t, nilDumper.Files())

	d, err := NewDumper(t.TempDir(), 1)
	require.NoError(t, err)
	name, err = d.Dump(StageRaw, "crew", &image.NRGBA{})
	assert.NoError(t, err)
	assert.Empty(t, name)
}

func TestNewDumper_InvalidKeep(t *testing.T) {
	_, err := NewDumper(t.TempDir(), 0)
	assert.Error(t, err)
}

func TestWriteProbe(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "probe")
	img := imaging.New(4, 4, color.White)

	written, err := WriteProbe(dir, img, img, &image.NRGBA{})
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, ProbeFull), filepath.Join(dir, ProbeRaw)}, written)
}
