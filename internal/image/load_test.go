package image_test

import (
	goimage "image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"

	"map-helper/internal/image"
)

func writeFixture(t *testing.T, path string, encode func(*os.File, goimage.Image) error) {
	t.Helper()
	img := goimage.NewRGBA(goimage.Rect(0, 0, 12, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 12; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 20), G: uint8(y * 30), B: 90, A: 255})
		}
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, encode(f, img))
}

func TestLoadPNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tile.png")
	writeFixture(t, path, func(f *os.File, img goimage.Image) error { return png.Encode(f, img) })

	mat, err := image.Load(path)
	require.NoError(t, err)
	defer mat.Close()
	assert.Equal(t, 12, mat.Cols())
	assert.Equal(t, 8, mat.Rows())
	assert.Equal(t, 3, mat.Channels())
}

func TestLoadBMPThroughGoDecoder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tile.bmp")
	writeFixture(t, path, func(f *os.File, img goimage.Image) error { return bmp.Encode(f, img) })

	mat, err := image.Load(path)
	require.NoError(t, err)
	defer mat.Close()
	assert.Equal(t, 12, mat.Cols())
}

func TestLoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.png")
	require.NoError(t, os.WriteFile(path, []byte("not a png"), 0o644))

	_, err := image.Load(path)
	require.ErrorIs(t, err, image.ErrDecode)
}

func TestFromImageEmpty(t *testing.T) {
	_, err := image.FromImage(goimage.NewRGBA(goimage.Rect(0, 0, 0, 0)))
	require.ErrorIs(t, err, image.ErrEmpty)
}

func TestLoadUnsupported(t *testing.T) {
	_, err := image.Load("notes.txt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported image format")
}

func TestIsSupportedFormat(t *testing.T) {
	assert.True(t, image.IsSupportedFormat("a/B.PNG"))
	assert.True(t, image.IsSupportedFormat("x.webp"))
	assert.False(t, image.IsSupportedFormat("names.json"))
}
