package utils

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestFitBox(t *testing.T) {
	tests := []struct {
		name       string
		w, h       int
		maxW, maxH int
		wantW      int
		wantH      int
	}{
		{"fits already", 100, 50, 200, 200, 100, 50},
		{"width bound", 400, 200, 200, 200, 200, 100},
		{"height bound", 200, 400, 200, 200, 100, 200},
		{"both bound, height wins", 1600, 1200, 800, 300, 400, 300},
		{"no limits", 300, 100, 0, 0, 300, 100},
		{"width only", 300, 100, 150, 0, 150, 50},
		{"degenerate", 0, 100, 10, 10, 0, 0},
		{"tiny result clamps to 1", 1000, 1, 10, 10, 10, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := FitBox(tt.w, tt.h, tt.maxW, tt.maxH)
			assert.Equal(t, tt.wantW, w)
			assert.Equal(t, tt.wantH, h)
		})
	}
}

func TestFitImage_DownscalesToJPEG(t *testing.T) {
	fitted, err := FitImage(pngBytes(t, 200, 100), 100, 100, 0)
	require.NoError(t, err)
	assert.Equal(t, 100, fitted.Width)
	assert.Equal(t, 50, fitted.Height)

	cfg, err := jpeg.DecodeConfig(bytes.NewReader(fitted.Data))
	require.NoError(t, err)
	assert.Equal(t, 100, cfg.Width)
	assert.Equal(t, 50, cfg.Height)
}

func TestFitImage_NeverUpscales(t *testing.T) {
	fitted, err := FitImage(pngBytes(t, 40, 30), 400, 400, 90)
	require.NoError(t, err)
	assert.Equal(t, 40, fitted.Width)
	assert.Equal(t, 30, fitted.Height)
}

func TestFitImage_RejectsGarbage(t *testing.T) {
	_, err := FitImage([]byte("<html>not an image</html>"), 100, 100, 85)
	assert.Error(t, err)
}
