package captcha

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// syntheticCaptcha renders a gradient with a dark glyph-like block, enough to
// exercise both sides of the threshold.
func syntheticCaptcha(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 60, 24))
	for y := 0; y < 24; y++ {
		for x := 0; x < 60; x++ {
			v := uint8(x * 255 / 59)
			img.Set(x, y, color.RGBA{R: v, G: v, B: v, A: 255})
		}
	}
	for y := 8; y < 16; y++ {
		for x := 20; x < 40; x++ {
			img.Set(x, y, color.RGBA{R: 10, G: 10, B: 10, A: 255})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestNormalize_Deterministic(t *testing.T) {
	input := syntheticCaptcha(t)

	first, err := Normalize(input)
	require.NoError(t, err)
	second, err := Normalize(input)
	require.NoError(t, err)

	assert.Equal(t, first, second, "same input must produce byte-identical output")
}

func TestNormalize_BinaryOutput(t *testing.T) {
	output, err := Normalize(syntheticCaptcha(t))
	require.NoError(t, err)

	decoded, err := png.Decode(bytes.NewReader(output))
	require.NoError(t, err)

	bounds := decoded.Bounds()
	sawBlack, sawWhite := false, false
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			gray := color.GrayModel.Convert(decoded.At(x, y)).(color.Gray)
			switch gray.Y {
			case 0:
				sawBlack = true
			case 255:
				sawWhite = true
			default:
				t.Fatalf("pixel (%d,%d) has luminance %d, expected pure black or white", x, y, gray.Y)
			}
		}
	}
	assert.True(t, sawBlack, "the glyph block must survive thresholding")
	assert.True(t, sawWhite, "the light background must survive thresholding")
}

func TestNormalize_RejectsGarbage(t *testing.T) {
	_, err := Normalize([]byte("not an image"))
	assert.Error(t, err)
}
