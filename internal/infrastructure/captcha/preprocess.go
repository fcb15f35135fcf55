package captcha

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"

	"github.com/disintegration/imaging"
)

// Preprocessing constants tuned against the portal's captcha renderer. The
// threshold strips the noisy gray background and leaves the glyph strokes.
const (
	contrastBoost  = 60.0
	sharpenSigma   = 2.0
	lumaThreshold  = 150
	pngCompression = png.DefaultCompression
)

// Normalize applies the fixed preprocessing pipeline to a captcha screenshot:
// grayscale, contrast boost, sharpness boost, binary threshold. The pipeline
// is pure: the same input bytes always produce the same output bytes.
func Normalize(img []byte) ([]byte, error) {
	decoded, _, err := image.Decode(bytes.NewReader(img))
	if err != nil {
		return nil, fmt.Errorf("decode captcha image: %w", err)
	}

	processed := imaging.Grayscale(decoded)
	processed = imaging.AdjustContrast(processed, contrastBoost)
	processed = imaging.Sharpen(processed, sharpenSigma)

	binary := threshold(processed, lumaThreshold)

	var buf bytes.Buffer
	encoder := png.Encoder{CompressionLevel: pngCompression}
	if err := encoder.Encode(&buf, binary); err != nil {
		return nil, fmt.Errorf("encode captcha image: %w", err)
	}
	return buf.Bytes(), nil
}

// threshold maps every pixel to pure black or pure white at the given
// luminance cutoff.
func threshold(src image.Image, cutoff uint8) *image.Gray {
	bounds := src.Bounds()
	dst := image.NewGray(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			gray := color.GrayModel.Convert(src.At(x, y)).(color.Gray)
			if gray.Y < cutoff {
				dst.SetGray(x, y, color.Gray{Y: 0})
			} else {
				dst.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	return dst
}
