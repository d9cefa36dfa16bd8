package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"github.com/anyclick/anyclick/capture"
)

// Crop cuts the element's region out of a viewport screenshot. The
// rect is in logical CSS pixels relative to the viewport; the shot may
// be larger when the display is scaled, so coordinates are multiplied
// by the actual-to-logical width ratio before cropping.
func Crop(shot []byte, rect capture.Rect, viewportWidth float64) ([]byte, error) {
	img, err := png.Decode(bytes.NewReader(shot))
	if err != nil {
		return nil, fmt.Errorf("imaging: decode screenshot: %w", err)
	}

	bounds := img.Bounds()
	scale := 1.0
	if viewportWidth > 0 {
		scale = float64(bounds.Dx()) / viewportWidth
	}

	crop := image.Rect(
		int(rect.X*scale),
		int(rect.Y*scale),
		int((rect.X+rect.Width)*scale),
		int((rect.Y+rect.Height)*scale),
	).Intersect(bounds)
	if crop.Empty() {
		return nil, fmt.Errorf("imaging: element rect %+v outside screenshot bounds %v", rect, bounds)
	}

	out := cropImage(img, crop)

	var buf bytes.Buffer
	if err := png.Encode(&buf, out); err != nil {
		return nil, fmt.Errorf("imaging: encode crop: %w", err)
	}
	return buf.Bytes(), nil
}

func cropImage(src image.Image, rect image.Rectangle) image.Image {
	if sub, ok := src.(interface {
		SubImage(r image.Rectangle) image.Image
	}); ok {
		return sub.SubImage(rect)
	}

	dst := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	for y := 0; y < rect.Dy(); y++ {
		for x := 0; x < rect.Dx(); x++ {
			dst.Set(x, y, src.At(rect.Min.X+x, rect.Min.Y+y))
		}
	}
	return dst
}
