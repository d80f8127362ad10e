// internal/imaging/imaging.go
//
// The single compression step applied to card art before persistence:
// decode (PNG or JPEG), downscale to a fixed max dimension, re-encode as
// JPEG at a fixed quality. Not a general image pipeline.

package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"

	xdraw "golang.org/x/image/draw"
)

const (
	// MaxDimension bounds the longer image side after compression.
	MaxDimension = 512
	// Quality is the fixed JPEG re-encode quality.
	Quality = 80
)

// Decode parses PNG or JPEG bytes into an image.
func Decode(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

// Compress decodes, downscales to MaxDimension, and re-encodes as JPEG.
// Images already within bounds skip the scale but are still re-encoded,
// so the persisted format is uniform.
func Compress(data []byte) ([]byte, error) {
	img, err := Decode(data)
	if err != nil {
		return nil, err
	}

	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w > MaxDimension || h > MaxDimension {
		scale := float64(MaxDimension) / float64(w)
		if h > w {
			scale = float64(MaxDimension) / float64(h)
		}
		dw := int(float64(w) * scale)
		dh := int(float64(h) * scale)
		if dw < 1 {
			dw = 1
		}
		if dh < 1 {
			dh = 1
		}
		dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
		xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, b, xdraw.Over, nil)
		img = dst
	}

	var out bytes.Buffer
	if err := jpeg.Encode(&out, img, &jpeg.Options{Quality: Quality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return out.Bytes(), nil
}
