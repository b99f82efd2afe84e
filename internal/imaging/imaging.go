// Package imaging prepares cover images for inference requests and
// renders thumbnails for the static site.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"net/http"

	"github.com/nfnt/resize"
	_ "golang.org/x/image/webp"
)

// jpegQuality is used for every re-encoded image.
const jpegQuality = 85

// Payload is an image ready to be sent to an inference service.
type Payload struct {
	Data      []byte
	MediaType string
	Width     int
	Height    int
}

// MediaType sniffs the content type of data. WebP is reported as
// image/webp even on platforms whose sniffer predates it.
func MediaType(data []byte) string {
	if len(data) >= 12 && string(data[0:4]) == "RIFF" && string(data[8:12]) == "WEBP" {
		return "image/webp"
	}
	return http.DetectContentType(data)
}

// Prepare validates data as an image and downscales it when either side
// exceeds maxDim. A non-positive maxDim disables downscaling. Resized
// images are re-encoded as JPEG.
func Prepare(data []byte, maxDim int) (Payload, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Payload{}, fmt.Errorf("imaging: decode config: %w", err)
	}
	p := Payload{Data: data, MediaType: MediaType(data), Width: cfg.Width, Height: cfg.Height}
	if maxDim <= 0 || (cfg.Width <= maxDim && cfg.Height <= maxDim) {
		return p, nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return Payload{}, fmt.Errorf("imaging: decode %s: %w", format, err)
	}
	w, h := fit(cfg.Width, cfg.Height, maxDim)
	out, err := encodeJPEG(resize.Resize(uint(w), uint(h), img, resize.Lanczos3))
	if err != nil {
		return Payload{}, err
	}
	return Payload{Data: out, MediaType: "image/jpeg", Width: w, Height: h}, nil
}

// Thumbnail renders a JPEG whose longer side is size pixels. Smaller
// images are re-encoded without upscaling.
func Thumbnail(data []byte, size int) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("imaging: decode: %w", err)
	}
	b := img.Bounds()
	if b.Dx() > size || b.Dy() > size {
		w, h := fit(b.Dx(), b.Dy(), size)
		img = resize.Resize(uint(w), uint(h), img, resize.Lanczos3)
	}
	return encodeJPEG(img)
}

func fit(width, height, maxDim int) (int, int) {
	if width > height {
		height = max(1, height*maxDim/width)
		width = maxDim
	} else {
		width = max(1, width*maxDim/height)
		height = maxDim
	}
	return width, height
}

func encodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("imaging: encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}
