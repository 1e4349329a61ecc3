package imagecache

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"

	// Registered decoders for image.Decode / image.DecodeConfig.
	_ "image/gif"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

const jpegQuality = 90

// DecodeConfig reports the format and dimensions of an encoded image
// without decoding the pixels.
func DecodeConfig(data []byte) (format string, width, height int, err error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", 0, 0, fmt.Errorf("decode image config: %w", err)
	}
	return format, cfg.Width, cfg.Height, nil
}

// Downscale shrinks an image so its longer side is at most maxSide and
// re-encodes it as JPEG. Images already within bounds are returned as is.
func Downscale(data []byte, maxSide int) ([]byte, error) {
	_, w, h, err := DecodeConfig(data)
	if err != nil {
		return nil, err
	}
	if maxSide <= 0 || (w <= maxSide && h <= maxSide) {
		return data, nil
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	nw, nh := maxSide, h*maxSide/w
	if h > w {
		nw, nh = w*maxSide/h, maxSide
	}
	dst := image.NewRGBA(image.Rect(0, 0, max(nw, 1), max(nh, 1)))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// ReadScaled reads a cached image, verifies it decodes and downscales it
// to maxSide.
func (c *Cache) ReadScaled(path string, maxSide int) ([]byte, error) {
	data, err := c.ReadImage(path)
	if err != nil {
		return nil, err
	}
	out, err := Downscale(data, maxSide)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return out, nil
}
