package software

import (
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
)

// Image copies the framebuffer into an image.RGBA. Rows are flipped so the
// result uses the usual top-left image origin.
func (e *Env) Image() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, e.width, e.height))
	for y := 0; y < e.height; y++ {
		srcRow := (e.height - 1 - y) * e.width
		for x := 0; x < e.width; x++ {
			c := e.fb[srcRow+x]
			img.SetRGBA(x, y, color.RGBA{
				R: channelByte(c[0]),
				G: channelByte(c[1]),
				B: channelByte(c[2]),
				A: channelByte(c[3]),
			})
		}
	}
	return img
}

// WritePNG encodes the framebuffer as PNG. Harnesses use this to keep an
// artifact of the render target when a probe fails.
func (e *Env) WritePNG(w io.Writer) error {
	if e.closed {
		return ErrClosed
	}
	return png.Encode(w, e.Image())
}

// SavePNG writes the framebuffer to a PNG file.
func (e *Env) SavePNG(path string) error {
	f, err := os.Create(filepath.Clean(path))
	if err != nil {
		return err
	}
	defer f.Close()
	return e.WritePNG(f)
}

func channelByte(v float32) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 1:
		return 255
	default:
		return uint8(v*255 + 0.5)
	}
}
