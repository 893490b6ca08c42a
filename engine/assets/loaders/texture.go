package loaders

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"golang.org/x/image/draw"
)

// TextureData is a decoded image in tightly packed RGBA8 form, ready for a
// GPU upload.
type TextureData struct {
	Pixels []byte
	Width  uint32
	Height uint32
}

// TextureLoader decodes image files into RGBA8 pixel data.
type TextureLoader struct{}

// Load decodes the image at path. Any registered format (PNG, JPEG) works;
// the result is always converted to RGBA8.
func (tl *TextureLoader) Load(path string) (*TextureData, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("unable to open texture '%s': %w", path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("unable to decode texture '%s': %w", path, err)
	}

	bounds := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)

	return &TextureData{
		Pixels: rgba.Pix,
		Width:  uint32(bounds.Dx()),
		Height: uint32(bounds.Dy()),
	}, nil
}
