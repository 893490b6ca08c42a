package loaders

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func writeSpv(t *testing.T, words []uint32) string {
	t.Helper()
	buf := &bytes.Buffer{}
	for _, w := range words {
		if err := binary.Write(buf, binary.LittleEndian, w); err != nil {
			t.Fatal(err)
		}
	}
	path := filepath.Join(t.TempDir(), "test.spv")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestShaderLoaderValidModule(t *testing.T) {
	path := writeSpv(t, []uint32{0x07230203, 0x00010000, 0, 0, 0})
	sl := &ShaderLoader{}
	code, err := sl.Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(code) != 20 {
		t.Errorf("len(code) = %d, want 20", len(code))
	}
}

func TestShaderLoaderRejectsBadMagic(t *testing.T) {
	path := writeSpv(t, []uint32{0xdeadbeef, 0, 0})
	sl := &ShaderLoader{}
	if _, err := sl.Load(path); err == nil {
		t.Error("Load() error = nil for a module without the SPIR-V magic, want error")
	}
}

func TestShaderLoaderRejectsTruncatedModule(t *testing.T) {
	path := filepath.Join(t.TempDir(), "short.spv")
	if err := os.WriteFile(path, []byte{0x03, 0x02}, 0o644); err != nil {
		t.Fatal(err)
	}
	sl := &ShaderLoader{}
	if _, err := sl.Load(path); err == nil {
		t.Error("Load() error = nil for a truncated module, want error")
	}
}

func TestTextureLoaderDecodesPNG(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.NRGBA{R: 255, A: 255})
	img.Set(1, 0, color.NRGBA{G: 255, A: 255})
	img.Set(0, 1, color.NRGBA{B: 255, A: 255})
	img.Set(1, 1, color.NRGBA{R: 255, G: 255, B: 255, A: 255})

	path := filepath.Join(t.TempDir(), "quad.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	f.Close()

	tl := &TextureLoader{}
	tex, err := tl.Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if tex.Width != 2 || tex.Height != 2 {
		t.Errorf("decoded size = %dx%d, want 2x2", tex.Width, tex.Height)
	}
	if len(tex.Pixels) != 2*2*4 {
		t.Fatalf("len(Pixels) = %d, want 16", len(tex.Pixels))
	}
	// First pixel is opaque red in RGBA order.
	if tex.Pixels[0] != 255 || tex.Pixels[1] != 0 || tex.Pixels[2] != 0 || tex.Pixels[3] != 255 {
		t.Errorf("pixel (0,0) = %v, want opaque red", tex.Pixels[:4])
	}
}

func TestTextureLoaderMissingFile(t *testing.T) {
	tl := &TextureLoader{}
	if _, err := tl.Load(filepath.Join(t.TempDir(), "missing.png")); err == nil {
		t.Error("Load() error = nil for a missing file, want error")
	}
}
