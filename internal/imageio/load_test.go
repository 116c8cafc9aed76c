package imageio

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/cwbudde/psnr/internal/psnr"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

// testPattern creates an opaque NRGBA gradient
func testPattern(width, height int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 16), G: uint8(y * 16), B: 128, A: 255})
		}
	}
	return img
}

// writeFile encodes img into dir/name with enc
func writeFile(t *testing.T, dir, name string, enc func(f *os.File) error) string {
	t.Helper()

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create %s: %v", path, err)
	}
	defer f.Close()

	if err := enc(f); err != nil {
		t.Fatalf("Failed to encode %s: %v", path, err)
	}
	return path
}

func TestLoad_Formats(t *testing.T) {
	dir := t.TempDir()
	src := testPattern(8, 6)

	tests := []struct {
		name   string
		file   string
		format string
		enc    func(f *os.File) error
	}{
		{"png", "a.png", "png", func(f *os.File) error { return png.Encode(f, src) }},
		{"bmp", "a.bmp", "bmp", func(f *os.File) error { return bmp.Encode(f, src) }},
		{"tiff", "a.tiff", "tiff", func(f *os.File) error { return tiff.Encode(f, src, nil) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, dir, tt.file, tt.enc)

			d, err := Load(path, psnr.LayoutRGB)
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			if d.Format != tt.format {
				t.Errorf("Expected format %s, got %s", tt.format, d.Format)
			}
			if d.Raster.Width != 8 || d.Raster.Height != 6 || d.Raster.Channels != 3 {
				t.Fatalf("Unexpected raster shape %dx%dx%d", d.Raster.Width, d.Raster.Height, d.Raster.Channels)
			}
			if got := d.Raster.PixelAt(3, 2); !reflect.DeepEqual(got, []uint8{48, 32, 128}) {
				t.Errorf("Expected [48 32 128], got %v", got)
			}
			if !reflect.DeepEqual(d.Channels, []string{"R", "G", "B"}) {
				t.Errorf("Expected RGB channel names, got %v", d.Channels)
			}
		})
	}
}

func TestLoad_GrayKeepsOneChannel(t *testing.T) {
	gray := image.NewGray(image.Rect(0, 0, 4, 4))
	gray.SetGray(1, 1, color.Gray{Y: 200})

	var buf bytes.Buffer
	if err := png.Encode(&buf, gray); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	d, err := Decode(&buf, psnr.LayoutAuto)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if d.Raster.Channels != 1 {
		t.Fatalf("Expected 1 channel, got %d", d.Raster.Channels)
	}
	if d.Layout != psnr.LayoutGray {
		t.Errorf("Expected effective layout gray, got %s", d.Layout)
	}
	if d.Raster.PixelAt(1, 1)[0] != 200 {
		t.Errorf("Expected 200, got %d", d.Raster.PixelAt(1, 1)[0])
	}
}

func TestLoad_PalettedBecomesRGBA(t *testing.T) {
	palette := color.Palette{color.NRGBA{0, 0, 0, 255}, color.NRGBA{255, 0, 0, 255}}
	img := image.NewPaletted(image.Rect(0, 0, 2, 2), palette)
	img.SetColorIndex(1, 0, 1)

	var buf bytes.Buffer
	if err := gif.Encode(&buf, img, nil); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	d, err := Decode(&buf, psnr.LayoutAuto)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if d.Format != "gif" {
		t.Errorf("Expected gif, got %s", d.Format)
	}
	if got := d.Raster.PixelAt(1, 0); !reflect.DeepEqual(got, []uint8{255, 0, 0, 255}) {
		t.Errorf("Expected [255 0 0 255], got %v", got)
	}
	if d.Layout != psnr.LayoutRGBA {
		t.Errorf("Expected effective layout rgba, got %s", d.Layout)
	}
}

func TestDecoded_WithLayout(t *testing.T) {
	src := image.NewCMYK(image.Rect(0, 0, 2, 2))
	for i := 0; i < len(src.Pix); i += 4 {
		src.Pix[i] = 255 // Pure cyan
	}

	d := New(src, "jpeg", psnr.LayoutAuto)
	if d.Layout != psnr.LayoutCMYK {
		t.Fatalf("Expected effective layout cmyk, got %s", d.Layout)
	}
	if !reflect.DeepEqual(d.Channels, []string{"C", "M", "Y", "K"}) {
		t.Errorf("Expected CMYK names, got %v", d.Channels)
	}

	rgba := d.WithLayout(psnr.LayoutRGBA)
	if rgba.Layout != psnr.LayoutRGBA || rgba.Format != "jpeg" {
		t.Errorf("Unexpected layout/format %s/%s", rgba.Layout, rgba.Format)
	}
	if got := rgba.Raster.PixelAt(1, 1); !reflect.DeepEqual(got, []uint8{0, 255, 255, 255}) {
		t.Errorf("Expected cyan as [0 255 255 255], got %v", got)
	}
	if !reflect.DeepEqual(rgba.Channels, []string{"R", "G", "B", "A"}) {
		t.Errorf("Expected RGBA names, got %v", rgba.Channels)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.png"), psnr.LayoutAuto)
	if err == nil {
		t.Fatal("Expected error for missing file")
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Expected not-exist error, got %v", err)
	}
}

func TestDecode_Garbage(t *testing.T) {
	_, err := Decode(bytes.NewReader([]byte("not an image")), psnr.LayoutAuto)
	if !errors.Is(err, image.ErrFormat) {
		t.Errorf("Expected image.ErrFormat, got %v", err)
	}
}
