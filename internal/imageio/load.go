// Package imageio decodes image files into rasters the PSNR engine can read.
package imageio

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"os"

	"github.com/cwbudde/psnr/internal/psnr"
	"golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Decoded is a loaded image ready for comparison.
type Decoded struct {
	Source   image.Image // Decoded image after normalization
	Raster   *psnr.Raster
	Format   string             // Registered format name, e.g. "png"
	Layout   psnr.ChannelLayout // Layout actually used, never LayoutAuto
	Channels []string           // Display name of every raster channel
}

// Load opens path and decodes it with Decode.
func Load(path string, layout psnr.ChannelLayout) (*Decoded, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	d, err := Decode(f, layout)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}

	slog.Debug("Loaded image", "path", path, "format", d.Format,
		"width", d.Raster.Width, "height", d.Raster.Height, "channels", d.Raster.Channels)
	return d, nil
}

// Decode reads any registered format (PNG, JPEG, GIF, BMP, TIFF, WebP) from r.
func Decode(r io.Reader, layout psnr.ChannelLayout) (*Decoded, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, err
	}

	return New(img, format, layout), nil
}

// New rasterizes an already decoded image.
func New(img image.Image, format string, layout psnr.ChannelLayout) *Decoded {
	src := normalize(img, layout)
	raster := psnr.FromImage(src, layout)

	return &Decoded{
		Source:   src,
		Raster:   raster,
		Format:   format,
		Layout:   psnr.Resolve(src, layout),
		Channels: psnr.ChannelNames(src, layout, raster.Channels),
	}
}

// WithLayout rasterizes the same source again under layout.
func (d *Decoded) WithLayout(layout psnr.ChannelLayout) *Decoded {
	return New(d.Source, d.Format, layout)
}

// normalize converts sources without a direct raster mapping to NRGBA.
// Gray, CMYK and NRGBA pass through untouched so that auto layout keeps
// their native channels.
func normalize(img image.Image, layout psnr.ChannelLayout) image.Image {
	switch img.(type) {
	case *image.Gray, *image.Gray16, *image.CMYK, *image.NRGBA:
		return img
	}
	if layout == psnr.LayoutGray || layout == psnr.LayoutCMYK {
		return img
	}

	bounds := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(dst, dst.Bounds(), img, bounds.Min, draw.Src)
	return dst
}
