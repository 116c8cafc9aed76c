package psnr

import (
	"fmt"
	"image"
	"image/color"
	"strings"
)

// Image is a read-only grid of pixels, each holding the same number of
// 8-bit channel intensities.
//
// PixelAt must be valid for 0 <= x < width and 0 <= y < height. The engine
// never modifies the returned slice.
type Image interface {
	Size() (width, height int)
	PixelAt(x, y int) []uint8
}

// Raster is a packed, row-major, channel-interleaved pixel buffer.
// Pixel (x, y) occupies Pix[(y*Width+x)*Channels : (y*Width+x+1)*Channels].
type Raster struct {
	Width    int
	Height   int
	Channels int
	Pix      []uint8
}

// NewRaster allocates a zeroed raster.
func NewRaster(width, height, channels int) *Raster {
	return &Raster{
		Width:    width,
		Height:   height,
		Channels: channels,
		Pix:      make([]uint8, width*height*channels),
	}
}

// Size implements Image.
func (r *Raster) Size() (int, int) {
	return r.Width, r.Height
}

// PixelAt implements Image. The returned slice aliases Pix.
func (r *Raster) PixelAt(x, y int) []uint8 {
	i := r.offset(x, y)
	return r.Pix[i : i+r.Channels : i+r.Channels]
}

// Set overwrites the channels of pixel (x, y). Extra values are ignored.
func (r *Raster) Set(x, y int, channels ...uint8) {
	copy(r.PixelAt(x, y), channels)
}

// Fill sets every pixel to the given channel values.
func (r *Raster) Fill(channels ...uint8) {
	for y := 0; y < r.Height; y++ {
		for x := 0; x < r.Width; x++ {
			r.Set(x, y, channels...)
		}
	}
}

// Clone returns a deep copy.
func (r *Raster) Clone() *Raster {
	dst := &Raster{Width: r.Width, Height: r.Height, Channels: r.Channels}
	dst.Pix = make([]uint8, len(r.Pix))
	copy(dst.Pix, r.Pix)
	return dst
}

func (r *Raster) offset(x, y int) int {
	return (y*r.Width + x) * r.Channels
}

// ChannelLayout selects how a standard library image is split into channels.
type ChannelLayout int

const (
	LayoutAuto ChannelLayout = iota // Gray sources keep 1 channel, CMYK keeps 4, the rest become RGBA
	LayoutGray                      // Single luma channel
	LayoutRGB                       // Red, green, blue; alpha dropped
	LayoutRGBA                      // Non-premultiplied red, green, blue, alpha
	LayoutCMYK                      // Cyan, magenta, yellow, black
)

func (l ChannelLayout) String() string {
	switch l {
	case LayoutAuto:
		return "auto"
	case LayoutGray:
		return "gray"
	case LayoutRGB:
		return "rgb"
	case LayoutRGBA:
		return "rgba"
	case LayoutCMYK:
		return "cmyk"
	default:
		return "unknown"
	}
}

// ParseChannelLayout maps a flag value to a layout. The empty string means auto.
func ParseChannelLayout(s string) (ChannelLayout, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return LayoutAuto, nil
	case "gray", "grey", "luma":
		return LayoutGray, nil
	case "rgb":
		return LayoutRGB, nil
	case "rgba":
		return LayoutRGBA, nil
	case "cmyk":
		return LayoutCMYK, nil
	default:
		return LayoutAuto, fmt.Errorf("unknown channel layout: %q", s)
	}
}

// Resolve returns the concrete layout FromImage uses for src. Explicit
// layouts are returned unchanged.
func Resolve(src image.Image, layout ChannelLayout) ChannelLayout {
	if layout != LayoutAuto {
		return layout
	}
	switch src.(type) {
	case *image.Gray, *image.Gray16:
		return LayoutGray
	case *image.CMYK:
		return LayoutCMYK
	default:
		return LayoutRGBA
	}
}

// ChannelNames returns display names for a raster with the given channel count
// produced from a src image under layout.
func ChannelNames(src image.Image, layout ChannelLayout, channels int) []string {
	switch channels {
	case 1:
		return []string{"Y"}
	case 3:
		return []string{"R", "G", "B"}
	case 4:
		if Resolve(src, layout) == LayoutCMYK {
			return []string{"C", "M", "Y", "K"}
		}
		return []string{"R", "G", "B", "A"}
	}

	names := make([]string, channels)
	for i := range names {
		names[i] = fmt.Sprintf("c%d", i)
	}
	return names
}

// FromImage copies src into a Raster using layout. Raster pixel (0, 0) is
// src.Bounds().Min.
func FromImage(src image.Image, layout ChannelLayout) *Raster {
	bounds := src.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	switch Resolve(src, layout) {
	case LayoutGray:
		dst := NewRaster(width, height, 1)
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				g := color.GrayModel.Convert(src.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.Gray)
				dst.Pix[y*width+x] = g.Y
			}
		}
		return dst

	case LayoutRGB:
		dst := NewRaster(width, height, 3)
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				c := color.NRGBAModel.Convert(src.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.NRGBA)
				dst.Set(x, y, c.R, c.G, c.B)
			}
		}
		return dst

	case LayoutCMYK:
		if cmyk, ok := src.(*image.CMYK); ok {
			return copyPacked(cmyk.Pix, cmyk.Stride, cmyk.Rect)
		}
		dst := NewRaster(width, height, 4)
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				c := color.CMYKModel.Convert(src.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.CMYK)
				dst.Set(x, y, c.C, c.M, c.Y, c.K)
			}
		}
		return dst

	default:
		if nrgba, ok := src.(*image.NRGBA); ok {
			return copyPacked(nrgba.Pix, nrgba.Stride, nrgba.Rect)
		}
		dst := NewRaster(width, height, 4)
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				c := color.NRGBAModel.Convert(src.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.NRGBA)
				dst.Set(x, y, c.R, c.G, c.B, c.A)
			}
		}
		return dst
	}
}

// copyPacked copies 4-byte-per-pixel rows straight out of pix, honouring stride.
func copyPacked(pix []uint8, stride int, bounds image.Rectangle) *Raster {
	width, height := bounds.Dx(), bounds.Dy()
	dst := NewRaster(width, height, 4)

	for y := 0; y < height; y++ {
		i := y * stride
		copy(dst.Pix[y*width*4:(y+1)*width*4], pix[i:i+width*4])
	}
	return dst
}
