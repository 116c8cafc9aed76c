// Package compare wires the loader, the PSNR engine and the reporter into
// the single reference/candidate operation used by the CLI and the server.
package compare

import (
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"time"

	"github.com/cwbudde/psnr/internal/imageio"
	"github.com/cwbudde/psnr/internal/psnr"
	"github.com/cwbudde/psnr/internal/report"
)

// Request describes one comparison.
type Request struct {
	Reference string `json:"reference"`
	Candidate string `json:"candidate"`
	Peak      string `json:"peak,omitempty"`   // observed (default) or fixed
	Layout    string `json:"layout,omitempty"` // auto (default), gray, rgb, rgba, cmyk
	Workers   int    `json:"workers,omitempty"`
}

// Options parses the textual fields of the request.
func (r Request) Options() (psnr.ChannelLayout, psnr.Options, error) {
	if r.Reference == "" {
		return 0, psnr.Options{}, fmt.Errorf("reference path is required")
	}
	if r.Candidate == "" {
		return 0, psnr.Options{}, fmt.Errorf("candidate path is required")
	}

	layout, err := psnr.ParseChannelLayout(r.Layout)
	if err != nil {
		return 0, psnr.Options{}, err
	}
	peak, err := psnr.ParsePeakMode(r.Peak)
	if err != nil {
		return 0, psnr.Options{}, err
	}
	if r.Workers < 0 {
		return 0, psnr.Options{}, fmt.Errorf("workers cannot be negative: %d", r.Workers)
	}

	return layout, psnr.Options{Peak: peak, Workers: r.Workers}, nil
}

// Run loads both images and produces a report. Dimension and channel
// mismatches unwrap to the psnr sentinels.
func Run(req Request) (*report.Report, error) {
	layout, opts, err := req.Options()
	if err != nil {
		return nil, err
	}

	ref, cand, err := loadPair(req, layout)
	if err != nil {
		return nil, err
	}

	return analyze(req, ref, cand, opts)
}

// loadPair loads both images of req with a common channel layout.
func loadPair(req Request, layout psnr.ChannelLayout) (*imageio.Decoded, *imageio.Decoded, error) {
	ref, err := imageio.Load(req.Reference, layout)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load reference: %w", err)
	}
	cand, err := imageio.Load(req.Candidate, layout)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load candidate: %w", err)
	}

	ref, cand = harmonize(ref, cand)
	return ref, cand, nil
}

// harmonize re-rasterizes both images as RGBA when auto layout picked
// different color models with the same channel count, such as a CMYK JPEG
// against an RGBA PNG. Differing channel counts are left for the engine to
// reject.
func harmonize(ref, cand *imageio.Decoded) (*imageio.Decoded, *imageio.Decoded) {
	if ref.Layout == cand.Layout || ref.Raster.Channels != cand.Raster.Channels {
		return ref, cand
	}

	slog.Debug("Converting both images to RGBA",
		"reference_layout", ref.Layout.String(),
		"candidate_layout", cand.Layout.String(),
	)
	return ref.WithLayout(psnr.LayoutRGBA), cand.WithLayout(psnr.LayoutRGBA)
}

// analyze runs the engine over a loaded pair and builds the report.
func analyze(req Request, ref, cand *imageio.Decoded, opts psnr.Options) (*report.Report, error) {
	start := time.Now()
	stats, err := psnr.Analyze(ref.Raster, cand.Raster, opts)
	if err != nil {
		return nil, err
	}

	slog.Debug("PSNR computed",
		"reference", req.Reference,
		"candidate", req.Candidate,
		"peak", opts.Peak,
		"psnr", stats.PSNR,
		"elapsed", time.Since(start),
	)

	return report.New(req.Reference, req.Candidate, ref.Layout, ref.Channels, stats), nil
}

// DiffImage renders a false-color difference map: black where the images
// agree, brighter red for a larger worst-channel difference.
func DiffImage(lhs, rhs *psnr.Raster) (*image.NRGBA, error) {
	if lhs.Width != rhs.Width || lhs.Height != rhs.Height {
		return nil, &psnr.MismatchError{
			Err:   psnr.ErrDimensionMismatch,
			Left:  fmt.Sprintf("%dx%d", lhs.Width, lhs.Height),
			Right: fmt.Sprintf("%dx%d", rhs.Width, rhs.Height),
		}
	}
	if lhs.Channels != rhs.Channels {
		return nil, &psnr.MismatchError{
			Err:   psnr.ErrChannelMismatch,
			Left:  fmt.Sprintf("%d channels", lhs.Channels),
			Right: fmt.Sprintf("%d channels", rhs.Channels),
		}
	}

	diff := image.NewNRGBA(image.Rect(0, 0, lhs.Width, lhs.Height))
	for y := 0; y < lhs.Height; y++ {
		for x := 0; x < lhs.Width; x++ {
			lp := lhs.PixelAt(x, y)
			rp := rhs.PixelAt(x, y)

			var worst int32
			for c := range lp {
				d := int32(lp[c]) - int32(rp[c])
				if d < 0 {
					d = -d
				}
				worst = max(worst, d)
			}

			diff.SetNRGBA(x, y, color.NRGBA{R: uint8(worst), A: 255})
		}
	}

	return diff, nil
}

// DiffFiles loads both images of req and renders DiffImage.
func DiffFiles(req Request) (*image.NRGBA, error) {
	layout, _, err := req.Options()
	if err != nil {
		return nil, err
	}

	ref, cand, err := loadPair(req, layout)
	if err != nil {
		return nil, err
	}

	return DiffImage(ref.Raster, cand.Raster)
}
