// Package psnr computes the per-channel Peak Signal-to-Noise Ratio between a
// reference image and a candidate image of the same size.
//
// For every channel c the engine accumulates
//
//	peak[c]  = max over all pixels of lhs[c]
//	sumSq[c] = sum over all pixels of (lhs[c] - rhs[c])^2
//
// and then reports 10*log10(peak[c]^2 / (sumSq[c] / (W*H))).
//
// Two conventions differ from the textbook formula and callers must know them:
//
//   - The numerator peak is, by default, the largest intensity observed in the
//     left-hand (reference) image for that channel, not the 8-bit constant 255.
//     Use Options{Peak: PeakFixed} for the textbook metric.
//   - A channel with zero mean squared error reports 0, not +Inf. A value of 0
//     therefore means "exact match", never "0 dB".
package psnr

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

var (
	// ErrDimensionMismatch is returned when the two images differ in width or height.
	ErrDimensionMismatch = errors.New("pictures have different dimensions")

	// ErrChannelMismatch is returned when the two images differ in channel count.
	ErrChannelMismatch = errors.New("pictures have different number of channels")

	// ErrEmptyImage is returned when the images have no pixels to sample.
	ErrEmptyImage = errors.New("pictures have no pixels")
)

// MismatchError carries the offending values of a failed precondition.
// It unwraps to ErrDimensionMismatch or ErrChannelMismatch.
type MismatchError struct {
	Err   error
	Left  string
	Right string
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("%v: %s vs %s", e.Err, e.Left, e.Right)
}

func (e *MismatchError) Unwrap() error {
	return e.Err
}

// PeakMode selects the numerator reference of the PSNR formula.
type PeakMode int

const (
	PeakObserved PeakMode = iota // Largest intensity seen in the reference image, per channel
	PeakFixed                    // Constant 255
)

// MaxIntensity is the largest 8-bit channel value, used by PeakFixed.
const MaxIntensity = 255

func (m PeakMode) String() string {
	switch m {
	case PeakObserved:
		return "observed"
	case PeakFixed:
		return "fixed"
	default:
		return "unknown"
	}
}

// ParsePeakMode maps a flag value to a PeakMode. The empty string means observed.
func ParsePeakMode(s string) (PeakMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "observed":
		return PeakObserved, nil
	case "fixed", "255":
		return PeakFixed, nil
	default:
		return PeakObserved, fmt.Errorf("unknown peak mode: %q", s)
	}
}

// Options tune a computation. The zero value matches Compute.
type Options struct {
	Peak PeakMode

	// Workers > 1 splits the rows into that many contiguous ranges reduced
	// in parallel. Results are identical to the sequential pass.
	Workers int
}

// Stats holds the intermediate and final values of one computation, one
// entry per channel in input order.
type Stats struct {
	Width    int
	Height   int
	Channels int
	Mode     PeakMode

	Peak  []float64 // Peak used as the numerator reference
	SumSq []float64 // Sum of squared differences
	MSE   []float64 // SumSq / (Width*Height)
	PSNR  []float64 // dB, or 0 when MSE is 0
}

// Identical reports whether every channel had zero error.
func (s *Stats) Identical() bool {
	for _, mse := range s.MSE {
		if mse != 0 {
			return false
		}
	}
	return true
}

// Compute returns the per-channel PSNR of rhs against the reference lhs,
// with the observed-peak numerator and the 0 exact-match sentinel described
// in the package documentation.
//
// The result is not symmetric: swapping the arguments keeps the squared
// error but changes the peak, which is taken from lhs.
func Compute(lhs, rhs Image) ([]float64, error) {
	return ComputeWithOptions(lhs, rhs, Options{})
}

// ComputeWithOptions is Compute with explicit options.
func ComputeWithOptions(lhs, rhs Image, opts Options) ([]float64, error) {
	stats, err := Analyze(lhs, rhs, opts)
	if err != nil {
		return nil, err
	}
	return stats.PSNR, nil
}

// Analyze validates the inputs, runs the accumulation pass and returns all
// per-channel values.
func Analyze(lhs, rhs Image, opts Options) (*Stats, error) {
	channels, err := validate(lhs, rhs)
	if err != nil {
		return nil, err
	}

	width, height := lhs.Size()
	acc := accumulate(lhs, rhs, channels, opts.Workers)

	stats := &Stats{
		Width:    width,
		Height:   height,
		Channels: channels,
		Mode:     opts.Peak,
		Peak:     make([]float64, channels),
		SumSq:    make([]float64, channels),
		MSE:      make([]float64, channels),
		PSNR:     make([]float64, channels),
	}

	pixels := float64(width * height)
	for c := 0; c < channels; c++ {
		peak := float64(acc.peak[c])
		if opts.Peak == PeakFixed {
			peak = MaxIntensity
		}

		stats.Peak[c] = peak
		stats.SumSq[c] = float64(acc.sumSq[c])
		stats.MSE[c] = stats.SumSq[c] / pixels

		if stats.MSE[c] != 0 {
			stats.PSNR[c] = 10 * math.Log10(peak*peak/stats.MSE[c])
		}
	}

	return stats, nil
}

// validate checks both preconditions and returns the shared channel count.
func validate(lhs, rhs Image) (int, error) {
	lw, lh := lhs.Size()
	rw, rh := rhs.Size()

	if lw != rw || lh != rh {
		return 0, &MismatchError{
			Err:   ErrDimensionMismatch,
			Left:  fmt.Sprintf("%dx%d", lw, lh),
			Right: fmt.Sprintf("%dx%d", rw, rh),
		}
	}
	if lw <= 0 || lh <= 0 {
		return 0, ErrEmptyImage
	}

	lc := len(lhs.PixelAt(0, 0))
	rc := len(rhs.PixelAt(0, 0))
	if lc != rc {
		return 0, &MismatchError{
			Err:   ErrChannelMismatch,
			Left:  fmt.Sprintf("%d channels", lc),
			Right: fmt.Sprintf("%d channels", rc),
		}
	}

	return lc, nil
}
