package psnr

import (
	"log/slog"
	"sync"
	"unsafe"

	"golang.org/x/sys/cpu"
)

// accumulator is the running (peak, sumSq) state of every channel.
//
// Values are kept as integers: a single squared difference is at most
// 255^2, so uint64 sums cannot overflow for any image that fits in memory
// and the conversion to float64 at the end is exact below 2^53.
type accumulator struct {
	peak  []uint64
	sumSq []uint64
}

// merge folds o into a: element-wise max for peak, sum for sumSq.
func (a accumulator) merge(o accumulator) {
	for c := range a.peak {
		if o.peak[c] > a.peak[c] {
			a.peak[c] = o.peak[c]
		}
		a.sumSq[c] += o.sumSq[c]
	}
}

// cacheLineWords is the number of uint64 words in one cache line.
var cacheLineWords = max(1, int(unsafe.Sizeof(cpu.CacheLinePad{}))/8)

// partialStride returns the slab words reserved per worker, rounded up to a
// whole number of cache lines so that neighbouring workers never write the
// same line.
func partialStride(channels int) int {
	n := 2 * channels
	return (n + cacheLineWords - 1) / cacheLineWords * cacheLineWords
}

// accumulate runs the full pass over lhs and rhs. channels has already been
// validated against both images.
func accumulate(lhs, rhs Image, channels, workers int) accumulator {
	_, height := lhs.Size()
	if workers > height {
		workers = height
	}
	if workers < 1 {
		workers = 1
	}

	stride := partialStride(channels)
	slab := make([]uint64, workers*stride)
	parts := make([]accumulator, workers)
	for w := range parts {
		base := w * stride
		parts[w] = accumulator{
			peak:  slab[base : base+channels : base+channels],
			sumSq: slab[base+channels : base+2*channels : base+2*channels],
		}
	}

	kernel := accumulateRows
	lr, lok := lhs.(*Raster)
	rr, rok := rhs.(*Raster)
	if lok && rok {
		kernel = func(_, _ Image, y0, y1 int, acc accumulator) {
			accumulateRasterRows(lr, rr, y0, y1, acc)
		}
	}

	if workers == 1 {
		kernel(lhs, rhs, 0, height, parts[0])
		return parts[0]
	}

	slog.Debug("PSNR accumulation split", "workers", workers, "rows", height, "channels", channels)

	var wg sync.WaitGroup
	rowsPer := (height + workers - 1) / workers
	for w := 0; w < workers; w++ {
		y0 := w * rowsPer
		y1 := min(y0+rowsPer, height)
		if y0 >= y1 {
			continue
		}

		wg.Add(1)
		go func(acc accumulator) {
			defer wg.Done()
			kernel(lhs, rhs, y0, y1, acc)
		}(parts[w])
	}
	wg.Wait()

	for w := 1; w < workers; w++ {
		parts[0].merge(parts[w])
	}
	return parts[0]
}

// accumulateRows folds rows [y0, y1) through the Image interface.
func accumulateRows(lhs, rhs Image, y0, y1 int, acc accumulator) {
	width, _ := lhs.Size()
	channels := len(acc.peak)

	for y := y0; y < y1; y++ {
		for x := 0; x < width; x++ {
			lp := lhs.PixelAt(x, y)
			rp := rhs.PixelAt(x, y)

			for c := 0; c < channels; c++ {
				l := lp[c]
				d := int32(l) - int32(rp[c])
				if d < 0 {
					d = -d
				}
				if uint64(l) > acc.peak[c] {
					acc.peak[c] = uint64(l)
				}
				acc.sumSq[c] += uint64(d * d)
			}
		}
	}
}

// accumulateRasterRows is accumulateRows over packed buffers, without the
// per-pixel interface calls.
func accumulateRasterRows(lhs, rhs *Raster, y0, y1 int, acc accumulator) {
	channels := len(acc.peak)
	start := y0 * lhs.Width * channels
	end := y1 * lhs.Width * channels
	a := lhs.Pix[start:end]
	b := rhs.Pix[start:end]

	for i := 0; i < len(a); i += channels {
		for c := 0; c < channels; c++ {
			l := a[i+c]
			d := int32(l) - int32(b[i+c])
			if uint64(l) > acc.peak[c] {
				acc.peak[c] = uint64(l)
			}
			acc.sumSq[c] += uint64(d * d)
		}
	}
}
