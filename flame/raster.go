package flame

import (
	"image"
	"image/color"
	"math"
	"runtime"
	"sync"

	"gonum.org/v1/gonum/spatial/r2"
)

// parallelThreshold is the minimum row count worth splitting across workers.
const parallelThreshold = 64

// Render rasterizes the fire field into dst at time t. Pixel centers map to
// uv in [-1,1]² with +y at the top row, matching the full-surface quad of the
// GPU program. dst is cleared first: pixels carry straight alpha and are never
// blended with previous contents.
func Render(dst *image.NRGBA, t float64, p Params) {
	b := dst.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return
	}
	resolution := r2.Vec{X: float64(w), Y: float64(h)}

	rows := func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			v := 1 - (float64(y)+0.5)/float64(h)*2
			for x := 0; x < w; x++ {
				u := (float64(x)+0.5)/float64(w)*2 - 1
				c, a := Shade(r2.Vec{X: u, Y: v}, t, resolution, p)
				dst.SetNRGBA(b.Min.X+x, b.Min.Y+y, color.NRGBA{
					R: quantize(c.X),
					G: quantize(c.Y),
					B: quantize(c.Z),
					A: quantize(a),
				})
			}
		}
	}

	workers := runtime.GOMAXPROCS(0)
	if h < parallelThreshold || workers < 2 {
		rows(0, h)
		return
	}

	band := (h + workers - 1) / workers
	var wg sync.WaitGroup
	for y0 := 0; y0 < h; y0 += band {
		y0 := y0
		y1 := min(y0+band, h)
		wg.Add(1)
		go func() {
			defer wg.Done()
			rows(y0, y1)
		}()
	}
	wg.Wait()
}

// quantize converts a channel to 8 bits. Clamping happens here only, as the
// output format's limit.
func quantize(v float64) uint8 {
	if math.IsNaN(v) || v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(math.Round(v * 255))
}
