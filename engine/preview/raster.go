package preview

import (
	stdmath "math"
)

// frameBuffer holds the render target as flat slices for cache locality.
type frameBuffer struct {
	width  int
	height int
	color  []uint8   // RGBA interleaved, len = w*h*4
	depth  []float32 // height above the ground per pixel, initialized to -inf
}

func newFrameBuffer(w, h int, background [4]uint8) *frameBuffer {
	n := w * h
	fb := &frameBuffer{
		width:  w,
		height: h,
		color:  make([]uint8, n*4),
		depth:  make([]float32, n),
	}
	for i := 0; i < n; i++ {
		copy(fb.color[i*4:], background[:])
		fb.depth[i] = float32(stdmath.Inf(-1))
	}
	return fb
}

// rasterizeTriangle fills a screen space triangle with a flat color. z is
// compared against the depth buffer, larger values win.
func (fb *frameBuffer) rasterizeTriangle(x, y, z [3]float32, c [4]uint8) {
	det := (y[1]-y[2])*(x[0]-x[2]) + (x[2]-x[1])*(y[0]-y[2])
	if det > -1e-8 && det < 1e-8 {
		return
	}
	invDet := 1.0 / det

	minX := max(int(min(x[0], x[1], x[2])), 0)
	maxX := min(int(max(x[0], x[1], x[2]))+1, fb.width-1)
	minY := max(int(min(y[0], y[1], y[2])), 0)
	maxY := min(int(max(y[0], y[1], y[2]))+1, fb.height-1)
	if minX > maxX || minY > maxY {
		return
	}

	dy12 := y[1] - y[2]
	dx21 := x[2] - x[1]
	dy20 := y[2] - y[0]
	dx02 := x[0] - x[2]

	for sy := minY; sy <= maxY; sy++ {
		// sample at the pixel center
		dsy := float32(sy) + 0.5 - y[2]
		row := sy * fb.width
		for sx := minX; sx <= maxX; sx++ {
			dsx := float32(sx) + 0.5 - x[2]
			w0 := (dy12*dsx + dx21*dsy) * invDet
			w1 := (dy20*dsx + dx02*dsy) * invDet
			w2 := 1.0 - w0 - w1
			if w0 < 0 || w1 < 0 || w2 < 0 {
				continue
			}

			depth := w0*z[0] + w1*z[1] + w2*z[2]
			idx := row + sx
			if depth <= fb.depth[idx] {
				continue
			}
			fb.depth[idx] = depth
			copy(fb.color[idx*4:idx*4+4], c[:])
		}
	}
}
