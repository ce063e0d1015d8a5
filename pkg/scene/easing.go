package scene

import "math"

// cubicBezierEase maps progress x through the timing curve
// (0,0) p1 p2 (1,1) and returns the eased progress.
func cubicBezierEase(p1, p2 Point, x float64) float64 {
	x1, y1 := float64(p1.X), float64(p1.Y)
	x2, y2 := float64(p2.X), float64(p2.Y)
	if x1 == y1 && x2 == y2 {
		return x
	}

	t := x
	for i := 0; i < 8; i++ {
		dx := bezierAt(x1, x2, t) - x
		if math.Abs(dx) < 1e-6 {
			return bezierAt(y1, y2, t)
		}
		d := bezierSlope(x1, x2, t)
		if math.Abs(d) < 1e-6 {
			break
		}
		t -= dx / d
	}

	lo, hi := 0.0, 1.0
	t = x
	for i := 0; i < 32; i++ {
		v := bezierAt(x1, x2, t)
		if math.Abs(v-x) < 1e-6 {
			break
		}
		if v < x {
			lo = t
		} else {
			hi = t
		}
		t = (lo + hi) / 2
	}
	return bezierAt(y1, y2, t)
}

// bezierAt evaluates one axis of the curve with endpoints 0 and 1.
func bezierAt(a, b, t float64) float64 {
	u := 1 - t
	return 3*u*u*t*a + 3*u*t*t*b + t*t*t
}

func bezierSlope(a, b, t float64) float64 {
	u := 1 - t
	return 3*u*u*a + 6*u*t*(b-a) + 3*t*t*(1-b)
}

func cubicBezierPoint(p0, p1, p2, p3 Point, t float64) Point {
	u := 1 - t
	a := u * u * u
	b := 3 * u * u * t
	c := 3 * u * t * t
	d := t * t * t
	return Point{
		X: float32(a*float64(p0.X) + b*float64(p1.X) + c*float64(p2.X) + d*float64(p3.X)),
		Y: float32(a*float64(p0.Y) + b*float64(p1.Y) + c*float64(p2.Y) + d*float64(p3.Y)),
	}
}
