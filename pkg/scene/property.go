package scene

// Interpolation is how a keyframe moves from its start to its end value.
type Interpolation uint8

// Keyframe interpolations.
const (
	InterpolationNone Interpolation = iota
	InterpolationLinear
	InterpolationBezier
	InterpolationHold
)

// KeyframeKind selects the easing payload carried by a keyframe.
type KeyframeKind uint8

// Keyframe kinds.
const (
	// KeyframePlain carries no easing data.
	KeyframePlain KeyframeKind = iota
	// KeyframeSingleEase has one bezier ease for the whole value.
	KeyframeSingleEase
	// KeyframeMultiDimension has one bezier ease per dimension.
	KeyframeMultiDimension
	// KeyframeSpatial has one ease and a spatial curve.
	KeyframeSpatial
)

// Keyframe is one segment of an animated property.
type Keyframe[T any] struct {
	StartTime     Frame
	EndTime       Frame
	StartValue    T
	EndValue      T
	Interpolation Interpolation
	Kind          KeyframeKind

	// One control point pair per eased dimension.
	BezierOut []Point
	BezierIn  []Point

	SpatialIn  Point
	SpatialOut Point
}

// NewKeyframe returns a hold keyframe without easing data.
func NewKeyframe[T any]() *Keyframe[T] {
	return &Keyframe[T]{Interpolation: InterpolationHold}
}

// ContainsTime reports whether frame is in [StartTime, EndTime).
func (k *Keyframe[T]) ContainsTime(frame Frame) bool {
	return frame >= k.StartTime && frame < k.EndTime
}

func (k *Keyframe[T]) valueAt(frame Frame, interp Interpolator[T]) T {
	if frame <= k.StartTime {
		return k.StartValue
	}
	if frame >= k.EndTime {
		return k.EndValue
	}
	if interp == nil {
		return k.StartValue
	}
	progress := float64(frame-k.StartTime) / float64(k.EndTime-k.StartTime)

	switch k.Interpolation {
	case InterpolationLinear:
	case InterpolationBezier:
		if k.Kind == KeyframeMultiDimension && len(k.BezierOut) > 1 {
			if dims, ok := interp.(DimensionInterpolator[T]); ok {
				t := make([]float64, len(k.BezierOut))
				for i := range t {
					t[i] = k.ease(i, progress)
				}
				return dims.LerpDimensions(k.StartValue, k.EndValue, t)
			}
		}
		progress = k.ease(0, progress)
	default:
		return k.StartValue
	}

	if k.Kind == KeyframeSpatial {
		if spatial, ok := interp.(SpatialInterpolator[T]); ok {
			return spatial.LerpSpatial(k.StartValue, k.EndValue, k.SpatialOut, k.SpatialIn, progress)
		}
	}
	return interp.Lerp(k.StartValue, k.EndValue, progress)
}

func (k *Keyframe[T]) ease(dim int, progress float64) float64 {
	if dim >= len(k.BezierOut) || dim >= len(k.BezierIn) {
		return progress
	}
	return cubicBezierEase(k.BezierOut[dim], k.BezierIn[dim], progress)
}

// Interpolator blends two values of a property type.
type Interpolator[T any] interface {
	Lerp(from, to T, t float64) T
}

// DimensionInterpolator blends each dimension with its own progress.
type DimensionInterpolator[T any] interface {
	LerpDimensions(from, to T, t []float64) T
}

// SpatialInterpolator blends along a cubic curve through the tangents.
type SpatialInterpolator[T any] interface {
	LerpSpatial(from, to T, out, in Point, t float64) T
}

// Property is a value that is either constant or animated by keyframes.
// A nil *Property means the attribute is absent.
type Property[T any] struct {
	Value     T
	Keyframes []*Keyframe[T]

	interp    Interpolator[T]
	lastIndex int
}

// NewProperty returns a constant property.
func NewProperty[T any](value T) *Property[T] {
	return &Property[T]{Value: value}
}

// NewAnimatableProperty returns a property animated by keyframes.
// A nil interp holds each keyframe's start value.
func NewAnimatableProperty[T any](keyframes []*Keyframe[T], interp Interpolator[T]) *Property[T] {
	p := &Property[T]{
		Keyframes: keyframes,
		interp:    interp,
	}
	if len(keyframes) > 0 {
		p.Value = keyframes[0].StartValue
	}
	return p
}

// Animatable reports whether the property has keyframes.
func (p *Property[T]) Animatable() bool {
	return p != nil && len(p.Keyframes) > 0
}

// ValueAt returns the value at frame. The last keyframe index is
// cached for sequential access, so calls must not run concurrently.
func (p *Property[T]) ValueAt(frame Frame) T {
	if !p.Animatable() {
		return p.Value
	}
	first := p.Keyframes[0]
	if frame < first.StartTime {
		return first.StartValue
	}
	last := p.Keyframes[len(p.Keyframes)-1]
	if frame >= last.EndTime {
		return last.EndValue
	}

	if p.lastIndex >= len(p.Keyframes) {
		p.lastIndex = 0
	}
	k := p.Keyframes[p.lastIndex]
	if !k.ContainsTime(frame) {
		if frame < k.StartTime {
			for p.lastIndex > 0 {
				p.lastIndex--
				if p.Keyframes[p.lastIndex].ContainsTime(frame) {
					break
				}
			}
		} else {
			for p.lastIndex < len(p.Keyframes)-1 {
				p.lastIndex++
				if p.Keyframes[p.lastIndex].ContainsTime(frame) {
					break
				}
			}
		}
		k = p.Keyframes[p.lastIndex]
	}
	return k.valueAt(frame, p.interp)
}

// GotoFrame sets Value to the value at frame.
func (p *Property[T]) GotoFrame(frame Frame) {
	if p.Animatable() {
		p.Value = p.ValueAt(frame)
	}
}

// ExcludeVaryingRanges removes the frames where the property changes.
// Hold keyframes only split the ranges at their boundaries.
func (p *Property[T]) ExcludeVaryingRanges(ranges []TimeRange) []TimeRange {
	if !p.Animatable() {
		return ranges
	}
	for _, k := range p.Keyframes {
		switch k.Interpolation {
		case InterpolationBezier, InterpolationLinear:
			ranges = SubtractFromTimeRanges(ranges, k.StartTime, k.EndTime-1)
		default:
			ranges = SplitTimeRangesAt(ranges, k.StartTime)
			ranges = SplitTimeRangesAt(ranges, k.EndTime)
		}
	}
	return ranges
}

type floatInterpolator struct{}

func (floatInterpolator) Lerp(from, to float32, t float64) float32 {
	return lerpFloat(from, to, t)
}

type byteInterpolator struct{}

func (byteInterpolator) Lerp(from, to uint8, t float64) uint8 {
	return lerpByte(from, to, t)
}

type colorInterpolator struct{}

func (colorInterpolator) Lerp(from, to Color, t float64) Color {
	return Color{
		Red:   lerpByte(from.Red, to.Red, t),
		Green: lerpByte(from.Green, to.Green, t),
		Blue:  lerpByte(from.Blue, to.Blue, t),
	}
}

type pointInterpolator struct{}

func (pointInterpolator) Lerp(from, to Point, t float64) Point {
	return lerpPoint(from, to, t)
}

func (pointInterpolator) LerpDimensions(from, to Point, t []float64) Point {
	return Point{
		X: lerpFloat(from.X, to.X, t[0]),
		Y: lerpFloat(from.Y, to.Y, t[1]),
	}
}

func (pointInterpolator) LerpSpatial(from, to Point, out, in Point, t float64) Point {
	return cubicBezierPoint(from, from.Add(out), to.Add(in), to, t)
}

type pathInterpolator struct{}

func (pathInterpolator) Lerp(from, to *Path, t float64) *Path {
	return from.Interpolate(to, t)
}

// Interpolators of the animatable value types.
var (
	FloatInterpolator Interpolator[float32] = floatInterpolator{}
	ByteInterpolator  Interpolator[uint8]   = byteInterpolator{}
	ColorInterpolator Interpolator[Color]   = colorInterpolator{}
	PointInterpolator Interpolator[Point]   = pointInterpolator{}
	PathInterpolator  Interpolator[*Path]   = pathInterpolator{}
)
