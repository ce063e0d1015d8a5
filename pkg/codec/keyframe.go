package codec

import (
	"fmt"

	"pagkit/pkg/codec/stream"
	"pagkit/pkg/scene"
)

// maxKeyframes is one day of frames at 60 fps.
const maxKeyframes = 5184000

// readKeyframes reads an animated property: the keyframe count, the
// interpolation of each keyframe, N+1 shared times and values, the
// time ease and, when flagged, the spatial ease.
func readKeyframes[T any](
	r *stream.Reader,
	kind attrKind,
	flag attrFlag,
	c *valueCodec[T],
) []*scene.Keyframe[T] {
	n := r.ReadEncodedUint32()
	if r.Err() != nil {
		return nil
	}
	if n == 0 || n > maxKeyframes {
		r.Fail(fmt.Errorf("%w: %d", ErrKeyframeCount, n))
		return nil
	}
	// Every keyframe time takes at least one byte.
	if int(n)+1 > r.BytesAvailable() {
		r.Fail(fmt.Errorf("%w: %d keyframes", stream.ErrEndOfStream, n))
		return nil
	}

	kfs := make([]*scene.Keyframe[T], n)
	for i := range kfs {
		k := scene.NewKeyframe[T]()
		if kind != kindDiscreteProperty {
			interp := scene.Interpolation(r.ReadUBits(2))
			if interp != scene.InterpolationHold {
				k.Interpolation = interp
				k.Kind = keyframeKind(kind)
			}
		}
		kfs[i] = k
	}

	for i := 0; i <= len(kfs); i++ {
		t := readTime(r)
		if i < len(kfs) {
			kfs[i].StartTime = t
		}
		if i > 0 {
			kfs[i-1].EndTime = t
		}
	}
	if r.Err() != nil {
		return nil
	}
	if err := checkKeyframeTimes(kfs); err != nil {
		r.Fail(err)
		return nil
	}

	values := c.list(r, len(kfs)+1, kind)
	if r.Err() != nil {
		return nil
	}
	for i, v := range values {
		if i < len(kfs) {
			kfs[i].StartValue = v
		}
		if i > 0 {
			kfs[i-1].EndValue = v
		}
	}

	dims := 1
	if kind == kindMultiDimensionProperty {
		dims = c.dims
	}
	readTimeEase(r, kfs, dims)
	if flag.hasSpatial {
		readSpatialEase(r, kfs)
	}
	return kfs
}

// checkKeyframeTimes rejects time points that run backwards and
// sequences that do not span at least one frame.
func checkKeyframeTimes[T any](kfs []*scene.Keyframe[T]) error {
	for i, k := range kfs {
		if k.StartTime > k.EndTime {
			return fmt.Errorf("%w: keyframe %d ends at %d before its start %d",
				ErrKeyframeTime, i, k.EndTime, k.StartTime)
		}
	}
	first, last := kfs[0], kfs[len(kfs)-1]
	if first.StartTime >= last.EndTime {
		return fmt.Errorf("%w: %d to %d", ErrKeyframeTime, first.StartTime, last.EndTime)
	}
	return nil
}

func keyframeKind(kind attrKind) scene.KeyframeKind {
	switch kind {
	case kindMultiDimensionProperty:
		return scene.KeyframeMultiDimension
	case kindSpatialProperty:
		return scene.KeyframeSpatial
	}
	return scene.KeyframeSingleEase
}

// readTimeEase reads the bezier control points of bezier keyframes,
// out before in, one pair per dimension.
func readTimeEase[T any](r *stream.Reader, kfs []*scene.Keyframe[T], dims int) {
	numBits := r.ReadNumBits()
	point := func() scene.Point {
		x := float32(r.ReadBits(numBits)) * bezierPrecision
		return scene.Point{X: x, Y: float32(r.ReadBits(numBits)) * bezierPrecision}
	}
	for _, k := range kfs {
		if k.Interpolation != scene.InterpolationBezier {
			continue
		}
		for d := 0; d < dims; d++ {
			k.BezierOut = append(k.BezierOut, point())
			k.BezierIn = append(k.BezierIn, point())
		}
	}
}

// readSpatialEase reads an in and out flag per keyframe followed by
// the flagged tangents.
func readSpatialEase[T any](r *stream.Reader, kfs []*scene.Keyframe[T]) {
	flags := make([]bool, len(kfs)*2)
	for i := range flags {
		flags[i] = r.ReadBitBoolean()
	}
	numBits := r.ReadNumBits()
	point := func() scene.Point {
		x := float32(r.ReadBits(numBits)) * spatialPrecision
		return scene.Point{X: x, Y: float32(r.ReadBits(numBits)) * spatialPrecision}
	}
	for i, k := range kfs {
		if flags[i*2] {
			k.SpatialIn = point()
		}
		if flags[i*2+1] {
			k.SpatialOut = point()
		}
	}
}
