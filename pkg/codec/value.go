package codec

import (
	"pagkit/pkg/codec/stream"
	"pagkit/pkg/scene"
)

const (
	spatialPrecision = 0.05
	bezierPrecision  = 0.005
	pathPrecision    = 0.05
)

// valueCodec reads one attribute value type.
type valueCodec[T any] struct {
	read func(r *stream.Reader) T
	// readList reads the n values of a keyframe sequence. A nil
	// readList repeats read.
	readList func(r *stream.Reader, n int, kind attrKind) []T
	interp   scene.Interpolator[T]
	// dims is the number of eased dimensions of a multi dimension
	// property.
	dims int
}

func (c *valueCodec[T]) list(r *stream.Reader, n int, kind attrKind) []T {
	if c.readList != nil {
		return c.readList(r, n, kind)
	}
	values := make([]T, n)
	for i := range values {
		values[i] = c.read(r)
	}
	return values
}

var floatCodec = &valueCodec[float32]{
	read:   (*stream.Reader).ReadFloat32,
	interp: scene.FloatInterpolator,
	dims:   1,
}

var boolCodec = &valueCodec[bool]{
	read: (*stream.Reader).ReadBoolean,
	readList: func(r *stream.Reader, n int, _ attrKind) []bool {
		values := make([]bool, n)
		for i := range values {
			values[i] = r.ReadBitBoolean()
		}
		return values
	},
	dims: 1,
}

var uint8Codec = &valueCodec[uint8]{
	read: (*stream.Reader).ReadUint8,
	readList: func(r *stream.Reader, n int, _ attrKind) []uint8 {
		list := r.ReadUint32List(n)
		values := make([]uint8, n)
		for i, v := range list {
			values[i] = uint8(v)
		}
		return values
	},
	interp: scene.ByteInterpolator,
	dims:   1,
}

// enumCodec reads a one byte enumeration.
func enumCodec[T ~uint8]() *valueCodec[T] {
	return &valueCodec[T]{
		read: func(r *stream.Reader) T { return T(r.ReadUint8()) },
		dims: 1,
	}
}

var uint32Codec = &valueCodec[uint32]{
	read: (*stream.Reader).ReadEncodedUint32,
	readList: func(r *stream.Reader, n int, _ attrKind) []uint32 {
		return r.ReadUint32List(n)
	},
	dims: 1,
}

var int32Codec = &valueCodec[int32]{
	read: (*stream.Reader).ReadEncodedInt32,
	readList: func(r *stream.Reader, n int, _ attrKind) []int32 {
		return r.ReadInt32List(n)
	},
	dims: 1,
}

var timeCodec = &valueCodec[scene.Frame]{
	read: readTime,
	dims: 1,
}

func readTime(r *stream.Reader) scene.Frame {
	return scene.Frame(r.ReadEncodedUint64())
}

var stringCodec = &valueCodec[string]{
	read: (*stream.Reader).ReadUTF8String,
	dims: 1,
}

var pointCodec = &valueCodec[scene.Point]{
	read: readPoint,
	readList: func(r *stream.Reader, n int, kind attrKind) []scene.Point {
		values := make([]scene.Point, n)
		if kind != kindSpatialProperty {
			for i := range values {
				values[i] = readPoint(r)
			}
			return values
		}
		list := r.ReadFloatList(n*2, spatialPrecision)
		for i := range values {
			values[i] = scene.Point{X: list[i*2], Y: list[i*2+1]}
		}
		return values
	},
	interp: scene.PointInterpolator,
	dims:   2,
}

func readPoint(r *stream.Reader) scene.Point {
	return scene.Point{X: r.ReadFloat32(), Y: r.ReadFloat32()}
}

var colorCodec = &valueCodec[scene.Color]{
	read:   readColor,
	interp: scene.ColorInterpolator,
	dims:   1,
}

func readColor(r *stream.Reader) scene.Color {
	return scene.Color{
		Red:   r.ReadUint8(),
		Green: r.ReadUint8(),
		Blue:  r.ReadUint8(),
	}
}

var ratioCodec = &valueCodec[scene.Ratio]{
	read: func(r *stream.Reader) scene.Ratio {
		return scene.Ratio{
			Numerator:   r.ReadEncodedInt32(),
			Denominator: r.ReadEncodedUint32(),
		}
	},
	dims: 1,
}

// idCodec reads a reference id, 0 means absent.
var idCodec = uint32Codec

var pathCodec = &valueCodec[*scene.Path]{
	read:   readPath,
	interp: scene.PathInterpolator,
	dims:   1,
}

// Path records stored in 3 bits.
const (
	pathRecordClose = iota
	pathRecordMove
	pathRecordLine
	pathRecordHLine
	pathRecordVLine
	pathRecordCurve01
	pathRecordCurve10
	pathRecordCurve11
)

// readPath reads the verb records followed by the coordinates. Short
// forms reuse the last point for the missing coordinates.
func readPath(r *stream.Reader) *scene.Path {
	path := &scene.Path{}
	numVerbs := int(r.ReadEncodedUint32())
	if numVerbs == 0 || r.Err() != nil {
		return path
	}
	if numVerbs > r.BytesAvailable()*8/3 {
		r.Fail(stream.ErrEndOfStream)
		return path
	}
	records := make([]uint8, numVerbs)
	for i := range records {
		records[i] = uint8(r.ReadUBits(3))
	}
	numBits := r.ReadNumBits()
	coord := func() float32 {
		return float32(r.ReadBits(numBits)) * pathPrecision
	}
	point := func() scene.Point {
		x := coord()
		return scene.Point{X: x, Y: coord()}
	}

	var last scene.Point
	for _, rec := range records {
		switch rec {
		case pathRecordClose:
			path.Verbs = append(path.Verbs, scene.PathClose)
			continue
		case pathRecordMove:
			last = point()
			path.Verbs = append(path.Verbs, scene.PathMoveTo)
			path.Points = append(path.Points, last)
		case pathRecordLine:
			last = point()
			path.Verbs = append(path.Verbs, scene.PathLineTo)
			path.Points = append(path.Points, last)
		case pathRecordHLine:
			last.X = coord()
			path.Verbs = append(path.Verbs, scene.PathLineTo)
			path.Points = append(path.Points, last)
		case pathRecordVLine:
			last.Y = coord()
			path.Verbs = append(path.Verbs, scene.PathLineTo)
			path.Points = append(path.Points, last)
		case pathRecordCurve01:
			c1 := last
			c2 := point()
			last = point()
			path.Verbs = append(path.Verbs, scene.PathCurveTo)
			path.Points = append(path.Points, c1, c2, last)
		case pathRecordCurve10:
			c1 := point()
			last = point()
			path.Verbs = append(path.Verbs, scene.PathCurveTo)
			path.Points = append(path.Points, c1, last, last)
		case pathRecordCurve11:
			c1 := point()
			c2 := point()
			last = point()
			path.Verbs = append(path.Verbs, scene.PathCurveTo)
			path.Points = append(path.Points, c1, c2, last)
		}
	}
	return path
}
