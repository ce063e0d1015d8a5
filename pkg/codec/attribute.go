package codec

import (
	"pagkit/pkg/codec/stream"
	"pagkit/pkg/scene"
)

// attrKind is how an attribute is stored in a tag block.
type attrKind uint8

const (
	kindValue attrKind = iota
	kindFixedValue
	kindSimpleProperty
	kindDiscreteProperty
	kindMultiDimensionProperty
	kindSpatialProperty
	kindBitFlag
	kindCustom
)

func (k attrKind) isProperty() bool {
	switch k {
	case kindSimpleProperty, kindDiscreteProperty,
		kindMultiDimensionProperty, kindSpatialProperty:
		return true
	}
	return false
}

type attrFlag struct {
	exist      bool
	animatable bool
	hasSpatial bool
}

func readAttrFlag(r *stream.Reader, kind attrKind) attrFlag {
	var flag attrFlag
	if kind == kindFixedValue {
		flag.exist = true
		return flag
	}
	flag.exist = r.ReadBitBoolean()
	if !flag.exist || !kind.isProperty() {
		return flag
	}
	flag.animatable = r.ReadBitBoolean()
	if flag.animatable && kind == kindSpatialProperty {
		flag.hasSpatial = r.ReadBitBoolean()
	}
	return flag
}

// attribute is one entry of a tag block.
type attribute interface {
	kind() attrKind
	read(r *stream.Reader, flag attrFlag)
}

// readBlock reads the flags of every attribute, aligns to a byte and
// then reads the values in the same order.
func readBlock(r *stream.Reader, attrs ...attribute) {
	flags := make([]attrFlag, len(attrs))
	for i, a := range attrs {
		flags[i] = readAttrFlag(r, a.kind())
	}
	r.AlignWithBytes()
	for i, a := range attrs {
		if r.Err() != nil {
			return
		}
		a.read(r, flags[i])
	}
}

// valueAttr is a Value or FixedValue attribute.
type valueAttr[T any] struct {
	k   attrKind
	dst *T
	def T
	c   *valueCodec[T]
}

func value[T any](dst *T, def T, c *valueCodec[T]) attribute {
	return valueAttr[T]{k: kindValue, dst: dst, def: def, c: c}
}

func fixedValue[T any](dst *T, c *valueCodec[T]) attribute {
	return valueAttr[T]{k: kindFixedValue, dst: dst, c: c}
}

func (a valueAttr[T]) kind() attrKind { return a.k }

func (a valueAttr[T]) read(r *stream.Reader, flag attrFlag) {
	if flag.exist {
		*a.dst = a.c.read(r)
	} else {
		*a.dst = a.def
	}
}

type bitFlagAttr struct {
	dst *bool
}

func bitFlag(dst *bool) attribute {
	return bitFlagAttr{dst: dst}
}

func (bitFlagAttr) kind() attrKind { return kindBitFlag }

func (a bitFlagAttr) read(_ *stream.Reader, flag attrFlag) {
	*a.dst = flag.exist
}

// customAttr reads its value with fn when present.
type customAttr struct {
	fn func(r *stream.Reader)
}

func custom(fn func(r *stream.Reader)) attribute {
	return customAttr{fn: fn}
}

func (customAttr) kind() attrKind { return kindCustom }

func (a customAttr) read(r *stream.Reader, flag attrFlag) {
	if flag.exist {
		a.fn(r)
	}
}

type propertyAttr[T any] struct {
	k   attrKind
	dst **scene.Property[T]
	def T
	c   *valueCodec[T]
}

func simpleProperty[T any](dst **scene.Property[T], def T, c *valueCodec[T]) attribute {
	return propertyAttr[T]{k: kindSimpleProperty, dst: dst, def: def, c: c}
}

func discreteProperty[T any](dst **scene.Property[T], def T, c *valueCodec[T]) attribute {
	return propertyAttr[T]{k: kindDiscreteProperty, dst: dst, def: def, c: c}
}

func multiDimensionProperty[T any](dst **scene.Property[T], def T, c *valueCodec[T]) attribute {
	return propertyAttr[T]{k: kindMultiDimensionProperty, dst: dst, def: def, c: c}
}

func spatialProperty[T any](dst **scene.Property[T], def T, c *valueCodec[T]) attribute {
	return propertyAttr[T]{k: kindSpatialProperty, dst: dst, def: def, c: c}
}

func (a propertyAttr[T]) kind() attrKind { return a.k }

func (a propertyAttr[T]) read(r *stream.Reader, flag attrFlag) {
	switch {
	case !flag.exist:
		*a.dst = scene.NewProperty(a.def)
	case !flag.animatable:
		*a.dst = scene.NewProperty(a.c.read(r))
	default:
		kfs := readKeyframes(r, a.k, flag, a.c)
		interp := a.c.interp
		if a.k == kindDiscreteProperty {
			interp = nil
		}
		*a.dst = scene.NewAnimatableProperty(kfs, interp)
	}
}
