package codec

import (
	"pagkit/pkg/codec/stream"
	"pagkit/pkg/scene"
)

// readLayerBlock reads the layer type, id and nested layer tags.
func (d *decoder) readLayerBlock(r *stream.Reader, c *scene.Composition) {
	l := scene.NewLayer(scene.LayerType(r.ReadUint8()), r.ReadEncodedUint32())
	d.readTags(r, func(h TagHeader, body *stream.Reader) {
		d.readLayerTag(h, body, l)
	})
	if l.Duration <= 0 {
		l.Duration = 1
	}
	c.Layers = append(c.Layers, l)
}

func (d *decoder) readLayerTag(h TagHeader, r *stream.Reader, l *scene.Layer) {
	switch h.Code {
	case TagLayerAttributes:
		readLayerAttributes(r, l, 1)
	case TagLayerAttributesV2:
		readLayerAttributes(r, l, 2)
	case TagLayerAttributesV3:
		readLayerAttributes(r, l, 3)
	case TagTransform2D:
		l.Transform = readTransform2D(r)
	case TagMaskBlock:
		l.Masks = append(l.Masks, readMask(r))
	case TagFastBlurEffect:
		l.Effects = append(l.Effects, readFastBlur(r))
	case TagGlowEffect:
		l.Effects = append(l.Effects, readGlow(r))
	case TagMarkerList:
		readMarkerList(r, l)
	case TagCachePolicy:
		l.CachePolicy = scene.CachePolicy(r.ReadUint8())
	case TagSolidColor:
		if l.Type == scene.LayerTypeSolid {
			l.SolidColor = readColor(r)
			l.SolidWidth = r.ReadEncodedInt32()
			l.SolidHeight = r.ReadEncodedInt32()
		}
	case TagCompositionReference:
		if l.Type == scene.LayerTypePreCompose {
			readCompositionReference(r, l)
		}
	case TagTextSource:
		if l.Type == scene.LayerTypeText {
			d.readTextSource(r, l, 1)
		}
	case TagTextSourceV2:
		if l.Type == scene.LayerTypeText {
			d.readTextSource(r, l, 2)
		}
	case TagTextSourceV3:
		if l.Type == scene.LayerTypeText {
			d.readTextSource(r, l, 3)
		}
	case TagTextPathOption:
		if l.Type == scene.LayerTypeText {
			readTextPathOption(r, l)
		}
	}
}

func readLayerAttributes(r *stream.Reader, l *scene.Layer, version int) {
	attrs := []attribute{
		bitFlag(&l.IsActive),
		bitFlag(&l.AutoOrientation),
		value(&l.ParentID, 0, idCodec),
		value(&l.Stretch, scene.DefaultRatio, ratioCodec),
		value(&l.StartTime, 0, timeCodec),
		value(&l.BlendMode, 0, enumCodec[scene.BlendMode]()),
		value(&l.TrackMatteType, scene.TrackMatteNone, enumCodec[scene.TrackMatteType]()),
		simpleProperty(&l.TimeRemap, 0, floatCodec),
		fixedValue(&l.Duration, timeCodec),
	}
	if version >= 2 {
		attrs = append(attrs, value(&l.Name, "", stringCodec))
	}
	if version >= 3 {
		attrs = append(attrs, bitFlag(&l.MotionBlur))
	}
	readBlock(r, attrs...)
	if l.Duration <= 0 {
		l.Duration = 1
	}
}

func readCompositionReference(r *stream.Reader, l *scene.Layer) {
	id := r.ReadEncodedUint32()
	if id == 0 && r.Err() == nil {
		r.Fail(ErrZeroID)
		return
	}
	l.CompositionID = id
	l.CompositionStartTime = readTime(r)
}

// readTransform2D keeps either the combined position or the separate
// x and y positions.
func readTransform2D(r *stream.Reader) *scene.Transform2D {
	t := &scene.Transform2D{}
	readBlock(r,
		spatialProperty(&t.AnchorPoint, scene.Point{}, pointCodec),
		spatialProperty(&t.Position, scene.Point{}, pointCodec),
		simpleProperty(&t.XPosition, 0, floatCodec),
		simpleProperty(&t.YPosition, 0, floatCodec),
		multiDimensionProperty(&t.Scale, scene.Point{X: 1, Y: 1}, pointCodec),
		simpleProperty(&t.Rotation, 0, floatCodec),
		simpleProperty(&t.Opacity, scene.Opaque, uint8Codec),
	)
	used := func(p *scene.Property[float32]) bool {
		return p.Animatable() || p.Value != 0
	}
	if t.Position.Animatable() || !t.Position.Value.IsZero() ||
		(!used(t.XPosition) && !used(t.YPosition)) {
		t.XPosition = nil
		t.YPosition = nil
	} else {
		t.Position = nil
	}
	return t
}

func readMask(r *stream.Reader) *scene.Mask {
	m := &scene.Mask{}
	readBlock(r,
		fixedValue(&m.ID, idCodec),
		bitFlag(&m.Inverted),
		value(&m.Mode, scene.MaskModeAdd, enumCodec[scene.MaskMode]()),
		simpleProperty(&m.Path, &scene.Path{}, pathCodec),
		simpleProperty(&m.Opacity, scene.Opaque, uint8Codec),
		simpleProperty(&m.Expansion, 0, floatCodec),
	)
	return m
}

func effectAttributes(e *scene.Effect) []attribute {
	return []attribute{
		simpleProperty(&e.Opacity, scene.Opaque, uint8Codec),
		custom(func(r *stream.Reader) {
			count := r.ReadEncodedUint32()
			for i := uint32(0); i < count && r.Err() == nil; i++ {
				e.MaskIDs = append(e.MaskIDs, r.ReadEncodedUint32())
			}
		}),
	}
}

func readFastBlur(r *stream.Reader) *scene.Effect {
	b := &scene.FastBlur{}
	e := &scene.Effect{Type: scene.EffectFastBlur, FastBlur: b}
	attrs := []attribute{
		simpleProperty(&b.Blurriness, 0, floatCodec),
		discreteProperty(&b.BlurDimensions, 0, uint8Codec),
		discreteProperty(&b.RepeatEdgePixels, true, boolCodec),
	}
	readBlock(r, append(attrs, effectAttributes(e)...)...)
	return e
}

func readGlow(r *stream.Reader) *scene.Effect {
	g := &scene.Glow{}
	e := &scene.Effect{Type: scene.EffectGlow, Glow: g}
	attrs := []attribute{
		simpleProperty(&g.Threshold, 1, floatCodec),
		simpleProperty(&g.Radius, 0, floatCodec),
		simpleProperty(&g.Intensity, 0, floatCodec),
	}
	readBlock(r, append(attrs, effectAttributes(e)...)...)
	return e
}
