package codec

import (
	"pagkit/pkg/codec/stream"
	"pagkit/pkg/scene"
)

func (d *decoder) readFontTables(r *stream.Reader) {
	count := r.ReadEncodedUint32()
	for i := uint32(0); i < count && r.Err() == nil; i++ {
		d.fonts = append(d.fonts, scene.Font{
			Family: r.ReadUTF8String(),
			Style:  r.ReadUTF8String(),
		})
	}
}

// textDocumentCodec returns the codec of the text document block of a
// text source tag version.
func (d *decoder) textDocumentCodec(version int) *valueCodec[*scene.TextDocument] {
	return &valueCodec[*scene.TextDocument]{
		read: func(r *stream.Reader) *scene.TextDocument {
			return d.readTextDocument(r, version)
		},
		dims: 1,
	}
}

func (d *decoder) readTextDocument(r *stream.Reader, version int) *scene.TextDocument {
	r.AlignWithBytes()
	t := scene.NewTextDocument()
	attrs := []attribute{
		bitFlag(&t.ApplyFill),
		bitFlag(&t.ApplyStroke),
		bitFlag(&t.BoxText),
		bitFlag(&t.FauxBold),
		bitFlag(&t.FauxItalic),
		bitFlag(&t.StrokeOverFill),
		value(&t.BaselineShift, 0, floatCodec),
		value(&t.FirstBaseLine, 0, floatCodec),
		value(&t.BoxTextPos, scene.Point{}, pointCodec),
		value(&t.BoxTextSize, scene.Point{}, pointCodec),
		value(&t.FillColor, scene.Black, colorCodec),
		value(&t.FontSize, 24, floatCodec),
		value(&t.StrokeColor, scene.Black, colorCodec),
		value(&t.StrokeWidth, 1, floatCodec),
		value(&t.Text, "", stringCodec),
		value(&t.Justification, 0, uint8Codec),
		value(&t.Leading, 0, floatCodec),
		value(&t.Tracking, 0, floatCodec),
	}
	if version >= 2 {
		attrs = append(attrs,
			value(&t.BackgroundColor, scene.White, colorCodec),
			value(&t.BackgroundAlpha, scene.Opaque, uint8Codec),
		)
	}
	if version >= 3 {
		attrs = append(attrs, value(&t.Direction, 0, uint8Codec))
	}
	attrs = append(attrs, custom(func(r *stream.Reader) {
		id := r.ReadEncodedUint32()
		if int(id) < len(d.fonts) {
			t.FontFamily = d.fonts[id].Family
			t.FontStyle = d.fonts[id].Style
		}
	}))
	readBlock(r, attrs...)
	return t
}

func (d *decoder) readTextSource(r *stream.Reader, l *scene.Layer, version int) {
	readBlock(r,
		discreteProperty(&l.SourceText, scene.NewTextDocument(), d.textDocumentCodec(version)),
	)
}

func readTextPathOption(r *stream.Reader, l *scene.Layer) {
	o := &scene.TextPathOption{}
	readBlock(r,
		value(&o.PathID, 0, idCodec),
		discreteProperty(&o.ReversedPath, false, boolCodec),
		discreteProperty(&o.PerpendicularToPath, false, boolCodec),
		discreteProperty(&o.ForceAlignment, false, boolCodec),
		simpleProperty(&o.FirstMargin, 0, floatCodec),
		simpleProperty(&o.LastMargin, 0, floatCodec),
	)
	l.PathOption = o
}

func readMarkerList(r *stream.Reader, l *scene.Layer) {
	count := int(r.ReadEncodedUint32())
	if count > r.BytesAvailable() {
		r.Fail(stream.ErrEndOfStream)
		return
	}
	hasDuration := make([]bool, count)
	for i := range hasDuration {
		hasDuration[i] = r.ReadBitBoolean()
	}
	r.AlignWithBytes()
	for i := 0; i < count && r.Err() == nil; i++ {
		m := scene.Marker{StartTime: readTime(r)}
		if hasDuration[i] {
			m.Duration = readTime(r)
		}
		m.Comment = r.ReadUTF8String()
		l.Markers = append(l.Markers, m)
	}
}
