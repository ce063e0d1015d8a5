package codec

import (
	"pagkit/pkg/codec/stream"
	"pagkit/pkg/scene"
)

func readCompositionID(r *stream.Reader) uint32 {
	id := r.ReadEncodedUint32()
	if id == 0 && r.Err() == nil {
		r.Fail(ErrZeroID)
	}
	return id
}

func (d *decoder) readVectorComposition(r *stream.Reader) *scene.Composition {
	c := scene.NewComposition(scene.CompositionVector, readCompositionID(r), d.ids)
	d.readTags(r, func(h TagHeader, body *stream.Reader) {
		switch h.Code {
		case TagCompositionAttributes:
			readCompositionAttributes(body, c)
		case TagLayerBlock:
			d.readLayerBlock(body, c)
		}
	})
	return c
}

func (d *decoder) readVideoComposition(r *stream.Reader) *scene.Composition {
	c := scene.NewComposition(scene.CompositionVideo, readCompositionID(r), d.ids)
	c.HasAlpha = r.ReadBoolean()
	d.readTags(r, func(h TagHeader, body *stream.Reader) {
		switch h.Code {
		case TagCompositionAttributes:
			readCompositionAttributes(body, c)
		case TagVideoSequence:
			c.Sequences = append(c.Sequences, readVideoSequence(body, c))
		}
	})
	return c
}

func readCompositionAttributes(r *stream.Reader, c *scene.Composition) {
	c.Width = r.ReadEncodedInt32()
	c.Height = r.ReadEncodedInt32()
	c.Duration = readTime(r)
	c.FrameRate = r.ReadFloat32()
	c.BackgroundColor = readColor(r)
}

// readVideoSequence reads the frame layout, the parameter sets, the
// keyframe bits, the frames and the optional static ranges.
func readVideoSequence(r *stream.Reader, c *scene.Composition) *scene.VideoSequence {
	s := &scene.VideoSequence{
		Composition: c,
		Width:       r.ReadEncodedInt32(),
		Height:      r.ReadEncodedInt32(),
		FrameRate:   r.ReadFloat32(),
	}
	if c.HasAlpha {
		s.AlphaStartX = r.ReadEncodedInt32()
		s.AlphaStartY = r.ReadEncodedInt32()
	}
	sps := r.ReadByteDataWithStartCode()
	pps := r.ReadByteDataWithStartCode()
	s.Headers = [][]byte{sps, pps}

	count := int(r.ReadEncodedUint32())
	if count > r.BytesAvailable()*8 {
		r.Fail(stream.ErrEndOfStream)
		return s
	}
	s.Frames = make([]*scene.VideoFrame, count)
	for i := range s.Frames {
		s.Frames[i] = &scene.VideoFrame{IsKeyframe: r.ReadBitBoolean()}
	}
	r.AlignWithBytes()
	for _, f := range s.Frames {
		if r.Err() != nil {
			return s
		}
		f.Frame = readTime(r)
		f.Data = r.ReadByteDataWithStartCode()
	}

	if r.Err() != nil || r.BytesAvailable() == 0 {
		return s
	}
	n := r.ReadEncodedUint32()
	for i := uint32(0); i < n && r.Err() == nil; i++ {
		start := readTime(r)
		end := readTime(r)
		s.StaticTimeRanges = append(s.StaticTimeRanges, scene.TimeRange{Start: start, End: end})
	}
	return s
}
