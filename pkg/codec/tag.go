package codec

import (
	"pagkit/pkg/codec/stream"
)

// TagCode identifies the content of a tag.
type TagCode uint16

// Tag codes read by the decoder. Every other code is skipped.
const (
	TagEnd                    TagCode = 0
	TagFontTables             TagCode = 1
	TagVectorCompositionBlock TagCode = 2
	TagCompositionAttributes  TagCode = 3
	TagLayerBlock             TagCode = 5
	TagLayerAttributes        TagCode = 6
	TagSolidColor             TagCode = 7
	TagTextSource             TagCode = 8
	TagCompositionReference   TagCode = 12
	TagTransform2D            TagCode = 13
	TagMaskBlock              TagCode = 14
	TagCachePolicy            TagCode = 30
	TagVideoCompositionBlock  TagCode = 50
	TagVideoSequence          TagCode = 51
	TagLayerAttributesV2      TagCode = 52
	TagMarkerList             TagCode = 53
	TagFastBlurEffect         TagCode = 60
	TagGlowEffect             TagCode = 61
	TagLayerAttributesV3      TagCode = 62
	TagTextSourceV2           TagCode = 64
	TagTextSourceV3           TagCode = 68
	TagTextPathOption         TagCode = 69
)

// TagHeader precedes every tag body.
type TagHeader struct {
	Code   TagCode
	Length uint32
}

const longLength = 63

// ReadTagHeader reads a 16 bit header word. The low 6 bits hold the
// length, 63 means a 32 bit length follows.
func ReadTagHeader(r *stream.Reader) TagHeader {
	word := r.ReadUint16()
	h := TagHeader{
		Code:   TagCode(word >> 6),
		Length: uint32(word & longLength),
	}
	if h.Length == longLength {
		h.Length = r.ReadUint32()
	}
	return h
}

// tagHandler reads one tag body. The body reader is bounded to the
// declared length.
type tagHandler func(h TagHeader, body *stream.Reader)

// readTags calls handle for every tag until End or a read error.
func (d *decoder) readTags(r *stream.Reader, handle tagHandler) {
	for r.Err() == nil {
		h := ReadTagHeader(r)
		if r.Err() != nil || h.Code == TagEnd {
			return
		}
		if uint16(h.Code) > d.tagLevel {
			d.tagLevel = uint16(h.Code)
		}
		body := r.ReadBytes(int(h.Length))
		if r.Err() != nil {
			return
		}
		handle(h, body)
	}
}
