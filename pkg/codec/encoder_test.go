package codec

import (
	"encoding/binary"
	"math"
)

// encoder writes the layout read by stream.Reader. Bits are packed low
// bit first and byte writes start after the last partial byte.
type encoder struct {
	buf    []byte
	bitPos int
}

func (e *encoder) bytes() []byte {
	return e.buf
}

func (e *encoder) align() {
	e.bitPos = len(e.buf) * 8
}

func (e *encoder) raw(b ...byte) *encoder {
	e.buf = append(e.buf, b...)
	e.align()
	return e
}

func (e *encoder) u8(v uint8) *encoder {
	return e.raw(v)
}

func (e *encoder) u16(v uint16) *encoder {
	return e.raw(binary.LittleEndian.AppendUint16(nil, v)...)
}

func (e *encoder) u32(v uint32) *encoder {
	return e.raw(binary.LittleEndian.AppendUint32(nil, v)...)
}

func (e *encoder) f32(v float32) *encoder {
	return e.u32(math.Float32bits(v))
}

func (e *encoder) varU64(v uint64) *encoder {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			e.buf = append(e.buf, b|0x80)
			continue
		}
		e.buf = append(e.buf, b)
		break
	}
	e.align()
	return e
}

func (e *encoder) varU32(v uint32) *encoder {
	return e.varU64(uint64(v))
}

func (e *encoder) varI32(v int32) *encoder {
	if v < 0 {
		return e.varU32(uint32(-v)<<1 | 1)
	}
	return e.varU32(uint32(v) << 1)
}

func (e *encoder) str(s string) *encoder {
	e.buf = append(e.buf, s...)
	return e.raw(0)
}

func (e *encoder) color(r, g, b uint8) *encoder {
	return e.raw(r, g, b)
}

func (e *encoder) point(x, y float32) *encoder {
	return e.f32(x).f32(y)
}

func (e *encoder) bits(v uint32, n int) *encoder {
	for i := 0; i < n; i++ {
		if e.bitPos/8 >= len(e.buf) {
			e.buf = append(e.buf, 0)
		}
		if v>>i&1 != 0 {
			e.buf[e.bitPos/8] |= 1 << (e.bitPos % 8)
		}
		e.bitPos++
	}
	return e
}

func (e *encoder) flag(b bool) *encoder {
	if b {
		return e.bits(1, 1)
	}
	return e.bits(0, 1)
}

// numBits writes the 5 bit width header.
func (e *encoder) numBits(n int) *encoder {
	return e.bits(uint32(n-1), 5)
}

func (e *encoder) sbits(v int32, n int) *encoder {
	return e.bits(uint32(v)&(1<<n-1), n)
}

func (e *encoder) tag(code TagCode, body []byte) *encoder {
	if len(body) < longLength {
		return e.u16(uint16(code)<<6 | uint16(len(body))).raw(body...)
	}
	return e.u16(uint16(code)<<6 | longLength).u32(uint32(len(body))).raw(body...)
}

func (e *encoder) end() *encoder {
	return e.u16(0)
}

func newEncoder() *encoder {
	return &encoder{}
}

// file wraps a tag body in a file header.
func file(body []byte) []byte {
	e := newEncoder().raw(Magic...).u8(1).u32(uint32(len(body))).u8(0)
	return e.raw(body...).bytes()
}

func compositionAttributes(w, h int32, duration uint64, frameRate float32) []byte {
	return newEncoder().
		varI32(w).varI32(h).varU64(duration).f32(frameRate).color(255, 255, 255).
		bytes()
}

// layerAttributes is an active layer with only a duration.
func layerAttributes(duration uint64) []byte {
	return newEncoder().u8(0b00000001).varU64(duration).bytes()
}

// defaultTransform has every attribute absent.
func defaultTransform() []byte {
	return []byte{0}
}

func solidColor(w, h int32) []byte {
	return newEncoder().color(255, 0, 0).varI32(w).varI32(h).bytes()
}

func layerBlock(typ uint8, id uint32, tags ...[]byte) []byte {
	e := newEncoder().u8(typ).varU32(id)
	for _, t := range tags {
		e.raw(t...)
	}
	return e.end().bytes()
}

func vectorComposition(id uint32, tags ...[]byte) []byte {
	e := newEncoder().varU32(id)
	for _, t := range tags {
		e.raw(t...)
	}
	return e.end().bytes()
}

func tagBytes(code TagCode, body []byte) []byte {
	return newEncoder().tag(code, body).bytes()
}

func solidLayer(id uint32, duration uint64, extra ...[]byte) []byte {
	tags := [][]byte{
		tagBytes(TagLayerAttributes, layerAttributes(duration)),
		tagBytes(TagTransform2D, defaultTransform()),
		tagBytes(TagSolidColor, solidColor(10, 10)),
	}
	return tagBytes(TagLayerBlock, layerBlock(2, id, append(tags, extra...)...))
}

func minimalFile(layers ...[]byte) []byte {
	tags := append([][]byte{
		tagBytes(TagCompositionAttributes, compositionAttributes(100, 200, 30, 30)),
	}, layers...)
	body := newEncoder().
		tag(TagVectorCompositionBlock, vectorComposition(1, tags...)).
		end().
		bytes()
	return file(body)
}
