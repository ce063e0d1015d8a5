// Package stream implements the byte and bit cursor used by the decoder.
package stream

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"unicode/utf8"
)

// ErrEndOfStream is returned when a read exceeds the buffer.
var ErrEndOfStream = errors.New("end of stream")

// ErrInvalidString is returned for strings that are not valid UTF-8.
var ErrInvalidString = errors.New("invalid utf-8 string")

// StartCode is the Annex-B prefix prepended to codec units.
var StartCode = []byte{0x00, 0x00, 0x00, 0x01}

// Reader is a cursor over an immutable buffer with independent
// byte and bit positions. The first failed read is recorded and every
// following read returns a zero value. Child readers created by
// ReadBytes share the error with their parent.
type Reader struct {
	buf    []byte
	pos    int
	bitPos int
	order  binary.ByteOrder
	err    *error
}

// NewReader returns a little-endian reader over buf.
func NewReader(buf []byte) *Reader {
	var err error
	return &Reader{
		buf:   buf,
		order: binary.LittleEndian,
		err:   &err,
	}
}

// Err returns the first error that occurred.
func (r *Reader) Err() error {
	return *r.err
}

// SetOrder sets the byte order of multi-byte reads.
func (r *Reader) SetOrder(order binary.ByteOrder) {
	r.order = order
}

// Len returns the buffer length.
func (r *Reader) Len() int {
	return len(r.buf)
}

// Position returns the byte position.
func (r *Reader) Position() int {
	return r.pos
}

// BitPosition returns the bit position.
func (r *Reader) BitPosition() int {
	return r.bitPos
}

// BytesAvailable returns the number of unread bytes.
func (r *Reader) BytesAvailable() int {
	return len(r.buf) - r.pos
}

// Data returns the underlying buffer.
func (r *Reader) Data() []byte {
	return r.buf
}

// Fail records err unless an error is already recorded.
func (r *Reader) Fail(err error) {
	if *r.err == nil {
		*r.err = err
	}
}

func (r *Reader) failEOF(n int) {
	r.Fail(fmt.Errorf("%w: need %d bytes at %d/%d", ErrEndOfStream, n, r.pos, len(r.buf)))
}

func (r *Reader) positionChanged() {
	r.bitPos = r.pos * 8
}

func (r *Reader) bitPositionChanged() {
	r.pos = (r.bitPos + 7) / 8
}

// AlignWithBytes moves the bit position to the byte position.
func (r *Reader) AlignWithBytes() {
	r.bitPos = r.pos * 8
}

// Skip advances the byte position by n.
func (r *Reader) Skip(n int) {
	if *r.err != nil {
		return
	}
	if n < 0 || n > r.BytesAvailable() {
		r.failEOF(n)
		return
	}
	r.pos += n
	r.positionChanged()
}

func (r *Reader) next(n int) []byte {
	if *r.err != nil {
		return nil
	}
	if n > r.BytesAvailable() {
		r.failEOF(n)
		return nil
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	r.positionChanged()
	return b
}

// ReadBytes returns a child reader over the next n bytes.
func (r *Reader) ReadBytes(n int) *Reader {
	child := &Reader{order: r.order, err: r.err}
	if n < 0 {
		r.failEOF(n)
		return child
	}
	child.buf = r.next(n)
	return child
}

// ReadByteData reads a varint length followed by that many bytes.
// A zero length returns nil.
func (r *Reader) ReadByteData() []byte {
	n := r.ReadEncodedUint32()
	b := r.next(int(n))
	if n == 0 || b == nil {
		return nil
	}
	return append([]byte(nil), b...)
}

// ReadByteDataWithStartCode is ReadByteData with StartCode prepended.
func (r *Reader) ReadByteDataWithStartCode() []byte {
	n := r.ReadEncodedUint32()
	b := r.next(int(n))
	if n == 0 || b == nil {
		return nil
	}
	out := make([]byte, 0, len(StartCode)+len(b))
	out = append(out, StartCode...)
	return append(out, b...)
}

// ReadUTF8String reads a null-terminated string. An unterminated
// string consumes the rest of the buffer.
func (r *Reader) ReadUTF8String() string {
	if *r.err != nil {
		return ""
	}
	if r.pos >= len(r.buf) {
		r.failEOF(1)
		return ""
	}
	start := r.pos
	rest := r.buf[r.pos:]
	str := rest
	r.pos = len(r.buf)
	for i, c := range rest {
		if c == 0 {
			str = rest[:i]
			r.pos = start + i + 1
			break
		}
	}
	r.positionChanged()
	if !utf8.Valid(str) {
		r.Fail(fmt.Errorf("%w at %d", ErrInvalidString, start))
		return ""
	}
	return string(str)
}

// ReadBoolean reads one byte, non-zero is true.
func (r *Reader) ReadBoolean() bool {
	return r.ReadUint8() != 0
}

// ReadInt8 reads a signed byte.
func (r *Reader) ReadInt8() int8 {
	return int8(r.ReadUint8())
}

// ReadUint8 reads a byte.
func (r *Reader) ReadUint8() uint8 {
	b := r.next(1)
	if b == nil {
		return 0
	}
	return b[0]
}

// ReadInt16 reads a signed 16 bit integer.
func (r *Reader) ReadInt16() int16 {
	return int16(r.ReadUint16())
}

// ReadUint16 reads an unsigned 16 bit integer.
func (r *Reader) ReadUint16() uint16 {
	b := r.next(2)
	if b == nil {
		return 0
	}
	return r.order.Uint16(b)
}

// ReadUint24 reads an unsigned 24 bit integer.
func (r *Reader) ReadUint24() uint32 {
	b := r.next(3)
	if b == nil {
		return 0
	}
	if r.order == binary.BigEndian {
		return uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2])
	}
	return uint32(b[2])<<16 | uint32(b[1])<<8 | uint32(b[0])
}

// ReadInt32 reads a signed 32 bit integer.
func (r *Reader) ReadInt32() int32 {
	return int32(r.ReadUint32())
}

// ReadUint32 reads an unsigned 32 bit integer.
func (r *Reader) ReadUint32() uint32 {
	b := r.next(4)
	if b == nil {
		return 0
	}
	return r.order.Uint32(b)
}

// ReadInt64 reads a signed 64 bit integer.
func (r *Reader) ReadInt64() int64 {
	return int64(r.ReadUint64())
}

// ReadUint64 reads an unsigned 64 bit integer.
func (r *Reader) ReadUint64() uint64 {
	b := r.next(8)
	if b == nil {
		return 0
	}
	return r.order.Uint64(b)
}

// ReadFloat32 reads an IEEE 754 single.
func (r *Reader) ReadFloat32() float32 {
	return math.Float32frombits(r.ReadUint32())
}

// ReadFloat64 reads an IEEE 754 double.
func (r *Reader) ReadFloat64() float64 {
	return math.Float64frombits(r.ReadUint64())
}

func (r *Reader) readVarint(maxBits int) uint64 {
	if *r.err != nil {
		return 0
	}
	var value uint64
	for i := 0; i < maxBits; i += 7 {
		if r.pos >= len(r.buf) {
			r.failEOF(1)
			return 0
		}
		b := r.buf[r.pos]
		r.pos++
		value |= uint64(b&0x7f) << i
		if b&0x80 == 0 {
			break
		}
	}
	r.positionChanged()
	return value
}

// ReadEncodedUint32 reads a variable length unsigned integer,
// 7 value bits per byte, least significant group first.
func (r *Reader) ReadEncodedUint32() uint32 {
	return uint32(r.readVarint(32))
}

// ReadEncodedInt32 reads a variable length integer with the sign
// stored in bit 0.
func (r *Reader) ReadEncodedInt32() int32 {
	data := r.ReadEncodedUint32()
	value := int32(data >> 1)
	if data&1 != 0 {
		return -value
	}
	return value
}

// ReadEncodedUint64 is the 64 bit form of ReadEncodedUint32.
func (r *Reader) ReadEncodedUint64() uint64 {
	return r.readVarint(64)
}

// ReadEncodedInt64 is the 64 bit form of ReadEncodedInt32.
func (r *Reader) ReadEncodedInt64() int64 {
	data := r.ReadEncodedUint64()
	value := int64(data >> 1)
	if data&1 != 0 {
		return -value
	}
	return value
}

// ReadUBits reads n bits, 0 <= n <= 32, packed low bit first.
func (r *Reader) ReadUBits(n uint8) uint32 {
	if *r.err != nil {
		return 0
	}
	if n > 32 || r.bitPos+int(n) > len(r.buf)*8 {
		r.Fail(fmt.Errorf("%w: need %d bits at bit %d/%d",
			ErrEndOfStream, n, r.bitPos, len(r.buf)*8))
		return 0
	}
	var value uint32
	var read uint8
	for read < n {
		byteIndex := r.bitPos / 8
		bitIndex := uint8(r.bitPos % 8)
		length := 8 - bitIndex
		if n-read < length {
			length = n - read
		}
		b := uint32(r.buf[byteIndex]>>bitIndex) & (1<<length - 1)
		value |= b << read
		read += length
		r.bitPos += int(length)
	}
	r.bitPositionChanged()
	return value
}

// ReadBits reads n bits as a sign-extended integer.
func (r *Reader) ReadBits(n uint8) int32 {
	value := r.ReadUBits(n)
	if n == 0 || n >= 32 {
		return int32(value)
	}
	shift := 32 - n
	return int32(value<<shift) >> shift
}

// ReadBitBoolean reads a single bit.
func (r *Reader) ReadBitBoolean() bool {
	return r.ReadUBits(1) != 0
}

// ReadNumBits reads the 5 bit width header shared by bit lists.
func (r *Reader) ReadNumBits() uint8 {
	return uint8(r.ReadUBits(5)) + 1
}

// ReadUint32List reads count unsigned values of a shared width.
func (r *Reader) ReadUint32List(count int) []uint32 {
	numBits := r.ReadNumBits()
	values := make([]uint32, count)
	for i := range values {
		values[i] = r.ReadUBits(numBits)
		if *r.err != nil {
			break
		}
	}
	return values
}

// ReadInt32List reads count signed values of a shared width.
func (r *Reader) ReadInt32List(count int) []int32 {
	numBits := r.ReadNumBits()
	values := make([]int32, count)
	for i := range values {
		values[i] = r.ReadBits(numBits)
		if *r.err != nil {
			break
		}
	}
	return values
}

// ReadFloatList reads count fixed point values scaled by precision.
func (r *Reader) ReadFloatList(count int, precision float32) []float32 {
	numBits := r.ReadNumBits()
	values := make([]float32, count)
	for i := range values {
		values[i] = float32(r.ReadBits(numBits)) * precision
		if *r.err != nil {
			break
		}
	}
	return values
}
