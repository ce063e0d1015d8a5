// Package bitio writes the big-endian fields of ISO-BMFF boxes.
package bitio

import (
	"encoding/binary"
	"io"
)

// WriterAndByteWriter io.Writer and io.ByteWriter at the same time.
type WriterAndByteWriter interface {
	io.Writer
	io.ByteWriter
}

// Writer is a big-endian field writer. The Try methods turn into
// no-ops after the first error, which is kept in TryError.
type Writer struct {
	out     WriterAndByteWriter
	scratch [8]byte
	written int

	// TryError holds the first error occurred in TryXXX() methods.
	TryError error
}

// NewWriter returns a new Writer using the specified output.
func NewWriter(out WriterAndByteWriter) *Writer {
	return &Writer{out: out}
}

// Written returns the number of bytes written so far.
func (w *Writer) Written() int {
	return w.written
}

// Write implements io.Writer.
func (w *Writer) Write(p []byte) (int, error) {
	n, err := w.out.Write(p)
	w.written += n
	return n, err
}

// WriteByte implements io.ByteWriter.
func (w *Writer) WriteByte(b byte) error {
	if err := w.out.WriteByte(b); err != nil {
		return err
	}
	w.written++
	return nil
}

// WriteUint16 writes 16 bits.
func (w *Writer) WriteUint16(r uint16) error {
	binary.BigEndian.PutUint16(w.scratch[:], r)
	_, err := w.Write(w.scratch[:2])
	return err
}

// WriteUint32 writes 32 bits.
func (w *Writer) WriteUint32(r uint32) error {
	binary.BigEndian.PutUint32(w.scratch[:], r)
	_, err := w.Write(w.scratch[:4])
	return err
}

// WriteUint64 writes 64 bits.
func (w *Writer) WriteUint64(r uint64) error {
	binary.BigEndian.PutUint64(w.scratch[:], r)
	_, err := w.Write(w.scratch[:8])
	return err
}

// TryWrite tries to write len(p) bytes.
func (w *Writer) TryWrite(p []byte) {
	if w.TryError == nil {
		_, w.TryError = w.Write(p)
	}
}

// TryWriteByte tries to write 1 byte.
func (w *Writer) TryWriteByte(b byte) {
	if w.TryError == nil {
		w.TryError = w.WriteByte(b)
	}
}

// TryWriteUint16 tries to write 16 bits.
func (w *Writer) TryWriteUint16(r uint16) {
	if w.TryError == nil {
		w.TryError = w.WriteUint16(r)
	}
}

// TryWriteUint32 tries to write 32 bits.
func (w *Writer) TryWriteUint32(r uint32) {
	if w.TryError == nil {
		w.TryError = w.WriteUint32(r)
	}
}

// TryWriteInt32 tries to write a two's complement 32 bit value.
func (w *Writer) TryWriteInt32(r int32) {
	w.TryWriteUint32(uint32(r))
}

// TryWriteUint64 tries to write 64 bits.
func (w *Writer) TryWriteUint64(r uint64) {
	if w.TryError == nil {
		w.TryError = w.WriteUint64(r)
	}
}

// TryWriteZeros tries to write n zero bytes.
func (w *Writer) TryWriteZeros(n int) {
	for i := 0; i < n && w.TryError == nil; i++ {
		w.TryError = w.WriteByte(0)
	}
}
