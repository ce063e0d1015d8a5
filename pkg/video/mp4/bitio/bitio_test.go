package bitio

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriter(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)

	w.TryWriteByte(0x01)
	w.TryWriteUint16(0x0203)
	w.TryWriteUint32(0x04050607)
	w.TryWriteInt32(-1)
	w.TryWriteUint64(0x08090a0b0c0d0e0f)
	w.TryWriteZeros(2)
	w.TryWrite([]byte("ab"))
	require.NoError(t, w.TryError)

	require.Equal(t, []byte{
		0x01,
		0x02, 0x03,
		0x04, 0x05, 0x06, 0x07,
		0xff, 0xff, 0xff, 0xff,
		0x08, 0x09, 0x0a, 0x0b, 0x0c, 0x0d, 0x0e, 0x0f,
		0x00, 0x00,
		'a', 'b',
	}, buf.Bytes())
	require.Equal(t, buf.Len(), w.Written())
}

var errFull = errors.New("full")

type limitedWriter struct {
	bytes.Buffer
	limit int
}

func (w *limitedWriter) Write(p []byte) (int, error) {
	if w.Len()+len(p) > w.limit {
		return 0, errFull
	}
	return w.Buffer.Write(p)
}

func (w *limitedWriter) WriteByte(b byte) error {
	if w.Len()+1 > w.limit {
		return errFull
	}
	return w.Buffer.WriteByte(b)
}

func TestWriterStopsAtFirstError(t *testing.T) {
	out := &limitedWriter{limit: 5}
	w := NewWriter(out)

	w.TryWriteUint32(1)
	w.TryWriteUint32(2)
	w.TryWriteByte(3)
	require.ErrorIs(t, w.TryError, errFull)
	require.Equal(t, []byte{0, 0, 0, 1}, out.Bytes())
	require.Equal(t, 4, w.Written())
}
