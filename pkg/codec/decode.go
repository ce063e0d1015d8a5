// Package codec decodes PAG animation files into a scene graph.
package codec

import (
	"bytes"
	"fmt"

	"pagkit/pkg/codec/stream"
	"pagkit/pkg/scene"
)

// Magic is the file signature.
var Magic = []byte("PAG")

// MaxVersion is the highest supported file version.
const MaxVersion = 2

// headerSize covers the signature, version, body length and
// compression flag. The smallest file adds an End tag.
const (
	headerSize  = 9
	minFileSize = headerSize + 2
)

// Header is the fixed file header.
type Header struct {
	Version     uint8
	BodyLength  uint32
	Compression int8
}

// ReadHeader reads and validates the file header.
func ReadHeader(r *stream.Reader) (Header, error) {
	if r.BytesAvailable() < minFileSize {
		return Header{}, fmt.Errorf("%w: %d bytes", ErrTooShort, r.BytesAvailable())
	}
	magic := r.ReadBytes(len(Magic))
	if !bytes.Equal(magic.Data(), Magic) {
		return Header{}, ErrBadMagic
	}
	h := Header{
		Version:    r.ReadUint8(),
		BodyLength: r.ReadUint32(),
	}
	h.Compression = r.ReadInt8()
	if err := r.Err(); err != nil {
		return Header{}, err
	}
	if h.Version > MaxVersion {
		return Header{}, fmt.Errorf("%w: %d", ErrVersion, h.Version)
	}
	if h.Compression != 0 {
		return Header{}, fmt.Errorf("%w: %d", ErrCompression, h.Compression)
	}
	if int64(h.BodyLength) > int64(r.BytesAvailable()) {
		h.BodyLength = uint32(r.BytesAvailable())
	}
	return h, nil
}

// Option configures Decode.
type Option func(*decoder)

// WithIDSource sets the source of composition cache identifiers.
func WithIDSource(ids scene.IDSource) Option {
	return func(d *decoder) {
		d.ids = ids
	}
}

type decoder struct {
	ids      scene.IDSource
	tagLevel uint16
	fonts    []scene.Font
}

// Decode parses a complete file, resolves references, verifies the
// graph and computes the static time ranges. No partial graph is
// returned on error.
func Decode(data []byte, opts ...Option) (*scene.File, error) {
	d := &decoder{ids: scene.DefaultIDSource}
	for _, opt := range opts {
		opt(d)
	}

	f, err := d.decode(data)
	if err != nil {
		return nil, &DecodeError{Kind: KindSyntax, Err: err}
	}
	if err := f.Verify(); err != nil {
		return nil, &DecodeError{Kind: KindStructure, Err: err}
	}
	f.UpdateStaticTimeRanges()
	return f, nil
}

func (d *decoder) decode(data []byte) (*scene.File, error) {
	r := stream.NewReader(data)
	h, err := ReadHeader(r)
	if err != nil {
		return nil, fmt.Errorf("header: %w", err)
	}

	f := &scene.File{Version: h.Version}
	body := r.ReadBytes(int(h.BodyLength))
	d.readTags(body, func(h TagHeader, body *stream.Reader) {
		switch h.Code {
		case TagFontTables:
			d.readFontTables(body)
		case TagVectorCompositionBlock:
			f.Compositions = append(f.Compositions, d.readVectorComposition(body))
		case TagVideoCompositionBlock:
			f.Compositions = append(f.Compositions, d.readVideoComposition(body))
		}
	})
	if err := r.Err(); err != nil {
		return nil, err
	}

	f.Fonts = d.fonts
	f.TagLevel = d.tagLevel
	resolveReferences(f)
	return f, nil
}
