// Package mp4 contains the ISO-BMFF boxes of a single track fragmented
// H.264 file.
package mp4

import "pagkit/pkg/video/mp4/bitio"

// BoxType is mpeg box type.
type BoxType [4]byte

func (t BoxType) String() string {
	return string(t[:])
}

// ImmutableBoxes is slice of ImmutableBox.
type ImmutableBoxes []ImmutableBox

// ImmutableBox is common interface of box.
type ImmutableBox interface {
	// Type returns the BoxType.
	Type() BoxType

	// Size returns the marshaled size in bytes without the header.
	// The size must be known before marshaling
	// since the box header contains the size.
	Size() int

	// Marshal box to writer.
	Marshal(w *bitio.Writer) error
}

// Boxes is a structure of boxes that can be marshaled together.
type Boxes struct {
	Box      ImmutableBox
	Children []Boxes
}

// Size returns the total size of the box including header and children.
func (b *Boxes) Size() int {
	total := b.Box.Size() + headerSize
	for _, child := range b.Children {
		total += child.Size()
	}
	return total
}

// Marshal box including children.
func (b *Boxes) Marshal(w *bitio.Writer) error {
	size := b.Size()
	if err := writeBoxInfo(w, uint32(size), b.Box.Type()); err != nil {
		return err
	}

	if b.Box.Size() != 0 {
		if err := b.Box.Marshal(w); err != nil {
			return err
		}
	}

	for _, child := range b.Children {
		if err := child.Marshal(w); err != nil {
			return err
		}
	}
	return nil
}

const headerSize = 8

func writeBoxInfo(w *bitio.Writer, size uint32, typ BoxType) error {
	w.TryWriteUint32(size)
	w.TryWrite(typ[:])
	return w.TryError
}

// WriteSingleBox write a single box.
func WriteSingleBox(w *bitio.Writer, b ImmutableBox) (int, error) {
	size := headerSize + b.Size()
	if err := writeBoxInfo(w, uint32(size), b.Type()); err != nil {
		return 0, err
	}

	if size != headerSize {
		if err := b.Marshal(w); err != nil {
			return 0, err
		}
	}
	return size, nil
}

// Marshal ImmutableBoxes to writer.
func (boxes ImmutableBoxes) Marshal(w *bitio.Writer) error {
	for _, b := range boxes {
		if _, err := WriteSingleBox(w, b); err != nil {
			return err
		}
	}
	return nil
}

// Size combined size of boxes.
func (boxes ImmutableBoxes) Size() int {
	var n int
	for _, b := range boxes {
		n += headerSize + b.Size()
	}
	return n
}
