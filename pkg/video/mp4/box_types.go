package mp4

import (
	"errors"
	"fmt"

	"pagkit/pkg/video/mp4/bitio"
)

// UnityMatrix is the identity transformation matrix of mvhd and tkhd.
var UnityMatrix = [9]int32{0x00010000, 0, 0, 0, 0x00010000, 0, 0, 0, 0x40000000}

// ErrFieldOverflow is returned when a value does not fit its field.
var ErrFieldOverflow = errors.New("field overflow")

/************************ Container *************************/

// Container is a box that only holds children.
type Container BoxType

// Container boxes.
var (
	Moov = Container{'m', 'o', 'o', 'v'}
	Trak = Container{'t', 'r', 'a', 'k'}
	Edts = Container{'e', 'd', 't', 's'}
	Mdia = Container{'m', 'd', 'i', 'a'}
	Minf = Container{'m', 'i', 'n', 'f'}
	Dinf = Container{'d', 'i', 'n', 'f'}
	Stbl = Container{'s', 't', 'b', 'l'}
	Mvex = Container{'m', 'v', 'e', 'x'}
	Moof = Container{'m', 'o', 'o', 'f'}
	Traf = Container{'t', 'r', 'a', 'f'}
)

// Type returns the BoxType.
func (b Container) Type() BoxType {
	return BoxType(b)
}

// Size returns the marshaled size in bytes.
func (Container) Size() int {
	return 0
}

// Marshal is never called.
func (Container) Marshal(*bitio.Writer) error { return nil }

/************************* FullBox **************************/

// FullBox is ISOBMFF FullBox.
type FullBox struct {
	Version uint8
	Flags   [3]byte
}

// FlagsFromUint32 returns the 24 bit flags field.
func FlagsFromUint32(flags uint32) [3]byte {
	return [3]byte{byte(flags >> 16), byte(flags >> 8), byte(flags)}
}

// GetFlags returns the flags.
func (b *FullBox) GetFlags() uint32 {
	return uint32(b.Flags[0])<<16 | uint32(b.Flags[1])<<8 | uint32(b.Flags[2])
}

// CheckFlag checks the flag status.
func (b *FullBox) CheckFlag(flag uint32) bool {
	return b.GetFlags()&flag != 0
}

// MarshalField box to writer.
func (b *FullBox) MarshalField(w *bitio.Writer) error {
	w.TryWriteByte(b.Version)
	w.TryWrite(b.Flags[:])
	return w.TryError
}

/*************************** ftyp ****************************/

// Ftyp is ISOBMFF ftyp box type.
type Ftyp struct {
	MajorBrand       [4]byte
	MinorVersion     uint32
	CompatibleBrands [][4]byte
}

// Type returns the BoxType.
func (*Ftyp) Type() BoxType {
	return [4]byte{'f', 't', 'y', 'p'}
}

// Size returns the marshaled size in bytes.
func (b *Ftyp) Size() int {
	return 8 + len(b.CompatibleBrands)*4
}

// Marshal box to writer.
func (b *Ftyp) Marshal(w *bitio.Writer) error {
	w.TryWrite(b.MajorBrand[:])
	w.TryWriteUint32(b.MinorVersion)
	for _, brand := range b.CompatibleBrands {
		w.TryWrite(brand[:])
	}
	return w.TryError
}

/*************************** mvhd ****************************/

// Mvhd is ISOBMFF mvhd box type. Only version 0 is supported.
type Mvhd struct {
	FullBox
	CreationTime     uint32
	ModificationTime uint32
	Timescale        uint32
	Duration         uint32
	Rate             int32 // fixed-point 16.16
	Volume           int16 // fixed-point 8.8
	Matrix           [9]int32
	NextTrackID      uint32
}

// Type returns the BoxType.
func (*Mvhd) Type() BoxType {
	return [4]byte{'m', 'v', 'h', 'd'}
}

// Size returns the marshaled size in bytes.
func (*Mvhd) Size() int {
	return 100
}

// Marshal box to writer.
func (b *Mvhd) Marshal(w *bitio.Writer) error {
	if err := b.FullBox.MarshalField(w); err != nil {
		return err
	}
	w.TryWriteUint32(b.CreationTime)
	w.TryWriteUint32(b.ModificationTime)
	w.TryWriteUint32(b.Timescale)
	w.TryWriteUint32(b.Duration)
	w.TryWriteInt32(b.Rate)
	w.TryWriteUint16(uint16(b.Volume))
	w.TryWriteZeros(10) // reserved
	for _, v := range b.Matrix {
		w.TryWriteInt32(v)
	}
	w.TryWriteZeros(24) // pre_defined
	w.TryWriteUint32(b.NextTrackID)
	return w.TryError
}

/*************************** tkhd ****************************/

// Tkhd is ISOBMFF tkhd box type. Only version 0 is supported.
type Tkhd struct {
	FullBox
	CreationTime     uint32
	ModificationTime uint32
	TrackID          uint32
	Duration         uint32
	Layer            int16
	AlternateGroup   int16
	Volume           int16 // fixed-point 8.8
	Matrix           [9]int32
	Width            uint32 // fixed-point 16.16
	Height           uint32 // fixed-point 16.16
}

// tkhd flags.
const (
	TkhdTrackEnabled = 0x000001
	TkhdTrackInMovie = 0x000002
)

// Type returns the BoxType.
func (*Tkhd) Type() BoxType {
	return [4]byte{'t', 'k', 'h', 'd'}
}

// Size returns the marshaled size in bytes.
func (*Tkhd) Size() int {
	return 84
}

// Marshal box to writer.
func (b *Tkhd) Marshal(w *bitio.Writer) error {
	if err := b.FullBox.MarshalField(w); err != nil {
		return err
	}
	w.TryWriteUint32(b.CreationTime)
	w.TryWriteUint32(b.ModificationTime)
	w.TryWriteUint32(b.TrackID)
	w.TryWriteZeros(4)
	w.TryWriteUint32(b.Duration)
	w.TryWriteZeros(8)
	w.TryWriteUint16(uint16(b.Layer))
	w.TryWriteUint16(uint16(b.AlternateGroup))
	w.TryWriteUint16(uint16(b.Volume))
	w.TryWriteZeros(2)
	for _, v := range b.Matrix {
		w.TryWriteInt32(v)
	}
	w.TryWriteUint32(b.Width)
	w.TryWriteUint32(b.Height)
	return w.TryError
}

/*************************** elst ****************************/

// ElstEntry .
type ElstEntry struct {
	SegmentDuration   uint32
	MediaTime         int32
	MediaRateInteger  int16
	MediaRateFraction int16
}

// Elst is ISOBMFF elst box type. Only version 0 is supported.
type Elst struct {
	FullBox
	Entries []ElstEntry
}

// Type returns the BoxType.
func (*Elst) Type() BoxType {
	return [4]byte{'e', 'l', 's', 't'}
}

// Size returns the marshaled size in bytes.
func (b *Elst) Size() int {
	return 8 + len(b.Entries)*12
}

// Marshal box to writer.
func (b *Elst) Marshal(w *bitio.Writer) error {
	if err := b.FullBox.MarshalField(w); err != nil {
		return err
	}
	w.TryWriteUint32(uint32(len(b.Entries)))
	for _, entry := range b.Entries {
		w.TryWriteUint32(entry.SegmentDuration)
		w.TryWriteInt32(entry.MediaTime)
		w.TryWriteUint16(uint16(entry.MediaRateInteger))
		w.TryWriteUint16(uint16(entry.MediaRateFraction))
	}
	return w.TryError
}

/*************************** mdhd ****************************/

// Mdhd is ISOBMFF mdhd box type. Only version 0 is supported.
type Mdhd struct {
	FullBox
	CreationTime     uint32
	ModificationTime uint32
	Timescale        uint32
	Duration         uint32
	Language         [3]byte // ISO-639-2/T language code
}

// Type returns the BoxType.
func (*Mdhd) Type() BoxType {
	return [4]byte{'m', 'd', 'h', 'd'}
}

// Size returns the marshaled size in bytes.
func (*Mdhd) Size() int {
	return 24
}

// Marshal box to writer.
func (b *Mdhd) Marshal(w *bitio.Writer) error {
	if err := b.FullBox.MarshalField(w); err != nil {
		return err
	}
	w.TryWriteUint32(b.CreationTime)
	w.TryWriteUint32(b.ModificationTime)
	w.TryWriteUint32(b.Timescale)
	w.TryWriteUint32(b.Duration)

	// Pad bit followed by three 5 bit characters.
	lang := uint16(b.Language[0]&0x1f)<<10 |
		uint16(b.Language[1]&0x1f)<<5 |
		uint16(b.Language[2]&0x1f)
	w.TryWriteUint16(lang)
	w.TryWriteZeros(2) // pre_defined
	return w.TryError
}

/*************************** hdlr ****************************/

// Hdlr is ISOBMFF hdlr box type.
type Hdlr struct {
	FullBox
	HandlerType [4]byte
	Name        string
}

// Type returns the BoxType.
func (*Hdlr) Type() BoxType {
	return [4]byte{'h', 'd', 'l', 'r'}
}

// Size returns the marshaled size in bytes.
func (b *Hdlr) Size() int {
	return 24 + len(b.Name) + 1
}

// Marshal box to writer.
func (b *Hdlr) Marshal(w *bitio.Writer) error {
	if err := b.FullBox.MarshalField(w); err != nil {
		return err
	}
	w.TryWriteZeros(4) // pre_defined
	w.TryWrite(b.HandlerType[:])
	w.TryWriteZeros(12) // reserved
	w.TryWrite([]byte(b.Name))
	w.TryWriteByte(0)
	return w.TryError
}

/*************************** vmhd ****************************/

// Vmhd is ISOBMFF vmhd box type.
type Vmhd struct {
	FullBox
	Graphicsmode uint16
	Opcolor      [3]uint16
}

// Type returns the BoxType.
func (*Vmhd) Type() BoxType {
	return [4]byte{'v', 'm', 'h', 'd'}
}

// Size returns the marshaled size in bytes.
func (*Vmhd) Size() int {
	return 12
}

// Marshal box to writer.
func (b *Vmhd) Marshal(w *bitio.Writer) error {
	if err := b.FullBox.MarshalField(w); err != nil {
		return err
	}
	w.TryWriteUint16(b.Graphicsmode)
	for _, color := range b.Opcolor {
		w.TryWriteUint16(color)
	}
	return w.TryError
}

/*************************** dref ****************************/

// Dref is ISOBMFF dref box type. The entries are its children.
type Dref struct {
	FullBox
	EntryCount uint32
}

// Type returns the BoxType.
func (*Dref) Type() BoxType {
	return [4]byte{'d', 'r', 'e', 'f'}
}

// Size returns the marshaled size in bytes.
func (*Dref) Size() int {
	return 8
}

// Marshal box to writer.
func (b *Dref) Marshal(w *bitio.Writer) error {
	if err := b.FullBox.MarshalField(w); err != nil {
		return err
	}
	w.TryWriteUint32(b.EntryCount)
	return w.TryError
}

/*************************** url ****************************/

// URLSelfContained means the media is in the same file.
const URLSelfContained = 0x000001

// URL is ISOBMFF "url " box type.
type URL struct {
	FullBox
	Location string
}

// Type returns the BoxType.
func (*URL) Type() BoxType {
	return [4]byte{'u', 'r', 'l', ' '}
}

// Size returns the marshaled size in bytes.
func (b *URL) Size() int {
	if b.FullBox.CheckFlag(URLSelfContained) {
		return 4
	}
	return 4 + len(b.Location) + 1
}

// Marshal box to writer.
func (b *URL) Marshal(w *bitio.Writer) error {
	if err := b.FullBox.MarshalField(w); err != nil {
		return err
	}
	if !b.FullBox.CheckFlag(URLSelfContained) {
		w.TryWrite([]byte(b.Location))
		w.TryWriteByte(0)
	}
	return w.TryError
}

/*************************** stsd ****************************/

// Stsd is ISOBMFF stsd box type. The sample entries are its children.
type Stsd struct {
	FullBox
	EntryCount uint32
}

// Type returns the BoxType.
func (*Stsd) Type() BoxType {
	return [4]byte{'s', 't', 's', 'd'}
}

// Size returns the marshaled size in bytes.
func (*Stsd) Size() int {
	return 8
}

// Marshal box to writer.
func (b *Stsd) Marshal(w *bitio.Writer) error {
	if err := b.FullBox.MarshalField(w); err != nil {
		return err
	}
	w.TryWriteUint32(b.EntryCount)
	return w.TryError
}

/*************************** avc1 ****************************/

// Avc1 is ISOBMFF AVC sample entry.
type Avc1 struct {
	DataReferenceIndex uint16
	Width              uint16
	Height             uint16
	Horizresolution    uint32 // fixed-point 16.16
	Vertresolution     uint32 // fixed-point 16.16
	FrameCount         uint16
	Compressorname     [32]byte
	Depth              uint16
}

// Type returns the BoxType.
func (*Avc1) Type() BoxType {
	return [4]byte{'a', 'v', 'c', '1'}
}

// Size returns the marshaled size in bytes.
func (*Avc1) Size() int {
	return 78
}

// Marshal box to writer.
func (b *Avc1) Marshal(w *bitio.Writer) error {
	w.TryWriteZeros(6) // reserved
	w.TryWriteUint16(b.DataReferenceIndex)
	w.TryWriteZeros(16) // pre_defined and reserved
	w.TryWriteUint16(b.Width)
	w.TryWriteUint16(b.Height)
	w.TryWriteUint32(b.Horizresolution)
	w.TryWriteUint32(b.Vertresolution)
	w.TryWriteZeros(4)
	w.TryWriteUint16(b.FrameCount)
	w.TryWrite(b.Compressorname[:])
	w.TryWriteUint16(b.Depth)
	w.TryWriteUint16(0xffff) // pre_defined = -1
	return w.TryError
}

/*************************** avcC ****************************/

// AvcC is ISOBMFF AVC configuration box type. Parameter sets are
// NALUs without start code.
type AvcC struct {
	ConfigurationVersion  uint8
	Profile               uint8
	ProfileCompatibility  uint8
	Level                 uint8
	LengthSizeMinusOne    uint8 // 2 bits.
	SequenceParameterSets [][]byte
	PictureParameterSets  [][]byte
}

// Type returns the BoxType.
func (*AvcC) Type() BoxType {
	return [4]byte{'a', 'v', 'c', 'C'}
}

// Size returns the marshaled size in bytes.
func (b *AvcC) Size() int {
	total := 7
	for _, set := range b.SequenceParameterSets {
		total += 2 + len(set)
	}
	for _, set := range b.PictureParameterSets {
		total += 2 + len(set)
	}
	return total
}

// Marshal box to writer.
func (b *AvcC) Marshal(w *bitio.Writer) error {
	if len(b.SequenceParameterSets) > 0x1f {
		return fmt.Errorf("sps count: %w", ErrFieldOverflow)
	}
	if len(b.PictureParameterSets) > 0xff {
		return fmt.Errorf("pps count: %w", ErrFieldOverflow)
	}
	w.TryWriteByte(b.ConfigurationVersion)
	w.TryWriteByte(b.Profile)
	w.TryWriteByte(b.ProfileCompatibility)
	w.TryWriteByte(b.Level)
	w.TryWriteByte(0xfc | b.LengthSizeMinusOne&0x3)
	w.TryWriteByte(0xe0 | uint8(len(b.SequenceParameterSets)))
	if err := marshalParameterSets(w, b.SequenceParameterSets); err != nil {
		return err
	}
	w.TryWriteByte(uint8(len(b.PictureParameterSets)))
	return marshalParameterSets(w, b.PictureParameterSets)
}

func marshalParameterSets(w *bitio.Writer, sets [][]byte) error {
	for _, set := range sets {
		if len(set) > 0xffff {
			return fmt.Errorf("parameter set length: %w", ErrFieldOverflow)
		}
		w.TryWriteUint16(uint16(len(set)))
		w.TryWrite(set)
	}
	return w.TryError
}

/*************************** stts ****************************/

// SttsEntry .
type SttsEntry struct {
	SampleCount uint32
	SampleDelta uint32
}

// Stts is ISOBMFF stts box type.
type Stts struct {
	FullBox
	Entries []SttsEntry
}

// Type returns the BoxType.
func (*Stts) Type() BoxType {
	return [4]byte{'s', 't', 't', 's'}
}

// Size returns the marshaled size in bytes.
func (b *Stts) Size() int {
	return 8 + len(b.Entries)*8
}

// Marshal box to writer.
func (b *Stts) Marshal(w *bitio.Writer) error {
	if err := b.FullBox.MarshalField(w); err != nil {
		return err
	}
	w.TryWriteUint32(uint32(len(b.Entries)))
	for _, entry := range b.Entries {
		w.TryWriteUint32(entry.SampleCount)
		w.TryWriteUint32(entry.SampleDelta)
	}
	return w.TryError
}

/*************************** ctts ****************************/

// CttsEntry .
type CttsEntry struct {
	SampleCount  uint32
	SampleOffset int32
}

// Ctts is ISOBMFF ctts box type. Version 0 offsets must not be negative.
type Ctts struct {
	FullBox
	Entries []CttsEntry
}

// Type returns the BoxType.
func (*Ctts) Type() BoxType {
	return [4]byte{'c', 't', 't', 's'}
}

// Size returns the marshaled size in bytes.
func (b *Ctts) Size() int {
	return 8 + len(b.Entries)*8
}

// Marshal box to writer.
func (b *Ctts) Marshal(w *bitio.Writer) error {
	if err := b.FullBox.MarshalField(w); err != nil {
		return err
	}
	w.TryWriteUint32(uint32(len(b.Entries)))
	for _, entry := range b.Entries {
		if b.Version == 0 && entry.SampleOffset < 0 {
			return fmt.Errorf("negative sample offset: %w", ErrFieldOverflow)
		}
		w.TryWriteUint32(entry.SampleCount)
		w.TryWriteInt32(entry.SampleOffset)
	}
	return w.TryError
}

/*************************** stss ****************************/

// Stss is ISOBMFF stss box type.
type Stss struct {
	FullBox
	SampleNumbers []uint32
}

// Type returns the BoxType.
func (*Stss) Type() BoxType {
	return [4]byte{'s', 't', 's', 's'}
}

// Size returns the marshaled size in bytes.
func (b *Stss) Size() int {
	return 8 + len(b.SampleNumbers)*4
}

// Marshal box to writer.
func (b *Stss) Marshal(w *bitio.Writer) error {
	if err := b.FullBox.MarshalField(w); err != nil {
		return err
	}
	w.TryWriteUint32(uint32(len(b.SampleNumbers)))
	for _, number := range b.SampleNumbers {
		w.TryWriteUint32(number)
	}
	return w.TryError
}

/*************************** stsc ****************************/

// StscEntry .
type StscEntry struct {
	FirstChunk             uint32
	SamplesPerChunk        uint32
	SampleDescriptionIndex uint32
}

// Stsc is ISOBMFF stsc box type.
type Stsc struct {
	FullBox
	Entries []StscEntry
}

// Type returns the BoxType.
func (*Stsc) Type() BoxType {
	return [4]byte{'s', 't', 's', 'c'}
}

// Size returns the marshaled size in bytes.
func (b *Stsc) Size() int {
	return 8 + len(b.Entries)*12
}

// Marshal box to writer.
func (b *Stsc) Marshal(w *bitio.Writer) error {
	if err := b.FullBox.MarshalField(w); err != nil {
		return err
	}
	w.TryWriteUint32(uint32(len(b.Entries)))
	for _, entry := range b.Entries {
		w.TryWriteUint32(entry.FirstChunk)
		w.TryWriteUint32(entry.SamplesPerChunk)
		w.TryWriteUint32(entry.SampleDescriptionIndex)
	}
	return w.TryError
}

/*************************** stsz ****************************/

// Stsz is ISOBMFF stsz box type. EntrySizes is only written
// when SampleSize is zero.
type Stsz struct {
	FullBox
	SampleSize  uint32
	SampleCount uint32
	EntrySizes  []uint32
}

// Type returns the BoxType.
func (*Stsz) Type() BoxType {
	return [4]byte{'s', 't', 's', 'z'}
}

// Size returns the marshaled size in bytes.
func (b *Stsz) Size() int {
	if b.SampleSize != 0 {
		return 12
	}
	return 12 + len(b.EntrySizes)*4
}

// Marshal box to writer.
func (b *Stsz) Marshal(w *bitio.Writer) error {
	if err := b.FullBox.MarshalField(w); err != nil {
		return err
	}
	w.TryWriteUint32(b.SampleSize)
	w.TryWriteUint32(b.SampleCount)
	if b.SampleSize == 0 {
		for _, size := range b.EntrySizes {
			w.TryWriteUint32(size)
		}
	}
	return w.TryError
}

/*************************** stco ****************************/

// Stco is ISOBMFF stco box type.
type Stco struct {
	FullBox
	ChunkOffsets []uint32
}

// Type returns the BoxType.
func (*Stco) Type() BoxType {
	return [4]byte{'s', 't', 'c', 'o'}
}

// Size returns the marshaled size in bytes.
func (b *Stco) Size() int {
	return 8 + len(b.ChunkOffsets)*4
}

// Marshal box to writer.
func (b *Stco) Marshal(w *bitio.Writer) error {
	if err := b.FullBox.MarshalField(w); err != nil {
		return err
	}
	w.TryWriteUint32(uint32(len(b.ChunkOffsets)))
	for _, offset := range b.ChunkOffsets {
		w.TryWriteUint32(offset)
	}
	return w.TryError
}

/*************************** trex ****************************/

// Trex is ISOBMFF trex box type.
type Trex struct {
	FullBox
	TrackID                       uint32
	DefaultSampleDescriptionIndex uint32
	DefaultSampleDuration         uint32
	DefaultSampleSize             uint32
	DefaultSampleFlags            uint32
}

// Type returns the BoxType.
func (*Trex) Type() BoxType {
	return [4]byte{'t', 'r', 'e', 'x'}
}

// Size returns the marshaled size in bytes.
func (*Trex) Size() int {
	return 24
}

// Marshal box to writer.
func (b *Trex) Marshal(w *bitio.Writer) error {
	if err := b.FullBox.MarshalField(w); err != nil {
		return err
	}
	w.TryWriteUint32(b.TrackID)
	w.TryWriteUint32(b.DefaultSampleDescriptionIndex)
	w.TryWriteUint32(b.DefaultSampleDuration)
	w.TryWriteUint32(b.DefaultSampleSize)
	w.TryWriteUint32(b.DefaultSampleFlags)
	return w.TryError
}

/*************************** mfhd ****************************/

// Mfhd is ISOBMFF mfhd box type.
type Mfhd struct {
	FullBox
	SequenceNumber uint32
}

// Type returns the BoxType.
func (*Mfhd) Type() BoxType {
	return [4]byte{'m', 'f', 'h', 'd'}
}

// Size returns the marshaled size in bytes.
func (*Mfhd) Size() int {
	return 8
}

// Marshal box to writer.
func (b *Mfhd) Marshal(w *bitio.Writer) error {
	if err := b.FullBox.MarshalField(w); err != nil {
		return err
	}
	w.TryWriteUint32(b.SequenceNumber)
	return w.TryError
}

/*************************** tfhd ****************************/

// Tfhd is ISOBMFF tfhd box type. Only the track id is supported.
type Tfhd struct {
	FullBox
	TrackID uint32
}

// Type returns the BoxType.
func (*Tfhd) Type() BoxType {
	return [4]byte{'t', 'f', 'h', 'd'}
}

// Size returns the marshaled size in bytes.
func (*Tfhd) Size() int {
	return 8
}

// Marshal box to writer.
func (b *Tfhd) Marshal(w *bitio.Writer) error {
	if err := b.FullBox.MarshalField(w); err != nil {
		return err
	}
	w.TryWriteUint32(b.TrackID)
	return w.TryError
}

/*************************** tfdt ****************************/

// Tfdt is ISOBMFF tfdt box type.
type Tfdt struct {
	FullBox
	BaseMediaDecodeTimeV0 uint32
	BaseMediaDecodeTimeV1 uint64
}

// Type returns the BoxType.
func (*Tfdt) Type() BoxType {
	return [4]byte{'t', 'f', 'd', 't'}
}

// Size returns the marshaled size in bytes.
func (b *Tfdt) Size() int {
	if b.FullBox.Version == 0 {
		return 8
	}
	return 12
}

// Marshal box to writer.
func (b *Tfdt) Marshal(w *bitio.Writer) error {
	if err := b.FullBox.MarshalField(w); err != nil {
		return err
	}
	if b.FullBox.Version == 0 {
		w.TryWriteUint32(b.BaseMediaDecodeTimeV0)
	} else {
		w.TryWriteUint64(b.BaseMediaDecodeTimeV1)
	}
	return w.TryError
}

/************************ SampleFlags *************************/

// SampleFlags are the dependency flags of a sample.
type SampleFlags struct {
	IsLeading     uint8 // 2 bits.
	DependsOn     uint8 // 2 bits.
	IsDependedOn  uint8 // 2 bits.
	HasRedundancy uint8 // 2 bits.
	IsNonSync     bool
}

// Uint32 returns the trun sample_flags field.
func (f SampleFlags) Uint32() uint32 {
	b0 := uint32(f.IsLeading&0x3)<<2 | uint32(f.DependsOn&0x3)
	b1 := uint32(f.IsDependedOn&0x3)<<6 | uint32(f.HasRedundancy&0x3)<<4
	if f.IsNonSync {
		b1 |= 1
	}
	return b0<<24 | b1<<16
}

// SdtpByte returns the sdtp entry.
func (f SampleFlags) SdtpByte() uint8 {
	return f.IsLeading&0x3<<6 | f.DependsOn&0x3<<4 | f.IsDependedOn&0x3<<2 | f.HasRedundancy&0x3
}

/*************************** trun ****************************/

// TrunEntry .
type TrunEntry struct {
	SampleDuration                uint32
	SampleSize                    uint32
	SampleFlags                   uint32
	SampleCompositionTimeOffsetV0 uint32
	SampleCompositionTimeOffsetV1 int32
}

// trun flags.
const (
	TrunDataOffsetPresent                  = 0x000001
	TrunFirstSampleFlagsPresent            = 0x000004
	TrunSampleDurationPresent              = 0x000100
	TrunSampleSizePresent                  = 0x000200
	TrunSampleFlagsPresent                 = 0x000400
	TrunSampleCompositionTimeOffsetPresent = 0x000800
)

func (b *TrunEntry) fieldSize(fullBox *FullBox) int {
	total := 0
	for _, flag := range []uint32{
		TrunSampleDurationPresent,
		TrunSampleSizePresent,
		TrunSampleFlagsPresent,
		TrunSampleCompositionTimeOffsetPresent,
	} {
		if fullBox.CheckFlag(flag) {
			total += 4
		}
	}
	return total
}

func (b *TrunEntry) marshalField(w *bitio.Writer, fullBox *FullBox) {
	if fullBox.CheckFlag(TrunSampleDurationPresent) {
		w.TryWriteUint32(b.SampleDuration)
	}
	if fullBox.CheckFlag(TrunSampleSizePresent) {
		w.TryWriteUint32(b.SampleSize)
	}
	if fullBox.CheckFlag(TrunSampleFlagsPresent) {
		w.TryWriteUint32(b.SampleFlags)
	}
	if fullBox.CheckFlag(TrunSampleCompositionTimeOffsetPresent) {
		if fullBox.Version == 0 {
			w.TryWriteUint32(b.SampleCompositionTimeOffsetV0)
		} else {
			w.TryWriteInt32(b.SampleCompositionTimeOffsetV1)
		}
	}
}

// Trun is ISOBMFF trun box type.
type Trun struct {
	FullBox

	// optional fields
	DataOffset       int32
	FirstSampleFlags uint32
	Entries          []TrunEntry
}

// Type returns the BoxType.
func (*Trun) Type() BoxType {
	return [4]byte{'t', 'r', 'u', 'n'}
}

// Size returns the marshaled size in bytes.
func (b *Trun) Size() int {
	total := 8
	if b.FullBox.CheckFlag(TrunDataOffsetPresent) {
		total += 4
	}
	if b.FullBox.CheckFlag(TrunFirstSampleFlagsPresent) {
		total += 4
	}
	for i := range b.Entries {
		total += b.Entries[i].fieldSize(&b.FullBox)
	}
	return total
}

// Marshal box to writer.
func (b *Trun) Marshal(w *bitio.Writer) error {
	if err := b.FullBox.MarshalField(w); err != nil {
		return err
	}
	w.TryWriteUint32(uint32(len(b.Entries)))
	if b.FullBox.CheckFlag(TrunDataOffsetPresent) {
		w.TryWriteInt32(b.DataOffset)
	}
	if b.FullBox.CheckFlag(TrunFirstSampleFlagsPresent) {
		w.TryWriteUint32(b.FirstSampleFlags)
	}
	for i := range b.Entries {
		b.Entries[i].marshalField(w, &b.FullBox)
	}
	return w.TryError
}

/*************************** sdtp ****************************/

// Sdtp is ISOBMFF sdtp box type, one SampleFlags.SdtpByte per sample.
type Sdtp struct {
	FullBox
	Samples []uint8
}

// Type returns the BoxType.
func (*Sdtp) Type() BoxType {
	return [4]byte{'s', 'd', 't', 'p'}
}

// Size returns the marshaled size in bytes.
func (b *Sdtp) Size() int {
	return 4 + len(b.Samples)
}

// Marshal box to writer.
func (b *Sdtp) Marshal(w *bitio.Writer) error {
	if err := b.FullBox.MarshalField(w); err != nil {
		return err
	}
	w.TryWrite(b.Samples)
	return w.TryError
}

/*************************** mdat ****************************/

// Mdat is ISOBMFF mdat box type.
type Mdat struct {
	Data []byte
}

// Type returns the BoxType.
func (*Mdat) Type() BoxType {
	return [4]byte{'m', 'd', 'a', 't'}
}

// Size returns the marshaled size in bytes.
func (b *Mdat) Size() int {
	return len(b.Data)
}

// Marshal box to writer.
func (b *Mdat) Marshal(w *bitio.Writer) error {
	w.TryWrite(b.Data)
	return w.TryError
}
