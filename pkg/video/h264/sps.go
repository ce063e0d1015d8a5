package h264

import (
	"bytes"
	"errors"

	"github.com/icza/bitio"
)

func readGolombUnsigned(br *bitio.Reader) uint32 {
	leadingZeroBits := uint8(0)
	for br.TryError == nil && !br.TryReadBool() {
		leadingZeroBits++
		if leadingZeroBits > 31 {
			br.TryError = ErrSPSGolombOverflow
			return 0
		}
	}
	if leadingZeroBits == 0 {
		return 0
	}
	codeNum := uint32(br.TryReadBits(leadingZeroBits))
	return (1 << leadingZeroBits) - 1 + codeNum
}

func readGolombSigned(br *bitio.Reader) int32 {
	v := int32(readGolombUnsigned(br))
	if v&0x01 != 0 {
		return (v + 1) / 2
	}
	return -v / 2
}

func skipScalingList(br *bitio.Reader, size int) {
	lastScale := int32(8)
	nextScale := int32(8)
	for j := 0; j < size && br.TryError == nil; j++ {
		if nextScale != 0 {
			deltaScale := readGolombSigned(br)
			nextScale = (lastScale + deltaScale + 256) % 256
		}
		if nextScale != 0 {
			lastScale = nextScale
		}
	}
}

// FrameCropping is the frame cropping part of a SPS.
type FrameCropping struct {
	LeftOffset   uint32
	RightOffset  uint32
	TopOffset    uint32
	BottomOffset uint32
}

// SPS is the part of a H264 sequence parameter set that precedes the
// video usability information.
type SPS struct {
	ProfileIdc uint8
	// ConstraintFlags holds constraint_set0..5 and the reserved bits.
	ConstraintFlags uint8
	LevelIdc        uint8
	ID              uint32

	ChromaFormatIdc         uint32
	SeparateColourPlaneFlag bool
	BitDepthLumaMinus8      uint32
	BitDepthChromaMinus8    uint32

	Log2MaxFrameNumMinus4       uint32
	PicOrderCntType             uint32
	Log2MaxPicOrderCntLsbMinus4 uint32

	MaxNumRefFrames      uint32
	PicWidthInMbsMinus1  uint32
	PicHeightInMbsMinus1 uint32
	FrameMbsOnlyFlag     bool

	// nil when frame_cropping_flag is not set.
	FrameCropping *FrameCropping

	VUIPresent bool
}

// SPS errors.
var (
	ErrSPSBufferTooShort    = errors.New("buffer too short")
	ErrSPSWrongForbiddenBit = errors.New("wrong forbidden bit")
	ErrSPSWrongNalRefIdc    = errors.New("wrong nal_ref_idc")
	ErrSPSWrongType         = errors.New("not a SPS")
	ErrSPSGolombOverflow    = errors.New("exp-golomb value overflow")
)

// Unmarshal decodes a SPS NALU without start code.
func (s *SPS) Unmarshal(buf []byte) error {
	// ref: ISO/IEC 14496-10:2020, 7.3.2.1.1

	buf = RemoveEmulationPrevention(buf)
	if len(buf) < 4 {
		return ErrSPSBufferTooShort
	}
	if buf[0]>>7 != 0 {
		return ErrSPSWrongForbiddenBit
	}
	if (buf[0]>>5)&0x03 == 0 {
		return ErrSPSWrongNalRefIdc
	}
	if Type(buf) != NALUTypeSPS {
		return ErrSPSWrongType
	}

	s.ProfileIdc = buf[1]
	s.ConstraintFlags = buf[2]
	s.LevelIdc = buf[3]

	br := bitio.NewReader(bytes.NewReader(buf[4:]))
	s.ID = readGolombUnsigned(br)
	s.unmarshalProfileIdc(br)

	s.Log2MaxFrameNumMinus4 = readGolombUnsigned(br)
	s.PicOrderCntType = readGolombUnsigned(br)
	switch s.PicOrderCntType {
	case 0:
		s.Log2MaxPicOrderCntLsbMinus4 = readGolombUnsigned(br)
	case 1:
		br.TryReadBool() // delta_pic_order_always_zero_flag
		readGolombSigned(br)
		readGolombSigned(br)
		n := readGolombUnsigned(br)
		for i := uint32(0); i < n && br.TryError == nil; i++ {
			readGolombSigned(br)
		}
	}

	s.MaxNumRefFrames = readGolombUnsigned(br)
	br.TryReadBool() // gaps_in_frame_num_value_allowed_flag
	s.PicWidthInMbsMinus1 = readGolombUnsigned(br)
	s.PicHeightInMbsMinus1 = readGolombUnsigned(br)
	s.FrameMbsOnlyFlag = br.TryReadBool()
	if !s.FrameMbsOnlyFlag {
		br.TryReadBool() // mb_adaptive_frame_field_flag
	}
	br.TryReadBool() // direct_8x8_inference_flag

	s.FrameCropping = nil
	if br.TryReadBool() {
		s.FrameCropping = &FrameCropping{
			LeftOffset:   readGolombUnsigned(br),
			RightOffset:  readGolombUnsigned(br),
			TopOffset:    readGolombUnsigned(br),
			BottomOffset: readGolombUnsigned(br),
		}
	}
	s.VUIPresent = br.TryReadBool()

	if br.TryError != nil {
		if errors.Is(br.TryError, ErrSPSGolombOverflow) {
			return br.TryError
		}
		return ErrSPSBufferTooShort
	}
	return nil
}

func (s *SPS) unmarshalProfileIdc(br *bitio.Reader) {
	switch s.ProfileIdc {
	case 100, 110, 122, 244, 44, 83, 86, 118, 128, 138, 139, 134, 135:
	default:
		s.ChromaFormatIdc = 1
		return
	}

	s.ChromaFormatIdc = readGolombUnsigned(br)
	if s.ChromaFormatIdc == 3 {
		s.SeparateColourPlaneFlag = br.TryReadBool()
	}
	s.BitDepthLumaMinus8 = readGolombUnsigned(br)
	s.BitDepthChromaMinus8 = readGolombUnsigned(br)
	br.TryReadBool() // qpprime_y_zero_transform_bypass_flag

	if !br.TryReadBool() { // seq_scaling_matrix_present_flag
		return
	}
	lim := 8
	if s.ChromaFormatIdc == 3 {
		lim = 12
	}
	for i := 0; i < lim && br.TryError == nil; i++ {
		if !br.TryReadBool() {
			continue
		}
		if i < 6 {
			skipScalingList(br, 16)
		} else {
			skipScalingList(br, 64)
		}
	}
}

// Width returns the video width.
func (s SPS) Width() int {
	w := (s.PicWidthInMbsMinus1 + 1) * 16
	if s.FrameCropping != nil {
		w -= (s.FrameCropping.LeftOffset + s.FrameCropping.RightOffset) * 2
	}
	return int(w)
}

// Height returns the video height.
func (s SPS) Height() int {
	f := uint32(2)
	if s.FrameMbsOnlyFlag {
		f = 1
	}
	h := f * (s.PicHeightInMbsMinus1 + 1) * 16
	if s.FrameCropping != nil {
		h -= (s.FrameCropping.TopOffset + s.FrameCropping.BottomOffset) * 2
	}
	return int(h)
}
