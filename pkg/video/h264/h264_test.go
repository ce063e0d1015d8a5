package h264

import (
	"testing"

	"github.com/stretchr/testify/require"
)

var testSPS = []byte{
	103, 100, 0, 22, 172, 217, 64, 164, 59, 228, 136, 192, 68, 0, 0, 3,
	0, 4, 0, 0, 3, 0, 96, 60, 88, 182, 88,
}

func TestSPSUnmarshal(t *testing.T) {
	var sps SPS
	require.NoError(t, sps.Unmarshal(testSPS))

	require.Equal(t, uint8(100), sps.ProfileIdc)
	require.Equal(t, uint8(0), sps.ConstraintFlags)
	require.Equal(t, uint8(22), sps.LevelIdc)
	require.Equal(t, uint32(1), sps.ChromaFormatIdc)
	require.Equal(t, uint32(4), sps.MaxNumRefFrames)
	require.True(t, sps.FrameMbsOnlyFlag)
	require.Equal(t, &FrameCropping{RightOffset: 3, BottomOffset: 7}, sps.FrameCropping)
	require.True(t, sps.VUIPresent)
	require.Equal(t, 650, sps.Width())
	require.Equal(t, 450, sps.Height())
}

func TestSPSUnmarshalErrors(t *testing.T) {
	cases := map[string]struct {
		buf []byte
		err error
	}{
		"short":     {[]byte{103, 100}, ErrSPSBufferTooShort},
		"forbidden": {[]byte{0xe7, 100, 0, 22, 0xff}, ErrSPSWrongForbiddenBit},
		"ref idc":   {[]byte{0x07, 100, 0, 22, 0xff}, ErrSPSWrongNalRefIdc},
		"type":      {[]byte{0x68, 100, 0, 22, 0xff}, ErrSPSWrongType},
		"truncated": {testSPS[:6], ErrSPSBufferTooShort},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			var sps SPS
			require.ErrorIs(t, sps.Unmarshal(tc.buf), tc.err)
		})
	}
}

func TestRemoveEmulationPrevention(t *testing.T) {
	require.Equal(t,
		[]byte{1, 0, 0, 0, 0, 0, 1},
		RemoveEmulationPrevention([]byte{1, 0, 0, 3, 0, 0, 0, 3, 1}),
	)
	in := []byte{1, 2, 3}
	require.Equal(t, in, RemoveEmulationPrevention(in))
}

func TestAppendAVCC(t *testing.T) {
	out, err := AppendAVCC([]byte{9},
		[]byte{0, 0, 0, 1, 0x67, 1, 2},
		[]byte{0, 0, 0, 1, 0x68},
	)
	require.NoError(t, err)
	require.Equal(t, []byte{
		9,
		0, 0, 0, 3, 0x67, 1, 2,
		0, 0, 0, 1, 0x68,
	}, out)
	require.Equal(t, 12, AVCCSize([][]byte{{0, 0, 0, 1, 0x67, 1, 2}, {0, 0, 0, 1, 0x68}}))

	_, err = AppendAVCC(nil, []byte{0, 0, 1, 0x65})
	require.ErrorIs(t, err, ErrNoStartCode)
}

func TestType(t *testing.T) {
	require.Equal(t, NALUTypeSPS, Type(testSPS))
	require.Equal(t, NALUTypeIDR, Type([]byte{0x65}))
	require.Equal(t, NALUType(0), Type(nil))
}
