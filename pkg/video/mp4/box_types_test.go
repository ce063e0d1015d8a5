package mp4

import (
	"bytes"
	"testing"

	"pagkit/pkg/video/mp4/bitio"

	"github.com/stretchr/testify/require"
)

func TestBoxTypes(t *testing.T) {
	testCases := []struct {
		name string
		src  ImmutableBox
		bin  []byte
	}{
		{
			name: "ftyp",
			src: &Ftyp{
				MajorBrand:       [4]byte{'i', 's', 'o', 'm'},
				MinorVersion:     1,
				CompatibleBrands: [][4]byte{{'i', 's', 'o', 'm'}, {'a', 'v', 'c', '1'}},
			},
			bin: []byte{
				'i', 's', 'o', 'm', // major brand
				0x00, 0x00, 0x00, 0x01, // minor version
				'i', 's', 'o', 'm', // compatible brand
				'a', 'v', 'c', '1', // compatible brand
			},
		},
		{
			name: "moov",
			src:  Moov,
			bin:  nil,
		},
		{
			name: "mvhd",
			src: &Mvhd{
				Timescale:   30000,
				Duration:    0x01020304,
				Rate:        0x00010000,
				Volume:      0x0100,
				Matrix:      UnityMatrix,
				NextTrackID: 2,
			},
			bin: []byte{
				0,                // version
				0x00, 0x00, 0x00, // flags
				0x00, 0x00, 0x00, 0x00, // creation time
				0x00, 0x00, 0x00, 0x00, // modification time
				0x00, 0x00, 0x75, 0x30, // timescale
				0x01, 0x02, 0x03, 0x04, // duration
				0x00, 0x01, 0x00, 0x00, // rate
				0x01, 0x00, // volume
				0x00, 0x00, // reserved
				0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, // reserved
				0x00, 0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, // matrix
				0x00, 0x00, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
				0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x40, 0x00, 0x00, 0x00,
				0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, // pre-defined
				0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
				0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
				0x00, 0x00, 0x00, 0x02, // next track ID
			},
		},
		{
			name: "tkhd",
			src: &Tkhd{
				FullBox:  FullBox{Flags: FlagsFromUint32(TkhdTrackEnabled)},
				TrackID:  1,
				Duration: 3000,
				Volume:   0x0100,
				Matrix:   UnityMatrix,
				Width:    640 << 16,
				Height:   360 << 16,
			},
			bin: []byte{
				0,                // version
				0x00, 0x00, 0x01, // flags
				0x00, 0x00, 0x00, 0x00, // creation time
				0x00, 0x00, 0x00, 0x00, // modification time
				0x00, 0x00, 0x00, 0x01, // track ID
				0x00, 0x00, 0x00, 0x00, // reserved
				0x00, 0x00, 0x0b, 0xb8, // duration
				0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, // reserved
				0x00, 0x00, // layer
				0x00, 0x00, // alternate group
				0x01, 0x00, // volume
				0x00, 0x00, // reserved
				0x00, 0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, // matrix
				0x00, 0x00, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
				0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x40, 0x00, 0x00, 0x00,
				0x02, 0x80, 0x00, 0x00, // width
				0x01, 0x68, 0x00, 0x00, // height
			},
		},
		{
			name: "elst",
			src: &Elst{
				Entries: []ElstEntry{{
					SegmentDuration:  3000,
					MediaTime:        2000,
					MediaRateInteger: 1,
				}},
			},
			bin: []byte{
				0,                // version
				0x00, 0x00, 0x00, // flags
				0x00, 0x00, 0x00, 0x01, // entry count
				0x00, 0x00, 0x0b, 0xb8, // segment duration
				0x00, 0x00, 0x07, 0xd0, // media time
				0x00, 0x01, // media rate integer
				0x00, 0x00, // media rate fraction
			},
		},
		{
			name: "mdhd",
			src: &Mdhd{
				Timescale: 24000,
				Language:  [3]byte{'u', 'n', 'd'},
			},
			bin: []byte{
				0,                // version
				0x00, 0x00, 0x00, // flags
				0x00, 0x00, 0x00, 0x00, // creation time
				0x00, 0x00, 0x00, 0x00, // modification time
				0x00, 0x00, 0x5d, 0xc0, // timescale
				0x00, 0x00, 0x00, 0x00, // duration
				0x55, 0xc4, // language
				0x00, 0x00, // pre-defined
			},
		},
		{
			name: "hdlr",
			src: &Hdlr{
				HandlerType: [4]byte{'v', 'i', 'd', 'e'},
				Name:        "VideoHandler",
			},
			bin: []byte{
				0,                // version
				0x00, 0x00, 0x00, // flags
				0x00, 0x00, 0x00, 0x00, // pre-defined
				'v', 'i', 'd', 'e', // handler type
				0x00, 0x00, 0x00, 0x00, // reserved
				0x00, 0x00, 0x00, 0x00, // reserved
				0x00, 0x00, 0x00, 0x00, // reserved
				'V', 'i', 'd', 'e', 'o', 'H', 'a', 'n', 'd', 'l', 'e', 'r', 0x00, // name
			},
		},
		{
			name: "vmhd",
			src: &Vmhd{
				FullBox: FullBox{Flags: [3]byte{0, 0, 1}},
			},
			bin: []byte{
				0,                // version
				0x00, 0x00, 0x01, // flags
				0x00, 0x00, // graphics mode
				0x00, 0x00, 0x00, 0x00, 0x00, 0x00, // opcolor
			},
		},
		{
			name: "dref",
			src:  &Dref{EntryCount: 1},
			bin: []byte{
				0,                // version
				0x00, 0x00, 0x00, // flags
				0x00, 0x00, 0x00, 0x01, // entry count
			},
		},
		{
			name: "url: self contained",
			src: &URL{
				FullBox:  FullBox{Flags: FlagsFromUint32(URLSelfContained)},
				Location: "ignored",
			},
			bin: []byte{
				0,                // version
				0x00, 0x00, 0x01, // flags
			},
		},
		{
			name: "url: location",
			src:  &URL{Location: "a.mp4"},
			bin: []byte{
				0,                // version
				0x00, 0x00, 0x00, // flags
				'a', '.', 'm', 'p', '4', 0x00, // location
			},
		},
		{
			name: "stsd",
			src:  &Stsd{EntryCount: 1},
			bin: []byte{
				0,                // version
				0x00, 0x00, 0x00, // flags
				0x00, 0x00, 0x00, 0x01, // entry count
			},
		},
		{
			name: "avc1",
			src: &Avc1{
				DataReferenceIndex: 1,
				Width:              640,
				Height:             360,
				Horizresolution:    0x00480000,
				Vertresolution:     0x00480000,
				FrameCount:         1,
				Compressorname:     [32]byte{4, 'p', 'a', 'g', 'k'},
				Depth:              0x18,
			},
			bin: []byte{
				0x00, 0x00, 0x00, 0x00, 0x00, 0x00, // reserved
				0x00, 0x01, // data reference index
				0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, // pre-defined and reserved
				0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
				0x02, 0x80, // width
				0x01, 0x68, // height
				0x00, 0x48, 0x00, 0x00, // horizresolution
				0x00, 0x48, 0x00, 0x00, // vertresolution
				0x00, 0x00, 0x00, 0x00, // reserved
				0x00, 0x01, // frame count
				4, 'p', 'a', 'g', 'k', 0x00, 0x00, 0x00, // compressor name
				0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
				0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
				0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
				0x00, 0x18, // depth
				0xff, 0xff, // pre-defined
			},
		},
		{
			name: "avcC",
			src: &AvcC{
				ConfigurationVersion:  1,
				Profile:               0x64,
				ProfileCompatibility:  0x00,
				Level:                 0x16,
				LengthSizeMinusOne:    3,
				SequenceParameterSets: [][]byte{{0x67, 0x01, 0x02}},
				PictureParameterSets:  [][]byte{{0x68, 0x03}, {0x68, 0x04}},
			},
			bin: []byte{
				0x01, // configuration version
				0x64, // profile
				0x00, // profile compatibility
				0x16, // level
				0xff, // reserved and length size minus one
				0xe1, // reserved and sps count
				0x00, 0x03, 0x67, 0x01, 0x02, // sps
				0x02,                   // pps count
				0x00, 0x02, 0x68, 0x03, // pps
				0x00, 0x02, 0x68, 0x04, // pps
			},
		},
		{
			name: "stts",
			src: &Stts{
				Entries: []SttsEntry{{SampleCount: 3, SampleDelta: 1000}},
			},
			bin: []byte{
				0,                // version
				0x00, 0x00, 0x00, // flags
				0x00, 0x00, 0x00, 0x01, // entry count
				0x00, 0x00, 0x00, 0x03, // sample count
				0x00, 0x00, 0x03, 0xe8, // sample delta
			},
		},
		{
			name: "ctts",
			src: &Ctts{
				Entries: []CttsEntry{
					{SampleCount: 1, SampleOffset: 2000},
					{SampleCount: 1, SampleOffset: 0},
				},
			},
			bin: []byte{
				0,                // version
				0x00, 0x00, 0x00, // flags
				0x00, 0x00, 0x00, 0x02, // entry count
				0x00, 0x00, 0x00, 0x01, // sample count
				0x00, 0x00, 0x07, 0xd0, // sample offset
				0x00, 0x00, 0x00, 0x01, // sample count
				0x00, 0x00, 0x00, 0x00, // sample offset
			},
		},
		{
			name: "ctts: version 1",
			src: &Ctts{
				FullBox: FullBox{Version: 1},
				Entries: []CttsEntry{{SampleCount: 1, SampleOffset: -1000}},
			},
			bin: []byte{
				1,                // version
				0x00, 0x00, 0x00, // flags
				0x00, 0x00, 0x00, 0x01, // entry count
				0x00, 0x00, 0x00, 0x01, // sample count
				0xff, 0xff, 0xfc, 0x18, // sample offset
			},
		},
		{
			name: "stss",
			src:  &Stss{SampleNumbers: []uint32{1, 5}},
			bin: []byte{
				0,                // version
				0x00, 0x00, 0x00, // flags
				0x00, 0x00, 0x00, 0x02, // entry count
				0x00, 0x00, 0x00, 0x01, // sample number
				0x00, 0x00, 0x00, 0x05, // sample number
			},
		},
		{
			name: "stsc",
			src: &Stsc{
				Entries: []StscEntry{
					{FirstChunk: 1, SamplesPerChunk: 2, SampleDescriptionIndex: 1},
				},
			},
			bin: []byte{
				0,                // version
				0x00, 0x00, 0x00, // flags
				0x00, 0x00, 0x00, 0x01, // entry count
				0x00, 0x00, 0x00, 0x01, // first chunk
				0x00, 0x00, 0x00, 0x02, // samples per chunk
				0x00, 0x00, 0x00, 0x01, // sample description index
			},
		},
		{
			name: "stsc: empty",
			src:  &Stsc{},
			bin: []byte{
				0,                // version
				0x00, 0x00, 0x00, // flags
				0x00, 0x00, 0x00, 0x00, // entry count
			},
		},
		{
			name: "stsz: common sample size",
			src: &Stsz{
				SampleSize:  0x10,
				SampleCount: 3,
				EntrySizes:  []uint32{1, 2, 3},
			},
			bin: []byte{
				0,                // version
				0x00, 0x00, 0x00, // flags
				0x00, 0x00, 0x00, 0x10, // sample size
				0x00, 0x00, 0x00, 0x03, // sample count
			},
		},
		{
			name: "stsz: sample size array",
			src: &Stsz{
				SampleCount: 2,
				EntrySizes:  []uint32{0x01020304, 0x05060708},
			},
			bin: []byte{
				0,                // version
				0x00, 0x00, 0x00, // flags
				0x00, 0x00, 0x00, 0x00, // sample size
				0x00, 0x00, 0x00, 0x02, // sample count
				0x01, 0x02, 0x03, 0x04, // entry size
				0x05, 0x06, 0x07, 0x08, // entry size
			},
		},
		{
			name: "stco",
			src:  &Stco{ChunkOffsets: []uint32{0x30}},
			bin: []byte{
				0,                // version
				0x00, 0x00, 0x00, // flags
				0x00, 0x00, 0x00, 0x01, // entry count
				0x00, 0x00, 0x00, 0x30, // chunk offset
			},
		},
		{
			name: "trex",
			src: &Trex{
				TrackID:                       1,
				DefaultSampleDescriptionIndex: 1,
				DefaultSampleFlags:            0x00010001,
			},
			bin: []byte{
				0,                // version
				0x00, 0x00, 0x00, // flags
				0x00, 0x00, 0x00, 0x01, // track ID
				0x00, 0x00, 0x00, 0x01, // default sample description index
				0x00, 0x00, 0x00, 0x00, // default sample duration
				0x00, 0x00, 0x00, 0x00, // default sample size
				0x00, 0x01, 0x00, 0x01, // default sample flags
			},
		},
		{
			name: "mfhd",
			src:  &Mfhd{SequenceNumber: 0x12345678},
			bin: []byte{
				0,                // version
				0x00, 0x00, 0x00, // flags
				0x12, 0x34, 0x56, 0x78, // sequence number
			},
		},
		{
			name: "tfhd",
			src:  &Tfhd{TrackID: 1},
			bin: []byte{
				0,                // version
				0x00, 0x00, 0x00, // flags
				0x00, 0x00, 0x00, 0x01, // track ID
			},
		},
		{
			name: "tfdt: version 0",
			src:  &Tfdt{BaseMediaDecodeTimeV0: 0x01234567},
			bin: []byte{
				0,                // version
				0x00, 0x00, 0x00, // flags
				0x01, 0x23, 0x45, 0x67, // base media decode time
			},
		},
		{
			name: "tfdt: version 1",
			src: &Tfdt{
				FullBox:               FullBox{Version: 1},
				BaseMediaDecodeTimeV1: 0x0123456789abcdef,
			},
			bin: []byte{
				1,                // version
				0x00, 0x00, 0x00, // flags
				0x01, 0x23, 0x45, 0x67, 0x89, 0xab, 0xcd, 0xef, // base media decode time
			},
		},
		{
			name: "trun: flag=0xf01",
			src: &Trun{
				FullBox:    FullBox{Flags: [3]byte{0x00, 0x0f, 0x01}},
				DataOffset: 138,
				Entries: []TrunEntry{
					{
						SampleDuration:                1000,
						SampleSize:                    0x0102,
						SampleFlags:                   SampleFlags{DependsOn: 2}.Uint32(),
						SampleCompositionTimeOffsetV0: 1000,
					},
					{
						SampleDuration: 1000,
						SampleSize:     0x0304,
						SampleFlags:    SampleFlags{DependsOn: 1, IsNonSync: true}.Uint32(),
					},
				},
			},
			bin: []byte{
				0,                // version
				0x00, 0x0f, 0x01, // flags
				0x00, 0x00, 0x00, 0x02, // sample count
				0x00, 0x00, 0x00, 0x8a, // data offset
				0x00, 0x00, 0x03, 0xe8, // sample duration
				0x00, 0x00, 0x01, 0x02, // sample size
				0x02, 0x00, 0x00, 0x00, // sample flags
				0x00, 0x00, 0x03, 0xe8, // sample composition time offset
				0x00, 0x00, 0x03, 0xe8, // sample duration
				0x00, 0x00, 0x03, 0x04, // sample size
				0x01, 0x01, 0x00, 0x00, // sample flags
				0x00, 0x00, 0x00, 0x00, // sample composition time offset
			},
		},
		{
			name: "trun: flag=0x204",
			src: &Trun{
				FullBox:          FullBox{Flags: [3]byte{0x00, 0x02, 0x04}},
				FirstSampleFlags: 0x02000000,
				Entries:          []TrunEntry{{SampleSize: 7}},
			},
			bin: []byte{
				0,                // version
				0x00, 0x02, 0x04, // flags
				0x00, 0x00, 0x00, 0x01, // sample count
				0x02, 0x00, 0x00, 0x00, // first sample flags
				0x00, 0x00, 0x00, 0x07, // sample size
			},
		},
		{
			name: "sdtp",
			src: &Sdtp{
				Samples: []uint8{
					SampleFlags{DependsOn: 2}.SdtpByte(),
					SampleFlags{DependsOn: 1, IsDependedOn: 1}.SdtpByte(),
				},
			},
			bin: []byte{
				0,                // version
				0x00, 0x00, 0x00, // flags
				0x20, // sample
				0x14, // sample
			},
		},
		{
			name: "mdat",
			src:  &Mdat{Data: []byte{0x11, 0x22, 0x33}},
			bin:  []byte{0x11, 0x22, 0x33},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			w := bitio.NewWriter(&buf)
			require.NoError(t, tc.src.Marshal(w))

			require.Equal(t, tc.src.Size(), buf.Len())
			require.Equal(t, tc.bin, buf.Bytes())
		})
	}
}

func TestCttsNegativeVersion0(t *testing.T) {
	b := &Ctts{Entries: []CttsEntry{{SampleCount: 1, SampleOffset: -1}}}
	var buf bytes.Buffer
	require.ErrorIs(t, b.Marshal(bitio.NewWriter(&buf)), ErrFieldOverflow)
}

func TestAvcCTooManySets(t *testing.T) {
	b := &AvcC{SequenceParameterSets: make([][]byte, 32)}
	var buf bytes.Buffer
	require.ErrorIs(t, b.Marshal(bitio.NewWriter(&buf)), ErrFieldOverflow)
}

func TestBoxesMarshal(t *testing.T) {
	boxes := Boxes{
		Box: Dinf,
		Children: []Boxes{{
			Box: &Dref{EntryCount: 1},
			Children: []Boxes{
				{Box: &URL{FullBox: FullBox{Flags: FlagsFromUint32(URLSelfContained)}}},
			},
		}},
	}
	var buf bytes.Buffer
	require.NoError(t, boxes.Marshal(bitio.NewWriter(&buf)))

	require.Equal(t, 36, boxes.Size())
	require.Equal(t, []byte{
		0x00, 0x00, 0x00, 0x24, 'd', 'i', 'n', 'f',
		0x00, 0x00, 0x00, 0x1c, 'd', 'r', 'e', 'f',
		0x00, 0x00, 0x00, 0x00, // version and flags
		0x00, 0x00, 0x00, 0x01, // entry count
		0x00, 0x00, 0x00, 0x0c, 'u', 'r', 'l', ' ',
		0x00, 0x00, 0x00, 0x01, // version and flags
	}, buf.Bytes())
}

func TestWriteSingleBox(t *testing.T) {
	var buf bytes.Buffer
	w := bitio.NewWriter(&buf)

	n, err := WriteSingleBox(w, &Mfhd{SequenceNumber: 1})
	require.NoError(t, err)
	require.Equal(t, 16, n)

	boxes := ImmutableBoxes{&Tfhd{TrackID: 1}, Traf}
	require.Equal(t, 24, boxes.Size())
	require.NoError(t, boxes.Marshal(w))
	require.Equal(t, 40, buf.Len())
	require.Equal(t, []byte{0x00, 0x00, 0x00, 0x08, 't', 'r', 'a', 'f'}, buf.Bytes()[32:])
}
