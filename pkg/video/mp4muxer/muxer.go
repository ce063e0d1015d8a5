// Package mp4muxer packages the H.264 frames of a video sequence into a
// fragmented mp4 with a single fragment.
package mp4muxer

import (
	"bytes"
	"errors"
	"fmt"
	"math"

	"pagkit/pkg/scene"
	"pagkit/pkg/video/h264"
	"pagkit/pkg/video/mp4"
	"pagkit/pkg/video/mp4/bitio"
)

// ErrMux wraps every mux failure.
var ErrMux = errors.New("mux")

const (
	trackID     = 1
	sampleDelta = 1000
)

var (
	brandIsom = [4]byte{'i', 's', 'o', 'm'}
	brandIso2 = [4]byte{'i', 's', 'o', '2'}
	brandAvc1 = [4]byte{'a', 'v', 'c', '1'}
	brandMp41 = [4]byte{'m', 'p', '4', '1'}
)

type sample struct {
	size  uint32
	cts   uint32
	flags mp4.SampleFlags
}

// track is derived from a sequence for a single Mux call.
type track struct {
	timescale      uint32
	duration       uint32
	width          uint16
	height         uint16
	implicitOffset int64

	sps     h264.SPS
	spsList [][]byte
	ppsList [][]byte

	samples   []sample
	keyframes []uint32

	mdat []byte
}

// Mux returns the fragmented mp4 of seq.
func Mux(seq *scene.VideoSequence) ([]byte, error) {
	t, err := newTrack(seq)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMux, err)
	}

	var buf bytes.Buffer
	w := bitio.NewWriter(&buf)
	if err := t.marshal(w); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMux, err)
	}
	return buf.Bytes(), nil
}

// Mux errors.
var (
	ErrNoFrames     = errors.New("no frames")
	ErrNoHeaders    = errors.New("sps and pps required")
	ErrEmptyPayload = errors.New("empty payload")
	ErrFrameRate    = errors.New("invalid frame rate")
	ErrSize         = errors.New("invalid size")
)

func newTrack(seq *scene.VideoSequence) (*track, error) {
	if seq == nil || len(seq.Frames) == 0 {
		return nil, ErrNoFrames
	}
	if len(seq.Headers) < 2 {
		return nil, ErrNoHeaders
	}
	timescale := math.Round(float64(seq.FrameRate) * 1000)
	if timescale < 1 || timescale > math.MaxUint32 {
		return nil, fmt.Errorf("%w: %v", ErrFrameRate, seq.FrameRate)
	}

	width, err := evenSize(int64(seq.Width) + int64(seq.AlphaStartX))
	if err != nil {
		return nil, fmt.Errorf("width: %w", err)
	}
	height, err := evenSize(int64(seq.Height) + int64(seq.AlphaStartY))
	if err != nil {
		return nil, fmt.Errorf("height: %w", err)
	}

	t := &track{
		timescale: uint32(timescale),
		duration:  uint32(len(seq.Frames)) * sampleDelta,
		width:     width,
		height:    height,
	}

	if err := t.splitHeaders(seq.Headers); err != nil {
		return nil, err
	}

	headerSize := 0
	for _, h := range seq.Headers {
		headerSize += len(h)
	}
	for i, frame := range seq.Frames {
		if len(frame.Data) == 0 {
			return nil, fmt.Errorf("frame %d: %w", i, ErrEmptyPayload)
		}
		t.implicitOffset = max(t.implicitOffset, int64(i)-frame.Frame)
	}

	for i, frame := range seq.Frames {
		size := len(frame.Data)
		if i == 0 {
			size += headerSize
		}
		cts := (frame.Frame+t.implicitOffset)*sampleDelta - int64(i)*sampleDelta
		s := sample{
			size: uint32(size),
			cts:  uint32(cts),
		}
		if frame.IsKeyframe {
			s.flags.DependsOn = 2
			t.keyframes = append(t.keyframes, uint32(i+1))
		} else {
			s.flags.DependsOn = 1
			s.flags.IsNonSync = true
		}
		t.samples = append(t.samples, s)
	}

	units := make([][]byte, 0, len(seq.Headers)+len(seq.Frames))
	units = append(units, seq.Headers...)
	for _, frame := range seq.Frames {
		units = append(units, frame.Data)
	}
	mdat, err := h264.AppendAVCC(make([]byte, 0, h264.AVCCSize(units)), units...)
	if err != nil {
		return nil, err
	}
	t.mdat = mdat
	return t, nil
}

// splitHeaders sorts the parameter sets by NALU type. The first SPS
// provides the avcC profile and level.
func (t *track) splitHeaders(headers [][]byte) error {
	for i, h := range headers {
		nalu, err := h264.TrimStartCode(h)
		if err != nil {
			return fmt.Errorf("header %d: %w", i, err)
		}
		if len(nalu) == 0 {
			return fmt.Errorf("header %d: %w", i, ErrEmptyPayload)
		}
		if h264.Type(nalu) == h264.NALUTypeSPS {
			t.spsList = append(t.spsList, nalu)
		} else {
			t.ppsList = append(t.ppsList, nalu)
		}
	}
	if len(t.spsList) == 0 || len(t.ppsList) == 0 {
		return ErrNoHeaders
	}
	if err := t.sps.Unmarshal(t.spsList[0]); err != nil {
		return fmt.Errorf("unmarshal sps: %w", err)
	}
	return nil
}

// maxSize is the largest even value of a 16 bit dimension.
const maxSize = math.MaxUint16 - 1

// evenSize rounds an odd dimension up.
func evenSize(v int64) (uint16, error) {
	if v < 1 || v > maxSize {
		return 0, fmt.Errorf("%w: %d", ErrSize, v)
	}
	if v%2 != 0 {
		v++
	}
	return uint16(v), nil
}

func (t *track) marshal(w *bitio.Writer) error {
	ftyp := &mp4.Ftyp{
		MajorBrand:       brandIsom,
		MinorVersion:     1,
		CompatibleBrands: [][4]byte{brandIsom, brandIso2, brandAvc1, brandMp41},
	}
	if _, err := mp4.WriteSingleBox(w, ftyp); err != nil {
		return fmt.Errorf("write ftyp: %w", err)
	}

	moov := t.moov()
	if err := moov.Marshal(w); err != nil {
		return fmt.Errorf("marshal moov: %w", err)
	}

	moof := t.moof()
	if err := moof.Marshal(w); err != nil {
		return fmt.Errorf("marshal moof: %w", err)
	}

	if _, err := mp4.WriteSingleBox(w, &mp4.Mdat{Data: t.mdat}); err != nil {
		return fmt.Errorf("write mdat: %w", err)
	}
	return nil
}

func (t *track) moov() mp4.Boxes {
	/*
	   moov
	   - mvhd
	   - trak
	   - mvex
	     - trex
	*/
	return mp4.Boxes{
		Box: mp4.Moov,
		Children: []mp4.Boxes{
			{Box: &mp4.Mvhd{
				Timescale:   t.timescale,
				Duration:    t.duration,
				Rate:        0x00010000,
				Volume:      0x0100,
				Matrix:      mp4.UnityMatrix,
				NextTrackID: trackID + 1,
			}},
			t.trak(),
			{
				Box: mp4.Mvex,
				Children: []mp4.Boxes{
					{Box: &mp4.Trex{
						TrackID:                       trackID,
						DefaultSampleDescriptionIndex: 1,
						DefaultSampleFlags:            0x00010001,
					}},
				},
			},
		},
	}
}

func (t *track) trak() mp4.Boxes {
	/*
	   trak
	   - tkhd
	   - edts
	     - elst
	   - mdia
	     - mdhd
	     - hdlr
	     - minf
	*/
	return mp4.Boxes{
		Box: mp4.Trak,
		Children: []mp4.Boxes{
			{Box: &mp4.Tkhd{
				FullBox:  mp4.FullBox{Flags: mp4.FlagsFromUint32(mp4.TkhdTrackEnabled)},
				TrackID:  trackID,
				Duration: t.duration,
				Volume:   0x0100,
				Matrix:   mp4.UnityMatrix,
				Width:    uint32(t.width) << 16,
				Height:   uint32(t.height) << 16,
			}},
			{
				Box: mp4.Edts,
				Children: []mp4.Boxes{
					{Box: &mp4.Elst{
						Entries: []mp4.ElstEntry{{
							SegmentDuration:  t.duration,
							MediaTime:        int32(t.implicitOffset * sampleDelta),
							MediaRateInteger: 1,
						}},
					}},
				},
			},
			{
				Box: mp4.Mdia,
				Children: []mp4.Boxes{
					{Box: &mp4.Mdhd{
						Timescale: t.timescale,
						Language:  [3]byte{'u', 'n', 'd'},
					}},
					{Box: &mp4.Hdlr{
						HandlerType: [4]byte{'v', 'i', 'd', 'e'},
						Name:        "VideoHandler",
					}},
					t.minf(),
				},
			},
		},
	}
}

func (t *track) minf() mp4.Boxes {
	/*
	   minf
	   - vmhd
	   - dinf
	     - dref
	       - url
	   - stbl
	     - stsd
	     - stts
	     - ctts
	     - stss
	     - stsc
	     - stsz
	     - stco
	*/
	ctts := make([]mp4.CttsEntry, len(t.samples))
	for i, s := range t.samples {
		ctts[i] = mp4.CttsEntry{SampleCount: 1, SampleOffset: int32(s.cts)}
	}

	stbl := mp4.Boxes{
		Box: mp4.Stbl,
		Children: []mp4.Boxes{
			t.stsd(),
			{Box: &mp4.Stts{
				Entries: []mp4.SttsEntry{{
					SampleCount: uint32(len(t.samples)),
					SampleDelta: sampleDelta,
				}},
			}},
			{Box: &mp4.Ctts{Entries: ctts}},
			{Box: &mp4.Stss{SampleNumbers: t.keyframes}},
			{Box: &mp4.Stsc{}},
			{Box: &mp4.Stsz{}},
			{Box: &mp4.Stco{}},
		},
	}

	return mp4.Boxes{
		Box: mp4.Minf,
		Children: []mp4.Boxes{
			{Box: &mp4.Vmhd{FullBox: mp4.FullBox{Flags: [3]byte{0, 0, 1}}}},
			dinf(),
			stbl,
		},
	}
}

func dinf() mp4.Boxes {
	return mp4.Boxes{
		Box: mp4.Dinf,
		Children: []mp4.Boxes{
			{
				Box: &mp4.Dref{EntryCount: 1},
				Children: []mp4.Boxes{
					{Box: &mp4.URL{
						FullBox: mp4.FullBox{Flags: mp4.FlagsFromUint32(mp4.URLSelfContained)},
					}},
				},
			},
		},
	}
}

func (t *track) stsd() mp4.Boxes {
	/*
	   - stsd
	     - avc1
	       - avcC
	*/
	return mp4.Boxes{
		Box: &mp4.Stsd{EntryCount: 1},
		Children: []mp4.Boxes{
			{
				Box: &mp4.Avc1{
					DataReferenceIndex: 1,
					Width:              t.width,
					Height:             t.height,
					Horizresolution:    0x00480000,
					Vertresolution:     0x00480000,
					FrameCount:         1,
					Compressorname:     [32]byte{0x12, 'b', 'i', 'n', 'e'},
					Depth:              0x18,
				},
				Children: []mp4.Boxes{
					{Box: &mp4.AvcC{
						ConfigurationVersion:  1,
						Profile:               t.sps.ProfileIdc,
						ProfileCompatibility:  t.sps.ConstraintFlags,
						Level:                 t.sps.LevelIdc,
						LengthSizeMinusOne:    3,
						SequenceParameterSets: t.spsList,
						PictureParameterSets:  t.ppsList,
					}},
				},
			},
		},
	}
}

func (t *track) moof() mp4.Boxes {
	/*
	   moof
	   - mfhd
	   - traf
	     - tfhd
	     - tfdt
	     - trun
	     - sdtp
	*/
	trun := &mp4.Trun{
		FullBox: mp4.FullBox{Flags: mp4.FlagsFromUint32(
			mp4.TrunDataOffsetPresent |
				mp4.TrunSampleDurationPresent |
				mp4.TrunSampleSizePresent |
				mp4.TrunSampleFlagsPresent |
				mp4.TrunSampleCompositionTimeOffsetPresent,
		)},
		Entries: make([]mp4.TrunEntry, len(t.samples)),
	}
	sdtp := &mp4.Sdtp{Samples: make([]uint8, len(t.samples))}
	for i, s := range t.samples {
		trun.Entries[i] = mp4.TrunEntry{
			SampleDuration:                sampleDelta,
			SampleSize:                    s.size,
			SampleFlags:                   s.flags.Uint32(),
			SampleCompositionTimeOffsetV0: s.cts,
		}
		sdtp.Samples[i] = s.flags.SdtpByte()
	}

	moof := mp4.Boxes{
		Box: mp4.Moof,
		Children: []mp4.Boxes{
			{Box: &mp4.Mfhd{}},
			{
				Box: mp4.Traf,
				Children: []mp4.Boxes{
					{Box: &mp4.Tfhd{TrackID: trackID}},
					{Box: &mp4.Tfdt{}},
					{Box: trun},
					{Box: sdtp},
				},
			},
		},
	}

	// The data starts after the mdat header.
	trun.DataOffset = int32(moof.Size() + 8)
	return moof
}
