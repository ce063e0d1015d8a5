package mp4muxer

import (
	"errors"
	"fmt"
	"io"

	"pagkit/pkg/scene"
	"pagkit/pkg/video/h264"
	"pagkit/pkg/video/mp4"
	"pagkit/pkg/video/mp4/bitio"
)

// ErrNotKeyframe is returned when a thumbnail frame cannot be decoded
// on its own.
var ErrNotKeyframe = errors.New("first frame isn't a keyframe")

// byteWriter adds io.ByteWriter to writers without it.
type byteWriter struct {
	io.Writer
}

func (w byteWriter) WriteByte(b byte) error {
	_, err := w.Write([]byte{b})
	return err
}

// Thumbnail writes a progressive mp4 with the first frame of seq only.
// The result can be handed to an image extractor.
func Thumbnail(out io.Writer, seq *scene.VideoSequence) error {
	t, err := newThumbnailTrack(seq)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrMux, err)
	}

	w := bitio.NewWriter(byteWriter{out})
	ftyp := &mp4.Ftyp{
		MajorBrand:       brandIsom,
		MinorVersion:     1,
		CompatibleBrands: [][4]byte{brandIsom, brandAvc1},
	}
	ftypSize, err := mp4.WriteSingleBox(w, ftyp)
	if err != nil {
		return fmt.Errorf("write ftyp: %w", err)
	}

	/*
	   moov
	   - mvhd
	   - trak
	   mdat
	*/
	stco := &mp4.Stco{ChunkOffsets: []uint32{0}}
	moov := mp4.Boxes{
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
			t.thumbnailTrak(stco),
		},
	}
	stco.ChunkOffsets[0] = uint32(ftypSize + moov.Size() + 8)

	if err := moov.Marshal(w); err != nil {
		return fmt.Errorf("marshal moov: %w", err)
	}
	if _, err := mp4.WriteSingleBox(w, &mp4.Mdat{Data: t.mdat}); err != nil {
		return fmt.Errorf("write mdat: %w", err)
	}
	return nil
}

func newThumbnailTrack(seq *scene.VideoSequence) (*track, error) {
	if seq == nil || len(seq.Frames) == 0 {
		return nil, ErrNoFrames
	}
	first := seq.Frames[0]
	if !first.IsKeyframe {
		return nil, ErrNotKeyframe
	}
	single := *seq
	single.Frames = []*scene.VideoFrame{{IsKeyframe: true, Data: first.Data}}

	t, err := newTrack(&single)
	if err != nil {
		return nil, err
	}

	// The parameter sets live in avcC, the sample is the frame alone.
	t.mdat, err = h264.AppendAVCC(nil, first.Data)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (t *track) thumbnailTrak(stco *mp4.Stco) mp4.Boxes {
	/*
	   trak
	   - tkhd
	   - mdia
	     - mdhd
	     - hdlr
	     - minf
	       - vmhd
	       - dinf
	       - stbl
	         - stsd
	         - stts
	         - stss
	         - stsc
	         - stsz
	         - stco
	*/
	stbl := mp4.Boxes{
		Box: mp4.Stbl,
		Children: []mp4.Boxes{
			t.stsd(),
			{Box: &mp4.Stts{
				Entries: []mp4.SttsEntry{{SampleCount: 1, SampleDelta: sampleDelta}},
			}},
			{Box: &mp4.Stss{SampleNumbers: []uint32{1}}},
			{Box: &mp4.Stsc{
				Entries: []mp4.StscEntry{{
					FirstChunk:             1,
					SamplesPerChunk:        1,
					SampleDescriptionIndex: 1,
				}},
			}},
			{Box: &mp4.Stsz{
				SampleCount: 1,
				EntrySizes:  []uint32{uint32(len(t.mdat))},
			}},
			{Box: stco},
		},
	}

	return mp4.Boxes{
		Box: mp4.Trak,
		Children: []mp4.Boxes{
			{Box: &mp4.Tkhd{
				FullBox: mp4.FullBox{Flags: mp4.FlagsFromUint32(
					mp4.TkhdTrackEnabled | mp4.TkhdTrackInMovie,
				)},
				TrackID:  trackID,
				Duration: t.duration,
				Matrix:   mp4.UnityMatrix,
				Width:    uint32(t.width) << 16,
				Height:   uint32(t.height) << 16,
			}},
			{
				Box: mp4.Mdia,
				Children: []mp4.Boxes{
					{Box: &mp4.Mdhd{
						Timescale: t.timescale,
						Duration:  t.duration,
						Language:  [3]byte{'u', 'n', 'd'},
					}},
					{Box: &mp4.Hdlr{
						HandlerType: [4]byte{'v', 'i', 'd', 'e'},
						Name:        "VideoHandler",
					}},
					{
						Box: mp4.Minf,
						Children: []mp4.Boxes{
							{Box: &mp4.Vmhd{FullBox: mp4.FullBox{Flags: [3]byte{0, 0, 1}}}},
							dinf(),
							stbl,
						},
					},
				},
			},
		},
	}
}
