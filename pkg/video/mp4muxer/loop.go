package mp4muxer

import "pagkit/pkg/scene"

// LoopSequence returns a copy of seq with the frames before the second
// keyframe appended again, shifted by the sequence length, so playback
// can wrap around without seeking. seq is not modified. Without a second
// keyframe the whole sequence is repeated.
func LoopSequence(seq *scene.VideoSequence) *scene.VideoSequence {
	out := *seq
	n := len(seq.Frames)

	next := n
	for i := 1; i < n; i++ {
		if seq.Frames[i].IsKeyframe {
			next = i
			break
		}
	}

	out.Frames = make([]*scene.VideoFrame, n, n+next)
	copy(out.Frames, seq.Frames)
	for _, f := range seq.Frames[:next] {
		out.Frames = append(out.Frames, &scene.VideoFrame{
			IsKeyframe: f.IsKeyframe,
			Frame:      f.Frame + scene.Frame(n),
			Data:       f.Data,
		})
	}
	out.Headers = append([][]byte(nil), seq.Headers...)
	out.StaticTimeRanges = append([]scene.TimeRange(nil), seq.StaticTimeRanges...)
	return &out
}
