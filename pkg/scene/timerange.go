package scene

import "sort"

// TimeRange is a span of frames, both ends inclusive.
type TimeRange struct {
	Start Frame
	End   Frame
}

// IsValid reports whether the range holds at least one frame.
func (r TimeRange) IsValid() bool {
	return r.End >= r.Start
}

// Duration returns the number of frames in the range.
func (r TimeRange) Duration() Frame {
	return r.End - r.Start + 1
}

// Contains reports whether frame is in the range.
func (r TimeRange) Contains(frame Frame) bool {
	return frame >= r.Start && frame <= r.End
}

// SubtractFromTimeRanges removes [start, end] from every range.
// A range that strictly contains the removed span is split in two.
func SubtractFromTimeRanges(ranges []TimeRange, start, end Frame) []TimeRange {
	if end < start {
		return ranges
	}
	out := make([]TimeRange, 0, len(ranges)+1)
	for _, r := range ranges {
		if r.End < start || r.Start > end {
			out = append(out, r)
			continue
		}
		if r.Start < start {
			out = append(out, TimeRange{Start: r.Start, End: start - 1})
		}
		if r.End > end {
			out = append(out, TimeRange{Start: end + 1, End: r.End})
		}
	}
	return out
}

// SplitTimeRangesAt divides the range strictly containing frame into
// [start, frame-1] and [frame, end].
func SplitTimeRangesAt(ranges []TimeRange, frame Frame) []TimeRange {
	for i, r := range ranges {
		if r.Start < frame && frame <= r.End {
			out := make([]TimeRange, 0, len(ranges)+1)
			out = append(out, ranges[:i]...)
			out = append(out,
				TimeRange{Start: r.Start, End: frame - 1},
				TimeRange{Start: frame, End: r.End},
			)
			return append(out, ranges[i+1:]...)
		}
	}
	return ranges
}

// MergeTimeRanges returns the frames present in both a and b.
func MergeTimeRanges(a, b []TimeRange) []TimeRange {
	var out []TimeRange
	for _, x := range a {
		for _, y := range b {
			r := TimeRange{Start: max(x.Start, y.Start), End: min(x.End, y.End)}
			if r.IsValid() {
				out = append(out, r)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out
}

// OffsetTimeRanges shifts every range by offset.
func OffsetTimeRanges(ranges []TimeRange, offset Frame) []TimeRange {
	out := make([]TimeRange, len(ranges))
	for i, r := range ranges {
		out[i] = TimeRange{Start: r.Start + offset, End: r.End + offset}
	}
	return out
}

// HasVaryingTimeRange reports whether [start, start+duration-1] is not
// covered by a single static range.
func HasVaryingTimeRange(ranges []TimeRange, start, duration Frame) bool {
	if len(ranges) == 0 {
		return true
	}
	r := ranges[0]
	return r.Start != start || r.End != start+duration-1
}

// FindTimeRange returns the index of the range containing frame or -1.
func FindTimeRange(ranges []TimeRange, frame Frame) int {
	for i, r := range ranges {
		if r.Contains(frame) {
			return i
		}
	}
	return -1
}

// ConvertFrameByStaticTimeRanges maps a frame inside a static range to
// the first frame of that range.
func ConvertFrameByStaticTimeRanges(ranges []TimeRange, frame Frame) Frame {
	if i := FindTimeRange(ranges, frame); i >= 0 {
		return ranges[i].Start
	}
	return frame
}
