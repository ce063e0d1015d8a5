package scene

import (
	"math"
	"sync/atomic"
)

// CompositionType identifies the composition variant.
type CompositionType uint8

// Composition types.
const (
	CompositionVector CompositionType = iota + 1
	CompositionVideo
)

func (t CompositionType) String() string {
	switch t {
	case CompositionVector:
		return "vector"
	case CompositionVideo:
		return "video"
	}
	return "unknown"
}

// Composition is a timeline of layers or a sequence of video frames.
type Composition struct {
	Type CompositionType
	ID   uint32

	// UniqueID is an opaque cache key assigned at construction.
	UniqueID uint64

	Width           int32
	Height          int32
	Duration        Frame
	FrameRate       float32
	BackgroundColor Color

	// CompositionVector.
	Layers []*Layer

	// CompositionVideo.
	HasAlpha  bool
	Sequences []*VideoSequence

	staticTimeRanges []TimeRange
	staticReady      bool
}

// NewComposition returns a composition with default attributes.
func NewComposition(typ CompositionType, id uint32, ids IDSource) *Composition {
	if ids == nil {
		ids = DefaultIDSource
	}
	return &Composition{
		Type:            typ,
		ID:              id,
		UniqueID:        ids.NextID(),
		BackgroundColor: White,
	}
}

// StaticTimeRanges returns the frames where rendering does not change.
func (c *Composition) StaticTimeRanges() []TimeRange {
	if !c.staticReady {
		c.UpdateStaticTimeRanges()
	}
	return c.staticTimeRanges
}

// UpdateStaticTimeRanges recomputes the static ranges. Child
// compositions of precompose layers are computed first.
func (c *Composition) UpdateStaticTimeRanges() {
	c.staticReady = true
	switch c.Type {
	case CompositionVideo:
		c.staticTimeRanges = c.videoStaticTimeRanges()
	default:
		c.staticTimeRanges = c.vectorStaticTimeRanges()
	}
}

func (c *Composition) vectorStaticTimeRanges() []TimeRange {
	if c.Duration <= 1 {
		return nil
	}
	ranges := []TimeRange{{Start: 0, End: c.Duration - 1}}
	for _, l := range c.Layers {
		if l.Type == LayerTypePreCompose && l.Composition != nil && !l.Composition.staticReady {
			l.Composition.UpdateStaticTimeRanges()
		}
		ranges = l.ExcludeVaryingRanges(ranges)
		ranges = SplitTimeRangesAt(ranges, l.StartTime)
		ranges = SplitTimeRangesAt(ranges, l.StartTime+l.Duration)
	}
	return ranges
}

// videoStaticTimeRanges adopts the ranges of the sequence with the
// highest frame rate, rescaled to the composition frame rate.
func (c *Composition) videoStaticTimeRanges() []TimeRange {
	var seq *VideoSequence
	for _, s := range c.Sequences {
		if seq == nil || s.FrameRate > seq.FrameRate {
			seq = s
		}
	}
	if seq == nil {
		return []TimeRange{{Start: 0, End: c.Duration - 1}}
	}
	if seq.FrameRate <= 0 || seq.FrameRate == c.FrameRate {
		return append([]TimeRange(nil), seq.StaticTimeRanges...)
	}
	return scaleTimeRanges(seq.StaticTimeRanges, float64(c.FrameRate)/float64(seq.FrameRate))
}

func scaleTimeRanges(ranges []TimeRange, scale float64) []TimeRange {
	out := make([]TimeRange, 0, len(ranges))
	for _, r := range ranges {
		scaled := TimeRange{
			Start: Frame(math.Round(float64(r.Start) * scale)),
			End:   Frame(math.Round(float64(r.End) * scale)),
		}
		if scaled.IsValid() {
			out = append(out, scaled)
		}
	}
	return out
}

// GotoFrame moves every animated property of the composition's layers
// to frame.
func (c *Composition) GotoFrame(frame Frame) {
	for _, l := range c.Layers {
		l.GotoFrame(frame)
	}
}

// NumLayers returns the number of layers including those of child
// compositions.
func (c *Composition) NumLayers() int {
	return c.countLayers(map[*Composition]bool{})
}

func (c *Composition) countLayers(seen map[*Composition]bool) int {
	if seen[c] {
		return 0
	}
	seen[c] = true
	n := len(c.Layers)
	for _, l := range c.Layers {
		if l.Composition != nil {
			n += l.Composition.countLayers(seen)
		}
	}
	return n
}

// VideoFrame is one encoded picture of a video sequence.
type VideoFrame struct {
	IsKeyframe bool
	// Frame is the display index.
	Frame Frame
	// Data is the payload prefixed with a start code.
	Data []byte
}

// VideoSequence is an H.264 elementary stream embedded in a video
// composition.
type VideoSequence struct {
	Composition *Composition

	Width       int32
	Height      int32
	FrameRate   float32
	AlphaStartX int32
	AlphaStartY int32

	// Headers holds the SPS and PPS, each prefixed with a start code.
	Headers [][]byte
	Frames  []*VideoFrame

	StaticTimeRanges []TimeRange
}

// IDSource hands out composition cache identifiers.
type IDSource interface {
	NextID() uint64
}

// Counter is a monotonic IDSource safe for concurrent use.
type Counter struct {
	next atomic.Uint64
}

// NextID returns the next identifier, starting at 1.
func (c *Counter) NextID() uint64 {
	return c.next.Add(1)
}

// DefaultIDSource is the process wide counter.
var DefaultIDSource IDSource = &Counter{}
