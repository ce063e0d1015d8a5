package scene

// Transform2D positions a layer in its composition.
// Either Position or both XPosition and YPosition are set.
type Transform2D struct {
	AnchorPoint *Property[Point]
	Position    *Property[Point]
	XPosition   *Property[float32]
	YPosition   *Property[float32]
	Scale       *Property[Point]
	Rotation    *Property[float32]
	Opacity     *Property[uint8]
}

// NewTransform2D returns a transform with default attributes.
func NewTransform2D() *Transform2D {
	return &Transform2D{
		AnchorPoint: NewProperty(Point{}),
		Position:    NewProperty(Point{}),
		XPosition:   NewProperty[float32](0),
		YPosition:   NewProperty[float32](0),
		Scale:       NewProperty(Point{X: 1, Y: 1}),
		Rotation:    NewProperty[float32](0),
		Opacity:     NewProperty(Opaque),
	}
}

// ExcludeVaryingRanges removes the frames where the transform changes.
func (t *Transform2D) ExcludeVaryingRanges(ranges []TimeRange) []TimeRange {
	ranges = t.AnchorPoint.ExcludeVaryingRanges(ranges)
	ranges = t.Position.ExcludeVaryingRanges(ranges)
	ranges = t.XPosition.ExcludeVaryingRanges(ranges)
	ranges = t.YPosition.ExcludeVaryingRanges(ranges)
	ranges = t.Scale.ExcludeVaryingRanges(ranges)
	ranges = t.Rotation.ExcludeVaryingRanges(ranges)
	return t.Opacity.ExcludeVaryingRanges(ranges)
}

func (t *Transform2D) gotoFrame(frame Frame) {
	t.AnchorPoint.GotoFrame(frame)
	t.Position.GotoFrame(frame)
	t.XPosition.GotoFrame(frame)
	t.YPosition.GotoFrame(frame)
	t.Scale.GotoFrame(frame)
	t.Rotation.GotoFrame(frame)
	t.Opacity.GotoFrame(frame)
}

// Mask clips a layer to a path.
type Mask struct {
	ID        uint32
	Inverted  bool
	Mode      MaskMode
	Path      *Property[*Path]
	Opacity   *Property[uint8]
	Expansion *Property[float32]
}

// ExcludeVaryingRanges removes the frames where the mask changes.
func (m *Mask) ExcludeVaryingRanges(ranges []TimeRange) []TimeRange {
	ranges = m.Path.ExcludeVaryingRanges(ranges)
	ranges = m.Opacity.ExcludeVaryingRanges(ranges)
	return m.Expansion.ExcludeVaryingRanges(ranges)
}

func (m *Mask) gotoFrame(frame Frame) {
	m.Path.GotoFrame(frame)
	m.Opacity.GotoFrame(frame)
	m.Expansion.GotoFrame(frame)
}

// EffectType identifies the effect variant.
type EffectType uint8

// Effect types.
const (
	EffectFastBlur EffectType = iota + 1
	EffectGlow
)

// FastBlur is a box blur effect.
type FastBlur struct {
	Blurriness       *Property[float32]
	BlurDimensions   *Property[uint8]
	RepeatEdgePixels *Property[bool]
}

// Glow brightens the light parts of a layer.
type Glow struct {
	Threshold *Property[float32]
	Radius    *Property[float32]
	Intensity *Property[float32]
}

// Effect is a filter applied to a layer. Exactly one of the variant
// fields matches Type.
type Effect struct {
	Type    EffectType
	Opacity *Property[uint8]

	// MaskIDs are the referenced masks of the owning layer.
	MaskIDs []uint32
	Masks   []*Mask

	FastBlur *FastBlur
	Glow     *Glow
}

// ExcludeVaryingRanges removes the frames where the effect changes.
func (e *Effect) ExcludeVaryingRanges(ranges []TimeRange) []TimeRange {
	ranges = e.Opacity.ExcludeVaryingRanges(ranges)
	switch {
	case e.FastBlur != nil:
		ranges = e.FastBlur.Blurriness.ExcludeVaryingRanges(ranges)
		ranges = e.FastBlur.BlurDimensions.ExcludeVaryingRanges(ranges)
		ranges = e.FastBlur.RepeatEdgePixels.ExcludeVaryingRanges(ranges)
	case e.Glow != nil:
		ranges = e.Glow.Threshold.ExcludeVaryingRanges(ranges)
		ranges = e.Glow.Radius.ExcludeVaryingRanges(ranges)
		ranges = e.Glow.Intensity.ExcludeVaryingRanges(ranges)
	}
	return ranges
}

func (e *Effect) gotoFrame(frame Frame) {
	e.Opacity.GotoFrame(frame)
	switch {
	case e.FastBlur != nil:
		e.FastBlur.Blurriness.GotoFrame(frame)
		e.FastBlur.BlurDimensions.GotoFrame(frame)
		e.FastBlur.RepeatEdgePixels.GotoFrame(frame)
	case e.Glow != nil:
		e.Glow.Threshold.GotoFrame(frame)
		e.Glow.Radius.GotoFrame(frame)
		e.Glow.Intensity.GotoFrame(frame)
	}
}

// TextPathOption lays text along a mask path.
type TextPathOption struct {
	PathID              uint32
	Path                *Mask
	ReversedPath        *Property[bool]
	PerpendicularToPath *Property[bool]
	ForceAlignment      *Property[bool]
	FirstMargin         *Property[float32]
	LastMargin          *Property[float32]
}

// ExcludeVaryingRanges removes the frames where the option changes.
func (o *TextPathOption) ExcludeVaryingRanges(ranges []TimeRange) []TimeRange {
	ranges = o.ReversedPath.ExcludeVaryingRanges(ranges)
	ranges = o.PerpendicularToPath.ExcludeVaryingRanges(ranges)
	ranges = o.ForceAlignment.ExcludeVaryingRanges(ranges)
	ranges = o.FirstMargin.ExcludeVaryingRanges(ranges)
	return o.LastMargin.ExcludeVaryingRanges(ranges)
}

// Layer is an element of a vector composition. The fields below the
// common block are only used by the matching layer type.
type Layer struct {
	Type LayerType
	ID   uint32
	Name string

	IsActive        bool
	AutoOrientation bool
	MotionBlur      bool
	ParentID        uint32
	Parent          *Layer
	Stretch         Ratio
	StartTime       Frame
	Duration        Frame
	BlendMode       BlendMode
	TrackMatteType  TrackMatteType
	TrackMatteLayer *Layer
	TimeRemap       *Property[float32]
	CachePolicy     CachePolicy

	Transform *Transform2D
	Masks     []*Mask
	Effects   []*Effect
	Markers   []Marker

	ContainingComposition *Composition

	// LayerTypeSolid.
	SolidColor  Color
	SolidWidth  int32
	SolidHeight int32

	// LayerTypePreCompose.
	CompositionID        uint32
	Composition          *Composition
	CompositionStartTime Frame

	// LayerTypeText.
	SourceText *Property[*TextDocument]
	PathOption *TextPathOption
}

// NewLayer returns a layer with default attributes.
func NewLayer(typ LayerType, id uint32) *Layer {
	return &Layer{
		Type:      typ,
		ID:        id,
		IsActive:  true,
		Stretch:   DefaultRatio,
		TimeRemap: NewProperty[float32](0),
	}
}

// ExcludeVaryingRanges removes the frames where the layer's own
// properties change.
func (l *Layer) ExcludeVaryingRanges(ranges []TimeRange) []TimeRange {
	if l.Transform != nil {
		ranges = l.Transform.ExcludeVaryingRanges(ranges)
	}
	ranges = l.TimeRemap.ExcludeVaryingRanges(ranges)
	for _, m := range l.Masks {
		ranges = m.ExcludeVaryingRanges(ranges)
	}
	for _, e := range l.Effects {
		ranges = e.ExcludeVaryingRanges(ranges)
	}

	switch l.Type {
	case LayerTypeText:
		ranges = l.SourceText.ExcludeVaryingRanges(ranges)
		if l.PathOption != nil {
			ranges = l.PathOption.ExcludeVaryingRanges(ranges)
		}
	case LayerTypePreCompose:
		if l.Composition != nil {
			ranges = MergeTimeRanges(ranges, l.contentStaticTimeRanges())
		}
	}
	return ranges
}

// contentStaticTimeRanges returns the static ranges of the child
// composition in the time of the containing composition. Frames outside
// the layer window are static.
func (l *Layer) contentStaticTimeRanges() []TimeRange {
	child := l.Composition
	childDuration := child.Duration
	ranges := child.StaticTimeRanges()
	if l.ContainingComposition != nil && child.FrameRate != l.ContainingComposition.FrameRate {
		scale := float64(l.ContainingComposition.FrameRate) / float64(child.FrameRate)
		ranges = scaleTimeRanges(ranges, scale)
		childDuration = Frame(float64(childDuration)*scale + 0.5)
	}
	ranges = OffsetTimeRanges(ranges, l.CompositionStartTime)

	start := l.StartTime
	end := l.StartTime + l.Duration - 1
	if l.CompositionStartTime > start {
		ranges = append(ranges, TimeRange{Start: start, End: l.CompositionStartTime - 1})
	}
	if childEnd := l.CompositionStartTime + childDuration; childEnd <= end {
		ranges = append(ranges, TimeRange{Start: childEnd, End: end})
	}
	ranges = MergeTimeRanges(ranges, []TimeRange{{Start: start, End: end}})

	if l.ContainingComposition != nil {
		whole := l.ContainingComposition.Duration - 1
		if start > 0 {
			ranges = append(ranges, TimeRange{Start: 0, End: start - 1})
		}
		if end < whole {
			ranges = append(ranges, TimeRange{Start: end + 1, End: whole})
		}
	}
	return ranges
}

// GotoFrame moves every animated property to frame. Child compositions
// of precompose layers are moved to the matching child frame.
func (l *Layer) GotoFrame(frame Frame) {
	if l.Transform != nil {
		l.Transform.gotoFrame(frame)
	}
	l.TimeRemap.GotoFrame(frame)
	for _, m := range l.Masks {
		m.gotoFrame(frame)
	}
	for _, e := range l.Effects {
		e.gotoFrame(frame)
	}
	switch l.Type {
	case LayerTypeText:
		l.SourceText.GotoFrame(frame)
		if o := l.PathOption; o != nil {
			o.ReversedPath.GotoFrame(frame)
			o.PerpendicularToPath.GotoFrame(frame)
			o.ForceAlignment.GotoFrame(frame)
			o.FirstMargin.GotoFrame(frame)
			o.LastMargin.GotoFrame(frame)
		}
	case LayerTypePreCompose:
		if l.Composition != nil {
			l.Composition.GotoFrame(frame - l.CompositionStartTime)
		}
	}
}
