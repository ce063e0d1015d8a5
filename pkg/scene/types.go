// Package scene is the in-memory model of a decoded animation file.
package scene

import "math"

// Frame is a time in frames of the owning composition.
type Frame = int64

// Point is a 2D point or vector.
type Point struct {
	X float32
	Y float32
}

// IsZero reports whether both coordinates are zero.
func (p Point) IsZero() bool {
	return p.X == 0 && p.Y == 0
}

// Add returns p+o.
func (p Point) Add(o Point) Point {
	return Point{X: p.X + o.X, Y: p.Y + o.Y}
}

// Color is an 8 bit RGB color.
type Color struct {
	Red   uint8
	Green uint8
	Blue  uint8
}

// Colors used as attribute defaults.
var (
	Black = Color{0, 0, 0}
	White = Color{255, 255, 255}
)

// Opaque is the maximum opacity.
const Opaque uint8 = 255

// Ratio is a rational number.
type Ratio struct {
	Numerator   int32
	Denominator uint32
}

// DefaultRatio is 1/1.
var DefaultRatio = Ratio{Numerator: 1, Denominator: 1}

// Value returns the ratio as a float.
func (r Ratio) Value() float64 {
	if r.Denominator == 0 {
		return 0
	}
	return float64(r.Numerator) / float64(r.Denominator)
}

// PathVerb is a path drawing command.
type PathVerb uint8

// Path verbs.
const (
	PathMoveTo PathVerb = iota
	PathLineTo
	PathCurveTo
	PathClose
)

// Path is a sequence of verbs and their points.
// MoveTo and LineTo use one point, CurveTo uses three.
type Path struct {
	Verbs  []PathVerb
	Points []Point
}

// Interpolate returns the path between p and to at t when both paths
// share the same verbs, otherwise p.
func (p *Path) Interpolate(to *Path, t float64) *Path {
	if p == nil || to == nil || len(p.Points) != len(to.Points) || len(p.Verbs) != len(to.Verbs) {
		return p
	}
	for i, v := range p.Verbs {
		if to.Verbs[i] != v {
			return p
		}
	}
	out := &Path{
		Verbs:  p.Verbs,
		Points: make([]Point, len(p.Points)),
	}
	for i := range p.Points {
		out.Points[i] = lerpPoint(p.Points[i], to.Points[i], t)
	}
	return out
}

// LayerType identifies the layer variant.
type LayerType uint8

// Layer types.
const (
	LayerTypeUnknown LayerType = iota
	LayerTypeNull
	LayerTypeSolid
	LayerTypeText
	LayerTypeShape
	LayerTypeImage
	LayerTypePreCompose
	LayerTypeCamera
)

func (t LayerType) String() string {
	switch t {
	case LayerTypeNull:
		return "null"
	case LayerTypeSolid:
		return "solid"
	case LayerTypeText:
		return "text"
	case LayerTypeShape:
		return "shape"
	case LayerTypeImage:
		return "image"
	case LayerTypePreCompose:
		return "precompose"
	case LayerTypeCamera:
		return "camera"
	}
	return "unknown"
}

// TrackMatteType is how a layer uses the layer above it as a matte.
type TrackMatteType uint8

// Track matte types.
const (
	TrackMatteNone TrackMatteType = iota
	TrackMatteAlpha
	TrackMatteAlphaInverted
	TrackMatteLuma
	TrackMatteLumaInverted
)

// BlendMode of a layer. Values follow the file format.
type BlendMode uint8

// MaskMode of a mask.
type MaskMode uint8

// Mask modes.
const (
	MaskModeNone MaskMode = iota
	MaskModeAdd
	MaskModeSubtract
	MaskModeIntersect
	MaskModeLighten
	MaskModeDarken
	MaskModeDifference
	MaskModeAccum
)

// CachePolicy hints how a renderer should cache a layer.
type CachePolicy uint8

// Cache policies.
const (
	CachePolicyAuto CachePolicy = iota
	CachePolicyEnable
	CachePolicyDisable
)

// Font is an entry of the file font table.
type Font struct {
	Family string
	Style  string
}

// TextDocument is the styled source of a text layer.
type TextDocument struct {
	ApplyFill       bool
	ApplyStroke     bool
	BoxText         bool
	FauxBold        bool
	FauxItalic      bool
	StrokeOverFill  bool
	BaselineShift   float32
	FirstBaseLine   float32
	BoxTextPos      Point
	BoxTextSize     Point
	FillColor       Color
	FontSize        float32
	StrokeColor     Color
	StrokeWidth     float32
	Text            string
	Justification   uint8
	Leading         float32
	Tracking        float32
	BackgroundColor Color
	BackgroundAlpha uint8
	Direction       uint8
	FontFamily      string
	FontStyle       string
}

// NewTextDocument returns a document with default attributes.
func NewTextDocument() *TextDocument {
	return &TextDocument{
		ApplyFill:       true,
		StrokeOverFill:  true,
		FillColor:       Black,
		FontSize:        24,
		StrokeColor:     Black,
		StrokeWidth:     1,
		BackgroundColor: White,
		BackgroundAlpha: Opaque,
	}
}

// Marker is a labeled time on a layer.
type Marker struct {
	StartTime Frame
	Duration  Frame
	Comment   string
}

func lerpFloat(a, b float32, t float64) float32 {
	return a + float32(float64(b-a)*t)
}

func lerpPoint(a, b Point, t float64) Point {
	return Point{X: lerpFloat(a.X, b.X, t), Y: lerpFloat(a.Y, b.Y, t)}
}

func lerpByte(a, b uint8, t float64) uint8 {
	v := float64(a) + (float64(b)-float64(a))*t
	return uint8(math.Round(math.Max(0, math.Min(255, v))))
}
