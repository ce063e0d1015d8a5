package scene

import (
	"errors"
	"fmt"
)

// ErrInvalid is wrapped by every structural verification failure.
var ErrInvalid = errors.New("invalid")

func invalid(format string, a ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, a...))
}

// Verify checks the structural invariants of every composition.
func (f *File) Verify() error {
	if len(f.Compositions) == 0 {
		return invalid("no compositions")
	}
	ids := make(map[uint32]bool, len(f.Compositions))
	for _, c := range f.Compositions {
		if ids[c.ID] {
			return invalid("duplicate composition id %d", c.ID)
		}
		ids[c.ID] = true
	}
	for _, c := range f.Compositions {
		if err := c.Verify(); err != nil {
			return fmt.Errorf("composition %d: %w", c.ID, err)
		}
	}
	return f.verifyAcyclic()
}

// Verify checks the composition and everything it owns.
func (c *Composition) Verify() error {
	if c.Width <= 0 || c.Height <= 0 {
		return invalid("size %dx%d", c.Width, c.Height)
	}
	if c.Duration <= 0 {
		return invalid("duration %d", c.Duration)
	}
	if c.FrameRate <= 0 {
		return invalid("frame rate %v", c.FrameRate)
	}

	switch c.Type {
	case CompositionVector:
		for _, l := range c.Layers {
			if err := l.Verify(); err != nil {
				return fmt.Errorf("layer %d: %w", l.ID, err)
			}
		}
	case CompositionVideo:
		if len(c.Sequences) == 0 {
			return invalid("no video sequences")
		}
		for i, s := range c.Sequences {
			if err := s.Verify(); err != nil {
				return fmt.Errorf("sequence %d: %w", i, err)
			}
		}
	default:
		return invalid("composition type %d", c.Type)
	}
	return nil
}

// Verify checks the sequence has a size, headers and non-empty frames.
func (s *VideoSequence) Verify() error {
	if s.Composition == nil {
		return invalid("no composition")
	}
	if s.Width <= 0 || s.Height <= 0 {
		return invalid("size %dx%d", s.Width, s.Height)
	}
	if s.FrameRate <= 0 {
		return invalid("frame rate %v", s.FrameRate)
	}
	if len(s.Headers) < 2 {
		return invalid("%d codec headers", len(s.Headers))
	}
	for i, h := range s.Headers {
		if len(h) == 0 {
			return invalid("header %d is empty", i)
		}
	}
	if len(s.Frames) == 0 {
		return invalid("no frames")
	}
	for i, frame := range s.Frames {
		if frame == nil || len(frame.Data) == 0 {
			return invalid("frame %d is empty", i)
		}
	}
	return nil
}

// Verify checks the layer and its transform, masks and effects.
func (l *Layer) Verify() error {
	if l.ContainingComposition == nil {
		return invalid("no containing composition")
	}
	if l.Duration <= 0 {
		return invalid("duration %d", l.Duration)
	}
	if l.Transform == nil {
		return invalid("no transform")
	}
	if err := l.Transform.Verify(); err != nil {
		return fmt.Errorf("transform: %w", err)
	}
	for _, m := range l.Masks {
		if err := m.Verify(); err != nil {
			return fmt.Errorf("mask %d: %w", m.ID, err)
		}
	}
	for i, e := range l.Effects {
		if err := e.Verify(); err != nil {
			return fmt.Errorf("effect %d: %w", i, err)
		}
	}

	switch l.Type {
	case LayerTypeSolid:
		if l.SolidWidth <= 0 || l.SolidHeight <= 0 {
			return invalid("solid size %dx%d", l.SolidWidth, l.SolidHeight)
		}
	case LayerTypePreCompose:
		if l.Composition == nil {
			return invalid("unresolved composition %d", l.CompositionID)
		}
	case LayerTypeText:
		if l.SourceText == nil {
			return invalid("no source text")
		}
		if o := l.PathOption; o != nil {
			if o.ReversedPath == nil || o.PerpendicularToPath == nil ||
				o.ForceAlignment == nil || o.FirstMargin == nil || o.LastMargin == nil {
				return invalid("incomplete path option")
			}
		}
	}
	return nil
}

// Verify checks that every required property is present.
func (t *Transform2D) Verify() error {
	if t.AnchorPoint == nil || t.Scale == nil || t.Rotation == nil || t.Opacity == nil {
		return invalid("missing property")
	}
	if t.Position == nil && (t.XPosition == nil || t.YPosition == nil) {
		return invalid("missing position")
	}
	return nil
}

// Verify checks that every required property is present.
func (m *Mask) Verify() error {
	if m.Path == nil || m.Opacity == nil || m.Expansion == nil {
		return invalid("missing property")
	}
	return nil
}

// Verify checks that every required property is present.
func (e *Effect) Verify() error {
	if e.Opacity == nil {
		return invalid("missing opacity")
	}
	for _, m := range e.Masks {
		if m == nil {
			return invalid("nil mask reference")
		}
	}
	switch e.Type {
	case EffectFastBlur:
		b := e.FastBlur
		if b == nil || b.Blurriness == nil || b.BlurDimensions == nil || b.RepeatEdgePixels == nil {
			return invalid("incomplete fast blur")
		}
	case EffectGlow:
		g := e.Glow
		if g == nil || g.Threshold == nil || g.Radius == nil || g.Intensity == nil {
			return invalid("incomplete glow")
		}
	default:
		return invalid("effect type %d", e.Type)
	}
	return nil
}

// verifyAcyclic rejects compositions that contain themselves through
// precompose layers.
func (f *File) verifyAcyclic() error {
	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[*Composition]int, len(f.Compositions))
	var visit func(c *Composition) error
	visit = func(c *Composition) error {
		switch state[c] {
		case visiting:
			return invalid("composition %d contains itself", c.ID)
		case done:
			return nil
		}
		state[c] = visiting
		for _, l := range c.Layers {
			if l.Composition == nil {
				continue
			}
			if err := visit(l.Composition); err != nil {
				return err
			}
		}
		state[c] = done
		return nil
	}
	for _, c := range f.Compositions {
		if err := visit(c); err != nil {
			return err
		}
	}
	return nil
}
