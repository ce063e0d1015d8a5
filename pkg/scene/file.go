package scene

// File is a decoded animation file.
type File struct {
	Version uint8
	// TagLevel is the highest tag code seen, the feature level a
	// player must support.
	TagLevel     uint16
	Fonts        []Font
	Compositions []*Composition
}

// MainComposition returns the root composition, the last one in the file.
func (f *File) MainComposition() *Composition {
	if len(f.Compositions) == 0 {
		return nil
	}
	return f.Compositions[len(f.Compositions)-1]
}

// Duration returns the root composition duration in frames.
func (f *File) Duration() Frame {
	if c := f.MainComposition(); c != nil {
		return c.Duration
	}
	return 0
}

// FrameRate returns the root composition frame rate.
func (f *File) FrameRate() float32 {
	if c := f.MainComposition(); c != nil {
		return c.FrameRate
	}
	return 0
}

// Width returns the root composition width.
func (f *File) Width() int32 {
	if c := f.MainComposition(); c != nil {
		return c.Width
	}
	return 0
}

// Height returns the root composition height.
func (f *File) Height() int32 {
	if c := f.MainComposition(); c != nil {
		return c.Height
	}
	return 0
}

// NumLayers returns the layer count reachable from the root composition.
func (f *File) NumLayers() int {
	if c := f.MainComposition(); c != nil {
		return c.NumLayers()
	}
	return 0
}

// NumVideos returns the number of video compositions.
func (f *File) NumVideos() int {
	n := 0
	for _, c := range f.Compositions {
		if c.Type == CompositionVideo {
			n++
		}
	}
	return n
}

// VideoSequences returns the sequences of every video composition.
func (f *File) VideoSequences() []*VideoSequence {
	var out []*VideoSequence
	for _, c := range f.Compositions {
		out = append(out, c.Sequences...)
	}
	return out
}

// GotoFrame moves the root composition to frame.
// Time remapping and stretch of precompose layers are not applied.
func (f *File) GotoFrame(frame Frame) {
	if c := f.MainComposition(); c != nil {
		c.GotoFrame(frame)
	}
}

// UpdateStaticTimeRanges recomputes the static ranges of every
// composition, children before parents.
func (f *File) UpdateStaticTimeRanges() {
	for _, c := range f.Compositions {
		c.staticReady = false
	}
	for _, c := range f.Compositions {
		if !c.staticReady {
			c.UpdateStaticTimeRanges()
		}
	}
}
