package scene

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVerify(t *testing.T) {
	cases := map[string]struct {
		modify func(c *Composition, l *Layer)
		ok     bool
	}{
		"ok": {
			modify: func(c *Composition, l *Layer) {},
			ok:     true,
		},
		"zero width": {
			modify: func(c *Composition, l *Layer) { c.Width = 0 },
		},
		"zero frame rate": {
			modify: func(c *Composition, l *Layer) { c.FrameRate = 0 },
		},
		"no transform": {
			modify: func(c *Composition, l *Layer) { l.Transform = nil },
		},
		"no position": {
			modify: func(c *Composition, l *Layer) {
				l.Transform.Position = nil
				l.Transform.XPosition = nil
			},
		},
		"split position": {
			modify: func(c *Composition, l *Layer) { l.Transform.Position = nil },
			ok:     true,
		},
		"solid size": {
			modify: func(c *Composition, l *Layer) { l.SolidHeight = 0 },
		},
		"layer duration": {
			modify: func(c *Composition, l *Layer) { l.Duration = 0 },
		},
		"mask without path": {
			modify: func(c *Composition, l *Layer) {
				l.Masks = []*Mask{{
					Opacity:   NewProperty(Opaque),
					Expansion: NewProperty[float32](0),
				}}
			},
		},
		"incomplete effect": {
			modify: func(c *Composition, l *Layer) {
				l.Effects = []*Effect{{
					Type:     EffectGlow,
					Opacity:  NewProperty(Opaque),
					Glow:     &Glow{Threshold: NewProperty[float32](1)},
					FastBlur: nil,
				}}
			},
		},
		"text without source": {
			modify: func(c *Composition, l *Layer) { l.Type = LayerTypeText },
		},
		"unresolved precompose": {
			modify: func(c *Composition, l *Layer) {
				l.Type = LayerTypePreCompose
				l.CompositionID = 9
			},
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			c := newTestComposition(1, 100)
			l := addTestLayer(c, LayerTypeSolid, 0, 100)
			tc.modify(c, l)
			err := (&File{Compositions: []*Composition{c}}).Verify()
			if tc.ok {
				require.NoError(t, err)
			} else {
				require.ErrorIs(t, err, ErrInvalid)
			}
		})
	}
}

func TestVerifyNoCompositions(t *testing.T) {
	require.ErrorIs(t, (&File{}).Verify(), ErrInvalid)
}

func TestVerifyDuplicateID(t *testing.T) {
	a := newTestComposition(1, 10)
	b := newTestComposition(2, 10)
	f := &File{Compositions: []*Composition{a, b}}
	require.NoError(t, f.Verify())

	b.ID = 1
	err := f.Verify()
	require.ErrorIs(t, err, ErrInvalid)
	require.Contains(t, err.Error(), "duplicate composition id 1")
}

func TestVerifyVideo(t *testing.T) {
	c := NewComposition(CompositionVideo, 1, &Counter{})
	c.Width, c.Height, c.Duration, c.FrameRate = 10, 10, 10, 30
	f := &File{Compositions: []*Composition{c}}
	require.ErrorIs(t, f.Verify(), ErrInvalid)

	seq := &VideoSequence{
		Composition: c,
		Width:       10,
		Height:      10,
		FrameRate:   30,
		Headers:     [][]byte{{0, 0, 0, 1, 0x67}, {0, 0, 0, 1, 0x68}},
		Frames:      []*VideoFrame{{IsKeyframe: true, Data: []byte{0, 0, 0, 1, 0x65}}},
	}
	c.Sequences = []*VideoSequence{seq}
	require.NoError(t, f.Verify())

	seq.Headers = seq.Headers[:1]
	require.ErrorIs(t, f.Verify(), ErrInvalid)
}

func TestVerifyCycle(t *testing.T) {
	a := newTestComposition(1, 10)
	b := newTestComposition(2, 10)
	la := addTestLayer(a, LayerTypePreCompose, 0, 10)
	la.Composition = b
	lb := addTestLayer(b, LayerTypePreCompose, 0, 10)
	lb.Composition = a

	err := (&File{Compositions: []*Composition{a, b}}).Verify()
	require.ErrorIs(t, err, ErrInvalid)
	require.Contains(t, err.Error(), "contains itself")
}
