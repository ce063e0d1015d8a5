package codec

import "pagkit/pkg/scene"

// resolveReferences replaces the ids read from the file with the
// objects they name. Missing ids are left unresolved.
func resolveReferences(f *scene.File) {
	compositions := make(map[uint32]*scene.Composition, len(f.Compositions))
	for _, c := range f.Compositions {
		compositions[c.ID] = c
	}
	for _, c := range f.Compositions {
		resolveComposition(c)
		for _, l := range c.Layers {
			if l.Type == scene.LayerTypePreCompose {
				l.Composition = compositions[l.CompositionID]
			}
		}
	}
}

func resolveComposition(c *scene.Composition) {
	layers := make(map[uint32]*scene.Layer, len(c.Layers))
	for _, l := range c.Layers {
		layers[l.ID] = l
	}
	for i, l := range c.Layers {
		l.ContainingComposition = c
		if l.ParentID != 0 {
			l.Parent = layers[l.ParentID]
		}
		if l.TrackMatteType != scene.TrackMatteNone && l.TrackMatteType <= scene.TrackMatteLumaInverted && i > 0 {
			l.TrackMatteLayer = c.Layers[i-1]
		}
		resolveMasks(l)
	}
}

func resolveMasks(l *scene.Layer) {
	masks := make(map[uint32]*scene.Mask, len(l.Masks))
	for _, m := range l.Masks {
		masks[m.ID] = m
	}
	for _, e := range l.Effects {
		for _, id := range e.MaskIDs {
			if m, ok := masks[id]; ok {
				e.Masks = append(e.Masks, m)
			}
		}
	}
	if o := l.PathOption; o != nil && o.PathID != 0 {
		o.Path = masks[o.PathID]
	}
}
