package focus

import (
	"github.com/1broseidon/tessera/internal/platform"
	"github.com/1broseidon/tessera/internal/tiling"
)

// Surface is one entry of an output's render list.
type Surface struct {
	Target
	// Geometry is the visible rectangle in global coordinates.
	Geometry tiling.Rect
	Opacity  float32
}

// RenderOrder returns the surfaces shown on an output, bottom to top:
// background and bottom layers, the tiled window, the floating stack with
// each window's popups directly above it, then top and overlay layers.
func (r *Resolver) RenderOrder(outputName string) []Surface {
	placed, ok := r.wm.Space().Lookup(outputName)
	if !ok {
		return nil
	}
	var out []Surface
	addLayers := func(level platform.Layer) {
		for _, l := range r.layers {
			if l.Layer() != level || l.Output() != outputName {
				continue
			}
			out = append(out, Surface{
				Target:   layerTarget(l, placed.Position),
				Geometry: l.Geometry().Translate(placed.Position),
				Opacity:  1,
			})
		}
	}

	addLayers(platform.LayerBackground)
	addLayers(platform.LayerBottom)
	if ws, ok := r.wm.WorkspaceOn(outputName); ok {
		for _, e := range ws.Elements() {
			opacity := e.Window.Rules().OpacityOr(1)
			out = append(out, Surface{
				Target:   r.windowTarget(e, placed.Position),
				Geometry: e.Geometry().Translate(placed.Position),
				Opacity:  opacity,
			})
			for _, p := range r.popupsOf(e, placed.Position) {
				out = append(out, Surface{
					Target:   p,
					Geometry: tiling.RectFrom(p.Origin, p.Popup.Geometry().Size()),
					Opacity:  opacity,
				})
			}
		}
	}
	addLayers(platform.LayerTop)
	addLayers(platform.LayerOverlay)
	return out
}
