package demo

import "github.com/cbodonnell/rewind/pkg/sim"

type RectKind uint8

const (
	RectKindWall RectKind = iota
	RectKindCrate
	RectKindPlayer
)

// Rect is a rectangle in level coordinates, y pointing up.
type Rect struct {
	X, Y, W, H float64
	Kind       RectKind
}

// Scene is what a painter needs to draw one frame.
type Scene struct {
	Frame  uint64
	Camera sim.Camera
	Rects  []Rect
}

// Scene captures the drawable parts of the world.
func (w *World) Scene(ctx *sim.Context) Scene {
	scene := Scene{
		Frame:  ctx.Frame,
		Camera: ctx.Camera,
	}
	for _, wall := range Level.Walls() {
		scene.Rects = append(scene.Rects, Rect{X: wall.X, Y: wall.Y, W: wall.W, H: wall.H, Kind: RectKindWall})
	}
	for _, body := range w.Bodies {
		kind := RectKindCrate
		if body.Player {
			kind = RectKindPlayer
		}
		scene.Rects = append(scene.Rects, Rect{
			X:    body.Position.X,
			Y:    body.Position.Y,
			W:    BodySize,
			H:    BodySize,
			Kind: kind,
		})
	}
	return scene
}
