// Package collisions builds resolv spaces for rectangular levels.
package collisions

import "github.com/solarlune/resolv"

// Box is an axis aligned rectangle.
type Box struct {
	X, Y, W, H float64
}

// Level is a room enclosed by four walls of the same thickness.
type Level struct {
	Width         float64
	Height        float64
	CellSize      int
	WallThickness float64
	// Tag is attached to every wall object.
	Tag string
}

// Walls returns the floor, ceiling, left and right walls in that order.
func (l Level) Walls() []Box {
	t := l.WallThickness
	return []Box{
		{X: 0, Y: 0, W: l.Width, H: t},
		{X: 0, Y: l.Height - t, W: l.Width, H: t},
		{X: 0, Y: t, W: t, H: l.Height - 2*t},
		{X: l.Width - t, Y: t, W: t, H: l.Height - 2*t},
	}
}

// NewSpace returns a space holding only the level walls.
func (l Level) NewSpace() *resolv.Space {
	space := resolv.NewSpace(int(l.Width), int(l.Height), l.CellSize, l.CellSize)
	for _, wall := range l.Walls() {
		space.Add(resolv.NewObject(wall.X, wall.Y, wall.W, wall.H, l.Tag))
	}
	return space
}
