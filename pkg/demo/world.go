// Package demo is a small platformer used to exercise recording and replay.
// Bodies fall under gravity and collide with the level and each other
// through a resolv space that is rebuilt whenever the world is decoded.
package demo

import (
	"fmt"

	"github.com/cbodonnell/rewind/pkg/collisions"
	"github.com/cbodonnell/rewind/pkg/kinematic"
	"github.com/solarlune/resolv"
)

type Body struct {
	ID         int              `json:"id"`
	Player     bool             `json:"player,omitempty"`
	Position   kinematic.Vector `json:"position"`
	Velocity   kinematic.Vector `json:"velocity"`
	IsOnGround bool             `json:"isOnGround"`

	object *resolv.Object
}

// Object is the body's collision object in the linked space.
func (b *Body) Object() *resolv.Object {
	return b.object
}

// Update moves the body by its velocity under gravity for deltaTime seconds.
func (b *Body) Update(deltaTime float64) {
	// X-axis
	dx := kinematic.Displacement(b.Velocity.X, deltaTime, 0)
	vx := b.Velocity.X

	// Check for collisions
	if collision := b.object.Check(dx, 0, CollisionSpaceTagLevel, CollisionSpaceTagBody); collision != nil {
		dx = collision.ContactWithObject(collision.Objects[0]).X
		vx = 0
	}

	// Y-axis
	vy := b.Velocity.Y

	// Apply gravity
	dy := kinematic.Displacement(vy, deltaTime, kinematic.Gravity*GravityMultiplier)
	vy = kinematic.FinalVelocity(vy, deltaTime, kinematic.Gravity*GravityMultiplier)

	// Check for collisions
	isOnGround := false
	if collision := b.object.Check(0, dy, CollisionSpaceTagLevel, CollisionSpaceTagBody); collision != nil {
		isOnGround = dy < 0
		dy = collision.ContactWithObject(collision.Objects[0]).Y
		vy = 0
	}

	b.Position.X += dx
	b.Velocity.X = vx
	b.Position.Y += dy
	b.Velocity.Y = vy
	b.IsOnGround = isOnGround

	// Update the collision object
	b.object.Position.X = b.Position.X
	b.object.Position.Y = b.Position.Y
	b.object.Update()
}

// World is the root state of the demo.
type World struct {
	Bodies []*Body `json:"bodies"`
	Jumps  int     `json:"jumps"`
	NextID int     `json:"nextId"`

	space *resolv.Space
}

// NewWorld returns a linked world with the player and the crates spawned.
func NewWorld() World {
	w := World{}
	w.Spawn()
	return w
}

// Spawn replaces every body with the starting set and relinks the world.
func (w *World) Spawn() {
	w.Bodies = nil
	w.Jumps = 0
	w.NextID = 0
	w.addBody(PlayerStartingX, PlayerStartingY, true)
	for _, x := range CrateStartingX {
		w.addBody(x, CrateStartingY, false)
	}
	// the starting bodies always link
	_ = w.Link()
}

func (w *World) addBody(x, y float64, player bool) *Body {
	w.NextID++
	body := &Body{
		ID:       w.NextID,
		Player:   player,
		Position: kinematic.Vector{X: x, Y: y},
	}
	w.Bodies = append(w.Bodies, body)
	return body
}

// Link rebuilds the collision space from the bodies.
func (w *World) Link() error {
	space := NewCollisionSpace()
	seen := make(map[int]struct{}, len(w.Bodies))
	for i, body := range w.Bodies {
		if body == nil {
			return fmt.Errorf("body %d is nil", i)
		}
		if _, ok := seen[body.ID]; ok {
			return fmt.Errorf("duplicate body id %d", body.ID)
		}
		seen[body.ID] = struct{}{}
		body.object = resolv.NewObject(body.Position.X, body.Position.Y, BodySize, BodySize, CollisionSpaceTagBody)
		space.Add(body.object)
	}
	w.space = space
	return nil
}

// Space is the collision space built by the last Link.
func (w *World) Space() *resolv.Space {
	return w.space
}

// Player returns the player body or nil.
func (w *World) Player() *Body {
	for _, body := range w.Bodies {
		if body.Player {
			return body
		}
	}
	return nil
}

// Level is the room every body lives in.
var Level = collisions.Level{
	Width:         Width,
	Height:        Height,
	CellSize:      CellSize,
	WallThickness: WallThickness,
	Tag:           CollisionSpaceTagLevel,
}

// NewCollisionSpace returns a space holding the level walls.
func NewCollisionSpace() *resolv.Space {
	return Level.NewSpace()
}
