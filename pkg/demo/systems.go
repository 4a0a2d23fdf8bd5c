package demo

import (
	"errors"

	"github.com/cbodonnell/rewind/pkg/sim"
)

var ErrNotLinked = errors.New("world is not linked")

// Systems returns the demo logic in the order it runs each step.
func Systems() []sim.System[World] {
	return []sim.System[World]{
		{Start: start},
		{Update: control},
		{Update: physics},
		{Update: follow},
	}
}

func start(w *World, ctx *sim.Context) error {
	w.Spawn()
	ctx.Camera = sim.Camera{Zoom: 1}
	return follow(w, ctx)
}

// control applies the player's input to its velocity.
func control(w *World, ctx *sim.Context) error {
	player := w.Player()
	if player == nil {
		return nil
	}

	inputX := 0.0
	if ctx.Inputs.IsKeyHeld(sim.KeyA) || ctx.Inputs.IsKeyHeld(sim.KeyArrowLeft) {
		inputX--
	}
	if ctx.Inputs.IsKeyHeld(sim.KeyD) || ctx.Inputs.IsKeyHeld(sim.KeyArrowRight) {
		inputX++
	}
	player.Velocity.X = inputX * PlayerSpeed

	if ctx.Inputs.IsKeyDown(sim.KeySpace) && player.IsOnGround {
		player.Velocity.Y = PlayerJumpSpeed
		w.Jumps++
	}
	return nil
}

func physics(w *World, ctx *sim.Context) error {
	if w.space == nil {
		return ErrNotLinked
	}
	deltaTime := ctx.Time.Dt / 1000
	for _, body := range w.Bodies {
		body.Update(deltaTime)
	}
	return nil
}

// follow centers the camera on the player.
func follow(w *World, ctx *sim.Context) error {
	player := w.Player()
	if player == nil {
		return nil
	}
	ctx.Camera.X = player.Position.X + BodySize/2 - Width/2
	ctx.Camera.Y = player.Position.Y + BodySize/2 - Height/2
	return nil
}
