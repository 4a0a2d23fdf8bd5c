package kinematic

// This package includes functions for the big four kinematic equations.

import (
	"math"
)

const (
	Gravity float64 = -9.8
)

// Vector is a 2D quantity such as a position or a velocity.
type Vector struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (v Vector) Add(other Vector) Vector {
	return Vector{X: v.X + other.X, Y: v.Y + other.Y}
}

func (v Vector) Scale(factor float64) Vector {
	return Vector{X: v.X * factor, Y: v.Y * factor}
}

// Displacement returns the displacement of an object given its initial velocity, time, and acceleration.
func Displacement(initialVelocity float64, time float64, acceleration float64) float64 {
	return initialVelocity*time + 0.5*acceleration*math.Pow(time, 2)
}

// FinalVelocity returns the final velocity of an object given its initial velocity, time, and acceleration.
func FinalVelocity(initialVelocity float64, time float64, acceleration float64) float64 {
	return initialVelocity + acceleration*time
}

// Step returns the displacement and final velocity of an object under a
// constant acceleration.
func Step(velocity Vector, time float64, acceleration Vector) (displacement Vector, final Vector) {
	displacement = Vector{
		X: Displacement(velocity.X, time, acceleration.X),
		Y: Displacement(velocity.Y, time, acceleration.Y),
	}
	final = Vector{
		X: FinalVelocity(velocity.X, time, acceleration.X),
		Y: FinalVelocity(velocity.Y, time, acceleration.Y),
	}
	return displacement, final
}
