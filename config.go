package physics

import (
	"time"

	"github.com/go-gl/mathgl/mgl32"
)

// Config holds every tunable of a simulation. Each World gets its own copy so
// several simulations can run side by side with different tuning.
type Config struct {
	// Step is the fixed logic/physics step.
	Step time.Duration
	// MaxCatchUpSteps caps the number of steps a single frame may run.
	// Zero or negative disables the cap.
	MaxCatchUpSteps int

	Gravity mgl32.Vec3
	// MinCollisionSpeed is the deadband below which a resolved collision
	// speed is snapped to zero.
	MinCollisionSpeed float32
	// FrictionScale multiplies Body.FloorFriction.
	FrictionScale float32
	// TurnRate is how fast FaceMovement bodies turn toward their heading,
	// in slerp fraction per second.
	TurnRate float32

	// ProbeHeight is where ground rays start, measured up from the body origin.
	ProbeHeight float32
	// StepHeight is the tallest ledge a probing body walks onto.
	StepHeight float32
}

func DefaultConfig() Config {
	return Config{
		Step:              time.Second / 60,
		MaxCatchUpSteps:   5,
		Gravity:           mgl32.Vec3{0, -9.81, 0},
		MinCollisionSpeed: 0.1,
		FrictionScale:     1.0,
		TurnRate:          10.0,
		ProbeHeight:       1.0,
		StepHeight:        0.35,
	}
}

// StepSeconds returns Step as float32 seconds.
func (c *Config) StepSeconds() float32 {
	return float32(c.Step.Seconds())
}
