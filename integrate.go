package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

var worldUp = mgl32.Vec3{0, 1, 0}

// integrateBody advances a dynamic body by one fixed step. Collision response
// and ground probing run afterwards and may override what happens here.
func integrateBody(b *Body, cfg *Config, dt float32) {
	if !b.Dynamic {
		b.force = mgl32.Vec3{}
		return
	}

	// A poisoned velocity would spread through every contact.
	if l := float64(b.Velocity.Len()); math.IsNaN(l) || math.IsInf(l, 0) {
		b.Velocity = mgl32.Vec3{}
		b.force = mgl32.Vec3{}
		return
	}

	b.Position = b.Position.Add(b.Velocity.Mul(dt))

	if b.FaceMovement {
		faceHeading(b, cfg.TurnRate*dt)
	}

	mass := b.Mass
	if mass <= 0 {
		mass = 1
	}
	acc := b.force.Mul(1.0 / mass)
	if b.AffectedByGravity {
		acc = acc.Add(cfg.Gravity)
	}
	b.Velocity = b.Velocity.Add(acc.Mul(dt))
	b.force = mgl32.Vec3{}

	applyFloorFriction(b, cfg, acc, dt)
	clampSpeed(b)
}

func faceHeading(b *Body, t float32) {
	heading := mgl32.Vec3{b.Velocity.X(), 0, b.Velocity.Z()}
	if heading.Len() < 1e-4 {
		return
	}
	if t > 1 {
		t = 1
	}
	yaw := float32(math.Atan2(float64(heading.X()), float64(heading.Z())))
	target := mgl32.QuatRotate(yaw, worldUp)
	b.Orientation = mgl32.QuatSlerp(b.Orientation, target, t).Normalize()
}

// applyFloorFriction slows horizontal motion of a resting body that is not
// being pushed horizontally. An axis never changes sign because of friction.
func applyFloorFriction(b *Body, cfg *Config, acc mgl32.Vec3, dt float32) {
	if b.FloorFriction <= 0 {
		return
	}
	last, ok := b.velocity.Last()
	if !ok || last.Y() != 0 {
		return
	}
	if acc.X() != 0 || acc.Z() != 0 {
		return
	}

	horizontal := mgl32.Vec3{b.Velocity.X(), 0, b.Velocity.Z()}
	speed := horizontal.Len()
	if speed == 0 {
		return
	}

	g := cfg.Gravity.Len()
	decel := horizontal.Mul(1.0 / speed).Mul(g * b.FloorFriction * cfg.FrictionScale * dt)

	for _, axis := range [2]int{AxisX, AxisZ} {
		v := b.Velocity[axis]
		nv := v - decel[axis]
		if v*nv <= 0 {
			nv = 0
		}
		b.Velocity[axis] = nv
	}
}

func clampSpeed(b *Body) {
	if limit := b.MaxHorizontalSpeed; limit > 0 {
		horizontal := mgl32.Vec3{b.Velocity.X(), 0, b.Velocity.Z()}
		if speed := horizontal.Len(); speed > limit {
			scale := limit / speed
			b.Velocity[AxisX] *= scale
			b.Velocity[AxisZ] *= scale
		}
	}
	if limit := b.MaxVerticalSpeed; limit > 0 {
		if b.Velocity.Y() > limit {
			b.Velocity[AxisY] = limit
		} else if b.Velocity.Y() < -limit {
			b.Velocity[AxisY] = -limit
		}
	}
}
