package physics

import (
	"github.com/go-gl/mathgl/mgl32"
)

const (
	AxisX = 0
	AxisY = 1
	AxisZ = 2
)

// CollisionHandler receives contact notifications for a body. Each call
// happens once per transition, not once per step.
type CollisionHandler interface {
	OnCollisionEnter(other *Volume, normal mgl32.Vec3)
	OnCollisionExit(other *Volume)
}

// Body is a simulated entity. The gameplay layer owns it; the physics world
// only writes Position, Velocity and Orientation.
type Body struct {
	// Kind is the entity type used by type filtered queries.
	Kind string

	Position    mgl32.Vec3
	Velocity    mgl32.Vec3
	Orientation mgl32.Quat

	Mass        float32
	Restitution float32

	Dynamic           bool
	AffectedByGravity bool

	// FloorFriction decelerates horizontal motion while resting. 0 disables it.
	FloorFriction float32
	// Speed clamps, 0 means unclamped.
	MaxHorizontalSpeed float32
	MaxVerticalSpeed   float32

	// ProbeGround enables ray based ground snapping and step handling. Ledges
	// rising no more than Config.StepHeight above the feet do not block such a
	// body horizontally; the probe lifts it onto them instead.
	ProbeGround bool
	// FaceMovement turns Orientation toward the horizontal heading.
	FaceMovement bool

	Handler CollisionHandler

	force     mgl32.Vec3
	grounded  bool
	velocity  vec3History
	positions vec3History
}

func NewBody() *Body {
	return &Body{
		Orientation:       mgl32.QuatIdent(),
		Mass:              1,
		Restitution:       0.1,
		Dynamic:           true,
		AffectedByGravity: true,
	}
}

// NewStaticBody returns a body that collides but is never moved.
func NewStaticBody(pos mgl32.Vec3) *Body {
	b := NewBody()
	b.Position = pos
	b.Dynamic = false
	b.AffectedByGravity = false
	return b
}

// ApplyForce accumulates a force consumed by the next integration step.
func (b *Body) ApplyForce(f mgl32.Vec3) {
	b.force = b.force.Add(f)
}

func (b *Body) ApplyImpulse(impulse mgl32.Vec3) {
	if b.Mass > 0 {
		b.Velocity = b.Velocity.Add(impulse.Mul(1.0 / b.Mass))
	} else {
		b.Velocity = b.Velocity.Add(impulse)
	}
}

func (b *Body) PendingForce() mgl32.Vec3 {
	return b.force
}

func (b *Body) Grounded() bool {
	return b.grounded
}

// IsStationary reports whether the last three recorded positions agree on axis.
func (b *Body) IsStationary(axis int) bool {
	return b.positions.Stationary(axis)
}

// SpeedTendency is +1 when velocity on axis increased over the recorded
// history, -1 when it decreased and 0 otherwise.
func (b *Body) SpeedTendency(axis int) int {
	return b.velocity.Tendency(axis)
}

// LastPosition is the most recent known good position.
func (b *Body) LastPosition() (mgl32.Vec3, bool) {
	return b.positions.Last()
}

func (b *Body) LastVelocity() (mgl32.Vec3, bool) {
	return b.velocity.Last()
}

func (b *Body) PositionHistory() []mgl32.Vec3 {
	return b.positions.Samples()
}

func (b *Body) VelocityHistory() []mgl32.Vec3 {
	return b.velocity.Samples()
}

func (b *Body) record() {
	b.positions.Push(b.Position)
	b.velocity.Push(b.Velocity)
}

// Teleport moves the body and forgets its history, so a later wall revert
// does not pull it back.
func (b *Body) Teleport(pos mgl32.Vec3) {
	b.Position = pos
	b.positions.Reset()
	b.velocity.Reset()
	b.grounded = false
}
