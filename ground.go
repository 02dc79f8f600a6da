package physics

import (
	"github.com/go-gl/mathgl/mgl32"
)

var down = mgl32.Vec3{0, -1, 0}

// GroundProbe keeps probing bodies on the ground. It walks them up small
// ledges, follows them down small drops and pushes them back from ledges
// that are too tall to climb.
type GroundProbe struct {
	cfg   *Config
	graph *ContactGraph
}

func NewGroundProbe(cfg *Config, graph *ContactGraph) *GroundProbe {
	return &GroundProbe{cfg: cfg, graph: graph}
}

// CheckRayCollision casts from height above the body origin along direction.
// The body's own volume, other dynamic bodies and non-solid volumes are
// ignored. Distance and point are rounded to two decimals.
func (p *GroundProbe) CheckRayCollision(body *Body, direction mgl32.Vec3, height float32) *RayHit {
	origin := body.Position.Add(mgl32.Vec3{0, height, 0})
	hit := p.graph.IntersectObjects(origin, direction, RayFilter{
		Skip: func(v *Volume) bool {
			if !v.Solid || v.Body == body {
				return true
			}
			return v.Body != nil && v.Body.Dynamic
		},
	})
	if hit == nil {
		return nil
	}

	hit.Distance = round2(hit.Distance)
	hit.Point = mgl32.Vec3{round2(hit.Point.X()), round2(hit.Point.Y()), round2(hit.Point.Z())}
	return hit
}

// Correct runs the ground probe for one body. It must run after contact
// resolution for the step.
func (p *GroundProbe) Correct(body *Body) {
	if !body.Dynamic || !body.ProbeGround {
		return
	}

	wasGrounded := body.grounded
	body.grounded = false

	hit := p.CheckRayCollision(body, down, p.cfg.ProbeHeight)
	if hit == nil {
		return
	}

	rise := hit.Point.Y() - body.Position.Y()
	switch {
	case rise > p.cfg.StepHeight:
		// Too tall to step onto: treat it as a wall.
		if last, ok := body.LastPosition(); ok {
			p.graph.logger.Debugf("body %q blocked by %q, %.2f above its feet", body.Kind, hit.Volume.Kind, rise)
			body.Position = last
		}
		body.grounded = wasGrounded
	case rise >= 0:
		body.Position[AxisY] = hit.Point.Y()
		if body.Velocity.Y() < 0 {
			body.Velocity[AxisY] = 0
		}
		body.grounded = true
	case rise >= -p.cfg.StepHeight && wasGrounded && body.Velocity.Y() <= 0:
		body.Position[AxisY] = hit.Point.Y()
		body.Velocity[AxisY] = 0
		body.grounded = true
	}
}
