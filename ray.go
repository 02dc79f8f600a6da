package physics

import (
	"math"
	"slices"

	"github.com/go-gl/mathgl/mgl32"
)

type Ray struct {
	Origin    mgl32.Vec3
	Direction mgl32.Vec3
}

type RayHit struct {
	Volume   *Volume
	Distance float32
	Point    mgl32.Vec3
	Normal   mgl32.Vec3
}

// RayFilter narrows IntersectObjects. Zero values mean no restriction.
type RayFilter struct {
	Kinds       []string
	MaxDistance float32
	Skip        func(*Volume) bool
}

func (f *RayFilter) accepts(v *Volume) bool {
	if len(f.Kinds) > 0 && !slices.Contains(f.Kinds, v.Kind) {
		return false
	}
	if f.Skip != nil && f.Skip(v) {
		return false
	}
	return true
}

// IntersectObjects returns the nearest enabled volume hit by the ray, or nil.
// A volume containing the origin is not hit.
func (g *ContactGraph) IntersectObjects(origin, direction mgl32.Vec3, filter RayFilter) *RayHit {
	if direction.Len() == 0 {
		return nil
	}
	ray := Ray{Origin: origin, Direction: direction.Normalize()}

	maxT := float32(math.MaxFloat32)
	if filter.MaxDistance > 0 {
		maxT = filter.MaxDistance
	}

	var best *RayHit
	for _, v := range g.volumes {
		if !v.Enabled || !filter.accepts(v) {
			continue
		}
		half := v.Shape.HalfSize()
		if !(half.X() >= 0 && half.Y() >= 0 && half.Z() >= 0) {
			continue
		}
		t, normal, ok := intersectAABB(ray, v.Position.Sub(half), v.Position.Add(half))
		if !ok || t > maxT {
			continue
		}
		if best == nil || t < best.Distance {
			best = &RayHit{
				Volume:   v,
				Distance: t,
				Point:    ray.Origin.Add(ray.Direction.Mul(t)),
				Normal:   normal,
			}
		}
	}
	return best
}

// intersectAABB is the slab test. It returns the entry distance and the face
// normal of the entry side. Rays starting inside the box miss.
func intersectAABB(ray Ray, minB, maxB mgl32.Vec3) (float32, mgl32.Vec3, bool) {
	tNear := float32(math.Inf(-1))
	tFar := float32(math.Inf(1))
	nearAxis := -1

	for axis := 0; axis < 3; axis++ {
		o, d := ray.Origin[axis], ray.Direction[axis]
		if d == 0 {
			if o < minB[axis] || o > maxB[axis] {
				return 0, mgl32.Vec3{}, false
			}
			continue
		}
		t1 := (minB[axis] - o) / d
		t2 := (maxB[axis] - o) / d
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		if t1 > tNear {
			tNear = t1
			nearAxis = axis
		}
		if t2 < tFar {
			tFar = t2
		}
		if tNear > tFar {
			return 0, mgl32.Vec3{}, false
		}
	}

	if nearAxis < 0 || tNear < 0 {
		return 0, mgl32.Vec3{}, false
	}

	var normal mgl32.Vec3
	normal[nearAxis] = -sign32(ray.Direction[nearAxis])
	return tNear, normal, true
}

func round2(v float32) float32 {
	return float32(math.Round(float64(v)*100) / 100)
}
