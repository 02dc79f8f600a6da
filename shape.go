package physics

import (
	"github.com/go-gl/mathgl/mgl32"
)

type ShapeKind int

const (
	ShapeBox ShapeKind = iota
	ShapeSphere
	ShapeCylinder
)

func (k ShapeKind) String() string {
	switch k {
	case ShapeBox:
		return "box"
	case ShapeSphere:
		return "sphere"
	case ShapeCylinder:
		return "cylinder"
	}
	return "unknown"
}

// CollisionShape is an axis aligned box. Spheres and cylinders are converted
// to the box that bounds them when the shape is built.
type CollisionShape struct {
	kind     ShapeKind
	size     mgl32.Vec3
	halfSize mgl32.Vec3
	offset   mgl32.Vec3
}

// NewCollisionShape builds a shape from a kind and its dimensions:
//
//	box:      dims is the full size
//	sphere:   dims.X() is the radius
//	cylinder: dims.X() is the radius, dims.Y() the height
//
// Dimensions are not validated. NaN input gives NaN extents, and such a shape
// never overlaps anything.
func NewCollisionShape(kind ShapeKind, dims mgl32.Vec3, offset mgl32.Vec3) CollisionShape {
	var size mgl32.Vec3
	switch kind {
	case ShapeSphere:
		d := dims.X() * 2
		size = mgl32.Vec3{d, d, d}
	case ShapeCylinder:
		d := dims.X() * 2
		size = mgl32.Vec3{d, dims.Y(), d}
	default:
		size = dims
	}

	return CollisionShape{
		kind:     kind,
		size:     size,
		halfSize: size.Mul(0.5),
		offset:   offset,
	}
}

func NewBoxShape(size mgl32.Vec3) CollisionShape {
	return NewCollisionShape(ShapeBox, size, mgl32.Vec3{})
}

func (s CollisionShape) Kind() ShapeKind      { return s.kind }
func (s CollisionShape) Size() mgl32.Vec3     { return s.size }
func (s CollisionShape) HalfSize() mgl32.Vec3 { return s.halfSize }
func (s CollisionShape) Offset() mgl32.Vec3   { return s.offset }
