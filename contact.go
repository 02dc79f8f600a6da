package physics

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
)

type VolumeId string

func newVolumeId() VolumeId {
	return VolumeId(uuid.NewString())
}

// VolumeDef describes a volume to register. With a Body the world position
// follows the body; without one Position places static geometry.
type VolumeDef struct {
	Body       *Body
	Shape      CollisionShape
	Position   mgl32.Vec3
	AutoUpdate bool
	Groups     []string
	// Kind is used when Body is nil. Bodies carry their own Kind.
	Kind string
}

// Volume is the graph's view of a shape bound to a body or placed in the world.
type Volume struct {
	Id         VolumeId
	Body       *Body
	Shape      CollisionShape
	Position   mgl32.Vec3 // world centre of the shape
	AutoUpdate bool
	Enabled    bool
	Solid      bool
	Mask       GroupMask
	Kind       string
}

// refresh pulls the world position from the owning body.
func (v *Volume) refresh() {
	if v.AutoUpdate && v.Body != nil {
		v.Position = v.Body.Position.Add(v.Shape.Offset())
	}
}

// movable reports whether collision response may move this volume's body.
func (v *Volume) movable() bool {
	return v.Body != nil && v.Body.Dynamic
}

func (v *Volume) velocity() mgl32.Vec3 {
	if v.Body == nil {
		return mgl32.Vec3{}
	}
	return v.Body.Velocity
}

// Contact tracks a pair of volumes whose group masks intersect.
type Contact struct {
	Volume1 *Volume
	Volume2 *Volume

	// CollisionDistance is the sum of both half sizes. Shapes never change
	// size, so it is computed once.
	CollisionDistance mgl32.Vec3

	Normal1  mgl32.Vec3
	Normal2  mgl32.Vec3
	Touching bool

	CollisionSpeed1 mgl32.Vec3
	CollisionSpeed2 mgl32.Vec3
}

func newContact(v1, v2 *Volume) *Contact {
	return &Contact{
		Volume1:           v1,
		Volume2:           v2,
		CollisionDistance: v1.Shape.HalfSize().Add(v2.Shape.HalfSize()),
	}
}

// Other returns the volume paired with v, or nil if v is not in the contact.
func (c *Contact) Other(v *Volume) *Volume {
	switch v {
	case c.Volume1:
		return c.Volume2
	case c.Volume2:
		return c.Volume1
	}
	return nil
}

// NormalFor returns the contact normal as seen from v.
func (c *Contact) NormalFor(v *Volume) mgl32.Vec3 {
	if v == c.Volume2 {
		return c.Normal2
	}
	return c.Normal1
}

func (c *Contact) involves(id VolumeId) bool {
	return c.Volume1.Id == id || c.Volume2.Id == id
}

func (c *Contact) clear() {
	c.Normal1 = mgl32.Vec3{}
	c.Normal2 = mgl32.Vec3{}
	c.Touching = false
	c.clearSpeeds()
}

func (c *Contact) clearSpeeds() {
	c.CollisionSpeed1 = mgl32.Vec3{}
	c.CollisionSpeed2 = mgl32.Vec3{}
}
