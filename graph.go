package physics

import (
	"errors"
	"fmt"
	"slices"

	"github.com/go-gl/mathgl/mgl32"
)

var ErrUnknownVolume = errors.New("unknown volume")

type graphOpKind int

const (
	opAdd graphOpKind = iota
	opRemove
)

type graphOp struct {
	kind   graphOpKind
	volume *Volume
	id     VolumeId
}

// ContactGraph tracks every pair of registered volumes whose group masks
// intersect, detects overlaps each step and resolves them with impulses.
//
// Adding or removing volumes while Step runs (from a collision callback) is
// queued and applied once the pass is over.
type ContactGraph struct {
	cfg    *Config
	logger Logger
	groups *GroupTable

	volumes  []*Volume
	index    map[VolumeId]*Volume
	contacts []*Contact

	stepping bool
	pending  []graphOp
}

func NewContactGraph(cfg *Config, logger Logger) *ContactGraph {
	if cfg == nil {
		def := DefaultConfig()
		cfg = &def
	}
	if logger == nil {
		logger = NewNopLogger()
	}
	return &ContactGraph{
		cfg:    cfg,
		logger: logger,
		groups: NewGroupTable(),
		index:  make(map[VolumeId]*Volume),
	}
}

// Groups is the table used to resolve VolumeDef.Groups.
func (g *ContactGraph) Groups() *GroupTable {
	return g.groups
}

func (g *ContactGraph) AddVolume(def VolumeDef) (VolumeId, error) {
	mask, err := g.groups.Resolve(def.Groups...)
	if err != nil {
		return "", fmt.Errorf("add volume: %w", err)
	}

	v := &Volume{
		Id:         newVolumeId(),
		Body:       def.Body,
		Shape:      def.Shape,
		AutoUpdate: def.AutoUpdate,
		Enabled:    true,
		Solid:      mask.Solid(),
		Mask:       mask,
		Kind:       def.Kind,
	}
	if def.Body != nil {
		v.Position = def.Body.Position.Add(def.Shape.Offset())
		if def.Body.Kind != "" {
			v.Kind = def.Body.Kind
		}
	} else {
		v.Position = def.Position.Add(def.Shape.Offset())
	}

	if g.stepping {
		g.pending = append(g.pending, graphOp{kind: opAdd, volume: v})
		return v.Id, nil
	}
	g.insertVolume(v)
	return v.Id, nil
}

// RemoveVolume drops a volume and every contact that references it. It
// reports whether the volume was known.
func (g *ContactGraph) RemoveVolume(id VolumeId) bool {
	if g.stepping {
		if !g.known(id) {
			return false
		}
		g.pending = append(g.pending, graphOp{kind: opRemove, id: id})
		return true
	}
	return g.deleteVolume(id)
}

func (g *ContactGraph) known(id VolumeId) bool {
	_, ok := g.lookup(id)
	return ok
}

// lookup finds a registered volume or one whose add is still queued.
func (g *ContactGraph) lookup(id VolumeId) (*Volume, bool) {
	if v, ok := g.index[id]; ok {
		return v, true
	}
	for _, op := range g.pending {
		if op.kind == opAdd && op.volume.Id == id {
			return op.volume, true
		}
	}
	return nil, false
}

func (g *ContactGraph) insertVolume(v *Volume) {
	created := 0
	for _, other := range g.volumes {
		if v.Mask.Intersects(other.Mask) {
			g.contacts = append(g.contacts, newContact(other, v))
			created++
		}
	}
	g.volumes = append(g.volumes, v)
	g.index[v.Id] = v

	g.logger.Debugf("volume %s (%s) registered, %d new contacts", v.Id, v.Kind, created)
}

func (g *ContactGraph) deleteVolume(id VolumeId) bool {
	if _, ok := g.index[id]; !ok {
		return false
	}

	before := len(g.contacts)
	g.contacts = slices.DeleteFunc(g.contacts, func(c *Contact) bool {
		return c.involves(id)
	})
	g.volumes = slices.DeleteFunc(g.volumes, func(v *Volume) bool {
		return v.Id == id
	})
	delete(g.index, id)

	g.logger.Debugf("volume %s removed, %d contacts dropped", id, before-len(g.contacts))
	return true
}

func (g *ContactGraph) flushPending() {
	// Ops queued by callbacks of this flush run in the same loop.
	for i := 0; i < len(g.pending); i++ {
		op := g.pending[i]
		switch op.kind {
		case opAdd:
			g.insertVolume(op.volume)
		case opRemove:
			g.deleteVolume(op.id)
		}
	}
	g.pending = g.pending[:0]
}

func (g *ContactGraph) Volume(id VolumeId) (*Volume, bool) {
	v, ok := g.index[id]
	return v, ok
}

// Volumes returns the registered volumes in registration order.
func (g *ContactGraph) Volumes() []*Volume {
	return slices.Clone(g.volumes)
}

func (g *ContactGraph) Contacts() []*Contact {
	return slices.Clone(g.contacts)
}

func (g *ContactGraph) ContactCount() int {
	return len(g.contacts)
}

// SetVolumePosition places a volume's centre. For body-less volumes this is
// the only way to move them.
func (g *ContactGraph) SetVolumePosition(id VolumeId, pos mgl32.Vec3) error {
	v, ok := g.lookup(id)
	if !ok {
		return fmt.Errorf("set position of %s: %w", id, ErrUnknownVolume)
	}
	v.Position = pos
	return nil
}

func (g *ContactGraph) SetVolumeEnabled(id VolumeId, enabled bool) error {
	v, ok := g.lookup(id)
	if !ok {
		return fmt.Errorf("enable %s: %w", id, ErrUnknownVolume)
	}
	v.Enabled = enabled
	return nil
}

// GetContacts returns the volumes currently touching id.
func (g *ContactGraph) GetContacts(id VolumeId) []*Volume {
	return g.touching(id, func(*Volume) bool { return true })
}

// GetContactsWithSolid returns the solid volumes currently touching id.
func (g *ContactGraph) GetContactsWithSolid(id VolumeId) []*Volume {
	return g.touching(id, func(v *Volume) bool { return v.Solid })
}

// GetContactsWithType returns the volumes of the given kind touching id.
func (g *ContactGraph) GetContactsWithType(id VolumeId, kind string) []*Volume {
	return g.touching(id, func(v *Volume) bool { return v.Kind == kind })
}

func (g *ContactGraph) touching(id VolumeId, keep func(*Volume) bool) []*Volume {
	self, ok := g.index[id]
	if !ok {
		return nil
	}
	var res []*Volume
	for _, c := range g.contacts {
		if !c.Touching {
			continue
		}
		if other := c.Other(self); other != nil && keep(other) {
			res = append(res, other)
		}
	}
	return res
}

// Step runs one detection and resolution pass over every contact.
func (g *ContactGraph) Step() {
	g.stepping = true
	for _, c := range g.contacts {
		g.stepContact(c)
	}
	g.stepping = false

	g.flushPending()
}

func (g *ContactGraph) stepContact(c *Contact) {
	v1, v2 := c.Volume1, c.Volume2
	v1.refresh()
	v2.refresh()

	wasTouching := c.Touching
	normal, ok := Overlap(v1.Position, v1.Shape.HalfSize(), v2.Position, v2.Shape.HalfSize())
	if !ok {
		c.clear()
		if wasTouching {
			notifyExit(v1, v2)
			notifyExit(v2, v1)
		}
		return
	}

	c.Normal1 = normal
	c.Normal2 = normal.Mul(-1)
	c.Touching = true
	if !wasTouching {
		notifyEnter(v1, v2, c.Normal1)
		notifyEnter(v2, v1, c.Normal2)
	}

	g.resolve(c)
}

func notifyEnter(self, other *Volume, normal mgl32.Vec3) {
	if self.Body != nil && self.Body.Handler != nil {
		self.Body.Handler.OnCollisionEnter(other, normal)
	}
}

func notifyExit(self, other *Volume) {
	if self.Body != nil && self.Body.Handler != nil {
		self.Body.Handler.OnCollisionExit(other)
	}
}

// resolve applies the impulse response of a touching contact. Only the normal
// axis is affected; tangential velocity is left alone.
func (g *ContactGraph) resolve(c *Contact) {
	v1, v2 := c.Volume1, c.Volume2
	if !v1.Enabled || !v2.Enabled || !v1.Solid || !v2.Solid {
		return
	}
	movable1, movable2 := v1.movable(), v2.movable()
	if !movable1 && !movable2 {
		return
	}

	n := c.Normal1
	if n == (mgl32.Vec3{}) {
		return
	}

	m1, m2 := pairMasses(v1.Body, v2.Body)
	e := pairRestitution(v1.Body, v2.Body)

	vel1, vel2 := v1.velocity(), v2.velocity()
	closing := vel1.Sub(vel2).Dot(n) * e
	if closing > 0 {
		c.clearSpeeds()
		return
	}

	// Normal speeds, both measured along n.
	n1, n2 := vel1.Dot(n), vel2.Dot(n)
	var s1, s2 float32
	switch {
	case movable1 && movable2:
		impulse := 2 * closing / (m1 + m2)
		vcm := (m1*n1 + m2*n2) / (m1 + m2)
		s1 = vcm - 0.5*impulse*m2
		s2 = vcm + 0.5*impulse*m1
	case movable1:
		// An immovable side behaves as infinite mass.
		s1 = n2 - closing
		s2 = n2
	default:
		s1 = n1
		s2 = n1 + closing
	}

	c.CollisionSpeed1 = n.Mul(g.deadband(s1))
	c.CollisionSpeed2 = n.Mul(g.deadband(s2))

	if movable1 {
		g.pushOut(v1, v2, c.Normal1, c.CollisionSpeed1, c.CollisionDistance)
	}
	if movable2 {
		g.pushOut(v2, v1, c.Normal2, c.CollisionSpeed2, c.CollisionDistance)
	}
}

func (g *ContactGraph) deadband(s float32) float32 {
	if mgl32.Abs(s) < g.cfg.MinCollisionSpeed {
		return 0
	}
	return s
}

// pushOut overwrites the velocity of self on every normal axis it is moving
// into, or is being pushed along faster than it already moves, and snaps it
// to the contact boundary.
func (g *ContactGraph) pushOut(self, other *Volume, normal, speed, distance mgl32.Vec3) {
	b := self.Body
	offset := self.Shape.Offset()
	for axis := 0; axis < 3; axis++ {
		n := normal[axis]
		if n == 0 {
			continue
		}
		if axis != AxisY && g.stepsOnto(self, other) {
			continue
		}
		v := b.Velocity[axis]
		into := v*n < 0
		pushed := speed[axis]*n > v*n
		if !into && !pushed {
			continue
		}

		b.Velocity[axis] = speed[axis]
		centre := other.Position[axis] + n*distance[axis]
		b.Position[axis] = centre - offset[axis]
		self.Position[axis] = centre
	}
}

// stepsOnto reports whether other is a ledge low enough for the ground probe
// of self to walk onto. Such ledges do not block horizontally.
func (g *ContactGraph) stepsOnto(self, other *Volume) bool {
	if !self.Body.ProbeGround {
		return false
	}
	feet := self.Position.Y() - self.Shape.HalfSize().Y()
	top := other.Position.Y() + other.Shape.HalfSize().Y()
	rise := top - feet
	return rise > 0 && rise <= g.cfg.StepHeight
}

// pairMasses fills in missing masses from the other side, or 1.
func pairMasses(b1, b2 *Body) (float32, float32) {
	m1, m2 := float32(0), float32(0)
	if b1 != nil {
		m1 = b1.Mass
	}
	if b2 != nil {
		m2 = b2.Mass
	}
	switch {
	case m1 <= 0 && m2 <= 0:
		return 1, 1
	case m1 <= 0:
		return m2, m2
	case m2 <= 0:
		return m1, m1
	}
	return m1, m2
}

// pairRestitution is the smaller restitution of the pair. A side without a
// body borrows the other's value.
func pairRestitution(b1, b2 *Body) float32 {
	switch {
	case b1 == nil && b2 == nil:
		return 0
	case b1 == nil:
		return b2.Restitution
	case b2 == nil:
		return b1.Restitution
	}
	return min(b1.Restitution, b2.Restitution)
}
