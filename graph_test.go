package physics

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type collisionRecorder struct {
	enters  []*Volume
	normals []mgl32.Vec3
	exits   []*Volume

	onEnter func(other *Volume)
}

func (r *collisionRecorder) OnCollisionEnter(other *Volume, normal mgl32.Vec3) {
	r.enters = append(r.enters, other)
	r.normals = append(r.normals, normal)
	if r.onEnter != nil {
		r.onEnter(other)
	}
}

func (r *collisionRecorder) OnCollisionExit(other *Volume) {
	r.exits = append(r.exits, other)
}

func testGraph() *ContactGraph {
	cfg := DefaultConfig()
	return NewContactGraph(&cfg, nil)
}

func unitBox() CollisionShape {
	return NewBoxShape(mgl32.Vec3{1, 1, 1})
}

func addBody(t *testing.T, g *ContactGraph, b *Body, groups ...string) VolumeId {
	t.Helper()
	id, err := g.AddVolume(VolumeDef{Body: b, Shape: unitBox(), AutoUpdate: true, Groups: groups})
	require.NoError(t, err)
	return id
}

func addStatic(t *testing.T, g *ContactGraph, pos, size mgl32.Vec3, groups ...string) VolumeId {
	t.Helper()
	id, err := g.AddVolume(VolumeDef{Shape: NewBoxShape(size), Position: pos, Kind: "level", Groups: groups})
	require.NoError(t, err)
	return id
}

func TestContactLifecycle(t *testing.T) {
	g := testGraph()

	a := addStatic(t, g, mgl32.Vec3{0, 0, 0}, mgl32.Vec3{1, 1, 1})
	b := addStatic(t, g, mgl32.Vec3{5, 0, 0}, mgl32.Vec3{1, 1, 1})
	require.Equal(t, 1, g.ContactCount())

	c := addStatic(t, g, mgl32.Vec3{10, 0, 0}, mgl32.Vec3{1, 1, 1})
	assert.Equal(t, 3, g.ContactCount(), "C pairs with A and B")

	assert.True(t, g.RemoveVolume(c))
	require.Equal(t, 1, g.ContactCount())
	left := g.Contacts()[0]
	assert.Equal(t, a, left.Volume1.Id)
	assert.Equal(t, b, left.Volume2.Id)

	assert.False(t, g.RemoveVolume(c), "already removed")
	_, ok := g.Volume(c)
	assert.False(t, ok)
	assert.Len(t, g.Volumes(), 2)
}

func TestContactsOnlyForIntersectingMasks(t *testing.T) {
	g := testGraph()

	addStatic(t, g, mgl32.Vec3{}, mgl32.Vec3{1, 1, 1}, "a")
	addStatic(t, g, mgl32.Vec3{}, mgl32.Vec3{1, 1, 1}, "b")
	assert.Equal(t, 0, g.ContactCount())

	addStatic(t, g, mgl32.Vec3{}, mgl32.Vec3{1, 1, 1}, "a", "b")
	assert.Equal(t, 2, g.ContactCount())

	addStatic(t, g, mgl32.Vec3{}, mgl32.Vec3{1, 1, 1}, "c")
	assert.Equal(t, 2, g.ContactCount())
}

func TestAddVolumeUnknownGroup(t *testing.T) {
	g := testGraph()
	_, err := g.AddVolume(VolumeDef{Shape: unitBox(), Groups: []string{"ghosts"}})
	assert.ErrorIs(t, err, ErrUnknownGroup)
	assert.Empty(t, g.Volumes())
}

func TestVolumePositionFollowsBodyAndOffset(t *testing.T) {
	g := testGraph()
	body := NewBody()
	body.Position = mgl32.Vec3{1, 2, 3}
	id, err := g.AddVolume(VolumeDef{
		Body:       body,
		Shape:      NewCollisionShape(ShapeBox, mgl32.Vec3{1, 2, 1}, mgl32.Vec3{0, 1, 0}),
		AutoUpdate: true,
	})
	require.NoError(t, err)
	addStatic(t, g, mgl32.Vec3{100, 0, 0}, mgl32.Vec3{1, 1, 1})

	v, _ := g.Volume(id)
	assert.Equal(t, mgl32.Vec3{1, 3, 3}, v.Position)

	body.Position = mgl32.Vec3{4, 0, 0}
	g.Step()
	assert.Equal(t, mgl32.Vec3{4, 1, 0}, v.Position)
}

func TestSetVolumeUnknown(t *testing.T) {
	g := testGraph()
	assert.ErrorIs(t, g.SetVolumePosition("missing", mgl32.Vec3{}), ErrUnknownVolume)
	assert.ErrorIs(t, g.SetVolumeEnabled("missing", false), ErrUnknownVolume)
}

func TestElasticHeadOnCollision(t *testing.T) {
	g := testGraph()

	const s = 2.0
	b1 := NewBody()
	b1.Position = mgl32.Vec3{-0.4, 0, 0}
	b1.Velocity = mgl32.Vec3{s, 0, 0}
	b1.Restitution = 1
	b2 := NewBody()
	b2.Position = mgl32.Vec3{0.4, 0, 0}
	b2.Velocity = mgl32.Vec3{-s, 0, 0}
	b2.Restitution = 1

	addBody(t, g, b1)
	addBody(t, g, b2)

	momentum := b1.Mass*b1.Velocity.X() + b2.Mass*b2.Velocity.X()
	energy := b1.Mass*b1.Velocity.X()*b1.Velocity.X() + b2.Mass*b2.Velocity.X()*b2.Velocity.X()

	g.Step()

	assert.InDelta(t, -s, b1.Velocity.X(), 1e-5)
	assert.InDelta(t, s, b2.Velocity.X(), 1e-5)
	assert.InDelta(t, momentum, b1.Mass*b1.Velocity.X()+b2.Mass*b2.Velocity.X(), 1e-5)
	assert.InDelta(t, energy, b1.Mass*b1.Velocity.X()*b1.Velocity.X()+b2.Mass*b2.Velocity.X()*b2.Velocity.X(), 1e-4)

	// Snapped apart to the contact boundary.
	assert.InDelta(t, -0.6, b1.Position.X(), 1e-5)
	assert.InDelta(t, 0.4, b2.Position.X(), 1e-5)

	c := g.Contacts()[0]
	assert.True(t, c.Touching)
	assert.Equal(t, mgl32.Vec3{-1, 0, 0}, c.Normal1)
	assert.Equal(t, mgl32.Vec3{1, 0, 0}, c.Normal2)
}

func TestMovingBodyStrikesRestingBody(t *testing.T) {
	g := testGraph()

	b1 := NewBody()
	b1.Position = mgl32.Vec3{-0.45, 0, 0}
	b1.Velocity = mgl32.Vec3{3, 0, 0}
	b1.Restitution = 1
	b2 := NewBody()
	b2.Position = mgl32.Vec3{0.45, 0, 0}
	b2.Restitution = 1

	addBody(t, g, b1)
	addBody(t, g, b2)
	g.Step()

	assert.InDelta(t, 0, b1.Velocity.X(), 1e-5)
	assert.InDelta(t, 3, b2.Velocity.X(), 1e-5)
}

func TestStaticFloorBounce(t *testing.T) {
	g := testGraph()
	addStatic(t, g, mgl32.Vec3{0, -0.5, 0}, mgl32.Vec3{10, 1, 10})

	b := NewBody()
	b.Position = mgl32.Vec3{0, 0.45, 0}
	b.Velocity = mgl32.Vec3{1, -4, 0}
	b.Restitution = 0.5
	addBody(t, g, b)

	g.Step()

	assert.InDelta(t, 2, b.Velocity.Y(), 1e-5)
	assert.Equal(t, float32(1), b.Velocity.X(), "tangential velocity is untouched")
	assert.InDelta(t, 0.5, b.Position.Y(), 1e-6)
}

func TestCollisionSpeedDeadband(t *testing.T) {
	g := testGraph()
	addStatic(t, g, mgl32.Vec3{0, -0.5, 0}, mgl32.Vec3{10, 1, 10})

	b := NewBody()
	b.Position = mgl32.Vec3{0, 0.45, 0}
	b.Velocity = mgl32.Vec3{0, -0.5, 0}
	addBody(t, g, b)

	g.Step()

	// 0.5 * 0.1 restitution is under the 0.1 deadband.
	assert.Equal(t, float32(0), b.Velocity.Y())
	c := g.Contacts()[0]
	assert.Equal(t, mgl32.Vec3{}, c.CollisionSpeed2)
}

func TestSeparatingBodiesAreLeftAlone(t *testing.T) {
	g := testGraph()

	b1 := NewBody()
	b1.Position = mgl32.Vec3{-0.4, 0, 0}
	b1.Velocity = mgl32.Vec3{-1, 0, 0}
	b2 := NewBody()
	b2.Position = mgl32.Vec3{0.4, 0, 0}
	b2.Velocity = mgl32.Vec3{1, 0, 0}
	addBody(t, g, b1)
	addBody(t, g, b2)

	g.Step()

	assert.Equal(t, float32(-1), b1.Velocity.X())
	assert.Equal(t, float32(1), b2.Velocity.X())
	assert.Equal(t, float32(-0.4), b1.Position.X())
	assert.True(t, g.Contacts()[0].Touching)
}

func TestKinematicBodyIsNeverMoved(t *testing.T) {
	g := testGraph()

	wall := NewStaticBody(mgl32.Vec3{0.4, 0, 0})
	wall.Velocity = mgl32.Vec3{-1, 0, 0}
	b := NewBody()
	b.Position = mgl32.Vec3{-0.4, 0, 0}
	b.Velocity = mgl32.Vec3{1, 0, 0}
	b.Restitution = 1
	wall.Restitution = 1
	addBody(t, g, wall)
	addBody(t, g, b)

	g.Step()

	assert.Equal(t, mgl32.Vec3{0.4, 0, 0}, wall.Position)
	assert.Equal(t, float32(-1), wall.Velocity.X())
	// Reflected relative to the moving wall: -1 - (1 - -1).
	assert.InDelta(t, -3, b.Velocity.X(), 1e-5)
}

func TestSensorsTouchWithoutImpulse(t *testing.T) {
	g := testGraph()

	rec := &collisionRecorder{}
	b := NewBody()
	b.Handler = rec
	b.Position = mgl32.Vec3{-0.4, 0, 0}
	b.Velocity = mgl32.Vec3{2, 0, 0}
	addBody(t, g, b, "solid", "a")
	trigger := addStatic(t, g, mgl32.Vec3{0.4, 0, 0}, mgl32.Vec3{1, 1, 1}, "a")

	g.Step()

	assert.Equal(t, float32(2), b.Velocity.X())
	require.Len(t, rec.enters, 1)
	assert.Equal(t, trigger, rec.enters[0].Id)
}

func TestDisabledVolumeSkipsImpulse(t *testing.T) {
	g := testGraph()

	b := NewBody()
	b.Position = mgl32.Vec3{-0.4, 0, 0}
	b.Velocity = mgl32.Vec3{2, 0, 0}
	addBody(t, g, b)
	wall := addStatic(t, g, mgl32.Vec3{0.4, 0, 0}, mgl32.Vec3{1, 1, 1})
	require.NoError(t, g.SetVolumeEnabled(wall, false))

	g.Step()
	assert.Equal(t, float32(2), b.Velocity.X())

	require.NoError(t, g.SetVolumeEnabled(wall, true))
	g.Step()
	assert.NotEqual(t, float32(2), b.Velocity.X())
}

func TestEnterAndExitFireOnce(t *testing.T) {
	g := testGraph()

	moverRec, targetRec := &collisionRecorder{}, &collisionRecorder{}
	mover := NewStaticBody(mgl32.Vec3{-3, 0, 0})
	mover.Handler = moverRec
	target := NewStaticBody(mgl32.Vec3{0, 0, 0})
	target.Handler = targetRec

	moverId := addBody(t, g, mover)
	targetId := addBody(t, g, target)

	for i := 0; i <= 24; i++ {
		mover.Position = mgl32.Vec3{-3 + 0.25*float32(i), 0, 0}
		g.Step()
	}

	require.Len(t, moverRec.enters, 1)
	require.Len(t, moverRec.exits, 1)
	require.Len(t, targetRec.enters, 1)
	require.Len(t, targetRec.exits, 1)

	assert.Equal(t, targetId, moverRec.enters[0].Id)
	assert.Equal(t, moverId, targetRec.exits[0].Id)
	assert.Equal(t, mgl32.Vec3{-1, 0, 0}, moverRec.normals[0])
	assert.Equal(t, mgl32.Vec3{1, 0, 0}, targetRec.normals[0])
}

func TestMutationFromCallbackIsDeferred(t *testing.T) {
	g := testGraph()

	rec := &collisionRecorder{}
	b := NewBody()
	b.Handler = rec
	addBody(t, g, b)
	first := addStatic(t, g, mgl32.Vec3{0.5, 0, 0}, mgl32.Vec3{1, 1, 1})
	second := addStatic(t, g, mgl32.Vec3{-0.5, 0, 0}, mgl32.Vec3{1, 1, 1})

	var spawned VolumeId
	rec.onEnter = func(other *Volume) {
		if other.Id != first {
			return
		}
		assert.True(t, g.RemoveVolume(first))
		id, err := g.AddVolume(VolumeDef{Shape: unitBox(), Position: mgl32.Vec3{0, 5, 0}})
		require.NoError(t, err)
		spawned = id
	}

	before := g.ContactCount()
	g.Step()

	// The pass kept walking the contacts it started with.
	assert.Len(t, rec.enters, 2)
	_, ok := g.Volume(first)
	assert.False(t, ok)
	_, ok = g.Volume(spawned)
	assert.True(t, ok)
	_, ok = g.Volume(second)
	assert.True(t, ok)
	// first: -2 contacts, spawned: +2 contacts.
	assert.Equal(t, before, g.ContactCount())
}

func TestGetContactsQueries(t *testing.T) {
	g := testGraph()

	b := NewBody()
	b.Dynamic = false
	self := addBody(t, g, b, "solid", "a")
	addStatic(t, g, mgl32.Vec3{0.5, 0, 0}, mgl32.Vec3{1, 1, 1})
	addStatic(t, g, mgl32.Vec3{-0.5, 0, 0}, mgl32.Vec3{1, 1, 1}, "a")
	addStatic(t, g, mgl32.Vec3{5, 0, 0}, mgl32.Vec3{1, 1, 1})

	coin := NewStaticBody(mgl32.Vec3{0, 0.5, 0})
	coin.Kind = "coin"
	addBody(t, g, coin, "a")

	g.Step()

	assert.Len(t, g.GetContacts(self), 3)
	assert.Len(t, g.GetContactsWithSolid(self), 1)
	coins := g.GetContactsWithType(self, "coin")
	require.Len(t, coins, 1)
	assert.Same(t, coin, coins[0].Body)
	assert.Nil(t, g.GetContacts("missing"))
}

func TestNaNShapeNeverTouches(t *testing.T) {
	g := testGraph()
	nan := float32(math.NaN())

	_, err := g.AddVolume(VolumeDef{Shape: NewBoxShape(mgl32.Vec3{nan, 1, 1})})
	require.NoError(t, err)
	addStatic(t, g, mgl32.Vec3{}, mgl32.Vec3{1, 1, 1})

	g.Step()
	assert.False(t, g.Contacts()[0].Touching)
}

func TestRearEndedBodyIsPushedAhead(t *testing.T) {
	g := testGraph()

	chaser := NewBody()
	chaser.Position = mgl32.Vec3{-0.45, 0, 0}
	chaser.Velocity = mgl32.Vec3{3, 0, 0}
	chaser.Restitution = 1
	leader := NewBody()
	leader.Position = mgl32.Vec3{0.45, 0, 0}
	leader.Velocity = mgl32.Vec3{1, 0, 0}
	leader.Restitution = 1

	addBody(t, g, chaser)
	addBody(t, g, leader)
	g.Step()

	assert.InDelta(t, 1, chaser.Velocity.X(), 1e-5)
	assert.InDelta(t, 3, leader.Velocity.X(), 1e-5)
	assert.InDelta(t, 4, chaser.Velocity.X()+leader.Velocity.X(), 1e-5, "momentum is conserved")
}

func TestSettersReachQueuedVolumes(t *testing.T) {
	g := testGraph()

	rec := &collisionRecorder{}
	b := NewBody()
	b.Dynamic = false
	b.Handler = rec
	addBody(t, g, b)
	addStatic(t, g, mgl32.Vec3{0.5, 0, 0}, mgl32.Vec3{1, 1, 1})

	var spawned VolumeId
	rec.onEnter = func(*Volume) {
		id, err := g.AddVolume(VolumeDef{Shape: unitBox()})
		require.NoError(t, err)
		assert.NoError(t, g.SetVolumePosition(id, mgl32.Vec3{0, 7, 0}))
		assert.NoError(t, g.SetVolumeEnabled(id, false))
		spawned = id
	}

	g.Step()

	v, ok := g.Volume(spawned)
	require.True(t, ok)
	assert.Equal(t, mgl32.Vec3{0, 7, 0}, v.Position)
	assert.False(t, v.Enabled)
}
