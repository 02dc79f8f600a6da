package physics

import (
	"github.com/go-gl/mathgl/mgl32"
)

// TransformComponent is what the renderer reads. The physics module writes it
// after every frame.
type TransformComponent struct {
	Position mgl32.Vec3
	Rotation mgl32.Quat
}

// BodyComponent attaches a simulated body to an entity. Shape may be nil for
// bodies that move but never collide.
type BodyComponent struct {
	Body   *Body
	Shape  *CollisionShape
	Groups []string
}

// PhysicsBindings remembers which entity drives which body.
type PhysicsBindings struct {
	bodies map[EntityId]*Body
	failed map[EntityId]struct{}
}

func (pb *PhysicsBindings) Body(eid EntityId) (*Body, bool) {
	b, ok := pb.bodies[eid]
	return b, ok
}

func (pb *PhysicsBindings) Len() int {
	return len(pb.bodies)
}

type PhysicsModule struct {
	// Config defaults to DefaultConfig().
	Config *Config
}

func (m PhysicsModule) Install(app *App, cmd *Commands) {
	cfg := DefaultConfig()
	if m.Config != nil {
		cfg = *m.Config
	}

	cmd.AddResources(
		NewWorld(cfg, app.Logger()),
		&PhysicsBindings{
			bodies: make(map[EntityId]*Body),
			failed: make(map[EntityId]struct{}),
		},
	)

	app.UseSystem(
		System(PhysicsBindSystem).InStage(PreUpdate),
	).UseSystem(
		System(PhysicsStepSystem).InStage(Update),
	).UseSystem(
		System(PhysicsSyncSystem).InStage(PostUpdate),
	)
}

// PhysicsBindSystem registers bodies of new entities with the world and
// removes those whose entity is gone.
func PhysicsBindSystem(cmd *Commands, world *World, bindings *PhysicsBindings) {
	seen := make(map[EntityId]struct{})

	MakeQuery1[BodyComponent](cmd).Map(func(eid EntityId, bc *BodyComponent) bool {
		seen[eid] = struct{}{}
		if bc.Body == nil {
			return true
		}
		if _, ok := bindings.bodies[eid]; ok {
			return true
		}
		if _, ok := bindings.failed[eid]; ok {
			return true
		}

		if tr := GetComponent[TransformComponent](cmd.Registry(), eid); tr != nil {
			bc.Body.Position = tr.Position
			if tr.Rotation != (mgl32.Quat{}) {
				bc.Body.Orientation = tr.Rotation
			}
		}

		if _, err := world.AddBody(bc.Body, bc.Shape, bc.Groups...); err != nil {
			world.logger.Errorf("entity %d: %v", eid, err)
			bindings.failed[eid] = struct{}{}
			return true
		}
		bindings.bodies[eid] = bc.Body
		return true
	})

	for eid, body := range bindings.bodies {
		if _, ok := seen[eid]; !ok {
			world.RemoveBody(body)
			delete(bindings.bodies, eid)
		}
	}
	for eid := range bindings.failed {
		if _, ok := seen[eid]; !ok {
			delete(bindings.failed, eid)
		}
	}
}

func PhysicsStepSystem(t *Time, world *World) {
	world.Advance(t.Dt)
}

func PhysicsSyncSystem(cmd *Commands) {
	MakeQuery2[BodyComponent, TransformComponent](cmd).Map(func(eid EntityId, bc *BodyComponent, tr *TransformComponent) bool {
		if bc.Body != nil {
			tr.Position = bc.Body.Position
			tr.Rotation = bc.Body.Orientation
		}
		return true
	})
}
