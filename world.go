package physics

import (
	"slices"
	"time"

	"github.com/go-gl/mathgl/mgl32"
)

// World owns a simulation: its bodies, contact graph, ground probe and fixed
// step scheduler. It is not safe for concurrent use.
type World struct {
	cfg    Config
	logger Logger

	graph     *ContactGraph
	probe     *GroundProbe
	scheduler *FixedStepScheduler

	bodies  []*Body
	volumes map[*Body]VolumeId

	ticking         bool
	pendingAdds     []*Body
	pendingRemovals []*Body
}

func NewWorld(cfg Config, logger Logger) *World {
	if logger == nil {
		logger = NewNopLogger()
	}
	w := &World{
		cfg:     cfg,
		logger:  logger,
		volumes: make(map[*Body]VolumeId),
	}
	w.graph = NewContactGraph(&w.cfg, logger)
	w.probe = NewGroundProbe(&w.cfg, w.graph)
	w.scheduler = NewFixedStepScheduler(cfg.Step, cfg.MaxCatchUpSteps, func(time.Duration) { w.Tick() }, logger)
	return w
}

// Config returns a copy of the world's tuning, which is fixed once the world
// is built.
func (w *World) Config() Config { return w.cfg }

func (w *World) Graph() *ContactGraph           { return w.graph }
func (w *World) Probe() *GroundProbe            { return w.probe }
func (w *World) Scheduler() *FixedStepScheduler { return w.scheduler }
func (w *World) Bodies() []*Body                { return slices.Clone(w.bodies) }

func (w *World) VolumeOf(body *Body) (VolumeId, bool) {
	id, ok := w.volumes[body]
	return id, ok
}

// AddBody starts simulating body. A non-nil shape is registered with the
// contact graph, following the body every step.
func (w *World) AddBody(body *Body, shape *CollisionShape, groups ...string) (VolumeId, error) {
	var id VolumeId
	if shape != nil {
		var err error
		id, err = w.graph.AddVolume(VolumeDef{
			Body:       body,
			Shape:      *shape,
			AutoUpdate: true,
			Groups:     groups,
		})
		if err != nil {
			return "", err
		}
		w.volumes[body] = id
	}

	if w.ticking {
		w.pendingAdds = append(w.pendingAdds, body)
	} else {
		w.bodies = append(w.bodies, body)
	}
	w.logger.Debugf("body %q added (dynamic=%t, volume %q)", body.Kind, body.Dynamic, id)
	return id, nil
}

// AddStatic registers body-less level geometry.
func (w *World) AddStatic(shape CollisionShape, pos mgl32.Vec3, kind string, groups ...string) (VolumeId, error) {
	return w.graph.AddVolume(VolumeDef{
		Shape:    shape,
		Position: pos,
		Kind:     kind,
		Groups:   groups,
	})
}

func (w *World) RemoveBody(body *Body) bool {
	id, hasVolume := w.volumes[body]
	if hasVolume {
		w.graph.RemoveVolume(id)
		delete(w.volumes, body)
	}

	w.logger.Debugf("body %q removed", body.Kind)
	if w.ticking {
		n := len(w.pendingAdds)
		w.pendingAdds = slices.DeleteFunc(w.pendingAdds, func(b *Body) bool { return b == body })
		if len(w.pendingAdds) == n {
			w.pendingRemovals = append(w.pendingRemovals, body)
		}
		return true
	}
	return w.dropBody(body) || hasVolume
}

func (w *World) dropBody(body *Body) bool {
	n := len(w.bodies)
	w.bodies = slices.DeleteFunc(w.bodies, func(b *Body) bool { return b == body })
	return len(w.bodies) != n
}

// Advance feeds frame time to the scheduler and returns the ticks run.
func (w *World) Advance(elapsed time.Duration) int {
	return w.scheduler.Advance(elapsed)
}

// Tick runs one fixed step: integration, contact resolution, ground probing
// and history recording, in that order.
func (w *World) Tick() {
	dt := w.cfg.StepSeconds()

	w.ticking = true
	for _, b := range w.bodies {
		integrateBody(b, &w.cfg, dt)
	}

	w.graph.Step()

	for _, b := range w.bodies {
		w.probe.Correct(b)
	}
	for _, b := range w.bodies {
		if b.Dynamic {
			b.record()
		}
	}
	w.ticking = false

	w.flushPending()
}

func (w *World) flushPending() {
	for _, b := range w.pendingRemovals {
		w.dropBody(b)
	}
	w.pendingRemovals = w.pendingRemovals[:0]

	w.bodies = append(w.bodies, w.pendingAdds...)
	w.pendingAdds = w.pendingAdds[:0]
}
