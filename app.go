package physics

import (
	"context"
	"fmt"
	"reflect"
	"runtime"
	"slices"
)

type systemFn any

// Module bundles resources and systems. Install runs once, when the app is built.
type Module interface {
	Install(app *App, cmd *Commands)
}

type Stage struct {
	Name string
}

var (
	Prelude    = Stage{Name: "Prelude"}
	PreUpdate  = Stage{Name: "PreUpdate"}
	Update     = Stage{Name: "Update"}
	PostUpdate = Stage{Name: "PostUpdate"}
)

// App runs its stages in order once per frame. Systems are plain functions
// whose pointer arguments are resolved from *Commands or the app resources.
type App struct {
	stages    []Stage
	systems   map[string][]systemFn
	resources map[reflect.Type]any
	registry  *Registry
	frames    uint64

	// Command Buffering
	pendingAdditions    []pendingAdd
	pendingRemovals     []EntityId
	pendingCompAdds     []pendingAdd
	pendingCompRemovals []pendingAdd
}

type pendingAdd struct {
	eid        EntityId
	components []any
}

func newApp() *App {
	app := &App{
		systems:   make(map[string][]systemFn),
		resources: make(map[reflect.Type]any),
		registry:  NewRegistry(),
	}
	for _, stage := range []Stage{Prelude, PreUpdate, Update, PostUpdate} {
		app.stages = append(app.stages, stage)
		app.systems[stage.Name] = nil
	}
	return app
}

type AppBuilder struct {
	app     *App
	modules []Module
}

func NewAppBuilder() *AppBuilder {
	return &AppBuilder{app: newApp()}
}

func (b *AppBuilder) UseModule(modules ...Module) *AppBuilder {
	b.modules = append(b.modules, modules...)
	return b
}

func (b *AppBuilder) Build() *App {
	app := b.app
	cmd := app.Commands()
	for _, module := range b.modules {
		module.Install(app, cmd)
	}
	app.FlushCommands()
	return app
}

func (app *App) Commands() *Commands {
	return &Commands{app: app}
}

func (app *App) Registry() *Registry {
	return app.registry
}

// Frames is the number of frames run so far.
func (app *App) Frames() uint64 {
	return app.frames
}

// Resource returns the resource of type T, or nil.
func Resource[T any](app *App) *T {
	if r, ok := app.resources[reflect.TypeFor[T]()]; ok {
		return r.(*T)
	}
	return nil
}

// RunFrame calls every system once, stage by stage, flushing buffered
// commands after each stage.
func (app *App) RunFrame() {
	for _, stage := range app.stages {
		for _, system := range app.systems[stage.Name] {
			app.callSystem(system)
		}
		app.FlushCommands()
	}
	app.frames++
}

// Run calls RunFrame until ctx is cancelled.
func (app *App) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		app.RunFrame()
	}
}

type systemScheduleBuilder struct {
	inStage Stage
	system  systemFn
}

func System(system systemFn) systemScheduleBuilder {
	return systemScheduleBuilder{system: system, inStage: Update}
}

func (sched systemScheduleBuilder) InStage(s Stage) systemScheduleBuilder {
	return systemScheduleBuilder{system: sched.system, inStage: s}
}

func (app *App) UseSystem(system systemScheduleBuilder) *App {
	if _, ok := app.systems[system.inStage.Name]; !ok {
		panic(fmt.Sprintf("Stage %v doesn't exist", system.inStage.Name))
	}
	app.systems[system.inStage.Name] = append(app.systems[system.inStage.Name], system.system)
	return app
}

// UseStage inserts a stage right after an existing one.
func (app *App) UseStage(stage Stage, after Stage) *App {
	idx := slices.IndexFunc(app.stages, func(s Stage) bool { return s.Name == after.Name })
	if idx < 0 {
		panic(fmt.Sprintf("Stage %v not found", after.Name))
	}
	app.stages = slices.Insert(app.stages, idx+1, stage)
	app.systems[stage.Name] = nil
	return app
}

func (app *App) addResources(resources ...any) *App {
	for _, resource := range resources {
		resourceType := reflect.TypeOf(resource)
		if resourceType.Kind() != reflect.Pointer {
			panic(fmt.Sprintf("resource %s must be a pointer", resourceType))
		}
		if _, ok := app.resources[resourceType.Elem()]; ok {
			panic(fmt.Sprintf("%s is already in resources", resourceType))
		}
		app.resources[resourceType.Elem()] = resource
	}
	return app
}

var typeOfCommands = reflect.TypeOf(Commands{})

func (app *App) callSystem(system systemFn) {
	systemType := reflect.TypeOf(system)
	systemValue := reflect.ValueOf(system)

	args := make([]reflect.Value, systemType.NumIn())
	for i := 0; i < systemType.NumIn(); i++ {
		argType := systemType.In(i)
		if argType.Kind() != reflect.Pointer {
			panic(app.unresolved(systemValue, argType))
		}
		underlyingType := argType.Elem()

		if underlyingType == typeOfCommands {
			args[i] = reflect.ValueOf(&Commands{app: app})
		} else if resource, ok := app.resources[underlyingType]; ok {
			args[i] = reflect.ValueOf(resource)
		} else {
			panic(app.unresolved(systemValue, argType))
		}
	}
	systemValue.Call(args)
}

func (app *App) unresolved(system reflect.Value, dep reflect.Type) string {
	return fmt.Sprintf("Unable to resolve System dependency.\nSystem: %s\nSystem type: %s\nDependency: %s",
		runtime.FuncForPC(system.Pointer()).Name(),
		system.Type(),
		dep,
	)
}

func (app *App) FlushCommands() {
	if len(app.pendingAdditions) == 0 && len(app.pendingRemovals) == 0 &&
		len(app.pendingCompAdds) == 0 && len(app.pendingCompRemovals) == 0 {
		return
	}

	// Removals first so nothing is added to a dead entity. An entity spawned
	// and removed within the same stage is never inserted.
	removed := make(map[EntityId]struct{}, len(app.pendingRemovals))
	for _, eid := range app.pendingRemovals {
		app.registry.remove(eid)
		removed[eid] = struct{}{}
	}
	app.pendingRemovals = app.pendingRemovals[:0]

	for _, add := range app.pendingAdditions {
		if _, ok := removed[add.eid]; ok {
			continue
		}
		app.registry.insert(add.eid, add.components...)
	}
	app.pendingAdditions = app.pendingAdditions[:0]

	for _, rm := range app.pendingCompRemovals {
		app.registry.removeComponents(rm.eid, rm.components...)
	}
	app.pendingCompRemovals = app.pendingCompRemovals[:0]

	for _, add := range app.pendingCompAdds {
		app.registry.addComponents(add.eid, add.components...)
	}
	app.pendingCompAdds = app.pendingCompAdds[:0]
}
