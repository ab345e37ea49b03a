package gekko

import (
	"fmt"
	"reflect"
	"runtime"
	"sync"
)

type systemFn any

// Module bundles resources and systems. Install is called once while the app
// is being built.
type Module interface {
	Install(app *App, cmd *Commands)
}

type App struct {
	stateful           bool
	stateTransitioning bool
	initialState       State
	finalState         State
	nextState          State
	state              State
	stages             []Stage
	systems            map[string]map[State]map[statePhase][]systemFn
	systemsStateless   map[string][]systemFn
	resources          map[reflect.Type]any
	ecs                *Ecs

	// worldMu guards the ECS. A frame of systems runs with it held, and
	// anything touching the ECS from another goroutine must take it too.
	worldMu sync.Mutex

	shutdownOnce  sync.Once
	shutdownHooks []func()

	// Command Buffering
	pendingAdditions    []pendingAdd
	pendingRemovals     []EntityId
	pendingCompAdds     []pendingCompAdd
	pendingCompRemovals []pendingCompRemoval
}

type pendingAdd struct {
	eid        EntityId
	components []any
}

type pendingCompAdd struct {
	eid        EntityId
	components []any
}

type pendingCompRemoval struct {
	eid        EntityId
	components []any
}

// NewApp returns a stateless app with the default stages.
func NewApp() *App {
	ecs := MakeEcs()
	app := &App{
		resources: make(map[reflect.Type]any),
		ecs:       &ecs,
	}
	app.ensureStages()
	return app
}

// UseModules installs modules right away.
func (app *App) UseModules(modules ...Module) *App {
	cmd := app.Commands()
	for _, module := range modules {
		module.Install(app, cmd)
	}
	return app
}

func (app *App) Commands() *Commands {
	return &Commands{
		app: app,
	}
}

// Run executes frames until the final state is reached, then runs the
// shutdown hooks. A stateless app runs until the process exits.
func (app *App) Run() {
	defer app.Shutdown()

	log := app.Logger()
	if app.stateful {
		log.Infof("running in stateful mode, %d -> %d", app.initialState, app.finalState)

		app.state = app.initialState
		app.withWorld(func() { app.callSystems(app.state, enter) })
	} else {
		log.Infof("running in stateless mode")
	}

	for {
		if app.Update() {
			break
		}
	}
}

// Update runs one frame and reports whether the final state was reached.
func (app *App) Update() (finished bool) {
	app.withWorld(func() {
		app.callSystems(app.state, execute)

		if !app.stateful {
			return
		}
		if app.stateTransitioning {
			app.stateTransitioning = false
			app.executeChangeState(app.nextState)
		}
		if app.state == app.finalState {
			app.callSystems(app.state, exit)
			finished = true
		}
	})
	return finished
}

// Exclusive runs fn with the world lock held and flushes the commands it
// queued. Use it to touch the ECS from outside a system while background
// modules are running.
func (app *App) Exclusive(fn func(cmd *Commands)) {
	app.withWorld(func() {
		fn(app.Commands())
		app.FlushCommands()
	})
}

func (app *App) withWorld(fn func()) {
	app.worldMu.Lock()
	defer app.worldMu.Unlock()
	fn()
}

// OnShutdown registers fn to run when the app stops. Hooks run in reverse
// registration order.
func (app *App) OnShutdown(fn func()) {
	app.shutdownHooks = append(app.shutdownHooks, fn)
}

// Shutdown runs the shutdown hooks once. It is safe to call more than once.
func (app *App) Shutdown() {
	app.shutdownOnce.Do(func() {
		for i := len(app.shutdownHooks) - 1; i >= 0; i-- {
			app.shutdownHooks[i]()
		}
	})
}

func (app *App) callSystems(state State, phase statePhase) {
	for _, stage := range app.stages {
		// On execute, call stateless/always run systems first
		if execute == phase {
			for _, system := range app.systemsStateless[stage.Name] {
				app.callSystem(system)
			}
		}

		// Call stateful systems, if required
		if app.stateful {
			if systemsInStage, ok := app.systems[stage.Name]; ok {
				if systemsInState, ok := systemsInStage[state]; ok {
					for _, system := range systemsInState[phase] {
						app.callSystem(system)
					}
				}
			}
		}
		app.FlushCommands()
	}
}

func (app *App) changeState(newState State) {
	app.nextState = newState
	app.stateTransitioning = true
}

func (app *App) executeChangeState(newState State) {
	app.callSystems(app.state, exit)
	app.state = newState
	app.callSystems(app.state, enter)
}

func (app *App) addResources(resources ...any) *App {
	for _, resource := range resources {
		resourceType := reflect.TypeOf(resource)
		if _, ok := app.resources[resourceType.Elem()]; ok {
			panic(fmt.Sprintf("%s is already in resources", resourceType))
		}

		app.resources[resourceType.Elem()] = resource
	}
	return app
}

// Resource returns the resource of type T registered with the app.
func Resource[T any](app *App) (*T, bool) {
	r, ok := app.resources[typeOf[T]()]
	if !ok {
		return nil, false
	}
	return r.(*T), true
}

var typeOfCommands = reflect.TypeOf(Commands{})

func (app *App) callSystem(system systemFn) {
	systemType := reflect.TypeOf(system)
	systemValue := reflect.ValueOf(system)

	args := make([]reflect.Value, systemType.NumIn())

	for i := 0; i < systemType.NumIn(); i++ {
		argType := systemType.In(i)
		if argType.Kind() != reflect.Pointer {
			app.unresolvedDependency(systemValue, systemType, argType)
		}
		underlyingType := argType.Elem()

		if underlyingType == typeOfCommands {
			args[i] = reflect.ValueOf(&Commands{app: app})
		} else if resource, argIsResource := app.resources[underlyingType]; argIsResource {
			args[i] = reflect.ValueOf(resource)
		} else {
			app.unresolvedDependency(systemValue, systemType, argType)
		}
	}
	systemValue.Call(args)
}

func (app *App) unresolvedDependency(systemValue reflect.Value, systemType, argType reflect.Type) {
	msg := fmt.Sprintf("Unable to resolve System dependency.\nSystem: %s\nSystem type: %s\nDependency: %s",
		runtime.FuncForPC(systemValue.Pointer()).Name(),
		fmt.Sprint(systemType),
		fmt.Sprint(argType),
	)
	app.Logger().Errorf("%s", msg)
	panic(msg)
}

func (app *App) FlushCommands() {
	if len(app.pendingAdditions) == 0 && len(app.pendingRemovals) == 0 &&
		len(app.pendingCompAdds) == 0 && len(app.pendingCompRemovals) == 0 {
		return
	}

	// Removals first so we don't add to dead entities.
	for _, eid := range app.pendingRemovals {
		if app.ecs.hasEntity(eid) {
			app.ecs.removeEntity(eid)
		}
	}
	app.pendingRemovals = app.pendingRemovals[:0]

	for _, add := range app.pendingAdditions {
		app.ecs.insertEntity(add.eid, add.components...)
	}
	app.pendingAdditions = app.pendingAdditions[:0]

	for _, add := range app.pendingCompAdds {
		if app.ecs.hasEntity(add.eid) {
			app.ecs.addComponents(add.eid, add.components...)
		}
	}
	app.pendingCompAdds = app.pendingCompAdds[:0]

	for _, rm := range app.pendingCompRemovals {
		if app.ecs.hasEntity(rm.eid) {
			app.ecs.removeComponents(rm.eid, rm.components...)
		}
	}
	app.pendingCompRemovals = app.pendingCompRemovals[:0]
}
