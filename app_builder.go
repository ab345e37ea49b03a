package gekko

import (
	"reflect"
)

type AppBuilder struct {
	app     *App
	modules []Module
}

func NewAppBuilder() *AppBuilder {
	ecs := MakeEcs()
	return &AppBuilder{app: &App{
		resources: make(map[reflect.Type]any),
		stateful:  false,
		ecs:       &ecs,
	}}
}

// UseStates switches the app to stateful mode. States are the integers in
// [initialState, finalState]; reaching finalState ends Run.
func (b *AppBuilder) UseStates(initialState State, finalState State) *AppBuilder {
	b.app.stateful = true
	b.app.initialState = initialState
	b.app.state = initialState
	b.app.finalState = finalState

	return b
}

func (b *AppBuilder) UseModule(modules ...Module) *AppBuilder {
	b.modules = append(b.modules, modules...)

	return b
}

// Build creates the stages and installs the modules in the order they were
// added.
func (b *AppBuilder) Build() *App {
	app := b.app
	app.ensureStages()
	commands := &Commands{app: app}

	for _, module := range b.modules {
		module.Install(app, commands)
	}
	app.withWorld(app.FlushCommands)

	return app
}
