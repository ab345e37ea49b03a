package gekko

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingModule struct {
	name  string
	order *[]string
}

func (m recordingModule) Install(app *App, cmd *Commands) {
	*m.order = append(*m.order, m.name)
}

type gravityWell struct {
	strength float32
}

// spawnerModule registers a resource and queues a body during Install.
type spawnerModule struct {
	spawned EntityId
}

func (m *spawnerModule) Install(app *App, cmd *Commands) {
	cmd.AddResources(&gravityWell{strength: 9.81})
	m.spawned = cmd.AddEntity(&TransformComponent{Position: mgl32.Vec3{0, 3, 0}}, &RigidBodyComponent{})
}

func TestAppBuilder_Stateless(t *testing.T) {
	app := NewAppBuilder().Build()

	assert.False(t, app.stateful)
	assert.Equal(t, State(0), app.initialState)
	assert.Equal(t, State(0), app.finalState)

	var names []string
	for _, stage := range app.stages {
		names = append(names, stage.Name)
	}
	assert.Equal(t, []string{"Prelude", "PreUpdate", "Update", "FixedStep", "PostUpdate", "Finale"}, names)
}

func TestAppBuilder_UseStates(t *testing.T) {
	app := NewAppBuilder().UseStates(1, 3).Build()

	assert.True(t, app.stateful)
	assert.Equal(t, State(1), app.initialState)
	assert.Equal(t, State(1), app.state)
	assert.Equal(t, State(3), app.finalState)

	// One schedule table per state in the range.
	require.Contains(t, app.systems, FixedStep.Name)
	assert.Len(t, app.systems[FixedStep.Name], 3)
}

func TestAppBuilder_InstallsModulesInOrder(t *testing.T) {
	var order []string
	builder := NewAppBuilder().
		UseModule(recordingModule{name: "assets", order: &order}).
		UseModule(recordingModule{name: "physics", order: &order}, recordingModule{name: "presets", order: &order})

	assert.Empty(t, order)
	builder.Build()
	assert.Equal(t, []string{"assets", "physics", "presets"}, order)
}

func TestAppBuilder_BuildFlushesInstallCommands(t *testing.T) {
	spawner := &spawnerModule{}
	app := NewAppBuilder().UseModule(spawner).Build()

	cmd := app.Commands()
	assert.True(t, cmd.HasEntity(spawner.spawned))
	assert.Equal(t, 1, cmd.EntityCount())

	tr, ok := GetComponent[TransformComponent](cmd, spawner.spawned)
	require.True(t, ok)
	assert.Equal(t, mgl32.Vec3{0, 3, 0}, tr.Position)

	well, ok := Resource[gravityWell](app)
	require.True(t, ok)
	assert.Equal(t, float32(9.81), well.strength)

	// The world lock taken for the flush is released again.
	require.True(t, app.worldMu.TryLock())
	app.worldMu.Unlock()
}

func TestAppBuilder_StatefulModuleSystems(t *testing.T) {
	counter := &frameCounter{}
	app := NewAppBuilder().
		UseStates(0, 1).
		UseModule(moduleFunc(func(app *App, cmd *Commands) {
			cmd.AddResources(counter)
			app.UseSystem(System(func(c *frameCounter) { c.frames++ }).
				InStage(FixedStep).
				InState(OnEnter(0)))
		})).
		Build()

	app.withWorld(func() { app.callSystems(0, enter) })
	assert.Equal(t, 1, counter.frames)
}

type moduleFunc func(app *App, cmd *Commands)

func (f moduleFunc) Install(app *App, cmd *Commands) { f(app, cmd) }
