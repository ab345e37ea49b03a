package gekko

import (
	"testing"
	"time"

	"github.com/gekko3d/gekko-physics/physics"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPhysicsConfig(tick float64) physics.Config {
	cfg := physics.DefaultConfig()
	cfg.Gravity = mgl64.Vec3{0, -10, 0}
	cfg.TickSeconds = tick
	return cfg
}

func buildPhysicsApp(t *testing.T, mode PhysicsMode, tick float64) (*App, *PhysicsWorld, *AssetServer) {
	t.Helper()
	app := NewAppBuilder().
		UseModule(AssetServerModule{}, PhysicsModule{Config: testPhysicsConfig(tick), Mode: mode}).
		Build()
	t.Cleanup(app.Shutdown)

	pw, ok := Resource[PhysicsWorld](app)
	require.True(t, ok)
	assets, ok := Resource[AssetServer](app)
	require.True(t, ok)
	return app, pw, assets
}

func spawnFloorAndCube(app *App, assets *AssetServer, cubeY float32) (floor, cube EntityId) {
	floorShape := assets.CreateBoxCollider("floor", mgl32.Vec3{50, 0.5, 50})
	cubeShape := assets.CreateBoxCollider("cube", mgl32.Vec3{0.5, 0.5, 0.5})

	app.Exclusive(func(cmd *Commands) {
		floor = SpawnBody(cmd,
			NewTransform(mgl32.Vec3{0, -0.5, 0}),
			NewStaticBody(),
			ColliderComponent{Collider: floorShape},
		)
		cube = SpawnBody(cmd,
			NewTransform(mgl32.Vec3{0.2, cubeY, -0.1}),
			NewRigidBody(0),
			ColliderComponent{Collider: cubeShape, Density: 2, Restitution: 0.4},
		)
	})
	return floor, cube
}

func TestPhysicsModule_SteppedCubeLandsOnFloor(t *testing.T) {
	app, pw, assets := buildPhysicsApp(t, PhysicsStepped, physics.TickSeconds)
	floor, cube := spawnFloorAndCube(app, assets, 3)

	for i := 0; i < 600; i++ {
		app.Update()
	}

	cmd := app.Commands()
	pos, vel, ok := BodyState(cmd, cube)
	require.True(t, ok)
	assert.InDelta(t, 0.5, pos.Y(), 0.1)
	assert.Less(t, vel.Len(), 0.5)

	floorPos, _, ok := BodyState(cmd, floor)
	require.True(t, ok)
	assert.Equal(t, mgl64.Vec3{0, -0.5, 0}, floorPos)

	stats := pw.Stats()
	assert.Equal(t, 2, stats.Bodies)
	assert.Equal(t, 1, stats.Pairs)
	assert.Equal(t, physics.PhaseIdle, pw.Phase())
	assert.False(t, pw.Running())
}

func TestPhysicsModule_MassFromDensity(t *testing.T) {
	app, pw, assets := buildPhysicsApp(t, PhysicsStepped, physics.TickSeconds)
	shape := assets.CreateBoxCollider("cube", mgl32.Vec3{0.5, 0.5, 0.5})

	var heavy, light EntityId
	app.Exclusive(func(cmd *Commands) {
		heavy = SpawnBody(cmd, NewTransform(mgl32.Vec3{0, 0, 0}),
			RigidBodyComponent{}, ColliderComponent{Collider: shape, Density: 3})
		light = SpawnBody(cmd, NewTransform(mgl32.Vec3{0.5, 0, 0}),
			RigidBodyComponent{}, ColliderComponent{Collider: shape, Density: 1})
	})
	pw.Tick()

	cmd := app.Commands()
	heavyPos, _, _ := BodyState(cmd, heavy)
	lightPos, _, _ := BodyState(cmd, light)
	// Correction splits by inverse mass, the light cube moves three times as far.
	assert.InDelta(t, 3.0, (lightPos.X()-0.5)/(-heavyPos.X()), 0.05)
	// Zero gravity scale keeps both on the plane.
	assert.InDelta(t, 0.0, heavyPos.Y(), 1e-6)
}

func TestPhysicsModule_AsyncLoop(t *testing.T) {
	app, pw, assets := buildPhysicsApp(t, PhysicsAsync, 0.001)
	require.True(t, pw.Running())

	_, cube := spawnFloorAndCube(app, assets, 5)

	assert.Eventually(t, func() bool {
		var y float64
		app.Exclusive(func(cmd *Commands) {
			pos, _, _ := BodyState(cmd, cube)
			y = pos.Y()
		})
		return y < 4.5
	}, 2*time.Second, 5*time.Millisecond)

	app.Shutdown()
	assert.False(t, pw.Running())
	assert.Equal(t, physics.PhaseIdle, pw.Phase())

	// Nothing moves once the loop is stopped.
	var before, after mgl64.Vec3
	app.Exclusive(func(cmd *Commands) { before, _, _ = BodyState(cmd, cube) })
	time.Sleep(20 * time.Millisecond)
	app.Exclusive(func(cmd *Commands) { after, _, _ = BodyState(cmd, cube) })
	assert.Equal(t, before, after)
}

func TestPhysicsWorld_Gravity(t *testing.T) {
	_, pw, _ := buildPhysicsApp(t, PhysicsStepped, physics.TickSeconds)

	assert.Equal(t, mgl32.Vec3{0, -10, 0}, pw.Gravity())
	pw.SetGravity(mgl32.Vec3{0, 0, -3})
	assert.Equal(t, mgl32.Vec3{0, 0, -3}, pw.Gravity())
	assert.Equal(t, mgl64.Vec3{0, 0, -3}, pw.Config().Gravity)
}

func TestEcsBodyRegistry_WritebackSkipsRemovedEntities(t *testing.T) {
	app, _, assets := buildPhysicsApp(t, PhysicsStepped, physics.TickSeconds)
	a, b := spawnFloorAndCube(app, assets, 2)
	registry := &ecsBodyRegistry{app: app, assets: assets, log: NewNopLogger()}

	bodies := registry.Snapshot()
	require.Len(t, bodies, 2)
	assert.Equal(t, physics.BodyID(a), bodies[0].ID)
	assert.Equal(t, physics.BodyID(b), bodies[1].ID)
	assert.Equal(t, mgl64.QuatIdent(), bodies[1].Rotation)
	assert.InDelta(t, 2.0, bodies[1].Mass, 1e-6)

	// The cube is despawned and a new body appears while the tick runs.
	app.Exclusive(func(cmd *Commands) {
		cmd.RemoveEntity(b)
	})
	var late EntityId
	app.Exclusive(func(cmd *Commands) {
		late = SpawnBody(cmd, NewTransform(mgl32.Vec3{7, 7, 7}), NewRigidBody(1),
			ColliderComponent{Collider: assets.CreateBoxCollider("late", mgl32.Vec3{1, 1, 1})})
	})

	for i := range bodies {
		bodies[i].Position = bodies[i].Position.Add(mgl64.Vec3{0, 1, 0})
	}
	registry.Writeback(bodies)

	cmd := app.Commands()
	assert.False(t, cmd.HasEntity(b))
	latePos, _, ok := BodyState(cmd, late)
	require.True(t, ok)
	assert.Equal(t, mgl64.Vec3{7, 7, 7}, latePos)

	// Static bodies are never written back.
	floorPos, _, _ := BodyState(cmd, a)
	assert.Equal(t, mgl64.Vec3{0, -0.5, 0}, floorPos)
}

func TestEcsBodyRegistry_UnknownColliderIsSkipped(t *testing.T) {
	app, _, assets := buildPhysicsApp(t, PhysicsStepped, physics.TickSeconds)
	app.Exclusive(func(cmd *Commands) {
		SpawnBody(cmd, NewTransform(mgl32.Vec3{}), NewRigidBody(1), ColliderComponent{Collider: "nope"})
	})

	registry := &ecsBodyRegistry{app: app, assets: assets, log: NewNopLogger()}
	assert.Empty(t, registry.Snapshot())
}

func TestPhysicsModule_RequiresAssetServer(t *testing.T) {
	assert.Panics(t, func() {
		NewAppBuilder().UseModule(PhysicsModule{Mode: PhysicsStepped}).Build()
	})
}
