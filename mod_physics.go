package gekko

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/gekko3d/gekko-physics/physics"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
)

type PhysicsMode int

const (
	// PhysicsAsync ticks on a background goroutine at the configured rate.
	PhysicsAsync PhysicsMode = iota
	// PhysicsStepped ticks once per frame in the FixedStep stage.
	PhysicsStepped
)

// PhysicsModule simulates every entity that has a TransformComponent, a
// RigidBodyComponent and a ColliderComponent. It needs the AssetServerModule.
type PhysicsModule struct {
	// Config is used as is when ConfigPath is empty. A zero Config means
	// physics.DefaultConfig().
	Config     physics.Config
	ConfigPath string
	Mode       PhysicsMode
}

func (m PhysicsModule) Install(app *App, cmd *Commands) {
	log := app.Logger()

	cfg := m.Config
	if m.ConfigPath != "" {
		loaded, err := physics.LoadConfigFile(m.ConfigPath)
		if err != nil {
			log.Errorf("physics: cannot load %s: %v", m.ConfigPath, err)
			panic(err)
		}
		cfg = loaded
	} else if cfg == (physics.Config{}) {
		cfg = physics.DefaultConfig()
	}

	assets, ok := Resource[AssetServer](app)
	if !ok {
		panic("PhysicsModule requires the AssetServerModule")
	}

	world, err := physics.NewWorld(cfg)
	if err != nil {
		log.Errorf("physics: %v", err)
		panic(err)
	}
	world.SetLogger(log)

	registry := &ecsBodyRegistry{
		app:    app,
		assets: assets,
		log:    log,
		// A stepped tick runs inside a frame that already holds the lock.
		locking: m.Mode == PhysicsAsync,
	}
	pw := &PhysicsWorld{world: world, scene: registry, log: log}
	cmd.AddResources(pw)

	switch m.Mode {
	case PhysicsAsync:
		pw.Start()
		app.OnShutdown(pw.Stop)
	case PhysicsStepped:
		app.UseSystem(
			System(physicsStepSystem).
				InStage(FixedStep).
				RunAlways(),
		)
	}
	log.Infof("physics: %s mode, tick %v, gravity %v", m.Mode, cfg.TickDuration(), cfg.Gravity)
}

func (m PhysicsMode) String() string {
	if m == PhysicsStepped {
		return "stepped"
	}
	return "async"
}

// PhysicsWorld is the physics resource. It owns the simulation and the
// goroutine that drives it in async mode.
type PhysicsWorld struct {
	world *physics.World
	scene physics.Scene
	log   Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	stopped chan struct{}
}

func (pw *PhysicsWorld) SetGravity(g mgl32.Vec3) {
	pw.world.SetGravity(vec64(g))
}

func (pw *PhysicsWorld) Gravity() mgl32.Vec3 {
	return vec32(pw.world.Gravity())
}

func (pw *PhysicsWorld) Stats() physics.TickStats {
	return pw.world.Stats()
}

func (pw *PhysicsWorld) Phase() physics.TickPhase {
	return pw.world.Phase()
}

func (pw *PhysicsWorld) Config() physics.Config {
	return pw.world.Config()
}

// Tick runs one simulation tick synchronously. In async mode it must not be
// called from a system, the bridge would wait for the lock the frame holds.
func (pw *PhysicsWorld) Tick() time.Duration {
	return pw.world.Tick(pw.scene)
}

// Start launches the tick goroutine. It does nothing if already running.
func (pw *PhysicsWorld) Start() {
	pw.mu.Lock()
	defer pw.mu.Unlock()
	if pw.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	pw.cancel = cancel
	pw.stopped = stopped

	go func() {
		defer close(stopped)
		pw.world.Run(ctx, pw.scene)
	}()
	pw.log.Debugf("physics: loop started")
}

// Stop asks the tick goroutine to finish and waits for it. The tick in
// flight, if any, completes first.
func (pw *PhysicsWorld) Stop() {
	pw.mu.Lock()
	cancel, stopped := pw.cancel, pw.stopped
	pw.cancel, pw.stopped = nil, nil
	pw.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-stopped
	pw.log.Debugf("physics: loop stopped")
}

func (pw *PhysicsWorld) Running() bool {
	pw.mu.Lock()
	defer pw.mu.Unlock()
	return pw.cancel != nil
}

func physicsStepSystem(pw *PhysicsWorld) {
	pw.Tick()
}

// SpawnBody queues an entity with the three physics components. A zero
// rotation becomes the identity and a zero scale becomes one.
func SpawnBody(cmd *Commands, tr TransformComponent, rb RigidBodyComponent, col ColliderComponent) EntityId {
	if tr.Rotation == (mgl32.Quat{}) {
		tr.Rotation = mgl32.QuatIdent()
	}
	if tr.Scale == (mgl32.Vec3{}) {
		tr.Scale = mgl32.Vec3{1, 1, 1}
	}
	return cmd.AddEntity(&tr, &rb, &col)
}

// ecsBodyRegistry is the physics.Scene view of the ECS. Bodies are keyed by
// EntityId so entities spawned or removed while a tick runs are handled on
// Writeback.
type ecsBodyRegistry struct {
	app     *App
	assets  *AssetServer
	log     Logger
	locking bool
}

func (r *ecsBodyRegistry) lock() func() {
	if !r.locking {
		return func() {}
	}
	r.app.worldMu.Lock()
	return r.app.worldMu.Unlock
}

func (r *ecsBodyRegistry) Snapshot() []physics.Body {
	defer r.lock()()

	var bodies []physics.Body
	cmd := r.app.Commands()
	MakeQuery3[TransformComponent, RigidBodyComponent, ColliderComponent](cmd).Map(
		func(eid EntityId, tr *TransformComponent, rb *RigidBodyComponent, col *ColliderComponent) bool {
			collider, ok := r.assets.Collider(col.Collider)
			if !ok {
				r.log.Warnf("physics: entity %d references unknown collider %s", eid, col.Collider)
				return true
			}
			material := physics.Material{
				Density:     float64(col.Density),
				Friction:    float64(col.Friction),
				Restitution: float64(col.Restitution),
			}
			bodies = append(bodies, physics.Body{
				ID:              physics.BodyID(eid),
				Position:        vec64(tr.Position),
				Velocity:        vec64(rb.Velocity),
				Rotation:        quat64(tr.Rotation),
				AngularVelocity: vec64(rb.AngularVelocity),
				Mass:            physics.ResolveMass(collider, material, float64(rb.Mass)),
				GravityScale:    vec64(rb.GravityScale),
				IsStatic:        rb.IsStatic,
				Material:        material,
				Collider:        collider,
			})
			return true
		})

	// Queries already run in id order; keep the pair scan order explicit.
	slices.SortFunc(bodies, func(a, b physics.Body) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
	return bodies
}

func (r *ecsBodyRegistry) Writeback(bodies []physics.Body) {
	defer r.lock()()

	byID := make(map[EntityId]*physics.Body, len(bodies))
	for i := range bodies {
		byID[EntityId(bodies[i].ID)] = &bodies[i]
	}

	cmd := r.app.Commands()
	MakeQuery2[TransformComponent, RigidBodyComponent](cmd).Map(
		func(eid EntityId, tr *TransformComponent, rb *RigidBodyComponent) bool {
			b, ok := byID[eid]
			if !ok || b.IsStatic {
				return true
			}
			tr.Position = vec32(b.Position)
			tr.Rotation = quat32(b.Rotation)
			rb.Velocity = vec32(b.Velocity)
			rb.AngularVelocity = vec32(b.AngularVelocity)
			return true
		})
}

// BodyState reports the last written back state of an entity in physics
// precision.
func BodyState(cmd *Commands, eid EntityId) (position, velocity mgl64.Vec3, ok bool) {
	tr, ok := GetComponent[TransformComponent](cmd, eid)
	if !ok {
		return position, velocity, false
	}
	rb, ok := GetComponent[RigidBodyComponent](cmd, eid)
	if !ok {
		return position, velocity, false
	}
	return vec64(tr.Position), vec64(rb.Velocity), true
}
