// Drops a cube onto a static floor, or runs a saved scene preset, and reports
// where the bodies came to rest.
package main

import (
	"flag"
	"fmt"
	"os"

	gekko "github.com/gekko3d/gekko-physics"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	stateSimulating gekko.State = iota
	stateDone
)

type options struct {
	configPath  string
	scenePath   string
	savePath    string
	ticks       int
	restitution float64
	logEvery    int
	debug       bool
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", "", "physics config (TOML)")
	flag.StringVar(&opts.scenePath, "scene", "", "scene preset to load (.json or .yaml) instead of the cube drop")
	flag.StringVar(&opts.savePath, "save", "", "write the final scene to this preset file")
	flag.IntVar(&opts.ticks, "ticks", 500, "number of physics ticks to run")
	flag.Float64Var(&opts.restitution, "restitution", 0.5, "restitution of the dropped cube")
	flag.IntVar(&opts.logEvery, "log-every", 50, "log body positions every n ticks, 0 disables")
	flag.BoolVar(&opts.debug, "debug", false, "enable debug logging")
	flag.Parse()

	if opts.ticks <= 0 {
		fmt.Fprintln(os.Stderr, "dropsim: -ticks must be positive")
		os.Exit(2)
	}

	app := gekko.NewAppBuilder().
		UseStates(stateSimulating, stateDone).
		UseModule(
			gekko.LoggingModule{Prefix: "dropsim", Debug: opts.debug},
			gekko.TimeModule{},
			gekko.AssetServerModule{},
			gekko.PhysicsModule{ConfigPath: opts.configPath, Mode: gekko.PhysicsStepped},
			gekko.LifecycleModule{KillPlaneY: -100},
			&dropModule{opts: opts},
		).
		Build()

	app.Run()
}

// dropModule spawns the scene and ends the run after the requested number of
// ticks.
type dropModule struct {
	opts     options
	entities []gekko.EntityId
	ticks    int
}

func (m *dropModule) Install(app *gekko.App, cmd *gekko.Commands) {
	log := app.Logger()
	assets, _ := gekko.Resource[gekko.AssetServer](app)

	if m.opts.scenePath != "" {
		entities, err := gekko.LoadScenePreset(cmd, assets, m.opts.scenePath)
		if err != nil {
			log.Errorf("%v", err)
			os.Exit(1)
		}
		m.entities = entities
		log.Infof("loaded %d bodies from %s", len(entities), m.opts.scenePath)
	} else {
		m.entities = spawnCubeDrop(cmd, assets, float32(m.opts.restitution))
	}

	app.UseSystem(
		gekko.System(m.progress).
			InStage(gekko.PostUpdate).
			InState(gekko.OnExecute(stateSimulating)),
	)
	app.UseSystem(
		gekko.System(m.summary).
			InStage(gekko.Finale).
			InState(gekko.OnEnter(stateDone)),
	)
}

func spawnCubeDrop(cmd *gekko.Commands, assets *gekko.AssetServer, restitution float32) []gekko.EntityId {
	floorShape := assets.CreateBoxCollider("floor", mgl32.Vec3{50, 0.5, 50})
	cubeShape := assets.CreateBoxCollider("cube", mgl32.Vec3{0.5, 0.5, 0.5})

	floor := gekko.SpawnBody(cmd,
		gekko.NewTransform(mgl32.Vec3{0, -0.5, 0}),
		gekko.NewStaticBody(),
		gekko.ColliderComponent{Collider: floorShape, Friction: 0.5, Restitution: restitution},
	)

	rb := gekko.NewRigidBody(0)
	rb.Velocity = mgl32.Vec3{0, 10, 0}
	cube := gekko.SpawnBody(cmd,
		gekko.NewTransform(mgl32.Vec3{0.3, 2, -0.2}),
		rb,
		gekko.ColliderComponent{Collider: cubeShape, Density: 1, Friction: 0.5, Restitution: restitution},
	)
	return []gekko.EntityId{floor, cube}
}

func (m *dropModule) progress(pw *gekko.PhysicsWorld, cmd *gekko.Commands) {
	m.ticks++
	log := cmd.App().Logger()

	if m.opts.logEvery > 0 && m.ticks%m.opts.logEvery == 0 {
		for _, eid := range m.entities {
			pos, vel, ok := gekko.BodyState(cmd, eid)
			if !ok {
				continue
			}
			log.Infof("tick %d: body %d at (%.3f, %.3f, %.3f) speed %.3f",
				m.ticks, eid, pos.X(), pos.Y(), pos.Z(), vel.Len())
		}
		stats := pw.Stats()
		log.Debugf("tick %d: %d pairs, %d contacts, %d errors, slack %v",
			m.ticks, stats.Pairs, stats.Contacts, stats.Errors, stats.Slack)
	}

	if m.ticks >= m.opts.ticks {
		cmd.ChangeState(stateDone)
	}
}

func (m *dropModule) summary(pw *gekko.PhysicsWorld, cmd *gekko.Commands) {
	log := cmd.App().Logger()

	fmt.Printf("ran %d ticks of %v\n", m.ticks, pw.Config().TickDuration())
	for _, eid := range m.entities {
		pos, vel, ok := gekko.BodyState(cmd, eid)
		if !ok {
			fmt.Printf("body %d: removed\n", eid)
			continue
		}
		fmt.Printf("body %d: position (%.4f, %.4f, %.4f) velocity (%.4f, %.4f, %.4f)\n",
			eid, pos.X(), pos.Y(), pos.Z(), vel.X(), vel.Y(), vel.Z())
	}

	if m.opts.savePath == "" {
		return
	}
	assets, _ := gekko.Resource[gekko.AssetServer](cmd.App())
	if err := gekko.SaveScenePreset(cmd, assets, m.opts.savePath); err != nil {
		log.Errorf("saving %s: %v", m.opts.savePath, err)
		return
	}
	log.Infof("saved scene to %s", m.opts.savePath)
}
