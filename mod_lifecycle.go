package gekko

import (
	"time"
)

// LifetimeComponent removes an entity once TimeLeft runs out.
type LifetimeComponent struct {
	TimeLeft time.Duration
}

// LifecycleModule despawns expired entities and bodies that fell below
// KillPlaneY. The physics bridge tolerates the removal while a tick is in
// flight.
type LifecycleModule struct {
	KillPlaneY float32
	// NoKillPlane disables the height check.
	NoKillPlane bool
}

type lifecycleSettings struct {
	killPlaneY float32
	killPlane  bool
}

func (mod LifecycleModule) Install(app *App, cmd *Commands) {
	cmd.AddResources(&lifecycleSettings{
		killPlaneY: mod.KillPlaneY,
		killPlane:  !mod.NoKillPlane,
	})
	app.UseSystem(
		System(lifetimeSystem).
			InStage(PostUpdate).
			RunAlways(),
	)
	app.UseSystem(
		System(killPlaneSystem).
			InStage(PostUpdate).
			RunAlways(),
	)
}

func lifetimeSystem(t *Time, cmd *Commands) {
	if t.Dt <= 0 {
		return
	}
	log := cmd.app.Logger()
	MakeQuery1[LifetimeComponent](cmd).Map(func(eid EntityId, lt *LifetimeComponent) bool {
		lt.TimeLeft -= t.Dt
		if lt.TimeLeft <= 0 {
			log.Debugf("lifecycle: entity %d expired", eid)
			cmd.RemoveEntity(eid)
		}
		return true
	})
}

func killPlaneSystem(settings *lifecycleSettings, cmd *Commands) {
	if !settings.killPlane {
		return
	}
	log := cmd.app.Logger()
	MakeQuery2[TransformComponent, RigidBodyComponent](cmd).Map(func(eid EntityId, tr *TransformComponent, rb *RigidBodyComponent) bool {
		if !rb.IsStatic && tr.Position.Y() < settings.killPlaneY {
			log.Debugf("lifecycle: entity %d fell below %.2f", eid, settings.killPlaneY)
			cmd.RemoveEntity(eid)
		}
		return true
	})
}
