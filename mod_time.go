package gekko

import (
	"time"
)

// Time tracks the wall clock of the frame loop. The physics tick does not
// read it, it runs on its own fixed step.
type Time struct {
	Time    time.Time
	Dt      time.Duration
	Start   time.Time
	Frames  uint64
	Elapsed time.Duration
}

// DeltaSeconds returns the last frame duration in seconds.
func (t *Time) DeltaSeconds() float32 {
	return float32(t.Dt.Seconds())
}

type TimeModule struct{}

func (mod TimeModule) Install(app *App, cmd *Commands) {
	now := time.Now()
	cmd.AddResources(&Time{
		Time:  now,
		Start: now,
	})
	app.UseSystem(
		System(timeSystem).
			InStage(Prelude).
			RunAlways(),
	)
}

func timeSystem(timeResource *Time) {
	now := time.Now()

	timeResource.Dt = now.Sub(timeResource.Time)
	timeResource.Time = now
	timeResource.Elapsed = now.Sub(timeResource.Start)
	timeResource.Frames++
}
