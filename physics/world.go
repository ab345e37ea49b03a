package physics

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-gl/mathgl/mgl64"
)

// Scene is the collaborator that owns the authoritative bodies. Snapshot is
// called once at the start of every tick and Writeback once at its end, with
// the same bodies mutated in place. Writeback must match bodies by ID.
type Scene interface {
	Snapshot() []Body
	Writeback(bodies []Body)
}

type TickPhase int32

const (
	PhaseIdle TickPhase = iota
	PhaseSnapshot
	PhaseIntegrate
	PhasePairScan
	PhaseWriteback
)

func (p TickPhase) String() string {
	switch p {
	case PhaseIdle:
		return "Idle"
	case PhaseSnapshot:
		return "Snapshot"
	case PhaseIntegrate:
		return "Integrate"
	case PhasePairScan:
		return "PairScan"
	case PhaseWriteback:
		return "Writeback"
	}
	return "Unknown"
}

// TickStats counts the work done by the last tick.
type TickStats struct {
	Bodies            int
	Pairs             int
	BroadPhaseRejects int
	NarrowPhaseTests  int
	Contacts          int
	Errors            int
	Elapsed           time.Duration
	Slack             time.Duration
}

// World runs the fixed-rate simulation over a Scene.
type World struct {
	mu  sync.Mutex
	cfg Config
	log Logger

	phase atomic.Int32
	stats atomic.Pointer[TickStats]
}

func NewWorld(cfg Config) (*World, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	w := &World{cfg: cfg, log: nopLogger{}}
	w.stats.Store(&TickStats{})
	return w, nil
}

func (w *World) SetLogger(l Logger) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if l == nil {
		l = nopLogger{}
	}
	w.log = l
}

func (w *World) Config() Config {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.cfg
}

func (w *World) SetGravity(g mgl64.Vec3) {
	w.mu.Lock()
	w.cfg.Gravity = g
	w.mu.Unlock()
}

func (w *World) Gravity() mgl64.Vec3 {
	return w.Config().Gravity
}

func (w *World) Phase() TickPhase {
	return TickPhase(w.phase.Load())
}

func (w *World) Stats() TickStats {
	return *w.stats.Load()
}

func (w *World) logger() Logger {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.log
}

func (w *World) setPhase(p TickPhase) {
	w.phase.Store(int32(p))
}

// Tick runs one Snapshot, Integrate, PairScan, Writeback cycle and returns the
// slack left in the tick budget. The slack is negative on overrun.
func (w *World) Tick(scene Scene) time.Duration {
	start := time.Now()
	cfg := w.Config()

	w.setPhase(PhaseSnapshot)
	bodies := scene.Snapshot()

	stats := w.step(bodies, cfg)

	w.setPhase(PhaseWriteback)
	scene.Writeback(bodies)
	w.setPhase(PhaseIdle)

	stats.Elapsed = time.Since(start)
	stats.Slack = cfg.TickDuration() - stats.Elapsed
	w.stats.Store(&stats)

	if stats.Contacts > 0 || stats.Errors > 0 {
		w.logger().Debugf("physics tick: %d bodies, %d contacts, %d errors, slack %v",
			stats.Bodies, stats.Contacts, stats.Errors, stats.Slack)
	}
	return stats.Slack
}

// Step integrates and collides bodies in place without a Scene.
func (w *World) Step(bodies []Body) TickStats {
	stats := w.step(bodies, w.Config())
	w.setPhase(PhaseIdle)
	w.stats.Store(&stats)
	return stats
}

func (w *World) step(bodies []Body, cfg Config) TickStats {
	stats := TickStats{Bodies: len(bodies)}

	w.setPhase(PhaseIntegrate)
	for i := range bodies {
		b := &bodies[i]
		if b.Rotation == (mgl64.Quat{}) {
			b.Rotation = mgl64.QuatIdent()
		}
		Integrate(b, cfg.TickSeconds, cfg.Gravity)
	}

	w.setPhase(PhasePairScan)
	epa := EPAOptions{
		MaxIterations:  cfg.MaxEPAIterations,
		Tolerance:      cfg.EPATolerance,
		DepthInflation: cfg.DepthInflation,
	}
	response := ResponseOptions{BounceThreshold: cfg.RestingSpeed()}
	for i := 0; i < len(bodies); i++ {
		for j := i + 1; j < len(bodies); j++ {
			a, b := &bodies[i], &bodies[j]
			if a.Collider == nil || b.Collider == nil || (a.IsStatic && b.IsStatic) {
				continue
			}
			stats.Pairs++

			if BroadPhaseReject(a, b) {
				stats.BroadPhaseRejects++
				continue
			}

			stats.NarrowPhaseTests++
			hit, err := collide(a, b, cfg.MaxGJKIterations, epa, response)
			if err != nil {
				stats.Errors++
				w.logger().Warnf("physics: skipping pair %d/%d: %v", a.ID, b.ID, err)
				continue
			}
			if hit {
				stats.Contacts++
			}
		}
	}
	return stats
}

// collide runs the narrow phase on one pair and resolves the contact if the
// bodies overlap. A pair that fails is left untouched for this tick.
func collide(a, b *Body, maxGJK int, epa EPAOptions, response ResponseOptions) (bool, error) {
	res, err := Intersect(a, b, maxGJK)
	if err != nil {
		return false, err
	}
	if !res.Intersecting {
		return false, nil
	}

	contact, err := Penetration(res.Simplex, a, b, epa)
	if err != nil {
		return false, err
	}

	first, second := OrderPair(a, b, contact)
	ResolveWith(first, second, contact, response)
	return true, nil
}

// Run ticks the world at the configured rate until ctx is cancelled. The
// cancellation is observed between ticks, never inside one. An overrun tick
// is followed immediately by the next one and the schedule restarts from
// there instead of bursting to catch up.
func (w *World) Run(ctx context.Context, scene Scene) {
	timer := time.NewTimer(0)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	next := time.Now()
	for {
		if ctx.Err() != nil {
			return
		}

		w.Tick(scene)

		next = next.Add(w.Config().TickDuration())
		wait := time.Until(next)
		if wait <= 0 {
			w.logger().Debugf("physics tick overran by %v", -wait)
			next = time.Now()
			continue
		}

		timer.Reset(wait)
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}
	}
}
