package physics

import (
	"github.com/go-gl/mathgl/mgl64"
)

// Integrate advances one body by dt under gravity.
//
// Gravity is applied as two half kicks around the drift. Both kicks use the
// same acceleration, so the net velocity change equals a single full kick but
// the drift sees only half of it.
func Integrate(b *Body, dt float64, gravity mgl64.Vec3) {
	if b.IsStatic {
		return
	}

	halfKick := mulElem(gravity, b.GravityScale).Mul(dt / 2)

	b.Velocity = b.Velocity.Add(halfKick)
	b.Position = b.Position.Add(b.Velocity.Mul(dt))
	b.Velocity = b.Velocity.Add(halfKick)

	// q' = q + 0.5 * q * (0, w) * dt
	spin := b.Rotation.Mul(mgl64.Quat{W: 0, V: b.AngularVelocity}).Scale(0.5 * dt)
	b.Rotation = b.Rotation.Add(spin).Normalize()
}

func mulElem(a, b mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{a[0] * b[0], a[1] * b[1], a[2] * b[2]}
}
