package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

const frictionEpsilon = 1e-4

// OrderPair returns the pair so that the first body is the one whose center
// lies furthest behind the contact along the normal. Resolve pushes the first
// body along -Normal and the second along +Normal, so ordering makes the
// correction independent of which body GJK saw first.
func OrderPair(a, b *Body, c Contact) (*Body, *Body) {
	da := c.Normal.Dot(c.Point.Sub(a.Position))
	db := c.Normal.Dot(c.Point.Sub(b.Position))
	if db > da {
		return b, a
	}
	return a, b
}

// ResponseOptions tunes Resolve.
type ResponseOptions struct {
	// BounceThreshold is the closing speed below which a contact is treated
	// as resting: restitution is dropped and the normal velocity cancelled.
	BounceThreshold float64
}

// Resolve separates an ordered colliding pair and applies the normal and
// friction impulses. Every contact bounces.
func Resolve(a, b *Body, c Contact) {
	ResolveWith(a, b, c, ResponseOptions{})
}

// ResolveWith is Resolve with resting contact handling.
func ResolveWith(a, b *Body, c Contact, opts ResponseOptions) {
	invA, invB := a.InverseMass(), b.InverseMass()
	invSum := invA + invB
	if invSum == 0 {
		return
	}
	n := c.Normal

	// Full positional correction, split by inverse mass.
	a.Position = a.Position.Sub(n.Mul(c.Depth * invA / invSum))
	b.Position = b.Position.Add(n.Mul(c.Depth * invB / invSum))

	rv := b.Velocity.Sub(a.Velocity)
	velAlongNormal := rv.Dot(n)
	if velAlongNormal > 0 {
		// Already separating.
		return
	}

	// Restitution is the arithmetic mean of both bodies' coefficients.
	restitution := (a.Material.Restitution + b.Material.Restitution) / 2
	if -velAlongNormal < opts.BounceThreshold {
		// Resting contact.
		restitution = 0
	}
	j := -(1 + restitution) * velAlongNormal / invSum

	impulse := n.Mul(j)
	a.Velocity = a.Velocity.Sub(impulse.Mul(invA))
	b.Velocity = b.Velocity.Add(impulse.Mul(invB))

	applyFriction(a, b, n, j, invA, invB)
}

func applyFriction(a, b *Body, n mgl64.Vec3, j, invA, invB float64) {
	rv := b.Velocity.Sub(a.Velocity)
	tangent := rv.Sub(n.Mul(rv.Dot(n)))
	if tangent.Len() < frictionEpsilon {
		return
	}
	tangent = tangent.Normalize()

	jt := -rv.Dot(tangent) / (invA + invB)

	mu := (a.Material.Friction + b.Material.Friction) / 2
	staticCoeff := math.Min(1, 1.2*mu)
	dynamicCoeff := mu

	var frictionImpulse mgl64.Vec3
	if math.Abs(jt) <= j*staticCoeff {
		frictionImpulse = tangent.Mul(jt)
	} else {
		frictionImpulse = tangent.Mul(-j * dynamicCoeff)
	}

	a.Velocity = a.Velocity.Sub(frictionImpulse.Mul(invA))
	b.Velocity = b.Velocity.Add(frictionImpulse.Mul(invB))
}
