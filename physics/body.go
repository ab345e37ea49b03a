package physics

import (
	"github.com/go-gl/mathgl/mgl64"
)

// BodyID identifies a body across Snapshot and Writeback. The gekko bridge
// uses the entity id.
type BodyID uint64

type Material struct {
	Density float64
	// Friction is the Coulomb coefficient, blended with the other body's by
	// arithmetic mean.
	Friction float64
	// Restitution is usually in [0, 1]; values above 1 are accepted and add
	// energy on every bounce.
	Restitution float64
}

// Body is the per-tick copy of one physical body. It is created from the scene
// at Snapshot, mutated in place during the tick and handed back at Writeback.
type Body struct {
	ID              BodyID
	Position        mgl64.Vec3
	Velocity        mgl64.Vec3
	Rotation        mgl64.Quat
	AngularVelocity mgl64.Vec3
	Mass            float64
	GravityScale    mgl64.Vec3
	IsStatic        bool
	Material        Material
	Collider        *ConvexCollider
}

// ResolveMass returns override when it is positive, otherwise density times
// the collider volume.
func ResolveMass(collider *ConvexCollider, material Material, override float64) float64 {
	if override > 0 {
		return override
	}
	if collider == nil {
		return 0
	}
	return material.Density * collider.Volume()
}

// InverseMass is zero for static and massless bodies, which makes them
// immovable in the response solver.
func (b *Body) InverseMass() float64 {
	if b.IsStatic || b.Mass <= 0 {
		return 0
	}
	return 1 / b.Mass
}

func (b *Body) BoundingRadius() float64 {
	if b.Collider == nil {
		return 0
	}
	return b.Collider.BoundingRadius()
}

// Support returns the world-space point of the body furthest along dir.
func (b *Body) Support(dir mgl64.Vec3) mgl64.Vec3 {
	local := b.Rotation.Conjugate().Rotate(dir)
	return b.Position.Add(b.Rotation.Rotate(b.Collider.Support(local)))
}
