package gekko

import (
	"github.com/go-gl/mathgl/mgl32"
)

// TransformComponent places an entity in the world. The physics bridge reads
// and writes Position and Rotation; Scale is not applied to colliders.
type TransformComponent struct {
	Position mgl32.Vec3
	Rotation mgl32.Quat
	Scale    mgl32.Vec3
}

func NewTransform(position mgl32.Vec3) TransformComponent {
	return TransformComponent{
		Position: position,
		Rotation: mgl32.QuatIdent(),
		Scale:    mgl32.Vec3{1, 1, 1},
	}
}

type RigidBodyComponent struct {
	Velocity        mgl32.Vec3
	AngularVelocity mgl32.Vec3
	// Mass overrides density times collider volume when positive.
	Mass float32
	// GravityScale multiplies gravity per axis. The zero value disables
	// gravity, NewRigidBody sets it to one.
	GravityScale mgl32.Vec3
	IsStatic     bool
}

func NewRigidBody(mass float32) RigidBodyComponent {
	return RigidBodyComponent{
		Mass:         mass,
		GravityScale: mgl32.Vec3{1, 1, 1},
	}
}

func NewStaticBody() RigidBodyComponent {
	return RigidBodyComponent{IsStatic: true}
}

// ApplyImpulse changes the velocity by impulse / mass. Static bodies ignore it.
func (rb *RigidBodyComponent) ApplyImpulse(impulse mgl32.Vec3) {
	if rb.IsStatic {
		return
	}
	if rb.Mass > 0 {
		rb.Velocity = rb.Velocity.Add(impulse.Mul(1.0 / rb.Mass))
	} else {
		rb.Velocity = rb.Velocity.Add(impulse)
	}
}

// ColliderComponent attaches a convex collider asset and its surface
// material.
type ColliderComponent struct {
	Collider    AssetId
	Density     float32
	Friction    float32
	Restitution float32
}
