package physics

// BroadPhaseReject reports whether the pair can be skipped because the
// bounding spheres around the two body origins do not touch.
func BroadPhaseReject(a, b *Body) bool {
	reach := a.BoundingRadius() + b.BoundingRadius()
	return a.Position.Sub(b.Position).LenSqr() > reach*reach
}
