package physics

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

const volumeEpsilon = 1e-9

// ConvexCollider is a convex hull given as local-space vertices and outward
// wound triangles. The local origin must lie inside the hull, the volume and
// center of mass integrals decompose the hull into tetrahedra fanned from it.
type ConvexCollider struct {
	vertices []mgl64.Vec3
	faces    [][3]int

	// Baked from the geometry.
	signedVolume   float64
	centerOfMass   mgl64.Vec3
	boundingRadius float64
	covariance     mgl64.Mat3 // second moment about the center of mass, unit density
}

func NewConvexCollider(vertices []mgl64.Vec3, faces [][3]int) (*ConvexCollider, error) {
	c := &ConvexCollider{}
	if err := c.SetGeometry(vertices, faces); err != nil {
		return nil, err
	}
	return c, nil
}

// NewBoxCollider builds an axis-aligned box centered on the local origin.
func NewBoxCollider(halfExtents mgl64.Vec3) *ConvexCollider {
	hx, hy, hz := halfExtents.X(), halfExtents.Y(), halfExtents.Z()
	vertices := make([]mgl64.Vec3, 8)
	for i := range vertices {
		v := mgl64.Vec3{-hx, -hy, -hz}
		if i&1 != 0 {
			v[0] = hx
		}
		if i&2 != 0 {
			v[1] = hy
		}
		if i&4 != 0 {
			v[2] = hz
		}
		vertices[i] = v
	}
	faces := [][3]int{
		{0, 4, 6}, {0, 6, 2}, // -X
		{1, 3, 7}, {1, 7, 5}, // +X
		{0, 1, 5}, {0, 5, 4}, // -Y
		{2, 6, 7}, {2, 7, 3}, // +Y
		{0, 2, 3}, {0, 3, 1}, // -Z
		{4, 5, 7}, {4, 7, 6}, // +Z
	}

	c, err := NewConvexCollider(vertices, faces)
	if err != nil {
		panic(fmt.Sprintf("box collider with half extents %v: %v", halfExtents, err))
	}
	return c
}

// SetGeometry replaces the hull and re-bakes the derived properties.
// On error the collider keeps its previous geometry.
func (c *ConvexCollider) SetGeometry(vertices []mgl64.Vec3, faces [][3]int) error {
	if len(vertices) < 4 || len(faces) < 4 {
		return fmt.Errorf("%w: need at least 4 vertices and 4 faces, got %d and %d",
			ErrDegenerateGeometry, len(vertices), len(faces))
	}
	for i, f := range faces {
		for _, idx := range f {
			if idx < 0 || idx >= len(vertices) {
				return fmt.Errorf("face %d references vertex %d, collider has %d vertices", i, idx, len(vertices))
			}
		}
	}

	baked := ConvexCollider{
		vertices: append([]mgl64.Vec3(nil), vertices...),
		faces:    append([][3]int(nil), faces...),
	}
	if err := baked.bake(); err != nil {
		return err
	}
	*c = baked
	return nil
}

func (c *ConvexCollider) bake() error {
	var volume float64
	var weighted mgl64.Vec3
	var cov mgl64.Mat3

	for _, f := range c.faces {
		a, b, d := c.vertices[f[0]], c.vertices[f[1]], c.vertices[f[2]]
		det := a.Dot(b.Cross(d))
		tetVolume := det / 6
		volume += tetVolume
		// Centroid of the tetrahedron (origin, a, b, d).
		weighted = weighted.Add(a.Add(b).Add(d).Mul(tetVolume / 4))
		cov = cov.Add(tetrahedronCovariance(a, b, d, det))
	}

	if math.Abs(volume) < volumeEpsilon {
		return fmt.Errorf("%w: hull volume %g", ErrDegenerateGeometry, volume)
	}

	com := weighted.Mul(1 / volume)
	radius := 0.0
	for _, v := range c.vertices {
		radius = math.Max(radius, v.Len())
	}

	c.signedVolume = volume
	c.centerOfMass = com
	c.boundingRadius = radius
	c.covariance = cov.Sub(outer(com, com).Mul(volume)).Mul(1 / volume)
	return nil
}

// canonicalCovariance is the covariance of the unit tetrahedron
// (0, e1, e2, e3) with unit density.
var canonicalCovariance = mgl64.Mat3{
	2, 1, 1,
	1, 2, 1,
	1, 1, 2,
}.Mul(1.0 / 120.0)

func tetrahedronCovariance(a, b, c mgl64.Vec3, det float64) mgl64.Mat3 {
	m := mgl64.Mat3FromCols(a, b, c)
	return m.Mul3(canonicalCovariance).Mul3(m.Transpose()).Mul(det)
}

func outer(u, v mgl64.Vec3) mgl64.Mat3 {
	return mgl64.Mat3FromCols(u.Mul(v[0]), u.Mul(v[1]), u.Mul(v[2]))
}

func (c *ConvexCollider) Vertices() []mgl64.Vec3 { return c.vertices }
func (c *ConvexCollider) Faces() [][3]int         { return c.faces }

// Volume is the enclosed volume, independent of face winding.
func (c *ConvexCollider) Volume() float64 { return math.Abs(c.signedVolume) }

func (c *ConvexCollider) CenterOfMass() mgl64.Vec3 { return c.centerOfMass }

// BoundingRadius is the radius of the sphere around the local origin that
// encloses every vertex.
func (c *ConvexCollider) BoundingRadius() float64 { return c.boundingRadius }

// InertiaTensor returns the body-space inertia tensor about the center of mass
// for a uniform body of the given mass.
func (c *ConvexCollider) InertiaTensor(mass float64) mgl64.Mat3 {
	cov := c.covariance.Mul(mass)
	return mgl64.Ident3().Mul(cov.Trace()).Sub(cov)
}

// ApproxInertiaTensor treats the collider as a solid sphere of its bounding
// radius.
func (c *ConvexCollider) ApproxInertiaTensor(mass float64) mgl64.Mat3 {
	return mgl64.Ident3().Mul(0.4 * mass * c.boundingRadius * c.boundingRadius)
}

// Support returns the local-space vertex furthest along dir.
func (c *ConvexCollider) Support(dir mgl64.Vec3) mgl64.Vec3 {
	best := c.vertices[0]
	bestDot := best.Dot(dir)
	for _, v := range c.vertices[1:] {
		if d := v.Dot(dir); d > bestDot {
			best, bestDot = v, d
		}
	}
	return best
}
