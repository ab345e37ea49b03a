package physics

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

const faceAreaEpsilon = 1e-24

// Contact describes how two overlapping bodies touch.
type Contact struct {
	// Penetration is the measured overlap along Normal.
	Penetration float64
	// Depth is Penetration scaled by the depth inflation factor; this is what
	// the response solver corrects.
	Depth float64
	// Normal is the unit boundary normal of the Minkowski difference. It points
	// from the first body of the GJK/EPA pair towards the second.
	Normal mgl64.Vec3
	// Point is the world-space midpoint of the two interpolated witness points.
	Point mgl64.Vec3
}

type EPAOptions struct {
	MaxIterations  int
	Tolerance      float64
	DepthInflation float64
}

func DefaultEPAOptions() EPAOptions {
	return EPAOptions{
		MaxIterations:  DefaultMaxEPAIterations,
		Tolerance:      DefaultEPATolerance,
		DepthInflation: DefaultDepthInflation,
	}
}

type polytopeFace struct {
	idx      [3]int
	normal   mgl64.Vec3
	distance float64
}

type edge struct{ from, to int }

type polytope struct {
	vertices []SupportPoint
	faces    []polytopeFace
}

// Penetration expands the terminal GJK simplex into the face of the Minkowski
// difference closest to the origin.
func Penetration(simplex Simplex, a, b *Body, opts EPAOptions) (Contact, error) {
	if simplex.kind() != simplexTetrahedron {
		return Contact{}, fmt.Errorf("%w: EPA needs a tetrahedron, got a %v", ErrDegenerateSimplex, simplex.kind())
	}

	poly, err := newPolytope(simplex.Points())
	if err != nil {
		return Contact{}, err
	}

	for i := 0; i < opts.MaxIterations; i++ {
		closest := poly.closestFace()
		face := poly.faces[closest]

		support := minkowskiSupport(a, b, face.normal)
		if support.Point.Dot(face.normal)-face.distance < opts.Tolerance {
			return poly.contact(face, opts.DepthInflation), nil
		}

		if !poly.expand(support) {
			// Nothing could see the new point, the closest face is final.
			return poly.contact(face, opts.DepthInflation), nil
		}
	}

	best := poly.faces[poly.closestFace()]
	return poly.contact(best, opts.DepthInflation),
		fmt.Errorf("%w: EPA gave up after %d iterations", ErrNoConvergence, opts.MaxIterations)
}

func newPolytope(points []SupportPoint) (*polytope, error) {
	poly := &polytope{
		vertices: append(make([]SupportPoint, 0, 16), points...),
		faces:    make([]polytopeFace, 0, 16),
	}

	seeds := [4]struct {
		idx      [3]int
		opposite int
	}{
		{[3]int{0, 1, 2}, 3},
		{[3]int{0, 3, 1}, 2},
		{[3]int{0, 2, 3}, 1},
		{[3]int{1, 3, 2}, 0},
	}
	for _, seed := range seeds {
		idx := seed.idx
		p0 := poly.vertices[idx[0]].Point
		n := poly.vertices[idx[1]].Point.Sub(p0).Cross(poly.vertices[idx[2]].Point.Sub(p0))
		if n.LenSqr() < faceAreaEpsilon {
			return nil, fmt.Errorf("%w: flat tetrahedron", ErrDegenerateSimplex)
		}
		if n.Dot(poly.vertices[seed.opposite].Point.Sub(p0)) > 0 {
			idx[1], idx[2] = idx[2], idx[1]
		}
		poly.faces = append(poly.faces, poly.makeFace(idx))
	}
	return poly, nil
}

// makeFace computes the outward normal from the winding. Faces without area
// get an infinite distance so they are never picked as the closest. A face
// whose plane passes through the origin keeps its winding normal and gets
// distance zero.
func (p *polytope) makeFace(idx [3]int) polytopeFace {
	a := p.vertices[idx[0]].Point
	n := p.vertices[idx[1]].Point.Sub(a).Cross(p.vertices[idx[2]].Point.Sub(a))
	if n.LenSqr() < faceAreaEpsilon {
		return polytopeFace{idx: idx, distance: math.Inf(1)}
	}
	n = n.Normalize()
	d := n.Dot(a)
	if d < 0 {
		d = 0
	}
	return polytopeFace{idx: idx, normal: n, distance: d}
}

func (p *polytope) closestFace() int {
	best := 0
	for i := 1; i < len(p.faces); i++ {
		if p.faces[i].distance < p.faces[best].distance {
			best = i
		}
	}
	return best
}

// expand removes every face that sees support and stitches the silhouette to
// it. It reports false when no face was removed.
func (p *polytope) expand(support SupportPoint) bool {
	var silhouette []edge
	kept := p.faces[:0]
	removed := 0

	for _, f := range p.faces {
		if f.normal.Dot(support.Point.Sub(p.vertices[f.idx[0]].Point)) > 0 {
			removed++
			silhouette = addUniqueEdge(silhouette, f.idx[0], f.idx[1])
			silhouette = addUniqueEdge(silhouette, f.idx[1], f.idx[2])
			silhouette = addUniqueEdge(silhouette, f.idx[2], f.idx[0])
			continue
		}
		kept = append(kept, f)
	}
	p.faces = kept
	if removed == 0 {
		return false
	}

	next := len(p.vertices)
	p.vertices = append(p.vertices, support)
	for _, e := range silhouette {
		p.faces = append(p.faces, p.makeFace([3]int{e.from, e.to, next}))
	}
	return true
}

// addUniqueEdge adds from->to unless its reverse is already present, in which
// case both are interior and the reverse is dropped.
func addUniqueEdge(edges []edge, from, to int) []edge {
	for i, e := range edges {
		if e.from == to && e.to == from {
			return append(edges[:i], edges[i+1:]...)
		}
	}
	return append(edges, edge{from, to})
}

// contact projects the origin onto the face and blends the witness points
// with the barycentric weights of the projection. The weights are not
// clamped to the triangle.
func (p *polytope) contact(f polytopeFace, inflation float64) Contact {
	va, vb, vc := p.vertices[f.idx[0]], p.vertices[f.idx[1]], p.vertices[f.idx[2]]
	u, v, w := barycentric(f.normal.Mul(f.distance), va.Point, vb.Point, vc.Point)

	onA := va.A.Mul(u).Add(vb.A.Mul(v)).Add(vc.A.Mul(w))
	onB := va.B.Mul(u).Add(vb.B.Mul(v)).Add(vc.B.Mul(w))

	return Contact{
		Penetration: f.distance,
		Depth:       f.distance * inflation,
		Normal:      f.normal,
		Point:       onA.Add(onB).Mul(0.5),
	}
}

// barycentric returns the weights of p with respect to triangle (a, b, c),
// computed from the signed areas of the sub-triangles.
func barycentric(p, a, b, c mgl64.Vec3) (float64, float64, float64) {
	n := b.Sub(a).Cross(c.Sub(a))
	denom := n.Dot(n)
	if denom < faceAreaEpsilon {
		return 1.0 / 3, 1.0 / 3, 1.0 / 3
	}
	u := b.Sub(p).Cross(c.Sub(p)).Dot(n) / denom
	v := c.Sub(p).Cross(a.Sub(p)).Dot(n) / denom
	return u, v, 1 - u - v
}
