package physics

import (
	"github.com/go-gl/mathgl/mgl64"
)

// SupportPoint is a point of the Minkowski difference A - B together with the
// two body points it was built from.
type SupportPoint struct {
	Point mgl64.Vec3
	A     mgl64.Vec3
	B     mgl64.Vec3
}

func minkowskiSupport(a, b *Body, dir mgl64.Vec3) SupportPoint {
	pa := a.Support(dir)
	pb := b.Support(dir.Mul(-1))
	return SupportPoint{Point: pa.Sub(pb), A: pa, B: pb}
}

type simplexKind int

const (
	simplexEmpty simplexKind = iota
	simplexPoint
	simplexLine
	simplexTriangle
	simplexTetrahedron
)

func (k simplexKind) String() string {
	switch k {
	case simplexEmpty:
		return "empty"
	case simplexPoint:
		return "point"
	case simplexLine:
		return "line"
	case simplexTriangle:
		return "triangle"
	case simplexTetrahedron:
		return "tetrahedron"
	}
	return "invalid"
}

// Simplex holds up to four support points, newest last.
type Simplex struct {
	points [4]SupportPoint
	n      int
}

func (s *Simplex) Len() int { return s.n }

func (s *Simplex) Points() []SupportPoint { return s.points[:s.n] }

func (s *Simplex) kind() simplexKind { return simplexKind(s.n) }

// newest returns the most recently added point.
func (s *Simplex) newest() SupportPoint { return s.points[s.n-1] }

func (s *Simplex) push(p SupportPoint) {
	if s.n == len(s.points) {
		panic("physics: simplex already holds a tetrahedron, cannot add a fifth point")
	}
	s.points[s.n] = p
	s.n++
}

// set replaces the simplex content, oldest first.
func (s *Simplex) set(points ...SupportPoint) {
	if len(points) > len(s.points) {
		panic("physics: simplex cannot hold more than 4 points")
	}
	s.n = copy(s.points[:], points)
}

func (s *Simplex) contains(p mgl64.Vec3) bool {
	for _, q := range s.Points() {
		if q.Point.Sub(p).LenSqr() < duplicatePointEpsilon {
			return true
		}
	}
	return false
}
