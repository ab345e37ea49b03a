package physics

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

const (
	duplicatePointEpsilon = 1e-18
	directionEpsilon      = 1e-18
)

// GJKResult is the outcome of Intersect. When Intersecting is true the
// simplex is a tetrahedron enclosing the origin and can seed Penetration.
type GJKResult struct {
	Intersecting bool
	Simplex      Simplex
	Iterations   int
}

// gjkStep is what a simplex transition decides: either the origin is enclosed
// or the search continues along direction with a (possibly reduced) simplex.
type gjkStep struct {
	enclosed  bool
	direction mgl64.Vec3
}

// Intersect runs GJK on the Minkowski difference a - b.
func Intersect(a, b *Body, maxIterations int) (GJKResult, error) {
	var res GJKResult

	direction := b.Position.Sub(a.Position)
	if direction.LenSqr() < directionEpsilon {
		direction = mgl64.Vec3{1, 0, 0}
	} else {
		direction = direction.Normalize()
	}

	simplex := &res.Simplex
	for res.Iterations < maxIterations {
		res.Iterations++

		support := minkowskiSupport(a, b, direction)
		if support.Point.Dot(direction) < 0 {
			return res, nil
		}
		// No progress: the origin sits on the boundary at best.
		if simplex.contains(support.Point) {
			return res, nil
		}
		simplex.push(support)

		step, err := simplex.evolve()
		if err != nil {
			return res, err
		}
		if step.enclosed {
			res.Intersecting = true
			return res, nil
		}
		if step.direction.LenSqr() < directionEpsilon {
			// Origin touches the simplex, there is nothing to push apart.
			return res, nil
		}
		direction = step.direction
	}

	return res, fmt.Errorf("%w: GJK gave up after %d iterations", ErrNoConvergence, maxIterations)
}

func (s *Simplex) evolve() (gjkStep, error) {
	switch s.kind() {
	case simplexPoint:
		return gjkStep{direction: s.newest().Point.Mul(-1)}, nil
	case simplexLine:
		return s.lineCase(), nil
	case simplexTriangle:
		return s.triangleCase(), nil
	case simplexTetrahedron:
		return s.tetrahedronCase()
	}
	panic(fmt.Sprintf("physics: GJK cannot evolve a %v simplex", s.kind()))
}

// lineCase: A is the newest point, B the older one.
func (s *Simplex) lineCase() gjkStep {
	b, a := s.points[0], s.points[1]
	ab := b.Point.Sub(a.Point)
	ao := a.Point.Mul(-1)

	if ab.Dot(ao) <= 0 {
		s.set(a)
		return gjkStep{direction: ao}
	}

	dir := tripleCross(ab, ao, ab)
	if dir.LenSqr() < directionEpsilon {
		// The origin lies on the segment; any normal of it will do.
		dir = perpendicular(ab)
	}
	return gjkStep{direction: dir}
}

// triangleCase: A is the newest point, then B, then C.
func (s *Simplex) triangleCase() gjkStep {
	c, b, a := s.points[0], s.points[1], s.points[2]
	ab := b.Point.Sub(a.Point)
	ac := c.Point.Sub(a.Point)
	ao := a.Point.Mul(-1)
	abc := ab.Cross(ac)

	if abc.LenSqr() < directionEpsilon {
		s.set(b, a)
		return s.lineCase()
	}

	if abc.Cross(ac).Dot(ao) > 0 {
		// Outside edge AC.
		if ac.Dot(ao) > 0 {
			s.set(c, a)
			return gjkStep{direction: tripleCross(ac, ao, ac)}
		}
		s.set(b, a)
		return s.lineCase()
	}

	if ab.Cross(abc).Dot(ao) > 0 {
		// Outside edge AB.
		s.set(b, a)
		return s.lineCase()
	}

	if abc.Dot(ao) > 0 {
		return gjkStep{direction: abc}
	}
	s.set(b, c, a)
	return gjkStep{direction: abc.Mul(-1)}
}

// tetrahedronCase: A is the newest point, B, C and D the base triangle.
func (s *Simplex) tetrahedronCase() (gjkStep, error) {
	d, c, b, a := s.points[0], s.points[1], s.points[2], s.points[3]
	ao := a.Point.Mul(-1)

	faces := [3]struct {
		x, y     SupportPoint
		opposite SupportPoint
	}{
		{b, c, d},
		{c, d, b},
		{d, b, c},
	}

	outside := 0
	first := -1
	for i, f := range faces {
		n := outwardNormal(a.Point, f.x.Point, f.y.Point, f.opposite.Point)
		if n.Dot(ao) > 0 {
			outside++
			if first < 0 {
				first = i
			}
		}
	}

	switch outside {
	case 0:
		return gjkStep{enclosed: true}, nil
	case 3:
		return gjkStep{}, fmt.Errorf("%w: origin outside all three faces around the newest vertex", ErrDegenerateSimplex)
	}

	f := faces[first]
	s.set(f.y, f.x, a)
	return s.triangleCase(), nil
}

// outwardNormal returns the normal of triangle (a, x, y) pointing away from
// opposite.
func outwardNormal(a, x, y, opposite mgl64.Vec3) mgl64.Vec3 {
	n := x.Sub(a).Cross(y.Sub(a))
	if n.Dot(opposite.Sub(a)) > 0 {
		return n.Mul(-1)
	}
	return n
}

// tripleCross returns (a x b) x c.
func tripleCross(a, b, c mgl64.Vec3) mgl64.Vec3 {
	return a.Cross(b).Cross(c)
}

func perpendicular(v mgl64.Vec3) mgl64.Vec3 {
	axis := mgl64.Vec3{1, 0, 0}
	ax, ay, az := math.Abs(v[0]), math.Abs(v[1]), math.Abs(v[2])
	if ay <= ax && ay <= az {
		axis = mgl64.Vec3{0, 1, 0}
	} else if az <= ax && az <= ay {
		axis = mgl64.Vec3{0, 0, 1}
	}
	return v.Cross(axis)
}

