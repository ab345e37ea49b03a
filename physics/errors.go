package physics

import "errors"

var (
	// ErrDegenerateGeometry is returned when a collider has (near) zero volume,
	// which would make its center of mass and inertia undefined.
	ErrDegenerateGeometry = errors.New("physics: degenerate collider geometry")

	// ErrDegenerateSimplex is returned when GJK or EPA is handed a simplex it
	// cannot work with, e.g. a flat tetrahedron with the origin on its boundary.
	ErrDegenerateSimplex = errors.New("physics: degenerate simplex")

	// ErrNoConvergence is returned when GJK or EPA exhausts its iteration budget.
	ErrNoConvergence = errors.New("physics: no convergence")
)
