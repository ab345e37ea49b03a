package gekko

import (
	"math"
	"slices"

	"github.com/go-gl/mathgl/mgl32"
)

// BodyBounds is the world-space bounding sphere of a collider, centered on
// the body origin like the physics broad phase.
type BodyBounds struct {
	Center mgl32.Vec3
	Radius float32
}

func (b BodyBounds) min() mgl32.Vec3 {
	return b.Center.Sub(mgl32.Vec3{b.Radius, b.Radius, b.Radius})
}

func (b BodyBounds) max() mgl32.Vec3 {
	return b.Center.Add(mgl32.Vec3{b.Radius, b.Radius, b.Radius})
}

// SpatialHashGrid buckets bodies by the cells their bounding sphere overlaps.
// It answers gameplay queries between ticks; the physics tick itself scans
// every pair.
type SpatialHashGrid struct {
	cellSize float32
	cells    map[uint64][]EntityId
	bounds   map[EntityId]BodyBounds
}

func NewSpatialHashGrid(cellSize float32) *SpatialHashGrid {
	if cellSize <= 0 {
		cellSize = 2
	}
	return &SpatialHashGrid{
		cellSize: cellSize,
		cells:    make(map[uint64][]EntityId),
		bounds:   make(map[EntityId]BodyBounds),
	}
}

func (grid *SpatialHashGrid) Clear() {
	clear(grid.cells)
	clear(grid.bounds)
}

func (grid *SpatialHashGrid) Len() int {
	return len(grid.bounds)
}

func (grid *SpatialHashGrid) Insert(id EntityId, bounds BodyBounds) {
	grid.bounds[id] = bounds
	grid.forCells(bounds.min(), bounds.max(), func(key uint64) {
		grid.cells[key] = append(grid.cells[key], id)
	})
}

func (grid *SpatialHashGrid) Bounds(id EntityId) (BodyBounds, bool) {
	b, ok := grid.bounds[id]
	return b, ok
}

// QueryRadius returns the bodies whose bounding sphere touches the sphere at
// center, in ascending id order.
func (grid *SpatialHashGrid) QueryRadius(center mgl32.Vec3, radius float32) []EntityId {
	query := BodyBounds{Center: center, Radius: radius}
	seen := make(map[EntityId]struct{})
	var results []EntityId

	grid.forCells(query.min(), query.max(), func(key uint64) {
		for _, id := range grid.cells[key] {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			b := grid.bounds[id]
			reach := b.Radius + radius
			if b.Center.Sub(center).LenSqr() <= reach*reach {
				results = append(results, id)
			}
		}
	})
	slices.Sort(results)
	return results
}

// QueryPairs returns the candidate pairs sharing a cell whose bounding
// spheres touch. Each pair is ordered by id and reported once.
func (grid *SpatialHashGrid) QueryPairs() [][2]EntityId {
	seen := make(map[[2]EntityId]struct{})
	var pairs [][2]EntityId
	for _, ids := range grid.cells {
		for i := 0; i < len(ids); i++ {
			for j := i + 1; j < len(ids); j++ {
				p := [2]EntityId{min(ids[i], ids[j]), max(ids[i], ids[j])}
				if _, ok := seen[p]; ok {
					continue
				}
				seen[p] = struct{}{}
				a, b := grid.bounds[p[0]], grid.bounds[p[1]]
				reach := a.Radius + b.Radius
				if a.Center.Sub(b.Center).LenSqr() <= reach*reach {
					pairs = append(pairs, p)
				}
			}
		}
	}
	slices.SortFunc(pairs, func(a, b [2]EntityId) int {
		if a[0] != b[0] {
			return int(a[0]) - int(b[0])
		}
		return int(a[1]) - int(b[1])
	})
	return pairs
}

func (grid *SpatialHashGrid) forCells(lo, hi mgl32.Vec3, fn func(key uint64)) {
	minX, maxX := grid.getCellIndex(lo.X()), grid.getCellIndex(hi.X())
	minY, maxY := grid.getCellIndex(lo.Y()), grid.getCellIndex(hi.Y())
	minZ, maxZ := grid.getCellIndex(lo.Z()), grid.getCellIndex(hi.Z())

	for x := minX; x <= maxX; x++ {
		for y := minY; y <= maxY; y++ {
			for z := minZ; z <= maxZ; z++ {
				fn(grid.hashKey(x, y, z))
			}
		}
	}
}

func (grid *SpatialHashGrid) getCellIndex(pos float32) int {
	return int(math.Floor(float64(pos / grid.cellSize)))
}

// Simple hash function for 3D coordinates
func (grid *SpatialHashGrid) hashKey(x, y, z int) uint64 {
	// large primes for mixing
	const p1 = 73856093
	const p2 = 19349663
	const p3 = 83492791
	return uint64(x*p1 ^ y*p2 ^ z*p3)
}

// SpatialGridModule keeps a SpatialHashGrid of all physics bodies, rebuilt
// after every frame. It needs the AssetServerModule.
type SpatialGridModule struct {
	CellSize float32
}

func (m SpatialGridModule) Install(app *App, cmd *Commands) {
	cmd.AddResources(NewSpatialHashGrid(m.CellSize))

	app.UseSystem(
		System(updateSpatialGridSystem).
			InStage(Finale).
			RunAlways(),
	)
}

func updateSpatialGridSystem(cmd *Commands, grid *SpatialHashGrid, assets *AssetServer) {
	grid.Clear()

	MakeQuery2[TransformComponent, ColliderComponent](cmd).Map(func(id EntityId, tr *TransformComponent, col *ColliderComponent) bool {
		collider, ok := assets.Collider(col.Collider)
		if !ok {
			return true
		}
		grid.Insert(id, BodyBounds{
			Center: tr.Position,
			Radius: float32(collider.BoundingRadius()),
		})
		return true
	})
}
