package gekko

import (
	"fmt"
	"sync"

	"github.com/gekko3d/gekko-physics/physics"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
)

type AssetId string

// AssetServer owns shared collider geometry. Entities reference colliders by
// AssetId, so many bodies can share one baked hull. It is read by the physics
// goroutine and is safe for concurrent use.
type AssetServer struct {
	mu        sync.RWMutex
	colliders map[AssetId]ColliderAsset
}

type AssetServerModule struct{}

type ColliderAsset struct {
	version  uint
	name     string
	collider *physics.ConvexCollider
}

func (a ColliderAsset) Version() uint                     { return a.version }
func (a ColliderAsset) Name() string                      { return a.name }
func (a ColliderAsset) Collider() *physics.ConvexCollider { return a.collider }

func NewAssetServer() *AssetServer {
	return &AssetServer{
		colliders: make(map[AssetId]ColliderAsset),
	}
}

func (AssetServerModule) Install(app *App, cmd *Commands) {
	app.addResources(NewAssetServer())
}

// AddCollider registers an already baked collider.
func (server *AssetServer) AddCollider(name string, collider *physics.ConvexCollider) AssetId {
	id := makeAssetId()

	server.mu.Lock()
	server.colliders[id] = ColliderAsset{
		name:     name,
		collider: collider,
	}
	server.mu.Unlock()

	return id
}

// CreateConvexCollider bakes a hull from local-space vertices and outward
// wound triangles.
func (server *AssetServer) CreateConvexCollider(name string, vertices []mgl32.Vec3, faces [][3]int) (AssetId, error) {
	collider, err := physics.NewConvexCollider(toVec64s(vertices), faces)
	if err != nil {
		return "", fmt.Errorf("collider %q: %w", name, err)
	}
	return server.AddCollider(name, collider), nil
}

func (server *AssetServer) CreateBoxCollider(name string, halfExtents mgl32.Vec3) AssetId {
	return server.AddCollider(name, physics.NewBoxCollider(vec64(halfExtents)))
}

// UpdateColliderGeometry replaces the geometry of an existing collider. Bodies
// already referencing it pick the change up on the next tick.
func (server *AssetServer) UpdateColliderGeometry(id AssetId, vertices []mgl32.Vec3, faces [][3]int) error {
	server.mu.Lock()
	defer server.mu.Unlock()

	asset, ok := server.colliders[id]
	if !ok {
		return fmt.Errorf("collider %s not found", id)
	}

	// Bake into a fresh collider so a tick holding the old one keeps
	// consistent data.
	collider, err := physics.NewConvexCollider(toVec64s(vertices), faces)
	if err != nil {
		return fmt.Errorf("collider %q: %w", asset.name, err)
	}
	asset.collider = collider
	asset.version++
	server.colliders[id] = asset
	return nil
}

func (server *AssetServer) Collider(id AssetId) (*physics.ConvexCollider, bool) {
	asset, ok := server.ColliderAsset(id)
	return asset.collider, ok
}

func (server *AssetServer) ColliderAsset(id AssetId) (ColliderAsset, bool) {
	server.mu.RLock()
	defer server.mu.RUnlock()
	asset, ok := server.colliders[id]
	return asset, ok
}

func (server *AssetServer) RemoveCollider(id AssetId) {
	server.mu.Lock()
	delete(server.colliders, id)
	server.mu.Unlock()
}

func makeAssetId() AssetId {
	return AssetId(uuid.NewString())
}

func vec64(v mgl32.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{float64(v[0]), float64(v[1]), float64(v[2])}
}

func vec32(v mgl64.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{float32(v[0]), float32(v[1]), float32(v[2])}
}

func toVec64s(vs []mgl32.Vec3) []mgl64.Vec3 {
	res := make([]mgl64.Vec3, len(vs))
	for i, v := range vs {
		res[i] = vec64(v)
	}
	return res
}

func toVec32s(vs []mgl64.Vec3) []mgl32.Vec3 {
	res := make([]mgl32.Vec3, len(vs))
	for i, v := range vs {
		res[i] = vec32(v)
	}
	return res
}

func quat64(q mgl32.Quat) mgl64.Quat {
	return mgl64.Quat{W: float64(q.W), V: vec64(q.V)}
}

func quat32(q mgl64.Quat) mgl32.Quat {
	return mgl32.Quat{W: float32(q.W), V: vec32(q.V)}
}
