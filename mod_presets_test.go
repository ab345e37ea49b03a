package gekko

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func presetApp(t *testing.T) (*App, *AssetServer) {
	t.Helper()
	app := NewApp()
	app.UseModules(AssetServerModule{})
	server, ok := Resource[AssetServer](app)
	require.True(t, ok)
	return app, server
}

func TestScenePreset_SaveAndLoad(t *testing.T) {
	for _, name := range []string{"scene.json", "scene.yaml"} {
		t.Run(name, func(t *testing.T) {
			app, server := presetApp(t)
			cmd := app.Commands()

			box := server.CreateBoxCollider("box", mgl32.Vec3{0.5, 0.5, 0.5})
			SpawnBody(cmd, NewTransform(mgl32.Vec3{0, -0.5, 0}), NewStaticBody(),
				ColliderComponent{Collider: box, Friction: 0.3})
			SpawnBody(cmd,
				TransformComponent{Position: mgl32.Vec3{1, 2, 3}, Rotation: mgl32.QuatRotate(0.5, mgl32.Vec3{0, 1, 0})},
				RigidBodyComponent{Velocity: mgl32.Vec3{0, 10, 0}, Mass: 4, GravityScale: mgl32.Vec3{1, 0.5, 1}},
				ColliderComponent{Collider: box, Density: 2, Restitution: 1.8},
			)
			app.FlushCommands()

			path := filepath.Join(t.TempDir(), name)
			require.NoError(t, SaveScenePreset(cmd, server, path))

			app2, server2 := presetApp(t)
			cmd2 := app2.Commands()
			entities, err := LoadScenePreset(cmd2, server2, path)
			require.NoError(t, err)
			require.Len(t, entities, 2)
			app2.FlushCommands()

			tr, ok := GetComponent[TransformComponent](cmd2, entities[1])
			require.True(t, ok)
			assert.Equal(t, mgl32.Vec3{1, 2, 3}, tr.Position)
			assert.InDelta(t, 1.0, float64(tr.Rotation.Len()), 1e-6)

			rb, ok := GetComponent[RigidBodyComponent](cmd2, entities[1])
			require.True(t, ok)
			assert.Equal(t, mgl32.Vec3{0, 10, 0}, rb.Velocity)
			assert.Equal(t, float32(4), rb.Mass)
			assert.Equal(t, mgl32.Vec3{1, 0.5, 1}, rb.GravityScale)

			floorRb, _ := GetComponent[RigidBodyComponent](cmd2, entities[0])
			assert.True(t, floorRb.IsStatic)

			col, ok := GetComponent[ColliderComponent](cmd2, entities[1])
			require.True(t, ok)
			assert.NotEqual(t, box, col.Collider)
			assert.Equal(t, float32(1.8), col.Restitution)
			collider, ok := server2.Collider(col.Collider)
			require.True(t, ok)
			assert.InDelta(t, 1.0, collider.Volume(), 1e-6)

			// Both bodies share the one collider in the preset.
			floorCol, _ := GetComponent[ColliderComponent](cmd2, entities[0])
			assert.Equal(t, col.Collider, floorCol.Collider)
		})
	}
}

func TestScenePreset_Decode(t *testing.T) {
	doc := `
colliders:
  - id: tetra
    vertices: [[-1, -1, -1], [1, -1, -1], [0, 1, -1], [0, 0, 1]]
    faces: [[0, 2, 1], [0, 1, 3], [1, 2, 3], [2, 0, 3]]
bodies:
  - id: 4
    position: [0, 2, 0]
    rotation: {w: 1, v: [0, 0, 0]}
    scale: [1, 1, 1]
    velocity: [0, 0, 0]
    angular_velocity: [0, 0, 0]
    gravity_scale: [1, 1, 1]
    collider: tetra
    density: 1
    friction: 0.5
    restitution: 0.5
`
	preset, err := DecodeScenePreset(strings.NewReader(doc), PresetYAML)
	require.NoError(t, err)
	require.Len(t, preset.Bodies, 1)
	assert.Equal(t, EntityId(4), preset.Bodies[0].ID)
	assert.Equal(t, mgl32.Vec3{0, 2, 0}, preset.Bodies[0].Position)
	assert.Equal(t, [3]int{0, 2, 1}, preset.Colliders[0].Faces[0])

	_, err = DecodeScenePreset(strings.NewReader(`{"bodies": [], "lights": []}`), PresetJSON)
	assert.Error(t, err)
}

func TestScenePreset_EncodeJSON(t *testing.T) {
	var buf bytes.Buffer
	preset := ScenePreset{Bodies: []BodyPreset{{ID: 1, Collider: "c"}}}
	require.NoError(t, EncodeScenePreset(&buf, preset, PresetJSON))
	assert.Contains(t, buf.String(), `"collider": "c"`)
}

func TestScenePreset_UnknownCollider(t *testing.T) {
	app, server := presetApp(t)

	preset := ScenePreset{Bodies: []BodyPreset{{ID: 1, Collider: "missing"}}}
	_, err := SpawnScenePreset(app.Commands(), server, preset)
	assert.Error(t, err)
	app.FlushCommands()
	assert.Zero(t, app.Commands().EntityCount())
}

func TestScenePreset_DegenerateColliderSpawnsNothing(t *testing.T) {
	app, server := presetApp(t)

	preset := ScenePreset{
		Colliders: []ColliderPreset{
			{ID: "ok", Vertices: []mgl32.Vec3{{-1, -1, -1}, {1, -1, -1}, {0, 1, -1}, {0, 0, 1}},
				Faces: [][3]int{{0, 2, 1}, {0, 1, 3}, {1, 2, 3}, {2, 0, 3}}},
			{ID: "flat", Vertices: []mgl32.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {1, 1, 0}},
				Faces: [][3]int{{0, 1, 2}, {1, 3, 2}, {0, 2, 1}, {1, 2, 3}}},
		},
		Bodies: []BodyPreset{{ID: 1, Collider: "ok"}},
	}
	_, err := SpawnScenePreset(app.Commands(), server, preset)
	assert.Error(t, err)
	assert.Empty(t, server.colliders)
}

func TestPresetFormatFor(t *testing.T) {
	assert.Equal(t, PresetYAML, PresetFormatFor("a/b.YML"))
	assert.Equal(t, PresetYAML, PresetFormatFor("scene.yaml"))
	assert.Equal(t, PresetJSON, PresetFormatFor("scene.json"))
	assert.Equal(t, PresetJSON, PresetFormatFor("scene"))
}

func TestLoadScenePreset_MissingFile(t *testing.T) {
	app, server := presetApp(t)
	_, err := LoadScenePreset(app.Commands(), server, filepath.Join(t.TempDir(), "nope.json"))
	assert.True(t, os.IsNotExist(err))
}
