package gekko

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"gopkg.in/yaml.v3"
)

type ColliderPreset struct {
	ID       AssetId      `json:"id" yaml:"id"`
	Name     string       `json:"name,omitempty" yaml:"name,omitempty"`
	Vertices []mgl32.Vec3 `json:"vertices" yaml:"vertices,flow"`
	Faces    [][3]int     `json:"faces" yaml:"faces,flow"`
}

type BodyPreset struct {
	ID              EntityId   `json:"id" yaml:"id"`
	Position        mgl32.Vec3 `json:"position" yaml:"position,flow"`
	Rotation        mgl32.Quat `json:"rotation" yaml:"rotation"`
	Scale           mgl32.Vec3 `json:"scale" yaml:"scale,flow"`
	Velocity        mgl32.Vec3 `json:"velocity" yaml:"velocity,flow"`
	AngularVelocity mgl32.Vec3 `json:"angular_velocity" yaml:"angular_velocity,flow"`
	Mass            float32    `json:"mass,omitempty" yaml:"mass,omitempty"`
	GravityScale    mgl32.Vec3 `json:"gravity_scale" yaml:"gravity_scale,flow"`
	IsStatic        bool       `json:"is_static,omitempty" yaml:"is_static,omitempty"`
	Collider        AssetId    `json:"collider" yaml:"collider"`
	Density         float32    `json:"density" yaml:"density"`
	Friction        float32    `json:"friction" yaml:"friction"`
	Restitution     float32    `json:"restitution" yaml:"restitution"`
}

// ScenePreset is the on-disk form of the physics bodies of a scene together
// with the collider geometry they use.
type ScenePreset struct {
	Colliders []ColliderPreset `json:"colliders" yaml:"colliders"`
	Bodies    []BodyPreset     `json:"bodies" yaml:"bodies"`
}

type PresetFormat int

const (
	PresetJSON PresetFormat = iota
	PresetYAML
)

// PresetFormatFor picks the format from the file extension, JSON by default.
func PresetFormatFor(filename string) PresetFormat {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		return PresetYAML
	}
	return PresetJSON
}

// CaptureScenePreset collects every physics body and the colliders they
// reference.
func CaptureScenePreset(cmd *Commands, server *AssetServer) (ScenePreset, error) {
	var preset ScenePreset
	seen := make(map[AssetId]bool)
	var err error

	MakeQuery3[TransformComponent, RigidBodyComponent, ColliderComponent](cmd).Map(
		func(eid EntityId, tr *TransformComponent, rb *RigidBodyComponent, col *ColliderComponent) bool {
			if !seen[col.Collider] {
				asset, ok := server.ColliderAsset(col.Collider)
				if !ok {
					err = fmt.Errorf("entity %d references unknown collider %s", eid, col.Collider)
					return false
				}
				seen[col.Collider] = true
				preset.Colliders = append(preset.Colliders, ColliderPreset{
					ID:       col.Collider,
					Name:     asset.Name(),
					Vertices: toVec32s(asset.Collider().Vertices()),
					Faces:    asset.Collider().Faces(),
				})
			}

			preset.Bodies = append(preset.Bodies, BodyPreset{
				ID:              eid,
				Position:        tr.Position,
				Rotation:        tr.Rotation,
				Scale:           tr.Scale,
				Velocity:        rb.Velocity,
				AngularVelocity: rb.AngularVelocity,
				Mass:            rb.Mass,
				GravityScale:    rb.GravityScale,
				IsStatic:        rb.IsStatic,
				Collider:        col.Collider,
				Density:         col.Density,
				Friction:        col.Friction,
				Restitution:     col.Restitution,
			})
			return true
		})
	return preset, err
}

func EncodeScenePreset(w io.Writer, preset ScenePreset, format PresetFormat) error {
	switch format {
	case PresetYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(preset); err != nil {
			return err
		}
		return enc.Close()
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(preset)
	}
}

func DecodeScenePreset(r io.Reader, format PresetFormat) (ScenePreset, error) {
	var preset ScenePreset
	var err error
	switch format {
	case PresetYAML:
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		err = dec.Decode(&preset)
	default:
		dec := json.NewDecoder(r)
		dec.DisallowUnknownFields()
		err = dec.Decode(&preset)
	}
	if err != nil {
		return ScenePreset{}, fmt.Errorf("scene preset: %w", err)
	}
	return preset, nil
}

func SaveScenePreset(cmd *Commands, server *AssetServer, filename string) error {
	preset, err := CaptureScenePreset(cmd, server)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := EncodeScenePreset(&buf, preset, PresetFormatFor(filename)); err != nil {
		return err
	}
	return os.WriteFile(filename, buf.Bytes(), 0644)
}

func LoadScenePreset(cmd *Commands, server *AssetServer, filename string) ([]EntityId, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	preset, err := DecodeScenePreset(f, PresetFormatFor(filename))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return SpawnScenePreset(cmd, server, preset)
}

// SpawnScenePreset registers the preset colliders under fresh asset ids and
// queues one entity per body. Nothing is spawned if a collider fails to bake
// or a body references a collider the preset doesn't define.
func SpawnScenePreset(cmd *Commands, server *AssetServer, preset ScenePreset) ([]EntityId, error) {
	for _, body := range preset.Bodies {
		if !presetHasCollider(preset, body.Collider) {
			return nil, fmt.Errorf("body %d references unknown collider %s", body.ID, body.Collider)
		}
	}

	// Map old asset ids to new ones
	idMap := make(map[AssetId]AssetId, len(preset.Colliders))
	for _, c := range preset.Colliders {
		id, err := server.CreateConvexCollider(c.Name, c.Vertices, c.Faces)
		if err != nil {
			for _, created := range idMap {
				server.RemoveCollider(created)
			}
			return nil, err
		}
		idMap[c.ID] = id
	}

	entities := make([]EntityId, 0, len(preset.Bodies))
	for _, b := range preset.Bodies {
		eid := SpawnBody(cmd,
			TransformComponent{Position: b.Position, Rotation: b.Rotation, Scale: b.Scale},
			RigidBodyComponent{
				Velocity:        b.Velocity,
				AngularVelocity: b.AngularVelocity,
				Mass:            b.Mass,
				GravityScale:    b.GravityScale,
				IsStatic:        b.IsStatic,
			},
			ColliderComponent{
				Collider:    idMap[b.Collider],
				Density:     b.Density,
				Friction:    b.Friction,
				Restitution: b.Restitution,
			},
		)
		entities = append(entities, eid)
	}
	return entities, nil
}

func presetHasCollider(preset ScenePreset, id AssetId) bool {
	for _, c := range preset.Colliders {
		if c.ID == id {
			return true
		}
	}
	return false
}
