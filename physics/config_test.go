package physics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_OverridesDefaults(t *testing.T) {
	doc := `
gravity = [0.0, -3.5, 0.0]
max_epa_iterations = 32
`
	cfg, err := LoadConfig(strings.NewReader(doc))
	require.NoError(t, err)

	assert.Equal(t, mgl64.Vec3{0, -3.5, 0}, cfg.Gravity)
	assert.Equal(t, 32, cfg.MaxEPAIterations)
	assert.Equal(t, DefaultMaxGJKIterations, cfg.MaxGJKIterations)
	assert.Equal(t, TickSeconds, cfg.TickSeconds)
	assert.Equal(t, 20*time.Millisecond, cfg.TickDuration())
}

func TestLoadConfig_UnknownField(t *testing.T) {
	_, err := LoadConfig(strings.NewReader("sleep_threshold = 0.1\n"))
	assert.Error(t, err)
}

func TestLoadConfig_Invalid(t *testing.T) {
	_, err := LoadConfig(strings.NewReader("depth_inflation = 0.5\n"))
	assert.ErrorContains(t, err, "depth_inflation")

	_, err = LoadConfig(strings.NewReader("tick_seconds = -1.0\n"))
	assert.ErrorContains(t, err, "tick_seconds")

	_, err = LoadConfig(strings.NewReader("bounce_threshold = -0.5\n"))
	assert.ErrorContains(t, err, "bounce_threshold")
}

func TestConfig_RestingSpeed(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Gravity = mgl64.Vec3{0, -10, 0}
	assert.InDelta(t, DefaultBounceTicks*10*TickSeconds, cfg.RestingSpeed(), 1e-12)

	cfg.BounceThreshold = 0.75
	assert.Equal(t, 0.75, cfg.RestingSpeed())

	cfg.BounceThreshold = 0
	cfg.Gravity = mgl64.Vec3{}
	assert.Zero(t, cfg.RestingSpeed())
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "physics.toml")
	require.NoError(t, os.WriteFile(path, []byte("tick_seconds = 0.01\n"), 0o644))

	cfg, err := LoadConfigFile(path)
	require.NoError(t, err)
	assert.Equal(t, 0.01, cfg.TickSeconds)

	_, err = LoadConfigFile(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}
