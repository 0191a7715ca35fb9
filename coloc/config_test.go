package coloc

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	yaml := `distance: 0.3
pairing: hungarian
primaryChannel: Rab5
filter: free-frames
freeFrames: 2
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0644))

	config, err := LoadConfig(path)
	require.NoError(t, err)
	assert.InDelta(t, 0.3, config.Distance, eps)
	assert.Equal(t, "hungarian", config.Pairing)
	assert.Equal(t, "Rab5", config.PrimaryChannel)
	assert.Equal(t, FilterFreeFrames, config.FilterMode)
	assert.Equal(t, 2, config.FreeFrames)
	// Options missing from file keep defaults
	defaults := DefaultConfig()
	assert.Equal(t, defaults.PartnerChannel, config.PartnerChannel)
	assert.Equal(t, defaults.MinTrackLength, config.MinTrackLength)
	assert.Equal(t, -1, config.FirstFrame)
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("distance: [1, 2"), 0644))
	_, err = LoadConfig(path)
	assert.Error(t, err)

	invalid := filepath.Join(t.TempDir(), "invalid.yaml")
	require.NoError(t, os.WriteFile(invalid, []byte("field: 1.5\n"), 0644))
	_, err = LoadConfig(invalid)
	assert.Error(t, err)
}

func TestSaveConfig(t *testing.T) {
	config := DefaultConfig()
	config.LinkUntracked = true
	config.KeepAllSpots = true
	path := filepath.Join(t.TempDir(), "out.yaml")
	require.NoError(t, SaveConfig(path, config))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, config, loaded)
}

func TestValidate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())
	cases := []struct {
		name   string
		modify func(*Config)
	}{
		{"zero distance", func(c *Config) { c.Distance = 0 }},
		{"field above one", func(c *Config) { c.Field = 1.1 }},
		{"inverted frames", func(c *Config) {
			c.FirstFrame = 5
			c.LastFrame = 5
		}},
		{"same channels", func(c *Config) { c.PartnerChannel = c.PrimaryChannel }},
		{"unknown filter", func(c *Config) { c.FilterMode = "fancy" }},
		{"unknown field policy", func(c *Config) { c.FieldPolicy = "corner" }},
		{"negative workers", func(c *Config) { c.Workers = -1 }},
	}
	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.modify(&config)
			assert.Error(t, config.Validate())
		})
	}
}

func TestConfigEntries(t *testing.T) {
	config := DefaultConfig()
	config.LastFrame = 100
	entries := config.Entries()
	values := make(map[string]string, len(entries))
	for _, entry := range entries {
		values[entry.Key] = entry.Value
	}
	assert.Equal(t, "distance", entries[0].Key)
	assert.Equal(t, "None", values["first_frame"])
	assert.Equal(t, "100", values["last_frame"])
	assert.Equal(t, "0.178", values["pixel_size"])
	assert.Equal(t, "all", values["pairing"])
}
