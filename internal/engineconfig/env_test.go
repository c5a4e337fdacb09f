package engineconfig

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lookupMap(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) { v, ok := m[k]; return v, ok }
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.ApplyEnv(lookupMap(map[string]string{
		"FLEX_DEVICE":   "cpu",
		"FLEX_FRAMES":   "12",
		"FLEX_LOG_PATH": "",
	})))
	assert.Equal(t, "cpu", cfg.Device.Preference)
	assert.Equal(t, 12, cfg.Frames)
	assert.Equal(t, Default().LogPath, cfg.LogPath)
	assert.Equal(t, Default().Substeps, cfg.Substeps)

	assert.Error(t, cfg.ApplyEnv(lookupMap(map[string]string{"FLEX_SUBSTEPS": "zero"})))
	assert.Error(t, cfg.ApplyEnv(lookupMap(map[string]string{"FLEX_FRAMES": "-1"})))
}
