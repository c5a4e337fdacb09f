package engineconfig

import (
	"fmt"
	"strconv"
)

// ApplyEnv overrides fields from FLEX_DEVICE, FLEX_FRAMES, FLEX_SUBSTEPS and FLEX_LOG_PATH.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("FLEX_DEVICE"); ok && v != "" {
		c.Device.Preference = v
	}
	if v, ok := lookup("FLEX_LOG_PATH"); ok && v != "" {
		c.LogPath = v
	}
	for _, e := range []struct {
		key string
		dst *int
	}{
		{"FLEX_FRAMES", &c.Frames},
		{"FLEX_SUBSTEPS", &c.Substeps},
	} {
		v, ok := lookup(e.key)
		if !ok || v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return fmt.Errorf("%s=%q: want a positive integer", e.key, v)
		}
		*e.dst = n
	}
	return nil
}
