package main

import (
	"io"
	"log/slog"
	"testing"

	"flex-engine/internal/engineconfig"
	"flex-engine/internal/flex"
	"flex-engine/internal/graphics"
	"flex-engine/internal/instances"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarizeHeadlessRun(t *testing.T) {
	cfg := engineconfig.Default()
	cfg.Device.Preference = "cpu"
	cfg.Capacity = flex.Capacity{MaxParticles: 32}
	cfg.Instances = []instances.Spec{
		{Kind: "particle_grid", Origin: [3]float32{1, 2, 3}, Dims: [3]int{2, 2, 2}, Spacing: 0.2},
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	f, err := load(cfg, log)
	require.NoError(t, err)
	defer f.OnUnload()

	require.NoError(t, graphics.RunHeadless(f, 0))
	n, centroid := summarize(f.Controller())
	assert.Equal(t, 8, n)
	assert.InDelta(t, 1.1, centroid.X, 1e-5)
	assert.InDelta(t, 2.1, centroid.Y, 1e-5)
	assert.InDelta(t, 3.1, centroid.Z, 1e-5)

	require.NoError(t, graphics.RunHeadless(f, 3))
	s := stats(f.Controller())
	assert.Equal(t, "running", s.State)
	assert.Equal(t, uint64(3), s.Frame)
	assert.Equal(t, 8, s.Particles)
	assert.NotEmpty(t, s.Device)

	_, centroid = summarize(f.Controller())
	assert.Less(t, centroid.Y, float32(2.1))
}

func TestSummarizeBeforeBuild(t *testing.T) {
	c := flex.NewController(flex.Config{}, flex.DefaultParams(), nil, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	n, _ := summarize(c)
	assert.Zero(t, n)
	assert.Equal(t, "unloaded", stats(c).State)
}
