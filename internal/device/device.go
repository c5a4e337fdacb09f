package device

import (
	"fmt"
	"log/slog"
	"runtime"

	"flex-engine/internal/flex"

	"github.com/cogentcore/webgpu/wgpu"
)

// Preference selects which kind of device a Selector returns.
type Preference string

const (
	// Auto prefers a GPU adapter and falls back to the host CPU.
	Auto Preference = "auto"
	// GPU requires a GPU adapter.
	GPU Preference = "gpu"
	// CPU always returns the host CPU.
	CPU Preference = "cpu"
)

// Selector implements flex.DeviceSelector over WebGPU adapter enumeration.
type Selector struct {
	Preference      Preference
	HighPerformance bool
	ForceFallback   bool
	Log             *slog.Logger

	// probe requests a GPU adapter; replaced in tests.
	probe func(s *Selector) (flex.Device, error)
}

// New returns a selector for the given preference ("auto", "gpu" or "cpu") and power
// preference ("high", "low" or empty for high).
func New(pref, power string, forceFallback bool, log *slog.Logger) (*Selector, error) {
	s := &Selector{ForceFallback: forceFallback, Log: log}
	switch Preference(pref) {
	case Auto, "":
		s.Preference = Auto
	case GPU, CPU:
		s.Preference = Preference(pref)
	default:
		return nil, fmt.Errorf("unknown device preference %q", pref)
	}
	switch power {
	case "high", "":
		s.HighPerformance = true
	case "low":
	default:
		return nil, fmt.Errorf("unknown power preference %q", power)
	}
	return s, nil
}

// Host describes the host CPU.
func Host() flex.Device {
	return flex.Device{
		Name:    fmt.Sprintf("%s/%s x%d", runtime.GOOS, runtime.GOARCH, runtime.NumCPU()),
		Kind:    "cpu",
		Backend: "host",
	}
}

// SelectDevice returns the device for the configured preference. A GPU preference with no
// usable adapter fails with flex.ErrNoDevice.
func (s *Selector) SelectDevice() (flex.Device, error) {
	log := s.Log
	if log == nil {
		log = slog.Default()
	}
	switch s.Preference {
	case CPU:
		return Host(), nil
	case GPU:
		d, err := s.gpu()
		if err != nil {
			return flex.Device{}, fmt.Errorf("%w: %v", flex.ErrNoDevice, err)
		}
		return d, nil
	default:
		d, err := s.gpu()
		if err != nil {
			log.Warn("device: no GPU adapter, using host CPU", "err", err)
			return Host(), nil
		}
		return d, nil
	}
}

func (s *Selector) gpu() (flex.Device, error) {
	probe := s.probe
	if probe == nil {
		probe = requestAdapter
	}
	return probe(s)
}

// requestAdapter asks WebGPU for an adapter. The adapter and instance stay alive until
// the returned device is released.
func requestAdapter(s *Selector) (flex.Device, error) {
	instance := wgpu.CreateInstance(nil)
	if instance == nil {
		return flex.Device{}, fmt.Errorf("creating webgpu instance failed")
	}
	power := wgpu.PowerPreferenceLowPower
	if s.HighPerformance {
		power = wgpu.PowerPreferenceHighPerformance
	}
	adapter, err := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: s.ForceFallback,
		PowerPreference:      power,
	})
	if err != nil {
		instance.Release()
		return flex.Device{}, fmt.Errorf("requesting adapter: %w", err)
	}
	kind := "gpu"
	if s.ForceFallback {
		kind = "gpu-fallback"
	}
	return flex.Device{
		Name:    fmt.Sprintf("webgpu adapter (%s)", powerName(s.HighPerformance)),
		Kind:    kind,
		Backend: "webgpu",
		Release: func() {
			adapter.Release()
			instance.Release()
		},
	}, nil
}

func powerName(high bool) string {
	if high {
		return "high-performance"
	}
	return "low-power"
}
