package primitives

import (
	"fmt"
	"strconv"
	"strings"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// Palette holds the viewer colors as "#rrggbb" or "#rrggbbaa" strings.
type Palette struct {
	Particle  string `yaml:"particle" toml:"particle" json:"particle"`
	Fluid     string `yaml:"fluid" toml:"fluid" json:"fluid"`
	Kinematic string `yaml:"kinematic" toml:"kinematic" json:"kinematic"`
	Static    string `yaml:"static" toml:"static" json:"static"`
	Dynamic   string `yaml:"dynamic" toml:"dynamic" json:"dynamic"`
}

// DefaultPalette returns the built-in viewer colors.
func DefaultPalette() Palette {
	return Palette{
		Particle:  "#e0a040",
		Fluid:     "#3c8ce6",
		Kinematic: "#808080",
		Static:    "#5a6270",
		Dynamic:   "#b05050",
	}
}

// Colors is a parsed Palette.
type Colors struct {
	Particle, Fluid, Kinematic, Static, Dynamic rl.Color
}

// Parse converts every entry; empty entries take the default color.
func (p Palette) Parse() (Colors, error) {
	def := DefaultPalette()
	var c Colors
	for _, e := range []struct {
		val, fallback string
		out           *rl.Color
	}{
		{p.Particle, def.Particle, &c.Particle},
		{p.Fluid, def.Fluid, &c.Fluid},
		{p.Kinematic, def.Kinematic, &c.Kinematic},
		{p.Static, def.Static, &c.Static},
		{p.Dynamic, def.Dynamic, &c.Dynamic},
	} {
		s := e.val
		if s == "" {
			s = e.fallback
		}
		col, err := ParseColor(s)
		if err != nil {
			return Colors{}, err
		}
		*e.out = col
	}
	return c, nil
}

// ParseColor parses "#rrggbb" or "#rrggbbaa".
func ParseColor(s string) (rl.Color, error) {
	hex := strings.TrimPrefix(s, "#")
	if len(hex) != 6 && len(hex) != 8 {
		return rl.Color{}, fmt.Errorf("color %q: want #rrggbb or #rrggbbaa", s)
	}
	if len(hex) == 6 {
		hex += "ff"
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return rl.Color{}, fmt.Errorf("color %q: %w", s, err)
	}
	return rl.NewColor(uint8(v>>24), uint8(v>>16), uint8(v>>8), uint8(v)), nil
}
