package render

import (
	"fmt"
	"image/color"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Theme holds the colors and sizes used by Build.
type Theme struct {
	Background  string  `yaml:"background"`
	Grid        Stroke  `yaml:"grid"`
	Axes        Stroke  `yaml:"axes"`
	Curve       Stroke  `yaml:"curve"`
	Selection   Stroke  `yaml:"selection"`
	Dot         string  `yaml:"dot"`
	DotSelected string  `yaml:"dot_selected"`
	DotRadius   float64 `yaml:"dot_radius"`
	Label       string  `yaml:"label"`
	LabelOffset float64 `yaml:"label_offset"`
	FontSize    float64 `yaml:"font_size"`
}

// DefaultTheme returns the stock palette: light grid, black axes, blue curve,
// red dots that turn lime when selected and a green dashed rubber band.
func DefaultTheme() Theme {
	return Theme{
		Background:  "#fff",
		Grid:        Stroke{Color: "#eee", Width: 1},
		Axes:        Stroke{Color: "#000", Width: 1.5},
		Curve:       Stroke{Color: "#00f", Width: 2},
		Selection:   Stroke{Color: "green", Width: 1, Dash: []float64{4, 2}},
		Dot:         "red",
		DotSelected: "lime",
		DotRadius:   5,
		Label:       "#000",
		LabelOffset: 8,
		FontSize:    14,
	}
}

// LoadTheme reads a YAML theme file. Fields missing from the file keep their
// default values.
func LoadTheme(path string) (Theme, error) {
	theme := DefaultTheme()
	data, err := os.ReadFile(path)
	if err != nil {
		return theme, fmt.Errorf("failed to read theme %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &theme); err != nil {
		return DefaultTheme(), fmt.Errorf("failed to parse theme %s: %w", path, err)
	}
	if err := theme.Validate(); err != nil {
		return DefaultTheme(), err
	}
	return theme, nil
}

// Validate checks that every color parses.
func (t Theme) Validate() error {
	for name, c := range map[string]string{
		"background":   t.Background,
		"grid":         t.Grid.Color,
		"axes":         t.Axes.Color,
		"curve":        t.Curve.Color,
		"selection":    t.Selection.Color,
		"dot":          t.Dot,
		"dot_selected": t.DotSelected,
		"label":        t.Label,
	} {
		if _, err := ParseColor(c); err != nil {
			return fmt.Errorf("theme %s: %w", name, err)
		}
	}
	return nil
}

var namedColors = map[string]color.RGBA{
	"black":  {0, 0, 0, 255},
	"white":  {255, 255, 255, 255},
	"red":    {255, 0, 0, 255},
	"lime":   {0, 255, 0, 255},
	"green":  {0, 128, 0, 255},
	"blue":   {0, 0, 255, 255},
	"yellow": {255, 255, 0, 255},
	"gray":   {128, 128, 128, 255},
}

// ParseColor understands CSS color names from a small palette plus #rgb and
// #rrggbb hex notation.
func ParseColor(s string) (color.RGBA, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if c, ok := namedColors[s]; ok {
		return c, nil
	}
	if !strings.HasPrefix(s, "#") {
		return color.RGBA{}, fmt.Errorf("unknown color %q", s)
	}
	hex := s[1:]
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return color.RGBA{}, fmt.Errorf("bad hex color %q", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("bad hex color %q: %w", s, err)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}, nil
}

func mustColor(s string) color.RGBA {
	c, err := ParseColor(s)
	if err != nil {
		return color.RGBA{A: 255}
	}
	return c
}
