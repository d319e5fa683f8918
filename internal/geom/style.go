package geom

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// Style is the closed set of rendering options a layer understands.
type Style struct {
	Color   string  // fill / point color
	Opacity float64 // 0..1; below 0.5 polygons are drawn dithered
	Size    float64 // point marker radius in braille dots
	Border  string  // outline color, empty for none
}

// DefaultStyle matches the palette used for freshly loaded files.
func DefaultStyle() Style {
	return Style{Color: "#3388ff", Opacity: 0.7, Size: 1}
}

// ParseStyle builds a Style from free-form options, starting from the defaults.
// Unknown keys and wrongly typed values are rejected.
func ParseStyle(opts map[string]any) (Style, error) {
	s := DefaultStyle()
	keys := make([]string, 0, len(opts))
	for k := range opts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var errs []string
	for _, k := range keys {
		v := opts[k]
		switch strings.ToLower(k) {
		case "color":
			str, ok := v.(string)
			if !ok {
				errs = append(errs, fmt.Sprintf("color: want string, got %T", v))
				continue
			}
			s.Color = str
		case "border":
			str, ok := v.(string)
			if !ok {
				errs = append(errs, fmt.Sprintf("border: want string, got %T", v))
				continue
			}
			s.Border = str
		case "opacity":
			f, ok := toFloat(v)
			if !ok {
				errs = append(errs, fmt.Sprintf("opacity: want number, got %T", v))
				continue
			}
			s.Opacity = f
		case "size":
			f, ok := toFloat(v)
			if !ok {
				errs = append(errs, fmt.Sprintf("size: want number, got %T", v))
				continue
			}
			s.Size = f
		default:
			errs = append(errs, fmt.Sprintf("unknown style option %q", k))
		}
	}
	if err := s.Validate(); err != nil {
		errs = append(errs, err.Error())
	}
	if len(errs) > 0 {
		return Style{}, fmt.Errorf("style: %s", strings.Join(errs, "; "))
	}
	return s, nil
}

// MustStyle is ParseStyle for literals known to be valid.
func MustStyle(opts map[string]any) Style {
	s, err := ParseStyle(opts)
	if err != nil {
		panic(err)
	}
	return s
}

// Validate checks value ranges and that colors are #rgb or #rrggbb.
func (s Style) Validate() error {
	if err := validColor(s.Color); err != nil {
		return fmt.Errorf("color: %w", err)
	}
	if s.Border != "" {
		if err := validColor(s.Border); err != nil {
			return fmt.Errorf("border: %w", err)
		}
	}
	if s.Opacity < 0 || s.Opacity > 1 {
		return fmt.Errorf("opacity must be within [0,1], got %g", s.Opacity)
	}
	if s.Size <= 0 {
		return fmt.Errorf("size must be positive, got %g", s.Size)
	}
	return nil
}

func validColor(c string) error {
	if len(c) != 4 && len(c) != 7 {
		return fmt.Errorf("%q is not a hex color", c)
	}
	if _, err := colorful.Hex(c); err != nil {
		return fmt.Errorf("%q is not a hex color", c)
	}
	return nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
