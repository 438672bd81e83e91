package sanitize

import "strings"

const (
	PositionTopLeft     = "top-left"
	PositionTopRight    = "top-right"
	PositionBottomLeft  = "bottom-left"
	PositionBottomRight = "bottom-right"
)

var positions = map[string]struct{}{
	PositionTopLeft:     {},
	PositionTopRight:    {},
	PositionBottomLeft:  {},
	PositionBottomRight: {},
}

// Position accepts one of the four corner positions.
func Position(value, fallback string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	if _, ok := positions[value]; ok {
		return value
	}
	return fallback
}

var arModes = []string{"webxr", "scene-viewer", "quick-look"}

// ARModes keeps the known AR hand-off modes in the order given, without duplicates.
func ARModes(value string) string {
	seen := make(map[string]struct{}, len(arModes))
	var out []string
	for _, mode := range strings.Fields(strings.ToLower(value)) {
		if _, dup := seen[mode]; dup {
			continue
		}
		for _, known := range arModes {
			if mode == known {
				seen[mode] = struct{}{}
				out = append(out, mode)
				break
			}
		}
	}
	return strings.Join(out, " ")
}

var loadingModes = map[string]struct{}{
	"auto":  {},
	"lazy":  {},
	"eager": {},
}

func Loading(value, fallback string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	if _, ok := loadingModes[value]; ok {
		return value
	}
	return fallback
}
