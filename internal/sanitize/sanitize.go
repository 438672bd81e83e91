// Package sanitize coerces untrusted form, shortcode and block values into
// render-ready values. None of the functions report errors: invalid input is
// replaced by the caller-supplied fallback or the nearest valid value.
package sanitize

import (
	"html"
	"math"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

const (
	ZoomMin = 0.1
	ZoomMax = 5.0
	// ZoomDefault is the plugin-wide zoom multiplier used when none is stored.
	ZoomDefault = 1.0

	FieldOfViewMin     = 10.0
	FieldOfViewMax     = 120.0
	FieldOfViewDefault = 75.0

	MaxFileSizeMin     = 1
	MaxFileSizeMax     = 100
	MaxFileSizeDefault = 10
)

var (
	dimensionPattern = regexp.MustCompile(`^\d+(\.\d+)?(px|%|em|rem|vh|vw)$`)
	bareIntPattern   = regexp.MustCompile(`^\d+$`)
	hexColorPattern  = regexp.MustCompile(`^#([A-Fa-f0-9]{3}){1,2}$`)
	cssValuePattern  = regexp.MustCompile(`^[#A-Za-z0-9(),.%/\s-]+$`)
	htmlClassStrip   = regexp.MustCompile(`[^A-Za-z0-9_-]`)
	whitespaceRun    = regexp.MustCompile(`\s+`)

	textPolicy = bluemonday.StrictPolicy()

	truthy = map[string]struct{}{
		"true": {},
		"1":    {},
		"yes":  {},
		"on":   {},
	}
)

// Dimension keeps CSS lengths in px, %, em, rem, vh or vw, turns a bare integer
// into pixels and replaces everything else with fallback.
func Dimension(value, fallback string) string {
	value = strings.TrimSpace(value)
	if dimensionPattern.MatchString(value) {
		return value
	}
	if bareIntPattern.MatchString(value) {
		return value + "px"
	}
	return fallback
}

// HexColor reports whether value is a #rgb or #rrggbb colour and returns it
// lower-cased.
func HexColor(value string) (string, bool) {
	value = strings.TrimSpace(value)
	if !hexColorPattern.MatchString(value) {
		return "", false
	}
	return strings.ToLower(value), true
}

func HexColorOr(value, fallback string) string {
	if color, ok := HexColor(value); ok {
		return color
	}
	return fallback
}

// Bool accepts true, 1, yes and on in any case.
func Bool(value string) bool {
	_, ok := truthy[strings.ToLower(strings.TrimSpace(value))]
	return ok
}

// Checked applies HTML checkbox semantics to a submitted form value: an absent
// box is unchecked, a present one is checked unless it carries a false value.
func Checked(value string, present bool) bool {
	return present && (strings.TrimSpace(value) == "" || Bool(value))
}

func FormatBool(value bool) string {
	if value {
		return "true"
	}
	return "false"
}

// Flag is the stored representation of a boolean meta field.
func Flag(value bool) string {
	if value {
		return "1"
	}
	return "0"
}

func ClampFloat(value, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, value))
}

func ClampInt(value, lo, hi int) int {
	if value < lo {
		return lo
	}
	if value > hi {
		return hi
	}
	return value
}

func parseFloat(value string) (float64, bool) {
	parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil || math.IsNaN(parsed) || math.IsInf(parsed, 0) {
		return 0, false
	}
	return parsed, true
}

// ZoomLevel parses a zoom multiplier and clamps it into [0.1, 5.0].
// Non-numeric input yields the default multiplier.
func ZoomLevel(value string) float64 {
	parsed, ok := parseFloat(value)
	if !ok {
		return ZoomDefault
	}
	return ClampFloat(parsed, ZoomMin, ZoomMax)
}

// FieldOfView parses a field of view in degrees (an optional "deg" suffix is
// accepted) and clamps it into [10, 120].
func FieldOfView(value string) float64 {
	parsed, ok := parseFloat(strings.TrimSuffix(strings.TrimSpace(value), "deg"))
	if !ok {
		return FieldOfViewDefault
	}
	return ClampFloat(parsed, FieldOfViewMin, FieldOfViewMax)
}

// ZoomToFieldOfView converts a zoom multiplier into degrees. A multiplier of 1
// maps onto the viewer's own default of 75deg.
func ZoomToFieldOfView(zoom float64) float64 {
	zoom = ClampFloat(zoom, ZoomMin, ZoomMax)
	return ClampFloat(FieldOfViewDefault/zoom, FieldOfViewMin, FieldOfViewMax)
}

// MaxFileSize parses a size in megabytes and clamps it into [1, 100].
func MaxFileSize(value string) int {
	parsed, ok := parseFloat(value)
	if !ok {
		return MaxFileSizeDefault
	}
	return ClampInt(int(parsed), MaxFileSizeMin, MaxFileSizeMax)
}

// AbsInt mirrors absint: the absolute integer part of value, 0 when it does not parse.
func AbsInt(value string) int {
	parsed, ok := parseFloat(value)
	if !ok {
		return 0
	}
	return int(math.Abs(parsed))
}

// URL keeps http(s), protocol-relative and relative references and drops
// anything else, including javascript: and data: URLs.
func URL(value string) string {
	value = strings.TrimSpace(value)
	if value == "" || strings.ContainsAny(value, "\"'<>` \t\r\n") {
		return ""
	}
	u, err := url.Parse(value)
	if err != nil {
		return ""
	}
	switch strings.ToLower(u.Scheme) {
	case "", "http", "https":
	default:
		return ""
	}
	if u.Scheme == "" && u.Opaque != "" {
		return ""
	}
	return u.String()
}

// Text strips markup and collapses whitespace. The result is plain text and
// must still be escaped when written into HTML.
func Text(value string) string {
	clean := html.UnescapeString(textPolicy.Sanitize(value))
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(clean, " "))
}

// HTMLClass sanitizes every whitespace separated class name.
func HTMLClass(value string) string {
	fields := strings.Fields(value)
	out := fields[:0]
	for _, field := range fields {
		if clean := htmlClassStrip.ReplaceAllString(field, ""); clean != "" {
			out = append(out, clean)
		}
	}
	return strings.Join(out, " ")
}

// HTMLID strips every character not allowed in an element ID.
func HTMLID(value string) string {
	return htmlClassStrip.ReplaceAllString(value, "")
}

// CSSValue accepts colours, gradients and similar declarations that cannot
// terminate a style attribute.
func CSSValue(value, fallback string) string {
	value = strings.TrimSpace(value)
	if value == "" || !cssValuePattern.MatchString(value) {
		return fallback
	}
	return value
}

// Opaque passes camera orbit and target strings through, dropping only
// characters that could escape an attribute value.
func Opaque(value string) string {
	value = strings.Map(func(r rune) rune {
		switch {
		case r < 0x20, r == 0x7f:
			return ' '
		case strings.ContainsRune("\"'<>&`;{}", r):
			return -1
		}
		return r
	}, value)
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(value, " "))
}
