package viewer

import (
	"strconv"
	"strings"

	"modelviewer/internal/sanitize"
)

// Attributes are call-site overrides keyed by their shortcode attribute name.
type Attributes map[string]string

// Lookup returns the trimmed value of key when the call site supplied a
// non-empty value for it.
func (a Attributes) Lookup(key string) (string, bool) {
	value, ok := a[key]
	if !ok {
		return "", false
	}
	value = strings.TrimSpace(value)
	return value, value != ""
}

// Request is one render call: a stored item reference or ad-hoc attributes.
// Instance is the position of the embed on its page, starting at 1.
type Request struct {
	Attrs    Attributes
	Instance int
}

// ItemID returns the numeric item identifier carried in the id attribute.
func (r Request) ItemID() (int64, bool) {
	raw, ok := r.Attrs.Lookup("id")
	if !ok {
		return 0, false
	}
	if _, err := strconv.ParseFloat(raw, 64); err != nil {
		return 0, false
	}
	id := int64(sanitize.AbsInt(raw))
	return id, id > 0
}

// BlockAttributes are the attributes of the editor block, in the block's own
// camelCase naming.
type BlockAttributes struct {
	Src                     string `json:"src"`
	Width                   string `json:"width"`
	Height                  string `json:"height"`
	BackgroundColorProperty string `json:"backgroundColorProperty"`
	AutoRotate              bool   `json:"autoRotate"`
	CameraControls          *bool  `json:"cameraControls"`
	Poster                  string `json:"poster"`
	Alt                     string `json:"alt"`
	AR                      bool   `json:"ar"`
	IOSSrc                  string `json:"iosSrc"`
}

// Attributes maps the block onto the equivalent shortcode attributes.
func (b BlockAttributes) Attributes() Attributes {
	cameraControls := true
	if b.CameraControls != nil {
		cameraControls = *b.CameraControls
	}
	attrs := Attributes{
		"src":             b.Src,
		"width":           b.Width,
		"height":          b.Height,
		"auto_rotate":     sanitize.FormatBool(b.AutoRotate),
		"camera_controls": sanitize.FormatBool(cameraControls),
		"poster":          b.Poster,
		"alt":             b.Alt,
		"ar":              sanitize.FormatBool(b.AR),
		"ios_src":         b.IOSSrc,
	}
	if b.BackgroundColorProperty != "" {
		attrs["background_color"] = b.BackgroundColorProperty
	}
	return attrs
}
