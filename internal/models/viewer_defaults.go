package models

import (
	"encoding/json"

	"modelviewer/internal/sanitize"
)

// ViewerOptionName is the option record holding the plugin-wide viewer defaults.
const ViewerOptionName = "wp_3d_model_viewer_options"

const (
	MimeGLTFJSON   = "model/gltf+json"
	MimeGLTFBinary = "model/gltf-binary"
	MimeOBJ        = "application/octet-stream"
	MimeFBX        = "application/x-tgif"
	MimeCollada    = "model/vnd.collada+xml"
	MimeUSDZ       = "model/vnd.usdz+zip"
	MimeUSD        = "model/vnd.pixar.usd"
)

// SupportedMimeTypes is the master list the allow-list is intersected with.
var SupportedMimeTypes = []string{
	MimeGLTFJSON,
	MimeGLTFBinary,
	MimeOBJ,
	MimeFBX,
	MimeCollada,
	MimeUSDZ,
	MimeUSD,
}

type ViewerDefaults struct {
	DefaultWidth           string   `json:"default_width"`
	DefaultHeight          string   `json:"default_height"`
	DefaultBackgroundColor string   `json:"default_background_color"`
	DefaultZoomLevel       float64  `json:"default_zoom_level"`
	AllowedMimeTypes       []string `json:"allowed_mime_types"`
	MaxFileSize            int      `json:"max_file_size"`
	EnableDebugging        bool     `json:"enable_debugging"`
	LazyLoading            bool     `json:"lazy_loading"`
	EnableARByDefault      bool     `json:"enable_ar_by_default"`
}

func FallbackViewerDefaults() ViewerDefaults {
	return ViewerDefaults{
		DefaultWidth:           "100%",
		DefaultHeight:          "400px",
		DefaultBackgroundColor: "#ffffff",
		DefaultZoomLevel:       sanitize.ZoomDefault,
		AllowedMimeTypes:       []string{},
		MaxFileSize:            sanitize.MaxFileSizeDefault,
		EnableDebugging:        false,
		LazyLoading:            true,
		EnableARByDefault:      false,
	}
}

// MaxFileSizeBytes converts the configured megabyte limit into bytes.
func (d ViewerDefaults) MaxFileSizeBytes() int64 {
	return int64(d.MaxFileSize) * 1024 * 1024
}

type storedDefaults struct {
	DefaultWidth           *string   `json:"default_width"`
	DefaultHeight          *string   `json:"default_height"`
	DefaultBackgroundColor *string   `json:"default_background_color"`
	DefaultZoomLevel       *float64  `json:"default_zoom_level"`
	AllowedMimeTypes       *[]string `json:"allowed_mime_types"`
	MaxFileSize            *int      `json:"max_file_size"`
	EnableDebugging        *bool     `json:"enable_debugging"`
	LazyLoading            *bool     `json:"lazy_loading"`
	EnableARByDefault      *bool     `json:"enable_ar_by_default"`
}

// DecodeViewerDefaults fills every key missing from the persisted record with
// its fallback. Unreadable records decode to the fallbacks.
func DecodeViewerDefaults(raw []byte) ViewerDefaults {
	out := FallbackViewerDefaults()
	if len(raw) == 0 {
		return out
	}

	var stored storedDefaults
	if err := json.Unmarshal(raw, &stored); err != nil {
		return out
	}

	if stored.DefaultWidth != nil {
		out.DefaultWidth = sanitize.Dimension(*stored.DefaultWidth, out.DefaultWidth)
	}
	if stored.DefaultHeight != nil {
		out.DefaultHeight = sanitize.Dimension(*stored.DefaultHeight, out.DefaultHeight)
	}
	if stored.DefaultBackgroundColor != nil {
		out.DefaultBackgroundColor = sanitize.HexColorOr(*stored.DefaultBackgroundColor, out.DefaultBackgroundColor)
	}
	if stored.DefaultZoomLevel != nil {
		out.DefaultZoomLevel = sanitize.ClampFloat(*stored.DefaultZoomLevel, sanitize.ZoomMin, sanitize.ZoomMax)
	}
	if stored.AllowedMimeTypes != nil {
		out.AllowedMimeTypes = IntersectMimeTypes(*stored.AllowedMimeTypes)
	}
	if stored.MaxFileSize != nil {
		out.MaxFileSize = sanitize.ClampInt(*stored.MaxFileSize, sanitize.MaxFileSizeMin, sanitize.MaxFileSizeMax)
	}
	if stored.EnableDebugging != nil {
		out.EnableDebugging = *stored.EnableDebugging
	}
	if stored.LazyLoading != nil {
		out.LazyLoading = *stored.LazyLoading
	}
	if stored.EnableARByDefault != nil {
		out.EnableARByDefault = *stored.EnableARByDefault
	}
	return out
}

// IntersectMimeTypes keeps the supported MIME types from input, in master list
// order and without duplicates.
func IntersectMimeTypes(input []string) []string {
	requested := make(map[string]struct{}, len(input))
	for _, mime := range input {
		requested[mime] = struct{}{}
	}
	out := make([]string, 0, len(input))
	for _, mime := range SupportedMimeTypes {
		if _, ok := requested[mime]; ok {
			out = append(out, mime)
		}
	}
	return out
}
