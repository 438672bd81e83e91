package models

import (
	"time"

	"modelviewer/internal/sanitize"
)

// KindModel is the content type of 3D model items.
const KindModel = "3d_model"

type ItemStatus string

const (
	ItemStatusDraft   ItemStatus = "draft"
	ItemStatusPublish ItemStatus = "publish"
)

type ModelItem struct {
	ID        int64      `json:"id"`
	Kind      string     `json:"kind"`
	Title     string     `json:"title"`
	AuthorID  string     `json:"authorId"`
	Status    ItemStatus `json:"status"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// Meta keys, one per ModelRecord attribute.
const (
	MetaModelFile       = "_wp3d_model_file"
	MetaIOSFile         = "_wp3d_ios_file"
	MetaPosterImage     = "_wp3d_poster_image"
	MetaBackgroundColor = "_wp3d_bg_color"
	MetaStartRotation   = "_wp3d_start_rotation"
	MetaCameraOrbit     = "_wp3d_camera_orbit"
	MetaCameraTarget    = "_wp3d_camera_target"
	MetaFieldOfView     = "_wp3d_field_of_view"
	MetaZoomLevel       = "_wp3d_zoom_level"
	MetaAREnabled       = "_wp3d_ar_enabled"
	MetaAutoRotate      = "_wp3d_auto_rotate"
	MetaCameraControls  = "_wp3d_camera_controls"
	MetaARModes         = "_wp3d_ar_modes"
	MetaIOSSrc          = "_wp3d_ios_src"
	MetaLoading         = "_wp3d_loading"
	MetaShowLabel       = "_wp3d_show_label"
	MetaLabelText       = "_wp3d_label_text"
	MetaLabelPosition   = "_wp3d_label_position"
	MetaLabelColor      = "_wp3d_label_color"
	MetaARPosition      = "_wp3d_ar_position"
	MetaARColor         = "_wp3d_ar_color"
	MetaShowBorder      = "_wp3d_show_border"
	MetaBorderColor     = "_wp3d_border_color"
	MetaBorderWidth     = "_wp3d_border_width"
	MetaBorderShadow    = "_wp3d_border_shadow"
	MetaShadowIntensity = "_wp3d_shadow_intensity"
)

// Literal per-item defaults.
const (
	DefaultCameraOrbit     = "0deg 75deg 105%"
	DefaultCameraTarget    = "auto auto auto"
	DefaultARModes         = "webxr scene-viewer quick-look"
	DefaultLoading         = "auto"
	DefaultLabelText       = "3D Model"
	DefaultLabelPosition   = sanitize.PositionTopLeft
	DefaultLabelColor      = "rgba(0, 115, 170, 0.9)"
	DefaultARPosition      = sanitize.PositionBottomLeft
	DefaultARColor         = "linear-gradient(135deg, #667eea 0%, #764ba2 100%)"
	DefaultBorderColor     = "#0073aa"
	DefaultBorderWidth     = 2
	DefaultShadowIntensity = 3

	MaxBorderWidth     = 20
	MaxShadowIntensity = 10
)

type Label struct {
	Show     bool   `json:"show"`
	Text     string `json:"text"`
	Position string `json:"position"`
	Color    string `json:"color"`
}

type Border struct {
	Show      bool   `json:"show"`
	Color     string `json:"color"`
	Width     int    `json:"width"`
	Shadow    bool   `json:"shadow"`
	Intensity int    `json:"intensity"`
}

type ModelRecord struct {
	Item ModelItem `json:"item"`

	ModelFileRef   string `json:"modelFile"`
	IOSFileRef     string `json:"iosFile"`
	PosterImageRef string `json:"posterImage"`

	BackgroundColor string  `json:"backgroundColor"`
	CameraOrbit     string  `json:"cameraOrbit"`
	CameraTarget    string  `json:"cameraTarget"`
	FieldOfView     float64 `json:"fieldOfView"`
	AREnabled       bool    `json:"arEnabled"`
	AutoRotate      bool    `json:"autoRotate"`
	CameraControls  bool    `json:"cameraControls"`
	ARModes         string  `json:"arModes"`
	IOSSrc          string  `json:"iosSrc"`
	Loading         string  `json:"loading"`
	ARPosition      string  `json:"arPosition"`
	ARColor         string  `json:"arColor"`

	Label  Label  `json:"label"`
	Border Border `json:"border"`
}

// DecodeModelRecord is the single default-filling step for stored meta. Every
// field absent from meta takes its plugin-wide default, or its literal default
// when no plugin-wide setting exists for it.
func DecodeModelRecord(item ModelItem, meta map[string]string, defaults ViewerDefaults) ModelRecord {
	get := func(key string) (string, bool) {
		value, ok := meta[key]
		if !ok || value == "" {
			return "", false
		}
		return value, true
	}
	str := func(key, fallback string) string {
		if value, ok := get(key); ok {
			return value
		}
		return fallback
	}
	flag := func(key string, fallback bool) bool {
		if value, ok := get(key); ok {
			return sanitize.Bool(value)
		}
		return fallback
	}
	num := func(key string, fallback, max int) int {
		if value, ok := get(key); ok {
			return sanitize.ClampInt(sanitize.AbsInt(value), 0, max)
		}
		return fallback
	}

	rec := ModelRecord{
		Item:           item,
		ModelFileRef:   str(MetaModelFile, ""),
		IOSFileRef:     str(MetaIOSFile, ""),
		PosterImageRef: str(MetaPosterImage, ""),

		BackgroundColor: sanitize.HexColorOr(str(MetaBackgroundColor, ""), defaults.DefaultBackgroundColor),
		CameraTarget:    sanitize.Opaque(str(MetaCameraTarget, DefaultCameraTarget)),
		AREnabled:       flag(MetaAREnabled, defaults.EnableARByDefault),
		AutoRotate:      flag(MetaAutoRotate, false),
		CameraControls:  flag(MetaCameraControls, true),
		ARModes:         sanitize.ARModes(str(MetaARModes, DefaultARModes)),
		IOSSrc:          sanitize.URL(str(MetaIOSSrc, "")),
		Loading:         sanitize.Loading(str(MetaLoading, ""), loadingDefault(defaults)),
		ARPosition:      sanitize.Position(str(MetaARPosition, ""), DefaultARPosition),
		ARColor:         sanitize.CSSValue(str(MetaARColor, ""), DefaultARColor),

		Label: Label{
			Show:     flag(MetaShowLabel, true),
			Text:     sanitize.Text(str(MetaLabelText, DefaultLabelText)),
			Position: sanitize.Position(str(MetaLabelPosition, ""), DefaultLabelPosition),
			Color:    sanitize.CSSValue(str(MetaLabelColor, ""), DefaultLabelColor),
		},
		Border: Border{
			Show:      flag(MetaShowBorder, true),
			Color:     sanitize.HexColorOr(str(MetaBorderColor, ""), DefaultBorderColor),
			Width:     num(MetaBorderWidth, DefaultBorderWidth, MaxBorderWidth),
			Shadow:    flag(MetaBorderShadow, true),
			Intensity: num(MetaShadowIntensity, DefaultShadowIntensity, MaxShadowIntensity),
		},
	}

	orbit := str(MetaCameraOrbit, str(MetaStartRotation, DefaultCameraOrbit))
	rec.CameraOrbit = sanitize.Opaque(orbit)

	switch {
	case meta[MetaFieldOfView] != "":
		rec.FieldOfView = sanitize.FieldOfView(meta[MetaFieldOfView])
	case meta[MetaZoomLevel] != "":
		rec.FieldOfView = sanitize.ZoomToFieldOfView(sanitize.ZoomLevel(meta[MetaZoomLevel]))
	default:
		rec.FieldOfView = sanitize.ZoomToFieldOfView(defaults.DefaultZoomLevel)
	}

	if rec.Label.Text == "" {
		rec.Label.Text = DefaultLabelText
	}
	if rec.CameraOrbit == "" {
		rec.CameraOrbit = DefaultCameraOrbit
	}
	if rec.CameraTarget == "" {
		rec.CameraTarget = DefaultCameraTarget
	}
	return rec
}

func loadingDefault(defaults ViewerDefaults) string {
	if defaults.LazyLoading {
		return "lazy"
	}
	return DefaultLoading
}
