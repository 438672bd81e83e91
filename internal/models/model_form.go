package models

import (
	"net/url"
	"strconv"

	"modelviewer/internal/sanitize"
)

type FieldType string

const (
	FieldAsset    FieldType = "asset"
	FieldColor    FieldType = "color"
	FieldText     FieldType = "text"
	FieldCSS      FieldType = "css"
	FieldCamera   FieldType = "camera"
	FieldDegrees  FieldType = "degrees"
	FieldNumber   FieldType = "number"
	FieldCheckbox FieldType = "checkbox"
	FieldSelect   FieldType = "select"
	FieldModes    FieldType = "modes"
	FieldURL      FieldType = "url"
)

// FormField describes one input of the model edit form and how its submitted
// value is stored.
type FormField struct {
	Name    string    `json:"name"`
	MetaKey string    `json:"metaKey"`
	Label   string    `json:"label"`
	Type    FieldType `json:"type"`
	Default string    `json:"default,omitempty"`
	Options []string  `json:"options,omitempty"`
	Max     int       `json:"max,omitempty"`
}

var positionOptions = []string{
	sanitize.PositionTopLeft,
	sanitize.PositionTopRight,
	sanitize.PositionBottomLeft,
	sanitize.PositionBottomRight,
}

// ModelFormFields is the edit form schema, in display order.
var ModelFormFields = []FormField{
	{Name: "wp3d_model_file", MetaKey: MetaModelFile, Label: "3D Model File", Type: FieldAsset},
	{Name: "wp3d_ios_file", MetaKey: MetaIOSFile, Label: "iOS AR File (USDZ)", Type: FieldAsset},
	{Name: "wp3d_poster_image", MetaKey: MetaPosterImage, Label: "Poster Image", Type: FieldAsset},
	{Name: "wp3d_bg_color", MetaKey: MetaBackgroundColor, Label: "Background Color", Type: FieldColor},
	{Name: "wp3d_camera_orbit", MetaKey: MetaCameraOrbit, Label: "Camera Position", Type: FieldCamera, Default: DefaultCameraOrbit},
	{Name: "wp3d_camera_target", MetaKey: MetaCameraTarget, Label: "Camera Target", Type: FieldCamera, Default: DefaultCameraTarget},
	{Name: "wp3d_field_of_view", MetaKey: MetaFieldOfView, Label: "Field of View", Type: FieldDegrees, Default: "75"},
	{Name: "wp3d_ar_enabled", MetaKey: MetaAREnabled, Label: "Enable AR", Type: FieldCheckbox},
	{Name: "wp3d_auto_rotate", MetaKey: MetaAutoRotate, Label: "Auto Rotate", Type: FieldCheckbox},
	{Name: "wp3d_camera_controls", MetaKey: MetaCameraControls, Label: "Camera Controls", Type: FieldCheckbox},
	{Name: "wp3d_show_label", MetaKey: MetaShowLabel, Label: "Show Label", Type: FieldCheckbox},
	{Name: "wp3d_label_text", MetaKey: MetaLabelText, Label: "Label Text", Type: FieldText, Default: DefaultLabelText},
	{Name: "wp3d_label_position", MetaKey: MetaLabelPosition, Label: "Label Position", Type: FieldSelect, Default: DefaultLabelPosition, Options: positionOptions},
	{Name: "wp3d_label_color", MetaKey: MetaLabelColor, Label: "Label Color", Type: FieldCSS, Default: DefaultLabelColor},
	{Name: "wp3d_ar_position", MetaKey: MetaARPosition, Label: "AR Button Position", Type: FieldSelect, Default: DefaultARPosition, Options: positionOptions},
	{Name: "wp3d_ar_color", MetaKey: MetaARColor, Label: "AR Button Color", Type: FieldCSS, Default: DefaultARColor},
	{Name: "wp3d_show_border", MetaKey: MetaShowBorder, Label: "Show Border", Type: FieldCheckbox},
	{Name: "wp3d_border_color", MetaKey: MetaBorderColor, Label: "Border Color", Type: FieldColor, Default: DefaultBorderColor},
	{Name: "wp3d_border_width", MetaKey: MetaBorderWidth, Label: "Border Width", Type: FieldNumber, Default: strconv.Itoa(DefaultBorderWidth), Max: MaxBorderWidth},
	{Name: "wp3d_border_shadow", MetaKey: MetaBorderShadow, Label: "Border Shadow", Type: FieldCheckbox},
	{Name: "wp3d_shadow_intensity", MetaKey: MetaShadowIntensity, Label: "Shadow Intensity", Type: FieldNumber, Default: strconv.Itoa(DefaultShadowIntensity), Max: MaxShadowIntensity},
	{Name: "wp3d_loading", MetaKey: MetaLoading, Label: "Loading", Type: FieldSelect, Default: DefaultLoading, Options: []string{"auto", "lazy", "eager"}},
	{Name: "wp3d_ar_modes", MetaKey: MetaARModes, Label: "AR Modes", Type: FieldModes, Default: DefaultARModes},
	{Name: "wp3d_ios_src", MetaKey: MetaIOSSrc, Label: "iOS Source URL", Type: FieldURL},
}

// Value sanitizes the submitted value of f. Checkboxes follow HTML semantics:
// an absent checkbox is unchecked.
func (f FormField) Value(form url.Values) string {
	raw, present := form.Get(f.Name), form.Has(f.Name)

	switch f.Type {
	case FieldCheckbox:
		return sanitize.Flag(sanitize.Checked(raw, present))
	case FieldAsset:
		return sanitize.HTMLID(raw)
	case FieldColor:
		if color, ok := sanitize.HexColor(raw); ok {
			return color
		}
		return f.Default
	case FieldURL:
		return sanitize.URL(raw)
	}

	if !present {
		return f.Default
	}
	switch f.Type {
	case FieldText:
		if text := sanitize.Text(raw); text != "" {
			return text
		}
		return f.Default
	case FieldCSS:
		return sanitize.CSSValue(raw, f.Default)
	case FieldCamera:
		if value := sanitize.Opaque(raw); value != "" {
			return value
		}
		return f.Default
	case FieldDegrees:
		return strconv.FormatFloat(sanitize.FieldOfView(raw), 'f', -1, 64)
	case FieldNumber:
		return strconv.Itoa(sanitize.ClampInt(sanitize.AbsInt(raw), 0, f.Max))
	case FieldSelect:
		for _, option := range f.Options {
			if raw == option {
				return raw
			}
		}
		return f.Default
	case FieldModes:
		return sanitize.ARModes(raw)
	}
	return f.Default
}

// SanitizeModelForm turns a submitted edit form into the full set of meta
// fields. The legacy start_rotation and zoom_level inputs are accepted when
// their replacements are absent.
func SanitizeModelForm(form url.Values) map[string]string {
	meta := make(map[string]string, len(ModelFormFields))
	for _, field := range ModelFormFields {
		meta[field.MetaKey] = field.Value(form)
	}

	if !form.Has("wp3d_camera_orbit") && form.Has("wp3d_start_rotation") {
		if orbit := sanitize.Opaque(form.Get("wp3d_start_rotation")); orbit != "" {
			meta[MetaCameraOrbit] = orbit
		}
	}
	if !form.Has("wp3d_field_of_view") && form.Has("wp3d_zoom_level") {
		fov := sanitize.ZoomToFieldOfView(sanitize.ZoomLevel(form.Get("wp3d_zoom_level")))
		meta[MetaFieldOfView] = strconv.FormatFloat(fov, 'f', -1, 64)
	}
	return meta
}
