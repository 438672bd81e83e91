package models

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecodeModelRecord_Defaults(t *testing.T) {
	defaults := FallbackViewerDefaults()
	defaults.DefaultBackgroundColor = "#222222"
	defaults.EnableARByDefault = true

	rec := DecodeModelRecord(ModelItem{ID: 5, Kind: KindModel}, map[string]string{}, defaults)

	assert.Equal(t, "#222222", rec.BackgroundColor)
	assert.Equal(t, DefaultCameraOrbit, rec.CameraOrbit)
	assert.Equal(t, DefaultCameraTarget, rec.CameraTarget)
	assert.Equal(t, 75.0, rec.FieldOfView)
	assert.True(t, rec.AREnabled)
	assert.True(t, rec.CameraControls)
	assert.False(t, rec.AutoRotate)
	assert.Equal(t, DefaultARModes, rec.ARModes)
	assert.Equal(t, "lazy", rec.Loading)
	assert.Equal(t, Label{Show: true, Text: "3D Model", Position: "top-left", Color: "rgba(0, 115, 170, 0.9)"}, rec.Label)
	assert.Equal(t, Border{Show: true, Color: "#0073aa", Width: 2, Shadow: true, Intensity: 3}, rec.Border)
	assert.Equal(t, DefaultARPosition, rec.ARPosition)
	assert.Equal(t, DefaultARColor, rec.ARColor)
}

func TestDecodeModelRecord_StoredValues(t *testing.T) {
	rec := DecodeModelRecord(ModelItem{ID: 5}, map[string]string{
		MetaModelFile:       "asset-1",
		MetaBackgroundColor: "#ABCDEF",
		MetaStartRotation:   "45deg 60deg 2m",
		MetaZoomLevel:       "2",
		MetaAREnabled:       "0",
		MetaCameraControls:  "0",
		MetaShowLabel:       "0",
		MetaBorderWidth:     "99",
		MetaShadowIntensity: "-4",
		MetaLabelPosition:   "middle",
		MetaLoading:         "eager",
	}, FallbackViewerDefaults())

	assert.Equal(t, "asset-1", rec.ModelFileRef)
	assert.Equal(t, "#abcdef", rec.BackgroundColor)
	assert.Equal(t, "45deg 60deg 2m", rec.CameraOrbit)
	assert.Equal(t, 37.5, rec.FieldOfView)
	assert.False(t, rec.AREnabled)
	assert.False(t, rec.CameraControls)
	assert.False(t, rec.Label.Show)
	assert.Equal(t, MaxBorderWidth, rec.Border.Width)
	assert.Equal(t, 4, rec.Border.Intensity)
	assert.Equal(t, DefaultLabelPosition, rec.Label.Position)
	assert.Equal(t, "eager", rec.Loading)
}

func TestDecodeModelRecord_OrbitPrefersCameraOrbit(t *testing.T) {
	rec := DecodeModelRecord(ModelItem{}, map[string]string{
		MetaStartRotation: "1deg 2deg 3m",
		MetaCameraOrbit:   "4deg 5deg 6m",
		MetaFieldOfView:   "200",
	}, FallbackViewerDefaults())

	assert.Equal(t, "4deg 5deg 6m", rec.CameraOrbit)
	assert.Equal(t, 120.0, rec.FieldOfView)
}

func TestSanitizeModelForm(t *testing.T) {
	form := url.Values{
		"wp3d_model_file":       {"2abc<script>"},
		"wp3d_bg_color":         {"#FFF"},
		"wp3d_ar_enabled":       {"on"},
		"wp3d_label_text":       {"<b>Chair</b>  model"},
		"wp3d_label_position":   {"bottom-right"},
		"wp3d_label_color":      {"red; background: url(x)"},
		"wp3d_border_width":     {"50"},
		"wp3d_shadow_intensity": {"7"},
		"wp3d_ios_src":          {"javascript:alert(1)"},
		"wp3d_ar_modes":         {"quick-look bogus webxr"},
		"wp3d_zoom_level":       {"0.5"},
	}

	meta := SanitizeModelForm(form)

	assert.Equal(t, "2abcscript", meta[MetaModelFile])
	assert.Equal(t, "#fff", meta[MetaBackgroundColor])
	assert.Equal(t, "1", meta[MetaAREnabled])
	assert.Equal(t, "0", meta[MetaAutoRotate])
	assert.Equal(t, "0", meta[MetaCameraControls])
	assert.Equal(t, "Chair model", meta[MetaLabelText])
	assert.Equal(t, "bottom-right", meta[MetaLabelPosition])
	assert.Equal(t, DefaultLabelColor, meta[MetaLabelColor])
	assert.Equal(t, "20", meta[MetaBorderWidth])
	assert.Equal(t, "7", meta[MetaShadowIntensity])
	assert.Equal(t, "", meta[MetaIOSSrc])
	assert.Equal(t, "quick-look webxr", meta[MetaARModes])
	assert.Equal(t, "120", meta[MetaFieldOfView])
	assert.Equal(t, DefaultCameraOrbit, meta[MetaCameraOrbit])
	assert.Len(t, meta, len(ModelFormFields))
}

func TestSanitizeModelForm_RoundTripsThroughDecode(t *testing.T) {
	form := url.Values{
		"wp3d_model_file":      {"asset1"},
		"wp3d_auto_rotate":     {"1"},
		"wp3d_camera_controls": {"1"},
		"wp3d_field_of_view":   {"30deg"},
		"wp3d_show_border":     {"1"},
		"wp3d_border_color":    {"#123456"},
	}

	rec := DecodeModelRecord(ModelItem{Kind: KindModel}, SanitizeModelForm(form), FallbackViewerDefaults())

	assert.Equal(t, "asset1", rec.ModelFileRef)
	assert.True(t, rec.AutoRotate)
	assert.True(t, rec.CameraControls)
	assert.False(t, rec.AREnabled)
	assert.Equal(t, 30.0, rec.FieldOfView)
	assert.False(t, rec.Label.Show)
	assert.True(t, rec.Border.Show)
	assert.Equal(t, "#123456", rec.Border.Color)
	assert.Equal(t, "#ffffff", rec.BackgroundColor)
}
