package viewer

import (
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"strconv"
	"strings"

	"modelviewer/internal/models"
	"modelviewer/internal/sanitize"
)

const (
	ConfigScriptClass = "wp3d-config"
	ErrorClass        = "wp3d-error"
)

// Serialize renders cfg as a model-viewer element with its slots, the optional
// label and border wrapper, and a JSON sidecar mirroring cfg for the client
// script.
func Serialize(cfg Config) string {
	var b strings.Builder

	wrapped := cfg.Label.Show || cfg.Border.Show
	if wrapped {
		b.WriteString(`<div class="wp3d-viewer-wrapper"`)
		writeAttr(&b, "style", wrapperStyle(cfg))
		b.WriteString(">")
		if cfg.Label.Show {
			writeLabel(&b, cfg)
		}
	}

	b.WriteString("<model-viewer")
	writeAttr(&b, "src", cfg.Src)
	writeAttr(&b, "id", cfg.ViewerID)
	writeAttr(&b, "class", strings.Join(cfg.Classes, " "))
	writeAttr(&b, "style", fmt.Sprintf("width: %s; height: %s; background-color: %s;", cfg.Width, cfg.Height, cfg.BackgroundColor))
	if cfg.CameraOrbit != models.DefaultCameraOrbit {
		writeAttr(&b, "camera-orbit", cfg.CameraOrbit)
	}
	if cfg.CameraTarget != models.DefaultCameraTarget {
		writeAttr(&b, "camera-target", cfg.CameraTarget)
	}
	if cfg.FieldOfViewDeg != sanitize.FieldOfViewDefault {
		writeAttr(&b, "field-of-view", FormatDegrees(cfg.FieldOfViewDeg))
	}
	if cfg.AutoRotate {
		b.WriteString(" auto-rotate")
	}
	if cfg.CameraControls {
		b.WriteString(" camera-controls")
	}
	if cfg.PosterSrc != "" {
		writeAttr(&b, "poster", cfg.PosterSrc)
	}
	if cfg.AltText != "" {
		writeAttr(&b, "alt", cfg.AltText)
	}
	if cfg.AREnabled {
		b.WriteString(" ar")
		writeAttr(&b, "ar-modes", cfg.ARModes)
		if cfg.IOSSrc != "" {
			writeAttr(&b, "ios-src", cfg.IOSSrc)
		}
	}
	writeAttr(&b, "loading", cfg.Loading)
	if cfg.Reveal != "" {
		writeAttr(&b, "reveal", cfg.Reveal)
	}
	b.WriteString(">")

	writeSlots(&b, cfg)
	b.WriteString("</model-viewer>")

	if wrapped {
		b.WriteString("</div>")
	}

	writeSidecar(&b, cfg)
	return b.String()
}

// FormatDegrees formats a field of view the way the viewer element expects it.
func FormatDegrees(deg float64) string {
	return strconv.FormatFloat(deg, 'f', -1, 64) + "deg"
}

func writeAttr(b *strings.Builder, name, value string) {
	b.WriteString(" ")
	b.WriteString(name)
	b.WriteString(`="`)
	b.WriteString(html.EscapeString(value))
	b.WriteString(`"`)
}

func writeSlots(b *strings.Builder, cfg Config) {
	b.WriteString(`<div slot="poster" class="wp3d-loading-container">`)
	if cfg.PosterSrc != "" {
		b.WriteString("<img")
		writeAttr(b, "src", cfg.PosterSrc)
		writeAttr(b, "alt", cfg.AltText)
		writeAttr(b, "class", "wp3d-poster-image")
		b.WriteString(" />")
	} else {
		b.WriteString(`<div class="wp3d-loading-placeholder"><div class="wp3d-loading-spinner"></div><p>Loading 3D Model`)
		if cfg.Title != "" {
			b.WriteString(": ")
			b.WriteString(html.EscapeString(cfg.Title))
		}
		b.WriteString("</p></div>")
	}
	b.WriteString("</div>")

	b.WriteString(`<div slot="progress-bar" class="wp3d-progress-bar"><div class="wp3d-progress-fill"></div></div>`)

	if cfg.AREnabled {
		b.WriteString(`<button slot="ar-button"`)
		writeAttr(b, "class", "wp3d-ar-button wp3d-ar-"+cfg.ARPosition)
		writeAttr(b, "style", cornerStyle(cfg.ARPosition, "16px")+fmt.Sprintf(" background: %s;", cfg.ARColor))
		b.WriteString(` aria-label="View in AR"><span class="wp3d-ar-icon">&#128241;</span><span class="wp3d-ar-text">View in AR</span></button>`)
	}

	b.WriteString(`<div slot="fallback" class="wp3d-error-fallback"><p>Unable to load 3D model. Please try refreshing the page.</p>`)
	if cfg.PosterSrc != "" {
		b.WriteString("<img")
		writeAttr(b, "src", cfg.PosterSrc)
		writeAttr(b, "alt", cfg.AltText)
		b.WriteString(" />")
	}
	b.WriteString("</div>")
}

func writeLabel(b *strings.Builder, cfg Config) {
	b.WriteString("<div")
	writeAttr(b, "class", "wp3d-model-label wp3d-label-"+cfg.Label.Position)
	writeAttr(b, "style", cornerStyle(cfg.Label.Position, "10px")+
		fmt.Sprintf(" background: %s; color: #ffffff; padding: 4px 10px; border-radius: 4px; z-index: 10;", cfg.Label.Color))
	b.WriteString(">")
	b.WriteString(html.EscapeString(cfg.Label.Text))
	b.WriteString("</div>")
}

func wrapperStyle(cfg Config) string {
	style := "position: relative; display: inline-block; max-width: 100%;"
	if !cfg.Border.Show {
		return style
	}
	style += fmt.Sprintf(" border: %dpx solid %s; border-radius: 8px;", cfg.Border.Width, cfg.Border.Color)
	if cfg.Border.Shadow && cfg.Border.Intensity > 0 {
		i := cfg.Border.Intensity
		style += fmt.Sprintf(" box-shadow: 0 %dpx %dpx rgba(0, 0, 0, %.2f);", i, i*3, float64(i)*0.05)
	}
	return style
}

func cornerStyle(position, offset string) string {
	vertical, horizontal := "top", "left"
	switch position {
	case sanitize.PositionTopRight:
		horizontal = "right"
	case sanitize.PositionBottomLeft:
		vertical = "bottom"
	case sanitize.PositionBottomRight:
		vertical, horizontal = "bottom", "right"
	}
	return fmt.Sprintf("position: absolute; %s: %s; %s: %s;", vertical, offset, horizontal, offset)
}

func writeSidecar(b *strings.Builder, cfg Config) {
	payload, err := json.Marshal(cfg)
	if err != nil {
		return
	}
	b.WriteString(`<script type="application/json"`)
	writeAttr(b, "class", ConfigScriptClass)
	writeAttr(b, "data-for", cfg.ViewerID)
	b.WriteString(">")
	b.Write(payload)
	b.WriteString("</script>")
}

// ErrorFragment renders err as the inline error shown in place of a viewer.
// Errors outside the render taxonomy get a generic message.
func ErrorFragment(err error) string {
	message := "3D model could not be displayed"
	switch {
	case errors.Is(err, ErrMissingRequiredField),
		errors.Is(err, ErrNotFound),
		errors.Is(err, ErrMissingAsset):
		message = err.Error()
	}
	message = strings.ToUpper(message[:1]) + message[1:]
	return fmt.Sprintf(`<div class="%s">Error: %s.</div>`, ErrorClass, html.EscapeString(message))
}
