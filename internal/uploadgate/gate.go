// Package uploadgate decides which 3D model file extensions the upload endpoint
// accepts, based on the allow-list in the viewer defaults.
package uploadgate

import (
	"strings"

	"modelviewer/internal/models"
)

var extensionsByMime = map[string][]string{
	models.MimeGLTFJSON:   {"gltf"},
	models.MimeGLTFBinary: {"glb"},
	models.MimeOBJ:        {"obj"},
	models.MimeFBX:        {"fbx"},
	models.MimeCollada:    {"dae"},
	models.MimeUSDZ:       {"usdz"},
	models.MimeUSD:        {"usd"},
}

var fallbackMimeTypes = []string{models.MimeGLTFBinary, models.MimeGLTFJSON}

// AllowedMimeTypes returns the configured allow-list, or glb and gltf when
// nothing is configured.
func AllowedMimeTypes(defaults models.ViewerDefaults) []string {
	if len(defaults.AllowedMimeTypes) == 0 {
		return fallbackMimeTypes
	}
	return defaults.AllowedMimeTypes
}

// ExtendAcceptedTypes returns a copy of current (extension -> MIME) with the
// extensions of every allowed model MIME type added. current is not modified.
func ExtendAcceptedTypes(current map[string]string, defaults models.ViewerDefaults) map[string]string {
	out := make(map[string]string, len(current)+len(extensionsByMime))
	for ext, mime := range current {
		out[ext] = mime
	}
	for _, mime := range AllowedMimeTypes(defaults) {
		for _, ext := range extensionsByMime[mime] {
			out[ext] = mime
		}
	}
	return out
}

// Accepts reports whether a model file with extension ext may be uploaded. The
// extension is matched without its leading dot and case-insensitively.
func Accepts(defaults models.ViewerDefaults, ext string) (string, bool) {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	mime, ok := ExtendAcceptedTypes(nil, defaults)[ext]
	return mime, ok
}
