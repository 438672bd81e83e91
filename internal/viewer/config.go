// Package viewer resolves render requests into fully populated viewer
// configurations and serializes them into model-viewer markup.
package viewer

import (
	"errors"

	"modelviewer/internal/models"
)

var (
	ErrMissingRequiredField = errors.New("model source URL is required")
	ErrNotFound             = errors.New("3D model not found")
	ErrMissingAsset         = errors.New("no model file found for this 3D model")
)

// Config is a resolved viewer configuration. Every field holds a render-ready
// value; optional parts are empty strings or disabled flags.
type Config struct {
	ItemID int64  `json:"itemId,omitempty"`
	Title  string `json:"title,omitempty"`

	Src       string `json:"src"`
	IOSSrc    string `json:"iosSrc,omitempty"`
	PosterSrc string `json:"poster,omitempty"`

	Width           string `json:"width"`
	Height          string `json:"height"`
	BackgroundColor string `json:"backgroundColor"`

	CameraOrbit    string  `json:"cameraOrbit"`
	CameraTarget   string  `json:"cameraTarget"`
	FieldOfViewDeg float64 `json:"fieldOfView"`
	AutoRotate     bool    `json:"autoRotate"`
	CameraControls bool    `json:"cameraControls"`

	AREnabled  bool   `json:"ar"`
	ARModes    string `json:"arModes,omitempty"`
	ARPosition string `json:"arPosition"`
	ARColor    string `json:"arColor"`

	Label  models.Label  `json:"label"`
	Border models.Border `json:"border"`

	AltText  string   `json:"alt"`
	ViewerID string   `json:"viewerId"`
	Classes  []string `json:"classes"`
	Loading  string   `json:"loading"`
	Reveal   string   `json:"reveal,omitempty"`
}
