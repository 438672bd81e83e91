package viewer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"modelviewer/internal/models"
	"modelviewer/internal/repository"
	"modelviewer/internal/sanitize"
)

const (
	fallbackWidth  = "100%"
	fallbackHeight = "400px"
)

type RecordSource interface {
	GetRecord(ctx context.Context, id int64) (models.ModelRecord, error)
}

// AssetSource turns a stored asset reference into a public URL.
type AssetSource interface {
	AssetURL(ctx context.Context, ref string) (string, error)
}

type Resolver struct {
	records RecordSource
	assets  AssetSource
}

func NewResolver(records RecordSource, assets AssetSource) *Resolver {
	return &Resolver{records: records, assets: assets}
}

// Resolve merges call-site attributes, the stored item (when the request
// references one) and the viewer defaults into a Config. Precedence from high
// to low: call-site attribute, stored value, viewer default, literal default.
func (r *Resolver) Resolve(ctx context.Context, defaults models.ViewerDefaults, req Request) (Config, error) {
	if id, ok := req.ItemID(); ok {
		return r.resolveItem(ctx, defaults, id, req)
	}
	return r.resolveAdHoc(defaults, req)
}

func (r *Resolver) resolveItem(ctx context.Context, defaults models.ViewerDefaults, id int64, req Request) (Config, error) {
	record, err := r.records.GetRecord(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrModelNotFound) {
			return Config{}, fmt.Errorf("%w (ID: %d)", ErrNotFound, id)
		}
		return Config{}, fmt.Errorf("load model %d: %w", id, err)
	}
	if record.Item.Kind != models.KindModel {
		return Config{}, fmt.Errorf("%w (ID: %d)", ErrNotFound, id)
	}
	if record.ModelFileRef == "" {
		return Config{}, ErrMissingAsset
	}

	src, err := r.assets.AssetURL(ctx, record.ModelFileRef)
	if err != nil {
		if errors.Is(err, repository.ErrAssetNotFound) {
			return Config{}, fmt.Errorf("%w: file %s is unavailable", ErrMissingAsset, record.ModelFileRef)
		}
		return Config{}, fmt.Errorf("resolve model file: %w", err)
	}

	cfg := fromRecord(record, defaults)
	cfg.ItemID = id
	cfg.Title = record.Item.Title
	cfg.Src = src
	cfg.Classes = []string{"wp3d-viewer", "wp3d-cpt-model"}
	cfg.AltText = sanitize.Text(record.Item.Title)
	if cfg.AltText == "" {
		cfg.AltText = models.DefaultLabelText
	}

	iosSrc, err := r.optionalAsset(ctx, record.IOSFileRef)
	if err != nil {
		return Config{}, err
	}
	if iosSrc != "" {
		cfg.IOSSrc = iosSrc
	}
	if cfg.PosterSrc, err = r.optionalAsset(ctx, record.PosterImageRef); err != nil {
		return Config{}, err
	}

	applyAttributes(&cfg, req.Attrs)
	cfg.ViewerID = viewerID(req, fmt.Sprintf("wp3d-model-%d-", id))
	finalize(&cfg)
	return cfg, nil
}

func (r *Resolver) optionalAsset(ctx context.Context, ref string) (string, error) {
	if ref == "" {
		return "", nil
	}
	url, err := r.assets.AssetURL(ctx, ref)
	if err != nil {
		if errors.Is(err, repository.ErrAssetNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("resolve asset %s: %w", ref, err)
	}
	return url, nil
}

func (r *Resolver) resolveAdHoc(defaults models.ViewerDefaults, req Request) (Config, error) {
	raw, ok := req.Attrs.Lookup("src")
	if !ok {
		return Config{}, ErrMissingRequiredField
	}
	src := sanitize.URL(raw)
	if src == "" {
		return Config{}, ErrMissingRequiredField
	}

	// Ad-hoc embeds start from an empty record with the decorations off.
	record := models.DecodeModelRecord(models.ModelItem{Kind: models.KindModel}, map[string]string{
		models.MetaShowLabel:  "0",
		models.MetaShowBorder: "0",
	}, defaults)

	cfg := fromRecord(record, defaults)
	cfg.Src = src
	cfg.Classes = []string{"wp3d-viewer"}

	applyAttributes(&cfg, req.Attrs)
	cfg.ViewerID = viewerID(req, "wp3d-viewer-")
	finalize(&cfg)
	return cfg, nil
}

func fromRecord(record models.ModelRecord, defaults models.ViewerDefaults) Config {
	return Config{
		Width:           sanitize.Dimension(defaults.DefaultWidth, fallbackWidth),
		Height:          sanitize.Dimension(defaults.DefaultHeight, fallbackHeight),
		BackgroundColor: record.BackgroundColor,
		CameraOrbit:     record.CameraOrbit,
		CameraTarget:    record.CameraTarget,
		FieldOfViewDeg:  record.FieldOfView,
		AutoRotate:      record.AutoRotate,
		CameraControls:  record.CameraControls,
		AREnabled:       record.AREnabled,
		ARModes:         record.ARModes,
		ARPosition:      record.ARPosition,
		ARColor:         record.ARColor,
		IOSSrc:          record.IOSSrc,
		Label:           record.Label,
		Border:          record.Border,
		Loading:         record.Loading,
	}
}

func applyAttributes(cfg *Config, attrs Attributes) {
	if v, ok := attrs.Lookup("width"); ok {
		cfg.Width = sanitize.Dimension(v, fallbackWidth)
	}
	if v, ok := attrs.Lookup("height"); ok {
		cfg.Height = sanitize.Dimension(v, fallbackHeight)
	}
	if v, ok := attrs.Lookup("background_color"); ok {
		cfg.BackgroundColor = sanitize.HexColorOr(v, cfg.BackgroundColor)
	}
	if v, ok := attrs.Lookup("camera_orbit"); ok {
		if orbit := sanitize.Opaque(v); orbit != "" {
			cfg.CameraOrbit = orbit
		}
	}
	if v, ok := attrs.Lookup("camera_target"); ok {
		if target := sanitize.Opaque(v); target != "" {
			cfg.CameraTarget = target
		}
	}
	if v, ok := attrs.Lookup("field_of_view"); ok {
		cfg.FieldOfViewDeg = sanitize.FieldOfView(v)
	} else if v, ok := attrs.Lookup("zoom_level"); ok {
		cfg.FieldOfViewDeg = sanitize.ZoomToFieldOfView(sanitize.ZoomLevel(v))
	}
	setBool(attrs, "auto_rotate", &cfg.AutoRotate)
	setBool(attrs, "camera_controls", &cfg.CameraControls)
	setBool(attrs, "ar", &cfg.AREnabled)
	if v, ok := attrs.Lookup("ar_modes"); ok {
		cfg.ARModes = sanitize.ARModes(v)
	}
	if v, ok := attrs.Lookup("ios_src"); ok {
		if url := sanitize.URL(v); url != "" {
			cfg.IOSSrc = url
		}
	}
	if v, ok := attrs.Lookup("poster"); ok {
		if url := sanitize.URL(v); url != "" {
			cfg.PosterSrc = url
		}
	}
	if v, ok := attrs.Lookup("alt"); ok {
		if alt := sanitize.Text(v); alt != "" {
			cfg.AltText = alt
		}
	}
	if v, ok := attrs.Lookup("loading"); ok {
		cfg.Loading = sanitize.Loading(v, cfg.Loading)
	}
	if v, ok := attrs.Lookup("class"); ok {
		if class := sanitize.HTMLClass(v); class != "" {
			cfg.Classes = append(cfg.Classes, class)
		}
	}

	setBool(attrs, "show_label", &cfg.Label.Show)
	if v, ok := attrs.Lookup("label_text"); ok {
		if text := sanitize.Text(v); text != "" {
			cfg.Label.Text = text
		}
	}
	if v, ok := attrs.Lookup("label_position"); ok {
		cfg.Label.Position = sanitize.Position(v, cfg.Label.Position)
	}
	if v, ok := attrs.Lookup("label_color"); ok {
		cfg.Label.Color = sanitize.CSSValue(v, cfg.Label.Color)
	}
	if v, ok := attrs.Lookup("ar_position"); ok {
		cfg.ARPosition = sanitize.Position(v, cfg.ARPosition)
	}
	if v, ok := attrs.Lookup("ar_color"); ok {
		cfg.ARColor = sanitize.CSSValue(v, cfg.ARColor)
	}

	setBool(attrs, "show_border", &cfg.Border.Show)
	if v, ok := attrs.Lookup("border_color"); ok {
		cfg.Border.Color = sanitize.HexColorOr(v, cfg.Border.Color)
	}
	if v, ok := attrs.Lookup("border_width"); ok {
		cfg.Border.Width = sanitize.ClampInt(sanitize.AbsInt(v), 0, models.MaxBorderWidth)
	}
	setBool(attrs, "border_shadow", &cfg.Border.Shadow)
	if v, ok := attrs.Lookup("shadow_intensity"); ok {
		cfg.Border.Intensity = sanitize.ClampInt(sanitize.AbsInt(v), 0, models.MaxShadowIntensity)
	}
}

func setBool(attrs Attributes, key string, dst *bool) {
	if v, ok := attrs.Lookup(key); ok {
		*dst = sanitize.Bool(v)
	}
}

// finalize enforces the cross-field rules: AR needs at least one mode and AR
// fields exist only while AR is on.
func finalize(cfg *Config) {
	if !cfg.AREnabled || cfg.ARModes == "" {
		cfg.AREnabled = false
		cfg.ARModes = ""
		cfg.IOSSrc = ""
	}
	cfg.Reveal = ""
	if cfg.Loading == "lazy" {
		cfg.Reveal = "interaction"
	}
}

// viewerID returns the sanitized viewer_id attribute, or an identifier derived
// from the request so that equal requests resolve to equal IDs.
func viewerID(req Request, prefix string) string {
	if v, ok := req.Attrs.Lookup("viewer_id"); ok {
		if id := sanitize.HTMLID(v); id != "" {
			return id
		}
	}

	keys := make([]string, 0, len(req.Attrs))
	for key := range req.Attrs {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	h := sha256.New()
	for _, key := range keys {
		h.Write([]byte(key))
		h.Write([]byte{0})
		h.Write([]byte(req.Attrs[key]))
		h.Write([]byte{0})
	}
	h.Write([]byte(strconv.Itoa(max(req.Instance, 1))))
	return prefix + hex.EncodeToString(h.Sum(nil))[:12]
}
