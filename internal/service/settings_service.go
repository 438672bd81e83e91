package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"

	"github.com/rs/zerolog"

	"modelviewer/internal/cache"
	"modelviewer/internal/metrics"
	"modelviewer/internal/models"
	"modelviewer/internal/repository"
	"modelviewer/internal/sanitize"
)

// OptionStore persists named option records.
type OptionStore interface {
	Get(ctx context.Context, name string) ([]byte, error)
	Put(ctx context.Context, name string, value []byte) error
	Delete(ctx context.Context, name string) error
}

// DefaultsSource yields the current plugin-wide viewer defaults.
type DefaultsSource interface {
	GetDefaults(ctx context.Context) models.ViewerDefaults
}

type SettingsService struct {
	options OptionStore
	cache   *cache.OptionCache
	metrics *metrics.Collector
	log     zerolog.Logger
}

func NewSettingsService(options OptionStore, optionCache *cache.OptionCache, collector *metrics.Collector, log zerolog.Logger) *SettingsService {
	return &SettingsService{
		options: options,
		cache:   optionCache,
		metrics: collector,
		log:     log,
	}
}

// GetDefaults never fails: a missing or unreadable record and storage errors
// all yield the fallback values for whatever could not be read.
func (s *SettingsService) GetDefaults(ctx context.Context) models.ViewerDefaults {
	raw, hit, err := s.cache.Get(ctx, models.ViewerOptionName)
	if err != nil {
		s.log.Warn().Err(err).Msg("settings cache read failed")
	}
	if s.cache != nil {
		s.metrics.RecordSettingsCache(hit)
	}
	if hit {
		return models.DecodeViewerDefaults(raw)
	}

	raw, err = s.options.Get(ctx, models.ViewerOptionName)
	if err != nil {
		if !errors.Is(err, repository.ErrOptionNotFound) {
			s.log.Error().Err(err).Msg("load viewer defaults failed")
		}
		return models.FallbackViewerDefaults()
	}

	if err := s.cache.Set(ctx, models.ViewerOptionName, raw); err != nil {
		s.log.Warn().Err(err).Msg("settings cache write failed")
	}
	return models.DecodeViewerDefaults(raw)
}

// SaveDefaults sanitizes a submitted settings form and replaces the stored
// record with the result.
func (s *SettingsService) SaveDefaults(ctx context.Context, form url.Values) (models.ViewerDefaults, error) {
	defaults := SanitizeDefaults(form)

	raw, err := json.Marshal(defaults)
	if err != nil {
		return models.ViewerDefaults{}, fmt.Errorf("encode viewer defaults: %w", err)
	}
	if err := s.options.Put(ctx, models.ViewerOptionName, raw); err != nil {
		return models.ViewerDefaults{}, fmt.Errorf("save viewer defaults: %w", err)
	}
	if err := s.cache.Set(ctx, models.ViewerOptionName, raw); err != nil {
		s.log.Warn().Err(err).Msg("settings cache write failed")
	}

	s.log.Info().
		Str("width", defaults.DefaultWidth).
		Str("height", defaults.DefaultHeight).
		Strs("mime_types", defaults.AllowedMimeTypes).
		Msg("viewer defaults saved")
	return defaults, nil
}

// Reset removes the stored record so every read falls back to the defaults.
func (s *SettingsService) Reset(ctx context.Context) error {
	if err := s.options.Delete(ctx, models.ViewerOptionName); err != nil && !errors.Is(err, repository.ErrOptionNotFound) {
		return fmt.Errorf("delete viewer defaults: %w", err)
	}
	if err := s.cache.Delete(ctx, models.ViewerOptionName); err != nil {
		s.log.Warn().Err(err).Msg("settings cache delete failed")
	}
	return nil
}

// SanitizeDefaults coerces every settings field. Absent fields take their
// fallback, checkboxes are on only when submitted.
func SanitizeDefaults(form url.Values) models.ViewerDefaults {
	out := models.FallbackViewerDefaults()

	if form.Has("default_width") {
		out.DefaultWidth = sanitize.Dimension(form.Get("default_width"), out.DefaultWidth)
	}
	if form.Has("default_height") {
		out.DefaultHeight = sanitize.Dimension(form.Get("default_height"), out.DefaultHeight)
	}
	if form.Has("default_background_color") {
		out.DefaultBackgroundColor = sanitize.HexColorOr(form.Get("default_background_color"), out.DefaultBackgroundColor)
	}
	if form.Has("default_zoom_level") {
		out.DefaultZoomLevel = sanitize.ZoomLevel(form.Get("default_zoom_level"))
	}
	if form.Has("max_file_size") {
		out.MaxFileSize = sanitize.MaxFileSize(form.Get("max_file_size"))
	}

	var mimes []string
	mimes = append(mimes, form["allowed_mime_types"]...)
	mimes = append(mimes, form["allowed_mime_types[]"]...)
	out.AllowedMimeTypes = models.IntersectMimeTypes(mimes)

	out.EnableDebugging = sanitize.Checked(form.Get("enable_debugging"), form.Has("enable_debugging"))
	out.LazyLoading = sanitize.Checked(form.Get("lazy_loading"), form.Has("lazy_loading"))
	out.EnableARByDefault = sanitize.Checked(form.Get("enable_ar_by_default"), form.Has("enable_ar_by_default"))
	return out
}
