package service

import (
	"context"
	"errors"
	"strconv"

	"github.com/rs/zerolog"

	"modelviewer/internal/metrics"
	"modelviewer/internal/shortcode"
	"modelviewer/internal/viewer"
)

const (
	SurfaceItem      = "item"
	SurfaceShortcode = "shortcode"
	SurfaceBlock     = "block"
)

// RenderService turns embed requests into viewer markup. Render errors never
// escape: they are rendered as an inline error fragment instead.
type RenderService struct {
	resolver *viewer.Resolver
	defaults DefaultsSource
	metrics  *metrics.Collector
	log      zerolog.Logger
}

func NewRenderService(resolver *viewer.Resolver, defaults DefaultsSource, collector *metrics.Collector, log zerolog.Logger) *RenderService {
	return &RenderService{
		resolver: resolver,
		defaults: defaults,
		metrics:  collector,
		log:      log,
	}
}

// RenderItem renders the single-item embed of model id. overrides act as
// call-site attributes, except that they cannot change the item. instance is
// the position of the embed on its page, starting at 1.
func (s *RenderService) RenderItem(ctx context.Context, id int64, overrides map[string]string, instance int) string {
	attrs := viewer.Attributes{}
	for key, value := range overrides {
		attrs[key] = value
	}
	attrs["id"] = strconv.FormatInt(id, 10)
	return s.render(ctx, SurfaceItem, viewer.Request{Attrs: attrs, Instance: instance})
}

// RenderShortcodes expands every viewer shortcode in content.
func (s *RenderService) RenderShortcodes(ctx context.Context, content string) string {
	return shortcode.Expand(ctx, content, func(ctx context.Context, sc shortcode.Shortcode, instance int) string {
		return s.render(ctx, SurfaceShortcode, viewer.Request{Attrs: sc.Attrs, Instance: instance})
	})
}

func (s *RenderService) RenderBlock(ctx context.Context, block viewer.BlockAttributes, instance int) string {
	return s.render(ctx, SurfaceBlock, viewer.Request{Attrs: block.Attributes(), Instance: instance})
}

func (s *RenderService) render(ctx context.Context, surface string, req viewer.Request) string {
	defaults := s.defaults.GetDefaults(ctx)

	cfg, err := s.resolver.Resolve(ctx, defaults, req)
	if err != nil {
		outcome := renderOutcome(err)
		s.metrics.RecordRender(surface, outcome)

		event := s.log.Debug()
		if outcome == "error" {
			event = s.log.Error()
		}
		event.Err(err).Str("surface", surface).Msg("render failed")
		return viewer.ErrorFragment(err)
	}

	s.metrics.RecordRender(surface, "ok")
	if defaults.EnableDebugging {
		s.log.Debug().
			Str("surface", surface).
			Str("viewer_id", cfg.ViewerID).
			Interface("config", cfg).
			Msg("viewer resolved")
	}
	return viewer.Serialize(cfg)
}

func renderOutcome(err error) string {
	switch {
	case errors.Is(err, viewer.ErrMissingRequiredField):
		return "missing_source"
	case errors.Is(err, viewer.ErrNotFound):
		return "not_found"
	case errors.Is(err, viewer.ErrMissingAsset):
		return "missing_asset"
	}
	return "error"
}
