package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/rs/zerolog"

	"modelviewer/internal/models"
	"modelviewer/internal/repository"
	"modelviewer/internal/sanitize"
	"modelviewer/internal/security"
)

// ModelStore persists model items and their meta fields.
type ModelStore interface {
	Create(ctx context.Context, item models.ModelItem) (models.ModelItem, error)
	GetItem(ctx context.Context, id int64) (models.ModelItem, error)
	GetMeta(ctx context.Context, id int64) (map[string]string, error)
	SaveMeta(ctx context.Context, id int64, title *string, meta map[string]string) error
	List(ctx context.Context, authorID string, limit, offset int) ([]models.ModelItem, error)
	Delete(ctx context.Context, id int64) error
}

// AssetLookup loads the uploads model records point at.
type AssetLookup interface {
	GetByID(ctx context.Context, id string) (models.Asset, error)
}

// ErrInvalidAssetRef is returned when a saved file field names an upload that
// is missing, rejected, of the wrong kind or owned by someone else.
var ErrInvalidAssetRef = errors.New("invalid asset reference")

// assetFields are the file fields of a record with the upload kind each accepts.
var assetFields = []struct {
	MetaKey string
	Kind    models.AssetKind
}{
	{models.MetaModelFile, models.AssetKindModel},
	{models.MetaIOSFile, models.AssetKindModel},
	{models.MetaPosterImage, models.AssetKindPoster},
}

type AuthReason string

const (
	AuthReasonInvalidNonce AuthReason = "invalid_nonce"
	AuthReasonAutosave     AuthReason = "autosave"
	AuthReasonForbidden    AuthReason = "forbidden"
)

// AuthError is returned when a write is refused by one of its gates. The HTTP
// layer maps the reason onto a response.
type AuthError struct {
	Reason AuthReason
	ItemID int64
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("model %d: write refused: %s", e.ItemID, e.Reason)
}

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

type ModelService struct {
	store    ModelStore
	assets   AssetLookup
	defaults DefaultsSource
	nonces   *security.Nonces
	log      zerolog.Logger
}

func NewModelService(store ModelStore, assets AssetLookup, defaults DefaultsSource, nonces *security.Nonces, log zerolog.Logger) *ModelService {
	return &ModelService{
		store:    store,
		assets:   assets,
		defaults: defaults,
		nonces:   nonces,
		log:      log,
	}
}

// NonceAction names the anti-forgery action guarding saves of item id.
func NonceAction(id int64) string {
	return fmt.Sprintf("save_model:%d", id)
}

// GetRecord loads item id with every meta field filled.
func (s *ModelService) GetRecord(ctx context.Context, id int64) (models.ModelRecord, error) {
	item, err := s.store.GetItem(ctx, id)
	if err != nil {
		return models.ModelRecord{}, err
	}
	meta, err := s.store.GetMeta(ctx, id)
	if err != nil {
		return models.ModelRecord{}, fmt.Errorf("load meta %d: %w", id, err)
	}
	return models.DecodeModelRecord(item, meta, s.defaults.GetDefaults(ctx)), nil
}

// EditableRecord loads item id for an actor allowed to edit it.
func (s *ModelService) EditableRecord(ctx context.Context, id int64, actor models.User) (models.ModelRecord, error) {
	record, err := s.GetRecord(ctx, id)
	if err != nil {
		return models.ModelRecord{}, err
	}
	if !actor.CanEditItem(record.Item) {
		return models.ModelRecord{}, &AuthError{Reason: AuthReasonForbidden, ItemID: id}
	}
	return record, nil
}

type SaveRecordInput struct {
	Title    *string
	Form     url.Values
	Nonce    string
	Autosave bool
}

// SaveRecord checks, in order, the anti-forgery token, the autosave flag and
// the actor's edit capability on the item, then stores every form field.
// Newly set file fields must name usable uploads of the actor or the item's
// author.
func (s *ModelService) SaveRecord(ctx context.Context, id int64, input SaveRecordInput, actor models.User) error {
	if !s.nonces.Verify(input.Nonce, actor.ID, NonceAction(id)) {
		return &AuthError{Reason: AuthReasonInvalidNonce, ItemID: id}
	}
	if input.Autosave {
		return &AuthError{Reason: AuthReasonAutosave, ItemID: id}
	}

	item, err := s.store.GetItem(ctx, id)
	if err != nil {
		return err
	}
	if !actor.CanEditItem(item) {
		return &AuthError{Reason: AuthReasonForbidden, ItemID: id}
	}

	var title *string
	if input.Title != nil {
		clean := sanitize.Text(*input.Title)
		title = &clean
	}

	meta := models.SanitizeModelForm(input.Form)
	if err := s.checkAssetRefs(ctx, item, meta, actor); err != nil {
		return err
	}
	if err := s.store.SaveMeta(ctx, id, title, meta); err != nil {
		return fmt.Errorf("save model %d: %w", id, err)
	}

	s.log.Info().Int64("model_id", id).Str("user_id", actor.ID).Msg("model saved")
	return nil
}

func (s *ModelService) checkAssetRefs(ctx context.Context, item models.ModelItem, meta map[string]string, actor models.User) error {
	var current map[string]string
	loaded := false
	for _, field := range assetFields {
		ref := meta[field.MetaKey]
		if ref == "" {
			continue
		}
		if !loaded {
			var err error
			if current, err = s.store.GetMeta(ctx, item.ID); err != nil {
				return fmt.Errorf("load meta %d: %w", item.ID, err)
			}
			loaded = true
		}
		if current[field.MetaKey] == ref {
			continue
		}

		asset, err := s.assets.GetByID(ctx, ref)
		if err != nil {
			if errors.Is(err, repository.ErrAssetNotFound) {
				return fmt.Errorf("%w: %s: %s not found", ErrInvalidAssetRef, field.MetaKey, ref)
			}
			return fmt.Errorf("load asset %s: %w", ref, err)
		}
		switch {
		case asset.Status == models.AssetStatusRejected:
			return fmt.Errorf("%w: %s: %s was rejected", ErrInvalidAssetRef, field.MetaKey, ref)
		case asset.Kind != field.Kind:
			return fmt.Errorf("%w: %s: %s is a %s", ErrInvalidAssetRef, field.MetaKey, ref, asset.Kind)
		case asset.OwnerID != actor.ID && asset.OwnerID != item.AuthorID:
			return fmt.Errorf("%w: %s: %s belongs to another user", ErrInvalidAssetRef, field.MetaKey, ref)
		}
	}
	return nil
}

// IssueNonce returns the token the actor must send back when saving item id.
func (s *ModelService) IssueNonce(ctx context.Context, id int64, actor models.User) (string, error) {
	item, err := s.store.GetItem(ctx, id)
	if err != nil {
		return "", err
	}
	if !actor.CanEditItem(item) {
		return "", &AuthError{Reason: AuthReasonForbidden, ItemID: id}
	}
	return s.nonces.Create(actor.ID, NonceAction(id)), nil
}

func (s *ModelService) Create(ctx context.Context, title string, actor models.User) (models.ModelItem, error) {
	if !actor.Can(models.CapEditModels) {
		return models.ModelItem{}, &AuthError{Reason: AuthReasonForbidden}
	}
	title = sanitize.Text(title)
	if title == "" {
		title = "Untitled 3D Model"
	}

	item, err := s.store.Create(ctx, models.ModelItem{
		Kind:     models.KindModel,
		Title:    title,
		AuthorID: actor.ID,
		Status:   models.ItemStatusPublish,
	})
	if err != nil {
		return models.ModelItem{}, fmt.Errorf("create model: %w", err)
	}
	s.log.Info().Int64("model_id", item.ID).Str("user_id", actor.ID).Msg("model created")
	return item, nil
}

// ModelListEntry is an item as shown in the admin list.
type ModelListEntry struct {
	models.ModelItem
	Shortcode string `json:"shortcode"`
}

// Shortcode is the embed code for item id.
func Shortcode(id int64) string {
	return fmt.Sprintf(`[3d_model id="%d"]`, id)
}

// List returns the items the actor may edit, newest first.
func (s *ModelService) List(ctx context.Context, actor models.User, limit, offset int) ([]ModelListEntry, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	limit = min(limit, maxListLimit)
	offset = max(offset, 0)

	authorID := ""
	if !actor.Can(models.CapEditOthersModels) {
		authorID = actor.ID
	}

	items, err := s.store.List(ctx, authorID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list models: %w", err)
	}
	out := make([]ModelListEntry, 0, len(items))
	for _, item := range items {
		out = append(out, ModelListEntry{ModelItem: item, Shortcode: Shortcode(item.ID)})
	}
	return out, nil
}

// Delete removes the item and its meta. Uploaded files stay in place.
func (s *ModelService) Delete(ctx context.Context, id int64, actor models.User) error {
	item, err := s.store.GetItem(ctx, id)
	if err != nil {
		return err
	}
	if !actor.CanEditItem(item) {
		return &AuthError{Reason: AuthReasonForbidden, ItemID: id}
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete model %d: %w", id, err)
	}
	s.log.Info().Int64("model_id", id).Str("user_id", actor.ID).Msg("model deleted")
	return nil
}

// Schema is the edit form definition.
func (s *ModelService) Schema() []models.FormField {
	return models.ModelFormFields
}
