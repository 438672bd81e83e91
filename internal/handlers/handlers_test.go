package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"modelviewer/internal/config"
	"modelviewer/internal/middleware"
	"modelviewer/internal/models"
	"modelviewer/internal/repository"
	"modelviewer/internal/security"
	"modelviewer/internal/service"
	"modelviewer/internal/viewer"
)

const testSecret = "handler-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

var (
	admin  = models.User{ID: "admin", Email: "admin@example.com", Role: models.UserRoleAdmin, Status: models.UserStatusActive}
	author = models.User{ID: "author", Email: "author@example.com", Role: models.UserRoleAuthor, Status: models.UserStatusActive}
)

type fakeLoader map[string]models.User

func (f fakeLoader) Current(_ context.Context, id string) (models.User, error) {
	user, ok := f[id]
	if !ok {
		return models.User{}, repository.ErrUserNotFound
	}
	return user, nil
}

type fakeAuth struct {
	result service.AuthResult
	err    error
}

func (f *fakeAuth) Register(context.Context, service.RegisterInput) (service.AuthResult, error) {
	return f.result, f.err
}

func (f *fakeAuth) Login(context.Context, service.LoginInput) (service.AuthResult, error) {
	return f.result, f.err
}

type fakeSettings struct {
	defaults models.ViewerDefaults
	saved    url.Values
	reset    bool
}

func (f *fakeSettings) GetDefaults(context.Context) models.ViewerDefaults { return f.defaults }

func (f *fakeSettings) SaveDefaults(_ context.Context, form url.Values) (models.ViewerDefaults, error) {
	f.saved = form
	return service.SanitizeDefaults(form), nil
}

func (f *fakeSettings) Reset(context.Context) error {
	f.reset = true
	return nil
}

type fakeModels struct {
	record   models.ModelRecord
	getErr   error
	saveErr  error
	lastSave service.SaveRecordInput
	items    []service.ModelListEntry
	deleted  int64
	readBy   string
}

func (f *fakeModels) EditableRecord(_ context.Context, id int64, actor models.User) (models.ModelRecord, error) {
	f.readBy = actor.ID
	if f.getErr != nil {
		return models.ModelRecord{}, f.getErr
	}
	record := f.record
	record.Item.ID = id
	return record, nil
}

func (f *fakeModels) SaveRecord(_ context.Context, _ int64, input service.SaveRecordInput, _ models.User) error {
	f.lastSave = input
	return f.saveErr
}

func (f *fakeModels) IssueNonce(_ context.Context, id int64, actor models.User) (string, error) {
	return fmt.Sprintf("nonce-%s-%d", actor.ID, id), nil
}

func (f *fakeModels) Create(_ context.Context, title string, actor models.User) (models.ModelItem, error) {
	return models.ModelItem{ID: 7, Title: title, AuthorID: actor.ID, Kind: models.KindModel}, nil
}

func (f *fakeModels) List(context.Context, models.User, int, int) ([]service.ModelListEntry, error) {
	return f.items, nil
}

func (f *fakeModels) Delete(_ context.Context, id int64, _ models.User) error {
	f.deleted = id
	return nil
}

func (f *fakeModels) Schema() []models.FormField { return models.ModelFormFields }

type fakeUploads struct {
	err      error
	filename string
}

func (f *fakeUploads) Upload(_ context.Context, input service.UploadInput) (service.UploadResult, error) {
	if f.err != nil {
		return service.UploadResult{}, f.err
	}
	f.filename = input.Header.Filename
	return service.UploadResult{
		Asset: models.Asset{
			ID:        "asset-1",
			Filename:  input.Header.Filename,
			Kind:      models.AssetKindModel,
			MimeType:  models.MimeGLTFBinary,
			Extension: "glb",
			Status:    models.AssetStatusProcessing,
			SizeBytes: input.Header.Size,
			CreatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		},
		URL: "https://cdn.example.com/models/asset-1.glb",
	}, nil
}

func (f *fakeUploads) AcceptedTypes(context.Context) map[string]string {
	return map[string]string{"glb": models.MimeGLTFBinary}
}

type fakeRender struct {
	overrides map[string]string
	block     viewer.BlockAttributes
	instance  int
}

func (f *fakeRender) RenderItem(_ context.Context, id int64, overrides map[string]string, instance int) string {
	f.overrides = overrides
	f.instance = instance
	return fmt.Sprintf(`<model-viewer data-id="%d"></model-viewer>`, id)
}

func (f *fakeRender) RenderShortcodes(_ context.Context, content string) string {
	return strings.ReplaceAll(content, `[3d_model id="1"]`, "<model-viewer></model-viewer>")
}

func (f *fakeRender) RenderBlock(_ context.Context, block viewer.BlockAttributes, instance int) string {
	f.block = block
	f.instance = instance
	return "<model-viewer></model-viewer>"
}

type fixture struct {
	router   *gin.Engine
	auth     *fakeAuth
	settings *fakeSettings
	models   *fakeModels
	uploads  *fakeUploads
	render   *fakeRender
}

func newFixture(services Services) *fixture {
	f := &fixture{
		auth:     &fakeAuth{},
		settings: &fakeSettings{defaults: models.FallbackViewerDefaults()},
		models:   &fakeModels{},
		uploads:  &fakeUploads{},
		render:   &fakeRender{},
	}
	services.Auth = f.auth
	services.Users = fakeLoader{admin.ID: admin, author.ID: author}
	services.Settings = f.settings
	services.Models = f.models
	services.Uploads = f.uploads
	services.Render = f.render

	cfg := &config.AppConfig{
		Environment: "test",
		Security:    config.SecurityConfig{JWTAccessSecret: testSecret},
	}
	f.router = gin.New()
	NewHandlerSet(zerolog.Nop(), cfg, services).Register(f.router.Group("/api"))
	return f
}

func (f *fixture) do(t *testing.T, req *http.Request, user *models.User) *httptest.ResponseRecorder {
	t.Helper()
	if user != nil {
		token, err := security.GenerateAccessToken(testSecret, user.ID, string(user.Role), time.Hour)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func formRequest(method, target string, form url.Values) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestHealth(t *testing.T) {
	f := newFixture(Services{
		PingDatabase: func(context.Context) error { return nil },
		PingCache:    func(context.Context) error { return errors.New("down") },
	})

	w := f.do(t, httptest.NewRequest(http.MethodGet, "/api/healthz", nil), nil)

	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "ok", body["database"])
	assert.Equal(t, "error", body["cache"])
	assert.Equal(t, "test", body["environment"])
}

func TestAuthEndpoints(t *testing.T) {
	f := newFixture(Services{})

	f.auth.err = repository.ErrEmailTaken
	w := f.do(t, jsonRequest(http.MethodPost, "/api/v1/auth/register",
		`{"email":"a@example.com","password":"password123","displayName":"A"}`), nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	f.auth.err = service.ErrInvalidCredentials
	w = f.do(t, jsonRequest(http.MethodPost, "/api/v1/auth/login",
		`{"email":"a@example.com","password":"nope"}`), nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	f.auth.err = nil
	f.auth.result = service.AuthResult{AccessToken: "tok", User: author}
	w = f.do(t, jsonRequest(http.MethodPost, "/api/v1/auth/login",
		`{"email":"author@example.com","password":"password123"}`), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "tok", decode(t, w)["accessToken"])

	w = f.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil), &admin)
	require.Equal(t, http.StatusOK, w.Code)
	user := decode(t, w)["user"].(map[string]any)
	assert.Equal(t, "admin", user["id"])
	assert.Contains(t, user["capabilities"], string(models.CapManageOptions))
}

func TestSettings(t *testing.T) {
	f := newFixture(Services{})

	w := f.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/settings", nil), nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = f.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/settings", nil), &author)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = f.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/settings", nil), &admin)
	require.Equal(t, http.StatusOK, w.Code)
	settings := decode(t, w)["settings"].(map[string]any)
	assert.Equal(t, "400px", settings["default_height"])

	form := url.Values{"default_width": {"50%"}, "lazy_loading": {"1"}}
	w = f.do(t, formRequest(http.MethodPut, "/api/v1/settings", form), &admin)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "50%", f.settings.saved.Get("default_width"))
	settings = decode(t, w)["settings"].(map[string]any)
	assert.Equal(t, "50%", settings["default_width"])

	w = f.do(t, httptest.NewRequest(http.MethodDelete, "/api/v1/settings", nil), &admin)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.True(t, f.settings.reset)
}

func TestUploadMedia(t *testing.T) {
	f := newFixture(Services{})

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "robot.glb")
	require.NoError(t, err)
	_, err = part.Write([]byte("glTF-binary-payload"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/media/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := f.do(t, req, &author)

	require.Equal(t, http.StatusCreated, w.Code)
	asset := decode(t, w)["asset"].(map[string]any)
	assert.Equal(t, "asset-1", asset["id"])
	assert.Equal(t, "processing", asset["status"])
	assert.Equal(t, "robot.glb", f.uploads.filename)

	w = f.do(t, httptest.NewRequest(http.MethodPost, "/api/v1/media/upload", nil), &author)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/upload/mimes", nil), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.MimeGLTFBinary, decode(t, w)["mimes"].(map[string]any)["glb"])
}

func TestUploadErrorMapping(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{service.ErrFileTooLarge, http.StatusRequestEntityTooLarge, "file_too_large"},
		{service.ErrUnsupportedType, http.StatusUnsupportedMediaType, "unsupported_type"},
		{service.ErrTypeNotAllowed, http.StatusUnsupportedMediaType, "type_not_allowed"},
		{fmt.Errorf("poster.png: %w", service.ErrTypeMismatch), http.StatusBadRequest, "type_mismatch"},
		{service.ErrEmptyFile, http.StatusBadRequest, "empty_file"},
		{errors.New("minio unreachable"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			status, code := uploadError(tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, code)
		})
	}
}

func TestSaveModel(t *testing.T) {
	f := newFixture(Services{})

	form := url.Values{"title": {"Robot"}, "wp3d_ar_enabled": {"1"}}
	req := formRequest(http.MethodPut, "/api/v1/models/3", form)
	req.Header.Set(middleware.NonceHeader, "n-1")
	w := f.do(t, req, &author)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "n-1", f.models.lastSave.Nonce)
	require.NotNil(t, f.models.lastSave.Title)
	assert.Equal(t, "Robot", *f.models.lastSave.Title)
	assert.False(t, f.models.lastSave.Autosave)

	form = url.Values{nonceField: {"from-form"}, "autosave": {"1"}}
	f.do(t, formRequest(http.MethodPut, "/api/v1/models/3", form), &author)
	assert.Equal(t, "from-form", f.models.lastSave.Nonce)
	assert.Nil(t, f.models.lastSave.Title)
	assert.True(t, f.models.lastSave.Autosave)
}

func TestSaveModel_Refusals(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"invalid nonce", &service.AuthError{Reason: service.AuthReasonInvalidNonce, ItemID: 3}, http.StatusBadRequest},
		{"autosave", &service.AuthError{Reason: service.AuthReasonAutosave, ItemID: 3}, http.StatusNoContent},
		{"forbidden", &service.AuthError{Reason: service.AuthReasonForbidden, ItemID: 3}, http.StatusForbidden},
		{"not found", repository.ErrModelNotFound, http.StatusNotFound},
		{"foreign upload", fmt.Errorf("%w: wp3d_model_file: a-2 belongs to another user", service.ErrInvalidAssetRef), http.StatusBadRequest},
		{"store failure", errors.New("connection reset"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(Services{})
			f.models.saveErr = tt.err

			w := f.do(t, formRequest(http.MethodPut, "/api/v1/models/3", url.Values{}), &author)
			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestModelEndpoints(t *testing.T) {
	f := newFixture(Services{})
	f.models.items = []service.ModelListEntry{{ModelItem: models.ModelItem{ID: 1}, Shortcode: service.Shortcode(1)}}

	w := f.do(t, jsonRequest(http.MethodPost, "/api/v1/models", `{"title":"Chair"}`), &author)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, `[3d_model id="7"]`, decode(t, w)["shortcode"])

	w = f.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/models", nil), &author)
	require.Equal(t, http.StatusOK, w.Code)
	items := decode(t, w)["items"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, `[3d_model id="1"]`, items[0].(map[string]any)["shortcode"])

	w = f.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/models/5/token", nil), &author)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "nonce-author-5", decode(t, w)["nonce"])

	w = f.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/models/schema", nil), &author)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["fields"], len(models.ModelFormFields))

	w = f.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/models/abc", nil), &author)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/models/9", nil), &author)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, author.ID, f.models.readBy)

	f.models.getErr = &service.AuthError{Reason: service.AuthReasonForbidden, ItemID: 9}
	w = f.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/models/9", nil), &author)
	assert.Equal(t, http.StatusForbidden, w.Code)

	f.models.getErr = repository.ErrModelNotFound
	w = f.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/models/9", nil), &author)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.do(t, httptest.NewRequest(http.MethodDelete, "/api/v1/models/4", nil), &author)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, int64(4), f.models.deleted)
}

func TestEmbed(t *testing.T) {
	f := newFixture(Services{})

	w := f.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/embed/12?width=50%25&ar=true", nil), nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, `<model-viewer data-id="12"></model-viewer>`, w.Body.String())
	assert.Equal(t, map[string]string{"width": "50%", "ar": "true"}, f.render.overrides)
	assert.Equal(t, 1, f.render.instance)

	w = f.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/embed/12?instance=3&ar=true", nil), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 3, f.render.instance)
	assert.Equal(t, map[string]string{"ar": "true"}, f.render.overrides)

	w = f.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/embed/12?instance=zero", nil), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/embed/0", nil), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRenderEndpoints(t *testing.T) {
	f := newFixture(Services{})

	w := f.do(t, jsonRequest(http.MethodPost, "/api/v1/render/shortcode",
		`{"content":"<p>[3d_model id=\"1\"]</p>"}`), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "<p><model-viewer></model-viewer></p>", decode(t, w)["html"])

	w = f.do(t, jsonRequest(http.MethodPost, "/api/v1/render/block",
		`{"attributes":{"src":"https://cdn.example.com/a.glb","ar":true}}`), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://cdn.example.com/a.glb", f.render.block.Src)
	assert.True(t, f.render.block.AR)
	assert.Equal(t, 1, f.render.instance)

	w = f.do(t, jsonRequest(http.MethodPost, "/api/v1/render/block",
		`{"attributes":{"src":"https://cdn.example.com/a.glb"},"instance":2}`), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, f.render.instance)

	w = f.do(t, jsonRequest(http.MethodPost, "/api/v1/render/block", `{`), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
