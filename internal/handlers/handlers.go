package handlers

import (
	"context"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"modelviewer/internal/config"
	"modelviewer/internal/middleware"
	"modelviewer/internal/models"
	"modelviewer/internal/service"
	"modelviewer/internal/viewer"
)

type AuthAPI interface {
	Register(ctx context.Context, input service.RegisterInput) (service.AuthResult, error)
	Login(ctx context.Context, input service.LoginInput) (service.AuthResult, error)
}

type SettingsAPI interface {
	GetDefaults(ctx context.Context) models.ViewerDefaults
	SaveDefaults(ctx context.Context, form url.Values) (models.ViewerDefaults, error)
	Reset(ctx context.Context) error
}

type ModelAPI interface {
	EditableRecord(ctx context.Context, id int64, actor models.User) (models.ModelRecord, error)
	SaveRecord(ctx context.Context, id int64, input service.SaveRecordInput, actor models.User) error
	IssueNonce(ctx context.Context, id int64, actor models.User) (string, error)
	Create(ctx context.Context, title string, actor models.User) (models.ModelItem, error)
	List(ctx context.Context, actor models.User, limit, offset int) ([]service.ModelListEntry, error)
	Delete(ctx context.Context, id int64, actor models.User) error
	Schema() []models.FormField
}

type UploadAPI interface {
	Upload(ctx context.Context, input service.UploadInput) (service.UploadResult, error)
	AcceptedTypes(ctx context.Context) map[string]string
}

type RenderAPI interface {
	RenderItem(ctx context.Context, id int64, overrides map[string]string, instance int) string
	RenderShortcodes(ctx context.Context, content string) string
	RenderBlock(ctx context.Context, block viewer.BlockAttributes, instance int) string
}

// PingFunc reports whether a backing service is reachable.
type PingFunc func(ctx context.Context) error

// Services is everything the HTTP surface calls into.
type Services struct {
	Auth     AuthAPI
	Users    middleware.UserLoader
	Settings SettingsAPI
	Models   ModelAPI
	Uploads  UploadAPI
	Render   RenderAPI

	PingDatabase PingFunc
	PingCache    PingFunc
}

type HandlerSet struct {
	log      zerolog.Logger
	cfg      *config.AppConfig
	auth     AuthAPI
	users    middleware.UserLoader
	settings SettingsAPI
	models   ModelAPI
	uploads  UploadAPI
	render   RenderAPI
	pingDB   PingFunc
	pingRDB  PingFunc
}

func NewHandlerSet(log zerolog.Logger, cfg *config.AppConfig, services Services) HandlerSet {
	return HandlerSet{
		log:      log,
		cfg:      cfg,
		auth:     services.Auth,
		users:    services.Users,
		settings: services.Settings,
		models:   services.Models,
		uploads:  services.Uploads,
		render:   services.Render,
		pingDB:   services.PingDatabase,
		pingRDB:  services.PingCache,
	}
}

func (h HandlerSet) Register(router *gin.RouterGroup) {
	router.GET("/healthz", h.Health)

	requireAuth := middleware.Auth(h.cfg.Security.JWTAccessSecret, h.users)

	v1 := router.Group("/v1")
	{
		auth := v1.Group("/auth")
		auth.POST("/register", h.RegisterUser)
		auth.POST("/login", h.Login)
		auth.GET("/me", requireAuth, h.Me)
	}

	v1.GET("/upload/mimes", h.UploadMimes)
	v1.GET("/embed/:id", h.Embed)

	render := v1.Group("/render")
	render.POST("/shortcode", h.RenderShortcode)
	render.POST("/block", h.RenderBlock)

	settings := v1.Group("/settings")
	settings.Use(requireAuth, middleware.RequireCapability(models.CapManageOptions))
	settings.GET("", h.GetSettings)
	settings.PUT("", h.SaveSettings)
	settings.DELETE("", h.ResetSettings)

	media := v1.Group("/media")
	media.Use(requireAuth, middleware.RequireCapability(models.CapEditModels))
	media.POST("/upload", h.UploadMedia)

	items := v1.Group("/models")
	items.Use(requireAuth)
	items.POST("", middleware.RequireCapability(models.CapEditModels), h.CreateModel)
	items.GET("", middleware.RequireCapability(models.CapEditModels), h.ListModels)
	items.GET("/schema", h.ModelSchema)
	items.GET("/:id", middleware.RequireCapability(models.CapEditModels), h.GetModel)
	items.GET("/:id/token", h.ModelToken)
	items.PUT("/:id", h.SaveModel)
	items.DELETE("/:id", middleware.RequireCapability(models.CapEditModels), h.DeleteModel)
}
