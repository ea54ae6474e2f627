// Package router assembles the gin engine: global middleware, role gates and every route.
package router

import (
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/render"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-adp-web/internal/handler"
	"github.com/noah-isme/sma-adp-web/internal/middleware"
	"github.com/noah-isme/sma-adp-web/internal/models"
	"github.com/noah-isme/sma-adp-web/internal/service"
	"github.com/noah-isme/sma-adp-web/pkg/config"
	"github.com/noah-isme/sma-adp-web/pkg/logger"
	"github.com/noah-isme/sma-adp-web/pkg/middleware/requestid"
)

// Handlers groups the HTTP handlers served by the engine.
type Handlers struct {
	Auth        *handler.AuthHandler
	Dashboard   *handler.DashboardHandler
	Students    *handler.StudentHandler
	Teachers    *handler.TeacherHandler
	Subjects    *handler.SubjectHandler
	Expenses    *handler.ExpenseHandler
	Fees        *handler.FeeHandler
	Messages    *handler.MessageHandler
	Exports     *handler.ExportHandler
	Diagnostics *handler.DiagnosticsHandler
	Health      *handler.HealthHandler
}

// Options carries the engine-wide dependencies.
type Options struct {
	Env          string
	SchoolName   string
	Session      config.SessionConfig
	MetricsToken string
	Logger       *zap.Logger
	Metrics      *service.MetricsService
	Renderer     render.HTMLRender
}

// New builds the engine with the role matrix applied.
func New(opts Options, h Handlers) *gin.Engine {
	logr := opts.Logger
	if logr == nil {
		logr = zap.NewNop()
	}

	r := gin.New()
	r.HTMLRender = opts.Renderer
	r.Use(middleware.Recovery(logr))
	r.Use(requestid.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(middleware.Metrics(opts.Metrics))
	r.Use(middleware.Sessions(opts.Session))
	r.Use(middleware.LoadUser())
	r.Use(handler.SchoolName(opts.SchoolName))
	r.NoRoute(handler.NotFound)

	r.GET("/health", h.Health.Health)
	r.GET("/ready", h.Health.Ready)
	r.GET("/metrics", middleware.RequireScrapeToken(opts.MetricsToken), gin.WrapH(opts.Metrics.Handler()))
	if opts.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	r.GET("/login", h.Auth.LoginPage)
	r.POST("/login", h.Auth.Login)
	r.POST("/logout", h.Auth.Logout)

	signedIn := middleware.RequireRole()
	admin := middleware.RequireRole(models.RoleAdmin)
	rowID := middleware.RequireUUIDParam("id", handler.NotFound)

	r.GET("/", signedIn, h.Dashboard.Home)
	r.GET("/messages", signedIn, h.Messages.Inbox)
	r.POST("/messages", signedIn, h.Messages.Send)
	r.GET("/uploads/:token", signedIn, h.Students.Photo)
	r.GET("/export/:entity", signedIn, h.Exports.Export)

	students := r.Group("/students", middleware.RequireRole(models.RoleAdmin, models.RoleTeacher))
	{
		students.GET("", h.Students.List)
		students.GET("/new", admin, h.Students.NewForm)
		students.POST("/new", admin, h.Students.Create)
		students.GET("/:id", rowID, h.Students.Show)
		students.GET("/:id/edit", admin, rowID, h.Students.EditForm)
		students.POST("/:id/edit", admin, rowID, h.Students.Update)
		students.POST("/:id/deactivate", admin, rowID, h.Students.Deactivate)
	}

	teachers := r.Group("/teachers", middleware.RequireRole(models.RoleAdmin, models.RoleTeacher))
	{
		teachers.GET("", h.Teachers.List)
		teachers.GET("/new", admin, h.Teachers.NewForm)
		teachers.POST("/new", admin, h.Teachers.Create)
		teachers.GET("/:id/edit", admin, rowID, h.Teachers.EditForm)
		teachers.POST("/:id/edit", admin, rowID, h.Teachers.Update)
	}

	subjects := r.Group("/subjects", middleware.RequireRole(models.RoleAdmin, models.RoleTeacher))
	{
		subjects.GET("", h.Subjects.List)
		subjects.GET("/new", admin, h.Subjects.NewForm)
		subjects.POST("/new", admin, h.Subjects.Create)
		subjects.GET("/:id/edit", admin, rowID, h.Subjects.EditForm)
		subjects.POST("/:id/edit", admin, rowID, h.Subjects.Update)
	}

	expenses := r.Group("/expenses", middleware.RequireRole(models.RoleAdmin, models.RoleCashier))
	{
		expenses.GET("", h.Expenses.List)
		expenses.GET("/new", h.Expenses.NewForm)
		expenses.POST("/new", h.Expenses.Create)
		expenses.GET("/:id/edit", rowID, h.Expenses.EditForm)
		expenses.POST("/:id/edit", rowID, h.Expenses.Update)
		expenses.POST("/:id/approve", admin, rowID, h.Expenses.Approve)
	}

	fees := r.Group("/fees", middleware.RequireRole(models.RoleAdmin, models.RoleCashier))
	{
		fees.GET("", h.Fees.List)
		fees.GET("/new", h.Fees.NewForm)
		fees.POST("/new", h.Fees.Create)
		fees.GET("/:id/receipt", rowID, h.Fees.Receipt)
		fees.GET("/:id/receipt.pdf", rowID, h.Fees.ReceiptPDF)
	}

	diagnostics := r.Group("/admin/diagnostics", admin)
	{
		diagnostics.GET("", h.Diagnostics.Page)
		diagnostics.POST("/cache/flush", h.Diagnostics.FlushCache)
	}

	api := r.Group("/api", middleware.RequireAPIRole())
	{
		api.GET("/messages/unread-count", h.Messages.UnreadCount)
		api.GET("/messages", h.Messages.Recent)
		api.POST("/messages/:id/read", rowID, h.Messages.MarkRead)
		api.GET("/students", middleware.RequireAPIRole(models.RoleAdmin, models.RoleTeacher, models.RoleCashier), h.Students.Options)
		api.POST("/students/:id/photo", middleware.RequireAPIRole(models.RoleAdmin), rowID, h.Students.UploadPhoto)
		api.GET("/admin/diagnostics", middleware.RequireAPIRole(models.RoleAdmin), h.Diagnostics.JSON)
	}

	return r
}
