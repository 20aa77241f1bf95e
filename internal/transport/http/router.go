package httptransport

import (
	"github.com/ancodefactory/postpilot/internal/transport/http/handler"
	"github.com/ancodefactory/postpilot/internal/transport/http/middleware"
	"github.com/gin-gonic/gin"
)

type Handlers struct {
	Auth     *handler.AuthHandler
	Template *handler.TemplateHandler
	Post     *handler.PostHandler
	Schedule *handler.ScheduleHandler
	Job      *handler.JobHandler
}

func NewRouter(h Handlers, jwtKey []byte) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.Metrics())

	r.POST("/auth/login", h.Auth.Login)

	api := r.Group("", middleware.Auth(jwtKey))

	templates := api.Group("/templates")
	templates.POST("", h.Template.Create)
	templates.GET("", h.Template.List)
	templates.GET("/:id", h.Template.GetByID)
	templates.PATCH("/:id", h.Template.SetActive)
	templates.POST("/:id/variants", h.Template.CreateVariant)
	templates.GET("/:id/variants", h.Template.ListVariants)
	templates.PATCH("/:id/variants/:variant_id", h.Template.SetVariantActive)

	posts := api.Group("/posts")
	posts.POST("", h.Post.Create)
	posts.GET("/:id", h.Post.GetByID)
	posts.DELETE("/:id", h.Post.Delete)

	schedules := api.Group("/schedules")
	schedules.POST("", h.Schedule.Create)
	schedules.GET("", h.Schedule.List)
	schedules.GET("/:id", h.Schedule.GetByID)
	schedules.POST("/:id/pause", h.Schedule.Pause)
	schedules.POST("/:id/resume", h.Schedule.Resume)
	schedules.DELETE("/:id", h.Schedule.Delete)
	schedules.GET("/:id/jobs", h.Schedule.ListJobs)

	jobs := api.Group("/jobs")
	jobs.GET("/:id", h.Job.GetByID)
	jobs.POST("/:id/cancel", h.Job.Cancel)
	jobs.GET("/:id/attempts", h.Job.ListAttempts)

	return r
}
