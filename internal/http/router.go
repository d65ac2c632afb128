package httpapi

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/campusfix/backend/internal/config"
	"github.com/campusfix/backend/internal/db"
	"github.com/campusfix/backend/internal/http/handlers"
	"github.com/campusfix/backend/internal/http/middleware"
	"github.com/campusfix/backend/internal/service"

	_ "github.com/campusfix/backend/docs"
)

func Router(cfg config.Config, store *db.Store, lifecycle *service.Lifecycle, distributor *service.Distributor, logger zerolog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Admin-Key", "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if cfg.CORSAllowed == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = []string{cfg.CORSAllowed}
	}
	r.Use(cors.New(corsCfg))

	h := &handlers.Handler{
		Store:       store,
		Lifecycle:   lifecycle,
		Distributor: distributor,
		Validator:   validator.New(),
		Logger:      logger,
	}

	r.GET("/healthz", h.Healthz)

	api := r.Group("/api")
	{
		api.POST("/tickets", h.CreateTicket)
		api.GET("/tickets", h.TicketsList)
		api.GET("/tickets/:id", h.TicketDetails)
		api.GET("/workers", h.WorkersList)
	}

	admin := api.Group("")
	admin.Use(middleware.AdminKey(cfg.AdminKey))
	{
		admin.POST("/tickets/:id/transition", h.Transition)
		admin.POST("/tickets/:id/assign", h.Assign)
		admin.PATCH("/tickets/:id/severity", h.SetSeverity)
		admin.POST("/tasks/distribute", h.DistributeTasks)
		admin.GET("/tasks", h.TasksList)
		admin.POST("/tasks/:id/reassign", h.ReassignTask)
		admin.POST("/tasks/:id/start", h.StartTask)
		admin.POST("/tasks/:id/complete", h.CompleteTask)
	}

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}
