package api

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/wb-go/wbf/ginext"

	"eventhub/cmd/middleware"
	"eventhub/internal/auth"
	"eventhub/internal/service"
)

type Routers struct {
	Service        service.Service
	JWT            *auth.JWTManager
	RequestTimeout time.Duration
}

func NewRouters(r *Routers) *ginext.Engine {
	app := ginext.New("release")

	app.Use(middleware.LoggingMiddleware())
	app.Use(middleware.TimeoutMiddleware(r.RequestTimeout))
	app.Use(cors.Default())

	apiGroup := app.Group("/v1")

	// Credential issuance and activation, no session required.
	apiGroup.POST("/register", r.Service.Register)
	apiGroup.POST("/login", r.Service.Login)
	apiGroup.POST("/activate/:token", r.Service.Activate)
	apiGroup.POST("/tokens/activation", r.Service.ResendActivation)
	apiGroup.GET("/users/me", middleware.OptionalAuth(r.JWT), r.Service.GetMe)

	// Public catalog; admins get the widened view when a token is present.
	apiGroup.GET("/events", middleware.OptionalAuth(r.JWT), r.Service.GetAllEvents)
	apiGroup.GET("/events/:id", middleware.OptionalAuth(r.JWT), r.Service.GetEvent)

	// Activated non-admin accounts.
	apiGroup.GET("/events/user", middleware.RequireUser(r.JWT), r.Service.GetJoinableEvents)
	apiGroup.POST("/events/:id/apply", middleware.RequireUser(r.JWT), r.Service.Apply)
	apiGroup.DELETE("/events/:id/unapply", middleware.RequireUser(r.JWT), r.Service.Unapply)
	apiGroup.GET("/eventapps/user", middleware.RequireUser(r.JWT), r.Service.GetMyEvents)
	apiGroup.POST("/subscribe/:category", middleware.RequireUser(r.JWT), r.Service.Subscribe)
	apiGroup.DELETE("/subscribe/:category", middleware.RequireUser(r.JWT), r.Service.Unsubscribe)
	apiGroup.GET("/subscriptions/user", middleware.RequireUser(r.JWT), r.Service.GetMySubscriptions)

	// Admin surface.
	apiGroup.POST("/events", middleware.RequireAdmin(r.JWT), r.Service.CreateEvent)
	apiGroup.PUT("/events/:id", middleware.RequireAdmin(r.JWT), r.Service.UpdateEvent)
	apiGroup.DELETE("/events/:id", middleware.RequireAdmin(r.JWT), r.Service.DeleteEvent)
	apiGroup.GET("/eventApps", middleware.RequireAdmin(r.JWT), r.Service.GetRosters)

	app.GET("/ping", func(c *ginext.Context) {
		c.String(200, "pong")
	})

	return app
}
