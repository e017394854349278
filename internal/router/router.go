// Package router registers the HTTP routes.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/menupress/menupress/internal/config"
	"github.com/menupress/menupress/internal/handler"
	"github.com/menupress/menupress/internal/middleware"
	"github.com/menupress/menupress/internal/session"
)

// Handlers bundles everything the route table needs.
type Handlers struct {
	Auth      *handler.AuthHandler
	User      *handler.UserHandler
	Menu      *handler.MenuHandler
	Analytics *handler.AnalyticsHandler
	Contact   *handler.ContactHandler
}

// Register wires the full route table onto the Echo instance. The login
// endpoint additionally passes through the Redis token bucket, and the
// public menu read sits behind the response cache. Both degrade to
// passthrough when Redis is down.
func Register(e *echo.Echo, h Handlers, sessions *session.Manager, rdb *redis.Client) {
	authRequired := middleware.SessionAuth(sessions)
	rateLimit := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

	e.GET("/ping", handler.Ping)

	auth := e.Group("/auth")
	auth.POST("/send-otp", h.Auth.SendOTP)
	auth.POST("/verify-otp", h.Auth.VerifyOTP)
	auth.POST("/login", h.Auth.Login, rateLimit)
	auth.POST("/logout", h.Auth.Logout, authRequired)
	// validate-session reads the header itself so it can answer 401
	// with a precise reason instead of the middleware's generic one.
	auth.GET("/validate-session", h.Auth.ValidateSession)
	auth.GET("/protected", h.Auth.Protected, authRequired)
	auth.POST("/change-password", h.Auth.ChangePassword, authRequired)
	auth.POST("/delete-otp", h.Auth.DeleteOTP, authRequired)
	auth.POST("/verify-delete-otp", h.Auth.VerifyDeleteOTP, authRequired)

	user := e.Group("/user")
	user.GET("/profile", h.User.Profile, authRequired)
	user.GET("/signin-logs", h.User.SignInLogs, authRequired)
	user.POST("/register", h.User.Register)

	menu := e.Group("/api/menu")
	menu.POST("", h.Menu.Create, authRequired)
	menu.GET("/my-menu", h.Menu.MyMenu, authRequired)
	menu.GET("/logs", h.Menu.Logs, authRequired)
	menu.GET("/logs/recent", h.Menu.RecentLogs, authRequired)
	menu.PUT("/:menuId", h.Menu.Update, authRequired)
	menu.DELETE("/:menuId", h.Menu.Delete, authRequired)
	// Static segments (my-menu, logs) win over the param route in Echo,
	// so the public read can share the prefix.
	menu.GET("/:restaurantName", h.Menu.PublicByRestaurant, cache)

	analytics := e.Group("/api/analytics")
	analytics.POST("/log", h.Analytics.LogVisit)
	analytics.GET("", h.Analytics.All)

	e.POST("/api/contact", h.Contact.Submit)
}
