package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/iliyamo/cycle-stand-reservation/internal/handler"    // handlers that implement the endpoint logic
	"github.com/iliyamo/cycle-stand-reservation/internal/middleware" // middleware for JWT authentication and role enforcement
)

// RegisterRoutes registers routes that do not require authentication on
// the provided Echo instance.  Currently it exposes only a health check
// used by load balancers and monitoring.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers all authentication-related routes and applies
// the necessary middleware.  Unauthenticated operations live under
// /v1/auth, while protected endpoints live under /v1.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	// Operations that do not require an existing session.
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	// Refresh rotates the refresh token; refresh-access issues a new
	// access token without rotating.
	g.POST("/refresh", a.Refresh)
	g.POST("/refresh-access", a.RefreshAccess)
	// Logout accepts either a Bearer token (revoke all sessions) or a
	// refresh_token body (revoke one), so it needs no JWT middleware.
	g.POST("/logout", a.Logout)

	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.Use(middleware.RequireRole("ADMIN", "RIDER"))
	auth.GET("/me", a.Me)
}

// RegisterRider wires the rider-facing endpoints: stand availability,
// cycle unlock, and the rider's own status/history.  All routes require
// a valid access token.  The availability GETs additionally go through
// the Redis response cache (availability is not user-specific) and the
// unlock POST through the token-bucket rate limiter, protecting the
// engine from request storms; either middleware may be nil-equivalent
// (a passthrough) when Redis is unavailable.
func RegisterRider(e *echo.Echo, sh *handler.StandHandler, ch *handler.CycleHandler, uh *handler.UserHandler, jwtSecret string, cacheMW, rateMW echo.MiddlewareFunc) {
	v1 := e.Group("/v1")
	v1.Use(middleware.JWTAuth(jwtSecret))
	v1.Use(middleware.RequireRole("ADMIN", "RIDER"))

	stands := v1.Group("/stands")
	if cacheMW != nil {
		stands.Use(cacheMW)
	}
	stands.GET("", sh.GetStands)
	stands.GET("/:id", sh.GetStandAvailability)

	cycles := v1.Group("/cycles")
	if rateMW != nil {
		cycles.Use(rateMW)
	}
	cycles.POST("/:id/unlock", ch.Unlock)

	v1.GET("/me/status", uh.Status)
	v1.GET("/me/history", uh.History)
}

// RegisterAdmin wires operator-only endpoints.  Today that is the
// force-release escape hatch for cycles stuck by unresponsive hardware.
func RegisterAdmin(e *echo.Echo, ch *handler.CycleHandler, jwtSecret string) {
	admin := e.Group("/v1/admin")
	admin.Use(middleware.JWTAuth(jwtSecret))
	admin.Use(middleware.RequireRole("ADMIN"))
	admin.POST("/cycles/:id/release", ch.ForceRelease)
}
