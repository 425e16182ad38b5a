package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/joemdev/pool-scoreboard/internal/handler"    // import the handlers that implement business logic
	"github.com/joemdev/pool-scoreboard/internal/middleware" // import middleware for JWT authentication and role enforcement
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	// Map the GET request at path "/healthz" to the Health handler.  This
	// endpoint can be used by load balancers or monitoring systems to verify
	// that the service is up and running.
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers all authentication‑related routes and applies the
// necessary middleware.  Unauthenticated operations live under /v1/auth,
// while protected endpoints live under /v1.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	// Operations that do not require an existing session (register, login,
	// refresh, logout).  Each handler is responsible for generating or
	// exchanging tokens.
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	// Refresh rotates the refresh token and returns a new pair.
	g.POST("/refresh", a.Refresh)
	// Logout accepts either a refresh token in the body (single session) or a
	// bearer token with no body (all sessions); no JWT middleware required.
	g.POST("/logout", a.Logout)

	// Routes that require a valid access token.  All handlers registered on
	// this group execute the JWTAuth middleware before being invoked.
	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.Use(middleware.RequireRole("PLAYER", "ADMIN"))
	// Return the authenticated user's information.
	auth.GET("/me", a.Me)
}

// RegisterScoreboard registers the session and kelly endpoints.  Reads are
// public so anyone in the hall can follow the board from their phone; every
// mutation requires a valid access token.  The optional cache middleware is
// applied to the public reads only, since mutations must never be served
// from cache.
func RegisterScoreboard(e *echo.Echo, s *handler.SessionHandler, k *handler.KellyHandler, jwtSecret string, cache echo.MiddlewareFunc) {
	// Public read endpoints.
	read := e.Group("/v1")
	if cache != nil {
		read.Use(cache)
	}
	// Best-of-five session reads.
	read.GET("/sessions/active", s.GetActive)
	read.GET("/scores", s.GetScores)
	read.GET("/lifetime-games", s.GetLifetimeGames)
	read.GET("/match-history", s.GetMatchHistory)
	read.GET("/streaks", s.GetStreaks)
	// Kelly reads.
	read.GET("/kelly/active", k.GetActive)
	read.GET("/kelly/history", k.GetHistory)
	read.GET("/kelly/leaderboard", k.GetLeaderboard)
	read.GET("/kelly/:id/log", k.GetGameLog)

	// Mutations require authentication; both roles may keep score.
	write := e.Group("/v1")
	write.Use(middleware.JWTAuth(jwtSecret))
	write.Use(middleware.RequireRole("PLAYER", "ADMIN"))
	// Session lifecycle.
	write.POST("/sessions", s.Create)
	write.POST("/sessions/:id/games", s.RecordWin)
	write.DELETE("/sessions/:id/games/last", s.UndoLast)
	write.POST("/sessions/:id/end", s.EndEarly)
	write.POST("/sessions/:id/cancel", s.Cancel)
	// Kelly lifecycle.
	write.POST("/kelly/games", k.CreateGame)
	write.POST("/kelly/:id/pocket", k.PocketBall)
	write.POST("/kelly/:id/unpocket", k.UnpocketBall)
	write.POST("/kelly/:id/peek", k.RecordPeek)
	write.POST("/kelly/:id/cancel", k.Cancel)
}
