package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/iliyamo/cinema-catalog/internal/handler"    // handlers that implement the endpoints
	"github.com/iliyamo/cinema-catalog/internal/middleware" // access gate for authenticated and staff routes
)

// RegisterRoutes registers the unauthenticated probe endpoints.  /readyz
// pings db so orchestrators stop routing traffic while the store is down.
func RegisterRoutes(e *echo.Echo, db handler.Pinger) {
	e.GET("/healthz", handler.Health)
	e.GET("/readyz", handler.Ready(db))
}

// RegisterAuth registers the user account and token endpoints under
// /api/user.  Only /me requires an access token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/api/user")
	g.POST("/register", a.Register)
	g.POST("/token", a.Token)
	// Rotates the refresh token: the presented one is revoked.
	g.POST("/token/refresh", a.Refresh)
	// Revokes one refresh token (body) or all of the caller's (bearer).
	g.POST("/token/revoke", a.Revoke)

	authed := middleware.Gate(jwtSecret, middleware.Authenticated)
	g.GET("/me", a.Me, authed)
	g.PUT("/me", a.UpdateMe, authed)
	g.PATCH("/me", a.UpdateMe, authed)
}

// RegisterCinema registers the catalog and order endpoints under
// /api/cinema.  Catalog routes are readable by any authenticated user and
// writable by staff only.  The gate is attached per route rather than with
// Group.Use so unknown paths still answer 404 and unregistered methods 405.
func RegisterCinema(e *echo.Echo, h *handler.CatalogHandler, o *handler.OrderHandler, jwtSecret string) {
	g := e.Group("/api/cinema")
	catalog := middleware.Gate(jwtSecret, middleware.ReadOnlyForUsers)
	staff := middleware.Gate(jwtSecret, middleware.Staff)
	authed := middleware.Gate(jwtSecret, middleware.Authenticated)

	g.GET("/genres", h.ListGenres, catalog)
	g.POST("/genres", h.CreateGenre, catalog)

	g.GET("/actors", h.ListActors, catalog)
	g.POST("/actors", h.CreateActor, catalog)

	g.GET("/cinema_halls", h.ListCinemaHalls, catalog)
	g.POST("/cinema_halls", h.CreateCinemaHall, catalog)

	// Movies are list/retrieve/create only; PUT and DELETE answer 405.
	g.GET("/movies", h.ListMovies, catalog)
	g.POST("/movies", h.CreateMovie, catalog)
	g.GET("/movies/:id", h.GetMovie, catalog)
	g.POST("/movies/:id/upload-image", h.UploadMovieImage, staff)

	g.GET("/movie_sessions", h.ListMovieSessions, catalog)
	g.POST("/movie_sessions", h.CreateMovieSession, catalog)
	g.GET("/movie_sessions/:id", h.GetMovieSession, catalog)
	g.PUT("/movie_sessions/:id", h.UpdateMovieSession, catalog)
	g.PATCH("/movie_sessions/:id", h.UpdateMovieSession, catalog)
	g.DELETE("/movie_sessions/:id", h.DeleteMovieSession, catalog)

	g.GET("/orders", o.ListOrders, authed)
	g.POST("/orders", o.CreateOrder, authed)
}
