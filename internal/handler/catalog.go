package handler

import (
	"github.com/iliyamo/cinema-catalog/internal/serializer"
)

// CatalogHandler serves genres, actors, cinema halls, movies and movie
// sessions.
type CatalogHandler struct {
	Genres   GenreStore
	Actors   ActorStore
	Halls    CinemaHallStore
	Movies   MovieStore
	Sessions MovieSessionStore
	Images   ImageStore
	Views    serializer.Views
}

// NewCatalogHandler wires the catalog stores; it panics on a nil dependency
// so misconfiguration fails at startup rather than on the first request.
func NewCatalogHandler(g GenreStore, a ActorStore, h CinemaHallStore, m MovieStore, s MovieSessionStore, img ImageStore, v serializer.Views) *CatalogHandler {
	if g == nil || a == nil || h == nil || m == nil || s == nil || img == nil {
		panic("nil dependency passed to NewCatalogHandler")
	}
	return &CatalogHandler{Genres: g, Actors: a, Halls: h, Movies: m, Sessions: s, Images: img, Views: v}
}
