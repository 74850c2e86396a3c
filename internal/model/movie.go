package model

import "strings"

// Movie is a catalog entry.  Genres and Actors are the many-to-many
// relations stored in movie_genres and movie_actors.
//
// Fields:
//  ID          – primary key identifier.
//  Title       – display title, not unique.
//  Description – free-form synopsis.
//  Duration    – running time in minutes, always positive.
//  Image       – path of the uploaded poster relative to the media root, empty when none.
//  Genres      – attached genres ordered by id.
//  Actors      – attached actors ordered by id.
type Movie struct {
    ID          uint64  // movies.id
    Title       string  // movies.title
    Description string  // movies.description
    Duration    uint32  // movies.duration
    Image       string  // movies.image (nullable)
    Genres      []Genre // via movie_genres
    Actors      []Actor // via movie_actors
}

// GenreIDs returns the ids of the attached genres.
func (m Movie) GenreIDs() []uint64 {
    out := make([]uint64, 0, len(m.Genres))
    for _, g := range m.Genres {
        out = append(out, g.ID)
    }
    return out
}

// ActorIDs returns the ids of the attached actors.
func (m Movie) ActorIDs() []uint64 {
    out := make([]uint64, 0, len(m.Actors))
    for _, a := range m.Actors {
        out = append(out, a.ID)
    }
    return out
}

// MovieFilter selects movies for the list endpoint.  Supplied dimensions
// are combined with AND; ids within one dimension with OR.  A zero value
// matches every movie.
type MovieFilter struct {
    Title    string   // case-insensitive substring of the title
    GenreIDs []uint64 // movie has at least one of these genres
    ActorIDs []uint64 // movie has at least one of these actors
}

// IsEmpty reports whether no dimension is set.
func (f MovieFilter) IsEmpty() bool {
    return f.Title == "" && len(f.GenreIDs) == 0 && len(f.ActorIDs) == 0
}

// Matches evaluates the filter against a fully loaded movie.
func (f MovieFilter) Matches(m Movie) bool {
    if f.Title != "" && !strings.Contains(strings.ToLower(m.Title), strings.ToLower(f.Title)) {
        return false
    }
    if len(f.GenreIDs) > 0 && !intersects(f.GenreIDs, m.GenreIDs()) {
        return false
    }
    if len(f.ActorIDs) > 0 && !intersects(f.ActorIDs, m.ActorIDs()) {
        return false
    }
    return true
}

func intersects(want, have []uint64) bool {
    set := make(map[uint64]struct{}, len(have))
    for _, id := range have {
        set[id] = struct{}{}
    }
    for _, id := range want {
        if _, ok := set[id]; ok {
            return true
        }
    }
    return false
}
