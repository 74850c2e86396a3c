package model

import "time"

// MovieSession is a scheduled screening of a movie in a cinema hall.
//
// Fields:
//  ID           – primary key identifier.
//  MovieID      – the movie being shown.
//  CinemaHallID – the hall it is shown in.
//  ShowTime     – start time in UTC.
//  Movie        – the movie row; relations are only loaded for detail reads.
//  CinemaHall   – the hall row.
//  TicketsSold  – number of tickets sold for this session.
//  TakenPlaces  – sold row/seat pairs; only loaded for detail reads.
type MovieSession struct {
    ID           uint64    // movie_sessions.id
    MovieID      uint64    // movie_sessions.movie_id
    CinemaHallID uint64    // movie_sessions.cinema_hall_id
    ShowTime     time.Time // movie_sessions.show_time
    Movie        Movie
    CinemaHall   CinemaHall
    TicketsSold  int
    TakenPlaces  []Place
}

// TicketsAvailable is the number of unsold seats.
func (s MovieSession) TicketsAvailable() int {
    return s.CinemaHall.Capacity() - s.TicketsSold
}

// Place is a row/seat pair inside a hall.
type Place struct {
    Row  uint32
    Seat uint32
}

// SessionFilter selects sessions for the list endpoint.  Date, when set,
// keeps sessions whose show time falls on that UTC calendar day.  MovieIDs
// keeps sessions of any of the listed movies.
type SessionFilter struct {
    Date     *time.Time
    MovieIDs []uint64
}

// DayRange returns the half-open UTC interval [start, end) covered by Date.
func (f SessionFilter) DayRange() (time.Time, time.Time, bool) {
    if f.Date == nil {
        return time.Time{}, time.Time{}, false
    }
    d := f.Date.UTC()
    start := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
    return start, start.AddDate(0, 0, 1), true
}

// Matches evaluates the filter against a session.
func (f SessionFilter) Matches(s MovieSession) bool {
    if start, end, ok := f.DayRange(); ok {
        t := s.ShowTime.UTC()
        if t.Before(start) || !t.Before(end) {
            return false
        }
    }
    if len(f.MovieIDs) > 0 && !intersects(f.MovieIDs, []uint64{s.MovieID}) {
        return false
    }
    return true
}
