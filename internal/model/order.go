package model

import "time"

// Order groups the tickets a user bought in one checkout.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – buyer.
//  CreatedAt – creation timestamp (UTC).
//  Tickets   – tickets purchased in this order.
type Order struct {
    ID        uint64    // orders.id
    UserID    uint64    // orders.user_id
    CreatedAt time.Time // orders.created_at
    Tickets   []Ticket
}

// Ticket is one seat for one movie session.  A place can be sold only once
// per session.
type Ticket struct {
    ID             uint64 // tickets.id
    OrderID        uint64 // tickets.order_id
    MovieSessionID uint64 // tickets.movie_session_id
    Row            uint32 // tickets.seat_row
    Seat           uint32 // tickets.seat
    // MovieSession is populated when orders are listed; it holds the movie
    // title/image and hall so the list view can be rendered.
    MovieSession *MovieSession
}
