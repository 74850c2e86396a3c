// Package queue defines message payloads exchanged over the message broker
// and the consumer that records them.
package queue

// OrderCreatedQueue is the durable queue order events are published to.
const OrderCreatedQueue = "order.created"

// OrderCreatedEvent is published after an order and its tickets are stored.
// It carries enough information for downstream consumers to log, notify or
// trigger analytics without querying the primary database.
type OrderCreatedEvent struct {
	OrderID   uint64        `json:"order_id"`
	UserID    uint64        `json:"user_id"`
	CreatedAt string        `json:"created_at"`
	Tickets   []TicketEvent `json:"tickets"`
}

// TicketEvent is one purchased seat.
type TicketEvent struct {
	MovieSessionID uint64 `json:"movie_session_id"`
	MovieTitle     string `json:"movie_title"`
	ShowTime       string `json:"show_time"`
	Row            uint32 `json:"row"`
	Seat           uint32 `json:"seat"`
}
